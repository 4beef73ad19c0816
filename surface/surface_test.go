package surface

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slidekit/key2pdf/coords"
	"github.com/slidekit/key2pdf/ir/scene"
)

func TestRectPathSharp(t *testing.T) {
	cmds := RectPath(coords.Rect{X: 1, Y: 2, W: 10, H: 20}, 0)
	require.Len(t, cmds, 5)
	assert.Equal(t, scene.OpMove, cmds[0].Op)
	assert.Equal(t, coords.Point{X: 1, Y: 2}, cmds[0].Pts[0])
	assert.Equal(t, coords.Point{X: 11, Y: 22}, cmds[2].Pts[0])
	assert.Equal(t, scene.OpClose, cmds[4].Op)
}

func TestRectPathRoundedClampsRadius(t *testing.T) {
	cmds := RectPath(coords.Rect{W: 10, H: 100}, 50)
	// Radius clamps to half the short side, so the path starts at x=5.
	assert.Equal(t, coords.Point{X: 5, Y: 0}, cmds[0].Pts[0])
	curves := 0
	for _, c := range cmds {
		if c.Op == scene.OpCurve {
			curves++
		}
	}
	assert.Equal(t, 4, curves)
}

func TestOvalPath(t *testing.T) {
	cmds := OvalPath(coords.Rect{W: 100, H: 50})
	require.Len(t, cmds, 6)
	assert.Equal(t, coords.Point{X: 100, Y: 25}, cmds[0].Pts[0])
	for _, c := range cmds[1:5] {
		assert.Equal(t, scene.OpCurve, c.Op)
	}
}

func TestLinePath(t *testing.T) {
	r := coords.Rect{X: 10, Y: 10, W: 30, H: 20}
	fwd := LinePath(r, false)
	assert.Equal(t, coords.Point{X: 10, Y: 10}, fwd[0].Pts[0])
	assert.Equal(t, coords.Point{X: 40, Y: 30}, fwd[1].Pts[0])

	rev := LinePath(r, true)
	assert.Equal(t, coords.Point{X: 10, Y: 30}, rev[0].Pts[0])
	assert.Equal(t, coords.Point{X: 40, Y: 10}, rev[1].Pts[0])
}
