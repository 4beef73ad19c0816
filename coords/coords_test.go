package coords

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentityLaw(t *testing.T) {
	transforms := []Matrix{
		Identity(),
		Translate(10, -3),
		Scale(2, 0.5),
		Rotate(math.Pi / 3),
		Skew(0.2, -0.1),
		Translate(5, 5).Multiply(Rotate(1)).Multiply(Scale(3, 3)),
	}
	for _, m := range transforms {
		assert.Equal(t, m, m.Multiply(Identity()))
		assert.Equal(t, m, Identity().Multiply(m))
	}
}

func TestMultiplyOrder(t *testing.T) {
	// Scale then translate is not translate then scale.
	m1 := Scale(2, 2).Multiply(Translate(10, 0))
	m2 := Translate(10, 0).Multiply(Scale(2, 2))

	p := Point{X: 1, Y: 1}
	assert.Equal(t, Point{X: 12, Y: 2}, m1.Transform(p))
	assert.Equal(t, Point{X: 22, Y: 2}, m2.Transform(p))
}

func TestInverseRoundTrip(t *testing.T) {
	m := Translate(4, 9).Multiply(Rotate(0.7)).Multiply(Scale(3, 1.5))
	inv, err := m.Inverse()
	require.NoError(t, err)

	p := Point{X: 13, Y: -2}
	back := inv.Transform(m.Transform(p))
	assert.InDelta(t, p.X, back.X, 1e-9)
	assert.InDelta(t, p.Y, back.Y, 1e-9)
}

func TestInverseSingular(t *testing.T) {
	_, err := Scale(0, 1).Inverse()
	require.Error(t, err)
}

func TestRotateTransform(t *testing.T) {
	p := Rotate(math.Pi / 2).Transform(Point{X: 1, Y: 0})
	assert.InDelta(t, 0, p.X, 1e-12)
	assert.InDelta(t, 1, p.Y, 1e-12)
}

func TestRectUnion(t *testing.T) {
	a := Rect{X: 0, Y: 0, W: 10, H: 10}
	b := Rect{X: 5, Y: 5, W: 10, H: 10}
	assert.Equal(t, Rect{X: 0, Y: 0, W: 15, H: 15}, a.Union(b))

	assert.Equal(t, a, a.Union(Rect{}))
	assert.Equal(t, a, Rect{}.Union(a))
}

func TestRectIntersect(t *testing.T) {
	a := Rect{X: 0, Y: 0, W: 10, H: 10}
	b := Rect{X: 5, Y: 5, W: 10, H: 10}
	assert.Equal(t, Rect{X: 5, Y: 5, W: 5, H: 5}, a.Intersect(b))

	c := Rect{X: 20, Y: 20, W: 1, H: 1}
	assert.True(t, a.Intersect(c).IsEmpty())
}

func TestTransformRect(t *testing.T) {
	r := Rect{X: 0, Y: 0, W: 10, H: 20}
	got := Rotate(math.Pi / 2).TransformRect(r)
	assert.InDelta(t, -20, got.X, 1e-9)
	assert.InDelta(t, 0, got.Y, 1e-9)
	assert.InDelta(t, 20, got.W, 1e-9)
	assert.InDelta(t, 10, got.H, 1e-9)
}
