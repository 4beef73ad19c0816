package resolver

import (
	"math"
	"strconv"
	"strings"

	"github.com/slidekit/key2pdf/coords"
	"github.com/slidekit/key2pdf/ir/raw"
	"github.com/slidekit/key2pdf/ir/scene"
)

// shapeGeometry assembles the local-to-parent transform from a record's
// geometry fields. Local bounds stay origin-anchored; position lives in the
// transform. Rotation and skew pivot about the center of the local box.
func shapeGeometry(rec *raw.Record) (coords.Matrix, coords.Rect) {
	w, _ := rec.Float(raw.FieldW)
	h, _ := rec.Float(raw.FieldH)
	x, _ := rec.Float(raw.FieldX)
	y, _ := rec.Float(raw.FieldY)
	bounds := coords.Rect{W: w, H: h}

	m := coords.Identity()
	if sx, ok := rec.Float(raw.FieldScaleX); ok {
		sy, okY := rec.Float(raw.FieldScaleY)
		if !okY {
			sy = sx
		}
		m = m.Multiply(coords.Scale(sx, sy))
	}
	cx, cy := w/2, h/2
	if ax, ok := rec.Float(raw.FieldSkewX); ok {
		ay, _ := rec.Float(raw.FieldSkewY)
		m = m.Multiply(aboutCenter(coords.Skew(rad(ax), rad(ay)), cx, cy))
	}
	if deg, ok := rec.Float(raw.FieldRotation); ok && deg != 0 {
		m = m.Multiply(aboutCenter(coords.Rotate(rad(deg)), cx, cy))
	}
	return m.Multiply(coords.Translate(x, y)), bounds
}

func rad(deg float64) float64 { return deg * math.Pi / 180 }

func aboutCenter(op coords.Matrix, cx, cy float64) coords.Matrix {
	return coords.Translate(-cx, -cy).Multiply(op).Multiply(coords.Translate(cx, cy))
}

// path decodes a path shape: either an explicit command string or a named
// parametric point path.
func (r *resolver) path(rec *raw.Record, base scene.ShapeBase) (scene.Shape, error) {
	if src, ok := rec.String(raw.FieldPath); ok {
		cmds, err := parsePath(src)
		if err != nil {
			return nil, &scene.UnsupportedShapeError{ID: rec.ID, Kind: err.Error()}
		}
		return &scene.Path{ShapeBase: base, Commands: cmds}, nil
	}
	if name, ok := rec.String(raw.FieldPointType); ok {
		cmds, ok := pointPath(name, base.Bounds)
		if !ok {
			return nil, &scene.UnsupportedShapeError{ID: rec.ID, Kind: "point path " + strconv.Quote(name)}
		}
		return &scene.Path{ShapeBase: base, Commands: cmds}, nil
	}
	return nil, &scene.UnsupportedShapeError{ID: rec.ID, Kind: "path without commands"}
}

// parsePath reads a "M x y L x y C x1 y1 x2 y2 x y Z" command string.
func parsePath(src string) ([]scene.PathCommand, error) {
	fields := strings.Fields(src)
	var cmds []scene.PathCommand
	i := 0
	pts := func(n int) ([]coords.Point, bool) {
		if i+2*n > len(fields) {
			return nil, false
		}
		out := make([]coords.Point, n)
		for j := 0; j < n; j++ {
			px, errX := strconv.ParseFloat(fields[i+2*j], 64)
			py, errY := strconv.ParseFloat(fields[i+2*j+1], 64)
			if errX != nil || errY != nil {
				return nil, false
			}
			out[j] = coords.Point{X: px, Y: py}
		}
		i += 2 * n
		return out, true
	}
	for i < len(fields) {
		op := fields[i]
		i++
		var (
			cmd  scene.PathCommand
			want int
		)
		switch op {
		case "M":
			cmd.Op, want = scene.OpMove, 1
		case "L":
			cmd.Op, want = scene.OpLine, 1
		case "C":
			cmd.Op, want = scene.OpCurve, 3
		case "Z":
			cmd.Op = scene.OpClose
		default:
			return nil, pathErr(op)
		}
		if want > 0 {
			p, ok := pts(want)
			if !ok {
				return nil, pathErr(op)
			}
			cmd.Pts = p
		}
		cmds = append(cmds, cmd)
	}
	if len(cmds) == 0 || cmds[0].Op != scene.OpMove {
		return nil, pathErr("start")
	}
	return cmds, nil
}

type badPathOp string

func (e badPathOp) Error() string { return "malformed path near " + strconv.Quote(string(e)) }

func pathErr(op string) error { return badPathOp(op) }

// pointPath generates the outline of a named parametric shape inscribed in
// the local bounds.
func pointPath(name string, b coords.Rect) ([]scene.PathCommand, bool) {
	switch name {
	case "star":
		return starPath(b, 5), true
	}
	return nil, false
}

// starPath traces a points-armed star, outer vertices on the inscribed
// ellipse and inner vertices at 0.4 of it, starting from the top.
func starPath(b coords.Rect, points int) []scene.PathCommand {
	const inner = 0.4
	cx, cy := b.W/2, b.H/2
	cmds := make([]scene.PathCommand, 0, 2*points+2)
	for k := 0; k < 2*points; k++ {
		f := 1.0
		if k%2 == 1 {
			f = inner
		}
		a := -math.Pi/2 + float64(k)*math.Pi/float64(points)
		p := coords.Point{X: cx + f*cx*math.Cos(a), Y: cy + f*cy*math.Sin(a)}
		op := scene.OpLine
		if k == 0 {
			op = scene.OpMove
		}
		cmds = append(cmds, scene.PathCommand{Op: op, Pts: []coords.Point{p}})
	}
	return append(cmds, scene.PathCommand{Op: scene.OpClose})
}
