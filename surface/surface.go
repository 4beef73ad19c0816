// Package surface abstracts the drawing target of the page composer. A
// Surface hands out pages; drawing operations carry the full local-to-page
// transform so backends never track graphics state beyond a page.
package surface

import (
	"github.com/slidekit/key2pdf/coords"
	"github.com/slidekit/key2pdf/fonts"
	"github.com/slidekit/key2pdf/ir/scene"
	"github.com/slidekit/key2pdf/styles"
)

// Stroke describes how a path outline is drawn.
type Stroke struct {
	Color      styles.Color
	Width      float64
	Cap        string // "butt", "round", "square"
	Join       string // "miter", "round", "bevel"
	MiterLimit float64
}

// Paint is the combined fill and stroke of one path operation. A nil Fill
// or Stroke disables that half; Opacity applies to both.
type Paint struct {
	Fill    *styles.Color
	Stroke  *Stroke
	Opacity float64
}

// TextRun is one positioned fragment of text. X and Y are the baseline
// origin in the shape-local (top-down) space the transform maps from.
// Glyphs, when present, carry shaped positioning; backends without glyph
// support may draw Text directly.
type TextRun struct {
	Text   string
	Font   string
	Size   float64
	Color  styles.Color
	X, Y   float64
	Glyphs []fonts.Glyph
}

// Page receives drawing operations in z-order.
type Page interface {
	// Path draws a local-space path under the given transform.
	Path(cmds []scene.PathCommand, transform coords.Matrix, paint Paint)
	// Text draws one text fragment under the given transform.
	Text(run TextRun, transform coords.Matrix)
	// Image blits an encoded raster (PNG, JPEG, GIF, BMP, TIFF or WebP)
	// into the local-space rectangle under the given transform.
	Image(data []byte, rect coords.Rect, transform coords.Matrix, opacity float64) error
}

// Surface produces pages and assembles the output document. Pages must be
// finished in creation order by a single goroutine; renderers that work on
// slides concurrently serialize their drawing.
type Surface interface {
	Page(width, height float64) Page
	Finish() error
}

// RectPath returns the path commands of an axis-aligned rectangle,
// optionally with rounded corners.
func RectPath(r coords.Rect, radius float64) []scene.PathCommand {
	if radius <= 0 {
		return []scene.PathCommand{
			{Op: scene.OpMove, Pts: []coords.Point{{X: r.X, Y: r.Y}}},
			{Op: scene.OpLine, Pts: []coords.Point{{X: r.MaxX(), Y: r.Y}}},
			{Op: scene.OpLine, Pts: []coords.Point{{X: r.MaxX(), Y: r.MaxY()}}},
			{Op: scene.OpLine, Pts: []coords.Point{{X: r.X, Y: r.MaxY()}}},
			{Op: scene.OpClose},
		}
	}
	if max := r.W / 2; radius > max {
		radius = max
	}
	if max := r.H / 2; radius > max {
		radius = max
	}
	// Cubic approximation of a quarter circle.
	k := radius * 0.5523
	x0, y0, x1, y1 := r.X, r.Y, r.MaxX(), r.MaxY()
	return []scene.PathCommand{
		{Op: scene.OpMove, Pts: []coords.Point{{X: x0 + radius, Y: y0}}},
		{Op: scene.OpLine, Pts: []coords.Point{{X: x1 - radius, Y: y0}}},
		{Op: scene.OpCurve, Pts: []coords.Point{{X: x1 - radius + k, Y: y0}, {X: x1, Y: y0 + radius - k}, {X: x1, Y: y0 + radius}}},
		{Op: scene.OpLine, Pts: []coords.Point{{X: x1, Y: y1 - radius}}},
		{Op: scene.OpCurve, Pts: []coords.Point{{X: x1, Y: y1 - radius + k}, {X: x1 - radius + k, Y: y1}, {X: x1 - radius, Y: y1}}},
		{Op: scene.OpLine, Pts: []coords.Point{{X: x0 + radius, Y: y1}}},
		{Op: scene.OpCurve, Pts: []coords.Point{{X: x0 + radius - k, Y: y1}, {X: x0, Y: y1 - radius + k}, {X: x0, Y: y1 - radius}}},
		{Op: scene.OpLine, Pts: []coords.Point{{X: x0, Y: y0 + radius}}},
		{Op: scene.OpCurve, Pts: []coords.Point{{X: x0, Y: y0 + radius - k}, {X: x0 + radius - k, Y: y0}, {X: x0 + radius, Y: y0}}},
		{Op: scene.OpClose},
	}
}

// OvalPath returns the path commands of an ellipse inscribed in r, built
// from four cubic arcs.
func OvalPath(r coords.Rect) []scene.PathCommand {
	cx, cy := r.X+r.W/2, r.Y+r.H/2
	rx, ry := r.W/2, r.H/2
	kx, ky := rx*0.5523, ry*0.5523
	return []scene.PathCommand{
		{Op: scene.OpMove, Pts: []coords.Point{{X: cx + rx, Y: cy}}},
		{Op: scene.OpCurve, Pts: []coords.Point{{X: cx + rx, Y: cy + ky}, {X: cx + kx, Y: cy + ry}, {X: cx, Y: cy + ry}}},
		{Op: scene.OpCurve, Pts: []coords.Point{{X: cx - kx, Y: cy + ry}, {X: cx - rx, Y: cy + ky}, {X: cx - rx, Y: cy}}},
		{Op: scene.OpCurve, Pts: []coords.Point{{X: cx - rx, Y: cy - ky}, {X: cx - kx, Y: cy - ry}, {X: cx, Y: cy - ry}}},
		{Op: scene.OpCurve, Pts: []coords.Point{{X: cx + kx, Y: cy - ry}, {X: cx + rx, Y: cy - ky}, {X: cx + rx, Y: cy}}},
		{Op: scene.OpClose},
	}
}

// LinePath returns the two-point path of a line shape across its bounds.
func LinePath(r coords.Rect, reversed bool) []scene.PathCommand {
	if reversed {
		return []scene.PathCommand{
			{Op: scene.OpMove, Pts: []coords.Point{{X: r.X, Y: r.MaxY()}}},
			{Op: scene.OpLine, Pts: []coords.Point{{X: r.MaxX(), Y: r.Y}}},
		}
	}
	return []scene.PathCommand{
		{Op: scene.OpMove, Pts: []coords.Point{{X: r.X, Y: r.Y}}},
		{Op: scene.OpLine, Pts: []coords.Point{{X: r.MaxX(), Y: r.MaxY()}}},
	}
}
