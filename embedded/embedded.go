// Package embedded draws nested foreign documents placed on a slide. The
// default renderer blits raster payloads directly and frames anything else
// with a labeled placeholder, which is what the converter can honestly do
// without a full renderer for the foreign format.
package embedded

import (
	"bytes"
	"image"

	// Raster detection must work with any surface, so the decoders are
	// registered here rather than inherited from the PDF backend.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/slidekit/key2pdf/coords"
	"github.com/slidekit/key2pdf/ir/scene"
	"github.com/slidekit/key2pdf/observability"
	"github.com/slidekit/key2pdf/styles"
	"github.com/slidekit/key2pdf/surface"
)

// Renderer draws one embedded shape onto a page. The transform maps the
// shape's local space onto the page.
type Renderer interface {
	Render(page surface.Page, e *scene.Embedded, transform coords.Matrix) error
}

// Fallback is the default Renderer.
type Fallback struct {
	Log observability.Logger
}

func NewFallback(log observability.Logger) *Fallback {
	if log == nil {
		log = observability.NopLogger{}
	}
	return &Fallback{Log: log}
}

func (f *Fallback) Render(page surface.Page, e *scene.Embedded, transform coords.Matrix) error {
	if len(e.Data) > 0 {
		if _, _, err := image.DecodeConfig(bytes.NewReader(e.Data)); err == nil {
			return page.Image(e.Data, e.Bounds, transform, 1)
		}
	}

	f.Log.Warn("embedded document rendered as placeholder",
		observability.Uint32(observability.FieldShape, e.ID),
		observability.String(observability.FieldResource, e.Stream))

	frame := styles.Color{R: 0.6, G: 0.6, B: 0.6, A: 1}
	fill := styles.Color{R: 0.94, G: 0.94, B: 0.94, A: 1}
	page.Path(surface.RectPath(e.Bounds, 0), transform, surface.Paint{
		Fill:    &fill,
		Stroke:  &surface.Stroke{Color: frame, Width: 1},
		Opacity: 1,
	})
	page.Text(surface.TextRun{
		Text:  e.Stream,
		Font:  "Helvetica",
		Size:  9,
		Color: frame,
		X:     e.Bounds.X + 4,
		Y:     e.Bounds.Y + 12,
	}, transform)
	return nil
}
