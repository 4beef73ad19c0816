// Package compose turns a resolved document into drawn pages: one page per
// visible selected slide, master content beneath slide content, shapes in
// z-order under composed transforms.
//
// Composition runs in two phases. Slides are first recorded into ordered
// operation lists, a phase that touches only the layout engine and may run
// on several slides concurrently. The recordings are then replayed against
// the surface in page order by a single goroutine, which is the contract
// surfaces require.
package compose

import (
	"sync"

	"github.com/slidekit/key2pdf/embedded"
	"github.com/slidekit/key2pdf/fonts"
	"github.com/slidekit/key2pdf/ir/scene"
	"github.com/slidekit/key2pdf/layout"
	"github.com/slidekit/key2pdf/observability"
	"github.com/slidekit/key2pdf/recovery"
	"github.com/slidekit/key2pdf/styles"
	"github.com/slidekit/key2pdf/surface"
)

// MediaLoader reads container streams referenced by texture fills.
type MediaLoader interface {
	ReadStream(name string) ([]byte, error)
}

// Config carries the collaborators of a composition run.
type Config struct {
	Fonts    fonts.Provider
	Embedded embedded.Renderer
	Media    MediaLoader // nil disables texture fills
	Recovery recovery.Strategy
	Logger   observability.Logger
	Pages    *PageRange // nil renders every visible slide
	Workers  int        // recording concurrency, values below 2 mean serial
}

// Result summarizes a composition run.
type Result struct {
	Pages int
	Soft  []error
}

// Compose renders doc onto the surface. The surface is not finished;
// that stays with the caller.
func Compose(doc *scene.Document, target surface.Surface, cfg Config) (*Result, error) {
	if cfg.Recovery == nil {
		cfg.Recovery = recovery.NewStrictStrategy()
	}
	if cfg.Logger == nil {
		cfg.Logger = observability.NopLogger{}
	}
	if cfg.Fonts == nil {
		cfg.Fonts = fonts.NewCatalog(cfg.Logger)
	}
	if cfg.Embedded == nil {
		cfg.Embedded = embedded.NewFallback(cfg.Logger)
	}

	var selected []*scene.Slide
	for i, slide := range doc.VisibleSlides() {
		if cfg.Pages.Contains(i + 1) {
			selected = append(selected, slide)
		}
	}

	recs := make([]*recording, len(selected))
	record := func(i int) {
		recs[i] = recordSlide(doc, selected[i], cfg)
	}
	if cfg.Workers > 1 && len(selected) > 1 {
		var wg sync.WaitGroup
		sem := make(chan struct{}, cfg.Workers)
		for i := range selected {
			wg.Add(1)
			sem <- struct{}{}
			go func(i int) {
				defer wg.Done()
				defer func() { <-sem }()
				record(i)
			}(i)
		}
		wg.Wait()
	} else {
		for i := range selected {
			record(i)
		}
	}

	res := &Result{}
	for _, rec := range recs {
		if rec.err != nil {
			return nil, rec.err
		}
		page := target.Page(doc.Canvas.W, doc.Canvas.H)
		for _, op := range rec.ops {
			op(page)
		}
		res.Pages++
		res.Soft = append(res.Soft, rec.soft...)
	}
	return res, nil
}

// recording is the replayable form of one slide.
type recording struct {
	ops  []func(surface.Page)
	soft []error
	err  error
}

// recordSlide lays out and records one slide. Each slide gets its own
// layout engine so recordings never share the style cache across
// goroutines.
func recordSlide(doc *scene.Document, slide *scene.Slide, cfg Config) *recording {
	r := &slideRenderer{
		doc:   doc,
		slide: slide,
		cfg:   cfg,
		eng:   layout.NewEngine(cfg.Fonts, cfg.Logger),
		rec:   &recording{},
	}
	r.rec.err = r.render()
	return r.rec
}

type slideRenderer struct {
	doc   *scene.Document
	slide *scene.Slide
	cfg   Config
	eng   *layout.Engine
	rec   *recording
}

func (r *slideRenderer) op(f func(surface.Page)) { r.rec.ops = append(r.rec.ops, f) }

// levels returns the cascade above shape styles: theme, master, slide.
func (r *slideRenderer) levels() []styles.Style {
	var out []styles.Style
	if r.doc.Theme != nil {
		out = append(out, r.doc.Theme.Style)
	}
	if r.slide.Master != nil {
		out = append(out, r.slide.Master.Style)
	}
	return append(out, r.slide.Style)
}

func (r *slideRenderer) render() error {
	r.background()

	base := r.levels()
	if r.slide.Master != nil {
		for _, s := range r.slide.Master.Shapes {
			if err := r.walk(s, s.Base().Transform, base); err != nil {
				return err
			}
		}
	}
	for _, s := range r.slide.Shapes {
		if err := r.walk(s, s.Base().Transform, base); err != nil {
			return err
		}
	}
	return nil
}

// background fills the canvas with the slide's cascaded fill: the texture
// stream when one resolves and is readable, the plain color otherwise.
func (r *slideRenderer) background() {
	st := r.eng.Styles.Shape(r.slide.ID, r.levels()...)
	canvas := rectOf(r.doc.Canvas)
	if r.blitTexture(canvas, identity(), st, 1) {
		return
	}
	fill, ok := st.Color(styles.AttrFillColor)
	if !ok {
		return
	}
	r.op(func(p surface.Page) {
		p.Path(surface.RectPath(canvas, 0), identity(), surface.Paint{Fill: &fill, Opacity: 1})
	})
}
