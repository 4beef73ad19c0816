package compose

import (
	"github.com/slidekit/key2pdf/coords"
	"github.com/slidekit/key2pdf/ir/scene"
	"github.com/slidekit/key2pdf/layout"
	"github.com/slidekit/key2pdf/observability"
	"github.com/slidekit/key2pdf/recovery"
	"github.com/slidekit/key2pdf/styles"
	"github.com/slidekit/key2pdf/surface"
)

func identity() coords.Matrix { return coords.Identity() }

func rectOf(s scene.Size) coords.Rect { return coords.Rect{W: s.W, H: s.H} }

// walk records one shape and its subtree. world maps the shape's local
// space onto the page; inherited is the cascade above the shape's own
// style.
func (r *slideRenderer) walk(s scene.Shape, world coords.Matrix, inherited []styles.Style) error {
	base := s.Base()
	resolved := r.eng.Styles.Shape(base.ID, append(append([]styles.Style{}, inherited...), base.Style)...)

	switch sh := s.(type) {
	case *scene.Group:
		childLevels := append(append([]styles.Style{}, inherited...), base.Style)
		for _, child := range sh.Children {
			if err := r.walk(child, child.Base().Transform.Multiply(world), childLevels); err != nil {
				return err
			}
		}
		return nil

	case *scene.Rect:
		r.drawPath(surface.RectPath(base.Bounds, sh.CornerRadius), base.Bounds, world, resolved)
	case *scene.Oval:
		r.drawPath(surface.OvalPath(base.Bounds), base.Bounds, world, resolved)
	case *scene.Line:
		r.strokePath(surface.LinePath(base.Bounds, sh.Reversed), world, resolved)
	case *scene.Path:
		r.drawPath(sh.Commands, base.Bounds, world, resolved)

	case *scene.TextBox:
		r.drawPath(surface.RectPath(base.Bounds, 0), base.Bounds, world, resolved)
		levels := append(append([]styles.Style{}, inherited...), base.Style)
		tl := r.eng.LayoutText(base.ID, sh.Paragraphs, base.Bounds, levels...)
		r.drawTextLayout(tl, coords.Point{}, world, 0)

	case *scene.Table:
		return r.drawTable(sh, world, inherited, resolved)

	case *scene.Image:
		return r.drawImage(sh, world, resolved)

	case *scene.Embedded:
		emb := sh
		r.op(func(p surface.Page) {
			if err := r.cfg.Embedded.Render(p, emb, world); err != nil {
				r.cfg.Logger.Warn("embedded render failed",
					observability.Uint32(observability.FieldShape, emb.ID),
					observability.Error("reason", err))
			}
		})

	case *scene.Unsupported:
		r.drawPlaceholder(base, world)
	}
	return nil
}

// paintOf builds the fill and stroke of a resolved style.
func paintOf(st styles.Style) surface.Paint {
	p := surface.Paint{Opacity: 1}
	if op, ok := st.Float(styles.AttrOpacity); ok {
		p.Opacity = op
	}
	if fill, ok := st.Color(styles.AttrFillColor); ok {
		p.Fill = &fill
	}
	if sc, ok := st.Color(styles.AttrStrokeColor); ok {
		stroke := &surface.Stroke{Color: sc, Width: 1}
		if w, ok := st.Float(styles.AttrStrokeWidth); ok {
			stroke.Width = w
		}
		stroke.Cap, _ = st.Str(styles.AttrStrokeCap)
		stroke.Join, _ = st.Str(styles.AttrStrokeJoin)
		stroke.MiterLimit, _ = st.Float(styles.AttrMiterLimit)
		p.Stroke = stroke
	}
	return p
}

// drawPath records a filled and stroked path, with the style's shadow
// underneath when one is set. A texture fill blits the shape's bounds in
// place of the plain color; the color stays as the fallback when the
// stream cannot be read.
func (r *slideRenderer) drawPath(cmds []scene.PathCommand, bounds coords.Rect, world coords.Matrix, st styles.Style) {
	paint := paintOf(st)
	_, textured := st.Str(styles.AttrFillImage)
	if paint.Fill == nil && paint.Stroke == nil && !textured {
		return
	}
	if sh, ok := st.Get(styles.AttrShadow).(styles.Shadow); ok {
		shadowPaint := surface.Paint{Fill: &sh.Color, Opacity: paint.Opacity}
		shadowWorld := coords.Translate(sh.DX, sh.DY).Multiply(world)
		r.op(func(p surface.Page) { p.Path(cmds, shadowWorld, shadowPaint) })
	}
	if textured && r.blitTexture(bounds, world, st, paint.Opacity) {
		paint.Fill = nil
	}
	if paint.Fill == nil && paint.Stroke == nil {
		return
	}
	r.op(func(p surface.Page) { p.Path(cmds, world, paint) })
}

// blitTexture draws the style's texture stream over bounds. Returns false
// when no media loader is wired or the stream cannot be read, leaving the
// plain color fill in effect.
func (r *slideRenderer) blitTexture(bounds coords.Rect, world coords.Matrix, st styles.Style, opacity float64) bool {
	name, ok := st.Str(styles.AttrFillImage)
	if !ok || r.cfg.Media == nil {
		return false
	}
	data, err := r.cfg.Media.ReadStream(name)
	if err != nil {
		r.cfg.Logger.Warn("texture stream unreadable",
			observability.String(observability.FieldResource, name),
			observability.Error("reason", err))
		return false
	}
	r.op(func(p surface.Page) {
		if err := p.Image(data, bounds, world, opacity); err != nil {
			r.cfg.Logger.Warn("texture skipped",
				observability.String(observability.FieldResource, name),
				observability.Error("reason", err))
		}
	})
	return true
}

// strokePath records a stroke-only path; lines never fill.
func (r *slideRenderer) strokePath(cmds []scene.PathCommand, world coords.Matrix, st styles.Style) {
	paint := paintOf(st)
	paint.Fill = nil
	if paint.Stroke == nil {
		// A line with no explicit stroke still draws, hairline black.
		paint.Stroke = &surface.Stroke{Color: styles.Color{A: 1}, Width: 1}
	}
	r.op(func(p surface.Page) { p.Path(cmds, world, paint) })
}

// drawTextLayout records the fragments of a flowed text block. origin
// offsets the block inside the shape (table cells); maxY, when positive,
// clips whole lines that fall below it.
func (r *slideRenderer) drawTextLayout(tl *layout.TextLayout, origin coords.Point, world coords.Matrix, maxY float64) {
	for _, line := range tl.Lines {
		if maxY > 0 && line.Baseline > maxY {
			break
		}
		for _, frag := range line.Fragments {
			run := surface.TextRun{
				Text:   frag.Text,
				Font:   frag.Font,
				Size:   frag.Size,
				Color:  frag.Color,
				X:      origin.X + frag.X,
				Y:      origin.Y + line.Baseline,
				Glyphs: r.cfg.Fonts.Shape(frag.Font, frag.Size, frag.Text),
			}
			r.op(func(p surface.Page) { p.Text(run, world) })
		}
	}
}

func (r *slideRenderer) drawTable(t *scene.Table, world coords.Matrix, inherited []styles.Style, resolved styles.Style) error {
	levels := append(append([]styles.Style{}, inherited...), t.Style)
	tl, err := r.eng.LayoutTable(t, levels...)
	if err != nil {
		return r.degrade(t.Base(), world, err)
	}

	gridStroke := paintOf(resolved).Stroke
	if gridStroke == nil {
		gridStroke = &surface.Stroke{Color: styles.Color{A: 1}, Width: 0.5}
	}

	for i := range tl.CellBoxes {
		box := tl.CellBoxes[i]
		cellStyle := r.eng.Styles.Cell(t.ID, i, append(levels, box.Cell.Style)...)

		cellPaint := surface.Paint{Opacity: 1, Stroke: gridStroke}
		if fill, ok := cellStyle.Color(styles.AttrFillColor); ok {
			cellPaint.Fill = &fill
		}
		cellRect := box.Rect
		r.op(func(p surface.Page) {
			p.Path(surface.RectPath(cellRect, 0), world, cellPaint)
		})
		if box.Text != nil {
			r.drawTextLayout(box.Text, coords.Point{X: cellRect.X, Y: cellRect.Y}, world, cellRect.H)
		}
	}
	return nil
}

func (r *slideRenderer) drawImage(img *scene.Image, world coords.Matrix, resolved styles.Style) error {
	opacity := 1.0
	if op, ok := resolved.Float(styles.AttrOpacity); ok {
		opacity = op
	}
	data := img.Data
	bounds := img.Bounds
	if len(data) == 0 {
		return r.degrade(img.Base(), world, &scene.UnsupportedShapeError{ID: img.ID, Kind: "image without payload"})
	}
	r.op(func(p surface.Page) {
		if err := p.Image(data, bounds, world, opacity); err != nil {
			r.cfg.Logger.Warn("image skipped",
				observability.Uint32(observability.FieldShape, img.ID),
				observability.String(observability.FieldResource, img.Stream),
				observability.Error("reason", err))
		}
	})
	return nil
}

// degrade routes a drawing-time error through the recovery strategy.
func (r *slideRenderer) degrade(base *scene.ShapeBase, world coords.Matrix, cause error) error {
	loc := recovery.Location{Slide: r.slide.Number, ShapeID: base.ID, Component: "compose"}
	switch r.cfg.Recovery.OnError(cause, loc) {
	case recovery.ActionSkip:
		r.rec.soft = append(r.rec.soft, cause)
		return nil
	case recovery.ActionPlaceholder:
		r.rec.soft = append(r.rec.soft, cause)
		r.cfg.Logger.Warn("element degraded to placeholder",
			observability.Int(observability.FieldSlide, r.slide.Number),
			observability.Uint32(observability.FieldShape, base.ID),
			observability.Error("reason", cause))
		r.drawPlaceholder(base, world)
		return nil
	default:
		return cause
	}
}

// drawPlaceholder marks unrenderable content with a hatched-looking frame
// so the page still accounts for its space.
func (r *slideRenderer) drawPlaceholder(base *scene.ShapeBase, world coords.Matrix) {
	gray := styles.Color{R: 0.7, G: 0.7, B: 0.7, A: 1}
	light := styles.Color{R: 0.93, G: 0.93, B: 0.93, A: 1}
	bounds := base.Bounds
	r.op(func(p surface.Page) {
		p.Path(surface.RectPath(bounds, 0), world, surface.Paint{
			Fill:    &light,
			Stroke:  &surface.Stroke{Color: gray, Width: 1},
			Opacity: 1,
		})
		p.Path(surface.LinePath(bounds, false), world, surface.Paint{
			Stroke:  &surface.Stroke{Color: gray, Width: 1},
			Opacity: 1,
		})
		p.Path(surface.LinePath(bounds, true), world, surface.Paint{
			Stroke:  &surface.Stroke{Color: gray, Width: 1},
			Opacity: 1,
		})
	})
}
