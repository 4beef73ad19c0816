// Package resolver turns the flat record table into the typed scene graph.
//
// Ownership is established on first visit: each shape record materializes
// exactly once, and any later reference to it (including reference cycles)
// becomes a non-owning link on the referencing shape. Records the reader
// flagged as unknown, and recognized kinds without a renderer, are routed
// through the recovery strategy and degrade to placeholders.
package resolver

import (
	"fmt"

	"github.com/slidekit/key2pdf/archive"
	"github.com/slidekit/key2pdf/ir/raw"
	"github.com/slidekit/key2pdf/ir/scene"
	"github.com/slidekit/key2pdf/observability"
	"github.com/slidekit/key2pdf/recovery"
	"github.com/slidekit/key2pdf/styles"
)

// MediaLoader reads named media streams out of the container. A nil loader
// resolves media shapes without payload data.
type MediaLoader interface {
	Has(name string) bool
	ReadStream(name string) ([]byte, error)
}

// Config carries the collaborators of a resolve pass.
type Config struct {
	Recovery recovery.Strategy
	Logger   observability.Logger
	Media    MediaLoader
}

// Result is the outcome of a resolve pass. Soft lists the per-element
// errors a lenient strategy absorbed.
type Result struct {
	Document *scene.Document
	Soft     []error
}

// Resolve builds the scene graph rooted at the table's root record.
func Resolve(table *raw.Table, cfg Config) (*Result, error) {
	if cfg.Recovery == nil {
		cfg.Recovery = recovery.NewStrictStrategy()
	}
	if cfg.Logger == nil {
		cfg.Logger = observability.NopLogger{}
	}
	r := &resolver{
		table:   table,
		cfg:     cfg,
		masters: make(map[uint32]*scene.MasterSlide),
		stack:   make(map[uint32]bool),
	}
	doc, err := r.document()
	if err != nil {
		return nil, err
	}
	return &Result{Document: doc, Soft: r.soft}, nil
}

type resolver struct {
	table *raw.Table
	cfg   Config
	doc   *scene.Document

	masters map[uint32]*scene.MasterSlide
	stack   map[uint32]bool // shape ids currently being materialized
	soft    []error

	slide int // 1-based number of the slide being resolved
}

func (r *resolver) document() (*scene.Document, error) {
	root, ok := r.table.Get(r.table.Root)
	if !ok {
		return nil, &archive.FormatError{Offset: -1, Reason: fmt.Sprintf("root record %d missing", r.table.Root)}
	}
	if root.Tag != raw.TagDocument {
		return nil, &archive.FormatError{Offset: -1, Reason: fmt.Sprintf("root record %d is %s, want document", root.ID, root.Tag)}
	}

	w, _ := root.Float(raw.FieldW)
	h, _ := root.Float(raw.FieldH)
	if w <= 0 || h <= 0 {
		return nil, &archive.FormatError{Offset: -1, Reason: fmt.Sprintf("document canvas %gx%g is not positive", w, h)}
	}
	r.doc = scene.NewDocument(scene.Size{W: w, H: h})

	if themeID, ok := root.Ref(raw.FieldTheme); ok {
		theme, err := r.theme(themeID)
		if err != nil {
			return nil, err
		}
		r.doc.Theme = theme
	}

	for _, id := range root.Refs(raw.FieldChildren) {
		rec, ok := r.table.Get(id)
		if !ok {
			if err := r.missingRef(id, recovery.Location{Component: "resolver"}); err != nil {
				return nil, err
			}
			continue
		}
		switch rec.Tag {
		case raw.TagSlide:
			slide, err := r.slideNode(rec)
			if err != nil {
				return nil, err
			}
			if slide != nil {
				r.doc.Slides = append(r.doc.Slides, slide)
			}
		case raw.TagMasterSlide:
			if _, err := r.master(rec.ID); err != nil {
				return nil, err
			}
		default:
			// Tolerated: documents may list auxiliary records here.
			r.cfg.Logger.Debug("skipping non-slide document child",
				observability.Uint32(observability.FieldRecord, rec.ID),
				observability.String(observability.FieldTag, rec.Tag.String()))
		}
	}
	return r.doc, nil
}

func (r *resolver) theme(id uint32) (*scene.Theme, error) {
	rec, ok := r.table.Get(id)
	if !ok || rec.Tag != raw.TagTheme {
		return nil, &archive.FormatError{Offset: -1, Reason: fmt.Sprintf("theme record %d missing or mistyped", id)}
	}
	return &scene.Theme{ID: id, Style: r.styleOf(rec)}, nil
}

// master resolves a master slide once; later lookups share the node.
func (r *resolver) master(id uint32) (*scene.MasterSlide, error) {
	if m, ok := r.masters[id]; ok {
		return m, nil
	}
	rec, ok := r.table.Get(id)
	if !ok || rec.Tag != raw.TagMasterSlide {
		return nil, &archive.FormatError{Offset: -1, Reason: fmt.Sprintf("master record %d missing or mistyped", id)}
	}
	m := &scene.MasterSlide{ID: id, Style: r.styleOf(rec)}
	r.masters[id] = m

	shapes, _, err := r.children(rec.Refs(raw.FieldChildren), recovery.Location{Component: "resolver"})
	if err != nil {
		return nil, err
	}
	m.Shapes = shapes
	return m, nil
}

func (r *resolver) slideNode(rec *raw.Record) (*scene.Slide, error) {
	r.slide++
	s := &scene.Slide{ID: rec.ID, Number: r.slide, Style: r.styleOf(rec)}
	s.Hidden, _ = rec.Bool(raw.FieldHidden)

	if masterID, ok := rec.Ref(raw.FieldMaster); ok {
		m, err := r.master(masterID)
		if err != nil {
			return nil, err
		}
		s.Master = m
	}

	loc := recovery.Location{Slide: s.Number, Component: "resolver"}
	shapes, _, err := r.children(rec.Refs(raw.FieldChildren), loc)
	if err != nil {
		return nil, err
	}
	s.Shapes = shapes
	return s, nil
}

// children materializes a list of shape references in z-order. References
// to shapes already owned elsewhere come back as nil from shape and are
// dropped from the list. A reference that closes a cycle does not become a
// child; its target id is returned so the caller can keep the edge as a
// non-owning link.
func (r *resolver) children(refs []uint32, loc recovery.Location) ([]scene.Shape, []uint32, error) {
	shapes := make([]scene.Shape, 0, len(refs))
	var links []uint32
	for _, id := range refs {
		if r.stack[id] {
			// Reference cycle; the second visit is a non-owning link.
			r.cfg.Logger.Warn("reference cycle kept as link",
				observability.Uint32(observability.FieldShape, id),
				observability.Int(observability.FieldSlide, loc.Slide))
			links = append(links, id)
			continue
		}
		s, err := r.shape(id, loc)
		if err != nil {
			return nil, nil, err
		}
		if s != nil {
			shapes = append(shapes, s)
		}
	}
	return shapes, links, nil
}

func (r *resolver) shape(id uint32, loc recovery.Location) (scene.Shape, error) {
	if owned, ok := r.doc.ShapeByID(id); ok {
		// Already owned by an earlier parent; keep the first owner.
		r.cfg.Logger.Debug("shape referenced twice, keeping first owner",
			observability.Uint32(observability.FieldShape, owned.Base().ID))
		return nil, nil
	}
	rec, ok := r.table.Get(id)
	if !ok {
		loc.ShapeID = id
		return nil, r.missingRef(id, loc)
	}

	r.stack[id] = true
	defer delete(r.stack, id)

	loc.ShapeID = id
	base := r.base(rec)
	s, err := r.materialize(rec, base, loc)
	if err != nil {
		s, err = r.degrade(base, rec.Tag, loc, err)
	}
	if s != nil {
		r.doc.Register(s)
	}
	return s, err
}

func (r *resolver) materialize(rec *raw.Record, base scene.ShapeBase, loc recovery.Location) (scene.Shape, error) {
	switch rec.Tag {
	case raw.TagShapeRect:
		corner, _ := rec.Float(raw.FieldCorner)
		return &scene.Rect{ShapeBase: base, CornerRadius: corner}, nil

	case raw.TagShapeOval:
		return &scene.Oval{ShapeBase: base}, nil

	case raw.TagShapeLine:
		rev, _ := rec.Bool(raw.FieldReversed)
		return &scene.Line{ShapeBase: base, Reversed: rev}, nil

	case raw.TagShapePath:
		return r.path(rec, base)

	case raw.TagTextBox:
		box := &scene.TextBox{ShapeBase: base}
		paras, err := r.paragraphs(rec.Refs(raw.FieldChildren), loc)
		if err != nil {
			return nil, err
		}
		box.Paragraphs = paras
		return box, nil

	case raw.TagTable:
		return r.tableShape(rec, base, loc)

	case raw.TagImage:
		return r.image(rec, base, loc)

	case raw.TagGroup:
		kids, links, err := r.children(rec.Refs(raw.FieldChildren), loc)
		if err != nil {
			return nil, err
		}
		if base.LinkedTo == 0 && len(links) > 0 {
			base.LinkedTo = links[0]
		}
		g := &scene.Group{ShapeBase: base}
		g.Children = kids
		return g, nil

	case raw.TagEmbedded:
		return r.embedded(rec, base, loc)
	}

	// Recognized but unrendered kinds and unknown tags both degrade.
	return nil, scene.UnknownShapeTag(rec.ID, rec.Tag)
}

// degrade routes a per-shape error through the strategy.
func (r *resolver) degrade(base scene.ShapeBase, tag raw.Tag, loc recovery.Location, cause error) (scene.Shape, error) {
	switch r.cfg.Recovery.OnError(cause, loc) {
	case recovery.ActionSkip:
		r.soft = append(r.soft, cause)
		return nil, nil
	case recovery.ActionPlaceholder:
		r.soft = append(r.soft, cause)
		r.cfg.Logger.Warn("shape degraded to placeholder",
			observability.Uint32(observability.FieldShape, base.ID),
			observability.Int(observability.FieldSlide, loc.Slide),
			observability.Error("reason", cause))
		return scene.Placeholder(base, tag, cause), nil
	default:
		return nil, cause
	}
}

func (r *resolver) missingRef(id uint32, loc recovery.Location) error {
	err := &archive.FormatError{Offset: -1, Reason: fmt.Sprintf("reference to missing record %d", id)}
	if r.cfg.Recovery.OnError(err, loc) == recovery.ActionFail {
		return err
	}
	r.soft = append(r.soft, err)
	r.cfg.Logger.Warn("dangling reference dropped",
		observability.Uint32(observability.FieldRecord, id))
	return nil
}

// base decodes the geometry and sparse style every shape record carries.
func (r *resolver) base(rec *raw.Record) scene.ShapeBase {
	b := scene.ShapeBase{ID: rec.ID, Style: r.styleOf(rec)}
	b.Name, _ = rec.String(raw.FieldName)
	b.Transform, b.Bounds = shapeGeometry(rec)
	nw, _ := rec.Float(raw.FieldNaturalW)
	nh, _ := rec.Float(raw.FieldNaturalH)
	b.NaturalSize = scene.Size{W: nw, H: nh}
	b.LinkedTo, _ = rec.Ref(raw.FieldLinked)
	return b
}

// styleOf follows a node's style reference. Dangling or mistyped style
// references resolve to an empty (fully inheriting) style.
func (r *resolver) styleOf(rec *raw.Record) styles.Style {
	id, ok := rec.Ref(raw.FieldStyle)
	if !ok {
		return nil
	}
	styleRec, ok := r.table.Get(id)
	if !ok || styleRec.Tag != raw.TagStyle {
		r.cfg.Logger.Warn("style reference unresolved",
			observability.Uint32(observability.FieldRecord, rec.ID),
			observability.Uint32("style", id))
		return nil
	}
	return styles.FromRecord(styleRec)
}

func (r *resolver) paragraphs(refs []uint32, loc recovery.Location) ([]scene.Paragraph, error) {
	out := make([]scene.Paragraph, 0, len(refs))
	for _, id := range refs {
		rec, ok := r.table.Get(id)
		if !ok || rec.Tag != raw.TagParagraph {
			if err := r.missingRef(id, loc); err != nil {
				return nil, err
			}
			continue
		}
		p := scene.Paragraph{Style: r.styleOf(rec)}
		if lvl, ok := rec.Int(raw.FieldListLevel); ok {
			p.ListLevel = int(lvl)
		}
		for _, runID := range rec.Refs(raw.FieldChildren) {
			runRec, ok := r.table.Get(runID)
			if !ok || runRec.Tag != raw.TagTextRun {
				if err := r.missingRef(runID, loc); err != nil {
					return nil, err
				}
				continue
			}
			text, _ := runRec.String(raw.FieldText)
			p.Runs = append(p.Runs, scene.TextRun{Text: text, Style: r.styleOf(runRec)})
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *resolver) tableShape(rec *raw.Record, base scene.ShapeBase, loc recovery.Location) (scene.Shape, error) {
	t := &scene.Table{ShapeBase: base}
	if v, ok := rec.Int(raw.FieldRows); ok {
		t.Rows = int(v)
	}
	if v, ok := rec.Int(raw.FieldCols); ok {
		t.Cols = int(v)
	}
	if t.Rows <= 0 || t.Cols <= 0 {
		return nil, &archive.FormatError{Offset: -1, Reason: fmt.Sprintf("table %d grid %dx%d is not positive", rec.ID, t.Rows, t.Cols)}
	}
	t.ColWidths = rec.Floats(raw.FieldColWidths)
	t.RowHeights = rec.Floats(raw.FieldRowHs)

	for _, cellID := range rec.Refs(raw.FieldChildren) {
		cellRec, ok := r.table.Get(cellID)
		if !ok || cellRec.Tag != raw.TagTableCell {
			if err := r.missingRef(cellID, loc); err != nil {
				return nil, err
			}
			continue
		}
		cell := scene.Cell{RowSpan: 1, ColSpan: 1, Style: r.styleOf(cellRec)}
		if v, ok := cellRec.Int(raw.FieldRow); ok {
			cell.Row = int(v)
		}
		if v, ok := cellRec.Int(raw.FieldCol); ok {
			cell.Col = int(v)
		}
		if v, ok := cellRec.Int(raw.FieldRowSpan); ok && v > 0 {
			cell.RowSpan = int(v)
		}
		if v, ok := cellRec.Int(raw.FieldColSpan); ok && v > 0 {
			cell.ColSpan = int(v)
		}
		paras, err := r.paragraphs(cellRec.Refs(raw.FieldChildren), loc)
		if err != nil {
			return nil, err
		}
		cell.Paragraphs = paras
		t.Cells = append(t.Cells, cell)
	}
	return t, nil
}

func (r *resolver) image(rec *raw.Record, base scene.ShapeBase, loc recovery.Location) (scene.Shape, error) {
	stream, ok := rec.String(raw.FieldMediaPath)
	if !ok {
		return nil, &scene.UnsupportedShapeError{ID: rec.ID, Kind: "image without media stream"}
	}
	img := &scene.Image{ShapeBase: base, Stream: stream}
	if r.cfg.Media != nil {
		data, err := r.cfg.Media.ReadStream(stream)
		if err != nil {
			return nil, &scene.UnsupportedShapeError{ID: rec.ID, Kind: fmt.Sprintf("media stream %q unreadable", stream)}
		}
		img.Data = data
	}
	return img, nil
}

func (r *resolver) embedded(rec *raw.Record, base scene.ShapeBase, loc recovery.Location) (scene.Shape, error) {
	stream, ok := rec.String(raw.FieldEmbedPath)
	if !ok {
		return nil, &scene.UnsupportedShapeError{ID: rec.ID, Kind: "embedded document without stream"}
	}
	e := &scene.Embedded{ShapeBase: base, Stream: stream, Page: 1}
	if v, ok := rec.Int(raw.FieldEmbedPage); ok && v > 0 {
		e.Page = int(v)
	}
	if r.cfg.Media != nil {
		data, err := r.cfg.Media.ReadStream(stream)
		if err != nil {
			return nil, &scene.UnsupportedShapeError{ID: rec.ID, Kind: fmt.Sprintf("embedded stream %q unreadable", stream)}
		}
		e.Data = data
	}
	return e, nil
}
