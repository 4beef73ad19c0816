// Package scene is the resolved document model: an acyclic ownership tree
// of slides, shapes and styles, ready for layout and rendering. A Document
// and everything it owns are immutable once the resolver returns them.
package scene

import (
	"fmt"

	"github.com/slidekit/key2pdf/ir/raw"
	"github.com/slidekit/key2pdf/styles"
)

// Size is a canvas or natural-media extent in points.
type Size struct {
	W, H float64
}

// Document is the root of the scene graph.
type Document struct {
	Canvas  Size
	Theme   *Theme
	Masters []*MasterSlide
	Slides  []*Slide

	// arena indexes every shape by object id; non-owning relations
	// (LinkedTo) are looked up here instead of holding pointers.
	arena map[uint32]Shape
}

// NewDocument builds the root node. The arena starts empty; the resolver
// registers shapes as it materializes them.
func NewDocument(canvas Size) *Document {
	return &Document{Canvas: canvas, arena: make(map[uint32]Shape)}
}

// Register adds a shape to the id index.
func (d *Document) Register(s Shape) { d.arena[s.Base().ID] = s }

// ShapeByID resolves a non-owning shape reference.
func (d *Document) ShapeByID(id uint32) (Shape, bool) {
	s, ok := d.arena[id]
	return s, ok
}

// VisibleSlides returns the slides that produce output pages, in document
// order.
func (d *Document) VisibleSlides() []*Slide {
	out := make([]*Slide, 0, len(d.Slides))
	for _, s := range d.Slides {
		if !s.Hidden {
			out = append(out, s)
		}
	}
	return out
}

// Theme carries the document-wide default style level.
type Theme struct {
	ID    uint32
	Style styles.Style
}

// MasterSlide holds a shared style level plus background drawables. Many
// slides reference one master; the reference is non-owning.
type MasterSlide struct {
	ID     uint32
	Style  styles.Style
	Shapes []Shape
}

// Slide owns its shapes; list order is z-order, first drawn lowest.
type Slide struct {
	ID     uint32
	Number int // 1-based document position
	Hidden bool
	Master *MasterSlide
	Style  styles.Style
	Shapes []Shape
}

func (s *Slide) String() string { return fmt.Sprintf("slide %d (id %d)", s.Number, s.ID) }

// UnsupportedShapeError marks a recognized shape kind that has no
// implemented renderer. Soft: the shape degrades to a placeholder.
type UnsupportedShapeError struct {
	ID   uint32
	Kind string
}

func (e *UnsupportedShapeError) Error() string {
	return fmt.Sprintf("shape %d: kind %q has no renderer", e.ID, e.Kind)
}

// UnknownShapeTag returns the diagnostic attached to placeholders created
// from records the archive reader could not identify.
func UnknownShapeTag(id uint32, tag raw.Tag) *UnsupportedShapeError {
	return &UnsupportedShapeError{ID: id, Kind: tag.String()}
}

// Placeholder builds the Unsupported stand-in for a shape that could not be
// materialized, keeping whatever geometry was decodable so later stages
// still reserve its space.
func Placeholder(base ShapeBase, tag raw.Tag, reason error) *Unsupported {
	return &Unsupported{ShapeBase: base, Tag: tag, Reason: reason}
}
