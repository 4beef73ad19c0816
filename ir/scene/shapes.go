package scene

import (
	"github.com/slidekit/key2pdf/coords"
	"github.com/slidekit/key2pdf/ir/raw"
	"github.com/slidekit/key2pdf/styles"
)

// Kind discriminates the closed set of shape node types.
type Kind int

const (
	KindRect Kind = iota
	KindOval
	KindLine
	KindPath
	KindTextBox
	KindTable
	KindImage
	KindGroup
	KindEmbedded
	KindUnsupported
)

var kindNames = map[Kind]string{
	KindRect:        "rect",
	KindOval:        "oval",
	KindLine:        "line",
	KindPath:        "path",
	KindTextBox:     "textbox",
	KindTable:       "table",
	KindImage:       "image",
	KindGroup:       "group",
	KindEmbedded:    "embedded",
	KindUnsupported: "unsupported",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return "invalid"
}

// Shape is the node interface for the drawable tree. The concrete set is
// closed; consumers switch on Kind or type-assert.
type Shape interface {
	Base() *ShapeBase
	Kind() Kind
}

// ShapeBase carries the geometry and style state every shape has. Bounds is
// the untransformed local box; Transform maps local space into the parent's
// space and composes down the group tree.
type ShapeBase struct {
	ID          uint32
	Name        string
	Bounds      coords.Rect
	NaturalSize Size
	Transform   coords.Matrix
	Style       styles.Style

	// LinkedTo points at another shape by id when the source graph held a
	// back or cross reference. Non-owning: resolve via Document.ShapeByID.
	LinkedTo uint32
}

func (b *ShapeBase) Base() *ShapeBase { return b }

// Rect is an axis-aligned rectangle, optionally with rounded corners.
type Rect struct {
	ShapeBase
	CornerRadius float64
}

func (*Rect) Kind() Kind { return KindRect }

// Oval is an ellipse inscribed in Bounds.
type Oval struct {
	ShapeBase
}

func (*Oval) Kind() Kind { return KindOval }

// Line runs from one corner of Bounds to the other; Reversed flips which
// pair of corners.
type Line struct {
	ShapeBase
	Reversed bool
}

func (*Line) Kind() Kind { return KindLine }

// PathOp identifies one command of a bezier path.
type PathOp byte

const (
	OpMove  PathOp = 'M'
	OpLine  PathOp = 'L'
	OpCurve PathOp = 'C'
	OpClose PathOp = 'Z'
)

// PathCommand holds one path command and its control points: one point for
// move and line, three for a cubic, none for close.
type PathCommand struct {
	Op  PathOp
	Pts []coords.Point
}

// Path is a free-form bezier outline in local coordinates.
type Path struct {
	ShapeBase
	Commands []PathCommand
}

func (*Path) Kind() Kind { return KindPath }

// TextRun is a maximal span of text with uniform character style. The run
// style is sparse; the cascade fills in the rest.
type TextRun struct {
	Text  string
	Style styles.Style
}

// Paragraph groups runs under one paragraph style.
type Paragraph struct {
	Style     styles.Style
	ListLevel int
	Runs      []TextRun
}

// TextBox is a shape whose content is flowed text.
type TextBox struct {
	ShapeBase
	Paragraphs []Paragraph
}

func (*TextBox) Kind() Kind { return KindTextBox }

// Cell is one logical entry of a table grid. Spans of 1 cover a single
// grid cell; larger spans merge to the right and down.
type Cell struct {
	Row, Col         int
	RowSpan, ColSpan int
	Style            styles.Style
	Paragraphs       []Paragraph
}

// Table is a grid of cells. ColWidths and RowHeights are optional declared
// sizes in points; when absent the grid splits Bounds evenly.
type Table struct {
	ShapeBase
	Rows, Cols int
	ColWidths  []float64
	RowHeights []float64
	Cells      []Cell
}

func (*Table) Kind() Kind { return KindTable }

// Image is a raster placed into Bounds. Data is the decoded-ready stream
// payload; Stream names the source for diagnostics.
type Image struct {
	ShapeBase
	Stream string
	Data   []byte
}

func (*Image) Kind() Kind { return KindImage }

// Group composes child shapes; children draw in slice order under the
// group's transform.
type Group struct {
	ShapeBase
	Children []Shape
}

func (*Group) Kind() Kind { return KindGroup }

// Embedded is a nested document to be rendered by an external collaborator.
type Embedded struct {
	ShapeBase
	Stream string
	Page   int
	Data   []byte
}

func (*Embedded) Kind() Kind { return KindEmbedded }

// Unsupported is the placeholder for recognized shapes with no renderer and
// for records that could not be materialized. Geometry is preserved when it
// was decodable so layout still reserves the space.
type Unsupported struct {
	ShapeBase
	Tag    raw.Tag
	Reason error
}

func (*Unsupported) Kind() Kind { return KindUnsupported }
