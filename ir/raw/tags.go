package raw

import "fmt"

// Tag is the record type tag from the index stream.
type Tag uint16

// Record type tags. The set reflects what the legacy application wrote
// through the supported release era; anything else decodes as unknown.
const (
	TagDocument    Tag = 0x0001
	TagSlide       Tag = 0x0002
	TagMasterSlide Tag = 0x0003
	TagTheme       Tag = 0x0004
	TagStyle       Tag = 0x0005

	TagShapeRect Tag = 0x0010
	TagShapeOval Tag = 0x0011
	TagShapeLine Tag = 0x0012
	TagShapePath Tag = 0x0013
	TagTextBox   Tag = 0x0014
	TagTable     Tag = 0x0015
	TagImage     Tag = 0x0016
	TagGroup     Tag = 0x0017
	TagEmbedded  Tag = 0x0018

	// Recognized but unrendered shape kinds. They resolve to placeholders.
	TagShapeSpiral     Tag = 0x0019
	TagBodyPlaceholder Tag = 0x001A
	TagConnectorArrow  Tag = 0x001B

	TagTableCell Tag = 0x0020
	TagParagraph Tag = 0x0021
	TagTextRun   Tag = 0x0022
)

var tagNames = map[Tag]string{
	TagDocument:        "document",
	TagSlide:           "slide",
	TagMasterSlide:     "master-slide",
	TagTheme:           "theme",
	TagStyle:           "style",
	TagShapeRect:       "rect",
	TagShapeOval:       "oval",
	TagShapeLine:       "line",
	TagShapePath:       "path",
	TagTextBox:         "text-box",
	TagTable:           "table",
	TagImage:           "image",
	TagGroup:           "group",
	TagEmbedded:        "embedded-document",
	TagShapeSpiral:     "spiral",
	TagBodyPlaceholder: "body-placeholder",
	TagConnectorArrow:  "connector-arrow",
	TagTableCell:       "table-cell",
	TagParagraph:       "paragraph",
	TagTextRun:         "text-run",
}

func (t Tag) String() string {
	if name, ok := tagNames[t]; ok {
		return name
	}
	return fmt.Sprintf("tag(0x%04x)", uint16(t))
}

// Known reports whether the reader recognizes the tag.
func (t Tag) Known() bool {
	_, ok := tagNames[t]
	return ok
}

// Structural field keys.
const (
	FieldChildren FieldKey = 0x01 // slides, shapes, cells, paragraphs, runs
	FieldMaster   FieldKey = 0x02 // slide → master-slide (non-owning)
	FieldTheme    FieldKey = 0x03 // document → theme
	FieldStyle    FieldKey = 0x04 // any node → style record
	FieldHidden   FieldKey = 0x05
	FieldName     FieldKey = 0x06
	FieldLinked   FieldKey = 0x07 // non-owning next/linked relation
)

// Geometry field keys.
const (
	FieldX        FieldKey = 0x10
	FieldY        FieldKey = 0x11
	FieldW        FieldKey = 0x12
	FieldH        FieldKey = 0x13
	FieldNaturalW FieldKey = 0x14
	FieldNaturalH FieldKey = 0x15
	FieldRotation FieldKey = 0x16 // degrees
	FieldScaleX   FieldKey = 0x17
	FieldScaleY   FieldKey = 0x18
	FieldSkewX    FieldKey = 0x19 // degrees
	FieldSkewY    FieldKey = 0x1A // degrees
)

// Content field keys.
const (
	FieldText      FieldKey = 0x20
	FieldPath      FieldKey = 0x21 // "M x y L x y C ... Z" command string
	FieldPointType FieldKey = 0x22 // parametric point-path name, e.g. "star"
	FieldMediaPath FieldKey = 0x23 // container stream path of image media
	FieldListLevel FieldKey = 0x24
	FieldRows      FieldKey = 0x25
	FieldCols      FieldKey = 0x26
	FieldColWidths FieldKey = 0x27
	FieldRowHs     FieldKey = 0x28
	FieldRow       FieldKey = 0x29
	FieldCol       FieldKey = 0x2A
	FieldRowSpan   FieldKey = 0x2B
	FieldColSpan   FieldKey = 0x2C
	FieldEmbedPath FieldKey = 0x2D // container stream path of a foreign document
	FieldEmbedPage FieldKey = 0x2E
	FieldCorner    FieldKey = 0x2F // rounded-rect corner radius
	FieldReversed  FieldKey = 0x30 // line runs top-right to bottom-left
)

// Style attribute field keys. A style record is a sparse set of these;
// absent keys mean "inherit".
const (
	FieldFillColor   FieldKey = 0x40 // color array, see styles.ParseColor
	FieldFillImage   FieldKey = 0x41 // container stream path of a texture
	FieldStrokeColor FieldKey = 0x42
	FieldStrokeWidth FieldKey = 0x43
	FieldStrokeCap   FieldKey = 0x44 // "butt" | "round" | "square"
	FieldStrokeJoin  FieldKey = 0x45 // "miter" | "round" | "bevel"
	FieldMiterLimit  FieldKey = 0x46
	FieldOpacity     FieldKey = 0x47
	FieldShadow      FieldKey = 0x48 // [dx dy blur r g b a]
	FieldFontName    FieldKey = 0x49
	FieldFontSize    FieldKey = 0x4A
	FieldFontColor   FieldKey = 0x4B
	FieldBold        FieldKey = 0x4C
	FieldItalic      FieldKey = 0x4D
	FieldAlignment   FieldKey = 0x4E // 0 left, 1 right, 2 center
	FieldLineSpacing FieldKey = 0x4F
	FieldIndent      FieldKey = 0x50
	FieldBulletStyle FieldKey = 0x51
	FieldBulletChar  FieldKey = 0x52
)
