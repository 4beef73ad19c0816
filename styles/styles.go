// Package styles implements the visual-style cascade: sparse attribute
// maps overlaid in a fixed order, never a type hierarchy.
package styles

import (
	"fmt"

	"github.com/slidekit/key2pdf/ir/raw"
)

// Attr identifies one visual attribute within a style map.
type Attr uint16

const (
	AttrFillColor Attr = iota
	AttrFillImage      // container stream path of a texture fill
	AttrStrokeColor
	AttrStrokeWidth
	AttrStrokeCap
	AttrStrokeJoin
	AttrMiterLimit
	AttrOpacity
	AttrShadow
	AttrFontName
	AttrFontSize
	AttrFontColor
	AttrBold
	AttrItalic
	AttrAlignment
	AttrLineSpacing
	AttrIndent
	AttrBulletStyle
	AttrBulletChar
)

// Alignment values for AttrAlignment.
const (
	AlignLeft   = 0
	AlignRight  = 1
	AlignCenter = 2
)

// Bullet style values for AttrBulletStyle. Anything else is an
// unsupported variant and falls back to a plain marker at layout time.
const (
	BulletNone = 0
	BulletChar = 1
)

// Color is a normalized RGBA color, each channel in [0, 1].
type Color struct {
	R, G, B, A float64
}

func (c Color) String() string {
	return fmt.Sprintf("rgba(%.3g,%.3g,%.3g,%.3g)", c.R, c.G, c.B, c.A)
}

// ParseColor normalizes the archive's color arrays. The channel count
// selects the color space: [w a] grayscale, [r g b a] RGB, [c m y k a]
// CMYK. Anything else is rejected.
func ParseColor(ch []float64) (Color, error) {
	switch len(ch) {
	case 2:
		return Color{R: ch[0], G: ch[0], B: ch[0], A: ch[1]}, nil
	case 4:
		return Color{R: ch[0], G: ch[1], B: ch[2], A: ch[3]}, nil
	case 5:
		white := 1.0 - ch[3]
		return Color{
			R: white - ch[0]*white,
			G: white - ch[1]*white,
			B: white - ch[2]*white,
			A: ch[4],
		}, nil
	}
	return Color{}, fmt.Errorf("unknown color space with %d channels", len(ch))
}

// Shadow is a drop shadow offset with a blur radius.
type Shadow struct {
	DX, DY, Blur float64
	Color        Color
}

// Style is one cascade level: a sparse attribute map. A missing attribute
// means "inherit from the previous level"; an attribute explicitly set to
// nil cancels inheritance (the value becomes unset in the resolved style).
type Style map[Attr]interface{}

// Clone returns a copy sharing no map storage with s.
func (s Style) Clone() Style {
	out := make(Style, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Get returns the attribute value, or nil when unset or cancelled.
func (s Style) Get(a Attr) interface{} {
	if s == nil {
		return nil
	}
	return s[a]
}

// Color returns the attribute as a Color.
func (s Style) Color(a Attr) (Color, bool) {
	c, ok := s.Get(a).(Color)
	return c, ok
}

// Float returns the attribute as a float64.
func (s Style) Float(a Attr) (float64, bool) {
	f, ok := s.Get(a).(float64)
	return f, ok
}

// Int returns the attribute as an int.
func (s Style) Int(a Attr) (int, bool) {
	i, ok := s.Get(a).(int)
	return i, ok
}

// Str returns the attribute as a string.
func (s Style) Str(a Attr) (string, bool) {
	v, ok := s.Get(a).(string)
	return v, ok
}

// Bool returns the attribute as a bool.
func (s Style) Bool(a Attr) (bool, bool) {
	b, ok := s.Get(a).(bool)
	return b, ok
}

// fieldAttrs maps record style fields to cascade attributes.
var fieldAttrs = map[raw.FieldKey]Attr{
	raw.FieldFillColor:   AttrFillColor,
	raw.FieldFillImage:   AttrFillImage,
	raw.FieldStrokeColor: AttrStrokeColor,
	raw.FieldStrokeWidth: AttrStrokeWidth,
	raw.FieldStrokeCap:   AttrStrokeCap,
	raw.FieldStrokeJoin:  AttrStrokeJoin,
	raw.FieldMiterLimit:  AttrMiterLimit,
	raw.FieldOpacity:     AttrOpacity,
	raw.FieldShadow:      AttrShadow,
	raw.FieldFontName:    AttrFontName,
	raw.FieldFontSize:    AttrFontSize,
	raw.FieldFontColor:   AttrFontColor,
	raw.FieldBold:        AttrBold,
	raw.FieldItalic:      AttrItalic,
	raw.FieldAlignment:   AttrAlignment,
	raw.FieldLineSpacing: AttrLineSpacing,
	raw.FieldIndent:      AttrIndent,
	raw.FieldBulletStyle: AttrBulletStyle,
	raw.FieldBulletChar:  AttrBulletChar,
}

// FromRecord extracts the style attributes present on a record into one
// cascade level. Unknown fields are ignored; a null field value becomes an
// explicit inheritance cancel.
func FromRecord(rec *raw.Record) Style {
	if rec == nil {
		return nil
	}
	var out Style
	for key, attr := range fieldAttrs {
		v, present := rec.Fields[key]
		if !present {
			continue
		}
		if out == nil {
			out = Style{}
		}
		if _, isNull := v.(raw.NullValue); isNull {
			out[attr] = nil
			continue
		}
		if dec, ok := decodeAttr(rec, key, attr); ok {
			out[attr] = dec
		}
	}
	return out
}

func decodeAttr(rec *raw.Record, key raw.FieldKey, attr Attr) (interface{}, bool) {
	switch attr {
	case AttrFillColor, AttrStrokeColor, AttrFontColor:
		c, err := ParseColor(rec.Floats(key))
		if err != nil {
			return nil, false
		}
		return c, true
	case AttrShadow:
		ch := rec.Floats(key)
		if len(ch) != 7 {
			return nil, false
		}
		return Shadow{
			DX: ch[0], DY: ch[1], Blur: ch[2],
			Color: Color{R: ch[3], G: ch[4], B: ch[5], A: ch[6]},
		}, true
	case AttrFillImage, AttrStrokeCap, AttrStrokeJoin, AttrFontName, AttrBulletChar:
		s, ok := rec.String(key)
		return s, ok
	case AttrBold, AttrItalic:
		b, ok := rec.Bool(key)
		return b, ok
	case AttrAlignment, AttrBulletStyle:
		i, ok := rec.Int(key)
		return int(i), ok
	default:
		f, ok := rec.Float(key)
		return f, ok
	}
}
