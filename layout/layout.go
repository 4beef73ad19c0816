// Package layout measures and places slide content: it flows paragraph text
// into shape bounds, sizes table grids, and resolves the effective style of
// every fragment through the cascade. Output geometry is in shape-local
// coordinates; the page composer applies the world transform.
package layout

import (
	"fmt"

	"github.com/slidekit/key2pdf/fonts"
	"github.com/slidekit/key2pdf/observability"
	"github.com/slidekit/key2pdf/styles"
)

// overflowLeeway is how far (in points) a line may run past the right edge
// of its box before the wrapper breaks it. Matches the tolerance of the
// legacy renderer, which let near-fitting words through instead of
// wrapping them.
const overflowLeeway = 10.0

// LayoutError reports content that cannot be placed: an impossible table
// span, a degenerate grid. Soft at the element level.
type LayoutError struct {
	ShapeID uint32
	Reason  string
}

func (e *LayoutError) Error() string {
	return fmt.Sprintf("layout: shape %d: %s", e.ShapeID, e.Reason)
}

func layoutErrf(id uint32, format string, args ...interface{}) *LayoutError {
	return &LayoutError{ShapeID: id, Reason: fmt.Sprintf(format, args...)}
}

// Engine performs measurement-driven placement. One engine serves a whole
// conversion; the style resolver memoizes cascade results across slides.
type Engine struct {
	Fonts  fonts.Provider
	Styles *styles.Resolver
	Log    observability.Logger
}

func NewEngine(provider fonts.Provider, log observability.Logger) *Engine {
	if log == nil {
		log = observability.NopLogger{}
	}
	return &Engine{Fonts: provider, Styles: styles.NewResolver(), Log: log}
}

// fontVariant maps style flags onto the conventional face naming scheme.
func fontVariant(name string, bold, italic bool) string {
	switch {
	case bold && italic:
		return name + "-BoldItalic"
	case bold:
		return name + "-Bold"
	case italic:
		return name + "-Italic"
	}
	return name
}

// textStyle extracts the fragment-level text properties of a resolved style.
func textStyle(s styles.Style) (font string, size float64, color styles.Color) {
	font, _ = s.Str(styles.AttrFontName)
	size, _ = s.Float(styles.AttrFontSize)
	color, _ = s.Color(styles.AttrFontColor)
	bold, _ := s.Bool(styles.AttrBold)
	italic, _ := s.Bool(styles.AttrItalic)
	return fontVariant(font, bold, italic), size, color
}
