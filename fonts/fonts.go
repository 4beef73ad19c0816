// Package fonts provides text measurement and glyph shaping for the layout
// engine. Registered TrueType faces are shaped with HarfBuzz; names with no
// registered face fall back to built-in Helvetica metrics, logged once per
// name.
package fonts

import (
	"bytes"
	"fmt"
	"sync"

	gofont "github.com/go-text/typesetting/font"
	xfont "golang.org/x/image/font"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"

	"github.com/slidekit/key2pdf/observability"
)

// Metrics holds vertical font metrics in points at a concrete size.
type Metrics struct {
	Ascent  float64
	Descent float64 // positive distance below the baseline
	LineGap float64
}

// Height returns the default line advance.
func (m Metrics) Height() float64 { return m.Ascent + m.Descent + m.LineGap }

// Glyph is one positioned glyph of a shaped run, in points at the shaping
// size.
type Glyph struct {
	GID      uint32
	Cluster  int
	XAdvance float64
	XOffset  float64
	YOffset  float64
}

// Provider is the measurement surface the layout engine depends on.
type Provider interface {
	Measure(name string, size float64, text string) float64
	Metrics(name string, size float64) Metrics
	Shape(name string, size float64, text string) []Glyph
}

type face struct {
	data    []byte
	sfnt    *sfnt.Font
	shaping *gofont.Face
	units   sfnt.Units
}

// Catalog is the process-wide font registry. It satisfies Provider and is
// safe for concurrent use.
type Catalog struct {
	mu      sync.RWMutex
	faces   map[string]*face
	missing map[string]bool
	log     observability.Logger
}

func NewCatalog(log observability.Logger) *Catalog {
	if log == nil {
		log = observability.NopLogger{}
	}
	return &Catalog{
		faces:   make(map[string]*face),
		missing: make(map[string]bool),
		log:     log,
	}
}

// Register parses a TrueType or OpenType font and makes it available under
// the given name.
func (c *Catalog) Register(name string, data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("font %q: empty data", name)
	}
	sf, err := sfnt.Parse(data)
	if err != nil {
		return fmt.Errorf("font %q: %w", name, err)
	}
	shaped, err := gofont.ParseTTF(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("font %q: %w", name, err)
	}
	c.mu.Lock()
	c.faces[name] = &face{data: data, sfnt: sf, shaping: shaped, units: sf.UnitsPerEm()}
	c.mu.Unlock()
	return nil
}

// Has reports whether a face is registered under the name.
func (c *Catalog) Has(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.faces[name] != nil
}

// Data returns the raw font file for embedding, nil for fallback names.
func (c *Catalog) Data(name string) []byte {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if f := c.faces[name]; f != nil {
		return f.data
	}
	return nil
}

// lookup resolves a face, logging a fallback the first time a name misses.
func (c *Catalog) lookup(name string) *face {
	c.mu.RLock()
	f := c.faces[name]
	seen := c.missing[name]
	c.mu.RUnlock()
	if f != nil {
		return f
	}
	if !seen {
		c.mu.Lock()
		if !c.missing[name] {
			c.missing[name] = true
			c.log.Warn("font not available, using built-in metrics",
				observability.String(observability.FieldFont, name))
		}
		c.mu.Unlock()
	}
	return nil
}

// Measure returns the advance width of text in points.
func (c *Catalog) Measure(name string, size float64, text string) float64 {
	if f := c.lookup(name); f != nil {
		var w float64
		for _, g := range shapeFace(f, size, text) {
			w += g.XAdvance
		}
		return w
	}
	return builtinMeasure(text, size)
}

// Metrics returns the vertical metrics of the face at size.
func (c *Catalog) Metrics(name string, size float64) Metrics {
	f := c.lookup(name)
	if f == nil {
		return builtinMetrics(size)
	}
	buf := &sfnt.Buffer{}
	ppem := fixed.Int26_6(f.units << 6)
	m, err := f.sfnt.Metrics(buf, ppem, xfont.HintingNone)
	if err != nil {
		return builtinMetrics(size)
	}
	scale := size / float64(f.units)
	return Metrics{
		Ascent:  float64(m.Ascent) / 64 * scale,
		Descent: float64(m.Descent) / 64 * scale,
		LineGap: float64(m.Height-m.Ascent-m.Descent) / 64 * scale,
	}
}

// Shape returns positioned glyphs for text. Fallback names shape to an
// empty run; the composer draws their text by advance only.
func (c *Catalog) Shape(name string, size float64, text string) []Glyph {
	if f := c.lookup(name); f != nil {
		return shapeFace(f, size, text)
	}
	return nil
}
