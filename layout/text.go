package layout

import (
	"strings"

	"github.com/slidekit/key2pdf/coords"
	"github.com/slidekit/key2pdf/ir/scene"
	"github.com/slidekit/key2pdf/styles"
)

// Fragment is a run of uniformly styled text placed on one line. X is the
// pen position relative to the box origin; the baseline comes from the
// enclosing Line.
type Fragment struct {
	Text  string
	X     float64
	Width float64
	Font  string
	Size  float64
	Color styles.Color
	Style styles.Style
}

// Line is one row of fragments sharing a baseline.
type Line struct {
	Baseline  float64
	Width     float64
	Fragments []Fragment
}

// TextLayout is the flowed form of a text box's paragraphs.
type TextLayout struct {
	Lines  []Line
	Height float64 // total flowed height, may exceed the box
}

// word is a measured token awaiting line assignment.
type word struct {
	text  string
	width float64
	font  string
	size  float64
	color styles.Color
	style styles.Style
}

// LayoutText flows paragraphs into a box of the given width. The inherited
// levels are the cascade above the paragraph (theme, master, slide, shape);
// paragraph and run styles stack on top.
func (e *Engine) LayoutText(shapeID uint32, paragraphs []scene.Paragraph, bounds coords.Rect, inherited ...styles.Style) *TextLayout {
	ord := 0
	return e.layoutText(shapeID, paragraphs, bounds, &ord, inherited...)
}

// layoutText is the counted form: ord keeps the cascade cache key unique
// and stable when one shape (a table) flows several blocks of text.
func (e *Engine) layoutText(shapeID uint32, paragraphs []scene.Paragraph, bounds coords.Rect, ord *int, inherited ...styles.Style) *TextLayout {
	out := &TextLayout{}
	y := 0.0
	next := func() int { *ord++; return *ord }

	for _, para := range paragraphs {
		levels := append(append([]styles.Style{}, inherited...), para.Style)
		paraStyle := e.Styles.Run(shapeID, next(), levels...)

		align, _ := paraStyle.Int(styles.AttrAlignment)
		spacing, _ := paraStyle.Float(styles.AttrLineSpacing)
		if spacing <= 0 {
			spacing = 1
		}
		indent := paraIndent(paraStyle, para.ListLevel)

		var words []word
		if b, ok := e.bulletWord(paraStyle, para.ListLevel); ok {
			words = append(words, b)
		}
		for _, run := range para.Runs {
			runStyle := e.Styles.Run(shapeID, next(), append(levels, run.Style)...)
			words = append(words, e.tokenize(run, runStyle)...)
		}

		lines, tallest := e.breakLines(words, bounds.W-indent)
		for _, ln := range lines {
			m := e.Fonts.Metrics(tallestFont(ln), tallest)
			baseline := y + m.Ascent*spacing
			out.Lines = append(out.Lines, placeLine(ln, baseline, indent, bounds.W, align))
			y += m.Height() * spacing
		}
		if len(lines) == 0 {
			// Empty paragraph still advances one default line.
			m := e.Fonts.Metrics(fontOf(paraStyle), sizeOf(paraStyle))
			y += m.Height() * spacing
		}
	}
	out.Height = y
	return out
}

func fontOf(s styles.Style) string {
	f, _, _ := textStyle(s)
	return f
}

func sizeOf(s styles.Style) float64 {
	sz, _ := s.Float(styles.AttrFontSize)
	return sz
}

// paraIndent combines the explicit indent with the list level.
func paraIndent(s styles.Style, level int) float64 {
	indent, _ := s.Float(styles.AttrIndent)
	if level > 0 {
		indent += float64(level) * 18
	}
	return indent
}

// bulletWord produces the marker token for list paragraphs. Unknown bullet
// variants fall back to the plain round marker.
func (e *Engine) bulletWord(s styles.Style, level int) (word, bool) {
	bs, _ := s.Int(styles.AttrBulletStyle)
	if bs == styles.BulletNone && level == 0 {
		return word{}, false
	}
	ch, _ := s.Str(styles.AttrBulletChar)
	if ch == "" {
		ch = "•"
	}
	font, size, color := textStyle(s)
	text := ch + " "
	return word{
		text:  text,
		width: e.Fonts.Measure(font, size, text),
		font:  font,
		size:  size,
		color: color,
		style: s,
	}, true
}

// tokenize splits a run into measured words and single spaces, the units
// the line breaker works with.
func (e *Engine) tokenize(run scene.TextRun, resolved styles.Style) []word {
	font, size, color := textStyle(resolved)
	var words []word
	add := func(text string) {
		words = append(words, word{
			text:  text,
			width: e.Fonts.Measure(font, size, text),
			font:  font,
			size:  size,
			color: color,
			style: resolved,
		})
	}
	var cur strings.Builder
	for _, r := range run.Text {
		if r == ' ' || r == '\n' || r == '\t' {
			if cur.Len() > 0 {
				add(cur.String())
				cur.Reset()
			}
			add(" ")
			continue
		}
		cur.WriteRune(r)
	}
	if cur.Len() > 0 {
		add(cur.String())
	}
	return words
}

// breakLines greedily packs words into lines of at most maxWidth plus the
// overflow leeway. Returns the lines and the largest font size seen, which
// drives the vertical advance.
func (e *Engine) breakLines(words []word, maxWidth float64) ([][]word, float64) {
	var (
		lines   [][]word
		cur     []word
		curW    float64
		tallest float64
	)
	flush := func() {
		// Trailing spaces do not count toward alignment.
		for len(cur) > 0 && cur[len(cur)-1].text == " " {
			cur = cur[:len(cur)-1]
		}
		if len(cur) > 0 {
			lines = append(lines, cur)
		}
		cur = nil
		curW = 0
	}
	for _, w := range words {
		if w.size > tallest {
			tallest = w.size
		}
		if w.text == " " {
			if curW+w.width > maxWidth {
				flush()
			} else if len(cur) > 0 {
				cur = append(cur, w)
				curW += w.width
			}
			continue
		}
		if curW+w.width > maxWidth+overflowLeeway {
			if w.width > maxWidth+overflowLeeway {
				// The word alone exceeds the line; split by runes.
				flush()
				for _, part := range e.splitWord(w, maxWidth+overflowLeeway) {
					flush()
					cur = append(cur, part)
					curW = part.width
				}
				continue
			}
			flush()
		}
		cur = append(cur, w)
		curW += w.width
	}
	flush()
	if tallest == 0 {
		tallest = 12
	}
	return lines, tallest
}

// splitWord breaks an overlong word at rune granularity.
func (e *Engine) splitWord(w word, maxWidth float64) []word {
	var parts []word
	var cur strings.Builder
	curW := 0.0
	for _, r := range w.text {
		rw := e.Fonts.Measure(w.font, w.size, string(r))
		if curW+rw > maxWidth && cur.Len() > 0 {
			part := w
			part.text = cur.String()
			part.width = curW
			parts = append(parts, part)
			cur.Reset()
			curW = 0
		}
		cur.WriteRune(r)
		curW += rw
	}
	if cur.Len() > 0 {
		part := w
		part.text = cur.String()
		part.width = curW
		parts = append(parts, part)
	}
	return parts
}

// tallestFont returns the face of the largest word on the line, which sets
// the baseline metrics.
func tallestFont(ln []word) string {
	font := "Helvetica"
	size := 0.0
	for _, w := range ln {
		if w.size > size {
			size = w.size
			font = w.font
		}
	}
	return font
}

// placeLine assigns pen positions, honoring the paragraph alignment within
// the full box width.
func placeLine(ln []word, baseline, indent, boxWidth float64, align int) Line {
	total := 0.0
	for _, w := range ln {
		total += w.width
	}
	x := indent
	switch align {
	case styles.AlignRight:
		x = boxWidth - total
	case styles.AlignCenter:
		x = indent + (boxWidth-indent-total)/2
	}
	out := Line{Baseline: baseline, Width: total}
	for _, w := range ln {
		out.Fragments = append(out.Fragments, Fragment{
			Text:  w.text,
			X:     x,
			Width: w.width,
			Font:  w.font,
			Size:  w.size,
			Color: w.color,
			Style: w.style,
		})
		x += w.width
	}
	return out
}
