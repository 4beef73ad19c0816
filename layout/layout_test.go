package layout

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slidekit/key2pdf/coords"
	"github.com/slidekit/key2pdf/fonts"
	"github.com/slidekit/key2pdf/ir/scene"
	"github.com/slidekit/key2pdf/styles"
)

// gridFont measures every rune as 0.6 em, which makes expected widths easy
// to compute by hand.
type gridFont struct{}

func (gridFont) Measure(name string, size float64, text string) float64 {
	return 0.6 * size * float64(len([]rune(text)))
}

func (gridFont) Metrics(name string, size float64) fonts.Metrics {
	return fonts.Metrics{Ascent: 0.8 * size, Descent: 0.2 * size}
}

func (gridFont) Shape(name string, size float64, text string) []fonts.Glyph { return nil }

func newTestEngine() *Engine {
	return NewEngine(gridFont{}, nil)
}

func para(text string, style styles.Style) scene.Paragraph {
	return scene.Paragraph{Runs: []scene.TextRun{{Text: text}}, Style: style}
}

func lineText(ln Line) string {
	var b strings.Builder
	for _, f := range ln.Fragments {
		b.WriteString(f.Text)
	}
	return b.String()
}

func TestLayoutTextWraps(t *testing.T) {
	e := newTestEngine()
	// At the default 12pt size every rune is 7.2pt wide.
	box := coords.Rect{W: 70, H: 100}
	tl := e.LayoutText(1, []scene.Paragraph{para("alpha beta gamma", nil)}, box)

	require.Len(t, tl.Lines, 2)
	assert.Equal(t, "alpha beta", lineText(tl.Lines[0]))
	assert.Equal(t, "gamma", lineText(tl.Lines[1]))
}

func TestLayoutTextOverflowLeeway(t *testing.T) {
	e := newTestEngine()
	// "alpha beta" flows to 72pt; a 65pt box still holds it thanks to the
	// 10pt leeway, a 55pt box does not.
	one := e.LayoutText(1, []scene.Paragraph{para("alpha beta", nil)}, coords.Rect{W: 65, H: 100})
	require.Len(t, one.Lines, 1)

	two := e.LayoutText(2, []scene.Paragraph{para("alpha beta", nil)}, coords.Rect{W: 55, H: 100})
	require.Len(t, two.Lines, 2)
}

func TestLayoutTextBaselines(t *testing.T) {
	e := newTestEngine()
	tl := e.LayoutText(1, []scene.Paragraph{para("one two three four five six", nil)}, coords.Rect{W: 60, H: 200})
	require.True(t, len(tl.Lines) >= 2)

	// Ascent 8, height 10 at the default 12pt size gives a 9.6/12 pattern.
	assert.InDelta(t, 9.6, tl.Lines[0].Baseline, 1e-9)
	assert.InDelta(t, 12.0, tl.Lines[1].Baseline-tl.Lines[0].Baseline, 1e-9)
	assert.InDelta(t, float64(len(tl.Lines))*12.0, tl.Height, 1e-9)
}

func TestLayoutTextLineSpacing(t *testing.T) {
	e := newTestEngine()
	spaced := styles.Style{styles.AttrLineSpacing: 2.0}
	tl := e.LayoutText(1, []scene.Paragraph{para("one two three four five six", spaced)}, coords.Rect{W: 60, H: 200})
	require.True(t, len(tl.Lines) >= 2)
	assert.InDelta(t, 24.0, tl.Lines[1].Baseline-tl.Lines[0].Baseline, 1e-9)
}

func TestLayoutTextAlignment(t *testing.T) {
	e := newTestEngine()
	box := coords.Rect{W: 100, H: 50}
	word := "hello" // 30pt at size 10? no: size 12 -> 7.2 per rune, 36pt

	left := e.LayoutText(1, []scene.Paragraph{para(word, styles.Style{styles.AttrAlignment: styles.AlignLeft})}, box)
	center := e.LayoutText(2, []scene.Paragraph{para(word, styles.Style{styles.AttrAlignment: styles.AlignCenter})}, box)
	right := e.LayoutText(3, []scene.Paragraph{para(word, styles.Style{styles.AttrAlignment: styles.AlignRight})}, box)

	w := 0.6 * 12 * 5
	assert.InDelta(t, 0, left.Lines[0].Fragments[0].X, 1e-9)
	assert.InDelta(t, (100-w)/2, center.Lines[0].Fragments[0].X, 1e-9)
	assert.InDelta(t, 100-w, right.Lines[0].Fragments[0].X, 1e-9)
}

func TestLayoutTextBulletFallback(t *testing.T) {
	e := newTestEngine()
	p := scene.Paragraph{
		ListLevel: 1,
		Style:     styles.Style{styles.AttrBulletStyle: styles.BulletChar},
		Runs:      []scene.TextRun{{Text: "item"}},
	}
	tl := e.LayoutText(1, []scene.Paragraph{p}, coords.Rect{W: 200, H: 50})
	require.Len(t, tl.Lines, 1)
	assert.True(t, strings.HasPrefix(lineText(tl.Lines[0]), "• "))
	// List level indents the line.
	assert.InDelta(t, 18, tl.Lines[0].Fragments[0].X, 1e-9)
}

func TestLayoutTextExplicitBulletChar(t *testing.T) {
	e := newTestEngine()
	p := scene.Paragraph{
		Style: styles.Style{
			styles.AttrBulletStyle: styles.BulletChar,
			styles.AttrBulletChar:  "-",
		},
		Runs: []scene.TextRun{{Text: "item"}},
	}
	tl := e.LayoutText(1, []scene.Paragraph{p}, coords.Rect{W: 200, H: 50})
	assert.True(t, strings.HasPrefix(lineText(tl.Lines[0]), "- "))
}

func TestLayoutTextSplitsOverlongWord(t *testing.T) {
	e := newTestEngine()
	// 20 runes at 7.2pt each cannot fit a 40pt line even with leeway.
	tl := e.LayoutText(1, []scene.Paragraph{para(strings.Repeat("x", 20), nil)}, coords.Rect{W: 40, H: 200})
	require.True(t, len(tl.Lines) >= 2)
	for _, ln := range tl.Lines {
		assert.LessOrEqual(t, ln.Width, 40.0+overflowLeeway)
	}
}

func TestLayoutTextRunStyleOverridesParagraph(t *testing.T) {
	e := newTestEngine()
	p := scene.Paragraph{
		Style: styles.Style{styles.AttrFontSize: 20.0},
		Runs: []scene.TextRun{
			{Text: "big "},
			{Text: "bold", Style: styles.Style{styles.AttrBold: true}},
		},
	}
	tl := e.LayoutText(1, []scene.Paragraph{p}, coords.Rect{W: 500, H: 100})
	require.Len(t, tl.Lines, 1)
	frags := tl.Lines[0].Fragments
	require.Len(t, frags, 3) // "big", " ", "bold"
	assert.Equal(t, 20.0, frags[0].Size)
	assert.Equal(t, "Helvetica", frags[0].Font)
	assert.Equal(t, "Helvetica-Bold", frags[2].Font)
}

func tableShape(rows, cols int, w, h float64, cells ...scene.Cell) *scene.Table {
	t := &scene.Table{Rows: rows, Cols: cols, Cells: cells}
	t.ID = 9
	t.Bounds = coords.Rect{W: w, H: h}
	return t
}

func TestLayoutTableEqualSplit(t *testing.T) {
	e := newTestEngine()
	tab := tableShape(2, 4, 400, 100)
	tl, err := e.LayoutTable(tab)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 100, 200, 300, 400}, tl.ColEdges)
	assert.Equal(t, []float64{0, 50, 100}, tl.RowEdges)
}

func TestLayoutTableDeclaredSizes(t *testing.T) {
	e := newTestEngine()
	tab := tableShape(2, 2, 400, 100)
	tab.ColWidths = []float64{100, 300}
	tab.RowHeights = []float64{40, 60}
	tl, err := e.LayoutTable(tab)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 100, 400}, tl.ColEdges)
	assert.Equal(t, []float64{0, 40, 100}, tl.RowEdges)
}

func TestLayoutTableIncompleteDeclaredSizesFallBack(t *testing.T) {
	e := newTestEngine()
	tab := tableShape(2, 2, 400, 100)
	tab.ColWidths = []float64{100} // short set, ignored
	tl, err := e.LayoutTable(tab)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 200, 400}, tl.ColEdges)
}

func TestLayoutTableMergedCellUnion(t *testing.T) {
	e := newTestEngine()
	tab := tableShape(2, 2, 200, 100,
		scene.Cell{Row: 0, Col: 0, RowSpan: 2, ColSpan: 1},
		scene.Cell{Row: 0, Col: 1, RowSpan: 1, ColSpan: 1},
		scene.Cell{Row: 1, Col: 1, RowSpan: 1, ColSpan: 1},
	)
	tl, err := e.LayoutTable(tab)
	require.NoError(t, err)
	require.Len(t, tl.CellBoxes, 3)

	// The merged cell covers its whole column.
	merged := tl.CellBoxes[0].Rect
	assert.Equal(t, coords.Rect{X: 0, Y: 0, W: 100, H: 100}, merged)
	assert.Equal(t, coords.Rect{X: 100, Y: 50, W: 100, H: 50}, tl.CellBoxes[2].Rect)
}

func TestLayoutTableSpanEscapesGrid(t *testing.T) {
	e := newTestEngine()
	tab := tableShape(2, 2, 200, 100,
		scene.Cell{Row: 1, Col: 1, RowSpan: 2, ColSpan: 1},
	)
	var le *LayoutError
	_, err := e.LayoutTable(tab)
	require.ErrorAs(t, err, &le)
	assert.Contains(t, le.Reason, "escapes")
}

func TestLayoutTableOverlappingSpans(t *testing.T) {
	e := newTestEngine()
	tab := tableShape(2, 2, 200, 100,
		scene.Cell{Row: 0, Col: 0, RowSpan: 1, ColSpan: 2},
		scene.Cell{Row: 0, Col: 1, RowSpan: 1, ColSpan: 1},
	)
	var le *LayoutError
	_, err := e.LayoutTable(tab)
	require.ErrorAs(t, err, &le)
	assert.Contains(t, le.Reason, "overlaps")
}

func TestLayoutTableCellText(t *testing.T) {
	e := newTestEngine()
	tab := tableShape(1, 1, 200, 100,
		scene.Cell{Row: 0, Col: 0, RowSpan: 1, ColSpan: 1, Paragraphs: []scene.Paragraph{para("hi", nil)}},
	)
	tl, err := e.LayoutTable(tab)
	require.NoError(t, err)
	require.NotNil(t, tl.CellBoxes[0].Text)
	assert.Equal(t, "hi", lineText(tl.CellBoxes[0].Text.Lines[0]))
}
