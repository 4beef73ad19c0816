package layout

import (
	"github.com/slidekit/key2pdf/coords"
	"github.com/slidekit/key2pdf/ir/scene"
	"github.com/slidekit/key2pdf/styles"
)

// CellBox is one laid-out table cell: the merged grid rectangle in table
// local coordinates plus the flowed cell text.
type CellBox struct {
	Cell *scene.Cell
	Rect coords.Rect
	Text *TextLayout
}

// TableLayout is the placed form of a table shape.
type TableLayout struct {
	CellBoxes []CellBox
	ColEdges  []float64 // len Cols+1, x coordinates of grid lines
	RowEdges  []float64 // len Rows+1
}

// LayoutTable sizes the grid and places every cell. Declared column widths
// and row heights are used when a full set is present; otherwise the axis
// splits the table bounds evenly. Spans escaping the grid or overlapping
// another cell are layout errors.
func (e *Engine) LayoutTable(t *scene.Table, inherited ...styles.Style) (*TableLayout, error) {
	cols := axisEdges(t.ColWidths, t.Cols, t.Bounds.W)
	rows := axisEdges(t.RowHeights, t.Rows, t.Bounds.H)
	out := &TableLayout{ColEdges: cols, RowEdges: rows}

	// occupancy tracks which grid cells are claimed; a second claim is an
	// overlapping span.
	occupied := make([]bool, t.Rows*t.Cols)
	ord := 0

	for i := range t.Cells {
		cell := &t.Cells[i]
		if cell.Row < 0 || cell.Col < 0 ||
			cell.Row+cell.RowSpan > t.Rows || cell.Col+cell.ColSpan > t.Cols {
			return nil, layoutErrf(t.ID, "cell (%d,%d) span %dx%d escapes %dx%d grid",
				cell.Row, cell.Col, cell.RowSpan, cell.ColSpan, t.Rows, t.Cols)
		}
		for r := cell.Row; r < cell.Row+cell.RowSpan; r++ {
			for c := cell.Col; c < cell.Col+cell.ColSpan; c++ {
				if occupied[r*t.Cols+c] {
					return nil, layoutErrf(t.ID, "cell (%d,%d) overlaps an earlier span", cell.Row, cell.Col)
				}
				occupied[r*t.Cols+c] = true
			}
		}

		// The merged rectangle is the union of the spanned grid cells.
		rect := coords.Rect{
			X: cols[cell.Col],
			Y: rows[cell.Row],
			W: cols[cell.Col+cell.ColSpan] - cols[cell.Col],
			H: rows[cell.Row+cell.RowSpan] - rows[cell.Row],
		}

		levels := append(append([]styles.Style{}, inherited...), cell.Style)
		box := CellBox{Cell: cell, Rect: rect}
		if len(cell.Paragraphs) > 0 {
			box.Text = e.layoutText(t.ID, cell.Paragraphs, rect, &ord, levels...)
		}
		out.CellBoxes = append(out.CellBoxes, box)
	}
	return out, nil
}

// axisEdges turns per-track sizes into cumulative grid line positions.
// Declared sizes win only as a complete, positive set.
func axisEdges(declared []float64, tracks int, total float64) []float64 {
	sizes := make([]float64, tracks)
	usable := len(declared) == tracks
	if usable {
		for _, v := range declared {
			if v <= 0 {
				usable = false
				break
			}
		}
	}
	if usable {
		copy(sizes, declared)
	} else {
		for i := range sizes {
			sizes[i] = total / float64(tracks)
		}
	}
	edges := make([]float64, tracks+1)
	for i, s := range sizes {
		edges[i+1] = edges[i] + s
	}
	return edges
}
