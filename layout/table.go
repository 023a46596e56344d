package layout

import (
	"math"

	"github.com/andreago-sparkensolutions/sparken-branding/markdown"
	"github.com/andreago-sparkensolutions/sparken-branding/theme"
)

// Table is one run of consecutive table rows. Header is set when a separator
// row directly followed the first row in the source.
type Table struct {
	Rows   [][]string
	Header bool
}

// Columns is the widest row's cell count. Shorter rows are padded with
// empty cells when laid out; nothing is truncated.
func (t Table) Columns() int {
	n := 0
	for _, row := range t.Rows {
		if len(row) > n {
			n = len(row)
		}
	}
	return n
}

// GroupTable collects table rows, dropping separator rows.
func GroupTable(toks []markdown.Token) Table {
	var t Table
	for _, tok := range toks {
		row, ok := tok.(markdown.TableRow)
		if !ok {
			continue
		}
		if row.Separator || markdown.IsSeparator(row.Cells) {
			if len(t.Rows) == 1 {
				t.Header = true
			}
			continue
		}
		t.Rows = append(t.Rows, row.Cells)
	}
	return t
}

// ColumnWidths splits width among cols columns: 30/70 for a two column
// label/value table, equal shares otherwise.
func ColumnWidths(cols int, width float64) []float64 {
	if cols <= 0 {
		return nil
	}
	if cols == 2 {
		return []float64{width * 0.3, width * 0.7}
	}
	w := make([]float64, cols)
	for i := range w {
		w[i] = width / float64(cols)
	}
	return w
}

type tableMetrics struct {
	widths  []float64
	cells   [][][][]segment // row, column, wrapped lines
	heights []float64
	total   float64
}

// measureTable wraps every cell and sizes every row before anything is
// drawn, since a row's background must be as tall as its tallest cell.
func (e *Engine) measureTable(t Table) tableMetrics {
	lh := e.cfg.LineHeight()
	pad := e.cfg.CellPadding
	m := tableMetrics{widths: ColumnWidths(t.Columns(), e.cfg.ContentWidth())}

	for r, row := range t.Rows {
		font := Font{Size: e.cfg.BodySize, Bold: t.Header && r == 0}
		cells := make([][][]segment, len(m.widths))
		lines := 1
		for c, w := range m.widths {
			text := ""
			if c < len(row) {
				text = row[c]
			}
			cells[c] = e.wrap(markdown.Plain(text), font, math.Max(w-2*pad, 1))
			if len(cells[c]) > lines {
				lines = len(cells[c])
			}
		}
		h := math.Max(e.cfg.MinRowHeight, float64(lines)*lh+2*pad)
		m.cells = append(m.cells, cells)
		m.heights = append(m.heights, h)
		m.total += h
	}
	return m
}

// table places a whole table. If it does not fit in the space left, it
// starts on a new page; only a table taller than a full page is broken, and
// then only between rows.
func (e *Engine) table(t Table) {
	if len(t.Rows) == 0 {
		return
	}
	m := e.measureTable(t)
	e.ensure(m.total)
	for r := range t.Rows {
		e.ensure(m.heights[r])
		e.drawRow(t, m, r)
	}
	e.y -= e.cfg.TableSpacing
}

func (e *Engine) drawRow(t Table, m tableMetrics, r int) {
	p := e.cfg.Palette
	pad := e.cfg.CellPadding
	width := e.cfg.ContentWidth()
	header := t.Header && r == 0
	top := e.y
	h := m.heights[r]
	// a row taller than the content area is cut at the bottom margin
	clipped := top-h < e.cfg.Margin-epsilon
	if clipped {
		h = math.Max(top-e.cfg.Margin, 0)
		e.doc.Clipped++
	}
	bottom := top - h

	e.mark()
	switch {
	case header:
		e.emit(Rect{X: e.cfg.Margin, Y: bottom, W: width, H: h, Fill: p.Primary})
	case r%2 == 1:
		e.emit(Rect{X: e.cfg.Margin, Y: bottom, W: width, H: h, Fill: p.Band})
	}

	color := p.Text
	if header {
		color = theme.White
	}
	x := e.cfg.Margin
	for c, w := range m.widths {
		baseline := top - pad - e.cfg.BodySize
		for _, line := range m.cells[r][c] {
			if clipped && baseline < bottom {
				break
			}
			e.emitLine(line, x+pad, baseline, color)
			baseline -= e.cfg.LineHeight()
		}
		x += w
	}
	e.emit(Line{
		X1: e.cfg.Margin, Y1: bottom,
		X2: e.cfg.Margin + width, Y2: bottom,
		Width: 0.5, Color: p.Primary, Alpha: 0.3,
	})
	e.y = bottom
}
