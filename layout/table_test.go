package layout

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/andreago-sparkensolutions/sparken-branding/markdown"
)

func tableTokens(header bool, rows ...[]string) []markdown.Token {
	var toks []markdown.Token
	for i, r := range rows {
		toks = append(toks, markdown.TableRow{Cells: r})
		if i == 0 && header {
			toks = append(toks, markdown.TableRow{Separator: true})
		}
	}
	return toks
}

func rectsOn(p *Page) []Rect {
	var out []Rect
	for _, c := range p.Commands {
		if r, ok := c.(Rect); ok {
			out = append(out, r)
		}
	}
	return out
}

func TestGroupTable(t *testing.T) {
	cases := []struct {
		name   string
		toks   []markdown.Token
		rows   int
		header bool
	}{
		{name: "header", toks: tableTokens(true, []string{"a"}, []string{"1"}), rows: 2, header: true},
		{name: "no separator", toks: tableTokens(false, []string{"a"}, []string{"1"}), rows: 2},
		{
			name: "literal separator cells",
			toks: []markdown.Token{
				markdown.TableRow{Cells: []string{"a", "b"}},
				markdown.TableRow{Cells: []string{"---", ":-:"}},
				markdown.TableRow{Cells: []string{"1", "2"}},
			},
			rows: 2, header: true,
		},
		{
			name: "late separator",
			toks: []markdown.Token{
				markdown.TableRow{Cells: []string{"a"}},
				markdown.TableRow{Cells: []string{"b"}},
				markdown.TableRow{Separator: true},
			},
			rows: 2,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := GroupTable(tc.toks)
			if len(got.Rows) != tc.rows || got.Header != tc.header {
				t.Fatalf("GroupTable = %d rows header=%v, want %d rows header=%v", len(got.Rows), got.Header, tc.rows, tc.header)
			}
		})
	}
}

func TestColumnWidths(t *testing.T) {
	w := ColumnWidths(2, 468)
	if math.Abs(w[0]-140.4) > 1e-9 || math.Abs(w[1]-327.6) > 1e-9 {
		t.Fatalf("two columns = %v", w)
	}
	w = ColumnWidths(3, 468)
	for _, c := range w {
		if c != 156 {
			t.Fatalf("three columns = %v", w)
		}
	}
	if ColumnWidths(0, 468) != nil {
		t.Fatal("zero columns should have no widths")
	}
}

func TestMeasureTableRowHeights(t *testing.T) {
	e := newTestEngine()
	cfg := e.Config()
	long := strings.Repeat("word ", 40)
	m := e.measureTable(Table{Rows: [][]string{{"k", "short"}, {"k", long}}, Header: true})
	if m.heights[0] != math.Max(cfg.MinRowHeight, cfg.LineHeight()+2*cfg.CellPadding) {
		t.Fatalf("single line row height = %v", m.heights[0])
	}
	n := len(m.cells[1][1])
	if n < 2 {
		t.Fatalf("long cell wrapped to %d lines", n)
	}
	if want := float64(n)*cfg.LineHeight() + 2*cfg.CellPadding; m.heights[1] != want {
		t.Fatalf("row height = %v, want %v", m.heights[1], want)
	}
	if m.total != m.heights[0]+m.heights[1] {
		t.Fatalf("total = %v", m.total)
	}
}

func TestRaggedRowsPadded(t *testing.T) {
	toks := tableTokens(true, []string{"a", "b", "c"}, []string{"1"}, []string{"x", "y", "z", "extra"})
	doc := newTestEngine().Layout(toks)
	texts := doc.Pages[0].Texts()
	seen := map[string]bool{}
	for _, txt := range texts {
		seen[txt.Text] = true
	}
	for _, want := range []string{"a", "b", "c", "1", "x", "y", "z", "extra"} {
		if !seen[want] {
			t.Fatalf("cell %q was dropped", want)
		}
	}
	_, extra, _ := findText(doc, "extra")
	_, c, _ := findText(doc, "c")
	if extra.X <= c.X {
		t.Fatal("fourth column not laid out to the right of the third")
	}
}

func TestTableAtomicity(t *testing.T) {
	cfg := DefaultConfig()
	rows := [][]string{{"Name", "Value"}}
	for i := 0; i < 6; i++ {
		rows = append(rows, []string{fmt.Sprintf("row %d", i), "v"})
	}
	table := tableTokens(true, rows...)
	total := newTestEngine().measureTable(GroupTable(table)).total

	for k := 0; k <= 30; k++ {
		remaining := cfg.Top() - float64(k)*cfg.LineHeight() - cfg.Margin
		if math.Abs(remaining-total) < 1e-3 {
			continue
		}
		toks := append(lines(k), table...)
		doc := newTestEngine().Layout(toks)

		namePage, _, _ := findText(doc, "Name")
		lastPage, _, _ := findText(doc, "row 5")
		if namePage != lastPage {
			t.Fatalf("k=%d: table split across pages %d and %d", k, namePage+1, lastPage+1)
		}
		wantMoved := k > 0 && remaining < total
		if moved := namePage > 0; moved != wantMoved {
			t.Fatalf("k=%d remaining=%.1f total=%.1f: table on page %d", k, remaining, total, namePage+1)
		}
		if wantMoved && len(rectsOn(doc.Pages[0])) != 0 {
			t.Fatalf("k=%d: table rows drawn on the page it left", k)
		}
	}
}

func TestOversizedTableBreaksBetweenRows(t *testing.T) {
	cfg := DefaultConfig()
	rows := [][]string{{"H1", "H2"}}
	for i := 0; i < 40; i++ {
		rows = append(rows, []string{fmt.Sprintf("r%d", i), "v"})
	}
	doc := newTestEngine().Layout(append([]markdown.Token{para("lead")}, tableTokens(true, rows...)...))
	if doc.PageCount() < 3 {
		t.Fatalf("pages = %d", doc.PageCount())
	}
	if len(rectsOn(doc.Pages[0])) != 0 {
		t.Fatal("oversized table should still leave the partly used page")
	}
	for _, p := range doc.Pages {
		for _, r := range rectsOn(p) {
			if r.Y < cfg.Margin-epsilon || r.Y+r.H > cfg.Top()+epsilon {
				t.Fatalf("page %d row box %+v crosses the content area", p.Number, r)
			}
		}
	}
	for i := 0; i < 40; i++ {
		if _, _, ok := findText(doc, fmt.Sprintf("r%d", i)); !ok {
			t.Fatalf("row r%d missing", i)
		}
	}
}

func TestBanding(t *testing.T) {
	rows := [][]string{{"h"}, {"1"}, {"2"}, {"3"}, {"4"}}
	doc := newTestEngine().Layout(tableTokens(true, rows...))
	p := DefaultConfig().Palette
	var fills []string
	for _, r := range rectsOn(doc.Pages[0]) {
		fills = append(fills, r.Fill.String())
	}
	want := []string{p.Primary.String(), p.Band.String(), p.Band.String()}
	if fmt.Sprint(fills) != fmt.Sprint(want) {
		t.Fatalf("fills = %v, want %v", fills, want)
	}
}

func TestAdjacentTablesKeepTheirHeaders(t *testing.T) {
	toks := markdown.Normalize("| A | B |\n|---|---|\n| 1 | 2 |\n\n| C | D |\n|---|---|\n| 3 | 4 |\n")
	doc := newTestEngine().Layout(toks)
	p := DefaultConfig().Palette
	headers := 0
	for _, r := range rectsOn(doc.Pages[0]) {
		if r.Fill == p.Primary {
			headers++
		}
	}
	if headers != 2 {
		t.Fatalf("header fills = %d, want 2", headers)
	}
	_, c, ok := findText(doc, "C")
	if !ok || !c.Font.Bold {
		t.Fatalf("second header cell = %+v, want bold", c)
	}
}

func TestRowTallerThanPageIsClipped(t *testing.T) {
	cfg := DefaultConfig()
	huge := strings.TrimSpace(strings.Repeat("word ", 3000))
	toks := tableTokens(true, []string{"Key", "Notes"}, []string{"k", huge}, []string{"after", "v"})
	doc := newTestEngine().Layout(toks)
	if doc.Clipped != 1 {
		t.Fatalf("clipped = %d, want 1", doc.Clipped)
	}
	for _, p := range doc.Pages {
		for _, txt := range p.Texts() {
			if txt.Y < cfg.Margin-epsilon {
				t.Fatalf("page %d text %q at y=%.1f is below the margin", p.Number, txt.Text, txt.Y)
			}
		}
		for _, r := range rectsOn(p) {
			if r.Y < cfg.Margin-epsilon {
				t.Fatalf("page %d row box %+v crosses the margin", p.Number, r)
			}
		}
	}
	if _, _, ok := findText(doc, "after"); !ok {
		t.Fatal("row after the clipped one is missing")
	}
}
