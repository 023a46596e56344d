package markdown

import "strings"

// Token is one normalized unit of content. The concrete types are Heading,
// Paragraph, ListItem, TableRow and Blank; no other package implements it.
type Token interface {
	token()
}

// TextRun is a span drawn with a single font.
type TextRun struct {
	Text   string
	Bold   bool
	Italic bool
}

// Heading is an h1..h6 block.
type Heading struct {
	Level int
	Text  string
	Runs  []TextRun
}

// Paragraph is a block of running text.
type Paragraph struct {
	Text string
	Runs []TextRun
}

// ListItem is one bullet or numbered entry. Depth is 0 for top-level items.
// Number is the explicit number of an ordered item; 0 lets the layout count.
type ListItem struct {
	Text    string
	Runs    []TextRun
	Ordered bool
	Depth   int
	Number  int
}

// TableRow is one row of a pipe table. A Separator row carries no content;
// it marks the row before it as the header.
type TableRow struct {
	Cells     []string
	Separator bool
}

// Blank is vertical breathing room between blocks.
type Blank struct{}

func (Heading) token()   {}
func (Paragraph) token() {}
func (ListItem) token()  {}
func (TableRow) token()  {}
func (Blank) token()     {}

// Plain wraps text in a single regular run.
func Plain(text string) []TextRun {
	if text == "" {
		return nil
	}
	return []TextRun{{Text: text}}
}

// RunsOf returns the runs of a text-bearing token, synthesizing a plain run
// when only Text was set.
func RunsOf(tok Token) []TextRun {
	switch t := tok.(type) {
	case Heading:
		return runsOr(t.Runs, t.Text)
	case Paragraph:
		return runsOr(t.Runs, t.Text)
	case ListItem:
		return runsOr(t.Runs, t.Text)
	}
	return nil
}

func runsOr(runs []TextRun, text string) []TextRun {
	if len(runs) > 0 {
		return runs
	}
	return Plain(text)
}

func joinRuns(runs []TextRun) string {
	var b strings.Builder
	for _, r := range runs {
		b.WriteString(r.Text)
	}
	return b.String()
}
