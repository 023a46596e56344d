package markdown

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/mitchellh/go-wordwrap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/andreago-sparkensolutions/sparken-branding/sanitize"
)

// preWrap is the column at which preformatted lines are broken before layout.
const preWrap = 90

var spaceRe = regexp.MustCompile(`\s+`)

type listState struct {
	ordered bool
	next    int // number of the next ordered item
}

// listStart reads the start attribute of an ol, defaulting to 1.
func listStart(n *html.Node) int {
	for _, a := range n.Attr {
		if a.Key != "start" {
			continue
		}
		if v, err := strconv.Atoi(strings.TrimSpace(a.Val)); err == nil && v >= 0 {
			return v
		}
	}
	return 1
}

// walker flattens an HTML tree into tokens. It keeps a stack of open lists
// so nested items know their depth and kind.
type walker struct {
	tokens []Token
	lists  []listState
}

func headingLevel(a atom.Atom) int {
	switch a {
	case atom.H1:
		return 1
	case atom.H2:
		return 2
	case atom.H3:
		return 3
	case atom.H4:
		return 4
	case atom.H5:
		return 5
	case atom.H6:
		return 6
	}
	return 0
}

func isBlock(a atom.Atom) bool {
	switch a {
	case atom.P, atom.Ul, atom.Ol, atom.Li, atom.Table, atom.Pre, atom.Blockquote,
		atom.Div, atom.Section, atom.Article, atom.Hr, atom.Dl, atom.Dt, atom.Dd,
		atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
		return true
	}
	return false
}

// emit appends a token, preceded by a Blank unless it continues the block
// in progress (list items of one list, rows of one table).
func (w *walker) emit(tok Token) {
	if n := len(w.tokens); n > 0 {
		switch tok.(type) {
		case ListItem:
			if _, ok := w.tokens[n-1].(ListItem); ok {
				break
			}
			w.tokens = append(w.tokens, Blank{})
		case TableRow:
			if _, ok := w.tokens[n-1].(TableRow); ok {
				break
			}
			w.tokens = append(w.tokens, Blank{})
		default:
			w.tokens = append(w.tokens, Blank{})
		}
	}
	w.tokens = append(w.tokens, tok)
}

func (w *walker) block(n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.node(c)
	}
}

func (w *walker) node(n *html.Node) {
	switch n.Type {
	case html.TextNode:
		if strings.TrimSpace(n.Data) != "" {
			w.paragraph(n)
		}
		return
	case html.ElementNode:
	default:
		w.block(n)
		return
	}

	if level := headingLevel(n.DataAtom); level > 0 {
		runs := finishRuns(inlineRuns(n))
		w.emit(Heading{Level: level, Text: joinRuns(runs), Runs: runs})
		return
	}

	switch n.DataAtom {
	case atom.P, atom.Dt, atom.Dd:
		w.paragraph(n)
	case atom.Ul, atom.Ol:
		st := listState{ordered: n.DataAtom == atom.Ol}
		if st.ordered {
			st.next = listStart(n)
		}
		w.lists = append(w.lists, st)
		w.block(n)
		w.lists = w.lists[:len(w.lists)-1]
	case atom.Li:
		w.item(n)
	case atom.Table:
		w.table(n)
	case atom.Pre:
		w.pre(n)
	case atom.Hr, atom.Br, atom.Script, atom.Style, atom.Head, atom.Img:
	case atom.Blockquote, atom.Div, atom.Section, atom.Article, atom.Html, atom.Body, atom.Dl:
		w.block(n)
	default:
		w.paragraph(n)
	}
}

func (w *walker) paragraph(n *html.Node) {
	var runs []TextRun
	if n.Type == html.TextNode {
		runs = []TextRun{{Text: n.Data}}
	} else {
		runs = inlineRuns(n)
	}
	runs = finishRuns(runs)
	w.emit(Paragraph{Text: joinRuns(runs), Runs: runs})
}

func (w *walker) item(n *html.Node) {
	depth := len(w.lists) - 1
	ordered := false
	number := 0
	if depth >= 0 {
		st := &w.lists[depth]
		ordered = st.ordered
		if ordered {
			number = st.next
			st.next++
		}
	} else {
		depth = 0
	}

	var runs []TextRun
	var nested []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			switch {
			case c.DataAtom == atom.P:
				if len(runs) > 0 {
					runs = append(runs, TextRun{Text: " "})
				}
				collectInline(c, false, false, &runs)
				continue
			case isBlock(c.DataAtom):
				nested = append(nested, c)
				continue
			}
		}
		collectInline(c, false, false, &runs)
	}
	runs = finishRuns(runs)
	w.emit(ListItem{Text: joinRuns(runs), Runs: runs, Ordered: ordered, Depth: depth, Number: number})
	for _, c := range nested {
		w.node(c)
	}
}

// table emits one run of rows. The first row always gets a Blank in front so
// that adjacent tables stay separate groups.
func (w *walker) table(n *html.Node) {
	headerDone := false
	first := true
	var visit func(*html.Node, bool)
	visit = func(n *html.Node, inHead bool) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			switch c.DataAtom {
			case atom.Thead:
				visit(c, true)
			case atom.Tbody, atom.Tfoot:
				visit(c, false)
			case atom.Tr:
				cells, allTH := rowCells(c)
				if first && len(w.tokens) > 0 {
					w.tokens = append(w.tokens, Blank{}, TableRow{Cells: cells})
				} else {
					w.emit(TableRow{Cells: cells})
				}
				first = false
				if !headerDone && (inHead || allTH) {
					w.emit(TableRow{Separator: true})
				}
				headerDone = true
			}
		}
	}
	visit(n, false)
}

func rowCells(tr *html.Node) (cells []string, allTH bool) {
	allTH = true
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || (c.DataAtom != atom.Th && c.DataAtom != atom.Td) {
			continue
		}
		if c.DataAtom != atom.Th {
			allTH = false
		}
		cells = append(cells, joinRuns(finishRuns(inlineRuns(c))))
	}
	return cells, allTH && len(cells) > 0
}

func (w *walker) pre(n *html.Node) {
	text := html.UnescapeString(textContent(n))
	first := true
	for _, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		line = sanitize.Text(strings.TrimRight(line, " \t"))
		if strings.TrimSpace(line) == "" {
			continue
		}
		for _, part := range strings.Split(wordwrap.WrapString(line, preWrap), "\n") {
			tok := Paragraph{Text: part, Runs: Plain(part)}
			if first {
				w.emit(tok)
				first = false
				continue
			}
			// code lines stay together without blanks
			w.tokens = append(w.tokens, tok)
		}
	}
}

func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(textContent(c))
	}
	return b.String()
}

func inlineRuns(n *html.Node) []TextRun {
	var runs []TextRun
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectInline(c, false, false, &runs)
	}
	return runs
}

func collectInline(n *html.Node, bold, italic bool, runs *[]TextRun) {
	switch n.Type {
	case html.TextNode:
		*runs = append(*runs, TextRun{Text: n.Data, Bold: bold, Italic: italic})
		return
	case html.ElementNode:
	default:
		return
	}
	switch n.DataAtom {
	case atom.Strong, atom.B:
		bold = true
	case atom.Em, atom.I:
		italic = true
	case atom.Br:
		*runs = append(*runs, TextRun{Text: " ", Bold: bold, Italic: italic})
		return
	case atom.Input:
		// GFM task list checkbox
		mark := "[ ] "
		for _, a := range n.Attr {
			if a.Key == "checked" {
				mark = "[x] "
			}
		}
		*runs = append(*runs, TextRun{Text: mark, Bold: bold, Italic: italic})
		return
	case atom.Img:
		for _, a := range n.Attr {
			if a.Key == "alt" && a.Val != "" {
				*runs = append(*runs, TextRun{Text: a.Val, Bold: bold, Italic: italic})
			}
		}
		return
	case atom.Script, atom.Style, atom.Ul, atom.Ol:
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectInline(c, bold, italic, runs)
	}
}

// finishRuns decodes leftover entities, strips surviving markdown syntax,
// sanitizes, collapses whitespace and merges neighbours with equal style.
func finishRuns(in []TextRun) []TextRun {
	var out []TextRun
	for _, r := range in {
		t := html.UnescapeString(r.Text)
		t = StripSyntax(t)
		t = sanitize.Text(t)
		t = spaceRe.ReplaceAllString(t, " ")
		if t == "" {
			continue
		}
		if n := len(out); n > 0 && out[n-1].Bold == r.Bold && out[n-1].Italic == r.Italic {
			out[n-1].Text += t
			continue
		}
		out = append(out, TextRun{Text: t, Bold: r.Bold, Italic: r.Italic})
	}
	// collapse spaces across run boundaries, then trim the ends
	for i := 1; i < len(out); i++ {
		if strings.HasSuffix(out[i-1].Text, " ") && strings.HasPrefix(out[i].Text, " ") {
			out[i].Text = strings.TrimPrefix(out[i].Text, " ")
		}
	}
	if len(out) > 0 {
		out[0].Text = strings.TrimLeft(out[0].Text, " ")
		out[len(out)-1].Text = strings.TrimRight(out[len(out)-1].Text, " ")
	}
	kept := out[:0]
	for _, r := range out {
		if r.Text != "" {
			kept = append(kept, r)
		}
	}
	return kept
}
