// Package layout places normalized markdown tokens on fixed-size pages.
//
// The engine keeps one cursor per page, measured from the bottom-left corner
// and moving down as content is added. Every block asks for the vertical
// space it needs through a single primitive; when the cursor would drop
// below margin plus that space, a new page is appended and the cursor reset.
// Headings ask for room for themselves and five following lines, running
// text asks for two lines before each line it draws, and tables ask for
// their full height so they move to the next page as a unit.
package layout

import (
	"strconv"

	"github.com/andreago-sparkensolutions/sparken-branding/markdown"
	"github.com/andreago-sparkensolutions/sparken-branding/theme"
)

const epsilon = 1e-6

// Engine lays out one document at a time. It is not safe for concurrent
// use; create one per conversion.
type Engine struct {
	cfg Config
	m   Measurer

	doc      *Document
	page     *Page
	y        float64
	counters []int
}

// NewEngine returns an engine for cfg. A nil Measurer selects the core font
// metrics of cfg.FontFamily.
func NewEngine(cfg Config, m Measurer) *Engine {
	if m == nil {
		m = NewCoreFontMeasurer(cfg.FontFamily)
	}
	return &Engine{cfg: cfg.clone(), m: m}
}

func (e *Engine) Config() Config {
	return e.cfg.clone()
}

// Layout consumes tokens left to right and returns the pages. The result
// always has at least one page.
func (e *Engine) Layout(tokens []markdown.Token) *Document {
	e.doc = &Document{}
	e.counters = nil
	e.newPage()

	for i := 0; i < len(tokens); i++ {
		switch t := tokens[i].(type) {
		case markdown.Heading:
			e.counters = nil
			e.heading(t)
		case markdown.Paragraph:
			e.counters = nil
			e.paragraph(markdown.RunsOf(t))
		case markdown.ListItem:
			e.listItem(t)
		case markdown.TableRow:
			j := i
			for j < len(tokens) {
				if _, ok := tokens[j].(markdown.TableRow); !ok {
					break
				}
				j++
			}
			e.counters = nil
			e.table(GroupTable(tokens[i:j]))
			i = j - 1
		case markdown.Blank:
			e.y -= e.cfg.LineHeight() / 2
		}
	}
	return e.doc
}

func (e *Engine) newPage() {
	e.page = &Page{
		Number: len(e.doc.Pages) + 1,
		Width:  e.cfg.PageWidth,
		Height: e.cfg.PageHeight,
	}
	e.doc.Pages = append(e.doc.Pages, e.page)
	e.y = e.cfg.Top()
}

// ensure is the only page break primitive. A page with nothing on it is
// never abandoned.
func (e *Engine) ensure(required float64) {
	if e.y+epsilon >= e.cfg.Margin+required || e.page.Empty() {
		return
	}
	e.newPage()
}

func (e *Engine) mark() {
	e.page.Trace = append(e.page.Trace, e.y)
}

func (e *Engine) emit(c Command) {
	e.page.Commands = append(e.page.Commands, c)
}

func (e *Engine) heading(h markdown.Heading) {
	size := e.cfg.HeadingSize(h.Level)
	lh := e.cfg.LineHeight()

	for _, rule := range e.cfg.BreakRules {
		if rule.Match(h.Text) {
			if !e.page.Empty() {
				e.newPage()
			}
			break
		}
	}
	// keep with next: the heading plus five lines of what follows
	e.ensure(size*2 + lh*5)

	lines := e.wrap(markdown.RunsOf(h), Font{Size: size, Bold: true}, e.cfg.ContentWidth())
	e.y -= lh
	for _, line := range lines {
		e.mark()
		e.emitLine(line, e.cfg.Margin, e.y, e.cfg.Palette.Primary)
		e.y -= size * e.cfg.HeadingLead
	}
}

func (e *Engine) paragraph(runs []markdown.TextRun) {
	e.flow(runs, e.cfg.Margin, e.cfg.ContentWidth(), nil)
}

func (e *Engine) listItem(li markdown.ListItem) {
	depth := li.Depth
	if depth < 0 {
		depth = 0
	}
	label := "•"
	if li.Ordered {
		n := e.nextNumber(depth)
		if li.Number > 0 {
			n = li.Number
			e.counters[depth] = n
		}
		label = strconv.Itoa(n) + "."
	} else {
		e.resetNumber(depth)
	}
	x := e.cfg.Margin + float64(depth)*e.cfg.ListIndent
	textX := x + e.cfg.ListIndent
	width := e.cfg.ContentWidth() - (textX - e.cfg.Margin)

	e.flow(markdown.RunsOf(li), textX, width, &Text{
		X:     x,
		Text:  label,
		Font:  Font{Size: e.cfg.BodySize},
		Color: e.cfg.Palette.Text,
	})
}

// flow draws wrapped body text. The widow guard runs before every line so a
// paragraph never leaves a single line stranded at the foot of a page.
func (e *Engine) flow(runs []markdown.TextRun, x, width float64, label *Text) {
	lh := e.cfg.LineHeight()
	lines := e.wrap(runs, Font{Size: e.cfg.BodySize}, width)
	for i, line := range lines {
		e.ensure(2 * lh)
		e.mark()
		if i == 0 && label != nil {
			l := *label
			l.Y = e.y
			e.emit(l)
		}
		e.emitLine(line, x, e.y, e.cfg.Palette.Text)
		e.y -= lh
	}
}

func (e *Engine) emitLine(line []segment, x, y float64, color theme.Color) {
	for _, seg := range line {
		x += seg.gap
		e.emit(Text{X: x, Y: y, Text: seg.text, Font: seg.font, Color: color})
		x += seg.width
	}
}

// nextNumber counts consecutive ordered items per depth. Returning to a
// shallower depth forgets the deeper counters.
func (e *Engine) nextNumber(depth int) int {
	for len(e.counters) <= depth {
		e.counters = append(e.counters, 0)
	}
	e.counters = e.counters[:depth+1]
	e.counters[depth]++
	return e.counters[depth]
}

func (e *Engine) resetNumber(depth int) {
	for len(e.counters) <= depth {
		e.counters = append(e.counters, 0)
	}
	e.counters = e.counters[:depth+1]
	e.counters[depth] = 0
}
