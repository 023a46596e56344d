// Package markdown turns a restricted markdown subset into a flat stream of
// typed tokens for the layout engine.
//
// The pipeline is: artifact cleanup, markdown to HTML through a Converter,
// an HTML walk that emits tokens, a syntax strip for anything the converter
// missed, and sanitizing. Normalizing never fails; input the pipeline cannot
// handle degrades to plain paragraphs.
package markdown

import (
	"bytes"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/andreago-sparkensolutions/sparken-branding/sanitize"
)

// Normalizer is safe for concurrent use when its Converter is.
type Normalizer struct {
	conv Converter
	log  *zap.Logger
}

type Option func(*Normalizer)

func WithConverter(c Converter) Option {
	return func(n *Normalizer) {
		if c != nil {
			n.conv = c
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(n *Normalizer) {
		if l != nil {
			n.log = l
		}
	}
}

func New(opts ...Option) *Normalizer {
	n := &Normalizer{conv: NewGomarkdownConverter(), log: zap.NewNop()}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize runs the default pipeline.
func Normalize(src string) []Token {
	return New().Normalize(src)
}

func (n *Normalizer) Normalize(src string) (tokens []Token) {
	cleaned := Clean(src)
	defer func() {
		if r := recover(); r != nil {
			n.log.Warn("markdown walk failed, using plain text", zap.Any("panic", r))
			tokens = Fallback(cleaned)
		}
	}()

	out, err := n.conv.ToHTML([]byte(cleaned))
	if err != nil {
		n.log.Warn("markdown conversion failed, using plain text", zap.Error(err))
		return Fallback(cleaned)
	}
	doc, err := html.Parse(bytes.NewReader(out))
	if err != nil {
		n.log.Warn("html parse failed, using plain text", zap.Error(err))
		return Fallback(cleaned)
	}
	w := &walker{}
	w.node(doc)
	return tidy(w.tokens)
}

// Fallback produces tokens straight from source lines: pipe rows become
// table rows, everything else a paragraph with tags and syntax removed.
func Fallback(src string) []Token {
	var toks []Token
	for _, line := range strings.Split(Clean(src), "\n") {
		if strings.TrimSpace(line) == "" {
			toks = append(toks, Blank{})
			continue
		}
		if cells, ok := SplitPipeRow(line); ok {
			if IsSeparator(cells) {
				toks = append(toks, TableRow{Separator: true})
				continue
			}
			for i, c := range cells {
				cells[i] = sanitize.Line(StripSyntax(html.UnescapeString(c)))
			}
			toks = append(toks, TableRow{Cells: cells})
			continue
		}
		text := tagRe.ReplaceAllString(line, "")
		text = atxRe.ReplaceAllString(strings.TrimSpace(text), "")
		text = listRe.ReplaceAllString(text, "")
		text = sanitize.Line(StripSyntax(html.UnescapeString(text)))
		if text != "" {
			toks = append(toks, Paragraph{Text: text, Runs: Plain(text)})
		}
	}
	return tidy(toks)
}

// tidy drops empty tokens and keeps Blanks only between content, one at a
// time.
func tidy(in []Token) []Token {
	out := make([]Token, 0, len(in))
	for _, tok := range in {
		switch t := tok.(type) {
		case Blank:
			if len(out) == 0 {
				continue
			}
			if _, ok := out[len(out)-1].(Blank); ok {
				continue
			}
		case Heading:
			if t.Text == "" {
				continue
			}
			if t.Level < 1 {
				t.Level = 1
			} else if t.Level > 6 {
				t.Level = 6
			}
			tok = t
		case Paragraph:
			if t.Text == "" {
				continue
			}
		case ListItem:
			if t.Text == "" {
				continue
			}
		case TableRow:
			if !t.Separator && emptyCells(t.Cells) {
				continue
			}
		}
		out = append(out, tok)
	}
	if n := len(out); n > 0 {
		if _, ok := out[n-1].(Blank); ok {
			out = out[:n-1]
		}
	}
	return out
}

func emptyCells(cells []string) bool {
	for _, c := range cells {
		if c != "" {
			return false
		}
	}
	return true
}

// String renders a token for logs and test failures.
func String(tok Token) string {
	switch t := tok.(type) {
	case Heading:
		return fmt.Sprintf("H%d(%q)", t.Level, t.Text)
	case Paragraph:
		return fmt.Sprintf("P(%q)", t.Text)
	case ListItem:
		kind := "UL"
		if t.Ordered {
			kind = "OL"
		}
		return fmt.Sprintf("%s%d(%q)", kind, t.Depth, t.Text)
	case TableRow:
		if t.Separator {
			return "TR(---)"
		}
		return fmt.Sprintf("TR(%q)", t.Cells)
	case Blank:
		return "BLANK"
	}
	return fmt.Sprintf("%T", tok)
}
