package layout

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/andreago-sparkensolutions/sparken-branding/markdown"
)

// segment is a piece of one wrapped line drawn with a single font. gap is the
// space to leave before it.
type segment struct {
	text  string
	font  Font
	width float64
	gap   float64
}

type word struct {
	text  string
	font  Font
	glued bool // no space between this word and the previous one
}

func splitWords(runs []markdown.TextRun, base Font) []word {
	var words []word
	prevOpen := false // previous run ended inside a word
	for _, r := range runs {
		f := base
		f.Bold = f.Bold || r.Bold
		f.Italic = f.Italic || r.Italic
		fields := strings.Fields(r.Text)
		if len(fields) == 0 {
			if r.Text != "" {
				prevOpen = false
			}
			continue
		}
		first, _ := utf8.DecodeRuneInString(r.Text)
		for i, fld := range fields {
			glued := i == 0 && prevOpen && !unicode.IsSpace(first)
			words = append(words, word{text: fld, font: f, glued: glued})
		}
		last, _ := utf8.DecodeLastRuneInString(r.Text)
		prevOpen = !unicode.IsSpace(last)
	}
	return words
}

// wrap breaks runs into lines no wider than width. Words wider than a whole
// line are split between characters.
func (e *Engine) wrap(runs []markdown.TextRun, base Font, width float64) [][]segment {
	var lines [][]segment
	var cur []segment
	curW := 0.0

	place := func(w word, ww float64, glued bool) {
		gap := 0.0
		if len(cur) > 0 && !glued {
			gap = e.m.Width(" ", cur[len(cur)-1].font)
		}
		if len(cur) > 0 && curW+gap+ww > width+epsilon {
			lines = append(lines, cur)
			cur, curW, gap = nil, 0, 0
		}
		if n := len(cur); n > 0 && cur[n-1].font == w.font {
			if gap > 0 {
				cur[n-1].text += " "
			}
			cur[n-1].text += w.text
			cur[n-1].width += gap + ww
		} else {
			cur = append(cur, segment{text: w.text, font: w.font, width: ww, gap: gap})
		}
		curW += gap + ww
	}

	for _, w := range splitWords(runs, base) {
		ww := e.m.Width(w.text, w.font)
		if ww <= width+epsilon {
			place(w, ww, w.glued)
			continue
		}
		for i, part := range e.breakWord(w, width) {
			place(part, e.m.Width(part.text, part.font), w.glued || i > 0)
		}
	}
	if len(cur) > 0 {
		lines = append(lines, cur)
	}
	return lines
}

func (e *Engine) breakWord(w word, width float64) []word {
	var parts []word
	var b strings.Builder
	for _, r := range w.text {
		if b.Len() > 0 && e.m.Width(b.String()+string(r), w.font) > width+epsilon {
			parts = append(parts, word{text: b.String(), font: w.font})
			b.Reset()
		}
		b.WriteRune(r)
	}
	if b.Len() > 0 {
		parts = append(parts, word{text: b.String(), font: w.font})
	}
	return parts
}
