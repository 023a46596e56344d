// Package sanitize reduces arbitrary text to what the PDF core fonts can
// draw: Latin-1, no control characters other than newline, no tabs.
package sanitize

import (
	"strings"

	"github.com/rivo/uniseg"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/unicode/norm"
)

// typographic maps characters outside Latin-1 that have a readable ASCII
// stand-in. Everything else outside Latin-1 is dropped.
var typographic = strings.NewReplacer(
	"—", "-", // em dash
	"–", "-", // en dash
	"‒", "-",
	"‑", "-", // non-breaking hyphen
	"−", "-", // minus
	"‘", "'",
	"’", "'",
	"‚", "'",
	"“", `"`,
	"”", `"`,
	"„", `"`,
	"…", "...",
	"→", "->",
	"←", "<-",
	"↔", "<->",
	"↑", "^",
	"↓", "v",
	"•", "*", // bullet
	"\u00a0", " ",
	"\t", "    ",
	"\r\n", "\n",
	"\r", "",
)

// Text returns s restricted to Latin-1 with typographic punctuation mapped to
// ASCII. Text(Text(s)) == Text(s) for every s.
func Text(s string) string {
	if s == "" {
		return s
	}
	s = norm.NFC.String(s)
	s = typographic.Replace(s)

	var b strings.Builder
	b.Grow(len(s))
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		runes := g.Runes()
		// A cluster whose base is unsupported goes as a whole, so emoji
		// modifiers and variation selectors do not leave debris behind.
		if !drawable(runes[0]) {
			continue
		}
		for _, r := range runes {
			if drawable(r) {
				b.WriteRune(r)
			}
		}
	}
	return b.String()
}

// Line is Text followed by collapsing the result onto one line.
func Line(s string) string {
	return strings.Join(strings.Fields(Text(s)), " ")
}

func drawable(r rune) bool {
	if r == '\n' {
		return true
	}
	if r < 0x20 || (r >= 0x7F && r <= 0x9F) {
		return false
	}
	_, ok := charmap.ISO8859_1.EncodeRune(r)
	return ok
}
