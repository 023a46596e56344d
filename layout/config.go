package layout

import (
	"regexp"

	"github.com/andreago-sparkensolutions/sparken-branding/theme"
)

// BreakRule forces a page break before any heading whose text matches.
type BreakRule struct {
	Name    string
	Pattern *regexp.Regexp
}

func (r BreakRule) Match(text string) bool {
	return r.Pattern != nil && r.Pattern.MatchString(text)
}

// AppendixRule starts every appendix on its own page.
var AppendixRule = BreakRule{Name: "appendix", Pattern: regexp.MustCompile(`(?i)appendix`)}

// Config is the fixed geometry and styling of one layout pass. All lengths
// are PDF points. Engines copy it on construction.
type Config struct {
	PageWidth     float64
	PageHeight    float64
	Margin        float64
	HeaderReserve float64 // kept free above the content area for the header bar

	FontFamily   string
	BodySize     float64
	LineFactor   float64
	HeadingSizes []float64 // H1, H2, H3, then H4 and deeper
	HeadingLead  float64   // line advance factor for headings
	ListIndent   float64

	CellPadding  float64
	MinRowHeight float64
	TableSpacing float64

	Palette    theme.Palette
	BreakRules []BreakRule
}

// DefaultConfig is US Letter with one inch margins.
func DefaultConfig() Config {
	return Config{
		PageWidth:     612,
		PageHeight:    792,
		Margin:        72,
		HeaderReserve: 80,
		FontFamily:    "Helvetica",
		BodySize:      11,
		LineFactor:    1.6,
		HeadingSizes:  []float64{20, 16, 14, 12},
		HeadingLead:   1.3,
		ListIndent:    20,
		CellPadding:   10,
		MinRowHeight:  30,
		TableSpacing:  20,
		Palette:       theme.Sparken(),
		BreakRules:    []BreakRule{AppendixRule},
	}
}

// LineHeight is the advance of one body line.
func (c Config) LineHeight() float64 {
	return c.BodySize * c.LineFactor
}

// ContentWidth is the usable line length.
func (c Config) ContentWidth() float64 {
	return c.PageWidth - 2*c.Margin
}

// Top is the cursor value of a fresh page.
func (c Config) Top() float64 {
	return c.PageHeight - c.Margin - c.HeaderReserve
}

func (c Config) HeadingSize(level int) float64 {
	if len(c.HeadingSizes) == 0 {
		return c.BodySize
	}
	i := level - 1
	if i < 0 {
		i = 0
	}
	if i >= len(c.HeadingSizes) {
		i = len(c.HeadingSizes) - 1
	}
	return c.HeadingSizes[i]
}

func (c Config) clone() Config {
	c.HeadingSizes = append([]float64(nil), c.HeadingSizes...)
	c.BreakRules = append([]BreakRule(nil), c.BreakRules...)
	return c
}
