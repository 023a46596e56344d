package layout

import "github.com/andreago-sparkensolutions/sparken-branding/theme"

// Command is one positioned drawing operation. Coordinates are PDF user
// space: origin bottom-left, y growing upward.
type Command interface {
	command()
}

// Font selects a face and size of the configured family.
type Font struct {
	Size   float64
	Bold   bool
	Italic bool
}

// Style returns the fpdf style string.
func (f Font) Style() string {
	s := ""
	if f.Bold {
		s += "B"
	}
	if f.Italic {
		s += "I"
	}
	return s
}

// Text draws a run with its baseline at Y.
type Text struct {
	X, Y  float64
	Text  string
	Font  Font
	Color theme.Color
}

// Rect fills the box whose lower-left corner is (X, Y).
type Rect struct {
	X, Y, W, H float64
	Fill       theme.Color
}

// Line strokes a segment. Alpha 0 means opaque.
type Line struct {
	X1, Y1, X2, Y2 float64
	Width          float64
	Color          theme.Color
	Alpha          float64
}

func (Text) command() {}
func (Rect) command() {}
func (Line) command() {}

// Page is one fixed-size page of draw commands. Trace records the cursor at
// every emitted block, in order.
type Page struct {
	Number   int
	Width    float64
	Height   float64
	Commands []Command
	Trace    []float64
}

// Empty reports whether nothing has been drawn on the page yet.
func (p *Page) Empty() bool {
	return len(p.Commands) == 0
}

// Texts returns the text commands of the page in drawing order.
func (p *Page) Texts() []Text {
	var out []Text
	for _, c := range p.Commands {
		if t, ok := c.(Text); ok {
			out = append(out, t)
		}
	}
	return out
}

// Document is the append-only result of a layout pass.
type Document struct {
	Pages []*Page
	// Clipped counts table rows taller than a page whose text was cut at
	// the bottom margin.
	Clipped int
}

func (d *Document) PageCount() int {
	return len(d.Pages)
}
