package layout

import (
	"codeberg.org/go-pdf/fpdf"
)

// Measurer reports the advance width of a string in points.
type Measurer interface {
	Width(s string, f Font) float64
}

// CoreFontMeasurer measures with the metrics of the standard PDF fonts,
// the same ones the renderer draws with. It is not safe for concurrent use.
type CoreFontMeasurer struct {
	pdf    *fpdf.Fpdf
	tr     func(string) string
	family string
}

// NewCoreFontMeasurer returns a measurer for one of the core families
// (Helvetica, Times, Courier). Text is translated to cp1252 first, as it is
// at draw time.
func NewCoreFontMeasurer(family string) *CoreFontMeasurer {
	if family == "" {
		family = "Helvetica"
	}
	pdf := fpdf.NewCustom(&fpdf.InitType{UnitStr: "pt", Size: fpdf.SizeType{Wd: 612, Ht: 792}})
	return &CoreFontMeasurer{
		pdf:    pdf,
		tr:     pdf.UnicodeTranslatorFromDescriptor(""),
		family: family,
	}
}

func (m *CoreFontMeasurer) Width(s string, f Font) float64 {
	m.pdf.SetFont(m.family, f.Style(), f.Size)
	return m.pdf.GetStringWidth(m.tr(s))
}
