// Package brand stamps the Sparken identity onto finished documents: a
// header bar with the horizontal logo, a tiled low-opacity watermark, a
// footer with page numbers, and an optional full-bleed cover page.
//
// Generated documents and existing PDFs are branded by the same code; both
// are a Source that knows how to paint its pages into the output document.
package brand

import (
	"strings"

	"github.com/andreago-sparkensolutions/sparken-branding/theme"
)

// Geometry is the fixed placement of every branding element, in points
// from the bottom-left corner of the page.
type Geometry struct {
	HeaderHeight float64
	HeaderLogoX  float64
	HeaderLogoY  float64 // measured down from the top edge
	HeaderLogoW  float64
	HeaderLogoH  float64

	WatermarkSize    float64
	WatermarkSpacing float64
	WatermarkOpacity float64

	FooterInset     float64
	FooterRuleY     float64
	FooterRuleWidth float64
	FooterRuleAlpha float64
	FooterTextY     float64
	PageNumberSize  float64
	BrandNameSize   float64

	CoverLogoW      float64
	CoverLogoH      float64
	CoverLogoDrop   float64 // logo bottom edge below the top of the page
	CoverTitleSize  float64
	CoverTitleMin   float64
	CoverTitleStep  float64
	CoverTitleInset float64
	CoverTitleLead  float64
	SubtitleSize    float64
	TaglineSize     float64
	TaglineY        float64
}

func DefaultGeometry() Geometry {
	return Geometry{
		HeaderHeight: 80,
		HeaderLogoX:  50,
		HeaderLogoY:  65,
		HeaderLogoW:  140,
		HeaderLogoH:  45,

		WatermarkSize:    120,
		WatermarkSpacing: 180,
		WatermarkOpacity: 0.04,

		FooterInset:     50,
		FooterRuleY:     45,
		FooterRuleWidth: 1.5,
		FooterRuleAlpha: 0.4,
		FooterTextY:     30,
		PageNumberSize:  9,
		BrandNameSize:   10,

		CoverLogoW:      300,
		CoverLogoH:      100,
		CoverLogoDrop:   200,
		CoverTitleSize:  36,
		CoverTitleMin:   20,
		CoverTitleStep:  2,
		CoverTitleInset: 50,
		CoverTitleLead:  1.2,
		SubtitleSize:    18,
		TaglineSize:     11,
		TaglineY:        100,
	}
}

// Brand is the immutable identity applied by an Overlay.
type Brand struct {
	Name            string // printed in the footer
	Marker          string // lower-case token used in branded file names
	Tagline         string
	DefaultSubtitle string
	FontFamily      string
	Palette         theme.Palette
	Geometry        Geometry
}

// Sparken returns the default brand.
func Sparken() Brand {
	return Brand{
		Name:            "Sparken",
		Marker:          "sparken",
		Tagline:         "SCIENCE-POWERED CREATIVE STUDIO",
		DefaultSubtitle: "Prepared by Sparken Solutions",
		FontFamily:      "Helvetica",
		Palette:         theme.Sparken(),
		Geometry:        DefaultGeometry(),
	}
}

// BrandedName returns the file name used for a branded copy of base.
func (b Brand) BrandedName(base string) string {
	return b.Marker + "-branded-" + base + ".pdf"
}

// IsBranded reports whether name already carries the branded marker.
func (b Brand) IsBranded(name string) bool {
	return b.Marker != "" && strings.Contains(strings.ToLower(name), strings.ToLower(b.Marker)+"-branded")
}
