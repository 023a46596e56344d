package brand

import (
	"strings"

	"github.com/andreago-sparkensolutions/sparken-branding/sanitize"
)

// CoverTitle is the title as set on the cover: its font size and lines.
type CoverTitle struct {
	Size  float64
	Lines []string
}

// fitTitle shrinks the title in fixed steps down to the minimum size and
// only then wraps it on word boundaries. width measures at a given size.
func fitTitle(title string, g Geometry, maxWidth float64, width func(s string, size float64) float64) CoverTitle {
	size := g.CoverTitleSize
	for width(title, size) > maxWidth && size > g.CoverTitleMin {
		size -= g.CoverTitleStep
	}
	if width(title, size) <= maxWidth {
		return CoverTitle{Size: size, Lines: []string{title}}
	}

	var lines []string
	cur := ""
	for _, w := range strings.Fields(title) {
		next := strings.TrimSpace(cur + " " + w)
		if cur != "" && width(next, size) > maxWidth {
			lines = append(lines, cur)
			cur = w
			continue
		}
		cur = next
	}
	if cur != "" {
		lines = append(lines, cur)
	}
	return CoverTitle{Size: size, Lines: lines}
}

// cover fills the current page with the theme background and centers the
// logo, title, subtitle and tagline on it.
func (s *stamp) cover(w, h float64, opts Options, logo *placed) {
	g := s.brand.Geometry
	bg, fg := s.brand.Palette.CoverColors(opts.Theme)

	s.fill(bg)
	s.pdf.Rect(0, 0, w, h, "F")

	if logo != nil {
		s.image(logo, h, (w-g.CoverLogoW)/2, h-g.CoverLogoDrop, g.CoverLogoW, g.CoverLogoH)
	}

	s.pdf.SetTextColor(fg.R, fg.G, fg.B)
	title := strings.ToUpper(sanitize.Line(opts.Title))
	ct := fitTitle(title, g, w-2*g.CoverTitleInset, func(str string, size float64) float64 {
		s.pdf.SetFont(s.brand.FontFamily, "B", size)
		return s.pdf.GetStringWidth(s.tr(str))
	})
	s.pdf.SetFont(s.brand.FontFamily, "B", ct.Size)

	lead := ct.Size * g.CoverTitleLead
	y := h/2 + 50
	if len(ct.Lines) > 1 {
		y += float64(len(ct.Lines))*lead/2 - lead
	}
	last := y
	for _, line := range ct.Lines {
		s.centered(line, w, h, y)
		last = y
		y -= lead
	}

	if sub := sanitize.Line(opts.Subtitle); sub != "" {
		s.pdf.SetFont(s.brand.FontFamily, "", g.SubtitleSize)
		subY := h / 2
		// a wrapped title can run down past the middle of the page
		if limit := last - ct.Size*0.5 - g.SubtitleSize; subY > limit {
			subY = limit
		}
		s.centered(sub, w, h, subY)
	}

	if s.brand.Tagline != "" {
		s.pdf.SetFont(s.brand.FontFamily, "", g.TaglineSize)
		s.centered(s.brand.Tagline, w, h, g.TaglineY)
	}
}

func (s *stamp) centered(str string, w, h, y float64) {
	t := s.tr(str)
	s.pdf.Text((w-s.pdf.GetStringWidth(t))/2, h-y, t)
}
