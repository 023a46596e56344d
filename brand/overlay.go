package brand

import (
	"bytes"
	"fmt"
	"math"

	"codeberg.org/go-pdf/fpdf"
	"go.uber.org/zap"

	"github.com/andreago-sparkensolutions/sparken-branding/render"
	"github.com/andreago-sparkensolutions/sparken-branding/theme"
)

const (
	letterWidth  = 612
	letterHeight = 792
)

const (
	imgHeaderLogo = "brand-header-logo"
	imgWatermark  = "brand-watermark"
	imgCoverLogo  = "brand-cover-logo"
)

// Options are the per-document branding choices.
type Options struct {
	AddCoverPage bool
	Title        string
	Subtitle     string
	Theme        theme.CoverTheme
}

// Overlay applies one Brand. It holds no per-document state and may be
// shared between goroutines.
type Overlay struct {
	brand    Brand
	assets   Assets
	log      *zap.Logger
	compress bool
}

type OverlayOption func(*Overlay)

func WithLogger(l *zap.Logger) OverlayOption {
	return func(o *Overlay) {
		if l != nil {
			o.log = l
		}
	}
}

// WithCompression toggles content stream compression. It is on by default.
func WithCompression(on bool) OverlayOption {
	return func(o *Overlay) {
		o.compress = on
	}
}

func NewOverlay(b Brand, assets Assets, opts ...OverlayOption) *Overlay {
	o := &Overlay{brand: b, assets: assets, log: zap.NewNop(), compress: true}
	for _, opt := range opts {
		opt(o)
	}
	if o.brand.FontFamily == "" {
		o.brand.FontFamily = "Helvetica"
	}
	return o
}

func (o *Overlay) Brand() Brand {
	return o.brand
}

// BrandPDF brands an existing PDF.
func (o *Overlay) BrandPDF(data []byte, opts Options) ([]byte, error) {
	return o.Apply(ImportPDF(data), opts)
}

// Apply writes a new document holding the optional cover followed by every
// page of src with branding drawn over it.
func (o *Overlay) Apply(src Source, opts Options) ([]byte, error) {
	pdf := render.NewDocument(letterWidth, letterHeight, o.compress)
	if opts.Title != "" {
		pdf.SetTitle(opts.Title, true)
	}
	pdf.SetAuthor(o.brand.Name, true)
	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("brand: new document: %w", err)
	}

	n, err := src.Prepare(pdf)
	if err != nil {
		return nil, err
	}

	s := &stamp{
		Overlay: o,
		pdf:     pdf,
		tr:      pdf.UnicodeTranslatorFromDescriptor(""),
		logo:    o.register(pdf, imgHeaderLogo, o.assets.HeaderLogo),
		tile:    o.register(pdf, imgWatermark, o.assets.Watermark),
	}

	if opts.AddCoverPage {
		w, h := src.PageSize(0)
		pdf.AddPageFormat("P", fpdf.SizeType{Wd: w, Ht: h})
		s.cover(w, h, opts, o.register(pdf, imgCoverLogo, o.assets.CoverLogo))
	}

	for i := 0; i < n; i++ {
		w, h := src.PageSize(i)
		pdf.AddPageFormat("P", fpdf.SizeType{Wd: w, Ht: h})
		if err := src.DrawPage(pdf, i); err != nil {
			return nil, fmt.Errorf("brand: page %d: %w", i+1, err)
		}
		s.header(w, h)
		s.watermark(w, h)
		s.footer(w, h, i+1, n)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("brand: output: %w", err)
	}
	o.log.Debug("document branded",
		zap.Int("pages", n),
		zap.Bool("cover", opts.AddCoverPage),
		zap.Int("bytes", buf.Len()))
	return buf.Bytes(), nil
}

// register embeds an asset once. An image fpdf rejects is dropped and the
// document error cleared, so only that drawing step is lost.
func (o *Overlay) register(pdf *fpdf.Fpdf, name string, a *Asset) *placed {
	if a == nil {
		return nil
	}
	pdf.RegisterImageOptionsReader(name, fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(a.PNG))
	if pdf.Err() {
		o.log.Debug("brand asset not embedded", zap.String("image", name), zap.Error(pdf.Error()))
		pdf.ClearError()
		return nil
	}
	return &placed{name: name, asset: a}
}

type placed struct {
	name  string
	asset *Asset
}

// stamp draws onto one output document.
type stamp struct {
	*Overlay
	pdf  *fpdf.Fpdf
	tr   func(string) string
	logo *placed
	tile *placed
}

// image draws p fitted and centered in the box whose lower-left corner is
// (x, y), in bottom-left page coordinates.
func (s *stamp) image(p *placed, pageH, x, y, w, h float64) {
	iw, ih := p.asset.Fit(w, h)
	x += (w - iw) / 2
	y += (h - ih) / 2
	s.pdf.ImageOptions(p.name, x, pageH-y-ih, iw, ih, false,
		fpdf.ImageOptions{ImageType: "PNG", AllowNegativePosition: true}, 0, "")
}

func (s *stamp) fill(c theme.Color) {
	s.pdf.SetFillColor(c.R, c.G, c.B)
}

func (s *stamp) text(x, y, pageH float64, str string) {
	s.pdf.Text(x, pageH-y, s.tr(str))
}

func (s *stamp) header(w, h float64) {
	g := s.brand.Geometry
	s.fill(s.brand.Palette.Primary)
	s.pdf.Rect(0, 0, w, g.HeaderHeight, "F")
	if s.logo != nil {
		s.image(s.logo, h, g.HeaderLogoX, h-g.HeaderLogoY, g.HeaderLogoW, g.HeaderLogoH)
	}
}

func (s *stamp) watermark(w, h float64) {
	if s.tile == nil {
		return
	}
	g := s.brand.Geometry
	s.pdf.SetAlpha(g.WatermarkOpacity, "Normal")
	for _, pt := range WatermarkGrid(w, h, g.WatermarkSize, g.WatermarkSpacing) {
		s.image(s.tile, h, pt.X, pt.Y, g.WatermarkSize, g.WatermarkSize)
	}
	s.pdf.SetAlpha(1, "Normal")
}

func (s *stamp) footer(w, h float64, page, total int) {
	g := s.brand.Geometry
	p := s.brand.Palette.Primary

	s.pdf.SetAlpha(g.FooterRuleAlpha, "Normal")
	s.pdf.SetDrawColor(p.R, p.G, p.B)
	s.pdf.SetLineWidth(g.FooterRuleWidth)
	s.pdf.Line(g.FooterInset, h-g.FooterRuleY, w-g.FooterInset, h-g.FooterRuleY)
	s.pdf.SetAlpha(1, "Normal")

	s.pdf.SetTextColor(p.R, p.G, p.B)
	s.pdf.SetFont(s.brand.FontFamily, "", g.PageNumberSize)
	s.text(g.FooterInset, g.FooterTextY, h, fmt.Sprintf("Page %d of %d", page, total))

	s.pdf.SetFont(s.brand.FontFamily, "B", g.BrandNameSize)
	name := s.tr(s.brand.Name)
	s.pdf.Text(w-g.FooterInset-s.pdf.GetStringWidth(name), h-g.FooterTextY, name)
}

// Tile is the lower-left corner of one watermark image.
type Tile struct {
	X, Y float64
}

// WatermarkGrid returns tile origins covering a w by h page. The grid starts
// half a tile below and left of the origin and runs one column and one row
// past the far edges.
func WatermarkGrid(w, h, size, spacing float64) []Tile {
	if spacing <= 0 || w <= 0 || h <= 0 {
		return nil
	}
	cols := int(math.Ceil(w/spacing)) + 1
	rows := int(math.Ceil(h/spacing)) + 1
	tiles := make([]Tile, 0, cols*rows)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			tiles = append(tiles, Tile{
				X: float64(c)*spacing - size/2,
				Y: float64(r)*spacing - size/2,
			})
		}
	}
	return tiles
}
