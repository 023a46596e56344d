// Package render draws laid-out pages with fpdf.
//
// Layout commands use bottom-left coordinates; fpdf measures from the top
// of the page, so every y is flipped against the page height here and
// nowhere else.
//
// The branding overlay consumes pages through Source. Render is the
// supported way to get a plain PDF of a layout.Document without any brand
// pages, stamps or watermark:
//
//	doc := layout.NewEngine(layout.DefaultConfig(), nil).Layout(markdown.Normalize(src))
//	pdf, err := render.Render(doc, render.Options{Compress: true})
package render

import (
	"bytes"
	"fmt"
	"time"

	"codeberg.org/go-pdf/fpdf"

	"github.com/andreago-sparkensolutions/sparken-branding/layout"
)

// Epoch is the creation and modification date stamped on every document so
// that equal input gives byte-identical output.
var Epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// Options control Render.
type Options struct {
	FontFamily string
	Compress   bool
	Title      string
}

// NewDocument returns an empty fpdf document in points with automatic page
// breaking disabled and fixed metadata.
func NewDocument(w, h float64, compress bool) *fpdf.Fpdf {
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: w, Ht: h},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCompression(compress)
	pdf.SetCreationDate(Epoch)
	pdf.SetModificationDate(Epoch)
	pdf.SetCatalogSort(true)
	return pdf
}

// Painter turns layout commands into fpdf calls on one document.
type Painter struct {
	pdf    *fpdf.Fpdf
	tr     func(string) string
	family string
}

func NewPainter(pdf *fpdf.Fpdf, family string) *Painter {
	if family == "" {
		family = "Helvetica"
	}
	return &Painter{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor(""), family: family}
}

// DrawPage paints p onto the current fpdf page.
func (pt *Painter) DrawPage(p *layout.Page) {
	pdf := pt.pdf
	for _, c := range p.Commands {
		switch c := c.(type) {
		case layout.Text:
			pdf.SetFont(pt.family, c.Font.Style(), c.Font.Size)
			pdf.SetTextColor(c.Color.R, c.Color.G, c.Color.B)
			pdf.Text(c.X, p.Height-c.Y, pt.tr(c.Text))
		case layout.Rect:
			pdf.SetFillColor(c.Fill.R, c.Fill.G, c.Fill.B)
			pdf.Rect(c.X, p.Height-c.Y-c.H, c.W, c.H, "F")
		case layout.Line:
			if c.Alpha > 0 && c.Alpha < 1 {
				pdf.SetAlpha(c.Alpha, "Normal")
			}
			pdf.SetDrawColor(c.Color.R, c.Color.G, c.Color.B)
			pdf.SetLineWidth(c.Width)
			pdf.Line(c.X1, p.Height-c.Y1, c.X2, p.Height-c.Y2)
			if c.Alpha > 0 && c.Alpha < 1 {
				pdf.SetAlpha(1, "Normal")
			}
		}
	}
}

// Render writes doc as a standalone PDF without any branding.
func Render(doc *layout.Document, opts Options) ([]byte, error) {
	if doc == nil || doc.PageCount() == 0 {
		return nil, fmt.Errorf("render: empty document")
	}
	first := doc.Pages[0]
	pdf := NewDocument(first.Width, first.Height, opts.Compress)
	if opts.Title != "" {
		pdf.SetTitle(opts.Title, true)
	}
	painter := NewPainter(pdf, opts.FontFamily)
	for _, p := range doc.Pages {
		pdf.AddPageFormat("P", fpdf.SizeType{Wd: p.Width, Ht: p.Height})
		painter.DrawPage(p)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}

// Source adapts a laid-out document to the page source used by the
// branding overlay.
type Source struct {
	doc     *layout.Document
	family  string
	painter *Painter
}

func NewSource(doc *layout.Document, family string) *Source {
	return &Source{doc: doc, family: family}
}

// Prepare binds the source to the target document and reports the page count.
func (s *Source) Prepare(pdf *fpdf.Fpdf) (int, error) {
	if s.doc == nil || s.doc.PageCount() == 0 {
		return 0, fmt.Errorf("render: empty document")
	}
	s.painter = NewPainter(pdf, s.family)
	return s.doc.PageCount(), nil
}

// PageSize returns the size of page i, counted from zero.
func (s *Source) PageSize(i int) (float64, float64) {
	p := s.doc.Pages[i]
	return p.Width, p.Height
}

// DrawPage paints page i onto the current page of the prepared document.
func (s *Source) DrawPage(pdf *fpdf.Fpdf, i int) error {
	if s.painter == nil {
		s.painter = NewPainter(pdf, s.family)
	}
	s.painter.DrawPage(s.doc.Pages[i])
	return pdf.Error()
}
