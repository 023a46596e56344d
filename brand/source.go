package brand

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"codeberg.org/go-pdf/fpdf"
	"codeberg.org/go-pdf/fpdf/contrib/gofpdi"
	"github.com/gabriel-vasile/mimetype"
)

var ErrUnreadablePDF = errors.New("unreadable PDF")

// Source paints the content pages of a document into the output. Pages
// are counted from zero.
type Source interface {
	// Prepare binds the source to the output document and returns the number
	// of content pages.
	Prepare(pdf *fpdf.Fpdf) (int, error)
	PageSize(i int) (w, h float64)
	DrawPage(pdf *fpdf.Fpdf, i int) error
}

// ImportedPDF is a Source backed by an existing PDF. Each page is imported
// as a form template and drawn full size underneath the branding.
type ImportedPDF struct {
	rs    io.ReadSeeker
	imp   *gofpdi.Importer
	tpls  []int
	sizes [][2]float64
}

// ImportPDF wraps PDF bytes. Nothing is parsed until Prepare.
func ImportPDF(data []byte) *ImportedPDF {
	return &ImportedPDF{rs: bytes.NewReader(data)}
}

// Prepare imports every page. The importer panics on malformed input, so
// panics are turned into ErrUnreadablePDF.
func (s *ImportedPDF) Prepare(pdf *fpdf.Fpdf) (n int, err error) {
	defer func() {
		if r := recover(); r != nil {
			n, err = 0, fmt.Errorf("%w: %v", ErrUnreadablePDF, r)
		}
	}()

	head := make([]byte, 1024)
	k, _ := io.ReadFull(s.rs, head)
	if _, err := s.rs.Seek(0, io.SeekStart); err != nil {
		return 0, err
	}
	if !mimetype.Detect(head[:k]).Is("application/pdf") {
		return 0, fmt.Errorf("%w: not a PDF", ErrUnreadablePDF)
	}

	s.imp = gofpdi.NewImporter()
	first := s.imp.ImportPageFromStream(pdf, &s.rs, 1, "/MediaBox")
	sizes := s.imp.GetPageSizes()
	if len(sizes) == 0 {
		return 0, fmt.Errorf("%w: no pages", ErrUnreadablePDF)
	}
	s.tpls = []int{first}
	for p := 2; p <= len(sizes); p++ {
		s.tpls = append(s.tpls, s.imp.ImportPageFromStream(pdf, &s.rs, p, "/MediaBox"))
	}
	for p := 1; p <= len(sizes); p++ {
		box := sizes[p]["/MediaBox"]
		w, h := box["w"], box["h"]
		if w <= 0 || h <= 0 {
			w, h = letterWidth, letterHeight
		}
		s.sizes = append(s.sizes, [2]float64{w, h})
	}
	if pdf.Err() {
		return 0, fmt.Errorf("%w: %v", ErrUnreadablePDF, pdf.Error())
	}
	return len(s.tpls), nil
}

func (s *ImportedPDF) PageSize(i int) (float64, float64) {
	return s.sizes[i][0], s.sizes[i][1]
}

func (s *ImportedPDF) DrawPage(pdf *fpdf.Fpdf, i int) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: page %d: %v", ErrUnreadablePDF, i+1, r)
		}
	}()
	w, h := s.PageSize(i)
	s.imp.UseImportedTemplate(pdf, s.tpls[i], 0, 0, w, h)
	return pdf.Error()
}
