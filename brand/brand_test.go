package brand

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/andreago-sparkensolutions/sparken-branding/layout"
	"github.com/andreago-sparkensolutions/sparken-branding/markdown"
	"github.com/andreago-sparkensolutions/sparken-branding/render"
	"github.com/andreago-sparkensolutions/sparken-branding/theme"
)

const pageMarker = "<</Type /Page\n"

const testSVG = `<svg xmlns="http://www.w3.org/2000/svg" width="200" height="100" viewBox="0 0 200 100">
<rect x="0" y="0" width="200" height="100" fill="#5E5592"/>
</svg>`

func testImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: 0xF8, G: 0xD8, B: 0x30, A: 0xFF})
		}
	}
	return img
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, testImage(w, h)); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func generated(t *testing.T, src string) *render.Source {
	t.Helper()
	doc := layout.NewEngine(layout.DefaultConfig(), nil).Layout(markdown.Normalize(src))
	return render.NewSource(doc, "")
}

func longDoc() string {
	var b strings.Builder
	b.WriteString("# Report\n\n")
	for i := 0; i < 60; i++ {
		fmt.Fprintf(&b, "Paragraph %d with a few words of body text.\n\n", i)
	}
	return b.String()
}

func TestWatermarkGrid(t *testing.T) {
	sizes := [][2]float64{{612, 792}, {595.28, 841.89}, {1000, 300}, {100, 100}, {180, 180}}
	const size, spacing = 120.0, 180.0
	for _, sz := range sizes {
		w, h := sz[0], sz[1]
		tiles := WatermarkGrid(w, h, size, spacing)
		cols := int(math.Ceil(w/spacing)) + 1
		rows := int(math.Ceil(h/spacing)) + 1
		if len(tiles) != cols*rows {
			t.Fatalf("%vx%v: %d tiles, want %d", w, h, len(tiles), cols*rows)
		}
		for x := 0.0; x <= w; x += w / 20 {
			for y := 0.0; y <= h; y += h / 20 {
				best := math.Inf(1)
				for _, tl := range tiles {
					best = math.Min(best, math.Hypot(x-tl.X, y-tl.Y))
				}
				if best > spacing {
					t.Fatalf("%vx%v: point (%.1f, %.1f) is %.1f from the nearest tile", w, h, x, y, best)
				}
			}
		}
	}
	if WatermarkGrid(0, 792, size, spacing) != nil {
		t.Fatal("empty page should have no tiles")
	}
}

func TestDecodeAsset(t *testing.T) {
	var jpg, gf bytes.Buffer
	if err := jpeg.Encode(&jpg, testImage(40, 20), nil); err != nil {
		t.Fatal(err)
	}
	if err := gif.Encode(&gf, testImage(40, 20), nil); err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		name string
		data []byte
		w, h int
	}{
		{name: "png", data: pngBytes(t, 40, 20), w: 40, h: 20},
		{name: "jpeg", data: jpg.Bytes(), w: 40, h: 20},
		{name: "gif", data: gf.Bytes(), w: 40, h: 20},
		{name: "svg", data: []byte(testSVG), w: svgRaster, h: svgRaster / 2},
		{name: "large png", data: pngBytes(t, 3000, 1000), w: maxAssetSide, h: maxAssetSide / 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a, err := DecodeAsset(tc.data)
			if err != nil {
				t.Fatalf("DecodeAsset: %v", err)
			}
			if a.Width != tc.w || a.Height != tc.h {
				t.Fatalf("size = %dx%d, want %dx%d", a.Width, a.Height, tc.w, tc.h)
			}
			if _, err := png.Decode(bytes.NewReader(a.PNG)); err != nil {
				t.Fatalf("normalised asset is not a PNG: %v", err)
			}
		})
	}

	if _, err := DecodeAsset([]byte("just some text")); !errors.Is(err, ErrUnsupportedAsset) {
		t.Fatalf("expected ErrUnsupportedAsset, got %v", err)
	}
}

func TestAssetFit(t *testing.T) {
	a := &Asset{Width: 400, Height: 100}
	if w, h := a.Fit(140, 45); w != 140 || h != 35 {
		t.Fatalf("wide logo fit = %vx%v", w, h)
	}
	a = &Asset{Width: 100, Height: 100}
	if w, h := a.Fit(140, 45); w != 45 || h != 45 {
		t.Fatalf("square logo fit = %vx%v", w, h)
	}
}

func TestLoadAssets(t *testing.T) {
	dir := t.TempDir()
	logo := filepath.Join(dir, "logo.png")
	if err := os.WriteFile(logo, pngBytes(t, 80, 20), 0o644); err != nil {
		t.Fatal(err)
	}
	broken := filepath.Join(dir, "broken.png")
	if err := os.WriteFile(broken, []byte("\x89PNG\r\n\x1a\nnot really"), 0o644); err != nil {
		t.Fatal(err)
	}

	a := LoadAssets(AssetPaths{
		HeaderLogo: logo,
		Watermark:  filepath.Join(dir, "missing.png"),
		CoverLogo:  broken,
	}, nil)
	if a.HeaderLogo == nil {
		t.Fatal("header logo not loaded")
	}
	if a.Watermark != nil {
		t.Fatal("missing watermark should be nil")
	}
	if a.CoverLogo != a.HeaderLogo {
		t.Fatal("undecodable cover logo should fall back to the header logo")
	}
}

func TestFitTitle(t *testing.T) {
	g := DefaultGeometry()
	width := func(s string, size float64) float64 {
		return float64(utf8.RuneCountInString(s)) * size * 0.5
	}
	cases := []struct {
		title string
		size  float64
		lines int
	}{
		{title: "SHORT TITLE", size: 36, lines: 1},
		{title: strings.Repeat("X", 30), size: 34, lines: 1},
		{title: strings.TrimSpace(strings.Repeat("WORD ", 30)), size: 20, lines: 3},
	}
	for _, tc := range cases {
		ct := fitTitle(tc.title, g, 512, width)
		if ct.Size != tc.size || len(ct.Lines) != tc.lines {
			t.Fatalf("%q: size %v with %d lines, want %v with %d", tc.title, ct.Size, len(ct.Lines), tc.size, tc.lines)
		}
		if strings.Join(ct.Lines, " ") != tc.title {
			t.Fatalf("%q: wrapping lost words: %q", tc.title, ct.Lines)
		}
		for _, l := range ct.Lines {
			if width(l, ct.Size) > 512 && strings.Contains(l, " ") {
				t.Fatalf("line %q wider than the page", l)
			}
		}
	}
}

func TestApplyGenerated(t *testing.T) {
	src := generated(t, longDoc())
	o := NewOverlay(Sparken(), Assets{}, WithCompression(false))
	out, err := o.Apply(src, Options{
		AddCoverPage: true,
		Title:        "Quarterly report",
		Subtitle:     "Prepared for the board",
		Theme:        theme.Creative,
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	s := string(out)
	n, _ := src.Prepare(render.NewDocument(612, 792, false))
	if n < 2 {
		t.Fatalf("test document should span pages, got %d", n)
	}
	if got := strings.Count(s, pageMarker); got != n+1 {
		t.Fatalf("pages = %d, want %d content pages plus a cover", got, n)
	}
	for _, want := range []string{
		"(QUARTERLY REPORT) Tj",
		"(Prepared for the board) Tj",
		"(SCIENCE-POWERED CREATIVE STUDIO) Tj",
		fmt.Sprintf("(Page 1 of %d) Tj", n),
		fmt.Sprintf("(Page %d of %d) Tj", n, n),
		"(Sparken) Tj",
		"(Report) Tj",
	} {
		if !strings.Contains(s, want) {
			t.Fatalf("output lacks %q", want)
		}
	}
	if strings.Contains(s, fmt.Sprintf("of %d) Tj", n+1)) {
		t.Fatal("page total must not count the cover")
	}
	if strings.Contains(s, "/Subtype /Image") {
		t.Fatal("no assets were given, nothing should be embedded")
	}
}

func TestApplyWithoutCover(t *testing.T) {
	o := NewOverlay(Sparken(), Assets{}, WithCompression(false))
	out, err := o.Apply(generated(t, "# One\n\ntext\n"), Options{Title: "One"})
	if err != nil {
		t.Fatal(err)
	}
	s := string(out)
	if strings.Count(s, pageMarker) != 1 || !strings.Contains(s, "(Page 1 of 1) Tj") {
		t.Fatal("single page document branded incorrectly")
	}
	if strings.Contains(s, "SCIENCE-POWERED") {
		t.Fatal("cover drawn although it was not requested")
	}
}

func TestApplyWithAssets(t *testing.T) {
	logo, err := DecodeAsset(pngBytes(t, 80, 20))
	if err != nil {
		t.Fatal(err)
	}
	mark, err := DecodeAsset([]byte(testSVG))
	if err != nil {
		t.Fatal(err)
	}
	o := NewOverlay(Sparken(), Assets{HeaderLogo: logo, Watermark: mark, CoverLogo: logo}, WithCompression(false))
	out, err := o.Apply(generated(t, "# Title\n\nbody\n"), Options{AddCoverPage: true, Title: "Title"})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	s := string(out)
	if strings.Count(s, "/Subtype /Image") != 2 {
		t.Fatalf("expected logo and watermark embedded once each, got %d images", strings.Count(s, "/Subtype /Image"))
	}
	if !strings.Contains(s, "/ca 0.040") {
		t.Fatal("watermark opacity not applied")
	}
}

var showText = regexp.MustCompile(`\((?:[^()\\]|\\.)*\) Tj`)

func TestAssetsDoNotChangeText(t *testing.T) {
	logo, err := DecodeAsset(pngBytes(t, 80, 20))
	if err != nil {
		t.Fatal(err)
	}
	mark, err := DecodeAsset([]byte(testSVG))
	if err != nil {
		t.Fatal(err)
	}
	opts := Options{AddCoverPage: true, Title: "Quarterly report", Subtitle: "Board pack"}
	bare, err := NewOverlay(Sparken(), Assets{}, WithCompression(false)).Apply(generated(t, longDoc()), opts)
	if err != nil {
		t.Fatal(err)
	}
	full := Assets{HeaderLogo: logo, Watermark: mark, CoverLogo: logo}
	rich, err := NewOverlay(Sparken(), full, WithCompression(false)).Apply(generated(t, longDoc()), opts)
	if err != nil {
		t.Fatal(err)
	}

	if a, b := strings.Count(string(bare), pageMarker), strings.Count(string(rich), pageMarker); a != b {
		t.Fatalf("pages = %d without assets, %d with", a, b)
	}
	a := showText.FindAllString(string(bare), -1)
	b := showText.FindAllString(string(rich), -1)
	if len(a) == 0 {
		t.Fatal("no text shown")
	}
	if strings.Join(a, "\n") != strings.Join(b, "\n") {
		t.Fatalf("text differs with assets\nwithout: %q\nwith:    %q", a, b)
	}
}

func TestApplyDegradesOnBadAsset(t *testing.T) {
	bad := &Asset{PNG: []byte("definitely not a png"), Width: 10, Height: 10}
	o := NewOverlay(Sparken(), Assets{HeaderLogo: bad, Watermark: bad, CoverLogo: bad}, WithCompression(false))
	out, err := o.Apply(generated(t, "text\n"), Options{AddCoverPage: true, Title: "T"})
	if err != nil {
		t.Fatalf("a broken asset must not fail the document: %v", err)
	}
	if strings.Contains(string(out), "/Subtype /Image") {
		t.Fatal("broken asset was embedded")
	}
	if !strings.Contains(string(out), "(Page 1 of 1) Tj") {
		t.Fatal("footer missing")
	}
}

func TestApplyDeterministic(t *testing.T) {
	o := NewOverlay(Sparken(), Assets{})
	a, err := o.Apply(generated(t, longDoc()), Options{AddCoverPage: true, Title: "Same"})
	if err != nil {
		t.Fatal(err)
	}
	b, err := o.Apply(generated(t, longDoc()), Options{AddCoverPage: true, Title: "Same"})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a, b) {
		t.Fatal("same input produced different bytes")
	}
}

func TestBrandPDF(t *testing.T) {
	doc := layout.NewEngine(layout.DefaultConfig(), nil).Layout(markdown.Normalize(longDoc()))
	base, err := render.Render(doc, render.Options{})
	if err != nil {
		t.Fatal(err)
	}
	o := NewOverlay(Sparken(), Assets{}, WithCompression(false))
	out, err := o.BrandPDF(base, Options{})
	if err != nil {
		t.Fatalf("BrandPDF: %v", err)
	}
	s := string(out)
	n := doc.PageCount()
	if got := strings.Count(s, pageMarker); got != n {
		t.Fatalf("pages = %d, want %d", got, n)
	}
	if !strings.Contains(s, fmt.Sprintf("(Page %d of %d) Tj", n, n)) {
		t.Fatal("imported pages not numbered")
	}
	if !strings.Contains(s, "/Subtype /Form") {
		t.Fatal("imported pages not placed as templates")
	}
}

func TestBrandPDFUnreadable(t *testing.T) {
	o := NewOverlay(Sparken(), Assets{})
	for _, data := range [][]byte{
		[]byte("plain text, not a pdf"),
		nil,
	} {
		if _, err := o.BrandPDF(data, Options{}); !errors.Is(err, ErrUnreadablePDF) {
			t.Fatalf("BrandPDF(%q) error = %v, want ErrUnreadablePDF", data, err)
		}
	}
}

func TestBrandedName(t *testing.T) {
	b := Sparken()
	if got := b.BrandedName("report"); got != "sparken-branded-report.pdf" {
		t.Fatalf("BrandedName = %q", got)
	}
	if !b.IsBranded("Sparken-Branded-report.pdf") || b.IsBranded("report.pdf") {
		t.Fatal("IsBranded misclassified a file name")
	}
}
