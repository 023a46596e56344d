package brand

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"math"
	"os"

	"github.com/gabriel-vasile/mimetype"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	"go.uber.org/zap"
	"golang.org/x/image/draw"
	"golang.org/x/image/webp"
)

var ErrUnsupportedAsset = errors.New("unsupported image format")

// maxAssetSide bounds the longest side of a normalised asset in pixels.
// Logos are never drawn larger than a few hundred points.
const maxAssetSide = 1200

// svgRaster is the longest side an SVG logo is rasterised at.
const svgRaster = 900

// Asset is a decoded image normalised to an 8-bit RGBA PNG, the one
// format every fpdf build embeds with transparency.
type Asset struct {
	PNG    []byte
	Width  int
	Height int
}

// Aspect is width over height.
func (a *Asset) Aspect() float64 {
	if a == nil || a.Height == 0 {
		return 1
	}
	return float64(a.Width) / float64(a.Height)
}

// Fit returns the largest size with the asset's aspect ratio that fits in
// a w by h box.
func (a *Asset) Fit(w, h float64) (float64, float64) {
	r := a.Aspect()
	if w/h > r {
		return h * r, h
	}
	return w, w / r
}

// LoadAsset reads and decodes an image file.
func LoadAsset(path string) (*Asset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	a, err := DecodeAsset(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return a, nil
}

// DecodeAsset accepts PNG, JPEG, GIF, WebP and SVG data.
func DecodeAsset(data []byte) (*Asset, error) {
	mtype := mimetype.Detect(data)

	var img image.Image
	var err error
	switch {
	case mtype.Is("image/svg+xml"):
		img, err = rasterizeSVG(data)
	case mtype.Is("image/webp"):
		img, err = webp.Decode(bytes.NewReader(data))
	case mtype.Is("image/png"), mtype.Is("image/jpeg"), mtype.Is("image/gif"):
		img, _, err = image.Decode(bytes.NewReader(data))
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAsset, mtype.String())
	}
	if err != nil {
		return nil, err
	}
	return normalize(img)
}

func rasterizeSVG(data []byte) (image.Image, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	vw, vh := icon.ViewBox.W, icon.ViewBox.H
	if vw <= 0 || vh <= 0 {
		vw, vh = svgRaster, svgRaster
	}
	scale := svgRaster / math.Max(vw, vh)
	width, height := int(math.Ceil(vw*scale)), int(math.Ceil(vh*scale))

	icon.SetTarget(0, 0, float64(width), float64(height))
	rgba := image.NewRGBA(image.Rect(0, 0, width, height))
	icon.Draw(rasterx.NewDasher(width, height, rasterx.NewScannerGV(width, height, rgba, rgba.Bounds())), 1)
	return rgba, nil
}

func normalize(img image.Image) (*Asset, error) {
	b := img.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("%w: empty image", ErrUnsupportedAsset)
	}
	w, h := b.Dx(), b.Dy()
	if longest := max(w, h); longest > maxAssetSide {
		s := float64(maxAssetSide) / float64(longest)
		w, h = max(1, int(float64(w)*s)), max(1, int(float64(h)*s))
	}

	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	if w == b.Dx() && h == b.Dy() {
		draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	} else {
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, err
	}
	return &Asset{PNG: buf.Bytes(), Width: w, Height: h}, nil
}

// AssetPaths names the image files of a brand. Empty paths are skipped.
type AssetPaths struct {
	HeaderLogo string
	Watermark  string
	CoverLogo  string
}

// Assets are the decoded brand images. Any of them may be nil, in which case
// the step that draws it is skipped.
type Assets struct {
	HeaderLogo *Asset
	Watermark  *Asset
	CoverLogo  *Asset
}

// LoadAssets decodes every configured image. Failures are logged and leave
// the asset nil; they are never returned. A missing cover logo falls back to
// the header logo.
func LoadAssets(paths AssetPaths, log *zap.Logger) Assets {
	if log == nil {
		log = zap.NewNop()
	}
	load := func(kind, path string) *Asset {
		if path == "" {
			return nil
		}
		a, err := LoadAsset(path)
		if err != nil {
			log.Debug("brand asset skipped", zap.String("asset", kind), zap.Error(err))
			return nil
		}
		return a
	}
	a := Assets{
		HeaderLogo: load("header logo", paths.HeaderLogo),
		Watermark:  load("watermark", paths.Watermark),
		CoverLogo:  load("cover logo", paths.CoverLogo),
	}
	if a.CoverLogo == nil {
		a.CoverLogo = a.HeaderLogo
	}
	return a
}
