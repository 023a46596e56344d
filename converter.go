// Package branding turns markdown, plain text and existing PDFs into
// Sparken branded PDF documents.
//
// Text goes through the sanitizer and normalizer, is laid out on fixed-size
// pages and then branded; PDFs are branded directly. An external renderer can
// be configured for text, in which case it is tried first and the in-process
// path is used whenever it is unavailable or fails.
//
//	c := branding.New(branding.WithAssets(assets))
//	res, err := c.Convert(ctx, branding.Input{Filename: "notes.md", Data: data})
package branding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/andreago-sparkensolutions/sparken-branding/brand"
	"github.com/andreago-sparkensolutions/sparken-branding/delegate"
	"github.com/andreago-sparkensolutions/sparken-branding/layout"
	"github.com/andreago-sparkensolutions/sparken-branding/markdown"
	"github.com/andreago-sparkensolutions/sparken-branding/render"
	"github.com/andreago-sparkensolutions/sparken-branding/theme"
)

// DefaultMaxSize is the largest accepted payload.
const DefaultMaxSize = 10 << 20

// Engine names the renderer that produced a result.
const (
	EngineLayout   = "layout"
	EngineDelegate = "delegate"
	EngineOverlay  = "overlay"
	EngineNone     = "none"
)

// Input is one document to brand.
type Input struct {
	Filename     string
	Data         []byte
	Title        string
	Subtitle     string
	Theme        string
	AddCoverPage *bool // nil means a cover is added
}

// Result is a branded document and the name it should be saved under.
type Result struct {
	PDF      []byte
	Filename string
	Route    Route
	Engine   string
	Title    string
	Subtitle string
	Pages    int // content pages laid out in process, 0 otherwise
}

// Converter is safe for concurrent use. Every call builds its own documents
// and layout engine.
type Converter struct {
	brand      brand.Brand
	assets     brand.Assets
	layout     layout.Config
	measurer   func() layout.Measurer
	mdConv     markdown.Converter
	normalizer *markdown.Normalizer
	delegate   *delegate.Process
	maxSize    int
	compress   bool
	log        *zap.Logger

	overlay *brand.Overlay
}

type Option func(*Converter)

// WithBrand replaces the brand identity. The layout palette follows it.
func WithBrand(b brand.Brand) Option {
	return func(c *Converter) {
		c.brand = b
		c.layout.Palette = b.Palette
	}
}

func WithAssets(a brand.Assets) Option {
	return func(c *Converter) {
		c.assets = a
	}
}

// WithLayout replaces the page geometry.
func WithLayout(cfg layout.Config) Option {
	return func(c *Converter) {
		c.layout = cfg
	}
}

// WithMeasurer sets the font metrics factory used for each conversion.
func WithMeasurer(f func() layout.Measurer) Option {
	return func(c *Converter) {
		c.measurer = f
	}
}

// WithMarkdown selects the markdown to HTML converter.
func WithMarkdown(conv markdown.Converter) Option {
	return func(c *Converter) {
		c.mdConv = conv
	}
}

// WithDelegate enables the external renderer for text input.
func WithDelegate(p delegate.Process) Option {
	return func(c *Converter) {
		c.delegate = &p
	}
}

func WithMaxSize(n int) Option {
	return func(c *Converter) {
		if n > 0 {
			c.maxSize = n
		}
	}
}

// WithCompression toggles PDF stream compression, on by default.
func WithCompression(on bool) Option {
	return func(c *Converter) {
		c.compress = on
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Converter) {
		if l != nil {
			c.log = l
		}
	}
}

func New(opts ...Option) *Converter {
	c := &Converter{
		brand:    brand.Sparken(),
		layout:   layout.DefaultConfig(),
		maxSize:  DefaultMaxSize,
		compress: true,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	mdOpts := []markdown.Option{markdown.WithLogger(c.log)}
	if c.mdConv != nil {
		mdOpts = append(mdOpts, markdown.WithConverter(c.mdConv))
	}
	c.normalizer = markdown.New(mdOpts...)
	if c.layout.FontFamily == "" {
		c.layout.FontFamily = c.brand.FontFamily
	}
	c.overlay = brand.NewOverlay(c.brand, c.assets,
		brand.WithLogger(c.log),
		brand.WithCompression(c.compress))
	return c
}

func (c *Converter) Brand() brand.Brand {
	return c.brand
}

// Capabilities reports which renderers can be used right now.
type Capabilities struct {
	Delegate   bool     `json:"delegate"`
	Engines    []string `json:"engines"`
	InputTypes []string `json:"inputTypes"`
	MaxSize    int      `json:"maxSize"`
}

func (c *Converter) Capabilities(ctx context.Context) Capabilities {
	caps := Capabilities{
		Engines:    []string{EngineLayout},
		InputTypes: []string{".md", ".markdown", ".txt", ".pdf"},
		MaxSize:    c.maxSize,
	}
	if c.delegate != nil && c.delegate.Available(ctx) {
		caps.Delegate = true
		caps.Engines = append(caps.Engines, EngineDelegate)
	}
	return caps
}

// Convert validates, routes and brands one input. Errors caused by the
// input are *InputError; anything else is a failure to brand the document.
func (c *Converter) Convert(ctx context.Context, in Input) (*Result, error) {
	start := time.Now()
	if len(in.Data) == 0 {
		return nil, inputError(ErrEmptyInput, "no file provided")
	}
	if len(in.Data) > c.maxSize {
		return nil, inputError(ErrInputTooLarge, "file is %d bytes, the limit is %d", len(in.Data), c.maxSize)
	}
	route, err := Classify(in.Filename, in.Data)
	if err != nil {
		return nil, err
	}
	coverTheme, err := theme.ParseCoverTheme(in.Theme)
	if err != nil {
		return nil, inputError(err, "unknown theme %q: use formal or creative", in.Theme)
	}
	opts := brand.Options{
		AddCoverPage: in.AddCoverPage == nil || *in.AddCoverPage,
		Theme:        coverTheme,
	}

	var res *Result
	switch route {
	case RouteText:
		res, err = c.convertText(ctx, in, opts)
	case RoutePDF:
		res, err = c.convertPDF(in, opts)
	}
	if err != nil {
		return nil, err
	}
	if res.Route == "" {
		res.Route = route
	}
	if res.Filename == "" {
		res.Filename = c.brand.BrandedName(BaseName(in.Filename))
	}
	c.log.Info("document branded",
		zap.String("file", in.Filename),
		zap.String("route", string(res.Route)),
		zap.String("engine", res.Engine),
		zap.Int("bytes", len(res.PDF)),
		zap.Duration("took", time.Since(start)))
	return res, nil
}

func (c *Converter) convertText(ctx context.Context, in Input, opts brand.Options) (*Result, error) {
	text := DecodeText(in.Data)
	opts.Title, opts.Subtitle = Titles(text, in.Filename, in.Title, in.Subtitle, c.brand.DefaultSubtitle)
	res := &Result{Title: opts.Title, Subtitle: opts.Subtitle}

	if out, ok := c.tryDelegate(ctx, text, opts); ok {
		res.PDF, res.Engine = out, EngineDelegate
		return res, nil
	}

	tokens := c.normalizer.Normalize(text)
	var m layout.Measurer
	if c.measurer != nil {
		m = c.measurer()
	}
	doc := layout.NewEngine(c.layout, m).Layout(tokens)
	if doc.Clipped > 0 {
		c.log.Warn("table rows taller than a page were cut", zap.Int("rows", doc.Clipped))
	}

	out, err := c.overlay.Apply(render.NewSource(doc, c.layout.FontFamily), opts)
	if err != nil {
		return nil, &RenderError{Stage: "brand", Err: err}
	}
	res.PDF, res.Engine, res.Pages = out, EngineLayout, doc.PageCount()
	return res, nil
}

// tryDelegate runs the external renderer when one is configured. Every
// failure is logged and reported as not ok.
func (c *Converter) tryDelegate(ctx context.Context, text string, opts brand.Options) ([]byte, bool) {
	if c.delegate == nil {
		return nil, false
	}
	if !c.delegate.Available(ctx) {
		c.log.Debug("delegate unavailable, using layout engine")
		return nil, false
	}
	out, err := c.delegate.Generate(ctx, text, delegate.Metadata{
		Title:    opts.Title,
		Subtitle: opts.Subtitle,
		Theme:    string(opts.Theme),
	})
	if err != nil {
		var de *DelegateError
		fields := []zap.Field{zap.Error(err)}
		if errors.As(err, &de) {
			fields = append(fields, zap.String("op", de.Op), zap.Int("exit", de.ExitCode))
		}
		c.log.Warn("delegate failed, falling back to layout engine", fields...)
		return nil, false
	}
	return out, true
}

func (c *Converter) convertPDF(in Input, opts brand.Options) (*Result, error) {
	if c.brand.IsBranded(in.Filename) {
		return &Result{PDF: in.Data, Filename: in.Filename, Engine: EngineNone, Route: RoutePassthrough}, nil
	}
	opts.Title = in.Title
	if opts.Title == "" {
		opts.Title = HumanizeFilename(in.Filename)
	}
	if opts.Title == "" {
		opts.Title = "Document"
	}
	opts.Subtitle = in.Subtitle
	if opts.Subtitle == "" {
		opts.Subtitle = c.brand.DefaultSubtitle
	}

	out, err := c.overlay.BrandPDF(in.Data, opts)
	if errors.Is(err, ErrUnreadablePDF) {
		return nil, inputError(err, "the file is not a readable PDF")
	}
	if err != nil {
		return nil, &RenderError{Stage: "brand", Err: fmt.Errorf("%s: %w", in.Filename, err)}
	}
	return &Result{PDF: out, Engine: EngineOverlay, Title: opts.Title, Subtitle: opts.Subtitle}, nil
}
