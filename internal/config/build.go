package config

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	branding "github.com/andreago-sparkensolutions/sparken-branding"
	"github.com/andreago-sparkensolutions/sparken-branding/brand"
	"github.com/andreago-sparkensolutions/sparken-branding/delegate"
	"github.com/andreago-sparkensolutions/sparken-branding/markdown"
	"github.com/andreago-sparkensolutions/sparken-branding/theme"
)

// Identity builds the brand from the configured name, palette and theme file.
func (c *Config) Identity() (brand.Brand, error) {
	b := brand.Sparken()
	b.Name = c.Brand.Name
	b.Marker = c.Brand.Marker
	b.Tagline = c.Brand.Tagline
	b.DefaultSubtitle = c.Brand.DefaultSubtitle

	if c.Brand.ThemeFile != "" {
		p, err := theme.LoadPalette(c.Brand.ThemeFile)
		if err != nil {
			return b, fmt.Errorf("brand.themeFile: %w", err)
		}
		b.Palette = p
	}
	for key, hex := range c.Brand.Palette {
		col, err := theme.Hex(hex)
		if err != nil {
			return b, fmt.Errorf("brand.palette.%s: %w", key, err)
		}
		switch key {
		case "primary":
			b.Palette.Primary = col
		case "accent":
			b.Palette.Accent = col
		case "lime":
			b.Palette.Lime = col
		case "gray":
			b.Palette.Gray = col
		case "text":
			b.Palette.Text = col
		case "band":
			b.Palette.Band = col
		case "onAccent":
			b.Palette.OnAccent = col
		default:
			return b, fmt.Errorf("brand.palette: unknown color %q", key)
		}
	}
	return b, nil
}

func (c *Config) AssetPaths() brand.AssetPaths {
	return brand.AssetPaths{
		HeaderLogo: c.Brand.HeaderLogo,
		Watermark:  c.Brand.Watermark,
		CoverLogo:  c.Brand.CoverLogo,
	}
}

// delegateOutputFactor bounds a delegate's PDF relative to the largest upload.
const delegateOutputFactor = 16

// DelegateProcess returns the external renderer and whether it is enabled.
func (c *Config) DelegateProcess() (delegate.Process, bool) {
	return delegate.Process{
		Command:   c.Delegate.Command,
		Script:    c.Delegate.Script,
		Dir:       c.Delegate.Dir,
		Timeout:   time.Duration(c.Delegate.TimeoutSeconds) * time.Second,
		MaxOutput: c.Upload.MaxBytes * delegateOutputFactor,
	}, c.Delegate.Enabled
}

// ConverterOptions turns the configuration into converter options. Brand
// images that fail to load are logged and skipped.
func (c *Config) ConverterOptions(log *zap.Logger) ([]branding.Option, error) {
	b, err := c.Identity()
	if err != nil {
		return nil, err
	}
	conv, err := markdown.NewConverter(c.Markdown.Engine)
	if err != nil {
		return nil, fmt.Errorf("markdown.engine: %w", err)
	}

	opts := []branding.Option{
		branding.WithLogger(log),
		branding.WithBrand(b),
		branding.WithAssets(brand.LoadAssets(c.AssetPaths(), log)),
		branding.WithMarkdown(conv),
		branding.WithMaxSize(c.Upload.MaxBytes),
	}
	if p, ok := c.DelegateProcess(); ok {
		opts = append(opts, branding.WithDelegate(p))
	}
	return opts, nil
}
