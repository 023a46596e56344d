// Package theme holds the brand palette and the cover page themes shared by
// the layout engine and the branding overlay.
package theme

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"
)

var (
	ErrInvalidColor = errors.New("invalid color")
	ErrUnknownTheme = errors.New("unknown cover theme")
)

// Color is an 8-bit RGB triple.
type Color struct {
	R, G, B int
}

// Hex parses "#RRGGBB" or "RRGGBB".
func Hex(s string) (Color, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return Color{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	return Color{R: int(v >> 16 & 0xff), G: int(v >> 8 & 0xff), B: int(v & 0xff)}, nil
}

// MustHex is Hex for package-level literals.
func MustHex(s string) Color {
	c, err := Hex(s)
	if err != nil {
		panic(err)
	}
	return c
}

func (c Color) String() string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// UnmarshalText lets colors be written as hex strings in YAML files.
func (c *Color) UnmarshalText(b []byte) error {
	v, err := Hex(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

var White = Color{255, 255, 255}

// Palette is the set of brand colors. It is a value type; every consumer
// gets its own copy.
type Palette struct {
	Primary  Color `yaml:"primary"`
	Accent   Color `yaml:"accent"`
	Lime     Color `yaml:"lime"`
	Gray     Color `yaml:"gray"`
	Text     Color `yaml:"text"`
	Band     Color `yaml:"band"`
	OnAccent Color `yaml:"onAccent"`
}

// Sparken returns the default brand palette.
func Sparken() Palette {
	return Palette{
		Primary:  MustHex("#5E5592"),
		Accent:   MustHex("#F8D830"),
		Lime:     MustHex("#D7DF5E"),
		Gray:     MustHex("#F4F5F7"),
		Text:     MustHex("#030403"),
		Band:     MustHex("#D0C6E1"),
		OnAccent: MustHex("#5E5592"),
	}
}

// CoverTheme selects the cover page color scheme.
type CoverTheme string

const (
	Formal   CoverTheme = "formal"
	Creative CoverTheme = "creative"
)

// ParseCoverTheme accepts "formal" and "creative" in any case. The empty
// string maps to Formal.
func ParseCoverTheme(s string) (CoverTheme, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(Formal):
		return Formal, nil
	case string(Creative):
		return Creative, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTheme, s)
}

// CoverColors returns background and foreground for a cover theme.
func (p Palette) CoverColors(t CoverTheme) (bg, fg Color) {
	if t == Creative {
		return p.Accent, p.OnAccent
	}
	return p.Primary, White
}

// LoadPalette reads a YAML palette file. Fields absent from the file keep
// the Sparken defaults.
func LoadPalette(path string) (Palette, error) {
	p := Sparken()
	data, err := os.ReadFile(path)
	if err != nil {
		return p, err
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("parse palette %s: %w", path, err)
	}
	return p, nil
}
