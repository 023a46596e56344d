package markdown

import (
	"bytes"
	"fmt"

	gomd "github.com/gomarkdown/markdown"
	gomdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Converter turns markdown into block-correct HTML.
type Converter interface {
	ToHTML(src []byte) ([]byte, error)
}

// Engine names accepted by NewConverter.
const (
	EngineGomarkdown = "gomarkdown"
	EngineGoldmark   = "goldmark"
)

// NewConverter returns the converter registered under name. The empty name
// selects gomarkdown.
func NewConverter(name string) (Converter, error) {
	switch name {
	case "", EngineGomarkdown:
		return NewGomarkdownConverter(), nil
	case EngineGoldmark:
		return NewGoldmarkConverter(), nil
	}
	return nil, fmt.Errorf("unknown markdown engine %q", name)
}

// GomarkdownConverter uses github.com/gomarkdown/markdown.
type GomarkdownConverter struct {
	Extensions parser.Extensions
}

func NewGomarkdownConverter() *GomarkdownConverter {
	return &GomarkdownConverter{
		Extensions: parser.NoIntraEmphasis | parser.Tables | parser.FencedCode |
			parser.Autolink | parser.Strikethrough | parser.SpaceHeadings |
			parser.BackslashLineBreak | parser.DefinitionLists | parser.OrderedListStart,
	}
}

// ToHTML never lets a parser panic escape.
func (c *GomarkdownConverter) ToHTML(src []byte) (out []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("gomarkdown: %v", r)
		}
	}()
	// the parser is stateful, one per document
	p := parser.NewWithExtensions(c.Extensions)
	renderer := gomdhtml.NewRenderer(gomdhtml.RendererOptions{Flags: gomdhtml.FlagsNone})
	return gomd.ToHTML(src, p, renderer), nil
}

// GoldmarkConverter uses github.com/yuin/goldmark with GitHub flavored
// extensions.
type GoldmarkConverter struct {
	md goldmark.Markdown
}

func NewGoldmarkConverter() *GoldmarkConverter {
	return &GoldmarkConverter{md: goldmark.New(goldmark.WithExtensions(extension.GFM))}
}

func (c *GoldmarkConverter) ToHTML(src []byte) (out []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("goldmark: %v", r)
		}
	}()
	var buf bytes.Buffer
	if err := c.md.Convert(src, &buf); err != nil {
		return nil, fmt.Errorf("goldmark: %w", err)
	}
	return buf.Bytes(), nil
}
