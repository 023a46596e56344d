package branding

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/text/cases"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/language"

	"github.com/andreago-sparkensolutions/sparken-branding/markdown"
)

// Route is the path an input takes through the converter.
type Route string

const (
	RouteText        Route = "text"
	RoutePDF         Route = "pdf"
	RoutePassthrough Route = "passthrough"
)

var textExtensions = map[string]bool{
	".md":       true,
	".markdown": true,
	".txt":      true,
}

// Classify picks the route from the file extension, falling back to content
// detection when the name has no known extension.
func Classify(filename string, data []byte) (Route, error) {
	switch ext := strings.ToLower(filepath.Ext(filename)); {
	case textExtensions[ext]:
		return RouteText, nil
	case ext == ".pdf":
		return RoutePDF, nil
	}

	mtype := mimetype.Detect(data)
	switch {
	case mtype.Is("application/pdf"):
		return RoutePDF, nil
	case mtype.Is("text/plain"):
		return RouteText, nil
	}
	return "", inputError(ErrUnsupportedType,
		"unsupported file type %s: upload PDF, Markdown (.md) or Text (.txt) files", mtype.String())
}

// DecodeText returns data as UTF-8. Bytes that are not valid UTF-8 are read
// as Windows-1252, the encoding of most legacy text exports.
func DecodeText(data []byte) string {
	if utf8.Valid(data) {
		return strings.TrimPrefix(string(data), "\ufeff")
	}
	out, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		return strings.ToValidUTF8(string(data), "")
	}
	return string(out)
}

var duplicateSuffix = regexp.MustCompile(`\s*\(\d+\)$`)

// HumanizeFilename turns "q3-board_report (2).pdf" into "Q3 Board Report".
func HumanizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = duplicateSuffix.ReplaceAllString(base, "")
	base = strings.NewReplacer("-", " ", "_", " ").Replace(base)
	base = strings.Join(strings.Fields(base), " ")
	return cases.Title(language.English, cases.NoLower).String(base)
}

// BaseName is the file name without directory and extension.
func BaseName(name string) string {
	base := filepath.Base(name)
	if base == "." || base == string(filepath.Separator) {
		return "document"
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Titles derives the cover title and subtitle. Explicit values win, then the
// first level one and level two headings, then the file name and the brand
// default.
func Titles(text, filename, title, subtitle, defaultSubtitle string) (string, string) {
	if title = strings.TrimSpace(title); title == "" {
		title = markdown.FirstHeading(text, 1)
	}
	if title == "" {
		title = HumanizeFilename(filename)
	}
	if title == "" {
		title = "Document"
	}
	if subtitle = strings.TrimSpace(subtitle); subtitle == "" {
		subtitle = markdown.FirstHeading(text, 2)
	}
	if subtitle == "" {
		subtitle = defaultSubtitle
	}
	return title, subtitle
}
