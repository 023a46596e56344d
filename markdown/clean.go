package markdown

import (
	"regexp"
	"strings"
)

type cleanRule struct {
	name string
	re   *regexp.Regexp
	repl string
}

// cleanRules run in order over the raw source before conversion. They remove
// artifacts left behind by PDF-to-text exports and editor tooling.
var cleanRules = []cleanRule{
	{"comment", regexp.MustCompile(`(?s)<!--.*?-->`), ""},
	{"anchor", regexp.MustCompile(`[ \t]*\{#[^}\n]*\}`), ""},
	{"page-marker", regexp.MustCompile(`(?m)^[ \t]*--[ \t]*\d+[ \t]+of[ \t]+\d+[ \t]*--[ \t]*$`), ""},
	{"page-footer", regexp.MustCompile(`(?m)^[ \t]*Page[ \t]+\d+[ \t]+of[ \t]+\d+([ \t]+\w+)?[ \t]*$`), ""},
	{"horizontal-rule", regexp.MustCompile(`(?m)^ {0,3}(?:(?:-[ \t]*){3,}|(?:\*[ \t]*){3,}|(?:_[ \t]*){3,})$`), ""},
	{"bullet-artifact", regexp.MustCompile(`(?m)^[ \t]*(?:•[ \t]*(?:--)?|-)[ \t]*$`), ""},
	{"empty-heading", regexp.MustCompile(`(?m)^[ \t]*#{1,6}[ \t]*$`), ""},
	{"blank-lines", regexp.MustCompile(`\n{3,}`), "\n\n"},
}

// Clean strips comments, heading anchors, rules and page-break artifacts.
func Clean(src string) string {
	src = strings.ReplaceAll(src, "\r\n", "\n")
	for _, rule := range cleanRules {
		src = rule.re.ReplaceAllString(src, rule.repl)
	}
	return src
}

// syntaxRules undo markdown that survived conversion. They are a safety net
// for converter edge cases, not a parser.
var syntaxRules = []cleanRule{
	{"image", regexp.MustCompile(`!\[([^\]]*)\]\([^)]*\)`), "$1"},
	{"link", regexp.MustCompile(`\[([^\]]+)\]\([^)]*\)`), "$1"},
	{"strong-star", regexp.MustCompile(`\*\*([^*]+)\*\*`), "$1"},
	{"strong-underscore", regexp.MustCompile(`__([^_]+)__`), "$1"},
	{"em-star", regexp.MustCompile(`\*([^*\s][^*]*)\*`), "$1"},
	{"em-underscore", regexp.MustCompile(`\b_([^_\s][^_]*)_\b`), "$1"},
	{"code", regexp.MustCompile("`([^`]*)`"), "$1"},
	{"escape", regexp.MustCompile(`\\([\\` + "`" + `*_{}\[\]()#+\-.!|<>~=$@&^%])`), "$1"},
}

// StripSyntax removes bold, italic, code, link and escape syntax.
func StripSyntax(s string) string {
	for _, rule := range syntaxRules {
		s = rule.re.ReplaceAllString(s, rule.repl)
	}
	return s
}

var (
	tagRe       = regexp.MustCompile(`<[^>]*>`)
	atxRe       = regexp.MustCompile(`^#{1,6}[ \t]+`)
	closingRe   = regexp.MustCompile(`[ \t]+#+[ \t]*$`)
	listRe      = regexp.MustCompile(`^(?:[-*+]|\d+[.)])[ \t]+`)
	pipeRowRe   = regexp.MustCompile(`^\s*\|.*\|\s*$`)
	separatorRe = regexp.MustCompile(`^\s*:?-+:?\s*$`)
)

// IsSeparator reports whether every cell is a markdown alignment marker
// such as "---" or ":--:".
func IsSeparator(cells []string) bool {
	if len(cells) == 0 {
		return false
	}
	for _, c := range cells {
		if !separatorRe.MatchString(c) {
			return false
		}
	}
	return true
}

// SplitPipeRow splits "| a | b |" into trimmed cells. ok is false when line
// is not a pipe row.
func SplitPipeRow(line string) (cells []string, ok bool) {
	if !pipeRowRe.MatchString(line) {
		return nil, false
	}
	line = strings.TrimSpace(line)
	line = strings.TrimPrefix(line, "|")
	line = strings.TrimSuffix(line, "|")
	for _, c := range strings.Split(line, "|") {
		cells = append(cells, strings.TrimSpace(c))
	}
	return cells, true
}

// FirstHeading returns the text of the first ATX heading of exactly the
// given level, or "".
func FirstHeading(src string, level int) string {
	prefix := strings.Repeat("#", level) + " "
	for _, line := range strings.Split(src, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, prefix) {
			text := strings.TrimSpace(strings.TrimPrefix(line, prefix))
			text = closingRe.ReplaceAllString(text, "")
			text = Clean(text)
			return strings.TrimSpace(StripSyntax(text))
		}
	}
	return ""
}
