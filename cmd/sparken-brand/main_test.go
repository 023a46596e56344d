package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
)

func init() {
	color.NoColor = true
}

func runCLI(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, strings.NewReader(stdin), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(prev) })
	return dir
}

func TestRunFile(t *testing.T) {
	dir := chdirTemp(t)
	in := filepath.Join(dir, "plan.md")
	if err := os.WriteFile(in, []byte("# Plan\n\nSteps.\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	code, _, stderr := runCLI(t, "", "-i", in)
	if code != 0 {
		t.Fatalf("exit %d: %s", code, stderr)
	}
	out := filepath.Join(dir, "sparken-branded-plan.pdf")
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("output not written: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Fatalf("output is not a PDF")
	}
	if !strings.Contains(stderr, "sparken-branded-plan.pdf") {
		t.Errorf("success line missing: %q", stderr)
	}
}

func TestRunStdinToStdout(t *testing.T) {
	chdirTemp(t)
	code, stdout, stderr := runCLI(t, "hello from a pipe", "--no-cover", "--no-compress", "--title", "Piped")
	if code != 0 {
		t.Fatalf("exit %d: %s", code, stderr)
	}
	if !strings.HasPrefix(stdout, "%PDF-") {
		t.Fatalf("stdout is not a PDF")
	}
	if n := strings.Count(stdout, "<</Type /Page\n"); n != 1 {
		t.Errorf("pages = %d, want 1 without a cover", n)
	}
}

func TestRunDirectory(t *testing.T) {
	dir := chdirTemp(t)
	docs := filepath.Join(dir, "docs")
	if err := os.Mkdir(docs, 0o755); err != nil {
		t.Fatal(err)
	}
	files := map[string]string{
		"a.md":      "# Alpha\n\nfirst",
		"b.txt":     "second",
		"skip.json": "{}",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(docs, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	got, err := glob(docs, textExts)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("glob = %v, want the two text files", got)
	}

	out := filepath.Join(dir, "combined.pdf")
	code, _, stderr := runCLI(t, "", "-i", docs, "-o", out, "--no-compress")
	if code != 0 {
		t.Fatalf("exit %d: %s", code, stderr)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"(ALPHA) Tj", "(first) Tj", "(second) Tj"} {
		if !bytes.Contains(data, []byte(want)) {
			t.Errorf("output missing %s", want)
		}
	}
}

func TestRunURL(t *testing.T) {
	dir := chdirTemp(t)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/files/report.md" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("# Remote Report\n"))
	}))
	defer ts.Close()

	code, _, stderr := runCLI(t, "", "-i", ts.URL+"/files/report.md")
	if code != 0 {
		t.Fatalf("exit %d: %s", code, stderr)
	}
	if _, err := os.Stat(filepath.Join(dir, "sparken-branded-report.pdf")); err != nil {
		t.Fatalf("output not written: %v", err)
	}

	code, _, stderr = runCLI(t, "", "-i", ts.URL+"/missing.md")
	if code != 1 || !strings.Contains(stderr, "HTTP 404") {
		t.Errorf("exit %d, stderr %q", code, stderr)
	}
}

func TestRunErrors(t *testing.T) {
	dir := chdirTemp(t)
	png := filepath.Join(dir, "logo.png")
	if err := os.WriteFile(png, []byte("\x89PNG\r\n\x1a\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing file", []string{"-i", filepath.Join(dir, "nope.md")}, "error:"},
		{"unsupported", []string{"-i", png}, "invalid input:"},
		{"bad theme", []string{"-i", png, "--theme", "neon"}, "invalid input:"},
		{"bad engine", []string{"--engine", "pandoc"}, "markdown.engine"},
	}
	for _, tc := range tests {
		code, _, stderr := runCLI(t, "x", tc.args...)
		if code != 1 {
			t.Errorf("%s: exit %d, want 1", tc.name, code)
		}
		if !strings.Contains(stderr, tc.want) {
			t.Errorf("%s: stderr %q does not contain %q", tc.name, stderr, tc.want)
		}
	}

	if code, _, _ := runCLI(t, "", "--bogus"); code != 2 {
		t.Errorf("unknown flag: exit %d, want 2", code)
	}
}

func TestRunVersion(t *testing.T) {
	code, stdout, _ := runCLI(t, "", "--version")
	if code != 0 || !strings.HasPrefix(stdout, "sparken-brand dev") {
		t.Errorf("exit %d, stdout %q", code, stdout)
	}
}

func TestOutputPath(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		input, output, want string
	}{
		{"", "", ""},
		{"-", "", ""},
		{"notes.md", "-", ""},
		{"notes.md", "x.pdf", "x.pdf"},
		{"https://example.com/a.md", "", "b.pdf"},
		{dir, "", "b.pdf"},
		{filepath.Join("docs", "a.md"), "", filepath.Join("docs", "b.pdf")},
	}
	for _, tc := range tests {
		if got := outputPath(tc.input, tc.output, "b.pdf"); got != tc.want {
			t.Errorf("outputPath(%q, %q) = %q, want %q", tc.input, tc.output, got, tc.want)
		}
	}
}

func TestRemoteName(t *testing.T) {
	tests := map[string]string{
		"https://example.com/docs/guide.md?raw=1": "guide.md",
		"https://example.com/":                    "remote.md",
		"http://example.com":                      "remote.md",
	}
	for in, want := range tests {
		if got := remoteName(in); got != want {
			t.Errorf("remoteName(%q) = %q, want %q", in, got, want)
		}
	}
}
