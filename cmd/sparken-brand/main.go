package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/fatih/color"
	flag "github.com/spf13/pflag"
	"go.uber.org/zap"
	"golang.org/x/exp/slices"

	branding "github.com/andreago-sparkensolutions/sparken-branding"
	"github.com/andreago-sparkensolutions/sparken-branding/internal/config"
	"github.com/andreago-sparkensolutions/sparken-branding/internal/logger"
)

var version = "dev"
var commit = "none"
var date = "unknown"

var httpRegex = regexp.MustCompile("^https?://")

var textExts = []string{".md", ".markdown", ".txt"}

type options struct {
	input      string
	output     string
	title      string
	subtitle   string
	theme      string
	noCover    bool
	engine     string
	delegate   string
	config     string
	logFile    string
	debug      bool
	version    bool
	help       bool
	noCompress bool
}

func newFlagSet(o *options, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet("sparken-brand", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVarP(&o.input, "input", "i", "", "Input file (.md|.markdown|.txt|.pdf), dir of text files or HTTP(s) URL; default is os.Stdin")
	fs.StringVarP(&o.output, "output", "o", "", "Output PDF filename; default is the branded name next to the input, or stdout for stdin")
	fs.StringVar(&o.title, "title", "", "Cover title (default: first # heading or the file name)")
	fs.StringVar(&o.subtitle, "subtitle", "", "Cover subtitle (default: first ## heading or the brand line)")
	fs.StringVar(&o.theme, "theme", "formal", "Cover theme [formal | creative]")
	fs.BoolVar(&o.noCover, "no-cover", false, "Don't add a cover page")
	fs.StringVar(&o.engine, "engine", "", "Markdown engine [gomarkdown | goldmark] (default from config)")
	fs.StringVar(&o.delegate, "delegate", "", "Path to an external renderer script; enables the delegate")
	fs.StringVar(&o.config, "config", "", "Path to a YAML config file")
	fs.StringVar(&o.logFile, "log-file", "", "Path to log file")
	fs.BoolVar(&o.debug, "debug", false, "Enable debug logging")
	fs.BoolVar(&o.noCompress, "no-compress", false, "Write uncompressed PDF streams")
	fs.BoolVar(&o.version, "version", false, "Print version and build info")
	fs.BoolVarP(&o.help, "help", "h", false, "Show usage message")
	return fs
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run is main without the process globals. It returns the exit code.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var o options
	fs := newFlagSet(&o, stderr)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	// Support positional arguments: sparken-brand input.md [output.pdf]
	if o.input == "" && fs.NArg() > 0 {
		o.input = fs.Arg(0)
	}
	if o.output == "" && fs.NArg() > 1 {
		o.output = fs.Arg(1)
	}

	if o.help {
		fmt.Fprintf(stderr, "Usage: sparken-brand (%s) [options] [input] [output]\n", version)
		fs.PrintDefaults()
		return 0
	}
	if o.version {
		fmt.Fprintf(stdout, "sparken-brand %s (commit %s, built %s)\n", version, commit, date)
		return 0
	}

	cfg, err := config.Load(o.config)
	if err != nil {
		return fail(stderr, err)
	}
	if o.engine != "" {
		cfg.Markdown.Engine = o.engine
	}
	if o.delegate != "" {
		cfg.Delegate.Enabled = true
		cfg.Delegate.Script = o.delegate
	}
	if o.logFile != "" {
		cfg.Log.File = o.logFile
	}
	if err := cfg.Validate(); err != nil {
		return fail(stderr, err)
	}

	log := logger.New(logger.Options{FilePath: cfg.Log.File, Debug: o.debug || cfg.Log.Debug, Console: stderr})
	defer log.Sync()

	convOpts, err := cfg.ConverterOptions(log)
	if err != nil {
		return fail(stderr, err)
	}
	if o.noCompress {
		convOpts = append(convOpts, branding.WithCompression(false))
	}
	conv := branding.New(convOpts...)

	name, content, err := readInput(ctx, o.input, stdin)
	if err != nil {
		return fail(stderr, err)
	}
	log.Debug("input read", zap.String("name", name), zap.Int("bytes", len(content)))

	in := branding.Input{
		Filename: name,
		Data:     content,
		Title:    o.title,
		Subtitle: o.subtitle,
		Theme:    o.theme,
	}
	if o.noCover {
		cover := false
		in.AddCoverPage = &cover
	}
	res, err := conv.Convert(ctx, in)
	if err != nil {
		return fail(stderr, err)
	}

	dest := outputPath(o.input, o.output, res.Filename)
	if dest == "" {
		if _, err := stdout.Write(res.PDF); err != nil {
			return fail(stderr, err)
		}
		return 0
	}
	if err := os.WriteFile(dest, res.PDF, 0o644); err != nil {
		return fail(stderr, err)
	}
	color.New(color.FgGreen).Fprintf(stderr, "✓ %s → %s", name, dest)
	fmt.Fprintf(stderr, " (%s, %s engine, %d bytes)\n", res.Route, res.Engine, len(res.PDF))
	return 0
}

func fail(stderr io.Writer, err error) int {
	prefix := "error"
	if branding.IsInputError(err) {
		prefix = "invalid input"
	}
	color.New(color.FgRed).Fprintf(stderr, "%s: ", prefix)
	fmt.Fprintln(stderr, err)
	return 1
}

// readInput returns the file name used for routing and the raw bytes.
func readInput(ctx context.Context, input string, stdin io.Reader) (string, []byte, error) {
	switch {
	case input == "" || input == "-":
		content, err := io.ReadAll(stdin)
		return "document", content, err
	case httpRegex.MatchString(input):
		content, err := processRemoteInputFile(ctx, input)
		if err != nil {
			return "", nil, err
		}
		return remoteName(input), content, nil
	}

	fileInfo, err := os.Stat(input)
	if err != nil {
		return "", nil, err
	}
	if !fileInfo.IsDir() {
		content, err := os.ReadFile(input)
		return filepath.Base(input), content, err
	}

	files, err := glob(input, textExts)
	if err != nil {
		return "", nil, err
	}
	if len(files) == 0 {
		return "", nil, fmt.Errorf("%s: no %s files", input, strings.Join(textExts, ", "))
	}
	var content []byte
	for i, filePath := range files {
		fileContents, err := os.ReadFile(filePath)
		if err != nil {
			return "", nil, err
		}
		content = append(content, fileContents...)
		if i < len(files)-1 {
			content = append(content, "\n\n"...)
		}
	}
	return filepath.Base(filepath.Clean(input)) + ".md", content, nil
}

func processRemoteInputFile(ctx context.Context, rawURL string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, errors.New("received non 200 response code: " + fmt.Sprintf("HTTP %d", resp.StatusCode))
	}
	return io.ReadAll(resp.Body)
}

// remoteName is the last path segment of a URL, or "remote.md".
func remoteName(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "remote.md"
	}
	base := path.Base(u.Path)
	if base == "." || base == "/" || base == "" {
		return "remote.md"
	}
	return base
}

// glob lists the files below dir with one of exts, in lexical order.
func glob(dir string, exts []string) ([]string, error) {
	files := []string{}
	err := filepath.Walk(dir, func(path string, f os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !f.IsDir() && slices.Contains(exts, strings.ToLower(filepath.Ext(path))) {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// outputPath picks where the PDF goes. An empty result means stdout.
func outputPath(input, output, branded string) string {
	switch {
	case output == "-":
		return ""
	case output != "":
		return output
	case input == "" || input == "-":
		return ""
	case httpRegex.MatchString(input):
		return branded
	}
	if fi, err := os.Stat(input); err == nil && fi.IsDir() {
		return branded
	}
	return filepath.Join(filepath.Dir(input), branded)
}
