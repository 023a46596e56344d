// Package delegate runs an external renderer that turns markdown into an
// already branded PDF. The text is written to the child's stdin, metadata is
// passed as a JSON argument and the PDF is read back from stdout.
//
// The delegate is optional: callers probe it with Available and fall back to
// the in-process renderer on any error.
package delegate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
)

const (
	DefaultCommand = "python3"
	DefaultTimeout = 60 * time.Second
	probeTimeout   = 10 * time.Second

	// DefaultMaxOutput bounds the PDF read back from stdout.
	DefaultMaxOutput = 64 << 20

	// maxStderr bounds how much of the child's stderr is kept for errors.
	maxStderr = 64 << 10
)

// probeScript checks that the renderer's libraries import cleanly.
const probeScript = "import reportlab; import markdown; print('OK')"

var (
	ErrTimeout = errors.New("delegate timed out")
	ErrNotPDF  = errors.New("delegate output is not a PDF")

	ErrOutputTooLarge = errors.New("delegate output exceeds the size limit")
)

// Metadata is passed to the delegate as its JSON argument.
type Metadata struct {
	Title    string `json:"title,omitempty"`
	Subtitle string `json:"subtitle,omitempty"`
	Theme    string `json:"theme"`
}

// Error describes a failed delegate invocation.
type Error struct {
	Op       string // "probe", "start", "run" or "output"
	ExitCode int    // -1 when the process did not exit normally
	Stderr   string
	Err      error
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "delegate %s", e.Op)
	if e.ExitCode > 0 {
		fmt.Fprintf(&b, " (exit %d)", e.ExitCode)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	if s := strings.TrimSpace(e.Stderr); s != "" {
		if len(s) > 200 {
			s = s[:200] + "..."
		}
		b.WriteString(": ")
		b.WriteString(s)
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Process is the command line of an external renderer.
type Process struct {
	Command string        // interpreter, python3 by default
	Script  string        // renderer script passed as the first argument
	Dir     string        // working directory, current one when empty
	Timeout time.Duration // per invocation, DefaultTimeout when zero
	// MaxOutput caps stdout in bytes, DefaultMaxOutput when zero.
	MaxOutput int
}

func (p Process) command() string {
	if p.Command == "" {
		return DefaultCommand
	}
	return p.Command
}

func (p Process) maxOutput() int {
	if p.MaxOutput <= 0 {
		return DefaultMaxOutput
	}
	return p.MaxOutput
}

func (p Process) timeout() time.Duration {
	if p.Timeout <= 0 {
		return DefaultTimeout
	}
	return p.Timeout
}

// Available reports whether the interpreter starts and has the renderer's
// libraries installed.
func (p Process) Available(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, min(probeTimeout, p.timeout()))
	defer cancel()
	out, _, err := p.run(ctx, nil, "-c", probeScript)
	return err == nil && strings.Contains(string(out), "OK")
}

// Generate renders text with the external renderer.
func (p Process) Generate(ctx context.Context, text string, meta Metadata) ([]byte, error) {
	if p.Script == "" {
		return nil, &Error{Op: "start", ExitCode: -1, Err: errors.New("no script configured")}
	}
	if meta.Theme == "" {
		meta.Theme = "formal"
	}
	arg, err := json.Marshal(meta)
	if err != nil {
		return nil, &Error{Op: "start", ExitCode: -1, Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout())
	defer cancel()
	out, stderr, err := p.run(ctx, strings.NewReader(text), p.Script, "-", string(arg))
	if err != nil {
		return nil, err
	}
	if !mimetype.Detect(out).Is("application/pdf") {
		return nil, &Error{Op: "output", Stderr: stderr, Err: ErrNotPDF}
	}
	return out, nil
}

func (p Process) run(ctx context.Context, stdin *strings.Reader, args ...string) ([]byte, string, error) {
	cmd := exec.CommandContext(ctx, p.command(), args...)
	cmd.Dir = p.Dir
	if stdin != nil {
		cmd.Stdin = stdin
	}
	stdout := &boundedBuffer{limit: p.maxOutput()}
	stderr := &boundedBuffer{limit: maxStderr}
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	setProcessGroup(cmd)
	cmd.Cancel = func() error {
		killProcessGroup(cmd.Process.Pid)
		return nil
	}
	cmd.WaitDelay = time.Second

	op := "run"
	if len(args) > 0 && args[0] == "-c" {
		op = "probe"
	}

	if err := cmd.Start(); err != nil {
		return nil, "", &Error{Op: "start", ExitCode: -1, Err: err}
	}
	err := cmd.Wait()
	if ctx.Err() == context.DeadlineExceeded {
		return nil, stderr.String(), &Error{Op: op, ExitCode: -1, Stderr: stderr.String(), Err: ErrTimeout}
	}
	if err != nil {
		code := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		}
		return nil, stderr.String(), &Error{Op: op, ExitCode: code, Stderr: stderr.String(), Err: err}
	}
	if stdout.truncated {
		return nil, stderr.String(), &Error{Op: "output", Stderr: stderr.String(), Err: ErrOutputTooLarge}
	}
	return stdout.Bytes(), stderr.String(), nil
}

// boundedBuffer keeps the first limit bytes written and drops the rest,
// noting that it did. The child is never blocked.
type boundedBuffer struct {
	buf       bytes.Buffer
	limit     int
	truncated bool
}

func (b *boundedBuffer) Write(p []byte) (int, error) {
	room := b.limit - b.buf.Len()
	if len(p) > room {
		b.truncated = true
		if room > 0 {
			b.buf.Write(p[:room])
		}
	} else {
		b.buf.Write(p)
	}
	return len(p), nil
}

func (b *boundedBuffer) Bytes() []byte {
	return b.buf.Bytes()
}

func (b *boundedBuffer) String() string {
	return b.buf.String()
}
