package branding

import (
	"errors"
	"fmt"

	"github.com/andreago-sparkensolutions/sparken-branding/brand"
	"github.com/andreago-sparkensolutions/sparken-branding/delegate"
)

var (
	ErrEmptyInput      = errors.New("empty input")
	ErrInputTooLarge   = errors.New("input too large")
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrUnreadablePDF   = brand.ErrUnreadablePDF
)

// InputError rejects a payload before any layout work. Fixing the input is
// the only way to succeed.
type InputError struct {
	Reason string
	Err    error
}

func (e *InputError) Error() string {
	if e.Reason == "" {
		return e.Err.Error()
	}
	return e.Reason
}

func (e *InputError) Unwrap() error {
	return e.Err
}

func inputError(err error, format string, args ...any) *InputError {
	return &InputError{Reason: fmt.Sprintf(format, args...), Err: err}
}

// RenderError is an unrecoverable failure while building the document.
type RenderError struct {
	Stage string
	Err   error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// DelegateError is returned by the external renderer. Convert never returns
// it; it is logged and the in-process renderer is used instead.
type DelegateError = delegate.Error

// IsInputError reports whether err was caused by the caller's input.
func IsInputError(err error) bool {
	var ie *InputError
	return errors.As(err, &ie)
}
