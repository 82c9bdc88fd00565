package errors

import (
	"bufio"
	stderrors "errors"
	"fmt"
	"os"

	"github.com/vango-dev/navroute/pkg/host/wshost"
	"github.com/vango-dev/navroute/pkg/navigator"
	"github.com/vango-dev/navroute/pkg/router"
	"github.com/vango-dev/navroute/pkg/routepath"
)

// Category represents the type of error.
type Category string

const (
	CategoryValidation Category = "validation"
	CategoryRouting    Category = "routing"
	CategoryConfig     Category = "config"
	CategorySource     Category = "source"
	CategoryRuntime    Category = "runtime"
	CategoryProtocol   Category = "protocol"
	CategoryCLI        Category = "cli"
)

// Location represents a position in a route file.
type Location struct {
	File   string
	Line   int
	Column int
}

// String returns the location as a formatted string.
func (l *Location) String() string {
	if l == nil {
		return ""
	}
	if l.Column > 0 {
		return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
	}
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// NavError is a coded diagnostic with an optional file location and fix
// suggestion.
type NavError struct {
	// Code is a unique error identifier (e.g., "N001").
	Code string

	// Category is the error type.
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Location is the route-file position the error refers to.
	Location *Location

	// Source is the route-file line at Location, without its newline.
	Source string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *NavError) Error() string {
	msg := e.Message
	if e.Wrapped != nil {
		msg += ": " + e.Wrapped.Error()
	}
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, msg)
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *NavError) Unwrap() error {
	return e.Wrapped
}

// WithLocation points the error at a route-file position and keeps that
// line for display. An unreadable file leaves Source empty.
func (e *NavError) WithLocation(file string, line, column int) *NavError {
	e.Location = &Location{File: file, Line: line, Column: column}
	e.Source = sourceLine(file, line)
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *NavError) WithSuggestion(s string) *NavError {
	e.Suggestion = s
	return e
}

// WithDetail replaces the registered explanation.
func (e *NavError) WithDetail(d string) *NavError {
	e.Detail = d
	return e
}

// Wrap wraps another error.
func (e *NavError) Wrap(err error) *NavError {
	e.Wrapped = err
	return e
}

func sourceLine(file string, line int) string {
	f, err := os.Open(file)
	if err != nil {
		return ""
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for n := 1; scanner.Scan(); n++ {
		if n == line {
			return scanner.Text()
		}
	}
	return ""
}

// New creates a NavError from a registered error code.
func New(code string) *NavError {
	template, ok := registry[code]
	if !ok {
		return &NavError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &NavError{
		Code:     code,
		Category: template.Category,
		Message:  template.Message,
		Detail:   template.Detail,
	}
}

// Newf creates a new NavError with a formatted message (no code).
func Newf(category Category, format string, args ...any) *NavError {
	return &NavError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError converts err into a NavError. Errors from the navroute
// packages get their registered code; anything else gets fallbackCode.
func FromError(err error, fallbackCode string) *NavError {
	if err == nil {
		return nil
	}
	var ne *NavError
	if stderrors.As(err, &ne) {
		return ne
	}
	return New(Classify(err, fallbackCode)).Wrap(err)
}

// Classify returns the registered code for a navroute error, or
// fallbackCode.
func Classify(err error, fallbackCode string) string {
	switch {
	case stderrors.Is(err, routepath.ErrInvalidPath):
		return "N001"
	case stderrors.Is(err, router.ErrRouteNotFound):
		return "N002"
	case stderrors.Is(err, routepath.ErrMalformedEscape):
		return "N005"
	case stderrors.Is(err, navigator.ErrNotInitialized),
		stderrors.Is(err, navigator.ErrClosed):
		return "N006"
	case stderrors.Is(err, wshost.ErrHandshake):
		return "N007"
	default:
		return fallbackCode
	}
}
