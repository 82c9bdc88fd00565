package errors

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/vango-dev/navroute/pkg/router"
	"github.com/vango-dev/navroute/pkg/routepath"
)

const (
	ansiReset = "\033[0m"
	ansiBold  = "\033[1m"
	ansiRed   = "\033[31m"
	ansiCyan  = "\033[36m"
	ansiGray  = "\033[90m"
)

var colorEnabled = true

// DisableColors turns off ANSI escapes in Format and PrintError.
func DisableColors() { colorEnabled = false }

// EnableColors turns ANSI escapes back on.
func EnableColors() { colorEnabled = true }

func paint(code, text string) string {
	if !colorEnabled || text == "" {
		return text
	}
	return code + text + ansiReset
}

// Format renders the diagnostic for a terminal. A route-file error shows
// the offending line with the empty segment marked; a path error shows the
// path itself; a not-found error shows the path and the fallback state.
func (e *NavError) Format() string {
	var b strings.Builder

	if e.Code != "" {
		fmt.Fprintf(&b, "%s %s\n", paint(ansiRed+ansiBold, e.Code), paint(ansiBold, e.Message))
	} else {
		fmt.Fprintf(&b, "%s %s\n", paint(ansiRed+ansiBold, "error:"), paint(ansiBold, e.Message))
	}

	shown := e.writeSource(&b)
	if !shown {
		shown = e.writeSubject(&b)
	}

	if e.Detail != "" {
		fmt.Fprintf(&b, "  %s\n", e.Detail)
	}
	if e.Wrapped != nil && !shown {
		fmt.Fprintf(&b, "  cause: %s\n", e.Wrapped.Error())
	}
	if e.Suggestion != "" {
		fmt.Fprintf(&b, "  %s %s\n", paint(ansiCyan, "hint:"), e.Suggestion)
	}
	return b.String()
}

// writeSource prints the location and, when the line could be read, the
// line with a caret. It reports whether the caret names the problem.
func (e *NavError) writeSource(b *strings.Builder) bool {
	if e.Location == nil {
		return false
	}
	fmt.Fprintf(b, "  %s\n", paint(ansiCyan, e.Location.String()))
	if e.Source == "" {
		return false
	}

	num := strconv.Itoa(e.Location.Line)
	bar := paint(ansiGray, "|")
	fmt.Fprintf(b, "  %s %s %s\n", num, bar, e.Source)

	col, label := e.Location.Column-1, ""
	if ip := invalidPath(e.Wrapped); ip != nil {
		// The column points at the YAML value, which may be quoted.
		if at := strings.Index(e.Source, ip.Path); at >= 0 {
			col, label = at+emptySegment(ip.Path), "empty segment"
		}
	}
	if col < 0 {
		return false
	}
	fmt.Fprintf(b, "  %s %s %s%s\n", strings.Repeat(" ", len(num)), bar,
		strings.Repeat(" ", col), paint(ansiRed, strings.TrimSpace("^ "+label)))
	return label != ""
}

// writeSubject prints the path an error is about. It reports whether
// anything was printed.
func (e *NavError) writeSubject(b *strings.Builder) bool {
	if ip := invalidPath(e.Wrapped); ip != nil {
		const label = "  path: "
		fmt.Fprintf(b, "%s%s\n", label, ip.Path)
		fmt.Fprintf(b, "%s%s\n", strings.Repeat(" ", len(label)+emptySegment(ip.Path)), paint(ansiRed, "^ empty segment"))
		return true
	}

	var nf *router.RouteNotFoundError
	if stderrors.As(e.Wrapped, &nf) {
		fallback := "none"
		if nf.Fallback != "" {
			fallback = nf.Fallback + " (not a registered route)"
		}
		fmt.Fprintf(b, "  path:     %s\n", nf.Path)
		fmt.Fprintf(b, "  fallback: %s\n", fallback)
		return true
	}
	return false
}

func invalidPath(err error) *routepath.InvalidPathError {
	var ip *routepath.InvalidPathError
	if err != nil && stderrors.As(err, &ip) {
		return ip
	}
	return nil
}

// emptySegment returns the offset of the slash that closes the first empty
// segment of path.
func emptySegment(path string) int {
	return strings.Index(path, "//") + 1
}

// FormatCompact renders the diagnostic on one line, prefixed by its
// location when it has one.
func (e *NavError) FormatCompact() string {
	parts := make([]string, 0, 4)
	if e.Location != nil {
		parts = append(parts, e.Location.String())
	}
	if e.Code != "" {
		parts = append(parts, e.Code)
	}
	parts = append(parts, e.Message)
	if e.Wrapped != nil {
		parts = append(parts, e.Wrapped.Error())
	}
	return strings.Join(parts, ": ")
}

// PrintError writes err to stderr. See Fprint.
func PrintError(err error) {
	Fprint(os.Stderr, err)
}

// Fprint writes a *NavError as a formatted diagnostic and any other error
// as a single line.
func Fprint(w io.Writer, err error) {
	if ne, ok := err.(*NavError); ok {
		io.WriteString(w, ne.Format())
		return
	}
	fmt.Fprintf(w, "%s %s\n", paint(ansiRed+ansiBold, "error:"), err.Error())
}
