// Package ui renders organizer activity for people and for programs.
//
// Every renderer is an organizer.Sink, so the same value can be handed to the
// organizer and used by the CLI for messages, summaries and rule listings.
// Renderers serialize their own writes and are safe for concurrent use.
package ui

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/arthur-debert/rocas/pkg/organizer"
	"github.com/arthur-debert/rocas/pkg/rules"
)

// Renderer is an organizer.Sink that also renders CLI output
type Renderer interface {
	organizer.Sink
	// Message prints an informational line
	Message(msg string)
	// Summary prints the counts of a finished run
	Summary(s organizer.Summary)
	// Classification prints where a name would be moved, or why not
	Classification(name, destination string, err error)
	// Rules lists the rule set in precedence order
	Rules(rs *rules.RuleSet) error
}

// NewRenderer creates a renderer for format writing to w. FormatAuto is
// resolved with DetectFormat when w is a file and falls back to plain text
// otherwise.
func NewRenderer(format Format, w io.Writer) Renderer {
	if format == FormatAuto {
		format = FormatText
		if f, ok := w.(*os.File); ok {
			format = DetectFormat(f)
		}
	}

	switch format {
	case FormatTerminal:
		return newTerminalRenderer(w, DefaultStyles())
	case FormatJSON:
		return newJSONRenderer(w)
	default:
		return newTextRenderer(w)
	}
}

// ShortenPath replaces a leading home directory with ~
func ShortenPath(path, home string) string {
	if home == "" || path == "" {
		return path
	}
	home = filepath.Clean(home)
	if path == home {
		return "~"
	}
	if strings.HasPrefix(path, home+string(filepath.Separator)) {
		return "~" + path[len(home):]
	}
	return path
}

// HomeDir returns the home directory used to shorten paths
func HomeDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return xdg.Home
}
