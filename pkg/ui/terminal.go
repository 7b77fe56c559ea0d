package ui

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/arthur-debert/rocas/pkg/errors"
	"github.com/arthur-debert/rocas/pkg/organizer"
	"github.com/arthur-debert/rocas/pkg/rules"
	"github.com/arthur-debert/rocas/pkg/types"
	"github.com/pterm/pterm"
)

// terminalRenderer prints pterm prefixed lines styled with the style sheet
type terminalRenderer struct {
	mu       sync.Mutex
	w        io.Writer
	home     string
	styles   *StyleSheet
	markdown *MarkdownRenderer

	moved   pterm.PrefixPrinter
	skipped pterm.PrefixPrinter
	failed  pterm.PrefixPrinter
	info    pterm.PrefixPrinter
}

func newTerminalRenderer(w io.Writer, styles *StyleSheet) *terminalRenderer {
	return &terminalRenderer{
		w:        w,
		home:     HomeDir(),
		styles:   styles,
		markdown: NewMarkdownRenderer(),
		moved:    *pterm.Success.WithPrefix(pterm.Prefix{Text: "MOVED", Style: pterm.Success.Prefix.Style}),
		skipped:  *pterm.Warning.WithPrefix(pterm.Prefix{Text: "SKIP", Style: pterm.Warning.Prefix.Style}),
		failed:   *pterm.Error.WithPrefix(pterm.Prefix{Text: "FAILED", Style: pterm.Error.Prefix.Style}),
		info:     pterm.Info,
	}
}

func (r *terminalRenderer) write(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, _ = io.WriteString(r.w, s)
}

func (r *terminalRenderer) path(p string) string {
	return r.styles.Render("Path", ShortenPath(p, r.home))
}

func (r *terminalRenderer) reason(code errors.ErrorCode) string {
	return r.styles.Render("Reason", strings.ToLower(strings.ReplaceAll(string(code), "_", " ")))
}

func (r *terminalRenderer) Outcome(o types.MoveOutcome) {
	switch o.Result {
	case types.ResultMoved:
		r.write(r.moved.Sprintln(r.path(o.Source), "→",
			r.styles.Render("Destination", ShortenPath(o.Destination, r.home))))
	case types.ResultSkipped:
		r.write(r.skipped.Sprintln(r.path(o.Source), r.reason(o.Reason)))
	default:
		msg := r.path(o.Source) + " " + r.reason(o.Reason)
		if o.Err != nil {
			msg += ": " + o.Err.Error()
		}
		r.write(r.failed.Sprintln(msg))
	}
}

func (r *terminalRenderer) Error(err error) {
	r.write(pterm.Error.Sprintln(err.Error()))
}

func (r *terminalRenderer) Message(msg string) {
	r.write(r.info.Sprintln(msg))
}

func (r *terminalRenderer) Summary(s organizer.Summary) {
	var b strings.Builder
	fmt.Fprintf(&b, "%s moved, %s skipped, %s failed in %s\n",
		r.styles.Render("Moved", fmt.Sprint(s.Moved)),
		r.styles.Render("Skipped", fmt.Sprint(s.Skipped)),
		r.styles.Render("Failed", fmt.Sprint(s.Failed)),
		r.styles.Render("Count", s.Duration.Round(time.Millisecond).String()))

	codes := make([]string, 0, len(s.Reasons))
	for code := range s.Reasons {
		codes = append(codes, string(code))
	}
	sort.Strings(codes)
	for _, code := range codes {
		fmt.Fprintf(&b, "  %s %d\n", r.reason(errors.ErrorCode(code)), s.Reasons[errors.ErrorCode(code)])
	}
	r.write(b.String())
}

func (r *terminalRenderer) Classification(name, destination string, err error) {
	if err != nil {
		r.write(r.skipped.Sprintln(name, r.styles.Render("Reason", classificationReason(err))))
		return
	}
	r.write(fmt.Sprintf("%s → %s\n", name, r.styles.Render("Destination", ShortenPath(destination, r.home))))
}

func (r *terminalRenderer) Rules(rs *rules.RuleSet) error {
	r.write(r.markdown.Render(RulesMarkdown(rs, r.home)))
	return nil
}
