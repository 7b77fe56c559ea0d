package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/arthur-debert/rocas/pkg/errors"
	"github.com/arthur-debert/rocas/pkg/organizer"
	"github.com/arthur-debert/rocas/pkg/rules"
	"github.com/arthur-debert/rocas/pkg/types"
)

// textRenderer writes plain lines without styling
type textRenderer struct {
	mu   sync.Mutex
	w    io.Writer
	home string
}

func newTextRenderer(w io.Writer) *textRenderer {
	return &textRenderer{w: w, home: HomeDir()}
}

func (r *textRenderer) printf(format string, args ...interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, _ = fmt.Fprintf(r.w, format, args...)
}

func (r *textRenderer) short(path string) string {
	return ShortenPath(path, r.home)
}

func (r *textRenderer) Outcome(o types.MoveOutcome) {
	switch o.Result {
	case types.ResultMoved:
		r.printf("moved   %s -> %s\n", r.short(o.Source), r.short(o.Destination))
	default:
		line := fmt.Sprintf("%-7s %s (%s)", o.Result, r.short(o.Source), o.Reason)
		if o.Err != nil && o.Result == types.ResultFailed {
			line += ": " + o.Err.Error()
		}
		r.printf("%s\n", line)
	}
}

func (r *textRenderer) Error(err error) {
	r.printf("error: %v\n", err)
}

func (r *textRenderer) Message(msg string) {
	r.printf("%s\n", msg)
}

func (r *textRenderer) Summary(s organizer.Summary) {
	r.printf("%s\n", s.String())
}

func (r *textRenderer) Classification(name, destination string, err error) {
	if err != nil {
		r.printf("%s: %s\n", name, classificationReason(err))
		return
	}
	r.printf("%s -> %s\n", name, r.short(destination))
}

func (r *textRenderer) Rules(rs *rules.RuleSet) error {
	var b strings.Builder
	for i, rule := range rs.Rules() {
		fmt.Fprintf(&b, "%d. %s -> %s\n", i+1, strings.Join(rule.Patterns, ", "), r.short(rule.Destination))
	}
	if d := rs.NoExtensionDestination(); d != "" {
		fmt.Fprintf(&b, "no extension -> %s\n", r.short(d))
	}
	if rs.Unmatched() == rules.FallbackUnmatched {
		fmt.Fprintf(&b, "unmatched -> %s\n", r.short(rs.Fallback()))
	} else {
		b.WriteString("unmatched files are left in place\n")
	}
	r.printf("%s", b.String())
	return nil
}

// classificationReason prefers the error code over the full message
func classificationReason(err error) string {
	if code := errors.GetErrorCode(err); code != errors.ErrUnknown && code != "" {
		return string(code)
	}
	return err.Error()
}
