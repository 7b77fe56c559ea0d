package ui

import (
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/arthur-debert/rocas/pkg/errors"
	"github.com/arthur-debert/rocas/pkg/organizer"
	"github.com/arthur-debert/rocas/pkg/rules"
	"github.com/arthur-debert/rocas/pkg/types"
)

// Record is one line of JSON output
type Record struct {
	Type        string         `json:"type"`
	Source      string         `json:"source,omitempty"`
	Destination string         `json:"destination,omitempty"`
	Result      string         `json:"result,omitempty"`
	Reason      string         `json:"reason,omitempty"`
	Error       string         `json:"error,omitempty"`
	Message     string         `json:"message,omitempty"`
	Summary     *SummaryRecord `json:"summary,omitempty"`
	Rules       []RuleRecord   `json:"rules,omitempty"`
}

// SummaryRecord is the JSON form of organizer.Summary
type SummaryRecord struct {
	Moved      int            `json:"moved"`
	Skipped    int            `json:"skipped"`
	Failed     int            `json:"failed"`
	Reasons    map[string]int `json:"reasons,omitempty"`
	DurationMS int64          `json:"duration_ms"`
}

// RuleRecord is the JSON form of a rule; the no-extension and fallback
// destinations are reported with a kind instead of patterns
type RuleRecord struct {
	Kind        string   `json:"kind"`
	Patterns    []string `json:"patterns,omitempty"`
	Destination string   `json:"destination"`
}

// jsonRenderer writes one JSON object per line
type jsonRenderer struct {
	mu  sync.Mutex
	enc *json.Encoder
}

func newJSONRenderer(w io.Writer) *jsonRenderer {
	return &jsonRenderer{enc: json.NewEncoder(w)}
}

func (r *jsonRenderer) emit(rec Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.enc.Encode(rec)
}

func (r *jsonRenderer) Outcome(o types.MoveOutcome) {
	rec := Record{
		Type:        "outcome",
		Source:      o.Source,
		Destination: o.Destination,
		Result:      o.Result.String(),
		Reason:      string(o.Reason),
	}
	if o.Err != nil {
		rec.Error = o.Err.Error()
	}
	_ = r.emit(rec)
}

func (r *jsonRenderer) Error(err error) {
	_ = r.emit(Record{Type: "error", Reason: string(errors.GetErrorCode(err)), Error: err.Error()})
}

func (r *jsonRenderer) Message(msg string) {
	_ = r.emit(Record{Type: "message", Message: msg})
}

func (r *jsonRenderer) Summary(s organizer.Summary) {
	sum := &SummaryRecord{
		Moved:      s.Moved,
		Skipped:    s.Skipped,
		Failed:     s.Failed,
		DurationMS: s.Duration.Round(time.Millisecond).Milliseconds(),
	}
	if len(s.Reasons) > 0 {
		sum.Reasons = make(map[string]int, len(s.Reasons))
		for code, n := range s.Reasons {
			sum.Reasons[string(code)] = n
		}
	}
	_ = r.emit(Record{Type: "summary", Summary: sum})
}

func (r *jsonRenderer) Classification(name, destination string, err error) {
	rec := Record{Type: "classification", Source: name, Destination: destination}
	if err != nil {
		rec.Reason = string(errors.GetErrorCode(err))
		rec.Error = err.Error()
	}
	_ = r.emit(rec)
}

func (r *jsonRenderer) Rules(rs *rules.RuleSet) error {
	var list []RuleRecord
	for _, rule := range rs.Rules() {
		list = append(list, RuleRecord{Kind: "pattern", Patterns: rule.Patterns, Destination: rule.Destination})
	}
	if d := rs.NoExtensionDestination(); d != "" {
		list = append(list, RuleRecord{Kind: "no_extension", Destination: d})
	}
	if rs.Unmatched() == rules.FallbackUnmatched {
		list = append(list, RuleRecord{Kind: "fallback", Destination: rs.Fallback()})
	}
	return r.emit(Record{Type: "rules", Rules: list})
}
