package organizer

import (
	"fmt"
	"time"

	"github.com/arthur-debert/rocas/pkg/errors"
	"github.com/arthur-debert/rocas/pkg/types"
)

// Sink receives outcomes and fatal errors. Outcome calls are never
// concurrent.
type Sink interface {
	Outcome(types.MoveOutcome)
	Error(error)
}

// Summary counts the outcomes of a run
type Summary struct {
	Moved    int
	Skipped  int
	Failed   int
	Reasons  map[errors.ErrorCode]int
	Started  time.Time
	Duration time.Duration
}

func newSummary(start time.Time) Summary {
	return Summary{Started: start, Reasons: make(map[errors.ErrorCode]int)}
}

// Add counts one outcome
func (s *Summary) Add(o types.MoveOutcome) {
	switch o.Result {
	case types.ResultMoved:
		s.Moved++
	case types.ResultSkipped:
		s.Skipped++
	case types.ResultFailed:
		s.Failed++
	}
	if o.Reason != "" {
		if s.Reasons == nil {
			s.Reasons = make(map[errors.ErrorCode]int)
		}
		s.Reasons[o.Reason]++
	}
}

// Total is the number of outcomes counted
func (s Summary) Total() int {
	return s.Moved + s.Skipped + s.Failed
}

func (s Summary) String() string {
	return fmt.Sprintf("%d moved, %d skipped, %d failed in %s",
		s.Moved, s.Skipped, s.Failed, s.Duration.Round(time.Millisecond))
}
