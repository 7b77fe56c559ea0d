package types

import (
	"fmt"

	"github.com/arthur-debert/rocas/pkg/errors"
)

// Result is the classification of a MoveOutcome
type Result int

const (
	ResultMoved Result = iota
	ResultSkipped
	ResultFailed
)

func (r Result) String() string {
	switch r {
	case ResultMoved:
		return "moved"
	case ResultSkipped:
		return "skipped"
	case ResultFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// MoveOutcome reports what happened to a single file. It is emitted for
// every processed file and never persisted.
type MoveOutcome struct {
	Source      string
	Destination string
	Result      Result
	// Reason holds the error code for skipped and failed outcomes
	Reason errors.ErrorCode
	Err    error
}

// Moved builds a successful outcome
func Moved(source, destination string) MoveOutcome {
	return MoveOutcome{Source: source, Destination: destination, Result: ResultMoved}
}

// Skipped builds an outcome for a file that was intentionally left alone
func Skipped(source, destination string, reason errors.ErrorCode, err error) MoveOutcome {
	return MoveOutcome{Source: source, Destination: destination, Result: ResultSkipped, Reason: reason, Err: err}
}

// Failed builds an outcome for a file whose move did not happen
func Failed(source, destination string, reason errors.ErrorCode, err error) MoveOutcome {
	return MoveOutcome{Source: source, Destination: destination, Result: ResultFailed, Reason: reason, Err: err}
}

func (o MoveOutcome) String() string {
	switch o.Result {
	case ResultMoved:
		return fmt.Sprintf("moved %s -> %s", o.Source, o.Destination)
	default:
		if o.Err != nil {
			return fmt.Sprintf("%s %s (%s): %v", o.Result, o.Source, o.Reason, o.Err)
		}
		return fmt.Sprintf("%s %s (%s)", o.Result, o.Source, o.Reason)
	}
}
