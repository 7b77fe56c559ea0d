package watch

import (
	"github.com/arthur-debert/rocas/pkg/types"
)

// source is a running subscription. Close stops it and waits for its
// goroutines; nothing is delivered after Close returns.
type source interface {
	Close() error
}

type sourceEvent struct {
	gen   uint64
	event types.Event
}

type sourceError struct {
	gen uint64
	err error
}

// feed connects a source to the engine's actor. Every send gives up once
// the source is closed so a stopping source never blocks on the actor.
type feed struct {
	gen    uint64
	events chan<- sourceEvent
	errs   chan<- sourceError
	done   <-chan struct{}
}

func (f feed) event(kind types.EventKind, path string) bool {
	select {
	case f.events <- sourceEvent{gen: f.gen, event: types.Event{Kind: kind, Path: path}}:
		return true
	case <-f.done:
		return false
	}
}

func (f feed) fail(err error) {
	select {
	case f.errs <- sourceError{gen: f.gen, err: err}:
	case <-f.done:
	}
}
