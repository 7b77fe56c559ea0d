// Package debounce coalesces raw filesystem events into "file ready" signals.
//
// Every observed path moves through Unseen -> Pending -> Stable, or
// Pending -> Removed when the file goes away first. A Pending path becomes
// Stable once its quiet window elapses without new events and a stat
// recheck shows the same size and modification time as when the window
// started.
//
// A Debouncer is not safe for concurrent use. It is meant to be owned by a
// single goroutine: quiet-window expirations are handed to the notify
// callback, and the owner feeds them back through Expire, so every
// transition for every path happens on the owner's goroutine.
package debounce

import (
	"os"
	"time"

	"github.com/arthur-debert/rocas/pkg/filesystem"
	"github.com/arthur-debert/rocas/pkg/types"
)

// DefaultWindow is the quiet period used when none is configured
const DefaultWindow = 750 * time.Millisecond

// State of a path in the debouncer
type State int

const (
	Unseen State = iota
	Pending
	Stable
	Removed
)

func (s State) String() string {
	switch s {
	case Unseen:
		return "unseen"
	case Pending:
		return "pending"
	case Stable:
		return "stable"
	case Removed:
		return "removed"
	default:
		return "unknown"
	}
}

// Transition is a terminal state change for a path
type Transition struct {
	State State
	File  types.PendingFile
}

// Expiry identifies a quiet window that elapsed. Generation lets the
// debouncer ignore windows that were reset after the timer fired.
type Expiry struct {
	Path       string
	Generation uint64
}

type entry struct {
	file       types.PendingFile
	timer      *time.Timer
	generation uint64
}

// Debouncer tracks pending files for a single owner
type Debouncer struct {
	fs      types.FS
	window  time.Duration
	notify  func(Expiry)
	now     func() time.Time
	entries map[string]*entry
	nextGen uint64
}

// Option configures a Debouncer
type Option func(*Debouncer)

// WithFS sets the filesystem used for stat rechecks
func WithFS(fsys types.FS) Option {
	return func(d *Debouncer) {
		d.fs = fsys
	}
}

// WithClock replaces time.Now for FirstSeen stamps
func WithClock(now func() time.Time) Option {
	return func(d *Debouncer) {
		d.now = now
	}
}

// New creates a Debouncer. notify is called from timer goroutines and must
// hand the Expiry back to the owner without touching the Debouncer.
func New(window time.Duration, notify func(Expiry), opts ...Option) *Debouncer {
	if window <= 0 {
		window = DefaultWindow
	}
	d := &Debouncer{
		fs:      filesystem.NewOS(),
		window:  window,
		notify:  notify,
		now:     time.Now,
		entries: make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Window returns the configured quiet period
func (d *Debouncer) Window() time.Duration {
	return d.window
}

// Observe feeds a raw event. It returns a transition only when the event
// ends the path's lifecycle (Removed).
func (d *Debouncer) Observe(ev types.Event) (Transition, bool) {
	current, tracked := d.entries[ev.Path]

	if ev.Kind == types.EventRemove {
		if !tracked {
			return Transition{}, false
		}
		return d.remove(ev.Path, current), true
	}

	info, err := d.fs.Stat(ev.Path)
	if err != nil {
		if os.IsNotExist(err) && tracked {
			return d.remove(ev.Path, current), true
		}
		if !tracked {
			return Transition{}, false
		}
		// Transient stat failure: keep waiting with the previous snapshot.
		d.arm(ev.Path, current)
		return Transition{}, false
	}
	if info.IsDir() {
		return Transition{}, false
	}

	if !tracked {
		current = &entry{file: types.PendingFile{Path: ev.Path, FirstSeen: d.now()}}
		d.entries[ev.Path] = current
	}
	current.file.Size = info.Size()
	current.file.LastModified = info.ModTime()
	d.arm(ev.Path, current)
	return Transition{}, false
}

// Expire handles an elapsed quiet window. A stale or unknown expiry is
// ignored. When the recheck finds the file changed the window restarts.
func (d *Debouncer) Expire(exp Expiry) (Transition, bool) {
	current, tracked := d.entries[exp.Path]
	if !tracked || current.generation != exp.Generation {
		return Transition{}, false
	}

	info, err := d.fs.Stat(exp.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return d.remove(exp.Path, current), true
		}
		d.arm(exp.Path, current)
		return Transition{}, false
	}

	if info.Size() != current.file.Size || !info.ModTime().Equal(current.file.LastModified) {
		current.file.Size = info.Size()
		current.file.LastModified = info.ModTime()
		d.arm(exp.Path, current)
		return Transition{}, false
	}

	delete(d.entries, exp.Path)
	return Transition{State: Stable, File: current.file}, true
}

// Forget drops a path without a transition
func (d *Debouncer) Forget(path string) {
	if current, ok := d.entries[path]; ok {
		if current.timer != nil {
			current.timer.Stop()
		}
		delete(d.entries, path)
	}
}

// State returns Pending for tracked paths and Unseen otherwise
func (d *Debouncer) State(path string) State {
	if _, ok := d.entries[path]; ok {
		return Pending
	}
	return Unseen
}

// Pending returns a snapshot of a tracked path
func (d *Debouncer) Pending(path string) (types.PendingFile, bool) {
	current, ok := d.entries[path]
	if !ok {
		return types.PendingFile{}, false
	}
	return current.file, true
}

// Len returns the number of pending paths
func (d *Debouncer) Len() int {
	return len(d.entries)
}

// Stop cancels every quiet window and forgets all pending paths
func (d *Debouncer) Stop() {
	for path, current := range d.entries {
		if current.timer != nil {
			current.timer.Stop()
		}
		delete(d.entries, path)
	}
}

func (d *Debouncer) remove(path string, current *entry) Transition {
	if current.timer != nil {
		current.timer.Stop()
	}
	delete(d.entries, path)
	return Transition{State: Removed, File: current.file}
}

func (d *Debouncer) arm(path string, current *entry) {
	if current.timer != nil {
		current.timer.Stop()
	}
	d.nextGen++
	generation := d.nextGen
	current.generation = generation
	notify := d.notify
	current.timer = time.AfterFunc(d.window, func() {
		notify(Expiry{Path: path, Generation: generation})
	})
}
