package types

import (
	"path/filepath"
	"strings"
	"time"
)

// EventKind classifies a raw filesystem notification
type EventKind int

const (
	EventCreate EventKind = iota
	EventModify
	EventRemove
)

func (k EventKind) String() string {
	switch k {
	case EventCreate:
		return "create"
	case EventModify:
		return "modify"
	case EventRemove:
		return "remove"
	default:
		return "unknown"
	}
}

// Event is a raw create/modify/remove notification for a path, produced by
// either the native or the polling watch source.
type Event struct {
	Kind EventKind
	Path string
}

// WatchConfig describes what the watch engine monitors and how.
type WatchConfig struct {
	// Root is the directory being watched
	Root string

	// Recursive enables watching subdirectories of Root
	Recursive bool

	// MaxDepth limits recursion, counted from Root (depth 0). Zero means unlimited.
	MaxDepth int

	// PollInterval is the scan interval of the polling fallback
	PollInterval time.Duration

	// Debounce is the quiet window a file must stay untouched before it is moved
	Debounce time.Duration

	// Workers is the size of the move worker pool
	Workers int

	// ForcePolling disables native notifications
	ForcePolling bool

	// MaxNativeWatches caps the number of directories watched natively before
	// the engine falls back to polling
	MaxNativeWatches int

	// Ignore holds glob patterns of files that are never considered (partial downloads etc.)
	Ignore []string
}

// DepthOf returns the directory depth of dir relative to root, root itself
// being depth 0. It returns -1 when dir is outside root.
func DepthOf(root, dir string) int {
	rel, err := filepath.Rel(root, dir)
	if err != nil {
		return -1
	}
	if rel == "." {
		return 0
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return -1
	}
	return strings.Count(rel, string(filepath.Separator)) + 1
}

// AllowsDir reports whether a directory at the given depth is within the
// configured watch scope.
func (c WatchConfig) AllowsDir(depth int) bool {
	if depth < 0 {
		return false
	}
	if depth == 0 {
		return true
	}
	if !c.Recursive {
		return false
	}
	return c.MaxDepth == 0 || depth <= c.MaxDepth
}

// PendingFile is a file that has been observed but has not settled yet
type PendingFile struct {
	Path         string
	FirstSeen    time.Time
	LastModified time.Time
	Size         int64
}
