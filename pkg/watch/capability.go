package watch

import (
	"github.com/arthur-debert/rocas/pkg/types"
	"github.com/fsnotify/fsnotify"
)

// DefaultMaxNativeWatches is the directory count above which the engine
// prefers polling over one native watch per directory
const DefaultMaxNativeWatches = 4096

// Capability is the subscription strategy used by an Engine
type Capability int

const (
	// NativeRecursiveWatch is a single OS-level recursive subscription
	NativeRecursiveWatch Capability = iota
	// NativeFlatWatch is one OS-level watch per directory
	NativeFlatWatch
	// PollingFallback scans the tree on a fixed interval
	PollingFallback
)

func (c Capability) String() string {
	switch c {
	case NativeRecursiveWatch:
		return "native-recursive"
	case NativeFlatWatch:
		return "native-flat"
	case PollingFallback:
		return "polling"
	default:
		return "unknown"
	}
}

// Native reports whether the strategy relies on OS notifications
func (c Capability) Native() bool {
	return c == NativeRecursiveWatch || c == NativeFlatWatch
}

// Probe picks the subscription strategy for cfg. fsnotify has no recursive
// mode, so native watching is always NativeFlatWatch. Polling is chosen when
// forced, when fsnotify cannot be initialised, or when the tree within the
// depth limit has more directories than cfg.MaxNativeWatches.
func Probe(cfg types.WatchConfig, fsys types.FS) (Capability, error) {
	if err := validateRoot(fsys, cfg.Root); err != nil {
		return PollingFallback, err
	}
	if cfg.ForcePolling {
		return PollingFallback, nil
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return PollingFallback, nil
	}
	_ = w.Close()

	limit := cfg.MaxNativeWatches
	if limit <= 0 {
		limit = DefaultMaxNativeWatches
	}
	count := 0
	err = walkDirs(fsys, cfg, cfg.Root, func(string, []fsEntry) error {
		count++
		if count > limit {
			return errTooManyDirs
		}
		return nil
	})
	if err == errTooManyDirs {
		return PollingFallback, nil
	}
	if err != nil {
		return PollingFallback, err
	}
	return NativeFlatWatch, nil
}
