package watch

import (
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/arthur-debert/rocas/pkg/logging"
	"github.com/arthur-debert/rocas/pkg/types"
	"github.com/rs/zerolog"
)

// DefaultPollInterval is the scan interval when none is configured
const DefaultPollInterval = time.Second

type fileState struct {
	size    int64
	modTime time.Time
}

// pollingSource diffs successive snapshots of the tree. The first snapshot
// is a baseline: files that already exist are not reported.
type pollingSource struct {
	cfg      types.WatchConfig
	fs       types.FS
	feed     feed
	interval time.Duration
	done     chan struct{}
	once     sync.Once
	wg       sync.WaitGroup
	logger   zerolog.Logger

	snapshot map[string]fileState
}

func startPolling(cfg types.WatchConfig, fsys types.FS, f feed) (*pollingSource, error) {
	if err := validateRoot(fsys, cfg.Root); err != nil {
		return nil, err
	}

	interval := cfg.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	done := make(chan struct{})
	f.done = done
	s := &pollingSource{
		cfg:      cfg,
		fs:       fsys,
		feed:     f,
		interval: interval,
		done:     done,
		logger:   logging.GetLogger("watch.polling"),
	}

	snapshot, err := s.scan()
	if err != nil {
		return nil, err
	}
	s.snapshot = snapshot

	s.logger.Debug().Str("root", cfg.Root).Dur("interval", interval).Int("files", len(snapshot)).
		Msg("Polling watch started")
	s.wg.Add(1)
	go s.run()
	return s, nil
}

func (s *pollingSource) run() {
	defer s.wg.Done()
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if !s.tick() {
				return
			}
		case <-s.done:
			return
		}
	}
}

// tick rescans the tree and reports differences. It returns false when the
// source must stop.
func (s *pollingSource) tick() bool {
	if err := validateRoot(s.fs, s.cfg.Root); err != nil {
		s.feed.fail(err)
		return false
	}
	next, err := s.scan()
	if err != nil {
		s.feed.fail(err)
		return false
	}

	for _, ev := range diff(s.snapshot, next) {
		if !s.feed.event(ev.Kind, ev.Path) {
			return false
		}
	}
	s.snapshot = next
	return true
}

func (s *pollingSource) scan() (map[string]fileState, error) {
	snapshot := make(map[string]fileState)
	err := walkDirs(s.fs, s.cfg, s.cfg.Root, func(dir string, entries []fsEntry) error {
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			info, err := entry.Info()
			if err != nil {
				// Gone between ReadDir and Info.
				continue
			}
			snapshot[filepath.Join(dir, entry.Name())] = fileState{size: info.Size(), modTime: info.ModTime()}
		}
		return nil
	})
	return snapshot, err
}

// diff returns create, modify and remove events between two snapshots in
// path order
func diff(prev, next map[string]fileState) []types.Event {
	var events []types.Event
	for path, state := range next {
		old, existed := prev[path]
		switch {
		case !existed:
			events = append(events, types.Event{Kind: types.EventCreate, Path: path})
		case old.size != state.size || !old.modTime.Equal(state.modTime):
			events = append(events, types.Event{Kind: types.EventModify, Path: path})
		}
	}
	for path := range prev {
		if _, ok := next[path]; !ok {
			events = append(events, types.Event{Kind: types.EventRemove, Path: path})
		}
	}
	sort.Slice(events, func(i, j int) bool {
		if events[i].Path == events[j].Path {
			return events[i].Kind < events[j].Kind
		}
		return events[i].Path < events[j].Path
	})
	return events
}

func (s *pollingSource) Close() error {
	s.once.Do(func() {
		close(s.done)
		s.wg.Wait()
	})
	return nil
}
