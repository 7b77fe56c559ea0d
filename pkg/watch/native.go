package watch

import (
	stderrors "errors"
	"path/filepath"
	"sync"

	"github.com/arthur-debert/rocas/pkg/errors"
	"github.com/arthur-debert/rocas/pkg/logging"
	"github.com/arthur-debert/rocas/pkg/types"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// nativeSource keeps one fsnotify watch per directory within the depth
// limit. Directories created later are added as they appear.
type nativeSource struct {
	cfg     types.WatchConfig
	fs      types.FS
	watcher *fsnotify.Watcher
	feed    feed
	done    chan struct{}
	once    sync.Once
	wg      sync.WaitGroup
	logger  zerolog.Logger

	// owned by the run goroutine after start
	watched map[string]bool
}

func startNative(cfg types.WatchConfig, fsys types.FS, f feed) (*nativeSource, error) {
	if err := validateRoot(fsys, cfg.Root); err != nil {
		return nil, err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrWatchSubsystem, "cannot create native watcher")
	}

	done := make(chan struct{})
	f.done = done
	s := &nativeSource{
		cfg:     cfg,
		fs:      fsys,
		watcher: w,
		feed:    f,
		done:    done,
		logger:  logging.GetLogger("watch.native"),
		watched: make(map[string]bool),
	}

	err = walkDirs(fsys, cfg, cfg.Root, func(dir string, _ []fsEntry) error {
		return s.add(dir)
	})
	if err != nil {
		_ = w.Close()
		return nil, errors.Wrap(err, errors.ErrWatchSubsystem, "cannot watch directory tree")
	}

	s.logger.Debug().Str("root", cfg.Root).Int("watches", len(s.watched)).Msg("Native watch started")
	s.wg.Add(1)
	go s.run()
	return s, nil
}

func (s *nativeSource) add(dir string) error {
	if s.watched[dir] {
		return nil
	}
	limit := s.cfg.MaxNativeWatches
	if limit <= 0 {
		limit = DefaultMaxNativeWatches
	}
	if len(s.watched) >= limit {
		s.logger.Warn().Str("dir", dir).Int("limit", limit).Msg("Watch limit reached, directory not watched")
		return nil
	}
	if err := s.watcher.Add(dir); err != nil {
		return err
	}
	s.watched[dir] = true
	return nil
}

func (s *nativeSource) run() {
	defer s.wg.Done()
	for {
		select {
		case ev, ok := <-s.watcher.Events:
			if !ok {
				s.closedUnexpectedly()
				return
			}
			if !s.handle(ev) {
				return
			}
		case err, ok := <-s.watcher.Errors:
			if !ok {
				s.closedUnexpectedly()
				return
			}
			if stderrors.Is(err, fsnotify.ErrEventOverflow) {
				s.logger.Warn().Err(err).Msg("Native event queue overflowed, some events were lost")
				continue
			}
			s.feed.fail(errors.Wrap(err, errors.ErrWatchSubsystem, "native watcher error"))
			return
		case <-s.done:
			return
		}
	}
}

func (s *nativeSource) closedUnexpectedly() {
	select {
	case <-s.done:
	default:
		s.feed.fail(errors.New(errors.ErrWatchSubsystem, "native event stream closed"))
	}
}

// handle translates one fsnotify event. It returns false when the source
// must stop.
func (s *nativeSource) handle(ev fsnotify.Event) bool {
	path := filepath.Clean(ev.Name)
	s.logger.Trace().Str("path", path).Str("op", ev.Op.String()).Msg("Native event")

	if path == s.cfg.Root && (ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename)) {
		s.feed.fail(errors.Newf(errors.ErrWatchSubsystem, "watch root %s was removed", s.cfg.Root))
		return false
	}

	switch {
	case ev.Has(fsnotify.Create):
		info, err := s.fs.Lstat(path)
		if err == nil && info.IsDir() {
			return s.addTree(path)
		}
		return s.feed.event(types.EventCreate, path)
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		s.forget(path)
		return s.feed.event(types.EventRemove, path)
	case ev.Has(fsnotify.Write), ev.Has(fsnotify.Chmod):
		return s.feed.event(types.EventModify, path)
	}
	return true
}

// addTree watches a newly created directory and its subdirectories, and
// reports the files they already contain as created: they may have been
// written before the watch existed.
func (s *nativeSource) addTree(dir string) bool {
	if !s.cfg.AllowsDir(types.DepthOf(s.cfg.Root, dir)) {
		return true
	}
	var files []string
	err := walkDirs(s.fs, s.cfg, dir, func(d string, entries []fsEntry) error {
		if err := s.add(d); err != nil {
			s.logger.Warn().Err(err).Str("dir", d).Msg("Cannot watch new directory")
		}
		for _, entry := range entries {
			if !entry.IsDir() {
				files = append(files, filepath.Join(d, entry.Name()))
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Debug().Err(err).Str("dir", dir).Msg("New directory vanished before it was watched")
		return true
	}
	for _, file := range files {
		if !s.feed.event(types.EventCreate, file) {
			return false
		}
	}
	return true
}

// forget drops watches for a removed or renamed directory and everything
// below it. fsnotify already dropped the kernel watch for deleted paths.
func (s *nativeSource) forget(path string) {
	prefix := path + string(filepath.Separator)
	for dir := range s.watched {
		if dir == path || (len(dir) > len(prefix) && dir[:len(prefix)] == prefix) {
			_ = s.watcher.Remove(dir)
			delete(s.watched, dir)
		}
	}
}

func (s *nativeSource) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		err = s.watcher.Close()
		s.wg.Wait()
	})
	return err
}
