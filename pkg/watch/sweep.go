package watch

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/arthur-debert/rocas/pkg/types"
	"golang.org/x/sync/errgroup"
)

// Sweep organises the files already present under the root, within the
// configured depth, without waiting for them to settle. It shares the
// engine's rules, ignore list and mover but not its subscription, so it
// can run whether or not the engine is started. callback runs for every
// file, one call at a time.
func (e *Engine) Sweep(ctx context.Context, callback Callback) error {
	if callback == nil {
		callback = func(types.MoveOutcome) {}
	}

	var files []string
	err := walkDirs(e.fs, e.cfg, e.cfg.Root, func(dir string, entries []fsEntry) error {
		for _, entry := range entries {
			if !entry.Type().IsRegular() {
				continue
			}
			path := filepath.Join(dir, entry.Name())
			if e.ignore.matches(path) {
				continue
			}
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return err
	}
	e.logger.Info().Str("root", e.cfg.Root).Int("files", len(files)).Msg("Sweeping")

	var mu sync.Mutex
	report := func(o types.MoveOutcome) {
		mu.Lock()
		defer mu.Unlock()
		callback(o)
	}

	// Wait cancels gctx on return, so only ctx reports a real cancellation.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Workers)
	for _, path := range files {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			dest, skip := e.destinationFor(path)
			if skip != nil {
				report(*skip)
				return nil
			}
			report(e.mover.Move(path, dest))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
