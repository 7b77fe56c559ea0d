package watch

import (
	stderrors "errors"
	"io/fs"
	"path/filepath"

	"github.com/arthur-debert/rocas/pkg/errors"
	"github.com/arthur-debert/rocas/pkg/types"
)

type fsEntry = fs.DirEntry

var errTooManyDirs = stderrors.New("too many directories")

func validateRoot(fsys types.FS, root string) error {
	info, err := fsys.Stat(root)
	if err != nil {
		return errors.Wrapf(err, errors.ErrInvalidConfig, "watch root %s is not accessible", root)
	}
	if !info.IsDir() {
		return errors.Newf(errors.ErrInvalidConfig, "watch root %s is not a directory", root)
	}
	return nil
}

// walkDirs calls fn for start and every directory below it that cfg allows,
// breadth first. Only an unreadable start directory is an error; deeper
// read failures are skipped. Symlinked directories are not followed.
func walkDirs(fsys types.FS, cfg types.WatchConfig, start string, fn func(dir string, entries []fsEntry) error) error {
	queue := []string{start}
	for len(queue) > 0 {
		dir := queue[0]
		queue = queue[1:]

		entries, err := fsys.ReadDir(dir)
		if err != nil {
			if dir == start {
				return err
			}
			continue
		}
		if err := fn(dir, entries); err != nil {
			return err
		}

		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			sub := filepath.Join(dir, entry.Name())
			if cfg.AllowsDir(types.DepthOf(cfg.Root, sub)) {
				queue = append(queue, sub)
			}
		}
	}
	return nil
}
