package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/arthur-debert/rocas/pkg/errors"
)

// ExpandPath expands a leading ~ and environment variables, and makes the
// result absolute. Relative paths are resolved against base, or the working
// directory when base is empty.
func ExpandPath(path, base string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", nil
	}

	if path == "~" || strings.HasPrefix(path, "~/") || strings.HasPrefix(path, `~\`) {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", errors.Wrap(err, errors.ErrInvalidConfig, "cannot expand ~: home directory unknown")
		}
		path = filepath.Join(home, path[1:])
	}
	path = os.ExpandEnv(path)

	if !filepath.IsAbs(path) {
		if base != "" {
			path = filepath.Join(base, path)
		} else {
			abs, err := filepath.Abs(path)
			if err != nil {
				return "", errors.Wrapf(err, errors.ErrInvalidConfig, "cannot resolve %s", path)
			}
			path = abs
		}
	}
	return filepath.Clean(path), nil
}

// DefaultWatchPath is the user's download directory
func DefaultWatchPath() string {
	if xdg.UserDirs.Download != "" {
		return xdg.UserDirs.Download
	}
	return filepath.Join(xdg.Home, "Downloads")
}

// postProcess fills the default watch path and expands every path.
// Destinations that are relative resolve against the watch path.
func postProcess(cfg *Config) error {
	if strings.TrimSpace(cfg.Watcher.WatchPath) == "" {
		cfg.Watcher.WatchPath = DefaultWatchPath()
	}
	root, err := ExpandPath(cfg.Watcher.WatchPath, "")
	if err != nil {
		return err
	}
	cfg.Watcher.WatchPath = root

	expand := func(p string) (string, error) {
		return ExpandPath(p, root)
	}

	for i := range cfg.Rules {
		if strings.TrimSpace(cfg.Rules[i].Destination) == "" {
			continue
		}
		if cfg.Rules[i].Destination, err = expand(cfg.Rules[i].Destination); err != nil {
			return err
		}
	}
	if cfg.NoExtension.Destination, err = expand(cfg.NoExtension.Destination); err != nil {
		return err
	}
	if cfg.Organizer.Fallback, err = expand(cfg.Organizer.Fallback); err != nil {
		return err
	}
	return nil
}
