package watch

import (
	"path/filepath"
	"strings"

	"github.com/arthur-debert/rocas/pkg/errors"
	"github.com/gobwas/glob"
)

// DefaultIgnore lists the partial-download and temporary file patterns that
// are never moved
var DefaultIgnore = []string{"*.part", "*.crdownload", "*.download", "*.tmp", "*.partial", ".~*"}

type ignoreList []glob.Glob

func compileIgnore(patterns []string) (ignoreList, error) {
	list := make(ignoreList, 0, len(patterns))
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		g, err := glob.Compile(strings.ToLower(p), '/')
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrInvalidConfig, "invalid ignore pattern %q", p)
		}
		list = append(list, g)
	}
	return list, nil
}

// matches reports whether the base name of path is ignored, ignoring case
func (l ignoreList) matches(path string) bool {
	base := strings.ToLower(filepath.Base(path))
	for _, g := range l {
		if g.Match(base) {
			return true
		}
	}
	return false
}
