package mover

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/rocas/pkg/errors"
	"github.com/arthur-debert/rocas/pkg/filesystem"
	"github.com/arthur-debert/rocas/pkg/logging"
	"github.com/arthur-debert/rocas/pkg/types"
	"github.com/rs/zerolog"
)

const (
	// DefaultCollisionFormat renders the disambiguator inserted before the extension
	DefaultCollisionFormat = " (%d)"
	// DefaultMaxAttempts bounds the number of candidate names tried
	DefaultMaxAttempts = 1000

	dirPerm = 0755
)

// Mover moves files into destination directories without overwriting
type Mover struct {
	fs              types.FS
	collisionFormat string
	maxAttempts     int
	logger          zerolog.Logger
}

// Option configures a Mover
type Option func(*Mover)

// WithFS sets the filesystem implementation
func WithFS(fsys types.FS) Option {
	return func(m *Mover) {
		m.fs = fsys
	}
}

// WithCollisionFormat sets the disambiguator format; it must contain exactly one %d
func WithCollisionFormat(format string) Option {
	return func(m *Mover) {
		m.collisionFormat = format
	}
}

// WithMaxAttempts bounds how many candidate names are tried
func WithMaxAttempts(n int) Option {
	return func(m *Mover) {
		m.maxAttempts = n
	}
}

// New creates a mover. It fails with INVALID_CONFIG for a bad collision format.
func New(opts ...Option) (*Mover, error) {
	m := &Mover{
		fs:              filesystem.NewOS(),
		collisionFormat: DefaultCollisionFormat,
		maxAttempts:     DefaultMaxAttempts,
		logger:          logging.GetLogger("mover"),
	}
	for _, opt := range opts {
		opt(m)
	}

	if err := ValidateCollisionFormat(m.collisionFormat); err != nil {
		return nil, err
	}
	if m.maxAttempts <= 0 {
		m.maxAttempts = DefaultMaxAttempts
	}
	return m, nil
}

// ValidateCollisionFormat checks that format has exactly one %d verb and no
// path separators
func ValidateCollisionFormat(format string) error {
	if strings.Count(format, "%d") != 1 || strings.Count(format, "%") != 1 {
		return errors.Newf(errors.ErrInvalidConfig, "collision format %q must contain exactly one %%d", format)
	}
	if strings.ContainsAny(format, `/\`) {
		return errors.Newf(errors.ErrInvalidConfig, "collision format %q must not contain path separators", format)
	}
	return nil
}

// CandidateName returns the n-th name tried for base; n == 0 is base itself
func (m *Mover) CandidateName(base string, n int) string {
	if n == 0 {
		return base
	}
	stem, ext := splitExt(base)
	return stem + fmt.Sprintf(m.collisionFormat, n) + ext
}

// splitExt splits at the last dot, keeping leading-dot names whole
func splitExt(base string) (string, string) {
	i := strings.LastIndexByte(base, '.')
	if i <= 0 {
		return base, ""
	}
	return base[:i], base[i:]
}

// Move relocates source into destDir. The returned outcome is Moved with
// the final path, Skipped when the source is gone or not a regular file,
// or Failed with the source left intact.
func (m *Mover) Move(source, destDir string) types.MoveOutcome {
	logger := m.logger.With().Str("source", source).Str("destDir", destDir).Logger()

	info, err := m.fs.Lstat(source)
	if err != nil {
		if os.IsNotExist(err) {
			return types.Skipped(source, destDir, errors.ErrFileDisappeared,
				errors.Wrap(err, errors.ErrFileDisappeared, "source no longer exists"))
		}
		return types.Failed(source, destDir, errors.ErrMoveFailed,
			errors.Wrap(err, errors.ErrMoveFailed, "cannot stat source"))
	}
	if !info.Mode().IsRegular() {
		return types.Skipped(source, destDir, errors.ErrNotRegularFile,
			errors.Newf(errors.ErrNotRegularFile, "%s is not a regular file", source))
	}

	if err := m.fs.MkdirAll(destDir, dirPerm); err != nil {
		cause := errors.Wrapf(err, errors.ErrDirCreate, "cannot create %s", destDir)
		return types.Failed(source, destDir, errors.ErrMoveFailed,
			errors.Wrap(cause, errors.ErrMoveFailed, "destination directory unavailable"))
	}

	target, err := m.reserve(destDir, filepath.Base(source), info.Mode().Perm())
	if err != nil {
		return types.Failed(source, destDir, errors.ErrMoveFailed, err)
	}

	err = m.fs.Rename(source, target)
	if err == nil {
		logger.Info().Str("target", target).Msg("Moved file")
		return types.Moved(source, target)
	}

	if !isCrossDevice(err) {
		m.release(target)
		if _, statErr := m.fs.Lstat(source); os.IsNotExist(statErr) {
			return types.Skipped(source, target, errors.ErrFileDisappeared,
				errors.Wrap(err, errors.ErrFileDisappeared, "source vanished during move"))
		}
		return types.Failed(source, target, errors.ErrMoveFailed,
			errors.Wrap(err, errors.ErrMoveFailed, "rename failed"))
	}

	logger.Debug().Str("target", target).Msg("Rename crosses devices, copying")
	if err := m.copyInto(source, target, info); err != nil {
		m.release(target)
		code := errors.GetErrorCode(err)
		if code == errors.ErrFileDisappeared {
			return types.Skipped(source, target, code, err)
		}
		return types.Failed(source, target, code, err)
	}

	if err := m.fs.Remove(source); err != nil {
		// Keep exactly one copy: the original.
		m.release(target)
		if os.IsNotExist(err) {
			return types.Skipped(source, target, errors.ErrFileDisappeared,
				errors.Wrap(err, errors.ErrFileDisappeared, "source vanished during copy"))
		}
		return types.Failed(source, target, errors.ErrMoveFailed,
			errors.Wrap(err, errors.ErrMoveFailed, "cannot remove source after copy"))
	}

	logger.Info().Str("target", target).Msg("Moved file across devices")
	return types.Moved(source, target)
}

// reserve exclusively creates the first free candidate name in destDir
func (m *Mover) reserve(destDir, base string, perm fs.FileMode) (string, error) {
	for n := 0; n < m.maxAttempts; n++ {
		target := filepath.Join(destDir, m.CandidateName(base, n))
		f, err := m.fs.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm|0200)
		if err != nil {
			if os.IsExist(err) {
				continue
			}
			return "", errors.Wrapf(err, errors.ErrMoveFailed, "cannot reserve %s", target)
		}
		if err := f.Close(); err != nil {
			m.release(target)
			return "", errors.Wrapf(err, errors.ErrMoveFailed, "cannot reserve %s", target)
		}
		return target, nil
	}
	return "", errors.Newf(errors.ErrMoveFailed, "no free name for %s in %s after %d attempts",
		base, destDir, m.maxAttempts)
}

func (m *Mover) release(target string) {
	if err := m.fs.Remove(target); err != nil && !os.IsNotExist(err) {
		m.logger.Warn().Err(err).Str("target", target).Msg("Failed to remove reservation")
	}
}

// copyInto fills the reserved target with the source content and checks
// that the byte count and the on-disk size match the source
func (m *Mover) copyInto(source, target string, info fs.FileInfo) error {
	src, err := m.fs.Open(source)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.Wrap(err, errors.ErrFileDisappeared, "source vanished before copy")
		}
		return errors.Wrap(err, errors.ErrMoveFailed, "cannot open source")
	}
	defer func() { _ = src.Close() }()

	expected := info.Size()
	if current, err := src.Stat(); err == nil {
		expected = current.Size()
	}

	dst, err := m.fs.OpenFile(target, os.O_WRONLY|os.O_TRUNC, 0)
	if err != nil {
		return errors.Wrap(err, errors.ErrMoveFailed, "cannot open reservation")
	}

	written, copyErr := io.Copy(dst, src)
	if copyErr == nil {
		copyErr = dst.Sync()
	}
	closeErr := dst.Close()

	if copyErr != nil {
		return errors.Wrapf(copyErr, errors.ErrPartialCopy, "copy stopped after %d of %d bytes", written, expected)
	}
	if closeErr != nil {
		return errors.Wrap(closeErr, errors.ErrPartialCopy, "cannot close copy")
	}
	if written != expected {
		return errors.Newf(errors.ErrPartialCopy, "copied %d of %d bytes", written, expected)
	}
	copied, err := m.fs.Stat(target)
	if err != nil {
		return errors.Wrap(err, errors.ErrPartialCopy, "cannot verify copy")
	}
	if copied.Size() != expected {
		return errors.Newf(errors.ErrPartialCopy, "copy is %d bytes, source is %d", copied.Size(), expected)
	}

	if err := m.fs.Chtimes(target, info.ModTime(), info.ModTime()); err != nil {
		m.logger.Debug().Err(err).Str("target", target).Msg("Could not preserve modification time")
	}
	return nil
}
