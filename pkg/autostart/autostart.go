package autostart

import (
	"context"
	"os"
	"path/filepath"
	"runtime"

	"github.com/adrg/xdg"
	"github.com/arthur-debert/rocas/pkg/errors"
	"github.com/arthur-debert/rocas/pkg/filesystem"
	"github.com/arthur-debert/rocas/pkg/logging"
	"github.com/arthur-debert/rocas/pkg/types"
	"github.com/rs/zerolog"
)

const (
	// ServiceName is the systemd user unit name
	ServiceName = "rocas.service"
	// AgentLabel is the LaunchAgent label
	AgentLabel = "com.rocas.agent"
	// RegistryKey is the Windows key holding per-user login programs
	RegistryKey = `HKCU\Software\Microsoft\Windows\CurrentVersion\Run`
	// RegistryValue is the value name under RegistryKey
	RegistryValue = "Rocas"
)

// Option configures an Installer
type Option func(*Installer)

// WithFS sets the filesystem unit files are written to
func WithFS(fsys types.FS) Option {
	return func(i *Installer) { i.fs = fsys }
}

// WithRunner sets the command runner
func WithRunner(r Runner) Option {
	return func(i *Installer) { i.runner = r }
}

// WithPlatform overrides runtime.GOOS
func WithPlatform(goos string) Option {
	return func(i *Installer) { i.goos = goos }
}

// WithHome sets the home directory used for LaunchAgents
func WithHome(home string) Option {
	return func(i *Installer) { i.home = home }
}

// WithConfigHome sets the directory holding systemd/user
func WithConfigHome(dir string) Option {
	return func(i *Installer) { i.configHome = dir }
}

// WithStateHome sets the directory LaunchAgent logs are written to
func WithStateHome(dir string) Option {
	return func(i *Installer) { i.stateHome = dir }
}

// WithExecutable sets the program started at login
func WithExecutable(path string) Option {
	return func(i *Installer) { i.exe = path }
}

// WithArgs sets the arguments passed to the program
func WithArgs(args ...string) Option {
	return func(i *Installer) { i.args = args }
}

// Installer registers and unregisters the login entry for one platform
type Installer struct {
	fs         types.FS
	runner     Runner
	goos       string
	home       string
	configHome string
	stateHome  string
	exe        string
	args       []string
	logger     zerolog.Logger
}

// New creates an Installer for the running platform and executable
func New(opts ...Option) (*Installer, error) {
	i := &Installer{
		fs:         filesystem.NewOS(),
		runner:     ExecRunner(),
		goos:       runtime.GOOS,
		home:       xdg.Home,
		configHome: xdg.ConfigHome,
		stateHome:  xdg.StateHome,
		args:       []string{"watch"},
		logger:     logging.GetLogger("autostart"),
	}
	for _, opt := range opts {
		opt(i)
	}

	if i.exe == "" {
		exe, err := os.Executable()
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrAutostart, "cannot locate the rocas executable")
		}
		if resolved, err := filepath.EvalSymlinks(exe); err == nil {
			exe = resolved
		}
		i.exe = exe
	}

	switch i.goos {
	case "linux", "darwin", "windows":
	default:
		return nil, errors.Newf(errors.ErrAutostart, "autostart is not supported on %s", i.goos).
			WithDetail("os", i.goos)
	}
	return i, nil
}

// Path returns the file or registry location of the login entry
func (i *Installer) Path() string {
	switch i.goos {
	case "linux":
		return filepath.Join(i.configHome, "systemd", "user", ServiceName)
	case "darwin":
		return filepath.Join(i.home, "Library", "LaunchAgents", AgentLabel+".plist")
	default:
		return RegistryKey + `\` + RegistryValue
	}
}

// Install writes the login entry and activates it right away
func (i *Installer) Install(ctx context.Context) error {
	var err error
	switch i.goos {
	case "linux":
		err = i.installSystemd(ctx)
	case "darwin":
		err = i.installLaunchAgent(ctx)
	default:
		err = i.installRegistry(ctx)
	}
	if err != nil {
		return err
	}
	i.logger.Info().Str("path", i.Path()).Str("exe", i.exe).Msg("Autostart installed")
	return nil
}

// Uninstall deactivates and removes the login entry. A missing entry is
// not an error.
func (i *Installer) Uninstall(ctx context.Context) error {
	var err error
	switch i.goos {
	case "linux":
		err = i.uninstallSystemd(ctx)
	case "darwin":
		err = i.uninstallLaunchAgent(ctx)
	default:
		err = i.uninstallRegistry(ctx)
	}
	if err != nil {
		return err
	}
	i.logger.Info().Str("path", i.Path()).Msg("Autostart removed")
	return nil
}

func (i *Installer) writeFile(path string, data []byte) error {
	if err := i.fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrapf(err, errors.ErrAutostart, "cannot create %s", filepath.Dir(path))
	}
	f, err := i.fs.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return errors.Wrapf(err, errors.ErrAutostart, "cannot write %s", path)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return errors.Wrapf(err, errors.ErrAutostart, "cannot write %s", path)
	}
	if err := f.Close(); err != nil {
		return errors.Wrapf(err, errors.ErrAutostart, "cannot write %s", path)
	}
	return nil
}

func (i *Installer) removeFile(path string) error {
	if err := i.fs.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, errors.ErrAutostart, "cannot remove %s", path)
	}
	return nil
}

func (i *Installer) run(ctx context.Context, name string, args ...string) error {
	i.logger.Debug().Str("cmd", name).Strs("args", args).Msg("Running")
	if err := i.runner.Run(ctx, name, args...); err != nil {
		return errors.Wrapf(err, errors.ErrAutostart, "%s failed", name)
	}
	return nil
}
