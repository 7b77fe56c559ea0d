package autostart

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// SystemdUnit renders the user unit starting exe with args
func SystemdUnit(exe string, args []string) string {
	cmd := append([]string{systemdQuote(exe)}, args...)
	return fmt.Sprintf(`[Unit]
Description=Rocas file watcher

[Service]
ExecStart=%s
Restart=on-failure
RestartSec=5s

[Install]
WantedBy=default.target
`, strings.Join(cmd, " "))
}

func systemdQuote(s string) string {
	if !strings.ContainsAny(s, " \t\"'\\") {
		return s
	}
	return `"` + strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s) + `"`
}

func (i *Installer) installSystemd(ctx context.Context) error {
	if err := i.writeFile(i.Path(), []byte(SystemdUnit(i.exe, i.args))); err != nil {
		return err
	}
	if err := i.run(ctx, "systemctl", "--user", "daemon-reload"); err != nil {
		return err
	}
	if err := i.run(ctx, "systemctl", "--user", "enable", "--now", ServiceName); err != nil {
		return err
	}

	// Lingering keeps the unit alive after logout and may need privileges.
	if user := os.Getenv("USER"); user != "" {
		if err := i.runner.Run(ctx, "loginctl", "enable-linger", user); err != nil {
			i.logger.Warn().Err(err).Msg("Could not enable lingering, run 'loginctl enable-linger $USER' as root to keep rocas running after logout")
		}
	}
	return nil
}

func (i *Installer) uninstallSystemd(ctx context.Context) error {
	if _, err := i.fs.Stat(i.Path()); os.IsNotExist(err) {
		return nil
	}
	if err := i.runner.Run(ctx, "systemctl", "--user", "disable", "--now", ServiceName); err != nil {
		i.logger.Warn().Err(err).Msg("Could not disable the unit")
	}
	if err := i.removeFile(i.Path()); err != nil {
		return err
	}
	return i.run(ctx, "systemctl", "--user", "daemon-reload")
}
