package autostart

import (
	"context"
	"strings"
)

// RegistryCommand is the command line stored in the Run key
func RegistryCommand(exe string, args []string) string {
	parts := []string{`"` + exe + `"`}
	for _, arg := range args {
		if strings.ContainsAny(arg, " \t") {
			arg = `"` + arg + `"`
		}
		parts = append(parts, arg)
	}
	return strings.Join(parts, " ")
}

func (i *Installer) installRegistry(ctx context.Context) error {
	return i.run(ctx, "reg", "add", RegistryKey,
		"/v", RegistryValue, "/t", "REG_SZ", "/d", RegistryCommand(i.exe, i.args), "/f")
}

func (i *Installer) uninstallRegistry(ctx context.Context) error {
	if err := i.runner.Run(ctx, "reg", "query", RegistryKey, "/v", RegistryValue); err != nil {
		return nil
	}
	return i.run(ctx, "reg", "delete", RegistryKey, "/v", RegistryValue, "/f")
}
