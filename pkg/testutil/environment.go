package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Environment is an isolated user environment rooted in a temp directory
type Environment struct {
	Home       string
	ConfigHome string
	StateHome  string
	Downloads  string
}

// Isolate points HOME and the XDG directories at a fresh temp directory and
// clears every ROCAS_ variable for the duration of the test, so neither the
// developer's configuration nor their log file is touched.
func Isolate(t *testing.T) *Environment {
	t.Helper()

	home := t.TempDir()
	env := &Environment{
		Home:       home,
		ConfigHome: filepath.Join(home, ".config"),
		StateHome:  filepath.Join(home, ".local", "state"),
		Downloads:  filepath.Join(home, "Downloads"),
	}

	t.Setenv("HOME", env.Home)
	t.Setenv("USERPROFILE", env.Home)
	t.Setenv("XDG_CONFIG_HOME", env.ConfigHome)
	t.Setenv("XDG_STATE_HOME", env.StateHome)

	for _, kv := range os.Environ() {
		name, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(name, "ROCAS_") {
			// Setenv restores the value after the test.
			t.Setenv(name, "")
			_ = os.Unsetenv(name)
		}
	}

	CreateDir(t, env.Home, "Downloads")
	return env
}
