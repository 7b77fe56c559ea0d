package config_test

import (
	"path/filepath"
	"testing"

	"github.com/arthur-debert/rocas/pkg/config"
	"github.com/arthur-debert/rocas/pkg/errors"
	"github.com/arthur-debert/rocas/pkg/rules"
	"github.com/arthur-debert/rocas/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate keeps the developer's environment out of the tests
func isolate(t *testing.T) string {
	t.Helper()
	return testutil.Isolate(t).Home
}

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	return testutil.CreateFile(t, t.TempDir(), name, content)
}

func TestDefault(t *testing.T) {
	isolate(t)

	cfg, err := config.Default()
	require.NoError(t, err)

	assert.True(t, filepath.IsAbs(cfg.Watcher.WatchPath))
	assert.True(t, cfg.Watcher.Recursive)
	assert.Equal(t, 1000, cfg.Watcher.IntervalMillis)
	assert.Equal(t, 750, cfg.Watcher.DebounceMillis)
	assert.Equal(t, 2, cfg.Watcher.Workers)
	assert.Equal(t, 0, cfg.Watcher.MaxDepth)
	assert.Contains(t, cfg.Watcher.Ignore, "*.crdownload")
	assert.Equal(t, config.CaseAuto, cfg.Organizer.CaseSensitive)
	assert.Equal(t, "leave", cfg.Organizer.Unmatched)
	assert.Equal(t, " (%d)", cfg.Organizer.CollisionFormat)
	assert.Empty(t, cfg.Rules)
	assert.Empty(t, cfg.Source)
}

func TestLoad_TOML(t *testing.T) {
	home := isolate(t)
	path := writeConfig(t, "rocas.toml", `
[watcher]
watcher_path = "~/Inbox"
recursive = false
interval_millis = 250
max_depth = 3

[organizer]
case_sensitive = true
collision_format = "_%d"

[no_extension]
destination = "misc"

[[rules]]
patterns = ["*.pdf", "*.docx"]
destination = "~/Documents"

[[rules]]
patterns = ["*.jpg"]
destination = "/srv/pictures"
`)

	cfg, err := config.Load(config.LoadOptions{Path: path})
	require.NoError(t, err)

	assert.Equal(t, path, cfg.Source)
	assert.Equal(t, filepath.Join(home, "Inbox"), cfg.Watcher.WatchPath)
	assert.False(t, cfg.Watcher.Recursive)
	assert.Equal(t, 250, cfg.Watcher.IntervalMillis)
	assert.Equal(t, 3, cfg.Watcher.MaxDepth)
	assert.Equal(t, 750, cfg.Watcher.DebounceMillis, "unset keys keep their defaults")
	assert.Equal(t, config.CaseSensitive, cfg.Organizer.CaseSensitive)
	assert.Equal(t, "_%d", cfg.Organizer.CollisionFormat)
	assert.Equal(t, filepath.Join(home, "Inbox", "misc"), cfg.NoExtension.Destination)

	require.Len(t, cfg.Rules, 2)
	assert.Equal(t, []string{"*.pdf", "*.docx"}, cfg.Rules[0].Patterns)
	assert.Equal(t, filepath.Join(home, "Documents"), cfg.Rules[0].Destination)
	assert.Equal(t, "/srv/pictures", cfg.Rules[1].Destination)

	wc := cfg.WatchConfig()
	assert.Equal(t, cfg.Watcher.WatchPath, wc.Root)
	assert.Equal(t, 3, wc.MaxDepth)
	assert.Equal(t, int64(250), wc.PollInterval.Milliseconds())

	rs, err := cfg.RuleSet()
	require.NoError(t, err)
	assert.True(t, rs.CaseSensitive())
	dest, err := rs.Classify("report.pdf")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "Documents"), dest)
}

func TestLoad_WatchPathWinsOverAlias(t *testing.T) {
	isolate(t)
	path := writeConfig(t, "rocas.toml", `
[watcher]
watch_path = "/data/in"
watcher_path = "/data/ignored"
`)
	cfg, err := config.Load(config.LoadOptions{Path: path})
	require.NoError(t, err)
	assert.Equal(t, filepath.Clean("/data/in"), cfg.Watcher.WatchPath)
}

func TestLoad_YAML(t *testing.T) {
	isolate(t)
	path := writeConfig(t, "rocas.yaml", `
watcher:
  watch_path: /data/downloads
  workers: 4
organizer:
  unmatched: fallback
  fallback: /data/unsorted
  case_sensitive: "false"
rules:
  - patterns: ["*.iso"]
    destination: /data/isos
`)

	cfg, err := config.Load(config.LoadOptions{Path: path})
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Watcher.Workers)
	assert.Equal(t, config.CaseInsensitive, cfg.Organizer.CaseSensitive)

	rs, err := cfg.RuleSet()
	require.NoError(t, err)
	assert.Equal(t, rules.FallbackUnmatched, rs.Unmatched())
	dest, err := rs.Resolve("unknown.bin")
	require.NoError(t, err)
	assert.Equal(t, filepath.Clean("/data/unsorted"), dest)
	dest, err = rs.Resolve("DEBIAN.ISO")
	require.NoError(t, err)
	assert.Equal(t, filepath.Clean("/data/isos"), dest)
}

func TestLoad_EnvironmentAndOverrides(t *testing.T) {
	isolate(t)
	path := writeConfig(t, "rocas.toml", `
[watcher]
watch_path = "/data/in"
workers = 3
`)
	t.Setenv("ROCAS_CONFIG", path)
	t.Setenv("ROCAS_WATCHER__WORKERS", "5")
	t.Setenv("ROCAS_WATCHER__IGNORE", "*.a,*.b")
	t.Setenv("ROCAS_WATCHER__FORCE_POLLING", "true")
	t.Setenv("ROCAS_LOG", "debug")

	cfg, err := config.Load(config.LoadOptions{
		Overrides: map[string]interface{}{"watcher.debounce_millis": 100},
	})
	require.NoError(t, err)

	assert.Equal(t, path, cfg.Source)
	assert.Equal(t, 5, cfg.Watcher.Workers)
	assert.Equal(t, []string{"*.a", "*.b"}, cfg.Watcher.Ignore)
	assert.True(t, cfg.Watcher.ForcePolling)
	assert.Equal(t, 100, cfg.Watcher.DebounceMillis)
}

func TestLoad_Errors(t *testing.T) {
	isolate(t)

	_, err := config.Load(config.LoadOptions{Path: filepath.Join(t.TempDir(), "missing.toml")})
	assert.True(t, errors.IsErrorCode(err, errors.ErrConfigLoad), "got %v", err)

	broken := writeConfig(t, "rocas.toml", "[watcher\nwatch_path = ")
	_, err = config.Load(config.LoadOptions{Path: broken})
	assert.True(t, errors.IsErrorCode(err, errors.ErrConfigParse), "got %v", err)

	invalid := []struct {
		name    string
		content string
	}{
		{"empty_patterns", "[[rules]]\npatterns = []\ndestination = \"/x\"\n"},
		{"missing_destination", "[[rules]]\npatterns = [\"*.pdf\"]\n"},
		{"bad_glob", "[[rules]]\npatterns = [\"[abc\"]\ndestination = \"/x\"\n"},
		{"bad_collision_format", "[organizer]\ncollision_format = \"-copy\"\n"},
		{"bad_case_setting", "[organizer]\ncase_sensitive = \"maybe\"\n"},
		{"bad_unmatched", "[organizer]\nunmatched = \"delete\"\n"},
		{"fallback_without_destination", "[organizer]\nunmatched = \"fallback\"\n"},
		{"negative_workers", "[watcher]\nworkers = -1\n"},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, "rocas.toml", tt.content)
			_, err := config.Load(config.LoadOptions{Path: path})
			require.Error(t, err)
			assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidConfig), "got %v", err)
		})
	}
}

func TestCaseSensitivity_Resolve(t *testing.T) {
	sensitive, err := config.CaseSensitive.Resolve()
	require.NoError(t, err)
	assert.True(t, sensitive)

	sensitive, err = config.CaseInsensitive.Resolve()
	require.NoError(t, err)
	assert.False(t, sensitive)

	sensitive, err = config.CaseAuto.Resolve()
	require.NoError(t, err)
	assert.Equal(t, rules.DefaultCaseSensitive(), sensitive)

	_, err = config.CaseSensitivity("sometimes").Resolve()
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidConfig))
}

func TestExpandPath(t *testing.T) {
	home := isolate(t)
	t.Setenv("ROCAS_TEST_DIR", "/var/data")

	tests := []struct {
		in, base, want string
	}{
		{"", "", ""},
		{"~", "", home},
		{"~/Documents", "", filepath.Join(home, "Documents")},
		{"$ROCAS_TEST_DIR/in", "", "/var/data/in"},
		{"pictures", "/root/watch", "/root/watch/pictures"},
		{"/abs/./path/", "/ignored", "/abs/path"},
	}
	for _, tt := range tests {
		got, err := config.ExpandPath(tt.in, tt.base)
		require.NoError(t, err)
		assert.Equal(t, filepath.FromSlash(tt.want), got, tt.in)
	}
}

func TestGenerate(t *testing.T) {
	isolate(t)

	for _, format := range []config.Format{config.FormatTOML, config.FormatYAML} {
		t.Run(string(format), func(t *testing.T) {
			content, err := config.Generate(nil, format)
			require.NoError(t, err)
			assert.Contains(t, string(content), "# rocas configuration")
			assert.Contains(t, string(content), "*.pdf")

			// The starter file must load as-is.
			path := writeConfig(t, "rocas"+format.Extension(), string(content))
			cfg, err := config.Load(config.LoadOptions{Path: path})
			require.NoError(t, err)
			assert.Len(t, cfg.Rules, len(config.Sample().Rules))
		})
	}
}

func TestParseFormat(t *testing.T) {
	f, err := config.ParseFormat("YML")
	require.NoError(t, err)
	assert.Equal(t, config.FormatYAML, f)

	f, err = config.ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, config.FormatTOML, f)

	_, err = config.ParseFormat("ini")
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
}
