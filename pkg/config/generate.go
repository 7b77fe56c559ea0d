package config

import (
	"bytes"
	"strings"

	"github.com/arthur-debert/rocas/pkg/errors"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Format of a generated config file
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts toml, yaml and yml
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "toml":
		return FormatTOML, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", errors.Newf(errors.ErrInvalidInput, "unknown config format %q, use toml or yaml", s)
	}
}

// Extension returns the file extension for the format
func (f Format) Extension() string {
	if f == FormatYAML {
		return ".yaml"
	}
	return ".toml"
}

const generatedHeader = `rocas configuration

Files created in watch_path are moved to the destination of the first rule
with a matching pattern. Patterns support *, ?, ** and [a-z] classes.
Relative destinations are resolved against watch_path.`

// Sample returns a starter configuration with common rules
func Sample() *Config {
	return &Config{
		Watcher: Watcher{
			WatchPath:        "~/Downloads",
			Recursive:        true,
			IntervalMillis:   1000,
			DebounceMillis:   750,
			Workers:          2,
			MaxNativeWatches: 4096,
			Ignore:           []string{"*.part", "*.crdownload", "*.download", "*.tmp", "*.partial", ".~*"},
		},
		Organizer: Organizer{
			CaseSensitive:   CaseAuto,
			Unmatched:       "leave",
			CollisionFormat: " (%d)",
		},
		NoExtension: NoExtension{Destination: "~/Downloads/misc"},
		Rules: []Rule{
			{Patterns: []string{"*.pdf", "*.doc", "*.docx", "*.odt", "*.txt", "*.md"}, Destination: "~/Documents"},
			{Patterns: []string{"*.jpg", "*.jpeg", "*.png", "*.gif", "*.webp", "*.heic"}, Destination: "~/Pictures"},
			{Patterns: []string{"*.mp3", "*.flac", "*.ogg", "*.wav"}, Destination: "~/Music"},
			{Patterns: []string{"*.mp4", "*.mkv", "*.mov", "*.webm"}, Destination: "~/Videos"},
			{Patterns: []string{"*.zip", "*.tar.gz", "*.tgz", "*.7z", "*.rar"}, Destination: "~/Downloads/archives"},
		},
	}
}

// Generate renders cfg, or Sample() when cfg is nil, in the given format
func Generate(cfg *Config, format Format) ([]byte, error) {
	if cfg == nil {
		cfg = Sample()
	}

	var body []byte
	var err error
	switch format {
	case FormatYAML:
		body, err = yaml.Marshal(cfg)
	case FormatTOML, "":
		body, err = toml.Marshal(cfg)
	default:
		return nil, errors.Newf(errors.ErrInvalidInput, "unknown config format %q", string(format))
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "failed to render configuration")
	}

	var buf bytes.Buffer
	for _, line := range strings.Split(generatedHeader, "\n") {
		buf.WriteString(strings.TrimRight("# "+line, " "))
		buf.WriteByte('\n')
	}
	buf.WriteByte('\n')
	buf.Write(body)
	return buf.Bytes(), nil
}
