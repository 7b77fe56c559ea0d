package config

import (
	"strings"
	"time"

	"github.com/arthur-debert/rocas/pkg/errors"
	"github.com/arthur-debert/rocas/pkg/mover"
	"github.com/arthur-debert/rocas/pkg/rules"
	"github.com/arthur-debert/rocas/pkg/types"
)

// Config is the complete rocas configuration
type Config struct {
	Watcher     Watcher     `koanf:"watcher" toml:"watcher" yaml:"watcher"`
	Organizer   Organizer   `koanf:"organizer" toml:"organizer" yaml:"organizer"`
	NoExtension NoExtension `koanf:"no_extension" toml:"no_extension" yaml:"no_extension"`
	Rules       []Rule      `koanf:"rules" toml:"rules" yaml:"rules"`

	// Source is the file the configuration was read from, empty when only
	// defaults and the environment were used
	Source string `koanf:"-" toml:"-" yaml:"-"`
}

// Watcher holds the [watcher] section
type Watcher struct {
	WatchPath        string   `koanf:"watch_path" toml:"watch_path" yaml:"watch_path"`
	Recursive        bool     `koanf:"recursive" toml:"recursive" yaml:"recursive"`
	IntervalMillis   int      `koanf:"interval_millis" toml:"interval_millis" yaml:"interval_millis"`
	MaxDepth         int      `koanf:"max_depth" toml:"max_depth" yaml:"max_depth"`
	DebounceMillis   int      `koanf:"debounce_millis" toml:"debounce_millis" yaml:"debounce_millis"`
	ForcePolling     bool     `koanf:"force_polling" toml:"force_polling" yaml:"force_polling"`
	Workers          int      `koanf:"workers" toml:"workers" yaml:"workers"`
	MaxNativeWatches int      `koanf:"max_native_watches" toml:"max_native_watches" yaml:"max_native_watches"`
	Ignore           []string `koanf:"ignore" toml:"ignore" yaml:"ignore"`
}

// Organizer holds the [organizer] section
type Organizer struct {
	CaseSensitive   CaseSensitivity `koanf:"case_sensitive" toml:"case_sensitive" yaml:"case_sensitive"`
	Unmatched       string          `koanf:"unmatched" toml:"unmatched" yaml:"unmatched"`
	Fallback        string          `koanf:"fallback" toml:"fallback" yaml:"fallback"`
	CollisionFormat string          `koanf:"collision_format" toml:"collision_format" yaml:"collision_format"`
}

// NoExtension holds the [no_extension] section
type NoExtension struct {
	Destination string `koanf:"destination" toml:"destination" yaml:"destination"`
}

// Rule is one [[rules]] entry
type Rule struct {
	Patterns    []string `koanf:"patterns" toml:"patterns" yaml:"patterns"`
	Destination string   `koanf:"destination" toml:"destination" yaml:"destination"`
}

// CaseSensitivity is "auto", "true" or "false"
type CaseSensitivity string

const (
	CaseAuto        CaseSensitivity = "auto"
	CaseSensitive   CaseSensitivity = "true"
	CaseInsensitive CaseSensitivity = "false"
)

// Resolve returns the effective setting, consulting the platform for auto
func (c CaseSensitivity) Resolve() (bool, error) {
	switch CaseSensitivity(strings.ToLower(strings.TrimSpace(string(c)))) {
	case "", CaseAuto:
		return rules.DefaultCaseSensitive(), nil
	case CaseSensitive:
		return true, nil
	case CaseInsensitive:
		return false, nil
	default:
		return false, errors.Newf(errors.ErrInvalidConfig,
			"case_sensitive must be auto, true or false, got %q", string(c))
	}
}

// WatchConfig converts the [watcher] section
func (c *Config) WatchConfig() types.WatchConfig {
	return types.WatchConfig{
		Root:             c.Watcher.WatchPath,
		Recursive:        c.Watcher.Recursive,
		MaxDepth:         c.Watcher.MaxDepth,
		PollInterval:     time.Duration(c.Watcher.IntervalMillis) * time.Millisecond,
		Debounce:         time.Duration(c.Watcher.DebounceMillis) * time.Millisecond,
		Workers:          c.Watcher.Workers,
		ForcePolling:     c.Watcher.ForcePolling,
		MaxNativeWatches: c.Watcher.MaxNativeWatches,
		Ignore:           append([]string{}, c.Watcher.Ignore...),
	}
}

// RuleSet compiles the rules and the organizer settings
func (c *Config) RuleSet() (*rules.RuleSet, error) {
	sensitive, err := c.Organizer.CaseSensitive.Resolve()
	if err != nil {
		return nil, err
	}
	opts := []rules.Option{rules.WithCaseSensitive(sensitive)}
	if c.NoExtension.Destination != "" {
		opts = append(opts, rules.WithNoExtension(c.NoExtension.Destination))
	}

	policy, ok := rules.ParseUnmatchedPolicy(c.Organizer.Unmatched)
	if !ok {
		return nil, errors.Newf(errors.ErrInvalidConfig,
			"unmatched must be leave or fallback, got %q", c.Organizer.Unmatched)
	}
	if policy == rules.FallbackUnmatched {
		opts = append(opts, rules.WithFallback(c.Organizer.Fallback))
	}

	ruleList := make([]rules.Rule, len(c.Rules))
	for i, r := range c.Rules {
		ruleList[i] = rules.Rule{Patterns: append([]string(nil), r.Patterns...), Destination: r.Destination}
	}
	return rules.New(ruleList, opts...)
}

// Validate checks the settings that can be checked without touching the
// filesystem
func (c *Config) Validate() error {
	w := c.Watcher
	if w.WatchPath == "" {
		return errors.New(errors.ErrInvalidConfig, "watcher.watch_path is empty")
	}
	if w.IntervalMillis < 0 || w.DebounceMillis < 0 || w.MaxDepth < 0 || w.Workers < 0 || w.MaxNativeWatches < 0 {
		return errors.New(errors.ErrInvalidConfig, "watcher settings must not be negative")
	}
	if err := mover.ValidateCollisionFormat(c.Organizer.CollisionFormat); err != nil {
		return err
	}
	if _, err := c.RuleSet(); err != nil {
		return err
	}
	return nil
}
