package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/adrg/xdg"
	"github.com/arthur-debert/rocas/pkg/errors"
	"github.com/arthur-debert/rocas/pkg/logging"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	// EnvPrefix prefixes every environment override, e.g. ROCAS_WATCHER__WORKERS
	EnvPrefix = "ROCAS_"
	// EnvConfigPath names the environment variable holding the config file path
	EnvConfigPath = "ROCAS_CONFIG"
	// FileName is the default config file name
	FileName = "rocas.toml"
)

// Variables read by other parts of rocas rather than mapped onto Config
var reservedEnv = map[string]bool{
	EnvConfigPath: true,
	"ROCAS_LOG":   true,
}

// LoadOptions selects the sources Load reads
type LoadOptions struct {
	// Path is an explicit config file. When set it must exist.
	Path string
	// Overrides are applied last, keyed by dotted path (watcher.workers)
	Overrides map[string]interface{}
	// SkipSearch disables the search for a config file when Path is empty
	SkipSearch bool
}

// Load builds the configuration from the embedded defaults, the config
// file, the environment and opts.Overrides. Paths are expanded and made
// absolute, then the result is validated.
func Load(opts LoadOptions) (*Config, error) {
	logger := logging.GetLogger("config")
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(&rawBytesProvider{bytes: defaultConfig}, toml.Parser()); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigParse, "failed to load defaults")
	}

	// 2. Config file
	path, err := findConfigFile(opts)
	if err != nil {
		return nil, err
	}
	if path != "" {
		fk := koanf.New(".")
		if err := fk.Load(file.Provider(path), parserFor(path)); err != nil {
			return nil, errors.Wrapf(err, errors.ErrConfigParse, "failed to parse %s", path).
				WithDetail("path", path)
		}
		applyAliases(fk)
		if err := k.Merge(fk); err != nil {
			return nil, errors.Wrapf(err, errors.ErrConfigLoad, "failed to merge %s", path)
		}
		logger.Debug().Str("path", path).Msg("Loaded config file")
	}

	// 3. Environment
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load environment")
	}

	// 4. Overrides
	if len(opts.Overrides) > 0 {
		if err := k.Load(confmap.Provider(opts.Overrides, "."), nil); err != nil {
			return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load overrides")
		}
	}

	// 5. Unmarshal
	cfg, err := unmarshal(k)
	if err != nil {
		return nil, err
	}
	cfg.Source = path

	// 6. Post-process
	if err := postProcess(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration made of the embedded defaults only
func Default() (*Config, error) {
	return Load(LoadOptions{SkipSearch: true})
}

func unmarshal(k *koanf.Koanf) (*Config, error) {
	var cfg Config
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				caseSensitivityHookFunc(),
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
		},
	}
	if err := k.UnmarshalWithConf("", &cfg, unmarshalConf); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigParse, "failed to unmarshal configuration")
	}
	return &cfg, nil
}

// caseSensitivityHookFunc keeps TOML booleans readable as "true"/"false";
// weak decoding would turn them into "1"/"0"
func caseSensitivityHookFunc() mapstructure.DecodeHookFunc {
	target := reflect.TypeOf(CaseSensitivity(""))
	return func(f reflect.Type, t reflect.Type, data interface{}) (interface{}, error) {
		if t != target {
			return data, nil
		}
		if b, ok := data.(bool); ok {
			if b {
				return string(CaseSensitive), nil
			}
			return string(CaseInsensitive), nil
		}
		return data, nil
	}
}

// envKey maps ROCAS_WATCHER__WATCH_PATH to watcher.watch_path. Reserved
// variables are skipped.
func envKey(s string) string {
	if reservedEnv[s] {
		return ""
	}
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(key, "__", ".")
}

// applyAliases maps alternative spellings onto their canonical keys
func applyAliases(k *koanf.Koanf) {
	if k.Exists("watcher.watcher_path") {
		if !k.Exists("watcher.watch_path") {
			_ = k.Set("watcher.watch_path", k.Get("watcher.watcher_path"))
		}
		k.Delete("watcher.watcher_path")
	}
}

func parserFor(path string) koanf.Parser {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Parser()
	default:
		return toml.Parser()
	}
}

// findConfigFile resolves the config file: opts.Path, $ROCAS_CONFIG,
// ./rocas.toml, then rocas/rocas.toml in the XDG config directories.
// It returns "" when no file exists and none was asked for explicitly.
func findConfigFile(opts LoadOptions) (string, error) {
	explicit := opts.Path
	if explicit == "" {
		explicit = os.Getenv(EnvConfigPath)
	}
	if explicit != "" {
		path, err := ExpandPath(explicit, "")
		if err != nil {
			return "", err
		}
		if _, err := os.Stat(path); err != nil {
			return "", errors.Wrapf(err, errors.ErrConfigLoad, "config file %s not found", path).
				WithDetail("path", path)
		}
		return path, nil
	}
	if opts.SkipSearch {
		return "", nil
	}

	if _, err := os.Stat(FileName); err == nil {
		return filepath.Abs(FileName)
	}
	if path, err := xdg.SearchConfigFile(filepath.Join("rocas", FileName)); err == nil {
		return path, nil
	}
	return "", nil
}

// UserConfigPath is where gen-config writes by default
func UserConfigPath() (string, error) {
	path, err := xdg.ConfigFile(filepath.Join("rocas", FileName))
	if err != nil {
		return "", errors.Wrap(err, errors.ErrConfigLoad, "cannot resolve config directory")
	}
	return path, nil
}
