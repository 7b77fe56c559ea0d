package rocas

import (
	_ "embed"
	"strings"
)

// Short messages (one-liners)
const (
	// Command descriptions
	MsgRootShort       = "Sort new files into folders as they arrive"
	MsgWatchShort      = "Watch the configured directory and organise new files"
	MsgSweepShort      = "Organise the files already in the watch path"
	MsgClassifyShort   = "Show where files with the given names would go"
	MsgRulesShort      = "List the configured rules"
	MsgGenConfigShort  = "Generate a starter configuration file"
	MsgAutostartShort  = "Start rocas at login"
	MsgInstallShort    = "Install the login entry"
	MsgUninstallShort  = "Remove the login entry"
	MsgVersionShort    = "Print version information"
	MsgCompletionShort = "Generate shell completion script"

	// Status messages
	MsgWatching         = "Watching %s (%s)"
	MsgReloaded         = "Configuration reloaded"
	MsgReloadFailed     = "Reload failed, keeping the previous configuration: %v"
	MsgStopping         = "Stopping"
	MsgConfigWritten    = "Wrote %s"
	MsgAutostartOn      = "rocas will start at login (%s)"
	MsgAutostartOff     = "rocas will no longer start at login"
	MsgVersionFormat    = "rocas version %s\n  commit: %s\n  built:  %s\n"
	MsgUsingConfig      = "Using configuration %s"
	MsgUsingDefaultConf = "No configuration file found, using defaults"

	// Error messages
	MsgErrLoadConfig   = "failed to load configuration: %w"
	MsgErrConfigExists = "%s already exists, use --force to overwrite"
	MsgErrNoCommand    = "no command specified"

	// Flag descriptions
	MsgFlagVerbose = "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)"
	MsgFlagConfig  = "Config file (default: $ROCAS_CONFIG, ./rocas.toml or the user config directory)"
	MsgFlagFormat  = "Output format: auto, term, text or json"
	MsgFlagPath    = "Directory to watch instead of the configured one"
	MsgFlagPoll    = "Poll for changes instead of using native notifications"
	MsgFlagSweep   = "Organise files already present before watching"
	MsgFlagCfgFmt  = "Config file format: toml or yaml"
	MsgFlagWrite   = "Write the config to the user config directory instead of stdout"
	MsgFlagForce   = "Overwrite an existing config file"
)

// Long messages from embedded files
var (
	//go:embed msgs/root-long.txt
	msgRootLongRaw string
	MsgRootLong    = strings.TrimSpace(msgRootLongRaw)

	//go:embed msgs/watch-example.txt
	msgWatchExampleRaw string
	MsgWatchExample    = strings.TrimRight(msgWatchExampleRaw, "\n")

	//go:embed msgs/sweep-long.txt
	msgSweepLongRaw string
	MsgSweepLong    = strings.TrimSpace(msgSweepLongRaw)

	//go:embed msgs/classify-example.txt
	msgClassifyExampleRaw string
	MsgClassifyExample    = strings.TrimRight(msgClassifyExampleRaw, "\n")

	//go:embed msgs/gen-config-long.txt
	msgGenConfigLongRaw string
	MsgGenConfigLong    = strings.TrimSpace(msgGenConfigLongRaw)

	//go:embed msgs/gen-config-example.txt
	msgGenConfigExampleRaw string
	MsgGenConfigExample    = strings.TrimRight(msgGenConfigExampleRaw, "\n")

	//go:embed msgs/autostart-long.txt
	msgAutostartLongRaw string
	MsgAutostartLong    = strings.TrimSpace(msgAutostartLongRaw)

	//go:embed msgs/completion-long.txt
	msgCompletionLongRaw string
	MsgCompletionLong    = strings.TrimSpace(msgCompletionLongRaw)

	//go:embed msgs/usage-template.txt
	msgUsageTemplateRaw string
	MsgUsageTemplate    = strings.TrimSpace(msgUsageTemplateRaw)
)
