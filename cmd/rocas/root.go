package rocas

import (
	"fmt"

	"github.com/arthur-debert/rocas/internal/version"
	"github.com/arthur-debert/rocas/pkg/config"
	"github.com/arthur-debert/rocas/pkg/logging"
	"github.com/arthur-debert/rocas/pkg/ui"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// globalOptions holds the persistent flags shared by every command
type globalOptions struct {
	verbosity  int
	configPath string
	format     string
}

func (g *globalOptions) renderer(cmd *cobra.Command) (ui.Renderer, error) {
	format, err := ui.ParseFormat(g.format)
	if err != nil {
		return nil, err
	}
	return ui.NewRenderer(format, cmd.OutOrStdout()), nil
}

func (g *globalOptions) loadConfig(overrides map[string]interface{}) (*config.Config, error) {
	cfg, err := config.Load(config.LoadOptions{Path: g.configPath, Overrides: overrides})
	if err != nil {
		return nil, fmt.Errorf(MsgErrLoadConfig, err)
	}
	if cfg.Source != "" {
		log.Info().Msgf(MsgUsingConfig, cfg.Source)
	} else {
		log.Info().Msg(MsgUsingDefaultConf)
	}
	return cfg, nil
}

// NewRootCmd creates and returns the root command
func NewRootCmd() *cobra.Command {
	initTemplateFormatting()

	g := &globalOptions{}
	watch := &watchOptions{}

	rootCmd := &cobra.Command{
		Use:     "rocas",
		Short:   MsgRootShort,
		Long:    MsgRootLong,
		Version: version.Version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetupLogger(g.verbosity)
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				_ = cmd.Help()
				return fmt.Errorf(MsgErrNoCommand)
			}
			return runWatch(cmd, g, watch)
		},
		SilenceUsage:      true,
		SilenceErrors:     true,
		DisableAutoGenTag: true,
	}

	rootCmd.PersistentFlags().CountVarP(&g.verbosity, "verbose", "v", MsgFlagVerbose)
	rootCmd.PersistentFlags().StringVarP(&g.configPath, "config", "c", "", MsgFlagConfig)
	rootCmd.PersistentFlags().StringVar(&g.format, "format", "auto", MsgFlagFormat)
	watch.bind(rootCmd)

	rootCmd.AddGroup(&cobra.Group{ID: "core", Title: "COMMANDS:"})
	rootCmd.AddGroup(&cobra.Group{ID: "config", Title: "CONFIGURATION:"})
	rootCmd.AddGroup(&cobra.Group{ID: "misc", Title: "MISC:"})
	rootCmd.SetUsageTemplate(MsgUsageTemplate)

	rootCmd.AddCommand(newWatchCmd(g))
	rootCmd.AddCommand(newSweepCmd(g))
	rootCmd.AddCommand(newClassifyCmd(g))
	rootCmd.AddCommand(newRulesCmd(g))
	rootCmd.AddCommand(newGenConfigCmd())
	rootCmd.AddCommand(newAutostartCmd(g))
	rootCmd.AddCommand(newVersionCmd(g))
	rootCmd.AddCommand(newCompletionCmd())

	return rootCmd
}
