package rocas

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/rocas/internal/version"
	"github.com/arthur-debert/rocas/pkg/autostart"
	"github.com/arthur-debert/rocas/pkg/config"
	"github.com/arthur-debert/rocas/pkg/errors"
	"github.com/arthur-debert/rocas/pkg/organizer"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newSweepCmd(g *globalOptions) *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:     "sweep",
		Short:   MsgSweepShort,
		Long:    MsgSweepLong,
		GroupID: "core",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := g.renderer(cmd)
			if err != nil {
				return err
			}
			cfg, err := g.loadConfig((&watchOptions{path: path}).overrides())
			if err != nil {
				return err
			}
			org := organizer.New(r)
			if err := org.Apply(cfg); err != nil {
				return err
			}
			summary, err := org.Sweep(cmd.Context())
			r.Summary(summary)
			return err
		},
	}
	cmd.Flags().StringVarP(&path, "path", "p", "", MsgFlagPath)
	return cmd
}

func newClassifyCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "classify NAME...",
		Short:   MsgClassifyShort,
		Example: MsgClassifyExample,
		GroupID: "config",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := g.renderer(cmd)
			if err != nil {
				return err
			}
			cfg, err := g.loadConfig(nil)
			if err != nil {
				return err
			}
			rs, err := cfg.RuleSet()
			if err != nil {
				return err
			}
			for _, name := range args {
				dest, err := rs.Resolve(name)
				r.Classification(name, dest, err)
			}
			return nil
		},
	}
}

func newRulesCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "rules",
		Short:   MsgRulesShort,
		GroupID: "config",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := g.renderer(cmd)
			if err != nil {
				return err
			}
			cfg, err := g.loadConfig(nil)
			if err != nil {
				return err
			}
			rs, err := cfg.RuleSet()
			if err != nil {
				return err
			}
			return r.Rules(rs)
		},
	}
}

func newGenConfigCmd() *cobra.Command {
	var (
		format string
		write  bool
		force  bool
		output string
	)
	cmd := &cobra.Command{
		Use:     "gen-config",
		Short:   MsgGenConfigShort,
		Long:    MsgGenConfigLong,
		Example: MsgGenConfigExample,
		GroupID: "config",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := config.ParseFormat(format)
			if err != nil {
				return err
			}
			data, err := config.Generate(config.Sample(), f)
			if err != nil {
				return err
			}
			if !write {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}

			path := output
			if path == "" {
				if path, err = config.UserConfigPath(); err != nil {
					return err
				}
				path = strings.TrimSuffix(path, filepath.Ext(path)) + f.Extension()
			}
			if _, err := os.Stat(path); err == nil && !force {
				return errors.Newf(errors.ErrInvalidInput, MsgErrConfigExists, path)
			}
			if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
				return errors.Wrapf(err, errors.ErrConfigLoad, "cannot create %s", filepath.Dir(path))
			}
			if err := os.WriteFile(path, data, 0644); err != nil {
				return errors.Wrapf(err, errors.ErrConfigLoad, "cannot write %s", path)
			}
			log.Info().Str("path", path).Msg("Config written")
			_, err = fmt.Fprintf(cmd.OutOrStdout(), MsgConfigWritten+"\n", path)
			return err
		},
	}
	cmd.Flags().StringVar(&format, "format", "toml", MsgFlagCfgFmt)
	cmd.Flags().BoolVarP(&write, "write", "w", false, MsgFlagWrite)
	cmd.Flags().BoolVar(&force, "force", false, MsgFlagForce)
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to this path instead of the user config directory")
	return cmd
}

func newAutostartCmd(g *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "autostart",
		Short:   MsgAutostartShort,
		Long:    MsgAutostartLong,
		GroupID: "misc",
	}

	installer := func() (*autostart.Installer, error) {
		args := []string{"watch"}
		if g.configPath != "" {
			abs, err := filepath.Abs(g.configPath)
			if err != nil {
				return nil, err
			}
			args = append(args, "--config", abs)
		}
		return autostart.New(autostart.WithArgs(args...))
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "install",
		Short: MsgInstallShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := g.renderer(cmd)
			if err != nil {
				return err
			}
			i, err := installer()
			if err != nil {
				return err
			}
			if err := i.Install(cmd.Context()); err != nil {
				return err
			}
			r.Message(fmt.Sprintf(MsgAutostartOn, i.Path()))
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "uninstall",
		Short: MsgUninstallShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := g.renderer(cmd)
			if err != nil {
				return err
			}
			i, err := installer()
			if err != nil {
				return err
			}
			if err := i.Uninstall(cmd.Context()); err != nil {
				return err
			}
			r.Message(MsgAutostartOff)
			return nil
		},
	})
	return cmd
}

func newVersionCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "version",
		Short:   MsgVersionShort,
		GroupID: "misc",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := version.Get()
			if g.format == "json" {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(info)
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), MsgVersionFormat, info.Version, info.Commit, info.Date)
			return err
		},
	}
}

func newCompletionCmd() *cobra.Command {
	return &cobra.Command{
		Use:                   "completion [bash|zsh|fish|powershell]",
		Short:                 MsgCompletionShort,
		Long:                  MsgCompletionLong,
		GroupID:               "misc",
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(out, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			default:
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
		},
	}
}
