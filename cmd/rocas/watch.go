package rocas

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/arthur-debert/rocas/pkg/organizer"
	"github.com/arthur-debert/rocas/pkg/ui"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type watchOptions struct {
	path  string
	poll  bool
	sweep bool
}

func (w *watchOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&w.path, "path", "p", "", MsgFlagPath)
	cmd.Flags().BoolVar(&w.poll, "poll", false, MsgFlagPoll)
	cmd.Flags().BoolVar(&w.sweep, "sweep", false, MsgFlagSweep)
}

// overrides maps the flags onto configuration keys
func (w *watchOptions) overrides() map[string]interface{} {
	out := map[string]interface{}{}
	if w.path != "" {
		out["watcher.watch_path"] = w.path
	}
	if w.poll {
		out["watcher.force_polling"] = true
	}
	return out
}

func newWatchCmd(g *globalOptions) *cobra.Command {
	w := &watchOptions{}
	cmd := &cobra.Command{
		Use:     "watch",
		Short:   MsgWatchShort,
		Long:    MsgRootLong,
		Example: MsgWatchExample,
		GroupID: "core",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, g, w)
		},
	}
	w.bind(cmd)
	return cmd
}

// runWatch runs the organizer until interrupted, the command context ends or
// the engine gives up. SIGHUP reloads the configuration.
func runWatch(cmd *cobra.Command, g *globalOptions, w *watchOptions) error {
	r, err := g.renderer(cmd)
	if err != nil {
		return err
	}
	cfg, err := g.loadConfig(w.overrides())
	if err != nil {
		return err
	}

	org := organizer.New(r)
	if err := org.Apply(cfg); err != nil {
		return err
	}

	ctx := cmd.Context()
	if w.sweep {
		summary, err := org.Sweep(ctx)
		if err != nil {
			return err
		}
		r.Summary(summary)
	}

	if err := org.Start(); err != nil {
		return err
	}
	capability, _ := org.Capability()
	r.Message(fmt.Sprintf(MsgWatching, ui.ShortenPath(cfg.Watcher.WatchPath, ui.HomeDir()), capability))

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(signals)

	for {
		select {
		case sig := <-signals:
			if sig == syscall.SIGHUP {
				reload(g, w, org, r)
				continue
			}
			log.Info().Str("signal", sig.String()).Msg("Received signal")
			r.Message(MsgStopping)
			r.Summary(org.Stop())
			return nil
		case <-ctx.Done():
			r.Summary(org.Stop())
			return nil
		case err := <-org.Done():
			return err
		}
	}
}

func reload(g *globalOptions, w *watchOptions, org *organizer.Organizer, r ui.Renderer) {
	cfg, err := g.loadConfig(w.overrides())
	if err == nil {
		err = org.Reconfigure(cfg)
	}
	if err != nil {
		r.Message(fmt.Sprintf(MsgReloadFailed, err))
		return
	}
	r.Message(MsgReloaded)
}
