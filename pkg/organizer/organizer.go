package organizer

import (
	"context"
	"sync"
	"time"

	"github.com/arthur-debert/rocas/pkg/config"
	"github.com/arthur-debert/rocas/pkg/errors"
	"github.com/arthur-debert/rocas/pkg/filesystem"
	"github.com/arthur-debert/rocas/pkg/logging"
	"github.com/arthur-debert/rocas/pkg/mover"
	"github.com/arthur-debert/rocas/pkg/rules"
	"github.com/arthur-debert/rocas/pkg/types"
	"github.com/arthur-debert/rocas/pkg/watch"
	"github.com/rs/zerolog"
)

// Option configures an Organizer
type Option func(*Organizer)

// WithFS sets the filesystem used for validation, stats and moves
func WithFS(fsys types.FS) Option {
	return func(o *Organizer) {
		o.fs = fsys
	}
}

// Organizer owns the watch engine built from the applied configuration.
// Configuration is never changed under a running engine: Reconfigure stops
// it, applies the new settings and starts a fresh one.
type Organizer struct {
	sink   Sink
	fs     types.FS
	logger zerolog.Logger
	done   chan error

	mu       sync.Mutex
	cfg      *config.Config
	ruleSet  *rules.RuleSet
	watchCfg types.WatchConfig
	mover    *mover.Mover
	engine   *watch.Engine

	statsMu sync.Mutex
	summary Summary
}

// New creates an Organizer reporting to sink
func New(sink Sink, opts ...Option) *Organizer {
	o := &Organizer{
		sink:   sink,
		fs:     filesystem.NewOS(),
		logger: logging.GetLogger("organizer"),
		done:   make(chan error, 1),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Apply validates cfg and makes it the configuration used by the next
// Start or Sweep. It fails with INVALID_CONFIG for a missing or
// non-directory root, bad rules or a bad collision format, and refuses to
// run while the engine is running.
func (o *Organizer) Apply(cfg *config.Config) error {
	if cfg == nil {
		return errors.New(errors.ErrInvalidInput, "no configuration given")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	rs, err := cfg.RuleSet()
	if err != nil {
		return err
	}
	m, err := mover.New(
		mover.WithFS(o.fs),
		mover.WithCollisionFormat(cfg.Organizer.CollisionFormat),
	)
	if err != nil {
		return err
	}

	wc := cfg.WatchConfig()
	info, err := o.fs.Stat(wc.Root)
	if err != nil {
		return errors.Wrapf(err, errors.ErrInvalidConfig, "watch path %s does not exist", wc.Root).
			WithDetail("path", wc.Root)
	}
	if !info.IsDir() {
		return errors.Newf(errors.ErrInvalidConfig, "watch path %s is not a directory", wc.Root).
			WithDetail("path", wc.Root)
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.engine != nil {
		return errors.New(errors.ErrInvalidInput, "cannot apply configuration while watching, use Reconfigure")
	}
	o.cfg = cfg
	o.ruleSet = rs
	o.watchCfg = wc
	o.mover = m

	o.logger.Debug().
		Str("root", wc.Root).
		Int("rules", len(cfg.Rules)).
		Str("source", cfg.Source).
		Msg("Configuration applied")
	return nil
}

// Config returns the applied configuration
func (o *Organizer) Config() *config.Config {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.cfg
}

// RuleSet returns the rule set built from the applied configuration
func (o *Organizer) RuleSet() *rules.RuleSet {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.ruleSet
}

// Running reports whether an engine is active
func (o *Organizer) Running() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.engine != nil
}

// Capability reports the strategy of the running engine
func (o *Organizer) Capability() (watch.Capability, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.engine == nil {
		return watch.PollingFallback, false
	}
	return o.engine.Capability(), true
}

// Done delivers the error of an engine that shut itself down. The
// organizer has already reported it to the sink and is stopped by then.
func (o *Organizer) Done() <-chan error {
	return o.done
}

// Start builds an engine from the applied configuration and starts it
func (o *Organizer) Start() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.engine != nil {
		return errors.New(errors.ErrInvalidInput, "already watching")
	}
	if o.cfg == nil {
		return errors.New(errors.ErrInvalidInput, "no configuration applied")
	}

	eng, err := o.newEngine()
	if err != nil {
		return err
	}

	o.statsMu.Lock()
	o.summary = newSummary(time.Now())
	o.statsMu.Unlock()

	if err := eng.Start(o.record); err != nil {
		return err
	}
	o.engine = eng
	go o.monitor(eng)

	o.logger.Info().Str("root", o.watchCfg.Root).Str("capability", eng.Capability().String()).
		Msg("Organizer started")
	return nil
}

// Stop stops the engine, waiting for moves in progress, and returns the
// counts since Start. Stopping an organizer that is not running returns an
// empty Summary.
func (o *Organizer) Stop() Summary {
	o.mu.Lock()
	eng := o.engine
	o.engine = nil
	o.mu.Unlock()

	if eng == nil {
		return Summary{}
	}
	eng.Stop()

	o.statsMu.Lock()
	defer o.statsMu.Unlock()
	o.summary.Duration = time.Since(o.summary.Started)
	o.logger.Info().Str("summary", o.summary.String()).Msg("Organizer stopped")
	return o.summary
}

// Reconfigure replaces the configuration. A running engine is stopped and
// restarted with cfg; when cfg is invalid the previous configuration keeps
// running and the error is returned.
func (o *Organizer) Reconfigure(cfg *config.Config) error {
	running := o.Running()
	if running {
		o.Stop()
	}

	if err := o.Apply(cfg); err != nil {
		if running {
			if startErr := o.Start(); startErr != nil {
				o.logger.Error().Err(startErr).Msg("Could not restart with the previous configuration")
			}
		}
		return err
	}

	if running {
		return o.Start()
	}
	return nil
}

// Sweep organises the files already in the watch path with the applied
// configuration and returns the counts
func (o *Organizer) Sweep(ctx context.Context) (Summary, error) {
	o.mu.Lock()
	if o.cfg == nil {
		o.mu.Unlock()
		return Summary{}, errors.New(errors.ErrInvalidInput, "no configuration applied")
	}
	eng, err := o.newEngine()
	o.mu.Unlock()
	if err != nil {
		return Summary{}, err
	}

	summary := newSummary(time.Now())
	err = eng.Sweep(ctx, func(out types.MoveOutcome) {
		summary.Add(out)
		o.sink.Outcome(out)
	})
	summary.Duration = time.Since(summary.Started)
	return summary, err
}

// newEngine must be called with o.mu held
func (o *Organizer) newEngine() (*watch.Engine, error) {
	return watch.New(o.watchCfg, o.ruleSet,
		watch.WithMover(o.mover),
		watch.WithFS(o.fs),
	)
}

func (o *Organizer) record(out types.MoveOutcome) {
	o.statsMu.Lock()
	o.summary.Add(out)
	o.statsMu.Unlock()
	o.sink.Outcome(out)
}

// monitor reports an engine that died on its own
func (o *Organizer) monitor(eng *watch.Engine) {
	<-eng.Done()
	select {
	case err := <-eng.Fatal():
		o.logger.Error().Err(err).Msg("Watch engine stopped")
		o.mu.Lock()
		if o.engine == eng {
			o.engine = nil
		}
		o.mu.Unlock()

		o.sink.Error(err)
		select {
		case o.done <- err:
		default:
		}
	default:
	}
}
