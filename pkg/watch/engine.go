package watch

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/arthur-debert/rocas/pkg/debounce"
	"github.com/arthur-debert/rocas/pkg/errors"
	"github.com/arthur-debert/rocas/pkg/filesystem"
	"github.com/arthur-debert/rocas/pkg/logging"
	"github.com/arthur-debert/rocas/pkg/types"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// DefaultWorkers is the size of the move worker pool when none is configured
const DefaultWorkers = 2

// Resolver maps a path relative to the watch root to a destination directory
type Resolver interface {
	Resolve(name string) (string, error)
}

// Mover performs a single move
type Mover interface {
	Move(source, destDir string) types.MoveOutcome
}

// Callback receives one outcome per processed file
type Callback func(types.MoveOutcome)

// Option configures an Engine
type Option func(*Engine)

// WithFS sets the filesystem used for stats and scans
func WithFS(fsys types.FS) Option {
	return func(e *Engine) {
		e.fs = fsys
	}
}

// WithMover sets the mover used by the worker pool
func WithMover(m Mover) Option {
	return func(e *Engine) {
		e.mover = m
	}
}

type moveJob struct {
	source string
	dest   string
}

type moveResult struct {
	job     moveJob
	outcome types.MoveOutcome
}

// Engine watches a root directory and moves settled files. An Engine runs
// once: Start after Stop is an error.
type Engine struct {
	cfg        types.WatchConfig
	resolver   Resolver
	mover      Mover
	fs         types.FS
	ignore     ignoreList
	capability Capability
	logger     zerolog.Logger

	// newSource starts a subscription for the given generation
	newSource func(f feed) (source, error)
	now       func() time.Time

	mu       sync.Mutex
	started  bool
	stopping bool
	callback Callback

	events   chan sourceEvent
	errs     chan sourceError
	expiries chan debounce.Expiry
	jobs     chan moveJob
	results  chan moveResult
	stopCh   chan struct{}
	loopDone chan struct{}
	fatal    chan error
	workers  errgroup.Group

	// actor state, touched only by the run goroutine
	src       source
	sourceGen uint64
	restarted bool
	debouncer *debounce.Debouncer
	queue     []moveJob
	busy      map[string]bool
	deferred  map[string]bool
	// files moved into watched directories, until the settle deadline
	arrivals map[string]time.Time
}

// New validates cfg and probes the subscription strategy. The root must
// exist and be a directory.
func New(cfg types.WatchConfig, resolver Resolver, opts ...Option) (*Engine, error) {
	e := &Engine{
		resolver: resolver,
		fs:       filesystem.NewOS(),
		logger:   logging.GetLogger("watch.engine"),
		events:   make(chan sourceEvent),
		errs:     make(chan sourceError),
		expiries: make(chan debounce.Expiry),
		jobs:     make(chan moveJob),
		results:  make(chan moveResult),
		stopCh:   make(chan struct{}),
		loopDone: make(chan struct{}),
		fatal:    make(chan error, 1),
		busy:     make(map[string]bool),
		deferred: make(map[string]bool),
		arrivals: make(map[string]time.Time),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if resolver == nil {
		return nil, errors.New(errors.ErrInvalidInput, "watch engine needs a resolver")
	}
	if e.mover == nil {
		return nil, errors.New(errors.ErrInvalidInput, "watch engine needs a mover")
	}

	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrInvalidConfig, "invalid watch root %s", cfg.Root)
	}
	cfg.Root = root
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = debounce.DefaultWindow
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.MaxNativeWatches <= 0 {
		cfg.MaxNativeWatches = DefaultMaxNativeWatches
	}
	if cfg.Ignore == nil {
		cfg.Ignore = DefaultIgnore
	}
	e.cfg = cfg

	if e.ignore, err = compileIgnore(cfg.Ignore); err != nil {
		return nil, err
	}
	if e.capability, err = Probe(cfg, e.fs); err != nil {
		return nil, err
	}

	e.newSource = func(f feed) (source, error) {
		if e.capability.Native() {
			return startNative(e.cfg, e.fs, f)
		}
		return startPolling(e.cfg, e.fs, f)
	}
	e.debouncer = debounce.New(cfg.Debounce, e.postExpiry, debounce.WithFS(e.fs))
	return e, nil
}

// Config returns the effective configuration after defaults were applied
func (e *Engine) Config() types.WatchConfig {
	return e.cfg
}

// Capability reports the active subscription strategy
func (e *Engine) Capability() Capability {
	return e.capability
}

// Fatal delivers the error that shut the engine down after the restart
// attempt failed. It receives at most one value.
func (e *Engine) Fatal() <-chan error {
	return e.fatal
}

// Done is closed once the engine has stopped, either through Stop or after
// a fatal subsystem error
func (e *Engine) Done() <-chan struct{} {
	return e.loopDone
}

// Start subscribes to the root and begins processing. callback receives
// every outcome on the engine's actor goroutine.
func (e *Engine) Start(callback Callback) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started {
		return errors.New(errors.ErrInternal, "watch engine already started")
	}
	if callback == nil {
		callback = func(types.MoveOutcome) {}
	}

	src, err := e.openSource()
	if err != nil {
		return err
	}
	e.src = src
	e.started = true
	e.callback = callback

	for i := 0; i < e.cfg.Workers; i++ {
		e.workers.Go(e.work)
	}
	go e.run()

	e.logger.Info().
		Str("root", e.cfg.Root).
		Str("capability", e.capability.String()).
		Bool("recursive", e.cfg.Recursive).
		Int("maxDepth", e.cfg.MaxDepth).
		Dur("debounce", e.cfg.Debounce).
		Msg("Watching")
	return nil
}

// Stop cancels queued moves, waits for moves in progress and closes the
// subscription. No callback runs after Stop returns.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.started {
		e.mu.Unlock()
		return
	}
	if !e.stopping {
		e.stopping = true
		close(e.stopCh)
	}
	e.mu.Unlock()
	<-e.loopDone
}

func (e *Engine) openSource() (source, error) {
	e.sourceGen++
	src, err := e.newSource(feed{gen: e.sourceGen, events: e.events, errs: e.errs})
	if err != nil {
		if errors.GetErrorCode(err) == errors.ErrWatchSubsystem {
			return nil, err
		}
		return nil, errors.Wrap(err, errors.ErrWatchSubsystem, "cannot subscribe to watch root")
	}
	return src, nil
}

// postExpiry runs on timer goroutines
func (e *Engine) postExpiry(exp debounce.Expiry) {
	select {
	case e.expiries <- exp:
	case <-e.loopDone:
	}
}

func (e *Engine) work() error {
	for job := range e.jobs {
		outcome := e.mover.Move(job.source, job.dest)
		e.results <- moveResult{job: job, outcome: outcome}
	}
	return nil
}

func (e *Engine) run() {
	for {
		var dispatch chan moveJob
		var next moveJob
		if len(e.queue) > 0 {
			dispatch = e.jobs
			next = e.queue[0]
		}

		select {
		case <-e.stopCh:
			e.shutdown()
			close(e.loopDone)
			return
		case se := <-e.events:
			if se.gen == e.sourceGen {
				e.restarted = false
			}
			e.handleEvent(se.event)
		case se := <-e.errs:
			if se.gen != e.sourceGen {
				continue
			}
			if err := e.handleSourceError(se.err); err != nil {
				e.shutdown()
				e.fatal <- err
				close(e.loopDone)
				return
			}
		case exp := <-e.expiries:
			if tr, ok := e.debouncer.Expire(exp); ok {
				e.handleTransition(tr)
			}
		case res := <-e.results:
			e.handleResult(res)
		case dispatch <- next:
			e.queue = e.queue[1:]
		}
	}
}

// handleSourceError restarts the subscription once. A failure with no
// event delivered since the last restart is returned as fatal.
func (e *Engine) handleSourceError(err error) error {
	_ = e.src.Close()
	e.src = nil

	if e.restarted {
		e.logger.Error().Err(err).Msg("Watch subsystem failed again after restart")
		return errors.Wrap(err, errors.ErrWatchSubsystem, "watch subsystem failed after restart")
	}

	e.logger.Warn().Err(err).Msg("Watch subsystem failed, restarting")
	src, openErr := e.openSource()
	if openErr != nil {
		e.logger.Error().Err(openErr).Msg("Watch subsystem restart failed")
		return errors.Wrap(openErr, errors.ErrWatchSubsystem, "watch subsystem restart failed")
	}
	e.src = src
	e.restarted = true
	return nil
}

func (e *Engine) handleEvent(ev types.Event) {
	path := filepath.Clean(ev.Path)
	if e.ignore.matches(path) {
		e.logger.Trace().Str("path", path).Msg("Ignored")
		return
	}
	if e.busy[path] {
		e.deferred[path] = true
		return
	}
	ev.Path = path
	if tr, ok := e.debouncer.Observe(ev); ok {
		e.handleTransition(tr)
	}
}

func (e *Engine) handleTransition(tr debounce.Transition) {
	path := tr.File.Path
	if until, ok := e.arrivals[path]; ok {
		delete(e.arrivals, path)
		if e.now().Before(until) {
			e.logger.Debug().Str("path", path).Msg("Settled file was moved here by the engine")
			return
		}
	}

	switch tr.State {
	case debounce.Removed:
		e.emit(types.Skipped(path, "", errors.ErrFileDisappeared,
			errors.Newf(errors.ErrFileDisappeared, "%s was removed before it settled", path)))
	case debounce.Stable:
		e.classify(tr.File)
	}
}

func (e *Engine) classify(file types.PendingFile) {
	path := file.Path
	dest, skip := e.destinationFor(path)
	if skip != nil {
		e.emit(*skip)
		return
	}

	e.logger.Debug().Str("path", path).Str("dest", dest).Int64("size", file.Size).
		Dur("settled", time.Since(file.FirstSeen)).Msg("Queueing move")
	e.busy[path] = true
	e.queue = append(e.queue, moveJob{source: path, dest: dest})
}

// destinationFor resolves the destination directory of path, or the
// outcome for a file that is not moved
func (e *Engine) destinationFor(path string) (string, *types.MoveOutcome) {
	rel, err := filepath.Rel(e.cfg.Root, path)
	if err != nil {
		rel = filepath.Base(path)
	}

	dest, err := e.resolver.Resolve(rel)
	if err != nil {
		skip := types.Skipped(path, "", errors.GetErrorCode(err), err)
		return "", &skip
	}
	dest = filepath.Clean(dest)
	if dest == filepath.Dir(path) {
		skip := types.Skipped(path, dest, errors.ErrAlreadyInPlace,
			errors.Newf(errors.ErrAlreadyInPlace, "%s is already in %s", path, dest))
		return "", &skip
	}
	return dest, nil
}

func (e *Engine) handleResult(res moveResult) {
	path := res.job.source
	delete(e.busy, path)

	e.pruneArrivals()
	if res.outcome.Result == types.ResultMoved {
		target := res.outcome.Destination
		if e.cfg.AllowsDir(types.DepthOf(e.cfg.Root, filepath.Dir(target))) {
			e.arrivals[target] = e.now().Add(e.arrivalWindow())
		}
	}
	e.emit(res.outcome)

	if e.deferred[path] {
		delete(e.deferred, path)
		if tr, ok := e.debouncer.Observe(types.Event{Kind: types.EventCreate, Path: path}); ok {
			e.handleTransition(tr)
		}
	}
}

// arrivalWindow bounds how long a moved file may take to be seen and
// settle. A directory that never got a watch produces no transition, so
// entries must expire.
func (e *Engine) arrivalWindow() time.Duration {
	return 3*e.cfg.Debounce + 2*e.cfg.PollInterval
}

func (e *Engine) pruneArrivals() {
	now := e.now()
	for path, until := range e.arrivals {
		if !now.Before(until) {
			delete(e.arrivals, path)
		}
	}
}

func (e *Engine) emit(outcome types.MoveOutcome) {
	e.logger.Debug().Str("source", outcome.Source).Str("result", outcome.Result.String()).
		Str("reason", string(outcome.Reason)).Msg("Outcome")
	e.callback(outcome)
}

// shutdown closes the subscription, reports queued moves as cancelled and
// waits for the workers to finish the moves they hold
func (e *Engine) shutdown() {
	if e.src != nil {
		_ = e.src.Close()
		e.src = nil
	}
	e.debouncer.Stop()

	for _, job := range e.queue {
		e.emit(types.Skipped(job.source, job.dest, errors.ErrCancelled,
			errors.New(errors.ErrCancelled, "watch stopped before the move started")))
	}
	e.queue = nil
	close(e.jobs)

	go func() {
		_ = e.workers.Wait()
		close(e.results)
	}()
	for res := range e.results {
		delete(e.busy, res.job.source)
		e.emit(res.outcome)
	}
	e.logger.Info().Str("root", e.cfg.Root).Msg("Watch stopped")
}
