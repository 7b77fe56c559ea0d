package watch

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/arthur-debert/rocas/pkg/debounce"
	"github.com/arthur-debert/rocas/pkg/errors"
	"github.com/arthur-debert/rocas/pkg/filesystem"
	"github.com/arthur-debert/rocas/pkg/mover"
	"github.com/arthur-debert/rocas/pkg/rules"
	"github.com/arthur-debert/rocas/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type collector struct {
	mu       sync.Mutex
	outcomes []types.MoveOutcome
}

func (c *collector) add(o types.MoveOutcome) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.outcomes = append(c.outcomes, o)
}

func (c *collector) all() []types.MoveOutcome {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]types.MoveOutcome(nil), c.outcomes...)
}

func (c *collector) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.outcomes)
}

func (c *collector) bySource(source string) (types.MoveOutcome, bool) {
	for _, o := range c.all() {
		if o.Source == source {
			return o, true
		}
	}
	return types.MoveOutcome{}, false
}

type fixture struct {
	root string
	out  string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	base := t.TempDir()
	f := fixture{root: filepath.Join(base, "Downloads"), out: filepath.Join(base, "sorted")}
	require.NoError(t, os.MkdirAll(f.root, 0755))
	return f
}

func (f fixture) ruleSet(t *testing.T) *rules.RuleSet {
	t.Helper()
	rs, err := rules.New([]rules.Rule{
		{Patterns: []string{"*.pdf", "*.docx"}, Destination: filepath.Join(f.out, "Documents")},
		{Patterns: []string{"*.jpg", "*.png"}, Destination: filepath.Join(f.out, "Pictures")},
	}, rules.WithCaseSensitive(true))
	require.NoError(t, err)
	return rs
}

func pollingConfig(root string) types.WatchConfig {
	return types.WatchConfig{
		Root:         root,
		Recursive:    true,
		PollInterval: 30 * time.Millisecond,
		Debounce:     100 * time.Millisecond,
		Workers:      2,
		ForcePolling: true,
	}
}

func newEngine(t *testing.T, cfg types.WatchConfig, resolver Resolver, m Mover) *Engine {
	t.Helper()
	if m == nil {
		mv, err := mover.New()
		require.NoError(t, err)
		m = mv
	}
	e, err := New(cfg, resolver, WithMover(m))
	require.NoError(t, err)
	return e
}

func write(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func runScenario(t *testing.T, cfg types.WatchConfig, f fixture) {
	e := newEngine(t, cfg, f.ruleSet(t), nil)
	c := &collector{}
	require.NoError(t, e.Start(c.add))
	defer e.Stop()

	write(t, filepath.Join(f.root, "report.pdf"), "pdf")
	write(t, filepath.Join(f.root, "photo.jpg"), "jpg")
	write(t, filepath.Join(f.root, "notes.docx"), "docx")

	require.Eventually(t, func() bool { return c.count() == 3 }, 5*time.Second, 20*time.Millisecond)
	e.Stop()

	assert.FileExists(t, filepath.Join(f.out, "Documents", "report.pdf"))
	assert.FileExists(t, filepath.Join(f.out, "Documents", "notes.docx"))
	assert.FileExists(t, filepath.Join(f.out, "Pictures", "photo.jpg"))
	assert.NoFileExists(t, filepath.Join(f.root, "report.pdf"))
	for _, o := range c.all() {
		assert.Equal(t, types.ResultMoved, o.Result, o.String())
	}
}

func TestEngine_SortsNewFiles_Polling(t *testing.T) {
	f := newFixture(t)
	runScenario(t, pollingConfig(f.root), f)
}

func TestEngine_SortsNewFiles_Native(t *testing.T) {
	f := newFixture(t)
	cfg := pollingConfig(f.root)
	cfg.ForcePolling = false

	capability, err := Probe(cfg, filesystem.NewOS())
	require.NoError(t, err)
	if !capability.Native() {
		t.Skip("native notifications unavailable")
	}
	runScenario(t, cfg, f)
}

func TestEngine_ExistingFilesAreNotMoved(t *testing.T) {
	f := newFixture(t)
	write(t, filepath.Join(f.root, "old.pdf"), "old")

	e := newEngine(t, pollingConfig(f.root), f.ruleSet(t), nil)
	c := &collector{}
	require.NoError(t, e.Start(c.add))

	write(t, filepath.Join(f.root, "new.pdf"), "new")
	require.Eventually(t, func() bool { return c.count() == 1 }, 5*time.Second, 20*time.Millisecond)
	e.Stop()

	assert.FileExists(t, filepath.Join(f.root, "old.pdf"))
	assert.FileExists(t, filepath.Join(f.out, "Documents", "new.pdf"))
}

func TestEngine_ChunkedWriteMovesOnce(t *testing.T) {
	f := newFixture(t)
	cfg := pollingConfig(f.root)
	cfg.Debounce = 500 * time.Millisecond

	e := newEngine(t, cfg, f.ruleSet(t), nil)
	c := &collector{}
	require.NoError(t, e.Start(c.add))
	defer e.Stop()

	path := filepath.Join(f.root, "big.pdf")
	file, err := os.Create(path)
	require.NoError(t, err)
	chunk := make([]byte, 1024)
	for i := 0; i < 10; i++ {
		_, err := file.Write(chunk)
		require.NoError(t, err)
		require.NoError(t, file.Sync())
		time.Sleep(200 * time.Millisecond)
		assert.Equal(t, 0, c.count(), "moved while still being written")
	}
	require.NoError(t, file.Close())

	require.Eventually(t, func() bool { return c.count() == 1 }, 5*time.Second, 20*time.Millisecond)
	time.Sleep(300 * time.Millisecond)
	e.Stop()

	outcomes := c.all()
	require.Len(t, outcomes, 1)
	assert.Equal(t, types.ResultMoved, outcomes[0].Result)
	info, err := os.Stat(outcomes[0].Destination)
	require.NoError(t, err)
	assert.Equal(t, int64(10*1024), info.Size())
}

func TestEngine_DeletedDuringWindow(t *testing.T) {
	f := newFixture(t)
	cfg := pollingConfig(f.root)
	cfg.Debounce = 2 * time.Second

	e := newEngine(t, cfg, f.ruleSet(t), nil)
	c := &collector{}
	require.NoError(t, e.Start(c.add))
	defer e.Stop()

	path := filepath.Join(f.root, "flash.pdf")
	write(t, path, "x")
	time.Sleep(200 * time.Millisecond)
	require.NoError(t, os.Remove(path))

	require.Eventually(t, func() bool { return c.count() == 1 }, 5*time.Second, 20*time.Millisecond)
	o := c.all()[0]
	assert.Equal(t, types.ResultSkipped, o.Result)
	assert.Equal(t, errors.ErrFileDisappeared, o.Reason)
	assert.Equal(t, path, o.Source)
}

func TestEngine_SkipsUnmatchedAndInPlace(t *testing.T) {
	f := newFixture(t)
	rs, err := rules.New([]rules.Rule{
		{Patterns: []string{"*.pdf"}, Destination: filepath.Join(f.out, "Documents")},
		{Patterns: []string{"*.keep"}, Destination: f.root},
	})
	require.NoError(t, err)

	e := newEngine(t, pollingConfig(f.root), rs, nil)
	c := &collector{}
	require.NoError(t, e.Start(c.add))
	defer e.Stop()

	unknown := filepath.Join(f.root, "archive.zip")
	stay := filepath.Join(f.root, "list.keep")
	write(t, unknown, "zip")
	write(t, stay, "keep")

	require.Eventually(t, func() bool { return c.count() == 2 }, 5*time.Second, 20*time.Millisecond)

	o, ok := c.bySource(unknown)
	require.True(t, ok)
	assert.Equal(t, types.ResultSkipped, o.Result)
	assert.Equal(t, errors.ErrNoMatchingRule, o.Reason)
	assert.FileExists(t, unknown)

	o, ok = c.bySource(stay)
	require.True(t, ok)
	assert.Equal(t, types.ResultSkipped, o.Result)
	assert.Equal(t, errors.ErrAlreadyInPlace, o.Reason)
	assert.FileExists(t, stay)
}

func TestEngine_IgnoresPartialDownloads(t *testing.T) {
	f := newFixture(t)
	e := newEngine(t, pollingConfig(f.root), f.ruleSet(t), nil)
	c := &collector{}
	require.NoError(t, e.Start(c.add))
	defer e.Stop()

	write(t, filepath.Join(f.root, "movie.pdf.crdownload"), "partial")
	write(t, filepath.Join(f.root, "report.pdf"), "pdf")

	require.Eventually(t, func() bool { return c.count() == 1 }, 5*time.Second, 20*time.Millisecond)
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, 1, c.count())
	assert.FileExists(t, filepath.Join(f.root, "movie.pdf.crdownload"))
}

func TestEngine_RespectsMaxDepth(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.MkdirAll(filepath.Join(f.root, "one", "two"), 0755))
	cfg := pollingConfig(f.root)
	cfg.MaxDepth = 1

	e := newEngine(t, cfg, f.ruleSet(t), nil)
	c := &collector{}
	require.NoError(t, e.Start(c.add))
	defer e.Stop()

	write(t, filepath.Join(f.root, "one", "two", "deep.pdf"), "deep")
	write(t, filepath.Join(f.root, "one", "shallow.pdf"), "shallow")

	require.Eventually(t, func() bool { return c.count() == 1 }, 5*time.Second, 20*time.Millisecond)
	time.Sleep(300 * time.Millisecond)
	e.Stop()

	assert.Equal(t, 1, c.count())
	assert.FileExists(t, filepath.Join(f.out, "Documents", "shallow.pdf"))
	assert.FileExists(t, filepath.Join(f.root, "one", "two", "deep.pdf"))
}

func TestEngine_MovesIntoWatchedSubdirOnce(t *testing.T) {
	f := newFixture(t)
	rs, err := rules.New([]rules.Rule{
		{Patterns: []string{"*.pdf"}, Destination: filepath.Join(f.root, "pdfs")},
	})
	require.NoError(t, err)

	e := newEngine(t, pollingConfig(f.root), rs, nil)
	c := &collector{}
	require.NoError(t, e.Start(c.add))
	defer e.Stop()

	write(t, filepath.Join(f.root, "a.pdf"), "a")
	require.Eventually(t, func() bool { return c.count() == 1 }, 5*time.Second, 20*time.Millisecond)
	time.Sleep(400 * time.Millisecond)

	assert.Equal(t, 1, c.count())
	assert.FileExists(t, filepath.Join(f.root, "pdfs", "a.pdf"))
}

func TestEngine_ArrivalSuppressionExpires(t *testing.T) {
	f := newFixture(t)
	rs, err := rules.New([]rules.Rule{
		{Patterns: []string{"*.pdf"}, Destination: filepath.Join(f.root, "pdfs")},
	})
	require.NoError(t, err)

	e := newEngine(t, pollingConfig(f.root), rs, nil)
	c := &collector{}
	e.callback = c.add
	now := time.Now()
	e.now = func() time.Time { return now }

	moved := func(name string) string {
		source := filepath.Join(f.root, name)
		target := filepath.Join(f.root, "pdfs", name)
		e.handleResult(moveResult{
			job:     moveJob{source: source, dest: filepath.Dir(target)},
			outcome: types.Moved(source, target),
		})
		return target
	}
	settled := func(path string) {
		e.handleTransition(debounce.Transition{
			State: debounce.Stable,
			File:  types.PendingFile{Path: path, FirstSeen: now},
		})
	}

	// Settles inside the window: not reported a second time.
	target := moved("a.pdf")
	settled(target)
	assert.Equal(t, 1, c.count())
	assert.Empty(t, e.arrivals)

	// No transition in time: a later file at the same path is handled.
	target = moved("a.pdf")
	now = now.Add(e.arrivalWindow())
	settled(target)
	require.Equal(t, 3, c.count())
	last := c.all()[2]
	assert.Equal(t, target, last.Source)
	assert.Equal(t, errors.ErrAlreadyInPlace, last.Reason)

	// Expired entries are dropped when the next move completes.
	moved("b.pdf")
	now = now.Add(e.arrivalWindow())
	other := moved("c.pdf")
	assert.Len(t, e.arrivals, 1)
	assert.Contains(t, e.arrivals, other)
}

// blockingMover holds every move until release is closed
type blockingMover struct {
	started chan string
	release chan struct{}
	inner   Mover
}

func (m *blockingMover) Move(source, destDir string) types.MoveOutcome {
	m.started <- source
	<-m.release
	return m.inner.Move(source, destDir)
}

func newBlockingMover(t *testing.T) *blockingMover {
	inner, err := mover.New()
	require.NoError(t, err)
	return &blockingMover{started: make(chan string, 16), release: make(chan struct{}), inner: inner}
}

func TestEngine_StopWaitsForMoveInProgress(t *testing.T) {
	f := newFixture(t)
	m := newBlockingMover(t)
	cfg := pollingConfig(f.root)
	cfg.Workers = 1

	e := newEngine(t, cfg, f.ruleSet(t), m)
	c := &collector{}
	require.NoError(t, e.Start(c.add))

	first := filepath.Join(f.root, "first.pdf")
	second := filepath.Join(f.root, "second.pdf")
	write(t, first, "1")

	select {
	case <-m.started:
	case <-time.After(5 * time.Second):
		t.Fatal("move never started")
	}

	write(t, second, "2")
	// Let the second file settle and queue behind the busy worker.
	time.Sleep(500 * time.Millisecond)

	stopped := make(chan struct{})
	go func() {
		e.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
		t.Fatal("Stop returned while a move was in progress")
	case <-time.After(200 * time.Millisecond):
	}

	close(m.release)
	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop did not return after the move finished")
	}

	o, ok := c.bySource(first)
	require.True(t, ok)
	assert.Equal(t, types.ResultMoved, o.Result)
	assert.FileExists(t, filepath.Join(f.out, "Documents", "first.pdf"))

	o, ok = c.bySource(second)
	require.True(t, ok)
	assert.Equal(t, types.ResultSkipped, o.Result)
	assert.Equal(t, errors.ErrCancelled, o.Reason)
	assert.FileExists(t, second)

	total := c.count()
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, total, c.count(), "callback ran after Stop returned")
}

func TestEngine_StartTwice(t *testing.T) {
	f := newFixture(t)
	e := newEngine(t, pollingConfig(f.root), f.ruleSet(t), nil)
	require.NoError(t, e.Start(nil))
	defer e.Stop()

	err := e.Start(nil)
	assert.True(t, errors.IsErrorCode(err, errors.ErrInternal))
}

func TestEngine_StopBeforeStart(t *testing.T) {
	f := newFixture(t)
	e := newEngine(t, pollingConfig(f.root), f.ruleSet(t), nil)
	e.Stop()
}

func TestNew_Validation(t *testing.T) {
	f := newFixture(t)
	rs := f.ruleSet(t)
	mv, err := mover.New()
	require.NoError(t, err)

	_, err = New(pollingConfig(filepath.Join(f.root, "missing")), rs, WithMover(mv))
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidConfig))

	file := filepath.Join(f.root, "file.txt")
	write(t, file, "x")
	_, err = New(pollingConfig(file), rs, WithMover(mv))
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidConfig))

	cfg := pollingConfig(f.root)
	cfg.Ignore = []string{"[unclosed"}
	_, err = New(cfg, rs, WithMover(mv))
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidConfig))

	_, err = New(pollingConfig(f.root), rs)
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
}

func TestNew_AppliesDefaults(t *testing.T) {
	f := newFixture(t)
	e := newEngine(t, types.WatchConfig{Root: f.root, ForcePolling: true}, f.ruleSet(t), nil)

	cfg := e.Config()
	assert.Equal(t, DefaultWorkers, cfg.Workers)
	assert.Equal(t, DefaultPollInterval, cfg.PollInterval)
	assert.Equal(t, 750*time.Millisecond, cfg.Debounce)
	assert.Equal(t, DefaultIgnore, cfg.Ignore)
	assert.Equal(t, PollingFallback, e.Capability())
}
