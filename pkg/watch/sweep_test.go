package watch

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/arthur-debert/rocas/pkg/errors"
	"github.com/arthur-debert/rocas/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_Sweep(t *testing.T) {
	f := newFixture(t)
	write(t, filepath.Join(f.root, "report.pdf"), "pdf")
	write(t, filepath.Join(f.root, "photo.jpg"), "jpg")
	write(t, filepath.Join(f.root, "archive.zip"), "zip")
	write(t, filepath.Join(f.root, "video.mp4.part"), "part")
	write(t, filepath.Join(f.root, "nested", "scan.pdf"), "scan")

	cfg := pollingConfig(f.root)
	cfg.MaxDepth = 1
	e := newEngine(t, cfg, f.ruleSet(t), nil)

	c := &collector{}
	require.NoError(t, e.Sweep(context.Background(), c.add))

	assert.Equal(t, 4, c.count())
	assert.FileExists(t, filepath.Join(f.out, "Documents", "report.pdf"))
	assert.FileExists(t, filepath.Join(f.out, "Documents", "scan.pdf"))
	assert.FileExists(t, filepath.Join(f.out, "Pictures", "photo.jpg"))
	assert.FileExists(t, filepath.Join(f.root, "video.mp4.part"))

	o, ok := c.bySource(filepath.Join(f.root, "archive.zip"))
	require.True(t, ok)
	assert.Equal(t, types.ResultSkipped, o.Result)
	assert.Equal(t, errors.ErrNoMatchingRule, o.Reason)
}

func TestEngine_SweepCancelled(t *testing.T) {
	f := newFixture(t)
	write(t, filepath.Join(f.root, "report.pdf"), "pdf")
	e := newEngine(t, pollingConfig(f.root), f.ruleSet(t), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := &collector{}
	err := e.Sweep(ctx, c.add)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, c.count())
	assert.FileExists(t, filepath.Join(f.root, "report.pdf"))
}

func TestEngine_SweepCompletesWithoutError(t *testing.T) {
	f := newFixture(t)
	write(t, filepath.Join(f.root, "report.pdf"), "pdf")
	e := newEngine(t, pollingConfig(f.root), f.ruleSet(t), nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := &collector{}
	require.NoError(t, e.Sweep(ctx, c.add))
	assert.NoError(t, ctx.Err())
	assert.Equal(t, 1, c.count())

	// Nothing left to move, still no error.
	require.NoError(t, e.Sweep(ctx, c.add))
	assert.Equal(t, 1, c.count())
}
