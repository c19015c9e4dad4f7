package filesystem

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/rv-tools/multibuild/internal/application/errors"
	"github.com/rv-tools/multibuild/internal/domain/build"
	"github.com/rv-tools/multibuild/internal/domain/values"
)

func sampleResult(start time.Time) *build.RunResult {
	r := build.NewRunResult(build.Selection{values.TargetAndroid, values.TargetWebGL})
	r.StartTime = start
	r.ProductName = "Game"
	r.OriginalTarget = values.TargetIOS

	first := r.Target(0)
	first.Status = values.StatusSucceeded
	first.OutputPath = filepath.Join("Builds", "Android", "Game.apk")
	first.Options = build.OptionForceEnableAssertions
	first.Duration = build.ElapsedOf(1500 * time.Millisecond)

	second := r.Target(1)
	second.Status = values.StatusFailed
	second.Message = "compiler error"

	r.Error = "build failed for target WebGL (#2)"
	r.Finalize(values.StatusFailed, 1)
	return r
}

func TestRunResultRepository_SaveAndFindByID(t *testing.T) {
	repo := NewRunResultRepository(filepath.Join(t.TempDir(), "runs"), nil)
	ctx := context.Background()

	result := sampleResult(time.Now().Truncate(time.Second))
	require.NoError(t, repo.Save(ctx, result))

	found, err := repo.FindByID(ctx, result.RunID)
	require.NoError(t, err)

	assert.Equal(t, result.RunID, found.RunID)
	assert.True(t, result.StartTime.Equal(found.StartTime))
	assert.Equal(t, values.StatusFailed, found.Status)
	assert.Equal(t, 1, found.FailedAt)
	assert.Equal(t, values.TargetIOS, found.OriginalTarget)
	assert.Equal(t, result.Summary, found.Summary)
	require.Len(t, found.Targets, 2)
	assert.Equal(t, build.OptionForceEnableAssertions, found.Targets[0].Options)
	assert.Equal(t, 1500*time.Millisecond, found.Targets[0].Duration.Duration)
	assert.Equal(t, values.GroupWebGL, found.Targets[1].Group)
	assert.Equal(t, "compiler error", found.Targets[1].Message)
}

func TestRunResultRepository_NotFound(t *testing.T) {
	repo := NewRunResultRepository(t.TempDir(), nil)

	_, err := repo.FindByID(context.Background(), values.NewRunID())
	assert.ErrorIs(t, err, apperrors.ErrRunNotFound)
}

func TestRunResultRepository_FindRecent(t *testing.T) {
	dir := t.TempDir()
	repo := NewRunResultRepository(dir, nil)
	ctx := context.Background()

	now := time.Now()
	oldest := sampleResult(now.Add(-3 * time.Hour))
	middle := sampleResult(now.Add(-2 * time.Hour))
	newest := sampleResult(now.Add(-1 * time.Hour))
	for _, r := range []*build.RunResult{middle, oldest, newest} {
		require.NoError(t, repo.Save(ctx, r))
	}

	require.NoError(t, os.WriteFile(filepath.Join(dir, "garbage.yaml"), []byte("targets: {"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o600))

	results, err := repo.FindRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, newest.RunID, results[0].RunID)
	assert.Equal(t, middle.RunID, results[1].RunID)

	all, err := repo.FindRecent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3, "unparseable files are skipped")
}

func TestRunResultRepository_FindRecentMissingDir(t *testing.T) {
	repo := NewRunResultRepository(filepath.Join(t.TempDir(), "none"), nil)

	results, err := repo.FindRecent(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}
