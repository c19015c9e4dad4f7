package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/rv-tools/multibuild/internal/application/errors"
	"github.com/rv-tools/multibuild/internal/domain/build"
	"github.com/rv-tools/multibuild/internal/domain/values"
)

func TestRunResultRepository_SaveAndFind(t *testing.T) {
	repo := NewRunResultRepository()
	ctx := context.Background()

	id := values.NewRunID()
	result := build.NewRunResultWithID(id, build.Selection{values.TargetAndroid})

	require.NoError(t, repo.Save(ctx, result))

	found, err := repo.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, found.GetID())

	_, err = repo.FindByID(ctx, values.NewRunID())
	assert.ErrorIs(t, err, apperrors.ErrRunNotFound)
}

func TestRunResultRepository_FindRecent(t *testing.T) {
	repo := NewRunResultRepository()
	ctx := context.Background()

	now := time.Now()
	var saved []*build.RunResult
	for i := 3; i >= 1; i-- {
		r := build.NewRunResult(nil)
		r.StartTime = now.Add(-time.Duration(i) * time.Hour)
		require.NoError(t, repo.Save(ctx, r))
		saved = append(saved, r)
	}

	results, err := repo.FindRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, saved[2].RunID, results[0].RunID, "newest first")
	assert.Equal(t, saved[1].RunID, results[1].RunID)

	all, err := repo.FindRecent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestRunResultRepository_FindBetween(t *testing.T) {
	repo := NewRunResultRepository()
	ctx := context.Background()

	now := time.Now()
	old := build.NewRunResult(nil)
	old.StartTime = now.Add(-48 * time.Hour)
	recent := build.NewRunResult(nil)
	recent.StartTime = now.Add(-time.Hour)

	require.NoError(t, repo.Save(ctx, old))
	require.NoError(t, repo.Save(ctx, recent))

	results, err := repo.FindBetween(ctx, now.Add(-24*time.Hour), now)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, recent.RunID, results[0].RunID)
}
