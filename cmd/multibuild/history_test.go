package main

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/rv-tools/multibuild/internal/application/errors"
	"github.com/rv-tools/multibuild/internal/domain/build"
	"github.com/rv-tools/multibuild/internal/domain/values"
	"github.com/rv-tools/multibuild/internal/infrastructure/persistence/memory"
)

func savedRun(t *testing.T, repo *memory.RunResultRepository, id string) *build.RunResult {
	t.Helper()
	r := build.NewRunResultWithID(values.MustParseRunID(id), build.Selection{values.TargetAndroid, values.TargetWebGL})
	r.Target(0).Status = values.StatusSucceeded
	r.Target(1).Status = values.StatusFailed
	r.Finalize(values.StatusFailed, 1)
	require.NoError(t, repo.Save(context.Background(), r))
	return r
}

func TestFindRun(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewRunResultRepository()
	first := savedRun(t, repo, "1b4e28ba-2fa1-4d3b-a3f5-ef19b5a7633b")
	savedRun(t, repo, "1b4e9999-2fa1-4d3b-a3f5-ef19b5a7633b")
	savedRun(t, repo, "7c9e6679-7425-40de-944b-e07fc1f90ae7")

	t.Run("full id", func(t *testing.T) {
		r, err := findRun(ctx, repo, first.RunID.String())
		require.NoError(t, err)
		assert.Equal(t, first.RunID, r.RunID)
	})

	t.Run("unique prefix", func(t *testing.T) {
		r, err := findRun(ctx, repo, "1B4E28")
		require.NoError(t, err)
		assert.Equal(t, first.RunID, r.RunID)
	})

	t.Run("ambiguous prefix", func(t *testing.T) {
		_, err := findRun(ctx, repo, "1b4e")
		var ve *apperrors.ValidationError
		assert.ErrorAs(t, err, &ve)
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := findRun(ctx, repo, "ffff")
		assert.ErrorIs(t, err, apperrors.ErrRunNotFound)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := findRun(ctx, repo, " ")
		assert.Error(t, err)
	})
}

func TestHistoryRow(t *testing.T) {
	configureInteraction(true)

	repo := memory.NewRunResultRepository()
	r := savedRun(t, repo, "7c9e6679-7425-40de-944b-e07fc1f90ae7")
	r.Duration = build.ElapsedOf(90 * time.Second)

	row := historyRow(r)
	require.Len(t, row, 5)
	assert.Equal(t, "7c9e6679", row[0])
	assert.True(t, strings.Contains(row[2], "failed"))
	assert.Equal(t, "Android, WebGL!", row[3])
	assert.Equal(t, "1m30s", row[4])
}
