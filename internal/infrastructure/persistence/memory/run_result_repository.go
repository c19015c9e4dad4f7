// Package memory provides in-memory implementations of run repositories.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/rv-tools/multibuild/internal/application/errors"
	"github.com/rv-tools/multibuild/internal/application/ports"
	"github.com/rv-tools/multibuild/internal/domain/build"
	"github.com/rv-tools/multibuild/internal/domain/values"
)

// Ensure interface compliance
var _ ports.RunRepository = (*RunResultRepository)(nil)

// RunResultRepository is an in-memory implementation of ports.RunRepository.
// Useful for testing and ephemeral storage.
type RunResultRepository struct {
	results map[uuid.UUID]*build.RunResult
	mu      sync.RWMutex
}

// NewRunResultRepository creates a new in-memory repository.
func NewRunResultRepository() *RunResultRepository {
	return &RunResultRepository{
		results: make(map[uuid.UUID]*build.RunResult),
	}
}

// Save persists a run result.
// Callers should not modify the result after saving.
func (r *RunResultRepository) Save(_ context.Context, result *build.RunResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.results[result.GetID().UUID()] = result
	return nil
}

// FindByID retrieves a run result by its unique ID.
func (r *RunResultRepository) FindByID(_ context.Context, id values.RunID) (*build.RunResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result, ok := r.results[id.UUID()]
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrRunNotFound, id)
	}
	return result, nil
}

// FindRecent retrieves the newest run results first. limit <= 0 means all.
func (r *RunResultRepository) FindRecent(_ context.Context, limit int) ([]*build.RunResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matches := make([]*build.RunResult, 0, len(r.results))
	for _, res := range r.results {
		matches = append(matches, res)
	}
	sortNewestFirst(matches)

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// FindBetween retrieves run results started within [start, end].
func (r *RunResultRepository) FindBetween(_ context.Context, start, end time.Time) ([]*build.RunResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matches []*build.RunResult
	for _, res := range r.results {
		if !res.StartTime.Before(start) && !res.StartTime.After(end) {
			matches = append(matches, res)
		}
	}
	sortNewestFirst(matches)
	return matches, nil
}

func sortNewestFirst(results []*build.RunResult) {
	sort.Slice(results, func(i, j int) bool {
		return results[i].StartTime.After(results[j].StartTime)
	})
}
