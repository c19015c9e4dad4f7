// Package filesystem stores run results as one YAML file per run.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goccy/go-yaml"

	apperrors "github.com/rv-tools/multibuild/internal/application/errors"
	"github.com/rv-tools/multibuild/internal/application/ports"
	"github.com/rv-tools/multibuild/internal/domain/build"
	"github.com/rv-tools/multibuild/internal/domain/values"
)

const fileExt = ".yaml"

// Ensure interface compliance
var _ ports.RunRepository = (*RunResultRepository)(nil)

// RunResultRepository persists run results under a directory.
type RunResultRepository struct {
	dir    string
	logger *slog.Logger
}

// NewRunResultRepository creates a repository rooted at dir. The directory is
// created on first save.
func NewRunResultRepository(dir string, logger *slog.Logger) *RunResultRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &RunResultRepository{dir: dir, logger: logger}
}

// Dir returns the storage directory.
func (r *RunResultRepository) Dir() string {
	return r.dir
}

// Save writes result to <dir>/<run id>.yaml.
func (r *RunResultRepository) Save(ctx context.Context, result *build.RunResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	//nolint:gosec // G301: history lives inside the project directory
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create history directory: %w", err)
	}

	data, err := yaml.MarshalWithOptions(result, yaml.IndentSequence(true))
	if err != nil {
		return fmt.Errorf("failed to marshal run result: %w", err)
	}

	path := r.pathFor(result.GetID())
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write run result: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to write run result: %w", err)
	}
	return nil
}

// FindByID reads the result for id.
func (r *RunResultRepository) FindByID(ctx context.Context, id values.RunID) (*build.RunResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result, err := r.read(r.pathFor(id))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrRunNotFound, id)
	}
	return result, err
}

// FindRecent returns the newest results first. limit <= 0 means all.
// Files that cannot be parsed are skipped.
func (r *RunResultRepository) FindRecent(ctx context.Context, limit int) ([]*build.RunResult, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list history: %w", err)
	}

	results := make([]*build.RunResult, 0, len(entries))
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), fileExt) {
			continue
		}

		result, err := r.read(filepath.Join(r.dir, entry.Name()))
		if err != nil {
			r.logger.Warn("skipping unreadable run record", "file", entry.Name(), "error", err)
			continue
		}
		results = append(results, result)
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].StartTime.After(results[j].StartTime)
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (r *RunResultRepository) read(path string) (*build.RunResult, error) {
	//nolint:gosec // G304: path is built from the history directory and a run ID
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var result build.RunResult
	if err := yaml.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to parse run result %s: %w", filepath.Base(path), err)
	}
	return &result, nil
}

func (r *RunResultRepository) pathFor(id values.RunID) string {
	return filepath.Join(r.dir, id.String()+fileExt)
}
