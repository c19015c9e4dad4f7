// Package ports defines interfaces for infrastructure dependencies.
// These are the "ports" in hexagonal architecture - abstractions that
// the application layer depends on but doesn't implement.
package ports

import (
	"context"
	"io"

	"github.com/rv-tools/multibuild/internal/domain/build"
	"github.com/rv-tools/multibuild/internal/domain/values"
)

// BuildBackend performs the actual compile-and-package work for one target.
type BuildBackend interface {
	// Build blocks until the backend has finished with cfg.
	// A non-nil error means the backend could not be run at all; a
	// completed but unsuccessful build is reported through Outcome.
	Build(ctx context.Context, cfg build.Configuration) (build.Outcome, error)

	// CanAppend reports whether an existing output at path may be appended to.
	CanAppend(target values.Target, path string) bool
}

// Environment reads and switches the project's active build target.
type Environment interface {
	ActiveTarget(ctx context.Context) (values.Target, error)

	// SwitchActiveTarget returns once the switch has taken effect.
	SwitchActiveTarget(ctx context.Context, target values.Target) error

	// SwitchActiveTargetAsync starts the switch and returns immediately.
	// The channel receives exactly one value and is then closed.
	SwitchActiveTargetAsync(target values.Target) <-chan error
}

// ProjectSettings exposes the project configuration the sequencer builds from.
type ProjectSettings interface {
	// EnabledModules returns the paths of enabled input modules, in project order.
	EnabledModules(ctx context.Context) ([]string, error)
	ProductName(ctx context.Context) (string, error)
	ProductVersion(ctx context.Context) (string, error)
}

// TaskID identifies a progress task. The zero value means "no parent".
type TaskID int

// TaskOptions configure a progress task.
type TaskOptions struct {
	Description string
	Parent      TaskID
	// Sticky tasks stay visible after they finish until explicitly cleared.
	Sticky bool
}

// ProgressReporter is a hierarchical progress sink.
type ProgressReporter interface {
	Start(name string, opts TaskOptions) TaskID
	Report(id TaskID, current, total int)
	Finish(id TaskID, status values.Status)
}

// PlatformDiscovery lists the targets the host toolchain can build.
type PlatformDiscovery interface {
	SupportedPlatforms(ctx context.Context) ([]values.Target, error)
}

// RunRepository persists run results.
type RunRepository interface {
	Save(ctx context.Context, result *build.RunResult) error
	FindByID(ctx context.Context, id values.RunID) (*build.RunResult, error)
	FindRecent(ctx context.Context, limit int) ([]*build.RunResult, error)
}

// OutputFormatter formats run results.
type OutputFormatter interface {
	Format(result *build.RunResult) error
}

// FormatterOptions configures formatter creation.
type FormatterOptions struct {
	Indent      bool
	EnableColor bool
}

// OutputFormatterFactory creates formatters by name.
type OutputFormatterFactory interface {
	Create(format string, writer io.Writer, options FormatterOptions) (OutputFormatter, error)
	SupportedFormats() []string
}
