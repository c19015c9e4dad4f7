// Package services contains application use cases.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/semaphore"

	apperrors "github.com/rv-tools/multibuild/internal/application/errors"
	"github.com/rv-tools/multibuild/internal/application/ports"
	"github.com/rv-tools/multibuild/internal/domain/build"
	"github.com/rv-tools/multibuild/internal/domain/catalog"
	"github.com/rv-tools/multibuild/internal/domain/values"
)

const overallTaskName = "Build All"

// ModePolicy picks the backend flags for a target from whether its existing
// output may be appended to.
type ModePolicy func(canAppend bool) build.Options

// DefaultModePolicy accepts external modifications when appending and forces
// assertions on a clean build.
func DefaultModePolicy(canAppend bool) build.Options {
	if canAppend {
		return build.OptionAcceptExternalModifications
	}
	return build.OptionForceEnableAssertions
}

// SequencerOption configures a Sequencer.
type SequencerOption func(*Sequencer)

// WithOutputRoot overrides catalog.DefaultOutputRoot.
func WithOutputRoot(root string) SequencerOption {
	return func(s *Sequencer) { s.outputRoot = root }
}

// WithModePolicy replaces DefaultModePolicy.
func WithModePolicy(p ModePolicy) SequencerOption {
	return func(s *Sequencer) {
		if p != nil {
			s.policy = p
		}
	}
}

// WithStepDelay sets the pause taken at every yield point.
func WithStepDelay(d time.Duration) SequencerOption {
	return func(s *Sequencer) { s.stepDelay = d }
}

// WithToolVersion stamps results with the running tool version.
func WithToolVersion(v string) SequencerOption {
	return func(s *Sequencer) { s.toolVersion = v }
}

// WithSequencerLogger sets the logger.
func WithSequencerLogger(l *slog.Logger) SequencerOption {
	return func(s *Sequencer) {
		if l != nil {
			s.logger = l
		}
	}
}

// Sequencer builds an ordered selection of targets one at a time, stopping at
// the first failure, and switches the environment back to the target that was
// active before the run.
//
// Only one run may be active per Sequencer. A second Run while one is in
// flight fails with apperrors.ErrRunInProgress.
type Sequencer struct {
	backend  ports.BuildBackend
	env      ports.Environment
	project  ports.ProjectSettings
	progress ports.ProgressReporter

	outputRoot  string
	policy      ModePolicy
	stepDelay   time.Duration
	toolVersion string
	logger      *slog.Logger

	active *semaphore.Weighted
}

// NewSequencer creates a new sequencer.
func NewSequencer(
	backend ports.BuildBackend,
	env ports.Environment,
	project ports.ProjectSettings,
	progress ports.ProgressReporter,
	opts ...SequencerOption,
) *Sequencer {
	s := &Sequencer{
		backend:    backend,
		env:        env,
		project:    project,
		progress:   progress,
		outputRoot: catalog.DefaultOutputRoot,
		policy:     DefaultModePolicy,
		logger:     slog.Default(),
		active:     semaphore.NewWeighted(1),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run builds every target in selection, in order.
//
// The returned result is non-nil whenever the run started, including when an
// error is returned. If a restore back to the original target was requested,
// result.Restoration tracks it; Run itself does not wait for it.
func (s *Sequencer) Run(ctx context.Context, selection build.Selection) (*build.RunResult, error) {
	if !s.active.TryAcquire(1) {
		return nil, apperrors.ErrRunInProgress
	}
	defer s.active.Release(1)

	selection = selection.Clone()
	result := build.NewRunResult(selection)
	result.ToolVersion = s.toolVersion

	if len(selection) == 0 {
		s.logger.Info("no targets selected, nothing to build")
		result.Restoration = build.NoRestoration("")
		result.Finalize(values.StatusSucceeded, -1)
		return result, nil
	}

	r := &run{
		Sequencer: s,
		selection: selection,
		result:    result,
		state:     build.NewRunState(),
	}
	return r.execute(ctx)
}

// run holds the state of a single Sequencer.Run call.
type run struct {
	*Sequencer

	selection build.Selection
	result    *build.RunResult
	state     *build.RunState

	overall     ports.TaskID
	original    values.Target
	snapshotted bool
}

func (r *run) execute(ctx context.Context) (*build.RunResult, error) {
	n := len(r.selection)
	if err := r.state.Begin(n); err != nil {
		return r.result, err
	}

	r.overall = r.progress.Start(overallTaskName, ports.TaskOptions{
		Description: fmt.Sprintf("Building %d target(s)", n),
		Sticky:      true,
	})
	r.logger.Info("starting build run", "run_id", r.result.RunID.String(), "targets", n)

	if err := r.yield(ctx); err != nil {
		return r.result, r.interrupt(err)
	}

	original, err := r.env.ActiveTarget(ctx)
	if err != nil {
		return r.result, r.abort(values.StatusFailed, -1,
			apperrors.NewConfigurationError("environment", "failed to read active target", err))
	}
	r.original = original
	r.snapshotted = true
	r.result.OriginalTarget = original
	r.describeProduct(ctx)

	for i, target := range r.selection {
		if err := r.state.Advance(i); err != nil {
			return r.result, r.abort(values.StatusFailed, i, err)
		}
		if err := r.buildTarget(ctx, i, target); err != nil {
			return r.result, err
		}
	}

	if err := r.state.Succeed(); err != nil {
		return r.result, r.abort(values.StatusFailed, -1, err)
	}
	r.progress.Finish(r.overall, values.StatusSucceeded)
	r.restore(ctx)
	r.result.Finalize(values.StatusSucceeded, -1)

	r.logger.Info("build run completed",
		"run_id", r.result.RunID.String(),
		"targets", n,
		"duration", r.result.Duration.String())
	return r.result, nil
}

// buildTarget builds one target. When it returns an error the run has
// already been closed out.
func (r *run) buildTarget(ctx context.Context, i int, target values.Target) error {
	n := len(r.selection)
	entry := r.result.Target(i)

	r.progress.Report(r.overall, i+1, n)
	child := r.progress.Start("Build "+target.String(), ports.TaskOptions{
		Description: fmt.Sprintf("Target %d of %d", i+1, n),
		Parent:      r.overall,
		Sticky:      true,
	})
	if err := r.yield(ctx); err != nil {
		return r.failTarget(i, child, values.StatusCanceled, apperrors.NewBuildFailure(target, i, "", err))
	}

	started := time.Now()
	cfg, err := r.configure(ctx, target)
	if err != nil {
		return r.failTarget(i, child, values.StatusFailed, err)
	}
	entry.OutputPath = cfg.OutputPath
	entry.Options = cfg.Options

	r.logger.Info("building target",
		"target", target.String(),
		"index", i+1,
		"total", n,
		"output", cfg.OutputPath,
		"options", cfg.Options.String())

	if err := r.env.SwitchActiveTarget(ctx, target); err != nil {
		return r.failTarget(i, child, r.statusFor(ctx),
			apperrors.NewBuildFailure(target, i, "", fmt.Errorf("switch active target: %w", err)))
	}

	outcome, err := r.backend.Build(ctx, cfg)
	entry.Duration = build.ElapsedOf(time.Since(started))
	if err != nil || !outcome.Succeeded {
		return r.failTarget(i, child, r.statusFor(ctx),
			apperrors.NewBuildFailure(target, i, outcome.Diagnostics, err))
	}

	entry.Status = values.StatusSucceeded
	entry.Message = fmt.Sprintf("completed in %s", entry.Duration.Round(time.Millisecond))
	r.progress.Finish(child, values.StatusSucceeded)
	r.logger.Info("target built", "target", target.String(), "duration", entry.Duration.String())

	if err := r.yield(ctx); err != nil {
		return r.interrupt(err)
	}
	return nil
}

// configure assembles the backend configuration for target.
func (r *run) configure(ctx context.Context, target values.Target) (build.Configuration, error) {
	modules, err := r.project.EnabledModules(ctx)
	if err != nil {
		return build.Configuration{}, apperrors.NewConfigurationError("modules", "failed to read enabled modules", err)
	}
	if len(modules) == 0 {
		return build.Configuration{}, apperrors.NoInputModules()
	}

	product, err := r.project.ProductName(ctx)
	if err != nil {
		return build.Configuration{}, apperrors.NewConfigurationError("product", "failed to read product name", err)
	}

	output := catalog.OutputPathIn(r.outputRoot, target, product)
	return build.Configuration{
		Target:     target,
		Group:      catalog.GroupOf(target),
		OutputPath: output,
		Modules:    modules,
		Options:    r.policy(r.backend.CanAppend(target, output)),
	}, nil
}

// describeProduct records product metadata on the result. Failures here only
// affect reporting; configure reads the name again for each target.
func (r *run) describeProduct(ctx context.Context) {
	if name, err := r.project.ProductName(ctx); err == nil {
		r.result.ProductName = name
	} else {
		r.logger.Debug("failed to read product name", "error", err)
	}
	if version, err := r.project.ProductVersion(ctx); err == nil {
		r.result.ProductVersion = version
	} else {
		r.logger.Debug("failed to read product version", "error", err)
	}
}

// failTarget closes out the run after target i failed.
func (r *run) failTarget(i int, child ports.TaskID, status values.Status, err error) error {
	entry := r.result.Target(i)
	entry.Status = status
	entry.Message = failureMessage(err)

	r.progress.Finish(child, status)

	attrs := []any{"target", entry.Target.String(), "index", i + 1, "error", err}
	var bf *apperrors.BuildFailure
	if errors.As(err, &bf) && bf.Diagnostics != "" {
		attrs = append(attrs, "diagnostics", bf.Diagnostics)
	}
	r.logger.Error("build failed", attrs...)

	return r.abort(status, i, err)
}

// interrupt closes out a run canceled between targets.
func (r *run) interrupt(err error) error {
	r.logger.Warn("build run interrupted", "error", err)
	return r.abort(values.StatusCanceled, -1, fmt.Errorf("build run interrupted: %w", err))
}

// abort finishes the overall task, requests the restore and finalizes the
// result with status.
func (r *run) abort(status values.Status, failedAt int, err error) error {
	if r.state.Phase() == build.PhaseRunning {
		_ = r.state.Fail()
	}
	r.progress.Finish(r.overall, status)
	r.restore(context.Background())

	r.result.Error = err.Error()
	r.result.Finalize(status, failedAt)
	return err
}

// restore asks the environment to switch back to the snapshot without
// waiting for it.
func (r *run) restore(ctx context.Context) {
	if !r.snapshotted {
		r.result.Restoration = build.NoRestoration("")
		return
	}

	ctx = context.WithoutCancel(ctx)
	current, err := r.env.ActiveTarget(ctx)
	if err != nil {
		r.logger.Warn("failed to read active target before restore", "error", err)
	} else if current == r.original {
		r.logger.Debug("active target unchanged, no restore needed", "target", current.String())
		r.result.Restoration = build.NoRestoration(r.original)
		return
	}

	r.logger.Info("restoring active target", "target", r.original.String())
	r.result.Restoration = build.NewRestoration(r.original, r.env.SwitchActiveTargetAsync(r.original))
	r.result.RestoreRequested = true
}

// statusFor reports canceled rather than failed when ctx is done.
func (r *run) statusFor(ctx context.Context) values.Status {
	if ctx.Err() != nil {
		return values.StatusCanceled
	}
	return values.StatusFailed
}

// yield pauses for the configured step delay, returning early if ctx is done.
func (r *run) yield(ctx context.Context) error {
	if err := ctx.Err(); err != nil || r.stepDelay <= 0 {
		return err
	}

	t := time.NewTimer(r.stepDelay)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func failureMessage(err error) string {
	var bf *apperrors.BuildFailure
	if errors.As(err, &bf) {
		switch {
		case bf.Cause != nil:
			return bf.Cause.Error()
		case bf.Diagnostics != "":
			return bf.Diagnostics
		default:
			return "build did not produce an output"
		}
	}
	return err.Error()
}
