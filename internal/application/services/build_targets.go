package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/rv-tools/multibuild/internal/application/dto"
	apperrors "github.com/rv-tools/multibuild/internal/application/errors"
	"github.com/rv-tools/multibuild/internal/application/ports"
	"github.com/rv-tools/multibuild/internal/domain/build"
)

// BuildTargetsUseCase orchestrates the complete multi-target build workflow:
// discovery, selection, the sequenced run, history and the restore wait.
type BuildTargetsUseCase struct {
	discovery  ports.PlatformDiscovery
	project    ports.ProjectSettings
	selector   *TargetSelector
	sequencer  *Sequencer
	repository ports.RunRepository
	logger     *slog.Logger
}

// NewBuildTargetsUseCase creates a new build use case. repository may be nil.
func NewBuildTargetsUseCase(
	discovery ports.PlatformDiscovery,
	project ports.ProjectSettings,
	selector *TargetSelector,
	sequencer *Sequencer,
	repository ports.RunRepository,
	logger *slog.Logger,
) *BuildTargetsUseCase {
	if logger == nil {
		logger = slog.Default()
	}

	return &BuildTargetsUseCase{
		discovery:  discovery,
		project:    project,
		selector:   selector,
		sequencer:  sequencer,
		repository: repository,
		logger:     logger,
	}
}

// Execute runs the build workflow.
//
// When the run itself fails the response is still returned alongside the
// error so callers can report what was built.
func (uc *BuildTargetsUseCase) Execute(ctx context.Context, req dto.BuildRequest) (*dto.BuildResponse, error) {
	startTime := time.Now()

	// 1. Discover what the host can build
	supported, err := uc.discovery.SupportedPlatforms(ctx)
	if err != nil {
		return nil, err
	}
	uc.logger.Debug("supported platforms discovered", "count", len(supported))

	// 2. Resolve the selection
	productName, err := uc.project.ProductName(ctx)
	if err != nil {
		return nil, apperrors.NewConfigurationError("product", "failed to read product name", err)
	}

	selection, err := uc.selector.Select(supported, req.Selection, productName)
	if err != nil {
		return nil, err
	}
	if len(selection) == 0 {
		return nil, apperrors.NewValidationError("target", "no targets selected")
	}
	uc.logger.Info("targets selected", "targets", selection)

	// 3. Run
	result, runErr := uc.sequencer.Run(ctx, selection)
	if result == nil {
		return nil, runErr
	}

	// 4. History is saved for failed runs too
	if uc.repository != nil && !req.Options.SkipHistory {
		if err := uc.repository.Save(context.WithoutCancel(ctx), result); err != nil {
			uc.logger.Warn("failed to save run history", "run_id", result.RunID.String(), "error", err)
		}
	}

	// 5. Optionally wait for the environment to be switched back
	if req.Options.WaitForRestore && result.Restoration != nil && result.Restoration.Requested() {
		uc.waitForRestore(ctx, result.Restoration, req.Options.RestoreTimeout)
	}

	return &dto.BuildResponse{
		Result:    result,
		Selection: selection,
		Metadata: dto.ResponseMetadata{
			RequestID:   req.Metadata.RequestID,
			ProcessedAt: time.Now(),
			Duration:    time.Since(startTime),
		},
	}, runErr
}

// waitForRestore blocks on r, ignoring cancellation of ctx so an interrupted
// run still leaves the environment where it found it.
func (uc *BuildTargetsUseCase) waitForRestore(ctx context.Context, r *build.Restoration, timeout time.Duration) {
	wctx := context.WithoutCancel(ctx)
	if timeout > 0 {
		var cancel context.CancelFunc
		wctx, cancel = context.WithTimeout(wctx, timeout)
		defer cancel()
	}

	target := r.Target().String()
	uc.logger.Debug("waiting for active target restore", "target", target)
	if err := r.Wait(wctx); err != nil {
		uc.logger.Warn("active target restore did not complete", "target", target, "error", err)
		return
	}
	uc.logger.Info("active target restored", "target", target)
}
