package build

import (
	"time"

	"github.com/rv-tools/multibuild/internal/domain/catalog"
	"github.com/rv-tools/multibuild/internal/domain/values"
)

// RunResult represents the complete result of a multi-target build run.
type RunResult struct {
	StartTime        time.Time      `json:"start_time" yaml:"start_time"`
	EndTime          time.Time      `json:"end_time" yaml:"end_time"`
	ToolVersion      string         `json:"tool_version,omitempty" yaml:"tool_version,omitempty"`
	ProductName      string         `json:"product_name,omitempty" yaml:"product_name,omitempty"`
	ProductVersion   string         `json:"product_version,omitempty" yaml:"product_version,omitempty"`
	OriginalTarget   values.Target  `json:"original_target,omitempty" yaml:"original_target,omitempty"`
	Status           values.Status  `json:"status" yaml:"status"`
	Error            string         `json:"error,omitempty" yaml:"error,omitempty"`
	Targets          []TargetResult `json:"targets" yaml:"targets"`
	Summary          ResultSummary  `json:"summary" yaml:"summary"`
	FailedAt         int            `json:"failed_at" yaml:"failed_at"`
	Duration         Elapsed        `json:"duration_ms" yaml:"duration_ms"`
	RestoreRequested bool           `json:"restore_requested" yaml:"restore_requested"`
	RunID            values.RunID   `json:"run_id" yaml:"run_id"`

	// Restoration is only meaningful in the process that ran the build.
	Restoration *Restoration `json:"-" yaml:"-"`
}

// TargetResult represents the result of building a single target.
type TargetResult struct {
	Target     values.Target `json:"target" yaml:"target"`
	Group      values.Group  `json:"group" yaml:"group"`
	OutputPath string        `json:"output_path,omitempty" yaml:"output_path,omitempty"`
	Options    Options       `json:"options,omitempty" yaml:"options,omitempty"`
	Status     values.Status `json:"status" yaml:"status"`
	Message    string        `json:"message,omitempty" yaml:"message,omitempty"`
	Index      int           `json:"index" yaml:"index"`
	Duration   Elapsed       `json:"duration_ms" yaml:"duration_ms"`
}

// ResultSummary provides aggregate statistics about the run.
type ResultSummary struct {
	TotalTargets     int `json:"total_targets" yaml:"total_targets"`
	SucceededTargets int `json:"succeeded_targets" yaml:"succeeded_targets"`
	FailedTargets    int `json:"failed_targets" yaml:"failed_targets"`
	SkippedTargets   int `json:"skipped_targets" yaml:"skipped_targets"`
	CanceledTargets  int `json:"canceled_targets" yaml:"canceled_targets"`
}

// NewRunResult creates a result with one skipped entry per selected target.
// Entries are updated in place as targets are attempted.
func NewRunResult(selection Selection) *RunResult {
	return NewRunResultWithID(values.NewRunID(), selection)
}

// NewRunResultWithID creates a new run result with a specific ID.
func NewRunResultWithID(id values.RunID, selection Selection) *RunResult {
	targets := make([]TargetResult, 0, len(selection))
	for i, t := range selection {
		targets = append(targets, TargetResult{
			Index:  i,
			Target: t,
			Group:  catalog.GroupOf(t),
			Status: values.StatusSkipped,
		})
	}
	return &RunResult{
		RunID:     id,
		StartTime: time.Now(),
		Targets:   targets,
		FailedAt:  -1,
	}
}

// GetID returns the run ID.
func (r *RunResult) GetID() values.RunID {
	return r.RunID
}

// Target returns a pointer to the entry for index i.
func (r *RunResult) Target(i int) *TargetResult {
	return &r.Targets[i]
}

// Succeeded reports whether the run completed every target.
func (r *RunResult) Succeeded() bool {
	return r.Status.IsSuccess()
}

// Finalize stamps the end time, run status, and summary.
func (r *RunResult) Finalize(status values.Status, failedAt int) {
	r.EndTime = time.Now()
	r.Duration = ElapsedOf(r.EndTime.Sub(r.StartTime))
	r.Status = status
	r.FailedAt = failedAt

	summary := ResultSummary{TotalTargets: len(r.Targets)}
	for _, t := range r.Targets {
		switch t.Status {
		case values.StatusSucceeded:
			summary.SucceededTargets++
		case values.StatusFailed:
			summary.FailedTargets++
		case values.StatusCanceled:
			summary.CanceledTargets++
		case values.StatusSkipped:
			summary.SkippedTargets++
		}
	}
	r.Summary = summary
}
