package values

import "fmt"

// Status represents the outcome of a target build or of a whole run.
type Status string

const (
	// StatusSucceeded indicates the build completed
	StatusSucceeded Status = "succeeded"
	// StatusFailed indicates the backend reported failure or the run was aborted by a configuration error
	StatusFailed Status = "failed"
	// StatusSkipped indicates the target was never attempted because an earlier target failed
	StatusSkipped Status = "skipped"
	// StatusCanceled indicates the run was interrupted through its context
	StatusCanceled Status = "canceled"
)

// Precedence returns the numeric precedence of this status.
// Higher values win when several statuses are folded into one.
//
// Precedence: Failed (3) > Canceled (2) > Skipped (1) > Succeeded (0)
func (s Status) Precedence() int {
	switch s {
	case StatusFailed:
		return 3
	case StatusCanceled:
		return 2
	case StatusSkipped:
		return 1
	case StatusSucceeded:
		return 0
	default:
		return -1
	}
}

// IsFailure returns true if this status represents a failure or an interruption
func (s Status) IsFailure() bool {
	return s == StatusFailed || s == StatusCanceled
}

// IsSuccess returns true if this status represents success
func (s Status) IsSuccess() bool {
	return s == StatusSucceeded
}

// IsSkipped returns true if this status represents a skip
func (s Status) IsSkipped() bool {
	return s == StatusSkipped
}

// Validate returns an error if the status value is invalid
func (s Status) Validate() error {
	switch s {
	case StatusSucceeded, StatusFailed, StatusSkipped, StatusCanceled:
		return nil
	default:
		return fmt.Errorf("invalid status: %s", s)
	}
}
