package dto

import (
	"time"

	"github.com/rv-tools/multibuild/internal/domain/build"
	"github.com/rv-tools/multibuild/internal/domain/values"
)

// BuildResponse contains the result of a multi-target build.
type BuildResponse struct {
	// Result contains the detailed run result
	Result *build.RunResult

	// Metadata contains response metadata
	Metadata ResponseMetadata

	// Selection is the ordered list of targets that was handed to the sequencer
	Selection []values.Target
}

// ResponseMetadata contains metadata about the response.
type ResponseMetadata struct {
	// RequestID from the original request
	RequestID string

	// ProcessedAt is when the request finished
	ProcessedAt time.Time

	// Duration covers selection, the run, and any restore wait
	Duration time.Duration
}
