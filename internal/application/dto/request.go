// Package dto contains data transfer objects for application layer use cases.
package dto

import "time"

// BuildRequest encapsulates all inputs needed to run a multi-target build.
type BuildRequest struct {
	Selection SelectionOptions
	Metadata  RequestMetadata
	Options   BuildOptions
}

// SelectionOptions defines how targets are chosen.
type SelectionOptions struct {
	// Targets is an explicit ordered list; when set, the other filters are ignored.
	Targets          []string
	ExcludeTargets   []string
	IncludeGroups    []string
	FilterExpression string
}

// BuildOptions controls how the run is executed.
type BuildOptions struct {
	// WaitForRestore blocks until the pre-run target has been restored.
	WaitForRestore bool

	// RestoreTimeout bounds the restore wait (0 = no limit).
	RestoreTimeout time.Duration

	// SkipHistory disables saving the run result.
	SkipHistory bool
}

// RequestMetadata contains metadata for request tracking.
type RequestMetadata struct {
	// RequestID uniquely identifies this request
	RequestID string
}
