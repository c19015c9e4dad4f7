package main

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/rv-tools/multibuild/internal/application/errors"
	"github.com/rv-tools/multibuild/internal/domain/values"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"generic", errors.New("boom"), exitFailure},
		{"build failure", fmt.Errorf("build failed: %w", apperrors.NewBuildFailure(values.TargetWebGL, 1, "", nil)), exitBuildFailed},
		{"no modules", apperrors.NoInputModules(), exitConfiguration},
		{"bad selection", apperrors.NewValidationError("target", "unsupported"), exitConfiguration},
		{"interrupted", &interruptedError{err: fmt.Errorf("build interrupted: %w", context.Canceled)}, exitInterrupted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}

func TestInterruptedError_Unwrap(t *testing.T) {
	err := &interruptedError{err: fmt.Errorf("build interrupted: %w", context.DeadlineExceeded)}
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, "build interrupted: context deadline exceeded", err.Error())
}

func TestRootCommand_Subcommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"build", "targets", "history", "init", "version"} {
		assert.True(t, names[want], "missing %s command", want)
	}
}
