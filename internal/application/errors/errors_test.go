package apperrors

import (
	"context"
	"errors"
	"testing"

	"github.com/rv-tools/multibuild/internal/domain/values"
	"github.com/stretchr/testify/assert"
)

func TestValidationError(t *testing.T) {
	err := NewValidationError("targets", "unknown target")
	assert.Equal(t, "validation failed: targets: unknown target", err.Error())

	err = NewValidationError("targets", "unsupported", "a", "b")
	assert.Equal(t, "validation failed: targets: unsupported (2 issues)", err.Error())
}

func TestBuildFailure(t *testing.T) {
	err := NewBuildFailure(values.TargetAndroid, 0, "", nil)
	assert.Equal(t, "build failed for target Android (#1)", err.Error())

	err = NewBuildFailure(values.TargetWebGL, 2, "out of memory", nil)
	assert.Contains(t, err.Error(), "out of memory")

	err = NewBuildFailure(values.TargetIOS, 1, "", context.Canceled)
	assert.True(t, errors.Is(err, context.Canceled))

	var bf *BuildFailure
	wrapped := errors.Join(errors.New("run failed"), err)
	assert.True(t, errors.As(wrapped, &bf))
	assert.Equal(t, values.TargetIOS, bf.Target)
}

func TestConfigurationError(t *testing.T) {
	err := NoInputModules()
	assert.Equal(t, "configuration error (modules): no valid input modules configured", err.Error())

	cause := errors.New("permission denied")
	err = NewConfigurationError("settings", "failed to read", cause)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "permission denied")
}
