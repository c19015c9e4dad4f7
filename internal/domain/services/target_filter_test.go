package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rv-tools/multibuild/internal/domain/values"
)

func Test_TargetFilter_NoFilters(t *testing.T) {
	filter := NewTargetFilter()

	ok, _ := filter.ShouldBuild(values.TargetWebGL)
	assert.True(t, ok, "no filters should allow all targets")
}

func Test_TargetFilter_ExcludeTargets(t *testing.T) {
	filter := NewTargetFilter().
		WithExcludedTargets([]values.Target{values.TargetIOS})

	tests := []struct {
		target   values.Target
		expected bool
	}{
		{values.TargetAndroid, true},
		{values.TargetIOS, false},
	}

	for _, tt := range tests {
		t.Run(tt.target.String(), func(t *testing.T) {
			ok, reason := filter.ShouldBuild(tt.target)
			assert.Equal(t, tt.expected, ok)
			if !ok {
				assert.Contains(t, reason, "--exclude-target")
			}
		})
	}
}

func Test_TargetFilter_IncludeGroups(t *testing.T) {
	filter := NewTargetFilter().
		WithIncludedGroups([]values.Group{values.GroupStandalone})

	ok, _ := filter.ShouldBuild(values.TargetStandaloneLinux64)
	assert.True(t, ok)

	ok, reason := filter.ShouldBuild(values.TargetAndroid)
	assert.False(t, ok)
	assert.Equal(t, "excluded by --group filter", reason)
}

func Test_TargetFilter_Expression(t *testing.T) {
	tests := []struct {
		name     string
		expr     string
		target   values.Target
		expected bool
	}{
		{"group match", "group == 'Standalone'", values.TargetStandaloneOSX, true},
		{"group mismatch", "group == 'Standalone'", values.TargetWebGL, false},
		{"suffix", "suffix != ''", values.TargetAndroid, true},
		{"no suffix", "suffix != ''", values.TargetIOS, false},
		{"output path", "output endsWith 'Game.apk'", values.TargetAndroid, true},
		{"name in list", "name in ['iOS', 'WebGL']", values.TargetWebGL, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			program, err := CompileFilterExpression(tt.expr)
			require.NoError(t, err)

			filter := NewTargetFilter().WithFilterExpression(program, "", "Game")
			ok, _ := filter.ShouldBuild(tt.target)
			assert.Equal(t, tt.expected, ok)
		})
	}
}

func Test_CompileFilterExpression_Invalid(t *testing.T) {
	_, err := CompileFilterExpression("group ==")
	assert.Error(t, err)

	// Non-boolean expressions are rejected at compile time.
	_, err = CompileFilterExpression("name")
	assert.Error(t, err)

	// Unknown variables are rejected because the env is strict.
	_, err = CompileFilterExpression("severity == 'high'")
	assert.Error(t, err)
}

func Test_TargetFilter_Combined(t *testing.T) {
	program, err := CompileFilterExpression("suffix == ''")
	require.NoError(t, err)

	filter := NewTargetFilter().
		WithIncludedGroups([]values.Group{values.GroupStandalone}).
		WithExcludedTargets([]values.Target{values.TargetStandaloneWindows}).
		WithFilterExpression(program, "", "Game")

	ok, _ := filter.ShouldBuild(values.TargetStandaloneOSX)
	assert.True(t, ok)

	ok, _ = filter.ShouldBuild(values.TargetStandaloneWindows)
	assert.False(t, ok)

	ok, _ = filter.ShouldBuild(values.TargetStandaloneWindows64)
	assert.False(t, ok, ".exe suffix fails the expression")
}

func Test_TargetFilter_ExpressionOutputRoot(t *testing.T) {
	program, err := CompileFilterExpression("output startsWith 'out'")
	require.NoError(t, err)

	ok, _ := NewTargetFilter().WithFilterExpression(program, "out", "Game").ShouldBuild(values.TargetAndroid)
	assert.True(t, ok)

	// An empty root falls back to the default Builds directory.
	ok, _ = NewTargetFilter().WithFilterExpression(program, "", "Game").ShouldBuild(values.TargetAndroid)
	assert.False(t, ok)
}
