package build

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunState_AllPass(t *testing.T) {
	s := NewRunState()
	assert.Equal(t, PhaseIdle, s.Phase())

	require.NoError(t, s.Begin(3))
	for i := 0; i < 3; i++ {
		require.NoError(t, s.Advance(i))
		assert.Equal(t, i, s.Current())
	}
	require.NoError(t, s.Succeed())

	assert.Equal(t, PhaseSucceeded, s.Phase())
	assert.True(t, s.Done())
	assert.Equal(t, -1, s.FailedAt())
}

func TestRunState_FailMidway(t *testing.T) {
	s := NewRunState()
	require.NoError(t, s.Begin(3))
	require.NoError(t, s.Advance(0))
	require.NoError(t, s.Advance(1))
	require.NoError(t, s.Fail())

	assert.Equal(t, PhaseFailed, s.Phase())
	assert.Equal(t, 1, s.FailedAt())
	assert.Error(t, s.Advance(2), "terminal phase must not advance")
	assert.Error(t, s.Succeed())
	assert.Error(t, s.Fail())
}

func TestRunState_RejectsInvalidTransitions(t *testing.T) {
	s := NewRunState()
	assert.Error(t, s.Advance(0), "advance before begin")
	assert.Error(t, s.Succeed(), "succeed before begin")
	assert.Error(t, s.Begin(0), "empty run")

	require.NoError(t, s.Begin(2))
	assert.Error(t, s.Begin(2), "begin twice")
	assert.Error(t, s.Advance(1), "skipping an index")
	require.NoError(t, s.Advance(0))
	assert.Error(t, s.Advance(0), "revisiting an index")
	assert.Error(t, s.Succeed(), "succeed before last target")
	require.NoError(t, s.Advance(1))
	assert.Error(t, s.Advance(2), "past the end")
}

func TestRunState_FailBeforeFirstTarget(t *testing.T) {
	s := NewRunState()
	require.NoError(t, s.Begin(2))
	require.NoError(t, s.Fail())
	assert.Equal(t, -1, s.FailedAt())
}
