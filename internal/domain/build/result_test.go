package build

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rv-tools/multibuild/internal/domain/values"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRunResult_PrefillsSkippedTargets(t *testing.T) {
	r := NewRunResult(Selection{values.TargetAndroid, values.TargetWebGL, values.TargetAndroid})

	require.Len(t, r.Targets, 3)
	assert.False(t, r.RunID.IsZero())
	assert.Equal(t, -1, r.FailedAt)
	for i, tr := range r.Targets {
		assert.Equal(t, i, tr.Index)
		assert.Equal(t, values.StatusSkipped, tr.Status)
	}
	assert.Equal(t, values.GroupAndroid, r.Targets[0].Group)
	assert.Equal(t, values.GroupWebGL, r.Targets[1].Group)
}

func TestRunResult_Finalize(t *testing.T) {
	r := NewRunResult(Selection{values.TargetAndroid, values.TargetWebGL, values.TargetIOS})
	r.Target(0).Status = values.StatusSucceeded
	r.Target(1).Status = values.StatusFailed

	r.Finalize(values.StatusFailed, 1)

	assert.Equal(t, values.StatusFailed, r.Status)
	assert.Equal(t, 1, r.FailedAt)
	assert.False(t, r.Succeeded())
	assert.Equal(t, ResultSummary{
		TotalTargets:     3,
		SucceededTargets: 1,
		FailedTargets:    1,
		SkippedTargets:   1,
	}, r.Summary)
	assert.False(t, r.EndTime.Before(r.StartTime))
}

func TestSelection_Clone(t *testing.T) {
	s := Selection{values.TargetAndroid}
	c := s.Clone()
	c[0] = values.TargetIOS

	assert.Equal(t, values.TargetAndroid, s[0])
	assert.Nil(t, Selection(nil).Clone())
}

func TestOptions(t *testing.T) {
	assert.Equal(t, "None", OptionNone.String())
	assert.Equal(t, "ForceEnableAssertions", OptionForceEnableAssertions.String())

	both := OptionAcceptExternalModifications | OptionForceEnableAssertions
	assert.Equal(t, "AcceptExternalModificationsToPlayer|ForceEnableAssertions", both.String())
	assert.True(t, both.Has(OptionForceEnableAssertions))
	assert.False(t, OptionForceEnableAssertions.Has(OptionAcceptExternalModifications))
	assert.False(t, both.Has(OptionNone))
}

func TestRestoration_Wait(t *testing.T) {
	done := make(chan error, 1)
	r := NewRestoration(values.TargetWebGL, done)
	assert.True(t, r.Requested())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, r.Wait(ctx), context.DeadlineExceeded)

	boom := errors.New("switch failed")
	done <- boom
	close(done)

	assert.ErrorIs(t, r.Wait(context.Background()), boom)
	assert.ErrorIs(t, r.Wait(context.Background()), boom, "later waits return the first result")
}

func TestNoRestoration(t *testing.T) {
	r := NoRestoration(values.TargetAndroid)
	assert.False(t, r.Requested())
	assert.Equal(t, values.TargetAndroid, r.Target())
	assert.NoError(t, r.Wait(context.Background()))
}

func TestParseOptions(t *testing.T) {
	tests := []struct {
		input    string
		expected Options
		wantErr  bool
	}{
		{"None", OptionNone, false},
		{"", OptionNone, false},
		{"ForceEnableAssertions", OptionForceEnableAssertions, false},
		{"AcceptExternalModificationsToPlayer|ForceEnableAssertions", OptionAcceptExternalModifications | OptionForceEnableAssertions, false},
		{"Development", OptionNone, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseOptions(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
			assert.Equal(t, got, mustRoundTrip(t, got))
		})
	}
}

func mustRoundTrip(t *testing.T, o Options) Options {
	t.Helper()
	text, err := o.MarshalText()
	require.NoError(t, err)

	var back Options
	require.NoError(t, back.UnmarshalText(text))
	return back
}
