package workflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/solicitudes-service/internal/domain"
)

const day = 24 * time.Hour

func TestCurrentPausedDuration(t *testing.T) {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, 10.0, CurrentPausedDuration(10, nil, base))
	assert.Equal(t, 10.0, CurrentPausedDuration(10, nil, base.Add(-300*day)))
	assert.InDelta(t, 12.0, CurrentPausedDuration(10, &base, base.Add(2*day)), 1e-9)
	// Clock skew never shrinks the total.
	assert.Equal(t, 10.0, CurrentPausedDuration(10, &base, base.Add(-time.Hour)))
}

func TestEffectiveElapsedClampsAtZero(t *testing.T) {
	day0 := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 0.0, EffectiveElapsed(day0, day0.Add(10*day), 12))
	assert.InDelta(t, 7.0, EffectiveElapsed(day0, day0.Add(10*day), 3), 1e-9)
	assert.Equal(t, 0.0, EffectiveElapsed(day0, day0.Add(-day), 0))
}

func TestPauseEventFor(t *testing.T) {
	assert.Equal(t, PauseEnter, PauseEventFor(domain.StateAssigned, domain.StateIncomplete))
	assert.Equal(t, PauseEnter, PauseEventFor(domain.StateInProgress, domain.StateIncomplete))
	assert.Equal(t, PauseExit, PauseEventFor(domain.StateIncomplete, domain.StateInProgress))
	assert.Equal(t, PauseExit, PauseEventFor(domain.StateIncomplete, domain.StateCancelled))
	assert.Equal(t, PauseNone, PauseEventFor(domain.StateAssigned, domain.StateInProgress))
	assert.Equal(t, PauseNone, PauseEventFor(domain.StateInProgress, domain.StateCompleted))
}

func TestOnExitPauseIsIdempotent(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	diag := &recordingDiagnostics{}
	acc := NewPauseAccountant(zap.New(core), diag)

	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	first := acc.OnExitPause(PauseState{AccumulatedDays: 1.5, StartedAt: &start}, start.Add(2*day))
	assert.InDelta(t, 3.5, first.AccumulatedDays, 1e-9)
	assert.Nil(t, first.StartedAt)

	second := acc.OnExitPause(first, start.Add(5*day))
	assert.Equal(t, first, second)
	third := acc.OnExitPause(second, start.Add(9*day))
	assert.Equal(t, first, third)

	assert.Equal(t, []string{inconsistencyNotPaused, inconsistencyNotPaused}, diag.inconsistencies)
	assert.Equal(t, 2, logs.FilterMessage("no open pause to close").Len())
}

func TestOnEnterPauseWhilePausedKeepsStart(t *testing.T) {
	diag := &recordingDiagnostics{}
	acc := NewPauseAccountant(zap.NewNop(), diag)
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	opened := acc.OnEnterPause(PauseState{AccumulatedDays: 2}, start)
	require.NotNil(t, opened.StartedAt)
	assert.True(t, opened.StartedAt.Equal(start))
	assert.Equal(t, 2.0, opened.AccumulatedDays)

	again := acc.OnEnterPause(opened, start.Add(day))
	assert.True(t, again.StartedAt.Equal(start))
	assert.Equal(t, []string{inconsistencyAlreadyPaused}, diag.inconsistencies)
}

func TestApplyNoneLeavesStateUntouched(t *testing.T) {
	acc := NewPauseAccountant(nil, nil)
	p := PauseState{AccumulatedDays: 4}
	assert.Equal(t, p, acc.Apply(PauseNone, p, time.Now()))
}
