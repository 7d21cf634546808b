package workflow

import (
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/solicitudes-service/internal/domain"
)

const secondsPerDay = 24 * 60 * 60

// DaysBetween returns to - from in fractional days, clamped at zero.
func DaysBetween(from, to time.Time) float64 {
	d := to.Sub(from).Seconds() / secondsPerDay
	if d < 0 {
		return 0
	}
	return d
}

// PauseState is the persisted pause bookkeeping of one request.
type PauseState struct {
	AccumulatedDays float64
	StartedAt       *time.Time
}

// PauseEvent is a pause boundary crossed by a transition.
type PauseEvent int

const (
	PauseNone PauseEvent = iota
	PauseEnter
	PauseExit
)

func (e PauseEvent) String() string {
	switch e {
	case PauseEnter:
		return "enter"
	case PauseExit:
		return "exit"
	default:
		return "none"
	}
}

// PauseEventFor returns the pause effect of an accepted transition.
func PauseEventFor(current, proposed domain.RequestState) PauseEvent {
	switch {
	case proposed == domain.StateIncomplete && current != domain.StateIncomplete:
		return PauseEnter
	case current == domain.StateIncomplete && proposed != domain.StateIncomplete:
		return PauseExit
	default:
		return PauseNone
	}
}

// CurrentPausedDuration is the closed-episode total plus the open episode.
func CurrentPausedDuration(accumulated float64, startedAt *time.Time, now time.Time) float64 {
	if startedAt == nil {
		return accumulated
	}
	return accumulated + DaysBetween(*startedAt, now)
}

// EffectiveElapsed is the time worked on a request: wall-clock age at ref
// minus paused time, never below zero.
func EffectiveElapsed(createdAt, ref time.Time, totalPaused float64) float64 {
	d := DaysBetween(createdAt, ref) - totalPaused
	if d < 0 {
		return 0
	}
	return d
}

// PauseAccountant applies pause boundaries to stored bookkeeping. Calls that
// do not match the stored state are ignored and reported.
type PauseAccountant struct {
	logger *zap.Logger
	diag   Diagnostics
}

func NewPauseAccountant(logger *zap.Logger, diag Diagnostics) *PauseAccountant {
	if logger == nil {
		logger = zap.NewNop()
	}
	if diag == nil {
		diag = noopDiagnostics{}
	}
	return &PauseAccountant{logger: logger, diag: diag}
}

// OnEnterPause opens an episode at now.
func (a *PauseAccountant) OnEnterPause(p PauseState, now time.Time) PauseState {
	if p.StartedAt != nil {
		a.diag.PauseInconsistency(inconsistencyAlreadyPaused)
		a.logger.Warn("pause already open, keeping original start",
			zap.Time("pause_started_at", *p.StartedAt),
			zap.Time("now", now),
		)
		return p
	}
	started := now
	return PauseState{AccumulatedDays: p.AccumulatedDays, StartedAt: &started}
}

// OnExitPause folds the open episode into the accumulator and closes it.
func (a *PauseAccountant) OnExitPause(p PauseState, now time.Time) PauseState {
	if p.StartedAt == nil {
		a.diag.PauseInconsistency(inconsistencyNotPaused)
		a.logger.Warn("no open pause to close", zap.Float64("paused_accumulated_days", p.AccumulatedDays))
		return p
	}
	return PauseState{AccumulatedDays: p.AccumulatedDays + DaysBetween(*p.StartedAt, now)}
}

// Apply dispatches ev to the matching boundary handler.
func (a *PauseAccountant) Apply(ev PauseEvent, p PauseState, now time.Time) PauseState {
	switch ev {
	case PauseEnter:
		return a.OnEnterPause(p, now)
	case PauseExit:
		return a.OnExitPause(p, now)
	default:
		return p
	}
}
