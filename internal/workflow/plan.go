package workflow

import (
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/solicitudes-service/internal/domain"
	"github.com/spec-kit/solicitudes-service/pkg/util/numutil"
)

// ErrRequestClosed is returned for any update of a request that is already in
// a terminal state and is not a state change.
var ErrRequestClosed = errors.New("request is closed")

// Assignee identifies the person working a request.
type Assignee struct {
	Name  string
	Email string
}

// UpdateCommand is an administrator's requested change. Nil fields are left
// untouched.
type UpdateCommand struct {
	State       *domain.RequestState
	Priority    *domain.RequestPriority
	Assignee    *Assignee
	Comment     string
	Attachments []string
}

// Plan is the outcome of an accepted update: the full next record and what
// changed relative to the current one.
type Plan struct {
	Next         domain.Request
	Changes      domain.ChangeSet
	Transitioned bool
	Pause        PauseEvent
}

// Engine combines validation, pause accounting and history for one update.
type Engine struct {
	loc     *time.Location
	history *HistoryTracker
	pause   *PauseAccountant
}

// NewEngine builds an engine stamping history and comments in loc.
func NewEngine(loc *time.Location, logger *zap.Logger, diag Diagnostics) *Engine {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		loc:     loc,
		history: NewHistoryTracker(loc, logger.Named("history"), diag),
		pause:   NewPauseAccountant(logger.Named("pause"), diag),
	}
}

// History exposes the tracker the engine writes with.
func (e *Engine) History() *HistoryTracker {
	return e.history
}

// Location returns the business timezone.
func (e *Engine) Location() *time.Location {
	return e.loc
}

// PlanUpdate computes the record that results from applying cmd to current at
// now on behalf of actor. It does not persist anything. Rejections are a
// *TransitionError or ErrRequestClosed.
func (e *Engine) PlanUpdate(current domain.Request, cmd UpdateCommand, actor string, now time.Time) (*Plan, error) {
	next := current
	plan := &Plan{}

	var proposed domain.RequestState
	if cmd.State != nil {
		proposed = *cmd.State
		if !IsValidState(proposed) {
			return nil, ValidateTransition(current.State, proposed)
		}
		if proposed != current.State {
			if err := ValidateTransition(current.State, proposed); err != nil {
				return nil, err
			}
			plan.Transitioned = true
		}
	}
	if !plan.Transitioned && IsTerminal(current.State) {
		return nil, ErrRequestClosed
	}

	if cmd.Priority != nil {
		p := domain.RequestPriority(strings.TrimSpace(string(*cmd.Priority)))
		if p != "" && p != current.Priority {
			plan.Changes.Priority = &domain.FieldChange{Old: string(current.Priority), New: string(p)}
			next.Priority = p
		}
	}
	if cmd.Assignee != nil {
		name := strings.TrimSpace(cmd.Assignee.Name)
		email := strings.TrimSpace(cmd.Assignee.Email)
		if name != current.AssigneeName || email != current.AssigneeEmail {
			plan.Changes.Assignee = &domain.FieldChange{Old: current.AssigneeName, New: name}
			next.AssigneeName = name
			next.AssigneeEmail = email
		}
	}
	comment := strings.TrimSpace(cmd.Comment)
	plan.Changes.Comment = comment
	if len(cmd.Attachments) > 0 {
		plan.Changes.Attachments = append([]string(nil), cmd.Attachments...)
	}

	if !plan.Transitioned && plan.Changes.IsEmpty() {
		return nil, &TransitionError{
			Reason:  ReasonNoOpTransition,
			From:    current.State,
			To:      current.State,
			Allowed: AllowedSuccessors(current.State),
		}
	}

	if plan.Transitioned {
		plan.Changes.State = &domain.FieldChange{Old: string(current.State), New: string(proposed)}
		plan.Pause = PauseEventFor(current.State, proposed)
		ps := e.pause.Apply(plan.Pause, PauseState{
			AccumulatedDays: current.PausedAccumulatedDays,
			StartedAt:       current.PauseStartedAt,
		}, now)
		next.PausedAccumulatedDays = ps.AccumulatedDays
		next.PauseStartedAt = ps.StartedAt
		next.State = proposed
		next.History = e.history.Append(current.History, proposed, actor, comment, now)

		// Metrics are frozen at the event instant with the pause state of that
		// instant; later pauses never revise them.
		if current.State == domain.StateAssigned && current.RespondedAt == nil {
			at := now
			next.RespondedAt = &at
			paused := CurrentPausedDuration(next.PausedAccumulatedDays, next.PauseStartedAt, now)
			next.ResponseDays = numutil.Round2(EffectiveElapsed(current.CreatedAt, now, paused))
		}
		if proposed == domain.StateCompleted && current.CompletedAt == nil {
			at := now
			next.CompletedAt = &at
			paused := CurrentPausedDuration(next.PausedAccumulatedDays, next.PauseStartedAt, now)
			next.ResolutionDays = numutil.Round2(EffectiveElapsed(current.CreatedAt, now, paused))
		}
		if comment == "" {
			next.AdminComments = AppendComment(next.AdminComments, SystemAuthor(actor),
				AutomaticStateComment(string(current.State), string(proposed)), now, e.loc)
		}
	}
	if comment != "" {
		next.AdminComments = AppendComment(next.AdminComments, actor, comment, now, e.loc)
	}
	next.UpdatedAt = now
	plan.Next = next
	return plan, nil
}

// LivePausedDays is the paused total of r at now, including an open episode.
func LivePausedDays(r domain.Request, now time.Time) float64 {
	return CurrentPausedDuration(r.PausedAccumulatedDays, r.PauseStartedAt, now)
}
