// Package workflow holds the request state machine, the textual state
// history codec and the pause accounting rules. Everything here is pure and
// synchronous; persistence and notifications live in the service layer.
package workflow

import (
	"fmt"
	"strings"

	"github.com/spec-kit/solicitudes-service/internal/domain"
)

type transitionRule struct {
	allowed     []domain.RequestState
	description string
}

// states lists the enumeration in lifecycle order.
var states = []domain.RequestState{
	domain.StateAssigned,
	domain.StateInProgress,
	domain.StateIncomplete,
	domain.StateCompleted,
	domain.StateCancelled,
}

// transitionTable is the only definition of the state machine. Validation,
// successor queries and the rendered diagram all read from it.
var transitionTable = map[domain.RequestState]transitionRule{
	domain.StateAssigned: {
		allowed:     []domain.RequestState{domain.StateInProgress, domain.StateIncomplete, domain.StateCancelled},
		description: "Puede moverse a: En Proceso (iniciar trabajo), Incompleta (pausar), o Cancelada",
	},
	domain.StateInProgress: {
		allowed:     []domain.RequestState{domain.StateCompleted, domain.StateIncomplete, domain.StateCancelled},
		description: "Puede moverse a: Completada (finalizar), Incompleta (pausar por info faltante), o Cancelada",
	},
	domain.StateIncomplete: {
		allowed:     []domain.RequestState{domain.StateInProgress, domain.StateCancelled},
		description: "Puede resumir a: En Proceso (continuar trabajo) o Cancelada",
	},
	domain.StateCompleted: {
		description: "Estado terminal - no puede transicionar a ningún otro estado",
	},
	domain.StateCancelled: {
		description: "Estado terminal - no puede transicionar a ningún otro estado",
	},
}

// RejectionReason classifies a refused transition.
type RejectionReason string

const (
	ReasonInvalidState         RejectionReason = "INVALID_STATE"
	ReasonNoOpTransition       RejectionReason = "NO_OP_TRANSITION"
	ReasonTransitionNotAllowed RejectionReason = "TRANSITION_NOT_ALLOWED"
)

// TransitionError is returned when a state change is refused. Allowed holds
// the successors of From so callers can offer a corrective choice.
type TransitionError struct {
	Reason  RejectionReason
	From    domain.RequestState
	To      domain.RequestState
	Allowed []domain.RequestState
}

func (e *TransitionError) Error() string {
	switch e.Reason {
	case ReasonInvalidState:
		if !IsValidState(e.From) {
			return fmt.Sprintf("invalid current state %q", e.From)
		}
		return fmt.Sprintf("invalid new state %q", e.To)
	case ReasonNoOpTransition:
		return fmt.Sprintf("state is already %q", e.From)
	default:
		if len(e.Allowed) == 0 {
			return fmt.Sprintf("transition %q -> %q not allowed: %q is terminal", e.From, e.To, e.From)
		}
		return fmt.Sprintf("transition %q -> %q not allowed; allowed: %s", e.From, e.To, joinStates(e.Allowed))
	}
}

// States returns the five known states in lifecycle order.
func States() []domain.RequestState {
	return append([]domain.RequestState(nil), states...)
}

// IsValidState reports whether s belongs to the enumeration.
func IsValidState(s domain.RequestState) bool {
	_, ok := transitionTable[s]
	return ok
}

// ParseState converts a persisted label into a state.
func ParseState(raw string) (domain.RequestState, bool) {
	s := domain.RequestState(strings.TrimSpace(raw))
	return s, IsValidState(s)
}

// AllowedSuccessors returns the states reachable from s in one step. Unknown
// and terminal states have none.
func AllowedSuccessors(s domain.RequestState) []domain.RequestState {
	rule, ok := transitionTable[s]
	if !ok {
		return []domain.RequestState{}
	}
	return append([]domain.RequestState{}, rule.allowed...)
}

// IsTerminal reports whether s is a known state without successors.
func IsTerminal(s domain.RequestState) bool {
	rule, ok := transitionTable[s]
	return ok && len(rule.allowed) == 0
}

// Describe returns the human description of s and its exits.
func Describe(s domain.RequestState) string {
	if rule, ok := transitionTable[s]; ok {
		return rule.description
	}
	return "Estado desconocido"
}

// ValidateTransition decides whether current -> proposed is legal. It returns
// nil or a *TransitionError and has no side effects.
func ValidateTransition(current, proposed domain.RequestState) error {
	if !IsValidState(current) || !IsValidState(proposed) {
		return &TransitionError{Reason: ReasonInvalidState, From: current, To: proposed, Allowed: AllowedSuccessors(current)}
	}
	if current == proposed {
		return &TransitionError{Reason: ReasonNoOpTransition, From: current, To: proposed, Allowed: AllowedSuccessors(current)}
	}
	for _, candidate := range transitionTable[current].allowed {
		if candidate == proposed {
			return nil
		}
	}
	return &TransitionError{Reason: ReasonTransitionNotAllowed, From: current, To: proposed, Allowed: AllowedSuccessors(current)}
}

// Diagram renders the transition table as a Mermaid state diagram.
func Diagram() string {
	var b strings.Builder
	b.WriteString("stateDiagram-v2\n")
	fmt.Fprintf(&b, "    [*] --> %s\n", stateNodeID(domain.StateAssigned))
	for _, from := range states {
		rule := transitionTable[from]
		for _, to := range rule.allowed {
			fmt.Fprintf(&b, "    %s --> %s\n", stateNodeID(from), stateNodeID(to))
		}
		if len(rule.allowed) == 0 {
			fmt.Fprintf(&b, "    %s --> [*]\n", stateNodeID(from))
		}
	}
	return b.String()
}

func stateNodeID(s domain.RequestState) string {
	return strings.ReplaceAll(string(s), " ", "")
}

func joinStates(list []domain.RequestState) string {
	parts := make([]string, len(list))
	for i, s := range list {
		parts[i] = string(s)
	}
	return strings.Join(parts, ", ")
}
