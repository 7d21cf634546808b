package workflow

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/solicitudes-service/internal/domain"
)

func TestTerminalStatesHaveNoSuccessors(t *testing.T) {
	assert.Empty(t, AllowedSuccessors(domain.StateCompleted))
	assert.Empty(t, AllowedSuccessors(domain.StateCancelled))
	assert.True(t, IsTerminal(domain.StateCompleted))
	assert.True(t, IsTerminal(domain.StateCancelled))
	assert.False(t, IsTerminal(domain.StateIncomplete))

	for _, target := range States() {
		for _, terminal := range []domain.RequestState{domain.StateCompleted, domain.StateCancelled} {
			assert.Error(t, ValidateTransition(terminal, target), "%s -> %s", terminal, target)
		}
	}
}

func TestSameStateIsAlwaysNoOp(t *testing.T) {
	for _, s := range States() {
		err := ValidateTransition(s, s)
		var terr *TransitionError
		require.True(t, errors.As(err, &terr), s)
		assert.Equal(t, ReasonNoOpTransition, terr.Reason)
	}
}

func TestValidateTransitionTable(t *testing.T) {
	cases := []struct {
		from, to domain.RequestState
		reason   RejectionReason
	}{
		{domain.StateAssigned, domain.StateInProgress, ""},
		{domain.StateAssigned, domain.StateIncomplete, ""},
		{domain.StateAssigned, domain.StateCancelled, ""},
		{domain.StateAssigned, domain.StateCompleted, ReasonTransitionNotAllowed},
		{domain.StateInProgress, domain.StateCompleted, ""},
		{domain.StateInProgress, domain.StateIncomplete, ""},
		{domain.StateInProgress, domain.StateAssigned, ReasonTransitionNotAllowed},
		{domain.StateIncomplete, domain.StateInProgress, ""},
		{domain.StateIncomplete, domain.StateCancelled, ""},
		{domain.StateIncomplete, domain.StateAssigned, ReasonTransitionNotAllowed},
		{domain.StateIncomplete, domain.StateCompleted, ReasonTransitionNotAllowed},
		{domain.StateAssigned, "Archivada", ReasonInvalidState},
		{"Pendiente", domain.StateInProgress, ReasonInvalidState},
	}
	for _, tc := range cases {
		t.Run(string(tc.from)+"->"+string(tc.to), func(t *testing.T) {
			err := ValidateTransition(tc.from, tc.to)
			if tc.reason == "" {
				assert.NoError(t, err)
				return
			}
			var terr *TransitionError
			require.True(t, errors.As(err, &terr))
			assert.Equal(t, tc.reason, terr.Reason)
			assert.Equal(t, AllowedSuccessors(tc.from), terr.Allowed)
		})
	}
}

func TestRejectionCarriesAllowedSet(t *testing.T) {
	err := ValidateTransition(domain.StateAssigned, domain.StateCompleted)
	var terr *TransitionError
	require.True(t, errors.As(err, &terr))
	assert.ElementsMatch(t, []domain.RequestState{
		domain.StateInProgress, domain.StateIncomplete, domain.StateCancelled,
	}, terr.Allowed)
	assert.Contains(t, terr.Error(), "En Proceso")
}

func TestAllowedSuccessorsReturnsCopy(t *testing.T) {
	got := AllowedSuccessors(domain.StateAssigned)
	got[0] = domain.StateCompleted
	assert.Equal(t, domain.StateInProgress, AllowedSuccessors(domain.StateAssigned)[0])
}

func TestParseState(t *testing.T) {
	s, ok := ParseState(" En Proceso ")
	assert.True(t, ok)
	assert.Equal(t, domain.StateInProgress, s)

	_, ok = ParseState("in_progress")
	assert.False(t, ok)
}

func TestDiagramFollowsTable(t *testing.T) {
	d := Diagram()
	assert.Contains(t, d, "[*] --> Asignada")
	assert.Contains(t, d, "EnProceso --> Completada")
	assert.Contains(t, d, "Incompleta --> EnProceso")
	assert.Contains(t, d, "Cancelada --> [*]")
	assert.NotContains(t, d, "Incompleta --> Asignada")
	assert.Equal(t, "Estado desconocido", Describe("x"))
}
