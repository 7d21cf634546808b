package domain

import "time"

// RequestState enumerates lifecycle states for requests. The values are the
// labels persisted in existing records and must not change.
type RequestState string

const (
	StateAssigned   RequestState = "Asignada"
	StateInProgress RequestState = "En Proceso"
	StateIncomplete RequestState = "Incompleta"
	StateCompleted  RequestState = "Completada"
	StateCancelled  RequestState = "Cancelada"
)

// RequestPriority is free text chosen by administrators.
type RequestPriority string

const (
	PriorityUndefined RequestPriority = "Por definir"
	PriorityLow       RequestPriority = "Baja"
	PriorityMedium    RequestPriority = "Media"
	PriorityHigh      RequestPriority = "Alta"
)

// Request is the aggregate tracked through the state machine.
type Request struct {
	ID             string
	Territorial    string
	RequesterName  string
	RequesterEmail string
	RequestType    string
	Area           string
	Process        string
	Priority       RequestPriority
	Description    string
	DueDate        *time.Time

	State         RequestState
	AssigneeName  string
	AssigneeEmail string
	AdminComments string

	// History is the serialized state-change log; see workflow.HistoryTracker.
	History string

	PausedAccumulatedDays float64
	PauseStartedAt        *time.Time
	// PauseRemindedAt is when the last long-pause reminder went out.
	PauseRemindedAt *time.Time

	CreatedAt      time.Time
	UpdatedAt      time.Time
	RespondedAt    *time.Time
	CompletedAt    *time.Time
	ResponseDays   float64
	ResolutionDays float64

	// Version increments on every persisted update and guards concurrent writers.
	Version int64
}

// PauseReminderDue reports whether the open pause episode has not been
// reminded about yet.
func (r *Request) PauseReminderDue() bool {
	if r.PauseStartedAt == nil {
		return false
	}
	return r.PauseRemindedAt == nil || r.PauseRemindedAt.Before(*r.PauseStartedAt)
}

// IsPaused reports whether a pause episode is open.
func (r *Request) IsPaused() bool {
	return r.PauseStartedAt != nil
}
