package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/solicitudes-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventRequestCreated      EventType = "request_created"
	EventRequestUpdated      EventType = "request_updated"
	EventRequestPauseOverdue EventType = "request_pause_overdue"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	RequestID string    `json:"request_id"`
	Actor     string    `json:"actor"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// New stamps an event with a fresh ID.
func New(eventType EventType, requestID, actor string, at time.Time, payload any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		RequestID: requestID,
		Actor:     actor,
		Timestamp: at,
		Payload:   payload,
	}
}

// RequestCreatedPayload payload.
type RequestCreatedPayload struct {
	Area           string                 `json:"area"`
	Process        string                 `json:"process"`
	RequestType    string                 `json:"request_type"`
	Territorial    string                 `json:"territorial"`
	Priority       domain.RequestPriority `json:"priority"`
	RequesterName  string                 `json:"requester_name"`
	RequesterEmail string                 `json:"requester_email"`
	Description    string                 `json:"description"`
}

// RequestUpdatedPayload carries the change-set and who should hear about it.
type RequestUpdatedPayload struct {
	State      domain.RequestState `json:"state"`
	Changes    domain.ChangeSet    `json:"changes"`
	Recipients []domain.Recipient  `json:"recipients"`
}

// RequestPauseOverduePayload payload.
type RequestPauseOverduePayload struct {
	Area       string           `json:"area"`
	Process    string           `json:"process"`
	PausedDays float64          `json:"paused_days"`
	Assignee   domain.Recipient `json:"assignee"`
}
