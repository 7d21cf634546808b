package dto

import (
	"time"

	"github.com/spec-kit/solicitudes-service/internal/domain"
)

// CreateRequestRequest is the public submission payload.
type CreateRequestRequest struct {
	Territorial    string                 `json:"territorial" validate:"max=120"`
	RequesterName  string                 `json:"requester_name" validate:"required,max=200"`
	RequesterEmail string                 `json:"requester_email" validate:"required,email"`
	RequestType    string                 `json:"request_type" validate:"max=120"`
	Area           string                 `json:"area" validate:"required,max=200"`
	Process        string                 `json:"process" validate:"required,max=200"`
	Priority       domain.RequestPriority `json:"priority" validate:"max=40"`
	Description    string                 `json:"description" validate:"required,max=5000"`
	DueDate        *time.Time             `json:"due_date"`
}

// UpdateRequestRequest is the admin update payload. Omitted fields are left
// unchanged.
type UpdateRequestRequest struct {
	State           *domain.RequestState    `json:"state"`
	Priority        *domain.RequestPriority `json:"priority"`
	AssigneeName    *string                 `json:"assignee_name" validate:"omitempty,max=200"`
	AssigneeEmail   *string                 `json:"assignee_email" validate:"omitempty,email"`
	Comment         string                  `json:"comment" validate:"max=2000"`
	NotifyRequester bool                    `json:"notify_requester"`
	NotifyAssignee  bool                    `json:"notify_assignee"`
	Version         *int64                  `json:"version"`
}

// RequestSummary is a list item.
type RequestSummary struct {
	ID             string                 `json:"id"`
	RequesterName  string                 `json:"requester_name"`
	Area           string                 `json:"area"`
	Process        string                 `json:"process"`
	State          domain.RequestState    `json:"state"`
	Priority       domain.RequestPriority `json:"priority"`
	AssigneeName   string                 `json:"assignee_name,omitempty"`
	LivePausedDays float64                `json:"paused_days"`
	CreatedAt      time.Time              `json:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at"`
	Version        int64                  `json:"version"`
}

// PublicRequestResponse is what a requester sees when tracking a request.
type PublicRequestResponse struct {
	ID          string                 `json:"id"`
	Area        string                 `json:"area"`
	Process     string                 `json:"process"`
	RequestType string                 `json:"request_type"`
	State       domain.RequestState    `json:"state"`
	Priority    domain.RequestPriority `json:"priority"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
	CompletedAt *time.Time             `json:"completed_at"`
	History     []HistoryEntryResponse `json:"history"`
	HistoryText string                 `json:"history_text"`
}

// RequestDetailResponse is the full admin view.
type RequestDetailResponse struct {
	ID                    string                 `json:"id"`
	Territorial           string                 `json:"territorial"`
	RequesterName         string                 `json:"requester_name"`
	RequesterEmail        string                 `json:"requester_email"`
	RequestType           string                 `json:"request_type"`
	Area                  string                 `json:"area"`
	Process               string                 `json:"process"`
	Priority              domain.RequestPriority `json:"priority"`
	Description           string                 `json:"description"`
	DueDate               *time.Time             `json:"due_date"`
	State                 domain.RequestState    `json:"state"`
	AllowedStates         []domain.RequestState  `json:"allowed_states"`
	AssigneeName          string                 `json:"assignee_name"`
	AssigneeEmail         string                 `json:"assignee_email"`
	AdminComments         string                 `json:"admin_comments"`
	History               []HistoryEntryResponse `json:"history"`
	HistoryText           string                 `json:"history_text"`
	PausedAccumulatedDays float64                `json:"paused_accumulated_days"`
	PauseStartedAt        *time.Time             `json:"pause_started_at"`
	LivePausedDays        float64                `json:"paused_days"`
	CreatedAt             time.Time              `json:"created_at"`
	UpdatedAt             time.Time              `json:"updated_at"`
	RespondedAt           *time.Time             `json:"responded_at"`
	CompletedAt           *time.Time             `json:"completed_at"`
	ResponseDays          float64                `json:"response_days"`
	ResolutionDays        float64                `json:"resolution_days"`
	Attachments           []AttachmentResponse   `json:"attachments"`
	Version               int64                  `json:"version"`
}

// HistoryEntryResponse is one state change.
type HistoryEntryResponse struct {
	State domain.RequestState `json:"state"`
	At    time.Time           `json:"at"`
	Actor string              `json:"actor"`
	Note  string              `json:"note,omitempty"`
}

// AttachmentResponse describes a stored file.
type AttachmentResponse struct {
	ID         string    `json:"id"`
	FileName   string    `json:"file_name"`
	MimeType   string    `json:"mime_type"`
	SizeBytes  int64     `json:"size_bytes"`
	UploadedBy string    `json:"uploaded_by"`
	CreatedAt  time.Time `json:"created_at"`
}

// TransitionOptionsResponse lists the next states for a request.
type TransitionOptionsResponse struct {
	Current     domain.RequestState   `json:"current"`
	Allowed     []domain.RequestState `json:"allowed"`
	Description string                `json:"description"`
	Terminal    bool                  `json:"terminal"`
}

// PauseMetricsResponse is the pause and timing report.
type PauseMetricsResponse struct {
	Total             int                         `json:"total"`
	ByState           map[domain.RequestState]int `json:"by_state"`
	AvgResponseDays   float64                     `json:"avg_response_days"`
	AvgResolutionDays float64                     `json:"avg_resolution_days"`
	PausedRequests    int                         `json:"paused_requests"`
	MedianPausedDays  float64                     `json:"median_paused_days"`
	ThresholdDays     float64                     `json:"threshold_days"`
	LongPaused        []LongPausedRequestResponse `json:"long_paused"`
	GeneratedAt       time.Time                   `json:"generated_at"`
}

// LongPausedRequestResponse is one request paused past the threshold.
type LongPausedRequestResponse struct {
	ID             string     `json:"id"`
	RequesterName  string     `json:"requester_name"`
	Process        string     `json:"process"`
	AssigneeName   string     `json:"assignee_name,omitempty"`
	PausedDays     int        `json:"paused_days"`
	PauseStartedAt *time.Time `json:"pause_started_at"`
}
