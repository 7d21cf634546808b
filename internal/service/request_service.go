package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/solicitudes-service/internal/domain"
	"github.com/spec-kit/solicitudes-service/internal/events"
	"github.com/spec-kit/solicitudes-service/internal/observability"
	"github.com/spec-kit/solicitudes-service/internal/repository"
	"github.com/spec-kit/solicitudes-service/internal/workflow"
	apperrors "github.com/spec-kit/solicitudes-service/pkg/util/errorutil"
)

// RequestService coordinates the request lifecycle: submission, admin
// updates through the workflow engine, attachments and pause reporting.
type RequestService struct {
	requests    repository.RequestRepository
	attachments repository.AttachmentRepository
	files       FileStore
	engine      *workflow.Engine
	dispatcher  events.Dispatcher
	metrics     *observability.Metrics
	logger      *zap.Logger
	now         func() time.Time

	longPauseDays float64
}

// RequestDependencies bundles collaborators for the request service.
type RequestDependencies struct {
	Requests      repository.RequestRepository
	Attachments   repository.AttachmentRepository
	Files         FileStore
	Engine        *workflow.Engine
	Dispatcher    events.Dispatcher
	Metrics       *observability.Metrics
	Logger        *zap.Logger
	Now           func() time.Time
	LongPauseDays float64
}

// RequestCreateInput describes a submission.
type RequestCreateInput struct {
	Territorial    string
	RequesterName  string
	RequesterEmail string
	RequestType    string
	Area           string
	Process        string
	Priority       domain.RequestPriority
	Description    string
	DueDate        *time.Time
}

// RequestUpdateInput describes an administrator update. Nil fields are left
// unchanged.
type RequestUpdateInput struct {
	State           *domain.RequestState
	Priority        *domain.RequestPriority
	AssigneeName    *string
	AssigneeEmail   *string
	Comment         string
	NotifyRequester bool
	NotifyAssignee  bool
	// ExpectedVersion, when set, must match the stored version.
	ExpectedVersion *int64
}

// RequestListFilter describes admin listing filters.
type RequestListFilter struct {
	States     []domain.RequestState
	Priorities []domain.RequestPriority
	SearchTerm *string
	Limit      int
	Offset     int
}

// RequestDetail is a request with its derived views.
type RequestDetail struct {
	Request        domain.Request
	History        []workflow.HistoryEntry
	HistoryText    string
	Attachments    []domain.Attachment
	LivePausedDays float64
	Allowed        []domain.RequestState
}

// RequestSummary is a list item with live pause time.
type RequestSummary struct {
	Request        domain.Request
	LivePausedDays float64
}

// TransitionOptions lists the states an admin may move a request to.
type TransitionOptions struct {
	Current     domain.RequestState
	Allowed     []domain.RequestState
	Description string
	Terminal    bool
}

// NewRequestService constructs the service.
func NewRequestService(deps RequestDependencies) *RequestService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	longPause := deps.LongPauseDays
	if longPause <= 0 {
		longPause = 7
	}
	return &RequestService{
		requests:      deps.Requests,
		attachments:   deps.Attachments,
		files:         deps.Files,
		engine:        deps.Engine,
		dispatcher:    deps.Dispatcher,
		metrics:       deps.Metrics,
		logger:        logger,
		now:           now,
		longPauseDays: longPause,
	}
}

// CreateRequest registers a new request in Asignada with an empty history.
func (s *RequestService) CreateRequest(ctx context.Context, input RequestCreateInput) (*domain.Request, error) {
	now := s.now()
	req := &domain.Request{
		ID:             generateRequestID(),
		Territorial:    strings.TrimSpace(input.Territorial),
		RequesterName:  strings.TrimSpace(input.RequesterName),
		RequesterEmail: strings.ToLower(strings.TrimSpace(input.RequesterEmail)),
		RequestType:    strings.TrimSpace(input.RequestType),
		Area:           strings.TrimSpace(input.Area),
		Process:        strings.TrimSpace(input.Process),
		Priority:       domain.RequestPriority(strings.TrimSpace(string(input.Priority))),
		Description:    strings.TrimSpace(input.Description),
		DueDate:        input.DueDate,
		State:          domain.StateAssigned,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if req.Priority == "" {
		req.Priority = domain.PriorityUndefined
	}
	if req.RequesterName == "" || req.RequesterEmail == "" || req.Area == "" || req.Process == "" || req.Description == "" {
		return nil, apperrors.NewValidationError("missing required fields", nil)
	}

	if err := s.requests.Create(ctx, req); err != nil {
		return nil, err
	}
	s.logger.Info("request created",
		zap.String("request_id", req.ID),
		zap.String("area", req.Area),
		zap.String("process", req.Process))

	s.publishEvent(ctx, events.New(events.EventRequestCreated, req.ID, req.RequesterName, now, events.RequestCreatedPayload{
		Area:           req.Area,
		Process:        req.Process,
		RequestType:    req.RequestType,
		Territorial:    req.Territorial,
		Priority:       req.Priority,
		RequesterName:  req.RequesterName,
		RequesterEmail: req.RequesterEmail,
		Description:    req.Description,
	}))
	return req, nil
}

// GetRequest returns the public tracking view of a request.
func (s *RequestService) GetRequest(ctx context.Context, id string) (*RequestDetail, error) {
	req, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, req)
}

// GetRequestForAdmin returns a request the admin is allowed to manage.
func (s *RequestService) GetRequestForAdmin(ctx context.Context, admin *domain.Admin, id string) (*RequestDetail, error) {
	req, err := s.loadForAdmin(ctx, admin, id)
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, req)
}

// ListRequests returns a page of requests visible to admin and the total
// matching count.
func (s *RequestService) ListRequests(ctx context.Context, admin *domain.Admin, filter RequestListFilter) ([]RequestSummary, int, error) {
	repoFilter := repository.RequestFilter{
		States:     filter.States,
		Priorities: filter.Priorities,
		SearchTerm: filter.SearchTerm,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	}
	applyAdminScope(&repoFilter, admin)

	items, err := s.requests.List(ctx, repoFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.requests.Count(ctx, repoFilter)
	if err != nil {
		return nil, 0, err
	}

	now := s.now()
	result := make([]RequestSummary, len(items))
	for i, item := range items {
		result[i] = RequestSummary{Request: item, LivePausedDays: workflow.LivePausedDays(item, now)}
	}
	return result, total, nil
}

// AllowedTransitions reports the admin's choices for a request.
func (s *RequestService) AllowedTransitions(ctx context.Context, admin *domain.Admin, id string) (*TransitionOptions, error) {
	req, err := s.loadForAdmin(ctx, admin, id)
	if err != nil {
		return nil, err
	}
	return &TransitionOptions{
		Current:     req.State,
		Allowed:     workflow.AllowedSuccessors(req.State),
		Description: workflow.Describe(req.State),
		Terminal:    workflow.IsTerminal(req.State),
	}, nil
}

// UpdateRequest applies an administrator update. The stored record changes
// only if the workflow accepts it; notification problems never fail the
// call.
func (s *RequestService) UpdateRequest(ctx context.Context, admin *domain.Admin, id string, input RequestUpdateInput) (*domain.Request, error) {
	current, err := s.loadForAdmin(ctx, admin, id)
	if err != nil {
		return nil, err
	}
	if input.ExpectedVersion != nil && *input.ExpectedVersion != current.Version {
		return nil, apperrors.NewConcurrentModification("request", map[string]any{
			"expected_version": *input.ExpectedVersion,
			"current_version":  current.Version,
		})
	}

	cmd := workflow.UpdateCommand{
		State:    input.State,
		Priority: input.Priority,
		Comment:  input.Comment,
	}
	if input.AssigneeName != nil || input.AssigneeEmail != nil {
		cmd.Assignee = &workflow.Assignee{
			Name:  coalesce(input.AssigneeName, current.AssigneeName),
			Email: strings.ToLower(coalesce(input.AssigneeEmail, current.AssigneeEmail)),
		}
	}
	return s.apply(ctx, admin, current, cmd, input.NotifyRequester, input.NotifyAssignee)
}

func (s *RequestService) apply(ctx context.Context, admin *domain.Admin, current *domain.Request, cmd workflow.UpdateCommand, notifyRequester, notifyAssignee bool) (*domain.Request, error) {
	now := s.now()
	plan, err := s.engine.PlanUpdate(*current, cmd, admin.Name, now)
	if err != nil {
		return nil, s.rejection(current, err)
	}

	next := plan.Next
	if err := s.requests.Update(ctx, &next); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			s.metrics.RecordRejection(apperrors.CodeConcurrentModification)
			return nil, apperrors.NewConcurrentModification("request", map[string]any{"request_id": current.ID})
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("request", map[string]any{"request_id": current.ID})
		}
		return nil, err
	}

	fields := []zap.Field{
		zap.String("request_id", next.ID),
		zap.String("admin", admin.Username),
		zap.Int64("version", next.Version),
	}
	if plan.Transitioned {
		s.metrics.RecordTransition(string(current.State), string(next.State))
		fields = append(fields,
			zap.String("from", string(current.State)),
			zap.String("to", string(next.State)),
			zap.Stringer("pause", plan.Pause),
			zap.Float64("paused_accumulated_days", next.PausedAccumulatedDays))
	}
	s.logger.Info("request updated", fields...)

	s.publishEvent(ctx, events.New(events.EventRequestUpdated, next.ID, admin.Name, now, events.RequestUpdatedPayload{
		State:      next.State,
		Changes:    plan.Changes,
		Recipients: updateRecipients(&next, notifyRequester, notifyAssignee),
	}))
	return &next, nil
}

// rejection turns a workflow refusal into a domain error and counts it.
func (s *RequestService) rejection(current *domain.Request, err error) error {
	if errors.Is(err, workflow.ErrRequestClosed) {
		s.metrics.RecordRejection(apperrors.CodeRequestClosed)
		return apperrors.NewRequestClosed(map[string]any{"request_id": current.ID, "state": current.State})
	}
	var terr *workflow.TransitionError
	if !errors.As(err, &terr) {
		return err
	}
	s.metrics.RecordRejection(string(terr.Reason))
	details := map[string]any{
		"from":    terr.From,
		"to":      terr.To,
		"allowed": terr.Allowed,
	}
	switch terr.Reason {
	case workflow.ReasonInvalidState:
		return apperrors.NewInvalidState(terr.Error(), details)
	case workflow.ReasonNoOpTransition:
		return apperrors.NewNoOpTransition(terr.Error(), details)
	default:
		return apperrors.NewTransitionNotAllowed(terr.Error(), details)
	}
}

func (s *RequestService) detail(ctx context.Context, req *domain.Request) (*RequestDetail, error) {
	var attachments []domain.Attachment
	if s.attachments != nil {
		list, err := s.attachments.ListByRequest(ctx, req.ID)
		if err != nil {
			return nil, err
		}
		attachments = list
	}
	history := s.engine.History()
	entries := history.Parse(req.History)
	return &RequestDetail{
		Request:        *req,
		History:        entries,
		HistoryText:    history.RenderEntries(entries),
		Attachments:    attachments,
		LivePausedDays: workflow.LivePausedDays(*req, s.now()),
		Allowed:        workflow.AllowedSuccessors(req.State),
	}, nil
}

func (s *RequestService) load(ctx context.Context, id string) (*domain.Request, error) {
	id = strings.ToUpper(strings.TrimSpace(id))
	if id == "" {
		return nil, apperrors.NewValidationError("request id required", nil)
	}
	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("request", map[string]any{"request_id": id})
		}
		return nil, err
	}
	return req, nil
}

func (s *RequestService) loadForAdmin(ctx context.Context, admin *domain.Admin, id string) (*domain.Request, error) {
	if admin == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	req, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !admin.CanManage(req.Process) {
		return nil, apperrors.NewForbidden("request belongs to another process")
	}
	return req, nil
}

func (s *RequestService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handlers failed",
			zap.String("event_type", string(event.Type)),
			zap.String("request_id", event.RequestID),
			zap.Error(err))
	}
}

func applyAdminScope(filter *repository.RequestFilter, admin *domain.Admin) {
	if admin == nil || admin.Role == domain.AdminRoleSupervisor {
		return
	}
	process := admin.Process
	filter.Process = &process
}

func updateRecipients(req *domain.Request, requester, assignee bool) []domain.Recipient {
	var out []domain.Recipient
	seen := map[string]bool{}
	add := func(name, email string) {
		email = strings.ToLower(strings.TrimSpace(email))
		if email == "" || seen[email] {
			return
		}
		seen[email] = true
		out = append(out, domain.Recipient{Name: name, Email: email})
	}
	if requester {
		add(req.RequesterName, req.RequesterEmail)
	}
	if assignee {
		add(req.AssigneeName, req.AssigneeEmail)
	}
	return out
}

func generateRequestID() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

func coalesce(v *string, fallback string) string {
	if v == nil {
		return fallback
	}
	return strings.TrimSpace(*v)
}
