package handlers

import (
	"io"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/solicitudes-service/internal/api/dto"
	"github.com/spec-kit/solicitudes-service/internal/domain"
	"github.com/spec-kit/solicitudes-service/internal/service"
	apperrors "github.com/spec-kit/solicitudes-service/pkg/util/errorutil"
)

// AdminRequestsHandler serves the administrator request endpoints.
type AdminRequestsHandler struct {
	requests *service.RequestService
}

// NewAdminRequestsHandler constructs handler.
func NewAdminRequestsHandler(requestService *service.RequestService) *AdminRequestsHandler {
	return &AdminRequestsHandler{requests: requestService}
}

// ListRequests GET /admin/requests.
func (h *AdminRequestsHandler) ListRequests(c *fiber.Ctx) error {
	admin, err := currentAdmin(c)
	if err != nil {
		return err
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	if pageSize > 100 {
		pageSize = 100
	}
	filter := service.RequestListFilter{Limit: pageSize, Offset: (page - 1) * pageSize}
	for _, s := range splitCSV(c.Query("state")) {
		filter.States = append(filter.States, domain.RequestState(s))
	}
	for _, p := range splitCSV(c.Query("priority")) {
		filter.Priorities = append(filter.Priorities, domain.RequestPriority(p))
	}
	if q := strings.TrimSpace(c.Query("q")); q != "" {
		filter.SearchTerm = &q
	}

	items, total, err := h.requests.ListRequests(c.UserContext(), admin, filter)
	if err != nil {
		return err
	}
	resp := make([]dto.RequestSummary, 0, len(items))
	for _, item := range items {
		r := item.Request
		resp = append(resp, dto.RequestSummary{
			ID:             r.ID,
			RequesterName:  r.RequesterName,
			Area:           r.Area,
			Process:        r.Process,
			State:          r.State,
			Priority:       r.Priority,
			AssigneeName:   r.AssigneeName,
			LivePausedDays: item.LivePausedDays,
			CreatedAt:      r.CreatedAt,
			UpdatedAt:      r.UpdatedAt,
			Version:        r.Version,
		})
	}
	return c.JSON(fiber.Map{
		"data": resp,
		"meta": fiber.Map{"total": total, "page": page, "page_size": pageSize},
	})
}

// GetRequest GET /admin/requests/:id.
func (h *AdminRequestsHandler) GetRequest(c *fiber.Ctx) error {
	admin, err := currentAdmin(c)
	if err != nil {
		return err
	}
	detail, err := h.requests.GetRequestForAdmin(c.UserContext(), admin, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": requestDetail(detail)})
}

// UpdateRequest PATCH /admin/requests/:id.
func (h *AdminRequestsHandler) UpdateRequest(c *fiber.Ctx) error {
	admin, err := currentAdmin(c)
	if err != nil {
		return err
	}
	var req dto.UpdateRequestRequest
	if err := BindAndValidate(c, &req); err != nil {
		return err
	}
	updated, err := h.requests.UpdateRequest(c.UserContext(), admin, c.Params("id"), service.RequestUpdateInput{
		State:           req.State,
		Priority:        req.Priority,
		AssigneeName:    req.AssigneeName,
		AssigneeEmail:   req.AssigneeEmail,
		Comment:         req.Comment,
		NotifyRequester: req.NotifyRequester,
		NotifyAssignee:  req.NotifyAssignee,
		ExpectedVersion: req.Version,
	})
	if err != nil {
		return err
	}
	detail, err := h.requests.GetRequestForAdmin(c.UserContext(), admin, updated.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": requestDetail(detail)})
}

// Transitions GET /admin/requests/:id/transitions.
func (h *AdminRequestsHandler) Transitions(c *fiber.Ctx) error {
	admin, err := currentAdmin(c)
	if err != nil {
		return err
	}
	opts, err := h.requests.AllowedTransitions(c.UserContext(), admin, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TransitionOptionsResponse{
		Current:     opts.Current,
		Allowed:     opts.Allowed,
		Description: opts.Description,
		Terminal:    opts.Terminal,
	}})
}

// UploadAttachment POST /admin/requests/:id/attachments (multipart field "file").
func (h *AdminRequestsHandler) UploadAttachment(c *fiber.Ctx) error {
	admin, err := currentAdmin(c)
	if err != nil {
		return err
	}
	header, err := c.FormFile("file")
	if err != nil {
		return apperrors.NewValidationError("file required", nil)
	}
	file, err := header.Open()
	if err != nil {
		return err
	}
	defer file.Close()

	attachment, err := h.requests.AddAttachment(c.UserContext(), admin, c.Params("id"), service.AttachmentInput{
		FileName: header.Filename,
		MimeType: header.Header.Get(fiber.HeaderContentType),
		Size:     header.Size,
		Content:  file,
	}, c.FormValue("notify_requester") == "true")
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": attachmentResponse(attachment)})
}

// DownloadAttachment GET /admin/requests/:id/attachments/:attachmentId.
func (h *AdminRequestsHandler) DownloadAttachment(c *fiber.Ctx) error {
	admin, err := currentAdmin(c)
	if err != nil {
		return err
	}
	attachment, rc, err := h.requests.OpenAttachment(c.UserContext(), admin, c.Params("id"), c.Params("attachmentId"))
	if err != nil {
		return err
	}
	defer rc.Close()

	c.Set(fiber.HeaderContentType, attachment.MimeType)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename*=UTF-8''`+url.PathEscape(attachment.FileName))
	body, err := io.ReadAll(rc)
	if err != nil {
		return err
	}
	return c.Send(body)
}

// PauseMetrics GET /admin/metrics/pauses.
func (h *AdminRequestsHandler) PauseMetrics(c *fiber.Ctx) error {
	admin, err := currentAdmin(c)
	if err != nil {
		return err
	}
	m, err := h.requests.PauseMetrics(c.UserContext(), admin)
	if err != nil {
		return err
	}
	long := make([]dto.LongPausedRequestResponse, 0, len(m.LongPaused))
	for _, lp := range m.LongPaused {
		long = append(long, dto.LongPausedRequestResponse{
			ID:             lp.ID,
			RequesterName:  lp.RequesterName,
			Process:        lp.Process,
			AssigneeName:   lp.Assignee.Name,
			PausedDays:     lp.PausedDays,
			PauseStartedAt: lp.PauseStartedAt,
		})
	}
	return c.JSON(fiber.Map{"data": dto.PauseMetricsResponse{
		Total:             m.Total,
		ByState:           m.ByState,
		AvgResponseDays:   m.AvgResponseDays,
		AvgResolutionDays: m.AvgResolutionDays,
		PausedRequests:    m.PausedRequests,
		MedianPausedDays:  m.MedianPausedDays,
		ThresholdDays:     m.ThresholdDays,
		LongPaused:        long,
		GeneratedAt:       m.GeneratedAt,
	}})
}

func requestDetail(detail *service.RequestDetail) dto.RequestDetailResponse {
	r := detail.Request
	attachments := make([]dto.AttachmentResponse, 0, len(detail.Attachments))
	for i := range detail.Attachments {
		attachments = append(attachments, attachmentResponse(&detail.Attachments[i]))
	}
	allowed := detail.Allowed
	if allowed == nil {
		allowed = []domain.RequestState{}
	}
	return dto.RequestDetailResponse{
		ID:                    r.ID,
		Territorial:           r.Territorial,
		RequesterName:         r.RequesterName,
		RequesterEmail:        r.RequesterEmail,
		RequestType:           r.RequestType,
		Area:                  r.Area,
		Process:               r.Process,
		Priority:              r.Priority,
		Description:           r.Description,
		DueDate:               r.DueDate,
		State:                 r.State,
		AllowedStates:         allowed,
		AssigneeName:          r.AssigneeName,
		AssigneeEmail:         r.AssigneeEmail,
		AdminComments:         r.AdminComments,
		History:               historyResponses(detail),
		HistoryText:           detail.HistoryText,
		PausedAccumulatedDays: r.PausedAccumulatedDays,
		PauseStartedAt:        r.PauseStartedAt,
		LivePausedDays:        detail.LivePausedDays,
		CreatedAt:             r.CreatedAt,
		UpdatedAt:             r.UpdatedAt,
		RespondedAt:           r.RespondedAt,
		CompletedAt:           r.CompletedAt,
		ResponseDays:          r.ResponseDays,
		ResolutionDays:        r.ResolutionDays,
		Attachments:           attachments,
		Version:               r.Version,
	}
}

func attachmentResponse(a *domain.Attachment) dto.AttachmentResponse {
	return dto.AttachmentResponse{
		ID:         a.ID,
		FileName:   a.FileName,
		MimeType:   a.MimeType,
		SizeBytes:  a.SizeBytes,
		UploadedBy: a.UploadedBy,
		CreatedAt:  a.CreatedAt,
	}
}
