package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/solicitudes-service/internal/api/dto"
	"github.com/spec-kit/solicitudes-service/internal/service"
)

// RequestsHandler serves the public submission and tracking endpoints.
type RequestsHandler struct {
	service *service.RequestService
}

// NewRequestsHandler constructs handler.
func NewRequestsHandler(requestService *service.RequestService) *RequestsHandler {
	return &RequestsHandler{service: requestService}
}

// CreateRequest POST /requests.
func (h *RequestsHandler) CreateRequest(c *fiber.Ctx) error {
	var req dto.CreateRequestRequest
	if err := BindAndValidate(c, &req); err != nil {
		return err
	}
	created, err := h.service.CreateRequest(c.UserContext(), service.RequestCreateInput{
		Territorial:    req.Territorial,
		RequesterName:  req.RequesterName,
		RequesterEmail: req.RequesterEmail,
		RequestType:    req.RequestType,
		Area:           req.Area,
		Process:        req.Process,
		Priority:       req.Priority,
		Description:    req.Description,
		DueDate:        req.DueDate,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": fiber.Map{
		"id":         created.ID,
		"state":      created.State,
		"created_at": created.CreatedAt,
	}})
}

// GetRequest GET /requests/:id.
func (h *RequestsHandler) GetRequest(c *fiber.Ctx) error {
	detail, err := h.service.GetRequest(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	r := detail.Request
	return c.JSON(fiber.Map{"data": dto.PublicRequestResponse{
		ID:          r.ID,
		Area:        r.Area,
		Process:     r.Process,
		RequestType: r.RequestType,
		State:       r.State,
		Priority:    r.Priority,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
		CompletedAt: r.CompletedAt,
		History:     historyResponses(detail),
		HistoryText: detail.HistoryText,
	}})
}

func historyResponses(detail *service.RequestDetail) []dto.HistoryEntryResponse {
	resp := make([]dto.HistoryEntryResponse, 0, len(detail.History))
	for _, e := range detail.History {
		resp = append(resp, dto.HistoryEntryResponse{State: e.State, At: e.At, Actor: e.Actor, Note: e.Note})
	}
	return resp
}
