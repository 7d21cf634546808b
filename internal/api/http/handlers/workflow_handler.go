package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/solicitudes-service/internal/workflow"
)

// WorkflowHandler publishes the state machine.
type WorkflowHandler struct{}

// NewWorkflowHandler constructs handler.
func NewWorkflowHandler() *WorkflowHandler {
	return &WorkflowHandler{}
}

// States GET /workflow/states.
func (h *WorkflowHandler) States(c *fiber.Ctx) error {
	items := make([]fiber.Map, 0, len(workflow.States()))
	for _, s := range workflow.States() {
		items = append(items, fiber.Map{
			"state":       s,
			"allowed":     workflow.AllowedSuccessors(s),
			"terminal":    workflow.IsTerminal(s),
			"description": workflow.Describe(s),
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

// Diagram GET /workflow/diagram, as Mermaid text.
func (h *WorkflowHandler) Diagram(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	return c.SendString(workflow.Diagram())
}
