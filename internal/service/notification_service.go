package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/solicitudes-service/internal/config"
	"github.com/spec-kit/solicitudes-service/internal/domain"
	"github.com/spec-kit/solicitudes-service/internal/events"
	"github.com/spec-kit/solicitudes-service/internal/notify"
	"github.com/spec-kit/solicitudes-service/internal/observability"
)

// NotificationService turns domain events into stakeholder messages.
// Delivery is best effort: failures are logged and counted, and the event
// handler reports them to the dispatcher without affecting the request.
type NotificationService struct {
	dispatcher events.Dispatcher
	sender     notify.Sender
	routing    *config.Routing
	admins     AdminDirectory
	metrics    *observability.Metrics
	logger     *zap.Logger
	from       string
}

// AdminDirectory lists the administrators of a process.
type AdminDirectory interface {
	ListByProcess(ctx context.Context, process string) ([]domain.Admin, error)
}

// NewNotificationService creates the service. admins may be nil, in which
// case only the routing file decides who owns a process.
func NewNotificationService(dispatcher events.Dispatcher, sender notify.Sender, routing *config.Routing, admins AdminDirectory, cfg config.NotificationConfig, metrics *observability.Metrics, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		sender:     sender,
		routing:    routing,
		admins:     admins,
		metrics:    metrics,
		logger:     logger,
		from:       cfg.EmailFrom,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventRequestCreated, n.handleRequestCreated)
	n.dispatcher.Subscribe(events.EventRequestUpdated, n.handleRequestUpdated)
	n.dispatcher.Subscribe(events.EventRequestPauseOverdue, n.handlePauseOverdue)
}

// Owners returns the routing mailboxes for area and process plus the
// active administrators of the process, without duplicates.
func (n *NotificationService) Owners(ctx context.Context, area, process string) []domain.Recipient {
	var out []domain.Recipient
	seen := map[string]bool{}
	add := func(name, email string) {
		key := strings.ToLower(strings.TrimSpace(email))
		if key == "" || seen[key] {
			return
		}
		seen[key] = true
		out = append(out, domain.Recipient{Name: name, Email: key})
	}
	for _, e := range n.routing.Owners(area, process) {
		add("", e)
	}
	if n.admins == nil {
		return out
	}
	admins, err := n.admins.ListByProcess(ctx, process)
	if err != nil {
		n.logger.Warn("listing process admins failed", zap.String("process", process), zap.Error(err))
		return out
	}
	for _, a := range admins {
		if a.Active {
			add(a.Name, a.Email)
		}
	}
	return out
}

func (n *NotificationService) handleRequestCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.RequestCreatedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
	}
	owners := n.send(ctx, event, n.Owners(ctx, payload.Area, payload.Process),
		fmt.Sprintf("Nueva Solicitud - %s (ID: %s)", payload.Area, event.RequestID),
		fmt.Sprintf("%s registró una solicitud de %s para el proceso %s.\n\n%s",
			payload.RequesterName, payload.RequestType, payload.Process, payload.Description))
	confirmation := n.send(ctx, event,
		[]domain.Recipient{{Name: payload.RequesterName, Email: payload.RequesterEmail}},
		fmt.Sprintf("Confirmación de Solicitud - ID: %s", event.RequestID),
		fmt.Sprintf("Su solicitud %s fue recibida y asignada al proceso %s. Puede consultar su estado con este ID.",
			event.RequestID, payload.Process))
	return errors.Join(owners, confirmation)
}

func (n *NotificationService) handleRequestUpdated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.RequestUpdatedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
	}
	if len(payload.Recipients) == 0 || payload.Changes.IsEmpty() {
		return nil
	}
	return n.send(ctx, event, payload.Recipients,
		fmt.Sprintf("Actualización de Solicitud - ID: %s", event.RequestID),
		DescribeChanges(payload.Changes, event.Actor))
}

func (n *NotificationService) handlePauseOverdue(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.RequestPauseOverduePayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
	}
	to := []domain.Recipient{payload.Assignee}
	if strings.TrimSpace(payload.Assignee.Email) == "" {
		to = n.Owners(ctx, payload.Area, payload.Process)
	}
	return n.send(ctx, event, to,
		fmt.Sprintf("Solicitud %s pausada hace %.0f días", event.RequestID, payload.PausedDays),
		fmt.Sprintf("La solicitud %s lleva %.0f días en estado Incompleta. Revise si ya puede continuar.",
			event.RequestID, payload.PausedDays))
}

func (n *NotificationService) send(ctx context.Context, event events.Event, to []domain.Recipient, subject, body string) error {
	to = withEmail(to)
	if len(to) == 0 || n.sender == nil {
		return nil
	}
	err := n.sender.Send(ctx, notify.Message{
		EventType: string(event.Type),
		RequestID: event.RequestID,
		From:      n.from,
		To:        to,
		Subject:   subject,
		Body:      body,
	})
	if err != nil {
		n.metrics.RecordNotificationFailure(string(event.Type))
		n.logger.Warn("notification failed",
			zap.String("event_type", string(event.Type)),
			zap.String("request_id", event.RequestID),
			zap.Int("recipients", len(to)),
			zap.Error(err))
	}
	return err
}

// DescribeChanges renders a change-set as plain text for notifications.
func DescribeChanges(c domain.ChangeSet, actor string) string {
	var lines []string
	if c.State != nil {
		lines = append(lines, fmt.Sprintf("Estado: %s → %s", c.State.Old, c.State.New))
	}
	if c.Priority != nil {
		lines = append(lines, fmt.Sprintf("Prioridad: %s → %s", c.Priority.Old, c.Priority.New))
	}
	if c.Assignee != nil {
		lines = append(lines, fmt.Sprintf("Responsable: %s → %s", orDash(c.Assignee.Old), orDash(c.Assignee.New)))
	}
	if c.Comment != "" {
		lines = append(lines, "Comentario: "+c.Comment)
	}
	if len(c.Attachments) > 0 {
		lines = append(lines, "Archivos adjuntos: "+strings.Join(c.Attachments, ", "))
	}
	if actor != "" {
		lines = append(lines, "Actualizado por: "+actor)
	}
	return strings.Join(lines, "\n")
}

func withEmail(in []domain.Recipient) []domain.Recipient {
	out := in[:0:0]
	for _, r := range in {
		if strings.TrimSpace(r.Email) != "" {
			out = append(out, r)
		}
	}
	return out
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
