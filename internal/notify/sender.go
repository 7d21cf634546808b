// Package notify delivers stakeholder notifications. Templates and mail
// transport are external; senders either log the message or hand it to a
// webhook that owns delivery.
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/solicitudes-service/internal/config"
	"github.com/spec-kit/solicitudes-service/internal/domain"
)

// Message is one notification addressed to one or more recipients.
type Message struct {
	EventType string             `json:"event_type"`
	RequestID string             `json:"request_id"`
	From      string             `json:"from"`
	To        []domain.Recipient `json:"to"`
	Subject   string             `json:"subject"`
	Body      string             `json:"body"`
}

// Sender delivers a message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// NewSender returns a webhook sender when a URL is configured and a log
// sender otherwise.
func NewSender(cfg config.NotificationConfig, logger *zap.Logger) Sender {
	if strings.TrimSpace(cfg.WebhookURL) != "" {
		return NewWebhookSender(cfg.WebhookURL, 10*time.Second)
	}
	return NewLogSender(logger)
}

// LogSender writes messages to the log. Used in development.
type LogSender struct {
	logger *zap.Logger
}

func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, msg Message) error {
	emails := make([]string, len(msg.To))
	for i, r := range msg.To {
		emails[i] = r.Email
	}
	s.logger.Info("notification",
		zap.String("event_type", msg.EventType),
		zap.String("request_id", msg.RequestID),
		zap.Strings("to", emails),
		zap.String("subject", msg.Subject),
	)
	return nil
}

// WebhookSender POSTs messages as JSON.
type WebhookSender struct {
	url     string
	timeout time.Duration
}

func NewWebhookSender(url string, timeout time.Duration) *WebhookSender {
	return &WebhookSender{url: url, timeout: timeout}
}

func (s *WebhookSender) Send(ctx context.Context, msg Message) error {
	timeout := s.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	if timeout <= 0 {
		return context.DeadlineExceeded
	}

	code, body, errs := fiber.Post(s.url).Timeout(timeout).JSON(msg).Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("webhook: %w", errs[0])
	}
	if code < 200 || code >= 300 {
		return fmt.Errorf("webhook: status %d: %s", code, truncate(string(body), 200))
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
