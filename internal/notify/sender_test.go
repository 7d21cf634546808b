package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/solicitudes-service/internal/config"
	"github.com/spec-kit/solicitudes-service/internal/domain"
)

func TestWebhookSenderPostsJSON(t *testing.T) {
	received := make(chan Message, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var msg Message
		_ = json.NewDecoder(r.Body).Decode(&msg)
		received <- msg
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	sender := NewWebhookSender(srv.URL, time.Second)
	err := sender.Send(context.Background(), Message{
		EventType: "request_updated",
		RequestID: "AB12CD34",
		To:        []domain.Recipient{{Email: "ana@example.org"}},
	})
	require.NoError(t, err)

	msg := <-received
	assert.Equal(t, "AB12CD34", msg.RequestID)
	assert.Equal(t, "ana@example.org", msg.To[0].Email)
}

func TestWebhookSenderReportsFailureStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewWebhookSender(srv.URL, time.Second).Send(context.Background(), Message{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestWebhookSenderHonoursExpiredContext(t *testing.T) {
	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()
	err := NewWebhookSender("http://127.0.0.1:1", time.Second).Send(ctx, Message{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewSenderSelection(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	sender := NewSender(config.NotificationConfig{}, zap.New(core))
	require.IsType(t, &LogSender{}, sender)
	require.NoError(t, sender.Send(context.Background(), Message{EventType: "request_created", To: []domain.Recipient{{Email: "x@example.org"}}}))
	assert.Equal(t, 1, logs.FilterMessage("notification").Len())

	assert.IsType(t, &WebhookSender{}, NewSender(config.NotificationConfig{WebhookURL: "http://hook"}, zap.NewNop()))
}
