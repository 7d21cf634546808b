package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishRunsEveryHandler(t *testing.T) {
	d := NewInMemoryDispatcher()
	var calls []string
	d.Subscribe(EventRequestUpdated, func(context.Context, Event) error {
		calls = append(calls, "first")
		return errors.New("smtp down")
	})
	d.Subscribe(EventRequestUpdated, func(context.Context, Event) error {
		calls = append(calls, "second")
		panic("boom")
	})
	d.Subscribe(EventRequestUpdated, func(context.Context, Event) error {
		calls = append(calls, "third")
		return nil
	})
	d.Subscribe(EventRequestCreated, func(context.Context, Event) error {
		calls = append(calls, "other")
		return nil
	})

	err := d.Publish(context.Background(), New(EventRequestUpdated, "AB12CD34", "Ana", time.Now(), nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "smtp down")
	assert.Contains(t, err.Error(), "panicked")
	assert.Equal(t, []string{"first", "second", "third"}, calls)
}

func TestPublishWithoutSubscribers(t *testing.T) {
	d := NewInMemoryDispatcher()
	assert.NoError(t, d.Publish(context.Background(), New(EventRequestPauseOverdue, "X", "", time.Now(), nil)))
}

func TestNewAssignsUniqueIDs(t *testing.T) {
	a := New(EventRequestCreated, "X", "", time.Now(), nil)
	b := New(EventRequestCreated, "X", "", time.Now(), nil)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, EventRequestCreated, a.Type)
}
