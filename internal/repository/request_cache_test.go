package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/solicitudes-service/internal/domain"
)

type mockRequestRepository struct {
	mock.Mock
}

func (m *mockRequestRepository) Create(ctx context.Context, req *domain.Request) error {
	return m.Called(ctx, req).Error(0)
}

func (m *mockRequestRepository) GetByID(ctx context.Context, id string) (*domain.Request, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Request), args.Error(1)
}

func (m *mockRequestRepository) Update(ctx context.Context, req *domain.Request) error {
	return m.Called(ctx, req).Error(0)
}

func (m *mockRequestRepository) List(ctx context.Context, filter RequestFilter) ([]domain.Request, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Request), args.Error(1)
}

func (m *mockRequestRepository) Count(ctx context.Context, filter RequestFilter) (int, error) {
	args := m.Called(ctx, filter)
	return args.Int(0), args.Error(1)
}

func (m *mockRequestRepository) All(ctx context.Context, filter RequestFilter) ([]domain.Request, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Request), args.Error(1)
}

func (m *mockRequestRepository) MarkPauseReminded(ctx context.Context, id string, at time.Time) error {
	return m.Called(ctx, id, at).Error(0)
}

func newCacheFixture(t *testing.T) (*miniredis.Miniredis, *mockRequestRepository, *CachedRequestStore) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	repo := &mockRequestRepository{}
	return mr, repo, NewCachedRequestStore(repo, rdb, time.Minute, nil)
}

func TestCachedRequestStoreReadThrough(t *testing.T) {
	mr, repo, store := newCacheFixture(t)
	ctx := context.Background()
	req := &domain.Request{ID: "AB12CD34", State: domain.StateInProgress, Version: 3}
	repo.On("GetByID", ctx, "AB12CD34").Return(req, nil).Once()

	first, err := store.GetByID(ctx, "AB12CD34")
	require.NoError(t, err)
	assert.True(t, mr.Exists(RequestCacheKey("AB12CD34")))

	second, err := store.GetByID(ctx, "AB12CD34")
	require.NoError(t, err)
	assert.Equal(t, first.State, second.State)
	assert.Equal(t, int64(3), second.Version)
	repo.AssertNumberOfCalls(t, "GetByID", 1)
}

func TestCachedRequestStoreUpdateInvalidates(t *testing.T) {
	mr, repo, store := newCacheFixture(t)
	ctx := context.Background()
	req := &domain.Request{ID: "AB12CD34", State: domain.StateAssigned}
	repo.On("GetByID", ctx, "AB12CD34").Return(req, nil)
	repo.On("Update", ctx, mock.AnythingOfType("*domain.Request")).Return(nil)

	_, err := store.GetByID(ctx, "AB12CD34")
	require.NoError(t, err)
	require.True(t, mr.Exists(RequestCacheKey("AB12CD34")))

	require.NoError(t, store.Update(ctx, req))
	assert.False(t, mr.Exists(RequestCacheKey("AB12CD34")))
}

func TestCachedRequestStoreConflictInvalidates(t *testing.T) {
	mr, repo, store := newCacheFixture(t)
	ctx := context.Background()
	require.NoError(t, mr.Set(RequestCacheKey("X"), `{"ID":"X"}`))
	repo.On("Update", ctx, mock.Anything).Return(ErrVersionConflict)

	err := store.Update(ctx, &domain.Request{ID: "X"})
	assert.ErrorIs(t, err, ErrVersionConflict)
	assert.False(t, mr.Exists(RequestCacheKey("X")))
}

func TestCachedRequestStorePauseReminderInvalidates(t *testing.T) {
	mr, repo, store := newCacheFixture(t)
	ctx := context.Background()
	at := time.Date(2024, 4, 9, 12, 0, 0, 0, time.UTC)
	require.NoError(t, mr.Set(RequestCacheKey("X"), `{"ID":"X"}`))
	repo.On("MarkPauseReminded", ctx, "X", at).Return(nil)

	require.NoError(t, store.MarkPauseReminded(ctx, "X", at))
	assert.False(t, mr.Exists(RequestCacheKey("X")))
	repo.AssertExpectations(t)
}

func TestCachedRequestStoreSurvivesRedisOutage(t *testing.T) {
	mr, repo, store := newCacheFixture(t)
	ctx := context.Background()
	req := &domain.Request{ID: "AB12CD34"}
	repo.On("GetByID", ctx, "AB12CD34").Return(req, nil)
	mr.Close()

	got, err := store.GetByID(ctx, "AB12CD34")
	require.NoError(t, err)
	assert.Equal(t, "AB12CD34", got.ID)
}

func TestCachedRequestStoreDisabled(t *testing.T) {
	repo := &mockRequestRepository{}
	store := NewCachedRequestStore(repo, nil, time.Minute, nil)
	repo.On("GetByID", mock.Anything, "A").Return(&domain.Request{ID: "A"}, nil).Twice()

	_, _ = store.GetByID(context.Background(), "A")
	_, _ = store.GetByID(context.Background(), "A")
	repo.AssertExpectations(t)
}
