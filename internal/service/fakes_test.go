package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/mock"

	"github.com/spec-kit/solicitudes-service/internal/domain"
	"github.com/spec-kit/solicitudes-service/internal/notify"
	"github.com/spec-kit/solicitudes-service/internal/repository"
)

// memoryRequests is an in-memory RequestRepository with the same version
// semantics as the Postgres one.
type memoryRequests struct {
	mu       sync.Mutex
	items    map[string]domain.Request
	conflict bool
}

func newMemoryRequests() *memoryRequests {
	return &memoryRequests{items: map[string]domain.Request{}}
}

func (m *memoryRequests) Create(_ context.Context, req *domain.Request) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	req.Version = 1
	m.items[req.ID] = *req
	return nil
}

func (m *memoryRequests) GetByID(_ context.Context, id string) (*domain.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.items[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &req, nil
}

func (m *memoryRequests) Update(_ context.Context, req *domain.Request) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.items[req.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	if m.conflict || stored.Version != req.Version {
		return repository.ErrVersionConflict
	}
	req.Version++
	m.items[req.ID] = *req
	return nil
}

func (m *memoryRequests) List(ctx context.Context, filter repository.RequestFilter) ([]domain.Request, error) {
	all, _ := m.All(ctx, filter)
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	if filter.Offset >= len(all) {
		return []domain.Request{}, nil
	}
	end := filter.Offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[filter.Offset:end], nil
}

func (m *memoryRequests) Count(ctx context.Context, filter repository.RequestFilter) (int, error) {
	all, _ := m.All(ctx, filter)
	return len(all), nil
}

func (m *memoryRequests) All(_ context.Context, filter repository.RequestFilter) ([]domain.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Request{}
	for _, r := range m.items {
		if filter.Process != nil && r.Process != *filter.Process {
			continue
		}
		if len(filter.States) > 0 && !containsState(filter.States, r.State) {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *memoryRequests) MarkPauseReminded(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.items[id]
	if !ok {
		return pgx.ErrNoRows
	}
	req.PauseRemindedAt = &at
	m.items[id] = req
	return nil
}

func containsState(list []domain.RequestState, s domain.RequestState) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

type memoryAttachments struct {
	items []domain.Attachment
}

func (m *memoryAttachments) Create(_ context.Context, a *domain.Attachment) error {
	a.ID = gofakeit.UUID()
	m.items = append(m.items, *a)
	return nil
}

func (m *memoryAttachments) Delete(_ context.Context, id string) error {
	for i, a := range m.items {
		if a.ID == id {
			m.items = append(m.items[:i], m.items[i+1:]...)
			break
		}
	}
	return nil
}

func (m *memoryAttachments) ListByRequest(_ context.Context, requestID string) ([]domain.Attachment, error) {
	out := []domain.Attachment{}
	for _, a := range m.items {
		if a.RequestID == requestID {
			out = append(out, a)
		}
	}
	return out, nil
}

type memoryFiles struct {
	max   int64
	saved map[string][]byte
}

func (f *memoryFiles) MaxSize() int64 { return f.max }

func (f *memoryFiles) Save(_ context.Context, requestID, fileName string, r io.Reader) (string, int64, error) {
	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(r, f.max+1))
	if err != nil {
		return "", 0, err
	}
	if n > f.max {
		return "", 0, errors.New("too large")
	}
	key := requestID + "/" + fileName
	if f.saved == nil {
		f.saved = map[string][]byte{}
	}
	f.saved[key] = buf.Bytes()
	return key, n, nil
}

func (f *memoryFiles) Remove(key string) error {
	delete(f.saved, key)
	return nil
}

func (f *memoryFiles) Open(key string) (io.ReadCloser, error) {
	data, ok := f.saved[key]
	if !ok {
		return nil, errors.New("missing")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

type recordingSender struct {
	mu   sync.Mutex
	sent []notify.Message
	err  error
}

func (s *recordingSender) Send(_ context.Context, msg notify.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

type mockAdminRepository struct {
	mock.Mock
}

func (m *mockAdminRepository) Create(ctx context.Context, admin *domain.Admin) error {
	return m.Called(ctx, admin).Error(0)
}

func (m *mockAdminRepository) GetByID(ctx context.Context, id string) (*domain.Admin, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Admin), args.Error(1)
}

func (m *mockAdminRepository) GetByUsername(ctx context.Context, username string) (*domain.Admin, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Admin), args.Error(1)
}

func (m *mockAdminRepository) ListByProcess(ctx context.Context, process string) ([]domain.Admin, error) {
	args := m.Called(ctx, process)
	return args.Get(0).([]domain.Admin), args.Error(1)
}

// clock is a settable time source.
type clock struct {
	now time.Time
}

func (c *clock) Now() time.Time { return c.now }

func (c *clock) advanceDays(d int) {
	c.now = c.now.Add(time.Duration(d) * 24 * time.Hour)
}

func fakeCreateInput(process string) RequestCreateInput {
	return RequestCreateInput{
		Territorial:    gofakeit.City(),
		RequesterName:  gofakeit.Name(),
		RequesterEmail: gofakeit.Email(),
		RequestType:    "Soporte",
		Area:           "Subdirección Administrativa y Financiera",
		Process:        process,
		Description:    gofakeit.Sentence(8),
	}
}
