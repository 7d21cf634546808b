package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/solicitudes-service/internal/domain"
)

const requestCachePrefix = "solicitudes:request:"

// CachedRequestStore is a read-through Redis cache in front of a
// RequestRepository. Cache errors never fail a call; the database stays the
// source of truth.
type CachedRequestStore struct {
	RequestRepository
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedRequestStore wraps next. A nil client or zero ttl disables caching.
func NewCachedRequestStore(next RequestRepository, client *redis.Client, ttl time.Duration, logger *zap.Logger) *CachedRequestStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedRequestStore{RequestRepository: next, client: client, ttl: ttl, logger: logger}
}

// RequestCacheKey returns the Redis key for id.
func RequestCacheKey(id string) string {
	return requestCachePrefix + id
}

func (c *CachedRequestStore) enabled() bool {
	return c.client != nil && c.ttl > 0
}

func (c *CachedRequestStore) GetByID(ctx context.Context, id string) (*domain.Request, error) {
	if !c.enabled() {
		return c.RequestRepository.GetByID(ctx, id)
	}

	raw, err := c.client.Get(ctx, RequestCacheKey(id)).Bytes()
	switch {
	case err == nil:
		var req domain.Request
		if jsonErr := json.Unmarshal(raw, &req); jsonErr == nil {
			return &req, nil
		}
		c.logger.Warn("discarding undecodable cached request", zap.String("request_id", id))
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("request cache read failed", zap.String("request_id", id), zap.Error(err))
	}

	req, err := c.RequestRepository.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.store(ctx, req)
	return req, nil
}

func (c *CachedRequestStore) Update(ctx context.Context, req *domain.Request) error {
	if err := c.RequestRepository.Update(ctx, req); err != nil {
		if errors.Is(err, ErrVersionConflict) {
			c.invalidate(ctx, req.ID)
		}
		return err
	}
	c.invalidate(ctx, req.ID)
	return nil
}

func (c *CachedRequestStore) MarkPauseReminded(ctx context.Context, id string, at time.Time) error {
	if err := c.RequestRepository.MarkPauseReminded(ctx, id, at); err != nil {
		return err
	}
	c.invalidate(ctx, id)
	return nil
}

func (c *CachedRequestStore) store(ctx context.Context, req *domain.Request) {
	payload, err := json.Marshal(req)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, RequestCacheKey(req.ID), payload, c.ttl).Err(); err != nil {
		c.logger.Warn("request cache write failed", zap.String("request_id", req.ID), zap.Error(err))
	}
}

func (c *CachedRequestStore) invalidate(ctx context.Context, id string) {
	if !c.enabled() {
		return
	}
	if err := c.client.Del(ctx, RequestCacheKey(id)).Err(); err != nil {
		c.logger.Warn("request cache invalidation failed", zap.String("request_id", id), zap.Error(err))
	}
}
