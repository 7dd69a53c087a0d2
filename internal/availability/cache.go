package availability

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"montafix/internal/models"
)

const calendarCacheKey = "availability:calendar"

// CalendarStore is the persistent source of availability data.
type CalendarStore interface {
	GetCalendar(ctx context.Context) (models.Calendar, error)
}

// Source serves the availability calendar, optionally through a Redis
// read-through cache in front of the store.
type Source struct {
	store    CalendarStore
	redis    *redis.Client
	cacheTTL time.Duration
	logger   *zerolog.Logger
}

// NewSource constructs a Source backed by the given store.
func NewSource(store CalendarStore, logger *zerolog.Logger) *Source {
	return &Source{store: store, logger: logger}
}

// UseRedisCache configures optional Redis caching for calendar reads.
func (s *Source) UseRedisCache(redisClient *redis.Client, ttl time.Duration) {
	s.redis = redisClient
	s.cacheTTL = ttl
}

// GetCalendar returns the full availability calendar. Cache misses and
// Redis errors fall through to the store.
func (s *Source) GetCalendar(ctx context.Context) (models.Calendar, error) {
	var cal models.Calendar
	if s.readCache(ctx, calendarCacheKey, &cal) {
		return cal, nil
	}

	cal, err := s.store.GetCalendar(ctx)
	if err != nil {
		return nil, err
	}
	s.writeCache(ctx, calendarCacheKey, cal)
	return cal, nil
}

// Invalidate drops the cached calendar. Call after any availability
// mutation so the next read hits the store.
func (s *Source) Invalidate(ctx context.Context) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Del(ctx, calendarCacheKey).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to invalidate calendar cache")
	}
}

func (s *Source) readCache(ctx context.Context, key string, out any) bool {
	if s.redis == nil || s.cacheTTL <= 0 {
		return false
	}
	val, err := s.redis.Get(ctx, key).Result()
	if err != nil {
		return false
	}
	if err := json.Unmarshal([]byte(val), out); err != nil {
		return false
	}
	return true
}

func (s *Source) writeCache(ctx context.Context, key string, val any) {
	if s.redis == nil || s.cacheTTL <= 0 {
		return
	}
	data, err := json.Marshal(val)
	if err != nil {
		return
	}
	if err := s.redis.Set(ctx, key, data, s.cacheTTL).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to write calendar cache")
	}
}
