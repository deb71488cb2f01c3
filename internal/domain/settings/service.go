package settings

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	cacheKey = "platform:settings"
	cacheTTL = 5 * time.Minute
)

// Service reads and updates the platform settings row, keeping a
// short-lived redis copy in front of postgres. The cache is optional:
// a nil redis client disables it.
type Service struct {
	repo  Repository
	cache *redis.Client
}

func NewService(repo Repository, cache *redis.Client) *Service {
	return &Service{repo: repo, cache: cache}
}

// Get returns the current settings, from cache when possible.
func (s *Service) Get(ctx context.Context) (*Settings, error) {
	if s.cache != nil {
		raw, err := s.cache.Get(ctx, cacheKey).Bytes()
		if err == nil {
			var cached Settings
			if err := json.Unmarshal(raw, &cached); err == nil {
				return &cached, nil
			}
		}
	}

	current, err := s.repo.Get(ctx)
	if err != nil {
		return nil, err
	}

	s.fillCache(ctx, current)
	return current, nil
}

// Update writes new toggle values with optimistic concurrency and
// refreshes the cache with the committed row.
func (s *Service) Update(ctx context.Context, upd Update, updatedBy uuid.UUID) (*Settings, error) {
	updated, err := s.repo.Update(ctx, upd, updatedBy)
	if err != nil {
		return nil, err
	}

	s.fillCache(ctx, updated)

	log.Info().
		Bool("whatsapp_enabled", updated.WhatsappEnabled).
		Bool("telegram_enabled", updated.TelegramEnabled).
		Int("version", updated.Version).
		Str("updated_by", updatedBy.String()).
		Msg("Platform settings updated")

	return updated, nil
}

func (s *Service) fillCache(ctx context.Context, current *Settings) {
	if s.cache == nil {
		return
	}

	raw, err := json.Marshal(current)
	if err != nil {
		return
	}

	if err := s.cache.Set(ctx, cacheKey, raw, cacheTTL).Err(); err != nil {
		log.Warn().Err(err).Msg("settings cache write failed")
	}
}
