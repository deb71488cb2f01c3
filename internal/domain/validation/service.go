package validation

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/numcheck/numcheck-api/internal/domain/credit"
	"github.com/numcheck/numcheck-api/internal/domain/settings"
	"github.com/numcheck/numcheck-api/internal/pkg/metrics"
	"github.com/numcheck/numcheck-api/internal/pkg/provider"
)

// SettingsReader exposes the platform toggles to the validation flow.
type SettingsReader interface {
	Get(ctx context.Context) (*settings.Settings, error)
}

// Lookuper resolves one phone number on one channel.
// *provider.Client satisfies this.
type Lookuper interface {
	Lookup(ctx context.Context, channel, phone string) (*provider.LookupResult, error)
}

// Service runs one validation: gate on platform settings, answer from
// cache when fresh, otherwise spend one credit and ask the provider.
// Provider failures refund the credit before the error surfaces.
type Service struct {
	settings SettingsReader
	credits  credit.Service
	lookup   Lookuper
	cache    *redis.Client
	cacheTTL time.Duration
}

func NewService(settingsSvc SettingsReader, credits credit.Service, lookup Lookuper, cache *redis.Client, cacheTTL time.Duration) *Service {
	if cacheTTL <= 0 {
		cacheTTL = 24 * time.Hour
	}
	return &Service{
		settings: settingsSvc,
		credits:  credits,
		lookup:   lookup,
		cache:    cache,
		cacheTTL: cacheTTL,
	}
}

func cacheKey(channel, phone string) string {
	return "validation:" + channel + ":" + phone
}

// Validate checks one phone number on one channel for the given user.
func (s *Service) Validate(ctx context.Context, userID uuid.UUID, channel, phone string) (*Result, error) {
	current, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	if !current.ChannelEnabled(channel) {
		return nil, ErrChannelDisabled
	}

	if cached := s.fromCache(ctx, channel, phone); cached != nil {
		metrics.ValidationLookups.WithLabelValues(channel, "cache").Inc()

		balance, err := s.credits.GetBalance(ctx, userID)
		if err != nil {
			return nil, err
		}
		cached.Cached = true
		cached.Balance = balance
		return cached, nil
	}

	balance, err := s.credits.Adjust(ctx, userID, credit.Adjustment{
		Action:            credit.ActionSubtract,
		Amount:            1,
		Reason:            fmt.Sprintf("%s validation of %s", channel, phone),
		RelatedEntityType: "validation",
		RelatedEntityID:   phone,
	}, credit.Actor{Kind: credit.ActorUser, ID: userID})
	if err != nil {
		return nil, err
	}

	looked, err := s.lookup.Lookup(ctx, channel, phone)
	if err != nil {
		s.refund(ctx, userID, channel, phone)
		log.Error().Err(err).Str("channel", channel).Msg("provider lookup failed")
		return nil, ErrProviderUnavailable
	}

	metrics.ValidationLookups.WithLabelValues(channel, "provider").Inc()

	result := &Result{
		PhoneNumber: looked.PhoneNumber,
		Channel:     looked.Channel,
		Registered:  looked.Registered,
		DisplayName: looked.DisplayName,
		LastSeen:    looked.LastSeen,
		CheckedAt:   time.Now().UTC(),
		Balance:     balance,
	}

	s.fillCache(ctx, channel, phone, result)
	return result, nil
}

func (s *Service) refund(ctx context.Context, userID uuid.UUID, channel, phone string) {
	_, err := s.credits.Adjust(ctx, userID, credit.Adjustment{
		Action:            credit.ActionAdd,
		Amount:            1,
		Reason:            fmt.Sprintf("refund: %s validation of %s failed", channel, phone),
		RelatedEntityType: "validation",
		RelatedEntityID:   phone,
	}, credit.Actor{Kind: credit.ActorSystem})
	if err != nil {
		log.Error().Err(err).
			Str("user_id", userID.String()).
			Str("phone", phone).
			Msg("validation refund failed")
	}
}

func (s *Service) fromCache(ctx context.Context, channel, phone string) *Result {
	if s.cache == nil {
		return nil
	}

	raw, err := s.cache.Get(ctx, cacheKey(channel, phone)).Bytes()
	if err != nil {
		return nil
	}

	var result Result
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil
	}
	return &result
}

func (s *Service) fillCache(ctx context.Context, channel, phone string, result *Result) {
	if s.cache == nil {
		return
	}

	raw, err := json.Marshal(result)
	if err != nil {
		return
	}

	if err := s.cache.Set(ctx, cacheKey(channel, phone), raw, s.cacheTTL).Err(); err != nil {
		log.Warn().Err(err).Msg("validation cache write failed")
	}
}
