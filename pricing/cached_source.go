package pricing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/amirphl/staybook/models"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	kindProperty = "property"
	kindSeasons  = "seasons"
	kindFees     = "fees"
	kindRules    = "rules"
)

// CachedSource fronts another DataSource with redis.
// Cache failures never fail a read; they fall through to the inner source.
type CachedSource struct {
	inner  DataSource
	rc     *redis.Client
	prefix string
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedSource wraps inner with a redis cache whose keys start with prefix
func NewCachedSource(inner DataSource, rc *redis.Client, prefix string, ttl time.Duration, logger *zap.Logger) *CachedSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedSource{
		inner:  inner,
		rc:     rc,
		prefix: prefix,
		ttl:    ttl,
		logger: logger,
	}
}

func (s *CachedSource) key(kind string, id any) string {
	return fmt.Sprintf("%spricing:%s:%v", s.prefix, kind, id)
}

func (s *CachedSource) PropertyProfile(ctx context.Context, propertyID uuid.UUID) (*models.Property, error) {
	// Missing properties are not cached so a newly created listing prices immediately
	return readThrough(ctx, s, kindProperty, s.key(kindProperty, propertyID), func(p *models.Property) bool { return p != nil },
		func(ctx context.Context) (*models.Property, error) { return s.inner.PropertyProfile(ctx, propertyID) })
}

func (s *CachedSource) SeasonalPrices(ctx context.Context, propertyID uint) ([]*models.SeasonalPrice, error) {
	return readThrough(ctx, s, kindSeasons, s.key(kindSeasons, propertyID), nil,
		func(ctx context.Context) ([]*models.SeasonalPrice, error) { return s.inner.SeasonalPrices(ctx, propertyID) })
}

func (s *CachedSource) FeeSchedule(ctx context.Context, propertyID uint) (*models.PropertyFee, error) {
	return readThrough(ctx, s, kindFees, s.key(kindFees, propertyID), nil,
		func(ctx context.Context) (*models.PropertyFee, error) { return s.inner.FeeSchedule(ctx, propertyID) })
}

func (s *CachedSource) ActiveRules(ctx context.Context, propertyID uint) ([]*models.PricingRule, error) {
	return readThrough(ctx, s, kindRules, s.key(kindRules, propertyID), nil,
		func(ctx context.Context) ([]*models.PricingRule, error) { return s.inner.ActiveRules(ctx, propertyID) })
}

// Invalidate drops every cached record of the property
func (s *CachedSource) Invalidate(ctx context.Context, propertyUUID uuid.UUID, propertyID uint) error {
	err := s.rc.Del(ctx,
		s.key(kindProperty, propertyUUID),
		s.key(kindSeasons, propertyID),
		s.key(kindFees, propertyID),
		s.key(kindRules, propertyID),
	).Err()
	if err != nil {
		return fmt.Errorf("failed to invalidate pricing cache for property %s: %w", propertyUUID, err)
	}
	return nil
}

// readThrough serves key from redis or loads it and writes it back.
// shouldCache may veto caching a loaded value; nil caches everything.
func readThrough[T any](
	ctx context.Context,
	s *CachedSource,
	kind, key string,
	shouldCache func(T) bool,
	load func(context.Context) (T, error),
) (T, error) {
	bs, err := s.rc.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var out T
		if uerr := json.Unmarshal(bs, &out); uerr == nil {
			cacheLookupsTotal.WithLabelValues(kind, "hit").Inc()
			return out, nil
		}
		s.logger.Warn("Discarding undecodable pricing cache entry", zap.String("key", key))
	case errors.Is(err, redis.Nil):
	default:
		cacheLookupsTotal.WithLabelValues(kind, "error").Inc()
		s.logger.Warn("Pricing cache read failed", zap.String("key", key), zap.Error(err))
	}
	cacheLookupsTotal.WithLabelValues(kind, "miss").Inc()

	out, err := load(ctx)
	if err != nil {
		return out, err
	}

	if shouldCache != nil && !shouldCache(out) {
		return out, nil
	}
	if bs, merr := json.Marshal(out); merr == nil {
		if serr := s.rc.Set(ctx, key, bs, s.ttl).Err(); serr != nil {
			s.logger.Warn("Pricing cache write failed", zap.String("key", key), zap.Error(serr))
		}
	}
	return out, nil
}
