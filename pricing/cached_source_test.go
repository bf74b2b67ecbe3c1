package pricing

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/amirphl/staybook/models"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCachedSource(t *testing.T, inner DataSource) (*CachedSource, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rc.Close() })
	return NewCachedSource(inner, rc, "staybook:", time.Minute, nil), mr
}

func TestCachedSource(t *testing.T) {
	ctx := context.Background()

	t.Run("ReadThroughAndHit", func(t *testing.T) {
		property := newProperty("100")
		property.CommissionRate = decimal.NewNullDecimal(dec("0.12"))
		inner := &fakeSource{
			property: property,
			seasons:  []*models.SeasonalPrice{{ID: 1, StartDate: day("2026-11-01"), EndDate: day("2026-11-30"), PricePerNight: dec("80.5")}},
			rules:    []*models.PricingRule{lengthRule(1, 3, "10", "weekly")},
		}
		src, mr := newCachedSource(t, inner)

		got, err := src.PropertyProfile(ctx, property.UUID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.True(t, mr.Exists("staybook:pricing:property:"+property.UUID.String()))

		seasons, err := src.SeasonalPrices(ctx, property.ID)
		require.NoError(t, err)
		require.Len(t, seasons, 1)

		rules, err := src.ActiveRules(ctx, property.ID)
		require.NoError(t, err)
		require.Len(t, rules, 1)

		callsAfterFirstRead := inner.calls.Load()

		cachedProperty, err := src.PropertyProfile(ctx, property.UUID)
		require.NoError(t, err)
		assert.True(t, cachedProperty.Price.Equal(property.Price))
		assert.True(t, cachedProperty.CommissionRate.Valid)
		assert.True(t, cachedProperty.CommissionRate.Decimal.Equal(dec("0.12")))

		cachedSeasons, err := src.SeasonalPrices(ctx, property.ID)
		require.NoError(t, err)
		require.Len(t, cachedSeasons, 1)
		assert.True(t, cachedSeasons[0].PricePerNight.Equal(dec("80.5")))
		assert.True(t, cachedSeasons[0].Contains(day("2026-11-15")))

		cachedRules, err := src.ActiveRules(ctx, property.ID)
		require.NoError(t, err)
		cond, err := cachedRules[0].Condition()
		require.NoError(t, err)
		assert.Equal(t, models.LengthOfStayCondition{MinNights: 3, Label: "weekly"}, cond)

		assert.Equal(t, callsAfterFirstRead, inner.calls.Load())
	})

	t.Run("AbsentFeeScheduleIsCached", func(t *testing.T) {
		property := newProperty("100")
		inner := &fakeSource{property: property}
		src, mr := newCachedSource(t, inner)

		fees, err := src.FeeSchedule(ctx, property.ID)
		require.NoError(t, err)
		assert.Nil(t, fees)

		raw, err := mr.Get("staybook:pricing:fees:7")
		require.NoError(t, err)
		assert.Equal(t, "null", raw)

		fees, err = src.FeeSchedule(ctx, property.ID)
		require.NoError(t, err)
		assert.Nil(t, fees)
		assert.Equal(t, int32(1), inner.calls.Load())
	})

	t.Run("MissingPropertyIsNotCached", func(t *testing.T) {
		inner := &fakeSource{}
		src, mr := newCachedSource(t, inner)
		id := uuid.New()

		got, err := src.PropertyProfile(ctx, id)
		require.NoError(t, err)
		assert.Nil(t, got)
		assert.False(t, mr.Exists("staybook:pricing:property:"+id.String()))
	})

	t.Run("RedisDownFallsThrough", func(t *testing.T) {
		property := newProperty("100")
		inner := &fakeSource{property: property}
		src, mr := newCachedSource(t, inner)
		mr.Close()

		got, err := src.PropertyProfile(ctx, property.UUID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, property.UUID, got.UUID)
	})

	t.Run("Invalidate", func(t *testing.T) {
		property := newProperty("100")
		inner := &fakeSource{property: property, fees: &models.PropertyFee{CleaningFee: dec("40")}}
		src, mr := newCachedSource(t, inner)

		_, err := src.PropertyProfile(ctx, property.UUID)
		require.NoError(t, err)
		_, err = src.FeeSchedule(ctx, property.ID)
		require.NoError(t, err)
		require.True(t, mr.Exists("staybook:pricing:fees:7"))

		require.NoError(t, src.Invalidate(ctx, property.UUID, property.ID))
		assert.False(t, mr.Exists("staybook:pricing:fees:7"))
		assert.False(t, mr.Exists("staybook:pricing:property:"+property.UUID.String()))
	})

	t.Run("EnginePricesThroughCache", func(t *testing.T) {
		property := newProperty("100")
		src, _ := newCachedSource(t, &fakeSource{property: property, rules: []*models.PricingRule{lengthRule(1, 3, "10", "weekly")}})
		engine := newTestEngine(src)

		first, err := engine.Price(ctx, stay(property, "2026-11-02", "2026-11-06", 2, 0))
		require.NoError(t, err)
		second, err := engine.Price(ctx, stay(property, "2026-11-02", "2026-11-06", 2, 0))
		require.NoError(t, err)
		assert.True(t, first.Total.Equal(second.Total))
		assertDecimal(t, "414", second.Total, "total")
	})
}
