package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/amirphl/staybook/models"
	"github.com/amirphl/staybook/repository"
	testingutil "github.com/amirphl/staybook/testing"
	"github.com/amirphl/staybook/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(s string) time.Time {
	d, err := utils.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestPropertyRepository(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		repo := repository.NewPropertyRepository(testDB.DB)
		ctx := testingutil.CreateTestContext()

		property := &models.Property{
			Title:          "Lake House",
			Price:          decimal.RequireFromString("100"),
			CommissionRate: decimal.NewNullDecimal(decimal.RequireFromString("0.12")),
		}

		t.Run("Save", func(t *testing.T) {
			require.NoError(t, repo.Save(ctx, property))
			assert.NotZero(t, property.ID)
			assert.NotEqual(t, uuid.Nil, property.UUID)
		})

		t.Run("ByUUID", func(t *testing.T) {
			found, err := repo.ByUUID(ctx, property.UUID)
			require.NoError(t, err)
			require.NotNil(t, found)
			assert.Equal(t, property.ID, found.ID)
			assert.True(t, found.Price.Equal(decimal.RequireFromString("100")))
			assert.True(t, found.CommissionRate.Valid)
			assert.True(t, found.CommissionRate.Decimal.Equal(decimal.RequireFromString("0.12")))
		})

		t.Run("ByUUIDNotFound", func(t *testing.T) {
			found, err := repo.ByUUID(ctx, uuid.New())
			assert.NoError(t, err)
			assert.Nil(t, found)
		})

		t.Run("Update", func(t *testing.T) {
			property.Price = decimal.RequireFromString("120")
			property.CommissionRate = decimal.NullDecimal{}
			require.NoError(t, repo.Update(ctx, property))

			found, err := repo.ByID(ctx, property.ID)
			require.NoError(t, err)
			assert.True(t, found.Price.Equal(decimal.RequireFromString("120")))
			assert.False(t, found.CommissionRate.Valid)
		})

		t.Run("CountAndExists", func(t *testing.T) {
			count, err := repo.Count(ctx, models.PropertyFilter{UUID: &property.UUID})
			require.NoError(t, err)
			assert.Equal(t, int64(1), count)

			missing := uuid.New()
			exists, err := repo.Exists(ctx, models.PropertyFilter{UUID: &missing})
			require.NoError(t, err)
			assert.False(t, exists)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestSeasonalPriceRepository(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		repo := repository.NewSeasonalPriceRepository(testDB.DB)
		ctx := testingutil.CreateTestContext()

		property, err := fixtures.CreateTestProperty("100")
		require.NoError(t, err)

		summer, err := fixtures.CreateTestSeasonalPrice(property.ID, "2026-07-01", "2026-08-31", "180", utils.ToPtr("1.25"))
		require.NoError(t, err)
		spring, err := fixtures.CreateTestSeasonalPrice(property.ID, "2026-04-01", "2026-04-30", "120", nil)
		require.NoError(t, err)

		t.Run("ListByPropertyOrdersByStartDate", func(t *testing.T) {
			seasons, err := repo.ListByProperty(ctx, property.ID)
			require.NoError(t, err)
			require.Len(t, seasons, 2)
			assert.Equal(t, spring.ID, seasons[0].ID)
			assert.Equal(t, summer.ID, seasons[1].ID)
			assert.True(t, seasons[1].WeekendMultiplier.Valid)
			assert.False(t, seasons[0].WeekendMultiplier.Valid)
			assert.True(t, seasons[1].Contains(date("2026-08-31")))
		})

		t.Run("Overlapping", func(t *testing.T) {
			hits, err := repo.Overlapping(ctx, property.ID, date("2026-08-31"), date("2026-09-10"))
			require.NoError(t, err)
			require.Len(t, hits, 1)
			assert.Equal(t, summer.ID, hits[0].ID)

			hits, err = repo.Overlapping(ctx, property.ID, date("2026-05-01"), date("2026-06-30"))
			require.NoError(t, err)
			assert.Empty(t, hits)
		})

		t.Run("ByFilterActiveOn", func(t *testing.T) {
			on := date("2026-04-15")
			seasons, err := repo.ByFilter(ctx, models.SeasonalPriceFilter{PropertyID: &property.ID, ActiveOn: &on}, "", 0, 0)
			require.NoError(t, err)
			require.Len(t, seasons, 1)
			assert.Equal(t, spring.ID, seasons[0].ID)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestPropertyFeeRepository(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		repo := repository.NewPropertyFeeRepository(testDB.DB)
		ctx := testingutil.CreateTestContext()

		property, err := fixtures.CreateTestProperty("100")
		require.NoError(t, err)

		t.Run("ByPropertyAbsent", func(t *testing.T) {
			fees, err := repo.ByProperty(ctx, property.ID)
			assert.NoError(t, err)
			assert.Nil(t, fees)
		})

		t.Run("UpsertCreatesThenReplaces", func(t *testing.T) {
			require.NoError(t, repo.Upsert(ctx, &models.PropertyFee{
				PropertyID:  property.ID,
				CleaningFee: decimal.RequireFromString("50"),
				TaxRate:     decimal.RequireFromString("10"),
			}))

			require.NoError(t, repo.Upsert(ctx, &models.PropertyFee{
				PropertyID:          property.ID,
				CleaningFee:         decimal.RequireFromString("75"),
				ExtraGuestFee:       decimal.RequireFromString("20"),
				ExtraGuestThreshold: utils.ToPtr(4),
				TaxRate:             decimal.RequireFromString("12.5"),
			}))

			count, err := repo.Count(ctx, models.PropertyFeeFilter{PropertyID: &property.ID})
			require.NoError(t, err)
			assert.Equal(t, int64(1), count)

			fees, err := repo.ByProperty(ctx, property.ID)
			require.NoError(t, err)
			require.NotNil(t, fees)
			assert.True(t, fees.CleaningFee.Equal(decimal.RequireFromString("75")))
			assert.True(t, fees.TaxRate.Equal(decimal.RequireFromString("12.5")))
			require.NotNil(t, fees.ExtraGuestThreshold)
			assert.Equal(t, 4, *fees.ExtraGuestThreshold)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestPricingRuleRepository(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		repo := repository.NewPricingRuleRepository(testDB.DB)
		ctx := testingutil.CreateTestContext()

		property, err := fixtures.CreateTestProperty("100")
		require.NoError(t, err)

		weekly, err := fixtures.CreateTestPricingRule(property.ID, "10", models.LengthOfStayCondition{MinNights: 7, Label: "weekly"})
		require.NoError(t, err)
		early, err := fixtures.CreateTestPricingRule(property.ID, "5", models.EarlyBirdCondition{DaysInAdvance: 30})
		require.NoError(t, err)
		promo, err := fixtures.CreateTestPricingRule(property.ID, "15", models.PromotionCondition{
			StartDate: date("2026-10-01"),
			EndDate:   date("2026-10-31"),
		})
		require.NoError(t, err)

		t.Run("ListActiveInInsertionOrder", func(t *testing.T) {
			rules, err := repo.ListActiveByProperty(ctx, property.ID)
			require.NoError(t, err)
			require.Len(t, rules, 3)
			assert.Equal(t, []uint{weekly.ID, early.ID, promo.ID}, []uint{rules[0].ID, rules[1].ID, rules[2].ID})

			cond, err := rules[2].Condition()
			require.NoError(t, err)
			assert.True(t, cond.Matches(models.StayContext{Today: date("2026-10-15")}))
		})

		t.Run("SetActive", func(t *testing.T) {
			require.NoError(t, repo.SetActive(ctx, early.ID, false))

			rules, err := repo.ListActiveByProperty(ctx, property.ID)
			require.NoError(t, err)
			assert.Len(t, rules, 2)

			all, err := repo.ListByProperty(ctx, property.ID)
			require.NoError(t, err)
			assert.Len(t, all, 3)

			inactive := false
			count, err := repo.Count(ctx, models.PricingRuleFilter{PropertyID: &property.ID, IsActive: &inactive})
			require.NoError(t, err)
			assert.Equal(t, int64(1), count)
		})

		t.Run("ByUUID", func(t *testing.T) {
			found, err := repo.ByUUID(ctx, weekly.UUID)
			require.NoError(t, err)
			require.NotNil(t, found)
			cond, err := found.Condition()
			require.NoError(t, err)
			assert.Equal(t, models.LengthOfStayCondition{MinNights: 7, Label: "weekly"}, cond)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestBookingPaymentRepository(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		repo := repository.NewBookingPaymentRepository(testDB.DB)
		ctx := testingutil.CreateTestContext()

		property, err := fixtures.CreateTestProperty("100")
		require.NoError(t, err)
		payment, err := fixtures.CreateTestBookingPayment(property.ID, "cs_test_123")
		require.NoError(t, err)

		t.Run("BySessionID", func(t *testing.T) {
			found, err := repo.BySessionID(ctx, "cs_test_123")
			require.NoError(t, err)
			require.NotNil(t, found)
			assert.Equal(t, payment.ID, found.ID)
			assert.True(t, found.IsPending())

			missing, err := repo.BySessionID(ctx, "cs_unknown")
			assert.NoError(t, err)
			assert.Nil(t, missing)
		})

		t.Run("UpdateInsideTransaction", func(t *testing.T) {
			err := repository.WithTransaction(ctx, testDB.DB, func(txCtx context.Context) error {
				found, err := repo.BySessionID(txCtx, "cs_test_123")
				if err != nil {
					return err
				}
				found.Status = models.BookingPaymentStatusPaid
				found.PaidAt = utils.UTCNowPtr()
				return repo.Update(txCtx, found)
			})
			require.NoError(t, err)

			found, err := repo.BySessionID(ctx, "cs_test_123")
			require.NoError(t, err)
			assert.Equal(t, models.BookingPaymentStatusPaid, found.Status)
			assert.NotNil(t, found.PaidAt)
		})

		t.Run("TransactionRollsBack", func(t *testing.T) {
			boom := errors.New("boom")
			err := repository.WithTransaction(ctx, testDB.DB, func(txCtx context.Context) error {
				found, err := repo.BySessionID(txCtx, "cs_test_123")
				if err != nil {
					return err
				}
				found.Status = models.BookingPaymentStatusFailed
				if err := repo.Update(txCtx, found); err != nil {
					return err
				}
				return boom
			})
			require.ErrorIs(t, err, boom)

			found, err := repo.BySessionID(ctx, "cs_test_123")
			require.NoError(t, err)
			assert.Equal(t, models.BookingPaymentStatusPaid, found.Status)
		})

		return nil
	})
	require.NoError(t, err)
}
