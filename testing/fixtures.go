package testing

import (
	"fmt"
	"time"

	"github.com/amirphl/staybook/models"
	"github.com/amirphl/staybook/utils"
	"github.com/shopspring/decimal"
)

// TestFixtures provides helper methods for creating test data
type TestFixtures struct {
	DB *TestDB
}

// NewTestFixtures creates a new test fixtures instance
func NewTestFixtures(db *TestDB) *TestFixtures {
	return &TestFixtures{DB: db}
}

// CreateTestProperty creates a property priced at price per night with the platform default commission
func (tf *TestFixtures) CreateTestProperty(price string) (*models.Property, error) {
	property := &models.Property{
		Title: "Test Cabin",
		Price: decimal.RequireFromString(price),
	}

	if err := tf.DB.DB.Create(property).Error; err != nil {
		return nil, fmt.Errorf("failed to create test property: %w", err)
	}
	return property, nil
}

// CreateTestSeasonalPrice creates an override for the inclusive range [start, end] (YYYY-MM-DD)
func (tf *TestFixtures) CreateTestSeasonalPrice(propertyID uint, start, end, price string, weekendMultiplier *string) (*models.SeasonalPrice, error) {
	startDate, err := utils.ParseDate(start)
	if err != nil {
		return nil, err
	}
	endDate, err := utils.ParseDate(end)
	if err != nil {
		return nil, err
	}

	season := &models.SeasonalPrice{
		PropertyID:    propertyID,
		StartDate:     startDate,
		EndDate:       endDate,
		PricePerNight: decimal.RequireFromString(price),
	}
	if weekendMultiplier != nil {
		season.WeekendMultiplier = decimal.NewNullDecimal(decimal.RequireFromString(*weekendMultiplier))
	}

	if err := tf.DB.DB.Create(season).Error; err != nil {
		return nil, fmt.Errorf("failed to create test seasonal price: %w", err)
	}
	return season, nil
}

// CreateTestFeeSchedule creates a fee schedule with cleaning, extra guest, pet and tax values
func (tf *TestFixtures) CreateTestFeeSchedule(propertyID uint, cleaning, extraGuest, pet, deposit, taxRate string) (*models.PropertyFee, error) {
	fee := &models.PropertyFee{
		PropertyID:      propertyID,
		CleaningFee:     decimal.RequireFromString(cleaning),
		ExtraGuestFee:   decimal.RequireFromString(extraGuest),
		PetFee:          decimal.RequireFromString(pet),
		SecurityDeposit: decimal.RequireFromString(deposit),
		TaxRate:         decimal.RequireFromString(taxRate),
	}

	if err := tf.DB.DB.Create(fee).Error; err != nil {
		return nil, fmt.Errorf("failed to create test fee schedule: %w", err)
	}
	return fee, nil
}

// CreateTestPricingRule creates an active rule with the given condition
func (tf *TestFixtures) CreateTestPricingRule(propertyID uint, percent string, cond models.RuleCondition) (*models.PricingRule, error) {
	payload, err := models.EncodeRuleCondition(cond)
	if err != nil {
		return nil, err
	}

	rule := &models.PricingRule{
		PropertyID:      propertyID,
		Name:            fmt.Sprintf("%s %s%%", cond.Type(), percent),
		RuleType:        cond.Type(),
		IsActive:        true,
		DiscountPercent: decimal.RequireFromString(percent),
		Conditions:      payload,
	}
	if promo, ok := cond.(models.PromotionCondition); ok {
		rule.StartDate = utils.ToPtr(promo.StartDate)
		rule.EndDate = utils.ToPtr(promo.EndDate)
	}

	if err := tf.DB.DB.Create(rule).Error; err != nil {
		return nil, fmt.Errorf("failed to create test pricing rule: %w", err)
	}
	return rule, nil
}

// CreateTestBookingPayment creates a pending payment for the property under sessionID
func (tf *TestFixtures) CreateTestBookingPayment(propertyID uint, sessionID string) (*models.BookingPayment, error) {
	checkIn := time.Date(2026, 11, 2, 0, 0, 0, 0, time.UTC)
	payment := &models.BookingPayment{
		PropertyID:      propertyID,
		CheckIn:         checkIn,
		CheckOut:        checkIn.AddDate(0, 0, 4),
		GuestCount:      2,
		Currency:        "usd",
		Total:           decimal.RequireFromString("460"),
		ServiceFee:      decimal.RequireFromString("60"),
		TaxAmount:       decimal.Zero,
		HostPayout:      decimal.RequireFromString("400"),
		SecurityDeposit: decimal.Zero,
		SessionID:       sessionID,
		Status:          models.BookingPaymentStatusPending,
	}

	if err := tf.DB.DB.Create(payment).Error; err != nil {
		return nil, fmt.Errorf("failed to create test booking payment: %w", err)
	}
	return payment, nil
}
