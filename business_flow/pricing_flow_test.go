package businessflow_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/amirphl/staybook/app/dto"
	"github.com/amirphl/staybook/app/services"
	businessflow "github.com/amirphl/staybook/business_flow"
	"github.com/amirphl/staybook/models"
	"github.com/amirphl/staybook/pricing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePricer struct {
	price     func(req pricing.Request) (*pricing.Breakdown, error)
	estimate  func(req pricing.Request) (*pricing.Breakdown, error)
	estimates int
	lastReq   pricing.Request
}

func (p *fakePricer) Price(_ context.Context, req pricing.Request) (*pricing.Breakdown, error) {
	p.lastReq = req
	return p.price(req)
}

func (p *fakePricer) Estimate(_ context.Context, req pricing.Request) (*pricing.Breakdown, error) {
	p.estimates++
	return p.estimate(req)
}

type fakeExporter struct {
	err error
}

func (e *fakeExporter) Export(bd *pricing.Breakdown, currency string) (string, []byte, error) {
	if e.err != nil {
		return "", nil, e.err
	}
	return "quote.xlsx", []byte(currency + ":" + bd.Total.String()), nil
}

var _ services.QuoteExporter = (*fakeExporter)(nil)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func breakdownFor(req pricing.Request) *pricing.Breakdown {
	return &pricing.Breakdown{
		PropertyID: req.PropertyID,
		CheckIn:    req.CheckIn,
		CheckOut:   req.CheckOut,
		GuestCount: req.GuestCount,
		PetCount:   req.PetCount,
		Nights:     2,
		BasePrice:  dec("100"),
		NightlyRates: []pricing.NightlyRate{
			{Date: req.CheckIn, Rate: dec("100")},
			{Date: req.CheckIn.AddDate(0, 0, 1), Rate: dec("133.333"), IsWeekend: true, Seasonal: true},
		},
		Subtotal:               dec("233.333"),
		LengthDiscount:         &pricing.Discount{RuleType: models.RuleTypeLengthDiscount, RuleID: 7, Percent: dec("10"), Amount: dec("23.3333"), Label: "weekly"},
		SubtotalAfterDiscounts: dec("209.9997"),
		CleaningFee:            dec("25"),
		ExtraGuestFee:          decimal.Zero,
		PetFee:                 decimal.Zero,
		SecurityDeposit:        dec("100"),
		ServiceFee:             dec("31.499955"),
		ServiceFeePercent:      dec("15"),
		TotalBeforeTax:         dec("266.499655"),
		TaxRate:                dec("10"),
		TaxAmount:              dec("26.6499655"),
		Total:                  dec("293.1496205"),
		Savings:                dec("23.3333"),
	}
}

func quoteRequest(propertyID string) *dto.PriceQuoteRequest {
	return &dto.PriceQuoteRequest{
		PropertyID: propertyID,
		CheckIn:    "2026-11-06",
		CheckOut:   "2026-11-08",
		GuestCount: 2,
	}
}

func TestPricingFlow_CalculateBookingPrice(t *testing.T) {
	pricer := &fakePricer{price: func(req pricing.Request) (*pricing.Breakdown, error) {
		return breakdownFor(req), nil
	}}
	flow := businessflow.NewPricingFlow(pricer, &fakeExporter{}, "usd", nil)

	propertyID := uuid.New()
	res, err := flow.CalculateBookingPrice(context.Background(), quoteRequest(propertyID.String()))
	require.NoError(t, err)

	assert.Equal(t, propertyID, pricer.lastReq.PropertyID)
	assert.Equal(t, time.Date(2026, 11, 6, 0, 0, 0, 0, time.UTC), pricer.lastReq.CheckIn)
	assert.Equal(t, 2, pricer.lastReq.GuestCount)

	assert.Equal(t, "USD", res.Currency)
	assert.Equal(t, "233.33", res.Subtotal)
	assert.Equal(t, "210.00", res.SubtotalAfterDiscounts)
	assert.Equal(t, "31.50", res.ServiceFee)
	assert.Equal(t, "15", res.ServiceFeePercent)
	assert.Equal(t, "26.65", res.TaxAmount)
	assert.Equal(t, "293.15", res.Total)
	assert.Equal(t, "100.00", res.SecurityDeposit)
	require.Len(t, res.NightlyRates, 2)
	assert.Equal(t, dto.NightlyRateItem{Date: "2026-11-07", Weekday: "Saturday", Rate: "133.33", IsWeekend: true, Seasonal: true}, res.NightlyRates[1])
	require.Len(t, res.Discounts, 1)
	assert.Equal(t, dto.DiscountItem{RuleType: "length_discount", RuleID: 7, Percent: "10", Amount: "23.33", Label: "weekly"}, res.Discounts[0])
	require.NotNil(t, res.LengthDiscount)
	assert.Equal(t, res.Discounts[0], *res.LengthDiscount)
	assert.False(t, res.Estimated)

	// Discounts that did not apply are present as null
	raw, err := json.Marshal(res)
	require.NoError(t, err)
	var fields map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &fields))
	for _, key := range []string{"early_bird_discount", "last_minute_discount", "promotional_discount"} {
		value, ok := fields[key]
		require.True(t, ok, "missing %s", key)
		assert.Equal(t, "null", string(value), key)
	}
}

func TestPricingFlow_ErrorMapping(t *testing.T) {
	cases := []struct {
		name     string
		engine   error
		code     string
		category func(error) bool
	}{
		{"NotFound", pricing.ErrNotFound, "PROPERTY_NOT_FOUND", businessflow.IsPropertyNotFound},
		{"InvalidRange", pricing.ErrInvalidRange, "INVALID_STAY_RANGE", businessflow.IsInvalidStayRange},
		{"InvalidOccupancy", pricing.ErrInvalidOccupancy, "INVALID_OCCUPANCY", businessflow.IsInvalidOccupancy},
		{"Timeout", pricing.ErrTimeout, "PRICING_TIMEOUT", businessflow.IsPricingTimeout},
		{"Upstream", &pricing.UpstreamError{Op: "load fee schedule", Err: errors.New("connection reset")}, "PRICING_UPSTREAM_FAILED", businessflow.IsPricingUpstream},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			pricer := &fakePricer{price: func(pricing.Request) (*pricing.Breakdown, error) { return nil, tc.engine }}
			flow := businessflow.NewPricingFlow(pricer, &fakeExporter{}, "usd", nil)

			_, err := flow.CalculateBookingPrice(context.Background(), quoteRequest(uuid.NewString()))
			require.Error(t, err)
			assert.True(t, tc.category(err))
			assert.ErrorIs(t, err, tc.engine)

			be, ok := businessflow.IsBusinessError(err)
			require.True(t, ok)
			assert.Equal(t, tc.code, be.Code)
			assert.Zero(t, pricer.estimates)
		})
	}
}

func TestPricingFlow_EstimateFallback(t *testing.T) {
	pricer := &fakePricer{
		price: func(pricing.Request) (*pricing.Breakdown, error) { return nil, pricing.ErrTimeout },
		estimate: func(req pricing.Request) (*pricing.Breakdown, error) {
			bd := breakdownFor(req)
			bd.Estimated = true
			return bd, nil
		},
	}
	flow := businessflow.NewPricingFlow(pricer, &fakeExporter{}, "usd", nil)

	req := quoteRequest(uuid.NewString())
	req.AllowEstimate = true

	res, err := flow.CalculateBookingPrice(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, res.Estimated)
	assert.Equal(t, 1, pricer.estimates)

	t.Run("EstimateFailureIsReported", func(t *testing.T) {
		pricer.estimate = func(pricing.Request) (*pricing.Breakdown, error) { return nil, pricing.ErrNotFound }
		_, err := flow.CalculateBookingPrice(context.Background(), req)
		assert.True(t, businessflow.IsPropertyNotFound(err))
	})

	t.Run("OnlyTimeoutsFallBack", func(t *testing.T) {
		pricer.estimates = 0
		pricer.price = func(pricing.Request) (*pricing.Breakdown, error) {
			return nil, &pricing.UpstreamError{Op: "load rules", Err: errors.New("boom")}
		}
		_, err := flow.CalculateBookingPrice(context.Background(), req)
		assert.True(t, businessflow.IsPricingUpstream(err))
		assert.Zero(t, pricer.estimates)
	})
}

func TestPricingFlow_InvalidInput(t *testing.T) {
	pricer := &fakePricer{price: func(req pricing.Request) (*pricing.Breakdown, error) { return breakdownFor(req), nil }}
	flow := businessflow.NewPricingFlow(pricer, &fakeExporter{}, "usd", nil)

	_, err := flow.CalculateBookingPrice(context.Background(), quoteRequest("not-a-uuid"))
	assert.True(t, businessflow.IsPropertyNotFound(err))

	req := quoteRequest(uuid.NewString())
	req.CheckOut = "2026-13-40"
	_, err = flow.CalculateBookingPrice(context.Background(), req)
	assert.True(t, businessflow.IsInvalidDate(err))
}

func TestPricingFlow_ExportBookingPrice(t *testing.T) {
	pricer := &fakePricer{price: func(req pricing.Request) (*pricing.Breakdown, error) { return breakdownFor(req), nil }}

	flow := businessflow.NewPricingFlow(pricer, &fakeExporter{}, "usd", nil)
	export, err := flow.ExportBookingPrice(context.Background(), quoteRequest(uuid.NewString()))
	require.NoError(t, err)
	assert.Equal(t, "quote.xlsx", export.Filename)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", export.ContentType)
	assert.Equal(t, "usd:293.1496205", string(export.Data))

	failing := businessflow.NewPricingFlow(pricer, &fakeExporter{err: errors.New("disk full")}, "usd", nil)
	_, err = failing.ExportBookingPrice(context.Background(), quoteRequest(uuid.NewString()))
	be, ok := businessflow.IsBusinessError(err)
	require.True(t, ok)
	assert.Equal(t, "QUOTE_EXPORT_FAILED", be.Code)
}
