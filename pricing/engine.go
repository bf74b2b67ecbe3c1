// Package pricing computes itemised booking quotes from a property's pricing profile,
// seasonal overrides, fee schedule and active discount rules.
package pricing

import (
	"context"
	"errors"
	"time"

	"github.com/amirphl/staybook/models"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	DefaultFetchTimeout = 10 * time.Second
)

// DefaultCommissionRate applies to properties without their own commission rate
var DefaultCommissionRate = decimal.RequireFromString("0.15")

// Config holds the engine's tunables
type Config struct {
	// FetchTimeout bounds the concurrent load of seasons, fees and rules
	FetchTimeout               time.Duration
	DefaultCommissionRate      decimal.Decimal
	DefaultExtraGuestThreshold int
	// Location decides which calendar day "today" is
	Location *time.Location
}

// DefaultConfig returns the engine configuration used when nothing is overridden
func DefaultConfig() Config {
	return Config{
		FetchTimeout:               DefaultFetchTimeout,
		DefaultCommissionRate:      DefaultCommissionRate,
		DefaultExtraGuestThreshold: models.DefaultExtraGuestThreshold,
		Location:                   time.UTC,
	}
}

// Engine prices stays. It holds no mutable state and is safe for concurrent use.
type Engine struct {
	source DataSource
	cfg    Config
	now    func() time.Time
	logger *zap.Logger
}

// Option customizes an Engine
type Option func(*Engine)

// WithClock overrides the clock used to decide today's date
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithLogger sets the logger used for upstream failures and skipped rules
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEngine creates a pricing engine reading from source
func NewEngine(source DataSource, cfg Config, opts ...Option) *Engine {
	defaults := DefaultConfig()
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = defaults.FetchTimeout
	}
	if cfg.DefaultCommissionRate.IsZero() {
		cfg.DefaultCommissionRate = defaults.DefaultCommissionRate
	}
	if cfg.DefaultExtraGuestThreshold <= 0 {
		cfg.DefaultExtraGuestThreshold = defaults.DefaultExtraGuestThreshold
	}
	if cfg.Location == nil {
		cfg.Location = defaults.Location
	}

	e := &Engine{
		source: source,
		cfg:    cfg,
		now:    time.Now,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Price computes the full breakdown of a stay.
//
// It fails with ErrNotFound when the property has no pricing profile, ErrInvalidRange when
// the stay is shorter than one night, ErrInvalidOccupancy for impossible guest or pet counts,
// ErrTimeout when the supporting fetch outlives Config.FetchTimeout, and *UpstreamError for
// any other data source failure.
func (e *Engine) Price(ctx context.Context, req Request) (bd *Breakdown, err error) {
	start := time.Now()
	defer func() {
		observeQuote(start, err)
		e.logFailure(req, err)
	}()

	property, nights, err := e.prepare(ctx, req)
	if err != nil {
		return nil, err
	}

	data, err := e.fetchSupporting(ctx, req, property)
	if err != nil {
		return nil, err
	}

	return e.compute(req, property, nights, data), nil
}

// Estimate builds a degraded quote from the base price and commission only.
// Callers use it when Price timed out and an approximate figure beats none.
func (e *Engine) Estimate(ctx context.Context, req Request) (*Breakdown, error) {
	property, nights, err := e.prepare(ctx, req)
	if err != nil {
		e.logFailure(req, err)
		return nil, err
	}

	return e.compute(req, property, nights, &supportingData{}).asEstimate(), nil
}

func (e *Engine) prepare(ctx context.Context, req Request) (*models.Property, int, error) {
	property, err := e.source.PropertyProfile(ctx, req.PropertyID)
	if err != nil {
		return nil, 0, &UpstreamError{Op: "load property profile", PropertyID: req.PropertyID, Err: err}
	}
	if property == nil {
		return nil, 0, ErrNotFound
	}

	nights := daysBetween(models.DateOf(req.CheckIn), models.DateOf(req.CheckOut))
	if nights < 1 {
		return nil, 0, ErrInvalidRange
	}
	if req.GuestCount < 1 || req.PetCount < 0 {
		return nil, 0, ErrInvalidOccupancy
	}

	return property, nights, nil
}

func (e *Engine) today() time.Time {
	return models.DateOf(e.now().In(e.cfg.Location))
}

type matchedRule struct {
	rule *models.PricingRule
	cond models.RuleCondition
}

func (e *Engine) compute(req Request, property *models.Property, nights int, data *supportingData) *Breakdown {
	checkIn := models.DateOf(req.CheckIn)
	today := e.today()

	bd := &Breakdown{
		PropertyID:   req.PropertyID,
		CheckIn:      checkIn,
		CheckOut:     models.DateOf(req.CheckOut),
		GuestCount:   req.GuestCount,
		PetCount:     req.PetCount,
		Nights:       nights,
		BasePrice:    property.Price,
		NightlyRates: make([]NightlyRate, 0, nights),
	}

	subtotal := decimal.Zero
	for i := 0; i < nights; i++ {
		day := checkIn.AddDate(0, 0, i)
		night := NightlyRate{
			Date:      day,
			Rate:      property.Price,
			IsWeekend: isWeekend(day),
		}
		if season := firstSeason(data.seasons, day); season != nil {
			night.Rate = season.PricePerNight
			night.Seasonal = true
			if night.IsWeekend && season.WeekendMultiplier.Valid {
				night.Rate = night.Rate.Mul(season.WeekendMultiplier.Decimal)
			}
		}
		subtotal = subtotal.Add(night.Rate)
		bd.NightlyRates = append(bd.NightlyRates, night)
	}
	bd.Subtotal = subtotal

	stay := models.StayContext{
		Nights:           nights,
		DaysUntilCheckIn: daysBetween(today, checkIn),
		Today:            today,
	}
	matched := e.matchRules(req, data.rules, stay)

	savings := decimal.Zero
	for _, ruleType := range models.RuleTypes {
		m, ok := matched[ruleType]
		if !ok {
			continue
		}
		amount := subtotal.Mul(m.rule.DiscountPercent.Shift(-2))
		subtotal = subtotal.Sub(amount)
		savings = savings.Add(amount)

		d := &Discount{
			RuleType: ruleType,
			RuleID:   m.rule.ID,
			Percent:  m.rule.DiscountPercent,
			Amount:   amount,
		}
		if los, ok := m.cond.(models.LengthOfStayCondition); ok {
			d.Label = los.Label
		}
		bd.setDiscount(d)
	}
	bd.SubtotalAfterDiscounts = subtotal
	bd.Savings = savings

	bd.CleaningFee = decimal.Zero
	bd.ExtraGuestFee = decimal.Zero
	bd.PetFee = decimal.Zero
	bd.SecurityDeposit = decimal.Zero
	bd.TaxRate = decimal.Zero
	if fees := data.fees; fees != nil {
		bd.CleaningFee = fees.CleaningFee

		threshold := e.cfg.DefaultExtraGuestThreshold
		if fees.ExtraGuestThreshold != nil {
			threshold = *fees.ExtraGuestThreshold
		}
		if req.GuestCount > threshold {
			bd.ExtraGuestFee = decimal.NewFromInt(int64(req.GuestCount - threshold)).Mul(fees.ExtraGuestFee)
		}
		if req.PetCount > 0 {
			bd.PetFee = decimal.NewFromInt(int64(req.PetCount)).Mul(fees.PetFee)
		}

		bd.SecurityDeposit = fees.SecurityDeposit
		bd.TaxRate = fees.TaxRate
	}

	commission := e.cfg.DefaultCommissionRate
	if property.CommissionRate.Valid {
		commission = property.CommissionRate.Decimal
	}
	bd.ServiceFee = subtotal.Mul(commission)
	bd.ServiceFeePercent = commission.Shift(2)

	bd.TotalBeforeTax = subtotal.
		Add(bd.CleaningFee).
		Add(bd.ExtraGuestFee).
		Add(bd.PetFee).
		Add(bd.ServiceFee)
	bd.TaxAmount = bd.TotalBeforeTax.Mul(bd.TaxRate.Shift(-2))
	bd.Total = bd.TotalBeforeTax.Add(bd.TaxAmount)

	return bd
}

// matchRules picks, per rule type, the first rule in fetch order whose condition holds
func (e *Engine) matchRules(req Request, rules []*models.PricingRule, stay models.StayContext) map[models.RuleType]matchedRule {
	matched := make(map[models.RuleType]matchedRule, len(models.RuleTypes))
	for _, rule := range rules {
		if rule == nil || !rule.IsActive {
			continue
		}
		if _, done := matched[rule.RuleType]; done {
			continue
		}
		cond, err := rule.Condition()
		if err != nil {
			e.logger.Warn("Skipping pricing rule with invalid conditions",
				zap.String("property_id", req.PropertyID.String()),
				zap.Uint("rule_id", rule.ID),
				zap.String("rule_type", string(rule.RuleType)),
				zap.Error(err),
			)
			continue
		}
		if cond.Matches(stay) {
			matched[rule.RuleType] = matchedRule{rule: rule, cond: cond}
		}
	}
	return matched
}

func (e *Engine) logFailure(req Request, err error) {
	if err == nil {
		return
	}

	fields := []zap.Field{
		zap.String("property_id", req.PropertyID.String()),
		zap.String("check_in", req.CheckIn.Format(time.DateOnly)),
		zap.String("check_out", req.CheckOut.Format(time.DateOnly)),
		zap.Int("guest_count", req.GuestCount),
		zap.Int("pet_count", req.PetCount),
		zap.Error(err),
	}

	switch {
	case errors.Is(err, ErrTimeout):
		e.logger.Warn("Pricing data fetch timed out", append(fields, zap.Duration("timeout", e.cfg.FetchTimeout))...)
	case IsUpstream(err):
		e.logger.Error("Pricing data source failed", fields...)
	}
}

func (b *Breakdown) asEstimate() *Breakdown {
	b.Estimated = true
	return b
}

// firstSeason returns the first override containing day, in the order given
func firstSeason(seasons []*models.SeasonalPrice, day time.Time) *models.SeasonalPrice {
	for _, season := range seasons {
		if season != nil && season.Contains(day) {
			return season
		}
	}
	return nil
}

func isWeekend(day time.Time) bool {
	wd := day.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// daysBetween counts calendar days from a to b; both must be UTC midnights
func daysBetween(a, b time.Time) int {
	return int(b.Sub(a) / (24 * time.Hour))
}
