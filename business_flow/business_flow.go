package businessflow

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/amirphl/staybook/app/dto"
	"github.com/amirphl/staybook/pricing"
	"github.com/amirphl/staybook/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ClientMetadata holds client information carried into flow logs
type ClientMetadata struct {
	IPAddress string `json:"ip_address"`
	UserAgent string `json:"user_agent"`
	RequestID string `json:"request_id,omitempty"`
	Endpoint  string `json:"endpoint,omitempty"`
	// AdminID is set on requests authenticated with an admin token
	AdminID uint `json:"admin_id,omitempty"`
}

// NewClientMetadata creates a new ClientMetadata instance with basic information
func NewClientMetadata(ipAddress, userAgent string) *ClientMetadata {
	return &ClientMetadata{
		IPAddress: ipAddress,
		UserAgent: userAgent,
	}
}

// ClientMetadataFromContext rebuilds the metadata handlers stored on the request context
func ClientMetadataFromContext(ctx context.Context) *ClientMetadata {
	str := func(key any) string {
		v, _ := ctx.Value(key).(string)
		return v
	}
	md := NewClientMetadata(str(utils.IPAddressKey), str(utils.UserAgentKey))
	md.RequestID = str(utils.RequestIDKey)
	md.Endpoint = str(utils.EndpointKey)
	md.AdminID, _ = ctx.Value(utils.AdminIDKey).(uint)
	return md
}

// toPricingRequest parses the wire form of a stay
func toPricingRequest(propertyID, checkIn, checkOut string, guests, pets int) (pricing.Request, error) {
	id, err := uuid.Parse(strings.TrimSpace(propertyID))
	if err != nil {
		return pricing.Request{}, NewBusinessError("PROPERTY_NOT_FOUND", "Property not found", ErrPropertyNotFound)
	}
	in, err := utils.ParseDate(checkIn)
	if err != nil {
		return pricing.Request{}, NewBusinessError("INVALID_CHECK_IN", "Check-in date is invalid", errors.Join(ErrInvalidDate, err))
	}
	out, err := utils.ParseDate(checkOut)
	if err != nil {
		return pricing.Request{}, NewBusinessError("INVALID_CHECK_OUT", "Check-out date is invalid", errors.Join(ErrInvalidDate, err))
	}
	return pricing.Request{
		PropertyID: id,
		CheckIn:    in,
		CheckOut:   out,
		GuestCount: guests,
		PetCount:   pets,
	}, nil
}

// translatePricingError maps engine failures onto business errors
func translatePricingError(err error) error {
	switch {
	case errors.Is(err, pricing.ErrNotFound):
		return NewBusinessError("PROPERTY_NOT_FOUND", "Property not found", errors.Join(ErrPropertyNotFound, err))
	case errors.Is(err, pricing.ErrInvalidRange):
		return NewBusinessError("INVALID_STAY_RANGE", "Check-out must be at least one night after check-in", errors.Join(ErrInvalidStayRange, err))
	case errors.Is(err, pricing.ErrInvalidOccupancy):
		return NewBusinessError("INVALID_OCCUPANCY", "Guest count must be at least 1 and pet count not negative", errors.Join(ErrInvalidOccupancy, err))
	case errors.Is(err, pricing.ErrTimeout):
		return NewBusinessError("PRICING_TIMEOUT", "Pricing data took too long to load", errors.Join(ErrPricingTimeout, err))
	default:
		return NewBusinessError("PRICING_UPSTREAM_FAILED", "Pricing data could not be loaded", errors.Join(ErrPricingUpstream, err))
	}
}

// ToPriceQuoteResponse renders a breakdown with amounts rounded to 2 places
func ToPriceQuoteResponse(bd *pricing.Breakdown, currency string) dto.PriceQuoteResponse {
	nights := make([]dto.NightlyRateItem, 0, len(bd.NightlyRates))
	for _, n := range bd.NightlyRates {
		nights = append(nights, dto.NightlyRateItem{
			Date:      utils.FormatDate(n.Date),
			Weekday:   n.Date.Weekday().String(),
			Rate:      money(n.Rate),
			IsWeekend: n.IsWeekend,
			Seasonal:  n.Seasonal,
		})
	}

	discounts := make([]dto.DiscountItem, 0, 4)
	for _, d := range bd.Discounts() {
		discounts = append(discounts, *toDiscountItem(d))
	}

	return dto.PriceQuoteResponse{
		PropertyID:             bd.PropertyID.String(),
		CheckIn:                utils.FormatDate(bd.CheckIn),
		CheckOut:               utils.FormatDate(bd.CheckOut),
		GuestCount:             bd.GuestCount,
		PetCount:               bd.PetCount,
		Nights:                 bd.Nights,
		Currency:               strings.ToUpper(currency),
		BasePrice:              money(bd.BasePrice),
		NightlyRates:           nights,
		Subtotal:               money(bd.Subtotal),
		Discounts:              discounts,
		LengthDiscount:         toDiscountItem(bd.LengthDiscount),
		EarlyBirdDiscount:      toDiscountItem(bd.EarlyBirdDiscount),
		LastMinuteDiscount:     toDiscountItem(bd.LastMinuteDiscount),
		PromotionalDiscount:    toDiscountItem(bd.PromotionalDiscount),
		SubtotalAfterDiscounts: money(bd.SubtotalAfterDiscounts),
		CleaningFee:            money(bd.CleaningFee),
		ExtraGuestFee:          money(bd.ExtraGuestFee),
		PetFee:                 money(bd.PetFee),
		SecurityDeposit:        money(bd.SecurityDeposit),
		ServiceFee:             money(bd.ServiceFee),
		ServiceFeePercent:      bd.ServiceFeePercent.String(),
		TotalBeforeTax:         money(bd.TotalBeforeTax),
		TaxRate:                bd.TaxRate.String(),
		TaxAmount:              money(bd.TaxAmount),
		Total:                  money(bd.Total),
		Savings:                money(bd.Savings),
		Estimated:              bd.Estimated,
	}
}

func toDiscountItem(d *pricing.Discount) *dto.DiscountItem {
	if d == nil {
		return nil
	}
	return &dto.DiscountItem{
		RuleType: string(d.RuleType),
		RuleID:   d.RuleID,
		Percent:  d.Percent.String(),
		Amount:   money(d.Amount),
		Label:    d.Label,
	}
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func formatOptionalDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := utils.FormatDate(*t)
	return &s
}

func formatNullDecimal(d decimal.NullDecimal) *string {
	if !d.Valid {
		return nil
	}
	s := d.Decimal.String()
	return &s
}

// parseAmount parses a non-negative decimal, treating "" as zero
func parseAmount(field, value string) (decimal.Decimal, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(value)
	if err != nil || d.IsNegative() {
		return decimal.Zero, NewBusinessErrorf("INVALID_AMOUNT", "%s must be a non-negative decimal", ErrInvalidAmount, field)
	}
	return d, nil
}
