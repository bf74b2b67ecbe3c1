// Package businessflow contains the core business logic and use cases for pricing, property administration and checkout
package businessflow

import (
	"errors"
	"fmt"
)

// Business flow error constants
var (
	// Pricing errors
	ErrPropertyNotFound = errors.New("property not found")
	ErrInvalidStayRange = errors.New("check-out must be at least one night after check-in")
	ErrInvalidOccupancy = errors.New("guest count must be at least 1 and pet count not negative")
	ErrPricingTimeout   = errors.New("pricing data took too long to load")
	ErrPricingUpstream  = errors.New("pricing data could not be loaded")
	ErrInvalidDate      = errors.New("date must be formatted as YYYY-MM-DD")
	ErrInvalidAmount    = errors.New("amount must be a non-negative decimal")

	// Property administration errors
	ErrInvalidCommissionRate   = errors.New("commission rate must be between 0 and 1")
	ErrSeasonalPriceOverlap    = errors.New("seasonal price overlaps an existing seasonal price")
	ErrInvalidSeasonalRange    = errors.New("seasonal price end date precedes start date")
	ErrInvalidWeekendFactor    = errors.New("weekend multiplier must be greater than zero")
	ErrInvalidPricingRule      = errors.New("pricing rule is invalid")
	ErrInvalidDiscountPercent  = errors.New("discount percent must be between 0 and 100")
	ErrPricingRuleNotFound     = errors.New("pricing rule not found")
	ErrPropertyIDMismatch      = errors.New("property id does not match")
	ErrCacheInvalidationFailed = errors.New("pricing cache invalidation failed")

	// Checkout and payment errors
	ErrPaymentsDisabled     = errors.New("payments are not configured")
	ErrCheckoutFailed       = errors.New("checkout session could not be created")
	ErrPaymentNotFound      = errors.New("booking payment not found")
	ErrInvalidWebhook       = errors.New("webhook signature verification failed")
	ErrPayoutTransferFailed = errors.New("host payout transfer failed")
)

type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func NewBusinessErrorf(code, message string, err error, args ...any) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: fmt.Sprintf(message, args...),
		Err:     err,
	}
}

func IsPropertyNotFound(err error) bool {
	return errors.Is(err, ErrPropertyNotFound)
}

func IsInvalidStayRange(err error) bool {
	return errors.Is(err, ErrInvalidStayRange)
}

func IsInvalidOccupancy(err error) bool {
	return errors.Is(err, ErrInvalidOccupancy)
}

func IsPricingTimeout(err error) bool {
	return errors.Is(err, ErrPricingTimeout)
}

func IsPricingUpstream(err error) bool {
	return errors.Is(err, ErrPricingUpstream)
}

func IsInvalidDate(err error) bool {
	return errors.Is(err, ErrInvalidDate)
}

func IsInvalidAmount(err error) bool {
	return errors.Is(err, ErrInvalidAmount)
}

func IsInvalidCommissionRate(err error) bool {
	return errors.Is(err, ErrInvalidCommissionRate)
}

func IsSeasonalPriceOverlap(err error) bool {
	return errors.Is(err, ErrSeasonalPriceOverlap)
}

func IsInvalidSeasonalRange(err error) bool {
	return errors.Is(err, ErrInvalidSeasonalRange)
}

func IsInvalidWeekendFactor(err error) bool {
	return errors.Is(err, ErrInvalidWeekendFactor)
}

func IsInvalidPricingRule(err error) bool {
	return errors.Is(err, ErrInvalidPricingRule)
}

func IsInvalidDiscountPercent(err error) bool {
	return errors.Is(err, ErrInvalidDiscountPercent)
}

func IsPricingRuleNotFound(err error) bool {
	return errors.Is(err, ErrPricingRuleNotFound)
}

func IsPropertyIDMismatch(err error) bool {
	return errors.Is(err, ErrPropertyIDMismatch)
}

func IsPaymentsDisabled(err error) bool {
	return errors.Is(err, ErrPaymentsDisabled)
}

func IsCheckoutFailed(err error) bool {
	return errors.Is(err, ErrCheckoutFailed)
}

func IsPaymentNotFound(err error) bool {
	return errors.Is(err, ErrPaymentNotFound)
}

func IsInvalidWebhook(err error) bool {
	return errors.Is(err, ErrInvalidWebhook)
}

// IsBusinessError reports whether err carries a BusinessError and returns it
func IsBusinessError(err error) (*BusinessError, bool) {
	var be *BusinessError
	if errors.As(err, &be) {
		return be, true
	}
	return nil, false
}
