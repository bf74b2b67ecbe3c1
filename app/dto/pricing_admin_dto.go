package dto

import "encoding/json"

// AdminUpsertPropertyPricingRequest creates or updates a property's pricing profile.
// Omitting property_id creates a new property.
type AdminUpsertPropertyPricingRequest struct {
	PropertyID     string  `json:"property_id" validate:"omitempty,uuid"`
	Title          string  `json:"title" validate:"required,max=255"`
	Price          string  `json:"price" validate:"required,numeric"`
	CommissionRate *string `json:"commission_rate,omitempty" validate:"omitempty,numeric"`
	HostAccountID  *string `json:"host_account_id,omitempty" validate:"omitempty,max=255"`
}

type AdminPropertyPricingItem struct {
	PropertyID     string  `json:"property_id"`
	Title          string  `json:"title"`
	Price          string  `json:"price"`
	CommissionRate *string `json:"commission_rate,omitempty"`
	HostAccountID  *string `json:"host_account_id,omitempty"`
	CreatedAt      string  `json:"created_at"`
	UpdatedAt      string  `json:"updated_at"`
}

type AdminUpsertPropertyPricingResponse struct {
	Message  string                   `json:"message"`
	Created  bool                     `json:"created"`
	Property AdminPropertyPricingItem `json:"property"`
}

// AdminCreateSeasonalPriceRequest adds a seasonal override; dates are inclusive
type AdminCreateSeasonalPriceRequest struct {
	PropertyID        string  `json:"-" validate:"required,uuid"`
	Name              *string `json:"name,omitempty" validate:"omitempty,max=255"`
	StartDate         string  `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate           string  `json:"end_date" validate:"required,datetime=2006-01-02"`
	PricePerNight     string  `json:"price_per_night" validate:"required,numeric"`
	WeekendMultiplier *string `json:"weekend_multiplier,omitempty" validate:"omitempty,numeric"`
}

type AdminSeasonalPriceItem struct {
	UUID              string  `json:"uuid"`
	Name              *string `json:"name,omitempty"`
	StartDate         string  `json:"start_date"`
	EndDate           string  `json:"end_date"`
	PricePerNight     string  `json:"price_per_night"`
	WeekendMultiplier *string `json:"weekend_multiplier,omitempty"`
	CreatedAt         string  `json:"created_at"`
}

type AdminCreateSeasonalPriceResponse struct {
	Message       string                 `json:"message"`
	SeasonalPrice AdminSeasonalPriceItem `json:"seasonal_price"`
}

type AdminListSeasonalPricesResponse struct {
	Message string                   `json:"message"`
	Items   []AdminSeasonalPriceItem `json:"items"`
}

// AdminUpsertPropertyFeesRequest replaces the fee schedule of a property
type AdminUpsertPropertyFeesRequest struct {
	PropertyID          string `json:"-" validate:"required,uuid"`
	CleaningFee         string `json:"cleaning_fee" validate:"omitempty,numeric"`
	ExtraGuestFee       string `json:"extra_guest_fee" validate:"omitempty,numeric"`
	ExtraGuestThreshold *int   `json:"extra_guest_threshold,omitempty" validate:"omitempty,gte=1"`
	PetFee              string `json:"pet_fee" validate:"omitempty,numeric"`
	SecurityDeposit     string `json:"security_deposit" validate:"omitempty,numeric"`
	// TaxRate is a percentage, 12.5 meaning 12.5%
	TaxRate string `json:"tax_rate" validate:"omitempty,numeric"`
}

type AdminPropertyFeesItem struct {
	PropertyID          string `json:"property_id"`
	CleaningFee         string `json:"cleaning_fee"`
	ExtraGuestFee       string `json:"extra_guest_fee"`
	ExtraGuestThreshold *int   `json:"extra_guest_threshold,omitempty"`
	PetFee              string `json:"pet_fee"`
	SecurityDeposit     string `json:"security_deposit"`
	TaxRate             string `json:"tax_rate"`
	UpdatedAt           string `json:"updated_at"`
}

type AdminUpsertPropertyFeesResponse struct {
	Message string                `json:"message"`
	Fees    AdminPropertyFeesItem `json:"fees"`
}

// AdminCreatePricingRuleRequest adds a discount rule.
// Conditions depend on rule_type: {"min_nights", "type"} for length_discount,
// {"days_in_advance"} for early_bird, {"days_before_checkin"} for last_minute.
// Promotions use start_date and end_date instead.
type AdminCreatePricingRuleRequest struct {
	PropertyID      string          `json:"-" validate:"required,uuid"`
	Name            string          `json:"name" validate:"max=255"`
	RuleType        string          `json:"rule_type" validate:"required,oneof=length_discount early_bird last_minute promotion"`
	DiscountPercent string          `json:"discount_percent" validate:"required,numeric"`
	Conditions      json.RawMessage `json:"conditions,omitempty"`
	StartDate       *string         `json:"start_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	EndDate         *string         `json:"end_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	IsActive        *bool           `json:"is_active,omitempty"`
}

type AdminPricingRuleItem struct {
	UUID            string          `json:"uuid"`
	Name            string          `json:"name"`
	RuleType        string          `json:"rule_type"`
	IsActive        bool            `json:"is_active"`
	DiscountPercent string          `json:"discount_percent"`
	Conditions      json.RawMessage `json:"conditions,omitempty"`
	StartDate       *string         `json:"start_date,omitempty"`
	EndDate         *string         `json:"end_date,omitempty"`
	CreatedAt       string          `json:"created_at"`
}

type AdminCreatePricingRuleResponse struct {
	Message string               `json:"message"`
	Rule    AdminPricingRuleItem `json:"rule"`
}

type AdminListPricingRulesResponse struct {
	Message string                 `json:"message"`
	Items   []AdminPricingRuleItem `json:"items"`
}

// AdminSetPricingRuleActiveRequest toggles a rule on or off
type AdminSetPricingRuleActiveRequest struct {
	RuleID   string `json:"-" validate:"required,uuid"`
	IsActive *bool  `json:"is_active" validate:"required"`
}

type AdminSetPricingRuleActiveResponse struct {
	Message string               `json:"message"`
	Rule    AdminPricingRuleItem `json:"rule"`
}
