package dto

// PriceQuoteRequest represents the stay to price
type PriceQuoteRequest struct {
	PropertyID string `json:"property_id" validate:"required,uuid"`
	CheckIn    string `json:"check_in" validate:"required,datetime=2006-01-02"`
	CheckOut   string `json:"check_out" validate:"required,datetime=2006-01-02"`
	GuestCount int    `json:"guest_count" validate:"required,gte=1,lte=100"`
	PetCount   int    `json:"pet_count" validate:"gte=0,lte=20"`
	// AllowEstimate accepts a base-price estimate when supporting data is too slow to load
	AllowEstimate bool `json:"allow_estimate"`
}

// NightlyRateItem is one night of the ledger
type NightlyRateItem struct {
	Date      string `json:"date"`
	Weekday   string `json:"weekday"`
	Rate      string `json:"rate"`
	IsWeekend bool   `json:"is_weekend"`
	Seasonal  bool   `json:"seasonal"`
}

// DiscountItem is an applied discount
type DiscountItem struct {
	RuleType string `json:"rule_type"`
	RuleID   uint   `json:"rule_id"`
	Percent  string `json:"percent"`
	Amount   string `json:"amount"`
	Label    string `json:"label,omitempty"`
}

// PriceQuoteResponse is the itemised quote, amounts rounded to 2 decimal places
type PriceQuoteResponse struct {
	PropertyID string `json:"property_id"`
	CheckIn    string `json:"check_in"`
	CheckOut   string `json:"check_out"`
	GuestCount int    `json:"guest_count"`
	PetCount   int    `json:"pet_count"`
	Nights     int    `json:"nights"`
	Currency   string `json:"currency"`

	BasePrice    string            `json:"base_price"`
	NightlyRates []NightlyRateItem `json:"nightly_rates"`
	Subtotal     string            `json:"subtotal"`

	// Discounts lists the applied discounts in application order
	Discounts []DiscountItem `json:"discounts"`
	// The same discounts by kind, null when not applied
	LengthDiscount         *DiscountItem `json:"length_discount"`
	EarlyBirdDiscount      *DiscountItem `json:"early_bird_discount"`
	LastMinuteDiscount     *DiscountItem `json:"last_minute_discount"`
	PromotionalDiscount    *DiscountItem `json:"promotional_discount"`
	SubtotalAfterDiscounts string        `json:"subtotal_after_discounts"`

	CleaningFee     string `json:"cleaning_fee"`
	ExtraGuestFee   string `json:"extra_guest_fee"`
	PetFee          string `json:"pet_fee"`
	SecurityDeposit string `json:"security_deposit"`

	ServiceFee        string `json:"service_fee"`
	ServiceFeePercent string `json:"service_fee_percent"`
	TotalBeforeTax    string `json:"total_before_tax"`
	TaxRate           string `json:"tax_rate"`
	TaxAmount         string `json:"tax_amount"`
	Total             string `json:"total"`
	Savings           string `json:"savings"`

	// Estimated is set when the quote ignores seasons, fees and discounts
	Estimated bool `json:"estimated"`
}

// PriceQuoteExport is a rendered quote document
type PriceQuoteExport struct {
	Filename    string
	ContentType string
	Data        []byte
}
