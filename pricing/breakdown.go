package pricing

import (
	"time"

	"github.com/amirphl/staybook/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Request identifies the stay to price
type Request struct {
	PropertyID uuid.UUID
	CheckIn    time.Time
	CheckOut   time.Time
	GuestCount int
	PetCount   int
}

// NightlyRate is one entry of the per-night ledger
type NightlyRate struct {
	Date      time.Time       `json:"date"`
	Rate      decimal.Decimal `json:"rate"`
	IsWeekend bool            `json:"isWeekend"`
	Seasonal  bool            `json:"seasonal"`
}

// Discount is an applied pricing rule
type Discount struct {
	RuleType models.RuleType `json:"ruleType"`
	RuleID   uint            `json:"ruleId"`
	Percent  decimal.Decimal `json:"percent"`
	Amount   decimal.Decimal `json:"amount"`
	// Label is the length-of-stay sub-type, e.g. "weekly"
	Label string `json:"label,omitempty"`
}

// Breakdown is the itemised quote of a stay. Amounts carry full precision.
type Breakdown struct {
	PropertyID uuid.UUID `json:"propertyId"`
	CheckIn    time.Time `json:"checkIn"`
	CheckOut   time.Time `json:"checkOut"`
	GuestCount int       `json:"guestCount"`
	PetCount   int       `json:"petCount"`

	Nights       int             `json:"nights"`
	BasePrice    decimal.Decimal `json:"basePrice"`
	NightlyRates []NightlyRate   `json:"nightlyRates"`

	// Subtotal is the sum of the nightly ledger
	Subtotal decimal.Decimal `json:"subtotal"`
	// SubtotalAfterDiscounts is Subtotal with every applied discount compounded
	SubtotalAfterDiscounts decimal.Decimal `json:"subtotalAfterDiscounts"`

	// Discounts that did not apply stay nil and encode as null
	LengthDiscount      *Discount `json:"lengthDiscount"`
	EarlyBirdDiscount   *Discount `json:"earlyBirdDiscount"`
	LastMinuteDiscount  *Discount `json:"lastMinuteDiscount"`
	PromotionalDiscount *Discount `json:"promotionalDiscount"`

	CleaningFee     decimal.Decimal `json:"cleaningFee"`
	ExtraGuestFee   decimal.Decimal `json:"extraGuestFee"`
	PetFee          decimal.Decimal `json:"petFee"`
	SecurityDeposit decimal.Decimal `json:"securityDeposit"`

	ServiceFee        decimal.Decimal `json:"serviceFee"`
	ServiceFeePercent decimal.Decimal `json:"serviceFeePercent"`

	TotalBeforeTax decimal.Decimal `json:"totalBeforeTax"`
	TaxRate        decimal.Decimal `json:"taxRate"`
	TaxAmount      decimal.Decimal `json:"taxAmount"`
	Total          decimal.Decimal `json:"total"`
	Savings        decimal.Decimal `json:"savings"`

	// Estimated marks a degraded quote built from the base price only
	Estimated bool `json:"estimated"`
}

// Discounts returns the applied discounts in application order
func (b *Breakdown) Discounts() []*Discount {
	out := make([]*Discount, 0, 4)
	for _, d := range []*Discount{b.LengthDiscount, b.EarlyBirdDiscount, b.LastMinuteDiscount, b.PromotionalDiscount} {
		if d != nil {
			out = append(out, d)
		}
	}
	return out
}

// HostPayout is the part of the pre-tax total owed to the host
func (b *Breakdown) HostPayout() decimal.Decimal {
	return b.TotalBeforeTax.Sub(b.ServiceFee)
}

func (b *Breakdown) setDiscount(d *Discount) {
	switch d.RuleType {
	case models.RuleTypeLengthDiscount:
		b.LengthDiscount = d
	case models.RuleTypeEarlyBird:
		b.EarlyBirdDiscount = d
	case models.RuleTypeLastMinute:
		b.LastMinuteDiscount = d
	case models.RuleTypePromotion:
		b.PromotionalDiscount = d
	}
}
