package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultExtraGuestThreshold is the number of guests included in the nightly price when a fee schedule does not set one
const DefaultExtraGuestThreshold = 2

// PropertyFee is the fee schedule of a property; at most one row exists per property
type PropertyFee struct {
	ID         uint `gorm:"primaryKey;autoIncrement" json:"id"`
	PropertyID uint `gorm:"not null;uniqueIndex" json:"property_id"`

	CleaningFee         decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"cleaning_fee"`
	ExtraGuestFee       decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"extra_guest_fee"`
	ExtraGuestThreshold *int            `json:"extra_guest_threshold,omitempty"`
	PetFee              decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"pet_fee"`
	SecurityDeposit     decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"security_deposit"`
	// TaxRate is a percentage (12.5 = 12.5%)
	TaxRate decimal.Decimal `gorm:"type:numeric(6,3);not null;default:0" json:"tax_rate"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (PropertyFee) TableName() string {
	return "property_fees"
}

// PropertyFeeFilter represents filter criteria for fee schedule queries
type PropertyFeeFilter struct {
	ID         *uint `json:"id,omitempty"`
	PropertyID *uint `json:"property_id,omitempty"`
}
