// Package models contains domain entities and business models for the booking pricing system
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Property is the pricing profile of a rental listing
type Property struct {
	ID   uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UUID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"uuid"`

	Title string `gorm:"size:255;not null" json:"title"`

	// Base nightly price
	Price decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	// CommissionRate is a fraction (0.15 = 15%); null falls back to the platform default
	CommissionRate decimal.NullDecimal `gorm:"type:numeric(5,4)" json:"commission_rate"`

	// Connected payment account receiving host payouts
	HostAccountID *string `gorm:"size:255" json:"host_account_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate ensures UUID is set
func (p *Property) BeforeCreate(tx *gorm.DB) error {
	if p.UUID == uuid.Nil {
		p.UUID = uuid.New()
	}
	return nil
}

// TableName specifies the table name for GORM
func (Property) TableName() string {
	return "properties"
}

// PropertyFilter represents filter criteria for property queries
type PropertyFilter struct {
	ID    *uint      `json:"id,omitempty"`
	UUID  *uuid.UUID `json:"uuid,omitempty"`
	Title *string    `json:"title,omitempty"`
}
