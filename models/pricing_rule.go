package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RuleType discriminates pricing rules and the shape of their conditions
type RuleType string

const (
	RuleTypeLengthDiscount RuleType = "length_discount"
	RuleTypeEarlyBird      RuleType = "early_bird"
	RuleTypeLastMinute     RuleType = "last_minute"
	RuleTypePromotion      RuleType = "promotion"
)

// RuleTypes lists every rule type in the order discounts are applied
var RuleTypes = []RuleType{
	RuleTypeLengthDiscount,
	RuleTypeEarlyBird,
	RuleTypeLastMinute,
	RuleTypePromotion,
}

// Valid reports whether t is a known rule type
func (t RuleType) Valid() bool {
	switch t {
	case RuleTypeLengthDiscount, RuleTypeEarlyBird, RuleTypeLastMinute, RuleTypePromotion:
		return true
	}
	return false
}

// PricingRule is a conditional percentage discount attached to a property
type PricingRule struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UUID       uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"uuid"`
	PropertyID uint      `gorm:"not null;index:idx_pricing_rules_property_active,priority:1" json:"property_id"`

	Name     string   `gorm:"size:255" json:"name"`
	RuleType RuleType `gorm:"type:varchar(32);not null;index" json:"rule_type"`
	IsActive bool     `gorm:"not null;index:idx_pricing_rules_property_active,priority:2" json:"is_active"`

	DiscountPercent decimal.Decimal `gorm:"type:numeric(5,2);not null" json:"discount_percent"`
	Conditions      json.RawMessage `gorm:"type:jsonb" json:"conditions,omitempty"`

	// Validity window, used by promotions
	StartDate *time.Time `gorm:"type:date" json:"start_date,omitempty"`
	EndDate   *time.Time `gorm:"type:date" json:"end_date,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate ensures UUID is set
func (pr *PricingRule) BeforeCreate(tx *gorm.DB) error {
	if pr.UUID == uuid.Nil {
		pr.UUID = uuid.New()
	}
	return nil
}

// TableName specifies the table name for GORM
func (PricingRule) TableName() string {
	return "pricing_rules"
}

// PricingRuleFilter represents filter criteria for pricing rule queries
type PricingRuleFilter struct {
	ID         *uint      `json:"id,omitempty"`
	UUID       *uuid.UUID `json:"uuid,omitempty"`
	PropertyID *uint      `json:"property_id,omitempty"`
	RuleType   *RuleType  `json:"rule_type,omitempty"`
	IsActive   *bool      `json:"is_active,omitempty"`
}
