package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SeasonalPrice overrides the nightly price of a property inside an inclusive date range
type SeasonalPrice struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UUID       uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"uuid"`
	PropertyID uint      `gorm:"not null;index:idx_seasonal_prices_property_start,priority:1" json:"property_id"`

	StartDate time.Time `gorm:"type:date;not null;index:idx_seasonal_prices_property_start,priority:2" json:"start_date"`
	EndDate   time.Time `gorm:"type:date;not null" json:"end_date"`

	PricePerNight decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price_per_night"`
	// WeekendMultiplier scales PricePerNight on Saturdays and Sundays when set
	WeekendMultiplier decimal.NullDecimal `gorm:"type:numeric(6,4)" json:"weekend_multiplier"`

	Name *string `gorm:"size:255" json:"name,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate ensures UUID is set
func (sp *SeasonalPrice) BeforeCreate(tx *gorm.DB) error {
	if sp.UUID == uuid.Nil {
		sp.UUID = uuid.New()
	}
	return nil
}

// TableName specifies the table name for GORM
func (SeasonalPrice) TableName() string {
	return "seasonal_prices"
}

// Contains reports whether the calendar date d falls inside [StartDate, EndDate]
func (sp *SeasonalPrice) Contains(d time.Time) bool {
	day := DateOf(d)
	return !day.Before(DateOf(sp.StartDate)) && !day.After(DateOf(sp.EndDate))
}

// Overlaps reports whether the range [start, end] shares at least one date with this override
func (sp *SeasonalPrice) Overlaps(start, end time.Time) bool {
	return !DateOf(start).After(DateOf(sp.EndDate)) && !DateOf(end).Before(DateOf(sp.StartDate))
}

// SeasonalPriceFilter represents filter criteria for seasonal price queries
type SeasonalPriceFilter struct {
	ID         *uint      `json:"id,omitempty"`
	UUID       *uuid.UUID `json:"uuid,omitempty"`
	PropertyID *uint      `json:"property_id,omitempty"`
	ActiveOn   *time.Time `json:"active_on,omitempty"`
}

// DateOf truncates t to its calendar date at midnight UTC, keeping the year, month and day of t's own location
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
