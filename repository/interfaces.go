// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"time"

	"github.com/amirphl/staybook/models"
	"github.com/google/uuid"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uint) (*T, error)
	ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	SaveBatch(ctx context.Context, entities []*T) error
	Count(ctx context.Context, filter F) (int64, error)
	Exists(ctx context.Context, filter F) (bool, error)
}

// PropertyRepository defines operations for property pricing profiles
type PropertyRepository interface {
	Repository[models.Property, models.PropertyFilter]
	ByUUID(ctx context.Context, id uuid.UUID) (*models.Property, error)
	Update(ctx context.Context, property *models.Property) error
}

// SeasonalPriceRepository defines operations for seasonal price overrides
type SeasonalPriceRepository interface {
	Repository[models.SeasonalPrice, models.SeasonalPriceFilter]
	// ListByProperty returns the overrides of a property ordered by start date
	ListByProperty(ctx context.Context, propertyID uint) ([]*models.SeasonalPrice, error)
	// Overlapping returns the overrides sharing at least one date with [start, end]
	Overlapping(ctx context.Context, propertyID uint, start, end time.Time) ([]*models.SeasonalPrice, error)
}

// PropertyFeeRepository defines operations for property fee schedules
type PropertyFeeRepository interface {
	Repository[models.PropertyFee, models.PropertyFeeFilter]
	ByProperty(ctx context.Context, propertyID uint) (*models.PropertyFee, error)
	Upsert(ctx context.Context, fee *models.PropertyFee) error
}

// PricingRuleRepository defines operations for pricing rules
type PricingRuleRepository interface {
	Repository[models.PricingRule, models.PricingRuleFilter]
	ByUUID(ctx context.Context, id uuid.UUID) (*models.PricingRule, error)
	// ListActiveByProperty returns active rules in evaluation order
	ListActiveByProperty(ctx context.Context, propertyID uint) ([]*models.PricingRule, error)
	ListByProperty(ctx context.Context, propertyID uint) ([]*models.PricingRule, error)
	SetActive(ctx context.Context, id uint, active bool) error
}

// BookingPaymentRepository defines operations for booking payments
type BookingPaymentRepository interface {
	Repository[models.BookingPayment, models.BookingPaymentFilter]
	BySessionID(ctx context.Context, sessionID string) (*models.BookingPayment, error)
	BySessionIDForUpdate(ctx context.Context, sessionID string) (*models.BookingPayment, error)
	Update(ctx context.Context, payment *models.BookingPayment) error
}
