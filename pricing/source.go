package pricing

import (
	"context"

	"github.com/amirphl/staybook/models"
	"github.com/amirphl/staybook/repository"
	"github.com/google/uuid"
)

// DataSource is the read side the engine prices against.
// Absent profiles and fee schedules are reported as nil with a nil error.
type DataSource interface {
	PropertyProfile(ctx context.Context, propertyID uuid.UUID) (*models.Property, error)
	// SeasonalPrices returns overrides ordered by start date
	SeasonalPrices(ctx context.Context, propertyID uint) ([]*models.SeasonalPrice, error)
	FeeSchedule(ctx context.Context, propertyID uint) (*models.PropertyFee, error)
	// ActiveRules returns active rules in evaluation order
	ActiveRules(ctx context.Context, propertyID uint) ([]*models.PricingRule, error)
}

// RepositorySource serves pricing data straight from the database repositories
type RepositorySource struct {
	properties repository.PropertyRepository
	seasons    repository.SeasonalPriceRepository
	fees       repository.PropertyFeeRepository
	rules      repository.PricingRuleRepository
}

// NewRepositorySource creates a DataSource backed by the given repositories
func NewRepositorySource(
	properties repository.PropertyRepository,
	seasons repository.SeasonalPriceRepository,
	fees repository.PropertyFeeRepository,
	rules repository.PricingRuleRepository,
) *RepositorySource {
	return &RepositorySource{
		properties: properties,
		seasons:    seasons,
		fees:       fees,
		rules:      rules,
	}
}

func (s *RepositorySource) PropertyProfile(ctx context.Context, propertyID uuid.UUID) (*models.Property, error) {
	return s.properties.ByUUID(ctx, propertyID)
}

func (s *RepositorySource) SeasonalPrices(ctx context.Context, propertyID uint) ([]*models.SeasonalPrice, error) {
	return s.seasons.ListByProperty(ctx, propertyID)
}

func (s *RepositorySource) FeeSchedule(ctx context.Context, propertyID uint) (*models.PropertyFee, error) {
	return s.fees.ByProperty(ctx, propertyID)
}

func (s *RepositorySource) ActiveRules(ctx context.Context, propertyID uint) ([]*models.PricingRule, error) {
	return s.rules.ListActiveByProperty(ctx, propertyID)
}
