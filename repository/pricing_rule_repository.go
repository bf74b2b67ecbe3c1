package repository

import (
	"context"
	"fmt"

	"github.com/amirphl/staybook/models"
	"github.com/amirphl/staybook/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PricingRuleRepositoryImpl implements PricingRuleRepository
type PricingRuleRepositoryImpl struct {
	*BaseRepository[models.PricingRule, models.PricingRuleFilter]
}

// NewPricingRuleRepository creates a new repository for pricing rules
func NewPricingRuleRepository(db *gorm.DB) PricingRuleRepository {
	return &PricingRuleRepositoryImpl{
		BaseRepository: NewBaseRepository[models.PricingRule, models.PricingRuleFilter](db),
	}
}

// ByUUID finds a pricing rule by its public identifier
func (r *PricingRuleRepositoryImpl) ByUUID(ctx context.Context, id uuid.UUID) (*models.PricingRule, error) {
	return r.byColumn(ctx, "uuid", id)
}

// ListActiveByProperty returns the active rules of the property in insertion order
func (r *PricingRuleRepositoryImpl) ListActiveByProperty(ctx context.Context, propertyID uint) ([]*models.PricingRule, error) {
	var rows []*models.PricingRule
	err := r.getDB(ctx).
		Where("property_id = ? AND is_active = ?", propertyID, true).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListByProperty returns all rules of the property, active or not
func (r *PricingRuleRepositoryImpl) ListByProperty(ctx context.Context, propertyID uint) ([]*models.PricingRule, error) {
	var rows []*models.PricingRule
	err := r.getDB(ctx).
		Where("property_id = ?", propertyID).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// SetActive toggles the is_active flag of a rule
func (r *PricingRuleRepositoryImpl) SetActive(ctx context.Context, id uint, active bool) error {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}
	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	err = db.Model(&models.PricingRule{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"is_active":  active,
			"updated_at": utils.UTCNow(),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to update pricing rule %d: %w", id, err)
	}
	return nil
}

func (r *PricingRuleRepositoryImpl) applyFilter(db *gorm.DB, filter models.PricingRuleFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		db = db.Where("uuid = ?", *filter.UUID)
	}
	if filter.PropertyID != nil {
		db = db.Where("property_id = ?", *filter.PropertyID)
	}
	if filter.RuleType != nil {
		db = db.Where("rule_type = ?", *filter.RuleType)
	}
	if filter.IsActive != nil {
		db = db.Where("is_active = ?", *filter.IsActive)
	}
	return db
}

// ByFilter retrieves pricing rules based on filter criteria
func (r *PricingRuleRepositoryImpl) ByFilter(ctx context.Context, filter models.PricingRuleFilter, orderBy string, limit, offset int) ([]*models.PricingRule, error) {
	query := r.applyFilter(r.getDB(ctx).Model(&models.PricingRule{}), filter)
	query = paginate(query, orderBy, "id ASC", limit, offset)

	var rows []*models.PricingRule
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Count returns the number of pricing rules matching the filter
func (r *PricingRuleRepositoryImpl) Count(ctx context.Context, filter models.PricingRuleFilter) (int64, error) {
	query := r.applyFilter(r.getDB(ctx).Model(&models.PricingRule{}), filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any pricing rule matching the filter exists
func (r *PricingRuleRepositoryImpl) Exists(ctx context.Context, filter models.PricingRuleFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
