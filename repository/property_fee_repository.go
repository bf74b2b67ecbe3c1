package repository

import (
	"context"
	"fmt"

	"github.com/amirphl/staybook/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PropertyFeeRepositoryImpl implements PropertyFeeRepository
type PropertyFeeRepositoryImpl struct {
	*BaseRepository[models.PropertyFee, models.PropertyFeeFilter]
}

// NewPropertyFeeRepository creates a new repository for property fee schedules
func NewPropertyFeeRepository(db *gorm.DB) PropertyFeeRepository {
	return &PropertyFeeRepositoryImpl{
		BaseRepository: NewBaseRepository[models.PropertyFee, models.PropertyFeeFilter](db),
	}
}

// ByProperty returns the fee schedule of the property, or nil when it has none
func (r *PropertyFeeRepositoryImpl) ByProperty(ctx context.Context, propertyID uint) (*models.PropertyFee, error) {
	return r.byColumn(ctx, "property_id", propertyID)
}

// Upsert creates the fee schedule or replaces the existing one of the same property
func (r *PropertyFeeRepositoryImpl) Upsert(ctx context.Context, fee *models.PropertyFee) error {
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

	err = db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "property_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"cleaning_fee",
			"extra_guest_fee",
			"extra_guest_threshold",
			"pet_fee",
			"security_deposit",
			"tax_rate",
			"updated_at",
		}),
	}).Create(fee).Error
	if err != nil {
		return fmt.Errorf("failed to upsert fee schedule: %w", err)
	}
	return nil
}

func (r *PropertyFeeRepositoryImpl) applyFilter(db *gorm.DB, filter models.PropertyFeeFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.PropertyID != nil {
		db = db.Where("property_id = ?", *filter.PropertyID)
	}
	return db
}

// ByFilter retrieves fee schedules based on filter criteria
func (r *PropertyFeeRepositoryImpl) ByFilter(ctx context.Context, filter models.PropertyFeeFilter, orderBy string, limit, offset int) ([]*models.PropertyFee, error) {
	query := r.applyFilter(r.getDB(ctx).Model(&models.PropertyFee{}), filter)
	query = paginate(query, orderBy, "id ASC", limit, offset)

	var rows []*models.PropertyFee
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Count returns the number of fee schedules matching the filter
func (r *PropertyFeeRepositoryImpl) Count(ctx context.Context, filter models.PropertyFeeFilter) (int64, error) {
	query := r.applyFilter(r.getDB(ctx).Model(&models.PropertyFee{}), filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any fee schedule matching the filter exists
func (r *PropertyFeeRepositoryImpl) Exists(ctx context.Context, filter models.PropertyFeeFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
