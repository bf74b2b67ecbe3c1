package repository

import (
	"context"

	"github.com/amirphl/staybook/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PropertyRepositoryImpl implements PropertyRepository
type PropertyRepositoryImpl struct {
	*BaseRepository[models.Property, models.PropertyFilter]
}

// NewPropertyRepository creates a new property repository
func NewPropertyRepository(db *gorm.DB) PropertyRepository {
	return &PropertyRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Property, models.PropertyFilter](db),
	}
}

// ByUUID finds a property by its public identifier
func (r *PropertyRepositoryImpl) ByUUID(ctx context.Context, id uuid.UUID) (*models.Property, error) {
	return r.byColumn(ctx, "uuid", id)
}

func (r *PropertyRepositoryImpl) applyFilter(db *gorm.DB, filter models.PropertyFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		db = db.Where("uuid = ?", *filter.UUID)
	}
	if filter.Title != nil {
		db = db.Where("title = ?", *filter.Title)
	}
	return db
}

// ByFilter retrieves properties based on filter criteria
func (r *PropertyRepositoryImpl) ByFilter(ctx context.Context, filter models.PropertyFilter, orderBy string, limit, offset int) ([]*models.Property, error) {
	query := r.applyFilter(r.getDB(ctx).Model(&models.Property{}), filter)
	query = paginate(query, orderBy, "id ASC", limit, offset)

	var rows []*models.Property
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Count returns the number of properties matching the filter
func (r *PropertyRepositoryImpl) Count(ctx context.Context, filter models.PropertyFilter) (int64, error) {
	query := r.applyFilter(r.getDB(ctx).Model(&models.Property{}), filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any property matching the filter exists
func (r *PropertyRepositoryImpl) Exists(ctx context.Context, filter models.PropertyFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
