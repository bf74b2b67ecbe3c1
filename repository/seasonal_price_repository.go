package repository

import (
	"context"
	"time"

	"github.com/amirphl/staybook/models"
	"gorm.io/gorm"
)

// SeasonalPriceRepositoryImpl implements SeasonalPriceRepository
type SeasonalPriceRepositoryImpl struct {
	*BaseRepository[models.SeasonalPrice, models.SeasonalPriceFilter]
}

// NewSeasonalPriceRepository creates a new repository for seasonal price overrides
func NewSeasonalPriceRepository(db *gorm.DB) SeasonalPriceRepository {
	return &SeasonalPriceRepositoryImpl{
		BaseRepository: NewBaseRepository[models.SeasonalPrice, models.SeasonalPriceFilter](db),
	}
}

// ListByProperty returns every override of the property, earliest start first.
// Ties on start date fall back to insertion order so first-match stays stable.
func (r *SeasonalPriceRepositoryImpl) ListByProperty(ctx context.Context, propertyID uint) ([]*models.SeasonalPrice, error) {
	var rows []*models.SeasonalPrice
	err := r.getDB(ctx).
		Where("property_id = ?", propertyID).
		Order("start_date ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Overlapping returns overrides of the property that share a date with [start, end]
func (r *SeasonalPriceRepositoryImpl) Overlapping(ctx context.Context, propertyID uint, start, end time.Time) ([]*models.SeasonalPrice, error) {
	var rows []*models.SeasonalPrice
	err := r.getDB(ctx).
		Where("property_id = ? AND start_date <= ? AND end_date >= ?", propertyID, models.DateOf(end), models.DateOf(start)).
		Order("start_date ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *SeasonalPriceRepositoryImpl) applyFilter(db *gorm.DB, filter models.SeasonalPriceFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		db = db.Where("uuid = ?", *filter.UUID)
	}
	if filter.PropertyID != nil {
		db = db.Where("property_id = ?", *filter.PropertyID)
	}
	if filter.ActiveOn != nil {
		day := models.DateOf(*filter.ActiveOn)
		db = db.Where("start_date <= ? AND end_date >= ?", day, day)
	}
	return db
}

// ByFilter retrieves seasonal prices based on filter criteria
func (r *SeasonalPriceRepositoryImpl) ByFilter(ctx context.Context, filter models.SeasonalPriceFilter, orderBy string, limit, offset int) ([]*models.SeasonalPrice, error) {
	query := r.applyFilter(r.getDB(ctx).Model(&models.SeasonalPrice{}), filter)
	query = paginate(query, orderBy, "start_date ASC, id ASC", limit, offset)

	var rows []*models.SeasonalPrice
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Count returns the number of seasonal prices matching the filter
func (r *SeasonalPriceRepositoryImpl) Count(ctx context.Context, filter models.SeasonalPriceFilter) (int64, error) {
	query := r.applyFilter(r.getDB(ctx).Model(&models.SeasonalPrice{}), filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any seasonal price matching the filter exists
func (r *SeasonalPriceRepositoryImpl) Exists(ctx context.Context, filter models.SeasonalPriceFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
