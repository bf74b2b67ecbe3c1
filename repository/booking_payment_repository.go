package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/amirphl/staybook/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BookingPaymentRepositoryImpl implements BookingPaymentRepository
type BookingPaymentRepositoryImpl struct {
	*BaseRepository[models.BookingPayment, models.BookingPaymentFilter]
}

// NewBookingPaymentRepository creates a new repository for booking payments
func NewBookingPaymentRepository(db *gorm.DB) BookingPaymentRepository {
	return &BookingPaymentRepositoryImpl{
		BaseRepository: NewBaseRepository[models.BookingPayment, models.BookingPaymentFilter](db),
	}
}

// BySessionID finds the booking payment created for a provider checkout session
func (r *BookingPaymentRepositoryImpl) BySessionID(ctx context.Context, sessionID string) (*models.BookingPayment, error) {
	return r.byColumn(ctx, "session_id", sessionID)
}

// BySessionIDForUpdate is BySessionID that, inside a transaction, holds a row lock until commit
// so concurrent webhook deliveries for one session settle it once
func (r *BookingPaymentRepositoryImpl) BySessionIDForUpdate(ctx context.Context, sessionID string) (*models.BookingPayment, error) {
	db := r.getDB(ctx)
	if tx, ok := ctx.Value(TxContextKey).(*gorm.DB); ok && tx != nil {
		db = lockForUpdate(db)
	}

	var payment models.BookingPayment
	err := db.Where("session_id = ?", sessionID).Last(&payment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find booking payment by session: %w", err)
	}
	return &payment, nil
}

// lockForUpdate adds SELECT ... FOR UPDATE; the sqlite dialect drops the clause
func lockForUpdate(db *gorm.DB) *gorm.DB {
	return db.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate})
}

func (r *BookingPaymentRepositoryImpl) applyFilter(db *gorm.DB, filter models.BookingPaymentFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		db = db.Where("uuid = ?", *filter.UUID)
	}
	if filter.PropertyID != nil {
		db = db.Where("property_id = ?", *filter.PropertyID)
	}
	if filter.SessionID != nil {
		db = db.Where("session_id = ?", *filter.SessionID)
	}
	if filter.Status != nil {
		db = db.Where("status = ?", *filter.Status)
	}
	return db
}

// ByFilter retrieves booking payments based on filter criteria
func (r *BookingPaymentRepositoryImpl) ByFilter(ctx context.Context, filter models.BookingPaymentFilter, orderBy string, limit, offset int) ([]*models.BookingPayment, error) {
	query := r.applyFilter(r.getDB(ctx).Model(&models.BookingPayment{}), filter)
	query = paginate(query, orderBy, "created_at DESC", limit, offset)

	var rows []*models.BookingPayment
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Count returns the number of booking payments matching the filter
func (r *BookingPaymentRepositoryImpl) Count(ctx context.Context, filter models.BookingPaymentFilter) (int64, error) {
	query := r.applyFilter(r.getDB(ctx).Model(&models.BookingPayment{}), filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any booking payment matching the filter exists
func (r *BookingPaymentRepositoryImpl) Exists(ctx context.Context, filter models.BookingPaymentFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
