package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// BookingPaymentStatus represents the lifecycle of a booking payment
type BookingPaymentStatus string

const (
	BookingPaymentStatusPending     BookingPaymentStatus = "pending"     // Checkout session created, waiting for the guest
	BookingPaymentStatusPaid        BookingPaymentStatus = "paid"        // Provider confirmed the charge
	BookingPaymentStatusTransferred BookingPaymentStatus = "transferred" // Host payout transferred
	BookingPaymentStatusFailed      BookingPaymentStatus = "failed"      // Session expired or payout transfer failed
)

// BookingPayment records a priced booking sent to the payment provider and the commission kept by the platform
type BookingPayment struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UUID       uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"uuid"`
	PropertyID uint      `gorm:"not null;index" json:"property_id"`

	CheckIn    time.Time `gorm:"type:date;not null" json:"check_in"`
	CheckOut   time.Time `gorm:"type:date;not null" json:"check_out"`
	GuestCount int       `gorm:"not null" json:"guest_count"`
	PetCount   int       `gorm:"not null" json:"pet_count"`

	// Amounts in major units, as priced
	Currency        string          `gorm:"type:varchar(3);not null" json:"currency"`
	Total           decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total"`
	ServiceFee      decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"service_fee"` // platform commission
	TaxAmount       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"tax_amount"`
	HostPayout      decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"host_payout"`
	SecurityDeposit decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"security_deposit"`

	// Provider references
	SessionID       string  `gorm:"type:varchar(255);uniqueIndex;not null" json:"session_id"`
	PaymentIntentID *string `gorm:"type:varchar(255);index" json:"payment_intent_id,omitempty"`
	TransferID      *string `gorm:"type:varchar(255)" json:"transfer_id,omitempty"`

	Status       BookingPaymentStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	StatusReason string               `gorm:"type:text" json:"status_reason"`

	PaidAt    *time.Time `json:"paid_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// BeforeCreate ensures UUID is set
func (bp *BookingPayment) BeforeCreate(tx *gorm.DB) error {
	if bp.UUID == uuid.Nil {
		bp.UUID = uuid.New()
	}
	return nil
}

// TableName specifies the table name for GORM
func (BookingPayment) TableName() string {
	return "booking_payments"
}

// IsPending reports whether the payment still waits for provider confirmation
func (bp *BookingPayment) IsPending() bool {
	return bp.Status == BookingPaymentStatusPending
}

// BookingPaymentFilter represents filter criteria for booking payment queries
type BookingPaymentFilter struct {
	ID         *uint                 `json:"id,omitempty"`
	UUID       *uuid.UUID            `json:"uuid,omitempty"`
	PropertyID *uint                 `json:"property_id,omitempty"`
	SessionID  *string               `json:"session_id,omitempty"`
	Status     *BookingPaymentStatus `json:"status,omitempty"`
}
