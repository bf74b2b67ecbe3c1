package businessflow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/amirphl/staybook/app/dto"
	"github.com/amirphl/staybook/app/services"
	"github.com/amirphl/staybook/models"
	"github.com/amirphl/staybook/repository"
	"github.com/amirphl/staybook/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const paymentStatusPaid = "paid"

// CheckoutFlow charges guests for priced stays and pays hosts out once the charge settles
type CheckoutFlow interface {
	CreateCheckoutSession(ctx context.Context, req *dto.CreateCheckoutSessionRequest) (*dto.CreateCheckoutSessionResponse, error)
	HandlePaymentWebhook(ctx context.Context, req *dto.PaymentWebhookRequest) (*dto.PaymentWebhookResponse, error)
}

type CheckoutFlowImpl struct {
	pricer       BookingPricer
	provider     services.PaymentProvider
	propertyRepo repository.PropertyRepository
	paymentRepo  repository.BookingPaymentRepository
	db           *gorm.DB
	currency     string
	logger       *zap.Logger
}

// NewCheckoutFlow wires the checkout flow; provider may be nil when payments are disabled
func NewCheckoutFlow(
	pricer BookingPricer,
	provider services.PaymentProvider,
	propertyRepo repository.PropertyRepository,
	paymentRepo repository.BookingPaymentRepository,
	db *gorm.DB,
	currency string,
	logger *zap.Logger,
) CheckoutFlow {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CheckoutFlowImpl{
		pricer:       pricer,
		provider:     provider,
		propertyRepo: propertyRepo,
		paymentRepo:  paymentRepo,
		db:           db,
		currency:     strings.ToLower(currency),
		logger:       logger,
	}
}

// CreateCheckoutSession re-prices the stay, opens a provider checkout for the total and records the pending payment
func (f *CheckoutFlowImpl) CreateCheckoutSession(ctx context.Context, req *dto.CreateCheckoutSessionRequest) (*dto.CreateCheckoutSessionResponse, error) {
	if f.provider == nil {
		return nil, NewBusinessError("PAYMENTS_DISABLED", "Payments are not configured", ErrPaymentsDisabled)
	}

	preq, err := toPricingRequest(req.PropertyID, req.CheckIn, req.CheckOut, req.GuestCount, req.PetCount)
	if err != nil {
		return nil, err
	}

	property, err := f.propertyRepo.ByUUID(ctx, preq.PropertyID)
	if err != nil {
		return nil, NewBusinessError("PROPERTY_LOOKUP_FAILED", "Failed to load property", err)
	}
	if property == nil {
		return nil, NewBusinessError("PROPERTY_NOT_FOUND", "Property not found", ErrPropertyNotFound)
	}

	bd, err := f.pricer.Price(ctx, preq)
	if err != nil {
		return nil, translatePricingError(err)
	}

	total := bd.Total.Round(2)
	amount := toMinorUnits(total)
	if amount <= 0 {
		return nil, NewBusinessError("CHECKOUT_FAILED", "Booking total must be greater than zero", ErrCheckoutFailed)
	}

	bookingID := uuid.New()
	checkIn := utils.FormatDate(bd.CheckIn)
	checkOut := utils.FormatDate(bd.CheckOut)

	session, err := f.provider.CreateCheckoutSession(ctx, services.CheckoutSessionRequest{
		Amount:        amount,
		Currency:      f.currency,
		ProductName:   fmt.Sprintf("%s, %d nights", property.Title, bd.Nights),
		Description:   fmt.Sprintf("%s to %s, %d guests", checkIn, checkOut, bd.GuestCount),
		CustomerEmail: req.CustomerEmail,
		SuccessURL:    req.SuccessURL,
		CancelURL:     req.CancelURL,
		Metadata: map[string]string{
			"booking_id":  bookingID.String(),
			"property_id": property.UUID.String(),
			"check_in":    checkIn,
			"check_out":   checkOut,
		},
		IdempotencyKey: "checkout-" + bookingID.String(),
	})
	if err != nil {
		return nil, NewBusinessError("CHECKOUT_FAILED", "Failed to create checkout session", errors.Join(ErrCheckoutFailed, err))
	}

	now := utils.UTCNow()
	payment := &models.BookingPayment{
		UUID:            bookingID,
		PropertyID:      property.ID,
		CheckIn:         bd.CheckIn,
		CheckOut:        bd.CheckOut,
		GuestCount:      bd.GuestCount,
		PetCount:        bd.PetCount,
		Currency:        f.currency,
		Total:           total,
		ServiceFee:      bd.ServiceFee.Round(2),
		TaxAmount:       bd.TaxAmount.Round(2),
		HostPayout:      bd.HostPayout().Round(2),
		SecurityDeposit: bd.SecurityDeposit.Round(2),
		SessionID:       session.ID,
		Status:          models.BookingPaymentStatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if session.IntentID != "" {
		payment.PaymentIntentID = utils.ToPtr(session.IntentID)
	}
	if err := f.paymentRepo.Save(ctx, payment); err != nil {
		f.logger.Error("Checkout session created but booking payment not recorded",
			zap.String("session_id", session.ID),
			zap.String("booking_id", bookingID.String()),
			zap.Error(err),
		)
		return nil, NewBusinessError("BOOKING_PAYMENT_SAVE_FAILED", "Failed to record booking payment", err)
	}

	md := ClientMetadataFromContext(ctx)
	f.logger.Info("Checkout session created",
		zap.String("booking_id", bookingID.String()),
		zap.String("session_id", session.ID),
		zap.String("property_id", property.UUID.String()),
		zap.String("total", total.String()),
		zap.String("request_id", md.RequestID),
	)

	return &dto.CreateCheckoutSessionResponse{
		Message:     "Checkout session created successfully",
		BookingID:   bookingID.String(),
		SessionID:   session.ID,
		RedirectURL: session.RedirectURL,
		Amount:      money(total),
		Currency:    strings.ToUpper(f.currency),
		Quote:       ToPriceQuoteResponse(bd, f.currency),
	}, nil
}

// HandlePaymentWebhook verifies a provider event and settles the booking payment it refers to.
// Replayed events for payments that already left the pending state are acknowledged without side effects.
func (f *CheckoutFlowImpl) HandlePaymentWebhook(ctx context.Context, req *dto.PaymentWebhookRequest) (*dto.PaymentWebhookResponse, error) {
	if f.provider == nil {
		return nil, NewBusinessError("PAYMENTS_DISABLED", "Payments are not configured", ErrPaymentsDisabled)
	}

	event, err := f.provider.ParseWebhook(req.Payload, req.Signature)
	if err != nil {
		return nil, NewBusinessError("INVALID_WEBHOOK", "Webhook signature verification failed", errors.Join(ErrInvalidWebhook, err))
	}

	res := &dto.PaymentWebhookResponse{EventID: event.ID, EventType: event.Type}

	switch event.Type {
	case services.EventCheckoutSessionCompleted:
		if event.PaymentStatus != "" && event.PaymentStatus != paymentStatusPaid {
			f.logger.Info("Checkout completed without settled payment, waiting",
				zap.String("session_id", event.SessionID),
				zap.String("payment_status", event.PaymentStatus),
			)
			return res, nil
		}
		return f.settle(ctx, event, res)
	case services.EventCheckoutSessionExpired:
		return f.expire(ctx, event, res)
	default:
		f.logger.Debug("Ignoring payment event", zap.String("event_id", event.ID), zap.String("type", event.Type))
		return res, nil
	}
}

func (f *CheckoutFlowImpl) settle(ctx context.Context, event *services.WebhookEvent, res *dto.PaymentWebhookResponse) (*dto.PaymentWebhookResponse, error) {
	var (
		payment  *models.BookingPayment
		property *models.Property
		settled  bool
	)
	err := repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		var err error
		payment, err = f.paymentByEvent(txCtx, event)
		if err != nil {
			return err
		}
		if !payment.IsPending() {
			return nil
		}

		payment.Status = models.BookingPaymentStatusPaid
		payment.PaidAt = utils.UTCNowPtr()
		payment.UpdatedAt = utils.UTCNow()
		if event.IntentID != "" {
			payment.PaymentIntentID = utils.ToPtr(event.IntentID)
		}
		if err := f.paymentRepo.Update(txCtx, payment); err != nil {
			return NewBusinessError("BOOKING_PAYMENT_UPDATE_FAILED", "Failed to update booking payment", err)
		}

		property, err = f.propertyRepo.ByID(txCtx, payment.PropertyID)
		if err != nil {
			return NewBusinessError("PROPERTY_LOOKUP_FAILED", "Failed to load property", err)
		}
		settled = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	res.BookingID = payment.UUID.String()
	res.Status = string(payment.Status)
	if !settled {
		f.logger.Info("Booking payment already settled", zap.String("booking_id", res.BookingID), zap.String("status", res.Status))
		return res, nil
	}
	res.Handled = true

	f.logger.Info("Booking payment marked paid",
		zap.String("booking_id", res.BookingID),
		zap.String("session_id", payment.SessionID),
		zap.String("total", payment.Total.String()),
	)

	if property == nil || strings.TrimSpace(utils.DerefString(property.HostAccountID)) == "" {
		return res, nil
	}

	f.payout(ctx, payment, *property.HostAccountID)
	res.Status = string(payment.Status)
	return res, nil
}

// payout transfers the host's share; a failed transfer is recorded on the payment instead of failing the webhook
func (f *CheckoutFlowImpl) payout(ctx context.Context, payment *models.BookingPayment, destination string) {
	amount := toMinorUnits(payment.HostPayout)
	if amount <= 0 {
		return
	}

	transfer, err := f.provider.CreateTransfer(ctx, services.TransferRequest{
		Amount:             amount,
		Currency:           payment.Currency,
		DestinationAccount: destination,
		TransferGroup:      payment.UUID.String(),
		Metadata:           map[string]string{"booking_id": payment.UUID.String()},
		IdempotencyKey:     "payout-" + payment.UUID.String(),
	})
	if err != nil {
		payment.Status = models.BookingPaymentStatusFailed
		payment.StatusReason = errors.Join(ErrPayoutTransferFailed, err).Error()
		f.logger.Error("Host payout transfer failed",
			zap.String("booking_id", payment.UUID.String()),
			zap.String("destination", destination),
			zap.Error(err),
		)
	} else {
		payment.Status = models.BookingPaymentStatusTransferred
		payment.TransferID = utils.ToPtr(transfer.ID)
	}
	payment.UpdatedAt = utils.UTCNow()

	if err := f.paymentRepo.Update(ctx, payment); err != nil {
		f.logger.Error("Failed to record payout outcome",
			zap.String("booking_id", payment.UUID.String()),
			zap.String("status", string(payment.Status)),
			zap.Error(err),
		)
	}
}

func (f *CheckoutFlowImpl) expire(ctx context.Context, event *services.WebhookEvent, res *dto.PaymentWebhookResponse) (*dto.PaymentWebhookResponse, error) {
	var payment *models.BookingPayment
	expired := false
	err := repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		var err error
		payment, err = f.paymentByEvent(txCtx, event)
		if err != nil {
			return err
		}
		if !payment.IsPending() {
			return nil
		}
		payment.Status = models.BookingPaymentStatusFailed
		payment.StatusReason = "checkout session expired"
		payment.UpdatedAt = utils.UTCNow()
		if err := f.paymentRepo.Update(txCtx, payment); err != nil {
			return NewBusinessError("BOOKING_PAYMENT_UPDATE_FAILED", "Failed to update booking payment", err)
		}
		expired = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	res.BookingID = payment.UUID.String()
	res.Status = string(payment.Status)
	res.Handled = expired
	return res, nil
}

// paymentByEvent locks the payment row of the event's session; callers run it inside a transaction
func (f *CheckoutFlowImpl) paymentByEvent(ctx context.Context, event *services.WebhookEvent) (*models.BookingPayment, error) {
	if event.SessionID == "" {
		return nil, NewBusinessError("BOOKING_PAYMENT_NOT_FOUND", "Event carries no checkout session", ErrPaymentNotFound)
	}
	payment, err := f.paymentRepo.BySessionIDForUpdate(ctx, event.SessionID)
	if err != nil {
		return nil, NewBusinessError("BOOKING_PAYMENT_LOOKUP_FAILED", "Failed to load booking payment", err)
	}
	if payment == nil {
		return nil, NewBusinessErrorf("BOOKING_PAYMENT_NOT_FOUND", "No booking payment for session %s", ErrPaymentNotFound, event.SessionID)
	}
	return payment, nil
}

// toMinorUnits converts a two-decimal currency amount to cents
func toMinorUnits(d decimal.Decimal) int64 {
	return d.Shift(2).Round(0).IntPart()
}
