package services

import (
	"context"
	"errors"
)

// ErrInvalidWebhookSignature is returned when an inbound webhook fails verification
var ErrInvalidWebhookSignature = errors.New("payments: invalid webhook signature")

// Webhook event types the checkout flow reacts to
const (
	EventCheckoutSessionCompleted = "checkout.session.completed"
	EventCheckoutSessionExpired   = "checkout.session.expired"
)

// CheckoutSessionRequest captures the payload required to create a hosted checkout session
type CheckoutSessionRequest struct {
	// Amount is in minor units of Currency
	Amount         int64
	Currency       string
	ProductName    string
	Description    string
	CustomerEmail  string
	SuccessURL     string
	CancelURL      string
	Metadata       map[string]string
	IdempotencyKey string
}

// CheckoutSession represents the provider session returned to the guest
type CheckoutSession struct {
	ID          string
	RedirectURL string
	IntentID    string
}

// TransferRequest moves funds from the platform balance to a connected host account
type TransferRequest struct {
	Amount             int64
	Currency           string
	DestinationAccount string
	TransferGroup      string
	Metadata           map[string]string
	IdempotencyKey     string
}

// Transfer is the provider's record of a payout transfer
type Transfer struct {
	ID string
}

// WebhookEvent is a verified, normalised provider event
type WebhookEvent struct {
	ID            string
	Type          string
	SessionID     string
	IntentID      string
	PaymentStatus string
	Metadata      map[string]string
}

// PaymentProvider is the payment service the checkout flow charges guests and pays hosts through
type PaymentProvider interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutSessionRequest) (*CheckoutSession, error)
	CreateTransfer(ctx context.Context, req TransferRequest) (*Transfer, error)
	// ParseWebhook verifies signature against payload and decodes the event
	ParseWebhook(payload []byte, signature string) (*WebhookEvent, error)
}
