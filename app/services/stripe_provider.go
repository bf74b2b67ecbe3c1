package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"
	"github.com/stripe/stripe-go/v78/webhook"
	"go.uber.org/zap"
)

type stripeSessionAPI interface {
	New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

type stripeTransferAPI interface {
	New(params *stripe.TransferParams) (*stripe.Transfer, error)
}

// StripeClients lets tests replace the Stripe API clients
type StripeClients struct {
	Sessions  stripeSessionAPI
	Transfers stripeTransferAPI
}

// StripeProviderConfig configures the StripeProvider
type StripeProviderConfig struct {
	APIKey        string
	WebhookSecret string
	AccountID     string
	Backends      *stripe.Backends
	Logger        *zap.Logger
	Clients       *StripeClients
}

// StripeProvider implements PaymentProvider using Stripe Checkout and Connect transfers
type StripeProvider struct {
	sessions      stripeSessionAPI
	transfers     stripeTransferAPI
	webhookSecret string
	account       string
	logger        *zap.Logger
}

// NewStripeProvider constructs a Stripe PaymentProvider using the given configuration
func NewStripeProvider(cfg StripeProviderConfig) (*StripeProvider, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" && cfg.Clients == nil {
		return nil, errors.New("stripe: api key is required")
	}
	if strings.TrimSpace(cfg.WebhookSecret) == "" {
		return nil, errors.New("stripe: webhook secret is required")
	}

	var clients StripeClients
	if cfg.Clients != nil {
		clients = *cfg.Clients
	} else {
		sc := client.New(apiKey, cfg.Backends)
		clients = StripeClients{
			Sessions:  sc.CheckoutSessions,
			Transfers: sc.Transfers,
		}
	}
	if clients.Sessions == nil || clients.Transfers == nil {
		return nil, errors.New("stripe: incomplete client configuration")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &StripeProvider{
		sessions:      clients.Sessions,
		transfers:     clients.Transfers,
		webhookSecret: cfg.WebhookSecret,
		account:       strings.TrimSpace(cfg.AccountID),
		logger:        logger,
	}, nil
}

// CreateCheckoutSession creates a Stripe Checkout session charging the whole stay as one line item
func (p *StripeProvider) CreateCheckoutSession(ctx context.Context, req CheckoutSessionRequest) (*CheckoutSession, error) {
	if req.Amount <= 0 {
		return nil, fmt.Errorf("stripe: amount must be positive, got %d", req.Amount)
	}

	product := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
		Name: stripe.String(defaultString(req.ProductName, "Booking")),
	}
	if req.Description != "" {
		product.Description = stripe.String(req.Description)
	}

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Quantity: stripe.Int64(1),
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:    stripe.String(strings.ToLower(req.Currency)),
					UnitAmount:  stripe.Int64(req.Amount),
					ProductData: product,
				},
			},
		},
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{},
	}
	params.Context = ctx
	if key := strings.TrimSpace(req.IdempotencyKey); key != "" {
		params.SetIdempotencyKey(key)
	}
	if p.account != "" {
		params.SetStripeAccount(p.account)
	}
	if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}
	if len(req.Metadata) > 0 {
		params.Metadata = copyMetadata(req.Metadata)
		params.PaymentIntentData.Metadata = copyMetadata(req.Metadata)
		if booking := req.Metadata["booking_id"]; booking != "" {
			params.PaymentIntentData.TransferGroup = stripe.String(booking)
		}
	}

	session, err := p.sessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe: create checkout session: %w", err)
	}

	intentID := ""
	if session.PaymentIntent != nil {
		intentID = session.PaymentIntent.ID
	}

	p.logger.Info("Stripe checkout session created",
		zap.String("session_id", session.ID),
		zap.String("payment_intent", intentID),
		zap.Int64("amount", req.Amount),
		zap.String("currency", req.Currency),
	)

	return &CheckoutSession{
		ID:          session.ID,
		RedirectURL: session.URL,
		IntentID:    intentID,
	}, nil
}

// CreateTransfer pays out to a connected host account
func (p *StripeProvider) CreateTransfer(ctx context.Context, req TransferRequest) (*Transfer, error) {
	if req.Amount <= 0 {
		return nil, fmt.Errorf("stripe: transfer amount must be positive, got %d", req.Amount)
	}
	if strings.TrimSpace(req.DestinationAccount) == "" {
		return nil, errors.New("stripe: transfer destination is required")
	}

	params := &stripe.TransferParams{
		Amount:      stripe.Int64(req.Amount),
		Currency:    stripe.String(strings.ToLower(req.Currency)),
		Destination: stripe.String(req.DestinationAccount),
	}
	params.Context = ctx
	if req.TransferGroup != "" {
		params.TransferGroup = stripe.String(req.TransferGroup)
	}
	if key := strings.TrimSpace(req.IdempotencyKey); key != "" {
		params.SetIdempotencyKey(key)
	}
	if len(req.Metadata) > 0 {
		params.Metadata = copyMetadata(req.Metadata)
	}

	transfer, err := p.transfers.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe: create transfer: %w", err)
	}

	p.logger.Info("Stripe transfer created",
		zap.String("transfer_id", transfer.ID),
		zap.String("destination", req.DestinationAccount),
		zap.Int64("amount", req.Amount),
	)

	return &Transfer{ID: transfer.ID}, nil
}

// ParseWebhook verifies the Stripe-Signature header and decodes checkout session events
func (p *StripeProvider) ParseWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	event, err := webhook.ConstructEvent(payload, signature, p.webhookSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWebhookSignature, err)
	}

	out := &WebhookEvent{
		ID:   event.ID,
		Type: string(event.Type),
	}

	if strings.HasPrefix(out.Type, "checkout.session.") && event.Data != nil {
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return nil, fmt.Errorf("stripe: decode checkout session: %w", err)
		}
		out.SessionID = session.ID
		out.PaymentStatus = string(session.PaymentStatus)
		out.Metadata = session.Metadata
		if session.PaymentIntent != nil {
			out.IntentID = session.PaymentIntent.ID
		}
	}

	return out, nil
}

func copyMetadata(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func defaultString(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
