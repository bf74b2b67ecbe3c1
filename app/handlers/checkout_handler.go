package handlers

import (
	"github.com/amirphl/staybook/app/dto"
	businessflow "github.com/amirphl/staybook/business_flow"
	"github.com/amirphl/staybook/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"
)

// stripeSignatureHeader carries the HMAC signature of Stripe webhook payloads
const stripeSignatureHeader = "Stripe-Signature"

// CheckoutHandlerInterface defines the booking payment endpoints
type CheckoutHandlerInterface interface {
	CreateCheckoutSession(c fiber.Ctx) error
	StripeWebhook(c fiber.Ctx) error
}

type CheckoutHandler struct {
	flow      businessflow.CheckoutFlow
	validator *validator.Validate
	logger    *zap.Logger
}

func NewCheckoutHandler(flow businessflow.CheckoutFlow, logger *zap.Logger) CheckoutHandlerInterface {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CheckoutHandler{
		flow:      flow,
		validator: validator.New(),
		logger:    logger,
	}
}

func checkoutErrorStatus(err error) int {
	switch {
	case businessflow.IsPaymentsDisabled(err):
		return fiber.StatusServiceUnavailable
	case businessflow.IsInvalidWebhook(err):
		return fiber.StatusBadRequest
	case businessflow.IsPaymentNotFound(err):
		return fiber.StatusNotFound
	case businessflow.IsCheckoutFailed(err):
		return fiber.StatusBadGateway
	default:
		return pricingErrorStatus(err)
	}
}

// CreateCheckoutSession prices a stay and opens a hosted checkout for it
// @Summary Create Checkout Session
// @Description Re-price the stay server side, open a Stripe Checkout session for the total and record a pending booking payment
// @Tags Checkout
// @Accept json
// @Produce json
// @Param request body dto.CreateCheckoutSessionRequest true "Stay and redirect URLs"
// @Success 201 {object} dto.APIResponse{data=dto.CreateCheckoutSessionResponse}
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 404 {object} dto.APIResponse "Property not found"
// @Failure 502 {object} dto.APIResponse "Payment provider rejected the session"
// @Failure 503 {object} dto.APIResponse "Payments are disabled"
// @Router /api/v1/checkout/sessions [post]
func (h *CheckoutHandler) CreateCheckoutSession(c fiber.Ctx) error {
	var req dto.CreateCheckoutSessionRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationMessages(err))
	}

	ctx, cancel := createRequestContext(c, "/api/v1/checkout/sessions", utils.RequestTimeout)
	defer cancel()

	res, err := h.flow.CreateCheckoutSession(ctx, &req)
	if err != nil {
		return businessErrorResponse(c, h.logger, checkoutErrorStatus(err), "CHECKOUT_FAILED", "Failed to create checkout session", err)
	}
	return successResponse(c, fiber.StatusCreated, res.Message, res)
}

// StripeWebhook receives Stripe events
// @Summary Stripe Webhook
// @Description Verify and apply a Stripe event. Completed sessions mark the payment paid and transfer the host payout.
// @Tags Checkout
// @Accept json
// @Produce json
// @Param Stripe-Signature header string true "Stripe signature"
// @Success 200 {object} dto.APIResponse{data=dto.PaymentWebhookResponse}
// @Failure 400 {object} dto.APIResponse "Signature verification failed"
// @Failure 404 {object} dto.APIResponse "Unknown checkout session"
// @Router /api/v1/payments/stripe/webhook [post]
func (h *CheckoutHandler) StripeWebhook(c fiber.Ctx) error {
	signature := c.Get(stripeSignatureHeader)
	if signature == "" {
		return errorResponse(c, fiber.StatusBadRequest, "Missing webhook signature", "MISSING_SIGNATURE", nil)
	}

	// the body buffer is reused by fasthttp after the handler returns
	payload := append([]byte(nil), c.Body()...)

	ctx, cancel := createRequestContext(c, "/api/v1/payments/stripe/webhook", utils.RequestTimeout)
	defer cancel()

	res, err := h.flow.HandlePaymentWebhook(ctx, &dto.PaymentWebhookRequest{Payload: payload, Signature: signature})
	if err != nil {
		return businessErrorResponse(c, h.logger, checkoutErrorStatus(err), "WEBHOOK_FAILED", "Failed to process webhook", err)
	}
	return successResponse(c, fiber.StatusOK, "Webhook processed", res)
}
