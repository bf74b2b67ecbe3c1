package handlers

import (
	"fmt"

	"github.com/amirphl/staybook/app/dto"
	businessflow "github.com/amirphl/staybook/business_flow"
	"github.com/amirphl/staybook/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"
)

// PricingHandlerInterface defines the guest-facing quote endpoints
type PricingHandlerInterface interface {
	Quote(c fiber.Ctx) error
	ExportQuote(c fiber.Ctx) error
}

// PricingHandler serves price quotes
type PricingHandler struct {
	flow      businessflow.PricingFlow
	validator *validator.Validate
	logger    *zap.Logger
}

func NewPricingHandler(flow businessflow.PricingFlow, logger *zap.Logger) PricingHandlerInterface {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PricingHandler{
		flow:      flow,
		validator: validator.New(),
		logger:    logger,
	}
}

func (h *PricingHandler) bindQuote(c fiber.Ctx) (*dto.PriceQuoteRequest, error) {
	var req dto.PriceQuoteRequest
	if err := c.Bind().JSON(&req); err != nil {
		return nil, errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return nil, errorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationMessages(err))
	}
	return &req, nil
}

// Quote prices a stay
// @Summary Price Quote
// @Description Compute the itemised price of a stay: nightly rates, discounts, fees, service fee and tax
// @Tags Pricing
// @Accept json
// @Produce json
// @Param request body dto.PriceQuoteRequest true "Stay to price"
// @Success 200 {object} dto.APIResponse{data=dto.PriceQuoteResponse}
// @Failure 400 {object} dto.APIResponse "Validation error, invalid stay range or occupancy"
// @Failure 404 {object} dto.APIResponse "Property not found"
// @Failure 502 {object} dto.APIResponse "Pricing data could not be loaded"
// @Failure 504 {object} dto.APIResponse "Pricing data took too long to load"
// @Router /api/v1/pricing/quote [post]
func (h *PricingHandler) Quote(c fiber.Ctx) error {
	req, err := h.bindQuote(c)
	if req == nil {
		return err
	}

	ctx, cancel := createRequestContext(c, "/api/v1/pricing/quote", utils.RequestTimeout)
	defer cancel()

	res, err := h.flow.CalculateBookingPrice(ctx, req)
	if err != nil {
		return businessErrorResponse(c, h.logger, pricingErrorStatus(err), "QUOTE_FAILED", "Price quote failed", err)
	}

	message := "Price calculated successfully"
	if res.Estimated {
		message = "Price estimated from the base nightly price"
	}
	return successResponse(c, fiber.StatusOK, message, res)
}

// ExportQuote prices a stay and returns it as a spreadsheet
// @Summary Export Price Quote
// @Description Compute the price of a stay and download it as an XLSX workbook with Quote and Nights sheets
// @Tags Pricing
// @Accept json
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param request body dto.PriceQuoteRequest true "Stay to price"
// @Success 200 {file} file
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 404 {object} dto.APIResponse "Property not found"
// @Router /api/v1/pricing/quote/export [post]
func (h *PricingHandler) ExportQuote(c fiber.Ctx) error {
	req, err := h.bindQuote(c)
	if req == nil {
		return err
	}

	ctx, cancel := createRequestContext(c, "/api/v1/pricing/quote/export", utils.RequestTimeout)
	defer cancel()

	export, err := h.flow.ExportBookingPrice(ctx, req)
	if err != nil {
		return businessErrorResponse(c, h.logger, pricingErrorStatus(err), "QUOTE_EXPORT_FAILED", "Price quote export failed", err)
	}

	c.Set(fiber.HeaderContentType, export.ContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", export.Filename))
	return c.Status(fiber.StatusOK).Send(export.Data)
}
