package handlers

import (
	"github.com/amirphl/staybook/app/dto"
	businessflow "github.com/amirphl/staybook/business_flow"
	"github.com/amirphl/staybook/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"
)

// PricingAdminHandlerInterface defines the admin endpoints that maintain pricing data
type PricingAdminHandlerInterface interface {
	UpsertPropertyPricing(c fiber.Ctx) error
	CreateSeasonalPrice(c fiber.Ctx) error
	ListSeasonalPrices(c fiber.Ctx) error
	UpsertPropertyFees(c fiber.Ctx) error
	CreatePricingRule(c fiber.Ctx) error
	ListPricingRules(c fiber.Ctx) error
	SetPricingRuleActive(c fiber.Ctx) error
}

type PricingAdminHandler struct {
	flow      businessflow.PricingAdminFlow
	validator *validator.Validate
	logger    *zap.Logger
}

func NewPricingAdminHandler(flow businessflow.PricingAdminFlow, logger *zap.Logger) PricingAdminHandlerInterface {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PricingAdminHandler{
		flow:      flow,
		validator: validator.New(),
		logger:    logger,
	}
}

// adminErrorStatus maps admin pricing failures to HTTP status codes
func adminErrorStatus(err error) int {
	switch {
	case businessflow.IsPropertyNotFound(err), businessflow.IsPricingRuleNotFound(err):
		return fiber.StatusNotFound
	case businessflow.IsSeasonalPriceOverlap(err):
		return fiber.StatusConflict
	case businessflow.IsInvalidCommissionRate(err),
		businessflow.IsInvalidSeasonalRange(err),
		businessflow.IsInvalidWeekendFactor(err),
		businessflow.IsInvalidPricingRule(err),
		businessflow.IsInvalidDiscountPercent(err),
		businessflow.IsInvalidDate(err),
		businessflow.IsInvalidAmount(err),
		businessflow.IsPropertyIDMismatch(err):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

// validate writes the 400 response itself and reports false when req breaks its validation tags
func (h *PricingAdminHandler) validate(c fiber.Ctx, req any) (bool, error) {
	if err := h.validator.Struct(req); err != nil {
		return false, errorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationMessages(err))
	}
	return true, nil
}

// propertyIDParam reads the property_id path segment, answering 400 when it is not a UUID
func (h *PricingAdminHandler) propertyIDParam(c fiber.Ctx) (string, bool, error) {
	propertyID := c.Params("property_id")
	if err := h.validator.Var(propertyID, "required,uuid"); err != nil {
		return "", false, errorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", []string{"property_id must be a valid UUID"})
	}
	return propertyID, true, nil
}

// UpsertPropertyPricing creates or updates a property's base price and commission
// @Summary Upsert Property Pricing
// @Tags Admin Pricing
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.AdminUpsertPropertyPricingRequest true "Property pricing"
// @Success 200 {object} dto.APIResponse{data=dto.AdminUpsertPropertyPricingResponse}
// @Success 201 {object} dto.APIResponse{data=dto.AdminUpsertPropertyPricingResponse}
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Router /api/v1/admin/properties/pricing [put]
func (h *PricingAdminHandler) UpsertPropertyPricing(c fiber.Ctx) error {
	var req dto.AdminUpsertPropertyPricingRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if ok, err := h.validate(c, &req); !ok {
		return err
	}

	ctx, cancel := createRequestContext(c, "/api/v1/admin/properties/pricing", utils.RequestTimeout)
	defer cancel()

	res, err := h.flow.UpsertPropertyPricing(ctx, &req)
	if err != nil {
		return businessErrorResponse(c, h.logger, adminErrorStatus(err), "PROPERTY_UPSERT_FAILED", "Failed to save property pricing", err)
	}

	status := fiber.StatusOK
	if res.Created {
		status = fiber.StatusCreated
	}
	return successResponse(c, status, res.Message, res)
}

// CreateSeasonalPrice adds a seasonal nightly price to a property
// @Summary Create Seasonal Price
// @Tags Admin Pricing
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param property_id path string true "Property UUID"
// @Param request body dto.AdminCreateSeasonalPriceRequest true "Seasonal price"
// @Success 201 {object} dto.APIResponse{data=dto.AdminCreateSeasonalPriceResponse}
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 404 {object} dto.APIResponse "Property not found"
// @Failure 409 {object} dto.APIResponse "Overlaps an existing seasonal price"
// @Router /api/v1/admin/properties/{property_id}/seasonal-prices [post]
func (h *PricingAdminHandler) CreateSeasonalPrice(c fiber.Ctx) error {
	var req dto.AdminCreateSeasonalPriceRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	req.PropertyID = c.Params("property_id")
	if ok, err := h.validate(c, &req); !ok {
		return err
	}

	ctx, cancel := createRequestContext(c, "/api/v1/admin/properties/seasonal-prices", utils.RequestTimeout)
	defer cancel()

	res, err := h.flow.CreateSeasonalPrice(ctx, &req)
	if err != nil {
		return businessErrorResponse(c, h.logger, adminErrorStatus(err), "SEASONAL_PRICE_CREATE_FAILED", "Failed to create seasonal price", err)
	}
	return successResponse(c, fiber.StatusCreated, res.Message, res)
}

// ListSeasonalPrices lists a property's seasonal prices
// @Summary List Seasonal Prices
// @Tags Admin Pricing
// @Produce json
// @Security BearerAuth
// @Param property_id path string true "Property UUID"
// @Success 200 {object} dto.APIResponse{data=dto.AdminListSeasonalPricesResponse}
// @Failure 400 {object} dto.APIResponse "Malformed property id"
// @Failure 404 {object} dto.APIResponse "Property not found"
// @Router /api/v1/admin/properties/{property_id}/seasonal-prices [get]
func (h *PricingAdminHandler) ListSeasonalPrices(c fiber.Ctx) error {
	propertyID, ok, err := h.propertyIDParam(c)
	if !ok {
		return err
	}

	ctx, cancel := createRequestContext(c, "/api/v1/admin/properties/seasonal-prices", utils.RequestTimeout)
	defer cancel()

	res, err := h.flow.ListSeasonalPrices(ctx, propertyID)
	if err != nil {
		return businessErrorResponse(c, h.logger, adminErrorStatus(err), "SEASONAL_PRICE_LIST_FAILED", "Failed to list seasonal prices", err)
	}
	return successResponse(c, fiber.StatusOK, res.Message, res)
}

// UpsertPropertyFees replaces a property's fee schedule
// @Summary Upsert Property Fees
// @Tags Admin Pricing
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param property_id path string true "Property UUID"
// @Param request body dto.AdminUpsertPropertyFeesRequest true "Fee schedule"
// @Success 200 {object} dto.APIResponse{data=dto.AdminUpsertPropertyFeesResponse}
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 404 {object} dto.APIResponse "Property not found"
// @Router /api/v1/admin/properties/{property_id}/fees [put]
func (h *PricingAdminHandler) UpsertPropertyFees(c fiber.Ctx) error {
	var req dto.AdminUpsertPropertyFeesRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	req.PropertyID = c.Params("property_id")
	if ok, err := h.validate(c, &req); !ok {
		return err
	}

	ctx, cancel := createRequestContext(c, "/api/v1/admin/properties/fees", utils.RequestTimeout)
	defer cancel()

	res, err := h.flow.UpsertPropertyFees(ctx, &req)
	if err != nil {
		return businessErrorResponse(c, h.logger, adminErrorStatus(err), "PROPERTY_FEES_SAVE_FAILED", "Failed to save fee schedule", err)
	}
	return successResponse(c, fiber.StatusOK, res.Message, res)
}

// CreatePricingRule adds a discount rule to a property
// @Summary Create Pricing Rule
// @Tags Admin Pricing
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param property_id path string true "Property UUID"
// @Param request body dto.AdminCreatePricingRuleRequest true "Pricing rule"
// @Success 201 {object} dto.APIResponse{data=dto.AdminCreatePricingRuleResponse}
// @Failure 400 {object} dto.APIResponse "Validation error or conditions that do not fit the rule type"
// @Failure 404 {object} dto.APIResponse "Property not found"
// @Router /api/v1/admin/properties/{property_id}/pricing-rules [post]
func (h *PricingAdminHandler) CreatePricingRule(c fiber.Ctx) error {
	var req dto.AdminCreatePricingRuleRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	req.PropertyID = c.Params("property_id")
	if ok, err := h.validate(c, &req); !ok {
		return err
	}

	ctx, cancel := createRequestContext(c, "/api/v1/admin/properties/pricing-rules", utils.RequestTimeout)
	defer cancel()

	res, err := h.flow.CreatePricingRule(ctx, &req)
	if err != nil {
		return businessErrorResponse(c, h.logger, adminErrorStatus(err), "PRICING_RULE_CREATE_FAILED", "Failed to create pricing rule", err)
	}
	return successResponse(c, fiber.StatusCreated, res.Message, res)
}

// ListPricingRules lists a property's discount rules, active or not
// @Summary List Pricing Rules
// @Tags Admin Pricing
// @Produce json
// @Security BearerAuth
// @Param property_id path string true "Property UUID"
// @Success 200 {object} dto.APIResponse{data=dto.AdminListPricingRulesResponse}
// @Failure 400 {object} dto.APIResponse "Malformed property id"
// @Failure 404 {object} dto.APIResponse "Property not found"
// @Router /api/v1/admin/properties/{property_id}/pricing-rules [get]
func (h *PricingAdminHandler) ListPricingRules(c fiber.Ctx) error {
	propertyID, ok, err := h.propertyIDParam(c)
	if !ok {
		return err
	}

	ctx, cancel := createRequestContext(c, "/api/v1/admin/properties/pricing-rules", utils.RequestTimeout)
	defer cancel()

	res, err := h.flow.ListPricingRules(ctx, propertyID)
	if err != nil {
		return businessErrorResponse(c, h.logger, adminErrorStatus(err), "PRICING_RULE_LIST_FAILED", "Failed to list pricing rules", err)
	}
	return successResponse(c, fiber.StatusOK, res.Message, res)
}

// SetPricingRuleActive enables or disables a discount rule
// @Summary Toggle Pricing Rule
// @Tags Admin Pricing
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param rule_id path string true "Rule UUID"
// @Param request body dto.AdminSetPricingRuleActiveRequest true "Desired state"
// @Success 200 {object} dto.APIResponse{data=dto.AdminSetPricingRuleActiveResponse}
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 404 {object} dto.APIResponse "Rule not found"
// @Router /api/v1/admin/pricing-rules/{rule_id} [patch]
func (h *PricingAdminHandler) SetPricingRuleActive(c fiber.Ctx) error {
	var req dto.AdminSetPricingRuleActiveRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	req.RuleID = c.Params("rule_id")
	if ok, err := h.validate(c, &req); !ok {
		return err
	}

	ctx, cancel := createRequestContext(c, "/api/v1/admin/pricing-rules", utils.RequestTimeout)
	defer cancel()

	res, err := h.flow.SetPricingRuleActive(ctx, &req)
	if err != nil {
		return businessErrorResponse(c, h.logger, adminErrorStatus(err), "PRICING_RULE_UPDATE_FAILED", "Failed to update pricing rule", err)
	}
	return successResponse(c, fiber.StatusOK, res.Message, res)
}
