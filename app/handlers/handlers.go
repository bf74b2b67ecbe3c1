// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/amirphl/staybook/app/dto"
	"github.com/amirphl/staybook/app/middleware"
	businessflow "github.com/amirphl/staybook/business_flow"
	"github.com/amirphl/staybook/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/requestid"
	"go.uber.org/zap"
)

func getValidationErrorMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return err.Field() + " is required"
	case "email":
		return "Invalid email format"
	case "uuid":
		return err.Field() + " must be a valid UUID"
	case "url":
		return err.Field() + " must be a valid URL"
	case "datetime":
		return err.Field() + " must be a date formatted as " + err.Param()
	case "numeric":
		return err.Field() + " must be a decimal number"
	case "max":
		return err.Field() + " must be at most " + err.Param() + " characters"
	case "oneof":
		return err.Field() + " must be one of: " + err.Param()
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", err.Field(), err.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", err.Field(), err.Param())
	default:
		return err.Field() + " is invalid"
	}
}

// validationMessages flattens validator errors into readable messages
func validationMessages(err error) []string {
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return []string{err.Error()}
	}
	messages := make([]string, 0, len(fieldErrors))
	for _, e := range fieldErrors {
		messages = append(messages, getValidationErrorMessage(e))
	}
	return messages
}

func errorResponse(c fiber.Ctx, status int, message, code string, details any) error {
	return c.Status(status).JSON(dto.APIResponse{Success: false, Message: message, Error: dto.ErrorDetail{Code: code, Details: details}})
}

func successResponse(c fiber.Ctx, status int, message string, data any) error {
	return c.Status(status).JSON(dto.APIResponse{Success: true, Message: message, Data: data})
}

// businessErrorResponse answers with the flow's own error code; unexpected failures are logged and hidden
func businessErrorResponse(c fiber.Ctx, logger *zap.Logger, status int, fallbackCode, fallbackMessage string, err error) error {
	if status >= fiber.StatusInternalServerError {
		logger.Error(fallbackMessage,
			zap.String("path", c.Path()),
			zap.String("request_id", requestid.FromContext(c)),
			zap.Error(err),
		)
	}
	if be, ok := businessflow.IsBusinessError(err); ok && status < fiber.StatusInternalServerError {
		return errorResponse(c, status, be.Message, be.Code, nil)
	}
	return errorResponse(c, status, fallbackMessage, fallbackCode, nil)
}

// createRequestContext carries request-scoped values into the business flow and bounds it by timeout
func createRequestContext(c fiber.Ctx, endpoint string, timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(c.Context(), timeout)
	requestID := requestid.FromContext(c)
	if requestID == "" {
		requestID = c.Get("X-Request-ID")
	}
	ctx = context.WithValue(ctx, utils.RequestIDKey, requestID)
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, timeout)
	if adminID, ok := middleware.GetAdminIDFromContext(c); ok {
		ctx = context.WithValue(ctx, utils.AdminIDKey, adminID)
	}
	return ctx, cancel
}

// pricingErrorStatus maps pricing failures to HTTP status codes
func pricingErrorStatus(err error) int {
	switch {
	case businessflow.IsPropertyNotFound(err):
		return fiber.StatusNotFound
	case businessflow.IsInvalidStayRange(err),
		businessflow.IsInvalidOccupancy(err),
		businessflow.IsInvalidDate(err):
		return fiber.StatusBadRequest
	case businessflow.IsPricingTimeout(err):
		return fiber.StatusGatewayTimeout
	case businessflow.IsPricingUpstream(err):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}
