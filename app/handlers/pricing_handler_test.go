package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/amirphl/staybook/app/dto"
	"github.com/amirphl/staybook/app/handlers"
	businessflow "github.com/amirphl/staybook/business_flow"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPropertyID = "4f9c3c52-7d1e-4b8e-9a53-0a3b8f1c2d44"

type fakePricingFlow struct {
	quote   func(req *dto.PriceQuoteRequest) (*dto.PriceQuoteResponse, error)
	export  func(req *dto.PriceQuoteRequest) (*dto.PriceQuoteExport, error)
	lastReq *dto.PriceQuoteRequest
	calls   int
}

func (f *fakePricingFlow) CalculateBookingPrice(_ context.Context, req *dto.PriceQuoteRequest) (*dto.PriceQuoteResponse, error) {
	f.calls++
	f.lastReq = req
	return f.quote(req)
}

func (f *fakePricingFlow) ExportBookingPrice(_ context.Context, req *dto.PriceQuoteRequest) (*dto.PriceQuoteExport, error) {
	f.calls++
	f.lastReq = req
	return f.export(req)
}

var _ businessflow.PricingFlow = (*fakePricingFlow)(nil)

func jsonRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()
	var payload io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		payload = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, payload)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeResponse(t *testing.T, resp *http.Response) dto.APIResponse {
	t.Helper()
	defer resp.Body.Close()
	var out dto.APIResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func errorCode(t *testing.T, res dto.APIResponse) string {
	t.Helper()
	raw, err := json.Marshal(res.Error)
	require.NoError(t, err)
	var detail dto.ErrorDetail
	require.NoError(t, json.Unmarshal(raw, &detail))
	return detail.Code
}

func validQuoteBody() map[string]any {
	return map[string]any{
		"property_id": testPropertyID,
		"check_in":    "2026-11-02",
		"check_out":   "2026-11-04",
		"guest_count": 2,
	}
}

func newPricingApp(flow businessflow.PricingFlow) *fiber.App {
	app := fiber.New()
	h := handlers.NewPricingHandler(flow, nil)
	app.Post("/quote", h.Quote)
	app.Post("/quote/export", h.ExportQuote)
	return app
}

func TestPricingHandler_Quote(t *testing.T) {
	t.Run("returns the quote", func(t *testing.T) {
		flow := &fakePricingFlow{quote: func(req *dto.PriceQuoteRequest) (*dto.PriceQuoteResponse, error) {
			return &dto.PriceQuoteResponse{PropertyID: req.PropertyID, Nights: 2, Total: "308.00", Currency: "USD"}, nil
		}}
		app := newPricingApp(flow)

		resp, err := app.Test(jsonRequest(t, fiber.MethodPost, "/quote", validQuoteBody()))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		res := decodeResponse(t, resp)
		assert.True(t, res.Success)
		data := res.Data.(map[string]any)
		assert.Equal(t, "308.00", data["total"])
		assert.Equal(t, "USD", data["currency"])
		require.NotNil(t, flow.lastReq)
		assert.Equal(t, 2, flow.lastReq.GuestCount)
	})

	t.Run("rejects invalid body before calling the flow", func(t *testing.T) {
		flow := &fakePricingFlow{}
		app := newPricingApp(flow)

		body := validQuoteBody()
		body["check_in"] = "02/11/2026"
		body["guest_count"] = 0

		resp, err := app.Test(jsonRequest(t, fiber.MethodPost, "/quote", body))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "VALIDATION_ERROR", errorCode(t, decodeResponse(t, resp)))
		assert.Zero(t, flow.calls)
	})

	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"unknown property", businessflow.NewBusinessError("PROPERTY_NOT_FOUND", "Property not found", businessflow.ErrPropertyNotFound), fiber.StatusNotFound, "PROPERTY_NOT_FOUND"},
		{"reversed stay", businessflow.NewBusinessError("INVALID_STAY_RANGE", "Check-out must be after check-in", businessflow.ErrInvalidStayRange), fiber.StatusBadRequest, "INVALID_STAY_RANGE"},
		{"slow upstream", businessflow.NewBusinessError("PRICING_TIMEOUT", "Timed out", businessflow.ErrPricingTimeout), fiber.StatusGatewayTimeout, "QUOTE_FAILED"},
		{"broken upstream", businessflow.NewBusinessError("PRICING_UPSTREAM_FAILED", "Failed", businessflow.ErrPricingUpstream), fiber.StatusBadGateway, "QUOTE_FAILED"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			flow := &fakePricingFlow{quote: func(*dto.PriceQuoteRequest) (*dto.PriceQuoteResponse, error) {
				return nil, tc.err
			}}
			app := newPricingApp(flow)

			resp, err := app.Test(jsonRequest(t, fiber.MethodPost, "/quote", validQuoteBody()))
			require.NoError(t, err)
			assert.Equal(t, tc.status, resp.StatusCode)

			res := decodeResponse(t, resp)
			assert.False(t, res.Success)
			assert.Equal(t, tc.code, errorCode(t, res))
		})
	}
}

func TestPricingHandler_ExportQuote(t *testing.T) {
	flow := &fakePricingFlow{export: func(*dto.PriceQuoteRequest) (*dto.PriceQuoteExport, error) {
		return &dto.PriceQuoteExport{
			Filename:    "quote_4f9c3c52_2026-11-02_2026-11-04.xlsx",
			ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			Data:        []byte("xlsx-bytes"),
		}, nil
	}}
	app := newPricingApp(flow)

	resp, err := app.Test(jsonRequest(t, fiber.MethodPost, "/quote/export", validQuoteBody()))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), `filename="quote_4f9c3c52_2026-11-02_2026-11-04.xlsx"`)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "xlsx-bytes", string(body))
}
