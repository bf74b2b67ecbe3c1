package businessflow

import (
	"context"
	"errors"

	"github.com/amirphl/staybook/app/dto"
	"github.com/amirphl/staybook/app/services"
	"github.com/amirphl/staybook/pricing"
	"go.uber.org/zap"
)

// xlsxContentType is the media type of exported quotes
const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// BookingPricer prices stays; *pricing.Engine implements it
type BookingPricer interface {
	Price(ctx context.Context, req pricing.Request) (*pricing.Breakdown, error)
	Estimate(ctx context.Context, req pricing.Request) (*pricing.Breakdown, error)
}

// PricingFlow handles guest-facing price quotes
type PricingFlow interface {
	CalculateBookingPrice(ctx context.Context, req *dto.PriceQuoteRequest) (*dto.PriceQuoteResponse, error)
	ExportBookingPrice(ctx context.Context, req *dto.PriceQuoteRequest) (*dto.PriceQuoteExport, error)
}

type PricingFlowImpl struct {
	pricer   BookingPricer
	exporter services.QuoteExporter
	currency string
	logger   *zap.Logger
}

func NewPricingFlow(pricer BookingPricer, exporter services.QuoteExporter, currency string, logger *zap.Logger) PricingFlow {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PricingFlowImpl{
		pricer:   pricer,
		exporter: exporter,
		currency: currency,
		logger:   logger,
	}
}

// CalculateBookingPrice prices the stay and returns the rounded breakdown
func (f *PricingFlowImpl) CalculateBookingPrice(ctx context.Context, req *dto.PriceQuoteRequest) (*dto.PriceQuoteResponse, error) {
	bd, err := f.quote(ctx, req)
	if err != nil {
		return nil, err
	}

	res := ToPriceQuoteResponse(bd, f.currency)
	return &res, nil
}

// ExportBookingPrice prices the stay and renders it as a spreadsheet
func (f *PricingFlowImpl) ExportBookingPrice(ctx context.Context, req *dto.PriceQuoteRequest) (*dto.PriceQuoteExport, error) {
	bd, err := f.quote(ctx, req)
	if err != nil {
		return nil, err
	}

	filename, data, err := f.exporter.Export(bd, f.currency)
	if err != nil {
		return nil, NewBusinessError("QUOTE_EXPORT_FAILED", "Failed to export quote", err)
	}

	return &dto.PriceQuoteExport{
		Filename:    filename,
		ContentType: xlsxContentType,
		Data:        data,
	}, nil
}

func (f *PricingFlowImpl) quote(ctx context.Context, req *dto.PriceQuoteRequest) (*pricing.Breakdown, error) {
	preq, err := toPricingRequest(req.PropertyID, req.CheckIn, req.CheckOut, req.GuestCount, req.PetCount)
	if err != nil {
		return nil, err
	}

	bd, err := f.pricer.Price(ctx, preq)
	if err == nil {
		return bd, nil
	}

	if errors.Is(err, pricing.ErrTimeout) && req.AllowEstimate {
		md := ClientMetadataFromContext(ctx)
		f.logger.Warn("Pricing timed out, falling back to estimate",
			zap.String("property_id", preq.PropertyID.String()),
			zap.String("request_id", md.RequestID),
		)
		estimate, estErr := f.pricer.Estimate(ctx, preq)
		if estErr == nil {
			return estimate, nil
		}
		err = estErr
	}

	return nil, translatePricingError(err)
}
