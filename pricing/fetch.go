package pricing

import (
	"context"
	"time"

	"github.com/amirphl/staybook/models"
	"golang.org/x/sync/errgroup"
)

// supportingData is everything besides the property profile a quote depends on
type supportingData struct {
	seasons []*models.SeasonalPrice
	fees    *models.PropertyFee
	rules   []*models.PricingRule
}

type fetchResult struct {
	data *supportingData
	err  error
}

// fetchSupporting loads seasons, fees and rules concurrently and races the join against the fetch timeout.
// When the timer fires first the fetch context is cancelled and no partial data is returned.
func (e *Engine) fetchSupporting(ctx context.Context, req Request, property *models.Property) (*supportingData, error) {
	start := time.Now()
	defer func() {
		supportingFetchDuration.Observe(time.Since(start).Seconds())
	}()

	fetchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Buffered so the fetch goroutine never blocks after a timeout
	done := make(chan fetchResult, 1)

	go func() {
		data := &supportingData{}
		g, gctx := errgroup.WithContext(fetchCtx)

		g.Go(func() error {
			seasons, err := e.source.SeasonalPrices(gctx, property.ID)
			if err != nil {
				return &UpstreamError{Op: "load seasonal prices", PropertyID: req.PropertyID, Err: err}
			}
			data.seasons = seasons
			return nil
		})
		g.Go(func() error {
			fees, err := e.source.FeeSchedule(gctx, property.ID)
			if err != nil {
				return &UpstreamError{Op: "load fee schedule", PropertyID: req.PropertyID, Err: err}
			}
			data.fees = fees
			return nil
		})
		g.Go(func() error {
			rules, err := e.source.ActiveRules(gctx, property.ID)
			if err != nil {
				return &UpstreamError{Op: "load pricing rules", PropertyID: req.PropertyID, Err: err}
			}
			data.rules = rules
			return nil
		})

		if err := g.Wait(); err != nil {
			done <- fetchResult{err: err}
			return
		}
		done <- fetchResult{data: data}
	}()

	timer := time.NewTimer(e.cfg.FetchTimeout)
	defer timer.Stop()

	select {
	case res := <-done:
		return res.data, res.err
	case <-timer.C:
		return nil, ErrTimeout
	case <-ctx.Done():
		return nil, &UpstreamError{Op: "load supporting data", PropertyID: req.PropertyID, Err: ctx.Err()}
	}
}
