package services

import (
	"bytes"
	"testing"
	"time"

	"github.com/amirphl/staybook/models"
	"github.com/amirphl/staybook/pricing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleBreakdown() *pricing.Breakdown {
	d := decimal.RequireFromString
	checkIn := time.Date(2026, 11, 6, 0, 0, 0, 0, time.UTC)
	return &pricing.Breakdown{
		PropertyID: uuid.MustParse("6f1c2d3e-4a5b-4c6d-8e7f-001122334455"),
		CheckIn:    checkIn,
		CheckOut:   checkIn.AddDate(0, 0, 2),
		GuestCount: 2,
		Nights:     2,
		BasePrice:  d("100"),
		NightlyRates: []pricing.NightlyRate{
			{Date: checkIn, Rate: d("100")},
			{Date: checkIn.AddDate(0, 0, 1), Rate: d("120.555"), IsWeekend: true, Seasonal: true},
		},
		Subtotal:               d("220.555"),
		LengthDiscount:         &pricing.Discount{RuleType: models.RuleTypeLengthDiscount, Percent: d("10"), Amount: d("22.0555"), Label: "weekly"},
		SubtotalAfterDiscounts: d("198.4995"),
		CleaningFee:            d("50"),
		ExtraGuestFee:          decimal.Zero,
		PetFee:                 decimal.Zero,
		SecurityDeposit:        d("300"),
		ServiceFee:             d("29.774925"),
		ServiceFeePercent:      d("15"),
		TotalBeforeTax:         d("278.274425"),
		TaxRate:                decimal.Zero,
		TaxAmount:              decimal.Zero,
		Total:                  d("278.274425"),
		Savings:                d("22.0555"),
	}
}

func TestExcelQuoteExporter_Export(t *testing.T) {
	exporter := NewExcelQuoteExporter()

	filename, data, err := exporter.Export(sampleBreakdown(), "usd")
	require.NoError(t, err)
	assert.Equal(t, "quote_6f1c2d3e_2026-11-06_2026-11-08.xlsx", filename)

	xl, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer xl.Close()

	assert.Equal(t, []string{QuoteSheetName, NightsSheetName}, xl.GetSheetList())

	quote, err := xl.GetRows(QuoteSheetName)
	require.NoError(t, err)
	values := map[string]string{}
	for _, row := range quote[1:] {
		require.Len(t, row, 2)
		values[row[0]] = row[1]
	}
	assert.Equal(t, "USD", values["currency"])
	assert.Equal(t, "220.56", values["subtotal"])
	assert.Equal(t, "-22.06", values["discount: length_discount (weekly) 10%"])
	assert.Equal(t, "29.77", values["service_fee (15%)"])
	assert.Equal(t, "278.27", values["total"])
	assert.Equal(t, "300.00", values["security_deposit"])
	assert.NotContains(t, values, "estimated")

	nights, err := xl.GetRows(NightsSheetName)
	require.NoError(t, err)
	require.Len(t, nights, 3)
	assert.Equal(t, []string{"2026-11-07", "Saturday", "yes", "yes", "120.56"}, nights[2])
}

func TestExcelQuoteExporter_NilBreakdown(t *testing.T) {
	_, _, err := NewExcelQuoteExporter().Export(nil, "usd")
	assert.Error(t, err)
}
