package services

import (
	"fmt"
	"strings"

	"github.com/amirphl/staybook/pricing"
	"github.com/amirphl/staybook/utils"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	QuoteSheetName  = "Quote"
	NightsSheetName = "Nights"
)

// QuoteExporter renders a price breakdown as a spreadsheet
type QuoteExporter interface {
	Export(bd *pricing.Breakdown, currency string) (filename string, data []byte, err error)
}

// ExcelQuoteExporter writes quotes as XLSX workbooks with a summary sheet and a nightly ledger sheet
type ExcelQuoteExporter struct{}

func NewExcelQuoteExporter() QuoteExporter {
	return &ExcelQuoteExporter{}
}

// Export rounds every amount to 2 places; the breakdown itself is left untouched
func (e *ExcelQuoteExporter) Export(bd *pricing.Breakdown, currency string) (string, []byte, error) {
	if bd == nil {
		return "", nil, fmt.Errorf("breakdown is nil")
	}

	xl := excelize.NewFile()
	defer func() { _ = xl.Close() }()

	if err := xl.SetSheetName(xl.GetSheetName(0), QuoteSheetName); err != nil {
		return "", nil, fmt.Errorf("failed to name quote sheet: %w", err)
	}

	header := []string{"item", "value"}
	_ = xl.SetSheetRow(QuoteSheetName, "A1", &header)

	rows := [][]any{
		{"property_id", bd.PropertyID.String()},
		{"check_in", utils.FormatDate(bd.CheckIn)},
		{"check_out", utils.FormatDate(bd.CheckOut)},
		{"guests", bd.GuestCount},
		{"pets", bd.PetCount},
		{"nights", bd.Nights},
		{"currency", strings.ToUpper(currency)},
		{"base_price", money(bd.BasePrice)},
		{"subtotal", money(bd.Subtotal)},
	}
	for _, d := range bd.Discounts() {
		label := string(d.RuleType)
		if d.Label != "" {
			label = fmt.Sprintf("%s (%s)", label, d.Label)
		}
		rows = append(rows, []any{fmt.Sprintf("discount: %s %s%%", label, d.Percent.String()), "-" + money(d.Amount)})
	}
	rows = append(rows,
		[]any{"subtotal_after_discounts", money(bd.SubtotalAfterDiscounts)},
		[]any{"cleaning_fee", money(bd.CleaningFee)},
		[]any{"extra_guest_fee", money(bd.ExtraGuestFee)},
		[]any{"pet_fee", money(bd.PetFee)},
		[]any{fmt.Sprintf("service_fee (%s%%)", bd.ServiceFeePercent.String()), money(bd.ServiceFee)},
		[]any{"total_before_tax", money(bd.TotalBeforeTax)},
		[]any{fmt.Sprintf("tax (%s%%)", bd.TaxRate.String()), money(bd.TaxAmount)},
		[]any{"total", money(bd.Total)},
		[]any{"savings", money(bd.Savings)},
		[]any{"security_deposit", money(bd.SecurityDeposit)},
	)
	if bd.Estimated {
		rows = append(rows, []any{"estimated", "yes"})
	}

	for i, row := range rows {
		cellRef, _ := excelize.CoordinatesToCellName(1, i+2)
		_ = xl.SetSheetRow(QuoteSheetName, cellRef, &row)
	}

	if _, err := xl.NewSheet(NightsSheetName); err != nil {
		return "", nil, fmt.Errorf("failed to create nights sheet: %w", err)
	}
	nightsHeader := []string{"date", "weekday", "weekend", "seasonal", "rate"}
	_ = xl.SetSheetRow(NightsSheetName, "A1", &nightsHeader)
	for i, night := range bd.NightlyRates {
		record := []any{
			utils.FormatDate(night.Date),
			night.Date.Weekday().String(),
			yesNo(night.IsWeekend),
			yesNo(night.Seasonal),
			money(night.Rate),
		}
		cellRef, _ := excelize.CoordinatesToCellName(1, i+2)
		_ = xl.SetSheetRow(NightsSheetName, cellRef, &record)
	}

	buf, err := xl.WriteToBuffer()
	if err != nil {
		return "", nil, fmt.Errorf("failed to write quote workbook: %w", err)
	}

	filename := fmt.Sprintf("quote_%s_%s_%s.xlsx", bd.PropertyID.String()[:8], utils.FormatDate(bd.CheckIn), utils.FormatDate(bd.CheckOut))
	return filename, buf.Bytes(), nil
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
