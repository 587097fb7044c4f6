package calculator

import (
	"github.com/shopspring/decimal"

	"BrokerageReport/internal/model"
)

// Forecast extrapolates month-to-date totals linearly to the end of the month.
// Both results are null when daysPassed <= 0 or either MTD sum is missing.
// Rounding is half-to-even for both values.
func Forecast(mtd model.Totals, daysPassed, daysInMonth int) (*int64, decimal.NullDecimal) {
	if daysPassed <= 0 || !mtd.Issued.Valid || !mtd.Income.Valid {
		return nil, decimal.NullDecimal{}
	}

	passed := decimal.NewFromInt(int64(daysPassed))
	month := decimal.NewFromInt(int64(daysInMonth))

	avgIssued := mtd.Issued.Decimal.Div(passed)
	issued := avgIssued.Mul(month).RoundBank(0).IntPart()

	avgIncome := mtd.Income.Decimal.Div(passed)
	income := avgIncome.Mul(month).RoundBank(2)

	return &issued, decimal.NewNullDecimal(income)
}

// Numbers assembles the full set of report figures for a window.
func Numbers(w model.ReportWindow, daily, mtd model.Totals) *model.ReportNumbers {
	passed := DaysPassed(w)
	inMonth := DaysInMonth(w.PeriodEnd)
	issued, income := Forecast(mtd, passed, inMonth)
	return &model.ReportNumbers{
		Daily:          daily,
		MTD:            mtd,
		ForecastIssued: issued,
		ForecastIncome: income,
		DaysPassed:     passed,
		DaysInMonth:    inMonth,
	}
}
