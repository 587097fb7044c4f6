package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReportWindow is the set of calendar dates one report covers.
// All fields are civil dates stored as midnight UTC.
type ReportWindow struct {
	ReportDate  time.Time
	DataDate    time.Time
	PeriodStart time.Time // first day of DataDate's month
	PeriodEnd   time.Time // always equal to DataDate
}

// Totals holds the two aggregated sums for a date range.
// An invalid NullDecimal means no rows matched, which is not the same as zero.
type Totals struct {
	Issued decimal.NullDecimal
	Income decimal.NullDecimal
}

// ReportNumbers is everything the formatter needs besides the window.
type ReportNumbers struct {
	Daily          Totals
	MTD            Totals
	ForecastIssued *int64
	ForecastIncome decimal.NullDecimal
	DaysPassed     int
	DaysInMonth    int
}

// HasForecast reports whether a month-end extrapolation was possible.
func (n *ReportNumbers) HasForecast() bool {
	return n.ForecastIssued != nil && n.ForecastIncome.Valid
}
