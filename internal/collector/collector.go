package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"BrokerageReport/internal/calculator"
	"BrokerageReport/internal/model"
)

// MockFetcher returns fixed totals for development and testing.
// Collect asks for the daily range first, so odd calls get Daily and even calls get MTD.
type MockFetcher struct {
	Daily model.Totals
	MTD   model.Totals
	Err   error
	Calls int
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchTotals(_ context.Context, _, _ time.Time) (model.Totals, error) {
	m.Calls++
	if m.Err != nil {
		return model.Totals{}, m.Err
	}
	if m.Calls%2 == 1 {
		return m.Daily, nil
	}
	return m.MTD, nil
}

// Collector orchestrates the two lookups and the forecast computation.
type Collector struct {
	Fetcher Fetcher
	logger  zerolog.Logger
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, logger zerolog.Logger) *Collector {
	return &Collector{Fetcher: fetcher, logger: logger}
}

// Collect fetches daily and month-to-date totals and computes the forecast.
// Lookups run sequentially; the first failure aborts the collection.
func (c *Collector) Collect(ctx context.Context, w model.ReportWindow) (*model.ReportNumbers, error) {
	daily, err := c.Fetcher.FetchTotals(ctx, w.DataDate, w.DataDate)
	if err != nil {
		return nil, fmt.Errorf("fetch daily totals: %w", err)
	}
	mtd, err := c.Fetcher.FetchTotals(ctx, w.PeriodStart, w.PeriodEnd)
	if err != nil {
		return nil, fmt.Errorf("fetch month-to-date totals: %w", err)
	}

	n := calculator.Numbers(w, daily, mtd)

	ev := c.logger.Info().
		Str("source", c.Fetcher.Name()).
		Str("daily_issued", nullString(n.Daily.Issued)).
		Str("daily_income", nullString(n.Daily.Income)).
		Str("mtd_issued", nullString(n.MTD.Issued)).
		Str("mtd_income", nullString(n.MTD.Income)).
		Int("days_passed", n.DaysPassed).
		Int("days_in_month", n.DaysInMonth)
	if n.HasForecast() {
		ev = ev.Int64("forecast_issued", *n.ForecastIssued).Str("forecast_income", n.ForecastIncome.Decimal.StringFixed(2))
	}
	ev.Msg("report computed")

	return n, nil
}

func nullString(d decimal.NullDecimal) string {
	if !d.Valid {
		return "null"
	}
	return d.Decimal.String()
}
