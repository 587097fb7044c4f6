package collector

import (
	"context"
	"errors"
	"time"

	"BrokerageReport/internal/model"
)

// ErrDataAccess marks failures talking to the aggregate data source.
var ErrDataAccess = errors.New("data access failed")

// Fetcher returns issued/income sums for an inclusive date range.
type Fetcher interface {
	FetchTotals(ctx context.Context, start, end time.Time) (model.Totals, error)
	Name() string
}
