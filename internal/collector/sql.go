package collector

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/rs/zerolog"

	"BrokerageReport/internal/model"
)

var identifierRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidateIdentifier rejects names that could change the structure of generated SQL.
func ValidateIdentifier(name, label string) error {
	if !identifierRe.MatchString(name) {
		return fmt.Errorf("invalid %s identifier: %q", label, name)
	}
	return nil
}

// TableSpec names the table, columns and product filter of the totals query.
type TableSpec struct {
	Table         string
	DateColumn    string
	IssuedColumn  string
	IncomeColumn  string
	ProductColumn string
	ProductValue  string
}

// Validate checks every interpolated identifier.
func (s TableSpec) Validate() error {
	checks := []struct{ name, label string }{
		{s.Table, "table"},
		{s.DateColumn, "date column"},
		{s.IssuedColumn, "issued column"},
		{s.IncomeColumn, "income column"},
		{s.ProductColumn, "product column"},
	}
	for _, c := range checks {
		if err := ValidateIdentifier(c.name, c.label); err != nil {
			return err
		}
	}
	return nil
}

// BuildQuery renders the aggregate query for a dialect. Only validated identifiers are interpolated.
func BuildQuery(s TableSpec, d Dialect) (string, error) {
	if err := s.Validate(); err != nil {
		return "", err
	}
	return fmt.Sprintf(
		"SELECT SUM(%s) AS issued, SUM(%s) AS income FROM %s WHERE %s >= %s AND %s <= %s AND %s = %s",
		s.IssuedColumn, s.IncomeColumn, s.Table,
		s.DateColumn, d.Placeholder(1),
		s.DateColumn, d.Placeholder(2),
		s.ProductColumn, d.Placeholder(3),
	), nil
}

// SQLFetcher implements Fetcher with a single SUM query over a SQL table.
type SQLFetcher struct {
	db      *sql.DB
	dialect Dialect
	spec    TableSpec
	query   string
	logger  zerolog.Logger
}

// NewSQLFetcher builds the query once; an invalid identifier fails here, before any cycle runs.
func NewSQLFetcher(db *sql.DB, dialect Dialect, spec TableSpec, logger zerolog.Logger) (*SQLFetcher, error) {
	query, err := BuildQuery(spec, dialect)
	if err != nil {
		return nil, err
	}
	return &SQLFetcher{
		db:      db,
		dialect: dialect,
		spec:    spec,
		query:   query,
		logger:  logger.With().Str("component", "fetcher").Logger(),
	}, nil
}

func (f *SQLFetcher) Name() string { return f.dialect.Name }

// FetchTotals sums issued and income for start..end inclusive.
func (f *SQLFetcher) FetchTotals(ctx context.Context, start, end time.Time) (model.Totals, error) {
	f.logger.Debug().
		Str("start", start.Format("2006-01-02")).
		Str("end", end.Format("2006-01-02")).
		Msg("executing totals query")

	var totals model.Totals
	err := f.db.QueryRowContext(ctx, f.query,
		f.dialect.BindDate(start),
		f.dialect.BindDate(end),
		f.spec.ProductValue,
	).Scan(&totals.Issued, &totals.Income)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Totals{}, nil
	}
	if err != nil {
		f.logger.Error().Err(err).Msg("database query failed")
		return model.Totals{}, fmt.Errorf("%w: %w", ErrDataAccess, err)
	}
	return totals, nil
}
