package collector

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSpec = TableSpec{
	Table:         "brokerage_daily",
	DateColumn:    "report_date",
	IssuedColumn:  "issued_cnt",
	IncomeColumn:  "income_amt",
	ProductColumn: "product",
	ProductValue:  "bonds",
}

const sqliteQuery = "SELECT SUM(issued_cnt) AS issued, SUM(income_amt) AS income FROM brokerage_daily " +
	"WHERE report_date >= ? AND report_date <= ? AND product = ?"

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newMockFetcher(t *testing.T) (*SQLFetcher, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	f, err := NewSQLFetcher(db, DialectSQLite, testSpec, zerolog.Nop())
	require.NoError(t, err)
	return f, mock
}

func TestValidateIdentifier(t *testing.T) {
	valid := []string{"a", "_x", "issued_cnt", "Col9", "_"}
	for _, name := range valid {
		assert.NoError(t, ValidateIdentifier(name, "column"), name)
	}
	invalid := []string{"", "9col", "a-b", "a b", "t;drop", "x.y", "col)", "имя"}
	for _, name := range invalid {
		assert.Error(t, ValidateIdentifier(name, "column"), name)
	}
}

func TestBuildQuery(t *testing.T) {
	q, err := BuildQuery(testSpec, DialectSQLite)
	require.NoError(t, err)
	assert.Equal(t, sqliteQuery, q)

	q, err = BuildQuery(testSpec, DialectPostgres)
	require.NoError(t, err)
	assert.Contains(t, q, "report_date >= $1 AND report_date <= $2 AND product = $3")
}

func TestBuildQuery_RejectsBadIdentifier(t *testing.T) {
	spec := testSpec
	spec.Table = "brokerage_daily; DROP TABLE users"
	_, err := BuildQuery(spec, DialectSQLite)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "table")

	spec = testSpec
	spec.IncomeColumn = "1income"
	_, err = NewSQLFetcher(nil, DialectSQLite, spec, zerolog.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "income column")
}

func TestSQLFetcher_FetchTotals(t *testing.T) {
	f, mock := newMockFetcher(t)
	mock.ExpectQuery(sqliteQuery).
		WithArgs("2024-03-01", "2024-03-10", "bonds").
		WillReturnRows(sqlmock.NewRows([]string{"issued", "income"}).AddRow(int64(300), 150.5))

	got, err := f.FetchTotals(context.Background(), day(2024, time.March, 1), day(2024, time.March, 10))
	require.NoError(t, err)
	require.True(t, got.Issued.Valid)
	require.True(t, got.Income.Valid)
	assert.Equal(t, "300", got.Issued.Decimal.String())
	assert.Equal(t, "150.5", got.Income.Decimal.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLFetcher_NullSums(t *testing.T) {
	f, mock := newMockFetcher(t)
	mock.ExpectQuery(sqliteQuery).
		WithArgs("2024-03-10", "2024-03-10", "bonds").
		WillReturnRows(sqlmock.NewRows([]string{"issued", "income"}).AddRow(nil, nil))

	got, err := f.FetchTotals(context.Background(), day(2024, time.March, 10), day(2024, time.March, 10))
	require.NoError(t, err)
	assert.False(t, got.Issued.Valid)
	assert.False(t, got.Income.Valid)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLFetcher_NoRows(t *testing.T) {
	f, mock := newMockFetcher(t)
	mock.ExpectQuery(sqliteQuery).
		WithArgs("2024-03-10", "2024-03-10", "bonds").
		WillReturnRows(sqlmock.NewRows([]string{"issued", "income"}))

	got, err := f.FetchTotals(context.Background(), day(2024, time.March, 10), day(2024, time.March, 10))
	require.NoError(t, err)
	assert.False(t, got.Issued.Valid)
	assert.False(t, got.Income.Valid)
}

func TestSQLFetcher_QueryError(t *testing.T) {
	f, mock := newMockFetcher(t)
	mock.ExpectQuery(sqliteQuery).
		WithArgs("2024-03-10", "2024-03-10", "bonds").
		WillReturnError(errors.New("connection refused"))

	_, err := f.FetchTotals(context.Background(), day(2024, time.March, 10), day(2024, time.March, 10))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDataAccess)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestSQLFetcher_SQLiteIntegration(t *testing.T) {
	db, dialect, err := OpenDB("sqlite://")
	require.NoError(t, err)
	defer db.Close()
	require.Equal(t, DialectSQLite, dialect)

	_, err = db.Exec(`CREATE TABLE brokerage_daily (
		report_date TEXT NOT NULL,
		product     TEXT NOT NULL,
		issued_cnt  INTEGER,
		income_amt  REAL
	)`)
	require.NoError(t, err)

	rows := []struct {
		date    string
		product string
		issued  int
		income  float64
	}{
		{"2024-02-29", "bonds", 999, 999},
		{"2024-03-01", "bonds", 100, 50.25},
		{"2024-03-05", "bonds", 100, 49.75},
		{"2024-03-05", "stocks", 1000, 1000},
		{"2024-03-10", "bonds", 100, 50},
		{"2024-03-11", "bonds", 999, 999},
	}
	for _, r := range rows {
		_, err := db.Exec(`INSERT INTO brokerage_daily VALUES (?, ?, ?, ?)`, r.date, r.product, r.issued, r.income)
		require.NoError(t, err)
	}

	f, err := NewSQLFetcher(db, dialect, testSpec, zerolog.Nop())
	require.NoError(t, err)
	ctx := context.Background()

	mtd, err := f.FetchTotals(ctx, day(2024, time.March, 1), day(2024, time.March, 10))
	require.NoError(t, err)
	assert.Equal(t, "300", mtd.Issued.Decimal.String())
	assert.Equal(t, "150", mtd.Income.Decimal.String())

	daily, err := f.FetchTotals(ctx, day(2024, time.March, 10), day(2024, time.March, 10))
	require.NoError(t, err)
	assert.Equal(t, "100", daily.Issued.Decimal.String())

	empty, err := f.FetchTotals(ctx, day(2024, time.April, 1), day(2024, time.April, 30))
	require.NoError(t, err)
	assert.False(t, empty.Issued.Valid)
	assert.False(t, empty.Income.Valid)
}
