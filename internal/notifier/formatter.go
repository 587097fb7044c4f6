package notifier

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"BrokerageReport/internal/model"
)

const (
	noData        = "нет данных"
	notApplicable = "н/д"

	issuedFormat = "# ###."
	incomeFormat = "# ###.##"
)

var monthsGenitive = [12]string{
	"января", "февраля", "марта", "апреля", "мая", "июня",
	"июля", "августа", "сентября", "октября", "ноября", "декабря",
}

// MonthGenitive returns the Russian month name as used in "до конца <месяца>".
func MonthGenitive(m time.Month) string {
	return monthsGenitive[m-1]
}

// FormatDate renders a date as DD.MM.YYYY.
func FormatDate(d time.Time) string {
	return d.Format("02.01.2006")
}

// FormatPeriod renders "DD–DD.MM", e.g. "01–10.03".
func FormatPeriod(start, end time.Time) string {
	return start.Format("02") + "–" + end.Format("02.01")
}

// FormatIssued renders a count with space-grouped thousands, or the no-data placeholder.
func FormatIssued(v decimal.NullDecimal) string {
	if !v.Valid {
		return noData
	}
	return humanize.FormatInteger(issuedFormat, int(v.Decimal.RoundBank(0).IntPart()))
}

// FormatIncome renders a money amount with two decimals, or the no-data placeholder.
func FormatIncome(v decimal.NullDecimal) string {
	if !v.Valid {
		return noData
	}
	return formatMoney(v.Decimal)
}

// FormatForecastIssued is FormatIssued with the not-applicable placeholder.
func FormatForecastIssued(v *int64) string {
	if v == nil {
		return notApplicable
	}
	return humanize.FormatInteger(issuedFormat, int(*v))
}

// FormatForecastIncome is FormatIncome with the not-applicable placeholder.
func FormatForecastIncome(v decimal.NullDecimal) string {
	if !v.Valid {
		return notApplicable
	}
	return formatMoney(v.Decimal)
}

func formatMoney(d decimal.Decimal) string {
	return humanize.FormatFloat(incomeFormat, d.RoundBank(2).InexactFloat64())
}

// orZero treats a missing month-to-date sum as zero.
func orZero(v decimal.NullDecimal) decimal.NullDecimal {
	if v.Valid {
		return v
	}
	return decimal.NewNullDecimal(decimal.Zero)
}

// FormatReport builds the daily report message.
// Missing daily sums print a placeholder, missing month-to-date sums print zero.
func FormatReport(w model.ReportWindow, n *model.ReportNumbers) string {
	reportDate := FormatDate(w.ReportDate)
	dataDate := FormatDate(w.DataDate)
	period := FormatPeriod(w.PeriodStart, w.PeriodEnd)

	var b strings.Builder
	b.WriteString(fmt.Sprintf("Отчёт на %s\n", reportDate))
	b.WriteString(fmt.Sprintf("(данные за %s, период %s)\n\n", dataDate, period))

	b.WriteString(fmt.Sprintf("Факт за %s\n", dataDate))
	b.WriteString(fmt.Sprintf("• Выдачи: %s\n", FormatIssued(n.Daily.Issued)))
	b.WriteString(fmt.Sprintf("• Доход: %s\n\n", FormatIncome(n.Daily.Income)))

	b.WriteString(fmt.Sprintf("Факт с начала месяца (%s)\n", period))
	b.WriteString(fmt.Sprintf("• Выдачи: %s\n", FormatIssued(orZero(n.MTD.Issued))))
	b.WriteString(fmt.Sprintf("• Доход: %s\n\n", FormatIncome(orZero(n.MTD.Income))))

	b.WriteString(fmt.Sprintf("Прогноз до конца %s\n", MonthGenitive(w.PeriodEnd.Month())))
	b.WriteString(fmt.Sprintf("• Выдачи: %s\n", FormatForecastIssued(n.ForecastIssued)))
	b.WriteString(fmt.Sprintf("• Доход: %s", FormatForecastIncome(n.ForecastIncome)))

	return b.String()
}
