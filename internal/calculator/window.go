package calculator

import (
	"time"

	"BrokerageReport/internal/model"
)

// DateOf returns the civil date of t, read in t's own location, as midnight UTC.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ResolveWindow derives the reporting window for a report produced on today.
// today must already be expressed in the target timezone.
func ResolveWindow(today time.Time) model.ReportWindow {
	reportDate := DateOf(today)
	dataDate := reportDate.AddDate(0, 0, -1)

	// Same value as above; kept so month rollover is explicit.
	if reportDate.Day() == 1 {
		dataDate = time.Date(reportDate.Year(), reportDate.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
	}

	return model.ReportWindow{
		ReportDate:  reportDate,
		DataDate:    dataDate,
		PeriodStart: monthStart(dataDate),
		PeriodEnd:   dataDate,
	}
}

// DaysInMonth returns the number of days in d's month.
func DaysInMonth(d time.Time) int {
	nextMonth := monthStart(time.Date(d.Year(), d.Month(), 28, 0, 0, 0, 0, time.UTC).AddDate(0, 0, 4))
	return nextMonth.AddDate(0, 0, -1).Day()
}

// DaysPassed counts the days of the window's period, both ends inclusive.
func DaysPassed(w model.ReportWindow) int {
	return int(w.PeriodEnd.Sub(w.PeriodStart).Hours()/24) + 1
}

func monthStart(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
}
