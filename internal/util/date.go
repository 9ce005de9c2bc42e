package util

import "time"

// TruncateToDay drops the time-of-day part of t, keeping the calendar date.
func TruncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// Day builds a naive calendar date at UTC midnight.
func Day(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func MonthFirstDay(year int, month time.Month) time.Time {
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
}

func MonthLastDay(year int, month time.Month) time.Time {
	return MonthFirstDay(year, month).AddDate(0, 1, -1)
}

func DaysInMonth(year int, month time.Month) int {
	return MonthLastDay(year, month).Day()
}

func NextMonth(year int, month time.Month) (int, time.Month) {
	if month < time.December {
		return year, month + 1
	}
	return year + 1, time.January
}

func PrevMonth(year int, month time.Month) (int, time.Month) {
	if month > time.January {
		return year, month - 1
	}
	return year - 1, time.December
}

// AddMonths shifts a year/month pair by offset months, offset may be negative.
func AddMonths(year int, month time.Month, offset int) (int, time.Month) {
	for ; offset > 0; offset-- {
		year, month = NextMonth(year, month)
	}
	for ; offset < 0; offset++ {
		year, month = PrevMonth(year, month)
	}
	return year, month
}

// WeekStart returns the Sunday that starts the week containing date.
func WeekStart(date time.Time) time.Time {
	date = TruncateToDay(date)
	return date.AddDate(0, 0, -int(date.Weekday()))
}

// WeekDays lists the seven dates of the week starting at weekStart.
func WeekDays(weekStart time.Time) []time.Time {
	days := make([]time.Time, 7)
	for i := range days {
		days[i] = weekStart.AddDate(0, 0, i)
	}
	return days
}
