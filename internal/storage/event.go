package storage

import (
	"time"
)

// AllDayTime is the sentinel stored in StartTime/EndTime of all-day events.
const AllDayTime = "All Day"

// Event is one calendar occurrence spanning the inclusive [StartDay, EndDay]
// interval. Recurring instances are single-day and share a SeriesID.
type Event struct {
	ID          int64     `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	AnchorDay   time.Time `json:"anchorDay" db:"anchor_day"`
	StartDay    time.Time `json:"startDay" db:"start_day"`
	EndDay      time.Time `json:"endDay" db:"end_day"`
	StartTime   string    `json:"startTime" db:"start_time"`
	EndTime     string    `json:"endTime" db:"end_time"`
	AllDay      bool      `json:"allDay" db:"all_day"`
	Recurring   bool      `json:"recurring" db:"recurring"`
	Pattern     string    `json:"pattern" db:"pattern"`
	SeriesID    string    `json:"seriesId" db:"series_id"`
}

// OverlapsDay reports whether the event touches the given day.
func (e Event) OverlapsDay(day time.Time) bool {
	return !e.StartDay.After(day) && !e.EndDay.Before(day)
}

// OverlapsRange reports whether the event touches any day of the inclusive
// [first, last] interval.
func (e Event) OverlapsRange(first, last time.Time) bool {
	return !e.StartDay.After(last) && !e.EndDay.Before(first)
}
