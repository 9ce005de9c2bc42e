package query

import (
	"context"
	"sort"
	"time"

	"github.com/dmarkin/calendar/internal/storage"
	"github.com/dmarkin/calendar/internal/util"
)

// DefaultWindowMonths is the number of months scanned on each side of the
// center date for "all events" listings.
const DefaultWindowMonths = 6

type Engine struct {
	store storage.Storage
}

func NewEngine(store storage.Storage) *Engine {
	return &Engine{store: store}
}

// ForDay lists events overlapping the given day.
func (q *Engine) ForDay(ctx context.Context, day time.Time) ([]storage.Event, error) {
	return q.store.GetEventsForDay(ctx, day)
}

// ForWeek lists events overlapping the Sunday-start week containing date,
// sorted like ForWindow. Multi-day events touching several days of the week
// are reported once.
func (q *Engine) ForWeek(ctx context.Context, date time.Time) ([]storage.Event, error) {
	var all []storage.Event
	for _, day := range util.WeekDays(util.WeekStart(date)) {
		events, err := q.store.GetEventsForDay(ctx, day)
		if err != nil {
			return nil, err
		}
		all = append(all, events...)
	}
	return sortEvents(dedupe(all)), nil
}

// ForMonth lists events overlapping any day of the given month. An event that
// merely touches the month boundary belongs to both adjacent months.
func (q *Engine) ForMonth(ctx context.Context, year int, month time.Month) ([]storage.Event, error) {
	return q.store.GetEventsForMonth(ctx, year, month)
}

// ForWindow lists events across the months in [-monthsBefore, +monthsAfter]
// around center's month, sorted by (anchor day, start time). Boundary-spanning
// events show up in more than one month query, so results are deduplicated by
// event ID.
func (q *Engine) ForWindow(ctx context.Context, center time.Time, monthsBefore, monthsAfter int) ([]storage.Event, error) {
	var all []storage.Event
	for offset := -monthsBefore; offset <= monthsAfter; offset++ {
		year, month := util.AddMonths(center.Year(), center.Month(), offset)
		events, err := q.store.GetEventsForMonth(ctx, year, month)
		if err != nil {
			return nil, err
		}
		all = append(all, events...)
	}
	return sortEvents(dedupe(all)), nil
}

// HasEventsOnDay reports whether any event overlaps the given day.
func (q *Engine) HasEventsOnDay(ctx context.Context, day time.Time) (bool, error) {
	events, err := q.store.GetEventsForDay(ctx, day)
	if err != nil {
		return false, err
	}
	return len(events) > 0, nil
}

func dedupe(events []storage.Event) []storage.Event {
	seen := make(map[int64]struct{}, len(events))
	result := make([]storage.Event, 0, len(events))
	for _, e := range events {
		if _, ok := seen[e.ID]; ok {
			continue
		}
		seen[e.ID] = struct{}{}
		result = append(result, e)
	}
	return result
}

func sortEvents(events []storage.Event) []storage.Event {
	sort.Slice(events, func(i, j int) bool {
		if !events[i].AnchorDay.Equal(events[j].AnchorDay) {
			return events[i].AnchorDay.Before(events[j].AnchorDay)
		}
		return events[i].StartTime < events[j].StartTime
	})
	return events
}
