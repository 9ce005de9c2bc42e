package recurrence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/dmarkin/calendar/internal/storage"
	"github.com/dmarkin/calendar/internal/util"
)

// DefaultCount is the number of instances materialized for a recurring
// creation request when the caller does not override it (about half a year
// of weekly events).
const DefaultCount = 26

var ErrUnknownPattern = errors.New("unknown recurrence pattern")

type Pattern string

const (
	Daily   Pattern = "daily"
	Weekly  Pattern = "weekly"
	Monthly Pattern = "monthly"
	Yearly  Pattern = "yearly"
)

func ParsePattern(s string) (Pattern, error) {
	switch Pattern(s) {
	case Daily, Weekly, Monthly, Yearly:
		return Pattern(s), nil
	default:
		return "", fmt.Errorf("%q: %w", s, ErrUnknownPattern)
	}
}

// Occurrences lists count dates starting at start, stepping by pattern.
// Monthly steps preserve the day-of-month of start and clamp to the last day
// of shorter months (Jan 31 -> Feb 28). Yearly steps clamp Feb 29 -> Feb 28
// in non-leap years.
func Occurrences(start time.Time, pattern Pattern, count int) ([]time.Time, error) {
	start = util.TruncateToDay(start)
	if count <= 0 {
		count = DefaultCount
	}

	dates := make([]time.Time, 0, count)
	switch pattern {
	case Daily, Weekly:
		step := 1
		if pattern == Weekly {
			step = 7
		}
		for i := 0; i < count; i++ {
			dates = append(dates, start.AddDate(0, 0, i*step))
		}
	case Monthly:
		for i := 0; i < count; i++ {
			year, month := util.AddMonths(start.Year(), start.Month(), i)
			dates = append(dates, util.Day(year, month, clampDay(year, month, start.Day())))
		}
	case Yearly:
		for i := 0; i < count; i++ {
			year := start.Year() + i
			dates = append(dates, util.Day(year, start.Month(), clampDay(year, start.Month(), start.Day())))
		}
	default:
		return nil, fmt.Errorf("%q: %w", pattern, ErrUnknownPattern)
	}
	return dates, nil
}

func clampDay(year int, month time.Month, day int) int {
	if last := util.DaysInMonth(year, month); day > last {
		return last
	}
	return day
}

// Series carries the fields shared by every instance of one recurring
// creation request.
type Series struct {
	Title       string
	Description string
	StartTime   string
	EndTime     string
	AllDay      bool
	Pattern     Pattern
}

// Result reports the outcome of a best-effort materialization. Failed holds
// the dates whose inserts errored so the caller can retry exactly those.
type Result struct {
	IDs      []int64
	SeriesID string
	Failed   []time.Time
}

func (r Result) Created() int {
	return len(r.IDs)
}

type Engine struct {
	store storage.Storage
}

func NewEngine(store storage.Storage) *Engine {
	return &Engine{store: store}
}

// Materialize persists one single-day event per date, all stamped with a
// freshly generated series ID. Instances are written one at a time; a failed
// insert is logged and skipped, it never aborts the rest of the batch.
func (r *Engine) Materialize(ctx context.Context, series Series, dates []time.Time) (Result, error) {
	if _, err := ParsePattern(string(series.Pattern)); err != nil {
		return Result{}, err
	}

	result := Result{SeriesID: uuid.NewString()}
	for _, date := range dates {
		date = util.TruncateToDay(date)
		e := storage.Event{
			Title:       series.Title,
			Description: series.Description,
			AnchorDay:   date,
			StartDay:    date,
			EndDay:      date,
			StartTime:   series.StartTime,
			EndTime:     series.EndTime,
			AllDay:      series.AllDay,
			Recurring:   true,
			Pattern:     string(series.Pattern),
			SeriesID:    result.SeriesID,
		}
		if err := r.store.AddEvent(ctx, &e); err != nil {
			log.Errorf("failed to create instance on %s: %v", date.Format("2006-01-02"), err)
			result.Failed = append(result.Failed, date)
			continue
		}
		result.IDs = append(result.IDs, e.ID)
	}
	return result, nil
}

// DeleteSeries removes every persisted instance stamped with seriesID.
func (r *Engine) DeleteSeries(ctx context.Context, seriesID string) (int, error) {
	if seriesID == "" {
		return 0, nil
	}
	return r.store.RemoveSeries(ctx, seriesID)
}
