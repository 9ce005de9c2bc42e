package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmarkin/calendar/internal/filter"
	"github.com/dmarkin/calendar/internal/query"
	"github.com/dmarkin/calendar/internal/recurrence"
	"github.com/dmarkin/calendar/internal/retention"
	"github.com/dmarkin/calendar/internal/storage"
	"github.com/dmarkin/calendar/internal/util"
)

// MaxDescriptionLength bounds the free-text description of an event.
const MaxDescriptionLength = 80

var ErrValidation = errors.New("invalid event data")

// App is the scheduling service: the single entry point used by presentation
// collaborators. It owns validation and delegates to the recurrence, query and
// retention engines. Every operation that depends on the current date takes it
// as an explicit argument.
type App struct {
	Storage    storage.Storage
	recurrence *recurrence.Engine
	query      *query.Engine
	sweeper    *retention.Sweeper
}

func New(store storage.Storage) *App {
	return &App{
		Storage:    store,
		recurrence: recurrence.NewEngine(store),
		query:      query.NewEngine(store),
		sweeper:    retention.NewSweeper(store),
	}
}

type CreateParams struct {
	Title       string
	AnchorDay   time.Time
	EndDay      time.Time // zero value means same as AnchorDay
	StartTime   string
	EndTime     string
	Description string
	AllDay      bool
	Recurring   bool
	Pattern     string
	Count       int // recurring instances to materialize, 0 means the default
}

type CreateResult struct {
	ID       int64 // first created event
	Created  int
	SeriesID string
	Failed   []time.Time
}

// CreateEvent validates params against today and persists either a single
// event spanning [AnchorDay, EndDay] or, for a recurring request, one
// single-day instance per generated occurrence. Materialization is
// best-effort: the result reports the dates that failed, and only a batch
// with zero created instances is an overall failure.
func (a *App) CreateEvent(ctx context.Context, today time.Time, p CreateParams) (CreateResult, error) {
	if err := validate(p.Title, p.Description, p.AnchorDay, p.StartTime, p.EndTime, p.AllDay, today); err != nil {
		return CreateResult{}, err
	}
	if p.AllDay {
		p.StartTime = storage.AllDayTime
		p.EndTime = storage.AllDayTime
	}

	anchor := util.TruncateToDay(p.AnchorDay)

	if p.Recurring {
		pattern, err := recurrence.ParsePattern(p.Pattern)
		if err != nil {
			return CreateResult{}, err
		}
		dates, err := recurrence.Occurrences(anchor, pattern, p.Count)
		if err != nil {
			return CreateResult{}, err
		}
		result, err := a.recurrence.Materialize(ctx, recurrence.Series{
			Title:       p.Title,
			Description: p.Description,
			StartTime:   p.StartTime,
			EndTime:     p.EndTime,
			AllDay:      p.AllDay,
			Pattern:     pattern,
		}, dates)
		if err != nil {
			return CreateResult{}, err
		}
		if result.Created() == 0 {
			return CreateResult{Failed: result.Failed},
				fmt.Errorf("failed to create recurring event %q: no instances created", p.Title)
		}
		return CreateResult{
			ID:       result.IDs[0],
			Created:  result.Created(),
			SeriesID: result.SeriesID,
			Failed:   result.Failed,
		}, nil
	}

	end := anchor
	if !p.EndDay.IsZero() {
		end = util.TruncateToDay(p.EndDay)
		if end.Before(anchor) {
			return CreateResult{}, fmt.Errorf("event end day cannot be before its start day: %w", ErrValidation)
		}
	}
	e := storage.Event{
		Title:       p.Title,
		Description: p.Description,
		AnchorDay:   anchor,
		StartDay:    anchor,
		EndDay:      end,
		StartTime:   p.StartTime,
		EndTime:     p.EndTime,
		AllDay:      p.AllDay,
	}
	if err := a.Storage.AddEvent(ctx, &e); err != nil {
		return CreateResult{}, fmt.Errorf("failed to save event: %w", err)
	}
	return CreateResult{ID: e.ID, Created: 1}, nil
}

// UpdateParams holds partial updates; nil fields keep the current value.
type UpdateParams struct {
	Title       *string
	AnchorDay   *time.Time
	StartTime   *string
	EndTime     *string
	Description *string
	AllDay      *bool
	Recurring   *bool
	Pattern     *string
}

// UpdateEvent loads the event, applies the provided fields, re-validates the
// merged result and persists it. A changed anchor day also moves the start
// and end days of a single-day event. The anchor-not-in-the-past rule is only
// re-checked when the anchor day itself is changed.
func (a *App) UpdateEvent(ctx context.Context, today time.Time, id int64, p UpdateParams) error {
	e, err := a.Storage.GetEvent(ctx, id)
	if err != nil {
		return err
	}

	if p.Title != nil {
		e.Title = *p.Title
	}
	if p.AnchorDay != nil {
		day := util.TruncateToDay(*p.AnchorDay)
		if e.StartDay.Equal(e.EndDay) {
			e.StartDay = day
			e.EndDay = day
		}
		e.AnchorDay = day
	}
	if p.StartTime != nil {
		e.StartTime = *p.StartTime
	}
	if p.EndTime != nil {
		e.EndTime = *p.EndTime
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.AllDay != nil {
		e.AllDay = *p.AllDay
	}
	if e.AllDay {
		e.StartTime = storage.AllDayTime
		e.EndTime = storage.AllDayTime
	}
	if p.Recurring != nil {
		e.Recurring = *p.Recurring
	}
	if p.Pattern != nil {
		e.Pattern = *p.Pattern
	}
	if !e.Recurring {
		e.Pattern = ""
	}

	anchorFloor := e.AnchorDay
	if p.AnchorDay != nil {
		anchorFloor = today
	}
	if err := validate(e.Title, e.Description, e.AnchorDay, e.StartTime, e.EndTime, e.AllDay, anchorFloor); err != nil {
		return err
	}
	if e.Recurring {
		if _, err := recurrence.ParsePattern(e.Pattern); err != nil {
			return err
		}
	}

	if err := a.Storage.UpdateEvent(ctx, e); err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}
	return nil
}

// RemoveEvent deletes one event, or the whole series it belongs to when
// deleteAllRecurring is set and the event is a recurring instance. Returns
// the number of removed events.
func (a *App) RemoveEvent(ctx context.Context, id int64, deleteAllRecurring bool) (int, error) {
	e, err := a.Storage.GetEvent(ctx, id)
	if err != nil {
		return 0, err
	}

	if deleteAllRecurring && e.Recurring && e.SeriesID != "" {
		return a.recurrence.DeleteSeries(ctx, e.SeriesID)
	}

	if err := a.Storage.RemoveEvent(ctx, id); err != nil {
		return 0, err
	}
	return 1, nil
}

func (a *App) GetEvent(ctx context.Context, id int64) (storage.Event, error) {
	return a.Storage.GetEvent(ctx, id)
}

func (a *App) GetEventsForDay(ctx context.Context, day time.Time) ([]storage.Event, error) {
	return a.query.ForDay(ctx, day)
}

func (a *App) GetEventsForWeek(ctx context.Context, date time.Time) ([]storage.Event, error) {
	return a.query.ForWeek(ctx, date)
}

func (a *App) GetEventsForMonth(ctx context.Context, year int, month time.Month) ([]storage.Event, error) {
	return a.query.ForMonth(ctx, year, month)
}

// GetAllEvents lists events across the default window of months around today,
// sorted by (anchor day, start time).
func (a *App) GetAllEvents(ctx context.Context, today time.Time) ([]storage.Event, error) {
	return a.query.ForWindow(ctx, today, query.DefaultWindowMonths, query.DefaultWindowMonths)
}

func (a *App) HasEventsOnDay(ctx context.Context, day time.Time) (bool, error) {
	return a.query.HasEventsOnDay(ctx, day)
}

// FilterEvents applies the criteria to events, keeping the input order. The
// criteria must validate cleanly.
func (a *App) FilterEvents(events []storage.Event, c filter.Criteria) ([]storage.Event, error) {
	if errs := c.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("%s: %w", strings.Join(errs, "; "), ErrValidation)
	}
	return filter.Filter(events, c), nil
}

// Sweep runs the expired-event retention purge; called once at service
// startup.
func (a *App) Sweep(ctx context.Context, today time.Time) (int, error) {
	return a.sweeper.Sweep(ctx, today)
}

func validate(title, description string, anchor time.Time, startTime, endTime string, allDay bool, today time.Time) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("event title is required and cannot be empty: %w", ErrValidation)
	}
	if len(description) > MaxDescriptionLength {
		return fmt.Errorf("description is longer than %d characters: %w", MaxDescriptionLength, ErrValidation)
	}
	if util.TruncateToDay(anchor).Before(util.TruncateToDay(today)) {
		return fmt.Errorf("cannot create events for past dates: %w", ErrValidation)
	}
	if !allDay {
		if strings.TrimSpace(startTime) == "" {
			return fmt.Errorf("start time is required for timed events: %w", ErrValidation)
		}
		if strings.TrimSpace(endTime) == "" {
			return fmt.Errorf("end time is required for timed events: %w", ErrValidation)
		}
	}
	return nil
}
