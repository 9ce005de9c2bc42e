package app_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmarkin/calendar/internal/app"
	"github.com/dmarkin/calendar/internal/filter"
	"github.com/dmarkin/calendar/internal/storage"
	memorystorage "github.com/dmarkin/calendar/internal/storage/memory"
	"github.com/dmarkin/calendar/internal/util"
)

var today = util.Day(2025, time.March, 1)

func newApp() (*app.App, *memorystorage.Storage) {
	store := memorystorage.New()
	return app.New(store), store
}

func timedParams(title string, day time.Time) app.CreateParams {
	return app.CreateParams{
		Title:     title,
		AnchorDay: day,
		StartTime: "10:00",
		EndTime:   "11:00",
	}
}

func TestCreateEvent(t *testing.T) {
	ctx := context.Background()

	t.Run("single event", func(t *testing.T) {
		calendar, store := newApp()
		result, err := calendar.CreateEvent(ctx, today, timedParams("Dentist", today))
		require.NoError(t, err)
		require.Equal(t, 1, result.Created)

		e, err := store.GetEvent(ctx, result.ID)
		require.NoError(t, err)
		require.Equal(t, "Dentist", e.Title)
		require.True(t, e.StartDay.Equal(today))
		require.True(t, e.EndDay.Equal(today))
		require.False(t, e.Recurring)
		require.Empty(t, e.Pattern)
	})

	t.Run("multi-day event", func(t *testing.T) {
		calendar, store := newApp()
		params := timedParams("Offsite", util.Day(2025, time.March, 30))
		params.EndDay = util.Day(2025, time.April, 2)
		result, err := calendar.CreateEvent(ctx, today, params)
		require.NoError(t, err)

		e, err := store.GetEvent(ctx, result.ID)
		require.NoError(t, err)
		require.True(t, e.EndDay.Equal(util.Day(2025, time.April, 2)))
	})

	t.Run("all-day forces sentinel times", func(t *testing.T) {
		calendar, store := newApp()
		params := app.CreateParams{Title: "Holiday", AnchorDay: today, AllDay: true}
		result, err := calendar.CreateEvent(ctx, today, params)
		require.NoError(t, err)

		e, err := store.GetEvent(ctx, result.ID)
		require.NoError(t, err)
		require.True(t, e.AllDay)
		require.Equal(t, storage.AllDayTime, e.StartTime)
		require.Equal(t, storage.AllDayTime, e.EndTime)
	})

	t.Run("recurring creates instances", func(t *testing.T) {
		calendar, store := newApp()
		params := timedParams("Standup", util.Day(2025, time.March, 3))
		params.Recurring = true
		params.Pattern = "weekly"
		params.Count = 4

		result, err := calendar.CreateEvent(ctx, today, params)
		require.NoError(t, err)
		require.Equal(t, 4, result.Created)
		require.NotEmpty(t, result.SeriesID)
		require.Empty(t, result.Failed)

		march, err := store.GetEventsForMonth(ctx, 2025, time.March)
		require.NoError(t, err)
		require.Len(t, march, 4)
		for _, e := range march {
			require.Equal(t, result.SeriesID, e.SeriesID)
			require.True(t, e.StartDay.Equal(e.EndDay))
		}
	})
}

func TestCreateEventValidation(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		params app.CreateParams
	}{
		{name: "empty title", params: timedParams("", today)},
		{name: "blank title", params: timedParams("   ", today)},
		{name: "past date", params: timedParams("test", util.Day(2025, time.February, 28))},
		{
			name: "end day before start day",
			params: func() app.CreateParams {
				p := timedParams("test", util.Day(2025, time.March, 10))
				p.EndDay = util.Day(2025, time.March, 9)
				return p
			}(),
		},
		{
			name: "long description",
			params: func() app.CreateParams {
				p := timedParams("test", today)
				for len(p.Description) <= app.MaxDescriptionLength {
					p.Description += "x"
				}
				return p
			}(),
		},
		{
			name: "missing start time",
			params: app.CreateParams{
				Title: "test", AnchorDay: today, EndTime: "11:00",
			},
		},
		{
			name: "missing end time",
			params: app.CreateParams{
				Title: "test", AnchorDay: today, StartTime: "10:00",
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			calendar, store := newApp()
			_, err := calendar.CreateEvent(ctx, today, tt.params)
			require.ErrorIs(t, err, app.ErrValidation)

			events, err := store.GetEventsForMonth(ctx, today.Year(), today.Month())
			require.NoError(t, err)
			require.Empty(t, events)
		})
	}

	t.Run("unknown pattern", func(t *testing.T) {
		calendar, store := newApp()
		params := timedParams("test", today)
		params.Recurring = true
		params.Pattern = "sometimes"
		_, err := calendar.CreateEvent(ctx, today, params)
		require.Error(t, err)

		events, err := store.GetEventsForMonth(ctx, today.Year(), today.Month())
		require.NoError(t, err)
		require.Empty(t, events)
	})
}

func TestUpdateEvent(t *testing.T) {
	ctx := context.Background()

	t.Run("partial update keeps other fields", func(t *testing.T) {
		calendar, store := newApp()
		params := timedParams("Dentist", today)
		params.Description = "checkup"
		result, err := calendar.CreateEvent(ctx, today, params)
		require.NoError(t, err)

		title := "Dentist (moved)"
		require.NoError(t, calendar.UpdateEvent(ctx, today, result.ID, app.UpdateParams{Title: &title}))

		e, err := store.GetEvent(ctx, result.ID)
		require.NoError(t, err)
		require.Equal(t, title, e.Title)
		require.Equal(t, "checkup", e.Description)
		require.Equal(t, "10:00", e.StartTime)
	})

	t.Run("moving anchor moves single-day span", func(t *testing.T) {
		calendar, store := newApp()
		result, err := calendar.CreateEvent(ctx, today, timedParams("Dentist", today))
		require.NoError(t, err)

		day := util.Day(2025, time.March, 20)
		require.NoError(t, calendar.UpdateEvent(ctx, today, result.ID, app.UpdateParams{AnchorDay: &day}))

		e, err := store.GetEvent(ctx, result.ID)
		require.NoError(t, err)
		require.True(t, e.AnchorDay.Equal(day))
		require.True(t, e.StartDay.Equal(day))
		require.True(t, e.EndDay.Equal(day))
	})

	t.Run("switching to all-day forces times", func(t *testing.T) {
		calendar, store := newApp()
		result, err := calendar.CreateEvent(ctx, today, timedParams("Dentist", today))
		require.NoError(t, err)

		allDay := true
		require.NoError(t, calendar.UpdateEvent(ctx, today, result.ID, app.UpdateParams{AllDay: &allDay}))

		e, err := store.GetEvent(ctx, result.ID)
		require.NoError(t, err)
		require.Equal(t, storage.AllDayTime, e.StartTime)
		require.Equal(t, storage.AllDayTime, e.EndTime)
	})

	t.Run("invalid merged result rejected", func(t *testing.T) {
		calendar, _ := newApp()
		result, err := calendar.CreateEvent(ctx, today, timedParams("Dentist", today))
		require.NoError(t, err)

		empty := ""
		err = calendar.UpdateEvent(ctx, today, result.ID, app.UpdateParams{Title: &empty})
		require.ErrorIs(t, err, app.ErrValidation)
	})

	t.Run("moving anchor into the past rejected", func(t *testing.T) {
		calendar, _ := newApp()
		result, err := calendar.CreateEvent(ctx, today, timedParams("Dentist", today))
		require.NoError(t, err)

		past := util.Day(2025, time.February, 1)
		err = calendar.UpdateEvent(ctx, today, result.ID, app.UpdateParams{AnchorDay: &past})
		require.ErrorIs(t, err, app.ErrValidation)
	})

	t.Run("not found", func(t *testing.T) {
		calendar, _ := newApp()
		title := "x"
		err := calendar.UpdateEvent(ctx, today, 42, app.UpdateParams{Title: &title})
		require.ErrorIs(t, err, storage.ErrNotFoundEvent)
	})
}

func TestRemoveEvent(t *testing.T) {
	ctx := context.Background()

	t.Run("single", func(t *testing.T) {
		calendar, store := newApp()
		result, err := calendar.CreateEvent(ctx, today, timedParams("Dentist", today))
		require.NoError(t, err)

		count, err := calendar.RemoveEvent(ctx, result.ID, false)
		require.NoError(t, err)
		require.Equal(t, 1, count)

		_, err = store.GetEvent(ctx, result.ID)
		require.ErrorIs(t, err, storage.ErrNotFoundEvent)
	})

	t.Run("one instance of a series", func(t *testing.T) {
		calendar, store := newApp()
		params := timedParams("Standup", util.Day(2025, time.March, 3))
		params.Recurring = true
		params.Pattern = "weekly"
		params.Count = 4
		result, err := calendar.CreateEvent(ctx, today, params)
		require.NoError(t, err)

		count, err := calendar.RemoveEvent(ctx, result.ID, false)
		require.NoError(t, err)
		require.Equal(t, 1, count)

		march, err := store.GetEventsForMonth(ctx, 2025, time.March)
		require.NoError(t, err)
		require.Len(t, march, 3)
	})

	t.Run("whole series", func(t *testing.T) {
		calendar, store := newApp()
		params := timedParams("Standup", util.Day(2025, time.March, 3))
		params.Recurring = true
		params.Pattern = "weekly"
		params.Count = 4
		result, err := calendar.CreateEvent(ctx, today, params)
		require.NoError(t, err)

		count, err := calendar.RemoveEvent(ctx, result.ID, true)
		require.NoError(t, err)
		require.Equal(t, 4, count)

		march, err := store.GetEventsForMonth(ctx, 2025, time.March)
		require.NoError(t, err)
		require.Empty(t, march)
	})

	t.Run("not found", func(t *testing.T) {
		calendar, _ := newApp()
		_, err := calendar.RemoveEvent(ctx, 42, false)
		require.ErrorIs(t, err, storage.ErrNotFoundEvent)
	})
}

func TestGetAllEvents(t *testing.T) {
	ctx := context.Background()
	calendar, _ := newApp()

	params := timedParams("Offsite", util.Day(2025, time.March, 30))
	params.EndDay = util.Day(2025, time.April, 2)
	spanning, err := calendar.CreateEvent(ctx, today, params)
	require.NoError(t, err)

	_, err = calendar.CreateEvent(ctx, today, timedParams("Dentist", util.Day(2025, time.May, 6)))
	require.NoError(t, err)

	events, err := calendar.GetAllEvents(ctx, today)
	require.NoError(t, err)
	require.Len(t, events, 2)

	count := 0
	for _, e := range events {
		if e.ID == spanning.ID {
			count++
		}
	}
	require.Equal(t, 1, count)
}

func TestFilterEvents(t *testing.T) {
	ctx := context.Background()
	calendar, _ := newApp()

	allDay := app.CreateParams{Title: "Holiday", AnchorDay: today, AllDay: true}
	_, err := calendar.CreateEvent(ctx, today, allDay)
	require.NoError(t, err)

	standup := timedParams("Standup", util.Day(2025, time.March, 3))
	standup.Recurring = true
	standup.Pattern = "weekly"
	standup.Count = 2
	_, err = calendar.CreateEvent(ctx, today, standup)
	require.NoError(t, err)

	events, err := calendar.GetAllEvents(ctx, today)
	require.NoError(t, err)

	criteria := filter.Default()
	criteria.ShowRecurring = false
	filtered, err := calendar.FilterEvents(events, criteria)
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	require.Equal(t, "Holiday", filtered[0].Title)

	_, err = calendar.FilterEvents(events, filter.Criteria{})
	require.ErrorIs(t, err, app.ErrValidation)
}

func TestSweepAtStartup(t *testing.T) {
	ctx := context.Background()
	store := memorystorage.New()

	// Seed an already-elapsed event directly, bypassing create validation.
	expired := storage.Event{
		Title:     "expired",
		AnchorDay: util.Day(2025, time.February, 10),
		StartDay:  util.Day(2025, time.February, 10),
		EndDay:    util.Day(2025, time.February, 11),
		StartTime: "10:00",
		EndTime:   "11:00",
	}
	require.NoError(t, store.AddEvent(ctx, &expired))

	calendar := app.New(store)
	purged, err := calendar.Sweep(ctx, today)
	require.NoError(t, err)
	require.Equal(t, 1, purged)

	purged, err = calendar.Sweep(ctx, today)
	require.NoError(t, err)
	require.Zero(t, purged)
}
