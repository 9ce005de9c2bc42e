package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/dmarkin/calendar/internal/app"
	"github.com/dmarkin/calendar/internal/filter"
	"github.com/dmarkin/calendar/internal/logger"
	"github.com/dmarkin/calendar/internal/storage"
	"github.com/dmarkin/calendar/internal/storagebuilder"
	"github.com/dmarkin/calendar/internal/util"
)

const dayFormat = "2006-01-02"

var configFile string

func init() {
	flag.StringVar(&configFile, "config", "./configs/config.yaml", "Path to configuration file")
	log.SetFormatter(&log.TextFormatter{})
	log.SetOutput(os.Stdout)
	log.SetLevel(log.WarnLevel)
}

func main() {
	flag.Parse()

	config, err := NewConfig(configFile)
	if err != nil {
		log.Errorf("failed to start %v", err)
		os.Exit(1)
	}
	err = logger.PrepareLogger(config.Logger)
	if err != nil {
		log.Errorf("failed to start %v", err)
		os.Exit(1)
	}
	stor, err := storagebuilder.New(config.Storage)
	if err != nil {
		log.Errorf("failed to start %v", err)
		os.Exit(1)
	}

	ctx := context.Background()
	defer func() {
		if err := stor.Close(ctx); err != nil {
			log.Errorf("failed to close storage: %v", err)
		}
	}()

	calendar := app.New(stor)
	today := util.TruncateToDay(time.Now())

	// Startup retention sweep.
	if _, err := calendar.Sweep(ctx, today); err != nil {
		log.Errorf("retention sweep failed: %v", err)
	}

	if err := run(ctx, calendar, today, flag.Args()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, calendar *app.App, today time.Time, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: calendar [-config file] add|list|day|remove")
	}

	switch args[0] {
	case "add":
		return runAdd(ctx, calendar, today, args[1:])
	case "list":
		return runList(ctx, calendar, today, args[1:])
	case "day":
		return runDay(ctx, calendar, today, args[1:])
	case "remove":
		return runRemove(ctx, calendar, args[1:])
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func runAdd(ctx context.Context, calendar *app.App, today time.Time, args []string) error {
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	title := fs.String("title", "", "event title")
	date := fs.String("date", today.Format(dayFormat), "event date (YYYY-MM-DD)")
	endDate := fs.String("end-date", "", "last day of a multi-day event (YYYY-MM-DD)")
	start := fs.String("start", "", "start time")
	end := fs.String("end", "", "end time")
	desc := fs.String("desc", "", "description")
	allDay := fs.Bool("all-day", false, "all-day event")
	pattern := fs.String("repeat", "", "recurrence pattern: daily|weekly|monthly|yearly")
	count := fs.Int("count", 0, "number of recurring instances (default 26)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	anchor, err := time.Parse(dayFormat, *date)
	if err != nil {
		return fmt.Errorf("incorrect date %q: %w", *date, err)
	}
	params := app.CreateParams{
		Title:       *title,
		AnchorDay:   anchor,
		StartTime:   *start,
		EndTime:     *end,
		Description: *desc,
		AllDay:      *allDay,
		Recurring:   *pattern != "",
		Pattern:     *pattern,
		Count:       *count,
	}
	if *endDate != "" {
		params.EndDay, err = time.Parse(dayFormat, *endDate)
		if err != nil {
			return fmt.Errorf("incorrect end date %q: %w", *endDate, err)
		}
	}

	result, err := calendar.CreateEvent(ctx, today, params)
	if err != nil {
		return err
	}
	if result.Created == 1 {
		fmt.Printf("created event %d\n", result.ID)
	} else {
		fmt.Printf("created %d instances (series %s)\n", result.Created, result.SeriesID)
	}
	for _, failed := range result.Failed {
		fmt.Printf("failed to create instance on %s\n", failed.Format(dayFormat))
	}
	return nil
}

func runList(ctx context.Context, calendar *app.App, today time.Time, args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	search := fs.String("search", "", "text to search in title/description")
	from := fs.String("from", "", "range start (YYYY-MM-DD)")
	to := fs.String("to", "", "range end (YYYY-MM-DD)")
	noAllDay := fs.Bool("no-all-day", false, "exclude all-day events")
	noTimed := fs.Bool("no-timed", false, "exclude timed events")
	noRecurring := fs.Bool("no-recurring", false, "exclude recurring events")
	if err := fs.Parse(args); err != nil {
		return err
	}

	criteria := filter.Default()
	criteria.SearchText = *search
	criteria.ShowAllDay = !*noAllDay
	criteria.ShowTimed = !*noTimed
	criteria.ShowRecurring = !*noRecurring
	if *from != "" && *to != "" {
		fromDay, err := time.Parse(dayFormat, *from)
		if err != nil {
			return fmt.Errorf("incorrect from date %q: %w", *from, err)
		}
		toDay, err := time.Parse(dayFormat, *to)
		if err != nil {
			return fmt.Errorf("incorrect to date %q: %w", *to, err)
		}
		criteria.FromDate = &fromDay
		criteria.ToDate = &toDay
	}

	events, err := calendar.GetAllEvents(ctx, today)
	if err != nil {
		return err
	}
	events, err = calendar.FilterEvents(events, criteria)
	if err != nil {
		return err
	}

	fmt.Println(criteria.Summary())
	for _, e := range events {
		printEvent(e)
	}
	return nil
}

func runDay(ctx context.Context, calendar *app.App, today time.Time, args []string) error {
	fs := flag.NewFlagSet("day", flag.ContinueOnError)
	date := fs.String("date", today.Format(dayFormat), "day to list (YYYY-MM-DD)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	day, err := time.Parse(dayFormat, *date)
	if err != nil {
		return fmt.Errorf("incorrect date %q: %w", *date, err)
	}
	events, err := calendar.GetEventsForDay(ctx, day)
	if err != nil {
		return err
	}
	for _, e := range events {
		printEvent(e)
	}
	return nil
}

func runRemove(ctx context.Context, calendar *app.App, args []string) error {
	fs := flag.NewFlagSet("remove", flag.ContinueOnError)
	id := fs.Int64("id", 0, "event id")
	series := fs.Bool("series", false, "remove all instances of a recurring event")
	if err := fs.Parse(args); err != nil {
		return err
	}

	count, err := calendar.RemoveEvent(ctx, *id, *series)
	if err != nil {
		return err
	}
	fmt.Printf("removed %d events\n", count)
	return nil
}

func printEvent(e storage.Event) {
	span := e.StartDay.Format(dayFormat)
	if !e.EndDay.Equal(e.StartDay) {
		span += " - " + e.EndDay.Format(dayFormat)
	}
	line := fmt.Sprintf("%4d  %s  %s-%s  %s", e.ID, span, e.StartTime, e.EndTime, e.Title)
	if e.Recurring {
		line += fmt.Sprintf(" (repeats %s)", e.Pattern)
	}
	fmt.Println(line)
}
