package sqlstorage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"           // postgres driver
	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
	log "github.com/sirupsen/logrus"

	"github.com/dmarkin/calendar/internal/storage"
	"github.com/dmarkin/calendar/internal/util"
)

var ErrConnectionFailed = errors.New("failed to connect")

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS events (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	title       TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	anchor_day  DATE NOT NULL,
	start_day   DATE NOT NULL,
	end_day     DATE NOT NULL,
	start_time  TEXT NOT NULL DEFAULT '',
	end_time    TEXT NOT NULL DEFAULT '',
	all_day     BOOLEAN NOT NULL DEFAULT 0,
	recurring   BOOLEAN NOT NULL DEFAULT 0,
	pattern     TEXT NOT NULL DEFAULT '',
	series_id   TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_events_span ON events(start_day, end_day);
CREATE INDEX IF NOT EXISTS idx_events_series ON events(series_id);
`

const selectColumns = "SELECT id, title, description, anchor_day, start_day, end_day, " +
	"start_time, end_time, all_day, recurring, pattern, series_id FROM events"

type Config struct {
	Driver   string
	Path     string
	Host     string
	Port     int
	Database string
	Username string
	Password string
}

type Storage struct {
	config Config
	db     *sqlx.DB
}

func New(config Config) *Storage {
	return &Storage{config: config}
}

func (s *Storage) Connect(ctx context.Context) error {
	db, err := sqlx.ConnectContext(ctx, s.config.Driver, s.dataSourceName())
	if err != nil {
		log.Errorf("failed to connect: %v", err)
		return ErrConnectionFailed
	}
	s.db = db

	// The postgres schema is managed externally; the sqlite file belongs to
	// this process and is bootstrapped in place.
	if s.config.Driver == "sqlite3" {
		if _, err := s.db.ExecContext(ctx, sqliteSchema); err != nil {
			return fmt.Errorf("failed to prepare schema: %w", err)
		}
	}
	return nil
}

func (s *Storage) dataSourceName() string {
	if s.config.Driver == "sqlite3" {
		return s.config.Path
	}
	return fmt.Sprintf(
		"sslmode=disable host=%s port=%d dbname=%s user=%s password=%s",
		s.config.Host, s.config.Port, s.config.Database, s.config.Username, s.config.Password)
}

func (s *Storage) Close(_ context.Context) error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close connection: %w", err)
	}
	return nil
}

func (s *Storage) AddEvent(ctx context.Context, e *storage.Event) error {
	if strings.TrimSpace(e.Title) == "" {
		return storage.ErrEmptyTitle
	}
	if e.EndDay.Before(e.StartDay) {
		return storage.ErrIncorrectDaySpan
	}

	query := s.db.Rebind(
		"INSERT INTO events(title, description, anchor_day, start_day, end_day, " +
			"start_time, end_time, all_day, recurring, pattern, series_id) " +
			"VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id")
	return s.db.GetContext(
		ctx, &e.ID, query,
		e.Title, e.Description, e.AnchorDay, e.StartDay, e.EndDay,
		e.StartTime, e.EndTime, e.AllDay, e.Recurring, e.Pattern, e.SeriesID)
}

func (s *Storage) GetEvent(ctx context.Context, id int64) (storage.Event, error) {
	var e storage.Event
	err := s.db.GetContext(ctx, &e, s.db.Rebind(selectColumns+" WHERE id=?"), id)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.Event{}, fmt.Errorf("failed to get event with id %d: %w", id, storage.ErrNotFoundEvent)
	}
	return e, err
}

func (s *Storage) UpdateEvent(ctx context.Context, e storage.Event) error {
	if e.EndDay.Before(e.StartDay) {
		return storage.ErrIncorrectDaySpan
	}

	query := s.db.Rebind(
		"UPDATE events SET title=?, description=?, anchor_day=?, start_day=?, end_day=?, " +
			"start_time=?, end_time=?, all_day=?, recurring=?, pattern=?, series_id=? WHERE id=?")
	res, err := s.db.ExecContext(
		ctx, query,
		e.Title, e.Description, e.AnchorDay, e.StartDay, e.EndDay,
		e.StartTime, e.EndTime, e.AllDay, e.Recurring, e.Pattern, e.SeriesID, e.ID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("failed to update event with id %d: %w", e.ID, storage.ErrNotFoundEvent)
	}
	return nil
}

func (s *Storage) RemoveEvent(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind("DELETE FROM events WHERE id=?"), id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("failed to remove event with id %d: %w", id, storage.ErrNotFoundEvent)
	}
	return nil
}

func (s *Storage) RemoveSeries(ctx context.Context, seriesID string) (int, error) {
	res, err := s.db.ExecContext(
		ctx, s.db.Rebind("DELETE FROM events WHERE series_id=? AND series_id<>''"), seriesID)
	if err != nil {
		return 0, err
	}
	affected, err := res.RowsAffected()
	return int(affected), err
}

func (s *Storage) RemoveEndedBefore(ctx context.Context, day time.Time) (int, error) {
	res, err := s.db.ExecContext(
		ctx, s.db.Rebind("DELETE FROM events WHERE end_day<?"), util.TruncateToDay(day))
	if err != nil {
		return 0, err
	}
	affected, err := res.RowsAffected()
	return int(affected), err
}

func (s *Storage) GetEventsForDay(ctx context.Context, day time.Time) ([]storage.Event, error) {
	day = util.TruncateToDay(day)
	return s.selectByRange(ctx, day, day)
}

func (s *Storage) GetEventsForMonth(ctx context.Context, year int, month time.Month) ([]storage.Event, error) {
	return s.selectByRange(ctx, util.MonthFirstDay(year, month), util.MonthLastDay(year, month))
}

// Select events overlapping the inclusive [first:last] day interval.
func (s *Storage) selectByRange(ctx context.Context, first, last time.Time) ([]storage.Event, error) {
	events := make([]storage.Event, 0)
	err := s.db.SelectContext(
		ctx, &events, s.db.Rebind(selectColumns+" WHERE start_day<=? AND end_day>=?"), last, first)
	return events, err
}
