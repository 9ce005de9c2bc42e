package storage

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFoundEvent    = errors.New("event not found")
	ErrEmptyTitle       = errors.New("event title is required")
	ErrIncorrectDaySpan = errors.New("event end day is before start day")
)

type Storage interface {
	Connect(ctx context.Context) error
	Close(ctx context.Context) error
	AddEvent(ctx context.Context, e *Event) error
	GetEvent(ctx context.Context, id int64) (Event, error)
	UpdateEvent(ctx context.Context, e Event) error
	RemoveEvent(ctx context.Context, id int64) error
	RemoveSeries(ctx context.Context, seriesID string) (int, error)
	RemoveEndedBefore(ctx context.Context, day time.Time) (int, error)
	GetEventsForDay(ctx context.Context, day time.Time) ([]Event, error)
	GetEventsForMonth(ctx context.Context, year int, month time.Month) ([]Event, error)
}
