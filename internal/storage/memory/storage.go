package memorystorage

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dmarkin/calendar/internal/storage"
	"github.com/dmarkin/calendar/internal/util"
)

type Storage struct {
	mu    sync.RWMutex
	data  map[int64]storage.Event
	idSeq int64
}

func New() *Storage {
	return &Storage{data: make(map[int64]storage.Event)}
}

func (s *Storage) Connect(_ context.Context) error {
	return nil
}

func (s *Storage) Close(_ context.Context) error {
	return nil
}

func (s *Storage) AddEvent(_ context.Context, e *storage.Event) error {
	if err := validate(e); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.idSeq++
	e.ID = s.idSeq
	s.data[e.ID] = *e
	return nil
}

func (s *Storage) GetEvent(_ context.Context, id int64) (storage.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.data[id]
	if !ok {
		return storage.Event{}, fmt.Errorf("failed to get event with id %d: %w", id, storage.ErrNotFoundEvent)
	}
	return e, nil
}

func (s *Storage) UpdateEvent(_ context.Context, e storage.Event) error {
	if err := validate(&e); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[e.ID]; !ok {
		return fmt.Errorf("failed to update event with id %d: %w", e.ID, storage.ErrNotFoundEvent)
	}
	s.data[e.ID] = e
	return nil
}

func (s *Storage) RemoveEvent(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[id]; !ok {
		return fmt.Errorf("failed to remove event with id %d: %w", id, storage.ErrNotFoundEvent)
	}
	delete(s.data, id)
	return nil
}

func (s *Storage) RemoveSeries(_ context.Context, seriesID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for id, e := range s.data {
		if e.SeriesID != "" && e.SeriesID == seriesID {
			delete(s.data, id)
			count++
		}
	}
	return count, nil
}

func (s *Storage) RemoveEndedBefore(_ context.Context, day time.Time) (int, error) {
	day = util.TruncateToDay(day)
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for id, e := range s.data {
		if e.EndDay.Before(day) {
			delete(s.data, id)
			count++
		}
	}
	return count, nil
}

func (s *Storage) GetEventsForDay(_ context.Context, day time.Time) ([]storage.Event, error) {
	day = util.TruncateToDay(day)
	return s.selectByRange(day, day)
}

func (s *Storage) GetEventsForMonth(_ context.Context, year int, month time.Month) ([]storage.Event, error) {
	return s.selectByRange(util.MonthFirstDay(year, month), util.MonthLastDay(year, month))
}

// Select events overlapping the inclusive [first:last] day interval.
func (s *Storage) selectByRange(first, last time.Time) ([]storage.Event, error) {
	events := make([]storage.Event, 0)
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, event := range s.data {
		if event.OverlapsRange(first, last) {
			events = append(events, event)
		}
	}
	return events, nil
}

func validate(e *storage.Event) error {
	if strings.TrimSpace(e.Title) == "" {
		return storage.ErrEmptyTitle
	}
	if e.EndDay.Before(e.StartDay) {
		return fmt.Errorf("end day %s is before start day %s: %w",
			e.EndDay.Format("2006-01-02"), e.StartDay.Format("2006-01-02"), storage.ErrIncorrectDaySpan)
	}
	return nil
}
