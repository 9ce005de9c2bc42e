package retention

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/dmarkin/calendar/internal/storage"
	"github.com/dmarkin/calendar/internal/util"
)

// LookBackMonths is how many months before today's month the sweep scans,
// in addition to the current month.
const LookBackMonths = 12

type Sweeper struct {
	store storage.Storage
}

func NewSweeper(store storage.Storage) *Sweeper {
	return &Sweeper{store: store}
}

// Sweep deletes every event whose span has fully elapsed before today,
// scanning the current month and LookBackMonths months before it. A delete
// that errors is logged and skipped. Returns the number of purged events.
func (s *Sweeper) Sweep(ctx context.Context, today time.Time) (int, error) {
	today = util.TruncateToDay(today)

	stale := make(map[int64]struct{})
	for offset := -LookBackMonths; offset <= 0; offset++ {
		year, month := util.AddMonths(today.Year(), today.Month(), offset)
		events, err := s.store.GetEventsForMonth(ctx, year, month)
		if err != nil {
			return 0, err
		}
		for _, e := range events {
			if e.EndDay.Before(today) {
				stale[e.ID] = struct{}{}
			}
		}
	}

	purged := 0
	for id := range stale {
		if err := s.store.RemoveEvent(ctx, id); err != nil {
			log.Errorf("failed to purge event %d: %v", id, err)
			continue
		}
		purged++
	}
	if purged > 0 {
		log.Infof("purged %d expired events", purged)
	}
	return purged, nil
}
