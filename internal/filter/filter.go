package filter

import (
	"fmt"
	"strings"
	"time"

	"github.com/dmarkin/calendar/internal/storage"
	"github.com/dmarkin/calendar/internal/util"
)

// Criteria describes an event filter. The zero value with the three Show
// flags set matches everything; use Default for that.
type Criteria struct {
	SearchText    string
	FromDate      *time.Time
	ToDate        *time.Time
	ShowAllDay    bool
	ShowTimed     bool
	ShowRecurring bool
}

func Default() Criteria {
	return Criteria{ShowAllDay: true, ShowTimed: true, ShowRecurring: true}
}

// Matches applies the text, date-range and type checks to one event. The date
// check compares the event's anchor day only and is skipped unless both range
// ends are set.
func (c Criteria) Matches(e storage.Event) bool {
	if text := strings.ToLower(strings.TrimSpace(c.SearchText)); text != "" {
		title := strings.Contains(strings.ToLower(e.Title), text)
		desc := strings.Contains(strings.ToLower(e.Description), text)
		if !title && !desc {
			return false
		}
	}

	if c.FromDate != nil && c.ToDate != nil {
		day := util.TruncateToDay(e.AnchorDay)
		if day.Before(util.TruncateToDay(*c.FromDate)) || day.After(util.TruncateToDay(*c.ToDate)) {
			return false
		}
	}

	if e.AllDay && !c.ShowAllDay {
		return false
	}
	if !e.AllDay && !c.ShowTimed {
		return false
	}
	if e.Recurring && !c.ShowRecurring {
		return false
	}
	return true
}

// Filter keeps the events matching c, preserving the input order.
func Filter(events []storage.Event, c Criteria) []storage.Event {
	filtered := make([]storage.Event, 0, len(events))
	for _, e := range events {
		if c.Matches(e) {
			filtered = append(filtered, e)
		}
	}
	return filtered
}

// Validate lists the problems with the criteria; an empty result means it can
// be applied.
func (c Criteria) Validate() []string {
	var errs []string
	if c.FromDate != nil && c.ToDate != nil && c.FromDate.After(*c.ToDate) {
		errs = append(errs, "'From' date must be before or equal to 'To' date")
	}
	if !c.ShowAllDay && !c.ShowTimed && !c.ShowRecurring {
		errs = append(errs, "at least one event type must be selected")
	}
	return errs
}

// Summary describes the active criteria for display.
func (c Criteria) Summary() string {
	var parts []string

	if text := strings.TrimSpace(c.SearchText); text != "" {
		parts = append(parts, fmt.Sprintf("Text: %q", text))
	}
	if c.FromDate != nil && c.ToDate != nil {
		parts = append(parts, fmt.Sprintf("Date: %s to %s",
			c.FromDate.Format("02-01-2006"), c.ToDate.Format("02-01-2006")))
	}

	var excluded []string
	if !c.ShowAllDay {
		excluded = append(excluded, "All-Day")
	}
	if !c.ShowTimed {
		excluded = append(excluded, "Timed")
	}
	if !c.ShowRecurring {
		excluded = append(excluded, "Recurring")
	}
	if len(excluded) > 0 {
		parts = append(parts, "Excluding: "+strings.Join(excluded, ", "))
	}

	if len(parts) == 0 {
		return "All events (no restrictions)"
	}
	return strings.Join(parts, " | ")
}
