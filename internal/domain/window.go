package domain

import (
	"errors"
	"time"
)

// ErrInvalidWindow is returned when a window's start is not before its end.
var ErrInvalidWindow = errors.New("window start must be before end")

// TimeWindow is a half-open interval [Start, End) over which readings are
// aggregated.
type TimeWindow struct {
	Start time.Time `json:"start_time"`
	End   time.Time `json:"end_time"`
}

// NewTimeWindow builds a validated window.
func NewTimeWindow(start, end time.Time) (TimeWindow, error) {
	w := TimeWindow{Start: start.UTC(), End: end.UTC()}
	return w, w.Validate()
}

// DefaultWindow is the window the scheduler processes when none is given:
// the hour preceding now.
func DefaultWindow(now time.Time) TimeWindow {
	now = now.UTC()
	return TimeWindow{Start: now.Add(-time.Hour), End: now}
}

func (w TimeWindow) Validate() error {
	if !w.Start.Before(w.End) {
		return ErrInvalidWindow
	}
	return nil
}

func (w TimeWindow) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

// DurationHours is the window length in (possibly fractional) hours, as
// reported in the rollup summary.
func (w TimeWindow) DurationHours() float64 {
	return w.Duration().Hours()
}

func (w TimeWindow) IsZero() bool {
	return w.Start.IsZero() && w.End.IsZero()
}
