package clock

import (
	"time"

	"github.com/coder/quartz"
)

// Clock abstracts time and timers so recorders stay deterministic in tests.
type Clock = quartz.Clock

func NewSystem() Clock {
	return quartz.NewReal()
}

const DateLayout = "2006-01-02"

// DateKey renders the calendar date of t in t's own location.
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}

// MondayIndex maps t's weekday onto 0..6 with Monday first.
func MondayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

func WeekStartKey(t time.Time) string {
	y, m, d := t.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	return DateKey(midnight.AddDate(0, 0, -MondayIndex(t)))
}

func Yesterday(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d-1, 12, 0, 0, 0, t.Location())
}

