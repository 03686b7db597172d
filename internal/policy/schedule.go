package policy

import (
	"fmt"
	"time"

	"github.com/oakghana/20feb26qrcode-sub000/internal/models"
)

// SchedulePolicy holds the clock-driven attendance rules. All values are
// wall-clock times in "15:04" form, evaluated in the timestamp's location.
type SchedulePolicy struct {
	// Check-in is admitted inside [WindowOpen, WindowClose].
	WindowOpen  string
	WindowClose string
	// Check-ins strictly after the cutoff are late.
	LatenessCutoff string
	// Checkout before the threshold needs a reason. Operational sites close
	// an hour earlier than offices and branches.
	DefaultCheckOutThreshold   string
	CategoryCheckOutThresholds map[string]string
}

func DefaultSchedulePolicy() SchedulePolicy {
	return SchedulePolicy{
		WindowOpen:               "06:00",
		WindowClose:              "20:00",
		LatenessCutoff:           "09:00",
		DefaultCheckOutThreshold: "17:00",
		CategoryCheckOutThresholds: map[string]string{
			models.LocationCategoryOperationalSite: "16:00",
		},
	}
}

// atClock anchors a "15:04" clock value on the given day, in its location.
func atClock(day time.Time, clock string) time.Time {
	parsed, err := time.Parse("15:04", clock)
	if err != nil {
		parsed, _ = time.Parse("15:04", "17:00")
	}
	return time.Date(day.Year(), day.Month(), day.Day(), parsed.Hour(), parsed.Minute(), 0, 0, day.Location())
}

// WindowContains reports whether now falls inside the permitted check-in
// window. Both edges are inclusive.
func (p SchedulePolicy) WindowContains(now time.Time) bool {
	open := atClock(now, p.WindowOpen)
	closeAt := atClock(now, p.WindowClose)
	return !now.Before(open) && !now.After(closeAt)
}

// IsLate reports whether now is strictly after the lateness cutoff; a
// check-in at exactly the cutoff second is on time.
func (p SchedulePolicy) IsLate(now time.Time) bool {
	return now.After(atClock(now, p.LatenessCutoff))
}

// CheckOutThreshold returns the earliest reason-free checkout time on the
// given day for an assigned location category.
func (p SchedulePolicy) CheckOutThreshold(day time.Time, locationCategory string) time.Time {
	if clock, ok := p.CategoryCheckOutThresholds[locationCategory]; ok {
		return atClock(day, clock)
	}
	return atClock(day, p.DefaultCheckOutThreshold)
}

// IsEarlyCheckout reports whether now is before the reason-free threshold.
func (p SchedulePolicy) IsEarlyCheckout(now time.Time, locationCategory string) bool {
	return now.Before(p.CheckOutThreshold(now, locationCategory))
}

// WindowDescription renders the window for user-facing rejection messages.
func (p SchedulePolicy) WindowDescription() string {
	return fmt.Sprintf("%s-%s", p.WindowOpen, p.WindowClose)
}
