package engine

import (
	"math"
	"time"

	"gorm.io/gorm"

	"github.com/oakghana/20feb26qrcode-sub000/internal/audit"
	"github.com/oakghana/20feb26qrcode-sub000/internal/devicetrust"
	"github.com/oakghana/20feb26qrcode-sub000/internal/leave"
	"github.com/oakghana/20feb26qrcode-sub000/internal/policy"
)

const workDateLayout = "2006-01-02"

// Engine is the attendance state machine for one user and one work date:
// NotStarted -> CheckedIn -> CheckedOut. Correctness under concurrent
// callers comes from the store (unique index, conditional updates), not
// from in-process locks.
type Engine struct {
	db       *gorm.DB
	radius   *policy.RadiusPolicy
	schedule policy.SchedulePolicy
	trust    *devicetrust.Tracker
	leave    *leave.Gate
	audit    *audit.Logger
}

func New(db *gorm.DB, radius *policy.RadiusPolicy, schedule policy.SchedulePolicy, trust *devicetrust.Tracker, gate *leave.Gate, auditLogger *audit.Logger) *Engine {
	return &Engine{
		db:       db,
		radius:   radius,
		schedule: schedule,
		trust:    trust,
		leave:    gate,
		audit:    auditLogger,
	}
}

// WorkDate is the calendar-day key of an attendance record, taken in the
// timestamp's own location.
func WorkDate(tm time.Time) string {
	return tm.Format(workDateLayout)
}

// endOfWorkDate is 23:59:59 of the given work date, used when the system
// closes a session the user forgot to.
func endOfWorkDate(workDate string, loc *time.Location) time.Time {
	day, err := time.ParseInLocation(workDateLayout, workDate, loc)
	if err != nil {
		day = time.Now().In(loc)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), 23, 59, 59, 0, loc)
}

// workHours computes hours between check-in and check-out at minute
// precision (seconds truncated), rounded to two decimals.
func workHours(checkIn, checkOut time.Time) float64 {
	minutes := checkOut.Sub(checkIn).Truncate(time.Minute)
	return round2(minutes.Hours())
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
