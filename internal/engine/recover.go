package engine

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/oakghana/20feb26qrcode-sub000/internal/models"
)

// recoverMissedCheckout closes yesterday's session if the user never
// checked out, at 23:59:59 of that day with the auto_system method. It runs
// synchronously as part of today's check-in; there is no scheduler. The
// returned warning is surfaced to the user.
func (e *Engine) recoverMissedCheckout(db *gorm.DB, user *models.User, now time.Time) (string, error) {
	yesterday := WorkDate(now.AddDate(0, 0, -1))

	var stale models.AttendanceRecord
	err := db.Where("user_id = ? AND work_date = ? AND check_out_at IS NULL", user.ID, yesterday).
		Take(&stale).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}

	closeAt := endOfWorkDate(stale.WorkDate, now.Location())
	hours := workHours(stale.CheckInAt, closeAt)

	// Conditional on the session still being open so a concurrent recovery
	// cannot close it twice.
	result := db.Model(&models.AttendanceRecord{}).
		Where("id = ? AND check_out_at IS NULL", stale.ID).
		Updates(map[string]any{
			"check_out_at":            closeAt,
			"check_out_method":        models.CheckMethodAutoSystem,
			"check_out_location_name": stale.CheckInLocationName,
			"work_hours":              hours,
		})
	if result.Error != nil {
		return "", result.Error
	}
	if result.RowsAffected == 0 {
		return "", nil
	}

	e.audit.RecordTx(db, "system", "attendance.auto_checkout", "attendance_records", stale.ID.String(), map[string]any{
		"workDate":  stale.WorkDate,
		"closedAt":  closeAt,
		"workHours": hours,
	})

	return fmt.Sprintf("you did not check out on %s; a checkout was recorded automatically at 23:59:59", stale.WorkDate), nil
}
