package engine

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oakghana/20feb26qrcode-sub000/internal/geo"
	"github.com/oakghana/20feb26qrcode-sub000/internal/models"
	"github.com/oakghana/20feb26qrcode-sub000/internal/policy"
)

type CheckOutRequest struct {
	LocationID  *uuid.UUID
	Coordinates *geo.Coordinates
	Reason      string
	Device      DeviceInfo
}

type CheckOutResult struct {
	Record         *models.AttendanceRecord
	Early          bool
	DistanceMeters *float64
}

// RequestCheckOut closes today's open session. The early-checkout threshold
// follows the user's assigned location category, and the reported position,
// when supplied, is validated against the check-out radius for the device
// class.
func (e *Engine) RequestCheckOut(user *models.User, now time.Time, req CheckOutRequest) (*CheckOutResult, error) {
	today := WorkDate(now)

	var record models.AttendanceRecord
	err := e.db.Where("user_id = ? AND work_date = ?", user.ID, today).Take(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, Reject(KindNoOpenSession, "no check-in found for %s; check in before checking out", today)
		}
		return nil, err
	}
	if !record.Open() {
		hours := 0.0
		if record.WorkHours != nil {
			hours = *record.WorkHours
		}
		r := Reject(KindAlreadyCheckedOut, "you already checked out at %s (%.2f hours worked)",
			record.CheckOutAt.In(now.Location()).Format("15:04:05"), hours)
		r.Record = &record
		return nil, r
	}

	// A client clock or an admin backfill can never move checkout before
	// check-in.
	if now.Before(record.CheckInAt) {
		now = record.CheckInAt
	}

	var checkOutLocation *models.Location
	var distance *float64
	if req.LocationID != nil {
		checkOutLocation, err = e.findLocation(e.db, req.LocationID)
		if err != nil {
			return nil, err
		}
		if req.Coordinates != nil && req.Coordinates.Plausible() {
			threshold := e.radius.ThresholdFor(req.Device.Class, policy.OperationCheckOut)
			inRange, measured := geo.WithinRange(*req.Coordinates, checkOutLocation.Latitude, checkOutLocation.Longitude, threshold)
			distance = &measured
			if !inRange {
				return nil, Reject(KindOutOfRange, "you are %.0f m from %s; check-out requires being within %.0f m",
					measured, checkOutLocation.Name, threshold)
			}
		}
	}

	assignedCategory, err := e.assignedLocationCategory(user)
	if err != nil {
		return nil, err
	}
	early := e.schedule.IsEarlyCheckout(now, assignedCategory)
	if early && req.Reason == "" {
		threshold := e.schedule.CheckOutThreshold(now, assignedCategory)
		return nil, Reject(KindEarlyCheckoutReasonRequired, "checking out before %s requires a reason; it is now %s",
			threshold.Format("15:04"), now.Format("15:04:05"))
	}

	hours := workHours(record.CheckInAt, now)
	updates := map[string]any{
		"check_out_at":     now,
		"check_out_method": models.CheckMethodGPS,
		"work_hours":       hours,
	}
	if checkOutLocation != nil {
		updates["check_out_location_id"] = checkOutLocation.ID
		updates["check_out_location_name"] = checkOutLocation.Name
	}
	if early {
		updates["early_checkout"] = true
		updates["early_checkout_reason"] = req.Reason
	}

	result := e.db.Model(&models.AttendanceRecord{}).
		Where("id = ? AND check_out_at IS NULL", record.ID).
		Updates(updates)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		// A concurrent call closed the session first.
		if err := e.db.Where("id = ?", record.ID).Take(&record).Error; err != nil {
			return nil, err
		}
		r := Reject(KindAlreadyCheckedOut, "the session was already closed at %s",
			record.CheckOutAt.In(now.Location()).Format("15:04:05"))
		r.Record = &record
		return nil, r
	}

	if err := e.db.Where("id = ?", record.ID).Take(&record).Error; err != nil {
		return nil, err
	}

	e.audit.Record(user.ID.String(), "attendance.check_out", "attendance_records", record.ID.String(), map[string]any{
		"workDate":         record.WorkDate,
		"earlyCheckout":    early,
		"assignedCategory": assignedCategory,
		"workHours":        hours,
		"distanceMeters":   distance,
		"deviceClass":      req.Device.Class,
	})

	return &CheckOutResult{Record: &record, Early: early, DistanceMeters: distance}, nil
}

// assignedLocationCategory resolves the category driving the early-checkout
// threshold. Users without an assignment fall back to the default policy.
func (e *Engine) assignedLocationCategory(user *models.User) (string, error) {
	if user.AssignedLocationID == nil {
		return "", nil
	}
	var location models.Location
	err := e.db.Where("id = ?", *user.AssignedLocationID).Take(&location).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}
	return location.Category, nil
}
