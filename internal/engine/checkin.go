package engine

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oakghana/20feb26qrcode-sub000/internal/devicetrust"
	"github.com/oakghana/20feb26qrcode-sub000/internal/geo"
	"github.com/oakghana/20feb26qrcode-sub000/internal/models"
	"github.com/oakghana/20feb26qrcode-sub000/internal/policy"
)

// ProofOfPresence names every path that may bypass the server-side geofence
// recomputation. Each variant is audited, so a bypass can never be
// introduced silently by a boolean flag.
type ProofOfPresence string

const (
	ProofUnverified             ProofOfPresence = "unverified"
	ProofClientConfirmedInRange ProofOfPresence = "client_confirmed_in_range"
	ProofQRCode                 ProofOfPresence = "qr_code"
	ProofSupervisorApproved     ProofOfPresence = "supervisor_approved"
)

type DeviceInfo struct {
	Fingerprint string `json:"fingerprint"`
	IPAddress   string `json:"ipAddress"`
	Class       string `json:"class"`
	UserAgent   string `json:"userAgent"`
}

type CheckInRequest struct {
	LocationID *uuid.UUID
	// LocationName stands in for a registered location on supervisor-approved
	// off-premises check-ins.
	LocationName   string
	Coordinates    *geo.Coordinates
	AccuracyMeters *float64
	Proof          ProofOfPresence
	// QRToken must echo the scanned location's secret when Proof is QRCode.
	QRToken        string
	LatenessReason string
	Device         DeviceInfo
}

type CheckInResult struct {
	Record *models.AttendanceRecord
	// Warning surfaces non-fatal notes, e.g. that a missed checkout from
	// yesterday was recorded automatically.
	Warning        string
	DistanceMeters *float64
}

// RequestCheckIn runs the admission pipeline and commits today's record.
// Expected refusals come back as *Rejection; any other error is an
// infrastructure failure.
func (e *Engine) RequestCheckIn(user *models.User, now time.Time, req CheckInRequest) (*CheckInResult, error) {
	return e.requestCheckIn(e.db, user, now, req)
}

// RequestCheckInTx runs the same pipeline inside a caller-owned
// transaction; the off-premises approval workflow uses this to make the
// status flip and the synthesized record one atomic step.
func (e *Engine) RequestCheckInTx(tx *gorm.DB, user *models.User, now time.Time, req CheckInRequest) (*CheckInResult, error) {
	return e.requestCheckIn(tx, user, now, req)
}

func (e *Engine) requestCheckIn(db *gorm.DB, user *models.User, now time.Time, req CheckInRequest) (*CheckInResult, error) {
	attempt := devicetrust.Attempt{
		UserID:      user.ID,
		Fingerprint: req.Device.Fingerprint,
		IPAddress:   req.Device.IPAddress,
		DeviceClass: req.Device.Class,
		UserAgent:   req.Device.UserAgent,
		At:          now,
	}
	e.trust.Observe(attempt)

	today := WorkDate(now)
	var existing models.AttendanceRecord
	err := db.Where("user_id = ? AND work_date = ?", user.ID, today).Take(&existing).Error
	if err == nil {
		e.trust.RecordDuplicateAttempt(attempt)
		if existing.Open() {
			r := Reject(KindAlreadyCheckedIn, "you already checked in at %s; the session is still open",
				existing.CheckInAt.In(now.Location()).Format("15:04:05"))
			r.Record = &existing
			return nil, r
		}
		hours := 0.0
		if existing.WorkHours != nil {
			hours = *existing.WorkHours
		}
		r := Reject(KindAlreadyCheckedOut, "attendance for today is complete: checked in %s, checked out %s, %.2f hours worked",
			existing.CheckInAt.In(now.Location()).Format("15:04:05"),
			existing.CheckOutAt.In(now.Location()).Format("15:04:05"),
			hours)
		r.Record = &existing
		return nil, r
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	onLeave, err := e.leave.IsOnLeave(user.ID, now)
	if err != nil {
		return nil, err
	}
	if onLeave {
		return nil, Reject(KindOnLeave, "you are on approved leave for %s; check-in is not available", today)
	}

	warning, err := e.recoverMissedCheckout(db, user, now)
	if err != nil {
		return nil, err
	}

	record := models.AttendanceRecord{
		UserID:           user.ID,
		WorkDate:         today,
		CheckInAt:        now,
		CheckInMethod:    models.CheckMethodGPS,
		CheckInLatitude:  latPtr(req.Coordinates),
		CheckInLongitude: lonPtr(req.Coordinates),
	}

	var location *models.Location
	var distance *float64

	switch req.Proof {
	case ProofSupervisorApproved:
		record.CheckInMethod = models.CheckMethodOffPremisesApproved
		record.CheckInLocationName = req.LocationName
		record.OffPremises = true
		record.RemoteLocation = true
	case ProofQRCode:
		location, err = e.findLocation(db, req.LocationID)
		if err != nil {
			return nil, err
		}
		if location.QRSecret == "" || req.QRToken != location.QRSecret {
			return nil, Reject(KindCheckInBlocked, "the scanned code does not match %s", location.Name)
		}
		record.CheckInMethod = models.CheckMethodQRCode
	case ProofClientConfirmedInRange:
		location, err = e.findLocation(db, req.LocationID)
		if err != nil {
			return nil, err
		}
	default:
		location, err = e.findLocation(db, req.LocationID)
		if err != nil {
			return nil, err
		}
		if req.Coordinates == nil || !req.Coordinates.Plausible() {
			// No trustworthy fix means "cannot verify", never "in range".
			return nil, Reject(KindCheckInBlocked, "your location could not be verified; enable GPS or use the QR code at %s", location.Name)
		}
		threshold := e.radius.ThresholdFor(req.Device.Class, policy.OperationCheckIn)
		inRange, measured := geo.WithinRange(*req.Coordinates, location.Latitude, location.Longitude, threshold)
		distance = &measured
		if !inRange {
			return nil, Reject(KindOutOfRange, "you are %.0f m from %s; check-in requires being within %.0f m",
				measured, location.Name, threshold)
		}
	}

	if location != nil {
		record.CheckInLocationID = &location.ID
		record.CheckInLocationName = location.Name
		if user.AssignedLocationID != nil && *user.AssignedLocationID != location.ID {
			record.RemoteLocation = true
		}
	}

	if req.Proof != ProofSupervisorApproved && !user.ScheduleExempt {
		if !e.schedule.WindowContains(now) {
			return nil, Reject(KindCheckInBlocked, "check-in is only open between %s; it is now %s",
				e.schedule.WindowDescription(), now.Format("15:04:05"))
		}
	}

	record.Status = models.AttendanceStatusPresent
	if e.schedule.IsLate(now) {
		record.Status = models.AttendanceStatusLate
		if req.Proof != ProofSupervisorApproved && !user.ScheduleExempt {
			if req.LatenessReason == "" {
				return nil, Reject(KindLatenessReasonRequired, "checking in after %s requires a reason",
					e.schedule.LatenessCutoff)
			}
			record.LatenessReason = req.LatenessReason
		}
	}

	if err := db.Create(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// A concurrent request won the (user, work_date) unique index.
			// This is terminal for this call; the committed record answers
			// the retry.
			e.trust.RecordDuplicateAttempt(attempt)
			return nil, Reject(KindDuplicateCheckInRace, "a concurrent check-in for today was already recorded; refresh to see it")
		}
		return nil, err
	}

	e.audit.RecordTx(db, user.ID.String(), "attendance.check_in", "attendance_records", record.ID.String(), map[string]any{
		"workDate":       record.WorkDate,
		"locationId":     req.LocationID,
		"locationName":   record.CheckInLocationName,
		"method":         record.CheckInMethod,
		"proof":          string(req.Proof),
		"status":         record.Status,
		"remoteLocation": record.RemoteLocation,
		"offPremises":    record.OffPremises,
		"distanceMeters": distance,
		"deviceClass":    req.Device.Class,
	})

	return &CheckInResult{Record: &record, Warning: warning, DistanceMeters: distance}, nil
}

func (e *Engine) findLocation(db *gorm.DB, id *uuid.UUID) (*models.Location, error) {
	if id == nil {
		return nil, Reject(KindLocationNotFound, "no check-in location was provided")
	}
	var location models.Location
	if err := db.Where("id = ? AND active = ?", *id, true).Take(&location).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, Reject(KindLocationNotFound, "location %s is not registered", id)
		}
		return nil, err
	}
	return &location, nil
}

func latPtr(c *geo.Coordinates) *float64 {
	if c == nil {
		return nil
	}
	v := c.Latitude
	return &v
}

func lonPtr(c *geo.Coordinates) *float64 {
	if c == nil {
		return nil
	}
	v := c.Longitude
	return &v
}
