package devicetrust

import (
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oakghana/20feb26qrcode-sub000/internal/models"
)

// Tracker watches device fingerprints and IPs across users inside a sliding
// window and logs sharing as security violations. It is advisory only:
// nothing here ever blocks a check-in, and its own storage errors are
// swallowed so that telemetry failures cannot turn into denial of service.
type Tracker struct {
	db     *gorm.DB
	window time.Duration
}

func New(db *gorm.DB, window time.Duration) *Tracker {
	return &Tracker{db: db, window: window}
}

// Attempt is the device context of one check-in or check-out call.
type Attempt struct {
	UserID      uuid.UUID
	Fingerprint string
	IPAddress   string
	DeviceClass string
	UserAgent   string
	At          time.Time
}

// Observe records the attempt: it flags fingerprint or IP sharing against
// other users seen inside the window, then upserts the device session.
func (t *Tracker) Observe(a Attempt) {
	if a.Fingerprint == "" {
		return
	}
	since := a.At.Add(-t.window)

	var byFingerprint models.DeviceSession
	err := t.db.Where("fingerprint = ? AND user_id <> ? AND last_seen_at >= ?", a.Fingerprint, a.UserID, since).
		Order("last_seen_at desc").First(&byFingerprint).Error
	switch {
	case err == nil:
		t.logViolation(models.ViolationDeviceShared, a, &byFingerprint.UserID)
	case !errors.Is(err, gorm.ErrRecordNotFound):
		log.Printf("device trust lookup failed: %v", err)
	default:
		if a.IPAddress != "" {
			var byIP models.DeviceSession
			err := t.db.Where("ip_address = ? AND user_id <> ? AND last_seen_at >= ?", a.IPAddress, a.UserID, since).
				Order("last_seen_at desc").First(&byIP).Error
			if err == nil {
				t.logViolation(models.ViolationIPShared, a, &byIP.UserID)
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				log.Printf("device trust lookup failed: %v", err)
			}
		}
	}

	t.touchSession(a)
}

// RecordDuplicateAttempt logs a second check-in attempt for a day that
// already has a record.
func (t *Tracker) RecordDuplicateAttempt(a Attempt) {
	if a.Fingerprint == "" {
		return
	}
	t.logViolation(models.ViolationDoubleCheckinAttempt, a, nil)
}

func (t *Tracker) touchSession(a Attempt) {
	var session models.DeviceSession
	err := t.db.Where("user_id = ? AND fingerprint = ?", a.UserID, a.Fingerprint).Take(&session).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("device session lookup failed: %v", err)
			return
		}
		session = models.DeviceSession{
			UserID:      a.UserID,
			Fingerprint: a.Fingerprint,
			IPAddress:   a.IPAddress,
			DeviceClass: a.DeviceClass,
			UserAgent:   a.UserAgent,
			LastSeenAt:  a.At,
			Active:      true,
		}
		if err := t.db.Create(&session).Error; err != nil {
			log.Printf("device session create failed: %v", err)
		}
		return
	}

	session.IPAddress = a.IPAddress
	session.DeviceClass = a.DeviceClass
	session.UserAgent = a.UserAgent
	session.LastSeenAt = a.At
	session.Active = true
	if err := t.db.Save(&session).Error; err != nil {
		log.Printf("device session update failed: %v", err)
	}
}

func (t *Tracker) logViolation(kind string, a Attempt, boundUser *uuid.UUID) {
	metadata, _ := json.Marshal(map[string]string{
		"deviceClass": a.DeviceClass,
		"userAgent":   a.UserAgent,
	})
	violation := models.DeviceSecurityViolation{
		Fingerprint: a.Fingerprint,
		IPAddress:   a.IPAddress,
		UserID:      a.UserID,
		BoundUserID: boundUser,
		Kind:        kind,
		Metadata:    string(metadata),
	}
	if err := t.db.Create(&violation).Error; err != nil {
		log.Printf("device violation log failed: %v", err)
	}
}
