package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	DeviceClassMobile  = "mobile"
	DeviceClassTablet  = "tablet"
	DeviceClassLaptop  = "laptop"
	DeviceClassDesktop = "desktop"
)

const (
	ViolationDoubleCheckinAttempt = "double-checkin-attempt"
	ViolationDeviceShared         = "device-shared"
	ViolationIPShared             = "ip-shared"
)

// DeviceSession is the last-known binding of (user, device fingerprint).
// It is a trust signal only, never an authorization token.
type DeviceSession struct {
	ID          uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	UserID      uuid.UUID `gorm:"type:char(36);not null;uniqueIndex:idx_device_user_fp" json:"userId"`
	Fingerprint string    `gorm:"size:128;not null;uniqueIndex:idx_device_user_fp;index" json:"fingerprint"`
	IPAddress   string    `gorm:"size:45;index" json:"ipAddress"`
	DeviceClass string    `gorm:"size:20" json:"deviceClass"`
	UserAgent   string    `gorm:"size:500" json:"userAgent"`
	LastSeenAt  time.Time `gorm:"index;not null" json:"lastSeenAt"`
	Active      bool      `gorm:"not null;default:true" json:"active"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (s *DeviceSession) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// DeviceSecurityViolation is append-only; rows are never updated or deleted.
type DeviceSecurityViolation struct {
	ID          uuid.UUID  `gorm:"type:char(36);primaryKey" json:"id"`
	Fingerprint string     `gorm:"size:128;index" json:"fingerprint"`
	IPAddress   string     `gorm:"size:45" json:"ipAddress"`
	UserID      uuid.UUID  `gorm:"type:char(36);index;not null" json:"userId"`
	BoundUserID *uuid.UUID `gorm:"type:char(36)" json:"boundUserId,omitempty"`
	Kind        string     `gorm:"size:40;not null;index" json:"kind"`
	Metadata    string     `gorm:"type:text" json:"metadata,omitempty"`
	CreatedAt   time.Time  `gorm:"index" json:"createdAt"`
}

func (v *DeviceSecurityViolation) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}
