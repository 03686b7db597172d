package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	AttendanceStatusPresent = "present"
	AttendanceStatusLate    = "late"

	CheckMethodGPS                 = "gps"
	CheckMethodQRCode              = "qr_code"
	CheckMethodOffPremisesApproved = "off_premises_approved"
	CheckMethodAutoSystem          = "auto_system"
)

// AttendanceRecord is one user's attendance for one work date. The unique
// index on (user_id, work_date) is the authority on "one record per day";
// two racing check-ins resolve at the database, not in application code.
type AttendanceRecord struct {
	ID       uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	UserID   uuid.UUID `gorm:"type:char(36);not null;uniqueIndex:idx_attendance_user_day" json:"userId"`
	WorkDate string    `gorm:"size:10;not null;uniqueIndex:idx_attendance_user_day" json:"workDate"`

	CheckInAt           time.Time  `gorm:"not null" json:"checkInAt"`
	CheckInLocationID   *uuid.UUID `gorm:"type:char(36);index" json:"checkInLocationId,omitempty"`
	CheckInLocationName string     `gorm:"size:255" json:"checkInLocationName"`
	CheckInLatitude     *float64   `json:"checkInLatitude,omitempty"`
	CheckInLongitude    *float64   `json:"checkInLongitude,omitempty"`
	CheckInMethod       string     `gorm:"size:30;not null" json:"checkInMethod"`

	Status         string `gorm:"size:20;not null;index" json:"status"`
	LatenessReason string `gorm:"size:500" json:"latenessReason,omitempty"`

	CheckOutAt           *time.Time `json:"checkOutAt,omitempty"`
	CheckOutLocationID   *uuid.UUID `gorm:"type:char(36)" json:"checkOutLocationId,omitempty"`
	CheckOutLocationName string     `gorm:"size:255" json:"checkOutLocationName,omitempty"`
	CheckOutMethod       string     `gorm:"size:30" json:"checkOutMethod,omitempty"`

	WorkHours           *float64 `gorm:"type:decimal(6,2)" json:"workHours,omitempty"`
	EarlyCheckout       bool     `gorm:"not null;default:false" json:"earlyCheckout"`
	EarlyCheckoutReason string   `gorm:"size:500" json:"earlyCheckoutReason,omitempty"`

	// RemoteLocation marks a check-in at a registered location other than
	// the user's assigned one; OffPremises marks a supervisor-approved
	// check-in away from any registered location.
	RemoteLocation bool `gorm:"not null;default:false" json:"remoteLocation"`
	OffPremises    bool `gorm:"not null;default:false" json:"offPremises"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (a *AttendanceRecord) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

func (a *AttendanceRecord) Open() bool {
	return a.CheckOutAt == nil
}
