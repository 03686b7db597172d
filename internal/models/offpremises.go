package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	OffPremisesStatusPending  = "pending"
	OffPremisesStatusApproved = "approved"
	OffPremisesStatusRejected = "rejected"
)

// OffPremisesRequest transitions exactly once from pending to a terminal
// state; the transition is a conditional update keyed on the pending status.
type OffPremisesRequest struct {
	ID              uuid.UUID  `gorm:"type:char(36);primaryKey" json:"id"`
	UserID          uuid.UUID  `gorm:"type:char(36);index;not null" json:"userId"`
	LocationName    string     `gorm:"size:255;not null" json:"locationName"`
	Latitude        *float64   `json:"latitude,omitempty"`
	Longitude       *float64   `json:"longitude,omitempty"`
	AccuracyMeters  *float64   `json:"accuracyMeters,omitempty"`
	Reason          string     `gorm:"size:500;not null" json:"reason"`
	Status          string     `gorm:"size:20;index;not null" json:"status"`
	ApproverID      *uuid.UUID `gorm:"type:char(36)" json:"approverId,omitempty"`
	DecidedAt       *time.Time `json:"decidedAt,omitempty"`
	RejectionReason string     `gorm:"size:500" json:"rejectionReason,omitempty"`
	// Set when approval produced an attendance record; empty when the user
	// already held one for the day.
	AttendanceID *uuid.UUID `gorm:"type:char(36)" json:"attendanceId,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

func (r *OffPremisesRequest) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

func (r *OffPremisesRequest) Decided() bool {
	return r.Status != OffPremisesStatusPending
}
