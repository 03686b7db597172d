package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	LeaveStatusPending  = "pending"
	LeaveStatusApproved = "approved"
	LeaveStatusRejected = "rejected"
)

type LeaveRequest struct {
	ID           uuid.UUID  `gorm:"type:char(36);primaryKey" json:"id"`
	UserID       uuid.UUID  `gorm:"type:char(36);index;not null" json:"userId"`
	Type         string     `gorm:"size:50;index;not null" json:"type"`
	StartDate    time.Time  `gorm:"index;not null" json:"startDate"`
	EndDate      time.Time  `gorm:"index;not null" json:"endDate"`
	Reason       string     `gorm:"size:500" json:"reason"`
	Status       string     `gorm:"size:20;index;not null" json:"status"`
	ApproverID   *uuid.UUID `gorm:"type:char(36)" json:"approverId,omitempty"`
	DecidedAt    *time.Time `json:"decidedAt,omitempty"`
	RejectReason string     `gorm:"size:500" json:"rejectReason,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

func (r *LeaveRequest) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// Covers reports whether the approved window includes the given day.
// Dates compare at day granularity in the request's own location.
func (r *LeaveRequest) Covers(day time.Time) bool {
	d := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	start := time.Date(r.StartDate.Year(), r.StartDate.Month(), r.StartDate.Day(), 0, 0, 0, 0, time.UTC)
	end := time.Date(r.EndDate.Year(), r.EndDate.Month(), r.EndDate.Day(), 0, 0, 0, 0, time.UTC)
	return !d.Before(start) && !d.After(end)
}
