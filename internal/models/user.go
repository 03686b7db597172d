package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleStaff          = "staff"
	RoleDepartmentHead = "department_head"
	RoleRegionalAdmin  = "regional_admin"
	RoleGlobalAdmin    = "global_admin"
)

type User struct {
	ID                 uuid.UUID  `gorm:"type:char(36);primaryKey" json:"id"`
	StaffNumber        string     `gorm:"uniqueIndex;size:50;not null" json:"staffNumber"`
	Email              string     `gorm:"uniqueIndex;size:255;not null" json:"email"`
	PasswordHash       string     `gorm:"size:255;not null" json:"-"`
	Name               string     `gorm:"size:255;not null" json:"name"`
	Role               string     `gorm:"size:50;not null;default:staff" json:"role"`
	Department         string     `gorm:"size:120;index" json:"department"`
	Region             string     `gorm:"size:120;index" json:"region"`
	Position           string     `gorm:"size:120" json:"position"`
	AssignedLocationID *uuid.UUID `gorm:"type:char(36);index" json:"assignedLocationId,omitempty"`
	// Shift and on-call staff bypass the check-in window and the
	// lateness-reason requirement.
	ScheduleExempt bool      `gorm:"not null;default:false" json:"scheduleExempt"`
	Active         bool      `gorm:"not null;default:true" json:"active"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleGlobalAdmin
}
