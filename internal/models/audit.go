package models

import "time"

// AuditLog is append-only. Detail holds the JSON-encoded decision context.
type AuditLog struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	ActorID      string    `gorm:"size:64;index" json:"actorId"`
	Action       string    `gorm:"size:80;index;not null" json:"action"`
	SubjectTable string    `gorm:"size:64;not null" json:"subjectTable"`
	SubjectID    string    `gorm:"size:64;index" json:"subjectId"`
	Detail       string    `gorm:"type:text" json:"detail,omitempty"`
	CreatedAt    time.Time `gorm:"index" json:"createdAt"`
}
