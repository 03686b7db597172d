package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Location categories drive the early-checkout policy table; operational
// sites close earlier than offices.
const (
	LocationCategoryHeadOffice      = "head_office"
	LocationCategoryBranch          = "branch"
	LocationCategoryOperationalSite = "operational_site"
)

type Location struct {
	ID        uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;size:255;not null" json:"name"`
	Category  string    `gorm:"size:50;not null;default:branch" json:"category"`
	Region    string    `gorm:"size:120;index" json:"region"`
	Latitude  float64   `gorm:"not null" json:"latitude"`
	Longitude float64   `gorm:"not null" json:"longitude"`
	// Secret embedded in the printed QR code for this location; a scan that
	// echoes it back counts as verified presence.
	QRSecret  string    `gorm:"size:64" json:"-"`
	Active    bool      `gorm:"not null;default:true" json:"active"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (l *Location) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
