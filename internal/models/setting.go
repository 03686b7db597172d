package models

import "time"

// Setting is a generic key/value row. The device radius configuration lives
// under a single key so an administrator save replaces the whole set at once.
type Setting struct {
	Key       string    `gorm:"size:64;primaryKey" json:"key"`
	Value     string    `gorm:"type:text" json:"value"`
	UpdatedAt time.Time `json:"updatedAt"`
}

const SettingKeyDeviceRadius = "device_radius_settings"
