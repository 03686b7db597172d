package policy

import (
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/oakghana/20feb26qrcode-sub000/internal/models"
)

type Operation string

const (
	OperationCheckIn  Operation = "check_in"
	OperationCheckOut Operation = "check_out"
)

type RadiusProfile struct {
	CheckInMeters  float64 `json:"checkInMeters"`
	CheckOutMeters float64 `json:"checkOutMeters"`
}

// RadiusSettings holds one profile per device class. The whole set is
// written as a single settings row so readers never observe a partial
// update.
type RadiusSettings struct {
	Mobile  RadiusProfile `json:"mobile"`
	Tablet  RadiusProfile `json:"tablet"`
	Laptop  RadiusProfile `json:"laptop"`
	Desktop RadiusProfile `json:"desktop"`
}

// DefaultRadiusSettings are the hard fallback when the settings store has
// never been written or is unreachable. Desktop check-out is intentionally
// tighter than check-in.
func DefaultRadiusSettings() RadiusSettings {
	return RadiusSettings{
		Mobile:  RadiusProfile{CheckInMeters: 100, CheckOutMeters: 100},
		Tablet:  RadiusProfile{CheckInMeters: 150, CheckOutMeters: 150},
		Laptop:  RadiusProfile{CheckInMeters: 400, CheckOutMeters: 400},
		Desktop: RadiusProfile{CheckInMeters: 2000, CheckOutMeters: 1500},
	}
}

func (s RadiusSettings) profileFor(deviceClass string) RadiusProfile {
	switch deviceClass {
	case models.DeviceClassTablet:
		return s.Tablet
	case models.DeviceClassLaptop:
		return s.Laptop
	case models.DeviceClassDesktop:
		return s.Desktop
	default:
		// Unrecognized classes get the tightest profile.
		return s.Mobile
	}
}

func (s RadiusSettings) Validate() error {
	for _, p := range []RadiusProfile{s.Mobile, s.Tablet, s.Laptop, s.Desktop} {
		if p.CheckInMeters <= 0 || p.CheckOutMeters <= 0 {
			return errors.New("radius thresholds must be positive")
		}
	}
	return nil
}

// RadiusPolicy caches the stored settings with a bounded staleness window.
// Reads never fail: a stale cache is served while a refresh is attempted,
// and a refresh failure falls back to the last-known values or defaults.
type RadiusPolicy struct {
	db  *gorm.DB
	ttl time.Duration

	mu        sync.RWMutex
	current   RadiusSettings
	fetchedAt time.Time
}

func NewRadiusPolicy(db *gorm.DB, ttl time.Duration) *RadiusPolicy {
	p := &RadiusPolicy{db: db, ttl: ttl, current: DefaultRadiusSettings()}
	p.refresh()
	return p
}

// ThresholdFor returns the geofence radius in meters for the device class
// and operation, refreshing the cache when it has gone stale.
func (p *RadiusPolicy) ThresholdFor(deviceClass string, op Operation) float64 {
	profile := p.Snapshot().profileFor(deviceClass)
	if op == OperationCheckOut {
		return profile.CheckOutMeters
	}
	return profile.CheckInMeters
}

// Snapshot returns the current settings, refreshing first if stale.
func (p *RadiusPolicy) Snapshot() RadiusSettings {
	p.mu.RLock()
	stale := time.Since(p.fetchedAt) > p.ttl
	current := p.current
	p.mu.RUnlock()

	if !stale {
		return current
	}
	return p.refresh()
}

// Replace validates and persists the whole set in one write, then updates
// the cache so the next read sees the new values immediately.
func (p *RadiusPolicy) Replace(s RadiusSettings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	payload, err := json.Marshal(s)
	if err != nil {
		return err
	}

	setting := models.Setting{Key: models.SettingKeyDeviceRadius, Value: string(payload)}
	err = p.db.Transaction(func(tx *gorm.DB) error {
		var existing models.Setting
		if err := tx.Where("`key` = ?", setting.Key).Take(&existing).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return tx.Create(&setting).Error
			}
			return err
		}
		existing.Value = setting.Value
		return tx.Save(&existing).Error
	})
	if err != nil {
		return err
	}

	p.mu.Lock()
	p.current = s
	p.fetchedAt = time.Now()
	p.mu.Unlock()
	return nil
}

func (p *RadiusPolicy) refresh() RadiusSettings {
	var setting models.Setting
	err := p.db.Where("`key` = ?", models.SettingKeyDeviceRadius).Take(&setting).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			// Keep serving the last-known values; the pipeline must not
			// fail because configuration is unavailable.
			log.Printf("radius settings fetch failed, serving cached values: %v", err)
			p.mu.Lock()
			p.fetchedAt = time.Now()
			current := p.current
			p.mu.Unlock()
			return current
		}
		p.mu.Lock()
		p.current = DefaultRadiusSettings()
		p.fetchedAt = time.Now()
		current := p.current
		p.mu.Unlock()
		return current
	}

	var loaded RadiusSettings
	if err := json.Unmarshal([]byte(setting.Value), &loaded); err != nil || loaded.Validate() != nil {
		log.Printf("radius settings row is malformed, serving defaults")
		loaded = DefaultRadiusSettings()
	}

	p.mu.Lock()
	p.current = loaded
	p.fetchedAt = time.Now()
	p.mu.Unlock()
	return loaded
}
