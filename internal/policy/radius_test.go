package policy

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/oakghana/20feb26qrcode-sub000/internal/models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(dbPath+"?_busy_timeout=5000"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Setting{}))
	return db
}

func TestRadiusPolicy_DefaultsWhenUnset(t *testing.T) {
	p := NewRadiusPolicy(openTestDB(t), 30*time.Second)

	assert.Equal(t, 100.0, p.ThresholdFor(models.DeviceClassMobile, OperationCheckIn))
	assert.Equal(t, 150.0, p.ThresholdFor(models.DeviceClassTablet, OperationCheckOut))
	assert.Equal(t, 400.0, p.ThresholdFor(models.DeviceClassLaptop, OperationCheckIn))
	assert.Equal(t, 2000.0, p.ThresholdFor(models.DeviceClassDesktop, OperationCheckIn))
	assert.Equal(t, 1500.0, p.ThresholdFor(models.DeviceClassDesktop, OperationCheckOut))
}

func TestRadiusPolicy_UnknownClassFallsBackToMobile(t *testing.T) {
	p := NewRadiusPolicy(openTestDB(t), 30*time.Second)
	assert.Equal(t, 100.0, p.ThresholdFor("smartwatch", OperationCheckIn))
	assert.Equal(t, 100.0, p.ThresholdFor("", OperationCheckOut))
}

func TestRadiusPolicy_ReplaceIsImmediatelyVisible(t *testing.T) {
	db := openTestDB(t)
	p := NewRadiusPolicy(db, time.Hour)

	updated := DefaultRadiusSettings()
	updated.Mobile.CheckInMeters = 75
	require.NoError(t, p.Replace(updated))

	assert.Equal(t, 75.0, p.ThresholdFor(models.DeviceClassMobile, OperationCheckIn))

	var row models.Setting
	require.NoError(t, db.Where("`key` = ?", models.SettingKeyDeviceRadius).Take(&row).Error)
	var stored RadiusSettings
	require.NoError(t, json.Unmarshal([]byte(row.Value), &stored))
	assert.Equal(t, 75.0, stored.Mobile.CheckInMeters)
}

func TestRadiusPolicy_ReplaceRejectsNonPositive(t *testing.T) {
	p := NewRadiusPolicy(openTestDB(t), time.Hour)
	bad := DefaultRadiusSettings()
	bad.Laptop.CheckOutMeters = 0
	assert.Error(t, p.Replace(bad))
}

func TestRadiusPolicy_RefreshAfterTTL(t *testing.T) {
	db := openTestDB(t)
	p := NewRadiusPolicy(db, time.Millisecond)

	// Write behind the policy's back, as a second server instance would.
	other := NewRadiusPolicy(db, time.Hour)
	updated := DefaultRadiusSettings()
	updated.Desktop.CheckOutMeters = 1200
	require.NoError(t, other.Replace(updated))

	time.Sleep(5 * time.Millisecond)
	assert.Equal(t, 1200.0, p.ThresholdFor(models.DeviceClassDesktop, OperationCheckOut))
}

func TestRadiusPolicy_ServesLastKnownWhenStoreUnreachable(t *testing.T) {
	db := openTestDB(t)
	p := NewRadiusPolicy(db, time.Millisecond)

	updated := DefaultRadiusSettings()
	updated.Tablet.CheckInMeters = 180
	require.NoError(t, p.Replace(updated))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	time.Sleep(5 * time.Millisecond)
	assert.Equal(t, 180.0, p.ThresholdFor(models.DeviceClassTablet, OperationCheckIn),
		"a dead settings store must not break threshold reads")
}

func TestRadiusPolicy_MalformedRowServesDefaults(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.Create(&models.Setting{Key: models.SettingKeyDeviceRadius, Value: "{not json"}).Error)

	p := NewRadiusPolicy(db, time.Hour)
	assert.Equal(t, 100.0, p.ThresholdFor(models.DeviceClassMobile, OperationCheckIn))
}
