package devicetrust

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
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
	require.NoError(t, db.AutoMigrate(&models.DeviceSession{}, &models.DeviceSecurityViolation{}))
	return db
}

func violations(t *testing.T, db *gorm.DB) []models.DeviceSecurityViolation {
	t.Helper()
	var rows []models.DeviceSecurityViolation
	require.NoError(t, db.Order("created_at asc").Find(&rows).Error)
	return rows
}

func TestObserve_FirstSightingIsClean(t *testing.T) {
	db := openTestDB(t)
	tracker := New(db, 2*time.Hour)

	tracker.Observe(Attempt{UserID: uuid.New(), Fingerprint: "fp-1", IPAddress: "10.0.0.1", At: time.Now()})

	assert.Empty(t, violations(t, db))

	var sessions []models.DeviceSession
	require.NoError(t, db.Find(&sessions).Error)
	require.Len(t, sessions, 1)
	assert.Equal(t, "fp-1", sessions[0].Fingerprint)
}

func TestObserve_SharedFingerprintFlagsDeviceShared(t *testing.T) {
	db := openTestDB(t)
	tracker := New(db, 2*time.Hour)
	now := time.Now()

	first := uuid.New()
	second := uuid.New()
	tracker.Observe(Attempt{UserID: first, Fingerprint: "fp-shared", IPAddress: "10.0.0.1", At: now})
	tracker.Observe(Attempt{UserID: second, Fingerprint: "fp-shared", IPAddress: "10.0.0.2", At: now.Add(10 * time.Minute)})

	rows := violations(t, db)
	require.Len(t, rows, 1)
	assert.Equal(t, models.ViolationDeviceShared, rows[0].Kind)
	assert.Equal(t, second, rows[0].UserID)
	require.NotNil(t, rows[0].BoundUserID)
	assert.Equal(t, first, *rows[0].BoundUserID)
}

func TestObserve_SharedIPOnlyFlagsIPShared(t *testing.T) {
	db := openTestDB(t)
	tracker := New(db, 2*time.Hour)
	now := time.Now()

	tracker.Observe(Attempt{UserID: uuid.New(), Fingerprint: "fp-a", IPAddress: "192.168.1.7", At: now})
	tracker.Observe(Attempt{UserID: uuid.New(), Fingerprint: "fp-b", IPAddress: "192.168.1.7", At: now.Add(time.Minute)})

	rows := violations(t, db)
	require.Len(t, rows, 1)
	assert.Equal(t, models.ViolationIPShared, rows[0].Kind)
}

func TestObserve_OutsideWindowIsClean(t *testing.T) {
	db := openTestDB(t)
	tracker := New(db, 2*time.Hour)
	now := time.Now()

	tracker.Observe(Attempt{UserID: uuid.New(), Fingerprint: "fp-old", IPAddress: "10.0.0.9", At: now.Add(-3 * time.Hour)})
	tracker.Observe(Attempt{UserID: uuid.New(), Fingerprint: "fp-old", IPAddress: "10.0.0.9", At: now})

	assert.Empty(t, violations(t, db), "bindings older than the window are not sharing")
}

func TestObserve_SameUserRepeatIsClean(t *testing.T) {
	db := openTestDB(t)
	tracker := New(db, 2*time.Hour)
	now := time.Now()
	user := uuid.New()

	tracker.Observe(Attempt{UserID: user, Fingerprint: "fp-mine", IPAddress: "10.1.1.1", At: now})
	tracker.Observe(Attempt{UserID: user, Fingerprint: "fp-mine", IPAddress: "10.1.1.2", At: now.Add(time.Hour)})

	assert.Empty(t, violations(t, db))

	var session models.DeviceSession
	require.NoError(t, db.Where("user_id = ?", user).Take(&session).Error)
	assert.Equal(t, "10.1.1.2", session.IPAddress, "session follows the latest attempt")
}

func TestRecordDuplicateAttempt(t *testing.T) {
	db := openTestDB(t)
	tracker := New(db, 2*time.Hour)

	tracker.RecordDuplicateAttempt(Attempt{UserID: uuid.New(), Fingerprint: "fp-x", IPAddress: "10.0.0.3", At: time.Now()})

	rows := violations(t, db)
	require.Len(t, rows, 1)
	assert.Equal(t, models.ViolationDoubleCheckinAttempt, rows[0].Kind)
}

func TestObserve_SwallowsStorageErrors(t *testing.T) {
	db := openTestDB(t)
	tracker := New(db, 2*time.Hour)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	assert.NotPanics(t, func() {
		tracker.Observe(Attempt{UserID: uuid.New(), Fingerprint: "fp-dead", At: time.Now()})
		tracker.RecordDuplicateAttempt(Attempt{UserID: uuid.New(), Fingerprint: "fp-dead", At: time.Now()})
	})
}
