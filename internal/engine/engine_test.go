package engine

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/oakghana/20feb26qrcode-sub000/internal/audit"
	"github.com/oakghana/20feb26qrcode-sub000/internal/devicetrust"
	"github.com/oakghana/20feb26qrcode-sub000/internal/leave"
	"github.com/oakghana/20feb26qrcode-sub000/internal/models"
	"github.com/oakghana/20feb26qrcode-sub000/internal/policy"
)

// Reference point: head office in Accra.
const (
	officeLat = 5.6037
	officeLon = -0.1870
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(dbPath+"?_busy_timeout=5000"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Location{},
		&models.AttendanceRecord{},
		&models.DeviceSession{},
		&models.DeviceSecurityViolation{},
		&models.LeaveRequest{},
		&models.Setting{},
		&models.AuditLog{},
	))
	return db
}

func newTestEngine(t *testing.T, db *gorm.DB) *Engine {
	t.Helper()
	return New(
		db,
		policy.NewRadiusPolicy(db, 30*time.Second),
		policy.DefaultSchedulePolicy(),
		devicetrust.New(db, 2*time.Hour),
		leave.NewGate(db),
		audit.NewLogger(db),
	)
}

func seedLocation(t *testing.T, db *gorm.DB, name, category string) *models.Location {
	t.Helper()
	location := &models.Location{
		Name:      name,
		Category:  category,
		Region:    "Greater Accra",
		Latitude:  officeLat,
		Longitude: officeLon,
		QRSecret:  "qr-" + name,
		Active:    true,
	}
	require.NoError(t, db.Create(location).Error)
	return location
}

func seedUser(t *testing.T, db *gorm.DB, assigned *models.Location) *models.User {
	t.Helper()
	id := uuid.New()
	user := &models.User{
		ID:           id,
		StaffNumber:  "ST-" + id.String()[:8],
		Email:        id.String()[:8] + "@example.test",
		PasswordHash: "x",
		Name:         "Test Staff",
		Role:         models.RoleStaff,
		Department:   "Operations",
		Region:       "Greater Accra",
		Active:       true,
	}
	if assigned != nil {
		user.AssignedLocationID = &assigned.ID
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// clock builds a timestamp on the canonical test day.
func clock(hour, min, sec int) time.Time {
	return time.Date(2026, 3, 10, hour, min, sec, 0, time.UTC)
}

func testDevice() DeviceInfo {
	return DeviceInfo{
		Fingerprint: "fp-test",
		IPAddress:   "10.0.0.1",
		Class:       models.DeviceClassMobile,
		UserAgent:   "test-agent",
	}
}

func requireRejection(t *testing.T, err error, kind Kind) *Rejection {
	t.Helper()
	require.Error(t, err)
	rejection, ok := AsRejection(err)
	require.True(t, ok, "expected a typed rejection, got %v", err)
	require.Equal(t, kind, rejection.Kind, "message: %s", rejection.Message)
	return rejection
}
