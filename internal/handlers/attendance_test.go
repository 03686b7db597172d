package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/oakghana/20feb26qrcode-sub000/internal/config"
	"github.com/oakghana/20feb26qrcode-sub000/internal/models"
	"github.com/oakghana/20feb26qrcode-sub000/internal/routes"
	"github.com/oakghana/20feb26qrcode-sub000/internal/utils"
)

const (
	testSecret = "test-secret"
	officeLat  = 5.6037
	officeLon  = -0.1870
)

func newTestServer(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(dbPath+"?_busy_timeout=5000"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.RefreshToken{},
		&models.Setting{},
		&models.Location{},
		&models.AttendanceRecord{},
		&models.DeviceSession{},
		&models.DeviceSecurityViolation{},
		&models.LeaveRequest{},
		&models.OffPremisesRequest{},
		&models.AuditLog{},
	))

	cfg := config.Config{
		Addr:             ":0",
		JwtSecret:        testSecret,
		JwtAccessMinutes: 15,
		JwtRefreshHours:  168,
		WindowOpen:       "06:00",
		WindowClose:      "20:00",
		LatenessCutoff:   "09:00",
		CheckOutDefault:  "17:00",
		RadiusCacheSecs:  30,
		DeviceTrustHours: 2,
	}

	router := gin.New()
	routes.Register(router, db, cfg)
	return router, db
}

func seedStaff(t *testing.T, db *gorm.DB, location *models.Location) *models.User {
	t.Helper()
	hash, err := utils.HashPassword("secret-pass-1")
	require.NoError(t, err)

	user := &models.User{
		StaffNumber:  "GH-0042",
		Email:        "ama.mensah@example.test",
		PasswordHash: hash,
		Name:         "Ama Mensah",
		Role:         models.RoleStaff,
		Department:   "Operations",
		Region:       "Greater Accra",
		Active:       true,
	}
	if location != nil {
		user.AssignedLocationID = &location.ID
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func seedOffice(t *testing.T, db *gorm.DB) *models.Location {
	t.Helper()
	location := &models.Location{
		Name:      "Head Office",
		Category:  models.LocationCategoryHeadOffice,
		Region:    "Greater Accra",
		Latitude:  officeLat,
		Longitude: officeLon,
		QRSecret:  "qr-head-office",
		Active:    true,
	}
	require.NoError(t, db.Create(location).Error)
	return location
}

func tokenFor(t *testing.T, user *models.User) string {
	t.Helper()
	token, err := utils.GenerateAccessToken(user.ID.String(), user.Role, user.StaffNumber, testSecret, 15)
	require.NoError(t, err)
	return token
}

func doJSON(t *testing.T, router *gin.Engine, method, path, token string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body *bytes.Buffer
	if payload != nil {
		encoded, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewBuffer(encoded)
	} else {
		body = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func checkInPayload(location *models.Location, lat, lon float64) gin.H {
	return gin.H{
		"locationId": location.ID.String(),
		"latitude":   lat,
		"longitude":  lon,
		"device":     gin.H{"fingerprint": "fp-handler-test", "class": "mobile"},
	}
}

func TestCheckInEndpoint_RequiresToken(t *testing.T) {
	router, db := newTestServer(t)
	office := seedOffice(t, db)

	resp := doJSON(t, router, http.MethodPost, "/api/attendance/checkin", "", checkInPayload(office, officeLat, officeLon))
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestCheckInEndpoint_CreatesRecord(t *testing.T) {
	router, db := newTestServer(t)
	office := seedOffice(t, db)
	staff := seedStaff(t, db, office)
	token := tokenFor(t, staff)

	if hour := time.Now().Hour(); hour < 6 || hour >= 20 {
		t.Skip("outside the check-in window; the engine tests cover window behavior with a fixed clock")
	}

	resp := doJSON(t, router, http.MethodPost, "/api/attendance/checkin", token,
		gin.H{
			"locationId":     office.ID.String(),
			"latitude":       officeLat,
			"longitude":      officeLon,
			"latenessReason": "traffic on the motorway",
			"device":         gin.H{"fingerprint": "fp-handler-test", "class": "mobile"},
		})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	var created struct {
		Record models.AttendanceRecord `json:"record"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &created))
	assert.Equal(t, staff.ID, created.Record.UserID)
	assert.Equal(t, models.CheckMethodGPS, created.Record.CheckInMethod)

	// A second attempt conflicts and surfaces the existing record.
	resp = doJSON(t, router, http.MethodPost, "/api/attendance/checkin", token, checkInPayload(office, officeLat, officeLon))
	assert.Equal(t, http.StatusConflict, resp.Code)
	assert.Contains(t, resp.Body.String(), "already checked in")
}

func TestCheckInEndpoint_OutOfRangeIsForbidden(t *testing.T) {
	router, db := newTestServer(t)
	office := seedOffice(t, db)
	staff := seedStaff(t, db, office)
	token := tokenFor(t, staff)

	if hour := time.Now().Hour(); hour < 6 || hour >= 20 {
		t.Skip("outside the check-in window; the engine tests cover window behavior with a fixed clock")
	}

	// Roughly 5.5 km north of the office.
	resp := doJSON(t, router, http.MethodPost, "/api/attendance/checkin", token, checkInPayload(office, officeLat+0.05, officeLon))
	assert.Equal(t, http.StatusForbidden, resp.Code)
	assert.Contains(t, resp.Body.String(), "out_of_range")
}

func TestCheckOutEndpoint_WithoutSessionIs404(t *testing.T) {
	router, db := newTestServer(t)
	office := seedOffice(t, db)
	staff := seedStaff(t, db, office)
	token := tokenFor(t, staff)

	resp := doJSON(t, router, http.MethodPost, "/api/attendance/checkout", token,
		gin.H{"device": gin.H{"fingerprint": "fp-handler-test", "class": "mobile"}})
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestLoginAndRefreshFlow(t *testing.T) {
	router, db := newTestServer(t)
	staff := seedStaff(t, db, nil)

	resp := doJSON(t, router, http.MethodPost, "/api/auth/login", "",
		gin.H{"email": staff.Email, "password": "secret-pass-1"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var login struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &login))
	require.NotEmpty(t, login.AccessToken)
	require.NotEmpty(t, login.RefreshToken)

	resp = doJSON(t, router, http.MethodGet, "/api/me", login.AccessToken, nil)
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), staff.StaffNumber)

	resp = doJSON(t, router, http.MethodPost, "/api/auth/refresh", "",
		gin.H{"refreshToken": login.RefreshToken})
	assert.Equal(t, http.StatusOK, resp.Code)

	resp = doJSON(t, router, http.MethodPost, "/api/auth/logout", "",
		gin.H{"refreshToken": login.RefreshToken})
	assert.Equal(t, http.StatusOK, resp.Code)

	resp = doJSON(t, router, http.MethodPost, "/api/auth/refresh", "",
		gin.H{"refreshToken": login.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestDeviceRadiusSettingsEndpoint(t *testing.T) {
	router, db := newTestServer(t)
	admin := seedStaff(t, db, nil)
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", admin.ID).Update("role", models.RoleGlobalAdmin).Error)
	admin.Role = models.RoleGlobalAdmin
	token := tokenFor(t, admin)

	resp := doJSON(t, router, http.MethodGet, "/api/settings/device-radius", token, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "\"mobile\"")

	update := gin.H{
		"mobile":  gin.H{"checkInMeters": 80, "checkOutMeters": 80},
		"tablet":  gin.H{"checkInMeters": 120, "checkOutMeters": 120},
		"laptop":  gin.H{"checkInMeters": 300, "checkOutMeters": 300},
		"desktop": gin.H{"checkInMeters": 1500, "checkOutMeters": 1200},
	}
	resp = doJSON(t, router, http.MethodPut, "/api/settings/device-radius", token, update)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Contains(t, resp.Body.String(), "1500")

	// Staff may not read or write radius settings.
	staff := &models.User{
		StaffNumber:  "GH-0043",
		Email:        "kofi.boateng@example.test",
		PasswordHash: "x",
		Name:         "Kofi Boateng",
		Role:         models.RoleStaff,
		Active:       true,
	}
	require.NoError(t, db.Create(staff).Error)
	staffToken := tokenFor(t, staff)
	resp = doJSON(t, router, http.MethodPut, "/api/settings/device-radius", staffToken, update)
	assert.Equal(t, http.StatusForbidden, resp.Code)

	var count int64
	require.NoError(t, db.Model(&models.AuditLog{}).Where("action = ?", "settings.device_radius_update").Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
