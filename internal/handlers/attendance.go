package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oakghana/20feb26qrcode-sub000/internal/engine"
	"github.com/oakghana/20feb26qrcode-sub000/internal/geo"
	"github.com/oakghana/20feb26qrcode-sub000/internal/middleware"
	"github.com/oakghana/20feb26qrcode-sub000/internal/models"
)

type AttendanceHandler struct {
	DB     *gorm.DB
	Engine *engine.Engine
}

func NewAttendanceHandler(db *gorm.DB, sessionEngine *engine.Engine) *AttendanceHandler {
	return &AttendanceHandler{DB: db, Engine: sessionEngine}
}

type deviceInput struct {
	Fingerprint string `json:"fingerprint"`
	Class       string `json:"class"`
}

type checkInRequest struct {
	LocationID     string   `json:"locationId"`
	Latitude       *float64 `json:"latitude"`
	Longitude      *float64 `json:"longitude"`
	AccuracyMeters *float64 `json:"accuracyMeters"`
	Proof          string   `json:"proof"`
	QRToken        string   `json:"qrToken"`
	LatenessReason string   `json:"latenessReason"`

	Device deviceInput `json:"device"`
}

type checkOutRequest struct {
	LocationID *string  `json:"locationId"`
	Latitude   *float64 `json:"latitude"`
	Longitude  *float64 `json:"longitude"`
	Reason     string   `json:"reason"`

	Device deviceInput `json:"device"`
}

func (h *AttendanceHandler) device(c *gin.Context, input deviceInput) engine.DeviceInfo {
	class := input.Class
	if class == "" {
		class = models.DeviceClassMobile
	}
	return engine.DeviceInfo{
		Fingerprint: input.Fingerprint,
		IPAddress:   c.ClientIP(),
		Class:       class,
		UserAgent:   c.GetHeader("User-Agent"),
	}
}

func coordinates(lat, lon *float64) *geo.Coordinates {
	if lat == nil || lon == nil {
		return nil
	}
	return &geo.Coordinates{Latitude: *lat, Longitude: *lon}
}

func (h *AttendanceHandler) CheckIn(c *gin.Context) {
	var req checkInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
		return
	}

	user, ok := currentUser(c, h.DB)
	if !ok {
		return
	}

	var locationID *uuid.UUID
	if req.LocationID != "" {
		parsed, err := uuid.Parse(req.LocationID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid locationId"})
			return
		}
		locationID = &parsed
	}

	proof := engine.ProofOfPresence(req.Proof)
	switch proof {
	case "":
		proof = engine.ProofUnverified
	case engine.ProofUnverified, engine.ProofClientConfirmedInRange, engine.ProofQRCode:
	default:
		// supervisor_approved is reserved for the off-premises workflow.
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid proof"})
		return
	}

	result, err := h.Engine.RequestCheckIn(user, time.Now(), engine.CheckInRequest{
		LocationID:     locationID,
		Coordinates:    coordinates(req.Latitude, req.Longitude),
		AccuracyMeters: req.AccuracyMeters,
		Proof:          proof,
		QRToken:        req.QRToken,
		LatenessReason: req.LatenessReason,
		Device:         h.device(c, req.Device),
	})
	if err != nil {
		respondRejection(c, err, "checkin failed")
		return
	}

	body := gin.H{"record": result.Record}
	if result.Warning != "" {
		body["warning"] = result.Warning
	}
	if result.DistanceMeters != nil {
		body["distanceMeters"] = *result.DistanceMeters
	}
	c.JSON(http.StatusCreated, body)
}

func (h *AttendanceHandler) CheckOut(c *gin.Context) {
	var req checkOutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
		return
	}

	user, ok := currentUser(c, h.DB)
	if !ok {
		return
	}

	var locationID *uuid.UUID
	if req.LocationID != nil && *req.LocationID != "" {
		parsed, err := uuid.Parse(*req.LocationID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid locationId"})
			return
		}
		locationID = &parsed
	}

	result, err := h.Engine.RequestCheckOut(user, time.Now(), engine.CheckOutRequest{
		LocationID:  locationID,
		Coordinates: coordinates(req.Latitude, req.Longitude),
		Reason:      req.Reason,
		Device:      h.device(c, req.Device),
	})
	if err != nil {
		respondRejection(c, err, "checkout failed")
		return
	}

	body := gin.H{"record": result.Record, "earlyCheckout": result.Early}
	if result.DistanceMeters != nil {
		body["distanceMeters"] = *result.DistanceMeters
	}
	c.JSON(http.StatusOK, body)
}

// Today returns the caller's attendance record for the current work date,
// or 404 when the day has none yet.
func (h *AttendanceHandler) Today(c *gin.Context) {
	user, ok := currentUser(c, h.DB)
	if !ok {
		return
	}

	var record models.AttendanceRecord
	err := h.DB.Where("user_id = ? AND work_date = ?", user.ID, engine.WorkDate(time.Now())).
		Take(&record).Error
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no attendance for today"})
		return
	}
	c.JSON(http.StatusOK, record)
}

// List returns attendance records. Staff see their own history; admin roles
// may filter by user, date range, status, and the remote and off-premises
// flags.
func (h *AttendanceHandler) List(c *gin.Context) {
	user, ok := currentUser(c, h.DB)
	if !ok {
		return
	}

	query := h.DB.Model(&models.AttendanceRecord{})

	role, _ := c.Get(middleware.ContextRole)
	if role == models.RoleStaff {
		query = query.Where("user_id = ?", user.ID)
	} else if raw := c.Query("userId"); raw != "" {
		filterID, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid userId"})
			return
		}
		query = query.Where("user_id = ?", filterID)
	}

	if role != models.RoleStaff {
		if department := c.Query("department"); department != "" {
			query = query.Where("user_id IN (?)",
				h.DB.Model(&models.User{}).Select("id").Where("department = ?", department))
		}
	}
	if from := c.Query("from"); from != "" {
		query = query.Where("work_date >= ?", from)
	}
	if to := c.Query("to"); to != "" {
		query = query.Where("work_date <= ?", to)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if c.Query("remote") == "true" {
		query = query.Where("remote_location = ?", true)
	}
	if c.Query("offPremises") == "true" {
		query = query.Where("off_premises = ?", true)
	}

	var records []models.AttendanceRecord
	if err := query.Order("work_date desc, created_at desc").Limit(500).Find(&records).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load attendance"})
		return
	}
	c.JSON(http.StatusOK, records)
}
