package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/oakghana/20feb26qrcode-sub000/internal/audit"
	"github.com/oakghana/20feb26qrcode-sub000/internal/geo"
	"github.com/oakghana/20feb26qrcode-sub000/internal/models"
)

type LocationHandler struct {
	DB    *gorm.DB
	Audit *audit.Logger
}

func NewLocationHandler(db *gorm.DB, auditLogger *audit.Logger) *LocationHandler {
	return &LocationHandler{DB: db, Audit: auditLogger}
}

type createLocationRequest struct {
	Name      string  `json:"name" binding:"required"`
	Category  string  `json:"category" binding:"required"`
	Region    string  `json:"region" binding:"required"`
	Latitude  float64 `json:"latitude" binding:"required"`
	Longitude float64 `json:"longitude" binding:"required"`
}

type updateLocationRequest struct {
	Name      *string  `json:"name"`
	Category  *string  `json:"category"`
	Region    *string  `json:"region"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Active    *bool    `json:"active"`
}

func validCategory(category string) bool {
	switch category {
	case models.LocationCategoryHeadOffice, models.LocationCategoryBranch, models.LocationCategoryOperationalSite:
		return true
	}
	return false
}

func (h *LocationHandler) List(c *gin.Context) {
	query := h.DB.Model(&models.Location{})
	if region := c.Query("region"); region != "" {
		query = query.Where("region = ?", region)
	}
	if c.Query("includeInactive") != "true" {
		query = query.Where("active = ?", true)
	}

	var locations []models.Location
	if err := query.Order("name asc").Find(&locations).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load locations"})
		return
	}
	c.JSON(http.StatusOK, locations)
}

func (h *LocationHandler) Create(c *gin.Context) {
	var req createLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
		return
	}
	if !validCategory(req.Category) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid category"})
		return
	}
	if !(geo.Coordinates{Latitude: req.Latitude, Longitude: req.Longitude}).Plausible() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid coordinates"})
		return
	}

	user, ok := currentUser(c, h.DB)
	if !ok {
		return
	}

	secret, err := newQRSecret()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}

	location := models.Location{
		Name:      req.Name,
		Category:  req.Category,
		Region:    req.Region,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		QRSecret:  secret,
		Active:    true,
	}
	if err := h.DB.Create(&location).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}

	h.Audit.Record(user.ID.String(), "location.create", "locations", location.ID.String(), req)
	c.JSON(http.StatusCreated, location)
}

func (h *LocationHandler) Update(c *gin.Context) {
	locationID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req updateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
		return
	}

	user, ok := currentUser(c, h.DB)
	if !ok {
		return
	}

	var location models.Location
	if err := h.DB.Where("id = ?", locationID).Take(&location).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "location not found"})
		return
	}

	if req.Name != nil {
		location.Name = *req.Name
	}
	if req.Category != nil {
		if !validCategory(*req.Category) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid category"})
			return
		}
		location.Category = *req.Category
	}
	if req.Region != nil {
		location.Region = *req.Region
	}
	if req.Latitude != nil {
		location.Latitude = *req.Latitude
	}
	if req.Longitude != nil {
		location.Longitude = *req.Longitude
	}
	if !(geo.Coordinates{Latitude: location.Latitude, Longitude: location.Longitude}).Plausible() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid coordinates"})
		return
	}
	if req.Active != nil {
		location.Active = *req.Active
	}

	if err := h.DB.Save(&location).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}

	h.Audit.Record(user.ID.String(), "location.update", "locations", location.ID.String(), req)
	c.JSON(http.StatusOK, location)
}

// RotateQRSecret invalidates all previously issued QR codes for the
// location.
func (h *LocationHandler) RotateQRSecret(c *gin.Context) {
	locationID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	user, ok := currentUser(c, h.DB)
	if !ok {
		return
	}

	secret, err := newQRSecret()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "rotation failed"})
		return
	}

	result := h.DB.Model(&models.Location{}).Where("id = ?", locationID).Update("qr_secret", secret)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "rotation failed"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "location not found"})
		return
	}

	h.Audit.Record(user.ID.String(), "location.rotate_qr", "locations", locationID.String(), nil)
	c.JSON(http.StatusOK, gin.H{"qrSecret": secret})
}

func newQRSecret() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
