package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oakghana/20feb26qrcode-sub000/internal/models"
)

type ViolationsHandler struct {
	DB *gorm.DB
}

func NewViolationsHandler(db *gorm.DB) *ViolationsHandler {
	return &ViolationsHandler{DB: db}
}

// List returns device security violations, newest first.
func (h *ViolationsHandler) List(c *gin.Context) {
	query := h.DB.Model(&models.DeviceSecurityViolation{})

	if kind := c.Query("kind"); kind != "" {
		query = query.Where("kind = ?", kind)
	}
	if raw := c.Query("userId"); raw != "" {
		userID, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid userId"})
			return
		}
		query = query.Where("user_id = ?", userID)
	}
	if fingerprint := c.Query("fingerprint"); fingerprint != "" {
		query = query.Where("fingerprint = ?", fingerprint)
	}

	var violations []models.DeviceSecurityViolation
	if err := query.Order("created_at desc").Limit(500).Find(&violations).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load violations"})
		return
	}
	c.JSON(http.StatusOK, violations)
}
