package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/oakghana/20feb26qrcode-sub000/internal/audit"
	"github.com/oakghana/20feb26qrcode-sub000/internal/policy"
)

type SettingsHandler struct {
	DB     *gorm.DB
	Radius *policy.RadiusPolicy
	Audit  *audit.Logger
}

func NewSettingsHandler(db *gorm.DB, radius *policy.RadiusPolicy, auditLogger *audit.Logger) *SettingsHandler {
	return &SettingsHandler{DB: db, Radius: radius, Audit: auditLogger}
}

func (h *SettingsHandler) GetDeviceRadius(c *gin.Context) {
	c.JSON(http.StatusOK, h.Radius.Snapshot())
}

// UpdateDeviceRadius replaces the whole per-class radius set in one write.
// Partial updates are not supported so readers never see a mixed set.
func (h *SettingsHandler) UpdateDeviceRadius(c *gin.Context) {
	var req policy.RadiusSettings
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
		return
	}

	user, ok := currentUser(c, h.DB)
	if !ok {
		return
	}

	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.Radius.Replace(req); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}

	h.Audit.Record(user.ID.String(), "settings.device_radius_update", "settings", "device_radius_settings", req)

	c.JSON(http.StatusOK, h.Radius.Snapshot())
}
