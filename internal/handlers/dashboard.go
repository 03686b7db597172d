package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/oakghana/20feb26qrcode-sub000/internal/engine"
	"github.com/oakghana/20feb26qrcode-sub000/internal/models"
)

type DashboardHandler struct {
	DB *gorm.DB
}

func NewDashboardHandler(db *gorm.DB) *DashboardHandler {
	return &DashboardHandler{DB: db}
}

func (h *DashboardHandler) Get(c *gin.Context) {
	today := engine.WorkDate(time.Now())

	var staffCount int64
	_ = h.DB.Model(&models.User{}).Where("active = ?", true).Count(&staffCount).Error

	var checkedIn int64
	_ = h.DB.Model(&models.AttendanceRecord{}).Where("work_date = ?", today).Count(&checkedIn).Error

	var stillOpen int64
	_ = h.DB.Model(&models.AttendanceRecord{}).
		Where("work_date = ? AND check_out_at IS NULL", today).Count(&stillOpen).Error

	var late int64
	_ = h.DB.Model(&models.AttendanceRecord{}).
		Where("work_date = ? AND status = ?", today, models.AttendanceStatusLate).Count(&late).Error

	var offPremises int64
	_ = h.DB.Model(&models.AttendanceRecord{}).
		Where("work_date = ? AND off_premises = ?", today, true).Count(&offPremises).Error

	var pendingOffPremises int64
	_ = h.DB.Model(&models.OffPremisesRequest{}).
		Where("status = ?", models.OffPremisesStatusPending).Count(&pendingOffPremises).Error

	var onLeave int64
	now := time.Now()
	_ = h.DB.Model(&models.LeaveRequest{}).
		Where("status = ? AND start_date <= ? AND end_date >= ?", models.LeaveStatusApproved, now, now).
		Count(&onLeave).Error

	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	var violationsToday int64
	_ = h.DB.Model(&models.DeviceSecurityViolation{}).
		Where("created_at >= ?", startOfDay).Count(&violationsToday).Error

	c.JSON(http.StatusOK, gin.H{
		"workDate":           today,
		"activeStaff":        staffCount,
		"checkedInToday":     checkedIn,
		"openSessions":       stillOpen,
		"lateToday":          late,
		"offPremisesToday":   offPremises,
		"pendingOffPremises": pendingOffPremises,
		"onLeave":            onLeave,
		"violationsToday":    violationsToday,
	})
}
