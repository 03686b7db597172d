package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oakghana/20feb26qrcode-sub000/internal/audit"
	"github.com/oakghana/20feb26qrcode-sub000/internal/middleware"
	"github.com/oakghana/20feb26qrcode-sub000/internal/models"
)

type LeaveHandler struct {
	DB    *gorm.DB
	Audit *audit.Logger
}

func NewLeaveHandler(db *gorm.DB, auditLogger *audit.Logger) *LeaveHandler {
	return &LeaveHandler{DB: db, Audit: auditLogger}
}

type createLeaveRequest struct {
	Type      string `json:"type" binding:"required"`
	StartDate string `json:"startDate" binding:"required"`
	EndDate   string `json:"endDate" binding:"required"`
	Reason    string `json:"reason"`
}

type decideLeaveRequest struct {
	RejectReason string `json:"rejectReason"`
}

func (h *LeaveHandler) List(c *gin.Context) {
	user, ok := currentUser(c, h.DB)
	if !ok {
		return
	}

	query := h.DB.Model(&models.LeaveRequest{})

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

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var requests []models.LeaveRequest
	if err := query.Order("created_at desc").Limit(500).Find(&requests).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load leaves"})
		return
	}
	c.JSON(http.StatusOK, requests)
}

func (h *LeaveHandler) Create(c *gin.Context) {
	var req createLeaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
		return
	}

	user, ok := currentUser(c, h.DB)
	if !ok {
		return
	}

	startDate, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid startDate"})
		return
	}
	endDate, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid endDate"})
		return
	}
	if endDate.Before(startDate) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "endDate must be after startDate"})
		return
	}

	var overlap int64
	if err := h.DB.Model(&models.LeaveRequest{}).
		Where("user_id = ? AND status != ? AND start_date <= ? AND end_date >= ?",
			user.ID, models.LeaveStatusRejected, endDate, startDate).
		Count(&overlap).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "leave check failed"})
		return
	}
	if overlap > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "overlapping leave exists"})
		return
	}

	request := models.LeaveRequest{
		UserID:    user.ID,
		Type:      req.Type,
		StartDate: startDate,
		EndDate:   endDate,
		Reason:    req.Reason,
		Status:    models.LeaveStatusPending,
	}
	if err := h.DB.Create(&request).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	c.JSON(http.StatusCreated, request)
}

func (h *LeaveHandler) Approve(c *gin.Context) {
	h.decide(c, models.LeaveStatusApproved)
}

func (h *LeaveHandler) Reject(c *gin.Context) {
	h.decide(c, models.LeaveStatusRejected)
}

func (h *LeaveHandler) decide(c *gin.Context, status string) {
	requestID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req decideLeaveRequest
	_ = c.ShouldBindJSON(&req)
	if status == models.LeaveStatusRejected && req.RejectReason == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "rejectReason required"})
		return
	}

	approver, ok := currentUser(c, h.DB)
	if !ok {
		return
	}

	var request models.LeaveRequest
	if err := h.DB.Where("id = ?", requestID).Take(&request).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "leave not found"})
		return
	}

	now := time.Now()
	updates := map[string]any{
		"status":      status,
		"approver_id": approver.ID,
		"decided_at":  now,
	}
	if status == models.LeaveStatusRejected {
		updates["reject_reason"] = req.RejectReason
	}

	// Conditional on pending so two approvers cannot both decide.
	result := h.DB.Model(&models.LeaveRequest{}).
		Where("id = ? AND status = ?", requestID, models.LeaveStatusPending).
		Updates(updates)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "decision failed"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "leave already decided"})
		return
	}

	h.Audit.Record(approver.ID.String(), "leave."+status, "leave_requests", requestID.String(), updates)

	if err := h.DB.Where("id = ?", requestID).Take(&request).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not reload leave"})
		return
	}
	c.JSON(http.StatusOK, request)
}
