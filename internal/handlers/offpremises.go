package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oakghana/20feb26qrcode-sub000/internal/middleware"
	"github.com/oakghana/20feb26qrcode-sub000/internal/models"
	"github.com/oakghana/20feb26qrcode-sub000/internal/offpremises"
)

type OffPremisesHandler struct {
	DB       *gorm.DB
	Workflow *offpremises.Workflow
}

func NewOffPremisesHandler(db *gorm.DB, workflow *offpremises.Workflow) *OffPremisesHandler {
	return &OffPremisesHandler{DB: db, Workflow: workflow}
}

type offPremisesSubmitRequest struct {
	LocationName   string   `json:"locationName" binding:"required"`
	Latitude       *float64 `json:"latitude"`
	Longitude      *float64 `json:"longitude"`
	AccuracyMeters *float64 `json:"accuracyMeters"`
	Reason         string   `json:"reason" binding:"required"`
}

type offPremisesDecideRequest struct {
	Action          string `json:"action" binding:"required"`
	RejectionReason string `json:"rejectionReason"`
}

func (h *OffPremisesHandler) Submit(c *gin.Context) {
	var req offPremisesSubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
		return
	}

	user, ok := currentUser(c, h.DB)
	if !ok {
		return
	}

	request, err := h.Workflow.Submit(user, offpremises.SubmitRequest{
		LocationName:   req.LocationName,
		Coordinates:    coordinates(req.Latitude, req.Longitude),
		AccuracyMeters: req.AccuracyMeters,
		Reason:         req.Reason,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not submit request"})
		return
	}
	c.JSON(http.StatusCreated, request)
}

func (h *OffPremisesHandler) Decide(c *gin.Context) {
	requestID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req offPremisesDecideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
		return
	}
	if req.Action != offpremises.ActionApprove && req.Action != offpremises.ActionReject {
		c.JSON(http.StatusBadRequest, gin.H{"error": "action must be approve or reject"})
		return
	}

	approver, ok := currentUser(c, h.DB)
	if !ok {
		return
	}

	result, err := h.Workflow.Decide(approver, requestID, req.Action, req.RejectionReason, time.Now())
	if err != nil {
		respondRejection(c, err, "decision failed")
		return
	}

	body := gin.H{"request": result.Request}
	if result.Attendance != nil {
		body["attendance"] = result.Attendance
	}
	if result.Warning != "" {
		body["warning"] = result.Warning
	}
	c.JSON(http.StatusOK, body)
}

// List returns off-premises requests. Staff see their own; department heads
// see their department, regional admins their region, global admins all.
func (h *OffPremisesHandler) List(c *gin.Context) {
	user, ok := currentUser(c, h.DB)
	if !ok {
		return
	}

	query := h.DB.Model(&models.OffPremisesRequest{})

	role, _ := c.Get(middleware.ContextRole)
	switch role {
	case models.RoleGlobalAdmin:
	case models.RoleRegionalAdmin:
		query = query.Where("user_id IN (?)",
			h.DB.Model(&models.User{}).Select("id").Where("region = ?", user.Region))
	case models.RoleDepartmentHead:
		query = query.Where("user_id IN (?)",
			h.DB.Model(&models.User{}).Select("id").Where("department = ?", user.Department))
	default:
		query = query.Where("user_id = ?", user.ID)
	}

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if raw := c.Query("userId"); raw != "" && role != models.RoleStaff {
		filterID, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid userId"})
			return
		}
		query = query.Where("user_id = ?", filterID)
	}

	var requests []models.OffPremisesRequest
	if err := query.Order("created_at desc").Limit(500).Find(&requests).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load requests"})
		return
	}
	c.JSON(http.StatusOK, requests)
}
