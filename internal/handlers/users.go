package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oakghana/20feb26qrcode-sub000/internal/audit"
	"github.com/oakghana/20feb26qrcode-sub000/internal/models"
	"github.com/oakghana/20feb26qrcode-sub000/internal/utils"
)

type UsersHandler struct {
	DB    *gorm.DB
	Audit *audit.Logger
}

func NewUsersHandler(db *gorm.DB, auditLogger *audit.Logger) *UsersHandler {
	return &UsersHandler{DB: db, Audit: auditLogger}
}

type createUserRequest struct {
	StaffNumber    string `json:"staffNumber" binding:"required"`
	Email          string `json:"email" binding:"required,email"`
	Password       string `json:"password" binding:"required,min=8"`
	Name           string `json:"name" binding:"required,min=2"`
	Role           string `json:"role" binding:"required,oneof=staff department_head regional_admin global_admin"`
	Department     string `json:"department"`
	Region         string `json:"region"`
	Position       string `json:"position"`
	AssignedLocID  string `json:"assignedLocationId"`
	ScheduleExempt bool   `json:"scheduleExempt"`
}

type updateUserRequest struct {
	Name           *string `json:"name"`
	Role           *string `json:"role"`
	Department     *string `json:"department"`
	Region         *string `json:"region"`
	Position       *string `json:"position"`
	AssignedLocID  *string `json:"assignedLocationId"`
	ScheduleExempt *bool   `json:"scheduleExempt"`
	Active         *bool   `json:"active"`
}

func (h *UsersHandler) List(c *gin.Context) {
	query := h.DB.Model(&models.User{})
	if department := c.Query("department"); department != "" {
		query = query.Where("department = ?", department)
	}
	if region := c.Query("region"); region != "" {
		query = query.Where("region = ?", region)
	}
	if role := c.Query("role"); role != "" {
		query = query.Where("role = ?", role)
	}
	if c.Query("includeInactive") != "true" {
		query = query.Where("active = ?", true)
	}

	var users []models.User
	if err := query.Order("name asc").Limit(1000).Find(&users).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load users"})
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *UsersHandler) Create(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
		return
	}

	actor, ok := currentUser(c, h.DB)
	if !ok {
		return
	}

	assignedID, ok := h.resolveAssignedLocation(c, req.AssignedLocID)
	if !ok {
		return
	}

	passwordHash, err := utils.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "password error"})
		return
	}

	user := models.User{
		StaffNumber:        strings.TrimSpace(req.StaffNumber),
		Email:              strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash:       passwordHash,
		Name:               req.Name,
		Role:               req.Role,
		Department:         req.Department,
		Region:             req.Region,
		Position:           req.Position,
		AssignedLocationID: assignedID,
		ScheduleExempt:     req.ScheduleExempt,
		Active:             true,
	}
	if err := h.DB.Create(&user).Error; err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "staff number or email already exists"})
		return
	}

	h.Audit.Record(actor.ID.String(), "user.create", "users", user.ID.String(), gin.H{
		"staffNumber": user.StaffNumber,
		"role":        user.Role,
	})
	c.JSON(http.StatusCreated, user)
}

func (h *UsersHandler) Update(c *gin.Context) {
	userID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
		return
	}

	actor, ok := currentUser(c, h.DB)
	if !ok {
		return
	}

	var user models.User
	if err := h.DB.Where("id = ?", userID).Take(&user).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Role != nil {
		switch *req.Role {
		case models.RoleStaff, models.RoleDepartmentHead, models.RoleRegionalAdmin, models.RoleGlobalAdmin:
			user.Role = *req.Role
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid role"})
			return
		}
	}
	if req.Department != nil {
		user.Department = *req.Department
	}
	if req.Region != nil {
		user.Region = *req.Region
	}
	if req.Position != nil {
		user.Position = *req.Position
	}
	if req.AssignedLocID != nil {
		assignedID, ok := h.resolveAssignedLocation(c, *req.AssignedLocID)
		if !ok {
			return
		}
		user.AssignedLocationID = assignedID
	}
	if req.ScheduleExempt != nil {
		user.ScheduleExempt = *req.ScheduleExempt
	}
	if req.Active != nil {
		user.Active = *req.Active
	}

	if err := h.DB.Save(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}

	h.Audit.Record(actor.ID.String(), "user.update", "users", user.ID.String(), req)
	c.JSON(http.StatusOK, user)
}

// resolveAssignedLocation validates a non-empty location id against the
// registry. An empty id clears the assignment.
func (h *UsersHandler) resolveAssignedLocation(c *gin.Context, raw string) (*uuid.UUID, bool) {
	if raw == "" {
		return nil, true
	}
	locationID, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid assignedLocationId"})
		return nil, false
	}
	var location models.Location
	if err := h.DB.Where("id = ?", locationID).Take(&location).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "assigned location not found"})
		return nil, false
	}
	return &locationID, true
}
