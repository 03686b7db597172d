package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oakghana/20feb26qrcode-sub000/internal/engine"
	"github.com/oakghana/20feb26qrcode-sub000/internal/middleware"
	"github.com/oakghana/20feb26qrcode-sub000/internal/models"
)

// currentUser loads the authenticated user from the token subject. Inactive
// accounts are refused even when the token itself is still valid.
func currentUser(c *gin.Context, db *gorm.DB) (*models.User, bool) {
	rawID, ok := c.Get(middleware.ContextUserID)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing identity"})
		return nil, false
	}
	userID, err := uuid.Parse(rawID.(string))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid identity"})
		return nil, false
	}

	var user models.User
	if err := db.Where("id = ? AND active = ?", userID, true).Take(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "account not found or deactivated"})
			return nil, false
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load account"})
		return nil, false
	}
	return &user, true
}

// respondRejection maps a typed engine rejection to its HTTP status. Any
// other error is a 500. Returns true when a response was written.
func respondRejection(c *gin.Context, err error, fallback string) {
	rejection, ok := engine.AsRejection(err)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
		return
	}

	body := gin.H{"error": rejection.Message, "reason": string(rejection.Kind)}
	if rejection.Record != nil {
		body["record"] = rejection.Record
	}
	c.JSON(rejectionStatus(rejection.Kind), body)
}

func rejectionStatus(kind engine.Kind) int {
	switch kind {
	case engine.KindUnauthorized:
		return http.StatusUnauthorized
	case engine.KindInsufficientScope, engine.KindCheckInBlocked, engine.KindOutOfRange:
		return http.StatusForbidden
	case engine.KindNoOpenSession, engine.KindLocationNotFound:
		return http.StatusNotFound
	case engine.KindOnLeave, engine.KindAlreadyCheckedIn, engine.KindAlreadyCheckedOut,
		engine.KindDuplicateCheckInRace, engine.KindAlreadyDecided:
		return http.StatusConflict
	case engine.KindLatenessReasonRequired, engine.KindEarlyCheckoutReasonRequired,
		engine.KindRejectionReasonRequired:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}
