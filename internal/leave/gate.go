package leave

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oakghana/20feb26qrcode-sub000/internal/models"
)

// Gate answers "is this user on approved leave today". It only reads; the
// leave handlers are the writers. The engine consults it before any other
// check-in admission logic.
type Gate struct {
	db *gorm.DB
}

func NewGate(db *gorm.DB) *Gate {
	return &Gate{db: db}
}

func (g *Gate) IsOnLeave(userID uuid.UUID, date time.Time) (bool, error) {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	var count int64
	err := g.db.Model(&models.LeaveRequest{}).
		Where("user_id = ? AND status = ? AND start_date <= ? AND end_date >= ?",
			userID, models.LeaveStatusApproved, day, day).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
