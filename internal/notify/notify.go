package notify

import (
	"errors"
	"log"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oakghana/20feb26qrcode-sub000/internal/email"
	"github.com/oakghana/20feb26qrcode-sub000/internal/models"
)

// Notifier is fire-and-forget: delivery failure must never roll back the
// workflow transition that produced the notification.
type Notifier interface {
	Notify(userID uuid.UUID, title string, message string, actionRef string)
}

// EmailNotifier resolves a user's address and sends over SMTP. Every
// failure path is logged and swallowed.
type EmailNotifier struct {
	DB   *gorm.DB
	SMTP email.Config
}

func NewEmailNotifier(db *gorm.DB, smtp email.Config) *EmailNotifier {
	return &EmailNotifier{DB: db, SMTP: smtp}
}

func (n *EmailNotifier) Notify(userID uuid.UUID, title string, message string, actionRef string) {
	if !n.SMTP.Configured() {
		return
	}

	var user models.User
	if err := n.DB.Where("id = ?", userID).Take(&user).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("notify: user lookup failed: %v", err)
		}
		return
	}

	body := message
	if actionRef != "" {
		body += "\n\n" + actionRef
	}
	if err := email.Send(n.SMTP, user.Email, title, body); err != nil {
		log.Printf("notify: send to %s failed: %v", user.Email, err)
	}
}

// Noop drops notifications; used in tests and SMTP-less deployments.
type Noop struct{}

func (Noop) Notify(uuid.UUID, string, string, string) {}
