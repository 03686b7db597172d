package audit

import (
	"encoding/json"
	"log"

	"gorm.io/gorm"

	"github.com/oakghana/20feb26qrcode-sub000/internal/models"
)

// Logger appends decision records. It is best-effort: a failed write is
// logged and forgotten so auditing can never block the primary transition.
type Logger struct {
	db *gorm.DB
}

func NewLogger(db *gorm.DB) *Logger {
	return &Logger{db: db}
}

func (l *Logger) Record(actorID, action, subjectTable, subjectID string, detail any) {
	l.RecordTx(l.db, actorID, action, subjectTable, subjectID, detail)
}

// RecordTx writes the entry through the caller's handle so an audit row can
// ride inside an open transaction.
func (l *Logger) RecordTx(db *gorm.DB, actorID, action, subjectTable, subjectID string, detail any) {
	payload := ""
	if detail != nil {
		encoded, err := json.Marshal(detail)
		if err != nil {
			log.Printf("audit detail encode failed for %s: %v", action, err)
		} else {
			payload = string(encoded)
		}
	}

	entry := models.AuditLog{
		ActorID:      actorID,
		Action:       action,
		SubjectTable: subjectTable,
		SubjectID:    subjectID,
		Detail:       payload,
	}
	if err := db.Create(&entry).Error; err != nil {
		log.Printf("audit write failed for %s: %v", action, err)
	}
}
