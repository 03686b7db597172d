package db

import (
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/oakghana/20feb26qrcode-sub000/internal/models"
)

func Open(dsn string) (*gorm.DB, error) {
	// TranslateError maps driver duplicate-key errors to
	// gorm.ErrDuplicatedKey, which the check-in race handling relies on.
	database, err := gorm.Open(mysql.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}

	if err := database.AutoMigrate(
		&models.User{},
		&models.RefreshToken{},
		&models.Setting{},
		&models.Location{},
		&models.AttendanceRecord{},
		&models.DeviceSession{},
		&models.DeviceSecurityViolation{},
		&models.LeaveRequest{},
		&models.OffPremisesRequest{},
		&models.AuditLog{},
	); err != nil {
		return nil, err
	}

	return database, nil
}
