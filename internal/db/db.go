package db

import (
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/cumbres/skisched/internal/models"
)

var conn *gorm.DB

// Init opens (or creates) the SQLite database at path and migrates the
// schema. WAL keeps grid reads cheap while writes stay serialized.
func Init(path string) error {
	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"
	var err error
	conn, err = gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true, // duplicate keys surface as gorm.ErrDuplicatedKey
	})
	if err != nil {
		return err
	}

	// SQLite works best with a single writer; cap the pool accordingly.
	// The scheduling engine leans on this: its check-then-insert
	// transaction never races another writer connection.
	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)

	if err := conn.AutoMigrate(
		&models.Center{},
		&models.User{},
		&models.AttendanceRecord{},
		&models.Booking{},
	); err != nil {
		return err
	}

	// Composite index the overlap query hits on every create/edit; GORM
	// doesn't auto-create it from struct tags.
	conn.Exec("CREATE INDEX IF NOT EXISTS idx_booking_instructor_range ON bookings(instructor_rut, start_at, end_at)")

	zap.S().Infow("database ready (sqlite)", "path", path)
	return nil
}

func Conn() *gorm.DB {
	return conn
}
