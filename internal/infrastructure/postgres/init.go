package postgres

import (
	"log"
	"time"

	"github.com/xjanova/smschecker-sub001/internal/config"
	"github.com/xjanova/smschecker-sub001/internal/infrastructure/postgres/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Models lists every table owned by the server, in dependency order.
func Models() []interface{} {
	return []interface{}{
		&models.DeviceModel{},
		&models.NonceModel{},
		&models.ReservationModel{},
		&models.NotificationModel{},
		&models.ApprovalModel{},
		&models.IngestionLogModel{},
	}
}

// GormConfig pins timestamps to UTC so range comparisons behave the same on
// every driver.
func GormConfig() *gorm.Config {
	return &gorm.Config{
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}
}

func MustInitDB(cfg *config.ServerConfig) *gorm.DB {
	dsn := cfg.ServerDB.Dsn
	db, err := gorm.Open(postgres.Open(dsn), GormConfig())
	if err != nil {
		log.Fatalf("failed to init db: %v\n", err.Error())
	}

	if cfg.ServerDB.AutoMigrate {
		if err := db.AutoMigrate(Models()...); err != nil {
			log.Fatalf("failed to auto-migrate: %v\n", err)
		}
	}

	return db
}
