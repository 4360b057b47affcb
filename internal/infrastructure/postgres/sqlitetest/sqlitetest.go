// Package sqlitetest opens throwaway in-memory databases with the server schema.
package sqlitetest

import (
	"fmt"
	"strings"
	"testing"

	"github.com/xjanova/smschecker-sub001/internal/infrastructure/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB returns a schema-migrated database private to the calling test. The
// pool is capped at one connection so concurrent callers serialize the way a
// single-writer database would.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	cfg := postgres.GormConfig()
	cfg.Logger = logger.Default.LogMode(logger.Silent)
	db, err := gorm.Open(sqlite.Open(dsn), cfg)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(postgres.Models()...); err != nil {
		t.Fatalf("migrate db: %v", err)
	}
	return db
}
