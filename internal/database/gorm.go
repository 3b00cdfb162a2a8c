package database

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	gormmysql "gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/iliyamo/room-reservation/internal/model"
)

// OpenGorm opens the database holding users, refresh tokens and work
// orders and migrates their tables.  A DSN starting with "file:" selects
// SQLite; anything else is handed to the MySQL driver.
func OpenGorm(dsn string) (*gorm.DB, error) {
	cfg := &gorm.Config{TranslateError: true, Logger: logger.Default.LogMode(logger.Silent)}

	var (
		db  *gorm.DB
		err error
	)
	if strings.HasPrefix(dsn, "file:") {
		if err := ensureSQLiteDir(dsn); err != nil {
			return nil, err
		}
		db, err = gorm.Open(sqlite.Open(dsn), cfg)
	} else {
		db, err = gorm.Open(gormmysql.Open(dsn), cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("open work-order db: %w", err)
	}
	if err := db.AutoMigrate(&model.User{}, &model.RefreshToken{}, &model.WorkOrder{}); err != nil {
		return nil, fmt.Errorf("migrate work-order db: %w", err)
	}
	return db, nil
}

// ensureSQLiteDir creates the parent directory of an on-disk SQLite DSN.
func ensureSQLiteDir(dsn string) error {
	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		if strings.Contains(path[i:], "mode=memory") {
			return nil
		}
		path = path[:i]
	}
	if path == "" || path == ":memory:" {
		return nil
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create sqlite dir: %w", err)
	}
	return nil
}
