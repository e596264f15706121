// Package sqlstore implements the store contracts on gorm, against a local
// SQLite file or a remote libSQL (Turso) database.
package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/cmsdesk/internal/app/store"
	"github.com/dalemusser/cmsdesk/internal/app/system/apperr"
	"github.com/dalemusser/cmsdesk/internal/domain/models"
	"github.com/google/uuid"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Driver names accepted by Open.
const (
	DriverSQLite = "sqlite"
	DriverLibSQL = "libsql"
)

// Config selects the database to open.
type Config struct {
	Driver string // sqlite | libsql
	DSN    string
	// MaxOpenConns caps the pool; 0 leaves the database/sql default.
	// In-memory SQLite databases should use 1.
	MaxOpenConns int
}

// Open connects, migrates the schema and returns a Backend.
func Open(cfg Config) (store.Backend, error) {
	var dial gorm.Dialector
	switch cfg.Driver {
	case DriverSQLite:
		dial = sqlite.Open(cfg.DSN)
	case DriverLibSQL:
		dial = sqlite.New(sqlite.Config{DriverName: "libsql", DSN: cfg.DSN})
	default:
		return store.Backend{}, fmt.Errorf("sqlstore: unknown driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dial, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
		NowFunc:        now,
	})
	if err != nil {
		return store.Backend{}, fmt.Errorf("sqlstore: open: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return store.Backend{}, fmt.Errorf("sqlstore: pool: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	if err := Migrate(db); err != nil {
		_ = sqlDB.Close()
		return store.Backend{}, err
	}

	return store.NewBackend(cfg.Driver,
		&TaskStore{db: db},
		&UserStore{db: db},
		&MessageStore{db: db},
		&GroupChatStore{db: db},
		&NoteStore{db: db},
		func(ctx context.Context) error { return sqlDB.PingContext(ctx) },
		func(context.Context) error { return sqlDB.Close() },
	), nil
}

// Migrate creates or updates every table.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.User{}, &models.Task{}, &models.Message{}, &models.GroupChat{}, &models.TaskNote{}); err != nil {
		return fmt.Errorf("sqlstore: migrate: %w", err)
	}
	return nil
}

func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// newID returns a time-ordered UUID so ties on created_at still sort in
// insertion order.
func newID() string {
	return uuid.Must(uuid.NewV7()).String()
}

func isDup(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// libsql errors are not translated by the sqlite dialector.
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func notFoundOr(err error, msg, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(msg)
	}
	return fmt.Errorf("%s: %w", op, err)
}
