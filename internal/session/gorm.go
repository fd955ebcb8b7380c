package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/Skotchmaster/quota_portal/internal/models"
)

type GormStore struct {
	DB *gorm.DB
}

// Open connects to the session database. postgres:// and postgresql:// DSNs
// use Postgres, anything else is handed to SQLite.
func Open(ctx context.Context, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		dialector = postgres.Open(dsn)
	} else {
		dialector = sqlite.Open(dsn)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("connect session db: %w", err)
	}
	if err := db.WithContext(ctx).AutoMigrate(&models.SessionEntry{}); err != nil {
		return nil, fmt.Errorf("migrate session db: %w", err)
	}
	return db, nil
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{DB: db}
}

func (g *GormStore) Get(ctx context.Context, sessionID, key string) (string, error) {
	var entry models.SessionEntry
	err := g.DB.WithContext(ctx).
		Where("session_id = ? AND name = ?", sessionID, key).
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get session[%s]: %w", key, err)
	}
	return entry.Value, nil
}

func (g *GormStore) Set(ctx context.Context, sessionID string, values map[string]string) error {
	now := time.Now().UTC()
	entries := make([]models.SessionEntry, 0, len(values))
	for k, v := range values {
		entries = append(entries, models.SessionEntry{SessionID: sessionID, Name: k, Value: v, UpdatedAt: now})
	}
	if len(entries) == 0 {
		return nil
	}

	err := g.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_id"}, {Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entries).Error
	if err != nil {
		return fmt.Errorf("failed to set session: %w", err)
	}
	return nil
}

func (g *GormStore) Delete(ctx context.Context, sessionID string) error {
	err := g.DB.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Delete(&models.SessionEntry{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (g *GormStore) Close() error {
	sqlDB, err := g.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
