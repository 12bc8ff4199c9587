package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"
	"lastManStanding/models"
)

// RunOnce runs a named data task unless a migrations row with that name
// exists, and records it after fn succeeds. fn returns a short summary that
// is stored with the row.
func RunOnce(ctx context.Context, db *gorm.DB, logger *slog.Logger, name string, fn func(ctx context.Context) (string, error)) (bool, error) {
	db = db.WithContext(ctx)

	var existing models.Migration
	err := db.Where("name = ?", name).First(&existing).Error
	if err == nil {
		logger.Info("migration already executed, skipping", slog.String("name", name), slog.Time("executed_at", existing.ExecutedAt))
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, fmt.Errorf("error checking migration %s: %w", name, err)
	}

	logger.Info("starting migration", slog.String("name", name))
	details, err := fn(ctx)
	if err != nil {
		return false, fmt.Errorf("migration %s failed: %w", name, err)
	}

	migration := models.Migration{
		Name:       name,
		Details:    details,
		ExecutedAt: time.Now(),
	}
	if err := db.Create(&migration).Error; err != nil {
		return false, fmt.Errorf("error marking migration %s as complete: %w", name, err)
	}

	logger.Info("migration completed", slog.String("name", name), slog.String("details", details))
	return true, nil
}
