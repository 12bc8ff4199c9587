package auditService

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"lastManStanding/models"
)

type Entry struct {
	ActorID *uint
	Action  string
	EntryID *uint
	WeekID  *uint
	Details string
}

// Append writes one audit row through db, which is normally the caller's
// open transaction so the row commits or rolls back with the change it
// describes.
func Append(db *gorm.DB, e Entry) error {
	row := models.AuditLog{
		ActorID: e.ActorID,
		Action:  e.Action,
		EntryID: e.EntryID,
		WeekID:  e.WeekID,
		Details: e.Details,
	}
	if err := db.Create(&row).Error; err != nil {
		return fmt.Errorf("error writing audit log %s: %w", e.Action, err)
	}
	return nil
}

type Service struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Service {
	return &Service{db: db}
}

func (s *Service) Append(ctx context.Context, e Entry) error {
	return Append(s.db.WithContext(ctx), e)
}

func (s *Service) ForEntry(ctx context.Context, entryID uint) ([]models.AuditLog, error) {
	var logs []models.AuditLog
	err := s.db.WithContext(ctx).Where("entry_id = ?", entryID).Order("timestamp, id").Find(&logs).Error
	if err != nil {
		return nil, fmt.Errorf("error loading audit log for entry %d: %w", entryID, err)
	}
	return logs, nil
}

func (s *Service) ForWeek(ctx context.Context, weekID uint) ([]models.AuditLog, error) {
	var logs []models.AuditLog
	err := s.db.WithContext(ctx).Where("week_id = ?", weekID).Order("timestamp, id").Find(&logs).Error
	if err != nil {
		return nil, fmt.Errorf("error loading audit log for week %d: %w", weekID, err)
	}
	return logs, nil
}

// Recent returns the newest rows first.
func (s *Service) Recent(ctx context.Context, limit int) ([]models.AuditLog, error) {
	if limit <= 0 {
		limit = 50
	}
	var logs []models.AuditLog
	err := s.db.WithContext(ctx).Order("timestamp DESC, id DESC").Limit(limit).Find(&logs).Error
	if err != nil {
		return nil, fmt.Errorf("error loading recent audit log: %w", err)
	}
	return logs, nil
}
