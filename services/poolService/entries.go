package poolService

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"lastManStanding/models"
	"lastManStanding/services/auditService"
	"lastManStanding/services/common"
)

// CreateEntry adds an entry for userID. An empty name becomes
// "<username>-<n>" with the first free n.
func (s *Service) CreateEntry(ctx context.Context, poolID, userID uint, name string) (*models.Entry, error) {
	var entry *models.Entry
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		entry, err = createEntry(tx, common.User(userID), poolID, userID, strings.TrimSpace(name))
		return err
	})
	return entry, err
}

// BulkCreateEntries creates count auto-named entries for userID.
func (s *Service) BulkCreateEntries(ctx context.Context, auth common.Authorization, poolID, userID uint, count int) ([]models.Entry, error) {
	if !auth.Override() {
		return nil, fmt.Errorf("%w: only administrators can bulk create entries", common.ErrForbidden)
	}
	if count <= 0 {
		return nil, fmt.Errorf("%w: count must be positive", common.ErrValidationFailed)
	}

	entries := make([]models.Entry, 0, count)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := 0; i < count; i++ {
			entry, err := createEntry(tx, auth, poolID, userID, "")
			if err != nil {
				return err
			}
			entries = append(entries, *entry)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func createEntry(tx *gorm.DB, auth common.Authorization, poolID, userID uint, name string) (*models.Entry, error) {
	var pool models.Pool
	if err := tx.First(&pool, poolID).Error; err != nil {
		return nil, common.NotFound(err, "pool", poolID)
	}
	if !pool.IsActive {
		return nil, fmt.Errorf("%w: pool %s is closed", common.ErrValidationFailed, pool.Name)
	}
	var user models.User
	if err := tx.First(&user, userID).Error; err != nil {
		return nil, common.NotFound(err, "user", userID)
	}

	if name == "" {
		generated, err := nextEntryName(tx, pool.ID, user)
		if err != nil {
			return nil, err
		}
		name = generated
	} else {
		taken, err := nameTaken(tx, pool.ID, name)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, fmt.Errorf("%w: %s", common.ErrEntryNameTaken, name)
		}
	}

	entry := models.Entry{PoolID: pool.ID, UserID: user.ID, EntryName: name, IsAlive: true}
	if err := tx.Omit(clause.Associations).Create(&entry).Error; err != nil {
		return nil, fmt.Errorf("error creating entry %s: %w", name, err)
	}

	err := auditService.Append(tx, auditService.Entry{
		ActorID: auth.ActorID,
		Action:  models.ActionEntryCreated,
		EntryID: &entry.ID,
		Details: fmt.Sprintf("Created entry %s in pool %s for %s", entry.EntryName, pool.Name, user.Username),
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func nextEntryName(tx *gorm.DB, poolID uint, user models.User) (string, error) {
	var owned int64
	if err := tx.Model(&models.Entry{}).Where("pool_id = ? AND user_id = ?", poolID, user.ID).Count(&owned).Error; err != nil {
		return "", fmt.Errorf("error counting entries: %w", err)
	}
	for n := owned + 1; ; n++ {
		name := fmt.Sprintf("%s-%d", user.Username, n)
		taken, err := nameTaken(tx, poolID, name)
		if err != nil {
			return "", err
		}
		if !taken {
			return name, nil
		}
	}
}

func nameTaken(tx *gorm.DB, poolID uint, name string) (bool, error) {
	var count int64
	if err := tx.Model(&models.Entry{}).Where("pool_id = ? AND entry_name = ?", poolID, name).Count(&count).Error; err != nil {
		return false, fmt.Errorf("error checking entry name: %w", err)
	}
	return count > 0, nil
}

// DeleteEntry removes an entry and its picks.
func (s *Service) DeleteEntry(ctx context.Context, auth common.Authorization, entryID uint) error {
	if !auth.Override() {
		return fmt.Errorf("%w: only administrators can delete entries", common.ErrForbidden)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var entry models.Entry
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&entry, entryID).Error; err != nil {
			return common.NotFound(err, "entry", entryID)
		}

		if err := tx.Where("entry_id = ?", entry.ID).Delete(&models.Pick{}).Error; err != nil {
			return fmt.Errorf("error deleting picks of entry %d: %w", entry.ID, err)
		}
		if err := tx.Delete(&models.Entry{}, entry.ID).Error; err != nil {
			return fmt.Errorf("error deleting entry %d: %w", entry.ID, err)
		}

		return auditService.Append(tx, auditService.Entry{
			ActorID: auth.ActorID,
			Action:  models.ActionEntryDeleted,
			EntryID: &entry.ID,
			Details: fmt.Sprintf("Deleted entry %s", entry.EntryName),
		})
	})
}

func (s *Service) EntriesForUser(ctx context.Context, userID uint) ([]models.Entry, error) {
	var entries []models.Entry
	err := s.db.WithContext(ctx).
		Preload("Pool").
		Preload("EliminatedInWeek").
		Where("user_id = ?", userID).
		Order("pool_id, entry_name").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("error loading entries for user %d: %w", userID, err)
	}
	return entries, nil
}
