package resultService

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"lastManStanding/models"
	"lastManStanding/services/common"
)

const (
	missedDeadlineDetails = "Automatically eliminated due to no pick by deadline"
	missedSecondLeg       = "Automatically eliminated due to only one pick by deadline in a double-pick week"
)

// RunMissedDeadlineSweep eliminates every alive entry that has no pick for a
// week whose deadline has passed but whose window is still open. On a
// double-pick week a single leg is also a missed pick. Entries already
// eliminated are skipped, so repeated runs are no-ops.
func (s *Service) RunMissedDeadlineSweep(ctx context.Context) (int, error) {
	weeks, err := s.calendar.ActiveDeadlineWeeks(ctx)
	if err != nil {
		return 0, err
	}

	total := 0
	for _, week := range weeks {
		var changes []EntryChange
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var err error
			changes, err = sweepWeek(tx, week)
			return err
		})
		if err != nil {
			return total, fmt.Errorf("error sweeping %s: %w", week, err)
		}

		total += len(changes)
		if len(changes) > 0 {
			s.logger.Info("missed deadline eliminations",
				slog.Uint64("week", uint64(week.Number)),
				slog.Int("eliminated", len(changes)))
		}
		s.afterCommit(ctx, changes)
	}
	return total, nil
}

func sweepWeek(tx *gorm.DB, week models.Week) ([]EntryChange, error) {
	type candidate struct {
		ID       uint
		IsDouble bool
	}

	var candidates []candidate
	err := tx.Model(&models.Entry{}).
		Select("entries.id, pool_week_settings.is_double").
		Joins("JOIN pools ON pools.id = entries.pool_id").
		Joins("JOIN pool_week_settings ON pool_week_settings.pool_id = entries.pool_id AND pool_week_settings.week_id = ?", week.ID).
		Where("entries.is_alive = ? AND pools.is_active = ?", true, true).
		Order("entries.id").
		Scan(&candidates).Error
	if err != nil {
		return nil, fmt.Errorf("error loading alive entries: %w", err)
	}

	var changes []EntryChange
	for _, c := range candidates {
		var entry models.Entry
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&entry, c.ID).Error; err != nil {
			return nil, common.NotFound(err, "entry", c.ID)
		}
		if !entry.IsAlive {
			continue
		}

		var picks int64
		if err := tx.Model(&models.Pick{}).Where("entry_id = ? AND week_id = ?", entry.ID, week.ID).Count(&picks).Error; err != nil {
			return nil, fmt.Errorf("error counting picks for entry %d: %w", entry.ID, err)
		}

		details := ""
		switch {
		case picks == 0:
			details = missedDeadlineDetails
		case c.IsDouble && picks < 2:
			details = missedSecondLeg
		default:
			continue
		}

		change, err := eliminate(tx, nil, entry, week, details)
		if err != nil {
			return nil, err
		}
		changes = append(changes, *change)
	}
	return changes, nil
}
