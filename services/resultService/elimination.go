package resultService

import (
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"lastManStanding/models"
	"lastManStanding/services/auditService"
	"lastManStanding/services/common"
)

// evaluateEntry applies the survival rules for one entry in one week.
//
// Double-pick weeks wait until both legs are final, then require two wins.
// Single-pick weeks eliminate on a loss or tie. In both cases a winning
// outcome revives the entry only when it was eliminated in this same week;
// any revived entry stays alive alongside entries that also survived.
func (s *Service) evaluateEntry(tx *gorm.DB, auth common.Authorization, entryID uint, week models.Week) (*EntryChange, error) {
	var entry models.Entry
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&entry, entryID).Error; err != nil {
		return nil, common.NotFound(err, "entry", entryID)
	}

	var picks []models.Pick
	if err := tx.Preload("Team").Where("entry_id = ? AND week_id = ?", entry.ID, week.ID).Order("id").Find(&picks).Error; err != nil {
		return nil, fmt.Errorf("error loading picks for entry %d: %w", entry.ID, err)
	}
	if len(picks) == 0 {
		return nil, nil
	}

	isDouble, err := s.isDoubleWeek(tx, entry.PoolID, week)
	if err != nil {
		return nil, err
	}

	if isDouble {
		if len(picks) < 2 {
			return nil, nil
		}
		wins := 0
		for _, p := range picks {
			if !p.Result.Final() {
				return nil, nil
			}
			if p.Result == models.ResultWin {
				wins++
			}
		}

		if wins < 2 {
			if !entry.IsAlive {
				return nil, nil
			}
			details := fmt.Sprintf("%s was eliminated in %s - only had %d win(s) in double-pick week", entry.EntryName, week, wins)
			return eliminate(tx, auth.ActorID, entry, week, details)
		}
		if entry.EliminatedIn(week.ID) {
			details := fmt.Sprintf("%s was revived in %s - both double-pick teams won", entry.EntryName, week)
			return revive(tx, auth.ActorID, entry, week, details)
		}
		return nil, nil
	}

	pick := picks[len(picks)-1]
	switch {
	case pick.Result.Eliminates() && entry.IsAlive:
		details := fmt.Sprintf("%s was eliminated in %s for picking the %s, which had a %s", entry.EntryName, week, pick.Team.DisplayName(), pick.Result)
		return eliminate(tx, auth.ActorID, entry, week, details)
	case pick.Result == models.ResultWin && entry.EliminatedIn(week.ID):
		details := fmt.Sprintf("%s was revived in %s after the %s result was corrected to a win", entry.EntryName, week, pick.Team.DisplayName())
		return revive(tx, auth.ActorID, entry, week, details)
	}
	return nil, nil
}

// A missing settings row is a setup bug; results are still applied using the
// single-pick rule so a final score is never dropped.
func (s *Service) isDoubleWeek(tx *gorm.DB, poolID uint, week models.Week) (bool, error) {
	var settings models.PoolWeekSettings
	err := tx.Where("pool_id = ? AND week_id = ?", poolID, week.ID).First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Warn("week settings missing, applying single-pick rule",
			slog.Uint64("pool_id", uint64(poolID)),
			slog.Uint64("week", uint64(week.Number)))
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("error loading week settings: %w", err)
	}
	return settings.IsDouble, nil
}

func eliminate(tx *gorm.DB, actorID *uint, entry models.Entry, week models.Week, details string) (*EntryChange, error) {
	err := tx.Model(&models.Entry{}).Where("id = ?", entry.ID).Updates(map[string]interface{}{
		"is_alive":              false,
		"eliminated_in_week_id": week.ID,
	}).Error
	if err != nil {
		return nil, fmt.Errorf("error eliminating entry %d: %w", entry.ID, err)
	}
	entry.IsAlive = false
	entry.EliminatedInWeekID = &week.ID

	err = auditService.Append(tx, auditService.Entry{
		ActorID: actorID,
		Action:  models.ActionEntryEliminated,
		EntryID: &entry.ID,
		WeekID:  &week.ID,
		Details: details,
	})
	if err != nil {
		return nil, err
	}
	return &EntryChange{Entry: entry, Week: week, Eliminated: true, Details: details}, nil
}

func revive(tx *gorm.DB, actorID *uint, entry models.Entry, week models.Week, details string) (*EntryChange, error) {
	err := tx.Model(&models.Entry{}).Where("id = ?", entry.ID).Updates(map[string]interface{}{
		"is_alive":              true,
		"eliminated_in_week_id": nil,
	}).Error
	if err != nil {
		return nil, fmt.Errorf("error reviving entry %d: %w", entry.ID, err)
	}
	entry.IsAlive = true
	entry.EliminatedInWeekID = nil

	var weekID *uint
	if week.ID != 0 {
		weekID = &week.ID
	}
	err = auditService.Append(tx, auditService.Entry{
		ActorID: actorID,
		Action:  models.ActionEntryRevived,
		EntryID: &entry.ID,
		WeekID:  weekID,
		Details: details,
	})
	if err != nil {
		return nil, err
	}
	return &EntryChange{Entry: entry, Week: week, Eliminated: false, Details: details}, nil
}
