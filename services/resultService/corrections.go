package resultService

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"lastManStanding/models"
	"lastManStanding/services/auditService"
	"lastManStanding/services/common"
)

// ResetWeekResults deletes the recorded results of a week. Pick results and
// eliminations already applied stay as they are; an admin corrects entries
// separately.
func (s *Service) ResetWeekResults(ctx context.Context, auth common.Authorization, weekID uint) (int64, error) {
	if !auth.Override() {
		return 0, fmt.Errorf("%w: only administrators can reset results", common.ErrForbidden)
	}

	var deleted int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var week models.Week
		if err := tx.First(&week, weekID).Error; err != nil {
			return common.NotFound(err, "week", weekID)
		}

		result := tx.Where("week_id = ?", week.ID).Delete(&models.WeeklyResult{})
		if result.Error != nil {
			return fmt.Errorf("error deleting results for %s: %w", week, result.Error)
		}
		deleted = result.RowsAffected

		return auditService.Append(tx, auditService.Entry{
			ActorID: auth.ActorID,
			Action:  models.ActionResultsReset,
			WeekID:  &week.ID,
			Details: fmt.Sprintf("Deleted %d result(s) for %s; pick results and eliminations were not reverted", deleted, week),
		})
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

// AdminEditPick rewrites a pick directly, skipping every ledger rule, then
// re-evaluates the entry for that week. teamID 0 keeps the current team.
func (s *Service) AdminEditPick(ctx context.Context, auth common.Authorization, pickID, teamID uint, result models.PickResult) ([]models.Entry, error) {
	if !auth.IsAdmin() {
		return nil, fmt.Errorf("%w: only administrators can edit picks directly", common.ErrForbidden)
	}
	if result != models.ResultPending && !result.Final() {
		return nil, fmt.Errorf("%w: unknown pick result %q", common.ErrValidationFailed, result)
	}

	var changes []EntryChange
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var pick models.Pick
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Preload("Team").Preload("Week").First(&pick, pickID).Error
		if err != nil {
			return common.NotFound(err, "pick", pickID)
		}

		var newTeam models.Team
		if teamID == 0 || teamID == pick.TeamID {
			newTeam = pick.Team
		} else if err := tx.First(&newTeam, teamID).Error; err != nil {
			return common.NotFound(err, "team", teamID)
		}

		err = tx.Model(&models.Pick{}).Where("id = ?", pick.ID).Updates(map[string]interface{}{
			"team_id": newTeam.ID,
			"result":  result,
		}).Error
		if err != nil {
			return fmt.Errorf("error editing pick %d: %w", pick.ID, err)
		}

		err = auditService.Append(tx, auditService.Entry{
			ActorID: auth.ActorID,
			Action:  models.ActionAdminDirectEditPick,
			EntryID: &pick.EntryID,
			WeekID:  &pick.WeekID,
			Details: fmt.Sprintf("Pick %d changed from %s (%s) to %s (%s)",
				pick.ID, pick.Team.DisplayName(), pick.Result, newTeam.DisplayName(), result),
		})
		if err != nil {
			return err
		}

		change, err := s.evaluateEntry(tx, auth, pick.EntryID, pick.Week)
		if err != nil {
			return err
		}
		if change != nil {
			changes = append(changes, *change)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterCommit(ctx, changes)
	return changedEntries(changes), nil
}

// ReevaluateEntry applies the survival rules to one entry for one week. It
// settles picks saved after the week's results were already recorded.
func (s *Service) ReevaluateEntry(ctx context.Context, auth common.Authorization, entryID, weekID uint) ([]models.Entry, error) {
	var changes []EntryChange
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var week models.Week
		if err := tx.First(&week, weekID).Error; err != nil {
			return common.NotFound(err, "week", weekID)
		}
		change, err := s.evaluateEntry(tx, auth, entryID, week)
		if err != nil {
			return err
		}
		if change != nil {
			changes = append(changes, *change)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterCommit(ctx, changes)
	return changedEntries(changes), nil
}

// SetEntryStatus is the explicit admin elimination or revival. Eliminating
// requires the week responsible.
func (s *Service) SetEntryStatus(ctx context.Context, auth common.Authorization, entryID uint, alive bool, weekID *uint) (*models.Entry, error) {
	if !auth.IsAdmin() {
		return nil, fmt.Errorf("%w: only administrators can change entry status", common.ErrForbidden)
	}
	if !alive && weekID == nil {
		return nil, fmt.Errorf("%w: elimination week is required", common.ErrValidationFailed)
	}

	var change *EntryChange
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var entry models.Entry
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&entry, entryID).Error; err != nil {
			return common.NotFound(err, "entry", entryID)
		}

		if alive {
			if entry.IsAlive {
				return nil
			}
			var week models.Week
			if entry.EliminatedInWeekID != nil {
				if err := tx.First(&week, *entry.EliminatedInWeekID).Error; err != nil {
					return common.NotFound(err, "week", *entry.EliminatedInWeekID)
				}
			}
			var err error
			change, err = revive(tx, auth.ActorID, entry, week, fmt.Sprintf("%s revived by an administrator", entry.EntryName))
			return err
		}

		var week models.Week
		if err := tx.First(&week, *weekID).Error; err != nil {
			return common.NotFound(err, "week", *weekID)
		}
		if entry.EliminatedIn(week.ID) {
			return nil
		}
		var err error
		change, err = eliminate(tx, auth.ActorID, entry, week, fmt.Sprintf("%s eliminated in %s by an administrator", entry.EntryName, week))
		return err
	})
	if err != nil {
		return nil, err
	}

	if change == nil {
		var entry models.Entry
		if err := s.db.WithContext(ctx).First(&entry, entryID).Error; err != nil {
			return nil, common.NotFound(err, "entry", entryID)
		}
		return &entry, nil
	}
	s.afterCommit(ctx, []EntryChange{*change})
	return &change.Entry, nil
}
