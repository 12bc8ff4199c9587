package resultService

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"lastManStanding/models"
	"lastManStanding/services/auditService"
	"lastManStanding/services/calendarService"
	"lastManStanding/services/common"
)

// EntryChange is one survival transition, reported after commit.
type EntryChange struct {
	Entry      models.Entry
	Week       models.Week
	Eliminated bool
	Details    string
}

// Notifier receives survival transitions after their transaction has committed.
type Notifier interface {
	EntriesChanged(ctx context.Context, changes []EntryChange)
}

type Service struct {
	db       *gorm.DB
	calendar *calendarService.Service
	notifier Notifier
	logger   *slog.Logger
}

func New(db *gorm.DB, calendar *calendarService.Service, notifier Notifier, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{db: db, calendar: calendar, notifier: notifier, logger: logger}
}

// RecordResult stores the final result of teamID in weekID, applies it to
// every pick on that team and re-evaluates the owning entries. Rewriting a
// result is a correction and propagates again. The returned entries are the
// ones whose survival changed.
func (s *Service) RecordResult(ctx context.Context, auth common.Authorization, weekID, teamID uint, result models.PickResult, notes string) ([]models.Entry, error) {
	if !auth.Override() {
		return nil, fmt.Errorf("%w: only administrators can record results", common.ErrForbidden)
	}
	if !result.Final() {
		return nil, fmt.Errorf("%w: result must be win, loss or tie, got %q", common.ErrValidationFailed, result)
	}

	var changes []EntryChange
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var week models.Week
		if err := tx.First(&week, weekID).Error; err != nil {
			return common.NotFound(err, "week", weekID)
		}
		var team models.Team
		if err := tx.First(&team, teamID).Error; err != nil {
			return common.NotFound(err, "team", teamID)
		}

		upsert := models.WeeklyResult{WeekID: week.ID, TeamID: team.ID, Result: result, Notes: notes}
		err := tx.Omit(clause.Associations).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "week_id"}, {Name: "team_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"result", "notes", "updated_at"}),
		}).Create(&upsert).Error
		if err != nil {
			return fmt.Errorf("error saving result for %s: %w", team.DisplayName(), err)
		}

		// serialize corrections for the same (week, team) on the stored row
		var stored models.WeeklyResult
		err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("week_id = ? AND team_id = ?", week.ID, team.ID).
			First(&stored).Error
		if err != nil {
			return fmt.Errorf("error locking result for %s: %w", team.DisplayName(), err)
		}

		details := fmt.Sprintf("%s %s in %s", team.DisplayName(), stored.Result, week)
		if notes != "" {
			details += " (" + notes + ")"
		}
		err = auditService.Append(tx, auditService.Entry{
			ActorID: auth.ActorID,
			Action:  models.ActionResultRecorded,
			WeekID:  &week.ID,
			Details: details,
		})
		if err != nil {
			return err
		}

		err = tx.Model(&models.Pick{}).
			Where("week_id = ? AND team_id = ?", week.ID, team.ID).
			Update("result", stored.Result).Error
		if err != nil {
			return fmt.Errorf("error applying result to picks: %w", err)
		}

		var entryIDs []uint
		err = tx.Model(&models.Pick{}).
			Where("week_id = ? AND team_id = ?", week.ID, team.ID).
			Distinct().Pluck("entry_id", &entryIDs).Error
		if err != nil {
			return fmt.Errorf("error loading entries for result: %w", err)
		}
		sort.Slice(entryIDs, func(i, j int) bool { return entryIDs[i] < entryIDs[j] })

		for _, entryID := range entryIDs {
			change, err := s.evaluateEntry(tx, auth, entryID, week)
			if err != nil {
				return err
			}
			if change != nil {
				changes = append(changes, *change)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("result recorded",
		slog.Uint64("week_id", uint64(weekID)),
		slog.Uint64("team_id", uint64(teamID)),
		slog.String("result", string(result)),
		slog.Int("entries_changed", len(changes)))
	s.afterCommit(ctx, changes)
	return changedEntries(changes), nil
}

func (s *Service) WeekResults(ctx context.Context, weekID uint) ([]models.WeeklyResult, error) {
	var results []models.WeeklyResult
	err := s.db.WithContext(ctx).
		Preload("Team").
		Joins("JOIN teams ON teams.id = weekly_results.team_id").
		Where("weekly_results.week_id = ?", weekID).
		Order("teams.city, teams.name").
		Find(&results).Error
	if err != nil {
		return nil, fmt.Errorf("error loading results for week %d: %w", weekID, err)
	}
	return results, nil
}

func (s *Service) afterCommit(ctx context.Context, changes []EntryChange) {
	if s.notifier == nil || len(changes) == 0 {
		return
	}
	s.notifier.EntriesChanged(ctx, changes)
}

func changedEntries(changes []EntryChange) []models.Entry {
	entries := make([]models.Entry, 0, len(changes))
	for _, c := range changes {
		entries = append(entries, c.Entry)
	}
	return entries
}
