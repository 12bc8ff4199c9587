package pickService

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"lastManStanding/models"
	"lastManStanding/services/auditService"
	"lastManStanding/services/availabilityService"
	"lastManStanding/services/calendarService"
	"lastManStanding/services/common"
)

// Notifier receives picks after their transaction has committed.
type Notifier interface {
	PicksSubmitted(ctx context.Context, picks []models.Pick)
}

// Resolver applies the survival rules to an entry whose new picks were saved
// with an already recorded result.
type Resolver interface {
	ReevaluateEntry(ctx context.Context, auth common.Authorization, entryID, weekID uint) ([]models.Entry, error)
}

type PickRequest struct {
	EntryID uint
	// nil resolves to the current, next or earliest week
	WeekID *uint
	TeamID uint
	// on a double-pick week, the leg being replaced
	ReplacePickID *uint
}

type DoublePickRequest struct {
	EntryID uint
	WeekID  *uint
	TeamA   uint
	TeamB   uint
}

type QuickPick struct {
	EntryID uint
	TeamID  uint
}

type Service struct {
	db       *gorm.DB
	calendar *calendarService.Service
	notifier Notifier
	resolver Resolver
	logger   *slog.Logger
}

func New(db *gorm.DB, calendar *calendarService.Service, notifier Notifier, resolver Resolver, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{db: db, calendar: calendar, notifier: notifier, resolver: resolver, logger: logger}
}

// SubmitPick validates and records one pick. On a single-pick week any
// existing pick for the week is replaced; on a double-pick week the pick is
// added as a leg, or replaces ReplacePickID.
func (s *Service) SubmitPick(ctx context.Context, auth common.Authorization, req PickRequest) (*models.Pick, error) {
	var pick *models.Pick
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		week, err := s.calendar.ResolveTargetWeekTx(tx, req.WeekID)
		if err != nil {
			return err
		}
		pick, err = s.submit(tx, auth, *week, req)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.afterCommit(ctx, auth, []models.Pick{*pick})
	return pick, nil
}

// SubmitDoublePick records both legs of a double-pick week, replacing any
// picks the entry already has for that week.
func (s *Service) SubmitDoublePick(ctx context.Context, auth common.Authorization, req DoublePickRequest) ([2]models.Pick, error) {
	var pair [2]models.Pick
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		week, err := s.calendar.ResolveTargetWeekTx(tx, req.WeekID)
		if err != nil {
			return err
		}
		teamA, err := loadTeam(tx, req.TeamA)
		if err != nil {
			return err
		}
		teamB, err := loadTeam(tx, req.TeamB)
		if err != nil {
			return err
		}

		entry, settings, err := s.checkEntry(tx, auth, *week, req.EntryID)
		if err != nil {
			return err
		}
		if !settings.IsDouble {
			return fmt.Errorf("%w: %s is a single-pick week", common.ErrTooManyPicks, week)
		}
		if teamA.ID == teamB.ID {
			return common.ErrDuplicateTeamInPair
		}
		if !week.ResetPool {
			used, err := availabilityService.UsedTeamIDsOutside(tx, entry.ID, week.ID)
			if err != nil {
				return err
			}
			for _, team := range []*models.Team{teamA, teamB} {
				if used[team.ID] {
					return fmt.Errorf("%w: you have already used the %s in a previous week", common.ErrTeamAlreadyUsed, team.DisplayName())
				}
			}
		}

		existing, err := picksForWeek(tx, entry.ID, week.ID)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			if err := tx.Where("entry_id = ? AND week_id = ?", entry.ID, week.ID).Delete(&models.Pick{}).Error; err != nil {
				return fmt.Errorf("error replacing picks for entry %d: %w", entry.ID, err)
			}
		}

		for i, team := range []*models.Team{teamA, teamB} {
			result, err := recordedResult(tx, week.ID, team.ID)
			if err != nil {
				return err
			}
			pair[i] = models.Pick{EntryID: entry.ID, WeekID: week.ID, TeamID: team.ID, Result: result}
			if err := tx.Omit(clause.Associations).Create(&pair[i]).Error; err != nil {
				return fmt.Errorf("error saving pick: %w", err)
			}
			pair[i].Team = *team
			pair[i].Week = *week
			pair[i].Entry = *entry
		}

		details := fmt.Sprintf("Picked %s and %s for %s", teamA.DisplayName(), teamB.DisplayName(), week)
		if len(existing) > 0 {
			previous, err := teamNames(tx, existing)
			if err != nil {
				return err
			}
			details = fmt.Sprintf("Changed picks from %s to %s and %s for %s",
				previous, teamA.DisplayName(), teamB.DisplayName(), week)
		}
		return auditService.Append(tx, auditService.Entry{
			ActorID: auth.ActorID,
			Action:  pickAction(auth, len(existing) > 0),
			EntryID: &entry.ID,
			WeekID:  &week.ID,
			Details: adminPrefix(auth) + details,
		})
	})
	if err != nil {
		return pair, err
	}

	s.afterCommit(ctx, auth, pair[:])
	return pair, nil
}

// SubmitQuickPicks applies one pick per entry for the same week. Either every
// pick is recorded or none is.
func (s *Service) SubmitQuickPicks(ctx context.Context, auth common.Authorization, weekID *uint, picks []QuickPick) ([]models.Pick, error) {
	if len(picks) == 0 {
		return nil, fmt.Errorf("%w: no picks submitted", common.ErrValidationFailed)
	}

	saved := make([]models.Pick, 0, len(picks))
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		week, err := s.calendar.ResolveTargetWeekTx(tx, weekID)
		if err != nil {
			return err
		}
		for _, qp := range picks {
			pick, err := s.submit(tx, auth, *week, PickRequest{EntryID: qp.EntryID, WeekID: &week.ID, TeamID: qp.TeamID})
			if err != nil {
				return fmt.Errorf("entry %d: %w", qp.EntryID, err)
			}
			saved = append(saved, *pick)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterCommit(ctx, auth, saved)
	return saved, nil
}

func (s *Service) PicksForEntry(ctx context.Context, entryID uint) ([]models.Pick, error) {
	var picks []models.Pick
	err := s.db.WithContext(ctx).
		Preload("Team").
		Preload("Week").
		Joins("JOIN weeks ON weeks.id = picks.week_id").
		Where("picks.entry_id = ?", entryID).
		Order("weeks.number, picks.id").
		Find(&picks).Error
	if err != nil {
		return nil, fmt.Errorf("error loading picks for entry %d: %w", entryID, err)
	}
	return picks, nil
}

func (s *Service) submit(tx *gorm.DB, auth common.Authorization, week models.Week, req PickRequest) (*models.Pick, error) {
	team, err := loadTeam(tx, req.TeamID)
	if err != nil {
		return nil, err
	}

	entry, settings, err := s.checkEntry(tx, auth, week, req.EntryID)
	if err != nil {
		return nil, err
	}

	if !week.ResetPool {
		used, err := availabilityService.UsedTeamIDsOutside(tx, entry.ID, week.ID)
		if err != nil {
			return nil, err
		}
		if used[team.ID] {
			return nil, fmt.Errorf("%w: you have already used the %s in a previous week", common.ErrTeamAlreadyUsed, team.DisplayName())
		}
	}

	existing, err := picksForWeek(tx, entry.ID, week.ID)
	if err != nil {
		return nil, err
	}

	var replaced []models.Pick
	if settings.IsDouble {
		others := existing
		if req.ReplacePickID != nil {
			others = others[:0:0]
			for _, p := range existing {
				if p.ID == *req.ReplacePickID {
					replaced = append(replaced, p)
				} else {
					others = append(others, p)
				}
			}
			if len(replaced) == 0 {
				return nil, fmt.Errorf("%w: pick %d for entry %d in %s", common.ErrNotFound, *req.ReplacePickID, entry.ID, week)
			}
		}
		if len(others) >= 2 {
			return nil, fmt.Errorf("%w: you have already made both picks for this double-pick week", common.ErrTooManyPicks)
		}
		for _, p := range others {
			if p.TeamID == team.ID {
				return nil, common.ErrDuplicateTeamInPair
			}
		}
	} else {
		replaced = existing
	}

	previous := ""
	if len(replaced) > 0 {
		if previous, err = teamNames(tx, replaced); err != nil {
			return nil, err
		}
	}
	for _, p := range replaced {
		if err := tx.Delete(&models.Pick{}, p.ID).Error; err != nil {
			return nil, fmt.Errorf("error replacing pick %d: %w", p.ID, err)
		}
	}

	result, err := recordedResult(tx, week.ID, team.ID)
	if err != nil {
		return nil, err
	}
	pick := models.Pick{EntryID: entry.ID, WeekID: week.ID, TeamID: team.ID, Result: result}
	if err := tx.Omit(clause.Associations).Create(&pick).Error; err != nil {
		return nil, fmt.Errorf("error saving pick: %w", err)
	}
	pick.Team = *team
	pick.Week = week
	pick.Entry = *entry

	details := fmt.Sprintf("Picked %s for %s", team.DisplayName(), week)
	if len(replaced) > 0 {
		details = fmt.Sprintf("Changed pick from %s to %s for %s", previous, team.DisplayName(), week)
	}
	err = auditService.Append(tx, auditService.Entry{
		ActorID: auth.ActorID,
		Action:  pickAction(auth, len(replaced) > 0),
		EntryID: &entry.ID,
		WeekID:  &week.ID,
		Details: adminPrefix(auth) + details,
	})
	if err != nil {
		return nil, err
	}
	return &pick, nil
}

// checkEntry locks the entry row and applies the ownership, deadline,
// elimination and week-settings checks shared by every submission.
func (s *Service) checkEntry(tx *gorm.DB, auth common.Authorization, week models.Week, entryID uint) (*models.Entry, *models.PoolWeekSettings, error) {
	if entryID == 0 {
		return nil, nil, fmt.Errorf("%w: entry is required", common.ErrValidationFailed)
	}

	var entry models.Entry
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&entry, entryID).Error; err != nil {
		return nil, nil, common.NotFound(err, "entry", entryID)
	}

	if auth.Level == common.AuthUser && (auth.ActorID == nil || *auth.ActorID != entry.UserID) {
		return nil, nil, fmt.Errorf("%w: entry %s belongs to another user", common.ErrForbidden, entry.EntryName)
	}
	if s.calendar.IsPastDeadline(week, auth.Override()) {
		return nil, nil, fmt.Errorf("%w: %s deadline was %s", common.ErrDeadlinePassed, week, week.Deadline.Format("Mon Jan 2 15:04 MST"))
	}
	if !auth.Override() && !entry.IsAlive {
		return nil, nil, common.ErrEntryEliminated
	}

	var settings models.PoolWeekSettings
	err := tx.Where("pool_id = ? AND week_id = ?", entry.PoolID, week.ID).First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, fmt.Errorf("%w: pool %d, %s", common.ErrConfigMissing, entry.PoolID, week)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("error loading week settings: %w", err)
	}
	return &entry, &settings, nil
}

func (s *Service) afterCommit(ctx context.Context, auth common.Authorization, picks []models.Pick) {
	s.resolveSettled(ctx, auth, picks)

	// administrative corrections do not email the entry owner
	if s.notifier == nil || auth.Level != common.AuthUser {
		return
	}
	s.notifier.PicksSubmitted(ctx, picks)
}

// resolveSettled re-evaluates every entry that received a pick on a team
// whose result for the week is already final.
func (s *Service) resolveSettled(ctx context.Context, auth common.Authorization, picks []models.Pick) {
	if s.resolver == nil {
		return
	}
	seen := make(map[[2]uint]bool)
	for _, p := range picks {
		key := [2]uint{p.EntryID, p.WeekID}
		if !p.Result.Final() || seen[key] {
			continue
		}
		seen[key] = true
		if _, err := s.resolver.ReevaluateEntry(ctx, auth, p.EntryID, p.WeekID); err != nil {
			s.logger.ErrorContext(ctx, "error applying recorded result to pick",
				slog.Uint64("entry_id", uint64(p.EntryID)),
				slog.Uint64("week_id", uint64(p.WeekID)),
				slog.Any("error", err))
		}
	}
}

// recordedResult is the final result of teamID in weekID, or pending when
// none has been recorded yet.
func recordedResult(tx *gorm.DB, weekID, teamID uint) (models.PickResult, error) {
	var stored models.WeeklyResult
	err := tx.Where("week_id = ? AND team_id = ?", weekID, teamID).First(&stored).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.ResultPending, nil
	}
	if err != nil {
		return "", fmt.Errorf("error loading result for team %d: %w", teamID, err)
	}
	return stored.Result, nil
}

func loadTeam(tx *gorm.DB, teamID uint) (*models.Team, error) {
	if teamID == 0 {
		return nil, fmt.Errorf("%w: team is required", common.ErrValidationFailed)
	}
	var team models.Team
	if err := tx.First(&team, teamID).Error; err != nil {
		return nil, common.NotFound(err, "team", teamID)
	}
	return &team, nil
}

func picksForWeek(tx *gorm.DB, entryID, weekID uint) ([]models.Pick, error) {
	var picks []models.Pick
	if err := tx.Where("entry_id = ? AND week_id = ?", entryID, weekID).Order("id").Find(&picks).Error; err != nil {
		return nil, fmt.Errorf("error loading picks for entry %d: %w", entryID, err)
	}
	return picks, nil
}

func teamNames(tx *gorm.DB, picks []models.Pick) (string, error) {
	ids := make([]uint, 0, len(picks))
	for _, p := range picks {
		ids = append(ids, p.TeamID)
	}
	var teams []models.Team
	if err := tx.Where("id IN ?", ids).Order("city, name").Find(&teams).Error; err != nil {
		return "", fmt.Errorf("error loading replaced teams: %w", err)
	}

	names := ""
	for i, team := range teams {
		if i > 0 {
			names += ", "
		}
		names += team.DisplayName()
	}
	return names, nil
}

func pickAction(auth common.Authorization, changed bool) string {
	switch {
	case auth.Override() && changed:
		return models.ActionAdminPickChanged
	case auth.Override():
		return models.ActionAdminPickCreated
	case changed:
		return models.ActionPickChanged
	default:
		return models.ActionPickCreated
	}
}

func adminPrefix(auth common.Authorization) string {
	if auth.Override() {
		return "Admin override: "
	}
	return ""
}
