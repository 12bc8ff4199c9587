package poolService

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"gorm.io/gorm"
	"lastManStanding/models"
	"lastManStanding/services/common"
)

type TeamCount struct {
	Team  models.Team
	Count int
}

type Standings struct {
	Pool       models.Pool
	Week       *models.Week
	Alive      []models.Entry
	Eliminated []models.Entry
	// only filled once the week's deadline has passed
	Distribution []TeamCount
}

// Standings splits the pool's entries by survival. Eliminated entries are
// ordered by the week they went out, latest first.
func (s *Service) Standings(ctx context.Context, poolID uint) (*Standings, error) {
	db := s.db.WithContext(ctx)

	var pool models.Pool
	if err := db.First(&pool, poolID).Error; err != nil {
		return nil, common.NotFound(err, "pool", poolID)
	}

	var entries []models.Entry
	err := db.Preload("User").Preload("EliminatedInWeek").
		Where("pool_id = ?", pool.ID).
		Order("entry_name").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("error loading entries for pool %d: %w", pool.ID, err)
	}

	standings := &Standings{Pool: pool}
	for _, entry := range entries {
		if entry.IsAlive {
			standings.Alive = append(standings.Alive, entry)
		} else {
			standings.Eliminated = append(standings.Eliminated, entry)
		}
	}
	sort.SliceStable(standings.Eliminated, func(i, j int) bool {
		return eliminatedNumber(standings.Eliminated[i]) > eliminatedNumber(standings.Eliminated[j])
	})

	week, err := s.calendar.ResolveTargetWeek(ctx, nil)
	if err != nil && !errors.Is(err, common.ErrWeekUnresolvable) {
		return nil, err
	}
	standings.Week = week
	if week != nil && s.calendar.IsPastDeadline(*week, false) {
		standings.Distribution, err = teamDistribution(db, pool.ID, week.ID)
		if err != nil {
			return nil, err
		}
	}
	return standings, nil
}

func eliminatedNumber(e models.Entry) uint {
	if e.EliminatedInWeek == nil {
		return 0
	}
	return e.EliminatedInWeek.Number
}

// WeekPicks returns every pick in the pool for a week. Picks stay hidden
// until the deadline unless the caller holds an override.
func (s *Service) WeekPicks(ctx context.Context, auth common.Authorization, poolID, weekNumber uint) ([]models.Pick, error) {
	week, err := s.calendar.WeekByNumber(ctx, weekNumber)
	if err != nil {
		return nil, err
	}
	if !auth.Override() && !s.calendar.IsPastDeadline(*week, false) {
		return nil, fmt.Errorf("%w: %s picks unlock at %s", common.ErrPicksHidden, week, week.Deadline.Format("Mon Jan 2 15:04 MST"))
	}
	return weekPicks(s.db.WithContext(ctx), poolID, week.ID)
}

func weekPicks(db *gorm.DB, poolID, weekID uint) ([]models.Pick, error) {
	var picks []models.Pick
	err := db.Preload("Team").Preload("Entry").Preload("Entry.User").
		Joins("JOIN entries ON entries.id = picks.entry_id").
		Where("entries.pool_id = ? AND picks.week_id = ?", poolID, weekID).
		Order("entries.entry_name, picks.id").
		Find(&picks).Error
	if err != nil {
		return nil, fmt.Errorf("error loading picks for pool %d: %w", poolID, err)
	}
	return picks, nil
}

func teamDistribution(db *gorm.DB, poolID, weekID uint) ([]TeamCount, error) {
	picks, err := weekPicks(db, poolID, weekID)
	if err != nil {
		return nil, err
	}

	counts := make(map[uint]*TeamCount)
	for _, p := range picks {
		tc, ok := counts[p.TeamID]
		if !ok {
			tc = &TeamCount{Team: p.Team}
			counts[p.TeamID] = tc
		}
		tc.Count++
	}

	distribution := make([]TeamCount, 0, len(counts))
	for _, tc := range counts {
		distribution = append(distribution, *tc)
	}
	sort.Slice(distribution, func(i, j int) bool {
		if distribution[i].Count != distribution[j].Count {
			return distribution[i].Count > distribution[j].Count
		}
		return distribution[i].Team.DisplayName() < distribution[j].Team.DisplayName()
	})
	return distribution, nil
}

// MissingPick is an alive entry that has fewer picks than the week requires.
type MissingPick struct {
	Entry    models.Entry
	Have     int
	Required int
}

// EntriesMissingPicks lists alive entries of active pools that still owe
// picks for week.
func (s *Service) EntriesMissingPicks(ctx context.Context, week models.Week) ([]MissingPick, error) {
	db := s.db.WithContext(ctx)

	type row struct {
		EntryID  uint
		IsDouble bool
	}
	var rows []row
	err := db.Model(&models.Entry{}).
		Select("entries.id AS entry_id, pool_week_settings.is_double").
		Joins("JOIN pools ON pools.id = entries.pool_id").
		Joins("JOIN pool_week_settings ON pool_week_settings.pool_id = entries.pool_id AND pool_week_settings.week_id = ?", week.ID).
		Where("entries.is_alive = ? AND pools.is_active = ?", true, true).
		Order("entries.id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("error loading entries for %s: %w", week, err)
	}

	var missing []MissingPick
	for _, r := range rows {
		var have int64
		if err := db.Model(&models.Pick{}).Where("entry_id = ? AND week_id = ?", r.EntryID, week.ID).Count(&have).Error; err != nil {
			return nil, fmt.Errorf("error counting picks: %w", err)
		}
		required := 1
		if r.IsDouble {
			required = 2
		}
		if int(have) >= required {
			continue
		}

		var entry models.Entry
		if err := db.Preload("User").Preload("Pool").First(&entry, r.EntryID).Error; err != nil {
			return nil, common.NotFound(err, "entry", r.EntryID)
		}
		missing = append(missing, MissingPick{Entry: entry, Have: int(have), Required: required})
	}
	return missing, nil
}

// UserPicks groups one user's picks for the week report.
type UserPicks struct {
	User  models.User
	Picks []models.Pick
}

type WeekReport struct {
	Pool         models.Pool
	Week         models.Week
	Distribution []TeamCount
	Users        []UserPicks
	AliveCount   int64
}

// WeekReport builds the post-deadline summary of a pool's picks for week.
func (s *Service) WeekReport(ctx context.Context, pool models.Pool, week models.Week) (*WeekReport, error) {
	db := s.db.WithContext(ctx)

	picks, err := weekPicks(db, pool.ID, week.ID)
	if err != nil {
		return nil, err
	}
	distribution, err := teamDistribution(db, pool.ID, week.ID)
	if err != nil {
		return nil, err
	}

	byUser := make(map[uint]*UserPicks)
	var order []uint
	for _, p := range picks {
		up, ok := byUser[p.Entry.UserID]
		if !ok {
			up = &UserPicks{User: p.Entry.User}
			byUser[p.Entry.UserID] = up
			order = append(order, p.Entry.UserID)
		}
		up.Picks = append(up.Picks, p)
	}

	report := &WeekReport{Pool: pool, Week: week, Distribution: distribution}
	for _, id := range order {
		report.Users = append(report.Users, *byUser[id])
	}
	sort.Slice(report.Users, func(i, j int) bool { return report.Users[i].User.Username < report.Users[j].User.Username })

	if err := db.Model(&models.Entry{}).Where("pool_id = ? AND is_alive = ?", pool.ID, true).Count(&report.AliveCount).Error; err != nil {
		return nil, fmt.Errorf("error counting alive entries: %w", err)
	}
	return report, nil
}

// ReportRecipients returns the users holding entries in the pool.
func (s *Service) ReportRecipients(ctx context.Context, poolID uint) ([]models.User, error) {
	var users []models.User
	err := s.db.WithContext(ctx).
		Where("id IN (?)", s.db.Model(&models.Entry{}).Select("user_id").Where("pool_id = ?", poolID)).
		Order("username").
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("error loading recipients for pool %d: %w", poolID, err)
	}
	return users, nil
}
