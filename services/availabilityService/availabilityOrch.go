package availabilityService

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"lastManStanding/models"
	"lastManStanding/services/calendarService"
	"lastManStanding/services/common"
)

type Service struct {
	db       *gorm.DB
	calendar *calendarService.Service
}

func New(db *gorm.DB, calendar *calendarService.Service) *Service {
	return &Service{db: db, calendar: calendar}
}

// AvailableTeams lists the teams entryID may pick in weekID, in catalog order.
// Before the deadline only earlier weeks count against the entry, so the
// list does not reveal the pick already made for this week. editingPickID,
// when set, puts that pick's team back in the list.
func (s *Service) AvailableTeams(ctx context.Context, entryID, weekID uint, editingPickID *uint) ([]models.Team, error) {
	db := s.db.WithContext(ctx)

	var entry models.Entry
	if err := db.First(&entry, entryID).Error; err != nil {
		return nil, common.NotFound(err, "entry", entryID)
	}
	var week models.Week
	if err := db.First(&week, weekID).Error; err != nil {
		return nil, common.NotFound(err, "week", weekID)
	}

	var teams []models.Team
	if err := db.Order("city, name").Find(&teams).Error; err != nil {
		return nil, fmt.Errorf("error listing teams: %w", err)
	}
	if week.ResetPool {
		return teams, nil
	}

	var used map[uint]bool
	var err error
	if s.calendar.IsPastDeadline(week, false) {
		used, err = UsedTeamIDs(db, entryID)
	} else {
		used, err = UsedTeamIDsBefore(db, entryID, week.Number)
	}
	if err != nil {
		return nil, err
	}

	if editingPickID != nil {
		var pick models.Pick
		err := db.Where("id = ? AND entry_id = ?", *editingPickID, entryID).First(&pick).Error
		if err != nil {
			return nil, common.NotFound(err, "pick", *editingPickID)
		}
		delete(used, pick.TeamID)
	}

	available := make([]models.Team, 0, len(teams))
	for _, team := range teams {
		if !used[team.ID] {
			available = append(available, team)
		}
	}
	return available, nil
}

// UsedTeams lists every team the entry has picked, ordered by week.
func (s *Service) UsedTeams(ctx context.Context, entryID uint) ([]models.Team, error) {
	var teams []models.Team
	err := s.db.WithContext(ctx).
		Joins("JOIN picks ON picks.team_id = teams.id").
		Joins("JOIN weeks ON weeks.id = picks.week_id").
		Where("picks.entry_id = ?", entryID).
		Order("weeks.number, teams.city, teams.name").
		Find(&teams).Error
	if err != nil {
		return nil, fmt.Errorf("error loading used teams for entry %d: %w", entryID, err)
	}
	return teams, nil
}

// UsedTeamIDs is every team the entry has picked in any week.
func UsedTeamIDs(db *gorm.DB, entryID uint) (map[uint]bool, error) {
	return usedTeamIDs(db.Where("picks.entry_id = ?", entryID))
}

// UsedTeamIDsBefore is every team the entry picked in weeks numbered below weekNumber.
func UsedTeamIDsBefore(db *gorm.DB, entryID, weekNumber uint) (map[uint]bool, error) {
	return usedTeamIDs(db.
		Joins("JOIN weeks ON weeks.id = picks.week_id").
		Where("picks.entry_id = ? AND weeks.number < ?", entryID, weekNumber))
}

// UsedTeamIDsOutside is every team the entry picked in any week other than
// weekID. The ledger uses it so that changing this week's pick never counts
// against itself.
func UsedTeamIDsOutside(db *gorm.DB, entryID, weekID uint) (map[uint]bool, error) {
	return usedTeamIDs(db.Where("picks.entry_id = ? AND picks.week_id <> ?", entryID, weekID))
}

func usedTeamIDs(query *gorm.DB) (map[uint]bool, error) {
	var ids []uint
	if err := query.Model(&models.Pick{}).Distinct().Pluck("picks.team_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("error loading used teams: %w", err)
	}
	used := make(map[uint]bool, len(ids))
	for _, id := range ids {
		used[id] = true
	}
	return used, nil
}
