package calendarService

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"
	"lastManStanding/models"
	"lastManStanding/services/common"
)

const (
	RegularSeasonWeeks = 18
	SuperBowlWeek      = 22

	deadlineOffset = 3*24*time.Hour + 9*time.Hour
	windowLength   = 4*24*time.Hour + 23*time.Hour + 59*time.Minute + 59*time.Second
)

var playoffNames = map[uint]string{
	19: "Wild Card Round",
	20: "Divisional Round",
	21: "Conference Championships",
	22: "Super Bowl",
}

// SeasonWeeks lays out the 18 regular-season and 4 playoff weeks from a
// Thursday kickoff. Each deadline is the following Sunday morning and each
// window closes Monday night. The Super Bowl is played one extra week later.
func SeasonWeeks(year int, kickoff time.Time) []models.Week {
	kickoff = kickoff.UTC()
	weeks := make([]models.Week, 0, SuperBowlWeek)

	for n := uint(1); n <= RegularSeasonWeeks; n++ {
		start := kickoff.AddDate(0, 0, int(n-1)*7)
		weeks = append(weeks, buildWeek(n, fmt.Sprintf("Week %d", n), start, true))
	}

	for n := uint(RegularSeasonWeeks + 1); n <= SuperBowlWeek; n++ {
		start := kickoff.AddDate(0, 0, int(n-1)*7)
		name := playoffNames[n]
		if n == SuperBowlWeek {
			start = start.AddDate(0, 0, 7)
			name = fmt.Sprintf("%s %d", name, year+1)
		}
		weeks = append(weeks, buildWeek(n, name, start, false))
	}
	return weeks
}

// Deadline and window end are measured from midnight of the start day.
func buildWeek(number uint, description string, start time.Time, regular bool) models.Week {
	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	return models.Week{
		Number:          number,
		Description:     description,
		StartDate:       start,
		Deadline:        day.Add(deadlineOffset),
		EndDate:         day.Add(windowLength),
		IsRegularSeason: regular,
	}
}

// SetupSeason writes the season calendar, updating the dates of weeks that
// already exist, and creates the missing week settings of every pool.
func (s *Service) SetupSeason(ctx context.Context, year int, kickoff time.Time) ([]models.Week, error) {
	planned := SeasonWeeks(year, kickoff)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range planned {
			week := &planned[i]

			var existing models.Week
			err := tx.Where("number = ?", week.Number).Limit(1).Find(&existing).Error
			if err != nil {
				return fmt.Errorf("error loading week %d: %w", week.Number, err)
			}

			if existing.ID != 0 {
				week.ID = existing.ID
				week.ResetPool = existing.ResetPool
				week.ReminderTime = existing.ReminderTime
				week.EmailSent = existing.EmailSent
				if err := tx.Save(week).Error; err != nil {
					return fmt.Errorf("error updating week %d: %w", week.Number, err)
				}
			} else if err := tx.Create(week).Error; err != nil {
				return fmt.Errorf("error creating week %d: %w", week.Number, err)
			}

			s.logger.Info("season week",
				slog.Uint64("week", uint64(week.Number)),
				slog.Time("start", week.StartDate),
				slog.Time("deadline", week.Deadline),
				slog.Time("end", week.EndDate))
		}

		return ensurePoolSettings(tx, planned)
	})
	if err != nil {
		return nil, err
	}
	return planned, nil
}

func ensurePoolSettings(tx *gorm.DB, weeks []models.Week) error {
	var pools []models.Pool
	if err := tx.Find(&pools).Error; err != nil {
		return fmt.Errorf("error listing pools: %w", err)
	}

	for _, pool := range pools {
		for _, week := range weeks {
			var count int64
			err := tx.Model(&models.PoolWeekSettings{}).
				Where("pool_id = ? AND week_id = ?", pool.ID, week.ID).
				Count(&count).Error
			if err != nil {
				return fmt.Errorf("error checking settings for pool %d: %w", pool.ID, err)
			}
			if count > 0 {
				continue
			}

			settings := models.PoolWeekSettings{PoolID: pool.ID, WeekID: week.ID}
			if err := tx.Omit("Pool", "Week").Create(&settings).Error; err != nil {
				return fmt.Errorf("error creating settings for pool %d week %d: %w", pool.ID, week.Number, err)
			}
		}
	}
	return nil
}

// ShiftSchedule moves every week window by offset. Week numbering is not
// touched, so ordering is preserved.
func (s *Service) ShiftSchedule(ctx context.Context, offset time.Duration) error {
	if offset == 0 {
		return fmt.Errorf("%w: offset must be non-zero", common.ErrValidationFailed)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		weeks, err := listWeeks(tx)
		if err != nil {
			return err
		}
		for _, week := range weeks {
			updates := map[string]interface{}{
				"start_date": week.StartDate.Add(offset),
				"end_date":   week.EndDate.Add(offset),
				"deadline":   week.Deadline.Add(offset),
			}
			if week.ReminderTime != nil {
				updates["reminder_time"] = week.ReminderTime.Add(offset)
			}
			if err := tx.Model(&models.Week{}).Where("id = ?", week.ID).Updates(updates).Error; err != nil {
				return fmt.Errorf("error shifting week %d: %w", week.Number, err)
			}
		}
		return nil
	})
}
