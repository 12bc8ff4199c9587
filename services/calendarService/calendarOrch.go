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

// Service answers every "which week is it" question against an injected
// clock. Weeks are loaded and compared in Go so the answer does not depend on
// how each dialect stores timestamps.
type Service struct {
	db     *gorm.DB
	clock  common.Clock
	logger *slog.Logger
}

func New(db *gorm.DB, clock common.Clock, logger *slog.Logger) *Service {
	if clock == nil {
		clock = common.SystemClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{db: db, clock: clock, logger: logger}
}

func (s *Service) Now() time.Time {
	return s.clock.Now()
}

func (s *Service) ListWeeks(ctx context.Context) ([]models.Week, error) {
	return listWeeks(s.db.WithContext(ctx))
}

func listWeeks(db *gorm.DB) ([]models.Week, error) {
	var weeks []models.Week
	if err := db.Order("number").Find(&weeks).Error; err != nil {
		return nil, fmt.Errorf("error listing weeks: %w", err)
	}
	return weeks, nil
}

// CurrentWeek returns the week whose window contains now, or nil.
func (s *Service) CurrentWeek(ctx context.Context) (*models.Week, error) {
	weeks, err := s.ListWeeks(ctx)
	if err != nil {
		return nil, err
	}
	return currentWeek(weeks, s.clock.Now()), nil
}

// NextWeek returns the earliest week starting after now, or nil.
func (s *Service) NextWeek(ctx context.Context) (*models.Week, error) {
	weeks, err := s.ListWeeks(ctx)
	if err != nil {
		return nil, err
	}
	return nextWeek(weeks, s.clock.Now()), nil
}

// ResolveTargetWeek loads weekID when given. Otherwise it falls back to the
// current week, then the next week, then the earliest week.
func (s *Service) ResolveTargetWeek(ctx context.Context, weekID *uint) (*models.Week, error) {
	return s.resolveTargetWeek(s.db.WithContext(ctx), weekID)
}

// ResolveTargetWeekTx is ResolveTargetWeek inside a caller's transaction.
func (s *Service) ResolveTargetWeekTx(tx *gorm.DB, weekID *uint) (*models.Week, error) {
	return s.resolveTargetWeek(tx, weekID)
}

func (s *Service) resolveTargetWeek(db *gorm.DB, weekID *uint) (*models.Week, error) {
	if weekID != nil {
		var week models.Week
		if err := db.First(&week, *weekID).Error; err != nil {
			return nil, common.NotFound(err, "week", *weekID)
		}
		return &week, nil
	}

	weeks, err := listWeeks(db)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	if week := currentWeek(weeks, now); week != nil {
		return week, nil
	}
	if week := nextWeek(weeks, now); week != nil {
		return week, nil
	}
	if len(weeks) > 0 {
		return &weeks[0], nil
	}
	return nil, common.ErrWeekUnresolvable
}

// IsPastDeadline reports whether normal submissions for week are locked.
// forAdmin always answers false; only pass it from code already gated by a
// privilege check.
func (s *Service) IsPastDeadline(week models.Week, forAdmin bool) bool {
	if forAdmin {
		return false
	}
	return s.clock.Now().After(week.Deadline)
}

func (s *Service) WeekByID(ctx context.Context, id uint) (*models.Week, error) {
	var week models.Week
	if err := s.db.WithContext(ctx).First(&week, id).Error; err != nil {
		return nil, common.NotFound(err, "week", id)
	}
	return &week, nil
}

func (s *Service) WeekByNumber(ctx context.Context, number uint) (*models.Week, error) {
	var week models.Week
	if err := s.db.WithContext(ctx).Where("number = ?", number).First(&week).Error; err != nil {
		return nil, common.NotFound(err, "week number", number)
	}
	return &week, nil
}

// ActiveDeadlineWeeks returns weeks whose deadline has passed while their
// window is still open.
func (s *Service) ActiveDeadlineWeeks(ctx context.Context) ([]models.Week, error) {
	weeks, err := s.ListWeeks(ctx)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()

	var active []models.Week
	for _, week := range weeks {
		if now.After(week.Deadline) && !now.After(week.EndDate) {
			active = append(active, week)
		}
	}
	return active, nil
}

// ReminderAt is the week's configured reminder time, defaulting to 09:00 two
// days before the deadline.
func ReminderAt(week models.Week) time.Time {
	if week.ReminderTime != nil {
		return *week.ReminderTime
	}
	day := week.Deadline.Add(-48 * time.Hour)
	return time.Date(day.Year(), day.Month(), day.Day(), 9, 0, 0, 0, day.Location())
}

func currentWeek(weeks []models.Week, now time.Time) *models.Week {
	for i := range weeks {
		if weeks[i].Contains(now) {
			return &weeks[i]
		}
	}
	return nil
}

func nextWeek(weeks []models.Week, now time.Time) *models.Week {
	var next *models.Week
	for i := range weeks {
		if !weeks[i].StartDate.After(now) {
			continue
		}
		if next == nil || weeks[i].StartDate.Before(next.StartDate) {
			next = &weeks[i]
		}
	}
	return next
}
