package poolService

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"lastManStanding/models"
	"lastManStanding/services/auditService"
	"lastManStanding/services/calendarService"
	"lastManStanding/services/common"
)

type NewPool struct {
	Name             string
	Year             uint
	Description      string
	OwnerID          uint
	DiscordChannelID *string
	// week numbers requiring two picks
	DoubleWeeks []uint
}

type Service struct {
	db       *gorm.DB
	calendar *calendarService.Service
	logger   *slog.Logger
}

func New(db *gorm.DB, calendar *calendarService.Service, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{db: db, calendar: calendar, logger: logger}
}

// CreatePool creates the pool together with one settings row per existing week.
func (s *Service) CreatePool(ctx context.Context, auth common.Authorization, req NewPool) (*models.Pool, error) {
	if !auth.Override() {
		return nil, fmt.Errorf("%w: only administrators can create pools", common.ErrForbidden)
	}
	if req.Name == "" || req.Year == 0 {
		return nil, fmt.Errorf("%w: pool name and year are required", common.ErrValidationFailed)
	}

	pool := models.Pool{
		Name:             req.Name,
		Year:             req.Year,
		Description:      req.Description,
		OwnerID:          req.OwnerID,
		IsActive:         true,
		DiscordChannelID: req.DiscordChannelID,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(&pool).Error; err != nil {
			return fmt.Errorf("error creating pool: %w", err)
		}

		var weeks []models.Week
		if err := tx.Order("number").Find(&weeks).Error; err != nil {
			return fmt.Errorf("error listing weeks: %w", err)
		}
		double := make(map[uint]bool, len(req.DoubleWeeks))
		for _, n := range req.DoubleWeeks {
			double[n] = true
		}
		for _, week := range weeks {
			settings := models.PoolWeekSettings{PoolID: pool.ID, WeekID: week.ID, IsDouble: double[week.Number]}
			if err := tx.Omit(clause.Associations).Create(&settings).Error; err != nil {
				return fmt.Errorf("error creating settings for %s: %w", week, err)
			}
		}

		return auditService.Append(tx, auditService.Entry{
			ActorID: auth.ActorID,
			Action:  models.ActionPoolCreated,
			Details: fmt.Sprintf("Created pool %s (%d) with %d weeks", pool.Name, pool.Year, len(weeks)),
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("pool created", slog.Uint64("pool_id", uint64(pool.ID)), slog.String("name", pool.Name))
	return &pool, nil
}

func (s *Service) SetDoubleWeek(ctx context.Context, auth common.Authorization, poolID, weekNumber uint, isDouble bool) error {
	if !auth.Override() {
		return fmt.Errorf("%w: only administrators can change week settings", common.ErrForbidden)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var week models.Week
		if err := tx.Where("number = ?", weekNumber).First(&week).Error; err != nil {
			return common.NotFound(err, "week number", weekNumber)
		}
		var pool models.Pool
		if err := tx.First(&pool, poolID).Error; err != nil {
			return common.NotFound(err, "pool", poolID)
		}

		settings := models.PoolWeekSettings{PoolID: pool.ID, WeekID: week.ID, IsDouble: isDouble}
		err := tx.Omit(clause.Associations).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "pool_id"}, {Name: "week_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"is_double"}),
		}).Create(&settings).Error
		if err != nil {
			return fmt.Errorf("error saving settings for %s: %w", week, err)
		}

		return auditService.Append(tx, auditService.Entry{
			ActorID: auth.ActorID,
			Action:  models.ActionPoolWeekSettingsEdit,
			WeekID:  &week.ID,
			Details: fmt.Sprintf("Pool %s: %s double-pick set to %t", pool.Name, week, isDouble),
		})
	})
}

func (s *Service) WeekSettings(ctx context.Context, poolID, weekID uint) (*models.PoolWeekSettings, error) {
	var settings models.PoolWeekSettings
	err := s.db.WithContext(ctx).Where("pool_id = ? AND week_id = ?", poolID, weekID).First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: pool %d, week %d", common.ErrConfigMissing, poolID, weekID)
	}
	if err != nil {
		return nil, fmt.Errorf("error loading week settings: %w", err)
	}
	return &settings, nil
}

func (s *Service) PoolByID(ctx context.Context, poolID uint) (*models.Pool, error) {
	var pool models.Pool
	if err := s.db.WithContext(ctx).First(&pool, poolID).Error; err != nil {
		return nil, common.NotFound(err, "pool", poolID)
	}
	return &pool, nil
}

func (s *Service) ActivePools(ctx context.Context) ([]models.Pool, error) {
	var pools []models.Pool
	if err := s.db.WithContext(ctx).Where("is_active = ?", true).Order("id").Find(&pools).Error; err != nil {
		return nil, fmt.Errorf("error listing active pools: %w", err)
	}
	return pools, nil
}
