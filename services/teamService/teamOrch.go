package teamService

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"lastManStanding/models"
	"lastManStanding/services/common"
)

type Service struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Service {
	return &Service{db: db}
}

// SeedTeams inserts any missing NFL team and reports how many rows were created.
func (s *Service) SeedTeams(ctx context.Context) (int, error) {
	created := 0
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, t := range nflTeams {
			var existing int64
			if err := tx.Model(&models.Team{}).Where("abbreviation = ?", t.Abbreviation).Count(&existing).Error; err != nil {
				return fmt.Errorf("error checking team %s: %w", t.Abbreviation, err)
			}
			if existing > 0 {
				continue
			}

			team := t
			if err := tx.Create(&team).Error; err != nil {
				return fmt.Errorf("error seeding team %s: %w", t.Abbreviation, err)
			}
			created++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return created, nil
}

func (s *Service) ListTeams(ctx context.Context) ([]models.Team, error) {
	var teams []models.Team
	if err := s.db.WithContext(ctx).Order("city, name").Find(&teams).Error; err != nil {
		return nil, fmt.Errorf("error listing teams: %w", err)
	}
	return teams, nil
}

func (s *Service) TeamByAbbreviation(ctx context.Context, abbreviation string) (*models.Team, error) {
	var team models.Team
	err := s.db.WithContext(ctx).Where("abbreviation = ?", strings.ToUpper(abbreviation)).First(&team).Error
	if err != nil {
		return nil, common.NotFound(err, "team", abbreviation)
	}
	return &team, nil
}

func (s *Service) TeamByID(ctx context.Context, id uint) (*models.Team, error) {
	var team models.Team
	if err := s.db.WithContext(ctx).First(&team, id).Error; err != nil {
		return nil, common.NotFound(err, "team", id)
	}
	return &team, nil
}
