package models

import "time"

// WeeklyResult is the authoritative outcome for one team in one week.
type WeeklyResult struct {
	ID        uint       `gorm:"primaryKey"`
	WeekID    uint       `gorm:"uniqueIndex:unique_team_result_per_week;not null"`
	Week      Week       `gorm:"foreignKey:WeekID"`
	TeamID    uint       `gorm:"uniqueIndex:unique_team_result_per_week;not null"`
	Team      Team       `gorm:"foreignKey:TeamID"`
	Result    PickResult `gorm:"size:10;not null"`
	Notes     string
	CreatedAt time.Time
	UpdatedAt time.Time
}
