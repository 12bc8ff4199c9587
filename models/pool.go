package models

import "time"

type Pool struct {
	ID               uint   `gorm:"primaryKey"`
	Name             string `gorm:"size:100"`
	Year             uint
	Description      string
	OwnerID          uint
	Owner            User `gorm:"foreignKey:OwnerID"`
	CreatedAt        time.Time
	IsActive         bool
	DiscordChannelID *string `gorm:"size:64"`
	Entries          []Entry `gorm:"constraint:OnDelete:CASCADE"`
}

// PoolWeekSettings holds the per-pool configuration of one week. A row must
// exist for every (pool, week) a pick references.
type PoolWeekSettings struct {
	ID       uint `gorm:"primaryKey"`
	PoolID   uint `gorm:"uniqueIndex:unique_week_settings_per_pool;not null"`
	Pool     Pool `gorm:"foreignKey:PoolID;constraint:OnDelete:CASCADE"`
	WeekID   uint `gorm:"uniqueIndex:unique_week_settings_per_pool;not null"`
	Week     Week `gorm:"foreignKey:WeekID;constraint:OnDelete:CASCADE"`
	IsDouble bool
}

func (PoolWeekSettings) TableName() string {
	return "pool_week_settings"
}
