package models

import "time"

type Entry struct {
	ID                 uint   `gorm:"primaryKey"`
	PoolID             uint   `gorm:"uniqueIndex:unique_entry_name_per_pool;not null"`
	Pool               Pool   `gorm:"foreignKey:PoolID"`
	UserID             uint   `gorm:"index;not null"`
	User               User   `gorm:"foreignKey:UserID"`
	EntryName          string `gorm:"uniqueIndex:unique_entry_name_per_pool;size:100"`
	CreatedAt          time.Time
	IsAlive            bool
	EliminatedInWeekID *uint
	EliminatedInWeek   *Week  `gorm:"foreignKey:EliminatedInWeekID;constraint:OnDelete:SET NULL"`
	Picks              []Pick `gorm:"constraint:OnDelete:CASCADE"`
}

func (e Entry) EliminatedIn(weekID uint) bool {
	return !e.IsAlive && e.EliminatedInWeekID != nil && *e.EliminatedInWeekID == weekID
}
