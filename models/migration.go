package models

import (
	"gorm.io/gorm"
	"time"
)

// Migration records a one-shot data task (team seeding, season setup) so it
// is never applied twice.
type Migration struct {
	gorm.Model
	ID         uint   `gorm:"primaryKey"`
	Name       string `gorm:"uniqueIndex; size:255"`
	Details    string
	ExecutedAt time.Time
}
