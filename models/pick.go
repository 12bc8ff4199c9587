package models

import "time"

type PickResult string

const (
	ResultPending PickResult = "pending"
	ResultWin     PickResult = "win"
	ResultLoss    PickResult = "loss"
	ResultTie     PickResult = "tie" // ties count as losses
)

// Final reports whether r is a settled game outcome.
func (r PickResult) Final() bool {
	return r == ResultWin || r == ResultLoss || r == ResultTie
}

func (r PickResult) Eliminates() bool {
	return r == ResultLoss || r == ResultTie
}

// Pick is one team selected by one entry for one week. Double-pick weeks
// store two rows; single-pick edits delete and recreate the row.
type Pick struct {
	ID        uint       `gorm:"primaryKey"`
	EntryID   uint       `gorm:"uniqueIndex:unique_team_per_entry_per_week;not null"`
	Entry     Entry      `gorm:"foreignKey:EntryID"`
	WeekID    uint       `gorm:"uniqueIndex:unique_team_per_entry_per_week;index:idx_pick_week_team;not null"`
	Week      Week       `gorm:"foreignKey:WeekID"`
	TeamID    uint       `gorm:"uniqueIndex:unique_team_per_entry_per_week;index:idx_pick_week_team;not null"`
	Team      Team       `gorm:"foreignKey:TeamID"`
	Result    PickResult `gorm:"size:10;default:pending"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
