package models

import (
	"fmt"
	"time"
)

type Week struct {
	ID              uint   `gorm:"primaryKey"`
	Number          uint   `gorm:"uniqueIndex;not null"`
	Description     string `gorm:"size:100"`
	StartDate       time.Time
	EndDate         time.Time
	Deadline        time.Time
	IsRegularSeason bool
	ResetPool       bool
	ReminderTime    *time.Time
	EmailSent       bool
}

func (w Week) String() string {
	if w.Description != "" && w.Description != fmt.Sprintf("Week %d", w.Number) {
		return fmt.Sprintf("Week %d (%s)", w.Number, w.Description)
	}
	return fmt.Sprintf("Week %d", w.Number)
}

// Contains reports whether t falls inside the week window, bounds included.
func (w Week) Contains(t time.Time) bool {
	return !t.Before(w.StartDate) && !t.After(w.EndDate)
}
