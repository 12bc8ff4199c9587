package models

import "gorm.io/gorm"

type User struct {
	gorm.Model
	ID          uint   `gorm:"primaryKey"`
	Username    string `gorm:"uniqueIndex;size:150"`
	Email       string `gorm:"size:254"`
	IsSuperuser bool
	DiscordID   *string `gorm:"size:64"`
}
