package models

type Team struct {
	ID           uint   `gorm:"primaryKey"`
	Name         string `gorm:"size:100"`
	City         string `gorm:"size:100"`
	Abbreviation string `gorm:"uniqueIndex;size:5"`
	Conference   string `gorm:"size:3"`
	Division     string `gorm:"size:10"`
	LogoURL      *string
}

func (t Team) DisplayName() string {
	return t.City + " " + t.Name
}
