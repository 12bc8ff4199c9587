// Package dbtest builds in-memory SQLite databases and fixtures for package tests.
package dbtest

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"lastManStanding/database"
	"lastManStanding/models"
)

// Kickoff is the start of week 1 in every fixture season.
var Kickoff = time.Date(2025, time.September, 4, 17, 0, 0, 0, time.UTC)

func New(t testing.TB) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}
	return db
}

// Teams creates one team per abbreviation.
func Teams(t testing.TB, db *gorm.DB, abbreviations ...string) map[string]models.Team {
	t.Helper()

	teams := make(map[string]models.Team, len(abbreviations))
	for i, abbr := range abbreviations {
		conference := "AFC"
		if i%2 == 1 {
			conference = "NFC"
		}
		team := models.Team{
			Name:         abbr + " Team",
			City:         abbr + " City",
			Abbreviation: abbr,
			Conference:   conference,
			Division:     "East",
		}
		if err := db.Create(&team).Error; err != nil {
			t.Fatalf("Failed to create team %s: %v", abbr, err)
		}
		teams[abbr] = team
	}
	return teams
}

// Season creates n consecutive seven-day weeks starting at Kickoff. Each
// deadline is three days after the week starts.
func Season(t testing.TB, db *gorm.DB, n int) []models.Week {
	t.Helper()

	weeks := make([]models.Week, 0, n)
	for i := 0; i < n; i++ {
		start := Kickoff.Add(time.Duration(i) * 7 * 24 * time.Hour)
		week := models.Week{
			Number:          uint(i + 1),
			Description:     fmt.Sprintf("Week %d", i+1),
			StartDate:       start,
			Deadline:        start.Add(3 * 24 * time.Hour),
			EndDate:         start.Add(7*24*time.Hour - time.Second),
			IsRegularSeason: true,
		}
		if err := db.Create(&week).Error; err != nil {
			t.Fatalf("Failed to create week %d: %v", i+1, err)
		}
		weeks = append(weeks, week)
	}
	return weeks
}

func User(t testing.TB, db *gorm.DB, username string) models.User {
	t.Helper()

	user := models.User{Username: username, Email: username + "@example.com"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("Failed to create user %s: %v", username, err)
	}
	return user
}

// Pool creates an active pool with a settings row for every existing week.
// Weeks whose number is listed in doubleWeeks are double-pick weeks.
func Pool(t testing.TB, db *gorm.DB, owner models.User, doubleWeeks ...uint) models.Pool {
	t.Helper()

	pool := models.Pool{Name: "Test Pool", Year: 2025, OwnerID: owner.ID, IsActive: true}
	if err := db.Omit("Owner").Create(&pool).Error; err != nil {
		t.Fatalf("Failed to create pool: %v", err)
	}

	var weeks []models.Week
	if err := db.Order("number").Find(&weeks).Error; err != nil {
		t.Fatalf("Failed to list weeks: %v", err)
	}
	for _, week := range weeks {
		settings := models.PoolWeekSettings{PoolID: pool.ID, WeekID: week.ID}
		for _, n := range doubleWeeks {
			if n == week.Number {
				settings.IsDouble = true
			}
		}
		if err := db.Omit("Pool", "Week").Create(&settings).Error; err != nil {
			t.Fatalf("Failed to create settings for week %d: %v", week.Number, err)
		}
	}
	return pool
}

func Entry(t testing.TB, db *gorm.DB, pool models.Pool, user models.User, name string) models.Entry {
	t.Helper()

	entry := models.Entry{PoolID: pool.ID, UserID: user.ID, EntryName: name, IsAlive: true}
	if err := db.Omit("Pool", "User", "EliminatedInWeek").Create(&entry).Error; err != nil {
		t.Fatalf("Failed to create entry %s: %v", name, err)
	}
	return entry
}

// Pick writes a pick row directly, bypassing the ledger.
func Pick(t testing.TB, db *gorm.DB, entry models.Entry, week models.Week, team models.Team) models.Pick {
	t.Helper()

	pick := models.Pick{EntryID: entry.ID, WeekID: week.ID, TeamID: team.ID, Result: models.ResultPending}
	if err := db.Omit("Entry", "Week", "Team").Create(&pick).Error; err != nil {
		t.Fatalf("Failed to create pick: %v", err)
	}
	return pick
}

func ReloadEntry(t testing.TB, db *gorm.DB, id uint) models.Entry {
	t.Helper()

	var entry models.Entry
	if err := db.First(&entry, id).Error; err != nil {
		t.Fatalf("Failed to reload entry %d: %v", id, err)
	}
	return entry
}

func AuditActions(t testing.TB, db *gorm.DB, entryID uint) []string {
	t.Helper()

	var logs []models.AuditLog
	if err := db.Where("entry_id = ?", entryID).Order("id").Find(&logs).Error; err != nil {
		t.Fatalf("Failed to load audit log: %v", err)
	}
	actions := make([]string, 0, len(logs))
	for _, l := range logs {
		actions = append(actions, l.Action)
	}
	return actions
}
