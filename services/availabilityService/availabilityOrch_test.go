package availabilityService

import (
	"context"
	"errors"
	"testing"
	"time"

	"lastManStanding/database/dbtest"
	"lastManStanding/models"
	"lastManStanding/services/calendarService"
	"lastManStanding/services/common"
)

func contains(teams []models.Team, id uint) bool {
	for _, team := range teams {
		if team.ID == id {
			return true
		}
	}
	return false
}

type fixture struct {
	svc   *Service
	clock *common.FakeClock
	teams map[string]models.Team
	weeks []models.Week
	entry models.Entry
}

func setup(t *testing.T) fixture {
	t.Helper()
	db := dbtest.New(t)
	teams := dbtest.Teams(t, db, "KC", "DAL", "BUF", "PHI")
	weeks := dbtest.Season(t, db, 4)
	user := dbtest.User(t, db, "alice")
	pool := dbtest.Pool(t, db, user)
	entry := dbtest.Entry(t, db, pool, user, "alice-1")

	clock := common.NewFakeClock(weeks[0].StartDate)
	calendar := calendarService.New(db, clock, nil)
	return fixture{
		svc:   New(db, calendar),
		clock: clock,
		teams: teams,
		weeks: weeks,
		entry: entry,
	}
}

func TestAvailableTeamsExcludesEarlierWeeks(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	f.svc.db.Omit("Entry", "Week", "Team").Create(&models.Pick{EntryID: f.entry.ID, WeekID: f.weeks[0].ID, TeamID: f.teams["KC"].ID, Result: models.ResultPending})

	// before the week 1 deadline the current pick is not revealed
	week1, err := f.svc.AvailableTeams(ctx, f.entry.ID, f.weeks[0].ID, nil)
	if err != nil {
		t.Fatalf("AvailableTeams failed: %v", err)
	}
	if !contains(week1, f.teams["KC"].ID) {
		t.Error("Expected KC still listed for week 1 before the deadline")
	}

	week2, err := f.svc.AvailableTeams(ctx, f.entry.ID, f.weeks[1].ID, nil)
	if err != nil {
		t.Fatalf("AvailableTeams failed: %v", err)
	}
	if contains(week2, f.teams["KC"].ID) {
		t.Error("Expected KC excluded from week 2")
	}
	if len(week2) != 3 {
		t.Errorf("Expected 3 teams for week 2, got %d", len(week2))
	}

	// once the deadline passes every used team is excluded
	f.clock.Set(f.weeks[0].Deadline.Add(time.Minute))
	week1, err = f.svc.AvailableTeams(ctx, f.entry.ID, f.weeks[0].ID, nil)
	if err != nil {
		t.Fatalf("AvailableTeams failed: %v", err)
	}
	if contains(week1, f.teams["KC"].ID) {
		t.Error("Expected KC excluded from week 1 after the deadline")
	}
}

func TestAvailableTeamsEditingPick(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	pick := models.Pick{EntryID: f.entry.ID, WeekID: f.weeks[0].ID, TeamID: f.teams["DAL"].ID, Result: models.ResultPending}
	f.svc.db.Omit("Entry", "Week", "Team").Create(&pick)
	f.clock.Set(f.weeks[0].Deadline.Add(time.Minute))

	teams, err := f.svc.AvailableTeams(ctx, f.entry.ID, f.weeks[0].ID, &pick.ID)
	if err != nil {
		t.Fatalf("AvailableTeams failed: %v", err)
	}
	if !contains(teams, f.teams["DAL"].ID) {
		t.Error("Expected the edited pick's team to be re-included")
	}

	_, err = f.svc.AvailableTeams(ctx, f.entry.ID, f.weeks[0].ID, common.PtrUint(9999))
	if !errors.Is(err, common.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unknown pick, got %v", err)
	}
}

func TestAvailableTeamsResetWeek(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	f.svc.db.Omit("Entry", "Week", "Team").Create(&models.Pick{EntryID: f.entry.ID, WeekID: f.weeks[0].ID, TeamID: f.teams["KC"].ID})
	f.svc.db.Omit("Entry", "Week", "Team").Create(&models.Pick{EntryID: f.entry.ID, WeekID: f.weeks[1].ID, TeamID: f.teams["BUF"].ID})
	f.svc.db.Model(&models.Week{}).Where("id = ?", f.weeks[2].ID).Update("reset_pool", true)

	teams, err := f.svc.AvailableTeams(ctx, f.entry.ID, f.weeks[2].ID, nil)
	if err != nil {
		t.Fatalf("AvailableTeams failed: %v", err)
	}
	if len(teams) != 4 {
		t.Errorf("Expected the full catalog on a reset week, got %d teams", len(teams))
	}

	teams, _ = f.svc.AvailableTeams(ctx, f.entry.ID, f.weeks[3].ID, nil)
	if contains(teams, f.teams["KC"].ID) || contains(teams, f.teams["BUF"].ID) {
		t.Error("Expected history to apply again after the reset week")
	}
}

// No team picked in an earlier week may ever be offered again.
func TestAvailableTeamsNeverOffersEarlierPicks(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	order := []string{"KC", "DAL", "BUF"}
	for i, abbr := range order {
		f.svc.db.Omit("Entry", "Week", "Team").Create(&models.Pick{EntryID: f.entry.ID, WeekID: f.weeks[i].ID, TeamID: f.teams[abbr].ID})
	}

	for _, now := range []time.Time{f.weeks[0].StartDate, f.weeks[3].Deadline.Add(time.Hour)} {
		f.clock.Set(now)
		for w := range f.weeks {
			teams, err := f.svc.AvailableTeams(ctx, f.entry.ID, f.weeks[w].ID, nil)
			if err != nil {
				t.Fatalf("AvailableTeams failed: %v", err)
			}
			for i := 0; i < w && i < len(order); i++ {
				if contains(teams, f.teams[order[i]].ID) {
					t.Errorf("Week %d offers %s picked in week %d", w+1, order[i], i+1)
				}
			}
		}
	}
}

func TestUsedTeams(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	f.svc.db.Omit("Entry", "Week", "Team").Create(&models.Pick{EntryID: f.entry.ID, WeekID: f.weeks[1].ID, TeamID: f.teams["PHI"].ID})
	f.svc.db.Omit("Entry", "Week", "Team").Create(&models.Pick{EntryID: f.entry.ID, WeekID: f.weeks[0].ID, TeamID: f.teams["KC"].ID})

	used, err := f.svc.UsedTeams(ctx, f.entry.ID)
	if err != nil {
		t.Fatalf("UsedTeams failed: %v", err)
	}
	if len(used) != 2 || used[0].Abbreviation != "KC" || used[1].Abbreviation != "PHI" {
		t.Errorf("Expected KC then PHI, got %+v", used)
	}
}
