package resultService

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"lastManStanding/database/dbtest"
	"lastManStanding/models"
	"lastManStanding/services/availabilityService"
	"lastManStanding/services/calendarService"
	"lastManStanding/services/common"
	"lastManStanding/services/pickService"
)

type recordingNotifier struct {
	changes []EntryChange
}

func (r *recordingNotifier) EntriesChanged(_ context.Context, changes []EntryChange) {
	r.changes = append(r.changes, changes...)
}

type fixture struct {
	t        *testing.T
	db       *gorm.DB
	svc      *Service
	calendar *calendarService.Service
	clock    *common.FakeClock
	notifier *recordingNotifier
	teams    map[string]models.Team
	weeks    []models.Week
	user     models.User
	admin    models.User
	pool     models.Pool
}

// setup builds a season where week 14 is a double-pick week for the pool.
func setup(t *testing.T) fixture {
	t.Helper()
	db := dbtest.New(t)
	teams := dbtest.Teams(t, db, "KC", "DAL", "BUF", "PHI")
	weeks := dbtest.Season(t, db, 14)
	user := dbtest.User(t, db, "alice")
	admin := dbtest.User(t, db, "admin")
	pool := dbtest.Pool(t, db, admin, 14)

	clock := common.NewFakeClock(weeks[0].StartDate)
	calendar := calendarService.New(db, clock, nil)
	notifier := &recordingNotifier{}
	return fixture{
		t:        t,
		db:       db,
		svc:      New(db, calendar, notifier, nil),
		calendar: calendar,
		clock:    clock,
		notifier: notifier,
		teams:    teams,
		weeks:    weeks,
		user:     user,
		admin:    admin,
		pool:     pool,
	}
}

func (f fixture) record(week models.Week, abbr string, result models.PickResult) []models.Entry {
	f.t.Helper()
	changed, err := f.svc.RecordResult(context.Background(), common.Admin(f.admin.ID), week.ID, f.teams[abbr].ID, result, "")
	if err != nil {
		f.t.Fatalf("RecordResult %s %s failed: %v", abbr, result, err)
	}
	return changed
}

func TestScenarioSinglePickLoss(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	entry := dbtest.Entry(t, f.db, f.pool, f.user, "X")

	ledger := pickService.New(f.db, f.calendar, nil, nil, nil)
	week1 := f.weeks[0]
	if _, err := ledger.SubmitPick(ctx, common.User(f.user.ID), pickService.PickRequest{EntryID: entry.ID, WeekID: &week1.ID, TeamID: f.teams["KC"].ID}); err != nil {
		t.Fatalf("SubmitPick failed: %v", err)
	}

	available, err := availabilityService.New(f.db, f.calendar).AvailableTeams(ctx, entry.ID, f.weeks[1].ID, nil)
	if err != nil {
		t.Fatalf("AvailableTeams failed: %v", err)
	}
	for _, team := range available {
		if team.Abbreviation == "KC" {
			t.Error("Expected KC excluded from week 2")
		}
	}

	f.clock.Set(week1.Deadline.Add(time.Hour))
	changed := f.record(week1, "KC", models.ResultLoss)
	if len(changed) != 1 || changed[0].ID != entry.ID {
		t.Fatalf("Expected entry X reported as changed, got %+v", changed)
	}

	var pick models.Pick
	f.db.Where("entry_id = ?", entry.ID).First(&pick)
	if pick.Result != models.ResultLoss {
		t.Errorf("Expected pick result loss, got %s", pick.Result)
	}

	reloaded := dbtest.ReloadEntry(t, f.db, entry.ID)
	if reloaded.IsAlive || reloaded.EliminatedInWeekID == nil || *reloaded.EliminatedInWeekID != week1.ID {
		t.Errorf("Expected X eliminated in week 1, got %+v", reloaded)
	}

	want := []string{models.ActionPickCreated, models.ActionEntryEliminated}
	if got := dbtest.AuditActions(t, f.db, entry.ID); !reflect.DeepEqual(got, want) {
		t.Errorf("Expected audit %v, got %v", want, got)
	}
	if len(f.notifier.changes) != 1 || !f.notifier.changes[0].Eliminated {
		t.Errorf("Expected one elimination notification, got %+v", f.notifier.changes)
	}
}

func TestScenarioDoublePickEliminationAndRevival(t *testing.T) {
	f := setup(t)
	entry := dbtest.Entry(t, f.db, f.pool, f.user, "Y")
	week14 := f.weeks[13]
	dbtest.Pick(t, f.db, entry, week14, f.teams["KC"])
	dbtest.Pick(t, f.db, entry, week14, f.teams["DAL"])

	if changed := f.record(week14, "KC", models.ResultWin); len(changed) != 0 {
		t.Fatalf("Expected no change while DAL is pending, got %+v", changed)
	}
	if !dbtest.ReloadEntry(t, f.db, entry.ID).IsAlive {
		t.Fatal("Expected Y alive while waiting for the second leg")
	}

	f.record(week14, "DAL", models.ResultLoss)
	reloaded := dbtest.ReloadEntry(t, f.db, entry.ID)
	if reloaded.IsAlive || !reloaded.EliminatedIn(week14.ID) {
		t.Fatalf("Expected Y eliminated in week 14, got %+v", reloaded)
	}

	f.record(week14, "DAL", models.ResultWin)
	reloaded = dbtest.ReloadEntry(t, f.db, entry.ID)
	if !reloaded.IsAlive || reloaded.EliminatedInWeekID != nil {
		t.Fatalf("Expected Y revived, got %+v", reloaded)
	}

	want := []string{models.ActionEntryEliminated, models.ActionEntryRevived}
	if got := dbtest.AuditActions(t, f.db, entry.ID); !reflect.DeepEqual(got, want) {
		t.Errorf("Expected audit %v, got %v", want, got)
	}

	var stored []models.WeeklyResult
	f.db.Where("week_id = ? AND team_id = ?", week14.ID, f.teams["DAL"].ID).Find(&stored)
	if len(stored) != 1 || stored[0].Result != models.ResultWin {
		t.Errorf("Expected one corrected DAL result, got %+v", stored)
	}
}

func TestDoublePickSurvivalRule(t *testing.T) {
	tests := []struct {
		name      string
		kc, dal   models.PickResult
		wantAlive bool
	}{
		{"two wins survive", models.ResultWin, models.ResultWin, true},
		{"win and loss eliminate", models.ResultWin, models.ResultLoss, false},
		{"win and tie eliminate", models.ResultWin, models.ResultTie, false},
		{"two losses eliminate", models.ResultLoss, models.ResultLoss, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setup(t)
			entry := dbtest.Entry(t, f.db, f.pool, f.user, "Y")
			week14 := f.weeks[13]
			dbtest.Pick(t, f.db, entry, week14, f.teams["KC"])
			dbtest.Pick(t, f.db, entry, week14, f.teams["DAL"])

			f.record(week14, "KC", tt.kc)
			f.record(week14, "DAL", tt.dal)

			if got := dbtest.ReloadEntry(t, f.db, entry.ID).IsAlive; got != tt.wantAlive {
				t.Errorf("Expected alive=%v, got %v", tt.wantAlive, got)
			}
		})
	}
}

func TestRevivalOnlyWithinEliminationWeek(t *testing.T) {
	f := setup(t)
	entry := dbtest.Entry(t, f.db, f.pool, f.user, "R")
	dbtest.Pick(t, f.db, entry, f.weeks[0], f.teams["KC"])
	dbtest.Pick(t, f.db, entry, f.weeks[1], f.teams["DAL"])

	f.record(f.weeks[0], "KC", models.ResultLoss)
	if dbtest.ReloadEntry(t, f.db, entry.ID).IsAlive {
		t.Fatal("Expected elimination in week 1")
	}

	// a win in another week never revives
	if changed := f.record(f.weeks[1], "DAL", models.ResultWin); len(changed) != 0 {
		t.Errorf("Expected no revival from week 2, got %+v", changed)
	}
	if dbtest.ReloadEntry(t, f.db, entry.ID).IsAlive {
		t.Fatal("Expected entry still eliminated after an unrelated win")
	}

	// a loss in a later week does not move the elimination week
	f.record(f.weeks[1], "DAL", models.ResultLoss)
	if got := dbtest.ReloadEntry(t, f.db, entry.ID); !got.EliminatedIn(f.weeks[0].ID) {
		t.Errorf("Expected elimination to stay on week 1, got %+v", got)
	}

	f.record(f.weeks[0], "KC", models.ResultWin)
	if !dbtest.ReloadEntry(t, f.db, entry.ID).IsAlive {
		t.Error("Expected the week 1 correction to revive the entry")
	}
}

func TestRecordResultValidation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.RecordResult(ctx, common.User(f.user.ID), f.weeks[0].ID, f.teams["KC"].ID, models.ResultWin, "")
	if !errors.Is(err, common.ErrForbidden) {
		t.Errorf("Expected ErrForbidden for a normal user, got %v", err)
	}
	_, err = f.svc.RecordResult(ctx, common.System(), f.weeks[0].ID, f.teams["KC"].ID, models.ResultPending, "")
	if !errors.Is(err, common.ErrValidationFailed) {
		t.Errorf("Expected ErrValidationFailed for pending, got %v", err)
	}
	_, err = f.svc.RecordResult(ctx, common.System(), 9999, f.teams["KC"].ID, models.ResultWin, "")
	if !errors.Is(err, common.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for an unknown week, got %v", err)
	}
}

func TestMissingSettingsUsesSinglePickRule(t *testing.T) {
	f := setup(t)
	entry := dbtest.Entry(t, f.db, f.pool, f.user, "M")
	dbtest.Pick(t, f.db, entry, f.weeks[13], f.teams["KC"])
	f.db.Where("pool_id = ? AND week_id = ?", f.pool.ID, f.weeks[13].ID).Delete(&models.PoolWeekSettings{})

	f.record(f.weeks[13], "KC", models.ResultLoss)
	if dbtest.ReloadEntry(t, f.db, entry.ID).IsAlive {
		t.Error("Expected single-pick elimination when settings are missing")
	}
}

func newMockDB() (*gorm.DB, sqlmock.Sqlmock, error) {
	db, mock, err := sqlmock.New()
	if err != nil {
		return nil, nil, err
	}

	gormDB, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{})

	return gormDB, mock, err
}

func TestRecordResultRollsBackOnFailure(t *testing.T) {
	db, mock, err := newMockDB()
	if err != nil {
		t.Fatalf("Failed to create mock DB: %v", err)
	}
	defer func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	}()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT \\* FROM `weeks`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "number"}).AddRow(1, 1))
	mock.ExpectQuery("SELECT \\* FROM `teams`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "abbreviation"}).AddRow(1, "KC"))
	mock.ExpectExec("INSERT INTO `weekly_results`").
		WillReturnError(errors.New("deadlock found"))
	mock.ExpectRollback()

	notifier := &recordingNotifier{}
	svc := New(db, calendarService.New(db, common.NewFakeClock(dbtest.Kickoff), nil), notifier, nil)

	_, err = svc.RecordResult(context.Background(), common.System(), 1, 1, models.ResultLoss, "")
	if err == nil {
		t.Fatal("Expected an error from the failed upsert")
	}
	if len(notifier.changes) != 0 {
		t.Error("Expected no notifications after rollback")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}
