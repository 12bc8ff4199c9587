package resultService

import (
	"context"
	"reflect"
	"testing"
	"time"

	"lastManStanding/database/dbtest"
	"lastManStanding/models"
)

func TestMissedDeadlineSweep(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	week3 := f.weeks[2]

	missing := dbtest.Entry(t, f.db, f.pool, f.user, "Z")
	picked := dbtest.Entry(t, f.db, f.pool, f.user, "P")
	dbtest.Pick(t, f.db, picked, week3, f.teams["KC"])

	// before the deadline nothing happens
	f.clock.Set(week3.Deadline.Add(-time.Minute))
	if n, err := f.svc.RunMissedDeadlineSweep(ctx); err != nil || n != 0 {
		t.Fatalf("Expected no eliminations before the deadline, got %d, %v", n, err)
	}

	f.clock.Set(week3.Deadline.Add(time.Minute))
	n, err := f.svc.RunMissedDeadlineSweep(ctx)
	if err != nil {
		t.Fatalf("RunMissedDeadlineSweep failed: %v", err)
	}
	if n != 1 {
		t.Fatalf("Expected one elimination, got %d", n)
	}

	z := dbtest.ReloadEntry(t, f.db, missing.ID)
	if z.IsAlive || !z.EliminatedIn(week3.ID) {
		t.Errorf("Expected Z eliminated in week 3, got %+v", z)
	}
	if !dbtest.ReloadEntry(t, f.db, picked.ID).IsAlive {
		t.Error("Expected the entry with a pick to survive")
	}

	var logs []models.AuditLog
	f.db.Where("entry_id = ?", missing.ID).Find(&logs)
	if len(logs) != 1 || logs[0].Details != missedDeadlineDetails || logs[0].ActorID != nil {
		t.Errorf("Expected one system elimination row, got %+v", logs)
	}

	// repeat runs are no-ops
	n, err = f.svc.RunMissedDeadlineSweep(ctx)
	if err != nil || n != 0 {
		t.Errorf("Expected a no-op second sweep, got %d, %v", n, err)
	}
	if got := dbtest.AuditActions(t, f.db, missing.ID); !reflect.DeepEqual(got, []string{models.ActionEntryEliminated}) {
		t.Errorf("Expected a single audit row, got %v", got)
	}

	// after the window closes the week is no longer swept
	late := dbtest.Entry(t, f.db, f.pool, f.user, "L")
	f.clock.Set(week3.EndDate.Add(time.Minute))
	if n, _ := f.svc.RunMissedDeadlineSweep(ctx); n != 0 {
		t.Errorf("Expected no sweep after the window, got %d", n)
	}
	if !dbtest.ReloadEntry(t, f.db, late.ID).IsAlive {
		t.Error("Expected late entry untouched")
	}
}

func TestSweepDoubleWeekAndInactivePools(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	week14 := f.weeks[13]

	oneLeg := dbtest.Entry(t, f.db, f.pool, f.user, "one-leg")
	twoLegs := dbtest.Entry(t, f.db, f.pool, f.user, "two-legs")
	dbtest.Pick(t, f.db, oneLeg, week14, f.teams["KC"])
	dbtest.Pick(t, f.db, twoLegs, week14, f.teams["KC"])
	dbtest.Pick(t, f.db, twoLegs, week14, f.teams["DAL"])

	inactive := dbtest.Pool(t, f.db, f.admin)
	f.db.Model(&models.Pool{}).Where("id = ?", inactive.ID).Update("is_active", false)
	dormant := dbtest.Entry(t, f.db, inactive, f.user, "dormant")

	f.clock.Set(week14.Deadline.Add(time.Minute))
	n, err := f.svc.RunMissedDeadlineSweep(ctx)
	if err != nil {
		t.Fatalf("RunMissedDeadlineSweep failed: %v", err)
	}
	if n != 1 {
		t.Errorf("Expected one elimination, got %d", n)
	}
	if dbtest.ReloadEntry(t, f.db, oneLeg.ID).IsAlive {
		t.Error("Expected the single-leg entry eliminated")
	}
	if !dbtest.ReloadEntry(t, f.db, twoLegs.ID).IsAlive {
		t.Error("Expected the two-leg entry alive")
	}
	if !dbtest.ReloadEntry(t, f.db, dormant.ID).IsAlive {
		t.Error("Expected entries of inactive pools untouched")
	}
}
