package calendarService

import (
	"context"
	"errors"
	"testing"
	"time"

	"lastManStanding/database/dbtest"
	"lastManStanding/models"
	"lastManStanding/services/common"
)

func TestCurrentAndNextWeek(t *testing.T) {
	db := dbtest.New(t)
	weeks := dbtest.Season(t, db, 3)
	clock := common.NewFakeClock(dbtest.Kickoff.Add(-time.Hour))
	svc := New(db, clock, nil)
	ctx := context.Background()

	current, err := svc.CurrentWeek(ctx)
	if err != nil {
		t.Fatalf("CurrentWeek failed: %v", err)
	}
	if current != nil {
		t.Errorf("Expected no current week before kickoff, got %s", current)
	}
	next, err := svc.NextWeek(ctx)
	if err != nil {
		t.Fatalf("NextWeek failed: %v", err)
	}
	if next == nil || next.ID != weeks[0].ID {
		t.Fatalf("Expected week 1 as next week, got %v", next)
	}

	clock.Set(weeks[1].StartDate.Add(time.Hour))
	current, _ = svc.CurrentWeek(ctx)
	if current == nil || current.Number != 2 {
		t.Errorf("Expected week 2 current, got %v", current)
	}
	next, _ = svc.NextWeek(ctx)
	if next == nil || next.Number != 3 {
		t.Errorf("Expected week 3 next, got %v", next)
	}
}

func TestResolveTargetWeek(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()
	clock := common.NewFakeClock(dbtest.Kickoff)
	svc := New(db, clock, nil)

	if _, err := svc.ResolveTargetWeek(ctx, nil); !errors.Is(err, common.ErrWeekUnresolvable) {
		t.Fatalf("Expected ErrWeekUnresolvable with no weeks, got %v", err)
	}

	weeks := dbtest.Season(t, db, 3)

	tests := []struct {
		name   string
		now    time.Time
		weekID *uint
		want   uint
	}{
		{"explicit week wins", weeks[0].StartDate, common.PtrUint(weeks[2].ID), 3},
		{"window containing now", weeks[1].StartDate.Add(time.Minute), nil, 2},
		{"nearest future week", weeks[0].StartDate.Add(-24 * time.Hour), nil, 1},
		{"earliest week after season", weeks[2].EndDate.Add(24 * time.Hour), nil, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock.Set(tt.now)
			week, err := svc.ResolveTargetWeek(ctx, tt.weekID)
			if err != nil {
				t.Fatalf("ResolveTargetWeek failed: %v", err)
			}
			if week.Number != tt.want {
				t.Errorf("Expected week %d, got %d", tt.want, week.Number)
			}
		})
	}

	if _, err := svc.ResolveTargetWeek(ctx, common.PtrUint(9999)); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unknown week, got %v", err)
	}
}

func TestIsPastDeadline(t *testing.T) {
	week := models.Week{Deadline: dbtest.Kickoff}
	clock := common.NewFakeClock(dbtest.Kickoff.Add(-time.Second))
	svc := New(nil, clock, nil)

	if svc.IsPastDeadline(week, false) {
		t.Error("Expected deadline open one second before")
	}
	clock.Set(dbtest.Kickoff)
	if svc.IsPastDeadline(week, false) {
		t.Error("Expected deadline open at the exact deadline")
	}
	clock.Advance(time.Second)
	if !svc.IsPastDeadline(week, false) {
		t.Error("Expected deadline passed one second after")
	}
	if svc.IsPastDeadline(week, true) {
		t.Error("Expected admin override to report the deadline open")
	}
}

func TestActiveDeadlineWeeks(t *testing.T) {
	db := dbtest.New(t)
	weeks := dbtest.Season(t, db, 3)
	clock := common.NewFakeClock(weeks[1].Deadline.Add(time.Hour))
	svc := New(db, clock, nil)

	active, err := svc.ActiveDeadlineWeeks(context.Background())
	if err != nil {
		t.Fatalf("ActiveDeadlineWeeks failed: %v", err)
	}
	if len(active) != 1 || active[0].Number != 2 {
		t.Errorf("Expected only week 2 active, got %v", active)
	}

	clock.Set(weeks[1].EndDate.Add(time.Second))
	active, _ = svc.ActiveDeadlineWeeks(context.Background())
	if len(active) != 0 {
		t.Errorf("Expected no active weeks after the window closes, got %v", active)
	}
}

func TestReminderAt(t *testing.T) {
	deadline := time.Date(2025, time.September, 7, 9, 0, 0, 0, time.UTC)
	week := models.Week{Deadline: deadline}

	want := time.Date(2025, time.September, 5, 9, 0, 0, 0, time.UTC)
	if got := ReminderAt(week); !got.Equal(want) {
		t.Errorf("Expected default reminder %v, got %v", want, got)
	}

	custom := deadline.Add(-6 * time.Hour)
	week.ReminderTime = &custom
	if got := ReminderAt(week); !got.Equal(custom) {
		t.Errorf("Expected custom reminder %v, got %v", custom, got)
	}
}
