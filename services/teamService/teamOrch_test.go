package teamService

import (
	"context"
	"errors"
	"testing"

	"lastManStanding/database/dbtest"
	"lastManStanding/services/common"
)

func TestSeedTeamsIsIdempotent(t *testing.T) {
	db := dbtest.New(t)
	svc := New(db)
	ctx := context.Background()

	created, err := svc.SeedTeams(ctx)
	if err != nil {
		t.Fatalf("SeedTeams failed: %v", err)
	}
	if created != 32 {
		t.Errorf("Expected 32 teams created, got %d", created)
	}

	created, err = svc.SeedTeams(ctx)
	if err != nil {
		t.Fatalf("second SeedTeams failed: %v", err)
	}
	if created != 0 {
		t.Errorf("Expected no teams on second seed, got %d", created)
	}

	teams, err := svc.ListTeams(ctx)
	if err != nil {
		t.Fatalf("ListTeams failed: %v", err)
	}
	if len(teams) != 32 {
		t.Fatalf("Expected 32 teams, got %d", len(teams))
	}
	if teams[0].Abbreviation != "ARI" {
		t.Errorf("Expected Arizona first, got %s", teams[0].DisplayName())
	}

	perDivision := make(map[string]int)
	for _, team := range teams {
		perDivision[team.Conference+" "+team.Division]++
	}
	for division, n := range perDivision {
		if n != 4 {
			t.Errorf("Expected 4 teams in %s, got %d", division, n)
		}
	}
}

func TestTeamByAbbreviation(t *testing.T) {
	db := dbtest.New(t)
	svc := New(db)
	ctx := context.Background()
	if _, err := svc.SeedTeams(ctx); err != nil {
		t.Fatalf("SeedTeams failed: %v", err)
	}

	team, err := svc.TeamByAbbreviation(ctx, "kc")
	if err != nil {
		t.Fatalf("TeamByAbbreviation failed: %v", err)
	}
	if team.DisplayName() != "Kansas City Chiefs" {
		t.Errorf("Expected Kansas City Chiefs, got %s", team.DisplayName())
	}

	_, err = svc.TeamByAbbreviation(ctx, "XXX")
	if !errors.Is(err, common.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}
