package services

import (
	"context"
	"strings"
	"testing"

	"github.com/bwmarrin/discordgo"
	"gorm.io/gorm"
	"lastManStanding/database/dbtest"
	"lastManStanding/models"
	"lastManStanding/services/availabilityService"
	"lastManStanding/services/calendarService"
	"lastManStanding/services/common"
	"lastManStanding/services/pickService"
	"lastManStanding/services/poolService"
	"lastManStanding/services/resultService"
	"lastManStanding/services/teamService"
)

func intOpt(name string, v int) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{Name: name, Type: discordgo.ApplicationCommandOptionInteger, Value: float64(v)}
}

func strOpt(name, v string) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{Name: name, Type: discordgo.ApplicationCommandOptionString, Value: v}
}

func inv(name, discordID string, admin bool, opts ...*discordgo.ApplicationCommandInteractionDataOption) invocation {
	return invocation{name: name, discordID: discordID, admin: admin, options: optionMap(opts)}
}

type botFixture struct {
	db    *gorm.DB
	bot   *Bot
	clock *common.FakeClock
	weeks []models.Week
	pool  models.Pool
}

func newBotFixture(t *testing.T, doubleWeeks ...uint) botFixture {
	t.Helper()
	db := dbtest.New(t)
	weeks := dbtest.Season(t, db, 3)
	dbtest.Teams(t, db, "KC", "DAL", "BUF")

	admin := dbtest.User(t, db, "admin")
	alice := dbtest.User(t, db, "alice")
	db.Model(&admin).Update("discord_id", "d-admin")
	db.Model(&alice).Update("discord_id", "d-alice")
	pool := dbtest.Pool(t, db, admin, doubleWeeks...)
	dbtest.Entry(t, db, pool, alice, "alice-1")

	clock := common.NewFakeClock(weeks[0].StartDate)
	calendar := calendarService.New(db, clock, nil)
	bot := NewBot(db, calendar, teamService.New(db), poolService.New(db, calendar, nil),
		pickService.New(db, calendar, nil, nil, nil), availabilityService.New(db, calendar),
		resultService.New(db, calendar, nil, nil), nil)
	return botFixture{db: db, bot: bot, clock: clock, weeks: weeks, pool: pool}
}

func TestBotPickFlow(t *testing.T) {
	f := newBotFixture(t)
	ctx := context.Background()

	r := f.bot.dispatch(ctx, inv("my-entries", "d-stranger", false))
	if !r.ephemeral || !strings.Contains(r.content, "Requested resource not found") {
		t.Errorf("Expected a not found reply for an unlinked user, got %q", r.content)
	}

	r = f.bot.dispatch(ctx, inv("pick", "d-alice", false, strOpt("entry", "alice-1"), strOpt("team", "kc")))
	if !strings.HasPrefix(r.content, "Saved KC City KC Team for alice-1") {
		t.Fatalf("Unexpected pick reply %q", r.content)
	}
	r = f.bot.dispatch(ctx, inv("pick", "d-alice", false, strOpt("entry", "alice-1"), strOpt("team", "DAL"), intOpt("week", 1)))
	if !strings.HasPrefix(r.content, "Saved DAL City DAL Team") {
		t.Fatalf("Expected the pick to be replaced, got %q", r.content)
	}

	r = f.bot.dispatch(ctx, inv("pick", "d-alice", false, strOpt("entry", "bob-1"), strOpt("team", "BUF")))
	if !strings.Contains(r.content, "no entry named bob-1") {
		t.Errorf("Expected a missing entry reply, got %q", r.content)
	}

	r = f.bot.dispatch(ctx, inv("available-teams", "d-alice", false, strOpt("entry", "alice-1"), intOpt("week", 2)))
	if strings.Contains(r.content, "DAL") || !strings.Contains(r.content, "KC") {
		t.Errorf("Expected DAL to be used up for week 2, got %q", r.content)
	}

	choices := f.bot.teamChoices(ctx, inv("pick", "d-alice", false, strOpt("entry", "alice-1"), intOpt("week", 2)), "k")
	if len(choices) != 1 || choices[0].Value != "KC" {
		t.Errorf("Expected only KC to autocomplete, got %+v", choices)
	}

	r = f.bot.dispatch(ctx, inv("my-entries", "d-alice", false))
	if r.embed == nil || !strings.Contains(r.embed.Description, "alice-1") {
		t.Errorf("Expected alice-1 in the entries embed, got %+v", r)
	}
}

func TestBotDoublePickWeek(t *testing.T) {
	f := newBotFixture(t, 1)
	ctx := context.Background()
	pick := func(opts ...*discordgo.ApplicationCommandInteractionDataOption) string {
		opts = append([]*discordgo.ApplicationCommandInteractionDataOption{strOpt("entry", "alice-1")}, opts...)
		return f.bot.dispatch(ctx, inv("pick", "d-alice", false, opts...)).content
	}

	if got := pick(strOpt("team", "KC"), strOpt("second_team", "DAL")); !strings.HasPrefix(got, "Saved KC City KC Team and DAL City DAL Team for alice-1") {
		t.Fatalf("Unexpected double pick reply %q", got)
	}
	if got := pick(strOpt("team", "BUF")); !strings.Contains(got, "oo many picks") {
		t.Errorf("Expected a third leg to be refused, got %q", got)
	}
	if got := pick(strOpt("team", "BUF"), strOpt("replace", "DAL")); !strings.HasPrefix(got, "Saved BUF City BUF Team") {
		t.Fatalf("Expected DAL replaced by BUF, got %q", got)
	}
	if got := pick(strOpt("team", "DAL"), strOpt("replace", "DAL")); !strings.Contains(got, "Requested resource not found") {
		t.Errorf("Expected a missing leg reply, got %q", got)
	}

	var abbreviations []string
	f.db.Model(&models.Pick{}).
		Joins("JOIN teams ON teams.id = picks.team_id").
		Where("picks.week_id = ?", f.weeks[0].ID).
		Order("teams.abbreviation").
		Pluck("teams.abbreviation", &abbreviations)
	if strings.Join(abbreviations, ",") != "BUF,KC" {
		t.Errorf("Expected BUF and KC picked, got %v", abbreviations)
	}

	// the pair replaces both legs
	if got := pick(strOpt("team", "DAL"), strOpt("second_team", "KC")); !strings.HasPrefix(got, "Saved DAL City DAL Team and KC City KC Team") {
		t.Errorf("Unexpected pair replacement reply %q", got)
	}
}

func TestBotRecordResultAndStandings(t *testing.T) {
	f := newBotFixture(t)
	ctx := context.Background()

	f.bot.dispatch(ctx, inv("pick", "d-alice", false, strOpt("entry", "alice-1"), strOpt("team", "DAL")))

	r := f.bot.dispatch(ctx, inv("week-picks", "d-alice", false, intOpt("pool", int(f.pool.ID)), intOpt("week", 1)))
	if !strings.Contains(r.content, "Picks are not visible") {
		t.Errorf("Expected picks to be hidden before the deadline, got %q", r.content)
	}
	r = f.bot.dispatch(ctx, inv("week-picks", "d-admin", true, intOpt("pool", int(f.pool.ID)), intOpt("week", 1)))
	if r.embed == nil || !strings.Contains(r.embed.Description, "alice-1") {
		t.Errorf("Expected admins to see picks, got %+v", r)
	}

	r = f.bot.dispatch(ctx, inv("record-result", "d-alice", false, intOpt("week", 1), strOpt("team", "DAL"), strOpt("result", "loss")))
	if !strings.Contains(r.content, "Operation not allowed") {
		t.Errorf("Expected a forbidden reply, got %q", r.content)
	}
	r = f.bot.dispatch(ctx, inv("record-result", "d-admin", true, intOpt("week", 1), strOpt("team", "DAL"), strOpt("result", "loss")))
	if r.content != "Recorded DAL loss for Week 1. 1 entries changed status." {
		t.Errorf("Unexpected record reply %q", r.content)
	}

	r = f.bot.dispatch(ctx, inv("standings", "d-alice", false, intOpt("pool", int(f.pool.ID))))
	if r.embed == nil || !strings.Contains(r.embed.Description, "❌ alice-1 (alice), Week 1") {
		t.Errorf("Expected alice-1 listed as eliminated, got %+v", r.embed)
	}

	r = f.bot.dispatch(ctx, inv("leaderboard", "d-alice", false))
	if r.content != "Unknown command leaderboard." {
		t.Errorf("Unexpected reply %q", r.content)
	}
}

func TestTruncate(t *testing.T) {
	long := strings.Repeat("entry line\n", 500)
	got := truncate(long)
	if len(got) > maxDescription+len("\n…") {
		t.Errorf("Expected at most %d bytes, got %d", maxDescription, len(got))
	}
	if !strings.HasSuffix(got, "\n…") {
		t.Errorf("Expected an ellipsis, got %q", got[len(got)-10:])
	}
	if truncate("short") != "short" {
		t.Error("Expected short text untouched")
	}
}

func TestIsAdmin(t *testing.T) {
	admin := &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Member: &discordgo.Member{Permissions: discordgo.PermissionAdministrator, User: &discordgo.User{ID: "1"}},
	}}
	member := &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Member: &discordgo.Member{User: &discordgo.User{ID: "2"}},
	}}
	dm := &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{User: &discordgo.User{ID: "3"}}}

	if !IsAdmin(admin) || IsAdmin(member) || IsAdmin(dm) {
		t.Error("Unexpected administrator detection")
	}
	if invokerID(admin) != "1" || invokerID(dm) != "3" {
		t.Error("Unexpected invoker ids")
	}
}
