package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"lastManStanding/models"
	"lastManStanding/services/common"
	"lastManStanding/services/pickService"
)

func (b *Bot) myEntries(ctx context.Context, inv invocation) (*reply, error) {
	user, err := b.linkedUser(ctx, inv.discordID)
	if err != nil {
		return nil, err
	}
	entries, err := b.pools.EntriesForUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return ephemeral("You have no entries yet."), nil
	}

	var sb strings.Builder
	for _, e := range entries {
		status := "✅ alive"
		if !e.IsAlive {
			status = "❌ eliminated"
			if e.EliminatedInWeek != nil {
				status += " in " + e.EliminatedInWeek.String()
			}
		}
		fmt.Fprintf(&sb, "**%s** (%s): %s\n", e.EntryName, e.Pool.Name, status)
	}
	return &reply{
		embed: &discordgo.MessageEmbed{
			Title:       "Your entries",
			Description: truncate(sb.String()),
			Color:       0x00ff00,
		},
		ephemeral: true,
	}, nil
}

func (b *Bot) availableTeams(ctx context.Context, inv invocation) (*reply, error) {
	user, err := b.linkedUser(ctx, inv.discordID)
	if err != nil {
		return nil, err
	}
	entry, err := b.entryByName(ctx, user.ID, inv.options["entry"].StringValue())
	if err != nil {
		return nil, err
	}
	week, err := b.targetWeek(ctx, inv)
	if err != nil {
		return nil, err
	}

	teams, err := b.availability.AvailableTeams(ctx, entry.ID, week.ID, nil)
	if err != nil {
		return nil, err
	}
	if len(teams) == 0 {
		return ephemeral("%s has no teams left for %s.", entry.EntryName, week), nil
	}

	abbreviations := make([]string, 0, len(teams))
	for _, t := range teams {
		abbreviations = append(abbreviations, t.Abbreviation)
	}
	return ephemeral("%s can pick in %s: %s", entry.EntryName, week, strings.Join(abbreviations, ", ")), nil
}

func (b *Bot) pick(ctx context.Context, inv invocation) (*reply, error) {
	user, err := b.linkedUser(ctx, inv.discordID)
	if err != nil {
		return nil, err
	}
	entry, err := b.entryByName(ctx, user.ID, inv.options["entry"].StringValue())
	if err != nil {
		return nil, err
	}
	team, err := b.teams.TeamByAbbreviation(ctx, inv.options["team"].StringValue())
	if err != nil {
		return nil, err
	}
	week, err := b.targetWeek(ctx, inv)
	if err != nil {
		return nil, err
	}
	auth := common.User(user.ID)

	if opt, ok := inv.options["second_team"]; ok {
		second, err := b.teams.TeamByAbbreviation(ctx, opt.StringValue())
		if err != nil {
			return nil, err
		}
		_, err = b.picks.SubmitDoublePick(ctx, auth, pickService.DoublePickRequest{
			EntryID: entry.ID,
			WeekID:  &week.ID,
			TeamA:   team.ID,
			TeamB:   second.ID,
		})
		if err != nil {
			return nil, err
		}
		return ephemeral("Saved %s and %s for %s in %s.", team.DisplayName(), second.DisplayName(), entry.EntryName, week), nil
	}

	req := pickService.PickRequest{EntryID: entry.ID, WeekID: &week.ID, TeamID: team.ID}
	if opt, ok := inv.options["replace"]; ok {
		replaceID, err := b.pickIDFor(ctx, entry.ID, week.ID, opt.StringValue())
		if err != nil {
			return nil, err
		}
		req.ReplacePickID = &replaceID
	}
	if _, err := b.picks.SubmitPick(ctx, auth, req); err != nil {
		return nil, err
	}
	return ephemeral("Saved %s for %s in %s.", team.DisplayName(), entry.EntryName, week), nil
}

// pickIDFor finds the entry's pick on the given team for a week.
func (b *Bot) pickIDFor(ctx context.Context, entryID, weekID uint, abbreviation string) (uint, error) {
	team, err := b.teams.TeamByAbbreviation(ctx, abbreviation)
	if err != nil {
		return 0, err
	}
	var pick models.Pick
	err = b.db.WithContext(ctx).
		Where("entry_id = ? AND week_id = ? AND team_id = ?", entryID, weekID, team.ID).
		First(&pick).Error
	if err != nil {
		return 0, common.NotFound(err, "pick on", team.Abbreviation)
	}
	return pick.ID, nil
}

func (b *Bot) recordResult(ctx context.Context, inv invocation) (*reply, error) {
	if !inv.admin {
		return nil, fmt.Errorf("%w: only server administrators can record results", common.ErrForbidden)
	}
	user, err := b.linkedUser(ctx, inv.discordID)
	if err != nil {
		return nil, err
	}
	week, err := b.calendar.WeekByNumber(ctx, uint(inv.options["week"].IntValue()))
	if err != nil {
		return nil, err
	}
	team, err := b.teams.TeamByAbbreviation(ctx, inv.options["team"].StringValue())
	if err != nil {
		return nil, err
	}
	result := models.PickResult(inv.options["result"].StringValue())

	changed, err := b.results.RecordResult(ctx, common.Admin(user.ID), week.ID, team.ID, result, "Recorded from Discord")
	if err != nil {
		return nil, err
	}
	return &reply{content: fmt.Sprintf("Recorded %s %s for %s. %d entries changed status.", team.Abbreviation, result, week, len(changed))}, nil
}

// teamChoices autocompletes the team option of /pick with the entry's
// available teams.
func (b *Bot) teamChoices(ctx context.Context, inv invocation, typed string) []*discordgo.ApplicationCommandOptionChoice {
	entryOpt, ok := inv.options["entry"]
	if !ok {
		return nil
	}
	user, err := b.linkedUser(ctx, inv.discordID)
	if err != nil {
		return nil
	}
	entry, err := b.entryByName(ctx, user.ID, entryOpt.StringValue())
	if err != nil {
		return nil
	}
	week, err := b.targetWeek(ctx, inv)
	if err != nil {
		return nil
	}
	teams, err := b.availability.AvailableTeams(ctx, entry.ID, week.ID, nil)
	if err != nil {
		return nil
	}

	typed = strings.ToLower(typed)
	var choices []*discordgo.ApplicationCommandOptionChoice
	for _, t := range teams {
		if typed != "" && !strings.HasPrefix(strings.ToLower(t.Abbreviation), typed) && !strings.Contains(strings.ToLower(t.DisplayName()), typed) {
			continue
		}
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{Name: t.DisplayName(), Value: t.Abbreviation})
		// Discord accepts at most 25 choices
		if len(choices) == 25 {
			break
		}
	}
	return choices
}

func (b *Bot) entryByName(ctx context.Context, userID uint, name string) (*models.Entry, error) {
	var entries []models.Entry
	err := b.db.WithContext(ctx).
		Where("user_id = ? AND entry_name = ?", userID, strings.TrimSpace(name)).
		Limit(2).
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("error loading entry %s: %w", name, err)
	}
	switch len(entries) {
	case 0:
		return nil, fmt.Errorf("%w: you have no entry named %s", common.ErrNotFound, name)
	case 1:
		return &entries[0], nil
	default:
		return nil, fmt.Errorf("%w: you have more than one entry named %s", common.ErrValidationFailed, name)
	}
}

func (b *Bot) targetWeek(ctx context.Context, inv invocation) (*models.Week, error) {
	opt, ok := inv.options["week"]
	if !ok {
		return b.calendar.ResolveTargetWeek(ctx, nil)
	}
	return b.calendar.WeekByNumber(ctx, uint(opt.IntValue()))
}
