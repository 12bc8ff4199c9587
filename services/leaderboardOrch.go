package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"lastManStanding/services/common"
	"lastManStanding/services/poolService"
)

// embed descriptions are capped by Discord at 4096 characters
const maxDescription = 4000

func (b *Bot) standings(ctx context.Context, inv invocation) (*reply, error) {
	poolID := uint(inv.options["pool"].IntValue())
	standings, err := b.pools.Standings(ctx, poolID)
	if err != nil {
		return nil, err
	}
	return &reply{embed: standingsEmbed(standings)}, nil
}

func standingsEmbed(s *poolService.Standings) *discordgo.MessageEmbed {
	var sb strings.Builder
	fmt.Fprintf(&sb, "**%d alive**\n", len(s.Alive))
	for _, e := range s.Alive {
		fmt.Fprintf(&sb, "✅ %s (%s)\n", e.EntryName, e.User.Username)
	}
	if len(s.Eliminated) > 0 {
		fmt.Fprintf(&sb, "\n**%d eliminated**\n", len(s.Eliminated))
		for _, e := range s.Eliminated {
			out := "unknown week"
			if e.EliminatedInWeek != nil {
				out = e.EliminatedInWeek.String()
			}
			fmt.Fprintf(&sb, "❌ %s (%s), %s\n", e.EntryName, e.User.Username, out)
		}
	}

	embed := &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("🏈 %s standings", s.Pool.Name),
		Description: truncate(sb.String()),
		Color:       0x00ff00,
	}
	if s.Week != nil && len(s.Distribution) > 0 {
		var dist strings.Builder
		for _, tc := range s.Distribution {
			fmt.Fprintf(&dist, "%s: %d\n", tc.Team.Abbreviation, tc.Count)
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  s.Week.String() + " picks",
			Value: dist.String(),
		})
	}
	return embed
}

func (b *Bot) weekPicks(ctx context.Context, inv invocation) (*reply, error) {
	poolID := uint(inv.options["pool"].IntValue())
	weekNumber := uint(inv.options["week"].IntValue())

	auth := common.User(0)
	if inv.admin {
		user, err := b.linkedUser(ctx, inv.discordID)
		if err != nil {
			return nil, err
		}
		auth = common.Admin(user.ID)
	}

	picks, err := b.pools.WeekPicks(ctx, auth, poolID, weekNumber)
	if err != nil {
		return nil, err
	}
	if len(picks) == 0 {
		return ephemeral("No picks were made in week %d.", weekNumber), nil
	}

	var sb strings.Builder
	for _, p := range picks {
		fmt.Fprintf(&sb, "**%s** (%s): %s\n", p.Entry.EntryName, p.Entry.User.Username, p.Team.DisplayName())
	}
	return &reply{embed: &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("Week %d picks", weekNumber),
		Description: truncate(sb.String()),
		Color:       0x3498db,
	}}, nil
}

func truncate(s string) string {
	if len(s) <= maxDescription {
		return s
	}
	cut := strings.LastIndex(s[:maxDescription], "\n")
	if cut < 0 {
		cut = maxDescription
	}
	return s[:cut] + "\n…"
}
