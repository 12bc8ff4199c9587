package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"
	"gorm.io/gorm"
	"lastManStanding/models"
	"lastManStanding/services/availabilityService"
	"lastManStanding/services/calendarService"
	"lastManStanding/services/common"
	"lastManStanding/services/pickService"
	"lastManStanding/services/poolService"
	"lastManStanding/services/resultService"
	"lastManStanding/services/teamService"
)

// Bot serves the pool's slash commands.
type Bot struct {
	db           *gorm.DB
	calendar     *calendarService.Service
	teams        *teamService.Service
	pools        *poolService.Service
	picks        *pickService.Service
	availability *availabilityService.Service
	results      *resultService.Service
	logger       *slog.Logger
}

func NewBot(db *gorm.DB, calendar *calendarService.Service, teams *teamService.Service, pools *poolService.Service,
	picks *pickService.Service, availability *availabilityService.Service, results *resultService.Service, logger *slog.Logger) *Bot {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bot{
		db:           db,
		calendar:     calendar,
		teams:        teams,
		pools:        pools,
		picks:        picks,
		availability: availability,
		results:      results,
		logger:       logger,
	}
}

// invocation is a slash command stripped of its Discord transport.
type invocation struct {
	name      string
	discordID string
	admin     bool
	options   map[string]*discordgo.ApplicationCommandInteractionDataOption
}

func (b *Bot) HandleSlashCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.ApplicationCommandData()
	inv := invocation{
		name:      data.Name,
		discordID: invokerID(i),
		admin:     IsAdmin(i),
		options:   optionMap(data.Options),
	}
	b.respond(s, i, b.dispatch(context.Background(), inv))
}

func (b *Bot) dispatch(ctx context.Context, inv invocation) *reply {
	var r *reply
	var err error
	switch inv.name {
	case "my-entries":
		r, err = b.myEntries(ctx, inv)
	case "standings":
		r, err = b.standings(ctx, inv)
	case "week-picks":
		r, err = b.weekPicks(ctx, inv)
	case "available-teams":
		r, err = b.availableTeams(ctx, inv)
	case "pick":
		r, err = b.pick(ctx, inv)
	case "record-result":
		r, err = b.recordResult(ctx, inv)
	default:
		return ephemeral("Unknown command %s.", inv.name)
	}

	if err == nil {
		return r
	}
	if isUserFacing(err) {
		return ephemeral("%s", capitalize(err.Error()))
	}
	common.LogError(b.logger, b.db, "discord:"+inv.name, err)
	return ephemeral("Something went wrong, please try again later.")
}

// linkedUser finds the pool account bound to a Discord user.
func (b *Bot) linkedUser(ctx context.Context, discordID string) (*models.User, error) {
	var user models.User
	err := b.db.WithContext(ctx).Where("discord_id = ?", discordID).First(&user).Error
	if err != nil {
		return nil, common.NotFound(err, "account linked to Discord user", discordID)
	}
	return &user, nil
}

func (b *Bot) respond(s *discordgo.Session, i *discordgo.InteractionCreate, r *reply) {
	data := &discordgo.InteractionResponseData{Content: r.content}
	if r.embed != nil {
		data.Embeds = []*discordgo.MessageEmbed{r.embed}
	}
	if r.ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}

	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	})
	if err != nil {
		b.logger.Warn("error responding to interaction", slog.Any("error", err))
	}
}

func Commands() []*discordgo.ApplicationCommand {
	poolOption := &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionInteger,
		Name:        "pool",
		Description: "Pool ID",
		Required:    true,
	}
	entryOption := &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "entry",
		Description: "Your entry name",
		Required:    true,
	}
	weekOption := func(required bool) *discordgo.ApplicationCommandOption {
		return &discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionInteger,
			Name:        "week",
			Description: "Week number",
			Required:    required,
		}
	}
	teamOption := &discordgo.ApplicationCommandOption{
		Type:         discordgo.ApplicationCommandOptionString,
		Name:         "team",
		Description:  "Team abbreviation, e.g. KC",
		Required:     true,
		Autocomplete: true,
	}

	return []*discordgo.ApplicationCommand{
		{
			Name:        "my-entries",
			Description: "List your entries and whether they are still alive",
		},
		{
			Name:        "standings",
			Description: "Show who is still standing in a pool",
			Options:     []*discordgo.ApplicationCommandOption{poolOption},
		},
		{
			Name:        "week-picks",
			Description: "Show every pick in a pool for a week (after the deadline)",
			Options:     []*discordgo.ApplicationCommandOption{poolOption, weekOption(true)},
		},
		{
			Name:        "available-teams",
			Description: "List the teams an entry can still pick",
			Options:     []*discordgo.ApplicationCommandOption{entryOption, weekOption(false)},
		},
		{
			Name:        "pick",
			Description: "Make or change the pick of an entry",
			Options: []*discordgo.ApplicationCommandOption{
				entryOption, teamOption, weekOption(false),
				{
					Type:         discordgo.ApplicationCommandOptionString,
					Name:         "second_team",
					Description:  "Double-pick weeks: second team, replaces both picks",
					Autocomplete: true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "replace",
					Description: "Double-pick weeks: abbreviation of the pick to change",
				},
			},
		},
		{
			Name:        "record-result",
			Description: "Record a team's final result for a week (admin)",
			Options: []*discordgo.ApplicationCommandOption{
				weekOption(true),
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "team",
					Description: "Team abbreviation, e.g. KC",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "result",
					Description: "Final result",
					Required:    true,
					Choices: []*discordgo.ApplicationCommandOptionChoice{
						{Name: "Win", Value: string(models.ResultWin)},
						{Name: "Loss", Value: string(models.ResultLoss)},
						{Name: "Tie", Value: string(models.ResultTie)},
					},
				},
			},
		},
	}
}

func RegisterCommands(s *discordgo.Session) error {
	for _, cmd := range Commands() {
		if _, err := s.ApplicationCommandCreate(s.State.User.ID, "", cmd); err != nil {
			return fmt.Errorf("cannot create '%v' command: %w", cmd.Name, err)
		}
	}
	return nil
}
