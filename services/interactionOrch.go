package services

import (
	"context"
	"log/slog"

	"github.com/bwmarrin/discordgo"
)

func (b *Bot) InteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		b.HandleSlashCommand(s, i)
	case discordgo.InteractionApplicationCommandAutocomplete:
		b.HandleAutocomplete(s, i)
	}
}

func (b *Bot) HandleAutocomplete(s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.ApplicationCommandData()
	inv := invocation{
		name:      data.Name,
		discordID: invokerID(i),
		admin:     IsAdmin(i),
		options:   optionMap(data.Options),
	}

	var choices []*discordgo.ApplicationCommandOptionChoice
	for _, opt := range data.Options {
		if opt.Focused && (opt.Name == "team" || opt.Name == "second_team") && inv.name == "pick" {
			choices = b.teamChoices(context.Background(), inv, opt.StringValue())
		}
	}

	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionApplicationCommandAutocompleteResult,
		Data: &discordgo.InteractionResponseData{
			Choices: choices,
		},
	})
	if err != nil {
		b.logger.Warn("error responding to autocomplete", slog.Any("error", err))
	}
}
