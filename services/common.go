package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"lastManStanding/services/common"
)

// reply is the content of one interaction response.
type reply struct {
	content   string
	embed     *discordgo.MessageEmbed
	ephemeral bool
}

func ephemeral(format string, args ...any) *reply {
	return &reply{content: fmt.Sprintf(format, args...), ephemeral: true}
}

// IsAdmin reports whether the invoking member holds the Administrator
// permission in the channel the command was used in.
func IsAdmin(i *discordgo.InteractionCreate) bool {
	return i.Member != nil && i.Member.Permissions&discordgo.PermissionAdministrator != 0
}

func invokerID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

func optionMap(options []*discordgo.ApplicationCommandInteractionDataOption) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	m := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(options))
	for _, opt := range options {
		m[opt.Name] = opt
	}
	return m
}

// rule violations are shown to the member; anything else is logged
var userFacing = []error{
	common.ErrNotFound,
	common.ErrValidationFailed,
	common.ErrForbidden,
	common.ErrConfigMissing,
	common.ErrDeadlinePassed,
	common.ErrEntryEliminated,
	common.ErrTeamAlreadyUsed,
	common.ErrTooManyPicks,
	common.ErrDuplicateTeamInPair,
	common.ErrWeekUnresolvable,
	common.ErrEntryNameTaken,
	common.ErrPicksHidden,
}

func isUserFacing(err error) bool {
	for _, target := range userFacing {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
