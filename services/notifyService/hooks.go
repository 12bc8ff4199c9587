package notifyService

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"gorm.io/gorm"
	"lastManStanding/models"
	"lastManStanding/services/pickService"
	"lastManStanding/services/poolService"
	"lastManStanding/services/resultService"
)

type ConfirmationData struct {
	User  models.User
	Entry models.Entry
	Week  models.Week
	Picks []models.Pick
}

type ReminderData struct {
	User    models.User
	Week    models.Week
	Missing []poolService.MissingPick
}

// ReportData is one recipient's copy of the post-deadline report.
type ReportData struct {
	Report *poolService.WeekReport
	User   models.User
	Picks  []models.Pick
}

var (
	_ pickService.Notifier   = (*Hooks)(nil)
	_ resultService.Notifier = (*Hooks)(nil)
)

// Hooks turns committed ledger and resolver changes into emails and
// channel announcements. Failures are logged and never returned.
type Hooks struct {
	db        *gorm.DB
	sender    Sender
	announcer Announcer
	logger    *slog.Logger
}

// NewHooks accepts a nil announcer when chat announcements are disabled.
func NewHooks(db *gorm.DB, sender Sender, announcer Announcer, logger *slog.Logger) *Hooks {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hooks{db: db, sender: sender, announcer: announcer, logger: logger}
}

// PicksSubmitted sends one confirmation per entry and week.
func (h *Hooks) PicksSubmitted(ctx context.Context, picks []models.Pick) {
	if h.sender == nil || len(picks) == 0 {
		return
	}

	ids := make([]uint, 0, len(picks))
	for _, p := range picks {
		ids = append(ids, p.ID)
	}
	var loaded []models.Pick
	err := h.db.WithContext(ctx).
		Preload("Team").Preload("Week").Preload("Entry.User").Preload("Entry.Pool").
		Where("id IN ?", ids).
		Order("entry_id, week_id, id").
		Find(&loaded).Error
	if err != nil {
		h.logger.ErrorContext(ctx, "error loading picks for confirmation", slog.Any("error", err))
		return
	}

	for _, group := range groupPicks(loaded) {
		first := group[0]
		data := ConfirmationData{User: first.Entry.User, Entry: first.Entry, Week: first.Week, Picks: group}
		to := Recipient{Name: first.Entry.User.Username, Email: first.Entry.User.Email}
		if to.Email == "" {
			continue
		}
		if err := h.sender.Send(ctx, TemplatePickConfirmation, to, data); err != nil {
			h.logger.WarnContext(ctx, "pick confirmation not sent",
				slog.String("entry", first.Entry.EntryName),
				slog.Any("error", err),
			)
		}
	}
}

func groupPicks(picks []models.Pick) [][]models.Pick {
	var groups [][]models.Pick
	for _, p := range picks {
		n := len(groups)
		if n > 0 && groups[n-1][0].EntryID == p.EntryID && groups[n-1][0].WeekID == p.WeekID {
			groups[n-1] = append(groups[n-1], p)
			continue
		}
		groups = append(groups, []models.Pick{p})
	}
	return groups
}

// EntriesChanged announces eliminations and revivals in each pool's channel.
func (h *Hooks) EntriesChanged(ctx context.Context, changes []resultService.EntryChange) {
	if h.announcer == nil || len(changes) == 0 {
		return
	}

	byPool := make(map[uint][]resultService.EntryChange)
	for _, c := range changes {
		byPool[c.Entry.PoolID] = append(byPool[c.Entry.PoolID], c)
	}
	poolIDs := make([]uint, 0, len(byPool))
	for id := range byPool {
		poolIDs = append(poolIDs, id)
	}
	sort.Slice(poolIDs, func(i, j int) bool { return poolIDs[i] < poolIDs[j] })

	for _, poolID := range poolIDs {
		var pool models.Pool
		if err := h.db.WithContext(ctx).First(&pool, poolID).Error; err != nil {
			h.logger.ErrorContext(ctx, "error loading pool for announcement", slog.Uint64("pool_id", uint64(poolID)), slog.Any("error", err))
			continue
		}
		if pool.DiscordChannelID == nil || *pool.DiscordChannelID == "" {
			continue
		}

		title, body := h.announcement(ctx, pool, byPool[poolID])
		if err := h.announcer.Announce(ctx, *pool.DiscordChannelID, title, body); err != nil {
			h.logger.WarnContext(ctx, "announcement not sent", slog.String("pool", pool.Name), slog.Any("error", err))
		}
	}
}

func (h *Hooks) announcement(ctx context.Context, pool models.Pool, changes []resultService.EntryChange) (string, string) {
	userIDs := make([]uint, 0, len(changes))
	for _, c := range changes {
		userIDs = append(userIDs, c.Entry.UserID)
	}
	var users []models.User
	if err := h.db.WithContext(ctx).Where("id IN ?", userIDs).Find(&users).Error; err != nil {
		h.logger.WarnContext(ctx, "error loading users for announcement", slog.Any("error", err))
	}
	names := make(map[uint]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Username
	}

	var lines []string
	for _, c := range changes {
		mark, verb := "✅", "revived"
		if c.Eliminated {
			mark, verb = "❌", "eliminated"
		}
		line := fmt.Sprintf("%s **%s** %s", mark, c.Entry.EntryName, verb)
		if name := names[c.Entry.UserID]; name != "" {
			line = fmt.Sprintf("%s **%s** (%s) %s", mark, c.Entry.EntryName, name, verb)
		}
		lines = append(lines, line)
	}
	title := fmt.Sprintf("%s: %s results", pool.Name, changes[0].Week)
	if changes[0].Week.ID == 0 {
		title = fmt.Sprintf("%s: entry status update", pool.Name)
	}
	return title, strings.Join(lines, "\n")
}
