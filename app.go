package main

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/bwmarrin/discordgo"
	"gorm.io/gorm"
	"lastManStanding/config"
	"lastManStanding/database"
	"lastManStanding/scheduler"
	"lastManStanding/scheduler/scheduler_jobs"
	"lastManStanding/services"
	"lastManStanding/services/availabilityService"
	"lastManStanding/services/calendarService"
	"lastManStanding/services/common"
	"lastManStanding/services/extService"
	"lastManStanding/services/notifyService"
	"lastManStanding/services/pickService"
	"lastManStanding/services/poolService"
	"lastManStanding/services/resultService"
	"lastManStanding/services/teamService"
)

const usage = `usage: lms [command]

commands:
  serve                          run the scheduler until interrupted (default)
  process-eliminations           eliminate entries that missed a passed deadline
  send-reminders                 mail reminders for the current week
  send-reports                   mail post-deadline pick reports
  seed-teams                     load the 32 NFL teams
  setup-season <year> <kickoff>  create weeks 1-22, kickoff in RFC3339
  import-results                 import final scores of the current week from ESPN`

type app struct {
	cfg    *config.Config
	db     *gorm.DB
	logger *slog.Logger

	calendar *calendarService.Service
	teams    *teamService.Service
	pools    *poolService.Service
	picks    *pickService.Service
	results  *resultService.Service
	jobs     *scheduler_jobs.Jobs

	// nil unless DISCORD_BOT_TOKEN is set
	session *discordgo.Session
	bot     *services.Bot
}

func newApp(cfg *config.Config, db *gorm.DB, logger *slog.Logger) *app {
	var sender notifyService.Sender = notifyService.NewLogSender(logger)
	if cfg.MailEnabled() {
		sender = notifyService.NewSMTPSender(cfg)
	}

	var session *discordgo.Session
	var announcer notifyService.Announcer
	if cfg.DiscordEnabled() {
		dg, err := discordgo.New("Bot " + cfg.DiscordBotToken)
		if err != nil {
			logger.Warn("discord disabled", slog.Any("error", err))
		} else {
			session = dg
			announcer = notifyService.NewDiscordAnnouncer(dg)
		}
	}
	hooks := notifyService.NewHooks(db, sender, announcer, logger)

	calendar := calendarService.New(db, common.SystemClock{}, logger)
	results := resultService.New(db, calendar, hooks, logger)
	a := &app{
		cfg:      cfg,
		db:       db,
		logger:   logger,
		calendar: calendar,
		teams:    teamService.New(db),
		pools:    poolService.New(db, calendar, logger),
		picks:    pickService.New(db, calendar, hooks, results, logger),
		results:  results,
		session:  session,
	}
	if session != nil {
		a.bot = services.NewBot(db, calendar, a.teams, a.pools, a.picks, availabilityService.New(db, calendar), a.results, logger)
	}
	a.jobs = &scheduler_jobs.Jobs{
		DB:       db,
		Calendar: calendar,
		Teams:    a.teams,
		Pools:    a.pools,
		Results:  a.results,
		Sender:   sender,
		ESPN:     extService.NewESPNClient(""),
		Logger:   logger,
	}
	return a
}

func (a *app) run(ctx context.Context, command string, args []string) error {
	switch command {
	case "serve":
		return a.serve(ctx)
	case "process-eliminations":
		return a.report("eliminated", a.jobs.ProcessEliminations)(ctx)
	case "send-reminders":
		return a.report("reminders sent", a.jobs.SendPickReminders)(ctx)
	case "send-reports":
		return a.report("reports sent", a.jobs.SendPickReports)(ctx)
	case "import-results":
		return a.report("results recorded", a.jobs.CheckGameEnd)(ctx)
	case "seed-teams":
		return a.report("teams created", a.teams.SeedTeams)(ctx)
	case "setup-season":
		year, kickoff, err := parseSeasonArgs(args)
		if err != nil {
			return err
		}
		weeks, err := a.calendar.SetupSeason(ctx, year, kickoff)
		if err != nil {
			return err
		}
		a.logger.Info("season ready", slog.Int("year", year), slog.Int("weeks", len(weeks)))
		return nil
	default:
		return fmt.Errorf("unknown command %q\n%s", command, usage)
	}
}

func (a *app) report(what string, fn func(ctx context.Context) (int, error)) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		n, err := fn(ctx)
		if err != nil {
			return err
		}
		a.logger.Info("done", slog.Int(what, n))
		return nil
	}
}

func (a *app) serve(ctx context.Context) error {
	_, err := database.RunOnce(ctx, a.db, a.logger, "seed_nfl_teams", func(ctx context.Context) (string, error) {
		n, err := a.teams.SeedTeams(ctx)
		return fmt.Sprintf("created %d teams", n), err
	})
	if err != nil {
		return err
	}

	if a.session != nil {
		if err := a.openDiscord(); err != nil {
			return err
		}
		defer a.session.Close()
	}

	c, err := scheduler.SetupCron(a.jobs, a.db, a.cfg.ESPNAutoResults, a.logger)
	if err != nil {
		return err
	}
	a.logger.Info("last man standing is running, press CTRL+C to exit", slog.String("env", a.cfg.Env))

	<-ctx.Done()
	<-c.Stop().Done()
	a.logger.Info("scheduler stopped")
	return nil
}

func (a *app) openDiscord() error {
	a.session.AddHandler(a.bot.InteractionCreate)
	a.session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		if err := s.UpdateGameStatus(0, "Last Man Standing"); err != nil {
			a.logger.Warn("error updating status", slog.Any("error", err))
		}
	})
	a.session.Identify.Intents = discordgo.IntentsGuilds

	if err := a.session.Open(); err != nil {
		return fmt.Errorf("error opening Discord session: %w", err)
	}
	if err := services.RegisterCommands(a.session); err != nil {
		a.session.Close()
		return fmt.Errorf("error registering commands: %w", err)
	}
	return nil
}

func parseSeasonArgs(args []string) (int, time.Time, error) {
	if len(args) != 2 {
		return 0, time.Time{}, fmt.Errorf("setup-season needs <year> <kickoff>\n%s", usage)
	}
	year, err := strconv.Atoi(args[0])
	if err != nil || year < 1920 {
		return 0, time.Time{}, fmt.Errorf("invalid season year %q", args[0])
	}
	kickoff, err := time.Parse(time.RFC3339, args[1])
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("invalid kickoff %q: %w", args[1], err)
	}
	return year, kickoff, nil
}
