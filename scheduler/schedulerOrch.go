package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
	"lastManStanding/scheduler/scheduler_jobs"
	"lastManStanding/services/common"
)

// jobTimeout caps a single run so a hung SMTP or ESPN call cannot pile up runs.
const jobTimeout = 10 * time.Minute

type job struct {
	name string
	run  func(ctx context.Context) (int, error)
}

type schedule struct {
	spec string
	job  job
}

// SetupCron registers the season jobs and starts the scheduler. Every job runs
// in August through December and again January through February.
func SetupCron(jobs *scheduler_jobs.Jobs, db *gorm.DB, importResults bool, logger *slog.Logger) (*cron.Cron, error) {
	cronService := cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))

	schedules := []schedule{
		// every 15 minutes
		{"0 */15 * * 8-12 *", job{"ProcessEliminations", jobs.ProcessEliminations}},
		{"0 */15 * * 1-2 *", job{"ProcessEliminations", jobs.ProcessEliminations}},
		// 9am every day
		{"0 0 9 * 8-12 *", job{"SendPickReminders", jobs.SendPickReminders}},
		{"0 0 9 * 1-2 *", job{"SendPickReminders", jobs.SendPickReminders}},
		// every 30 minutes
		{"0 */30 * * 8-12 *", job{"SendPickReports", jobs.SendPickReports}},
		{"0 */30 * * 1-2 *", job{"SendPickReports", jobs.SendPickReports}},
	}
	if importResults {
		// every hour
		schedules = append(schedules,
			schedule{"0 0 */1 * 8-12 *", job{"CheckGameEnd", jobs.CheckGameEnd}},
			schedule{"0 0 */1 * 1-2 *", job{"CheckGameEnd", jobs.CheckGameEnd}},
		)
	}

	for _, s := range schedules {
		j := s.job
		if _, err := cronService.AddFunc(s.spec, func() { runJob(j, db, logger) }); err != nil {
			common.LogError(logger, db, "CRON ERR", fmt.Errorf("error scheduling %s: %w", j.name, err))
			return nil, err
		}
	}

	cronService.Start()
	logger.Info("scheduler started", slog.Int("schedules", len(schedules)), slog.Bool("import_results", importResults))
	return cronService, nil
}

func runJob(j job, db *gorm.DB, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	n, err := j.run(ctx)
	if err != nil {
		common.LogError(logger, db, j.name, err)
		return
	}
	logger.Debug("job finished", slog.String("job", j.name), slog.Int("count", n))
}
