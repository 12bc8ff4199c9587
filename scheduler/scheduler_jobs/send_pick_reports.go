package scheduler_jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"lastManStanding/models"
	"lastManStanding/services/notifyService"
)

// SendPickReports mails the post-deadline report of every active pool for
// each week whose deadline passed and whose reports have not gone out yet.
func (j *Jobs) SendPickReports(ctx context.Context) (sent int, err error) {
	defer j.recoverPanic("SendPickReports", &err)

	weeks, err := j.Calendar.ListWeeks(ctx)
	if err != nil {
		return 0, err
	}
	pools, err := j.Pools.ActivePools(ctx)
	if err != nil {
		return 0, err
	}

	for _, week := range weeks {
		if week.EmailSent || !j.Calendar.IsPastDeadline(week, false) {
			continue
		}

		for _, pool := range pools {
			n, err := j.sendPoolReport(ctx, pool, week)
			if err != nil {
				return sent, err
			}
			sent += n
		}

		err := j.DB.WithContext(ctx).Model(&models.Week{}).Where("id = ?", week.ID).Update("email_sent", true).Error
		if err != nil {
			return sent, fmt.Errorf("error marking reports sent for %s: %w", week, err)
		}
		j.Logger.Info("pick reports sent", slog.String("week", week.String()), slog.Int("pools", len(pools)))
	}
	return sent, nil
}

func (j *Jobs) sendPoolReport(ctx context.Context, pool models.Pool, week models.Week) (int, error) {
	report, err := j.Pools.WeekReport(ctx, pool, week)
	if err != nil {
		return 0, err
	}
	recipients, err := j.Pools.ReportRecipients(ctx, pool.ID)
	if err != nil {
		return 0, err
	}

	picksByUser := make(map[uint][]models.Pick, len(report.Users))
	for _, up := range report.Users {
		picksByUser[up.User.ID] = up.Picks
	}

	var count atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentMails)
	for _, user := range recipients {
		user := user
		g.Go(func() error {
			data := notifyService.ReportData{Report: report, User: user, Picks: picksByUser[user.ID]}
			to := notifyService.Recipient{Name: user.Username, Email: user.Email}
			if err := j.Sender.Send(gctx, notifyService.TemplatePicksReport, to, data); err != nil {
				j.Logger.Warn("pick report not sent",
					slog.String("pool", pool.Name),
					slog.String("user", user.Username),
					slog.Any("error", err),
				)
				return nil
			}
			count.Add(1)
			return nil
		})
	}
	err = g.Wait()
	return int(count.Load()), err
}
