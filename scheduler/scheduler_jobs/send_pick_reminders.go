package scheduler_jobs

import (
	"context"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"lastManStanding/services/calendarService"
	"lastManStanding/services/notifyService"
	"lastManStanding/services/poolService"
)

// SendPickReminders mails every user with alive entries still owing picks
// for the current (or next) week, once the week's reminder time has passed.
func (j *Jobs) SendPickReminders(ctx context.Context) (sent int, err error) {
	defer j.recoverPanic("SendPickReminders", &err)

	week, err := j.Calendar.CurrentWeek(ctx)
	if err != nil {
		return 0, err
	}
	if week == nil {
		if week, err = j.Calendar.NextWeek(ctx); err != nil {
			return 0, err
		}
	}
	if week == nil {
		j.Logger.Info("no current or upcoming week, skipping reminders")
		return 0, nil
	}

	if j.Calendar.Now().Before(calendarService.ReminderAt(*week)) {
		j.Logger.Debug("not time to send reminders yet", slog.String("week", week.String()))
		return 0, nil
	}
	if j.Calendar.IsPastDeadline(*week, false) {
		j.Logger.Debug("deadline has passed, skipping reminders", slog.String("week", week.String()))
		return 0, nil
	}

	missing, err := j.Pools.EntriesMissingPicks(ctx, *week)
	if err != nil {
		return 0, err
	}

	var order []uint
	byUser := make(map[uint][]poolService.MissingPick)
	for _, m := range missing {
		if _, ok := byUser[m.Entry.UserID]; !ok {
			order = append(order, m.Entry.UserID)
		}
		byUser[m.Entry.UserID] = append(byUser[m.Entry.UserID], m)
	}

	var count atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentMails)
	for _, userID := range order {
		entries := byUser[userID]
		user := entries[0].Entry.User
		g.Go(func() error {
			data := notifyService.ReminderData{User: user, Week: *week, Missing: entries}
			to := notifyService.Recipient{Name: user.Username, Email: user.Email}
			if err := j.Sender.Send(gctx, notifyService.TemplatePickReminder, to, data); err != nil {
				j.Logger.Warn("pick reminder not sent", slog.String("user", user.Username), slog.Any("error", err))
				return nil
			}
			count.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return int(count.Load()), err
	}

	j.Logger.Info("pick reminders sent", slog.String("week", week.String()), slog.Int64("sent", count.Load()))
	return int(count.Load()), nil
}
