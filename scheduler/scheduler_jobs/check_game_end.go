package scheduler_jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"lastManStanding/models"
	"lastManStanding/services/common"
	"lastManStanding/services/extService"
)

// CheckGameEnd imports final scores of the current week from ESPN and
// records every changed team result as the system actor.
func (j *Jobs) CheckGameEnd(ctx context.Context) (recorded int, err error) {
	defer j.recoverPanic("CheckGameEnd", &err)

	week, err := j.Calendar.CurrentWeek(ctx)
	if err != nil {
		return 0, err
	}
	if week == nil {
		j.Logger.Debug("no current week, skipping result import")
		return 0, nil
	}
	return j.importWeekResults(ctx, *week)
}

func (j *Jobs) importWeekResults(ctx context.Context, week models.Week) (int, error) {
	scoreboard, err := j.ESPN.Scoreboard(ctx, week)
	if err != nil {
		return 0, err
	}

	existing, err := j.Results.WeekResults(ctx, week.ID)
	if err != nil {
		return 0, err
	}
	known := make(map[uint]models.PickResult, len(existing))
	for _, r := range existing {
		known[r.TeamID] = r.Result
	}

	recorded := 0
	var errs []error
	for _, game := range extService.DeriveResults(scoreboard) {
		team, err := j.Teams.TeamByAbbreviation(ctx, game.Abbreviation)
		if errors.Is(err, common.ErrNotFound) {
			j.Logger.Warn("unknown team on scoreboard", slog.String("abbreviation", game.Abbreviation), slog.String("event", game.EventID))
			continue
		}
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if known[team.ID] == game.Result {
			continue
		}

		notes := fmt.Sprintf("Imported from ESPN event %s (%s)", game.EventID, game.Score)
		if _, err := j.Results.RecordResult(ctx, common.System(), week.ID, team.ID, game.Result, notes); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", team.Abbreviation, err))
			continue
		}
		recorded++
	}

	j.Logger.Info("result import finished", slog.String("week", week.String()), slog.Int("recorded", recorded))
	return recorded, errors.Join(errs...)
}
