package scheduler_jobs

import (
	"context"
	"log/slog"
)

// ProcessEliminations eliminates alive entries that missed a passed deadline.
func (j *Jobs) ProcessEliminations(ctx context.Context) (eliminated int, err error) {
	defer j.recoverPanic("ProcessEliminations", &err)

	eliminated, err = j.Results.RunMissedDeadlineSweep(ctx)
	if err != nil {
		return eliminated, err
	}
	j.Logger.Info("missed deadline sweep finished", slog.Int("eliminated", eliminated))
	return eliminated, nil
}
