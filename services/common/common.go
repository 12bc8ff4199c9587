package common

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"gorm.io/gorm"
	"lastManStanding/models"
)

// LogError records a failure that has no caller to return to (scheduled jobs,
// post-commit hooks) in the log and in the error_logs table.
func LogError(logger *slog.Logger, db *gorm.DB, source string, err error) {
	if err == nil {
		return
	}
	logger.Error("job failed", slog.String("source", source), slog.Any("error", err))

	errLog := models.ErrorLog{
		Source:  source,
		Message: fmt.Sprintf("%v", err),
	}
	if dbErr := db.Create(&errLog).Error; dbErr != nil {
		logger.Error("failed to persist error log", slog.String("source", source), slog.Any("error", dbErr))
	}
}

var espnClient = &http.Client{Timeout: 15 * time.Second}

func ESPNWrapper(ctx context.Context, requestUrl string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestUrl, nil)
	if err != nil {
		return nil, err
	}

	resp, err := espnClient.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("espn request %s returned status %d", requestUrl, resp.StatusCode)
	}
	return resp, nil
}

func PtrUint(v uint) *uint {
	return &v
}
