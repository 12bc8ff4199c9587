package scheduler_jobs

import (
	"fmt"
	"log/slog"
	"runtime/debug"

	"gorm.io/gorm"
	"lastManStanding/services/calendarService"
	"lastManStanding/services/extService"
	"lastManStanding/services/notifyService"
	"lastManStanding/services/poolService"
	"lastManStanding/services/resultService"
	"lastManStanding/services/teamService"
)

// maxConcurrentMails bounds the number of open SMTP sessions per job run.
const maxConcurrentMails = 4

type Jobs struct {
	DB       *gorm.DB
	Calendar *calendarService.Service
	Teams    *teamService.Service
	Pools    *poolService.Service
	Results  *resultService.Service
	Sender   notifyService.Sender
	ESPN     *extService.ESPNClient
	Logger   *slog.Logger
}

func (j *Jobs) recoverPanic(name string, err *error) {
	if r := recover(); r != nil {
		j.Logger.Error("recovered from panic", slog.String("job", name), slog.Any("panic", r), slog.String("stack", string(debug.Stack())))
		*err = fmt.Errorf("panic recovered in %s: %v", name, r)
	}
}
