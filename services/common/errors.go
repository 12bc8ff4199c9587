package common

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Rule violations surfaced to callers. Services wrap them with fmt.Errorf("%w: ...")
// so the message names the rule while errors.Is still classifies the failure.
var (
	ErrNotFound            = errors.New("requested resource not found")
	ErrValidationFailed    = errors.New("validation failed")
	ErrForbidden           = errors.New("operation not allowed for the current user")
	ErrConfigMissing       = errors.New("week settings not found for this pool")
	ErrDeadlinePassed      = errors.New("cannot make or change picks after the deadline")
	ErrEntryEliminated     = errors.New("this entry has been eliminated and cannot make picks")
	ErrTeamAlreadyUsed     = errors.New("team already used by this entry")
	ErrTooManyPicks        = errors.New("too many picks for this week")
	ErrDuplicateTeamInPair = errors.New("you must select two different teams")
	ErrWeekUnresolvable    = errors.New("week is required and no valid weeks found in the system")
	ErrEntryNameTaken      = errors.New("entry name is already in use in this pool")
	ErrPicksHidden         = errors.New("picks are not visible until after the deadline")
)

// NotFound maps gorm's missing-row error onto ErrNotFound and wraps anything
// else with the lookup that failed.
func NotFound(err error, what string, id any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s %v", ErrNotFound, what, id)
	}
	return fmt.Errorf("failed to load %s %v: %w", what, id, err)
}
