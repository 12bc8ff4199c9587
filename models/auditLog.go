package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

const (
	ActionPickCreated          = "PICK_CREATED"
	ActionPickChanged          = "PICK_CHANGED"
	ActionAdminPickCreated     = "ADMIN_PICK_CREATED"
	ActionAdminPickChanged     = "ADMIN_PICK_CHANGED"
	ActionAdminDirectEditPick  = "ADMIN_DIRECT_EDIT_PICK"
	ActionEntryEliminated      = "ENTRY_ELIMINATED"
	ActionEntryRevived         = "ENTRY_REVIVED"
	ActionResultRecorded       = "RESULT_RECORDED"
	ActionResultsReset         = "RESULTS_RESET"
	ActionPoolCreated          = "POOL_CREATED"
	ActionPoolWeekSettingsEdit = "POOL_WEEK_SETTINGS_CHANGED"
	ActionEntryCreated         = "ENTRY_CREATED"
	ActionEntryDeleted         = "ENTRY_DELETED"
)

var ErrAuditLogImmutable = errors.New("audit log rows cannot be modified")

// AuditLog is append-only. A nil ActorID marks an automated system action.
type AuditLog struct {
	ID      uint   `gorm:"primaryKey"`
	ActorID *uint  `gorm:"index"`
	Action  string `gorm:"size:255;index"`
	EntryID *uint  `gorm:"index"`
	WeekID  *uint  `gorm:"index"`
	Details string
	// set by the database on insert
	Timestamp time.Time `gorm:"autoCreateTime;index"`
}

func (AuditLog) TableName() string {
	return "audit_log"
}

func (a *AuditLog) BeforeUpdate(tx *gorm.DB) error {
	return ErrAuditLogImmutable
}

func (a *AuditLog) BeforeDelete(tx *gorm.DB) error {
	return ErrAuditLogImmutable
}
