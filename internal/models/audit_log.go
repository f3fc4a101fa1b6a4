package models

import (
	"time"

	"gorm.io/datatypes"
)

type AuditAction string

const (
	AuditActionInsert AuditAction = "insert"
	AuditActionUpdate AuditAction = "update"
	AuditActionDelete AuditAction = "delete"
)

// AuditLog is an append-only record of one mutation. RecordID is deliberately
// not a foreign key: entries outlive the rows they describe.
type AuditLog struct {
	ID          uint64         `gorm:"primarykey" json:"id"`
	TableName   string         `gorm:"column:table_name;type:varchar(64);not null" json:"table_name"`
	RecordID    uint64         `gorm:"not null" json:"record_id"`
	Action      AuditAction    `gorm:"type:varchar(10);not null" json:"action"`
	OldData     datatypes.JSON `json:"old_data"`
	NewData     datatypes.JSON `json:"new_data"`
	ChangedByID uint64         `gorm:"not null" json:"changed_by_id"`
	ChangedAt   time.Time      `gorm:"not null" json:"changed_at"`

	// Relations
	ChangedBy User `gorm:"foreignKey:ChangedByID" json:"changed_by,omitempty"`
}
