package models

import (
	"time"

	"gorm.io/gorm"
)

type TaskStatus string

const (
	TaskStatusNotStarted TaskStatus = "not_started"
	TaskStatusOnProgress TaskStatus = "on_progress"
	TaskStatusDone       TaskStatus = "done"
	TaskStatusReject     TaskStatus = "reject"
)

// TaskStatuses lists every status a task may hold.
var TaskStatuses = []TaskStatus{
	TaskStatusNotStarted,
	TaskStatusOnProgress,
	TaskStatusDone,
	TaskStatusReject,
}

// Valid reports whether s belongs to the fixed status set.
func (s TaskStatus) Valid() bool {
	for _, status := range TaskStatuses {
		if s == status {
			return true
		}
	}
	return false
}

type Task struct {
	ID           uint64         `gorm:"primarykey" json:"id"`
	Title        string         `gorm:"type:varchar(255);not null" json:"title"`
	Description  string         `gorm:"type:text" json:"description"`
	Status       TaskStatus     `gorm:"type:varchar(20);not null;default:'not_started'" json:"status"`
	CreatedByID  uint64         `gorm:"not null" json:"created_by_id"`
	AssignedToID *uint64        `json:"assigned_to_id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	CreatedBy  User  `gorm:"foreignKey:CreatedByID" json:"created_by,omitempty"`
	AssignedTo *User `gorm:"foreignKey:AssignedToID" json:"assigned_to,omitempty"`
}

// IsAssignedTo reports whether userID is the current assignee.
func (t *Task) IsAssignedTo(userID uint64) bool {
	return t.AssignedToID != nil && *t.AssignedToID == userID
}
