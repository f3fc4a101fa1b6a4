package services

import (
	"time"

	"github.com/yukikurage/task-tracker/internal/models"
)

// TaskSnapshot is the full-row image written to the audit trail.
type TaskSnapshot struct {
	ID           uint64            `json:"id"`
	Title        string            `json:"title"`
	Description  string            `json:"description"`
	Status       models.TaskStatus `json:"status"`
	CreatedByID  uint64            `json:"created_by_id"`
	AssignedToID *uint64           `json:"assigned_to_id"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// SnapshotOf copies the persisted columns of task.
func SnapshotOf(task *models.Task) TaskSnapshot {
	snapshot := TaskSnapshot{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		Status:      task.Status,
		CreatedByID: task.CreatedByID,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}
	if task.AssignedToID != nil {
		id := *task.AssignedToID
		snapshot.AssignedToID = &id
	}
	return snapshot
}
