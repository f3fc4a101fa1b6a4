package dto

import (
	"encoding/json"
	"time"

	"github.com/yukikurage/task-tracker/internal/models"
	"github.com/yukikurage/task-tracker/internal/services"
	"gorm.io/datatypes"
)

// TaskRefDTO identifies the task an audit entry refers to
type TaskRefDTO struct {
	ID    uint64 `json:"id"`
	Title string `json:"title"`
}

// AuditLogDTO represents an audit entry in API responses
type AuditLogDTO struct {
	ID          uint64             `json:"id"`
	TableName   string             `json:"table_name"`
	RecordID    uint64             `json:"record_id"`
	Action      models.AuditAction `json:"action"`
	OldData     json.RawMessage    `json:"old_data"`
	NewData     json.RawMessage    `json:"new_data"`
	ChangedByID uint64             `json:"changed_by_id"`
	ChangedAt   time.Time          `json:"changed_at"`
	ChangedBy   *UserSummaryDTO    `json:"changed_by,omitempty"`
	Task        *TaskRefDTO        `json:"task"`
}

// ToAuditLogDTO converts a resolved audit entry
func ToAuditLogDTO(entry services.AuditEntry) AuditLogDTO {
	dto := AuditLogDTO{
		ID:          entry.ID,
		TableName:   entry.TableName,
		RecordID:    entry.RecordID,
		Action:      entry.Action,
		OldData:     image(entry.OldData),
		NewData:     image(entry.NewData),
		ChangedByID: entry.ChangedByID,
		ChangedAt:   entry.ChangedAt,
	}

	if entry.ChangedBy.ID != 0 {
		actor := ToUserSummaryDTO(entry.ChangedBy)
		dto.ChangedBy = &actor
	}

	if entry.Task != nil {
		dto.Task = &TaskRefDTO{ID: entry.Task.ID, Title: entry.Task.Title}
	}

	return dto
}

// ToAuditLogDTOs converts a slice of resolved audit entries
func ToAuditLogDTOs(entries []services.AuditEntry) []AuditLogDTO {
	out := make([]AuditLogDTO, len(entries))
	for i, entry := range entries {
		out[i] = ToAuditLogDTO(entry)
	}
	return out
}

// image renders a stored snapshot, keeping absent images as JSON null.
func image(data datatypes.JSON) json.RawMessage {
	if len(data) == 0 || string(data) == "null" {
		return json.RawMessage("null")
	}
	return json.RawMessage(data)
}
