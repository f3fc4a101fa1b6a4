package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/yukikurage/task-tracker/internal/constants"
	"github.com/yukikurage/task-tracker/internal/logger"
	"github.com/yukikurage/task-tracker/internal/models"
	"github.com/yukikurage/task-tracker/internal/repository"
	"gorm.io/datatypes"
)

// AuditService appends and reads the audit trail.
type AuditService struct {
	store repository.Store
	clock func() time.Time
}

// NewAuditService creates a new AuditService
func NewAuditService(store repository.Store) *AuditService {
	return &AuditService{store: store, clock: time.Now}
}

// RecordInput describes one mutation. OldData is nil for inserts and NewData
// is nil for deletes.
type RecordInput struct {
	TableName string
	RecordID  uint64
	Action    models.AuditAction
	OldData   any
	NewData   any
	ActorID   uint64
}

// Record appends one entry through tx. Callers pass the Store of the
// transaction that performs the mutation so both commit or neither does.
func (s *AuditService) Record(ctx context.Context, tx repository.Store, input RecordInput) error {
	oldData, err := marshalSnapshot(input.OldData)
	if err != nil {
		return fmt.Errorf("failed to encode old data: %w", err)
	}
	newData, err := marshalSnapshot(input.NewData)
	if err != nil {
		return fmt.Errorf("failed to encode new data: %w", err)
	}

	entry := &models.AuditLog{
		TableName:   input.TableName,
		RecordID:    input.RecordID,
		Action:      input.Action,
		OldData:     oldData,
		NewData:     newData,
		ChangedByID: input.ActorID,
		ChangedAt:   s.clock().UTC(),
	}

	if err := tx.AuditLogs().Append(ctx, entry); err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}

	logger.From(ctx).Debug("audit entry recorded",
		"table", entry.TableName, "record_id", entry.RecordID, "action", entry.Action)
	return nil
}

func marshalSnapshot(v any) (datatypes.JSON, error) {
	if v == nil {
		return nil, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}

// AuditQuery filters Query results.
type AuditQuery struct {
	TableName string
	Offset    int
	Limit     int
}

// AuditEntry is a log row with the affected task resolved when it still exists.
type AuditEntry struct {
	models.AuditLog
	Task *models.Task
}

// Query returns entries newest-first. Only leads may read the trail.
func (s *AuditService) Query(ctx context.Context, actor *models.User, query AuditQuery) ([]AuditEntry, int64, error) {
	if actor == nil || actor.Role != models.RoleLead {
		return nil, 0, ErrForbidden
	}

	logs, total, err := s.store.AuditLogs().List(ctx, repository.AuditLogFilter{
		TableName: strings.TrimSpace(query.TableName),
		Offset:    query.Offset,
		Limit:     query.Limit,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list audit entries: %w", err)
	}

	tasks, err := s.resolveTasks(ctx, logs)
	if err != nil {
		return nil, 0, err
	}

	entries := make([]AuditEntry, len(logs))
	for i, log := range logs {
		entries[i] = AuditEntry{AuditLog: log}
		if isTaskEntry(log) {
			if task, ok := tasks[log.RecordID]; ok {
				entries[i].Task = &task
			}
		}
	}

	return entries, total, nil
}

func (s *AuditService) resolveTasks(ctx context.Context, logs []models.AuditLog) (map[uint64]models.Task, error) {
	ids := make([]uint64, 0, len(logs))
	seen := make(map[uint64]struct{}, len(logs))
	for _, log := range logs {
		if !isTaskEntry(log) {
			continue
		}
		if _, exists := seen[log.RecordID]; exists {
			continue
		}
		seen[log.RecordID] = struct{}{}
		ids = append(ids, log.RecordID)
	}

	tasks, err := s.store.Tasks().FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve audited tasks: %w", err)
	}

	byID := make(map[uint64]models.Task, len(tasks))
	for _, task := range tasks {
		byID[task.ID] = task
	}
	return byID, nil
}

func isTaskEntry(log models.AuditLog) bool {
	return strings.EqualFold(log.TableName, constants.AuditTableTask)
}
