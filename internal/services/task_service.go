package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/yukikurage/task-tracker/internal/constants"
	"github.com/yukikurage/task-tracker/internal/models"
	"github.com/yukikurage/task-tracker/internal/policy"
	"github.com/yukikurage/task-tracker/internal/repository"
	"gorm.io/gorm"
)

// TaskService handles task business logic. Every mutation and its audit entry
// commit in one transaction.
type TaskService struct {
	store repository.Store
	audit *AuditService
}

// NewTaskService creates a new TaskService
func NewTaskService(store repository.Store, audit *AuditService) *TaskService {
	return &TaskService{
		store: store,
		audit: audit,
	}
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	Title       string
	Description string
	AssignedTo  *uint64
}

// UpdateTaskInput represents input for updating a task. Fields lists every key
// present in the request, including ones the caller may not change; when nil
// it is derived from the non-nil values.
type UpdateTaskInput struct {
	Fields        []policy.Field
	Title         *string
	Description   *string
	Status        *models.TaskStatus
	AssignedTo    *uint64
	ClearAssignee bool
}

func (in UpdateTaskInput) requestedFields() []policy.Field {
	if in.Fields != nil {
		return in.Fields
	}

	var fields []policy.Field
	if in.Title != nil {
		fields = append(fields, policy.FieldTitle)
	}
	if in.Description != nil {
		fields = append(fields, policy.FieldDescription)
	}
	if in.Status != nil {
		fields = append(fields, policy.FieldStatus)
	}
	if in.AssignedTo != nil || in.ClearAssignee {
		fields = append(fields, policy.FieldAssignedTo)
	}
	return fields
}

var detailPreloads = []string{"CreatedBy", "AssignedTo"}

// List returns the tasks the actor works with: a lead sees the tasks they
// created, a team member sees the tasks assigned to them.
func (s *TaskService) List(ctx context.Context, actor *models.User) ([]models.Task, error) {
	filter := repository.TaskFilter{}
	switch actor.Role {
	case models.RoleLead:
		filter.CreatedByID = &actor.ID
		filter.Preload = []string{"AssignedTo"}
	case models.RoleTeam:
		filter.AssignedToID = &actor.ID
		filter.Preload = []string{"CreatedBy"}
	default:
		return nil, ErrForbidden
	}

	tasks, err := s.store.Tasks().List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	return tasks, nil
}

// Get returns a task with its creator and assignee
func (s *TaskService) Get(ctx context.Context, actor *models.User, taskID uint64) (*models.Task, error) {
	task, err := s.store.Tasks().FindByID(ctx, taskID, detailPreloads...)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	if err := decisionError(policy.Decide(policy.ActorFrom(actor), policy.OpRead, task, policy.Request{})); err != nil {
		return nil, err
	}

	return task, nil
}

// Create creates a new task in not_started status
func (s *TaskService) Create(ctx context.Context, actor *models.User, input CreateTaskInput) (*models.Task, error) {
	subject := policy.ActorFrom(actor)
	if err := decisionError(policy.Decide(subject, policy.OpCreate, nil, policy.Request{})); err != nil {
		return nil, err
	}

	title, err := normalizeTitle(input.Title)
	if err != nil {
		return nil, err
	}

	task := &models.Task{
		Title:       title,
		Description: input.Description,
		Status:      models.TaskStatusNotStarted,
		CreatedByID: actor.ID,
	}

	err = s.store.Transaction(ctx, func(tx repository.Store) error {
		if input.AssignedTo != nil {
			assignee, err := findAssignee(ctx, tx, *input.AssignedTo)
			if err != nil {
				return err
			}
			req := policy.Request{Fields: []policy.Field{policy.FieldAssignedTo}, Assignee: assignee}
			if err := decisionError(policy.Decide(subject, policy.OpCreate, nil, req)); err != nil {
				return err
			}
			task.AssignedToID = &assignee.ID
		}

		if err := tx.Tasks().Create(ctx, task); err != nil {
			return fmt.Errorf("failed to create task: %w", err)
		}

		created, err := tx.Tasks().FindByID(ctx, task.ID)
		if err != nil {
			return fmt.Errorf("failed to reload task: %w", err)
		}

		return s.audit.Record(ctx, tx, RecordInput{
			TableName: constants.AuditTableTask,
			RecordID:  created.ID,
			Action:    models.AuditActionInsert,
			NewData:   SnapshotOf(created),
			ActorID:   actor.ID,
		})
	})
	if err != nil {
		return nil, err
	}

	return s.reload(ctx, task.ID)
}

// Update applies the fields the policy allows for the actor. A request naming
// any field outside the actor's allow-list is rejected as a whole.
func (s *TaskService) Update(ctx context.Context, actor *models.User, taskID uint64, input UpdateTaskInput) (*models.Task, error) {
	subject := policy.ActorFrom(actor)

	err := s.mutate(ctx, actor, taskID, func(tx repository.Store, task *models.Task) error {
		req := policy.Request{Fields: input.requestedFields(), Status: input.Status}
		decision := policy.Decide(subject, policy.OpUpdate, task, req)
		if err := decisionError(decision); err != nil {
			return err
		}

		var title string
		if input.Title != nil {
			normalized, err := normalizeTitle(*input.Title)
			if err != nil {
				return err
			}
			title = normalized
		}

		var assignee *models.User
		if input.AssignedTo != nil && !input.ClearAssignee {
			found, err := findAssignee(ctx, tx, *input.AssignedTo)
			if err != nil {
				return err
			}
			req.Assignee = found
			decision = policy.Decide(subject, policy.OpUpdate, task, req)
			if err := decisionError(decision); err != nil {
				return err
			}
			assignee = found
		}

		if input.Title != nil && decision.Allows(policy.FieldTitle) {
			task.Title = title
		}
		if input.Description != nil && decision.Allows(policy.FieldDescription) {
			task.Description = *input.Description
		}
		if input.Status != nil && decision.Allows(policy.FieldStatus) {
			task.Status = *input.Status
		}
		if decision.Allows(policy.FieldAssignedTo) {
			if input.ClearAssignee {
				task.AssignedToID = nil
			} else if assignee != nil {
				task.AssignedToID = &assignee.ID
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.reload(ctx, taskID)
}

// UpdateStatus moves a task assigned to the actor into status
func (s *TaskService) UpdateStatus(ctx context.Context, actor *models.User, taskID uint64, status models.TaskStatus) (*models.Task, error) {
	subject := policy.ActorFrom(actor)

	err := s.mutate(ctx, actor, taskID, func(_ repository.Store, task *models.Task) error {
		req := policy.Request{Fields: []policy.Field{policy.FieldStatus}, Status: &status}
		if err := decisionError(policy.Decide(subject, policy.OpStatusTransition, task, req)); err != nil {
			return err
		}
		task.Status = status
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.reload(ctx, taskID)
}

// Assign sets the assignee of a task the actor created
func (s *TaskService) Assign(ctx context.Context, actor *models.User, taskID, assigneeID uint64) (*models.Task, error) {
	subject := policy.ActorFrom(actor)

	err := s.mutate(ctx, actor, taskID, func(tx repository.Store, task *models.Task) error {
		// Without an assignee only ownership can pass or fail.
		if d := policy.Decide(subject, policy.OpAssign, task, policy.Request{}); d.Reason == policy.ReasonForbidden {
			return ErrForbidden
		}

		assignee, err := findAssignee(ctx, tx, assigneeID)
		if err != nil {
			return err
		}

		req := policy.Request{Fields: []policy.Field{policy.FieldAssignedTo}, Assignee: assignee}
		if err := decisionError(policy.Decide(subject, policy.OpAssign, task, req)); err != nil {
			return err
		}

		task.AssignedToID = &assignee.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.reload(ctx, taskID)
}

// Delete removes a task the actor created
func (s *TaskService) Delete(ctx context.Context, actor *models.User, taskID uint64) error {
	subject := policy.ActorFrom(actor)

	return s.store.Transaction(ctx, func(tx repository.Store) error {
		task, err := lockTask(ctx, tx, taskID)
		if err != nil {
			return err
		}

		if err := decisionError(policy.Decide(subject, policy.OpDelete, task, policy.Request{})); err != nil {
			return err
		}

		before := SnapshotOf(task)

		if err := tx.Tasks().Delete(ctx, task.ID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTaskNotFound
			}
			return fmt.Errorf("failed to delete task: %w", err)
		}

		return s.audit.Record(ctx, tx, RecordInput{
			TableName: constants.AuditTableTask,
			RecordID:  task.ID,
			Action:    models.AuditActionDelete,
			OldData:   before,
			ActorID:   actor.ID,
		})
	})
}

// mutate loads and locks the task, lets apply change it in memory, then saves
// and records the before and after images in one transaction. apply returning
// an error aborts without writing.
func (s *TaskService) mutate(ctx context.Context, actor *models.User, taskID uint64, apply func(tx repository.Store, task *models.Task) error) error {
	return s.store.Transaction(ctx, func(tx repository.Store) error {
		task, err := lockTask(ctx, tx, taskID)
		if err != nil {
			return err
		}

		before := SnapshotOf(task)

		if err := apply(tx, task); err != nil {
			return err
		}

		if err := tx.Tasks().Update(ctx, task); err != nil {
			return fmt.Errorf("failed to update task: %w", err)
		}

		updated, err := tx.Tasks().FindByID(ctx, task.ID)
		if err != nil {
			return fmt.Errorf("failed to reload task: %w", err)
		}

		return s.audit.Record(ctx, tx, RecordInput{
			TableName: constants.AuditTableTask,
			RecordID:  task.ID,
			Action:    models.AuditActionUpdate,
			OldData:   before,
			NewData:   SnapshotOf(updated),
			ActorID:   actor.ID,
		})
	})
}

func (s *TaskService) reload(ctx context.Context, taskID uint64) (*models.Task, error) {
	task, err := s.store.Tasks().FindByID(ctx, taskID, detailPreloads...)
	if err != nil {
		return nil, fmt.Errorf("failed to load task: %w", err)
	}
	return task, nil
}

func lockTask(ctx context.Context, tx repository.Store, taskID uint64) (*models.Task, error) {
	task, err := tx.Tasks().FindByIDForUpdate(ctx, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return task, nil
}

func findAssignee(ctx context.Context, tx repository.Store, userID uint64) (*models.User, error) {
	user, err := tx.Users().FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAssigneeNotFound
		}
		return nil, fmt.Errorf("failed to find assignee: %w", err)
	}
	return user, nil
}

func normalizeTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", validationError("title is required")
	}
	if utf8.RuneCountInString(title) > constants.MaxTitleLength {
		return "", validationError("title must be at most %d characters", constants.MaxTitleLength)
	}
	return title, nil
}
