package repository

import (
	"context"

	"github.com/yukikurage/task-tracker/internal/models"
)

// Store groups the repositories that share one database handle. Repositories
// obtained from the Store passed to a Transaction callback all run on the same
// transaction.
type Store interface {
	Users() UserRepository
	Tasks() TaskRepository
	AuditLogs() AuditLogRepository

	// Transaction runs fn inside a single database transaction. The transaction
	// commits when fn returns nil and rolls back otherwise.
	Transaction(ctx context.Context, fn func(tx Store) error) error
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, user *models.User) error

	// FindByID finds a user by ID
	FindByID(ctx context.Context, id uint64) (*models.User, error)

	// FindByUsername finds a user by username
	FindByUsername(ctx context.Context, username string) (*models.User, error)

	// FindByEmail finds a user by email
	FindByEmail(ctx context.Context, email string) (*models.User, error)

	// ListByRole lists users holding the given role ordered by username
	ListByRole(ctx context.Context, role models.Role) ([]models.User, error)
}

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create creates a new task
	Create(ctx context.Context, task *models.Task) error

	// FindByID finds a task by ID with optional preloading
	FindByID(ctx context.Context, id uint64, preload ...string) (*models.Task, error)

	// FindByIDForUpdate loads a task and locks its row until the surrounding
	// transaction ends
	FindByIDForUpdate(ctx context.Context, id uint64) (*models.Task, error)

	// FindByIDs returns the live tasks among ids; missing or deleted ids are skipped
	FindByIDs(ctx context.Context, ids []uint64) ([]models.Task, error)

	// List retrieves tasks matching the filter, newest-created first
	List(ctx context.Context, filter TaskFilter) ([]models.Task, error)

	// Update persists every column of the task
	Update(ctx context.Context, task *models.Task) error

	// Delete soft deletes a task
	Delete(ctx context.Context, id uint64) error
}

// TaskFilter holds filtering options for listing tasks
type TaskFilter struct {
	CreatedByID  *uint64
	AssignedToID *uint64
	Preload      []string
}

// AuditLogRepository is append-only: it offers no update or delete.
type AuditLogRepository interface {
	// Append writes a new entry
	Append(ctx context.Context, entry *models.AuditLog) error

	// List returns entries newest-first together with the total match count
	List(ctx context.Context, filter AuditLogFilter) ([]models.AuditLog, int64, error)
}

// AuditLogFilter holds filtering options for listing audit entries
type AuditLogFilter struct {
	// TableName matches case-insensitively as a substring when non-empty
	TableName string
	Offset    int
	Limit     int
}
