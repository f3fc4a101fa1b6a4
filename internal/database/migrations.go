package database

import (
	"fmt"
	"log/slog"

	"github.com/yukikurage/task-tracker/internal/models"
	"gorm.io/gorm"
)

// Models lists every table owned by the application, in dependency order.
var Models = []interface{}{
	&models.User{},
	&models.Task{},
	&models.AuditLog{},
}

func Migrate() error {
	return MigrateDatabase(DB)
}

// MigrateDatabase creates tables and the lookup indexes the list and log queries rely on.
func MigrateDatabase(db *gorm.DB) error {
	slog.Info("running database migrations")
	if err := db.AutoMigrate(Models...); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := AddIndexes(db); err != nil {
		return fmt.Errorf("failed to add indexes: %w", err)
	}

	slog.Info("database migrations completed")
	return nil
}

// AddIndexes adds performance-critical indexes to the database
func AddIndexes(db *gorm.DB) error {
	indexes := []struct {
		model   interface{}
		table   string
		name    string
		columns string
	}{
		// Task list scoping and ordering
		{&models.Task{}, "tasks", "idx_tasks_created_by_id", "created_by_id"},
		{&models.Task{}, "tasks", "idx_tasks_assigned_to_id", "assigned_to_id"},
		{&models.Task{}, "tasks", "idx_tasks_created_at", "created_at"},

		// Audit log ordering and task resolution
		{&models.AuditLog{}, "audit_logs", "idx_audit_logs_changed_at", "changed_at"},
		{&models.AuditLog{}, "audit_logs", "idx_audit_logs_record", "table_name, record_id"},
	}

	migrator := db.Migrator()
	for _, idx := range indexes {
		if migrator.HasIndex(idx.model, idx.name) {
			slog.Debug("index already exists, skipping", "index", idx.name)
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		slog.Debug("created index", "index", idx.name, "table", idx.table, "columns", idx.columns)
	}

	return nil
}
