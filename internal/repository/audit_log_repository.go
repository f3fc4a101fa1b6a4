package repository

import (
	"context"
	"strings"

	"github.com/yukikurage/task-tracker/internal/database"
	"github.com/yukikurage/task-tracker/internal/models"
	"github.com/yukikurage/task-tracker/internal/utils"
	"gorm.io/gorm"
)

// GormAuditLogRepository is a GORM implementation of AuditLogRepository
type GormAuditLogRepository struct {
	db *gorm.DB
}

// NewAuditLogRepository creates a new AuditLogRepository
func NewAuditLogRepository(db *gorm.DB) AuditLogRepository {
	return &GormAuditLogRepository{db: db}
}

// Append writes a new entry
func (r *GormAuditLogRepository) Append(ctx context.Context, entry *models.AuditLog) error {
	return r.db.WithContext(ctx).Omit(preloadChangedBy).Create(entry).Error
}

// List returns entries newest-first with the acting user preloaded
func (r *GormAuditLogRepository) List(ctx context.Context, filter AuditLogFilter) ([]models.AuditLog, int64, error) {
	var entries []models.AuditLog

	query := r.db.WithContext(ctx).Model(&models.AuditLog{})
	if filter.TableName != "" {
		query = query.Where("LOWER(audit_logs.table_name) LIKE ? ESCAPE '!'", containsPattern(filter.TableName))
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := query.Scopes(database.NewestFirst("audit_logs", "changed_at"))
	if filter.Limit > 0 {
		listQuery = listQuery.Scopes(database.Paginate(utils.PaginationParams{Offset: filter.Offset, Limit: filter.Limit}))
	}

	if err := listQuery.Preload(preloadChangedBy).Find(&entries).Error; err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}

const preloadChangedBy = "ChangedBy"

// containsPattern builds a lower-cased LIKE pattern matching value anywhere,
// with LIKE wildcards in value escaped by '!'.
func containsPattern(value string) string {
	escaper := strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")
	return "%" + escaper.Replace(strings.ToLower(value)) + "%"
}
