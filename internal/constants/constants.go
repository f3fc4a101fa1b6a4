package constants

import "time"

// Context keys
const (
	ContextKeyUserID = "user_id"
	ContextKeyActor  = "actor"
	ContextKeyTaskID = "task_id"
)

// Session
const (
	SessionCookieName = "auth_token"
	SessionTTL        = 24 * time.Hour
)

// Validation limits
const (
	MinPasswordLength = 6
	MaxTitleLength    = 255
)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Audit table names
const (
	AuditTableTask = "Task"
)
