package database

import (
	"gorm.io/gorm"

	"github.com/yukikurage/task-tracker/internal/utils"
)

// Paginate applies pagination to a GORM query
func Paginate(params utils.PaginationParams) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(params.Offset).Limit(params.Limit)
	}
}

// NewestFirst orders by column descending, breaking ties by primary key so rows
// written within the same clock tick keep insertion order reversed.
func NewestFirst(table, column string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Order(table + "." + column + " DESC").Order(table + ".id DESC")
	}
}
