package database

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// WithRowLock adds SELECT ... FOR UPDATE to a query so state transitions
// that read-then-write a row serialize against each other. sqlite has no
// row-level locking syntax; its single-writer lock serializes transactions
// instead, so the clause is skipped there.
func WithRowLock(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}
