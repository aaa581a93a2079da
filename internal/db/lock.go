package db

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ForUpdate adds an exclusive row lock to the next query of tx.
// SQLite has no row locks. There every transaction begins IMMEDIATE (see
// sqliteDSN) and holds the database write lock, so the clause is skipped.
func ForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// ForShare keeps the selected rows from being deleted or updated until tx ends.
// MySQL needs 8.0+ for FOR SHARE.
func ForShare(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "SHARE"})
}
