// Package utils provides database utilities for count query operations
package utils

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

// CountWithJoins returns the count of records with complex query (with joins)
func CountWithJoins(db *sqlx.DB, query string, args ...interface{}) (int64, error) {
	var count int64

	if err := db.Get(&count, query, args...); err != nil {
		return 0, err
	}

	return count, nil
}

// CountActivesExcludingID counts active records (not suspended) excluding a specific ID
func CountActivesExcludingID(db *sqlx.DB, tableName, condition string, id int) (int, error) {
	var count int
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s AND id != ?", tableName, condition)

	if err := db.Get(&count, query, id); err != nil {
		return 0, err
	}

	return count, nil
}
