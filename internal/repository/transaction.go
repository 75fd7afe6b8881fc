// Package repository provides data access abstractions for the Parlons application.
package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/parlons-app/parlons/pkg/logger"
)

// TxManager defines the transaction management interface.
type TxManager interface {
	// WithTransaction executes a function within a transaction.
	// If the function returns an error, the transaction is rolled back.
	// If the function panics, the transaction is rolled back and the panic is re-raised.
	// If the function succeeds, the transaction is committed.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// DB returns the underlying database connection for non-transactional queries.
	DB() *sqlx.DB
}

// txManager implements TxManager using sqlx.
type txManager struct {
	db *sqlx.DB
}

// NewTxManager creates a new transaction manager.
func NewTxManager(db *sqlx.DB) TxManager {
	return &txManager{db: db}
}

// DB returns the underlying database connection.
func (m *txManager) DB() *sqlx.DB {
	return m.db
}

// WithTransaction executes fn within a database transaction.
// The transaction is stored in the context and can be retrieved by
// repositories using TxFromContext.
func (m *txManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	tx, err := m.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				logger.Error("Rollback after panic failed: %v", rbErr)
			}
			panic(p) // Re-raise the panic after rollback
		}
	}()

	txCtx := ContextWithTx(ctx, tx)

	if err := fn(txCtx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("Rollback failed: %v", rbErr)
		}
		return fmt.Errorf("transaction failed: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
