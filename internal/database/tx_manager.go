package database

import (
	"context"
	"fmt"

	"quest-server/internal/interfaces"

	"github.com/jackc/pgx/v5/pgxpool"
)

var _ interfaces.TxManager = (*pgTxManager)(nil)

type pgTxManager struct {
	pool *pgxpool.Pool
}

func NewTxManager(pool *pgxpool.Pool) interfaces.TxManager {
	return &pgTxManager{pool: pool}
}

// WithTx выполняет fn в рамках транзакции, коммитит при успехе или откатывает при ошибке.
func (m *pgTxManager) WithTx(ctx context.Context, fn func(tx interfaces.DBTX) error) error {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	// Откат при панике
	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback(context.Background())
			panic(r)
		}
	}()
	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit tx: %w", err)
	}
	return nil
}

func (m *pgTxManager) Querier() interfaces.DBTX {
	return m.pool
}
