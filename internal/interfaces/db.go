package interfaces

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX - общий интерфейс для *pgxpool.Pool и pgx.Tx.
// Репозитории принимают его, чтобы участвовать в транзакции сервиса.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TxManager выполняет fn в одной транзакции: коммит при успехе, откат при ошибке или панике.
type TxManager interface {
	WithTx(ctx context.Context, fn func(tx DBTX) error) error
	// Querier возвращает соединение для чтения вне транзакции.
	Querier() DBTX
}
