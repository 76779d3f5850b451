package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// WithTransaction function:
//     Begin transaction từ pool
//     Defer rollback - Sẽ tự động rollback nếu:
//         Function fn return error
//         Có panic xảy ra
//     Execute function fn với transaction
//     Commit nếu không có error

// TxFunc là function type được execute trong transaction
type TxFunc func(pgx.Tx) error

// WithTransaction wraps một function trong transaction
// Auto rollback nếu có error, auto commit nếu success
func WithTransaction(ctx context.Context, pool *pgxpool.Pool, fn TxFunc) (err error) {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(context.WithoutCancel(ctx))
			panic(p)
		} else if err != nil {
			// rollback vẫn chạy khi request context đã bị cancel
			_ = tx.Rollback(context.WithoutCancel(ctx))
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
