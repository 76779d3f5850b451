package database

import (
	"context"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UnitOfWork gom mọi thay đổi của một request vào một lần commit.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// Querier là phần pgx mà repositories cần; cả *pgxpool.Pool và pgx.Tx đều thỏa mãn.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type txKey struct{}

// TxFromContext trả về transaction đang mở trong ctx (nếu có)
func TxFromContext(ctx context.Context) (pgx.Tx, bool) {
	tx, ok := ctx.Value(txKey{}).(pgx.Tx)
	return tx, ok
}

// Conn chọn transaction trong ctx, fallback về pool
func Conn(ctx context.Context, pool *pgxpool.Pool) Querier {
	if tx, ok := TxFromContext(ctx); ok {
		return tx
	}
	return pool
}

// PgxUnitOfWork chạy fn trong một pgx transaction gắn vào ctx.
// Lời gọi lồng nhau dùng lại transaction bên ngoài.
type PgxUnitOfWork struct {
	pool *pgxpool.Pool
}

func NewPgxUnitOfWork(pool *pgxpool.Pool) *PgxUnitOfWork {
	return &PgxUnitOfWork{pool: pool}
}

func (u *PgxUnitOfWork) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := TxFromContext(ctx); ok {
		return fn(ctx)
	}
	return WithTransaction(ctx, u.pool, func(tx pgx.Tx) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// LocalUnitOfWork serializes writes against the in-memory store.
// There is no rollback: memory repositories apply each mutation immediately.
type LocalUnitOfWork struct {
	mu sync.Mutex
}

type localKey struct{}

func (u *LocalUnitOfWork) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(localKey{}) != nil {
		return fn(ctx)
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	return fn(context.WithValue(ctx, localKey{}, true))
}
