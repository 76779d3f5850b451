package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"cms-backend/internal/domains/user"
	"cms-backend/internal/shared/utils"
	"cms-backend/pkg/database"
)

const (
	pgUniqueViolation = "23505"
	emailConstraint   = "ux_users_email"

	userColumns = `id, email, password_hash, display_name, roles, created_at`
)

// postgresRepository implement user.Repository trên pgx.
// Mọi query đi qua database.Conn để tham gia transaction của unit of work nếu có.
type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) user.Repository {
	return &postgresRepository{pool: pool}
}

func (r *postgresRepository) Create(ctx context.Context, u *user.User) error {
	query := `
		INSERT INTO users (id, email, password_hash, display_name, roles, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := database.Conn(ctx, r.pool).Exec(ctx, query,
		u.ID,
		u.Email,
		u.PasswordHash,
		u.DisplayName,
		rolesOrEmpty(u.Roles),
		u.CreatedAt,
	)
	if err != nil {
		return mapWriteError("create user", err)
	}
	return nil
}

func (r *postgresRepository) FindByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	u, err := scanUser(database.Conn(ctx, r.pool).QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, user.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return u, nil
}

// FindByEmail: cột email là citext nên so sánh đã không phân biệt hoa thường
func (r *postgresRepository) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	u, err := scanUser(database.Conn(ctx, r.pool).QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, user.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return u, nil
}

func (r *postgresRepository) ExistsByEmail(ctx context.Context, email string, excludeID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1 AND id <> $2)`
	var exists bool
	if err := database.Conn(ctx, r.pool).QueryRow(ctx, query, email, excludeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check email exists: %w", err)
	}
	return exists, nil
}

func (r *postgresRepository) Update(ctx context.Context, u *user.User) error {
	query := `
		UPDATE users
		SET email = $2,
			password_hash = $3,
			display_name = $4,
			roles = $5
		WHERE id = $1
	`
	tag, err := database.Conn(ctx, r.pool).Exec(ctx, query,
		u.ID,
		u.Email,
		u.PasswordHash,
		u.DisplayName,
		rolesOrEmpty(u.Roles),
	)
	if err != nil {
		return mapWriteError("update user", err)
	}
	if tag.RowsAffected() == 0 {
		return user.ErrUserNotFound
	}
	return nil
}

func (r *postgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := database.Conn(ctx, r.pool).Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return user.ErrUserNotFound
	}
	return nil
}

func (r *postgresRepository) List(ctx context.Context, f user.ListFilter) ([]user.User, int64, error) {
	var where utils.WhereBuilder
	if f.Search != "" {
		pattern := utils.LikePattern(f.Search)
		where.Add("(email ILIKE ? OR display_name ILIKE ?)", pattern, pattern)
	}

	conn := database.Conn(ctx, r.pool)

	var total int64
	countQuery := `SELECT COUNT(*) FROM users` + where.SQL()
	if err := conn.QueryRow(ctx, countQuery, where.Args()...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}
	if total == 0 {
		return []user.User{}, 0, nil
	}

	query := `SELECT ` + userColumns + ` FROM users` + where.SQL() +
		` ORDER BY created_at DESC, id` +
		` LIMIT ` + where.Next(f.Limit) + ` OFFSET ` + where.Next(f.Offset)

	rows, err := conn.Query(ctx, query, where.Args()...)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]user.User, 0, f.Limit)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate users: %w", err)
	}

	return users, total, nil
}

func scanUser(row pgx.Row) (*user.User, error) {
	var u user.User
	if err := row.Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.DisplayName,
		&u.Roles,
		&u.CreatedAt,
	); err != nil {
		return nil, err
	}
	if u.Roles == nil {
		u.Roles = []string{}
	}
	return &u, nil
}

// mapWriteError chuyển unique violation trên email thành domain error
func mapWriteError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation && pgErr.ConstraintName == emailConstraint {
		return user.ErrEmailAlreadyExists
	}
	return fmt.Errorf("%s: %w", op, err)
}

func rolesOrEmpty(roles []string) []string {
	if roles == nil {
		return []string{}
	}
	return roles
}
