package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"cms-backend/internal/domains/content"
	"cms-backend/internal/shared/utils"
	"cms-backend/pkg/database"
)

const (
	pgUniqueViolation = "23505"
	slugConstraint    = "ux_contents_slug"

	contentColumns = `id, title, body, author_id, status, slug, created_at, updated_at`
)

// postgresRepository implement content.Repository trên pgx
type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) content.Repository {
	return &postgresRepository{pool: pool}
}

func (r *postgresRepository) Create(ctx context.Context, c *content.Content) error {
	query := `
		INSERT INTO contents (id, title, body, author_id, status, slug, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := database.Conn(ctx, r.pool).Exec(ctx, query,
		c.ID,
		c.Title,
		c.Body,
		c.AuthorID,
		string(c.Status),
		c.Slug,
		c.CreatedAt,
		c.UpdatedAt,
	)
	if err != nil {
		return mapWriteError("create content", err)
	}
	return nil
}

func (r *postgresRepository) FindByID(ctx context.Context, id uuid.UUID) (*content.Content, error) {
	query := `SELECT ` + contentColumns + ` FROM contents WHERE id = $1`
	return r.findOne(ctx, "find content by id", query, id)
}

// FindBySlug: slug là citext
func (r *postgresRepository) FindBySlug(ctx context.Context, slug string) (*content.Content, error) {
	query := `SELECT ` + contentColumns + ` FROM contents WHERE slug = $1`
	return r.findOne(ctx, "find content by slug", query, slug)
}

func (r *postgresRepository) findOne(ctx context.Context, op, query string, arg any) (*content.Content, error) {
	c, err := scanContent(database.Conn(ctx, r.pool).QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, content.ErrContentNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return c, nil
}

func (r *postgresRepository) SlugExists(ctx context.Context, slug string, excludeID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM contents WHERE slug = $1 AND id <> $2)`
	var exists bool
	if err := database.Conn(ctx, r.pool).QueryRow(ctx, query, slug, excludeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check slug exists: %w", err)
	}
	return exists, nil
}

func (r *postgresRepository) Update(ctx context.Context, c *content.Content) error {
	query := `
		UPDATE contents
		SET title = $2,
			body = $3,
			status = $4,
			slug = $5,
			updated_at = $6
		WHERE id = $1
	`
	tag, err := database.Conn(ctx, r.pool).Exec(ctx, query,
		c.ID,
		c.Title,
		c.Body,
		string(c.Status),
		c.Slug,
		c.UpdatedAt,
	)
	if err != nil {
		return mapWriteError("update content", err)
	}
	if tag.RowsAffected() == 0 {
		return content.ErrContentNotFound
	}
	return nil
}

func (r *postgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := database.Conn(ctx, r.pool).Exec(ctx, `DELETE FROM contents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete content: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return content.ErrContentNotFound
	}
	return nil
}

func (r *postgresRepository) List(ctx context.Context, f content.ListFilter) ([]content.Content, int64, error) {
	var where utils.WhereBuilder
	if f.Search != "" {
		pattern := utils.LikePattern(f.Search)
		where.Add("(title ILIKE ? OR slug ILIKE ?)", pattern, pattern)
	}
	if f.Status != "" {
		where.Add("status = ?", string(f.Status))
	}
	if f.AuthorID != uuid.Nil {
		where.Add("author_id = ?", f.AuthorID)
	}

	conn := database.Conn(ctx, r.pool)

	var total int64
	if err := conn.QueryRow(ctx, `SELECT COUNT(*) FROM contents`+where.SQL(), where.Args()...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count contents: %w", err)
	}
	if total == 0 {
		return []content.Content{}, 0, nil
	}

	query := `SELECT ` + contentColumns + ` FROM contents` + where.SQL() +
		` ORDER BY created_at DESC, id` +
		` LIMIT ` + where.Next(f.Limit) + ` OFFSET ` + where.Next(f.Offset)

	rows, err := conn.Query(ctx, query, where.Args()...)
	if err != nil {
		return nil, 0, fmt.Errorf("list contents: %w", err)
	}
	defer rows.Close()

	items := make([]content.Content, 0, f.Limit)
	for rows.Next() {
		c, err := scanContent(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan content: %w", err)
		}
		items = append(items, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate contents: %w", err)
	}
	return items, total, nil
}

func scanContent(row pgx.Row) (*content.Content, error) {
	var (
		c      content.Content
		status string
	)
	if err := row.Scan(
		&c.ID,
		&c.Title,
		&c.Body,
		&c.AuthorID,
		&status,
		&c.Slug,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	c.Status = content.Status(status)
	return &c, nil
}

// mapWriteError: unique violation trên slug -> ErrSlugAlreadyExists để service thử suffix tiếp
func mapWriteError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation && pgErr.ConstraintName == slugConstraint {
		return content.ErrSlugAlreadyExists
	}
	return fmt.Errorf("%s: %w", op, err)
}
