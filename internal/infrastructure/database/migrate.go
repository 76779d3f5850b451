package database

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

// Migrator chạy migrations đã embed cho một service.
// Mỗi service có bảng version riêng nên có thể dùng chung một database.
type Migrator struct {
	source fs.FS
	dir    string
	dbURL  string
	table  string
}

// NewMigrator: source là embed.FS, dir là thư mục chứa *.sql trong source,
// table là tên bảng lưu version (vd "users_schema_migrations").
func NewMigrator(source fs.FS, dir, dbURL, table string) *Migrator {
	return &Migrator{source: source, dir: dir, dbURL: dbURL, table: table}
}

// MigrationStatus là version hiện tại của schema
type MigrationStatus struct {
	Version uint
	Dirty   bool
	Applied bool
}

func (m *Migrator) instance() (*migrate.Migrate, error) {
	if m.dbURL == "" {
		return nil, errors.New("database url is required for migrations")
	}
	sub, err := fs.Sub(m.source, m.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to get embedded migrations: %w", err)
	}
	d, err := iofs.New(sub, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to create iofs driver: %w", err)
	}
	return migrate.NewWithSourceInstance("iofs", d, withMigrationsTable(m.dbURL, m.table))
}

// Up chạy toàn bộ migrations còn pending. ErrNoChange không phải lỗi.
func (m *Migrator) Up() (MigrationStatus, error) {
	mg, err := m.instance()
	if err != nil {
		return MigrationStatus{}, err
	}
	defer func() { _, _ = mg.Close() }()

	if err := mg.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return MigrationStatus{}, fmt.Errorf("migration failed: %w", err)
	}
	status, err := version(mg)
	if err == nil {
		log.Info().Uint("version", status.Version).Str("table", m.table).Msg("[MIGRATE] schema up to date")
	}
	return status, err
}

// Down rollback steps migrations (mặc định 1)
func (m *Migrator) Down(steps int) (MigrationStatus, error) {
	if steps < 1 {
		steps = 1
	}
	mg, err := m.instance()
	if err != nil {
		return MigrationStatus{}, err
	}
	defer func() { _, _ = mg.Close() }()

	if err := mg.Steps(-steps); err != nil {
		return MigrationStatus{}, fmt.Errorf("rollback failed: %w", err)
	}
	return version(mg)
}

func (m *Migrator) Status() (MigrationStatus, error) {
	mg, err := m.instance()
	if err != nil {
		return MigrationStatus{}, err
	}
	defer func() { _, _ = mg.Close() }()
	return version(mg)
}

func version(mg *migrate.Migrate) (MigrationStatus, error) {
	v, dirty, err := mg.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return MigrationStatus{}, nil
	}
	if err != nil {
		return MigrationStatus{}, err
	}
	return MigrationStatus{Version: v, Dirty: dirty, Applied: true}, nil
}

// withMigrationsTable thêm x-migrations-table vào database URL
func withMigrationsTable(dbURL, table string) string {
	if table == "" {
		return dbURL
	}
	u, err := url.Parse(dbURL)
	if err != nil {
		return dbURL
	}
	q := u.Query()
	q.Set("x-migrations-table", table)
	u.RawQuery = q.Encode()
	return u.String()
}
