// Package pgstore provides a PostgreSQL implementation of the domain repositories.
package pgstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fieldlab/fieldops/internal/domain"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store is a PostgreSQL-backed store.
type Store struct {
	pool *pgxpool.Pool
}

// Ensure Store implements the store-level interfaces.
var (
	_ domain.StoreInitializer = (*Store)(nil)
	_ domain.Transactor       = (*Store)(nil)
)

// Open connects to the database at dsn and verifies the connection.
func Open(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("%w: postgres store requires a dsn", domain.ErrValidation)
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{pool: pool}, nil
}

// NewStore wraps an existing pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// Initialize creates the schema if it doesn't exist.
func (s *Store) Initialize(ctx context.Context) error {
	for _, stmt := range schema() {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// InTx runs fn in one database transaction, committing only if fn returns nil.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, tx domain.TxRepositories) error) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(ctx, domain.TxRepositories{
			Tasks:        &taskRepo{q: tx},
			History:      &historyRepo{q: tx},
			WorkPackages: &workPackageRepo{q: tx},
			Users:        &userRepo{q: tx},
		})
	})
}

// Tasks returns the task repository.
func (s *Store) Tasks() domain.TaskRepository { return &taskRepo{q: s.pool} }

// History returns the history repository.
func (s *Store) History() domain.HistoryRepository { return &historyRepo{q: s.pool} }

// Projects returns the project repository.
func (s *Store) Projects() domain.ProjectRepository { return &projectRepo{q: s.pool} }

// Users returns the user repository.
func (s *Store) Users() domain.UserRepository { return &userRepo{q: s.pool} }

// Notifications returns the notification repository.
func (s *Store) Notifications() domain.NotificationRepository {
	return &notificationRepo{q: s.pool}
}

// WorkPackages returns the work package repository.
func (s *Store) WorkPackages() domain.WorkPackageRepository { return &workPackageRepo{q: s.pool} }

// schema returns the DDL statements. A NULL tenant_id is the legacy tenant.
func schema() []string {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS projects (
			id             TEXT PRIMARY KEY,
			tenant_id      TEXT,
			project_number TEXT NOT NULL,
			name           TEXT NOT NULL DEFAULT '',
			created_by     TEXT NOT NULL DEFAULT '',
			created_at     TIMESTAMPTZ NOT NULL
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_projects_number ON projects (COALESCE(tenant_id, ''), project_number)`,
		`CREATE TABLE IF NOT EXISTS users (
			id           TEXT PRIMARY KEY,
			tenant_id    TEXT,
			email        TEXT NOT NULL DEFAULT '',
			display_name TEXT NOT NULL DEFAULT '',
			role         TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS tasks (
			id                     TEXT PRIMARY KEY,
			tenant_id              TEXT,
			project_id             TEXT NOT NULL,
			task_kind              TEXT NOT NULL,
			status                 TEXT NOT NULL,
			title                  TEXT NOT NULL,
			assigned_technician_id TEXT,
			report_due_date        DATE,
			field_date             DATE,
			field_start            DATE,
			field_end              DATE,
			location_notes         TEXT NOT NULL DEFAULT '',
			field_completed        BOOLEAN NOT NULL DEFAULT FALSE,
			field_completed_at     TIMESTAMPTZ,
			report_submitted       BOOLEAN NOT NULL DEFAULT FALSE,
			submitted_at           TIMESTAMPTZ,
			completed_at           TIMESTAMPTZ,
			rejection_remarks      TEXT NOT NULL DEFAULT '',
			resubmission_due_date  DATE,
			created_by             TEXT NOT NULL DEFAULT '',
			created_at             TIMESTAMPTZ NOT NULL,
			updated_at             TIMESTAMPTZ NOT NULL,
			version                BIGINT NOT NULL DEFAULT 1,
			CHECK (field_date IS NULL OR (field_start IS NULL AND field_end IS NULL)),
			CHECK (field_start IS NULL OR field_end IS NULL OR field_start <= field_end)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_tenant ON tasks (tenant_id, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_assignee ON tasks (assigned_technician_id) WHERE assigned_technician_id IS NOT NULL`,
		`CREATE TABLE IF NOT EXISTS task_history (
			id          TEXT PRIMARY KEY,
			task_id     TEXT NOT NULL,
			tenant_id   TEXT,
			actor_id    TEXT NOT NULL DEFAULT '',
			actor_name  TEXT NOT NULL DEFAULT '',
			actor_role  TEXT NOT NULL DEFAULT '',
			action_type TEXT NOT NULL,
			note        TEXT NOT NULL DEFAULT '',
			created_at  TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_task_history_task ON task_history (task_id, created_at DESC)`,
		`CREATE TABLE IF NOT EXISTS notifications (
			id           TEXT PRIMARY KEY,
			tenant_id    TEXT,
			recipient_id TEXT NOT NULL,
			task_id      TEXT NOT NULL DEFAULT '',
			project_id   TEXT NOT NULL DEFAULT '',
			message      TEXT NOT NULL,
			is_read      BOOLEAN NOT NULL DEFAULT FALSE,
			created_at   TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_recipient ON notifications (recipient_id, created_at DESC)`,
		`CREATE TABLE IF NOT EXISTS work_packages (
			id                     TEXT PRIMARY KEY,
			tenant_id              TEXT,
			project_id             TEXT NOT NULL,
			task_kind              TEXT NOT NULL,
			title                  TEXT NOT NULL,
			assigned_technician_id TEXT,
			report_due_date        DATE,
			migrated_task_id       TEXT,
			created_at             TIMESTAMPTZ NOT NULL
		)`,
	}
	for _, kind := range domain.AllReportKinds() {
		stmts = append(stmts, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id         TEXT PRIMARY KEY,
			task_id    TEXT NOT NULL UNIQUE,
			tenant_id  TEXT,
			payload    JSONB NOT NULL,
			updated_by TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`, reportTable(kind)))
	}
	return stmts
}

// reportTable returns the table holding rows of one report kind.
func reportTable(kind domain.ReportKind) string {
	return pgx.Identifier{"report_" + string(kind)}.Sanitize()
}

// isUniqueViolation reports whether err is a unique constraint violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
