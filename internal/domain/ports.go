package domain

import (
	"context"
	"time"
)

// StoreInitializer initializes the data store.
type StoreInitializer interface {
	// Initialize creates the store schema if it doesn't exist.
	Initialize(ctx context.Context) error
}

// TaskRepository manages task persistence.
type TaskRepository interface {
	// Get retrieves a task by ID. Returns nil if not found.
	Get(ctx context.Context, id string) (*Task, error)

	// List retrieves tasks matching the filter, always scoped to filter.TenantID.
	List(ctx context.Context, filter TaskFilter) ([]*Task, error)

	// Create inserts a new task with Version 1.
	Create(ctx context.Context, task *Task) error

	// Update stores the task if the persisted version still equals task.Version,
	// then increments task.Version. Returns ErrVersionMismatch otherwise.
	Update(ctx context.Context, task *Task) error
}

// HistoryRepository is the append-only task audit log.
type HistoryRepository interface {
	// Append stores a new entry. Entries are never updated or deleted.
	Append(ctx context.Context, entry *HistoryEntry) error

	// ListByTask returns a task's entries, newest first.
	ListByTask(ctx context.Context, taskID string) ([]HistoryEntry, error)
}

// ProjectRepository manages projects.
type ProjectRepository interface {
	// Get retrieves a project by ID. Returns nil if not found.
	Get(ctx context.Context, id string) (*Project, error)

	// List returns the tenant's projects ordered by number.
	List(ctx context.Context, tenant TenantID) ([]*Project, error)

	// Create inserts a project. Returns ErrDuplicateProjectNumber if the
	// number is already used within the tenant.
	Create(ctx context.Context, project *Project) error
}

// UserRepository manages tenant users.
type UserRepository interface {
	// Get retrieves a user by ID. Returns nil if not found.
	Get(ctx context.Context, id string) (*User, error)

	// ListByRole returns users of the given role within the tenant.
	ListByRole(ctx context.Context, tenant TenantID, role Role) ([]*User, error)

	// Create inserts a user.
	Create(ctx context.Context, user *User) error
}

// NotificationRepository stores notification inbox entries.
type NotificationRepository interface {
	// Create inserts a notification.
	Create(ctx context.Context, n *Notification) error

	// Get retrieves a notification by ID. Returns nil if not found.
	Get(ctx context.Context, id string) (*Notification, error)

	// ListForRecipient returns a user's notifications, newest first.
	ListForRecipient(ctx context.Context, recipientID string, unreadOnly bool) ([]*Notification, error)

	// MarkRead flags a notification as read.
	MarkRead(ctx context.Context, id string) error
}

// WorkPackageRepository reads and retires legacy work packages.
type WorkPackageRepository interface {
	// Get retrieves a work package by ID. Returns nil if not found.
	Get(ctx context.Context, id string) (*WorkPackage, error)

	// List returns the tenant's work packages.
	List(ctx context.Context, tenant TenantID) ([]*WorkPackage, error)

	// Create inserts a work package.
	Create(ctx context.Context, wp *WorkPackage) error

	// MarkMigrated records the task that replaced the work package.
	MarkMigrated(ctx context.Context, id, taskID string) error
}

// ReportRepository stores the per-task report rows of one report kind.
type ReportRepository[P ReportData] interface {
	// Get returns the report for the task stamped with the given tenant.
	// Rows stamped with any other tenant are invisible. Returns nil if not found.
	Get(ctx context.Context, taskID string, tenant TenantID) (*Report[P], error)

	// Upsert inserts or updates the task's report row. Returns
	// ErrReportTenantMismatch if the existing row carries another tenant.
	Upsert(ctx context.Context, report *Report[P]) error
}

// TxRepositories are repositories bound to one store transaction.
// Code running inside InTx must read through these only: the store
// may hold a lock that its non-transactional repositories also take.
type TxRepositories struct {
	Tasks        TaskRepository
	History      HistoryRepository
	WorkPackages WorkPackageRepository
	Users        UserRepository
}

// Transactor runs a function atomically against task, history, work package and user state.
type Transactor interface {
	// InTx commits all writes made through tx if fn returns nil and discards them otherwise.
	InTx(ctx context.Context, fn func(ctx context.Context, tx TxRepositories) error) error
}

// Logger writes leveled log lines, optionally scoped to a task.
// An empty taskID logs globally.
type Logger interface {
	Debug(taskID, category, msg string)
	Info(taskID, category, msg string)
	Warn(taskID, category, msg string)
	Error(taskID, category, msg string)
}

// NopLogger discards all log lines.
type NopLogger struct{}

// Debug implements Logger.
func (NopLogger) Debug(string, string, string) {}

// Info implements Logger.
func (NopLogger) Info(string, string, string) {}

// Warn implements Logger.
func (NopLogger) Warn(string, string, string) {}

// Error implements Logger.
func (NopLogger) Error(string, string, string) {}

// Clock provides time operations for testability.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
}

// RealClock implements Clock using the system clock.
type RealClock struct{}

// Now returns the current time.
func (RealClock) Now() time.Time {
	return time.Now()
}
