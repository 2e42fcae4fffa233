package pgstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/fieldlab/fieldops/internal/domain"
)

// Ensure repositories implement the domain interfaces.
var (
	_ domain.TaskRepository         = (*taskRepo)(nil)
	_ domain.HistoryRepository      = (*historyRepo)(nil)
	_ domain.ProjectRepository      = (*projectRepo)(nil)
	_ domain.UserRepository         = (*userRepo)(nil)
	_ domain.NotificationRepository = (*notificationRepo)(nil)
	_ domain.WorkPackageRepository  = (*workPackageRepo)(nil)
)

// getOne scans a single row into T, returning nil when there is none.
func getOne[T any](ctx context.Context, q querier, sql string, args ...any) (*T, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	row, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[T])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// getAll scans every row into T.
func getAll[T any](ctx context.Context, q querier, sql string, args ...any) ([]T, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[T])
}

// placeholders returns "$1, $2, ..., $n".
func placeholders(n int) string {
	ps := make([]string, n)
	for i := range ps {
		ps[i] = fmt.Sprintf("$%d", i+1)
	}
	return strings.Join(ps, ", ")
}

type taskRepo struct {
	q querier
}

// Get retrieves a task by ID.
func (r *taskRepo) Get(ctx context.Context, id string) (*domain.Task, error) {
	row, err := getOne[taskRow](ctx, r.q, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("get task %s: %w", id, err)
	}
	if row == nil {
		return nil, nil
	}
	return row.toDomain(), nil
}

// List retrieves tasks matching the filter, ordered by creation time.
func (r *taskRepo) List(ctx context.Context, filter domain.TaskFilter) ([]*domain.Task, error) {
	where := []string{"tenant_id IS NOT DISTINCT FROM $1"}
	args := []any{tenantToNullable(filter.TenantID)}
	if filter.AssignedTo != nil {
		args = append(args, *filter.AssignedTo)
		where = append(where, fmt.Sprintf("assigned_technician_id = $%d", len(args)))
	}
	if filter.ProjectID != "" {
		args = append(args, filter.ProjectID)
		where = append(where, fmt.Sprintf("project_id = $%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		args = append(args, statuses)
		where = append(where, fmt.Sprintf("status = ANY($%d)", len(args)))
	}

	query := `SELECT ` + taskColumns + ` FROM tasks WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY created_at, id`
	rows, err := getAll[taskRow](ctx, r.q, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	tasks := make([]*domain.Task, 0, len(rows))
	for _, row := range rows {
		tasks = append(tasks, row.toDomain())
	}
	return tasks, nil
}

// Create inserts a new task with version 1.
func (r *taskRepo) Create(ctx context.Context, task *domain.Task) error {
	task.Version = 1
	row := toTaskRow(task)
	_, err := r.q.Exec(ctx,
		`INSERT INTO tasks (`+taskColumns+`) VALUES (`+placeholders(23)+`)`, row.args()...)
	if err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

// Update stores the task if the persisted version still matches.
func (r *taskRepo) Update(ctx context.Context, task *domain.Task) error {
	row := toTaskRow(task)
	tag, err := r.q.Exec(ctx, `
		UPDATE tasks SET
			tenant_id = $2, project_id = $3, task_kind = $4, status = $5, title = $6,
			assigned_technician_id = $7, report_due_date = $8, field_date = $9, field_start = $10,
			field_end = $11, location_notes = $12, field_completed = $13, field_completed_at = $14,
			report_submitted = $15, submitted_at = $16, completed_at = $17, rejection_remarks = $18,
			resubmission_due_date = $19, created_by = $20, created_at = $21, updated_at = $22,
			version = version + 1
		WHERE id = $1 AND version = $23`, row.args()...)
	if err != nil {
		return fmt.Errorf("update task %s: %w", task.ID, err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM tasks WHERE id = $1)`, task.ID).Scan(&exists); err != nil {
			return fmt.Errorf("update task %s: %w", task.ID, err)
		}
		if !exists {
			return domain.ErrTaskNotFound
		}
		return domain.ErrVersionMismatch
	}
	task.Version++
	return nil
}

type historyRepo struct {
	q querier
}

// Append stores a new entry.
func (r *historyRepo) Append(ctx context.Context, entry *domain.HistoryEntry) error {
	row := toHistoryRow(entry)
	_, err := r.q.Exec(ctx, `INSERT INTO task_history (`+historyColumns+`) VALUES (`+placeholders(9)+`)`,
		row.ID, row.TaskID, row.TenantID, row.ActorID, row.ActorName, row.ActorRole, row.Action, row.Note, row.CreatedAt)
	if err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}

// ListByTask returns a task's entries, newest first.
func (r *historyRepo) ListByTask(ctx context.Context, taskID string) ([]domain.HistoryEntry, error) {
	rows, err := getAll[historyRow](ctx, r.q,
		`SELECT `+historyColumns+` FROM task_history WHERE task_id = $1 ORDER BY created_at DESC, id DESC`, taskID)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	entries := make([]domain.HistoryEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, row.toDomain())
	}
	return entries, nil
}

type projectRepo struct {
	q querier
}

// Get retrieves a project by ID.
func (r *projectRepo) Get(ctx context.Context, id string) (*domain.Project, error) {
	row, err := getOne[projectRow](ctx, r.q, `SELECT `+projectColumns+` FROM projects WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("get project %s: %w", id, err)
	}
	if row == nil {
		return nil, nil
	}
	return row.toDomain(), nil
}

// List returns the tenant's projects ordered by number.
func (r *projectRepo) List(ctx context.Context, tenant domain.TenantID) ([]*domain.Project, error) {
	rows, err := getAll[projectRow](ctx, r.q,
		`SELECT `+projectColumns+` FROM projects WHERE tenant_id IS NOT DISTINCT FROM $1 ORDER BY project_number`,
		tenantToNullable(tenant))
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	projects := make([]*domain.Project, 0, len(rows))
	for _, row := range rows {
		projects = append(projects, row.toDomain())
	}
	return projects, nil
}

// Create inserts a project, rejecting duplicate numbers within the tenant.
func (r *projectRepo) Create(ctx context.Context, project *domain.Project) error {
	row := toProjectRow(project)
	_, err := r.q.Exec(ctx, `INSERT INTO projects (`+projectColumns+`) VALUES (`+placeholders(6)+`)`,
		row.ID, row.TenantID, row.Number, row.Name, row.CreatedBy, row.CreatedAt)
	if isUniqueViolation(err) {
		return domain.ErrDuplicateProjectNumber
	}
	if err != nil {
		return fmt.Errorf("create project: %w", err)
	}
	return nil
}

type userRepo struct {
	q querier
}

// Get retrieves a user by ID.
func (r *userRepo) Get(ctx context.Context, id string) (*domain.User, error) {
	row, err := getOne[userRow](ctx, r.q, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", id, err)
	}
	if row == nil {
		return nil, nil
	}
	return row.toDomain(), nil
}

// ListByRole returns the tenant's users of a role, ordered by ID.
func (r *userRepo) ListByRole(ctx context.Context, tenant domain.TenantID, role domain.Role) ([]*domain.User, error) {
	rows, err := getAll[userRow](ctx, r.q,
		`SELECT `+userColumns+` FROM users WHERE tenant_id IS NOT DISTINCT FROM $1 AND role = $2 ORDER BY id`,
		tenantToNullable(tenant), string(role))
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	users := make([]*domain.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, row.toDomain())
	}
	return users, nil
}

// Create inserts a user.
func (r *userRepo) Create(ctx context.Context, user *domain.User) error {
	row := toUserRow(user)
	_, err := r.q.Exec(ctx, `INSERT INTO users (`+userColumns+`) VALUES (`+placeholders(5)+`)`,
		row.ID, row.TenantID, row.Email, row.DisplayName, row.Role)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

type notificationRepo struct {
	q querier
}

// Create inserts a notification.
func (r *notificationRepo) Create(ctx context.Context, n *domain.Notification) error {
	row := toNotificationRow(n)
	_, err := r.q.Exec(ctx, `INSERT INTO notifications (`+notificationColumns+`) VALUES (`+placeholders(8)+`)`,
		row.ID, row.TenantID, row.RecipientID, row.TaskID, row.ProjectID, row.Message, row.IsRead, row.CreatedAt)
	if err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

// Get retrieves a notification by ID.
func (r *notificationRepo) Get(ctx context.Context, id string) (*domain.Notification, error) {
	row, err := getOne[notificationRow](ctx, r.q, `SELECT `+notificationColumns+` FROM notifications WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("get notification %s: %w", id, err)
	}
	if row == nil {
		return nil, nil
	}
	return row.toDomain(), nil
}

// ListForRecipient returns a user's notifications, newest first.
func (r *notificationRepo) ListForRecipient(ctx context.Context, recipientID string, unreadOnly bool) ([]*domain.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE recipient_id = $1`
	if unreadOnly {
		query += ` AND NOT is_read`
	}
	query += ` ORDER BY created_at DESC, id DESC`
	rows, err := getAll[notificationRow](ctx, r.q, query, recipientID)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	out := make([]*domain.Notification, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

// MarkRead flags a notification as read.
func (r *notificationRepo) MarkRead(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `UPDATE notifications SET is_read = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotificationNotFound
	}
	return nil
}

type workPackageRepo struct {
	q querier
}

// Get retrieves a work package by ID.
func (r *workPackageRepo) Get(ctx context.Context, id string) (*domain.WorkPackage, error) {
	row, err := getOne[workPackageRow](ctx, r.q, `SELECT `+workPackageColumns+` FROM work_packages WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("get work package %s: %w", id, err)
	}
	if row == nil {
		return nil, nil
	}
	return row.toDomain(), nil
}

// List returns the tenant's work packages ordered by creation time.
func (r *workPackageRepo) List(ctx context.Context, tenant domain.TenantID) ([]*domain.WorkPackage, error) {
	rows, err := getAll[workPackageRow](ctx, r.q,
		`SELECT `+workPackageColumns+` FROM work_packages WHERE tenant_id IS NOT DISTINCT FROM $1 ORDER BY created_at, id`,
		tenantToNullable(tenant))
	if err != nil {
		return nil, fmt.Errorf("list work packages: %w", err)
	}
	wps := make([]*domain.WorkPackage, 0, len(rows))
	for _, row := range rows {
		wps = append(wps, row.toDomain())
	}
	return wps, nil
}

// Create inserts a work package.
func (r *workPackageRepo) Create(ctx context.Context, wp *domain.WorkPackage) error {
	row := toWorkPackageRow(wp)
	_, err := r.q.Exec(ctx, `INSERT INTO work_packages (`+workPackageColumns+`) VALUES (`+placeholders(9)+`)`,
		row.ID, row.TenantID, row.ProjectID, row.Kind, row.Title, row.AssignedTechnicianID,
		row.ReportDueDate, row.MigratedTaskID, row.CreatedAt)
	if err != nil {
		return fmt.Errorf("create work package: %w", err)
	}
	return nil
}

// MarkMigrated records the task that replaced the work package.
func (r *workPackageRepo) MarkMigrated(ctx context.Context, id, taskID string) error {
	tag, err := r.q.Exec(ctx, `UPDATE work_packages SET migrated_task_id = $2 WHERE id = $1`, id, taskID)
	if err != nil {
		return fmt.Errorf("mark work package migrated: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrWorkPackageNotFound
	}
	return nil
}
