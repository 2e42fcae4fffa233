package jsonstore

import (
	"context"
	"fmt"
	"slices"
	"strings"

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

type taskRepo struct {
	s  *Store
	tx *storeData
}

// Get retrieves a task by ID.
func (r *taskRepo) Get(_ context.Context, id string) (*domain.Task, error) {
	var task *domain.Task
	err := r.s.view(r.tx, func(data *storeData) error {
		if rec, ok := data.Tasks[id]; ok {
			task = rec.toDomain()
		}
		return nil
	})
	return task, err
}

// List retrieves tasks matching the filter, ordered by creation time.
func (r *taskRepo) List(_ context.Context, filter domain.TaskFilter) ([]*domain.Task, error) {
	var tasks []*domain.Task
	err := r.s.view(r.tx, func(data *storeData) error {
		for _, rec := range data.Tasks {
			t := rec.toDomain()
			if matchesFilter(t, filter) {
				tasks = append(tasks, t)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.SortFunc(tasks, func(a, b *domain.Task) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return tasks, nil
}

func matchesFilter(t *domain.Task, filter domain.TaskFilter) bool {
	if t.TenantID != filter.TenantID {
		return false
	}
	if filter.AssignedTo != nil && !t.IsAssignedTo(*filter.AssignedTo) {
		return false
	}
	if filter.ProjectID != "" && t.ProjectID != filter.ProjectID {
		return false
	}
	if len(filter.Statuses) > 0 && !slices.Contains(filter.Statuses, t.Status) {
		return false
	}
	return true
}

// Create inserts a new task with version 1.
func (r *taskRepo) Create(_ context.Context, task *domain.Task) error {
	return r.s.update(r.tx, func(data *storeData) error {
		if _, exists := data.Tasks[task.ID]; exists {
			return fmt.Errorf("task %s already exists", task.ID)
		}
		task.Version = 1
		data.Tasks[task.ID] = toTaskRecord(task)
		return nil
	})
}

// Update stores the task if the persisted version still matches.
func (r *taskRepo) Update(_ context.Context, task *domain.Task) error {
	return r.s.update(r.tx, func(data *storeData) error {
		current, ok := data.Tasks[task.ID]
		if !ok {
			return domain.ErrTaskNotFound
		}
		if current.Version != task.Version {
			return domain.ErrVersionMismatch
		}
		task.Version++
		data.Tasks[task.ID] = toTaskRecord(task)
		return nil
	})
}

type historyRepo struct {
	s  *Store
	tx *storeData
}

// Append stores a new entry.
func (r *historyRepo) Append(_ context.Context, entry *domain.HistoryEntry) error {
	return r.s.update(r.tx, func(data *storeData) error {
		data.History = append(data.History, toHistoryRecord(entry))
		return nil
	})
}

// ListByTask returns a task's entries, newest first.
func (r *historyRepo) ListByTask(_ context.Context, taskID string) ([]domain.HistoryEntry, error) {
	var entries []domain.HistoryEntry
	err := r.s.view(r.tx, func(data *storeData) error {
		for _, rec := range data.History {
			if rec.TaskID == taskID {
				entries = append(entries, rec.toDomain())
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(entries, func(a, b domain.HistoryEntry) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(b.ID, a.ID)
	})
	return entries, nil
}

type projectRepo struct {
	s  *Store
	tx *storeData
}

// Get retrieves a project by ID.
func (r *projectRepo) Get(_ context.Context, id string) (*domain.Project, error) {
	var project *domain.Project
	err := r.s.view(r.tx, func(data *storeData) error {
		if rec, ok := data.Projects[id]; ok {
			project = rec.toDomain()
		}
		return nil
	})
	return project, err
}

// List returns the tenant's projects ordered by number.
func (r *projectRepo) List(_ context.Context, tenant domain.TenantID) ([]*domain.Project, error) {
	var projects []*domain.Project
	err := r.s.view(r.tx, func(data *storeData) error {
		for _, rec := range data.Projects {
			if p := rec.toDomain(); p.TenantID == tenant {
				projects = append(projects, p)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.SortFunc(projects, func(a, b *domain.Project) int {
		return strings.Compare(a.Number, b.Number)
	})
	return projects, nil
}

// Create inserts a project, rejecting duplicate numbers within the tenant.
func (r *projectRepo) Create(_ context.Context, project *domain.Project) error {
	return r.s.update(r.tx, func(data *storeData) error {
		for _, rec := range data.Projects {
			if tenantFromNullable(rec.TenantID) == project.TenantID && rec.Number == project.Number {
				return domain.ErrDuplicateProjectNumber
			}
		}
		data.Projects[project.ID] = toProjectRecord(project)
		return nil
	})
}

type userRepo struct {
	s  *Store
	tx *storeData
}

// Get retrieves a user by ID.
func (r *userRepo) Get(_ context.Context, id string) (*domain.User, error) {
	var user *domain.User
	err := r.s.view(r.tx, func(data *storeData) error {
		if rec, ok := data.Users[id]; ok {
			user = rec.toDomain()
		}
		return nil
	})
	return user, err
}

// ListByRole returns the tenant's users of a role, ordered by ID.
func (r *userRepo) ListByRole(_ context.Context, tenant domain.TenantID, role domain.Role) ([]*domain.User, error) {
	var users []*domain.User
	err := r.s.view(r.tx, func(data *storeData) error {
		for _, rec := range data.Users {
			if u := rec.toDomain(); u.TenantID == tenant && u.Role == role {
				users = append(users, u)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.SortFunc(users, func(a, b *domain.User) int {
		return strings.Compare(a.ID, b.ID)
	})
	return users, nil
}

// Create inserts a user.
func (r *userRepo) Create(_ context.Context, user *domain.User) error {
	return r.s.update(r.tx, func(data *storeData) error {
		if _, exists := data.Users[user.ID]; exists {
			return fmt.Errorf("user %s already exists", user.ID)
		}
		data.Users[user.ID] = toUserRecord(user)
		return nil
	})
}

type notificationRepo struct {
	s  *Store
	tx *storeData
}

// Create inserts a notification.
func (r *notificationRepo) Create(_ context.Context, n *domain.Notification) error {
	return r.s.update(r.tx, func(data *storeData) error {
		data.Notifications = append(data.Notifications, toNotificationRecord(n))
		return nil
	})
}

// Get retrieves a notification by ID.
func (r *notificationRepo) Get(_ context.Context, id string) (*domain.Notification, error) {
	var n *domain.Notification
	err := r.s.view(r.tx, func(data *storeData) error {
		for _, rec := range data.Notifications {
			if rec.ID == id {
				n = rec.toDomain()
				break
			}
		}
		return nil
	})
	return n, err
}

// ListForRecipient returns a user's notifications, newest first.
func (r *notificationRepo) ListForRecipient(_ context.Context, recipientID string, unreadOnly bool) ([]*domain.Notification, error) {
	var out []*domain.Notification
	err := r.s.view(r.tx, func(data *storeData) error {
		for i := len(data.Notifications) - 1; i >= 0; i-- {
			rec := data.Notifications[i]
			if rec.RecipientID != recipientID || (unreadOnly && rec.IsRead) {
				continue
			}
			out = append(out, rec.toDomain())
		}
		return nil
	})
	return out, err
}

// MarkRead flags a notification as read.
func (r *notificationRepo) MarkRead(_ context.Context, id string) error {
	return r.s.update(r.tx, func(data *storeData) error {
		for _, rec := range data.Notifications {
			if rec.ID == id {
				rec.IsRead = true
				return nil
			}
		}
		return domain.ErrNotificationNotFound
	})
}

type workPackageRepo struct {
	s  *Store
	tx *storeData
}

// Get retrieves a work package by ID.
func (r *workPackageRepo) Get(_ context.Context, id string) (*domain.WorkPackage, error) {
	var wp *domain.WorkPackage
	err := r.s.view(r.tx, func(data *storeData) error {
		if rec, ok := data.WorkPackages[id]; ok {
			wp = rec.toDomain()
		}
		return nil
	})
	return wp, err
}

// List returns the tenant's work packages ordered by creation time.
func (r *workPackageRepo) List(_ context.Context, tenant domain.TenantID) ([]*domain.WorkPackage, error) {
	var wps []*domain.WorkPackage
	err := r.s.view(r.tx, func(data *storeData) error {
		for _, rec := range data.WorkPackages {
			if wp := rec.toDomain(); wp.TenantID == tenant {
				wps = append(wps, wp)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.SortFunc(wps, func(a, b *domain.WorkPackage) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return wps, nil
}

// Create inserts a work package.
func (r *workPackageRepo) Create(_ context.Context, wp *domain.WorkPackage) error {
	return r.s.update(r.tx, func(data *storeData) error {
		if _, exists := data.WorkPackages[wp.ID]; exists {
			return fmt.Errorf("work package %s already exists", wp.ID)
		}
		data.WorkPackages[wp.ID] = toWorkPackageRecord(wp)
		return nil
	})
}

// MarkMigrated records the task that replaced the work package.
func (r *workPackageRepo) MarkMigrated(_ context.Context, id, taskID string) error {
	return r.s.update(r.tx, func(data *storeData) error {
		rec, ok := data.WorkPackages[id]
		if !ok {
			return domain.ErrWorkPackageNotFound
		}
		rec.MigratedTaskID = &taskID
		return nil
	})
}
