// Package shared provides shared utilities for use cases.
package shared

import (
	"context"
	"fmt"

	"github.com/fieldlab/fieldops/internal/domain"
)

// GetTask retrieves a task by ID and returns domain.ErrTaskNotFound if not found.
// This centralizes the common pattern of:
//
//	task, err := repo.Get(ctx, taskID)
//	if err != nil { return nil, fmt.Errorf("get task: %w", err) }
//	if task == nil { return nil, domain.ErrTaskNotFound }
func GetTask(ctx context.Context, repo domain.TaskRepository, taskID string) (*domain.Task, error) {
	task, err := repo.Get(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	if task == nil {
		return nil, domain.ErrTaskNotFound
	}
	return task, nil
}

// GetTaskForActor retrieves a task and applies the access rules every operation shares:
//   - a task in another tenant is reported as not found
//   - a technician only reaches tasks assigned to them
func GetTaskForActor(ctx context.Context, repo domain.TaskRepository, taskID string, actor domain.Actor) (*domain.Task, error) {
	task, err := GetTask(ctx, repo, taskID)
	if err != nil {
		return nil, err
	}
	if err := CheckTaskAccess(task, actor); err != nil {
		return nil, err
	}
	return task, nil
}

// CheckTaskAccess applies tenant isolation and technician ownership to a loaded task.
func CheckTaskAccess(task *domain.Task, actor domain.Actor) error {
	if task.TenantID != actor.TenantID {
		return domain.ErrTaskNotFound
	}
	switch actor.Role {
	case domain.RoleAdmin:
		return nil
	case domain.RoleTechnician:
		if !task.IsAssignedTo(actor.UserID) {
			return domain.ErrNotAssigned
		}
		return nil
	default:
		return domain.ErrForbidden
	}
}

// RequireAdmin fails with domain.ErrAdminOnly unless the actor is an admin.
func RequireAdmin(actor domain.Actor) error {
	if !actor.IsAdmin() {
		return domain.ErrAdminOnly
	}
	return nil
}

// GetTechnician loads a user and checks it is a technician of the tenant.
func GetTechnician(ctx context.Context, users domain.UserRepository, userID string, tenant domain.TenantID) (*domain.User, error) {
	user, err := users.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil || user.TenantID != tenant || user.Role != domain.RoleTechnician {
		return nil, domain.ErrNotTechnician
	}
	return user, nil
}
