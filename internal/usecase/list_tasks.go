package usecase

import (
	"context"
	"fmt"

	"github.com/fieldlab/fieldops/internal/domain"
)

// ListTasksInput contains the parameters for listing tasks.
type ListTasksInput struct {
	Actor     domain.Actor    // Acting user
	ProjectID string          // Filter by project (empty = all)
	Statuses  []domain.Status // Filter by status (empty = all)
}

// ListTasksOutput contains the tasks visible to the actor.
type ListTasksOutput struct {
	Tasks []*domain.Task
}

// ListTasks is the use case for listing tasks.
type ListTasks struct {
	tasks domain.TaskRepository
}

// NewListTasks creates a new ListTasks use case.
func NewListTasks(tasks domain.TaskRepository) *ListTasks {
	return &ListTasks{
		tasks: tasks,
	}
}

// Execute lists tasks in the actor's tenant.
// Technicians only see tasks assigned to them.
func (uc *ListTasks) Execute(ctx context.Context, in ListTasksInput) (*ListTasksOutput, error) {
	filter, err := actorFilter(in.Actor)
	if err != nil {
		return nil, err
	}
	for _, s := range in.Statuses {
		if !s.IsValid() {
			return nil, fmt.Errorf("%w: %q", domain.ErrInvalidStatus, s)
		}
	}
	filter.ProjectID = in.ProjectID
	filter.Statuses = in.Statuses

	tasks, err := uc.tasks.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return &ListTasksOutput{Tasks: tasks}, nil
}

// actorFilter scopes a task listing to what the actor may see.
func actorFilter(actor domain.Actor) (domain.TaskFilter, error) {
	filter := domain.TaskFilter{TenantID: actor.TenantID}
	switch actor.Role {
	case domain.RoleAdmin:
	case domain.RoleTechnician:
		id := actor.UserID
		filter.AssignedTo = &id
	default:
		return filter, domain.ErrForbidden
	}
	return filter, nil
}
