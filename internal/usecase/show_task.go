package usecase

import (
	"context"
	"fmt"

	"github.com/fieldlab/fieldops/internal/domain"
	"github.com/fieldlab/fieldops/internal/usecase/shared"
)

// ShowTaskInput contains the parameters for showing a task.
type ShowTaskInput struct {
	Actor  domain.Actor // Acting user
	TaskID string       // Task to show (required)
}

// ShowTaskOutput contains the task and its context.
type ShowTaskOutput struct {
	Task       *domain.Task
	Project    *domain.Project // Nil if the project row is missing
	Technician *domain.User    // Nil if unassigned
}

// ShowTask is the use case for displaying task details.
type ShowTask struct {
	tasks    domain.TaskRepository
	projects domain.ProjectRepository
	users    domain.UserRepository
}

// NewShowTask creates a new ShowTask use case.
func NewShowTask(tasks domain.TaskRepository, projects domain.ProjectRepository, users domain.UserRepository) *ShowTask {
	return &ShowTask{
		tasks:    tasks,
		projects: projects,
		users:    users,
	}
}

// Execute returns the task if the actor may see it.
func (uc *ShowTask) Execute(ctx context.Context, in ShowTaskInput) (*ShowTaskOutput, error) {
	task, err := shared.GetTaskForActor(ctx, uc.tasks, in.TaskID, in.Actor)
	if err != nil {
		return nil, err
	}

	project, err := uc.projects.Get(ctx, task.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}

	var technician *domain.User
	if task.IsAssigned() {
		technician, err = uc.users.Get(ctx, *task.AssignedTechnicianID)
		if err != nil {
			return nil, fmt.Errorf("get user: %w", err)
		}
	}

	return &ShowTaskOutput{
		Task:       task,
		Project:    project,
		Technician: technician,
	}, nil
}
