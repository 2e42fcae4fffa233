// Package usecase contains application use cases.
package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/fieldlab/fieldops/internal/domain"
	"github.com/fieldlab/fieldops/internal/usecase/shared"
)

// NewTaskInput contains the parameters for creating a new task.
// Fields are ordered to minimize memory padding.
type NewTaskInput struct {
	ReportDueDate *domain.Date         // Report due date (optional)
	Field         domain.FieldSchedule // Field date or range (optional)
	Actor         domain.Actor         // Creating admin
	ProjectID     string               // Owning project (required)
	Title         string               // Task title (required)
	LocationNotes string               // Site directions (optional)
	TechnicianID  string               // Assigned technician (optional)
	Kind          domain.TaskKind      // Task kind (required, immutable)
}

// NewTaskOutput contains the result of creating a new task.
type NewTaskOutput struct {
	Task *domain.Task // The created task
}

// NewTask is the use case for creating a new task.
type NewTask struct {
	tx         domain.Transactor
	projects   domain.ProjectRepository
	users      domain.UserRepository
	dispatcher *shared.Dispatcher
	clock      domain.Clock
	logger     domain.Logger
}

// NewNewTask creates a new NewTask use case.
func NewNewTask(
	tx domain.Transactor,
	projects domain.ProjectRepository,
	users domain.UserRepository,
	dispatcher *shared.Dispatcher,
	clock domain.Clock,
	logger domain.Logger,
) *NewTask {
	return &NewTask{
		tx:         tx,
		projects:   projects,
		users:      users,
		dispatcher: dispatcher,
		clock:      clock,
		logger:     loggerOrNop(logger),
	}
}

// Execute creates a new task with the given input.
// The task inherits the tenant of its project and starts in ASSIGNED.
func (uc *NewTask) Execute(ctx context.Context, in NewTaskInput) (*NewTaskOutput, error) {
	if err := shared.RequireAdmin(in.Actor); err != nil {
		return nil, err
	}

	// Validate input
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, domain.ErrEmptyTitle
	}
	if !in.Kind.IsValid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidKind, in.Kind)
	}
	if err := in.Field.Validate(); err != nil {
		return nil, err
	}

	// Project must exist in the actor's tenant
	project, err := uc.projects.Get(ctx, in.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	if project == nil || project.TenantID != in.Actor.TenantID {
		return nil, domain.ErrProjectNotFound
	}

	var technician *domain.User
	if in.TechnicianID != "" {
		technician, err = shared.GetTechnician(ctx, uc.users, in.TechnicianID, project.TenantID)
		if err != nil {
			return nil, err
		}
	}

	now := uc.clock.Now()
	task := &domain.Task{
		ID:            shared.NewID(),
		TenantID:      project.TenantID,
		ProjectID:     project.ID,
		Kind:          in.Kind,
		Status:        domain.StatusAssigned,
		Title:         title,
		ReportDueDate: in.ReportDueDate,
		Field:         in.Field,
		LocationNotes: in.LocationNotes,
		CreatedBy:     in.Actor.UserID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if technician != nil {
		task.AssignedTechnicianID = &technician.ID
	}

	err = uc.tx.InTx(ctx, func(ctx context.Context, tx domain.TxRepositories) error {
		if err := tx.Tasks.Create(ctx, task); err != nil {
			return fmt.Errorf("create task: %w", err)
		}
		entry := shared.NewHistoryEntry(uc.clock, task, in.Actor, domain.HistoryStatusChanged, domain.NoteTaskCreated)
		if err := tx.History.Append(ctx, entry); err != nil {
			return fmt.Errorf("append history: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info(task.ID, "task", fmt.Sprintf("created %s task %q in project %s", task.Kind, task.Title, project.Number))

	if technician != nil {
		uc.dispatcher.NotifyUser(ctx, task, technician.ID, shared.AssignedMessage(task.Kind, project.Number, task.Title))
	}

	return &NewTaskOutput{Task: task}, nil
}
