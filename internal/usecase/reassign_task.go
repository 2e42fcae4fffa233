package usecase

import (
	"context"
	"fmt"

	"github.com/fieldlab/fieldops/internal/domain"
	"github.com/fieldlab/fieldops/internal/usecase/shared"
)

// ReassignTaskInput contains the parameters for reassigning a task.
type ReassignTaskInput struct {
	Actor           domain.Actor // Acting admin
	TaskID          string       // Task to reassign (required)
	TechnicianID    string       // New technician (empty = unassign)
	ExpectedVersion int64        // Version the caller last saw (0 = skip check)
}

// ReassignTaskOutput contains the result of a reassignment.
type ReassignTaskOutput struct {
	Task    *domain.Task         // The task after reassignment
	Entry   *domain.HistoryEntry // The REASSIGNED entry (nil when nothing changed)
	Changed bool                 // False when the technician was already assigned
}

// ReassignTask binds a task to a different technician.
type ReassignTask struct {
	tx         domain.Transactor
	projects   domain.ProjectRepository
	dispatcher *shared.Dispatcher
	clock      domain.Clock
	logger     domain.Logger
}

// NewReassignTask creates a new ReassignTask use case.
func NewReassignTask(
	tx domain.Transactor,
	projects domain.ProjectRepository,
	dispatcher *shared.Dispatcher,
	clock domain.Clock,
	logger domain.Logger,
) *ReassignTask {
	return &ReassignTask{
		tx:         tx,
		projects:   projects,
		dispatcher: dispatcher,
		clock:      clock,
		logger:     loggerOrNop(logger),
	}
}

// Execute reassigns the task. Reassigning to the current technician is a no-op.
// Binding a technician to an unassigned task puts it back into ASSIGNED.
func (uc *ReassignTask) Execute(ctx context.Context, in ReassignTaskInput) (*ReassignTaskOutput, error) {
	if err := shared.RequireAdmin(in.Actor); err != nil {
		return nil, err
	}

	var (
		task    *domain.Task
		entry   *domain.HistoryEntry
		newTech *domain.User
	)
	err := uc.tx.InTx(ctx, func(ctx context.Context, tx domain.TxRepositories) error {
		t, err := shared.GetTaskForActor(ctx, tx.Tasks, in.TaskID, in.Actor)
		if err != nil {
			return err
		}
		task = t

		if sameAssignee(t, in.TechnicianID) {
			return nil
		}
		if t.Status == domain.StatusApproved {
			return domain.ErrTaskApproved
		}
		if err := checkVersion(t, in.ExpectedVersion); err != nil {
			return err
		}

		if in.TechnicianID != "" {
			newTech, err = shared.GetTechnician(ctx, tx.Users, in.TechnicianID, t.TenantID)
			if err != nil {
				return err
			}
		}
		oldLabel, err := technicianLabel(ctx, tx.Users, t.AssignedTechnicianID)
		if err != nil {
			return err
		}

		var notes shared.ChangeNotes
		notes.Add(fmt.Sprintf("reassigned from %s to %s", oldLabel, newTech.Label()))

		wasUnassigned := !t.IsAssigned()
		if newTech == nil {
			t.AssignedTechnicianID = nil
		} else {
			id := newTech.ID
			t.AssignedTechnicianID = &id
			if wasUnassigned && t.Status != domain.StatusAssigned {
				notes.Changed("status", string(t.Status), string(domain.StatusAssigned))
				t.Status = domain.StatusAssigned
			}
		}
		t.UpdatedAt = uc.clock.Now()

		if err := tx.Tasks.Update(ctx, t); err != nil {
			return fmt.Errorf("update task: %w", err)
		}
		entry = shared.NewHistoryEntry(uc.clock, t, in.Actor, domain.HistoryReassigned, notes.String())
		if err := tx.History.Append(ctx, entry); err != nil {
			return fmt.Errorf("append history: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return &ReassignTaskOutput{Task: task}, nil
	}

	uc.logger.Info(task.ID, "assign", entry.Note)
	if newTech != nil {
		number := projectNumber(ctx, uc.projects, task, uc.logger)
		uc.dispatcher.NotifyUser(ctx, task, newTech.ID, shared.AssignedMessage(task.Kind, number, task.Title))
	}

	return &ReassignTaskOutput{Task: task, Entry: entry, Changed: true}, nil
}

// technicianLabel names the currently assigned technician for the history note.
func technicianLabel(ctx context.Context, users domain.UserRepository, id *string) (string, error) {
	if id == nil || *id == "" {
		return domain.UnassignedLabel, nil
	}
	user, err := users.Get(ctx, *id)
	if err != nil {
		return "", fmt.Errorf("get user: %w", err)
	}
	return user.Label(), nil
}

func sameAssignee(task *domain.Task, technicianID string) bool {
	if technicianID == "" {
		return !task.IsAssigned()
	}
	return task.IsAssignedTo(technicianID)
}
