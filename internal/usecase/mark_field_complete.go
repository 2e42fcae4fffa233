package usecase

import (
	"context"
	"fmt"

	"github.com/fieldlab/fieldops/internal/domain"
	"github.com/fieldlab/fieldops/internal/usecase/shared"
)

// MarkFieldCompleteInput contains the parameters for marking field work complete.
type MarkFieldCompleteInput struct {
	Actor  domain.Actor // Admin or the assigned technician
	TaskID string       // Task whose field work is done (required)
}

// MarkFieldCompleteOutput contains the result of marking field work complete.
type MarkFieldCompleteOutput struct {
	Task    *domain.Task // The task after the call
	Changed bool         // False when field work was already complete
}

// MarkFieldComplete records that the field visit for a task is done.
type MarkFieldComplete struct {
	tx     domain.Transactor
	clock  domain.Clock
	logger domain.Logger
}

// NewMarkFieldComplete creates a new MarkFieldComplete use case.
func NewMarkFieldComplete(tx domain.Transactor, clock domain.Clock, logger domain.Logger) *MarkFieldComplete {
	return &MarkFieldComplete{
		tx:     tx,
		clock:  clock,
		logger: loggerOrNop(logger),
	}
}

// Execute marks field work complete. Calling it again is a no-op.
func (uc *MarkFieldComplete) Execute(ctx context.Context, in MarkFieldCompleteInput) (*MarkFieldCompleteOutput, error) {
	var (
		task    *domain.Task
		changed bool
	)
	err := uc.tx.InTx(ctx, func(ctx context.Context, tx domain.TxRepositories) error {
		t, err := shared.GetTaskForActor(ctx, tx.Tasks, in.TaskID, in.Actor)
		if err != nil {
			return err
		}
		task = t
		if t.FieldCompleted {
			return nil
		}
		if t.Status == domain.StatusApproved {
			return domain.ErrTaskApproved
		}

		now := uc.clock.Now()
		t.FieldCompleted = true
		t.FieldCompletedAt = &now
		t.UpdatedAt = now
		if err := tx.Tasks.Update(ctx, t); err != nil {
			return fmt.Errorf("update task: %w", err)
		}
		entry := shared.NewHistoryEntry(uc.clock, t, in.Actor, domain.HistoryStatusChanged, domain.NoteFieldCompleted)
		if err := tx.History.Append(ctx, entry); err != nil {
			return fmt.Errorf("append history: %w", err)
		}
		changed = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		uc.logger.Info(task.ID, "field", "field work marked complete by "+in.Actor.UserID)
	}
	return &MarkFieldCompleteOutput{Task: task, Changed: changed}, nil
}
