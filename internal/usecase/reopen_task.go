package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/fieldlab/fieldops/internal/domain"
	"github.com/fieldlab/fieldops/internal/usecase/shared"
)

// ReopenTaskInput contains the parameters for reopening an approved task.
type ReopenTaskInput struct {
	Actor           domain.Actor // Acting admin
	TaskID          string       // Approved task (required)
	Reason          string       // Why the approval is withdrawn (required)
	ExpectedVersion int64        // Version the caller last saw (0 = skip check)
}

// ReopenTaskOutput contains the result of reopening a task.
type ReopenTaskOutput struct {
	Task  *domain.Task
	Entry *domain.HistoryEntry
}

// ReopenTask withdraws an approval and returns the task to review.
// It is the only way to edit an approved task.
type ReopenTask struct {
	tx     domain.Transactor
	clock  domain.Clock
	logger domain.Logger
}

// NewReopenTask creates a new ReopenTask use case.
func NewReopenTask(tx domain.Transactor, clock domain.Clock, logger domain.Logger) *ReopenTask {
	return &ReopenTask{
		tx:     tx,
		clock:  clock,
		logger: loggerOrNop(logger),
	}
}

// Execute moves an APPROVED task back to READY_FOR_REVIEW with an audited reason.
func (uc *ReopenTask) Execute(ctx context.Context, in ReopenTaskInput) (*ReopenTaskOutput, error) {
	if err := shared.RequireAdmin(in.Actor); err != nil {
		return nil, err
	}
	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		return nil, domain.ErrReasonRequired
	}

	var (
		task  *domain.Task
		entry *domain.HistoryEntry
	)
	err := uc.tx.InTx(ctx, func(ctx context.Context, tx domain.TxRepositories) error {
		t, err := shared.GetTaskForActor(ctx, tx.Tasks, in.TaskID, in.Actor)
		if err != nil {
			return err
		}
		if t.Status != domain.StatusApproved {
			return fmt.Errorf("%w: only approved tasks can be reopened (status %s)", domain.ErrInvalidTransition, t.Status)
		}
		if err := checkVersion(t, in.ExpectedVersion); err != nil {
			return err
		}

		t.Status = domain.StatusReadyForReview
		t.CompletedAt = nil
		t.UpdatedAt = uc.clock.Now()
		if err := tx.Tasks.Update(ctx, t); err != nil {
			return fmt.Errorf("update task: %w", err)
		}
		entry = shared.NewHistoryEntry(uc.clock, t, in.Actor, domain.HistoryStatusChanged, "reopened: "+reason)
		if err := tx.History.Append(ctx, entry); err != nil {
			return fmt.Errorf("append history: %w", err)
		}
		task = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info(task.ID, "status", fmt.Sprintf("reopened by %s: %s", in.Actor.UserID, reason))
	return &ReopenTaskOutput{Task: task, Entry: entry}, nil
}
