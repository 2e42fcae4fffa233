package usecase

import (
	"context"
	"fmt"

	"github.com/fieldlab/fieldops/internal/domain"
	"github.com/fieldlab/fieldops/internal/usecase/shared"
)

// GetHistoryInput contains the parameters for reading a task's history.
type GetHistoryInput struct {
	Actor  domain.Actor
	TaskID string
}

// GetHistoryOutput contains a task's history, newest first.
type GetHistoryOutput struct {
	Entries []domain.HistoryEntry
}

// GetHistory reads the audit log of a task.
type GetHistory struct {
	tasks   domain.TaskRepository
	history domain.HistoryRepository
}

// NewGetHistory creates a new GetHistory use case.
func NewGetHistory(tasks domain.TaskRepository, history domain.HistoryRepository) *GetHistory {
	return &GetHistory{
		tasks:   tasks,
		history: history,
	}
}

// Execute returns the task's history entries ordered by timestamp descending.
func (uc *GetHistory) Execute(ctx context.Context, in GetHistoryInput) (*GetHistoryOutput, error) {
	task, err := shared.GetTaskForActor(ctx, uc.tasks, in.TaskID, in.Actor)
	if err != nil {
		return nil, err
	}
	entries, err := uc.history.ListByTask(ctx, task.ID)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	return &GetHistoryOutput{Entries: entries}, nil
}
