package usecase

import (
	"context"
	"fmt"

	"github.com/fieldlab/fieldops/internal/domain"
)

// checkVersion fails when the caller acted on an older snapshot of the task.
// A zero expected version skips the check.
func checkVersion(task *domain.Task, expected int64) error {
	if expected != 0 && expected != task.Version {
		return fmt.Errorf("%w: task %s is at version %d, expected %d", domain.ErrVersionMismatch, task.ID, task.Version, expected)
	}
	return nil
}

// projectNumber returns the project number for notification text,
// falling back to the project ID if the project cannot be read.
func projectNumber(ctx context.Context, projects domain.ProjectRepository, task *domain.Task, logger domain.Logger) string {
	project, err := projects.Get(ctx, task.ProjectID)
	if err != nil {
		logger.Warn(task.ID, "notify", fmt.Sprintf("get project %s: %v", task.ProjectID, err))
		return task.ProjectID
	}
	if project == nil {
		return task.ProjectID
	}
	return project.Number
}

func loggerOrNop(logger domain.Logger) domain.Logger {
	if logger == nil {
		return domain.NopLogger{}
	}
	return logger
}
