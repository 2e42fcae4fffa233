package usecase

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fieldlab/fieldops/internal/domain"
	"github.com/fieldlab/fieldops/internal/usecase/shared"
)

// ShowLogsInput contains the parameters for showing a task's operational log.
type ShowLogsInput struct {
	Actor  domain.Actor
	TaskID string
	Lines  int // Number of lines to display from the end (0 = all)
}

// ShowLogsOutput contains the result of showing a task log.
type ShowLogsOutput struct {
	LogPath string // Path to the log file
	Content string // Log file content
}

// ShowLogs is the use case for viewing the per-task operational log.
// Unlike the history log it also holds delivery failures and warnings.
type ShowLogs struct {
	tasks   domain.TaskRepository
	dataDir string
}

// NewShowLogs creates a new ShowLogs use case.
func NewShowLogs(tasks domain.TaskRepository, dataDir string) *ShowLogs {
	return &ShowLogs{
		tasks:   tasks,
		dataDir: dataDir,
	}
}

// Execute reads and returns the task log content.
func (uc *ShowLogs) Execute(ctx context.Context, in ShowLogsInput) (*ShowLogsOutput, error) {
	if err := shared.RequireAdmin(in.Actor); err != nil {
		return nil, err
	}
	task, err := shared.GetTaskForActor(ctx, uc.tasks, in.TaskID, in.Actor)
	if err != nil {
		return nil, err
	}

	logPath := domain.TaskLogPath(uc.dataDir, task.ID)
	content, err := os.ReadFile(logPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("task %s: %w", task.ID, domain.ErrNoTaskLog)
		}
		return nil, fmt.Errorf("read log file: %w", err)
	}

	result := strings.TrimRight(string(content), "\n")
	if in.Lines > 0 {
		lines := strings.Split(result, "\n")
		if len(lines) > in.Lines {
			lines = lines[len(lines)-in.Lines:]
		}
		result = strings.Join(lines, "\n")
	}

	return &ShowLogsOutput{
		LogPath: logPath,
		Content: result,
	}, nil
}
