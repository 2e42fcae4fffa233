package usecase

import (
	"context"
	"fmt"

	"github.com/fieldlab/fieldops/internal/domain"
	"github.com/fieldlab/fieldops/internal/usecase/shared"
)

// AuditHistoryInput contains the parameters for a history audit.
type AuditHistoryInput struct {
	Actor domain.Actor // Acting admin
}

// AuditFinding is one task whose snapshot is not explained by its history.
type AuditFinding struct {
	TaskID  string
	Problem string
}

// AuditHistoryOutput contains the audit result.
type AuditHistoryOutput struct {
	Findings []AuditFinding
	Checked  int
}

// AuditHistory checks that every task's current state is backed by history entries.
type AuditHistory struct {
	tasks   domain.TaskRepository
	history domain.HistoryRepository
	logger  domain.Logger
}

// NewAuditHistory creates a new AuditHistory use case.
func NewAuditHistory(tasks domain.TaskRepository, history domain.HistoryRepository, logger domain.Logger) *AuditHistory {
	return &AuditHistory{
		tasks:   tasks,
		history: history,
		logger:  loggerOrNop(logger),
	}
}

// Execute audits every task in the admin's tenant and logs a warning per finding.
func (uc *AuditHistory) Execute(ctx context.Context, in AuditHistoryInput) (*AuditHistoryOutput, error) {
	if err := shared.RequireAdmin(in.Actor); err != nil {
		return nil, err
	}
	tasks, err := uc.tasks.List(ctx, domain.TaskFilter{TenantID: in.Actor.TenantID})
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	out := &AuditHistoryOutput{Checked: len(tasks)}
	for _, task := range tasks {
		entries, err := uc.history.ListByTask(ctx, task.ID)
		if err != nil {
			return nil, fmt.Errorf("list history of %s: %w", task.ID, err)
		}
		for _, problem := range auditTask(task, entries) {
			out.Findings = append(out.Findings, AuditFinding{TaskID: task.ID, Problem: problem})
			uc.logger.Warn(task.ID, "audit", problem)
		}
	}
	return out, nil
}

// auditTask lists the parts of the task snapshot that no history entry explains.
func auditTask(task *domain.Task, entries []domain.HistoryEntry) []string {
	if len(entries) == 0 {
		return []string{"task has no history entries"}
	}
	seen := make(map[domain.HistoryAction]bool)
	fieldNoted := false
	for _, e := range entries {
		seen[e.Action] = true
		if e.Action == domain.HistoryStatusChanged && e.Note == domain.NoteFieldCompleted {
			fieldNoted = true
		}
	}

	var problems []string
	if task.ReportSubmitted && !seen[domain.HistorySubmitted] {
		problems = append(problems, "report submitted without a SUBMITTED entry")
	}
	if task.Status == domain.StatusApproved && !seen[domain.HistoryApproved] {
		problems = append(problems, "approved without an APPROVED entry")
	}
	if task.Status == domain.StatusRejectedNeedsFix && !seen[domain.HistoryRejected] {
		problems = append(problems, "rejected without a REJECTED entry")
	}
	if task.FieldCompleted && !fieldNoted {
		problems = append(problems, "field work complete without a history entry")
	}
	return problems
}
