package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/fieldlab/fieldops/internal/domain"
	"github.com/fieldlab/fieldops/internal/usecase/shared"
)

// TaskPatch lists the editable task fields. Nil fields are left unchanged.
// Fields are ordered to minimize memory padding.
type TaskPatch struct {
	Title              *string               // New title
	ReportDueDate      *domain.Date          // New report due date
	Field              *domain.FieldSchedule // New field schedule (empty value clears it)
	LocationNotes      *string               // New location notes
	ClearReportDueDate bool                  // Remove the report due date
}

// IsEmpty reports whether the patch names no field.
func (p TaskPatch) IsEmpty() bool {
	return p.Title == nil && p.ReportDueDate == nil && p.Field == nil && p.LocationNotes == nil && !p.ClearReportDueDate
}

// onlyLocationNotes reports whether the patch touches location notes alone.
func (p TaskPatch) onlyLocationNotes() bool {
	return p.Title == nil && p.ReportDueDate == nil && p.Field == nil && !p.ClearReportDueDate
}

// EditTaskInput contains the parameters for editing a task.
type EditTaskInput struct {
	Patch           TaskPatch    // Fields to change
	Actor           domain.Actor // Acting user
	TaskID          string       // Task to edit (required)
	ExpectedVersion int64        // Version the caller last saw (0 = skip check)
}

// EditTaskOutput contains the result of editing a task.
type EditTaskOutput struct {
	Task  *domain.Task         // The updated task
	Entry *domain.HistoryEntry // Summary entry (nil when nothing changed)
}

// EditTask is the use case for editing an existing task.
// All field changes of one call are summarized in a single history entry.
type EditTask struct {
	tx     domain.Transactor
	clock  domain.Clock
	logger domain.Logger
}

// NewEditTask creates a new EditTask use case.
func NewEditTask(tx domain.Transactor, clock domain.Clock, logger domain.Logger) *EditTask {
	return &EditTask{
		tx:     tx,
		clock:  clock,
		logger: loggerOrNop(logger),
	}
}

// Execute edits a task with the given input.
// Technicians may only change location notes on their own tasks.
func (uc *EditTask) Execute(ctx context.Context, in EditTaskInput) (*EditTaskOutput, error) {
	p := in.Patch
	if p.IsEmpty() {
		return nil, domain.ErrNoFieldsToUpdate
	}
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return nil, domain.ErrEmptyTitle
	}
	if p.Field != nil {
		if err := p.Field.Validate(); err != nil {
			return nil, err
		}
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
		task = t
		if in.Actor.IsTechnician() && !p.onlyLocationNotes() {
			return domain.ErrAdminOnly
		}
		if t.Status == domain.StatusApproved {
			return domain.ErrTaskApproved
		}
		if err := checkVersion(t, in.ExpectedVersion); err != nil {
			return err
		}

		notes := applyPatch(t, p)
		if notes.Empty() {
			return nil
		}
		t.UpdatedAt = uc.clock.Now()
		if err := tx.Tasks.Update(ctx, t); err != nil {
			return fmt.Errorf("update task: %w", err)
		}
		entry = shared.NewHistoryEntry(uc.clock, t, in.Actor, domain.HistoryStatusChanged, notes.String())
		if err := tx.History.Append(ctx, entry); err != nil {
			return fmt.Errorf("append history: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if entry != nil {
		uc.logger.Info(task.ID, "task", "updated: "+entry.Note)
	}
	return &EditTaskOutput{Task: task, Entry: entry}, nil
}

// applyPatch changes the task and describes every field that actually changed.
func applyPatch(t *domain.Task, p TaskPatch) shared.ChangeNotes {
	var notes shared.ChangeNotes

	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		if title != t.Title {
			notes.Changed("title", t.Title, title)
			t.Title = title
		}
	}

	switch {
	case p.ClearReportDueDate:
		if t.ReportDueDate != nil {
			notes.Changed("due date", shared.DateString(t.ReportDueDate), "")
			t.ReportDueDate = nil
		}
	case p.ReportDueDate != nil:
		if t.ReportDueDate == nil || t.ReportDueDate.Compare(*p.ReportDueDate) != 0 {
			notes.Changed("due date", shared.DateString(t.ReportDueDate), p.ReportDueDate.String())
			d := *p.ReportDueDate
			t.ReportDueDate = &d
		}
	}

	if p.Field != nil && !t.Field.Equal(*p.Field) {
		from, to := t.Field.String(), p.Field.String()
		notes.Add("field date changed from " + from + " to " + to)
		t.Field = *p.Field
	}

	if p.LocationNotes != nil && *p.LocationNotes != t.LocationNotes {
		notes.Add("location notes updated")
		t.LocationNotes = *p.LocationNotes
	}

	return notes
}
