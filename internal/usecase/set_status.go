package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/fieldlab/fieldops/internal/domain"
	"github.com/fieldlab/fieldops/internal/usecase/shared"
)

// SetStatusInput contains the parameters for changing a task's status.
// Fields are ordered to minimize memory padding.
type SetStatusInput struct {
	ResubmissionDueDate *domain.Date  // Required when rejecting
	Actor               domain.Actor  // Acting user
	TaskID              string        // Task to transition (required)
	Remarks             string        // Required when rejecting
	Status              domain.Status // Requested status (required)
	ExpectedVersion     int64         // Version the caller last saw (0 = skip check)
}

// SetStatusOutput contains the result of a status change.
type SetStatusOutput struct {
	Task  *domain.Task         // The updated task
	Entry *domain.HistoryEntry // The history entry appended for the transition
}

// SetStatus moves a task along the status whitelist.
type SetStatus struct {
	tx         domain.Transactor
	projects   domain.ProjectRepository
	dispatcher *shared.Dispatcher
	clock      domain.Clock
	logger     domain.Logger
}

// NewSetStatus creates a new SetStatus use case.
func NewSetStatus(
	tx domain.Transactor,
	projects domain.ProjectRepository,
	dispatcher *shared.Dispatcher,
	clock domain.Clock,
	logger domain.Logger,
) *SetStatus {
	return &SetStatus{
		tx:         tx,
		projects:   projects,
		dispatcher: dispatcher,
		clock:      clock,
		logger:     loggerOrNop(logger),
	}
}

// Execute validates the requested transition against the whitelist, applies
// its effects and appends one history entry in the same transaction.
// Notifications are sent after commit and never fail the operation.
func (uc *SetStatus) Execute(ctx context.Context, in SetStatusInput) (*SetStatusOutput, error) {
	if !in.Status.IsValid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidStatus, in.Status)
	}

	var (
		task       *domain.Task
		entry      *domain.HistoryEntry
		transition domain.Transition
	)
	err := uc.tx.InTx(ctx, func(ctx context.Context, tx domain.TxRepositories) error {
		t, err := shared.GetTaskForActor(ctx, tx.Tasks, in.TaskID, in.Actor)
		if err != nil {
			return err
		}
		if in.Actor.IsTechnician() && !in.Status.TechnicianRequestable() {
			return domain.ErrTechnicianStatus
		}

		tr, ok := domain.LookupTransition(t.Status, in.Status)
		if !ok || !tr.AllowedFor(in.Actor.Role) {
			return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, t.Status, in.Status)
		}

		remarks := strings.TrimSpace(in.Remarks)
		if tr.Effect == domain.EffectReject {
			if remarks == "" {
				return domain.ErrRemarksRequired
			}
			if in.ResubmissionDueDate == nil || in.ResubmissionDueDate.IsZero() {
				return domain.ErrResubmissionDue
			}
		}
		if err := checkVersion(t, in.ExpectedVersion); err != nil {
			return err
		}

		note := applyTransition(t, tr, remarks, in.ResubmissionDueDate, uc.clock)
		if err := tx.Tasks.Update(ctx, t); err != nil {
			return fmt.Errorf("update task: %w", err)
		}
		e := shared.NewHistoryEntry(uc.clock, t, in.Actor, tr.Action, note)
		if err := tx.History.Append(ctx, e); err != nil {
			return fmt.Errorf("append history: %w", err)
		}

		task, entry, transition = t, e, tr
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info(task.ID, "status", fmt.Sprintf("%s -> %s by %s (%s)", transition.From, transition.To, in.Actor.UserID, in.Actor.Role))
	uc.notify(ctx, task, transition, in.Actor)

	return &SetStatusOutput{Task: task, Entry: entry}, nil
}

// applyTransition mutates the task for tr and returns the history note.
func applyTransition(task *domain.Task, tr domain.Transition, remarks string, due *domain.Date, clock domain.Clock) string {
	now := clock.Now()
	task.Status = tr.To
	task.UpdatedAt = now

	switch tr.Effect {
	case domain.EffectSubmit:
		task.ReportSubmitted = true
		task.SubmittedAt = &now
	case domain.EffectApprove:
		task.CompletedAt = &now
	case domain.EffectReject:
		task.RejectionRemarks = remarks
		d := *due
		task.ResubmissionDueDate = &d
		return remarks
	case domain.EffectResubmit, domain.EffectNone:
	}
	return tr.Summary
}

func (uc *SetStatus) notify(ctx context.Context, task *domain.Task, tr domain.Transition, actor domain.Actor) {
	switch tr.Effect {
	case domain.EffectSubmit:
		// Admins submitting on a technician's behalf do not notify themselves.
		if !actor.IsTechnician() {
			return
		}
		number := projectNumber(ctx, uc.projects, task, uc.logger)
		uc.dispatcher.NotifyAdmins(ctx, task, shared.SubmittedMessage(actor.Name, task.Kind, number))
	case domain.EffectReject:
		if !task.IsAssigned() {
			uc.logger.Warn(task.ID, "notify", "rejected task has no assigned technician")
			return
		}
		number := projectNumber(ctx, uc.projects, task, uc.logger)
		msg := shared.RejectedMessage(task.Kind, number, task.RejectionRemarks, *task.ResubmissionDueDate)
		uc.dispatcher.NotifyUser(ctx, task, *task.AssignedTechnicianID, msg)
	default:
	}
}
