package usecase

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/fieldlab/fieldops/internal/domain"
)

// ScheduleView selects one of the schedule queries.
type ScheduleView string

// Schedule views.
const (
	ScheduleToday    ScheduleView = "today"
	ScheduleUpcoming ScheduleView = "upcoming"
	ScheduleOverdue  ScheduleView = "overdue"
)

// IsValid returns true if the view is known.
func (v ScheduleView) IsValid() bool {
	return v == ScheduleToday || v == ScheduleUpcoming || v == ScheduleOverdue
}

// ScheduleInput contains the parameters for a schedule query.
type ScheduleInput struct {
	AsOf  *domain.Date // Override for "today" (nil = clock date in the reference timezone)
	Actor domain.Actor
	View  ScheduleView
}

// ScheduleOutput contains the matching tasks and the window that was queried.
type ScheduleOutput struct {
	Tasks []*domain.Task
	Today domain.Date
	From  domain.Date // First day of the window (inclusive)
	To    domain.Date // Last day of the window (inclusive)
}

// Schedule answers date-based task queries over the report due date and field date axes.
// All comparisons are on calendar dates in one reference timezone.
type Schedule struct {
	tasks        domain.TaskRepository
	clock        domain.Clock
	location     *time.Location
	upcomingDays int
}

// NewSchedule creates a new Schedule use case.
func NewSchedule(tasks domain.TaskRepository, clock domain.Clock, location *time.Location, upcomingDays int) *Schedule {
	if location == nil {
		location = time.UTC
	}
	if upcomingDays <= 0 {
		upcomingDays = domain.DefaultUpcomingDays
	}
	return &Schedule{
		tasks:        tasks,
		clock:        clock,
		location:     location,
		upcomingDays: upcomingDays,
	}
}

// Execute runs the requested schedule query for the actor.
func (uc *Schedule) Execute(ctx context.Context, in ScheduleInput) (*ScheduleOutput, error) {
	if !in.View.IsValid() {
		return nil, fmt.Errorf("%w: unknown schedule view %q", domain.ErrValidation, in.View)
	}
	filter, err := actorFilter(in.Actor)
	if err != nil {
		return nil, err
	}
	tasks, err := uc.tasks.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	today := domain.DateIn(uc.clock.Now(), uc.location)
	if in.AsOf != nil {
		today = *in.AsOf
	}
	out := &ScheduleOutput{Today: today, From: today, To: today}

	var match func(*domain.Task) bool
	switch in.View {
	case ScheduleToday:
		match = func(t *domain.Task) bool { return DueOrFieldOn(t, today) }
	case ScheduleUpcoming:
		out.From, out.To = today.AddDays(1), today.AddDays(uc.upcomingDays)
		match = func(t *domain.Task) bool { return IsUpcoming(t, out.From, out.To) }
	case ScheduleOverdue:
		out.From, out.To = domain.Date{}, today.AddDays(-1)
		match = func(t *domain.Task) bool { return IsOverdue(t, today) }
	}

	for _, t := range tasks {
		if match(t) {
			out.Tasks = append(out.Tasks, t)
		}
	}
	SortSchedule(out.Tasks)
	return out, nil
}

// DueOrFieldOn reports whether the report is due on day or field work happens on day.
func DueOrFieldOn(t *domain.Task, day domain.Date) bool {
	if t.ReportDueDate != nil && t.ReportDueDate.Compare(day) == 0 {
		return true
	}
	return fieldIntersects(t.Field, day, day)
}

// IsUpcoming reports whether an unapproved task has a due date or field work in [from, to].
// A field range stays visible until it ends.
func IsUpcoming(t *domain.Task, from, to domain.Date) bool {
	if t.Status == domain.StatusApproved {
		return false
	}
	if t.ReportDueDate != nil && t.ReportDueDate.Between(from, to) {
		return true
	}
	return fieldIntersects(t.Field, from, to)
}

// IsOverdue reports whether the report due date has passed without approval.
// Field dates never make a task overdue.
func IsOverdue(t *domain.Task, today domain.Date) bool {
	return t.Status != domain.StatusApproved && t.ReportDueDate != nil && t.ReportDueDate.Before(today)
}

func fieldIntersects(f domain.FieldSchedule, from, to domain.Date) bool {
	switch {
	case f.Date != nil:
		return f.Date.Between(from, to)
	case f.IsRange():
		return !f.End.Before(from) && !f.Start.After(to)
	default:
		return false
	}
}

// SortSchedule orders tasks for review: READY_FOR_REVIEW first, then by
// earliest date ascending. Undated tasks go last and ties break on ID.
func SortSchedule(tasks []*domain.Task) {
	slices.SortStableFunc(tasks, func(a, b *domain.Task) int {
		ar, br := a.Status == domain.StatusReadyForReview, b.Status == domain.StatusReadyForReview
		if ar != br {
			if ar {
				return -1
			}
			return 1
		}
		ad, aok := a.EarliestDate()
		bd, bok := b.EarliestDate()
		switch {
		case aok && bok:
			if c := ad.Compare(bd); c != 0 {
				return c
			}
		case aok:
			return -1
		case bok:
			return 1
		}
		return strings.Compare(a.ID, b.ID)
	})
}
