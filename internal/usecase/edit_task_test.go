package usecase_test

import (
	"context"
	"testing"

	"github.com/fieldlab/fieldops/internal/domain"
	"github.com/fieldlab/fieldops/internal/testutil"
	"github.com/fieldlab/fieldops/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestEditTask_SummarizesChangesInOneEntry(t *testing.T) {
	f := testutil.NewFixture()
	f.SeedTask("t1", domain.KindDensityMeasurement, domain.StatusAssigned, testutil.WithDue("2025-01-01"))
	uc := usecase.NewEditTask(f.Tx, f.Clock, f.Logger)

	out, err := uc.Execute(context.Background(), usecase.EditTaskInput{
		Actor:  f.Admin.Actor(),
		TaskID: "t1",
		Patch: usecase.TaskPatch{
			ReportDueDate: domain.DatePtr(domain.MustParseDate("2025-01-15")),
			LocationNotes: strPtr("gate code 4411"),
		},
	})
	require.NoError(t, err)
	require.NotNil(t, out.Entry)
	assert.Equal(t, "due date changed from 2025-01-01 to 2025-01-15; location notes updated", out.Entry.Note)
	assert.Equal(t, domain.HistoryStatusChanged, out.Entry.Action)
	assert.Len(t, f.History.ForTask("t1"), 1)

	stored := f.Stored("t1")
	assert.Equal(t, "2025-01-15", stored.ReportDueDate.String())
	assert.Equal(t, "gate code 4411", stored.LocationNotes)
}

func TestEditTask_FieldScheduleAndTitle(t *testing.T) {
	f := testutil.NewFixture()
	f.SeedTask("t1", domain.KindRebar, domain.StatusAssigned, testutil.WithFieldDate("2025-03-10"))
	uc := usecase.NewEditTask(f.Tx, f.Clock, f.Logger)
	start, end := domain.MustParseDate("2025-03-10"), domain.MustParseDate("2025-03-15")

	out, err := uc.Execute(context.Background(), usecase.EditTaskInput{
		Actor:  f.Admin.Actor(),
		TaskID: "t1",
		Patch: usecase.TaskPatch{
			Title: strPtr("Footings east"),
			Field: &domain.FieldSchedule{Start: &start, End: &end},
		},
	})
	require.NoError(t, err)
	assert.Equal(t,
		"title changed from Task t1 to Footings east; field date changed from 2025-03-10 to 2025-03-10..2025-03-15",
		out.Entry.Note)
	assert.True(t, f.Stored("t1").Field.IsRange())
}

func TestEditTask_NoActualChange(t *testing.T) {
	f := testutil.NewFixture()
	f.SeedTask("t1", domain.KindRebar, domain.StatusAssigned)
	uc := usecase.NewEditTask(f.Tx, f.Clock, f.Logger)

	out, err := uc.Execute(context.Background(), usecase.EditTaskInput{
		Actor: f.Admin.Actor(), TaskID: "t1", Patch: usecase.TaskPatch{Title: strPtr("Task t1")},
	})
	require.NoError(t, err)
	assert.Nil(t, out.Entry)
	assert.Empty(t, f.History.Entries)
	assert.Equal(t, int64(1), f.Stored("t1").Version)
}

func TestEditTask_ClearDueDate(t *testing.T) {
	f := testutil.NewFixture()
	f.SeedTask("t1", domain.KindRebar, domain.StatusAssigned, testutil.WithDue("2025-01-01"))
	uc := usecase.NewEditTask(f.Tx, f.Clock, f.Logger)

	out, err := uc.Execute(context.Background(), usecase.EditTaskInput{
		Actor: f.Admin.Actor(), TaskID: "t1", Patch: usecase.TaskPatch{ClearReportDueDate: true},
	})
	require.NoError(t, err)
	assert.Equal(t, "due date changed from 2025-01-01 to none", out.Entry.Note)
	assert.Nil(t, f.Stored("t1").ReportDueDate)
}

func TestEditTask_TechnicianRules(t *testing.T) {
	f := testutil.NewFixture()
	f.SeedTask("t1", domain.KindRebar, domain.StatusInProgressTech)
	uc := usecase.NewEditTask(f.Tx, f.Clock, f.Logger)
	ctx := context.Background()

	_, err := uc.Execute(ctx, usecase.EditTaskInput{
		Actor: f.Tech.Actor(), TaskID: "t1", Patch: usecase.TaskPatch{LocationNotes: strPtr("north lot")},
	})
	require.NoError(t, err)

	_, err = uc.Execute(ctx, usecase.EditTaskInput{
		Actor: f.Tech.Actor(), TaskID: "t1", Patch: usecase.TaskPatch{Title: strPtr("mine now")},
	})
	assert.ErrorIs(t, err, domain.ErrAdminOnly)

	_, err = uc.Execute(ctx, usecase.EditTaskInput{
		Actor: f.Tech2.Actor(), TaskID: "t1", Patch: usecase.TaskPatch{LocationNotes: strPtr("x")},
	})
	assert.ErrorIs(t, err, domain.ErrNotAssigned)

	assert.Len(t, f.History.ForTask("t1"), 1)
}

func TestEditTask_Errors(t *testing.T) {
	f := testutil.NewFixture()
	f.SeedTask("t1", domain.KindRebar, domain.StatusApproved)
	f.SeedTask("t2", domain.KindRebar, domain.StatusAssigned)
	uc := usecase.NewEditTask(f.Tx, f.Clock, f.Logger)
	ctx := context.Background()

	_, err := uc.Execute(ctx, usecase.EditTaskInput{Actor: f.Admin.Actor(), TaskID: "t2"})
	assert.ErrorIs(t, err, domain.ErrNoFieldsToUpdate)

	_, err = uc.Execute(ctx, usecase.EditTaskInput{
		Actor: f.Admin.Actor(), TaskID: "t2", Patch: usecase.TaskPatch{Title: strPtr("")},
	})
	assert.ErrorIs(t, err, domain.ErrEmptyTitle)

	_, err = uc.Execute(ctx, usecase.EditTaskInput{
		Actor: f.Admin.Actor(), TaskID: "t1", Patch: usecase.TaskPatch{Title: strPtr("late edit")},
	})
	assert.ErrorIs(t, err, domain.ErrTaskApproved)

	_, err = uc.Execute(ctx, usecase.EditTaskInput{
		Actor: f.Admin.Actor(), TaskID: "t2", ExpectedVersion: 3, Patch: usecase.TaskPatch{Title: strPtr("stale")},
	})
	assert.ErrorIs(t, err, domain.ErrConflict)

	assert.Empty(t, f.History.Entries)
}
