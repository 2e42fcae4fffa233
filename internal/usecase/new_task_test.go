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

func newNewTask(f *testutil.Fixture) *usecase.NewTask {
	return usecase.NewNewTask(f.Tx, f.Projects, f.Users, newDispatcher(f), f.Clock, f.Logger)
}

func TestNewTask_Execute(t *testing.T) {
	f := testutil.NewFixture()
	due := domain.DatePtr(domain.MustParseDate("2025-03-20"))

	out, err := newNewTask(f).Execute(context.Background(), usecase.NewTaskInput{
		Actor:         f.Admin.Actor(),
		ProjectID:     f.Project.ID,
		Kind:          domain.KindCompressiveStrength,
		Title:         "  Level 2 deck pour ",
		ReportDueDate: due,
		Field:         domain.FieldSchedule{Date: domain.DatePtr(domain.MustParseDate("2025-03-14"))},
		TechnicianID:  f.Tech.ID,
	})
	require.NoError(t, err)

	task := out.Task
	assert.NotEmpty(t, task.ID)
	assert.Equal(t, testutil.TenantA, task.TenantID)
	assert.Equal(t, domain.StatusAssigned, task.Status)
	assert.Equal(t, "Level 2 deck pour", task.Title)
	assert.True(t, task.IsAssignedTo(f.Tech.ID))
	assert.Equal(t, int64(1), task.Version)
	assert.Equal(t, f.Admin.ID, task.CreatedBy)

	stored := f.Stored(task.ID)
	assert.Equal(t, task, stored)

	entries := f.History.ForTask(task.ID)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.HistoryStatusChanged, entries[0].Action)
	assert.Equal(t, domain.NoteTaskCreated, entries[0].Note)

	notes := f.Notifications.For(f.Tech.ID)
	require.Len(t, notes, 1)
	assert.Contains(t, notes[0].Message, "Level 2 deck pour")
	assert.Contains(t, notes[0].Message, "P-1001")
}

func TestNewTask_Unassigned(t *testing.T) {
	f := testutil.NewFixture()

	out, err := newNewTask(f).Execute(context.Background(), usecase.NewTaskInput{
		Actor: f.Admin.Actor(), ProjectID: f.Project.ID, Kind: domain.KindCylinderPickup, Title: "Pickup",
	})
	require.NoError(t, err)
	assert.False(t, out.Task.IsAssigned())
	assert.Equal(t, 0, f.Notifications.Count())
}

func TestNewTask_Errors(t *testing.T) {
	tests := []struct {
		wantErr error
		modify  func(f *testutil.Fixture, in *usecase.NewTaskInput)
		name    string
	}{
		{
			name:    "technician cannot create",
			modify:  func(f *testutil.Fixture, in *usecase.NewTaskInput) { in.Actor = f.Tech.Actor() },
			wantErr: domain.ErrAdminOnly,
		},
		{
			name:    "empty title",
			modify:  func(_ *testutil.Fixture, in *usecase.NewTaskInput) { in.Title = " " },
			wantErr: domain.ErrEmptyTitle,
		},
		{
			name:    "invalid kind",
			modify:  func(_ *testutil.Fixture, in *usecase.NewTaskInput) { in.Kind = "SLUMP" },
			wantErr: domain.ErrInvalidKind,
		},
		{
			name: "date and range",
			modify: func(_ *testutil.Fixture, in *usecase.NewTaskInput) {
				d := domain.MustParseDate("2025-03-14")
				in.Field = domain.FieldSchedule{Date: &d, Start: &d, End: &d}
			},
			wantErr: domain.ErrInvalidFieldSchedule,
		},
		{
			name:    "project in other tenant",
			modify:  func(f *testutil.Fixture, in *usecase.NewTaskInput) { in.ProjectID = f.ProjectB.ID },
			wantErr: domain.ErrProjectNotFound,
		},
		{
			name:    "technician in other tenant",
			modify:  func(f *testutil.Fixture, in *usecase.NewTaskInput) { in.TechnicianID = f.TechB.ID },
			wantErr: domain.ErrNotTechnician,
		},
		{
			name:    "assignee is admin",
			modify:  func(f *testutil.Fixture, in *usecase.NewTaskInput) { in.TechnicianID = f.Admin2.ID },
			wantErr: domain.ErrNotTechnician,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := testutil.NewFixture()
			in := usecase.NewTaskInput{
				Actor: f.Admin.Actor(), ProjectID: f.Project.ID, Kind: domain.KindRebar, Title: "Footings",
			}
			tt.modify(f, &in)

			_, err := newNewTask(f).Execute(context.Background(), in)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, f.Tasks.Tasks)
			assert.Empty(t, f.History.Entries)
		})
	}
}
