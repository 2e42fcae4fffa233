package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fieldlab/fieldops/internal/domain"
	"github.com/fieldlab/fieldops/internal/testutil"
	"github.com/fieldlab/fieldops/internal/usecase"
	"github.com/fieldlab/fieldops/internal/usecase/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDispatcher(f *testutil.Fixture) *shared.Dispatcher {
	return shared.NewDispatcher(f.Notifications, f.Users, f.Clock, f.Logger, false)
}

func newSetStatus(f *testutil.Fixture) *usecase.SetStatus {
	return usecase.NewSetStatus(f.Tx, f.Projects, newDispatcher(f), f.Clock, f.Logger)
}

func TestSetStatus_Submission(t *testing.T) {
	f := testutil.NewFixture()
	f.SeedTask("t1", domain.KindDensityMeasurement, domain.StatusInProgressTech)

	out, err := newSetStatus(f).Execute(context.Background(), usecase.SetStatusInput{
		Actor:  f.Tech.Actor(),
		TaskID: "t1",
		Status: domain.StatusReadyForReview,
	})
	require.NoError(t, err)

	stored := f.Stored("t1")
	assert.Equal(t, domain.StatusReadyForReview, stored.Status)
	assert.True(t, stored.ReportSubmitted)
	require.NotNil(t, stored.SubmittedAt)
	assert.Equal(t, f.Clock.Now(), *stored.SubmittedAt)
	assert.Equal(t, int64(2), stored.Version)
	assert.Equal(t, stored.Version, out.Task.Version)

	entries := f.History.ForTask("t1")
	require.Len(t, entries, 1)
	assert.Equal(t, domain.HistorySubmitted, entries[0].Action)
	assert.Equal(t, f.Tech.ID, entries[0].ActorID)
	assert.Equal(t, domain.RoleTechnician, entries[0].ActorRole)
	assert.Equal(t, testutil.TenantA, entries[0].TenantID)

	// One notification per admin of tenant A, none for tenant B.
	for _, admin := range []*domain.User{f.Admin, f.Admin2} {
		got := f.Notifications.For(admin.ID)
		require.Len(t, got, 1, admin.ID)
		assert.Equal(t, "t1", got[0].TaskID)
		assert.Equal(t, f.Project.ID, got[0].ProjectID)
		assert.Equal(t, testutil.TenantA, got[0].TenantID)
		assert.Contains(t, got[0].Message, "Tom Tech")
		assert.Contains(t, got[0].Message, "Density Measurement")
		assert.Contains(t, got[0].Message, "P-1001")
	}
	assert.Empty(t, f.Notifications.For(f.AdminB.ID))
	assert.Equal(t, 2, f.Notifications.Count())
}

func TestSetStatus_AdminSubmitDoesNotNotify(t *testing.T) {
	f := testutil.NewFixture()
	f.SeedTask("t1", domain.KindProctor, domain.StatusInProgressTech)

	_, err := newSetStatus(f).Execute(context.Background(), usecase.SetStatusInput{
		Actor: f.Admin.Actor(), TaskID: "t1", Status: domain.StatusReadyForReview,
	})
	require.NoError(t, err)
	assert.True(t, f.Stored("t1").ReportSubmitted)
	assert.Equal(t, 0, f.Notifications.Count())
}

func TestSetStatus_TechnicianCannotReview(t *testing.T) {
	for _, status := range []domain.Status{domain.StatusApproved, domain.StatusRejectedNeedsFix, domain.StatusAssigned} {
		for _, tech := range []string{"tech-1", "tech-2"} {
			t.Run(string(status)+"/"+tech, func(t *testing.T) {
				f := testutil.NewFixture()
				f.SeedTask("t1", domain.KindRebar, domain.StatusReadyForReview)

				_, err := newSetStatus(f).Execute(context.Background(), usecase.SetStatusInput{
					Actor:               f.Users.Users[tech].Actor(),
					TaskID:              "t1",
					Status:              status,
					Remarks:             "looks wrong",
					ResubmissionDueDate: domain.DatePtr(domain.MustParseDate("2025-03-20")),
				})
				require.Error(t, err)
				assert.ErrorIs(t, err, domain.ErrForbidden)
				assert.Equal(t, domain.StatusReadyForReview, f.Stored("t1").Status)
				assert.Empty(t, f.History.Entries)
			})
		}
	}
}

func TestSetStatus_UnassignedTechnicianForbidden(t *testing.T) {
	f := testutil.NewFixture()
	f.SeedTask("t1", domain.KindRebar, domain.StatusAssigned)

	_, err := newSetStatus(f).Execute(context.Background(), usecase.SetStatusInput{
		Actor: f.Tech2.Actor(), TaskID: "t1", Status: domain.StatusInProgressTech,
	})
	assert.ErrorIs(t, err, domain.ErrNotAssigned)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestSetStatus_OtherTenantIsNotFound(t *testing.T) {
	f := testutil.NewFixture()
	f.SeedTask("t1", domain.KindRebar, domain.StatusReadyForReview)

	_, err := newSetStatus(f).Execute(context.Background(), usecase.SetStatusInput{
		Actor: f.AdminB.Actor(), TaskID: "t1", Status: domain.StatusApproved,
	})
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, missing := newSetStatus(f).Execute(context.Background(), usecase.SetStatusInput{
		Actor: f.AdminB.Actor(), TaskID: "nope", Status: domain.StatusApproved,
	})
	assert.Equal(t, missing.Error(), err.Error())
}

func TestSetStatus_RejectRequiresRemarksAndDueDate(t *testing.T) {
	due := domain.DatePtr(domain.MustParseDate("2025-03-01"))
	tests := []struct {
		wantErr error
		due     *domain.Date
		name    string
		remarks string
	}{
		{name: "missing remarks", due: due, wantErr: domain.ErrRemarksRequired},
		{name: "blank remarks", remarks: "   ", due: due, wantErr: domain.ErrRemarksRequired},
		{name: "missing due date", remarks: "fix slump", wantErr: domain.ErrResubmissionDue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := testutil.NewFixture()
			f.SeedTask("t1", domain.KindCompressiveStrength, domain.StatusReadyForReview)

			_, err := newSetStatus(f).Execute(context.Background(), usecase.SetStatusInput{
				Actor:               f.Admin.Actor(),
				TaskID:              "t1",
				Status:              domain.StatusRejectedNeedsFix,
				Remarks:             tt.remarks,
				ResubmissionDueDate: tt.due,
			})
			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, domain.ErrValidation)
			assert.Equal(t, domain.StatusReadyForReview, f.Stored("t1").Status)
			assert.Empty(t, f.History.Entries)
			assert.Equal(t, 0, f.Notifications.Count())
		})
	}
}

func TestSetStatus_RejectionThenResubmission(t *testing.T) {
	f := testutil.NewFixture()
	f.SeedTask("t1", domain.KindCompressiveStrength, domain.StatusReadyForReview)
	uc := newSetStatus(f)
	ctx := context.Background()

	out, err := uc.Execute(ctx, usecase.SetStatusInput{
		Actor:               f.Admin.Actor(),
		TaskID:              "t1",
		Status:              domain.StatusRejectedNeedsFix,
		Remarks:             "fix slump",
		ResubmissionDueDate: domain.DatePtr(domain.MustParseDate("2025-03-01")),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.HistoryRejected, out.Entry.Action)
	assert.Equal(t, "fix slump", out.Entry.Note)

	stored := f.Stored("t1")
	assert.Equal(t, domain.StatusRejectedNeedsFix, stored.Status)
	assert.Equal(t, "fix slump", stored.RejectionRemarks)
	assert.Equal(t, "2025-03-01", stored.ResubmissionDueDate.String())

	notes := f.Notifications.For(f.Tech.ID)
	require.Len(t, notes, 1)
	assert.Contains(t, notes[0].Message, "fix slump")
	assert.Contains(t, notes[0].Message, "2025-03-01")
	assert.Equal(t, 1, f.Notifications.Count())

	f.Clock.Advance(time.Minute)
	out, err = uc.Execute(ctx, usecase.SetStatusInput{
		Actor: f.Tech.Actor(), TaskID: "t1", Status: domain.StatusInProgressTech,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInProgressTech, out.Task.Status)
	assert.Equal(t, domain.HistoryStatusChanged, out.Entry.Action)
	assert.Len(t, f.History.ForTask("t1"), 2)
	// Remarks are stale but kept.
	assert.Equal(t, "fix slump", f.Stored("t1").RejectionRemarks)
}

func TestSetStatus_InvalidTransitions(t *testing.T) {
	tests := []struct {
		from  domain.Status
		to    domain.Status
		actor string
	}{
		{from: domain.StatusAssigned, to: domain.StatusApproved, actor: "admin-1"},
		{from: domain.StatusAssigned, to: domain.StatusReadyForReview, actor: "tech-1"},
		{from: domain.StatusInProgressTech, to: domain.StatusAssigned, actor: "admin-1"},
		{from: domain.StatusApproved, to: domain.StatusInProgressTech, actor: "admin-1"},
		{from: domain.StatusRejectedNeedsFix, to: domain.StatusReadyForReview, actor: "tech-1"},
		{from: domain.StatusReadyForReview, to: domain.StatusReadyForReview, actor: "tech-1"},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			f := testutil.NewFixture()
			f.SeedTask("t1", domain.KindProctor, tt.from)

			_, err := newSetStatus(f).Execute(context.Background(), usecase.SetStatusInput{
				Actor: f.Users.Users[tt.actor].Actor(), TaskID: "t1", Status: tt.to,
			})
			assert.ErrorIs(t, err, domain.ErrInvalidTransition)
			assert.Equal(t, tt.from, f.Stored("t1").Status)
			assert.Empty(t, f.History.Entries)
		})
	}
}

func TestSetStatus_UnknownStatus(t *testing.T) {
	f := testutil.NewFixture()
	f.SeedTask("t1", domain.KindProctor, domain.StatusAssigned)

	_, err := newSetStatus(f).Execute(context.Background(), usecase.SetStatusInput{
		Actor: f.Admin.Actor(), TaskID: "t1", Status: "DONE",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)
	assert.Equal(t, 0, f.Tx.Calls)
}

func TestSetStatus_EveryTransitionAppendsOneMatchingEntry(t *testing.T) {
	f := testutil.NewFixture()
	f.SeedTask("t1", domain.KindRebar, domain.StatusAssigned)
	uc := newSetStatus(f)
	due := domain.DatePtr(domain.MustParseDate("2025-03-20"))

	steps := []struct {
		actor  domain.Actor
		status domain.Status
		action domain.HistoryAction
	}{
		{f.Tech.Actor(), domain.StatusInProgressTech, domain.HistoryStatusChanged},
		{f.Tech.Actor(), domain.StatusReadyForReview, domain.HistorySubmitted},
		{f.Admin.Actor(), domain.StatusRejectedNeedsFix, domain.HistoryRejected},
		{f.Tech.Actor(), domain.StatusInProgressTech, domain.HistoryStatusChanged},
		{f.Tech.Actor(), domain.StatusReadyForReview, domain.HistorySubmitted},
		{f.Admin.Actor(), domain.StatusApproved, domain.HistoryApproved},
	}
	for i, step := range steps {
		out, err := uc.Execute(context.Background(), usecase.SetStatusInput{
			Actor:               step.actor,
			TaskID:              "t1",
			Status:              step.status,
			Remarks:             "redo",
			ResubmissionDueDate: due,
		})
		require.NoError(t, err, "step %d", i)
		entries := f.History.ForTask("t1")
		require.Len(t, entries, i+1)
		assert.Equal(t, step.action, entries[i].Action)
		assert.Equal(t, step.status, out.Task.Status)
	}

	stored := f.Stored("t1")
	require.NotNil(t, stored.CompletedAt)
	assert.Equal(t, int64(len(steps)+1), stored.Version)
	// Approval is silent.
	assert.Len(t, f.Notifications.For(f.Tech.ID), 1)
}

func TestSetStatus_VersionConflict(t *testing.T) {
	f := testutil.NewFixture()
	f.SeedTask("t1", domain.KindRebar, domain.StatusReadyForReview)

	_, err := newSetStatus(f).Execute(context.Background(), usecase.SetStatusInput{
		Actor: f.Admin.Actor(), TaskID: "t1", Status: domain.StatusApproved, ExpectedVersion: 7,
	})
	assert.ErrorIs(t, err, domain.ErrVersionMismatch)
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, domain.StatusReadyForReview, f.Stored("t1").Status)
}

func TestSetStatus_NotificationFailureIsLogged(t *testing.T) {
	f := testutil.NewFixture()
	f.SeedTask("t1", domain.KindRebar, domain.StatusInProgressTech)
	f.Notifications.FailRecipient[f.Admin.ID] = true

	_, err := newSetStatus(f).Execute(context.Background(), usecase.SetStatusInput{
		Actor: f.Tech.Actor(), TaskID: "t1", Status: domain.StatusReadyForReview,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusReadyForReview, f.Stored("t1").Status)
	assert.Len(t, f.Notifications.For(f.Admin2.ID), 1)
	assert.True(t, f.Logger.Contains("deliver to admin-1"))
	assert.True(t, f.Logger.Contains("1 of 2 notifications failed"))
}

func TestSetStatus_HistoryFailureRollsBack(t *testing.T) {
	f := testutil.NewFixture()
	f.SeedTask("t1", domain.KindRebar, domain.StatusInProgressTech)
	f.History.AppendErr = errors.New("disk full")

	_, err := newSetStatus(f).Execute(context.Background(), usecase.SetStatusInput{
		Actor: f.Tech.Actor(), TaskID: "t1", Status: domain.StatusReadyForReview,
	})
	require.Error(t, err)
	stored := f.Stored("t1")
	assert.Equal(t, domain.StatusInProgressTech, stored.Status)
	assert.False(t, stored.ReportSubmitted)
	assert.Equal(t, int64(1), stored.Version)
	assert.Equal(t, 0, f.Notifications.Count())
}

func TestSetStatus_AsyncDispatch(t *testing.T) {
	f := testutil.NewFixture()
	f.SeedTask("t1", domain.KindRebar, domain.StatusInProgressTech)
	dispatcher := shared.NewDispatcher(f.Notifications, f.Users, f.Clock, f.Logger, true)
	uc := usecase.NewSetStatus(f.Tx, f.Projects, dispatcher, f.Clock, f.Logger)

	ctx, cancel := context.WithCancel(context.Background())
	_, err := uc.Execute(ctx, usecase.SetStatusInput{
		Actor: f.Tech.Actor(), TaskID: "t1", Status: domain.StatusReadyForReview,
	})
	cancel()
	require.NoError(t, err)

	dispatcher.Wait()
	assert.Equal(t, 2, f.Notifications.Count())
}
