package cli

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldlab/fieldops/internal/domain"
	"github.com/fieldlab/fieldops/internal/testutil"
)

func TestScheduleToday(t *testing.T) {
	env := newTestEnv(t)
	env.f.SeedTask("due-today", domain.KindProctor, domain.StatusInProgressTech, testutil.WithDue("2025-03-12"))
	env.f.SeedTask("in-field", domain.KindDensityMeasurement, domain.StatusAssigned, testutil.WithFieldRange("2025-03-10", "2025-03-14"))
	env.f.SeedTask("next-week", domain.KindRebar, domain.StatusAssigned, testutil.WithDue("2025-03-19"))

	out, err := run(t, newScheduleCommand(env.c), "today", "--as", env.f.Admin.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "Today 2025-03-12")
	assert.Contains(t, out, "due-today")
	assert.Contains(t, out, "in-field")
	assert.NotContains(t, out, "next-week")
}

func TestScheduleUpcoming_AsOf(t *testing.T) {
	env := newTestEnv(t)
	env.f.SeedTask("next-week", domain.KindRebar, domain.StatusAssigned, testutil.WithDue("2025-03-19"))

	out, err := run(t, newScheduleCommand(env.c), "upcoming", "--as", env.f.Admin.ID, "--as-of", "2025-03-18")
	require.NoError(t, err)
	assert.Contains(t, out, "Upcoming 2025-03-19..")
	assert.Contains(t, out, "next-week")
}

func TestScheduleOverdue_ReviewFirst(t *testing.T) {
	env := newTestEnv(t)
	env.f.SeedTask("late-open", domain.KindRebar, domain.StatusInProgressTech, testutil.WithDue("2025-03-01"))
	env.f.SeedTask("late-review", domain.KindRebar, domain.StatusReadyForReview, testutil.WithDue("2025-03-05"))
	env.f.SeedTask("late-approved", domain.KindRebar, domain.StatusApproved, testutil.WithDue("2025-03-01"))

	out, err := run(t, newScheduleCommand(env.c), "overdue", "--as", env.f.Admin.ID)
	require.NoError(t, err)
	assert.NotContains(t, out, "late-approved")
	review := strings.Index(out, "late-review")
	open := strings.Index(out, "late-open")
	require.NotEqual(t, -1, review)
	require.NotEqual(t, -1, open)
	assert.Less(t, review, open)
}

func TestScheduleToday_Empty(t *testing.T) {
	env := newTestEnv(t)

	out, err := run(t, newScheduleCommand(env.c), "today", "--as", env.f.Tech.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "No tasks")
}

func TestNotifyListAndRead(t *testing.T) {
	env := newTestEnv(t)
	env.f.SeedTask("t-1", domain.KindProctor, domain.StatusInProgressTech)
	_, err := run(t, newTaskCommand(env.c), "status", "t-1", "ready_for_review", "--as", env.f.Tech.ID)
	require.NoError(t, err)

	inbox := env.f.Notifications.For(env.f.Admin.ID)
	require.Len(t, inbox, 1)
	id := inbox[0].ID

	out, err := run(t, newNotifyCommand(env.c), "list", "--as", env.f.Admin.ID, "--unread")
	require.NoError(t, err)
	assert.Contains(t, out, id)
	assert.Contains(t, out, "t-1")

	_, err = run(t, newNotifyCommand(env.c), "read", id, "--as", env.f.Admin2.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	out, err = run(t, newNotifyCommand(env.c), "read", id, "--as", env.f.Admin.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "Marked "+id+" read")

	out, err = run(t, newNotifyCommand(env.c), "list", "--as", env.f.Admin.ID, "--unread")
	require.NoError(t, err)
	assert.NotContains(t, out, id)
}
