package cli

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldlab/fieldops/internal/domain"
	"github.com/fieldlab/fieldops/internal/testutil"
)

func TestUserAdd(t *testing.T) {
	env := newTestEnv(t)
	before := len(env.f.Users.Users)

	out, err := run(t, newUserCommand(env.c), "add", "--as", env.f.Admin.ID, "--email", "nina@a.example", "--name", "Nina", "--role", "technician")
	require.NoError(t, err)
	assert.Contains(t, out, "Created user ")
	assert.Contains(t, out, "TECHNICIAN")

	require.Len(t, env.f.Users.Users, before+1)
	var created *domain.User
	for _, u := range env.f.Users.Users {
		if u.Email == "nina@a.example" {
			created = u
		}
	}
	require.NotNil(t, created)
	assert.Equal(t, testutil.TenantA, created.TenantID)
}

func TestUserAdd_Errors(t *testing.T) {
	env := newTestEnv(t)

	_, err := run(t, newUserCommand(env.c), "add", "--as", env.f.Tech.ID, "--email", "x@a.example")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = run(t, newUserCommand(env.c), "add", "--as", env.f.Admin.ID, "--email", "x@a.example", "--role", "owner")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestProjectAddAndList(t *testing.T) {
	env := newTestEnv(t)

	out, err := run(t, newProjectCommand(env.c), "add", "--as", env.f.Admin.ID, "--number", "P-1002", "--name", "Hwy 9 Bridge")
	require.NoError(t, err)
	assert.Contains(t, out, "Created project P-1002")

	_, err = run(t, newProjectCommand(env.c), "add", "--as", env.f.Admin.ID, "--number", "P-1002")
	assert.ErrorIs(t, err, domain.ErrValidation)

	out, err = run(t, newProjectCommand(env.c), "list", "--as", env.f.Tech.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "P-1001")
	assert.Contains(t, out, "Hwy 9 Bridge")
	assert.NotContains(t, out, "P-2001")
}

func TestMigrateWorkPackages(t *testing.T) {
	env := newTestEnv(t)
	techID := env.f.Tech.ID
	env.f.WorkPackages.WorkPackages["wp-1"] = &domain.WorkPackage{
		ID:                   "wp-1",
		TenantID:             testutil.TenantA,
		ProjectID:            env.f.Project.ID,
		Kind:                 domain.KindRebar,
		Title:                "Level 2 deck",
		AssignedTechnicianID: &techID,
		CreatedAt:            time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
	}

	out, err := run(t, newMigrateCommand(env.c), "work-packages", "--as", env.f.Admin.ID, "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "Would migrate work package wp-1")
	assert.Empty(t, env.f.Tasks.Tasks)

	out, err = run(t, newMigrateCommand(env.c), "work-packages", "--as", env.f.Admin.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "Migrated 1 work package(s), skipped 0")
	require.Len(t, env.f.Tasks.Tasks, 1)
	for _, task := range env.f.Tasks.Tasks {
		assert.Equal(t, testutil.TenantA, task.TenantID)
		assert.Equal(t, "Level 2 deck", task.Title)
	}

	out, err = run(t, newMigrateCommand(env.c), "work-packages", "--as", env.f.Admin.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "skipped 1")
}

func TestMigrateWorkPackages_ReportsInvalid(t *testing.T) {
	env := newTestEnv(t)
	env.f.WorkPackages.WorkPackages["wp-bad"] = &domain.WorkPackage{
		ID:        "wp-bad",
		TenantID:  testutil.TenantA,
		ProjectID: env.f.ProjectB.ID,
		Kind:      domain.KindRebar,
		Title:     "Wrong project",
	}

	out, err := run(t, newMigrateCommand(env.c), "work-packages", "--as", env.f.Admin.ID)
	require.NoError(t, err)
	assert.Contains(t, out, `! wp-bad: project "proj-b" belongs to another tenant`)
	assert.Contains(t, out, "Migrated 0 work package(s), skipped 0")
	assert.Contains(t, out, "1 work package(s) left unmigrated")
	assert.Empty(t, env.f.Tasks.Tasks)
}

func TestAuditHistory(t *testing.T) {
	env := newTestEnv(t)
	env.f.SeedTask("t-1", domain.KindProctor, domain.StatusApproved)

	out, err := run(t, newAuditCommand(env.c), "history", "--as", env.f.Admin.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "t-1: task has no history entries")
	assert.Contains(t, out, "Checked 1 task(s), 1 finding(s)")
	assert.True(t, env.f.Logger.Contains("task has no history entries"))

	_, err = run(t, newAuditCommand(env.c), "history", "--as", env.f.Tech.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}
