package cli

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldlab/fieldops/internal/app"
	"github.com/fieldlab/fieldops/internal/domain"
)

func TestNewRootCommand_Structure(t *testing.T) {
	env := newTestEnv(t)
	root := NewRootCommand(env.c, "1.2.3")

	assert.Equal(t, "fieldops", root.Use)
	assert.Equal(t, "1.2.3", root.Version)
	assert.True(t, root.SilenceUsage)
	assert.True(t, root.SilenceErrors)

	groups := map[string]string{}
	for _, cmd := range root.Commands() {
		groups[cmd.Name()] = cmd.GroupID
	}
	want := map[string]string{
		"init":     groupSetup,
		"config":   groupSetup,
		"task":     groupWork,
		"report":   groupWork,
		"schedule": groupWork,
		"notify":   groupWork,
		"user":     groupAdmin,
		"project":  groupAdmin,
		"migrate":  groupAdmin,
		"audit":    groupAdmin,
	}
	for name, group := range want {
		assert.Equal(t, group, groups[name], "command %s", name)
	}
}

func TestNewRootCommand_TaskSubcommands(t *testing.T) {
	env := newTestEnv(t)
	root := NewRootCommand(env.c, "dev")

	for _, path := range [][]string{
		{"task", "new"}, {"task", "list"}, {"task", "show"}, {"task", "edit"},
		{"task", "status"}, {"task", "assign"}, {"task", "field-complete"},
		{"task", "reopen"}, {"task", "history"},
		{"report", "show"}, {"report", "save"},
		{"schedule", "today"}, {"schedule", "upcoming"}, {"schedule", "overdue"},
		{"notify", "list"}, {"notify", "read"},
		{"migrate", "work-packages"}, {"audit", "history"},
	} {
		cmd, _, err := root.Find(path)
		require.NoError(t, err, "%v", path)
		assert.Equal(t, path[len(path)-1], cmd.Name())
		assert.NotNil(t, cmd.Flags().Lookup("as"), "%v lacks --as", path)
	}
}

func TestNewRootCommand_Help(t *testing.T) {
	env := newTestEnv(t)

	out, err := run(t, NewRootCommand(env.c, "dev"), "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "Field Work:")
	assert.Contains(t, out, "Administration:")
	assert.Contains(t, out, "FIELDOPS_USER")
}

var adminLine = regexp.MustCompile(`Admin: (\S+) `)

// TestEndToEnd_JSONStore drives the full command tree against a real data directory.
func TestEndToEnd_JSONStore(t *testing.T) {
	home := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv(EnvUser, "")
	t.Setenv("FIELDOPS_DATABASE_URL", "")
	t.Setenv("FIELDOPS_HOME", "")

	exec := func(args ...string) string {
		t.Helper()
		c, err := app.New(context.Background(), home, io.Discard)
		require.NoError(t, err)
		defer c.Close()
		var buf bytes.Buffer
		root := NewRootCommand(c, "test")
		root.SetOut(&buf)
		root.SetErr(&buf)
		root.SetArgs(args)
		require.NoError(t, root.Execute(), "%v: %s", args, buf.String())
		return buf.String()
	}

	out := exec("init", "--tenant", "acme", "--email", "ops@acme.example", "--name", "Ops")
	assert.Contains(t, out, "Initialized fieldops in "+filepath.Join(home, domain.DataDirName))
	m := adminLine.FindStringSubmatch(out)
	require.Len(t, m, 2)
	admin := m[1]

	out = exec("init", "--tenant", "acme", "--email", "ops@acme.example")
	assert.Contains(t, out, "Already initialized")

	out = exec("config", "show")
	assert.Contains(t, out, "[Effective Config]")
	assert.Contains(t, out, "json")

	out = exec("user", "add", "--as", admin, "--email", "tech@acme.example", "--name", "Tess")
	userID := regexp.MustCompile(`Created user (\S+) `).FindStringSubmatch(out)
	require.Len(t, userID, 2)

	out = exec("project", "add", "--as", admin, "--number", "P-7", "--name", "Depot")
	projectID := regexp.MustCompile(`Created project P-7 \((\S+)\)`).FindStringSubmatch(out)
	require.Len(t, projectID, 2)

	out = exec("task", "new", "--as", admin, "--project", projectID[1], "--kind", "rebar",
		"--title", "Footings", "--tech", userID[1], "--due", "2030-01-10")
	taskID := regexp.MustCompile(`Created task (\S+)`).FindStringSubmatch(out)
	require.Len(t, taskID, 2)

	exec("task", "status", taskID[1], "in_progress_tech", "--as", userID[1])
	exec("task", "status", taskID[1], "ready_for_review", "--as", userID[1])

	out = exec("notify", "list", "--as", admin)
	assert.Contains(t, out, taskID[1])

	out = exec("task", "history", taskID[1], "--as", admin)
	assert.Contains(t, out, "SUBMITTED")

	out = exec("schedule", "upcoming", "--as", admin, "--as-of", "2030-01-05")
	assert.Contains(t, out, taskID[1])
}
