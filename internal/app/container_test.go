package app

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldlab/fieldops/internal/domain"
	"github.com/fieldlab/fieldops/internal/testutil"
	"github.com/fieldlab/fieldops/internal/usecase"
)

func isolateEnv(t *testing.T) string {
	t.Helper()
	home := filepath.Join(t.TempDir(), "data")
	t.Setenv("FIELDOPS_HOME", home)
	t.Setenv("FIELDOPS_DATABASE_URL", "")
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	return home
}

func TestNew_JSONStore(t *testing.T) {
	home := isolateEnv(t)

	c, err := New(context.Background(), t.TempDir(), io.Discard)
	require.NoError(t, err)
	defer c.Close()

	assert.Equal(t, home, c.Config.DataDir)
	assert.Equal(t, domain.StoreDriverJSON, c.AppConfig.Store.Driver)
	assert.Equal(t, domain.DefaultStorePath(home), c.AppConfig.Store.Path)
	assert.NotNil(t, c.Location)

	out, err := c.InitStoreUseCase().Execute(context.Background(), usecase.InitStoreInput{
		DataDir:    home,
		AdminEmail: "ops@lab.example",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, out.Admin.Role)

	actor, err := c.Actor(context.Background(), out.Admin.ID)
	require.NoError(t, err)
	assert.True(t, actor.IsAdmin())
}

func TestNew_UnsupportedDriver(t *testing.T) {
	home := isolateEnv(t)
	require.NoError(t, os.MkdirAll(home, 0o755))
	require.NoError(t, os.WriteFile(domain.DataConfigPath(home), []byte("[store]\ndriver = \"sqlite\"\n"), 0o644))

	_, err := New(context.Background(), t.TempDir(), io.Discard)
	require.Error(t, err)
}

func TestContainer_Actor(t *testing.T) {
	f := testutil.NewFixture()
	c := NewWithDeps(Config{DataDir: t.TempDir()}, Repositories{Users: f.Users}, nil, f.Clock, nil)
	defer c.Close()
	ctx := context.Background()

	_, err := c.Actor(ctx, "")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = c.Actor(ctx, "ghost")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	actor, err := c.Actor(ctx, f.Tech.ID)
	require.NoError(t, err)
	assert.Equal(t, testutil.TenantA, actor.TenantID)
	assert.Equal(t, domain.RoleTechnician, actor.Role)
}
