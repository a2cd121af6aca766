package cli

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/rideshare-groups/internal/config"
	"github.com/iliyamo/rideshare-groups/internal/database"
	"github.com/iliyamo/rideshare-groups/internal/utils"
)

func execute(t *testing.T, cfg config.Config, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand(&RootOptions{LoadConfig: func() (config.Config, error) { return cfg, nil }})
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestTokenCommand(t *testing.T) {
	cfg := config.Config{JWTSecret: "cli-secret", AccessTTL: time.Hour, LogLevel: "error"}

	out, err := execute(t, cfg, "token", "--user-id", "5")
	require.NoError(t, err)

	id, err := utils.ParseAccessToken("cli-secret", strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, utils.Identity{UserID: 5, Role: "ADMIN"}, id)

	_, err = execute(t, cfg, "token")
	assert.Error(t, err)
}

func TestMigrateCommand_SQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "groups.db")
	cfg := config.Config{StorageDriver: config.DriverSQLite, SQLitePath: path, LogLevel: "error"}

	_, err := execute(t, cfg, "migrate")
	require.NoError(t, err)

	db, err := database.OpenSQLite(path)
	require.NoError(t, err)
	defer db.Close()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM change_log`).Scan(&n))
	assert.Zero(t, n)
}

func TestConfigErrorStopsEveryCommand(t *testing.T) {
	boom := errors.New("missing required env vars: JWT_SECRET")
	cmd := newRootCommand(&RootOptions{LoadConfig: func() (config.Config, error) { return config.Config{}, boom }})
	cmd.SetArgs([]string{"token", "--user-id", "1"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	assert.ErrorIs(t, cmd.Execute(), boom)
}

func TestOpenDB_UnknownDriver(t *testing.T) {
	_, _, err := openDB(config.Config{StorageDriver: "postgres"})
	assert.Error(t, err)
}
