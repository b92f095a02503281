package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationFilesArePaired(t *testing.T) {
	t.Parallel()

	ups, err := migrationFiles(".up.sql")
	require.NoError(t, err)
	downs, err := migrationFiles(".down.sql")
	require.NoError(t, err)

	require.NotEmpty(t, ups)
	assert.Len(t, downs, len(ups))
}

func TestMigrations(t *testing.T) {
	t.Parallel()

	pool := SetupTestDB(t)
	ctx := context.Background()

	// up is idempotent
	require.NoError(t, MigrateUp(ctx, pool))

	require.NoError(t, MigrateDown(ctx, pool, 0))
	var exists bool
	require.NoError(t, pool.QueryRow(ctx, "SELECT to_regclass('packages') IS NOT NULL").Scan(&exists))
	assert.False(t, exists)

	require.NoError(t, MigrateUp(ctx, pool))
	require.NoError(t, pool.QueryRow(ctx, "SELECT to_regclass('packages') IS NOT NULL").Scan(&exists))
	assert.True(t, exists)
}
