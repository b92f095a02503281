package sqlitemigrate

import (
	"context"
	"database/sql"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func TestUpSection(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "no markers",
			content: "CREATE TABLE a (id INTEGER);",
			want:    "CREATE TABLE a (id INTEGER);",
		},
		{
			name:    "up and down",
			content: "-- +migrate Up\nCREATE TABLE a (id INTEGER);\n-- +migrate Down\nDROP TABLE a;",
			want:    "\nCREATE TABLE a (id INTEGER);\n",
		},
		{
			name:    "up only",
			content: "-- +migrate Up\nCREATE TABLE a (id INTEGER);",
			want:    "\nCREATE TABLE a (id INTEGER);",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, UpSection(tt.content))
		})
	}
}

func TestApplyRunsEachFileOnce(t *testing.T) {
	t.Parallel()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	migrations := fstest.MapFS{
		"m/0001_a.sql": {Data: []byte("-- +migrate Up\nCREATE TABLE a (id INTEGER);\n-- +migrate Down\nDROP TABLE a;")},
		"m/0002_b.sql": {Data: []byte("CREATE TABLE b (id INTEGER);")},
		"m/README.txt": {Data: []byte("ignored")},
		"m/0003_e.sql": {Data: []byte("-- +migrate Up\n\n-- +migrate Down\n")},
	}

	ctx := context.Background()
	require.NoError(t, Apply(ctx, db, migrations, "m"))
	// a second run must not fail on the existing tables
	require.NoError(t, Apply(ctx, db, migrations, "m"))

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count))
	assert.Equal(t, 2, count)

	_, err = db.Exec("INSERT INTO a (id) VALUES (1)")
	assert.NoError(t, err)
	_, err = db.Exec("INSERT INTO b (id) VALUES (1)")
	assert.NoError(t, err)
}

func TestApplyRequiresDB(t *testing.T) {
	t.Parallel()

	err := Apply(context.Background(), nil, fstest.MapFS{}, "")
	require.Error(t, err)
}
