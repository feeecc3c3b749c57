package migrate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCleanDirectory(t *testing.T) {
	dir := t.TempDir()
	writePair(t, dir, "20240101000000", "add_users",
		`CREATE TABLE "users" ("id" INTEGER);`,
		`DROP TABLE IF EXISTS "users";`)

	issues, err := Validate(dir)
	require.NoError(t, err)
	assert.Empty(t, issues)
}

func TestValidateFindsIssues(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, dir string)
		want  string
	}{
		{
			name: "up without down",
			setup: func(t *testing.T, dir string) {
				require.NoError(t, os.WriteFile(filepath.Join(dir, "20240101000000_x.up.sql"), []byte("SELECT 1;"), 0o644))
			},
			want: "no matching down file",
		},
		{
			name: "down without up",
			setup: func(t *testing.T, dir string) {
				require.NoError(t, os.WriteFile(filepath.Join(dir, "20240101000000_x.down.sql"), []byte("SELECT 1;"), 0o644))
			},
			want: "no matching up file",
		},
		{
			name: "empty up file",
			setup: func(t *testing.T, dir string) {
				writePair(t, dir, "20240101000000", "x", "-- empty migration\n", "SELECT 1;")
			},
			want: "no executable statements",
		},
		{
			name: "drop without restoring down",
			setup: func(t *testing.T, dir string) {
				writePair(t, dir, "20240101000000", "x",
					`DROP TABLE IF EXISTS "users";`,
					"-- SQLite does not support modifying columns; manual migration required for users.id\n")
			},
			want: "down file cannot restore",
		},
		{
			name: "malformed sql file name",
			setup: func(t *testing.T, dir string) {
				require.NoError(t, os.WriteFile(filepath.Join(dir, "setup.sql"), []byte("SELECT 1;"), 0o644))
			},
			want: "does not match",
		},
		{
			name: "version reused with different name",
			setup: func(t *testing.T, dir string) {
				writePair(t, dir, "20240101000000", "a", "SELECT 1;", "SELECT 1;")
				require.NoError(t, os.WriteFile(filepath.Join(dir, "20240101000000_b.up.sql"), []byte("SELECT 1;"), 0o644))
			},
			want: "already used",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			tt.setup(t, dir)

			issues, err := Validate(dir)
			require.NoError(t, err)
			require.NotEmpty(t, issues)

			found := false
			for _, issue := range issues {
				if strings.Contains(issue.Message, tt.want) {
					found = true
				}
			}
			assert.True(t, found, "expected an issue containing %q, got %v", tt.want, issues)
		})
	}
}
