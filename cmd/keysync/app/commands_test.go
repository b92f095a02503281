package app

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/keysync/internal/versions"
)

func TestVersionCmd_JSON(t *testing.T) {
	var out bytes.Buffer
	versionCmd.SetOut(&out)
	t.Cleanup(func() { versionCmd.SetOut(nil) })
	require.NoError(t, versionCmd.Flags().Set("format", "json"))
	t.Cleanup(func() { _ = versionCmd.Flags().Set("format", "") })

	versionCmd.Run(versionCmd, nil)

	var info versions.VersionInfo
	require.NoError(t, json.Unmarshal(out.Bytes(), &info))
	assert.Equal(t, versions.GetVersionInfo(), info)
}

func TestLoadConfig(t *testing.T) {
	t.Cleanup(func() { viper.Set("config", "") })

	viper.Set("config", "")
	_, err := loadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KEYSYNC_CONFIG")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
regions: [DE]
remote:
  baseURL: https://keys.example.com
sync:
  dataDir: `+dir+`
`), 0600))

	viper.Set("config", path)
	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, []string{"DE"}, cfg.Regions)
	assert.Equal(t, "DE", cfg.Remote.ConfigurationRegion)
}

func TestConfirm(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  bool
	}{
		{input: "yes\n", want: true},
		{input: "Y\n", want: true},
		{input: "y", want: true},
		{input: "no\n", want: false},
		{input: "\n", want: false},
		{input: "", want: false},
	}
	for _, tt := range tests {
		t.Run(strings.TrimSpace(tt.input), func(t *testing.T) {
			t.Parallel()
			var out bytes.Buffer
			got := confirm(strings.NewReader(tt.input), &out, "Continue?")
			assert.Equal(t, tt.want, got)
			assert.Equal(t, "Continue? (yes/no): ", out.String())
		})
	}
}

func TestConfirmMigrateDown(t *testing.T) {
	t.Parallel()

	newCmd := func(yes bool, input string) *cobra.Command {
		cmd := &cobra.Command{}
		cmd.Flags().Bool("yes", yes, "")
		cmd.SetIn(strings.NewReader(input))
		cmd.SetOut(&bytes.Buffer{})
		return cmd
	}

	require.NoError(t, confirmMigrateDown(newCmd(true, ""), 0))
	require.NoError(t, confirmMigrateDown(newCmd(false, "yes\n"), 1))

	err := confirmMigrateDown(newCmd(false, "no\n"), 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cancelled")
}

func TestConnectForMigration_RequiresPostgres(t *testing.T) {
	t.Cleanup(func() { viper.Set("config", "") })

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
regions: [DE]
remote:
  baseURL: https://keys.example.com
sync:
  dataDir: `+dir+`
`), 0600))
	viper.Set("config", path)

	_, _, err := connectForMigration(t.Context())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storage.driver postgres")
}
