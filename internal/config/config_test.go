package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "kanban_crm", cfg.Database.Name)
	assert.True(t, cfg.Kanban.OptimisticLocking)
	assert.Equal(t, "#6B7280", cfg.Kanban.NovosColor)
	assert.Equal(t, 50, cfg.Kanban.DefaultPageSize)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
server:
  port: "9090"
  read_timeout: 10s
database:
  name: crm_file
kanban:
  novos_color: "#112233"
  optimistic_locking: false
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("DB_NAME", "crm_env")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "crm_env", cfg.Database.Name, "env overrides file")
	assert.Equal(t, "#112233", cfg.Kanban.NovosColor)
	assert.False(t, cfg.Kanban.OptimisticLocking)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "localhost", cfg.Database.Host, "defaults survive partial files")
}

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "nope.yaml"))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: read")
}

func TestLoad_OptimisticLockingFromEnv(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("KANBAN_OPTIMISTIC_LOCKING", "false")

	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.Kanban.OptimisticLocking)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"bad yaml", "server: [", "config: parse"},
		{"bad color", "kanban:\n  novos_color: blue\n", "KANBAN_NOVOS_COLOR"},
		{"bad page size", "kanban:\n  default_page_size: 1000\n", "KANBAN_DEFAULT_PAGE_SIZE"},
		{"bad level", "log:\n  level: loud\n", "LOG_LEVEL"},
		{"bad format", "log:\n  format: xml\n", "LOG_FORMAT"},
		{"empty db", "database:\n  host: \"\"\n", "DB_HOST"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestGetDSN(t *testing.T) {
	db := Default().Database
	assert.Equal(t, "host=localhost port=5432 user=postgres password=postgres dbname=kanban_crm sslmode=disable", db.GetDSN())
}
