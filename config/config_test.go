package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "labeldesk.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  http_port: "9090"
database:
  driver: postgres
  dsn: postgres://localhost/labeldesk
logging:
  format: json
`), 0o600))

	t.Setenv("LABELDESK_DATABASE_MAX_OPEN_CONNS", "7")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Server.HTTPPort)
	assert.Equal(t, "0.0.0.0", cfg.Server.Address)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 7, cfg.Database.MaxOpenConns)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.True(t, cfg.Metrics.Enabled)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
