package db

import (
	"path/filepath"
	"testing"

	"labeldesk/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSqliteDSN(t *testing.T) {
	cases := map[string]string{
		"":                        "labeldesk.db?_busy_timeout=5000&_foreign_keys=on&_txlock=immediate",
		"/var/lib/ld.db":          "/var/lib/ld.db?_busy_timeout=5000&_foreign_keys=on&_txlock=immediate",
		"ld.db?_busy_timeout=100": "ld.db?_busy_timeout=100&_foreign_keys=on&_txlock=immediate",
		"ld.db?_txlock=deferred":  "ld.db?_txlock=deferred&_busy_timeout=5000&_foreign_keys=on",
		":memory:":                ":memory:",
	}
	for in, want := range cases {
		assert.Equal(t, want, sqliteDSN(in), in)
	}
}

func TestMigrate_SiteCodeFreedBySoftDelete(t *testing.T) {
	gdb, err := Open("sqlite", filepath.Join(t.TempDir(), "sites.db"), Options{LogLevel: "silent"})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	require.NoError(t, Migrate(gdb))
	// повторный запуск миграций не падает
	require.NoError(t, Migrate(gdb))

	first := models.Site{Name: "Frankfurt", Code: "FRA1"}
	require.NoError(t, gdb.Create(&first).Error)

	err = gdb.Create(&models.Site{Name: "Frankfurt 2", Code: "FRA1"}).Error
	assert.True(t, IsDuplicate(err), "live code must stay unique: %v", err)

	require.NoError(t, gdb.Delete(&first).Error)
	require.NoError(t, gdb.Create(&models.Site{Name: "Frankfurt", Code: "FRA1"}).Error)
}
