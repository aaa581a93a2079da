// Package testutil opens throwaway databases and seeds fixtures for package tests.
package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"labeldesk/internal/db"
	"labeldesk/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var seq atomic.Int64

// NewDB returns a migrated in-memory SQLite database private to the test.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	gdb, err := db.Open("sqlite", ":memory:", db.Options{LogLevel: "silent"})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return gdb
}

func Site(t testing.TB, gdb *gorm.DB, code string) models.Site {
	t.Helper()
	s := models.Site{Name: fmt.Sprintf("site-%s-%d", code, seq.Add(1)), Code: code}
	require.NoError(t, gdb.Create(&s).Error)
	return s
}

func RackLocation(t testing.TB, gdb *gorm.DB, siteID uint, rack string) models.Location {
	t.Helper()
	l := models.Location{SiteID: siteID, Template: models.TemplateRack, Floor: "1", Suite: "A", Row: "R1", Rack: rack}
	require.NoError(t, gdb.Create(&l).Error)
	return l
}

func CableType(t testing.TB, gdb *gorm.DB, siteID uint, name string) models.CableType {
	t.Helper()
	c := models.CableType{SiteID: siteID, Name: name}
	require.NoError(t, gdb.Create(&c).Error)
	return c
}

// Label inserts a label directly, bypassing the allocator.
func Label(t testing.TB, gdb *gorm.DB, siteID uint, n int64, src, dst, cable *uint) models.Label {
	t.Helper()
	l := models.Label{
		SiteID: siteID, RefNumber: n, Reference: models.FormatReference("T", n),
		SourceLocationID: src, DestinationLocationID: dst, CableTypeID: cable,
	}
	require.NoError(t, gdb.Create(&l).Error)
	return l
}

func Count(t testing.TB, gdb *gorm.DB, model any, query string, args ...any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, gdb.Model(model).Where(query, args...).Count(&n).Error)
	return n
}

func Ptr(v uint) *uint { return &v }
