package integrity

import (
	"errors"
	"testing"

	"labeldesk/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newPostgresMock(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	return gdb, mock
}

const lockLocation = `SELECT "id","site_id" FROM "locations" WHERE id = \$1 .*FOR UPDATE`

// SQLite serialises whole transactions, so only a server database shows that
// both rows are locked, lower id first, before anything is counted.
func TestDelete_PostgresLocksTargetAndReplacementInIDOrder(t *testing.T) {
	gdb, mock := newPostgresMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(lockLocation).WithArgs(5, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "site_id"}).AddRow(5, 3))
	mock.ExpectQuery(lockLocation).WithArgs(9, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "site_id"}).AddRow(9, 3))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "labels"`).
		WillReturnError(errors.New("boom"))
	mock.ExpectRollback()

	err := gdb.Transaction(func(tx *gorm.DB) error {
		_, err := Delete(tx, Request{
			SiteID:        3,
			Target:        Target{Kind: TargetLocation, ID: 9},
			Strategy:      StrategyReassign,
			ReplacementID: 5,
		})
		return err
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete_PostgresStopsWhenLockedTargetIsInAnotherSite(t *testing.T) {
	gdb, mock := newPostgresMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(lockLocation).WithArgs(9, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "site_id"}).AddRow(9, 4))
	mock.ExpectRollback()

	err := gdb.Transaction(func(tx *gorm.DB) error {
		_, err := Delete(tx, Request{SiteID: 3, Target: Target{Kind: TargetLocation, ID: 9}, Strategy: StrategyCascade})
		return err
	})
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
