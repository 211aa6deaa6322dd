package database

import (
	"bytes"
	"testing"

	"github.com/khanghh/klms/internal/config"
	"github.com/khanghh/klms/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestOpenSQLiteAndMigrate(t *testing.T) {
	db, err := Open(config.DatabaseConfig{
		Driver:       "sqlite",
		Dsn:          "file:database_test?mode=memory&cache=shared",
		MaxOpenConns: 1,
	}, false)
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	for _, m := range model.Models {
		require.True(t, db.Migrator().HasTable(m))
	}
}

func TestOpenUnsupportedDriver(t *testing.T) {
	_, err := Open(config.DatabaseConfig{Driver: "oracle"}, false)
	require.Error(t, err)
}

func TestLoggerSkipsRecordNotFound(t *testing.T) {
	var buf bytes.Buffer
	db, err := open(config.DatabaseConfig{
		Driver:       "sqlite",
		Dsn:          "file:database_logger_test?mode=memory&cache=shared",
		MaxOpenConns: 1,
	}, newLogger(&buf, false))
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	var employee model.Employee
	err = db.First(&employee, "emp_id = ?", "EMP404").Error
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.Empty(t, buf.String())

	err = db.Table("no_such_table").First(&employee).Error
	require.Error(t, err)
	assert.Contains(t, buf.String(), "no_such_table")
}
