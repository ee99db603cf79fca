package db

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fatflowers/paygate/internal/models"
	"github.com/fatflowers/paygate/pkg/config"
)

func TestOpen_SQLiteAndMigrate(t *testing.T) {
	l := zap.NewNop().Sugar()
	gdb, err := Open(l, config.DBConfig{Driver: "sqlite", DSN: "file:db_open_test?mode=memory&cache=shared"})
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(l, gdb))

	for _, m := range Tables {
		require.True(t, gdb.Migrator().HasTable(m))
	}
	require.NoError(t, gdb.Create(&models.Wallet{ID: "0192f3a4-0000-7000-8000-000000000001", UserID: "u1", Currency: "IRR", Status: "active"}).Error)
}

func TestOpen_Errors(t *testing.T) {
	l := zap.NewNop().Sugar()
	_, err := Open(l, config.DBConfig{Driver: "sqlite"})
	require.Error(t, err)
	_, err = Open(l, config.DBConfig{Driver: "mysql", DSN: "x"})
	require.Error(t, err)
}
