package repository_test

import (
	"testing"
	"time"

	"authgate/internal/config"
	"authgate/internal/infra/db"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// テスト用のsqlite（メモリ）
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	gdb, err := db.Connect(config.DBConfig{Driver: "sqlite", SQLitePath: ":memory:"})
	require.NoError(t, err)

	//:memory: は接続ごとに別DBになるので1本に固定
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.Migrate(gdb))
	return gdb
}

// sqliteは文字列で時刻比較するのでUTC・秒単位にそろえる
func baseTime() time.Time {
	return time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
}
