package testutil

import (
	"io"
	"testing"

	"GameCatalog/internal/model"

	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// DB 返回迁移好的内存 sqlite 库。只开一个连接：内存库按连接隔离，且写操作天然串行
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		tb.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		tb.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	tb.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(&model.Game{}, &model.ImportJob{}); err != nil {
		tb.Fatalf("migrate: %v", err)
	}
	return db
}

// Logger 丢弃输出的 logrus 实例
func Logger(tb testing.TB) *logrus.Logger {
	tb.Helper()
	l := logrus.New()
	l.SetOutput(io.Discard)
	l.SetLevel(logrus.DebugLevel)
	return l
}
