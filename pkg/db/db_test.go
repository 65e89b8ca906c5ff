package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	gormlogger "gorm.io/gorm/logger"
)

func TestNewGORMConfig(t *testing.T) {
	t.Run("error translation is always on", func(t *testing.T) {
		// 驱动原生错误（如 MySQL 1062）必须翻译成 gorm 哨兵错误，
		// 否则仓储层的 errors.Is(err, gorm.ErrDuplicatedKey) 判断永远不命中
		cfg := newGORMConfig(Config{})
		assert.True(t, cfg.TranslateError)

		cfg = newGORMConfig(Config{LogEnabled: true})
		assert.True(t, cfg.TranslateError)
	})

	t.Run("log level follows config", func(t *testing.T) {
		quiet := newGORMConfig(Config{})
		assert.Equal(t, gormlogger.Default.LogMode(gormlogger.Warn), quiet.Logger)

		verbose := newGORMConfig(Config{LogEnabled: true})
		assert.Equal(t, gormlogger.Default.LogMode(gormlogger.Info), verbose.Logger)
	})
}

func TestInitRejectsUnknownDriver(t *testing.T) {
	_, err := Init(Config{Driver: "sqlite"})
	assert.ErrorContains(t, err, "unsupported database driver")
}
