package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"inkwell/internal/config"
	"inkwell/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         NewGormLogger(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(PersistentModels()...))
	return db
}

func TestConfigurePool(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	cfg := &config.Config{
		DBMaxOpenConns:           10,
		DBMaxIdleConns:           5,
		DBConnMaxLifetimeMinutes: 15,
	}
	require.NoError(t, configurePool(db, cfg))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 10, sqlDB.Stats().MaxOpenConnections)
}

func TestConfigurePool_FallsBackToDefaults(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, configurePool(db, &config.Config{}))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 25, sqlDB.Stats().MaxOpenConnections)
}

func TestSSLMode_DefaultsToDisable(t *testing.T) {
	assert.Equal(t, "disable", sslMode(&config.Config{}))
	assert.Equal(t, "require", sslMode(&config.Config{DBSSLMode: "require"}))
}

func TestTransactor_CommitsOnSuccess(t *testing.T) {
	db := openSQLite(t)
	tx := NewTransactor(db)

	err := tx.InTx(context.Background(), func(ctx context.Context) error {
		return Conn(ctx, db).Create(&models.User{Username: "ada", Email: "ada@example.com", PasswordDigest: "x"}).Error
	})
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestTransactor_RollsBackOnError(t *testing.T) {
	db := openSQLite(t)
	tx := NewTransactor(db)
	boom := errors.New("boom")

	err := tx.InTx(context.Background(), func(ctx context.Context) error {
		if err := Conn(ctx, db).Create(&models.User{Username: "ada", Email: "ada@example.com", PasswordDigest: "x"}).Error; err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestTransactor_NestedCallJoinsOuter(t *testing.T) {
	db := openSQLite(t)
	tx := NewTransactor(db)

	err := tx.InTx(context.Background(), func(ctx context.Context) error {
		inner := tx.InTx(ctx, func(ctx context.Context) error {
			return Conn(ctx, db).Create(&models.Tag{Name: "go"}).Error
		})
		require.NoError(t, inner)
		return errors.New("abort outer")
	})
	require.Error(t, err)

	var count int64
	require.NoError(t, db.Model(&models.Tag{}).Count(&count).Error)
	assert.Zero(t, count, "inner work must roll back with the outer transaction")
}

func TestTranslateError_DuplicateKey(t *testing.T) {
	db := openSQLite(t)
	require.NoError(t, db.Create(&models.Tag{Name: "go"}).Error)

	err := db.Create(&models.Tag{Name: "go"}).Error
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestPing(t *testing.T) {
	db := openSQLite(t)
	assert.NoError(t, Ping(context.Background(), db))
}

func TestCustomGormLogger_LogModeCopies(t *testing.T) {
	base := NewGormLogger(logger.Warn)
	quiet := base.LogMode(logger.Silent).(*CustomGormLogger)

	assert.Equal(t, logger.Silent, quiet.Config.LogLevel)
	assert.Equal(t, logger.Warn, base.Config.LogLevel)
	assert.Equal(t, 200*time.Millisecond, quiet.Config.SlowThreshold)
}
