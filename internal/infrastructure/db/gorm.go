package db

import (
	"log/slog"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Options tune the pool and the SQL logger. The zero value is usable.
type Options struct {
	Log      *slog.Logger
	LogLevel logger.LogLevel // defaults to Warn
}

func OpenGorm(dsn string, opt Options) (*gorm.DB, error) {
	return OpenGormWithDialector(mysql.Open(dsn), opt)
}

// OpenSQLite opens a file database for local runs. SQLite serializes writers,
// so the pool holds a single connection.
func OpenSQLite(path string, opt Options) (*gorm.DB, error) {
	db, err := OpenGormWithDialector(sqlite.Open(path+"?_busy_timeout=5000&_foreign_keys=on"), opt)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

func OpenGormWithDialector(dial gorm.Dialector, o Options) (*gorm.DB, error) {
	cfg := &gorm.Config{Logger: newGormLogger(o)}
	db, err := gorm.Open(dial, cfg)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(30)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, err
	}
	if o.Log != nil {
		o.Log.Info("gorm: connected", "dialect", dial.Name())
	}
	return db, nil
}

func newGormLogger(o Options) logger.Interface {
	level := o.LogLevel
	if level == 0 {
		level = logger.Warn
	}
	if o.Log == nil {
		return logger.Default.LogMode(level)
	}
	return logger.New(slog.NewLogLogger(o.Log.Handler(), slog.LevelInfo), logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
	})
}

// ParseLogLevel maps LOG_LEVEL onto gorm's levels; SQL statements are only
// traced at debug.
func ParseLogLevel(level string) logger.LogLevel {
	switch level {
	case "debug":
		return logger.Info
	case "error":
		return logger.Error
	default:
		return logger.Warn
	}
}
