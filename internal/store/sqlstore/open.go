package sqlstore

import (
	"database/sql"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// sqliteDriver is go-sqlite3 with a REGEXP function installed on every
// connection.
const sqliteDriver = "sqlite3_homefoods"

var (
	registerOnce sync.Once
	patterns     sync.Map // string -> *regexp.Regexp
)

func registerSQLite() {
	registerOnce.Do(func() {
		sql.Register(sqliteDriver, &sqlite3.SQLiteDriver{
			ConnectHook: func(conn *sqlite3.SQLiteConn) error {
				return conn.RegisterFunc("regexp", matchRegexp, true)
			},
		})
	})
}

// matchRegexp backs "x REGEXP y", which SQLite evaluates as regexp(y, x).
func matchRegexp(expr, s string) (bool, error) {
	if re, ok := patterns.Load(expr); ok {
		return re.(*regexp.Regexp).MatchString(s), nil
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return false, err
	}
	patterns.Store(expr, re)
	return re.MatchString(s), nil
}

// Options tune the gorm connection.
type Options struct {
	LogLevel logger.LogLevel
}

func gormConfig(opts Options) *gorm.Config {
	level := opts.LogLevel
	if level == 0 {
		level = logger.Warn
	}
	return &gorm.Config{Logger: logger.Default.LogMode(level)}
}

// OpenPostgres connects to PostgreSQL with the given DSN.
func OpenPostgres(dsn string, opts Options) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), gormConfig(opts))
	if err != nil {
		return nil, fmt.Errorf("error opening postgres: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(25)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)
	return New(db), nil
}

// OpenSQLite opens the database file at path, or a private in-memory
// database for ":memory:".
func OpenSQLite(path string, opts Options) (*Store, error) {
	registerSQLite()
	db, err := gorm.Open(&sqlite.Dialector{DriverName: sqliteDriver, DSN: path}, gormConfig(opts))
	if err != nil {
		return nil, fmt.Errorf("error opening sqlite %s: %w", path, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// Each connection to ":memory:" is its own database.
	sqlDB.SetMaxOpenConns(1)
	return New(db), nil
}
