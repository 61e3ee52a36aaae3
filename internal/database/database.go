package database

import (
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/XSAM/otelsql"
	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"gorm.io/driver/postgres"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite" // registers "sqlite"
)

type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

func DialectOf(dsn string) Dialect {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return DialectPostgres
	}
	return DialectSQLite
}

// DB bundles the gorm handle with the instrumented *sql.DB underneath it,
// which migrations and the job queue share.
type DB struct {
	Gorm    *gorm.DB
	SQL     *sql.DB
	Dialect Dialect
}

type Options struct {
	// Quiet silences gorm's SQL logger, used by tests.
	Quiet bool
}

func Connect(dsn string, opts ...Options) (*DB, error) {
	var opt Options
	if len(opts) > 0 {
		opt = opts[0]
	}

	dialect := DialectOf(dsn)
	sqlDB, err := Open(dsn)
	if err != nil {
		return nil, err
	}

	var dialector gorm.Dialector
	switch dialect {
	case DialectPostgres:
		slog.Info("connecting to postgres")
		dialector = postgres.New(postgres.Config{Conn: sqlDB})
	default:
		slog.Info("using sqlite", "dsn", dsn)
		dialector = gormsqlite.New(gormsqlite.Config{DriverName: "sqlite", Conn: sqlDB})
	}

	cfg := &gorm.Config{}
	if opt.Quiet {
		cfg.Logger = logger.Default.LogMode(logger.Silent)
	}

	gdb, err := gorm.Open(dialector, cfg)
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("opening gorm: %w", err)
	}

	return &DB{Gorm: gdb, SQL: sqlDB, Dialect: dialect}, nil
}

// Open opens an instrumented *sql.DB for dsn.
func Open(dsn string) (*sql.DB, error) {
	if DialectOf(dsn) == DialectPostgres {
		return openPostgres(dsn)
	}
	return openSQLite(dsn)
}

func openPostgres(dsn string) (*sql.DB, error) {
	db, err := otelsql.Open("pgx", dsn, otelsql.WithAttributes(semconv.DBSystemPostgreSQL))
	if err != nil {
		return nil, fmt.Errorf("opening instrumented database: %w", err)
	}
	if _, err := otelsql.RegisterDBStatsMetrics(db, otelsql.WithAttributes(semconv.DBSystemPostgreSQL)); err != nil {
		return nil, fmt.Errorf("registering db stats metrics: %w", err)
	}
	return db, nil
}

func openSQLite(dsn string) (*sql.DB, error) {
	db, err := otelsql.Open("sqlite", dsn, otelsql.WithAttributes(semconv.DBSystemSqlite))
	if err != nil {
		return nil, fmt.Errorf("opening instrumented database: %w", err)
	}

	// SQLite has a single writer. Everything shares this one connection,
	// so transactions run strictly one after another.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	if _, err := otelsql.RegisterDBStatsMetrics(db, otelsql.WithAttributes(semconv.DBSystemSqlite)); err != nil {
		return nil, fmt.Errorf("registering db stats metrics: %w", err)
	}
	return db, nil
}

func (db *DB) Close() error {
	return db.SQL.Close()
}
