package database

import (
	"embed"
	"fmt"
	"sync"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrations embed.FS

// goose keeps its base FS and dialect in package state.
var gooseMu sync.Mutex

// Migrate applies the embedded schema migrations for the database dialect.
func (db *DB) Migrate() error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())

	dir := "migrations/sqlite"
	gooseDialect := "sqlite3"
	if db.Dialect == DialectPostgres {
		dir = "migrations/postgres"
		gooseDialect = "postgres"
	}

	if err := goose.SetDialect(gooseDialect); err != nil {
		return fmt.Errorf("setting goose dialect: %w", err)
	}
	if err := goose.Up(db.SQL, dir); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}
