// Package audit persists the operational activity trail. It is the only
// durable state in the system; incident and action data stays in memory.
package audit

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationsFS embed.FS

// Open connects to the trail database and applies pending migrations.
// Driver "sqlite" treats URL as a file path; "postgres" as a DSN.
func Open(driver, url string) (*sql.DB, error) {
	var (
		db      *sql.DB
		dialect string
		dir     string
		err     error
	)
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "sqlite", "":
		if mkdirErr := os.MkdirAll(filepath.Dir(url), 0o755); mkdirErr != nil {
			return nil, fmt.Errorf("audit: create data dir: %w", mkdirErr)
		}
		db, err = sql.Open("sqlite", url)
		dialect, dir = "sqlite3", "migrations/sqlite"
	case "postgres":
		db, err = sql.Open("pgx", url)
		dialect, dir = "postgres", "migrations/postgres"
	default:
		return nil, fmt.Errorf("audit: unsupported driver %q", driver)
	}
	if err != nil {
		return nil, fmt.Errorf("audit: open %s: %w", driver, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("audit: ping: %w", err)
	}
	if err := migrate(db, dialect, dir); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func migrate(db *sql.DB, dialect, dir string) error {
	sub, err := fs.Sub(migrationsFS, dir)
	if err != nil {
		return fmt.Errorf("audit: migrations fs: %w", err)
	}
	goose.SetBaseFS(sub)
	defer goose.SetBaseFS(nil)
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("audit: set dialect: %w", err)
	}
	if err := goose.Up(db, "."); err != nil {
		return fmt.Errorf("audit: migrate: %w", err)
	}
	return nil
}
