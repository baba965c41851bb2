package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/sqlite/*.sql migrations/mysql/*.sql
var embedded embed.FS

// Dialects with bundled migrations.
const (
	DialectSQLite = "sqlite"
	DialectMySQL  = "mysql"
)

func newProvider(db *sql.DB, dialect string) (*goose.Provider, error) {
	var gd goose.Dialect
	switch dialect {
	case DialectSQLite:
		gd = goose.DialectSQLite3
	case DialectMySQL:
		gd = goose.DialectMySQL
	default:
		return nil, fmt.Errorf("unsupported dialect %q", dialect)
	}

	dir, err := fs.Sub(embedded, "migrations/"+dialect)
	if err != nil {
		return nil, fmt.Errorf("loading %s migrations: %w", dialect, err)
	}

	p, err := goose.NewProvider(gd, db, dir)
	if err != nil {
		return nil, fmt.Errorf("creating migration provider: %w", err)
	}
	return p, nil
}

// Migrate applies all pending migrations for the given dialect.
func Migrate(ctx context.Context, db *sql.DB, dialect string) error {
	p, err := newProvider(db, dialect)
	if err != nil {
		return err
	}

	if _, err := p.Up(ctx); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}

// MigrationStatus describes one migration file and whether it has run.
type MigrationStatus struct {
	Version int64
	Name    string
	Applied bool
}

// Status lists every migration for the dialect and the current version.
func Status(ctx context.Context, db *sql.DB, dialect string) ([]MigrationStatus, int64, error) {
	p, err := newProvider(db, dialect)
	if err != nil {
		return nil, 0, err
	}

	results, err := p.Status(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("reading migration status: %w", err)
	}

	var out []MigrationStatus
	for _, r := range results {
		out = append(out, MigrationStatus{
			Version: r.Source.Version,
			Name:    r.Source.Path,
			Applied: r.State == goose.StateApplied,
		})
	}

	version, err := p.GetDBVersion(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("reading database version: %w", err)
	}
	return out, version, nil
}
