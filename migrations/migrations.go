// Package migrations holds the application schema and applies it at
// startup. River's own tables are managed separately by rivermigrate.
package migrations

import (
	"context"
	"embed"
	"fmt"
	"io/fs"

	"github.com/jackc/pgx/v5/pgconn"
)

//go:embed *.sql
var files embed.FS

// Execer is the slice of pgxpool.Pool needed to run DDL.
type Execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// Apply runs every embedded .sql file in lexical order. The statements all
// use IF NOT EXISTS, so reapplying on each startup is safe.
func Apply(ctx context.Context, db Execer) error {
	return applyFS(ctx, db, files)
}

func applyFS(ctx context.Context, db Execer, fsys fs.FS) error {
	names, err := fs.Glob(fsys, "*.sql")
	if err != nil {
		return err
	}
	for _, name := range names {
		ddl, err := fs.ReadFile(fsys, name)
		if err != nil {
			return err
		}
		if _, err := db.Exec(ctx, string(ddl)); err != nil {
			return fmt.Errorf("apply %s: %w", name, err)
		}
	}
	return nil
}
