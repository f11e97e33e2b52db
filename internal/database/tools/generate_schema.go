// Command generate_schema applies the embedded migrations to an in-memory
// database and writes the resulting schema for sqlc.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/jmoiron/sqlx"

	"jasper-go/internal/database"
	"jasper-go/internal/database/migrations"
)

const header = `-- This file is auto-generated from migration files.
-- DO NOT EDIT MANUALLY. Run 'go generate ./internal/database' to regenerate.
-- Source: internal/database/migrations/files/*.sql

`

func main() {
	out := flag.String("out", "internal/database/sqlc/schema.sql", "output path, relative to the module root")
	flag.Parse()

	if err := run(*out); err != nil {
		fmt.Fprintf(os.Stderr, "generate_schema: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Generated %s from migrations\n", *out)
}

func run(outPath string) error {
	db, err := database.OpenConnection(":memory:")
	if err != nil {
		return err
	}
	defer db.Close()

	if err := migrations.MigrateUp(db); err != nil {
		return err
	}

	// Tables first, then indexes, each by name. Internal and migration
	// bookkeeping objects are skipped.
	var stmts []string
	err = sqlx.NewDb(db, "sqlite3").Select(&stmts, `
		SELECT sql || ';'
		FROM sqlite_master
		WHERE type IN ('table', 'index')
		  AND sql IS NOT NULL
		  AND name NOT LIKE 'sqlite_%'
		  AND tbl_name != 'schema_migrations'
		ORDER BY CASE type WHEN 'table' THEN 1 ELSE 2 END, name`)
	if err != nil {
		return fmt.Errorf("extracting schema: %w", err)
	}

	schema := header + strings.Join(stmts, "\n\n") + "\n"
	if err := os.WriteFile(outPath, []byte(schema), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", outPath, err)
	}
	return nil
}
