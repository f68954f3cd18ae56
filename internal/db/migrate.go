package db

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// RunMigrations applies pending .sql migrations in filename order. If dir is
// non-empty the files are read from disk, otherwise the embedded set is used.
// Applied migrations are recorded in schema_migrations and skipped on rerun.
func RunMigrations(conn *sql.DB, dir string) error {
	if _, err := conn.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		name       TEXT PRIMARY KEY,
		applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	type migration struct {
		name string
		sql  string
	}
	var migrations []migration

	if dir != "" {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return fmt.Errorf("read migrations dir: %w", err)
		}
		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
				continue
			}
			data, err := os.ReadFile(filepath.Join(dir, e.Name()))
			if err != nil {
				return fmt.Errorf("read migration %s: %w", e.Name(), err)
			}
			migrations = append(migrations, migration{name: e.Name(), sql: string(data)})
		}
	} else {
		err := fs.WalkDir(embeddedMigrations, "migrations", func(path string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() || !strings.HasSuffix(path, ".sql") {
				return err
			}
			data, err := embeddedMigrations.ReadFile(path)
			if err != nil {
				return err
			}
			migrations = append(migrations, migration{name: filepath.Base(path), sql: string(data)})
			return nil
		})
		if err != nil {
			return fmt.Errorf("read embedded migrations: %w", err)
		}
	}

	sort.Slice(migrations, func(i, j int) bool { return migrations[i].name < migrations[j].name })

	for _, m := range migrations {
		var applied int
		if err := conn.QueryRow(`SELECT COUNT(1) FROM schema_migrations WHERE name = ?`, m.name).Scan(&applied); err != nil {
			return fmt.Errorf("check migration %s: %w", m.name, err)
		}
		if applied > 0 {
			continue
		}
		tx, err := conn.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %s: %w", m.name, err)
		}
		if _, err := tx.Exec(m.sql); err != nil {
			tx.Rollback()
			return fmt.Errorf("apply migration %s: %w", m.name, err)
		}
		if _, err := tx.Exec(`INSERT INTO schema_migrations (name) VALUES (?)`, m.name); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %s: %w", m.name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %s: %w", m.name, err)
		}
	}
	return nil
}
