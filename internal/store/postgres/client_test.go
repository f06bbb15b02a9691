package postgres

import (
	"slices"
	"testing"

	"github.com/jackc/pgx/v5"
)

func TestDSN(t *testing.T) {
	t.Run("explicit dsn wins", func(t *testing.T) {
		got := DSN(ClientConfig{DSN: " postgres://u@db/j ", Host: "ignored"})
		if got != "postgres://u@db/j" {
			t.Errorf("DSN = %q", got)
		}
	})

	t.Run("discrete fields", func(t *testing.T) {
		dsn := DSN(ClientConfig{Host: "db.internal", Database: "journal", User: "journal", Password: "p@ss word/1"})
		cfg, err := pgx.ParseConfig(dsn)
		if err != nil {
			t.Fatalf("ParseConfig(%q): %v", dsn, err)
		}
		if cfg.Host != "db.internal" || cfg.Port != 5432 || cfg.Database != "journal" {
			t.Errorf("parsed host=%s port=%d db=%s", cfg.Host, cfg.Port, cfg.Database)
		}
		if cfg.User != "journal" || cfg.Password != "p@ss word/1" {
			t.Errorf("credentials did not survive escaping: user=%q password=%q", cfg.User, cfg.Password)
		}
	})
}

func TestMigrationFiles(t *testing.T) {
	files, err := migrationFiles()
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"001_journal.sql", "002_audit_event_index.sql"}
	if !slices.Equal(files, want) {
		t.Errorf("migrationFiles = %v, want %v", files, want)
	}
}
