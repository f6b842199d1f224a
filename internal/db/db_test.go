package db

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wordbank/dictionary/config"
)

type categoryRow struct {
	ID   int    `db:"category_id"`
	Name string `db:"category_name"`
}

func openTestDB(t *testing.T) *DB {
	t.Helper()

	var cfg config.Config
	cfg.Database.Driver = DriverSQLite
	cfg.Database.Path = filepath.Join(t.TempDir(), "dictionary.db")

	conn, err := Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	if err := conn.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	return conn
}

func TestEnsureSchemaIsIdempotent(t *testing.T) {
	conn := openTestDB(t)
	if err := conn.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("second ensure schema: %v", err)
	}
}

func TestQueryManyAndExecute(t *testing.T) {
	conn := openTestDB(t)
	ctx := context.Background()

	for _, name := range []string{"animals", "food"} {
		if _, err := conn.Execute(ctx, "INSERT INTO categories (category_name) VALUES (?)", name); err != nil {
			t.Fatalf("insert %s: %v", name, err)
		}
	}

	rows, err := QueryMany[categoryRow](ctx, conn, "SELECT category_id, category_name FROM categories ORDER BY category_name")
	if err != nil {
		t.Fatalf("query many: %v", err)
	}
	if len(rows) != 2 || rows[0].Name != "animals" || rows[1].Name != "food" {
		t.Fatalf("unexpected rows: %+v", rows)
	}

	empty, err := QueryMany[categoryRow](ctx, conn, "SELECT category_id, category_name FROM categories WHERE category_name = ?", "none")
	if err != nil {
		t.Fatalf("query many empty: %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", empty)
	}
}

func TestExecutePropagatesConstraintViolations(t *testing.T) {
	conn := openTestDB(t)
	ctx := context.Background()

	if _, err := conn.Execute(ctx, "INSERT INTO categories (category_name) VALUES (?)", "animals"); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := conn.Execute(ctx, "INSERT INTO categories (category_name) VALUES (?)", "animals"); err == nil {
		t.Fatalf("expected unique violation")
	}
}

func TestExecuteBuilder(t *testing.T) {
	conn := openTestDB(t)
	ctx := context.Background()

	if _, err := conn.Execute(ctx, "INSERT INTO categories (category_name) VALUES (?)", "animals"); err != nil {
		t.Fatalf("insert: %v", err)
	}
	stmt := conn.Builder().Update("categories").Set("category_name", "birds").Where("category_name = ?", "animals")
	result, err := conn.ExecuteBuilder(ctx, stmt)
	if err != nil {
		t.Fatalf("execute builder: %v", err)
	}
	if n, _ := result.RowsAffected(); n != 1 {
		t.Fatalf("expected 1 row affected, got %d", n)
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	var cfg config.Config
	cfg.Database.Driver = "oracle"
	if _, err := Open(context.Background(), cfg); err == nil || !strings.Contains(err.Error(), "unsupported") {
		t.Fatalf("expected unsupported driver error, got %v", err)
	}
}

func TestPostgresURL(t *testing.T) {
	got := PostgresURL(config.DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", DBName: "dictionary"})
	want := "postgres://u:p@db:5432/dictionary?sslmode=disable"
	if got != want {
		t.Fatalf("PostgresURL = %q, want %q", got, want)
	}
}
