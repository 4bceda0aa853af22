package database

import (
	"strings"
	"testing"
)

func TestSplitStatements(t *testing.T) {
	got := splitStatements("CREATE TABLE a (id INT);\n\nCREATE TABLE b (id INT);\nINSERT INTO a VALUES (1);\n")
	if len(got) != 3 {
		t.Fatalf("got %d statements: %q", len(got), got)
	}
	if got[2] != "INSERT INTO a VALUES (1)" {
		t.Fatalf("last statement = %q", got[2])
	}
}

func TestEmbeddedSchema(t *testing.T) {
	stmts := splitStatements(schema)
	if len(stmts) != 3 {
		t.Fatalf("schema has %d statements, want 3", len(stmts))
	}
	for _, table := range []string{"areas", "bookings"} {
		if !strings.Contains(schema, "CREATE TABLE IF NOT EXISTS "+table) {
			t.Errorf("schema missing table %s", table)
		}
	}
	if !strings.Contains(schema, "uq_bookings_idem") {
		t.Error("schema missing idempotency key constraint")
	}
}

func TestOptionsDSN(t *testing.T) {
	dsn := Options{User: "app", Password: "secret", Host: "db", Port: "3306", Name: "community"}.DSN()
	for _, want := range []string{"app:secret@tcp(db:3306)/community", "parseTime=true", "charset=utf8mb4"} {
		if !strings.Contains(dsn, want) {
			t.Errorf("dsn %q missing %q", dsn, want)
		}
	}
}
