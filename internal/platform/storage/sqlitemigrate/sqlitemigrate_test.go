package sqlitemigrate

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"testing/fstest"

	_ "modernc.org/sqlite"
)

func TestApplyRecordsAndSkipsApplied(t *testing.T) {
	db := openMemoryDB(t)
	ctx := context.Background()

	migrations := fstest.MapFS{
		"002_index.sql":  &fstest.MapFile{Data: []byte("-- +migrate Up\nCREATE INDEX items_name ON items(name);\n-- +migrate Down\nDROP INDEX items_name;")},
		"001_create.sql": &fstest.MapFile{Data: []byte("-- +migrate Up\nCREATE TABLE items(id TEXT PRIMARY KEY, name TEXT);")},
		"README.md":      &fstest.MapFile{Data: []byte("ignored")},
	}
	if err := Apply(ctx, db, migrations, ""); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if err := Apply(ctx, db, migrations, ""); err != nil {
		t.Fatalf("second Apply() error = %v", err)
	}

	applied, err := Applied(ctx, db)
	if err != nil {
		t.Fatalf("Applied() error = %v", err)
	}
	if len(applied) != 2 || applied[0] != "001_create.sql" || applied[1] != "002_index.sql" {
		t.Fatalf("Applied() = %v", applied)
	}
	if !tableExists(t, db, "items") {
		t.Fatal("expected items table")
	}
}

func TestApplyLeavesFailedMigrationUnrecorded(t *testing.T) {
	db := openMemoryDB(t)
	ctx := context.Background()

	bad := fstest.MapFS{"001_bad.sql": &fstest.MapFile{Data: []byte("-- +migrate Up\nCREAT TABLE things(id INT);")}}
	if err := Apply(ctx, db, bad, ""); err == nil {
		t.Fatal("expected bad migration to fail")
	}
	applied, err := Applied(ctx, db)
	if err != nil {
		t.Fatalf("Applied() error = %v", err)
	}
	if len(applied) != 0 {
		t.Fatalf("Applied() = %v, want none", applied)
	}

	good := fstest.MapFS{"001_bad.sql": &fstest.MapFile{Data: []byte("-- +migrate Up\nCREATE TABLE things(id INTEGER PRIMARY KEY);")}}
	if err := Apply(ctx, db, good, ""); err != nil {
		t.Fatalf("Apply(fixed) error = %v", err)
	}
	if !tableExists(t, db, "things") {
		t.Fatal("expected things table after fix")
	}
}

func TestApplyKeysMigrationsByRoot(t *testing.T) {
	db := openMemoryDB(t)
	ctx := context.Background()

	migrations := fstest.MapFS{
		"migrations/001_sessions.sql": &fstest.MapFile{Data: []byte("CREATE TABLE sessions(id TEXT PRIMARY KEY);")},
	}
	if err := Apply(ctx, db, migrations, "migrations"); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	applied, err := Applied(ctx, db)
	if err != nil {
		t.Fatalf("Applied() error = %v", err)
	}
	if len(applied) != 1 || applied[0] != "migrations/001_sessions.sql" {
		t.Fatalf("Applied() = %v", applied)
	}
}

func TestApplyRejectsMissingInputs(t *testing.T) {
	t.Parallel()

	if err := Apply(context.Background(), nil, fstest.MapFS{}, ""); err == nil {
		t.Fatal("expected nil db error")
	}
}

func TestUpSection(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "no markers", in: "CREATE TABLE a(id INT);", want: "CREATE TABLE a(id INT);"},
		{name: "up only", in: "-- +migrate Up\nSELECT 1;", want: "\nSELECT 1;"},
		{name: "up and down", in: "-- +migrate Up\nSELECT 1;\n-- +migrate Down\nSELECT 2;", want: "\nSELECT 1;\n"},
	}
	for _, tc := range tests {
		if got := UpSection(tc.in); got != tc.want {
			t.Fatalf("%s: UpSection() = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestIsAlreadyExists(t *testing.T) {
	t.Parallel()

	if IsAlreadyExists(nil) {
		t.Fatal("nil error must not match")
	}
	if !IsAlreadyExists(errors.New("table sessions already exists")) {
		t.Fatal("expected already exists match")
	}
	if !IsAlreadyExists(errors.New("duplicate column name: email")) {
		t.Fatal("expected duplicate column match")
	}
	if IsAlreadyExists(errors.New("syntax error")) {
		t.Fatal("syntax error must not match")
	}
}

func openMemoryDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open in-memory db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var found string
	err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name = ?", name).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return false
	}
	if err != nil {
		t.Fatalf("check table %s: %v", name, err)
	}
	return found == name
}
