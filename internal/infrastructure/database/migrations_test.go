package database

import (
	"context"
	"testing"
	"testing/fstest"
)

func testMigrations() fstest.MapFS {
	return fstest.MapFS{
		"20260101_000000_widgets.up.sql": {Data: []byte(
			"CREATE TABLE widgets (id INTEGER PRIMARY KEY, name TEXT NOT NULL);")},
		"20260101_000000_widgets.down.sql": {Data: []byte("DROP TABLE widgets;")},
		"20260102_000000_seed.up.sql": {Data: []byte(
			"INSERT INTO widgets (name) VALUES ('a'), ('b');")},
		"README.md": {Data: []byte("ignored")},
	}
}

func TestParseMigrationFilename(t *testing.T) {
	tests := []struct {
		filename    string
		wantVersion string
		wantName    string
		wantUp      bool
		wantOK      bool
	}{
		{"20260301_090000_devices.up.sql", "20260301_090000", "devices", true, true},
		{"20260301_090000_devices.down.sql", "20260301_090000", "devices", false, true},
		{"20260301_090000_energy_logs.up.sql", "20260301_090000", "energy_logs", true, true},
		{"20260301_090000.up.sql", "20260301_090000", "20260301_090000", true, true},
		{"devices.up.sql", "", "", false, false},
		{"20260301_090000_devices.sql", "", "", false, false},
		{"20260301_090000_devices.up.txt", "", "", false, false},
		{"2026_0900_x.up.sql", "", "", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			version, name, up, ok := parseMigrationFilename(tt.filename)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if version != tt.wantVersion || name != tt.wantName || up != tt.wantUp {
				t.Errorf("got (%q, %q, %v), want (%q, %q, %v)",
					version, name, up, tt.wantVersion, tt.wantName, tt.wantUp)
			}
		})
	}
}

func TestLoadMigrations(t *testing.T) {
	migrations, err := LoadMigrations(testMigrations())
	if err != nil {
		t.Fatalf("LoadMigrations() error = %v", err)
	}
	if len(migrations) != 2 {
		t.Fatalf("len = %d, want 2", len(migrations))
	}
	if migrations[0].Name != "widgets" || migrations[0].DownSQL == "" {
		t.Errorf("first migration = %+v", migrations[0])
	}
	if migrations[1].Name != "seed" || migrations[1].DownSQL != "" {
		t.Errorf("second migration = %+v", migrations[1])
	}

	none, err := LoadMigrations(nil)
	if err != nil || none != nil {
		t.Errorf("LoadMigrations(nil) = %v, %v", none, err)
	}
}

func TestMigrate(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	src := testMigrations()

	if err := db.Migrate(ctx, src); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM widgets").Scan(&count); err != nil {
		t.Fatalf("COUNT error = %v", err)
	}
	if count != 2 {
		t.Errorf("widgets = %d, want 2", count)
	}

	applied, pending, err := db.MigrationStatus(ctx, src)
	if err != nil {
		t.Fatalf("MigrationStatus() error = %v", err)
	}
	if len(applied) != 2 || len(pending) != 0 {
		t.Errorf("applied=%d pending=%d, want 2/0", len(applied), len(pending))
	}

	// Second run must not re-apply the seed.
	if err := db.Migrate(ctx, src); err != nil {
		t.Fatalf("second Migrate() error = %v", err)
	}
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM widgets").Scan(&count); err != nil {
		t.Fatalf("COUNT error = %v", err)
	}
	if count != 2 {
		t.Errorf("widgets after rerun = %d, want 2", count)
	}
}

func TestMigrateFailureRollsBackOnlyThatMigration(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	src := testMigrations()
	src["20260103_000000_broken.up.sql"] = &fstest.MapFile{Data: []byte("CREATE TABLE nope (")}

	if err := db.Migrate(ctx, src); err == nil {
		t.Fatal("Migrate() expected error for broken migration")
	}

	applied, pending, err := db.MigrationStatus(ctx, src)
	if err != nil {
		t.Fatalf("MigrationStatus() error = %v", err)
	}
	if len(applied) != 2 {
		t.Errorf("applied = %d, want 2", len(applied))
	}
	if len(pending) != 1 || pending[0].Name != "broken" {
		t.Errorf("pending = %+v, want [broken]", pending)
	}
}

func TestMigrateDown(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	src := fstest.MapFS{
		"20260101_000000_widgets.up.sql":   testMigrations()["20260101_000000_widgets.up.sql"],
		"20260101_000000_widgets.down.sql": testMigrations()["20260101_000000_widgets.down.sql"],
	}

	if err := db.Migrate(ctx, src); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	if err := db.MigrateDown(ctx, src); err != nil {
		t.Fatalf("MigrateDown() error = %v", err)
	}

	var name string
	err := db.QueryRowContext(ctx,
		"SELECT name FROM sqlite_master WHERE type='table' AND name='widgets'").Scan(&name)
	if err == nil {
		t.Error("widgets table still exists after MigrateDown")
	}

	// Nothing applied: no-op.
	if err := db.MigrateDown(ctx, src); err != nil {
		t.Errorf("MigrateDown() on empty history error = %v", err)
	}
}

func TestMigrateDownWithoutDownSQL(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	src := testMigrations()
	if err := db.Migrate(ctx, src); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	if err := db.MigrateDown(ctx, src); err == nil {
		t.Error("MigrateDown() expected error when latest has no down SQL")
	}
}
