// Package database provides SQLite connectivity for Hearth Core.
//
// It owns the connection lifecycle and a small forward-only migration
// runner. Schema files live in the top-level migrations package and are
// handed to Migrate as an fs.FS:
//
//	db, err := database.Open(database.Config{Path: cfg.Database.Path, WALMode: true})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx, migrations.FS); err != nil {
//	    return err
//	}
//
// Migration files are named YYYYMMDD_HHMMSS_description.up.sql with an
// optional matching .down.sql. Applied versions are recorded in the
// schema_migrations table.
//
// All queries in Hearth use parameterised statements. The database file is
// created with 0600 permissions.
package database
