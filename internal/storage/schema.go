package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// Schema version tracking
const currentSchemaVersion = 2

// initializeSchema creates all tables for a new database
func (db *DB) initializeSchema() error {
	return db.WithTx(context.Background(), func(tx *sql.Tx) error {
		if err := createSchemaVersionTable(tx); err != nil {
			return err
		}
		if err := createEntityTables(tx); err != nil {
			return err
		}
		if err := createV2Indexes(tx); err != nil {
			return err
		}
		if err := setSchemaVersion(tx, currentSchemaVersion); err != nil {
			return err
		}

		db.logger.Info("Database schema initialized", "version", currentSchemaVersion)
		return nil
	})
}

// runMigrations brings an existing file up to currentSchemaVersion
func (db *DB) runMigrations() error {
	version, err := db.getSchemaVersion()
	if err != nil {
		return err
	}

	// An empty file left behind by a failed create
	if version == 0 {
		return db.initializeSchema()
	}

	if version == currentSchemaVersion {
		db.logger.Debug("Database schema is up to date", "version", version)
		return nil
	}
	if version > currentSchemaVersion {
		return fmt.Errorf("database schema version %d is newer than supported version %d", version, currentSchemaVersion)
	}

	db.logger.Info("Running database migrations",
		"from_version", version,
		"to_version", currentSchemaVersion,
	)

	if version < 2 {
		if err := db.migrateToV2(); err != nil {
			return err
		}
	}
	return nil
}

// migrateToV2 adds the team natural-key index and the record time indexes.
// Duplicate (member_id, team_id) rows from v1 are collapsed to the oldest one.
func (db *DB) migrateToV2() error {
	return db.WithTx(context.Background(), func(tx *sql.Tx) error {
		res, err := tx.Exec(`
			DELETE FROM teams WHERE record_id NOT IN (
				SELECT MIN(record_id) FROM teams GROUP BY member_id, team_id
			)
		`)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n > 0 {
			db.logger.Warn("Removed duplicate team rows during migration", "count", n)
		}

		if err := createV2Indexes(tx); err != nil {
			return err
		}
		return setSchemaVersion(tx, 2)
	})
}

// SchemaVersion returns the version stored in the file
func (db *DB) SchemaVersion() (int, error) {
	return db.getSchemaVersion()
}

func (db *DB) getSchemaVersion() (int, error) {
	var tableName string
	err := db.conn.QueryRow(`
		SELECT name FROM sqlite_master
		WHERE type='table' AND name='schema_version'
	`).Scan(&tableName)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	var version int
	err = db.conn.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return version, nil
}

func setSchemaVersion(tx *sql.Tx, version int) error {
	if _, err := tx.Exec("DELETE FROM schema_version"); err != nil {
		return err
	}
	_, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version)
	return err
}

func createSchemaVersionTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER NOT NULL
		)
	`)
	return err
}

// createEntityTables creates the v1 layout: roster, bosses, attempt records, teams.
// Records and teams reference members and bosses with ON DELETE NO ACTION, so a
// referenced row cannot be removed.
func createEntityTables(tx *sql.Tx) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS members (
			member_id TEXT PRIMARY KEY,
			alias TEXT NOT NULL,
			account TEXT NOT NULL DEFAULT '',
			password TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS bosses (
			boss_id INTEGER PRIMARY KEY,
			alias TEXT NOT NULL,
			health INTEGER NOT NULL CHECK (health >= 0)
		)`,
		`CREATE TABLE IF NOT EXISTS records (
			record_id INTEGER PRIMARY KEY AUTOINCREMENT,
			member_id TEXT NOT NULL REFERENCES members(member_id) ON UPDATE CASCADE ON DELETE NO ACTION,
			boss_id INTEGER NOT NULL REFERENCES bosses(boss_id) ON UPDATE CASCADE ON DELETE NO ACTION,
			damage INTEGER NOT NULL CHECK (damage >= 0),
			sequence INTEGER NOT NULL CHECK (sequence >= 1),
			turn INTEGER NOT NULL,
			team INTEGER NOT NULL,
			date_time INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS teams (
			record_id INTEGER PRIMARY KEY AUTOINCREMENT,
			member_id TEXT NOT NULL REFERENCES members(member_id) ON UPDATE CASCADE ON DELETE NO ACTION,
			team_id INTEGER NOT NULL,
			team_list TEXT NOT NULL,
			us_list TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_members_alias ON members(alias)`,
		`CREATE INDEX IF NOT EXISTS idx_bosses_alias ON bosses(alias)`,
	}
	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func createV2Indexes(tx *sql.Tx) error {
	stmts := []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_teams_member_team ON teams(member_id, team_id)`,
		`CREATE INDEX IF NOT EXISTS idx_records_member_time ON records(member_id, date_time)`,
		`CREATE INDEX IF NOT EXISTS idx_records_boss_time ON records(boss_id, date_time)`,
	}
	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Reset removes every row from every entity table in one transaction.
// Dependents go first so the foreign keys never fire.
func (db *DB) Reset(ctx context.Context) Result[int64] {
	var total int64
	err := db.WithTx(ctx, func(tx *sql.Tx) error {
		for _, table := range []string{"records", "teams", "members", "bosses"} {
			res, err := tx.ExecContext(ctx, "DELETE FROM "+table)
			if err != nil {
				return err
			}
			n, _ := res.RowsAffected()
			total += n
		}
		return nil
	})
	if err != nil {
		status, detail := db.fail(ctx, "db.reset", err)
		return Failed[int64](status, detail)
	}

	db.logger.Warn("Database reset", "rows_removed", total)
	return Succeeded(total, StatusDeleteSuccess)
}
