// Package database persists generated floors to SQLite or PostgreSQL.
package database

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/lawnchairsociety/delvegen/internal/logger"
)

// ErrUnknownDriver is returned by OpenWithConfig for unsupported drivers.
var ErrUnknownDriver = errors.New("unknown database driver")

// ErrFloorExists is returned by SaveFloor when the generation is already stored.
var ErrFloorExists = errors.New("floor generation already exists")

// Database wraps the SQL connection and provides persistence operations.
type Database struct {
	db      *sql.DB
	dialect Dialect
	qb      *QueryBuilder
}

// Open opens or creates the SQLite database at the given path.
func Open(path string) (*Database, error) {
	return OpenWithConfig(DefaultConfig(path))
}

// OpenWithConfig opens the database described by cfg and runs migrations.
func OpenWithConfig(cfg Config) (*Database, error) {
	var (
		dialect Dialect
		dsn     string
	)

	switch cfg.Driver {
	case "", string(DialectSQLite):
		// Ensure directory exists
		if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		dialect = NewDialect(DialectSQLite)
		dsn = cfg.SQLitePath
	case string(DialectPostgres):
		dialect = NewDialect(DialectPostgres)
		dsn = cfg.Postgres.ConnString()
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}

	db, err := sql.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if cfg.Driver == string(DialectPostgres) {
		db.SetMaxOpenConns(cfg.Postgres.MaxOpenConns)
		db.SetMaxIdleConns(cfg.Postgres.MaxIdleConns)
		db.SetConnMaxLifetime(cfg.Postgres.ConnMaxLifetime)
	} else {
		// PRAGMAs are per connection; one connection keeps them in force
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	for _, stmt := range dialect.InitStatements() {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to initialise database (%s): %w", stmt, err)
		}
	}

	d := &Database{db: db, dialect: dialect, qb: NewQueryBuilder(dialect)}

	if err := d.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Debug("Database opened", "driver", dialect.DriverName())
	return d, nil
}

// Close closes the database connection.
func (d *Database) Close() error {
	return d.db.Close()
}

// migrate creates the database schema if it doesn't exist.
func (d *Database) migrate() error {
	migrations := []string{
		// One row per generation run of a floor
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS floors (
			id %s,
			generation_id TEXT UNIQUE NOT NULL,
			floor_number INTEGER NOT NULL,
			width INTEGER NOT NULL,
			height INTEGER NOT NULL,
			entrance_x INTEGER NOT NULL,
			entrance_y INTEGER NOT NULL,
			room_count INTEGER NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`, d.dialect.AutoIncrementPrimaryKey()),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS factions (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL DEFAULT '',
			influence %s NOT NULL DEFAULT 0
		)`, d.dialect.FloatType()),

		`CREATE TABLE IF NOT EXISTS rooms (
			generation_id TEXT NOT NULL REFERENCES floors(generation_id) ON DELETE CASCADE,
			id TEXT NOT NULL,
			floor_number INTEGER NOT NULL,
			x INTEGER NOT NULL,
			y INTEGER NOT NULL,
			room_type TEXT NOT NULL,
			explored INTEGER NOT NULL DEFAULT 0,
			looted INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (generation_id, id),
			UNIQUE (generation_id, x, y)
		)`,

		`CREATE TABLE IF NOT EXISTS room_connections (
			generation_id TEXT NOT NULL REFERENCES floors(generation_id) ON DELETE CASCADE,
			from_room_id TEXT NOT NULL,
			to_room_id TEXT NOT NULL,
			direction TEXT NOT NULL,
			PRIMARY KEY (generation_id, from_room_id, direction)
		)`,

		`CREATE TABLE IF NOT EXISTS faction_claims (
			generation_id TEXT NOT NULL REFERENCES floors(generation_id) ON DELETE CASCADE,
			room_id TEXT NOT NULL,
			faction_id TEXT NOT NULL REFERENCES factions(id),
			PRIMARY KEY (generation_id, room_id)
		)`,

		// Indexes for common queries
		`CREATE INDEX IF NOT EXISTS idx_floors_floor_number ON floors(floor_number)`,
		`CREATE INDEX IF NOT EXISTS idx_faction_claims_faction_id ON faction_claims(faction_id)`,
	}

	for _, m := range migrations {
		if _, err := d.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}

	return nil
}

// DB returns the underlying sql.DB for advanced operations.
func (d *Database) DB() *sql.DB {
	return d.db
}
