package db

import (
	"context"
	"fmt"
)

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		user_id    INTEGER PRIMARY KEY AUTOINCREMENT,
		first_name TEXT    NOT NULL,
		last_name  TEXT    NOT NULL,
		email      TEXT    NOT NULL UNIQUE,
		password   TEXT    NOT NULL,
		teacher    INTEGER NOT NULL DEFAULT 0 CHECK (teacher IN (0, 1))
	)`,
	`CREATE TABLE IF NOT EXISTS categories (
		category_id   INTEGER PRIMARY KEY AUTOINCREMENT,
		category_name TEXT    NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS words (
		word_id     INTEGER   PRIMARY KEY AUTOINCREMENT,
		word_name   TEXT      NOT NULL,
		english     TEXT      NOT NULL,
		description TEXT      NOT NULL DEFAULT 'Pending',
		image       TEXT      NOT NULL DEFAULT '',
		level       INTEGER   NOT NULL,
		category_id INTEGER   NOT NULL REFERENCES categories(category_id),
		user_id     INTEGER   NOT NULL DEFAULT 0,
		created_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_words_category ON words(category_id)`,
	`CREATE INDEX IF NOT EXISTS idx_words_level ON words(level)`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		user_id    SERIAL   PRIMARY KEY,
		first_name TEXT     NOT NULL,
		last_name  TEXT     NOT NULL,
		email      TEXT     NOT NULL UNIQUE,
		password   TEXT     NOT NULL,
		teacher    SMALLINT NOT NULL DEFAULT 0 CHECK (teacher IN (0, 1))
	)`,
	`CREATE TABLE IF NOT EXISTS categories (
		category_id   SERIAL      PRIMARY KEY,
		category_name VARCHAR(20) NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS words (
		word_id     SERIAL       PRIMARY KEY,
		word_name   VARCHAR(85)  NOT NULL,
		english     VARCHAR(85)  NOT NULL,
		description VARCHAR(300) NOT NULL DEFAULT 'Pending',
		image       VARCHAR(256) NOT NULL DEFAULT '',
		level       INTEGER      NOT NULL,
		category_id INTEGER      NOT NULL REFERENCES categories(category_id),
		user_id     INTEGER      NOT NULL DEFAULT 0,
		created_at  TIMESTAMPTZ  NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_words_category ON words(category_id)`,
	`CREATE INDEX IF NOT EXISTS idx_words_level ON words(level)`,
}

// EnsureSchema creates the dictionary tables when they do not exist yet.
func (d *DB) EnsureSchema(ctx context.Context) error {
	statements := sqliteSchema
	if d.DriverName() == DriverPostgres {
		statements = postgresSchema
	}

	for _, stmt := range statements {
		if _, err := d.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
