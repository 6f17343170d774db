package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id            INTEGER PRIMARY KEY,
    username      TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    role          TEXT NOT NULL DEFAULT 'technician' CHECK (role IN ('admin', 'technician')),
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at    DATETIME
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username_active
    ON users(username) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS spare_parts (
    id           INTEGER PRIMARY KEY,
    name         TEXT NOT NULL,
    code         TEXT NOT NULL UNIQUE,
    quantity     INTEGER NOT NULL DEFAULT 0 CHECK (quantity >= 0),
    min_quantity INTEGER NOT NULL DEFAULT 10 CHECK (min_quantity >= 1),
    price_cents  INTEGER NOT NULL CHECK (price_cents >= 0),
    description  TEXT,
    location     TEXT,
    supplier     TEXT,
    category     TEXT,
    image        BLOB,
    image_mime   TEXT,
    created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_spare_parts_name ON spare_parts(name);
CREATE INDEX IF NOT EXISTS idx_spare_parts_category ON spare_parts(category);
CREATE INDEX IF NOT EXISTS idx_spare_parts_stock ON spare_parts(quantity, min_quantity);
CREATE INDEX IF NOT EXISTS idx_spare_parts_created_at ON spare_parts(created_at);

CREATE TABLE IF NOT EXISTS usage_histories (
    id              INTEGER PRIMARY KEY,
    spare_part_id   INTEGER NOT NULL REFERENCES spare_parts(id) ON DELETE CASCADE,
    user_id         INTEGER NOT NULL REFERENCES users(id),
    quantity_used   INTEGER NOT NULL CHECK (quantity_used >= 1),
    quantity_before INTEGER NOT NULL,
    quantity_after  INTEGER NOT NULL CHECK (quantity_after >= 0),
    purpose         TEXT,
    work_order      TEXT,
    notes           TEXT,
    created_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    CHECK (quantity_after = quantity_before - quantity_used)
);

CREATE INDEX IF NOT EXISTS idx_usage_histories_user ON usage_histories(user_id);
CREATE INDEX IF NOT EXISTS idx_usage_histories_created_at ON usage_histories(created_at);
CREATE INDEX IF NOT EXISTS idx_usage_histories_part_created
    ON usage_histories(spare_part_id, created_at);

CREATE TRIGGER IF NOT EXISTS usage_histories_append_only
BEFORE UPDATE ON usage_histories
BEGIN
    SELECT RAISE(ABORT, 'usage history is append-only');
END;

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at DATETIME NOT NULL
);
`

// migrations is a list of SQL statements applied in order after schema creation.
// Each migration must be idempotent. Append new migrations at the end.
var migrations = []string{
	// Migration 1: expired revocations are purged by expiry time.
	`CREATE INDEX IF NOT EXISTS idx_revoked_tokens_expires_at ON revoked_tokens(expires_at)`,
}

// EnsureSchema creates all tables and indexes if they don't already exist
// and applies pending migrations.
func EnsureSchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}

	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("running migration %d: %w", i+1, err)
		}
	}
	return nil
}
