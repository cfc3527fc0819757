package sqlite

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the Busker store (SQLite).
var Migrations = migrate.NewGroup("busker")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_busker_tracks",
			Version: "20240101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS busker_tracks (
    id               INTEGER PRIMARY KEY AUTOINCREMENT,
    title            TEXT NOT NULL DEFAULT '',
    artist_name      TEXT NOT NULL DEFAULT '',
    genre            TEXT NOT NULL DEFAULT '',
    price_amount     INTEGER NOT NULL DEFAULT 0,
    price_currency   TEXT NOT NULL DEFAULT '',
    artist_principal TEXT NOT NULL DEFAULT '',
    total_listeners  INTEGER NOT NULL DEFAULT 0,
    total_rating     INTEGER NOT NULL DEFAULT 0,
    rating_count     INTEGER NOT NULL DEFAULT 0,
    available        INTEGER NOT NULL DEFAULT 1,
    proof_of_ownership TEXT NOT NULL DEFAULT '',
    created_at       TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at       TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_busker_tracks_artist ON busker_tracks (artist_principal);
CREATE INDEX IF NOT EXISTS idx_busker_tracks_available ON busker_tracks (available, id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS busker_tracks;`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_busker_users",
			Version: "20240101000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS busker_users (
    principal  TEXT PRIMARY KEY,
    reputation INTEGER NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at TEXT NOT NULL DEFAULT (datetime('now'))
);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS busker_users;`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_busker_subscriptions",
			Version: "20240101000003",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS busker_subscriptions (
    listener_principal TEXT NOT NULL,
    track_id           INTEGER NOT NULL,
    created_at         TEXT NOT NULL DEFAULT (datetime('now')),
    PRIMARY KEY (listener_principal, track_id)
);

CREATE INDEX IF NOT EXISTS idx_busker_subscriptions_track ON busker_subscriptions (track_id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS busker_subscriptions;`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_busker_payments",
			Version: "20240101000004",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS busker_payments (
    id             TEXT PRIMARY KEY,
    track_id       INTEGER NOT NULL,
    from_principal TEXT NOT NULL DEFAULT '',
    to_principal   TEXT NOT NULL DEFAULT '',
    amount         INTEGER NOT NULL DEFAULT 0,
    currency       TEXT NOT NULL DEFAULT '',
    created_at     TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at     TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_busker_payments_from ON busker_payments (from_principal, created_at);
CREATE INDEX IF NOT EXISTS idx_busker_payments_to ON busker_payments (to_principal, created_at);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS busker_payments;`)
				return err
			},
		},
	)
}
