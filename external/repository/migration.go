package repository

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

var migrationStatements = []string{
	`DO $$ BEGIN CREATE TYPE session_status AS ENUM ('disconnected', 'connecting', 'waiting_for_code', 'connected', 'error'); EXCEPTION WHEN duplicate_object THEN NULL; END $$`,
	`DO $$ BEGIN CREATE TYPE queue_status AS ENUM ('queued', 'playing', 'completed', 'skipped'); EXCEPTION WHEN duplicate_object THEN NULL; END $$`,
	`CREATE TABLE IF NOT EXISTS bot_sessions (
		singleton BOOLEAN PRIMARY KEY DEFAULT TRUE CHECK (singleton),
		id UUID NOT NULL DEFAULT gen_random_uuid(),
		status session_status NOT NULL DEFAULT 'disconnected',
		phone_number TEXT NOT NULL DEFAULT '',
		pairing_code TEXT NOT NULL DEFAULT '',
		connected_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS groups (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		member_count INTEGER NOT NULL DEFAULT 0,
		bot_is_admin BOOLEAN NOT NULL DEFAULT FALSE,
		moderation_enabled BOOLEAN NOT NULL DEFAULT TRUE,
		anti_spam BOOLEAN NOT NULL DEFAULT TRUE,
		anti_link BOOLEAN NOT NULL DEFAULT FALSE,
		welcome_message TEXT NOT NULL DEFAULT '',
		farewell_message TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS commands (
		name TEXT PRIMARY KEY,
		description TEXT NOT NULL,
		category TEXT NOT NULL,
		enabled BOOLEAN NOT NULL DEFAULT TRUE,
		admin_only BOOLEAN NOT NULL DEFAULT FALSE,
		usage TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS logs (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		level TEXT NOT NULL,
		source TEXT NOT NULL,
		message TEXT NOT NULL,
		metadata JSONB,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_logs_created ON logs (created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS music_queue (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		group_id TEXT NOT NULL,
		title TEXT NOT NULL,
		artist TEXT NOT NULL DEFAULT '',
		url TEXT NOT NULL,
		requested_by TEXT NOT NULL,
		position INTEGER NOT NULL,
		status queue_status NOT NULL DEFAULT 'queued',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE(group_id, position)
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_music_queue_one_playing ON music_queue (group_id) WHERE status = 'playing'`,
	`CREATE TABLE IF NOT EXISTS stats (
		day DATE PRIMARY KEY,
		active_groups INTEGER NOT NULL DEFAULT 0,
		commands_today INTEGER NOT NULL DEFAULT 0,
		music_requests INTEGER NOT NULL DEFAULT 0
	)`,
}

func RunMigration(ctx context.Context, pool *pgxpool.Pool) error {
	for _, s := range migrationStatements {
		stmt := strings.TrimSpace(s)
		if stmt == "" {
			continue
		}
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
