package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema creates the campaign tables when they do not exist yet.
const Schema = `
CREATE TABLE IF NOT EXISTS campaigns (
	id                  BIGSERIAL PRIMARY KEY,
	title               TEXT NOT NULL,
	description         TEXT NOT NULL DEFAULT '',
	scenario_ids        TEXT[] NOT NULL DEFAULT '{}',
	computed_parameters JSONB NOT NULL DEFAULT '{}',
	schedule_time       TEXT,
	environment         TEXT NOT NULL DEFAULT '',
	parallel_run        BOOLEAN NOT NULL DEFAULT FALSE,
	retry_auto          BOOLEAN NOT NULL DEFAULT FALSE,
	dataset_id          TEXT NOT NULL DEFAULT '',
	tags                TEXT[] NOT NULL DEFAULT '{}',
	updated_at          TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS campaign_linkages (
	campaign_id BIGINT PRIMARY KEY REFERENCES campaigns (id) ON DELETE CASCADE,
	linkage_id  TEXT NOT NULL
);
`

// EnsureSchema applies Schema.
func EnsureSchema(ctx context.Context, db *pgxpool.Pool) error {
	_, err := db.Exec(ctx, Schema)
	return err
}
