package repository

import (
	"context"

	"campaign-editor/backend/internal/editor"
)

// Repository persists campaigns and their issue-tracker linkage.
type Repository interface {
	editor.CampaignStore
	editor.LinkageStore
	// Ping checks the database connection.
	Ping(ctx context.Context) error
}
