package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"campaign-editor/backend/internal/editor"
	"campaign-editor/backend/pkg/models"
)

const campaignColumns = `id, title, description, scenario_ids, computed_parameters, schedule_time,
	environment, parallel_run, retry_auto, dataset_id, tags`

// PostgresCampaignStore is a PostgreSQL implementation of the Repository interface.
type PostgresCampaignStore struct {
	db *pgxpool.Pool
}

// NewPostgresCampaignStore creates a new PostgresCampaignStore.
func NewPostgresCampaignStore(db *pgxpool.Pool) *PostgresCampaignStore {
	return &PostgresCampaignStore{db: db}
}

var _ Repository = (*PostgresCampaignStore)(nil)

// Ping checks the database connection.
func (s *PostgresCampaignStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// FindCampaign retrieves a campaign by its ID.
func (s *PostgresCampaignStore) FindCampaign(ctx context.Context, id int64) (*models.Campaign, error) {
	row := s.db.QueryRow(ctx, "SELECT "+campaignColumns+" FROM campaigns WHERE id = $1", id)
	campaign, err := scanCampaign(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("campaign %d: %w", id, editor.ErrCampaignNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find campaign %d: %w", id, err)
	}
	return campaign, nil
}

// CreateCampaign inserts a campaign and returns it with its assigned ID.
func (s *PostgresCampaignStore) CreateCampaign(ctx context.Context, campaign *models.Campaign) (*models.Campaign, error) {
	c := normalized(campaign)
	row := s.db.QueryRow(ctx, `INSERT INTO campaigns
		(title, description, scenario_ids, computed_parameters, schedule_time, environment, parallel_run, retry_auto, dataset_id, tags)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+campaignColumns,
		c.Title, c.Description, c.ScenarioIDs, c.Parameters, c.ScheduleTime, c.Environment, c.ParallelRun, c.RetryAuto, c.DatasetID, c.Tags)
	saved, err := scanCampaign(row)
	if err != nil {
		return nil, fmt.Errorf("create campaign: %w", err)
	}
	return saved, nil
}

// UpdateCampaign replaces an existing campaign.
func (s *PostgresCampaignStore) UpdateCampaign(ctx context.Context, campaign *models.Campaign) (*models.Campaign, error) {
	if campaign.ID == nil {
		return nil, errors.New("update campaign: missing id")
	}
	c := normalized(campaign)
	row := s.db.QueryRow(ctx, `UPDATE campaigns SET
		title = $2, description = $3, scenario_ids = $4, computed_parameters = $5, schedule_time = $6,
		environment = $7, parallel_run = $8, retry_auto = $9, dataset_id = $10, tags = $11, updated_at = now()
		WHERE id = $1
		RETURNING `+campaignColumns,
		*c.ID, c.Title, c.Description, c.ScenarioIDs, c.Parameters, c.ScheduleTime, c.Environment, c.ParallelRun, c.RetryAuto, c.DatasetID, c.Tags)
	saved, err := scanCampaign(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("campaign %d: %w", *c.ID, editor.ErrCampaignNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("update campaign %d: %w", *c.ID, err)
	}
	return saved, nil
}

// FindCampaignIDByTitle returns the id of the most recent campaign with the
// given title. ok is false when there is none.
func (s *PostgresCampaignStore) FindCampaignIDByTitle(ctx context.Context, title string) (id int64, ok bool, err error) {
	err = s.db.QueryRow(ctx, "SELECT id FROM campaigns WHERE title = $1 ORDER BY id DESC LIMIT 1", title).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("find campaign %q: %w", title, err)
	}
	return id, true, nil
}

// FindLinkage returns the test execution linked to a campaign, or "".
func (s *PostgresCampaignStore) FindLinkage(ctx context.Context, campaignID int64) (string, error) {
	var linkageID string
	err := s.db.QueryRow(ctx, "SELECT linkage_id FROM campaign_linkages WHERE campaign_id = $1", campaignID).Scan(&linkageID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("find linkage of campaign %d: %w", campaignID, err)
	}
	return linkageID, nil
}

// SaveLinkage links a campaign to a test execution. An empty linkageID
// removes the link.
func (s *PostgresCampaignStore) SaveLinkage(ctx context.Context, campaignID int64, linkageID string) error {
	var err error
	if linkageID == "" {
		_, err = s.db.Exec(ctx, "DELETE FROM campaign_linkages WHERE campaign_id = $1", campaignID)
	} else {
		_, err = s.db.Exec(ctx, `INSERT INTO campaign_linkages (campaign_id, linkage_id) VALUES ($1, $2)
			ON CONFLICT (campaign_id) DO UPDATE SET linkage_id = EXCLUDED.linkage_id`, campaignID, linkageID)
	}
	if err != nil {
		return fmt.Errorf("save linkage of campaign %d: %w", campaignID, err)
	}
	return nil
}

func scanCampaign(row pgx.Row) (*models.Campaign, error) {
	var (
		c  models.Campaign
		id int64
	)
	err := row.Scan(&id, &c.Title, &c.Description, &c.ScenarioIDs, &c.Parameters, &c.ScheduleTime,
		&c.Environment, &c.ParallelRun, &c.RetryAuto, &c.DatasetID, &c.Tags)
	if err != nil {
		return nil, err
	}
	c.ID = &id
	return &c, nil
}

// normalized replaces nil collections so NOT NULL columns get empty values.
func normalized(campaign *models.Campaign) *models.Campaign {
	c := campaign.Clone()
	if c.ScenarioIDs == nil {
		c.ScenarioIDs = []string{}
	}
	if c.Tags == nil {
		c.Tags = []string{}
	}
	if c.Parameters == nil {
		c.Parameters = map[string]string{}
	}
	return c
}
