// Package editor holds the campaign editing model: the per-session state,
// scenario resolution, parameter aggregation, issue-tracker filtering and
// save orchestration. Remote services are reached through the interfaces
// below; the editor never speaks HTTP or SQL itself.
package editor

import (
	"context"

	"campaign-editor/backend/pkg/models"
)

// CampaignStore loads and persists campaigns.
type CampaignStore interface {
	// FindCampaign returns ErrCampaignNotFound when id is unknown.
	FindCampaign(ctx context.Context, id int64) (*models.Campaign, error)
	CreateCampaign(ctx context.Context, campaign *models.Campaign) (*models.Campaign, error)
	UpdateCampaign(ctx context.Context, campaign *models.Campaign) (*models.Campaign, error)
}

// ScenarioCatalog lists every known scenario.
type ScenarioCatalog interface {
	ListScenarios(ctx context.Context) ([]models.ScenarioIndex, error)
}

// ParameterSource returns the executable parameters of a composed scenario.
type ParameterSource interface {
	ExecutableParameters(ctx context.Context, scenarioID string) ([]models.KeyValue, error)
}

// EnvironmentLister lists target environment names.
type EnvironmentLister interface {
	ListEnvironmentNames(ctx context.Context) ([]string, error)
}

// IssueTracker exposes the read side of the issue-tracker integration.
type IssueTracker interface {
	// BaseURL returns "" when the integration is disabled.
	BaseURL(ctx context.Context) (string, error)
	// ScenarioIssues maps scenario ids to their issue keys.
	ScenarioIssues(ctx context.Context) (map[string]string, error)
	// TestExecutionScenarios lists the scenario ids linked to a test execution.
	TestExecutionScenarios(ctx context.Context, linkageID string) ([]string, error)
}

// LinkageStore persists the campaign to test-execution linkage.
type LinkageStore interface {
	// FindLinkage returns "" when the campaign has no linkage.
	FindLinkage(ctx context.Context, campaignID int64) (string, error)
	SaveLinkage(ctx context.Context, campaignID int64, linkageID string) error
}

// Logger is the logging interface compatible with the application logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Dependencies groups the collaborators of an editing session.
type Dependencies struct {
	Campaigns    CampaignStore
	Catalog      ScenarioCatalog
	Parameters   ParameterSource
	Environments EnvironmentLister
	Tracker      IssueTracker
	Linkages     LinkageStore
	Logger       Logger

	// FetchConcurrency bounds parallel parameter lookups. Zero means 4.
	FetchConcurrency int
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
