package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"campaign-editor/backend/internal/editor"
	"campaign-editor/backend/pkg/models"
)

const (
	campaignPath    = "/api/ui/campaign/v1"
	scenarioPath    = "/api/scenario/v2"
	componentPath   = "/api/ui/componentstep/v1/testcase"
	environmentPath = "/api/v2/environment/names"
	jiraPath        = "/api/ui/jira/v1"
)

// ChutneyClient talks to the Chutney server REST API. It implements every
// collaborator of the campaign editor.
type ChutneyClient struct {
	baseURL string
	client  *http.Client
}

// NewChutneyClient creates a new ChutneyClient.
func NewChutneyClient(baseURL string, timeout time.Duration) *ChutneyClient {
	return &ChutneyClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

var (
	_ editor.CampaignStore     = (*ChutneyClient)(nil)
	_ editor.ScenarioCatalog   = (*ChutneyClient)(nil)
	_ editor.ParameterSource   = (*ChutneyClient)(nil)
	_ editor.EnvironmentLister = (*ChutneyClient)(nil)
	_ editor.IssueTracker      = (*ChutneyClient)(nil)
	_ editor.LinkageStore      = (*ChutneyClient)(nil)
)

// FindCampaign returns the campaign with the given id.
func (c *ChutneyClient) FindCampaign(ctx context.Context, id int64) (*models.Campaign, error) {
	var campaign models.Campaign
	err := c.doJSON(ctx, http.MethodGet, campaignPath+"/"+strconv.FormatInt(id, 10), nil, &campaign)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("campaign %d: %w", id, editor.ErrCampaignNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &campaign, nil
}

// CreateCampaign persists a new campaign.
func (c *ChutneyClient) CreateCampaign(ctx context.Context, campaign *models.Campaign) (*models.Campaign, error) {
	var saved models.Campaign
	if err := c.doJSON(ctx, http.MethodPost, campaignPath, campaign, &saved); err != nil {
		return nil, err
	}
	return &saved, nil
}

// UpdateCampaign persists changes to an existing campaign.
func (c *ChutneyClient) UpdateCampaign(ctx context.Context, campaign *models.Campaign) (*models.Campaign, error) {
	var saved models.Campaign
	if err := c.doJSON(ctx, http.MethodPut, campaignPath, campaign, &saved); err != nil {
		return nil, err
	}
	return &saved, nil
}

// ListScenarios returns the scenario catalog.
func (c *ChutneyClient) ListScenarios(ctx context.Context) ([]models.ScenarioIndex, error) {
	var scenarios []models.ScenarioIndex
	if err := c.doJSON(ctx, http.MethodGet, scenarioPath, nil, &scenarios); err != nil {
		return nil, err
	}
	return scenarios, nil
}

// ExecutableParameters returns the parameters a composed scenario expects.
func (c *ChutneyClient) ExecutableParameters(ctx context.Context, scenarioID string) ([]models.KeyValue, error) {
	var params []models.KeyValue
	path := componentPath + "/" + url.PathEscape(scenarioID) + "/parameters"
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &params); err != nil {
		return nil, err
	}
	return params, nil
}

// ListEnvironmentNames returns the names of the target environments.
func (c *ChutneyClient) ListEnvironmentNames(ctx context.Context) ([]string, error) {
	var names []string
	if err := c.doJSON(ctx, http.MethodGet, environmentPath, nil, &names); err != nil {
		return nil, err
	}
	return names, nil
}

// BaseURL returns the configured Jira url, "" when the plugin is disabled.
func (c *ChutneyClient) BaseURL(ctx context.Context) (string, error) {
	body, err := c.do(ctx, http.MethodGet, jiraPath+"/configuration/url", nil)
	if err != nil {
		return "", err
	}
	return string(bytes.TrimSpace(body)), nil
}

// ScenarioIssues maps scenario ids to their Jira issue keys.
func (c *ChutneyClient) ScenarioIssues(ctx context.Context) (map[string]string, error) {
	issues := map[string]string{}
	if err := c.doJSON(ctx, http.MethodGet, jiraPath+"/scenario", nil, &issues); err != nil {
		return nil, err
	}
	return issues, nil
}

// TestExecutionScenarios lists the scenarios linked to a Jira test execution.
func (c *ChutneyClient) TestExecutionScenarios(ctx context.Context, linkageID string) ([]string, error) {
	var links []models.IssueLink
	if err := c.doJSON(ctx, http.MethodGet, jiraPath+"/testexec/"+url.PathEscape(linkageID), nil, &links); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(links))
	for _, l := range links {
		ids = append(ids, l.ChutneyID)
	}
	return ids, nil
}

// FindLinkage returns the Jira test execution linked to a campaign.
func (c *ChutneyClient) FindLinkage(ctx context.Context, campaignID int64) (string, error) {
	var link models.IssueLink
	if err := c.doJSON(ctx, http.MethodGet, jiraPath+"/campaign/"+strconv.FormatInt(campaignID, 10), nil, &link); err != nil {
		return "", err
	}
	return link.ID, nil
}

// SaveLinkage links a campaign to a Jira test execution.
func (c *ChutneyClient) SaveLinkage(ctx context.Context, campaignID int64, linkageID string) error {
	link := models.IssueLink{ID: linkageID, ChutneyID: strconv.FormatInt(campaignID, 10)}
	return c.doJSON(ctx, http.MethodPost, jiraPath+"/campaign", link, nil)
}

func (c *ChutneyClient) doJSON(ctx context.Context, method, path string, in, out any) error {
	body, err := c.do(ctx, method, path, in)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response body: %w", err)
	}
	return nil
}

func (c *ChutneyClient) do(ctx context.Context, method, path string, in any) ([]byte, error) {
	var reqBody io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json, text/plain")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newAPIError(req, resp)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, nil
}
