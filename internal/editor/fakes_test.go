package editor

import (
	"context"
	"errors"
	"sync"

	"github.com/stretchr/testify/mock"

	"campaign-editor/backend/pkg/models"
)

type fakeCatalog struct {
	scenarios []models.ScenarioIndex
	err       error
}

func (f *fakeCatalog) ListScenarios(ctx context.Context) ([]models.ScenarioIndex, error) {
	return f.scenarios, f.err
}

type fakeParameters struct {
	mu    sync.Mutex
	byID  map[string][]models.KeyValue
	errs  map[string]error
	calls []string
}

func (f *fakeParameters) ExecutableParameters(ctx context.Context, scenarioID string) ([]models.KeyValue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, scenarioID)
	if err := f.errs[scenarioID]; err != nil {
		return nil, err
	}
	return f.byID[scenarioID], nil
}

func (f *fakeParameters) called() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

type fakeEnvironments struct {
	names []string
	err   error
}

func (f *fakeEnvironments) ListEnvironmentNames(ctx context.Context) ([]string, error) {
	return append([]string(nil), f.names...), f.err
}

type fakeTracker struct {
	baseURL string
	issues  map[string]string
	linked  map[string][]string
	err     error
}

func (f *fakeTracker) BaseURL(ctx context.Context) (string, error) {
	return f.baseURL, nil
}

func (f *fakeTracker) ScenarioIssues(ctx context.Context) (map[string]string, error) {
	return f.issues, nil
}

func (f *fakeTracker) TestExecutionScenarios(ctx context.Context, linkageID string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.linked[linkageID], nil
}

// MockCampaignStore satisfies CampaignStore.
type MockCampaignStore struct {
	mock.Mock
}

func (m *MockCampaignStore) FindCampaign(ctx context.Context, id int64) (*models.Campaign, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Campaign), args.Error(1)
}

func (m *MockCampaignStore) CreateCampaign(ctx context.Context, campaign *models.Campaign) (*models.Campaign, error) {
	args := m.Called(ctx, campaign)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Campaign), args.Error(1)
}

func (m *MockCampaignStore) UpdateCampaign(ctx context.Context, campaign *models.Campaign) (*models.Campaign, error) {
	args := m.Called(ctx, campaign)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Campaign), args.Error(1)
}

// MockLinkageStore satisfies LinkageStore.
type MockLinkageStore struct {
	mock.Mock
}

func (m *MockLinkageStore) FindLinkage(ctx context.Context, campaignID int64) (string, error) {
	args := m.Called(ctx, campaignID)
	return args.String(0), args.Error(1)
}

func (m *MockLinkageStore) SaveLinkage(ctx context.Context, campaignID int64, linkageID string) error {
	args := m.Called(ctx, campaignID, linkageID)
	return args.Error(0)
}

// payloadError mimics a remote error carrying a message for the user.
type payloadError struct {
	msg string
}

func (e *payloadError) Error() string       { return "remote call failed" }
func (e *payloadError) UserMessage() string { return e.msg }

var errBoom = errors.New("boom")

func int64Ptr(v int64) *int64 { return &v }

func strPtr(v string) *string { return &v }

func boolPtr(v bool) *bool { return &v }

func testCatalog() []models.ScenarioIndex {
	return []models.ScenarioIndex{
		{ID: "1", Title: "Login", Tags: []string{"smoke", "auth"}},
		{ID: "2", Title: "Checkout", Tags: []string{"payment"}},
		{ID: "3", Title: "Logout", Tags: []string{"auth"}},
		{ID: "10-1", Title: "Composed order flow", Tags: []string{"smoke"}},
		{ID: "10-2", Title: "Composed refund flow"},
	}
}
