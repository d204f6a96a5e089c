package editor

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	"campaign-editor/backend/pkg/models"
)

// Form holds the free-form fields of the campaign being edited.
type Form struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	// Tags is the comma-separated tag list as typed.
	Tags         string `json:"tags"`
	ScheduleTime string `json:"scheduleTime"`
	ParallelRun  bool   `json:"parallelRun"`
	RetryAuto    bool   `json:"retryAuto"`
}

// FormPatch is a partial update of the session fields. Nil fields are left
// untouched.
type FormPatch struct {
	Title          *string `json:"title,omitempty"`
	Description    *string `json:"description,omitempty"`
	Tags           *string `json:"tags,omitempty"`
	ScheduleTime   *string `json:"scheduleTime,omitempty"`
	ParallelRun    *bool   `json:"parallelRun,omitempty"`
	RetryAuto      *bool   `json:"retryAuto,omitempty"`
	Environment    *string `json:"environment,omitempty"`
	DatasetID      *string `json:"datasetId,omitempty"`
	ScenarioFilter *string `json:"scenarioFilter,omitempty"`
	LinkageID      *string `json:"linkageId,omitempty"`
	OnlyLinked     *bool   `json:"onlyLinked,omitempty"`
}

// Session is the state of one campaign editing session. It is created when
// the editor opens and dropped when the user saves or navigates away.
// All methods are safe for concurrent use; remote calls run without holding
// the session lock.
type Session struct {
	deps Dependencies
	log  Logger

	mu           sync.Mutex
	campaign     *models.Campaign
	form         Form
	environment  string
	datasetID    string
	catalog      []models.ScenarioIndex
	selected     []models.ScenarioIndex
	parameters   []models.KeyValue
	paramErrors  map[string]string
	environments []string
	tagOptions   []string
	selectedTags []string
	filterText   string
	linkage      linkageState
	warnings     []string
	errorMessage string
	submitting   bool

	// generation changes with every selection change; a parameter
	// aggregation started under an older generation is discarded.
	generation uint64
	// appliedGen is the generation of the displayed parameter list.
	appliedGen uint64
	// linkageGen plays the same role for linked-scenario lookups.
	linkageGen uint64
}

// NewSession creates an empty editing session.
func NewSession(deps Dependencies) (*Session, error) {
	if deps.Campaigns == nil || deps.Catalog == nil || deps.Parameters == nil {
		return nil, errors.New("editor: campaign store, scenario catalog and parameter source are required")
	}
	log := deps.Logger
	if log == nil {
		log = nopLogger{}
	}
	return &Session{
		deps:       deps,
		log:        log,
		campaign:   &models.Campaign{Parameters: map[string]string{}},
		parameters: []models.KeyValue{},
	}, nil
}

// Open loads the reference data and, when campaignID is set, the campaign to
// edit. The scenario catalog is always loaded before the saved scenario ids
// are resolved against it.
func (s *Session) Open(ctx context.Context, campaignID *int64) error {
	s.loadEnvironments(ctx)
	if err := s.loadCatalog(ctx); err != nil {
		return err
	}
	if campaignID == nil {
		return nil
	}
	return s.load(ctx, *campaignID)
}

func (s *Session) loadEnvironments(ctx context.Context) {
	if s.deps.Environments == nil {
		return
	}
	names, err := s.deps.Environments.ListEnvironmentNames(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.log.Warn("failed to list environments", "error", err)
		s.errorMessage = ErrorMessage(err)
		return
	}
	SortEnvironments(names)
	s.environments = names
}

func (s *Session) loadCatalog(ctx context.Context) error {
	catalog, err := s.deps.Catalog.ListScenarios(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.errorMessage = ErrorMessage(err)
		return fmt.Errorf("list scenarios: %w", err)
	}
	if catalog == nil {
		catalog = []models.ScenarioIndex{}
	}
	s.catalog = catalog
	s.tagOptions = TagOptions(catalog)
	return nil
}

func (s *Session) load(ctx context.Context, id int64) error {
	found, err := s.deps.Campaigns.FindCampaign(ctx, id)
	if err != nil {
		s.mu.Lock()
		s.errorMessage = ErrorMessage(err)
		s.mu.Unlock()
		return fmt.Errorf("find campaign %d: %w", id, err)
	}

	s.mu.Lock()
	s.campaign = found.Clone()
	if s.campaign.Parameters == nil {
		s.campaign.Parameters = map[string]string{}
	}
	s.form = formFromCampaign(s.campaign)
	s.environment = s.campaign.Environment
	s.datasetID = s.campaign.DatasetID

	resolved, missing := ResolveScenarios(s.catalog, s.campaign.ScenarioIDs)
	s.selected = resolved
	s.generation++
	for _, id := range missing {
		s.warnings = append(s.warnings, fmt.Sprintf("scenario %s no longer exists and was removed from the selection", id))
	}
	s.mu.Unlock()

	if len(missing) > 0 {
		s.log.Warn("campaign references unknown scenarios", "campaign_id", id, "scenario_ids", missing)
	}

	s.refreshParameters(ctx)
	s.initTracker(ctx, id)
	return nil
}

func formFromCampaign(c *models.Campaign) Form {
	f := Form{
		Title:       c.Title,
		Description: c.Description,
		Tags:        strings.Join(c.Tags, ","),
		ParallelRun: c.ParallelRun,
		RetryAuto:   c.RetryAuto,
	}
	if c.ScheduleTime != nil {
		f.ScheduleTime = *c.ScheduleTime
	}
	return f
}

// initTracker enables the issue-tracker integration when it is configured and
// loads the campaign's linkage. Failures are reported but never fatal.
func (s *Session) initTracker(ctx context.Context, campaignID int64) {
	if s.deps.Tracker == nil {
		return
	}
	baseURL, err := s.deps.Tracker.BaseURL(ctx)
	if err != nil {
		s.reportError("failed to read issue tracker url", err)
		return
	}
	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL == "" {
		return
	}
	s.mu.Lock()
	s.linkage.baseURL = baseURL
	s.mu.Unlock()

	if s.deps.Linkages != nil {
		linkageID, err := s.deps.Linkages.FindLinkage(ctx, campaignID)
		if err != nil {
			s.reportError("failed to load campaign linkage", err)
		} else if linkageID != "" {
			if err := s.SetLinkageID(ctx, linkageID); err != nil {
				s.log.Warn("failed to load linked scenarios", "campaign_id", campaignID, "linkage_id", linkageID, "error", err)
			}
		}
	}

	issues, err := s.deps.Tracker.ScenarioIssues(ctx)
	if err != nil {
		s.log.Warn("failed to load scenario issues", "error", err)
		return
	}
	s.mu.Lock()
	s.linkage.scenarioIssues = issues
	s.mu.Unlock()
}

func (s *Session) reportError(msg string, err error) {
	s.log.Warn(msg, "error", err)
	s.mu.Lock()
	s.errorMessage = ErrorMessage(err)
	s.mu.Unlock()
}

// ApplyForm updates the fields set in patch and recomputes what depends on
// them.
func (s *Session) ApplyForm(ctx context.Context, patch FormPatch) error {
	s.mu.Lock()
	if patch.Title != nil {
		s.form.Title = *patch.Title
	}
	if patch.Description != nil {
		s.form.Description = *patch.Description
	}
	if patch.Tags != nil {
		s.form.Tags = *patch.Tags
	}
	if patch.ScheduleTime != nil {
		s.form.ScheduleTime = strings.TrimSpace(*patch.ScheduleTime)
	}
	if patch.ParallelRun != nil {
		s.form.ParallelRun = *patch.ParallelRun
	}
	if patch.RetryAuto != nil {
		s.form.RetryAuto = *patch.RetryAuto
	}
	if patch.Environment != nil {
		s.environment = *patch.Environment
	}
	if patch.DatasetID != nil {
		s.datasetID = *patch.DatasetID
	}
	if patch.ScenarioFilter != nil {
		s.filterText = *patch.ScenarioFilter
	}
	linkageChanged := patch.LinkageID != nil && strings.TrimSpace(*patch.LinkageID) != s.linkage.linkageID
	s.mu.Unlock()

	if linkageChanged {
		if err := s.SetLinkageID(ctx, *patch.LinkageID); err != nil {
			return err
		}
	}
	if patch.OnlyLinked != nil {
		s.SetOnlyLinked(*patch.OnlyLinked)
	}
	return nil
}

// SelectEnvironment sets the target environment.
func (s *Session) SelectEnvironment(name string) {
	s.mu.Lock()
	s.environment = name
	s.mu.Unlock()
}

// SelectDataset sets the dataset used at execution.
func (s *Session) SelectDataset(id string) {
	s.mu.Lock()
	s.datasetID = id
	s.mu.Unlock()
}

// SelectTag adds tag to the scenario list filter.
func (s *Session) SelectTag(tag string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !slices.Contains(s.selectedTags, tag) {
		s.selectedTags = append(s.selectedTags, tag)
	}
}

// DeselectTag removes tag from the scenario list filter.
func (s *Session) DeselectTag(tag string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := slices.Index(s.selectedTags, tag); i >= 0 {
		s.selectedTags = slices.Delete(s.selectedTags, i, i+1)
	}
}

// AddScenario appends a catalog scenario to the selection. Adding a selected
// scenario again is a no-op.
func (s *Session) AddScenario(ctx context.Context, scenarioID string) error {
	s.mu.Lock()
	if s.catalog == nil {
		s.mu.Unlock()
		return ErrCatalogNotLoaded
	}
	if slices.ContainsFunc(s.selected, func(sc models.ScenarioIndex) bool { return sc.ID == scenarioID }) {
		s.mu.Unlock()
		return nil
	}
	i := slices.IndexFunc(s.catalog, func(sc models.ScenarioIndex) bool { return sc.ID == scenarioID })
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownScenario, scenarioID)
	}
	s.selected = append(s.selected, s.catalog[i])
	s.generation++
	s.mu.Unlock()

	s.refreshParameters(ctx)
	return nil
}

// RemoveScenario drops a scenario from the selection. Re-adding it later puts
// it at the end.
func (s *Session) RemoveScenario(ctx context.Context, scenarioID string) error {
	s.mu.Lock()
	i := slices.IndexFunc(s.selected, func(sc models.ScenarioIndex) bool { return sc.ID == scenarioID })
	if i < 0 {
		s.mu.Unlock()
		return nil
	}
	s.selected = slices.Delete(s.selected, i, i+1)
	s.generation++
	s.mu.Unlock()

	s.refreshParameters(ctx)
	return nil
}

// SetParameter edits the value of a displayed parameter.
func (s *Session) SetParameter(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.parameters {
		if s.parameters[i].Key == key {
			s.parameters[i].Value = value
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrUnknownParameter, key)
}

// refreshParameters recomputes the displayed parameter list from the current
// selection. The list is replaced only if the selection did not change while
// the lookups were running. Callers bump generation under the same lock that
// changes the selection.
func (s *Session) refreshParameters(ctx context.Context) {
	s.mu.Lock()
	gen := s.generation
	selected := slices.Clone(s.selected)
	saved := maps.Clone(s.campaign.Parameters)
	s.mu.Unlock()

	result := AggregateParameters(ctx, s.deps.Parameters, selected, saved, s.deps.FetchConcurrency)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		s.log.Debug("discarding stale parameter aggregation", "generation", gen, "current", s.generation)
		return
	}
	s.parameters = result.Parameters
	s.appliedGen = gen
	s.paramErrors = nil
	for id, err := range result.Failures {
		s.log.Warn("failed to fetch scenario parameters", "scenario_id", id, "error", err)
		if s.paramErrors == nil {
			s.paramErrors = make(map[string]string, len(result.Failures))
		}
		s.paramErrors[id] = ErrorMessage(err)
	}
}

// SetLinkageID changes the test-execution linkage and fetches the scenarios
// linked to it. An empty id clears the linkage, its exclusions and the "only
// linked" toggle. When the fetch fails the previous linkage is kept.
func (s *Session) SetLinkageID(ctx context.Context, linkageID string) error {
	linkageID = strings.TrimSpace(linkageID)

	s.mu.Lock()
	s.linkageGen++
	gen := s.linkageGen
	if linkageID == "" {
		s.linkage.clear()
		s.mu.Unlock()
		return nil
	}
	previousID := s.linkage.linkageID
	s.linkage.linkageID = linkageID
	s.mu.Unlock()

	if s.deps.Tracker == nil {
		return nil
	}
	linked, err := s.deps.Tracker.TestExecutionScenarios(ctx, linkageID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.linkageGen {
		return nil
	}
	if err != nil {
		// The previous linkage and its exclusions stay in effect.
		s.linkage.linkageID = previousID
		s.errorMessage = ErrorMessage(err)
		return fmt.Errorf("list scenarios linked to %s: %w", linkageID, err)
	}
	s.linkage.linked = linked
	s.linkage.refilter(s.catalog)
	return nil
}

// SetOnlyLinked toggles the "only linked scenarios" filter. Turning it on
// recomputes the exclusions from the last fetched linked scenarios.
func (s *Session) SetOnlyLinked(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.linkage.onlyLinked = on
	s.linkage.refilter(s.catalog)
}

// Discard ends the session without saving and returns where to navigate.
func (s *Session) Discard() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.form = Form{}
	if s.campaign.ID != nil {
		return ExecutionURL(*s.campaign.ID)
	}
	return CampaignListURL
}
