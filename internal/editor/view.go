package editor

import (
	"slices"

	"campaign-editor/backend/pkg/models"
)

// ScenarioView is a catalog entry as listed by the editor.
type ScenarioView struct {
	models.ScenarioIndex
	IssueURL string `json:"issueUrl,omitempty"`
}

// LinkageView is the issue-tracker part of a View.
type LinkageView struct {
	Enabled    bool     `json:"enabled"`
	BaseURL    string   `json:"baseUrl,omitempty"`
	LinkageID  string   `json:"linkageId"`
	OnlyLinked bool     `json:"onlyLinked"`
	Linked     []string `json:"linked"`
	Excluded   []string `json:"excluded"`
}

// View is a read-only snapshot of a session.
type View struct {
	CampaignID        *int64                 `json:"campaignId,omitempty"`
	Form              Form                   `json:"form"`
	Environment       string                 `json:"environment"`
	DatasetID         string                 `json:"datasetId"`
	Environments      []string               `json:"environments"`
	TagOptions        []string               `json:"tagOptions"`
	SelectedTags      []string               `json:"selectedTags"`
	ScenarioFilter    string                 `json:"scenarioFilter"`
	Scenarios         []ScenarioView         `json:"scenarios"`
	Selected          []models.ScenarioIndex `json:"selected"`
	Parameters        []models.KeyValue      `json:"parameters"`
	ParameterFailures map[string]string      `json:"parameterFailures,omitempty"`
	ParametersPending bool                   `json:"parametersPending"`
	Linkage           LinkageView            `json:"linkage"`
	Warnings          []string               `json:"warnings,omitempty"`
	ErrorMessage      string                 `json:"errorMessage,omitempty"`
	Submitting        bool                   `json:"submitting"`
}

// Snapshot returns the current state of the session.
func (s *Session) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		Form:           s.form,
		Environment:    s.environment,
		DatasetID:      s.datasetID,
		Environments:   slices.Clone(s.environments),
		TagOptions:     slices.Clone(s.tagOptions),
		SelectedTags:   slices.Clone(s.selectedTags),
		ScenarioFilter: s.filterText,
		Selected:       slices.Clone(s.selected),
		Parameters:     slices.Clone(s.parameters),
		Warnings:       slices.Clone(s.warnings),
		ErrorMessage:   s.errorMessage,
		Submitting:     s.submitting,
		Linkage: LinkageView{
			Enabled:    s.linkage.enabled(),
			BaseURL:    s.linkage.baseURL,
			LinkageID:  s.linkage.linkageID,
			OnlyLinked: s.linkage.onlyLinked,
			Linked:     slices.Clone(s.linkage.linked),
			Excluded:   scenarioIDs(s.linkage.excluded),
		},
	}
	v.ParametersPending = s.appliedGen != s.generation
	if s.campaign.ID != nil {
		id := *s.campaign.ID
		v.CampaignID = &id
	}
	if len(s.paramErrors) > 0 {
		v.ParameterFailures = make(map[string]string, len(s.paramErrors))
		for k, msg := range s.paramErrors {
			v.ParameterFailures[k] = msg
		}
	}
	for _, sc := range FilterScenarios(s.catalog, s.linkage.excluded, s.selectedTags, s.filterText) {
		v.Scenarios = append(v.Scenarios, ScenarioView{ScenarioIndex: sc, IssueURL: s.linkage.issueURL(sc.ID)})
	}
	return v
}

// IssueURL returns the issue-tracker page linked to a scenario, or "".
func (s *Session) IssueURL(scenarioID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.linkage.issueURL(scenarioID)
}
