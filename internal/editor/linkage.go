package editor

import "campaign-editor/backend/pkg/models"

// ExcludedScenarios returns the catalog entries hidden when only scenarios
// linked to a test execution are shown. Nothing is excluded unless onlyLinked
// is set and linkageID is non-empty.
func ExcludedScenarios(catalog []models.ScenarioIndex, linked []string, linkageID string, onlyLinked bool) []models.ScenarioIndex {
	if !onlyLinked || linkageID == "" {
		return nil
	}
	keep := make(map[string]bool, len(linked))
	for _, id := range linked {
		keep[id] = true
	}
	var excluded []models.ScenarioIndex
	for _, s := range catalog {
		if !keep[s.ID] {
			excluded = append(excluded, s)
		}
	}
	return excluded
}

// linkageState is the issue-tracker part of a session.
type linkageState struct {
	baseURL        string
	scenarioIssues map[string]string
	linkageID      string
	onlyLinked     bool
	linked         []string
	excluded       []models.ScenarioIndex
}

func (l *linkageState) enabled() bool {
	return l.baseURL != ""
}

// clear drops the linkage id together with everything derived from it.
func (l *linkageState) clear() {
	l.linkageID = ""
	l.linked = nil
	l.excluded = nil
	l.onlyLinked = false
}

func (l *linkageState) refilter(catalog []models.ScenarioIndex) {
	l.excluded = ExcludedScenarios(catalog, l.linked, l.linkageID, l.onlyLinked)
}

// issueURL returns the tracker page of the issue linked to scenarioID.
func (l *linkageState) issueURL(scenarioID string) string {
	key, ok := l.scenarioIssues[scenarioID]
	if !l.enabled() || !ok || key == "" {
		return ""
	}
	return l.baseURL + "/browse/" + key
}
