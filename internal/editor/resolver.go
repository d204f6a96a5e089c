package editor

import "campaign-editor/backend/pkg/models"

// ResolveScenarios maps ids onto catalog entries. The result keeps the first
// occurrence order of ids and holds each scenario once. Ids absent from the
// catalog are skipped and returned in missing.
func ResolveScenarios(catalog []models.ScenarioIndex, ids []string) (resolved []models.ScenarioIndex, missing []string) {
	byID := make(map[string]models.ScenarioIndex, len(catalog))
	for _, s := range catalog {
		if _, ok := byID[s.ID]; !ok {
			byID[s.ID] = s
		}
	}

	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		s, ok := byID[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		resolved = append(resolved, s)
	}
	return resolved, missing
}

// scenarioIDs returns the ids of scenarios, de-duplicated in order.
func scenarioIDs(scenarios []models.ScenarioIndex) []string {
	ids := make([]string, 0, len(scenarios))
	seen := make(map[string]bool, len(scenarios))
	for _, s := range scenarios {
		if seen[s.ID] {
			continue
		}
		seen[s.ID] = true
		ids = append(ids, s.ID)
	}
	return ids
}
