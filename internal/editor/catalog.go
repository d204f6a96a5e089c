package editor

import (
	"sort"
	"strings"

	"campaign-editor/backend/pkg/models"
)

// SortEnvironments orders names case-insensitively, in place.
func SortEnvironments(names []string) {
	sort.SliceStable(names, func(i, j int) bool {
		return strings.ToUpper(names[i]) < strings.ToUpper(names[j])
	})
}

// TagOptions returns the sorted distinct tags used across the catalog.
func TagOptions(catalog []models.ScenarioIndex) []string {
	seen := map[string]bool{}
	var tags []string
	for _, s := range catalog {
		for _, t := range s.Tags {
			if !seen[t] {
				seen[t] = true
				tags = append(tags, t)
			}
		}
	}
	sort.Strings(tags)
	return tags
}

// FilterScenarios keeps the catalog entries that are not excluded, carry every
// tag in tags, and contain text in their id or title (case-insensitive).
func FilterScenarios(catalog []models.ScenarioIndex, excluded []models.ScenarioIndex, tags []string, text string) []models.ScenarioIndex {
	hidden := make(map[string]bool, len(excluded))
	for _, s := range excluded {
		hidden[s.ID] = true
	}
	needle := strings.ToLower(strings.TrimSpace(text))

	visible := []models.ScenarioIndex{}
	for _, s := range catalog {
		if hidden[s.ID] || !s.HasTags(tags) {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(s.ID), needle) &&
			!strings.Contains(strings.ToLower(s.Title), needle) {
			continue
		}
		visible = append(visible, s)
	}
	return visible
}
