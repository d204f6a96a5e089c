// Package models defines the domain models shared by the campaign editor and
// the services it talks to.
package models

import "strings"

// composedMarker separates the cluster and position parts of a composed
// scenario id ("12-3"). Plain scenario ids never carry it.
const composedMarker = "-"

// Campaign is a named, ordered collection of scenarios executed together.
// The JSON shape follows the remote campaign API.
type Campaign struct {
	ID           *int64            `json:"id,omitempty"`
	Title        string            `json:"title"`
	Description  string            `json:"description"`
	ScenarioIDs  []string          `json:"scenarioIds"`
	Parameters   map[string]string `json:"computedParameters"`
	ScheduleTime *string           `json:"scheduleTime,omitempty"`
	Environment  string            `json:"environment"`
	ParallelRun  bool              `json:"parallelRun"`
	RetryAuto    bool              `json:"retryAuto"`
	DatasetID    string            `json:"datasetId,omitempty"`
	Tags         []string          `json:"tags"`
}

// IsNew reports whether the campaign has never been persisted.
func (c *Campaign) IsNew() bool {
	return c.ID == nil
}

// Clone returns a deep copy of the campaign.
func (c *Campaign) Clone() *Campaign {
	out := *c
	if c.ID != nil {
		id := *c.ID
		out.ID = &id
	}
	if c.ScheduleTime != nil {
		st := *c.ScheduleTime
		out.ScheduleTime = &st
	}
	out.ScenarioIDs = append([]string(nil), c.ScenarioIDs...)
	out.Tags = append([]string(nil), c.Tags...)
	if c.Parameters != nil {
		out.Parameters = make(map[string]string, len(c.Parameters))
		for k, v := range c.Parameters {
			out.Parameters[k] = v
		}
	}
	return &out
}

// ScenarioIndex is the catalog entry of a scenario.
type ScenarioIndex struct {
	ID    string   `json:"id"`
	Title string   `json:"title"`
	Tags  []string `json:"tags"`
}

// IsComposed reports whether the scenario is built from reusable components.
func (s ScenarioIndex) IsComposed() bool {
	return IsComposed(s.ID)
}

// HasTags reports whether the scenario carries every given tag.
func (s ScenarioIndex) HasTags(tags []string) bool {
	for _, want := range tags {
		found := false
		for _, t := range s.Tags {
			if t == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// IsComposed reports whether a scenario id denotes a composed scenario.
func IsComposed(scenarioID string) bool {
	return strings.Contains(scenarioID, composedMarker)
}

// KeyValue is a single execution parameter.
type KeyValue struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}
