package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsComposed(t *testing.T) {
	assert.True(t, IsComposed("12-3"))
	assert.False(t, IsComposed("12"))
	assert.True(t, ScenarioIndex{ID: "1-1"}.IsComposed())
}

func TestHasTags(t *testing.T) {
	s := ScenarioIndex{ID: "1", Tags: []string{"smoke", "bank"}}
	assert.True(t, s.HasTags(nil))
	assert.True(t, s.HasTags([]string{"bank"}))
	assert.True(t, s.HasTags([]string{"bank", "smoke"}))
	assert.False(t, s.HasTags([]string{"bank", "nightly"}))
}

func TestCampaignClone(t *testing.T) {
	id := int64(3)
	st := "10:00"
	c := &Campaign{
		ID:           &id,
		ScenarioIDs:  []string{"1"},
		Parameters:   map[string]string{"k": "v"},
		ScheduleTime: &st,
		Tags:         []string{"a"},
	}

	clone := c.Clone()
	*clone.ID = 4
	*clone.ScheduleTime = "11:00"
	clone.ScenarioIDs[0] = "2"
	clone.Parameters["k"] = "w"
	clone.Tags[0] = "b"

	assert.Equal(t, int64(3), *c.ID)
	assert.Equal(t, "10:00", *c.ScheduleTime)
	assert.Equal(t, []string{"1"}, c.ScenarioIDs)
	assert.Equal(t, "v", c.Parameters["k"])
	assert.Equal(t, []string{"a"}, c.Tags)
	assert.False(t, c.IsNew())
	assert.True(t, (&Campaign{}).IsNew())
}

func TestCampaignJSON(t *testing.T) {
	var c Campaign
	require.NoError(t, json.Unmarshal([]byte(`{
		"id": 7,
		"title": "Nightly",
		"scenarioIds": ["1", "4-2"],
		"computedParameters": {"host": "qa"},
		"scheduleTime": "06:00",
		"parallelRun": true
	}`), &c))

	require.NotNil(t, c.ID)
	assert.Equal(t, int64(7), *c.ID)
	assert.Equal(t, []string{"1", "4-2"}, c.ScenarioIDs)
	assert.Equal(t, map[string]string{"host": "qa"}, c.Parameters)
	assert.True(t, c.ParallelRun)

	out, err := json.Marshal(&Campaign{Title: "new"})
	require.NoError(t, err)
	assert.NotContains(t, string(out), `"id"`)
	assert.NotContains(t, string(out), `"scheduleTime"`)
}
