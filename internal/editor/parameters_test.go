package editor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campaign-editor/backend/pkg/models"
)

func TestAggregateParameters_FirstOccurrenceWins(t *testing.T) {
	src := &fakeParameters{byID: map[string][]models.KeyValue{
		"1-a": {{Key: "k1", Value: "fromA"}, {Key: "k2", Value: "fromA"}},
		"3-c": {{Key: "k2", Value: "fromC"}, {Key: "k3", Value: "fromC"}},
	}}
	selected := []models.ScenarioIndex{{ID: "1-a"}, {ID: "b"}, {ID: "3-c"}}
	saved := map[string]string{"k2": "saved-2"}

	result := AggregateParameters(context.Background(), src, selected, saved, 2)

	assert.Equal(t, []models.KeyValue{
		{Key: "k1", Value: ""},
		{Key: "k2", Value: "saved-2"},
		{Key: "k3", Value: ""},
	}, result.Parameters)
	assert.Empty(t, result.Failures)
	assert.ElementsMatch(t, []string{"1-a", "3-c"}, src.called())
}

func TestAggregateParameters_FailureIsIsolated(t *testing.T) {
	src := &fakeParameters{
		byID: map[string][]models.KeyValue{
			"2-b": {{Key: "url"}},
		},
		errs: map[string]error{"1-a": errBoom},
	}
	selected := []models.ScenarioIndex{{ID: "1-a"}, {ID: "2-b"}}

	result := AggregateParameters(context.Background(), src, selected, nil, 0)

	assert.Equal(t, []models.KeyValue{{Key: "url", Value: ""}}, result.Parameters)
	require.Contains(t, result.Failures, "1-a")
	assert.ErrorIs(t, result.Failures["1-a"], errBoom)
}

func TestAggregateParameters_PlainScenariosContributeNothing(t *testing.T) {
	src := &fakeParameters{}

	result := AggregateParameters(context.Background(), src, []models.ScenarioIndex{{ID: "1"}, {ID: "2"}}, nil, 4)

	assert.Empty(t, result.Parameters)
	assert.NotNil(t, result.Parameters)
	assert.Empty(t, src.called())
}
