package editor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveScenarios_OrderAndDuplicates(t *testing.T) {
	resolved, missing := ResolveScenarios(testCatalog(), []string{"3", "1", "3", "10-1", "1"})

	assert.Equal(t, []string{"3", "1", "10-1"}, scenarioIDs(resolved))
	assert.Empty(t, missing)
}

func TestResolveScenarios_SkipsUnknownIDs(t *testing.T) {
	resolved, missing := ResolveScenarios(testCatalog(), []string{"1", "gone", "2", "gone"})

	assert.Equal(t, []string{"1", "2"}, scenarioIDs(resolved))
	assert.Equal(t, []string{"gone"}, missing)
}

func TestResolveScenarios_Empty(t *testing.T) {
	resolved, missing := ResolveScenarios(testCatalog(), nil)
	assert.Empty(t, resolved)
	assert.Empty(t, missing)
}
