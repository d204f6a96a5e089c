package editor

import (
	"context"

	"golang.org/x/sync/errgroup"

	"campaign-editor/backend/pkg/models"
)

const defaultFetchConcurrency = 4

// AggregateResult is the outcome of a parameter aggregation.
type AggregateResult struct {
	Parameters []models.KeyValue
	// Failures maps a composed scenario id to the error of its lookup.
	Failures map[string]error
}

// AggregateParameters builds the parameter list of a selection. Only composed
// scenarios are queried. Keys appear once, in the order they are first seen
// walking the selection, and take their value from saved or "" otherwise.
// A failed lookup drops that scenario's contribution and nothing else.
func AggregateParameters(ctx context.Context, src ParameterSource, selected []models.ScenarioIndex, saved map[string]string, concurrency int) AggregateResult {
	if concurrency < 1 {
		concurrency = defaultFetchConcurrency
	}

	fetched := make([][]models.KeyValue, len(selected))
	errs := make([]error, len(selected))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, s := range selected {
		if !s.IsComposed() {
			continue
		}
		g.Go(func() error {
			kvs, err := src.ExecutableParameters(gctx, s.ID)
			if err != nil {
				errs[i] = err
				return nil
			}
			fetched[i] = kvs
			return nil
		})
	}
	_ = g.Wait()

	result := AggregateResult{Parameters: []models.KeyValue{}}
	seen := make(map[string]bool)
	for i, s := range selected {
		if errs[i] != nil {
			if result.Failures == nil {
				result.Failures = make(map[string]error)
			}
			result.Failures[s.ID] = errs[i]
			continue
		}
		for _, kv := range fetched[i] {
			if seen[kv.Key] {
				continue
			}
			seen[kv.Key] = true
			result.Parameters = append(result.Parameters, models.KeyValue{
				Key:   kv.Key,
				Value: saved[kv.Key],
			})
		}
	}
	return result
}
