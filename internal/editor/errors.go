package editor

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrCampaignNotFound is returned when a campaign id does not exist.
	ErrCampaignNotFound = errors.New("campaign not found")
	// ErrUnknownScenario is returned when a scenario id is not in the catalog.
	ErrUnknownScenario = errors.New("unknown scenario")
	// ErrUnknownParameter is returned when editing a key that is not displayed.
	ErrUnknownParameter = errors.New("unknown parameter")
	// ErrSubmitInProgress is returned when a save is already running.
	ErrSubmitInProgress = errors.New("campaign save already in progress")
	// ErrParametersPending is returned when a submit races a parameter
	// recomputation for the current selection.
	ErrParametersPending = errors.New("campaign parameters are still being computed")
	// ErrCatalogNotLoaded is returned when scenarios are edited before Open.
	ErrCatalogNotLoaded = errors.New("scenario catalog not loaded")
)

// ValidationError lists the form fields that block a submit.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "invalid campaign: " + strings.Join(parts, "; ")
}

// SaveError wraps a failed create or update.
type SaveError struct {
	Message string
	Err     error
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("save campaign: %s", e.Message)
}

func (e *SaveError) Unwrap() error {
	return e.Err
}

// userMessager is implemented by errors that carry a message meant for the
// person editing, such as a remote API error payload.
type userMessager interface {
	UserMessage() string
}

// ErrorMessage extracts the message to show for err.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var um userMessager
	if errors.As(err, &um) {
		if msg := um.UserMessage(); msg != "" {
			return msg
		}
	}
	return err.Error()
}
