package editor

import (
	"context"
	"fmt"

	"campaign-editor/backend/pkg/models"
)

// CampaignListURL is where a discarded new campaign navigates to.
const CampaignListURL = "/campaign"

// ExecutionURL is the execution view of a campaign.
func ExecutionURL(campaignID int64) string {
	return fmt.Sprintf("/campaign/%d/execution", campaignID)
}

// SaveOutcome describes a successful submit.
type SaveOutcome struct {
	Campaign *models.Campaign
	// Redirect is the page to navigate to.
	Redirect string
	// LinkageErr is set when the campaign was saved but its issue-tracker
	// linkage was not. The campaign save stands.
	LinkageErr error
}

// Submit validates the form, persists the composed campaign and saves its
// linkage. Invalid input returns a *ValidationError before any remote call;
// a failed save returns a *SaveError and leaves the session editable.
// ErrParametersPending is returned while the parameter list of the current
// selection is still being computed.
func (s *Session) Submit(ctx context.Context) (*SaveOutcome, error) {
	s.mu.Lock()
	if s.submitting {
		s.mu.Unlock()
		return nil, ErrSubmitInProgress
	}
	if err := s.form.Validate(); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if s.appliedGen != s.generation {
		s.mu.Unlock()
		return nil, ErrParametersPending
	}
	record := s.composeLocked()
	linkageID := s.linkage.linkageID
	s.submitting = true
	s.mu.Unlock()

	saved, err := s.persist(ctx, record)
	if err != nil {
		msg := ErrorMessage(err)
		s.log.Error("failed to save campaign", "title", record.Title, "error", err)
		s.mu.Lock()
		s.submitting = false
		s.errorMessage = msg
		s.mu.Unlock()
		return nil, &SaveError{Message: msg, Err: err}
	}

	outcome := &SaveOutcome{Campaign: saved, Redirect: CampaignListURL}
	if saved.ID != nil {
		outcome.Redirect = ExecutionURL(*saved.ID)
		if s.deps.Linkages != nil {
			if err := s.deps.Linkages.SaveLinkage(ctx, *saved.ID, linkageID); err != nil {
				s.log.Error("failed to save campaign linkage", "campaign_id", *saved.ID, "linkage_id", linkageID, "error", err)
				outcome.LinkageErr = err
			}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.submitting = false
	s.campaign = saved.Clone()
	if s.campaign.Parameters == nil {
		s.campaign.Parameters = record.Parameters
	}
	s.errorMessage = ""
	if outcome.LinkageErr != nil {
		s.errorMessage = ErrorMessage(outcome.LinkageErr)
	}
	return outcome, nil
}

func (s *Session) persist(ctx context.Context, record *models.Campaign) (*models.Campaign, error) {
	var (
		saved *models.Campaign
		err   error
	)
	if record.IsNew() {
		saved, err = s.deps.Campaigns.CreateCampaign(ctx, record)
	} else {
		saved, err = s.deps.Campaigns.UpdateCampaign(ctx, record)
	}
	if err != nil {
		return nil, err
	}
	if saved == nil {
		saved = record
	}
	return saved, nil
}

// composeLocked builds the campaign record from the session state.
func (s *Session) composeLocked() *models.Campaign {
	c := s.campaign.Clone()
	c.Title = s.form.Title
	c.Description = s.form.Description
	c.ScenarioIDs = scenarioIDs(s.selected)
	c.Parameters = make(map[string]string, len(s.parameters))
	for _, kv := range s.parameters {
		c.Parameters[kv.Key] = kv.Value
	}
	c.ScheduleTime = nil
	if s.form.ScheduleTime != "" {
		st := s.form.ScheduleTime
		c.ScheduleTime = &st
	}
	c.Environment = s.environment
	c.ParallelRun = s.form.ParallelRun
	c.RetryAuto = s.form.RetryAuto
	c.DatasetID = s.datasetID
	c.Tags = ParseTags(s.form.Tags)
	return c
}
