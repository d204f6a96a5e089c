package models

// IssueLink ties a campaign or scenario to an issue-tracker entity.
type IssueLink struct {
	ID              string `json:"id"`
	ChutneyID       string `json:"chutneyId"`
	ExecutionStatus string `json:"executionStatus,omitempty"`
}
