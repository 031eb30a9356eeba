package models

import (
	"time"
)

// IssueStatus is the resolution state of a stored issue.
type IssueStatus string

const (
	StatusOpen     IssueStatus = "open"
	StatusResolved IssueStatus = "resolved"
)

// IssueSource records how the issue was reported.
type IssueSource string

const (
	SourceText  IssueSource = "text"
	SourceVoice IssueSource = "voice"
	SourceImage IssueSource = "image"
)

// Issue represents a row of the issues table.
// ResolvedAt is set if and only if Status is StatusResolved.
type Issue struct {
	ID               string      `json:"_id"`
	UserID           string      `json:"userId"`
	VehicleModel     string      `json:"vehicleModel"`
	Description      string      `json:"description"`
	FormattedIssue   string      `json:"formattedIssue"`
	Category         string      `json:"category"`
	Severity         string      `json:"severity"`
	SuggestedActions []string    `json:"suggestedActions"`
	PossibleCauses   []string    `json:"possibleCauses"`
	UrgencyLevel     string      `json:"urgencyLevel"`
	EstimatedCost    string      `json:"estimatedCost"`
	Source           IssueSource `json:"source"`
	Status           IssueStatus `json:"status"`
	CreatedAt        time.Time   `json:"createdAt"`
	ResolvedAt       *time.Time  `json:"resolvedAt,omitempty"`
}

// NewIssue holds what a caller supplies to create an issue after analysis.
type NewIssue struct {
	UserID       string        `json:"userId" binding:"required"`
	VehicleModel string        `json:"vehicleModel" binding:"required"`
	Source       IssueSource   `json:"source"`
	Analysis     IssueAnalysis `json:"analysis"`
}

// IssueFilter narrows a list query. Empty fields match everything.
type IssueFilter struct {
	UserID       string
	Status       IssueStatus
	VehicleModel string
}
