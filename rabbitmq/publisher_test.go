package rabbitmq

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"vehicle-service/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIssueEvent(t *testing.T) {
	created := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	resolved := created.Add(24 * time.Hour)
	issue := &models.Issue{
		ID:           "abc",
		UserID:       "user-1",
		VehicleModel: "Civic 2019",
		Category:     "Brakes",
		Severity:     "high",
		Source:       models.SourceImage,
		Status:       models.StatusResolved,
		CreatedAt:    created,
		ResolvedAt:   &resolved,
	}

	body, err := json.Marshal(NewIssueEvent(EventIssueResolved, issue))
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, "issue.resolved", got["event"])
	assert.Equal(t, "abc", got["issueId"])
	assert.Equal(t, "image", got["source"])
	assert.Equal(t, "2024-05-02T08:00:00Z", got["resolvedAt"])
}

func TestNewIssueEvent_OpenOmitsResolvedAt(t *testing.T) {
	body, err := json.Marshal(NewIssueEvent(EventIssueCreated, &models.Issue{ID: "x", Status: models.StatusOpen}))
	require.NoError(t, err)
	assert.NotContains(t, string(body), "resolvedAt")
}

func TestPublishIssueEvent_NilIssue(t *testing.T) {
	p := &Publisher{}
	err := p.PublishIssueEvent(context.Background(), EventIssueCreated, nil)
	assert.Error(t, err)
}

func TestPublish_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := &Publisher{}
	err := p.PublishIssueEvent(ctx, EventIssueCreated, &models.Issue{ID: "x"})
	assert.ErrorIs(t, err, context.Canceled)
}
