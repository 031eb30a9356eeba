package assistant

import (
	"context"
	"errors"
	"testing"

	"vehicle-service/llm"
	"vehicle-service/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	reply string
	err   error
	calls int
	last  llm.Request
}

func (f *fakeClient) SourceName() string { return "Fake" }

func (f *fakeClient) Generate(ctx context.Context, req llm.Request) (string, error) {
	f.calls++
	f.last = req
	return f.reply, f.err
}

func TestIsRelevant(t *testing.T) {
	tests := []struct {
		role    Role
		message string
		want    bool
	}{
		{RoleOwner, "My BRAKES squeal at low speed", true},
		{RoleOwner, "What is a good spark plug gap?", true},
		{RoleOwner, "Tell me a joke", false},
		{RoleServiceProvider, "Show me defect trends for Q3", true},
		{RoleServiceProvider, "Which KPI should I track?", true},
		{RoleServiceProvider, "Write me a poem", false},
	}

	for _, tt := range tests {
		if got := IsRelevant(tt.role, tt.message); got != tt.want {
			t.Errorf("IsRelevant(%s, %q) = %v, want %v", tt.role, tt.message, got, tt.want)
		}
	}
}

func TestResolveRole(t *testing.T) {
	assert.Equal(t, RoleOwner, ResolveRole("", ""))
	assert.Equal(t, RoleOwner, ResolveRole("anything", "issue form"))
	assert.Equal(t, RoleServiceProvider, ResolveRole(RoleServiceProvider, ""))
	assert.Equal(t, RoleServiceProvider, ResolveRole("", "viewing analytics dashboard"))
}

func TestReply_OffTopicSkipsAI(t *testing.T) {
	client := &fakeClient{reply: "should not be used"}
	a := New(client)

	reply, err := a.Reply(context.Background(), Request{Message: "Tell me a joke"})
	require.NoError(t, err)
	assert.Equal(t, OwnerOffTopicReply, reply)

	reply, err = a.Reply(context.Background(), Request{Message: "Write me a poem", Role: RoleServiceProvider})
	require.NoError(t, err)
	assert.Equal(t, ProviderOffTopicReply, reply)
	assert.Zero(t, client.calls)
}

func TestReply_AIAnswer(t *testing.T) {
	client := &fakeClient{reply: "  Check the brake pads.  "}
	a := New(client)

	reply, err := a.Reply(context.Background(), Request{
		Message: "Why do my brakes squeal?",
		Context: "issue history",
		PreviousIssues: []models.Issue{
			{Description: "Brake noise", Category: "Brakes", Severity: "high", Status: models.StatusOpen},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Check the brake pads.", reply)
	assert.Equal(t, 1, client.calls)
	assert.Contains(t, client.last.Prompt, "Context: issue history")
	assert.Contains(t, client.last.Prompt, "- Brake noise (Brakes, high severity, Status: open)")
	assert.Contains(t, client.last.Prompt, "User message: Why do my brakes squeal?")
}

func TestReply_ProviderPromptOmitsIssues(t *testing.T) {
	client := &fakeClient{reply: "ok"}
	_, err := New(client).Reply(context.Background(), Request{
		Message:        "Summarize severity trends",
		Role:           RoleServiceProvider,
		PreviousIssues: []models.Issue{{Description: "Brake noise"}},
	})
	require.NoError(t, err)
	assert.Contains(t, client.last.Prompt, "analytics AI assistant")
	assert.NotContains(t, client.last.Prompt, "Brake noise")
}

func TestReply_FailureGivesApology(t *testing.T) {
	client := &fakeClient{err: llm.Unavailable("timeout", errors.New("deadline exceeded"))}

	reply, err := New(client).Reply(context.Background(), Request{Message: "engine light is on"})
	require.NoError(t, err)
	assert.Equal(t, UnavailableReply, reply)
	assert.Equal(t, 1, client.calls)
}

func TestReply_EmptyAIReply(t *testing.T) {
	reply, err := New(&fakeClient{reply: "  "}).Reply(context.Background(), Request{Message: "engine light is on"})
	require.NoError(t, err)
	assert.Equal(t, ownerEmptyReply, reply)
}

func TestReply_NilClient(t *testing.T) {
	reply, err := New(nil).Reply(context.Background(), Request{Message: "engine light is on"})
	require.NoError(t, err)
	assert.Equal(t, UnavailableReply, reply)
}

func TestReply_EmptyMessage(t *testing.T) {
	client := &fakeClient{}
	_, err := New(client).Reply(context.Background(), Request{Message: "   "})
	assert.ErrorIs(t, err, ErrEmptyMessage)
	assert.Zero(t, client.calls)
}
