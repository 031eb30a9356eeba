package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"vehicle-service/llm"
	"vehicle-service/metrics"
	"vehicle-service/models"

	"github.com/apex/log"
)

// Role selects the assistant persona.
type Role string

const (
	RoleOwner           Role = "owner"
	RoleServiceProvider Role = "service_provider"
)

// Fixed replies that never involve the AI provider.
const (
	OwnerOffTopicReply    = "I'm specialized in helping with vehicle-related questions and issues. Please ask me about car maintenance, troubleshooting, repairs, or any automotive concerns you might have."
	ProviderOffTopicReply = "I'm specialized in helping with analytics data interpretation, trend analysis, and business insights for vehicle service operations. Please ask me about data trends, manufacturing insights, quality metrics, or report generation."
	UnavailableReply      = "I'm currently experiencing technical difficulties. Please try again in a moment or contact support if the issue persists."
	ownerEmptyReply       = "I apologize, but I encountered an issue processing your request. Please try again."
	providerEmptyReply    = "I apologize, but I encountered an issue processing your analytics request. Please try again."
)

const (
	outcomeAI          = "ai"
	outcomeOffTopic    = "off_topic"
	outcomeUnavailable = "unavailable"
)

// ErrEmptyMessage is returned for a blank chat message.
var ErrEmptyMessage = errors.New("message is empty")

// Keyword lists are checked in order with a lowercase substring match.
var (
	ownerKeywords = []string{
		"car", "vehicle", "engine", "brake", "tire", "oil", "battery", "transmission", "suspension",
		"steering", "clutch", "gear", "fuel", "exhaust", "radiator", "alternator", "starter",
		"maintenance", "service", "repair", "problem", "issue", "noise", "vibration", "leak",
		"warning", "light", "dashboard", "ac", "heating", "cooling", "motor", "automotive",
		"mileage", "performance", "acceleration", "speed", "rpm", "temperature", "pressure",
		"filter", "spark plug", "belt", "hose", "fluid", "coolant", "antifreeze", "windshield",
		"headlight", "taillight", "turn signal", "horn", "mirror", "seat", "door", "window",
		"lock", "key", "remote", "alarm", "security", "insurance", "registration", "license",
	}

	providerKeywords = []string{
		"analytics", "data", "trends", "reports", "insights", "metrics", "dashboard",
		"manufacturing", "defects", "quality", "issues", "statistics", "analysis",
		"performance", "resolution", "severity", "category", "model", "vehicle",
		"export", "chart", "graph", "visualization", "kpi", "benchmark",
	}
)

// Request is one chat turn.
type Request struct {
	Message string
	Role    Role
	// Context is free text supplied by the client, such as the current page.
	Context string
	// PreviousIssues are the user's stored issues, included for owners.
	PreviousIssues []models.Issue
}

// Assistant answers vehicle and analytics questions through the AI client.
type Assistant struct {
	client llm.Client
}

func New(client llm.Client) *Assistant {
	return &Assistant{client: client}
}

// ResolveRole picks the persona. A context mentioning service_provider or
// analytics selects the service provider persona.
func ResolveRole(role Role, context string) Role {
	if role == RoleServiceProvider {
		return RoleServiceProvider
	}
	if strings.Contains(context, "service_provider") || strings.Contains(context, "analytics") {
		return RoleServiceProvider
	}
	return RoleOwner
}

// IsRelevant reports whether message is on topic for role.
func IsRelevant(role Role, message string) bool {
	keywords := ownerKeywords
	if role == RoleServiceProvider {
		keywords = providerKeywords
	}
	lower := strings.ToLower(message)
	for _, k := range keywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

// Reply answers req. Off-topic messages get a fixed redirect without an AI
// call and provider failures get a fixed apology, so the only error is
// ErrEmptyMessage.
func (a *Assistant) Reply(ctx context.Context, req Request) (string, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return "", ErrEmptyMessage
	}
	role := ResolveRole(req.Role, req.Context)

	if !IsRelevant(role, message) {
		metrics.AssistantRepliesTotal.WithLabelValues(string(role), outcomeOffTopic).Inc()
		if role == RoleServiceProvider {
			return ProviderOffTopicReply, nil
		}
		return OwnerOffTopicReply, nil
	}

	if a.client == nil {
		metrics.AssistantRepliesTotal.WithLabelValues(string(role), outcomeUnavailable).Inc()
		return UnavailableReply, nil
	}

	text, err := a.client.Generate(ctx, llm.Request{Prompt: BuildPrompt(role, message, req.Context, req.PreviousIssues)})
	if err != nil {
		log.WithError(err).WithField("role", role).Warn("assistant reply unavailable")
		metrics.AssistantRepliesTotal.WithLabelValues(string(role), outcomeUnavailable).Inc()
		return UnavailableReply, nil
	}

	metrics.AssistantRepliesTotal.WithLabelValues(string(role), outcomeAI).Inc()
	if text = strings.TrimSpace(text); text == "" {
		if role == RoleServiceProvider {
			return providerEmptyReply, nil
		}
		return ownerEmptyReply, nil
	}
	return text, nil
}

// BuildPrompt renders the persona instructions, optional context, the
// owner's previous issues and the message.
func BuildPrompt(role Role, message, context string, previous []models.Issue) string {
	var b strings.Builder
	if role == RoleServiceProvider {
		b.WriteString(`You are an expert analytics AI assistant for automotive service providers. You specialize in:
- Data interpretation and trend analysis
- Manufacturing defect insights
- Quality metrics evaluation
- Business intelligence recommendations
- Report generation guidance
- Performance benchmarking
- Strategic decision support

IMPORTANT: Focus only on analytics, data interpretation, and business insights related to automotive service operations.
`)
	} else {
		b.WriteString(`You are an automotive assistant for vehicle owners. You help with:
- Vehicle maintenance and troubleshooting
- Repair guidance and cost estimates
- Service schedules and warranty information
- Automotive technical support
- Analysis of vehicle issues and symptoms

IMPORTANT: Only respond to vehicle and automotive-related questions. Politely decline non-automotive questions.
`)
	}

	if context = strings.TrimSpace(context); context != "" {
		fmt.Fprintf(&b, "\nContext: %s\n", context)
	}
	if role == RoleOwner && len(previous) > 0 {
		b.WriteString("\nUser's Previous Issues:\n")
		for _, issue := range previous {
			fmt.Fprintf(&b, "- %s (%s, %s severity, Status: %s)\n",
				issue.Description, issue.Category, issue.Severity, issue.Status)
		}
	}

	fmt.Fprintf(&b, "\nUser message: %s\n\n", message)
	if role == RoleServiceProvider {
		b.WriteString("Provide analytical insights, data interpretation, and strategic recommendations based on automotive service data.")
	} else {
		b.WriteString("Provide helpful, accurate automotive guidance. If the user is asking about their previous issues, reference them appropriately.")
	}
	return b.String()
}
