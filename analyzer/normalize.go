package analyzer

import (
	"strings"

	"vehicle-service/models"
)

const (
	DefaultUrgency       = "Within 1 week"
	UrgencyImmediate     = "Immediate"
	DefaultEstimatedCost = "Contact service center for estimate"
	DefaultDescription   = "Vehicle issue reported"
	UnknownVehicleModel  = "Unknown"
)

// DefaultSuggestedActions is substituted when the model gives no usable actions.
var DefaultSuggestedActions = []string{
	"Schedule a diagnostic inspection at an authorized service center",
	"Avoid long trips until the vehicle has been inspected",
	"Note when the problem occurs and share the details with the technician",
}

// DefaultPossibleCauses is substituted when the model gives no usable causes.
var DefaultPossibleCauses = []string{
	"Normal wear of the affected component",
	"Loose, damaged, or corroded connection",
	"Requires professional diagnosis to confirm",
}

// Normalize turns a decoded model reply into an IssueAnalysis, substituting
// defaults for every missing or invalid field. It never fails and is
// idempotent over its own output.
func Normalize(raw map[string]any, vehicleModel, fallbackDescription string) models.IssueAnalysis {
	model := vehicleModelLabel(vehicleModel)

	description := stringField(raw, "description")
	if description == "" {
		description = strings.TrimSpace(fallbackDescription)
	}
	if description == "" {
		description = DefaultDescription
	}

	issueText := stringField(raw, "formattedIssue")
	if issueText == "" {
		issueText = description
	}

	category, ok := models.ParseCategory(stringField(raw, "category"))
	if !ok {
		category = models.CategoryGeneral
	}

	severity, ok := models.ParseSeverity(stringField(raw, "severity"))
	if !ok {
		severity = models.SeverityMedium
	}

	urgency := stringField(raw, "urgencyLevel")
	if urgency == "" {
		urgency = DefaultUrgency
	}

	cost := stringField(raw, "estimatedCost")
	if cost == "" {
		cost = DefaultEstimatedCost
	}

	return models.IssueAnalysis{
		Description:      description,
		FormattedIssue:   formatIssue(model, issueText),
		Category:         category,
		Severity:         severity,
		SuggestedActions: stringList(raw, "suggestedActions", DefaultSuggestedActions),
		PossibleCauses:   stringList(raw, "possibleCauses", DefaultPossibleCauses),
		UrgencyLevel:     urgency,
		EstimatedCost:    cost,
	}
}

func vehicleModelLabel(vehicleModel string) string {
	if m := strings.TrimSpace(vehicleModel); m != "" {
		return m
	}
	return UnknownVehicleModel
}

// formatIssue prefixes text with the vehicle model unless it already carries the prefix.
func formatIssue(model, text string) string {
	prefix := model + " - "
	if strings.HasPrefix(text, prefix) {
		return text
	}
	return prefix + text
}

func stringField(raw map[string]any, key string) string {
	s, _ := raw[key].(string)
	return strings.TrimSpace(s)
}

// stringList returns the non-blank string elements of raw[key], or a copy of
// def when the field is absent, not an array, or has no usable elements.
func stringList(raw map[string]any, key string, def []string) []string {
	var out []string
	switch items := raw[key].(type) {
	case []any:
		for _, item := range items {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
	case []string:
		for _, s := range items {
			if strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
	}
	if len(out) == 0 {
		return append([]string(nil), def...)
	}
	return out
}
