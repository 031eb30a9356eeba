package analyzer

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"vehicle-service/models"
)

// highSeverityKeywords mark a text report as safety-critical when the AI is unavailable.
var highSeverityKeywords = []string{"brake", "steering", "engine"}

var urgentActions = []string{
	"Stop driving the vehicle if it feels unsafe",
	"Have the vehicle inspected immediately",
	"Arrange towing to a service center if the problem persists",
}

const imageFallbackDescription = "Visible damage reported from an uploaded photo"

// FallbackSeverity applies the keyword heuristic used when no AI answer is available.
func FallbackSeverity(text string) models.Severity {
	lower := strings.ToLower(text)
	for _, kw := range highSeverityKeywords {
		if strings.Contains(lower, kw) {
			return models.SeverityHigh
		}
	}
	return models.SeverityMedium
}

func urgencyFor(severity models.Severity) string {
	if severity == models.SeverityHigh {
		return UrgencyImmediate
	}
	return DefaultUrgency
}

func actionsFor(severity models.Severity) []string {
	if severity == models.SeverityHigh {
		return append([]string(nil), urgentActions...)
	}
	return append([]string(nil), DefaultSuggestedActions...)
}

// FallbackText builds an analysis for a text report without any network call.
// The category is always General.
func FallbackText(rawText, vehicleModel string) models.IssueAnalysis {
	text := capitalize(strings.TrimSpace(rawText))
	if text == "" {
		text = DefaultDescription
	}
	severity := FallbackSeverity(rawText)
	return models.IssueAnalysis{
		Description:      text,
		FormattedIssue:   vehicleModelLabel(vehicleModel) + " - " + text,
		Category:         models.CategoryGeneral,
		Severity:         severity,
		SuggestedActions: actionsFor(severity),
		PossibleCauses:   append([]string(nil), DefaultPossibleCauses...),
		UrgencyLevel:     urgencyFor(severity),
		EstimatedCost:    DefaultEstimatedCost,
	}
}

// FallbackImage builds an analysis for a photo report without any network call.
// Undiagnosed photos are assumed to show body damage.
func FallbackImage(vehicleModel string) models.IssueAnalysis {
	return models.IssueAnalysis{
		Description:      imageFallbackDescription,
		FormattedIssue:   vehicleModelLabel(vehicleModel) + " - " + imageFallbackDescription,
		Category:         models.CategoryBody,
		Severity:         models.SeverityMedium,
		SuggestedActions: append([]string(nil), DefaultSuggestedActions...),
		PossibleCauses:   append([]string(nil), DefaultPossibleCauses...),
		UrgencyLevel:     DefaultUrgency,
		EstimatedCost:    DefaultEstimatedCost,
	}
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
