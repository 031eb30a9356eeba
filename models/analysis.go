package models

import "strings"

// Category is the vehicle subsystem an issue is attributed to.
type Category string

const (
	CategoryEngine       Category = "Engine"
	CategoryBrakes       Category = "Brakes"
	CategoryElectrical   Category = "Electrical"
	CategoryACHeating    Category = "AC/Heating"
	CategorySuspension   Category = "Suspension"
	CategoryTransmission Category = "Transmission"
	CategoryBody         Category = "Body"
	CategoryFuelSystem   Category = "Fuel System"
	CategoryExhaust      Category = "Exhaust"
	CategorySteering     Category = "Steering"
	CategoryGeneral      Category = "General"
)

// Categories lists the allowed categories in declaration order.
var Categories = []Category{
	CategoryEngine,
	CategoryBrakes,
	CategoryElectrical,
	CategoryACHeating,
	CategorySuspension,
	CategoryTransmission,
	CategoryBody,
	CategoryFuelSystem,
	CategoryExhaust,
	CategorySteering,
	CategoryGeneral,
}

// ParseCategory matches s case-insensitively against the known categories.
func ParseCategory(s string) (Category, bool) {
	s = strings.TrimSpace(s)
	for _, c := range Categories {
		if strings.EqualFold(s, string(c)) {
			return c, true
		}
	}
	return "", false
}

// Severity is the urgency tier of an issue.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Severities lists the severities in declaration order. Tie-breaks that
// depend on severity order use this slice.
var Severities = []Severity{SeverityLow, SeverityMedium, SeverityHigh}

// ParseSeverity returns the severity named by s, ignoring case and
// surrounding whitespace.
func ParseSeverity(s string) (Severity, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, sev := range Severities {
		if s == string(sev) {
			return sev, true
		}
	}
	return "", false
}

// IssueAnalysis is the structured classification of a single reported issue.
// JSON field names follow the schema the AI model is asked to produce.
type IssueAnalysis struct {
	Description      string   `json:"description"`
	FormattedIssue   string   `json:"formattedIssue"`
	Category         Category `json:"category"`
	Severity         Severity `json:"severity"`
	SuggestedActions []string `json:"suggestedActions"`
	PossibleCauses   []string `json:"possibleCauses"`
	UrgencyLevel     string   `json:"urgencyLevel"`
	EstimatedCost    string   `json:"estimatedCost"`
}
