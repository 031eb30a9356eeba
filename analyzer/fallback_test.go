package analyzer

import (
	"testing"

	"vehicle-service/models"

	"github.com/stretchr/testify/assert"
)

func TestFallbackSeverity(t *testing.T) {
	testCases := []struct {
		text string
		want models.Severity
	}{
		{"Steering wheel shakes", models.SeverityHigh},
		{"BRAKES squeal", models.SeverityHigh},
		{"check engine light is on", models.SeverityHigh},
		{"handbrake is stiff", models.SeverityHigh},
		{"radio does not work", models.SeverityMedium},
		{"tyre pressure low", models.SeverityMedium},
		{"", models.SeverityMedium},
	}

	for _, tc := range testCases {
		t.Run(tc.text, func(t *testing.T) {
			assert.Equal(t, tc.want, FallbackSeverity(tc.text))
		})
	}
}

func TestFallbackText(t *testing.T) {
	got := FallbackText("  steering wheel shakes at speed", "Corolla 2020")

	assert.Equal(t, "Steering wheel shakes at speed", got.Description)
	assert.Equal(t, "Corolla 2020 - Steering wheel shakes at speed", got.FormattedIssue)
	assert.Equal(t, models.CategoryGeneral, got.Category)
	assert.Equal(t, models.SeverityHigh, got.Severity)
	assert.Equal(t, UrgencyImmediate, got.UrgencyLevel)
	assert.Equal(t, DefaultEstimatedCost, got.EstimatedCost)
	assert.NotEmpty(t, got.SuggestedActions)
	assert.NotEmpty(t, got.PossibleCauses)
}

func TestFallbackText_Medium(t *testing.T) {
	got := FallbackText("window rattles", "Corolla 2020")

	assert.Equal(t, models.SeverityMedium, got.Severity)
	assert.Equal(t, DefaultUrgency, got.UrgencyLevel)
	assert.Equal(t, DefaultSuggestedActions, got.SuggestedActions)
}

func TestFallbackImage(t *testing.T) {
	got := FallbackImage("Corolla 2020")

	assert.Equal(t, models.CategoryBody, got.Category)
	assert.Equal(t, models.SeverityMedium, got.Severity)
	assert.Equal(t, DefaultUrgency, got.UrgencyLevel)
	assert.Equal(t, "Corolla 2020 - "+imageFallbackDescription, got.FormattedIssue)
}

func TestFallbackIsNormalized(t *testing.T) {
	fb := FallbackText("brake pedal is soft", "Civic")
	assert.Equal(t, fb, Normalize(toRaw(t, fb), "Civic", "ignored"))
}
