package analytics

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"vehicle-service/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func ptr(t time.Time) *time.Time { return &t }

func issue(category, severity, model string) models.Issue {
	return models.Issue{
		Category:     category,
		Severity:     severity,
		VehicleModel: model,
		Status:       models.StatusOpen,
		CreatedAt:    now,
	}
}

func TestAggregate_Empty(t *testing.T) {
	r := Aggregate(nil, now)

	assert.Equal(t, Overview{}, r.Overview)
	assert.NotNil(t, r.IssuesByModel)
	assert.Empty(t, r.IssuesByModel)
	assert.Empty(t, r.IssuesByCategory)
	assert.Empty(t, r.CommonFlaws)
	assert.Empty(t, r.SeverityDistribution)
	assert.NotNil(t, r.MonthlyTrends)
	assert.Empty(t, r.MonthlyTrends)

	body, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"monthlyTrends":[]`)
}

func TestAggregate_Overview(t *testing.T) {
	issues := []models.Issue{
		{UserID: "u1", Severity: "high", Status: models.StatusResolved, CreatedAt: day("2024-01-01"), ResolvedAt: ptr(day("2024-01-03"))},
		{UserID: "u2", Severity: "low", Status: models.StatusResolved, CreatedAt: day("2024-01-10"), ResolvedAt: ptr(day("2024-01-20"))},
		{UserID: "u1", Severity: "high", Status: models.StatusOpen, CreatedAt: day("2024-02-01")},
		{UserID: "u3", Severity: "medium", Status: models.StatusOpen, CreatedAt: day("2024-02-02")},
	}

	o := Aggregate(issues, now).Overview
	assert.Equal(t, Overview{
		TotalIssues:       4,
		ActiveIssues:      2,
		ResolvedIssues:    2,
		CriticalIssues:    2,
		TotalUsers:        3,
		AvgResolutionTime: 6.0,
	}, o)
}

func TestAggregate_AvgResolutionRounding(t *testing.T) {
	issues := []models.Issue{
		{Status: models.StatusResolved, CreatedAt: day("2024-01-01"), ResolvedAt: ptr(day("2024-01-02"))},
		{Status: models.StatusResolved, CreatedAt: day("2024-01-01"), ResolvedAt: ptr(day("2024-01-02"))},
		{Status: models.StatusResolved, CreatedAt: day("2024-01-01"), ResolvedAt: ptr(day("2024-01-03"))},
		// Resolved without a timestamp is counted but not timed.
		{Status: models.StatusResolved, CreatedAt: day("2024-01-01")},
	}

	o := Aggregate(issues, now).Overview
	assert.Equal(t, 4, o.ResolvedIssues)
	assert.Equal(t, 1.3, o.AvgResolutionTime)
}

func TestAggregate_IssuesByModel(t *testing.T) {
	resolved := issue("Engine", "high", "Civic")
	resolved.Status = models.StatusResolved
	resolved.ResolvedAt = ptr(now)

	issues := []models.Issue{
		issue("Engine", "high", "Accord"),
		resolved,
		issue("Brakes", "low", "Civic"),
		issue("Body", "low", "Civic"),
		issue("Body", "low", ""),
	}

	got := Aggregate(issues, now).IssuesByModel
	assert.Equal(t, []ModelStat{
		{Model: "Civic", Issues: 3, Resolved: 1, ResolutionRate: 33},
		{Model: "Accord", Issues: 1, Resolved: 0, ResolutionRate: 0},
		{Model: "Unknown", Issues: 1, Resolved: 0, ResolutionRate: 0},
	}, got)
}

func TestAggregate_IssuesByCategory(t *testing.T) {
	issues := []models.Issue{
		issue("Brakes", "low", "Civic"),
		issue("Engine", "high", "Civic"),
		issue("Engine", "high", "Civic"),
	}

	got := Aggregate(issues, now).IssuesByCategory
	require.Len(t, got, 2)
	assert.Equal(t, CategoryStat{Category: "Engine", Count: 2, Color: CategoryPalette[0]}, got[0])
	assert.Equal(t, CategoryStat{Category: "Brakes", Count: 1, Color: CategoryPalette[1]}, got[1])
}

func TestAggregate_CategoryPaletteCycles(t *testing.T) {
	var issues []models.Issue
	for i := 0; i < 9; i++ {
		for j := 0; j < 9-i; j++ {
			issues = append(issues, issue(fmt.Sprintf("Cat%d", i), "low", "Civic"))
		}
	}
	issues = append(issues, issue("", "low", "Civic"))

	got := Aggregate(issues, now).IssuesByCategory
	require.Len(t, got, 10)
	for i, stat := range got {
		assert.Equal(t, CategoryPalette[i%7], stat.Color)
	}
	assert.Equal(t, CategoryPalette[0], got[7].Color)
	assert.Contains(t, []string{got[8].Category, got[9].Category}, "Other")
}

func TestAggregate_MonthlyTrends(t *testing.T) {
	resolved := models.Issue{Status: models.StatusResolved, CreatedAt: day("2024-05-03"), ResolvedAt: ptr(day("2024-05-04"))}
	issues := []models.Issue{
		{CreatedAt: day("2024-01-20")},
		{CreatedAt: day("2024-06-01")},
		{CreatedAt: day("2024-06-14")},
		resolved,
		// Outside the window.
		{CreatedAt: day("2023-12-31")},
	}

	got := Aggregate(issues, now).MonthlyTrends
	assert.Equal(t, []MonthlyTrend{
		{Month: "Jan", Issues: 1},
		{Month: "Feb"},
		{Month: "Mar"},
		{Month: "Apr"},
		{Month: "May", Issues: 1, Resolved: 1},
		{Month: "Jun", Issues: 2},
	}, got)
}

func TestAggregate_MonthlyTrendsAcrossYearBoundary(t *testing.T) {
	got := Aggregate([]models.Issue{{CreatedAt: day("2024-03-01")}}, time.Date(2024, time.March, 31, 0, 0, 0, 0, time.UTC)).MonthlyTrends

	labels := make([]string, len(got))
	for i, m := range got {
		labels[i] = m.Month
	}
	assert.Equal(t, []string{"Oct", "Nov", "Dec", "Jan", "Feb", "Mar"}, labels)
}

func TestAggregate_ReportShape(t *testing.T) {
	body, err := json.Marshal(Aggregate([]models.Issue{issue("Engine", "high", "Civic")}, now))
	require.NoError(t, err)

	var got struct {
		IssuesByModel []map[string]any `json:"issuesByModel"`
		CommonFlaws   []map[string]any `json:"commonFlaws"`
		IssuesByCat   []map[string]any `json:"issuesByCategory"`
	}
	require.NoError(t, json.Unmarshal(body, &got))
	require.Len(t, got.IssuesByModel, 1)
	assert.Equal(t, float64(1), got.IssuesByModel[0]["issues"])
	assert.Equal(t, float64(0), got.IssuesByModel[0]["resolved"])
	require.Len(t, got.CommonFlaws, 1)
	assert.Equal(t, "Engine related issues", got.CommonFlaws[0]["issue"])
	require.Len(t, got.IssuesByCat, 1)
	assert.Equal(t, "#3b82f6", got.IssuesByCat[0]["color"])
}

// Buckets match on month label only: an issue from June of an earlier year is
// counted in the current June bucket.
func TestAggregate_MonthlyTrendsMatchByLabelOnly(t *testing.T) {
	issues := []models.Issue{
		{CreatedAt: day("2024-06-10")},
		{CreatedAt: day("2022-06-10")},
		{CreatedAt: day("2023-02-10")},
	}

	got := Aggregate(issues, now).MonthlyTrends
	assert.Equal(t, "Jun", got[5].Month)
	assert.Equal(t, 2, got[5].Issues)
	assert.Equal(t, "Feb", got[1].Month)
	assert.Equal(t, 1, got[1].Issues)
}

func TestAggregate_CommonFlaws(t *testing.T) {
	issues := []models.Issue{
		issue("Engine", "high", "Civic"),
		issue("Engine", "low", "Accord"),
		issue("Engine", "high", "Civic"),
		issue("Brakes", "medium", "Civic"),
		issue("Brakes", "high", "Corolla"),
		issue("Brakes", "low", "Civic"),
	}

	got := Aggregate(issues, now).CommonFlaws
	require.Len(t, got, 2)
	assert.Equal(t, CommonFlaw{Issue: "Engine related issues", Category: "Engine", Frequency: 3, Severity: "high", AffectedModels: []string{"Civic", "Accord"}}, got[0])
	// Three-way tie resolves to the first of low, medium, high.
	assert.Equal(t, CommonFlaw{Issue: "Brakes related issues", Category: "Brakes", Frequency: 3, Severity: "low", AffectedModels: []string{"Civic", "Corolla"}}, got[1])
}

func TestAggregate_CommonFlawsTieBreak(t *testing.T) {
	issues := []models.Issue{
		issue("Electrical", "high", "Civic"),
		issue("Electrical", "medium", "Civic"),
	}

	got := Aggregate(issues, now).CommonFlaws
	require.Len(t, got, 1)
	assert.Equal(t, "medium", got[0].Severity)
}

func TestAggregate_CommonFlawsTopTen(t *testing.T) {
	var issues []models.Issue
	for i := 0; i < 25; i++ {
		issues = append(issues, issue(fmt.Sprintf("Category %d", i), "low", "Civic"))
	}
	issues = append(issues, issue("Category 24", "low", "Civic"))

	got := Aggregate(issues, now).CommonFlaws
	assert.Len(t, got, 10)
	assert.Equal(t, "Category 24", got[0].Category)
	assert.Equal(t, 2, got[0].Frequency)
}

func TestAggregate_SeverityDistribution(t *testing.T) {
	issues := []models.Issue{
		issue("Engine", "high", "Civic"),
		issue("Engine", "low", "Civic"),
		issue("Engine", "high", "Civic"),
		issue("Engine", "", "Civic"),
	}

	got := Aggregate(issues, now).SeverityDistribution
	assert.Equal(t, []SeverityStat{
		{Severity: "Low", Count: 1, Percentage: 25},
		{Severity: "High", Count: 2, Percentage: 50},
		{Severity: "Unknown", Count: 1, Percentage: 25},
	}, got)
}
