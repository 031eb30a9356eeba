package analytics

import (
	"math"
	"sort"
	"strings"
	"time"

	"vehicle-service/models"

	"github.com/shopspring/decimal"
)

const (
	unknownModel    = "Unknown"
	otherCategory   = "Other"
	unknownSeverity = "unknown"

	trendMonths   = 6
	maxFlaws      = 10
	hoursInOneDay = 24
)

// CategoryPalette assigns display colors to categories by rank.
var CategoryPalette = []string{
	"#3b82f6",
	"#ef4444",
	"#f97316",
	"#eab308",
	"#22c55e",
	"#8b5cf6",
	"#6b7280",
}

type Overview struct {
	TotalIssues       int     `json:"totalIssues"`
	ActiveIssues      int     `json:"activeIssues"`
	ResolvedIssues    int     `json:"resolvedIssues"`
	CriticalIssues    int     `json:"criticalIssues"`
	TotalUsers        int     `json:"totalUsers"`
	AvgResolutionTime float64 `json:"avgResolutionTime"`
}

type ModelStat struct {
	Model          string `json:"model"`
	Issues         int    `json:"issues"`
	Resolved       int    `json:"resolved"`
	ResolutionRate int    `json:"resolutionRate"`
}

type CategoryStat struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
	Color    string `json:"color"`
}

type MonthlyTrend struct {
	Month    string `json:"month"`
	Issues   int    `json:"issues"`
	Resolved int    `json:"resolved"`
}

// CommonFlaw summarizes one category. Issue is the display label,
// "<category> related issues".
type CommonFlaw struct {
	Issue          string   `json:"issue"`
	Category       string   `json:"category"`
	Frequency      int      `json:"frequency"`
	Severity       string   `json:"severity"`
	AffectedModels []string `json:"affectedModels"`
}

type SeverityStat struct {
	Severity   string `json:"severity"`
	Count      int    `json:"count"`
	Percentage int    `json:"percentage"`
}

// Report is the analytics summary recomputed from the full issue collection.
type Report struct {
	Overview             Overview       `json:"overview"`
	IssuesByModel        []ModelStat    `json:"issuesByModel"`
	IssuesByCategory     []CategoryStat `json:"issuesByCategory"`
	MonthlyTrends        []MonthlyTrend `json:"monthlyTrends"`
	CommonFlaws          []CommonFlaw   `json:"commonFlaws"`
	SeverityDistribution []SeverityStat `json:"severityDistribution"`
}

// Aggregate summarizes issues as of now. It is pure and never fails; records
// with a missing model, category, or severity are grouped under a placeholder
// label instead of being dropped.
func Aggregate(issues []models.Issue, now time.Time) Report {
	return Report{
		Overview:             overview(issues),
		IssuesByModel:        byModel(issues),
		IssuesByCategory:     byCategory(issues),
		MonthlyTrends:        monthlyTrends(issues, now),
		CommonFlaws:          commonFlaws(issues),
		SeverityDistribution: severityDistribution(issues),
	}
}

func isResolved(issue models.Issue) bool {
	return issue.Status == models.StatusResolved
}

func modelOf(issue models.Issue) string {
	if m := strings.TrimSpace(issue.VehicleModel); m != "" {
		return m
	}
	return unknownModel
}

func categoryOf(issue models.Issue) string {
	if c := strings.TrimSpace(issue.Category); c != "" {
		return c
	}
	return otherCategory
}

func severityOf(issue models.Issue) string {
	if s := strings.ToLower(strings.TrimSpace(issue.Severity)); s != "" {
		return s
	}
	return unknownSeverity
}

// percent returns round(part/whole*100), or 0 for an empty whole.
func percent(part, whole int) int {
	if whole == 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(whole) * 100))
}

func overview(issues []models.Issue) Overview {
	o := Overview{TotalIssues: len(issues)}
	users := make(map[string]struct{})
	var totalDays float64
	var timed int

	for _, issue := range issues {
		if isResolved(issue) {
			o.ResolvedIssues++
			if issue.ResolvedAt != nil {
				totalDays += issue.ResolvedAt.Sub(issue.CreatedAt).Hours() / hoursInOneDay
				timed++
			}
		}
		if severityOf(issue) == string(models.SeverityHigh) {
			o.CriticalIssues++
		}
		if issue.UserID != "" {
			users[issue.UserID] = struct{}{}
		}
	}

	o.ActiveIssues = o.TotalIssues - o.ResolvedIssues
	o.TotalUsers = len(users)
	if timed > 0 {
		o.AvgResolutionTime, _ = decimal.NewFromFloat(totalDays / float64(timed)).Round(1).Float64()
	}
	return o
}

// group keeps insertion order so that equal counts sort deterministically.
type group[T any] struct {
	keys  []string
	items map[string]*T
}

func newGroup[T any]() *group[T] {
	return &group[T]{items: make(map[string]*T)}
}

func (g *group[T]) get(key string, init func() *T) *T {
	if v, ok := g.items[key]; ok {
		return v
	}
	v := init()
	g.items[key] = v
	g.keys = append(g.keys, key)
	return v
}

func byModel(issues []models.Issue) []ModelStat {
	g := newGroup[ModelStat]()
	for _, issue := range issues {
		model := modelOf(issue)
		stat := g.get(model, func() *ModelStat { return &ModelStat{Model: model} })
		stat.Issues++
		if isResolved(issue) {
			stat.Resolved++
		}
	}

	out := make([]ModelStat, 0, len(g.keys))
	for _, key := range g.keys {
		stat := *g.items[key]
		stat.ResolutionRate = percent(stat.Resolved, stat.Issues)
		out = append(out, stat)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Issues > out[j].Issues
	})
	return out
}

func byCategory(issues []models.Issue) []CategoryStat {
	g := newGroup[CategoryStat]()
	for _, issue := range issues {
		category := categoryOf(issue)
		g.get(category, func() *CategoryStat { return &CategoryStat{Category: category} }).Count++
	}

	out := make([]CategoryStat, 0, len(g.keys))
	for _, key := range g.keys {
		out = append(out, *g.items[key])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})
	for i := range out {
		out[i].Color = CategoryPalette[i%len(CategoryPalette)]
	}
	return out
}

func monthLabel(t time.Time) string {
	return t.Month().String()[:3]
}

// monthlyTrends buckets issues into the month of now and the five before it.
// Issues are matched by month label only, so the same month of another year
// lands in the same bucket. No issues means no buckets.
func monthlyTrends(issues []models.Issue, now time.Time) []MonthlyTrend {
	if len(issues) == 0 {
		return []MonthlyTrend{}
	}

	trends := make([]MonthlyTrend, trendMonths)
	index := make(map[string]int, trendMonths)
	for i := 0; i < trendMonths; i++ {
		month := time.Date(now.Year(), now.Month()-time.Month(trendMonths-1-i), 1, 0, 0, 0, 0, now.Location())
		label := monthLabel(month)
		trends[i] = MonthlyTrend{Month: label}
		index[label] = i
	}

	for _, issue := range issues {
		i, ok := index[monthLabel(issue.CreatedAt.In(now.Location()))]
		if !ok {
			continue
		}
		trends[i].Issues++
		if isResolved(issue) {
			trends[i].Resolved++
		}
	}
	return trends
}

type flawAccumulator struct {
	frequency  int
	severities map[string]int
	sevOrder   []string
	models     []string
	seenModels map[string]struct{}
}

// dominantSeverity returns the most frequent severity. Ties go to the
// earliest of low, medium, high, then to other labels in first-seen order.
func (f *flawAccumulator) dominantSeverity() string {
	order := make([]string, 0, len(f.sevOrder))
	for _, s := range models.Severities {
		order = append(order, string(s))
	}
	for _, s := range f.sevOrder {
		if _, ok := models.ParseSeverity(s); !ok {
			order = append(order, s)
		}
	}

	best, bestCount := "", 0
	for _, s := range order {
		if c := f.severities[s]; c > bestCount {
			best, bestCount = s, c
		}
	}
	return best
}

func commonFlaws(issues []models.Issue) []CommonFlaw {
	g := newGroup[flawAccumulator]()
	for _, issue := range issues {
		acc := g.get(categoryOf(issue), func() *flawAccumulator {
			return &flawAccumulator{
				severities: make(map[string]int),
				seenModels: make(map[string]struct{}),
			}
		})
		acc.frequency++

		sev := severityOf(issue)
		if acc.severities[sev] == 0 {
			acc.sevOrder = append(acc.sevOrder, sev)
		}
		acc.severities[sev]++

		model := modelOf(issue)
		if _, ok := acc.seenModels[model]; !ok {
			acc.seenModels[model] = struct{}{}
			acc.models = append(acc.models, model)
		}
	}

	out := make([]CommonFlaw, 0, len(g.keys))
	for _, key := range g.keys {
		acc := g.items[key]
		out = append(out, CommonFlaw{
			Issue:          key + " related issues",
			Category:       key,
			Frequency:      acc.frequency,
			Severity:       acc.dominantSeverity(),
			AffectedModels: acc.models,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Frequency > out[j].Frequency
	})
	if len(out) > maxFlaws {
		out = out[:maxFlaws]
	}
	return out
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func severityDistribution(issues []models.Issue) []SeverityStat {
	counts := make(map[string]int)
	var order []string
	for _, issue := range issues {
		sev := severityOf(issue)
		if counts[sev] == 0 {
			order = append(order, sev)
		}
		counts[sev]++
	}

	out := make([]SeverityStat, 0, len(counts))
	appendStat := func(sev string) {
		out = append(out, SeverityStat{
			Severity:   capitalize(sev),
			Count:      counts[sev],
			Percentage: percent(counts[sev], len(issues)),
		})
	}
	for _, s := range models.Severities {
		if counts[string(s)] > 0 {
			appendStat(string(s))
		}
	}
	for _, s := range order {
		if _, ok := models.ParseSeverity(s); !ok {
			appendStat(s)
		}
	}
	return out
}
