package handlers

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"time"

	"vehicle-service/analytics"
	"vehicle-service/models"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
)

const exportDateLayout = "2006-01-02"

var csvHeader = []string{
	"Issue ID", "Description", "Category", "Severity", "Status",
	"Vehicle Model", "Created Date", "Resolved Date",
}

type analyticsExport struct {
	GeneratedAt string `json:"generatedAt"`
	analytics.Report
	RawIssues []models.Issue `json:"rawIssues"`
}

// ExportAnalytics downloads the analytics report as JSON or the underlying
// issues as CSV. The filter query parameters match GetAnalytics.
func (h *Handlers) ExportAnalytics(c *gin.Context) {
	format := c.DefaultQuery("format", "json")
	if format != "json" && format != "csv" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be json or csv"})
		return
	}

	issues, err := h.store.ListIssues(c.Request.Context(), models.IssueFilter{
		UserID:       c.Query("userId"),
		VehicleModel: c.Query("vehicleModel"),
	})
	if err != nil {
		log.WithError(err).Error("failed to load issues for export")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to export analytics"})
		return
	}
	if issues == nil {
		issues = []models.Issue{}
	}

	now := h.now().UTC()
	if format == "csv" {
		h.writeCSV(c, issues, now)
		return
	}

	c.Header("Content-Disposition", attachment("analytics-report", now, "json"))
	c.IndentedJSON(http.StatusOK, analyticsExport{
		GeneratedAt: now.Format(time.RFC3339),
		Report:      analytics.Aggregate(issues, now),
		RawIssues:   issues,
	})
}

func (h *Handlers) writeCSV(c *gin.Context, issues []models.Issue, now time.Time) {
	c.Header("Content-Disposition", attachment("analytics-data", now, "csv"))
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Status(http.StatusOK)

	w := csv.NewWriter(c.Writer)
	w.Write(csvHeader)
	for _, issue := range issues {
		resolved := "Not resolved"
		if issue.ResolvedAt != nil {
			resolved = issue.ResolvedAt.UTC().Format(exportDateLayout)
		}
		w.Write([]string{
			issue.ID,
			issue.Description,
			issue.Category,
			issue.Severity,
			string(issue.Status),
			issue.VehicleModel,
			issue.CreatedAt.UTC().Format(exportDateLayout),
			resolved,
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		log.WithError(err).Error("failed to write csv export")
	}
}

func attachment(prefix string, now time.Time, ext string) string {
	return fmt.Sprintf(`attachment; filename="%s-%s.%s"`, prefix, now.Format(exportDateLayout), ext)
}
