package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"vehicle-service/analytics"
	"vehicle-service/analyzer"
	"vehicle-service/assistant"
	"vehicle-service/database"
	"vehicle-service/metrics"
	"vehicle-service/models"
	"vehicle-service/rabbitmq"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
)

// multipartOverhead is slack on top of the photo ceiling for the other form
// parts and boundaries.
const multipartOverhead = 1 << 20

// IssueStore persists issues.
type IssueStore interface {
	CreateIssue(ctx context.Context, in models.NewIssue) (*models.Issue, error)
	ListIssues(ctx context.Context, filter models.IssueFilter) ([]models.Issue, error)
	ResolveIssue(ctx context.Context, id string) (issue *models.Issue, changed bool, err error)
	Ping(ctx context.Context) error
}

// IssueAnalyzer classifies issue reports.
type IssueAnalyzer interface {
	AnalyzeText(ctx context.Context, text, vehicleModel string) (models.IssueAnalysis, error)
	AnalyzeImage(ctx context.Context, file analyzer.ImageFile, vehicleModel string) (models.IssueAnalysis, error)
}

// ChatAssistant answers chat messages.
type ChatAssistant interface {
	Reply(ctx context.Context, req assistant.Request) (string, error)
}

// EventPublisher announces issue lifecycle changes.
type EventPublisher interface {
	PublishIssueEvent(ctx context.Context, event string, issue *models.Issue) error
}

// Handlers represents the HTTP handlers
type Handlers struct {
	store          IssueStore
	analyzer       IssueAnalyzer
	assistant      ChatAssistant
	events         EventPublisher
	maxUploadBytes int64
	now            func() time.Time
}

// NewHandlers creates new HTTP handlers. events may be nil.
func NewHandlers(store IssueStore, a IssueAnalyzer, chat ChatAssistant, events EventPublisher, maxUploadBytes int64) *Handlers {
	return &Handlers{
		store:          store,
		analyzer:       a,
		assistant:      chat,
		events:         events,
		maxUploadBytes: maxUploadBytes,
		now:            time.Now,
	}
}

// RegisterRoutes mounts the API on group. aiMiddleware applies to the
// endpoints that call the AI provider.
func (h *Handlers) RegisterRoutes(group *gin.RouterGroup, aiMiddleware ...gin.HandlerFunc) {
	group.GET("/health", h.HealthCheck)

	analyze := group.Group("/issues/analyze", aiMiddleware...)
	{
		analyze.POST("/text", h.AnalyzeText)
		analyze.POST("/voice", h.AnalyzeVoice)
		analyze.POST("/image", h.AnalyzeImage)
	}

	group.POST("/issues", h.CreateIssue)
	group.GET("/issues", h.ListIssues)
	group.PATCH("/issues/:id/resolve", h.ResolveIssue)
	group.GET("/analytics", h.GetAnalytics)
	group.GET("/analytics/export", h.ExportAnalytics)
	group.Group("/assistant", aiMiddleware...).POST("/chat", h.Chat)
}

// HealthCheck handles health check requests
func (h *Handlers) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		log.WithError(err).Warn("health check: database unreachable")
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "unhealthy",
			"service": "vehicle-service",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "vehicle-service",
	})
}

type analyzeTextRequest struct {
	Text         string `json:"text"`
	VehicleModel string `json:"vehicleModel"`
}

type analyzeVoiceRequest struct {
	Transcript   string `json:"transcript"`
	VehicleModel string `json:"vehicleModel"`
}

// AnalyzeText classifies a typed issue description.
func (h *Handlers) AnalyzeText(c *gin.Context) {
	var req analyzeTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	h.respondAnalysis(c, req.Text, req.VehicleModel)
}

// AnalyzeVoice classifies a speech transcript the same way as typed text.
func (h *Handlers) AnalyzeVoice(c *gin.Context) {
	var req analyzeVoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	h.respondAnalysis(c, req.Transcript, req.VehicleModel)
}

func (h *Handlers) respondAnalysis(c *gin.Context, text, vehicleModel string) {
	analysis, err := h.analyzer.AnalyzeText(c.Request.Context(), text, vehicleModel)
	if err != nil {
		h.analysisError(c, err)
		return
	}
	c.JSON(http.StatusOK, analysis)
}

// AnalyzeImage classifies an uploaded photo sent as the multipart field "photo".
func (h *Handlers) AnalyzeImage(c *gin.Context) {
	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes+multipartOverhead)
	}

	fh, err := c.FormFile("photo")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.uploadTooLarge(c)
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "Photo is required"})
		return
	}
	if h.maxUploadBytes > 0 && fh.Size > h.maxUploadBytes {
		h.uploadTooLarge(c)
		return
	}

	file, err := readUpload(fh)
	if err != nil {
		log.WithError(err).Error("failed to read uploaded photo")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read photo"})
		return
	}

	analysis, err := h.analyzer.AnalyzeImage(c.Request.Context(), file, c.PostForm("vehicleModel"))
	if err != nil {
		h.analysisError(c, err)
		return
	}
	c.JSON(http.StatusOK, analysis)
}

func (h *Handlers) uploadTooLarge(c *gin.Context) {
	c.JSON(http.StatusRequestEntityTooLarge, gin.H{
		"error": fmt.Sprintf("Photo exceeds the %d byte upload limit", h.maxUploadBytes),
	})
}

// readUpload loads the part into memory. The MIME type comes from the part
// header and is sniffed from the content when the client sent none.
func readUpload(fh *multipart.FileHeader) (analyzer.ImageFile, error) {
	f, err := fh.Open()
	if err != nil {
		return analyzer.ImageFile{}, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return analyzer.ImageFile{}, err
	}

	mimeType := fh.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(data)
	}
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}

	return analyzer.ImageFile{
		Filename: fh.Filename,
		MIMEType: mimeType,
		Data:     data,
	}, nil
}

func (h *Handlers) analysisError(c *gin.Context, err error) {
	var invalid *analyzer.InvalidInputError
	if errors.As(err, &invalid) {
		c.JSON(http.StatusBadRequest, gin.H{"error": invalid.Error(), "field": invalid.Field})
		return
	}
	log.WithError(err).Error("analysis failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to analyze issue"})
}

// CreateIssue stores an analyzed issue. The analysis is normalized again so a
// client cannot store values outside the closed sets.
func (h *Handlers) CreateIssue(c *gin.Context) {
	var req models.NewIssue
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId and vehicleModel are required"})
		return
	}
	switch req.Source {
	case "":
		req.Source = models.SourceText
	case models.SourceText, models.SourceVoice, models.SourceImage:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "source must be one of text, voice, image"})
		return
	}

	analysis, err := renormalize(req.Analysis, req.VehicleModel)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid analysis"})
		return
	}
	req.Analysis = analysis

	issue, err := h.store.CreateIssue(c.Request.Context(), req)
	if err != nil {
		log.WithError(err).Error("failed to create issue")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create issue"})
		return
	}
	metrics.IssuesCreatedTotal.Inc()
	h.publish(c.Request.Context(), rabbitmq.EventIssueCreated, issue)

	c.JSON(http.StatusCreated, issue)
}

func renormalize(a models.IssueAnalysis, vehicleModel string) (models.IssueAnalysis, error) {
	body, err := json.Marshal(a)
	if err != nil {
		return models.IssueAnalysis{}, err
	}
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return models.IssueAnalysis{}, err
	}
	return analyzer.Normalize(raw, vehicleModel, ""), nil
}

// ListIssues returns issues newest first, optionally filtered by
// userId, status and vehicleModel.
func (h *Handlers) ListIssues(c *gin.Context) {
	filter := models.IssueFilter{
		UserID:       c.Query("userId"),
		Status:       models.IssueStatus(c.Query("status")),
		VehicleModel: c.Query("vehicleModel"),
	}
	switch filter.Status {
	case "", models.StatusOpen, models.StatusResolved:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "status must be open or resolved"})
		return
	}

	issues, err := h.store.ListIssues(c.Request.Context(), filter)
	if err != nil {
		log.WithError(err).Error("failed to list issues")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list issues"})
		return
	}
	c.JSON(http.StatusOK, issues)
}

// ResolveIssue marks an issue resolved. Resolving an already resolved issue
// returns the stored record without a second event.
func (h *Handlers) ResolveIssue(c *gin.Context) {
	id := c.Param("id")
	issue, changed, err := h.store.ResolveIssue(c.Request.Context(), id)
	if errors.Is(err, database.ErrIssueNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Issue not found"})
		return
	}
	if err != nil {
		log.WithError(err).WithField("id", id).Error("failed to resolve issue")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve issue"})
		return
	}
	if changed {
		metrics.IssuesResolvedTotal.Inc()
		h.publish(c.Request.Context(), rabbitmq.EventIssueResolved, issue)
	}

	c.JSON(http.StatusOK, issue)
}

// GetAnalytics aggregates the stored issues, optionally narrowed to one user
// or vehicle model.
func (h *Handlers) GetAnalytics(c *gin.Context) {
	issues, err := h.store.ListIssues(c.Request.Context(), models.IssueFilter{
		UserID:       c.Query("userId"),
		VehicleModel: c.Query("vehicleModel"),
	})
	if err != nil {
		log.WithError(err).Error("failed to load issues for analytics")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute analytics"})
		return
	}
	c.JSON(http.StatusOK, analytics.Aggregate(issues, h.now()))
}

type chatRequest struct {
	Message string         `json:"message"`
	Role    assistant.Role `json:"role"`
	Context string         `json:"context"`
	UserID  string         `json:"userId"`
}

// Chat answers an assistant message. Owners identified by userId get their
// previous issues included in the prompt.
func (h *Handlers) Chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	ar := assistant.Request{Message: req.Message, Role: req.Role, Context: req.Context}
	if req.UserID != "" && assistant.ResolveRole(req.Role, req.Context) == assistant.RoleOwner {
		issues, err := h.store.ListIssues(c.Request.Context(), models.IssueFilter{UserID: req.UserID})
		if err != nil {
			log.WithError(err).WithField("userId", req.UserID).Warn("failed to load previous issues for chat")
		}
		ar.PreviousIssues = issues
	}

	reply, err := h.assistant.Reply(c.Request.Context(), ar)
	if errors.Is(err, assistant.ErrEmptyMessage) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
		return
	}
	if err != nil {
		log.WithError(err).Error("assistant reply failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to answer message"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"reply": reply})
}

// publish never fails the request; broker trouble is logged and counted.
func (h *Handlers) publish(ctx context.Context, event string, issue *models.Issue) {
	if h.events == nil {
		return
	}
	if err := h.events.PublishIssueEvent(ctx, event, issue); err != nil {
		metrics.EventPublishErrorTotal.Inc()
		log.WithError(err).WithFields(log.Fields{"event": event, "id": issue.ID}).Warn("failed to publish issue event")
	}
}
