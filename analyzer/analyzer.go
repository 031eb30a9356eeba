package analyzer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"vehicle-service/llm"
	"vehicle-service/metrics"
	"vehicle-service/models"
	"vehicle-service/parser"

	"github.com/apex/log"
)

// DefaultMaxImageBytes is the largest photo accepted for analysis.
const DefaultMaxImageBytes int64 = 10 << 20

const (
	inputText  = "text"
	inputImage = "image"

	outcomeAI       = "ai"
	outcomeFallback = "fallback"
)

// ImageFile is an uploaded photo.
type ImageFile struct {
	Filename string
	MIMEType string
	Data     []byte
}

// Options configures an Analyzer.
type Options struct {
	MaxImageBytes int64
}

// Analyzer classifies issue reports through the AI client and degrades to the
// keyword fallback whenever the client fails. It holds no per-call state and
// is safe for concurrent use.
type Analyzer struct {
	client        llm.Client
	maxImageBytes int64
}

func New(client llm.Client, opts Options) *Analyzer {
	if opts.MaxImageBytes <= 0 {
		opts.MaxImageBytes = DefaultMaxImageBytes
	}
	return &Analyzer{
		client:        client,
		maxImageBytes: opts.MaxImageBytes,
	}
}

// AnalyzeText classifies a free-text (or transcribed voice) report. The only
// error it returns is an *InvalidInputError for blank text.
func (a *Analyzer) AnalyzeText(ctx context.Context, text, vehicleModel string) (models.IssueAnalysis, error) {
	if strings.TrimSpace(text) == "" {
		metrics.InvalidInputTotal.WithLabelValues(inputText).Inc()
		return models.IssueAnalysis{}, invalidInput("text", "issue description is empty")
	}

	raw, err := a.classify(ctx, inputText, llm.Request{Prompt: BuildTextPrompt(text, vehicleModel)})
	if err != nil {
		log.WithFields(log.Fields{
			"input":         inputText,
			"vehicle_model": vehicleModel,
		}).WithError(err).Warn("AI analysis unavailable, using fallback")
		metrics.AnalysesTotal.WithLabelValues(inputText, outcomeFallback).Inc()
		return FallbackText(text, vehicleModel), nil
	}

	metrics.AnalysesTotal.WithLabelValues(inputText, outcomeAI).Inc()
	return Normalize(raw, vehicleModel, capitalize(strings.TrimSpace(text))), nil
}

// AnalyzeImage classifies a photo report. An upload that is empty, not an
// image, or over the size ceiling is rejected before any network call.
func (a *Analyzer) AnalyzeImage(ctx context.Context, file ImageFile, vehicleModel string) (models.IssueAnalysis, error) {
	if err := a.validateImage(file); err != nil {
		metrics.InvalidInputTotal.WithLabelValues(inputImage).Inc()
		return models.IssueAnalysis{}, err
	}

	req := llm.Request{
		Prompt: BuildImagePrompt(vehicleModel),
		Image:  &llm.Image{MIMEType: file.MIMEType, Data: file.Data},
	}
	raw, err := a.classify(ctx, inputImage, req)
	if err != nil {
		log.WithFields(log.Fields{
			"input":         inputImage,
			"vehicle_model": vehicleModel,
			"size":          len(file.Data),
		}).WithError(err).Warn("AI analysis unavailable, using fallback")
		metrics.AnalysesTotal.WithLabelValues(inputImage, outcomeFallback).Inc()
		return FallbackImage(vehicleModel), nil
	}

	metrics.AnalysesTotal.WithLabelValues(inputImage, outcomeAI).Inc()
	return Normalize(raw, vehicleModel, imageFallbackDescription), nil
}

func (a *Analyzer) validateImage(file ImageFile) error {
	if !strings.HasPrefix(strings.ToLower(file.MIMEType), "image/") {
		return invalidInput("file", "unsupported content type %q, expected an image", file.MIMEType)
	}
	if len(file.Data) == 0 {
		return invalidInput("file", "image is empty")
	}
	if int64(len(file.Data)) > a.maxImageBytes {
		return invalidInput("file", "image is %d bytes, limit is %d", len(file.Data), a.maxImageBytes)
	}
	return nil
}

// classify performs the single AI call and decodes the JSON object from the
// reply. Every failure, including a panicking client, comes back as an
// *llm.UnavailableError.
func (a *Analyzer) classify(ctx context.Context, input string, req llm.Request) (raw map[string]any, err error) {
	if a.client == nil {
		return nil, llm.Unavailable("no AI client configured", nil)
	}

	start := time.Now()
	result := "error"
	defer func() {
		if r := recover(); r != nil {
			raw, err = nil, llm.Unavailable(fmt.Sprintf("client panic: %v", r), nil)
		}
		metrics.AIRequestDuration.WithLabelValues(input, result).Observe(time.Since(start).Seconds())
	}()

	text, err := a.client.Generate(ctx, req)
	if err != nil {
		if !llm.IsUnavailable(err) {
			err = llm.Unavailable(a.client.SourceName()+" request failed", err)
		}
		return nil, err
	}

	raw, err = parser.ParseObject(text)
	if err != nil {
		result = "unparseable"
		return nil, llm.Unavailable("unusable AI reply", err)
	}
	result = "ok"
	return raw, nil
}
