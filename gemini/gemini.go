package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"vehicle-service/llm"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com"
	DefaultTimeout = 30 * time.Second

	// maxErrorBody bounds how much of a failed response is kept as diagnostic text.
	maxErrorBody = 2048
)

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type content struct {
	Role  string `json:"role"`
	Parts []part `json:"parts"`
}

// GenerationConfig carries the sampling parameters sent with every request.
type GenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopK            int     `json:"topK"`
	TopP            float64 `json:"topP"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

// DefaultGenerationConfig returns the sampling parameters used when none are configured.
func DefaultGenerationConfig() GenerationConfig {
	return GenerationConfig{
		Temperature:     0.4,
		TopK:            32,
		TopP:            1,
		MaxOutputTokens: 1024,
	}
}

type geminiRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig GenerationConfig `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text,omitempty"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Options configures a Client.
type Options struct {
	APIKey     string
	Model      string
	BaseURL    string
	Timeout    time.Duration
	Generation GenerationConfig
	HTTPClient *http.Client
}

// Client calls the Gemini generateContent endpoint. It makes a single attempt
// per call; retries are left to callers.
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	timeout    time.Duration
	generation GenerationConfig
	http       *http.Client
}

func NewClient(opts Options) *Client {
	c := &Client{
		apiKey:     opts.APIKey,
		model:      opts.Model,
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		timeout:    opts.Timeout,
		generation: opts.Generation,
		http:       opts.HTTPClient,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	if c.generation == (GenerationConfig{}) {
		c.generation = DefaultGenerationConfig()
	}
	if c.http == nil {
		c.http = &http.Client{}
	}
	return c
}

func (c *Client) SourceName() string {
	return "Gemini"
}

// Generate sends the prompt, with the image inline when present, and returns
// the text of the first candidate part.
func (c *Client) Generate(ctx context.Context, req llm.Request) (string, error) {
	parts := []part{{Text: req.Prompt}}
	if req.Image != nil && len(req.Image.Data) > 0 {
		parts = append(parts, part{
			InlineData: &inlineData{
				MimeType: req.Image.MIMEType,
				Data:     base64.StdEncoding.EncodeToString(req.Image.Data),
			},
		})
	}

	body := geminiRequest{
		Contents: []content{
			{
				Role:  "user",
				Parts: parts,
			},
		},
		GenerationConfig: c.generation,
	}
	return c.generateContent(ctx, body)
}

func (c *Client) endpoint() string {
	return fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, c.model)
}

func (c *Client) generateContent(ctx context.Context, body geminiRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	data, err := json.Marshal(body)
	if err != nil {
		return "", llm.Unavailable("failed to marshal request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(data))
	if err != nil {
		return "", llm.Unavailable("failed to create request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	// Sent as a header so it never appears in a *url.Error.
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", llm.Unavailable(fmt.Sprintf("request timed out after %v", c.timeout), err)
		}
		return "", llm.Unavailable("failed to send request", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", llm.Unavailable("failed to read response", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		diag := string(bodyBytes)
		if len(diag) > maxErrorBody {
			diag = diag[:maxErrorBody]
		}
		return "", &llm.UnavailableError{StatusCode: resp.StatusCode, Reason: "API error: " + diag}
	}

	var gr geminiResponse
	if err := json.Unmarshal(bodyBytes, &gr); err != nil {
		return "", llm.Unavailable("failed to parse response", err)
	}
	if len(gr.Candidates) == 0 {
		return "", llm.Unavailable("no candidates in response", nil)
	}
	parts := gr.Candidates[0].Content.Parts
	if len(parts) == 0 || parts[0].Text == "" {
		return "", llm.Unavailable("no text part in response", nil)
	}
	return parts[0].Text, nil
}
