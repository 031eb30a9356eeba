package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"vehicle-service/analyzer"
	"vehicle-service/assistant"
	"vehicle-service/config"
	"vehicle-service/handlers"
	"vehicle-service/stubllm"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLLMClient(t *testing.T) {
	client, err := newLLMClient(&config.Config{LLMProvider: "stub"})
	require.NoError(t, err)
	assert.Equal(t, stubllm.NewClient().SourceName(), client.SourceName())

	_, err = newLLMClient(&config.Config{LLMProvider: "gemini"})
	assert.Error(t, err)

	client, err = newLLMClient(&config.Config{LLMProvider: "Gemini", GeminiAPIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, "Gemini", client.SourceName())

	_, err = newLLMClient(&config.Config{LLMProvider: "openai"})
	assert.Error(t, err)
}

func TestAllowedOrigins(t *testing.T) {
	assert.Equal(t, []string{"*"}, allowedOrigins(""))
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, allowedOrigins(" https://a.example, https://b.example ,"))
}

func TestSetupRouter_Metrics(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{AllowedOrigins: "*", RateLimitPerMinute: 10}
	client := stubllm.NewClient()
	h := handlers.NewHandlers(nil, analyzer.New(client, analyzer.Options{}), assistant.New(client), nil, 0)

	w := httptest.NewRecorder()
	setupRouter(cfg, h).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
