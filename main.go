package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"vehicle-service/analyzer"
	"vehicle-service/assistant"
	"vehicle-service/config"
	"vehicle-service/database"
	"vehicle-service/gemini"
	"vehicle-service/handlers"
	"vehicle-service/llm"
	"vehicle-service/metrics"
	"vehicle-service/middleware"
	"vehicle-service/rabbitmq"
	"vehicle-service/stubllm"

	"github.com/apex/log"
	"github.com/apex/log/handlers/json"
	"github.com/apex/log/handlers/text"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Info(".env file not found, using system environment variables")
	}

	cfg := config.Load()
	setupLogging(cfg)

	client, err := newLLMClient(cfg)
	if err != nil {
		log.WithError(err).Fatal("failed to configure AI provider")
	}
	log.Infof("Using AI provider %s", client.SourceName())

	db, err := database.NewDatabase(cfg)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize database")
	}
	defer db.Close()

	if err := db.CreateIssuesTable(); err != nil {
		log.WithError(err).Fatal("Failed to create issues table")
	}

	// Events are optional; the API keeps working without a broker.
	var events handlers.EventPublisher
	publisher, err := rabbitmq.NewPublisher(cfg.RabbitMQ.GetAMQPURL(), cfg.RabbitMQ.Exchange, cfg.RabbitMQ.RoutingKey)
	if err != nil {
		log.WithError(err).Warn("RabbitMQ unavailable, issue events disabled")
	} else {
		defer publisher.Close()
		events = publisher
	}

	metrics.Register()

	a := analyzer.New(client, analyzer.Options{MaxImageBytes: cfg.MaxImageBytes})
	h := handlers.NewHandlers(db, a, assistant.New(client), events, cfg.MaxUploadBytes)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: setupRouter(cfg, h),
	}

	go func() {
		log.Infof("Starting HTTP server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
	}

	log.Info("Server exited")
}

func setupLogging(cfg *config.Config) {
	if cfg.LogFormat == "json" {
		log.SetHandler(json.New(os.Stderr))
	} else {
		log.SetHandler(text.New(os.Stderr))
	}
	if level, err := log.ParseLevel(cfg.LogLevel); err != nil {
		log.SetLevel(log.InfoLevel)
		log.Warnf("unknown LOG_LEVEL %q, using info", cfg.LogLevel)
	} else {
		log.SetLevel(level)
	}
}

func newLLMClient(cfg *config.Config) (llm.Client, error) {
	switch strings.ToLower(cfg.LLMProvider) {
	case "stub":
		return stubllm.NewClient(), nil
	case "gemini", "":
		if cfg.GeminiAPIKey == "" {
			return nil, errors.New("GEMINI_API_KEY environment variable is required")
		}
		return gemini.NewClient(gemini.Options{
			APIKey:  cfg.GeminiAPIKey,
			Model:   cfg.GeminiModel,
			BaseURL: cfg.GeminiBaseURL,
			Timeout: cfg.AITimeout,
			Generation: gemini.GenerationConfig{
				Temperature:     cfg.AITemperature,
				TopK:            cfg.AITopK,
				TopP:            cfg.AITopP,
				MaxOutputTokens: cfg.AIMaxOutputTokens,
			},
		}), nil
	default:
		return nil, fmt.Errorf("unknown LLM_PROVIDER %q, expected gemini or stub", cfg.LLMProvider)
	}
}

func setupRouter(cfg *config.Config, h *handlers.Handlers) *gin.Engine {
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowMethods:     []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		AllowOrigins:     allowedOrigins(cfg.AllowedOrigins),
		AllowCredentials: cfg.AllowedOrigins != "*",
		MaxAge:           12 * time.Hour,
	}))
	router.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	h.RegisterRoutes(router.Group("/api/v1"), middleware.RateLimitMiddleware(cfg.RateLimitPerMinute))

	return router
}

func allowedOrigins(s string) []string {
	var origins []string
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}
