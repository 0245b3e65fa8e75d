// Package main is the entry point for the intake API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/symedon/voice-intake-platform/internal/config"
	"github.com/symedon/voice-intake-platform/internal/handler"
	"github.com/symedon/voice-intake-platform/internal/llm"
	"github.com/symedon/voice-intake-platform/internal/middleware"
	natsclient "github.com/symedon/voice-intake-platform/internal/nats"
	"github.com/symedon/voice-intake-platform/internal/pipeline"
	"github.com/symedon/voice-intake-platform/internal/speech"
	"github.com/symedon/voice-intake-platform/internal/store"
	"github.com/symedon/voice-intake-platform/pkg/logger"
	"github.com/symedon/voice-intake-platform/pkg/tracing"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	log.Info("starting intake API server")

	// Initialize tracing if enabled
	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "voice-intake-platform", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	// Transcript persistence: NATS JetStream KV when configured, otherwise
	// process memory.
	var transcripts store.TranscriptStore
	var natsConn *natsclient.Client
	if cfg.NATSURL != "" {
		natsConn, err = natsclient.Connect(ctx, natsclient.Config{
			URL:      cfg.NATSURL,
			CAFile:   cfg.NATSCAFile,
			CertFile: cfg.NATSCertFile,
			KeyFile:  cfg.NATSKeyFile,
			Token:    cfg.NATSToken,
		}, log)
		if err != nil {
			log.Error("failed to connect to NATS", zap.Error(err))
			os.Exit(1)
		}
		defer natsConn.Close()

		transcripts, err = store.NewKVStore(ctx, natsConn.JetStream())
		if err != nil {
			log.Error("failed to open transcript bucket", zap.Error(err))
			os.Exit(1)
		}
		log.Info("transcript persistence enabled", zap.String("bucket", store.BucketName))
	} else {
		transcripts = store.NewMemoryStore()
		log.Warn("NATS_URL not set, transcripts are held in memory only")
	}

	// Initialize LLM client
	var llmClient llm.Client
	switch {
	case cfg.DefaultLLM == string(llm.ProviderAnthropic) && cfg.AnthropicAPIKey != "":
		llmClient, err = llm.NewAnthropicClient(cfg.AnthropicAPIKey)
	case cfg.OpenAIAPIKey != "":
		llmClient, err = llm.NewOpenAIClient(cfg.OpenAIAPIKey)
	case cfg.AnthropicAPIKey != "":
		llmClient, err = llm.NewAnthropicClient(cfg.AnthropicAPIKey)
	default:
		log.Error("no LLM API key configured")
		os.Exit(1)
	}
	if err != nil {
		log.Error("failed to create LLM client", zap.Error(err))
		os.Exit(1)
	}
	log.Info("LLM provider ready", zap.String("provider", llmClient.Name()))

	// Speech providers. Without an OpenAI key the server still serves text
	// turns; audio turns are rejected at the pipeline.
	var transcriber speech.Transcriber
	var synthesizer speech.Synthesizer
	if cfg.OpenAIAPIKey != "" {
		transcriber, err = speech.NewOpenAITranscriber(cfg.OpenAIAPIKey)
		if err != nil {
			log.Error("failed to create transcriber", zap.Error(err))
			os.Exit(1)
		}
		if cfg.SynthesisEnabled {
			synthesizer, err = speech.NewOpenAISynthesizer(cfg.OpenAIAPIKey)
			if err != nil {
				log.Error("failed to create synthesizer", zap.Error(err))
				os.Exit(1)
			}
		}
	} else {
		log.Warn("OPENAI_API_KEY not set, audio turns disabled")
	}

	// Initialize the turn pipeline
	intakePipeline := pipeline.New(pipeline.Config{
		Transcriber: transcriber,
		LLM:         llmClient,
		Synthesizer: synthesizer,
		Transcripts: transcripts,
		Model:       cfg.LLMModel,
	}, log)

	// Initialize handlers
	healthHandler := handler.NewHealthHandler(natsConn)
	intakeHandler := handler.NewIntakeHandler(intakePipeline, log)
	conversationHandler := handler.NewConversationHandler(transcripts, log)

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"X-Correlation-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health endpoints (no auth required)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	// Metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret))
		r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

		// The turn endpoint owns its method check so non-POST requests get a
		// structured 405.
		r.HandleFunc("/intake/turns", intakeHandler.ProcessTurn)

		r.Route("/conversations/{id}", func(r chi.Router) {
			r.Get("/turns", conversationHandler.GetTurns)
			r.Delete("/", conversationHandler.Delete)
		})
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      r,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}
