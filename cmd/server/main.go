package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/edumint/edumint/internal/ai"
	"github.com/edumint/edumint/internal/content"
	"github.com/edumint/edumint/internal/extract"
	"github.com/edumint/edumint/internal/learner"
	"github.com/edumint/edumint/internal/moderation"
	"github.com/edumint/edumint/internal/platform/cache"
	"github.com/edumint/edumint/internal/platform/config"
	"github.com/edumint/edumint/internal/platform/database"
	"github.com/edumint/edumint/internal/quiz"
	"github.com/edumint/edumint/internal/server"
	"github.com/edumint/edumint/internal/taxonomy"
)

func main() {
	if err := run(); err != nil {
		slog.Error("startup failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	setupLogger(cfg.Log)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	// Completion providers, in fallback order.
	router := ai.NewRouter()
	if cfg.AI.ChatGatewayURL != "" {
		router.Register("chat-gateway", ai.NewChatGatewayProvider(cfg.AI.ChatGatewayURL))
	}
	if cfg.AI.OpenAIAPIKey != "" {
		router.Register("openai", ai.NewOpenAIProvider(cfg.AI.OpenAIAPIKey))
	}

	// Stores: Postgres when a database URL is configured, in-memory otherwise.
	var (
		contents content.Store
		quizzes  quiz.Store
		learners learner.Store
		ready    func(ctx context.Context) error
	)
	if cfg.Database.URL != "" {
		db, err := database.Connect(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer db.Close()

		if contents, err = content.NewPostgresStore(db.Pool); err != nil {
			return fmt.Errorf("content store: %w", err)
		}
		if quizzes, err = quiz.NewPostgresStore(db.Pool); err != nil {
			return fmt.Errorf("quiz store: %w", err)
		}
		if learners, err = learner.NewPostgresStore(db.Pool); err != nil {
			return fmt.Errorf("learner store: %w", err)
		}
		ready = db.HealthCheck
		slog.Info("using postgres stores")
	} else {
		contents = content.NewMemoryStore()
		quizzes = quiz.NewMemoryStore()
		learners = learner.NewMemoryStore()
		slog.Warn("no database configured, using in-memory stores")
	}

	// Quiz cache is optional.
	var quizCache *quiz.Cache
	if cfg.Cache.URL != "" {
		c, err := cache.Connect(ctx, cfg.Cache.URL)
		if err != nil {
			return fmt.Errorf("connecting to cache: %w", err)
		}
		defer c.Close()
		quizCache = quiz.NewCache(c.Client, time.Duration(cfg.Quiz.CacheTTLMinutes)*time.Minute)
		slog.Info("quiz cache enabled", "ttl_minutes", cfg.Quiz.CacheTTLMinutes)
	}

	// Taxonomy catalogue is optional.
	var tax content.Taxonomy
	if cfg.Content.TaxonomyPath != "" {
		catalogue, err := taxonomy.Load(cfg.Content.TaxonomyPath)
		if err != nil {
			return fmt.Errorf("loading taxonomy: %w", err)
		}
		tax = catalogue
		slog.Info("taxonomy loaded", "path", cfg.Content.TaxonomyPath)
	}

	aiTimeout := time.Duration(cfg.AI.TimeoutSeconds) * time.Second
	hub := server.NewHub()

	pipeline := content.NewPipeline(content.PipelineConfig{
		Extractor: extract.New(extract.WithMaxRunes(cfg.Content.MaxTextRunes)),
		Gate:      moderation.NewGate(router, moderation.WithTimeout(aiTimeout)),
		Store:     contents,
		Notifier:  hub,
	})

	srv := server.New(server.Config{
		Contents: content.NewService(contents, tax),
		Pipeline: pipeline,
		Generator: quiz.NewGenerator(quiz.GeneratorConfig{
			Completer:       router,
			Contents:        contents,
			Quizzes:         quizzes,
			Cache:           quizCache,
			Timeout:         aiTimeout,
			AllowRegenerate: cfg.Quiz.AllowRegenerate,
		}),
		Evaluator: quiz.NewEvaluator(quizzes, learners),
		Quizzes:   quiz.NewReader(quizzes, quizCache),
		Learners:  learners,
		Events:    hub,
		UploadDir: cfg.Content.UploadDir,
		Ready:     ready,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      srv.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func setupLogger(cfg config.LogConfig) {
	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}
	slog.SetDefault(slog.New(handler))
}
