package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/feedscribe/feedscribe/app/api"
	"github.com/feedscribe/feedscribe/app/cfg"
	"github.com/feedscribe/feedscribe/app/config"
	"github.com/feedscribe/feedscribe/app/database"
	"github.com/feedscribe/feedscribe/app/dispatch"
	"github.com/feedscribe/feedscribe/app/feed"
	"github.com/feedscribe/feedscribe/app/summarize"
	"github.com/feedscribe/feedscribe/app/tasks"
)

func main() {
	// A missing .env is fine; environment variables still apply.
	_ = godotenv.Load()

	appCfg, err := cfg.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting Feedscribe", "version", appCfg.Version)

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	slog.Info("Database ready", "path", appCfg.DBPath, "migration_version", version, "dirty", dirty)

	llmParams, err := config.LoadLLM(appCfg.LLMFile)
	if err != nil {
		log.Fatalf("Failed to load LLM parameters: %v", err)
	}
	if appCfg.OpenAIAPIKey == "" && llmParams.BaseURL == "" {
		log.Fatal("OPENAI_API_KEY is required unless llm.yml sets base_url for a local endpoint")
	}

	articleRepo := database.NewArticleRepository(db)
	feedRepo := database.NewFeedRepository(db)
	userRepo := database.NewUserRepository(db)

	seedRosters(appCfg, feedRepo, userRepo)

	httpClient := &http.Client{
		Timeout: time.Duration(appCfg.HTTPTimeout) * time.Second,
	}
	webhookClient := &http.Client{
		Timeout: time.Duration(appCfg.WebhookTimeout) * time.Second,
	}

	gateway := summarize.NewGateway(
		appCfg.OpenAIAPIKey,
		llmParams.BaseURL,
		llmParams.Model,
		llmParams.Temperature,
		llmParams.MaxTokens,
		time.Duration(appCfg.HTTPTimeout)*time.Second,
	)
	slog.Info("Summarization gateway configured", "model", llmParams.Model, "base_url", llmParams.BaseURL)

	engine := dispatch.NewEngine(
		userRepo,
		webhookClient,
		appCfg.ChunkWordLimit,
		time.Duration(appCfg.ChunkDelayMs)*time.Millisecond,
		appCfg.UserAgent,
	)

	ingestJob := tasks.NewIngestJob(feedRepo, articleRepo, feed.NewParser(), httpClient,
		appCfg.UserAgent, time.Duration(appCfg.HTTPTimeout)*time.Second)
	summarizeJob := tasks.NewSummarizeJob(articleRepo, userRepo, feedRepo, gateway,
		feed.NewContentExtractor(), httpClient, appCfg.UserAgent,
		time.Duration(appCfg.HTTPTimeout)*time.Second)
	dispatchJob := tasks.NewDispatchJob(articleRepo, engine)

	scheduler := tasks.NewScheduler()
	scheduler.AddIntervalJob(ingestJob, time.Duration(appCfg.PollInterval)*time.Second)
	scheduler.AddIntervalJob(summarizeJob, time.Duration(appCfg.SummarizeInterval)*time.Second)
	scheduler.AddIntervalJob(dispatchJob, time.Duration(appCfg.DispatchInterval)*time.Second)

	if appCfg.DigestEnabled {
		digestJob := tasks.NewDigestJob(articleRepo, userRepo, gateway, engine, 24*time.Hour)
		if err := scheduler.AddDailyJob(digestJob, appCfg.DigestTime); err != nil {
			log.Fatalf("Failed to schedule daily digest: %v", err)
		}
		slog.Info("Daily digest scheduled", "at", appCfg.DigestTime)
	}

	scheduler.Start()
	defer scheduler.Stop()

	handler := api.NewHandler(articleRepo, feedRepo, userRepo, scheduler)
	server := api.NewServer(handler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("HTTP server error", "error", err)
	}

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	// Scheduler is stopped via defer; in-flight job runs finish first.
	slog.Info("Shutdown complete")
}

// seedRosters registers the YAML-configured feeds and users in the
// database. Roster problems at startup are warnings, not fatal: the
// pipeline keeps serving whatever is already registered.
func seedRosters(appCfg *cfg.Cfg, feedRepo database.FeedRepository, userRepo database.UserRepository) {
	feeds, err := config.LoadFeeds(appCfg.FeedsFile)
	if err != nil {
		slog.Warn("Failed to load feeds file", "path", appCfg.FeedsFile, "error", err)
	}
	for _, f := range feeds {
		if err := feedRepo.UpsertFeed(f.Name, f.URL, f.ExtractContent); err != nil {
			slog.Warn("Failed to register feed", "feed", f.Name, "error", err)
			continue
		}
		slog.Info("Registered feed", "feed", f.Name, "url", f.URL)
	}

	users, err := config.LoadUsers(appCfg.UsersFile)
	if err != nil {
		slog.Warn("Failed to load users file", "path", appCfg.UsersFile, "error", err)
	}
	for _, u := range users {
		if err := userRepo.UpsertUser(u.Username, u.Webhook, u.Interests); err != nil {
			slog.Warn("Failed to register user", "username", u.Username, "error", err)
			continue
		}
		slog.Info("Registered user", "username", u.Username, "interests", len(u.Interests))
	}
}
