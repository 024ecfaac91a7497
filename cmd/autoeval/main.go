package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/autoeval/internal/comparator"
	"github.com/kailas-cloud/autoeval/internal/config"
	dbRedis "github.com/kailas-cloud/autoeval/internal/db/redis"
	"github.com/kailas-cloud/autoeval/internal/domain"
	logpkg "github.com/kailas-cloud/autoeval/internal/logger"
	"github.com/kailas-cloud/autoeval/internal/metrics"
	budgetrepo "github.com/kailas-cloud/autoeval/internal/repository/budget"
	"github.com/kailas-cloud/autoeval/internal/repository/embcache"
	"github.com/kailas-cloud/autoeval/internal/storage/tempfile"
	chiTransport "github.com/kailas-cloud/autoeval/internal/transport/chi"
	"github.com/kailas-cloud/autoeval/internal/transport/document"
	"github.com/kailas-cloud/autoeval/internal/transport/ocrspace"
	openaiTransport "github.com/kailas-cloud/autoeval/internal/transport/openai"
	"github.com/kailas-cloud/autoeval/internal/transport/tesseract"
	embeddinguc "github.com/kailas-cloud/autoeval/internal/usecase/embedding"
	"github.com/kailas-cloud/autoeval/internal/usecase/extraction"
	healthuc "github.com/kailas-cloud/autoeval/internal/usecase/health"
	"github.com/kailas-cloud/autoeval/internal/usecase/scoring"
	usageuc "github.com/kailas-cloud/autoeval/internal/usecase/usage"
	"github.com/kailas-cloud/autoeval/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting autoeval API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("ocr_engine", cfg.OCR.Engine),
		zap.Bool("cache_enabled", cfg.Cache.Enabled),
	)

	// Weights load once, before anything can serve a request.
	cmp, err := comparator.Load(cfg.Comparator.WeightsPath)
	if err != nil {
		logger.Fatal("Failed to load comparator weights", zap.Error(err))
	}
	if cmp.InputDim() != cfg.Embedding.Dimensions {
		logger.Fatal("Comparator input dimension does not match embedding dimensions",
			zap.Int("comparator_input_dim", cmp.InputDim()),
			zap.Int("embedding_dimensions", cfg.Embedding.Dimensions),
		)
	}
	logger.Info("Comparator loaded",
		zap.String("path", cfg.Comparator.WeightsPath),
		zap.Int("input_dim", cmp.InputDim()),
		zap.Int("hidden_dim", cmp.HiddenDim()),
	)

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterScoringMetrics()

	ctx := context.Background()

	// Optional Redis/Valkey store for the embedding cache and budget counters.
	var store *dbRedis.Store
	if cfg.Cache.Enabled {
		store, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Cache.Addrs,
			Username: cfg.Cache.Username,
			Password: cfg.Cache.Password,
			DB:       cfg.Cache.DB,
		})
		if err != nil {
			logger.Fatal("Failed to create cache store", zap.Error(err))
		}
		defer store.Close()

		if err := store.WaitForReady(ctx, time.Duration(cfg.Cache.ReadinessTimeout)*time.Second); err != nil {
			logger.Fatal("Cache not ready", zap.Error(err))
		}
		logger.Info("Connected to cache", zap.Strings("addrs", cfg.Cache.Addrs))
	}

	budget := buildBudget(ctx, cfg.Embedding, store, logger)

	// Pass nil interface (not typed nil pointer!) if budget is not configured.
	// Go gotcha: (*BudgetTracker)(nil) wrapped in BudgetChecker != nil.
	var budgetChecker embeddinguc.BudgetChecker
	var budgetReader usageuc.BudgetReader
	if budget != nil {
		budgetChecker = budget
		budgetReader = budget
	}

	embedder := buildEmbedder(cfg.Embedding, cfg.Cache, store, budgetChecker, logger)
	provider := embeddinguc.NewProvider(embedder, cfg.Embedding.Dimensions, logger)
	logger.Info("Embedder created",
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
	)

	extractor := extraction.New(
		buildOCREngine(cfg.OCR, logger),
		document.PDFReader{MaxPages: cfg.OCR.PDFMaxPages},
		document.DOCXReader{},
		logger,
	)
	logger.Info("Text extraction configured", zap.String("ocr_engine", extractor.EngineName()))

	artifacts, err := tempfile.New(cfg.Storage.TempDir)
	if err != nil {
		logger.Fatal("Failed to prepare temp storage", zap.Error(err))
	}

	scorer := scoring.New(artifacts, extractor, provider, cmp,
		scoring.Config{MaxMarks: cfg.Scoring.MaxMarks}, logger)

	usageSvc := usageuc.New(budgetReader)

	healthSvc := healthuc.New(0).
		Register("comparator", cmp, true).
		Register("embedding", embedder, true).
		Register("ocr", extractor, true)
	if store != nil {
		healthSvc.Register("cache", store, false)
	}

	server := chiTransport.NewServer(scorer, usageSvc, healthSvc,
		chiTransport.Config{MaxUploadBytes: cfg.MaxUploadBytes()}, logger)
	handler := chiTransport.NewRouter(server, chiTransport.RouterConfig{APIKeys: cfg.Auth.APIKeys}, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout:      time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildBudget returns nil when no limit is configured.
func buildBudget(
	ctx context.Context, cfg config.EmbeddingConfig, store *dbRedis.Store, logger *zap.Logger,
) *embeddinguc.BudgetTracker {
	if cfg.Budget.DailyTokenLimit <= 0 && cfg.Budget.MonthlyTokenLimit <= 0 {
		return nil
	}
	action := embeddinguc.BudgetActionWarn
	if cfg.Budget.Action == "reject" {
		action = embeddinguc.BudgetActionReject
	}
	budget := embeddinguc.NewBudgetTracker(
		cfg.Provider, cfg.Budget.DailyTokenLimit, cfg.Budget.MonthlyTokenLimit, action, logger,
	)
	if store != nil {
		// Connect persistence store, loads current counters from DB.
		budget.WithStore(ctx, budgetrepo.New(store, 0, 0))
	}
	return budget
}

// buildEmbedder assembles the decorator chain: OpenAI -> Cached -> Instrumented.
func buildEmbedder(
	embCfg config.EmbeddingConfig,
	cacheCfg config.CacheConfig,
	store *dbRedis.Store,
	budget embeddinguc.BudgetChecker,
	logger *zap.Logger,
) *embeddinguc.InstrumentedEmbedder {
	// Base provider (with transport metrics built-in). Dimensions stay unset: sentence
	// transformers have a fixed width and the provider checks it.
	base := openaiTransport.NewEmbedder(&openaiTransport.Config{
		APIKey:   embCfg.APIKey,
		BaseURL:  embCfg.BaseURL,
		Model:    embCfg.Model,
		Provider: embCfg.Provider,
		Logger:   logger,
	})

	var embedder domain.Embedder = base
	if store != nil {
		embedder = embcache.New(base, store, embcache.Config{
			Model: embCfg.Model,
			TTL:   time.Duration(cacheCfg.TTLSec) * time.Second,
		}, metrics.EmbeddingCacheTotal, logger)
	}

	// Instrumented (budget + metrics)
	return embeddinguc.NewInstrumentedEmbedder(embedder, embCfg.Provider, embCfg.Model, budget, logger)
}

// buildOCREngine returns the configured image OCR engine.
func buildOCREngine(cfg config.OCRConfig, logger *zap.Logger) extraction.OCREngine {
	switch cfg.Engine {
	case config.OCREngineOCRSpace:
		return ocrspace.New(ocrspace.Config{
			APIKey:   cfg.OCRSpace.APIKey,
			BaseURL:  cfg.OCRSpace.BaseURL,
			Engine:   cfg.OCRSpace.Engine,
			Language: cfg.OCRSpace.Language,
			Timeout:  time.Duration(cfg.OCRSpace.TimeoutSec) * time.Second,
			Logger:   logger,
		})
	case config.OCREngineVision:
		return openaiTransport.NewVisionOCR(&openaiTransport.VisionConfig{
			APIKey:    cfg.Vision.APIKey,
			BaseURL:   cfg.Vision.BaseURL,
			Model:     cfg.Vision.Model,
			Prompt:    cfg.Vision.Prompt,
			MaxTokens: cfg.Vision.MaxTokens,
			Logger:    logger,
		})
	default:
		return tesseract.New(tesseract.Config{Languages: cfg.Tesseract.Languages})
	}
}
