// Command docsearch runs the document search HTTP API.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	restful "github.com/emicklei/go-restful/v3"
	"github.com/joho/godotenv"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/studykit/docsearch/internal/api"
	"github.com/studykit/docsearch/internal/config"
	"github.com/studykit/docsearch/internal/embedder"
	"github.com/studykit/docsearch/internal/ingest"
	"github.com/studykit/docsearch/internal/ranker"
	"github.com/studykit/docsearch/internal/reranker"
	"github.com/studykit/docsearch/internal/search"
	"github.com/studykit/docsearch/internal/vectorstore"
)

const shutdownTimeout = 10 * time.Second

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	logger := log.Logger

	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg("no .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	ctx := context.Background()

	store, err := vectorstore.NewSQLiteStore(cfg.Store.Path)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.Store.Path).Msg("failed to open vector store")
	}
	defer func() { _ = store.Close() }()

	var emb embedder.Embedder
	if cfg.Embedding.Provider != "" {
		emb, err = embedder.New(ctx, embedder.Config{
			Provider:  cfg.Embedding.Provider,
			APIKey:    cfg.Embedding.APIKey,
			Model:     cfg.Embedding.Model,
			AWSRegion: cfg.Embedding.AWSRegion,
			CacheSize: cfg.Embedding.CacheSize,
		})
	} else {
		emb, err = embedder.NewFromEnv(ctx)
	}
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize embedder")
	}
	defer func() { _ = emb.Close() }()

	var rr reranker.Reranker
	if cfg.Reranker.Enabled {
		llm, err := reranker.NewLLMReranker(ctx, cfg.Reranker.AWSRegion, cfg.Reranker.Model, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("LLM reranker unavailable, using identity")
		} else {
			rr = llm
		}
	}

	rnk := ranker.New(store, emb, logger)
	svc := search.New(store, rnk, rr, logger)
	ing := ingest.NewWithConfig(emb, store, logger, ingest.Config{
		MaxChunkChars:    cfg.Ingest.MaxChunkChars,
		OverlapChars:     cfg.Ingest.OverlapChars,
		EmbedConcurrency: cfg.Ingest.EmbedConcurrency,
	})

	handler := api.NewHandler(svc, ing, store, cfg.SearchDefaults(), logger)
	container := restful.NewContainer()
	container.Filter(api.RequestLogger(logger))
	container.Filter(api.RecoverPanic(logger))
	api.RegisterRoutes(container, handler)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	})

	server := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: corsHandler.Handler(container),
	}

	logger.Info().
		Str("address", cfg.Server.Addr).
		Str("db_path", cfg.Store.Path).
		Str("embedder", emb.Provider()).
		Str("sqlite_driver", vectorstore.DriverName).
		Bool("rerank_llm", rr != nil).
		Msg("starting docsearch API")

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.ListenAndServe()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("shutdown failed")
		}
	case err := <-errChan:
		if err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}

	logger.Info().Msg("server stopped")
}
