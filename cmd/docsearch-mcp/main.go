// Command docsearch-mcp runs the document search MCP server on stdio.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/studykit/docsearch/internal/config"
	"github.com/studykit/docsearch/internal/embedder"
	"github.com/studykit/docsearch/internal/ingest"
	"github.com/studykit/docsearch/internal/mcpserver"
	"github.com/studykit/docsearch/internal/ranker"
	"github.com/studykit/docsearch/internal/reranker"
	"github.com/studykit/docsearch/internal/search"
	"github.com/studykit/docsearch/internal/vectorstore"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		fmt.Printf("DocSearch MCP Server\n")
		fmt.Printf("Version: %s\n", version)
		fmt.Printf("Build Time: %s\n", buildTime)
		fmt.Printf("Build Mode: %s\n", vectorstore.BuildMode)
		fmt.Printf("SQLite Driver: %s\n", vectorstore.DriverName)
		os.Exit(0)
	}

	// stdout is reserved for the MCP protocol; all logging goes to stderr
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := vectorstore.NewSQLiteStore(cfg.Store.Path)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.Store.Path).Msg("failed to open vector store")
	}

	emb, err := embedder.NewFromEnv(ctx)
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

	server := mcpserver.NewServer(store, svc, ing, cfg.SearchDefaults(), logger)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		logger.Info().
			Str("version", version).
			Str("embedder", emb.Provider()).
			Str("db_path", cfg.Store.Path).
			Msg("MCP server ready, listening on stdio")
		errChan <- server.Serve(ctx)
	}()

	select {
	case sig := <-sigChan:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
		cancel()
	case err := <-errChan:
		if err != nil {
			logger.Fatal().Err(err).Msg("server error")
		}
	}

	logger.Info().Msg("server stopped")
}
