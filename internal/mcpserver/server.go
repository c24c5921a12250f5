package mcpserver

import (
	"context"

	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/studykit/docsearch/internal/ingest"
	"github.com/studykit/docsearch/internal/search"
	"github.com/studykit/docsearch/internal/vectorstore"
	"github.com/studykit/docsearch/pkg/types"
)

const (
	// ServerName is the MCP server name
	ServerName = "docsearch-mcp"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

// Server wraps the MCP server with application dependencies.
type Server struct {
	mcp      *server.MCPServer
	store    vectorstore.Store
	searcher *search.Service
	ingestor *ingest.Ingestor
	defaults types.SearchOptions
	logger   zerolog.Logger
}

// NewServer creates an MCP server over an already-wired search stack.
func NewServer(store vectorstore.Store, searcher *search.Service, ingestor *ingest.Ingestor, defaults types.SearchOptions, logger zerolog.Logger) *Server {
	if defaults.Limit == 0 {
		defaults = types.DefaultSearchOptions()
	}

	s := &Server{
		mcp:      server.NewMCPServer(ServerName, ServerVersion),
		store:    store,
		searcher: searcher,
		ingestor: ingestor,
		defaults: defaults,
		logger:   logger,
	}
	s.registerTools()
	return s
}

// Serve starts the MCP server on stdio and blocks until shutdown.
func (s *Server) Serve(ctx context.Context) error {
	defer func() { _ = s.store.Close() }()
	return server.ServeStdio(s.mcp)
}

func (s *Server) registerTools() {
	s.mcp.AddTool(searchDocumentTool(), s.handleSearchDocument)
	s.mcp.AddTool(ingestDocumentTool(), s.handleIngestDocument)
	s.mcp.AddTool(deleteDocumentTool(), s.handleDeleteDocument)
	s.mcp.AddTool(getStatusTool(), s.handleGetStatus)
}
