package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/studykit/docsearch/internal/ingest"
	"github.com/studykit/docsearch/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams = -32602 // Invalid method parameters
	ErrorCodeInternalError = -32603 // Internal JSON-RPC error
	ErrorCodeEmptyQuery    = -32004 // Query parameter is empty
)

// handleSearchDocument handles the search_document tool invocation
func (s *Server) handleSearchDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	documentID, ok := args["document_id"].(string)
	if !ok || documentID == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "document_id parameter is required", map[string]interface{}{
			"param":  "document_id",
			"reason": "missing or empty",
		})
	}

	query, ok := args["query"].(string)
	if !ok || query == "" {
		return nil, newMCPError(ErrorCodeEmptyQuery, "query parameter is required and cannot be empty", map[string]interface{}{
			"param":  "query",
			"reason": "missing or empty",
		})
	}

	opts := s.defaults
	opts.Filter.DocumentID = documentID
	opts.Limit = getIntDefault(args, "limit", opts.Limit)
	opts.Offset = getIntDefault(args, "offset", opts.Offset)
	opts.MinScore = getFloatDefault(args, "min_score", opts.MinScore)
	opts.Rerank = getBoolDefault(args, "rerank", opts.Rerank)
	opts.EnhanceContext = getBoolDefault(args, "enhance_context", opts.EnhanceContext)

	result, err := s.searcher.Search(ctx, query, opts)
	if err != nil {
		if errors.Is(err, types.ErrInvalidQuery) || errors.Is(err, types.ErrInvalidOption) {
			return nil, newMCPError(ErrorCodeInvalidParams, err.Error(), nil)
		}
		return nil, newMCPError(ErrorCodeInternalError, "search failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	hits := make([]map[string]interface{}, 0, len(result.Results))
	for _, hit := range result.Results {
		entry := map[string]interface{}{
			"chunk_id":       hit.ChunkID,
			"text":           hit.Text,
			"ordinal":        hit.Ordinal,
			"score":          hit.Score,
			"semantic_score": hit.SemanticScore,
			"lexical_score":  hit.LexicalScore,
		}
		if hit.PrecedingContext != "" {
			entry["preceding_context"] = hit.PrecedingContext
		}
		if hit.FollowingContext != "" {
			entry["following_context"] = hit.FollowingContext
		}
		hits = append(hits, entry)
	}

	response := map[string]interface{}{
		"query":         result.Query,
		"document_id":   documentID,
		"mode":          result.Mode,
		"total_results": result.TotalResults,
		"results":       hits,
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleIngestDocument handles the ingest_document tool invocation
func (s *Server) handleIngestDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	documentID, ok := args["document_id"].(string)
	if !ok || documentID == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "document_id parameter is required", map[string]interface{}{
			"param":  "document_id",
			"reason": "missing or empty",
		})
	}

	text, _ := args["text"].(string)
	passages := getStringSlice(args, "passages")
	if text == "" && len(passages) == 0 {
		return nil, newMCPError(ErrorCodeInvalidParams, "either text or passages is required", nil)
	}
	if text != "" && len(passages) > 0 {
		return nil, newMCPError(ErrorCodeInvalidParams, "give either text or passages, not both", nil)
	}

	var (
		stats *ingest.Stats
		err   error
	)
	if len(passages) > 0 {
		stats, err = s.ingestor.IngestPassages(ctx, documentID, passages, nil)
	} else {
		stats, err = s.ingestor.IngestDocument(ctx, documentID, text, nil)
	}
	if err != nil {
		if errors.Is(err, types.ErrInvalidOption) || errors.Is(err, types.ErrEmptyContent) {
			return nil, newMCPError(ErrorCodeInvalidParams, err.Error(), nil)
		}
		return nil, newMCPError(ErrorCodeInternalError, "ingest failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"ingested":        true,
		"document_id":     stats.DocumentID,
		"chunks_created":  stats.ChunksCreated,
		"chunks_embedded": stats.ChunksEmbedded,
		"replaced":        stats.Replaced,
		"duration_ms":     stats.Duration.Milliseconds(),
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleDeleteDocument handles the delete_document tool invocation
func (s *Server) handleDeleteDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	documentID, ok := args["document_id"].(string)
	if !ok || documentID == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "document_id parameter is required", nil)
	}

	if err := s.ingestor.DeleteDocument(ctx, documentID); err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "delete failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"deleted":     true,
		"document_id": documentID,
	})), nil
}

// handleGetStatus handles the get_status tool invocation
func (s *Server) handleGetStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	documentID, ok := args["document_id"].(string)
	if !ok || documentID == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "document_id parameter is required", nil)
	}

	stats, err := s.store.DocumentStats(ctx, documentID)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to get document status", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"document_id":     documentID,
		"indexed":         stats.ChunkCount > 0,
		"chunk_count":     stats.ChunkCount,
		"embedded_count":  stats.EmbeddedCount,
		"store_available": s.store.Available(ctx),
	}
	if !stats.LastIndexedAt.IsZero() {
		response["last_indexed_at"] = stats.LastIndexedAt.Format("2006-01-02T15:04:05Z07:00")
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// Helper functions

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getBoolDefault extracts a boolean parameter with a default value
func getBoolDefault(args map[string]interface{}, key string, defaultValue bool) bool {
	if val, ok := args[key].(bool); ok {
		return val
	}
	return defaultValue
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getFloatDefault extracts a number parameter with a default value
func getFloatDefault(args map[string]interface{}, key string, defaultValue float64) float64 {
	if val, ok := args[key].(float64); ok {
		return val
	}
	return defaultValue
}

// getStringSlice extracts a []string parameter; non-string elements are
// dropped.
func getStringSlice(args map[string]interface{}, key string) []string {
	raw, ok := args[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
