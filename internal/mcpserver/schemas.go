package mcpserver

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// searchDocumentTool returns the tool definition for search_document
func searchDocumentTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_document",
		Description: "Search an ingested document with a natural language or keyword query",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"document_id": map[string]interface{}{
					"type":        "string",
					"description": "Identifier of the document to search",
				},
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Search query (1-500 characters)",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results to return (1-100)",
					"default":     10,
					"minimum":     1,
					"maximum":     100,
				},
				"offset": map[string]interface{}{
					"type":        "integer",
					"description": "Number of results to skip for pagination",
					"default":     0,
					"minimum":     0,
				},
				"min_score": map[string]interface{}{
					"type":        "number",
					"description": "Minimum combined relevance score (0.0-1.0)",
					"default":     0.5,
					"minimum":     0.0,
					"maximum":     1.0,
				},
				"rerank": map[string]interface{}{
					"type":        "boolean",
					"description": "Apply the configured reranking strategy to the result window",
					"default":     true,
				},
				"enhance_context": map[string]interface{}{
					"type":        "boolean",
					"description": "Attach neighboring passages to each hit",
					"default":     true,
				},
			},
			Required: []string{"document_id", "query"},
		},
	}
}

// ingestDocumentTool returns the tool definition for ingest_document
func ingestDocumentTool() mcp.Tool {
	return mcp.Tool{
		Name:        "ingest_document",
		Description: "Chunk, embed, and index a document's text so it becomes searchable",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"document_id": map[string]interface{}{
					"type":        "string",
					"description": "Identifier for the document; re-ingesting replaces the previous version",
				},
				"text": map[string]interface{}{
					"type":        "string",
					"description": "Raw document text, chunked server-side",
				},
				"passages": map[string]interface{}{
					"type":        "array",
					"description": "Pre-chunked passages stored as-is (alternative to text)",
					"items": map[string]interface{}{
						"type": "string",
					},
				},
			},
			Required: []string{"document_id"},
		},
	}
}

// deleteDocumentTool returns the tool definition for delete_document
func deleteDocumentTool() mcp.Tool {
	return mcp.Tool{
		Name:        "delete_document",
		Description: "Remove a document's chunks and embeddings from the index",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"document_id": map[string]interface{}{
					"type":        "string",
					"description": "Identifier of the document to delete",
				},
			},
			Required: []string{"document_id"},
		},
	}
}

// getStatusTool returns the tool definition for get_status
func getStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_status",
		Description: "Query index coverage and backend availability for a document",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"document_id": map[string]interface{}{
					"type":        "string",
					"description": "Identifier of the document",
				},
			},
			Required: []string{"document_id"},
		},
	}
}
