// Package api exposes the search core over HTTP with go-restful.
package api

import (
	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	restful "github.com/emicklei/go-restful/v3"
)

// RegisterRoutes mounts the API under /api/v1.
func RegisterRoutes(container *restful.Container, handler *Handler) {
	ws := new(restful.WebService)

	ws.
		Path("/api/v1").
		Consumes(restful.MIME_JSON).
		Produces(restful.MIME_JSON)

	ws.
		Route(ws.GET("/health").
			To(handler.Health).
			Doc("Health check").
			Metadata(restfulspec.KeyOpenAPITags, []string{"health"}).
			Writes(HealthResponse{}).
			Returns(200, "OK", HealthResponse{}))

	ws.
		Route(ws.GET("/files/{documentId}/search").
			To(handler.SearchGet).
			Doc("Search a document (lenient query-string options)").
			Metadata(restfulspec.KeyOpenAPITags, []string{"search"}).
			Param(ws.PathParameter("documentId", "Document identifier").DataType("string")).
			Param(ws.QueryParameter("query", "Search query (1-500 chars)").DataType("string").Required(true)).
			Param(ws.QueryParameter("limit", "Max results (1-100, default 10)").DataType("integer")).
			Param(ws.QueryParameter("offset", "Pagination offset (default 0)").DataType("integer")).
			Param(ws.QueryParameter("minScore", "Score threshold (0-1, default 0.5)").DataType("number")).
			Param(ws.QueryParameter("enhanceContext", "Attach neighboring passages (default true)").DataType("boolean")).
			Param(ws.QueryParameter("rerank", "Apply reranking to the result window (default true)").DataType("boolean")).
			Param(ws.QueryParameter("keywordWeight", "Lexical score weight (default 0.3)").DataType("number")).
			Param(ws.QueryParameter("semanticWeight", "Semantic score weight (default 0.7)").DataType("number")).
			Writes(SearchResponse{}).
			Returns(200, "OK", SearchResponse{}).
			Returns(400, "Bad Request", ErrorResponse{}))

	ws.
		Route(ws.POST("/files/{documentId}/search").
			To(handler.SearchPost).
			Doc("Search a document (strict JSON body)").
			Metadata(restfulspec.KeyOpenAPITags, []string{"search"}).
			Param(ws.PathParameter("documentId", "Document identifier").DataType("string")).
			Reads(SearchRequest{}).
			Writes(SearchResponse{}).
			Returns(200, "OK", SearchResponse{}).
			Returns(400, "Bad Request", ErrorResponse{}))

	ws.
		Route(ws.POST("/files/{documentId}/ingest").
			To(handler.Ingest).
			Doc("Ingest document text or pre-chunked passages").
			Metadata(restfulspec.KeyOpenAPITags, []string{"ingest"}).
			Param(ws.PathParameter("documentId", "Document identifier").DataType("string")).
			Reads(IngestRequest{}).
			Writes(IngestResponse{}).
			Returns(200, "OK", IngestResponse{}).
			Returns(400, "Bad Request", ErrorResponse{}))

	ws.
		Route(ws.DELETE("/files/{documentId}").
			To(handler.DeleteDocument).
			Doc("Delete a document's chunks and embeddings").
			Metadata(restfulspec.KeyOpenAPITags, []string{"ingest"}).
			Param(ws.PathParameter("documentId", "Document identifier").DataType("string")).
			Returns(204, "No Content", nil).
			Returns(400, "Bad Request", ErrorResponse{}))

	container.Add(ws)
}
