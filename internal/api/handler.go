package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/cockroachdb/errors"
	restful "github.com/emicklei/go-restful/v3"
	"github.com/rs/zerolog"

	"github.com/studykit/docsearch/internal/ingest"
	"github.com/studykit/docsearch/internal/search"
	"github.com/studykit/docsearch/internal/vectorstore"
	"github.com/studykit/docsearch/pkg/types"
)

// Version reported by the health endpoint; overridable at build time with
// -ldflags "-X github.com/studykit/docsearch/internal/api.Version=...".
var Version = "dev"

// Handler serves the HTTP API.
type Handler struct {
	searcher *search.Service
	ingestor *ingest.Ingestor
	store    vectorstore.Store
	defaults types.SearchOptions
	logger   zerolog.Logger
}

// NewHandler creates a Handler. defaults seeds per-request search options;
// zero values fall back to the package defaults.
func NewHandler(searcher *search.Service, ingestor *ingest.Ingestor, store vectorstore.Store, defaults types.SearchOptions, logger zerolog.Logger) *Handler {
	if defaults.Limit == 0 {
		defaults = types.DefaultSearchOptions()
	}
	return &Handler{
		searcher: searcher,
		ingestor: ingestor,
		store:    store,
		defaults: defaults,
		logger:   logger,
	}
}

// SearchRequest is the POST search body. All option fields are optional;
// absent ones take the configured defaults.
type SearchRequest struct {
	Query          string            `json:"query"`
	Limit          *int              `json:"limit,omitempty"`
	Offset         *int              `json:"offset,omitempty"`
	MinScore       *float64          `json:"minScore,omitempty"`
	EnhanceContext *bool             `json:"enhanceContext,omitempty"`
	Rerank         *bool             `json:"rerank,omitempty"`
	KeywordWeight  *float64          `json:"keywordWeight,omitempty"`
	SemanticWeight *float64          `json:"semanticWeight,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// DocumentRef identifies the document a search ran against.
type DocumentRef struct {
	ID string `json:"id"`
}

// SearchResponse wraps a search result with the document reference and the
// effective parameters, so clients can see what defaults were applied.
type SearchResponse struct {
	Document     DocumentRef         `json:"document"`
	SearchParams types.SearchOptions `json:"searchParams"`
	Result       *types.SearchResult `json:"result"`
}

// IngestRequest carries document content: either raw text to be chunked
// server-side, or pre-chunked passages stored as-is.
type IngestRequest struct {
	Text     string            `json:"text,omitempty"`
	Passages []string          `json:"passages,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// IngestResponse reports what an ingest call did.
type IngestResponse struct {
	DocumentID     string `json:"documentId"`
	ChunksCreated  int    `json:"chunksCreated"`
	ChunksEmbedded int    `json:"chunksEmbedded"`
	Replaced       bool   `json:"replaced"`
}

// HealthResponse is the health endpoint body.
type HealthResponse struct {
	Status         string `json:"status"`
	Version        string `json:"version"`
	StoreAvailable bool   `json:"storeAvailable"`
}

// SearchGet handles GET search. Query parameters are parsed leniently:
// anything unparseable silently keeps its default, matching what a query
// string pasted from a browser deserves.
func (h *Handler) SearchGet(req *restful.Request, resp *restful.Response) {
	documentID := req.PathParameter("documentId")
	query := req.QueryParameter("query")

	opts := h.defaults
	opts.Filter.DocumentID = documentID
	parseIntParam(req, "limit", &opts.Limit)
	parseIntParam(req, "offset", &opts.Offset)
	parseFloatParam(req, "minScore", &opts.MinScore)
	parseFloatParam(req, "keywordWeight", &opts.KeywordWeight)
	parseFloatParam(req, "semanticWeight", &opts.SemanticWeight)
	parseBoolParam(req, "enhanceContext", &opts.EnhanceContext)
	parseBoolParam(req, "rerank", &opts.Rerank)

	h.runSearch(req, resp, documentID, query, opts)
}

// SearchPost handles POST search. The body is strict: unknown fields are a
// 400, unlike the lenient GET parsing.
func (h *Handler) SearchPost(req *restful.Request, resp *restful.Response) {
	documentID := req.PathParameter("documentId")

	var body SearchRequest
	decoder := json.NewDecoder(req.Request.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&body); err != nil {
		h.logger.Warn().Err(err).Msg("bad search request body")
		writeError(resp, http.StatusBadRequest, errors.Wrap(err, "invalid request body"))
		return
	}

	opts := h.defaults
	opts.Filter.DocumentID = documentID
	opts.Filter.Metadata = body.Metadata
	applyIfSet(body.Limit, &opts.Limit)
	applyIfSet(body.Offset, &opts.Offset)
	applyIfSet(body.MinScore, &opts.MinScore)
	applyIfSet(body.KeywordWeight, &opts.KeywordWeight)
	applyIfSet(body.SemanticWeight, &opts.SemanticWeight)
	applyIfSet(body.EnhanceContext, &opts.EnhanceContext)
	applyIfSet(body.Rerank, &opts.Rerank)

	h.runSearch(req, resp, documentID, body.Query, opts)
}

func (h *Handler) runSearch(req *restful.Request, resp *restful.Response, documentID, query string, opts types.SearchOptions) {
	result, err := h.searcher.Search(req.Request.Context(), query, opts)
	if err != nil {
		writeServiceError(resp, err)
		return
	}

	_ = resp.WriteHeaderAndEntity(http.StatusOK, SearchResponse{
		Document:     DocumentRef{ID: documentID},
		SearchParams: opts,
		Result:       result,
	})
}

// Ingest handles POST ingest: raw text or pre-chunked passages.
func (h *Handler) Ingest(req *restful.Request, resp *restful.Response) {
	documentID := req.PathParameter("documentId")

	var body IngestRequest
	decoder := json.NewDecoder(req.Request.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&body); err != nil {
		writeError(resp, http.StatusBadRequest, errors.Wrap(err, "invalid request body"))
		return
	}
	if body.Text != "" && len(body.Passages) > 0 {
		writeError(resp, http.StatusBadRequest, errors.New("give either text or passages, not both"))
		return
	}

	ctx := req.Request.Context()
	var (
		stats *ingest.Stats
		err   error
	)
	if len(body.Passages) > 0 {
		stats, err = h.ingestor.IngestPassages(ctx, documentID, body.Passages, body.Metadata)
	} else {
		stats, err = h.ingestor.IngestDocument(ctx, documentID, body.Text, body.Metadata)
	}
	if err != nil {
		h.logger.Warn().Err(err).Str("document_id", documentID).Msg("ingest failed")
		writeServiceError(resp, err)
		return
	}

	_ = resp.WriteHeaderAndEntity(http.StatusOK, IngestResponse{
		DocumentID:     stats.DocumentID,
		ChunksCreated:  stats.ChunksCreated,
		ChunksEmbedded: stats.ChunksEmbedded,
		Replaced:       stats.Replaced,
	})
}

// DeleteDocument handles DELETE on a document.
func (h *Handler) DeleteDocument(req *restful.Request, resp *restful.Response) {
	documentID := req.PathParameter("documentId")
	if err := h.ingestor.DeleteDocument(req.Request.Context(), documentID); err != nil {
		writeServiceError(resp, err)
		return
	}
	resp.WriteHeader(http.StatusNoContent)
}

// Health handles GET health.
func (h *Handler) Health(req *restful.Request, resp *restful.Response) {
	_ = resp.WriteHeaderAndEntity(http.StatusOK, HealthResponse{
		Status:         "ok",
		Version:        Version,
		StoreAvailable: h.store.Available(req.Request.Context()),
	})
}

func parseIntParam(req *restful.Request, name string, dst *int) {
	if v := req.QueryParameter(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func parseFloatParam(req *restful.Request, name string, dst *float64) {
	if v := req.QueryParameter(name); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func parseBoolParam(req *restful.Request, name string, dst *bool) {
	if v := req.QueryParameter(name); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func applyIfSet[T any](src *T, dst *T) {
	if src != nil {
		*dst = *src
	}
}
