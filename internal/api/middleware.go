package api

import (
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	restful "github.com/emicklei/go-restful/v3"
	"github.com/rs/zerolog"

	"github.com/studykit/docsearch/pkg/types"
)

// ErrorResponse is the JSON body for every non-2xx response.
type ErrorResponse struct {
	Error  string `json:"error"`
	Status int    `json:"status"`
}

// writeError sends an ErrorResponse with the given status.
func writeError(resp *restful.Response, status int, err error) {
	_ = resp.WriteHeaderAndEntity(status, ErrorResponse{
		Error:  err.Error(),
		Status: status,
	})
}

// RequestLogger returns a filter that logs every request with its status
// and latency.
func RequestLogger(logger zerolog.Logger) restful.FilterFunction {
	return func(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
		start := time.Now()
		chain.ProcessFilter(req, resp)
		logger.Info().
			Str("method", req.Request.Method).
			Str("path", req.Request.URL.Path).
			Int("status", resp.StatusCode()).
			Dur("duration", time.Since(start)).
			Msg("http request")
	}
}

// RecoverPanic returns a filter that converts handler panics into 500s
// instead of taking the process down.
func RecoverPanic(logger zerolog.Logger) restful.FilterFunction {
	return func(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error().
					Interface("panic", r).
					Str("path", req.Request.URL.Path).
					Msg("handler panicked")
				writeError(resp, http.StatusInternalServerError, errors.Newf("internal error"))
			}
		}()
		chain.ProcessFilter(req, resp)
	}
}

// writeServiceError maps service errors onto HTTP statuses. Validation
// failures are the caller's fault (400); unknown documents are 404;
// anything else is a 500.
func writeServiceError(resp *restful.Response, err error) {
	switch {
	case errors.Is(err, types.ErrInvalidQuery), errors.Is(err, types.ErrInvalidOption),
		errors.Is(err, types.ErrEmptyContent):
		writeError(resp, http.StatusBadRequest, err)
	case errors.Is(err, types.ErrNotFound):
		writeError(resp, http.StatusNotFound, err)
	default:
		writeError(resp, http.StatusInternalServerError, err)
	}
}
