package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/emicklei/go-restful/v3"
	"github.com/rs/zerolog/log"
)

// ErrorResponse is the JSON error envelope returned by every endpoint.
type ErrorResponse struct {
	Error   string `json:"error" description:"Error message"`
	Code    int    `json:"code" description:"HTTP status code"`
	Details string `json:"details,omitempty" description:"Additional error details"`
}

// Validation sentinels shared by the request models and handlers.
var (
	ErrMissingAudio    = errors.New("audio is required")
	ErrMissingText     = errors.New("text or audio is required")
	ErrInvalidAudio    = errors.New("audio must be valid base64")
	ErrEmptyTranscript = errors.New("transcription returned no text")
)

// Logger logs one line per request with method, path, status, and duration.
func Logger(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
	start := time.Now()
	chain.ProcessFilter(req, resp)
	log.Info().
		Str("method", req.Request.Method).
		Str("path", req.Request.URL.Path).
		Int("status", resp.StatusCode()).
		Dur("duration", time.Since(start)).
		Msg("Request handled")
}

// RecoverPanic converts handler panics into a 500 error response.
func RecoverPanic(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Interface("panic", r).
				Str("path", req.Request.URL.Path).
				Msg("Handler panicked")
			HandleError(resp, fmt.Errorf("internal server error"), http.StatusInternalServerError)
		}
	}()
	chain.ProcessFilter(req, resp)
}

// HandleError writes the error envelope with the given status code.
func HandleError(resp *restful.Response, err error, code int) {
	if writeErr := resp.WriteHeaderAndEntity(code, ErrorResponse{
		Error: err.Error(),
		Code:  code,
	}); writeErr != nil {
		log.Error().Err(writeErr).Msg("Failed to write error response")
	}
}

// WriteUpstream forwards an upstream response verbatim: same status code,
// same body, no rewriting.
func WriteUpstream(resp *restful.Response, status int, body []byte) {
	resp.AddHeader("Content-Type", restful.MIME_JSON)
	resp.WriteHeader(status)
	if _, err := resp.Write(body); err != nil {
		log.Error().Err(err).Msg("Failed to forward upstream body")
	}
}
