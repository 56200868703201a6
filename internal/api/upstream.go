package api

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"github.com/emicklei/go-restful/v3"

	"github.com/StasChekhov/carplay-backend/internal/api/middleware"
	"github.com/StasChekhov/carplay-backend/internal/openai"
)

// configError reports missing operator configuration. It is always checked
// before the request body is even parsed.
func (h *Handler) configError(resp *restful.Response) {
	middleware.HandleError(resp, fmt.Errorf("server configuration error"), http.StatusInternalServerError)
}

// forwardUpstream writes the collaborator failure to the caller: upstream
// status and body verbatim when available, otherwise a distinct timeout or
// unavailable status. Never retried here.
func (h *Handler) forwardUpstream(resp *restful.Response, err error) {
	status := openai.StatusOf(err)
	h.logger.Error().Err(err).Int("status", status).Msg("Upstream call failed")

	if body, ok := openai.BodyOf(err); ok {
		middleware.WriteUpstream(resp, status, body)
		return
	}
	switch status {
	case http.StatusGatewayTimeout:
		middleware.HandleError(resp, fmt.Errorf("upstream timed out"), status)
	default:
		middleware.HandleError(resp, fmt.Errorf("upstream unavailable"), status)
	}
}

// transcribe decodes the base64 audio and runs the transcription
// collaborator. It writes the response itself on any failure and reports
// that via done, so callers just return.
func (h *Handler) transcribe(req *restful.Request, resp *restful.Response, audioB64, mimeType string) (text string, done bool) {
	raw, err := base64.StdEncoding.DecodeString(audioB64)
	if err != nil {
		middleware.HandleError(resp, middleware.ErrInvalidAudio, http.StatusBadRequest)
		return "", true
	}
	if mimeType == "" {
		mimeType = "audio/webm"
	}

	ctx, cancel := context.WithTimeout(req.Request.Context(), h.cfg.UpstreamTimeout)
	defer cancel()

	transcript, err := h.transcriber.Transcribe(ctx, raw, mimeType, h.cfg.TranscribeModel)
	if err != nil {
		h.forwardUpstream(resp, err)
		return "", true
	}
	if strings.TrimSpace(transcript) == "" {
		middleware.HandleError(resp, middleware.ErrEmptyTranscript, http.StatusBadRequest)
		return "", true
	}
	return transcript, false
}

func (h *Handler) writeEntity(resp *restful.Response, status int, entity interface{}) {
	if err := resp.WriteHeaderAndEntity(status, entity); err != nil {
		h.logger.Error().Err(err).Msg("Failed to write response")
	}
}
