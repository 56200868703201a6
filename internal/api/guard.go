package api

import (
	"net/http"
	"time"

	"github.com/emicklei/go-restful/v3"
	"github.com/google/uuid"

	"github.com/StasChekhov/carplay-backend/internal/api/middleware"
	"github.com/StasChekhov/carplay-backend/internal/audit"
	"github.com/StasChekhov/carplay-backend/internal/guardtoken"
	"github.com/StasChekhov/carplay-backend/internal/models"
)

// Guard handles POST /api/v1/guard: classify the utterance and, when it
// passes, mint a guard token the session endpoint will accept as proof of
// screening. Blocked utterances get a 403 with the transcript and no token.
func (h *Handler) Guard(req *restful.Request, resp *restful.Response) {
	// Operator misconfiguration outranks anything the caller sent.
	if len(h.secret) == 0 || h.transcriber == nil {
		h.configError(resp)
		return
	}

	var body models.GuardRequest
	if err := req.ReadEntity(&body); err != nil {
		h.logger.Error().Err(err).Msg("Failed to parse guard request body")
		middleware.HandleError(resp, err, http.StatusBadRequest)
		return
	}

	requestID := uuid.NewString()

	text, ok := body.Extract()
	if !ok {
		if !body.HasAudio() {
			middleware.HandleError(resp, middleware.ErrMissingText, http.StatusBadRequest)
			return
		}
		transcript, done := h.transcribe(req, resp, body.Audio, body.MimeType)
		if done {
			return
		}
		text = transcript
	}

	verdict := h.classifier.Classify(text)
	if verdict.Blocked {
		h.logger.Info().
			Str("request_id", requestID).
			Str("category", verdict.Category).
			Msg("Guard blocked utterance")
		h.audit.Publish(audit.Event{
			RequestID: requestID,
			Endpoint:  "guard",
			Outcome:   audit.OutcomeBlocked,
			Category:  verdict.Category,
			Text:      text,
		})
		h.writeEntity(resp, http.StatusForbidden, models.GuardResponse{
			Blocked:    true,
			Category:   verdict.Category,
			Transcript: text,
		})
		return
	}

	claim := guardtoken.NewClaim(time.Now(), guardtoken.TTL)
	token, err := guardtoken.Mint(claim, h.secret)
	if err != nil {
		h.logger.Error().Err(err).Str("request_id", requestID).Msg("Failed to mint guard token")
		middleware.HandleError(resp, err, http.StatusInternalServerError)
		return
	}

	h.audit.Publish(audit.Event{
		RequestID: requestID,
		Endpoint:  "guard",
		Outcome:   audit.OutcomeAllowed,
		Text:      text,
	})
	h.writeEntity(resp, http.StatusOK, models.GuardResponse{
		Blocked:    false,
		Transcript: text,
		Token:      token,
		ExpiresAt:  claim.ExpiresAt,
	})
}
