package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/emicklei/go-restful/v3"
	"github.com/google/uuid"

	"github.com/StasChekhov/carplay-backend/internal/api/middleware"
	"github.com/StasChekhov/carplay-backend/internal/audit"
	"github.com/StasChekhov/carplay-backend/internal/guardtoken"
	"github.com/StasChekhov/carplay-backend/internal/models"
	"github.com/StasChekhov/carplay-backend/internal/openai"
	"github.com/StasChekhov/carplay-backend/internal/safety"
)

// Session handles POST /api/v1/session. Check order is fixed: operator
// configuration, request structure, content re-check, token verification,
// and only then the upstream call. A blocked utterance is reported as a
// content violation even when the token is also missing or bad.
func (h *Handler) Session(req *restful.Request, resp *restful.Response) {
	if len(h.secret) == 0 || h.sessions == nil {
		h.configError(resp)
		return
	}

	var body models.SessionRequest
	if err := req.ReadEntity(&body); err != nil {
		h.logger.Error().Err(err).Msg("Failed to parse session request body")
		middleware.HandleError(resp, err, http.StatusBadRequest)
		return
	}

	requestID := uuid.NewString()

	// Direct-text re-check. Defense in depth on top of the guard token:
	// callers that include text get it classified again right here.
	if text, ok := body.Extract(); ok {
		if verdict := h.classifier.Classify(text); verdict.Blocked {
			h.logger.Info().
				Str("request_id", requestID).
				Str("category", verdict.Category).
				Msg("Session blocked on content re-check")
			h.audit.Publish(audit.Event{
				RequestID: requestID,
				Endpoint:  "session",
				Outcome:   audit.OutcomeBlocked,
				Category:  verdict.Category,
				Text:      text,
			})
			h.writeEntity(resp, http.StatusForbidden, models.BlockedResponse{
				Blocked: true,
				Error:   "content policy violation",
			})
			return
		}
	}

	if err := guardtoken.CheckAt(body.Token, h.secret, time.Now()); err != nil {
		// The specific failure mode stays internal; callers get one
		// uniform refusal regardless of why the token failed.
		h.logger.Info().
			Str("request_id", requestID).
			Str("reason", err.Error()).
			Msg("Session rejected guard token")
		h.audit.Publish(audit.Event{
			RequestID: requestID,
			Endpoint:  "session",
			Outcome:   audit.OutcomeTokenInvalid,
			Reason:    err.Error(),
		})
		h.writeEntity(resp, http.StatusForbidden, models.BlockedResponse{
			Blocked: true,
			Error:   "invalid guard token",
		})
		return
	}

	voice := body.Voice
	if voice == "" {
		voice = h.cfg.DefaultVoice
	}

	ctx, cancel := context.WithTimeout(req.Request.Context(), h.cfg.UpstreamTimeout)
	defer cancel()

	session, err := h.sessions.CreateRealtimeSession(ctx, openai.RealtimeSessionRequest{
		Model:        h.cfg.RealtimeModel,
		Voice:        voice,
		Instructions: safety.Instructions,
	})
	if err != nil {
		h.forwardUpstream(resp, err)
		return
	}
	if session.ClientSecret == "" {
		middleware.HandleError(resp, fmt.Errorf("upstream returned no client secret"), http.StatusBadGateway)
		return
	}

	h.audit.Publish(audit.Event{
		RequestID: requestID,
		Endpoint:  "session",
		Outcome:   audit.OutcomeAllowed,
	})
	h.writeEntity(resp, http.StatusOK, models.SessionResponse{
		Blocked:      false,
		ClientSecret: session.ClientSecret,
		ExpiresAt:    session.ExpiresAt,
		Model:        session.Model,
		Voice:        voice,
	})
}
