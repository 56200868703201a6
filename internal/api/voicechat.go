package api

import (
	"context"
	"encoding/base64"
	"net/http"

	"github.com/emicklei/go-restful/v3"
	"github.com/google/uuid"

	"github.com/StasChekhov/carplay-backend/internal/api/middleware"
	"github.com/StasChekhov/carplay-backend/internal/audit"
	"github.com/StasChekhov/carplay-backend/internal/llm"
	"github.com/StasChekhov/carplay-backend/internal/models"
	"github.com/StasChekhov/carplay-backend/internal/safety"
)

// VoiceChat handles POST /api/v1/voice-chat: transcribe, classify, and when
// allowed, complete a chat reply and synthesize it. A blocked utterance is
// still a 200 here: the client always gets a playable refusal instead of an
// error status. That asymmetry with the guard/session 403s is deliberate.
func (h *Handler) VoiceChat(req *restful.Request, resp *restful.Response) {
	if h.transcriber == nil || h.chat == nil || h.synthesizer == nil {
		h.configError(resp)
		return
	}

	var body models.VoiceChatRequest
	if err := req.ReadEntity(&body); err != nil {
		h.logger.Error().Err(err).Msg("Failed to parse voice-chat request body")
		middleware.HandleError(resp, err, http.StatusBadRequest)
		return
	}
	body.SetDefaults()

	if body.Audio == "" {
		middleware.HandleError(resp, middleware.ErrMissingAudio, http.StatusBadRequest)
		return
	}

	requestID := uuid.NewString()

	transcript, done := h.transcribe(req, resp, body.Audio, body.MimeType)
	if done {
		return
	}

	verdict := h.classifier.Classify(transcript)
	if verdict.Blocked {
		h.logger.Info().
			Str("request_id", requestID).
			Str("category", verdict.Category).
			Msg("Voice chat blocked utterance")
		h.audit.Publish(audit.Event{
			RequestID: requestID,
			Endpoint:  "voice-chat",
			Outcome:   audit.OutcomeBlocked,
			Category:  verdict.Category,
			Text:      transcript,
		})
		h.writeEntity(resp, http.StatusOK, models.VoiceChatResponse{
			Blocked:    true,
			Transcript: transcript,
			Reply:      safety.Refusal,
		})
		return
	}

	chatCtx, cancelChat := context.WithTimeout(req.Request.Context(), h.cfg.UpstreamTimeout)
	defer cancelChat()

	reply, err := h.chat.Complete(chatCtx, llm.Request{
		System:      safety.Instructions,
		User:        transcript,
		MaxTokens:   512,
		Temperature: 0.7,
	})
	if err != nil {
		h.forwardUpstream(resp, err)
		return
	}

	voice := body.Voice
	if voice == "" {
		voice = h.cfg.DefaultVoice
	}

	speechCtx, cancelSpeech := context.WithTimeout(req.Request.Context(), h.cfg.UpstreamTimeout)
	defer cancelSpeech()

	speech, err := h.synthesizer.Synthesize(speechCtx, reply.Content, voice, h.cfg.SpeechFormat, h.cfg.SpeechModel)
	if err != nil {
		h.forwardUpstream(resp, err)
		return
	}

	h.audit.Publish(audit.Event{
		RequestID: requestID,
		Endpoint:  "voice-chat",
		Outcome:   audit.OutcomeAllowed,
		Text:      transcript,
	})
	h.writeEntity(resp, http.StatusOK, models.VoiceChatResponse{
		Blocked:    false,
		Transcript: transcript,
		Reply:      reply.Content,
		Audio:      base64.StdEncoding.EncodeToString(speech),
		Format:     h.cfg.SpeechFormat,
	})
}
