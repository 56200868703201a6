package api

import (
	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	"github.com/emicklei/go-restful/v3"

	"github.com/StasChekhov/carplay-backend/internal/api/middleware"
	"github.com/StasChekhov/carplay-backend/internal/models"
)

func RegisterRoutes(container *restful.Container, handler *Handler) {
	ws := new(restful.WebService)

	ws.
		Path("/api/v1").
		Consumes(restful.MIME_JSON).
		Produces(restful.MIME_JSON)

	// Health endpoint
	ws.
		Route(ws.GET("health").
			To(handler.Health).
			Doc("Health check").
			Metadata(restfulspec.KeyOpenAPITags, []string{"health"}).
			Writes(models.HealthResponse{}).
			Returns(200, "OK", models.HealthResponse{}))

	ws.
		Route(ws.POST("/guard").
			To(handler.Guard).
			Doc("Classify an utterance and mint a guard token when it passes").
			Metadata(restfulspec.KeyOpenAPITags, []string{"guard"}).
			Reads(models.GuardRequest{}).
			Writes(models.GuardResponse{}).
			Returns(200, "OK", models.GuardResponse{}).
			Returns(400, "Bad Request", middleware.ErrorResponse{}).
			Returns(403, "Content Policy Violation", models.GuardResponse{}).
			Returns(500, "Internal Server Error", middleware.ErrorResponse{}).
			Returns(502, "Upstream Unavailable", middleware.ErrorResponse{}).
			Returns(504, "Upstream Timeout", middleware.ErrorResponse{}))

	ws.
		Route(ws.POST("/session").
			To(handler.Session).
			Doc("Verify a guard token and open a realtime voice session").
			Metadata(restfulspec.KeyOpenAPITags, []string{"session"}).
			Reads(models.SessionRequest{}).
			Writes(models.SessionResponse{}).
			Returns(200, "OK", models.SessionResponse{}).
			Returns(400, "Bad Request", middleware.ErrorResponse{}).
			Returns(403, "Blocked", models.BlockedResponse{}).
			Returns(500, "Internal Server Error", middleware.ErrorResponse{}).
			Returns(502, "Upstream Unavailable", middleware.ErrorResponse{}).
			Returns(504, "Upstream Timeout", middleware.ErrorResponse{}))

	ws.
		Route(ws.POST("/voice-chat").
			To(handler.VoiceChat).
			Doc("Transcribe, gate, and answer an utterance with synthesized speech").
			Metadata(restfulspec.KeyOpenAPITags, []string{"voice-chat"}).
			Reads(models.VoiceChatRequest{}).
			Writes(models.VoiceChatResponse{}).
			Returns(200, "OK", models.VoiceChatResponse{}).
			Returns(400, "Bad Request", middleware.ErrorResponse{}).
			Returns(500, "Internal Server Error", middleware.ErrorResponse{}).
			Returns(502, "Upstream Unavailable", middleware.ErrorResponse{}).
			Returns(504, "Upstream Timeout", middleware.ErrorResponse{}))

	container.Add(ws)
}
