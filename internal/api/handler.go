package api

import (
	"net/http"
	"time"

	"github.com/emicklei/go-restful/v3"
	"github.com/rs/zerolog"

	"github.com/StasChekhov/carplay-backend/internal/audit"
	"github.com/StasChekhov/carplay-backend/internal/classifier"
	"github.com/StasChekhov/carplay-backend/internal/llm"
	"github.com/StasChekhov/carplay-backend/internal/models"
	"github.com/StasChekhov/carplay-backend/internal/openai"
)

// Config carries the per-endpoint model and voice settings.
type Config struct {
	TranscribeModel string
	SpeechModel     string
	RealtimeModel   string
	DefaultVoice    string
	SpeechFormat    string
	UpstreamTimeout time.Duration
}

func (c *Config) SetDefaults() {
	if c.TranscribeModel == "" {
		c.TranscribeModel = "whisper-1"
	}
	if c.SpeechModel == "" {
		c.SpeechModel = "tts-1"
	}
	if c.RealtimeModel == "" {
		c.RealtimeModel = "gpt-4o-realtime-preview"
	}
	if c.DefaultVoice == "" {
		c.DefaultVoice = "alloy"
	}
	if c.SpeechFormat == "" {
		c.SpeechFormat = "mp3"
	}
	if c.UpstreamTimeout == 0 {
		c.UpstreamTimeout = 15 * time.Second
	}
}

// Deps are the collaborators a Handler needs. Any of the upstream clients
// may be nil when the operator forgot the credential; the affected endpoints
// then fail fast with a configuration error instead of half-working.
type Deps struct {
	Classifier  *classifier.Classifier
	Secret      []byte
	Transcriber openai.Transcriber
	Synthesizer openai.Synthesizer
	Sessions    openai.SessionCreator
	Chat        llm.Client
	Audit       audit.Publisher
	Config      Config
	Logger      *zerolog.Logger
}

// Handler wires the guard, session, and voice-chat endpoints to the
// classifier, the token codec, and the upstream collaborators.
type Handler struct {
	classifier  *classifier.Classifier
	secret      []byte
	transcriber openai.Transcriber
	synthesizer openai.Synthesizer
	sessions    openai.SessionCreator
	chat        llm.Client
	audit       audit.Publisher
	cfg         Config
	logger      *zerolog.Logger
}

func NewHandler(deps Deps) *Handler {
	deps.Config.SetDefaults()
	pub := deps.Audit
	if pub == nil {
		pub = audit.Nop{}
	}
	return &Handler{
		classifier:  deps.Classifier,
		secret:      deps.Secret,
		transcriber: deps.Transcriber,
		synthesizer: deps.Synthesizer,
		sessions:    deps.Sessions,
		chat:        deps.Chat,
		audit:       pub,
		cfg:         deps.Config,
		logger:      deps.Logger,
	}
}

// Health handles GET /api/v1/health.
func (h *Handler) Health(req *restful.Request, resp *restful.Response) {
	if err := resp.WriteHeaderAndEntity(http.StatusOK, models.HealthResponse{
		Status:  "ok",
		Version: "1.0.0",
	}); err != nil {
		h.logger.Error().Err(err).Msg("Failed to write health response")
	}
}
