package setup

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/StasChekhov/carplay-backend/internal/api"
	"github.com/StasChekhov/carplay-backend/internal/audit"
	"github.com/StasChekhov/carplay-backend/internal/classifier"
	"github.com/StasChekhov/carplay-backend/internal/llm"
	"github.com/StasChekhov/carplay-backend/internal/llm/bedrock"
	"github.com/StasChekhov/carplay-backend/internal/llm/gpt"
	"github.com/StasChekhov/carplay-backend/internal/openai"
	red "github.com/StasChekhov/carplay-backend/internal/redis"
)

type Config struct {
	Port     string
	LogLevel string

	GuardTokenSecret string
	OpenAIKey        string
	OpenAIBaseURL    string

	TranscribeModel string
	ChatModel       string
	SpeechModel     string
	RealtimeModel   string
	DefaultVoice    string

	ChatProvider  string
	AWSRegion     string
	ClaudeModelID string

	PatternsConfigPath string
	ClassifierTier     string

	RedisAddr     string
	RedisPassword string
	AuditStream   string
	AuditLogText  bool

	UpstreamTimeout time.Duration
}

type Dependencies struct {
	Handler    *api.Handler
	Classifier *classifier.Classifier
	Logger     *zerolog.Logger
}

func LoadConfig() *Config {
	return &Config{
		Port:     getEnv("GATEWAY_PORT", "18080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		GuardTokenSecret: getEnv("GUARD_TOKEN_SECRET", ""),
		OpenAIKey:        getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:    getEnv("OPENAI_BASE_URL", ""),

		TranscribeModel: getEnv("TRANSCRIBE_MODEL", "whisper-1"),
		ChatModel:       getEnv("CHAT_MODEL", "gpt-4o-mini"),
		SpeechModel:     getEnv("SPEECH_MODEL", "tts-1"),
		RealtimeModel:   getEnv("REALTIME_MODEL", "gpt-4o-realtime-preview"),
		DefaultVoice:    getEnv("DEFAULT_VOICE", "alloy"),

		ChatProvider:  getEnv("CHAT_PROVIDER", "openai"),
		AWSRegion:     getEnv("AWS_REGION", "us-east-1"),
		ClaudeModelID: getEnv("CLAUDE_MODEL_ID", ""),

		PatternsConfigPath: getEnv("PATTERNS_CONFIG_PATH", ""),
		ClassifierTier:     getEnv("CLASSIFIER_TIER", "broad"),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		AuditStream:   getEnv("AUDIT_STREAM", "gate-verdicts"),
		AuditLogText:  getEnvBool("AUDIT_LOG_TEXT", false),

		UpstreamTimeout: getEnvDuration("UPSTREAM_TIMEOUT", 15*time.Second),
	}
}

// Wire builds the dependency graph. Missing credentials do not fail wiring:
// the affected endpoints answer with a configuration error instead, which
// keeps the failure visible per request rather than taking the whole
// gateway down.
func Wire(ctx context.Context, cfg *Config, logger *zerolog.Logger) (*Dependencies, error) {
	catalog, err := loadCatalog(cfg, logger)
	if err != nil {
		return nil, err
	}
	cls := classifier.New(catalog, classifier.Tier(cfg.ClassifierTier))

	if cfg.GuardTokenSecret == "" {
		logger.Warn().Msg("GUARD_TOKEN_SECRET is not set; guard and session endpoints will refuse requests")
	}

	var (
		transcriber  openai.Transcriber
		synthesizer  openai.Synthesizer
		sessions     openai.SessionCreator
		openaiClient *openai.Client
	)
	if cfg.OpenAIKey != "" {
		openaiClient, err = openai.NewClient(openai.ClientConfig{
			APIKey:  cfg.OpenAIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Timeout: cfg.UpstreamTimeout,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create OpenAI client: %w", err)
		}
		transcriber = openaiClient
		synthesizer = openaiClient
		sessions = openaiClient
	} else {
		logger.Warn().Msg("OPENAI_API_KEY is not set; upstream endpoints will refuse requests")
	}

	chat, err := createChatClient(ctx, cfg, openaiClient)
	if err != nil {
		return nil, err
	}

	publisher, err := createAuditPublisher(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	handler := api.NewHandler(api.Deps{
		Classifier:  cls,
		Secret:      []byte(cfg.GuardTokenSecret),
		Transcriber: transcriber,
		Synthesizer: synthesizer,
		Sessions:    sessions,
		Chat:        chat,
		Audit:       publisher,
		Config: api.Config{
			TranscribeModel: cfg.TranscribeModel,
			SpeechModel:     cfg.SpeechModel,
			RealtimeModel:   cfg.RealtimeModel,
			DefaultVoice:    cfg.DefaultVoice,
			UpstreamTimeout: cfg.UpstreamTimeout,
		},
		Logger: logger,
	})

	return &Dependencies{
		Handler:    handler,
		Classifier: cls,
		Logger:     logger,
	}, nil
}

func loadCatalog(cfg *Config, logger *zerolog.Logger) (*classifier.Catalog, error) {
	if cfg.PatternsConfigPath == "" {
		return classifier.DefaultCatalog(), nil
	}
	catalog, err := classifier.LoadCatalog(cfg.PatternsConfigPath)
	if err != nil {
		// A broken override must not silently weaken the gate.
		return nil, fmt.Errorf("failed to load pattern catalog from %s: %w", cfg.PatternsConfigPath, err)
	}
	logger.Info().Str("path", cfg.PatternsConfigPath).Msg("Loaded pattern catalog override")
	return catalog, nil
}

func createChatClient(ctx context.Context, cfg *Config, openaiClient *openai.Client) (llm.Client, error) {
	switch cfg.ChatProvider {
	case "bedrock":
		return bedrock.NewClient(ctx, cfg.AWSRegion, cfg.ClaudeModelID)
	case "openai", "":
		if openaiClient == nil {
			return nil, nil
		}
		return gpt.NewClient(openaiClient, cfg.ChatModel)
	default:
		return nil, fmt.Errorf("unsupported chat provider: %s", cfg.ChatProvider)
	}
}

func createAuditPublisher(ctx context.Context, cfg *Config, logger *zerolog.Logger) (audit.Publisher, error) {
	if cfg.RedisAddr == "" {
		return audit.Nop{}, nil
	}
	client, err := red.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, 3)
	if err != nil {
		return nil, fmt.Errorf("failed to connect audit stream: %w", err)
	}
	return audit.NewStreamPublisher(client, cfg.AuditStream, cfg.AuditLogText, logger), nil
}

func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		value = defaultValue
	}

	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		value = defaultValue
	}

	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		value = defaultValue
	}

	return value
}
