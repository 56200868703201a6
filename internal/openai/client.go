// Package openai implements thin HTTP clients for the upstream voice
// collaborators: transcription, chat completion, speech synthesis, and
// realtime session creation. Upstream failures are surfaced verbatim so
// handlers can propagate status and body unchanged.
package openai

import (
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

const DefaultBaseURL = "https://api.openai.com/v1"

type ClientConfig struct {
	APIKey              string
	BaseURL             string
	Timeout             time.Duration
	MaxIdleConns        int
	MaxIdleConnsPerHost int
}

type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *zerolog.Logger
}

func NewClient(cfg ClientConfig, logger *zerolog.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.MaxIdleConns == 0 {
		cfg.MaxIdleConns = 100
	}
	if cfg.MaxIdleConnsPerHost == 0 {
		cfg.MaxIdleConnsPerHost = 10
	}

	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        cfg.MaxIdleConns,
				MaxIdleConnsPerHost: cfg.MaxIdleConnsPerHost,
			},
		},
		logger: logger,
	}, nil
}
