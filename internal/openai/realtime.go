package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// SessionCreator opens short-lived realtime voice sessions upstream.
type SessionCreator interface {
	CreateRealtimeSession(ctx context.Context, req RealtimeSessionRequest) (*RealtimeSession, error)
}

// RealtimeSessionRequest describes the realtime session to open. The
// Instructions field carries the fixed safety prompt and is always set by
// the gateway, never by the caller.
type RealtimeSessionRequest struct {
	Model        string
	Voice        string
	Instructions string
}

// RealtimeSession is the upstream-issued ephemeral credential.
type RealtimeSession struct {
	ID           string
	Model        string
	Voice        string
	ClientSecret string
	ExpiresAt    int64
}

type realtimeSessionPayload struct {
	Model             string   `json:"model"`
	Voice             string   `json:"voice"`
	Modalities        []string `json:"modalities"`
	InputAudioFormat  string   `json:"input_audio_format"`
	OutputAudioFormat string   `json:"output_audio_format"`
	Instructions      string   `json:"instructions"`
}

type realtimeSessionResponse struct {
	ID           string `json:"id"`
	Model        string `json:"model"`
	Voice        string `json:"voice"`
	ClientSecret struct {
		Value     string `json:"value"`
		ExpiresAt int64  `json:"expires_at"`
	} `json:"client_secret"`
}

// CreateRealtimeSession requests an ephemeral realtime credential with the
// safety instructions injected.
func (c *Client) CreateRealtimeSession(ctx context.Context, sessionReq RealtimeSessionRequest) (*RealtimeSession, error) {
	payload := realtimeSessionPayload{
		Model:             sessionReq.Model,
		Voice:             sessionReq.Voice,
		Modalities:        []string{"audio", "text"},
		InputAudioFormat:  "pcm16",
		OutputAudioFormat: "pcm16",
		Instructions:      sessionReq.Instructions,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize session request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/realtime/sessions", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to build session request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("session request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read session response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &UpstreamError{Status: resp.StatusCode, Body: body}
	}

	var out realtimeSessionResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to parse session response: %w", err)
	}

	c.logger.Debug().Str("session_id", out.ID).Msg("Realtime session created")
	return &RealtimeSession{
		ID:           out.ID,
		Model:        out.Model,
		Voice:        out.Voice,
		ClientSecret: out.ClientSecret.Value,
		ExpiresAt:    out.ClientSecret.ExpiresAt,
	}, nil
}
