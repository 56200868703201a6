package models

import (
	"strings"
)

// TextFields collects the request-body aliases accepted for raw user text.
// Historical clients send the utterance under different keys, so extraction
// walks a fixed priority order instead of probing the body dynamically.
type TextFields struct {
	UserText   string `json:"user_text,omitempty" description:"User utterance (preferred field)"`
	Text       string `json:"text,omitempty" description:"User utterance (alias)"`
	Prompt     string `json:"prompt,omitempty" description:"User utterance (alias)"`
	Query      string `json:"query,omitempty" description:"User utterance (alias)"`
	Transcript string `json:"transcript,omitempty" description:"User utterance (alias)"`
}

// Extract returns the first non-empty alias in priority order:
// user_text, text, prompt, query, transcript.
func (f TextFields) Extract() (string, bool) {
	for _, candidate := range []string{f.UserText, f.Text, f.Prompt, f.Query, f.Transcript} {
		if trimmed := strings.TrimSpace(candidate); trimmed != "" {
			return trimmed, true
		}
	}
	return "", false
}

// GuardRequest is the body of POST /api/v1/guard. Callers send either raw
// text (any alias) or base64-encoded audio with its MIME type.
type GuardRequest struct {
	TextFields `json:",inline"`

	Audio    string `json:"audio,omitempty" description:"Base64-encoded audio payload"`
	MimeType string `json:"mime_type,omitempty" description:"Audio MIME type, e.g. audio/webm"`
}

// HasAudio reports whether the request carries an audio payload.
func (r *GuardRequest) HasAudio() bool {
	return strings.TrimSpace(r.Audio) != ""
}

// GuardResponse carries the verdict and, when allowed, the guard token.
type GuardResponse struct {
	Blocked    bool   `json:"blocked" description:"True when the utterance violates the content policy"`
	Category   string `json:"category,omitempty" description:"Matched policy category when blocked"`
	Transcript string `json:"transcript,omitempty" description:"Text that was classified"`
	Token      string `json:"token,omitempty" description:"Guard token, present when allowed"`
	ExpiresAt  int64  `json:"expires_at,omitempty" description:"Token expiry as unix seconds"`
}

// SessionRequest is the body of POST /api/v1/session. Text is optional; when
// present it is re-classified before the token is even looked at.
type SessionRequest struct {
	TextFields `json:",inline"`

	Token string `json:"token" description:"Guard token minted by the guard endpoint"`
	Voice string `json:"voice,omitempty" description:"Realtime voice override"`
}

// SessionResponse carries the realtime session credentials.
type SessionResponse struct {
	Blocked      bool   `json:"blocked"`
	ClientSecret string `json:"client_secret,omitempty" description:"Ephemeral realtime credential"`
	ExpiresAt    int64  `json:"expires_at,omitempty" description:"Credential expiry as unix seconds"`
	Model        string `json:"model,omitempty"`
	Voice        string `json:"voice,omitempty"`
}

// VoiceChatRequest is the body of POST /api/v1/voice-chat.
type VoiceChatRequest struct {
	Audio    string `json:"audio" description:"Base64-encoded audio payload"`
	MimeType string `json:"mime_type,omitempty" description:"Audio MIME type, e.g. audio/webm"`
	Voice    string `json:"voice,omitempty" description:"Speech synthesis voice override"`
}

func (r *VoiceChatRequest) SetDefaults() {
	if r.MimeType == "" {
		r.MimeType = "audio/webm"
	}
}

// VoiceChatResponse always carries a playable reply: blocked requests get
// the fixed refusal text instead of an error status.
type VoiceChatResponse struct {
	Blocked    bool   `json:"blocked"`
	Transcript string `json:"transcript,omitempty"`
	Reply      string `json:"reply,omitempty"`
	Audio      string `json:"audio,omitempty" description:"Base64-encoded synthesized reply"`
	Format     string `json:"format,omitempty" description:"Audio format of the reply, e.g. mp3"`
}

// BlockedResponse is the 403 body shared by the session endpoint's two
// refusal paths. The error message never says which token check failed.
type BlockedResponse struct {
	Blocked bool   `json:"blocked"`
	Error   string `json:"error"`
}

type HealthResponse struct {
	Status  string `json:"status" description:"Service status"`
	Version string `json:"version" description:"API version"`
}
