package api_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/emicklei/go-restful/v3"
	"github.com/rs/zerolog"
	"go.uber.org/mock/gomock"

	"github.com/StasChekhov/carplay-backend/internal/api"
	"github.com/StasChekhov/carplay-backend/internal/api/mocks"
	"github.com/StasChekhov/carplay-backend/internal/classifier"
	"github.com/StasChekhov/carplay-backend/internal/guardtoken"
	"github.com/StasChekhov/carplay-backend/internal/llm"
	"github.com/StasChekhov/carplay-backend/internal/models"
	"github.com/StasChekhov/carplay-backend/internal/openai"
	"github.com/StasChekhov/carplay-backend/internal/safety"
)

var testSecret = []byte("s3cret")

type testFixture struct {
	container   *restful.Container
	transcriber *mocks.MockTranscriber
	synthesizer *mocks.MockSynthesizer
	sessions    *mocks.MockSessionCreator
	chat        *mocks.MockClient
}

func setupTestAPI(t *testing.T, mutate func(deps *api.Deps)) *testFixture {
	t.Helper()

	ctrl := gomock.NewController(t)
	logger := zerolog.Nop()

	fixture := &testFixture{
		transcriber: mocks.NewMockTranscriber(ctrl),
		synthesizer: mocks.NewMockSynthesizer(ctrl),
		sessions:    mocks.NewMockSessionCreator(ctrl),
		chat:        mocks.NewMockClient(ctrl),
	}

	deps := api.Deps{
		Classifier:  classifier.New(classifier.DefaultCatalog(), classifier.TierNarrow),
		Secret:      testSecret,
		Transcriber: fixture.transcriber,
		Synthesizer: fixture.synthesizer,
		Sessions:    fixture.sessions,
		Chat:        fixture.chat,
		Logger:      &logger,
	}
	if mutate != nil {
		mutate(&deps)
	}

	container := restful.NewContainer()
	api.RegisterRoutes(container, api.NewHandler(deps))
	fixture.container = container
	return fixture
}

func postJSON(t *testing.T, container *restful.Container, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("Failed to marshal request: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	recorder := httptest.NewRecorder()
	container.ServeHTTP(recorder, req)
	return recorder
}

func decode[T any](t *testing.T, recorder *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(recorder.Body.Bytes(), &out); err != nil {
		t.Fatalf("Failed to parse response %q: %v", recorder.Body.String(), err)
	}
	return out
}

func TestAPI_Health(t *testing.T) {
	fixture := setupTestAPI(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	recorder := httptest.NewRecorder()
	fixture.container.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", recorder.Code)
	}
	response := decode[models.HealthResponse](t, recorder)
	if response.Status != "ok" {
		t.Errorf("Expected status 'ok', got '%s'", response.Status)
	}
}

func TestAPI_Guard_BlockedText(t *testing.T) {
	fixture := setupTestAPI(t, nil)

	recorder := postJSON(t, fixture.container, "/api/v1/guard", models.GuardRequest{
		TextFields: models.TextFields{UserText: "What medication should I take for a headache?"},
	})

	if recorder.Code != http.StatusForbidden {
		t.Fatalf("Expected status 403, got %d. Body: %s", recorder.Code, recorder.Body.String())
	}

	response := decode[models.GuardResponse](t, recorder)
	if !response.Blocked {
		t.Error("Expected blocked=true")
	}
	if response.Category != "medical" {
		t.Errorf("Expected category 'medical', got '%s'", response.Category)
	}
	if response.Transcript != "What medication should I take for a headache?" {
		t.Errorf("Expected transcript echoed back, got '%s'", response.Transcript)
	}
	if response.Token != "" {
		t.Error("Blocked response must not carry a token")
	}
}

func TestAPI_Guard_AllowedTextMintsToken(t *testing.T) {
	fixture := setupTestAPI(t, nil)
	before := time.Now()

	recorder := postJSON(t, fixture.container, "/api/v1/guard", models.GuardRequest{
		TextFields: models.TextFields{Text: "Find the nearest gas station"},
	})

	if recorder.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d. Body: %s", recorder.Code, recorder.Body.String())
	}

	response := decode[models.GuardResponse](t, recorder)
	if response.Blocked {
		t.Error("Expected blocked=false")
	}
	if !guardtoken.Verify(response.Token, testSecret) {
		t.Error("Expected a verifiable guard token")
	}
	if guardtoken.Verify(response.Token, []byte("wrong")) {
		t.Error("Token verified with the wrong secret")
	}

	wantExpiry := before.Add(guardtoken.TTL).Unix()
	if response.ExpiresAt < wantExpiry || response.ExpiresAt > wantExpiry+2 {
		t.Errorf("ExpiresAt %d not within expected window around %d", response.ExpiresAt, wantExpiry)
	}
}

func TestAPI_Guard_TextAliasPriority(t *testing.T) {
	fixture := setupTestAPI(t, nil)

	// user_text is clean, the lower-priority alias is not. Only user_text
	// should be classified.
	recorder := postJSON(t, fixture.container, "/api/v1/guard", models.GuardRequest{
		TextFields: models.TextFields{
			UserText: "Navigate home",
			Query:    "What medication should I take?",
		},
	})

	if recorder.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d. Body: %s", recorder.Code, recorder.Body.String())
	}
}

func TestAPI_Guard_AudioTranscription(t *testing.T) {
	fixture := setupTestAPI(t, nil)

	audio := []byte("fake-webm-bytes")
	fixture.transcriber.EXPECT().
		Transcribe(gomock.Any(), audio, "audio/webm", "whisper-1").
		Return("Find the nearest gas station", nil)

	recorder := postJSON(t, fixture.container, "/api/v1/guard", models.GuardRequest{
		Audio: base64.StdEncoding.EncodeToString(audio),
	})

	if recorder.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d. Body: %s", recorder.Code, recorder.Body.String())
	}
	response := decode[models.GuardResponse](t, recorder)
	if response.Transcript != "Find the nearest gas station" {
		t.Errorf("Expected transcript in response, got '%s'", response.Transcript)
	}
	if response.Token == "" {
		t.Error("Expected a token for an allowed transcript")
	}
}

func TestAPI_Guard_BlockedAudio(t *testing.T) {
	fixture := setupTestAPI(t, nil)

	audio := []byte("fake-webm-bytes")
	fixture.transcriber.EXPECT().
		Transcribe(gomock.Any(), audio, "audio/webm", "whisper-1").
		Return("What medication should I take for a headache?", nil)

	recorder := postJSON(t, fixture.container, "/api/v1/guard", models.GuardRequest{
		Audio: base64.StdEncoding.EncodeToString(audio),
	})

	if recorder.Code != http.StatusForbidden {
		t.Fatalf("Expected status 403, got %d. Body: %s", recorder.Code, recorder.Body.String())
	}
	response := decode[models.GuardResponse](t, recorder)
	if !response.Blocked {
		t.Error("Expected blocked=true")
	}
	if response.Transcript != "What medication should I take for a headache?" {
		t.Errorf("Expected transcript in blocked response, got '%s'", response.Transcript)
	}
	if response.Token != "" {
		t.Error("Blocked response must not carry a token")
	}
}

func TestAPI_Guard_TranscriptionFailurePropagates(t *testing.T) {
	fixture := setupTestAPI(t, nil)

	audio := []byte("fake-webm-bytes")
	fixture.transcriber.EXPECT().
		Transcribe(gomock.Any(), audio, "audio/webm", "whisper-1").
		Return("", &openai.UpstreamError{Status: 413, Body: []byte(`{"error":{"message":"too large"}}`)})

	recorder := postJSON(t, fixture.container, "/api/v1/guard", models.GuardRequest{
		Audio: base64.StdEncoding.EncodeToString(audio),
	})

	if recorder.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("Expected status 413, got %d. Body: %s", recorder.Code, recorder.Body.String())
	}
	if recorder.Body.String() != `{"error":{"message":"too large"}}` {
		t.Errorf("Expected verbatim upstream body, got %q", recorder.Body.String())
	}
}

func TestAPI_Guard_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		body models.GuardRequest
	}{
		{
			name: "no text and no audio",
			body: models.GuardRequest{},
		},
		{
			name: "audio not base64",
			body: models.GuardRequest{Audio: "%%%not-base64%%%"},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			fixture := setupTestAPI(t, nil)
			recorder := postJSON(t, fixture.container, "/api/v1/guard", test.body)
			if recorder.Code != http.StatusBadRequest {
				t.Errorf("Expected status 400, got %d. Body: %s", recorder.Code, recorder.Body.String())
			}
		})
	}
}

func TestAPI_Guard_MissingSecretIs500(t *testing.T) {
	fixture := setupTestAPI(t, func(deps *api.Deps) {
		deps.Secret = nil
	})

	recorder := postJSON(t, fixture.container, "/api/v1/guard", models.GuardRequest{
		TextFields: models.TextFields{Text: "Find the nearest gas station"},
	})

	if recorder.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d. Body: %s", recorder.Code, recorder.Body.String())
	}
}

func TestAPI_Session_Success(t *testing.T) {
	fixture := setupTestAPI(t, nil)

	fixture.sessions.EXPECT().
		CreateRealtimeSession(gomock.Any(), openai.RealtimeSessionRequest{
			Model:        "gpt-4o-realtime-preview",
			Voice:        "alloy",
			Instructions: safety.Instructions,
		}).
		Return(&openai.RealtimeSession{
			ID:           "sess_123",
			Model:        "gpt-4o-realtime-preview",
			ClientSecret: "ek_abc",
			ExpiresAt:    time.Now().Add(time.Minute).Unix(),
		}, nil)

	token := mintTestToken(t)
	recorder := postJSON(t, fixture.container, "/api/v1/session", models.SessionRequest{Token: token})

	if recorder.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d. Body: %s", recorder.Code, recorder.Body.String())
	}
	response := decode[models.SessionResponse](t, recorder)
	if response.ClientSecret != "ek_abc" {
		t.Errorf("Expected client secret, got '%s'", response.ClientSecret)
	}
	if response.Voice != "alloy" {
		t.Errorf("Expected default voice 'alloy', got '%s'", response.Voice)
	}
}

func TestAPI_Session_VoiceOverride(t *testing.T) {
	fixture := setupTestAPI(t, nil)

	fixture.sessions.EXPECT().
		CreateRealtimeSession(gomock.Any(), openai.RealtimeSessionRequest{
			Model:        "gpt-4o-realtime-preview",
			Voice:        "verse",
			Instructions: safety.Instructions,
		}).
		Return(&openai.RealtimeSession{ClientSecret: "ek_abc"}, nil)

	recorder := postJSON(t, fixture.container, "/api/v1/session", models.SessionRequest{
		Token: mintTestToken(t),
		Voice: "verse",
	})

	if recorder.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d. Body: %s", recorder.Code, recorder.Body.String())
	}
}

func TestAPI_Session_TokenFailures(t *testing.T) {
	expired, err := guardtoken.Mint(guardtoken.Claim{
		Allowed:   true,
		ExpiresAt: time.Now().Add(-time.Minute).Unix(),
	}, testSecret)
	if err != nil {
		t.Fatalf("Mint failed: %v", err)
	}
	denied, err := guardtoken.Mint(guardtoken.Claim{
		Allowed:   true,
		ExpiresAt: time.Now().Add(time.Minute).Unix(),
	}, []byte("other-secret"))
	if err != nil {
		t.Fatalf("Mint failed: %v", err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{name: "missing token", token: ""},
		{name: "malformed token", token: "not-a-token"},
		{name: "expired token", token: expired},
		{name: "wrong secret", token: denied},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			// No session creator expectation: the upstream must not be called.
			fixture := setupTestAPI(t, nil)

			recorder := postJSON(t, fixture.container, "/api/v1/session", models.SessionRequest{Token: test.token})
			if recorder.Code != http.StatusForbidden {
				t.Fatalf("Expected status 403, got %d. Body: %s", recorder.Code, recorder.Body.String())
			}

			// Every failure mode yields the same opaque refusal.
			response := decode[models.BlockedResponse](t, recorder)
			if !response.Blocked {
				t.Error("Expected blocked=true")
			}
			if response.Error != "invalid guard token" {
				t.Errorf("Expected uniform token error, got '%s'", response.Error)
			}
		})
	}
}

func TestAPI_Session_ContentRecheckBeforeToken(t *testing.T) {
	fixture := setupTestAPI(t, nil)

	// Blocked text plus a garbage token: the content verdict must win.
	recorder := postJSON(t, fixture.container, "/api/v1/session", models.SessionRequest{
		TextFields: models.TextFields{Text: "What medication should I take?"},
		Token:      "garbage",
	})

	if recorder.Code != http.StatusForbidden {
		t.Fatalf("Expected status 403, got %d. Body: %s", recorder.Code, recorder.Body.String())
	}
	response := decode[models.BlockedResponse](t, recorder)
	if response.Error != "content policy violation" {
		t.Errorf("Expected content verdict to precede token check, got '%s'", response.Error)
	}
}

func TestAPI_Session_RecheckDoesNotBypassToken(t *testing.T) {
	fixture := setupTestAPI(t, nil)

	// Clean text is not a substitute for a valid token.
	recorder := postJSON(t, fixture.container, "/api/v1/session", models.SessionRequest{
		TextFields: models.TextFields{Text: "Navigate home"},
		Token:      "garbage",
	})

	if recorder.Code != http.StatusForbidden {
		t.Fatalf("Expected status 403, got %d. Body: %s", recorder.Code, recorder.Body.String())
	}
	response := decode[models.BlockedResponse](t, recorder)
	if response.Error != "invalid guard token" {
		t.Errorf("Expected token refusal, got '%s'", response.Error)
	}
}

func TestAPI_Session_UpstreamErrorsPropagate(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{
			name:       "upstream status and body verbatim",
			err:        &openai.UpstreamError{Status: 429, Body: []byte(`{"error":{"message":"rate limited"}}`)},
			wantStatus: http.StatusTooManyRequests,
			wantBody:   `{"error":{"message":"rate limited"}}`,
		},
		{
			name:       "timeout maps to 504",
			err:        context.DeadlineExceeded,
			wantStatus: http.StatusGatewayTimeout,
		},
		{
			name:       "transport failure maps to 502",
			err:        errTransport,
			wantStatus: http.StatusBadGateway,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			fixture := setupTestAPI(t, nil)
			fixture.sessions.EXPECT().
				CreateRealtimeSession(gomock.Any(), gomock.Any()).
				Return(nil, test.err)

			recorder := postJSON(t, fixture.container, "/api/v1/session", models.SessionRequest{Token: mintTestToken(t)})
			if recorder.Code != test.wantStatus {
				t.Fatalf("Expected status %d, got %d. Body: %s", test.wantStatus, recorder.Code, recorder.Body.String())
			}
			if test.wantBody != "" && recorder.Body.String() != test.wantBody {
				t.Errorf("Expected verbatim upstream body %q, got %q", test.wantBody, recorder.Body.String())
			}
		})
	}
}

func TestAPI_VoiceChat_BlockedIsStill200(t *testing.T) {
	fixture := setupTestAPI(t, nil)

	audio := []byte("fake-webm-bytes")
	fixture.transcriber.EXPECT().
		Transcribe(gomock.Any(), audio, "audio/webm", "whisper-1").
		Return("какие таблетки помогают от головной боли", nil)
	// No chat or synthesizer expectations: a blocked utterance never
	// reaches the upstream models.

	recorder := postJSON(t, fixture.container, "/api/v1/voice-chat", models.VoiceChatRequest{
		Audio: base64.StdEncoding.EncodeToString(audio),
	})

	if recorder.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d. Body: %s", recorder.Code, recorder.Body.String())
	}
	response := decode[models.VoiceChatResponse](t, recorder)
	if !response.Blocked {
		t.Error("Expected blocked=true")
	}
	if response.Reply != safety.Refusal {
		t.Errorf("Expected fixed refusal reply, got '%s'", response.Reply)
	}
	if response.Audio != "" {
		t.Error("Blocked reply must not carry synthesized audio")
	}
}

func TestAPI_VoiceChat_HappyPath(t *testing.T) {
	fixture := setupTestAPI(t, nil)

	audio := []byte("fake-wav-bytes")
	speech := []byte("fake-mp3-bytes")

	fixture.transcriber.EXPECT().
		Transcribe(gomock.Any(), audio, "audio/wav", "whisper-1").
		Return("Find the nearest gas station", nil)
	fixture.chat.EXPECT().
		Complete(gomock.Any(), llm.Request{
			System:      safety.Instructions,
			User:        "Find the nearest gas station",
			MaxTokens:   512,
			Temperature: 0.7,
		}).
		Return(&llm.Response{Content: "The nearest station is two kilometers ahead."}, nil)
	fixture.synthesizer.EXPECT().
		Synthesize(gomock.Any(), "The nearest station is two kilometers ahead.", "alloy", "mp3", "tts-1").
		Return(speech, nil)

	recorder := postJSON(t, fixture.container, "/api/v1/voice-chat", models.VoiceChatRequest{
		Audio:    base64.StdEncoding.EncodeToString(audio),
		MimeType: "audio/wav",
	})

	if recorder.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d. Body: %s", recorder.Code, recorder.Body.String())
	}
	response := decode[models.VoiceChatResponse](t, recorder)
	if response.Blocked {
		t.Error("Expected blocked=false")
	}
	if response.Reply != "The nearest station is two kilometers ahead." {
		t.Errorf("Unexpected reply: %s", response.Reply)
	}
	if response.Audio != base64.StdEncoding.EncodeToString(speech) {
		t.Error("Expected base64 synthesized audio in response")
	}
	if response.Format != "mp3" {
		t.Errorf("Expected format 'mp3', got '%s'", response.Format)
	}
}

func TestAPI_VoiceChat_ValidationErrors(t *testing.T) {
	t.Run("missing audio", func(t *testing.T) {
		fixture := setupTestAPI(t, nil)
		recorder := postJSON(t, fixture.container, "/api/v1/voice-chat", models.VoiceChatRequest{})
		if recorder.Code != http.StatusBadRequest {
			t.Errorf("Expected status 400, got %d. Body: %s", recorder.Code, recorder.Body.String())
		}
	})

	t.Run("empty transcript", func(t *testing.T) {
		fixture := setupTestAPI(t, nil)
		audio := []byte("silence")
		fixture.transcriber.EXPECT().
			Transcribe(gomock.Any(), audio, "audio/webm", "whisper-1").
			Return("   ", nil)

		recorder := postJSON(t, fixture.container, "/api/v1/voice-chat", models.VoiceChatRequest{
			Audio: base64.StdEncoding.EncodeToString(audio),
		})
		if recorder.Code != http.StatusBadRequest {
			t.Errorf("Expected status 400, got %d. Body: %s", recorder.Code, recorder.Body.String())
		}
	})
}

func TestAPI_VoiceChat_MissingChatClientIs500(t *testing.T) {
	fixture := setupTestAPI(t, func(deps *api.Deps) {
		deps.Chat = nil
	})

	recorder := postJSON(t, fixture.container, "/api/v1/voice-chat", models.VoiceChatRequest{Audio: "aGVsbG8="})
	if recorder.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d. Body: %s", recorder.Code, recorder.Body.String())
	}
}

var errTransport = errors.New("dial tcp: connection refused")

func mintTestToken(t *testing.T) string {
	t.Helper()
	token, err := guardtoken.Mint(guardtoken.NewClaim(time.Now(), guardtoken.TTL), testSecret)
	if err != nil {
		t.Fatalf("Mint failed: %v", err)
	}
	return token
}
