// Package audit publishes gate outcomes to a redis stream for offline
// review. Publishing is strictly fire-and-forget: the gate never blocks on,
// or fails because of, the audit channel.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Outcome values recorded per request.
const (
	OutcomeAllowed      = "allowed"
	OutcomeBlocked      = "blocked"
	OutcomeTokenInvalid = "token_invalid"
)

// Event is one gate decision. Text stays empty unless the publisher was
// explicitly configured to record it: transcripts are ephemeral by default.
type Event struct {
	RequestID string    `json:"request_id"`
	Endpoint  string    `json:"endpoint"`
	Outcome   string    `json:"outcome"`
	Category  string    `json:"category,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	Text      string    `json:"text,omitempty"`
	At        time.Time `json:"at"`
}

type Publisher interface {
	Publish(event Event)
}

// Nop discards events. Used when no redis address is configured.
type Nop struct{}

func (Nop) Publish(Event) {}

// StreamPublisher appends events to a redis stream with XADD.
type StreamPublisher struct {
	client  *redis.Client
	stream  string
	logText bool
	logger  *zerolog.Logger
}

func NewStreamPublisher(client *redis.Client, stream string, logText bool, logger *zerolog.Logger) *StreamPublisher {
	return &StreamPublisher{
		client:  client,
		stream:  stream,
		logText: logText,
		logger:  logger,
	}
}

func (p *StreamPublisher) Publish(event Event) {
	if !p.logText {
		event.Text = ""
	}
	if event.At.IsZero() {
		event.At = time.Now()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Error().Err(err).Msg("Failed to serialize audit event")
		return
	}

	// Detached from the request context so a cancelled request still gets
	// its event recorded, with a bound of its own.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err = p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]interface{}{"payload": payload},
	}).Err()
	if err != nil {
		p.logger.Warn().Err(err).Str("stream", p.stream).Msg("Failed to publish audit event")
	}
}
