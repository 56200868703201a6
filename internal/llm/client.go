package llm

import (
	"context"
)

// Client is the chat collaborator interface: one system prompt, one user
// utterance, one reply. Implementations exist for the OpenAI chat API and
// for Claude on Bedrock; tests substitute fakes.
type Client interface {
	Complete(ctx context.Context, request Request) (*Response, error)
}
