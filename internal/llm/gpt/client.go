package gpt

import (
	"context"
	"fmt"

	"github.com/StasChekhov/carplay-backend/internal/llm"
	"github.com/StasChekhov/carplay-backend/internal/openai"
)

// Client adapts the shared OpenAI HTTP client to the llm.Client interface.
type Client struct {
	api     *openai.Client
	modelID string
}

func NewClient(api *openai.Client, model string) (*Client, error) {
	if api == nil {
		return nil, fmt.Errorf("OpenAI client is required")
	}
	if model == "" {
		return nil, fmt.Errorf("OpenAI model ID is required")
	}
	return &Client{
		api:     api,
		modelID: model,
	}, nil
}

func (c *Client) Complete(ctx context.Context, request llm.Request) (*llm.Response, error) {
	content, err := c.api.ChatComplete(ctx, request.System, request.User, c.modelID, request.MaxTokens, request.Temperature)
	if err != nil {
		return nil, err
	}
	return &llm.Response{
		Content:    content,
		StopReason: "stop",
	}, nil
}
