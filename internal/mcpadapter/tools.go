// Package mcpadapter exposes the safety gate as MCP tools so other agents
// can pre-screen text and inspect guard tokens without going through HTTP.
package mcpadapter

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/StasChekhov/carplay-backend/internal/classifier"
	"github.com/StasChekhov/carplay-backend/internal/guardtoken"
)

// ClassifyInput is the MCP tool input schema for text classification.
type ClassifyInput struct {
	Text string `json:"text" jsonschema:"text to classify against the content policy"`
}

// ClassifyOutput mirrors the HTTP guard verdict.
type ClassifyOutput struct {
	Blocked  bool   `json:"blocked"`
	Category string `json:"category,omitempty"`
}

// VerifyTokenInput is the MCP tool input schema for guard token checks.
type VerifyTokenInput struct {
	Token string `json:"token" jsonschema:"guard token to verify"`
}

// VerifyTokenOutput reports only validity, never the failure mode.
type VerifyTokenOutput struct {
	Valid bool `json:"valid"`
}

// NewClassifyHandler returns a tool handler bound to the given classifier.
// Pass the returned function to mcp.AddTool.
func NewClassifyHandler(cls *classifier.Classifier) func(context.Context, *mcp.CallToolRequest, ClassifyInput) (*mcp.CallToolResult, ClassifyOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ClassifyInput) (*mcp.CallToolResult, ClassifyOutput, error) {
		verdict := cls.Classify(input.Text)
		return nil, ClassifyOutput{
			Blocked:  verdict.Blocked,
			Category: verdict.Category,
		}, nil
	}
}

// NewVerifyTokenHandler returns a tool handler that checks guard tokens
// against the configured signing secret.
func NewVerifyTokenHandler(secret []byte) func(context.Context, *mcp.CallToolRequest, VerifyTokenInput) (*mcp.CallToolResult, VerifyTokenOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input VerifyTokenInput) (*mcp.CallToolResult, VerifyTokenOutput, error) {
		err := guardtoken.CheckAt(input.Token, secret, time.Now())
		return nil, VerifyTokenOutput{Valid: err == nil}, nil
	}
}
