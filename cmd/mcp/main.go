package main

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/StasChekhov/carplay-backend/internal/mcpadapter"
	"github.com/StasChekhov/carplay-backend/internal/setup"
)

func main() {
	// Setup logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	logger := log.Logger

	// Load env
	_ = godotenv.Load()

	// Graceful shutdown on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := setup.LoadConfig()

	deps, err := setup.Wire(ctx, cfg, &logger)
	if err != nil {
		logger.Error().Err(err).Msg("Unable to wire dependencies")
		os.Exit(1)
	}

	server := createMCPServer(deps, []byte(cfg.GuardTokenSecret))

	// Run over stdio
	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil {
		// EOF / "server is closing" is expected when stdin closes
		if errors.Is(err, io.EOF) || strings.Contains(err.Error(), "server is closing") {
			logger.Debug().Err(err).Msg("MCP server stopped")
			return
		}
		logger.Error().Err(err).Msg("Failed to run mcp server")
		os.Exit(1)
	}
}

func createMCPServer(deps *setup.Dependencies, secret []byte) *mcp.Server {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "voice-gateway",
			Version: "1.0.0",
		}, nil,
	)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "classify_text",
		Description: "Classify text against the health/nutrition content policy; blocked text must not reach the assistant",
	}, mcpadapter.NewClassifyHandler(deps.Classifier))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "verify_guard_token",
		Description: "Check whether a guard token is authentic, allowed, and unexpired",
	}, mcpadapter.NewVerifyTokenHandler(secret))

	return server
}
