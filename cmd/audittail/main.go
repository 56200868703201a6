package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/StasChekhov/carplay-backend/internal/audit"
	red "github.com/StasChekhov/carplay-backend/internal/redis"
	"github.com/StasChekhov/carplay-backend/internal/setup/logger"
)

// Tails the gate's audit stream and prints one structured line per verdict.
func main() {
	lg := logger.New(os.Getenv("LOG_LEVEL"))
	log.Logger = lg

	_ = godotenv.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	stream := os.Getenv("AUDIT_STREAM")
	if stream == "" {
		stream = "gate-verdicts"
	}
	consumerName := os.Getenv("HOSTNAME")
	if consumerName == "" {
		consumerName = "audittail"
	}

	client, err := red.ConnectRedis(ctx, addr, os.Getenv("REDIS_PASSWORD"), 5)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer client.Close()

	consumer := audit.NewConsumer(client, stream, "audit-tail", consumerName, printEvent, &lg)

	if err := consumer.Setup(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to set up consumer group")
	}
	if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("Audit consumer failed")
	}
}

func printEvent(event audit.Event) {
	log.Info().
		Time("at", event.At).
		Str("request_id", event.RequestID).
		Str("endpoint", event.Endpoint).
		Str("outcome", event.Outcome).
		Str("category", event.Category).
		Str("reason", event.Reason).
		Msg("Gate verdict")
}
