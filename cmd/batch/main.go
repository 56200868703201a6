package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/StasChekhov/carplay-backend/internal/batch"
	"github.com/StasChekhov/carplay-backend/internal/classifier"
)

// Classifies a JSONL file of utterances offline, to regression-test the
// pattern catalog before rolling an override out to the gateway.
func main() {
	startTime := time.Now()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	logger := log.Logger

	input := flag.String("input", "", "Input JSONL file with {id, text} records")
	output := flag.String("output", "", "Output JSONL file (default: stdout)")
	tier := flag.String("tier", "broad", "Classifier tier: narrow or broad")
	patterns := flag.String("patterns", "", "Optional pattern catalog override (YAML)")
	workers := flag.Int("workers", 5, "Concurrent classifier workers")
	flag.Parse()

	if *input == "" {
		log.Fatal().Msg("required flag -input not provided")
	}

	_ = godotenv.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	catalog := classifier.DefaultCatalog()
	if *patterns != "" {
		loaded, err := classifier.LoadCatalog(*patterns)
		if err != nil {
			log.Fatal().Err(err).Str("path", *patterns).Msg("Failed to load pattern catalog")
		}
		catalog = loaded
	}
	cls := classifier.New(catalog, classifier.Tier(*tier))

	in, err := os.Open(*input)
	if err != nil {
		log.Fatal().Err(err).Str("path", *input).Msg("Failed to open input file")
	}
	defer in.Close()

	out := os.Stdout
	if *output != "" {
		out, err = os.Create(*output)
		if err != nil {
			log.Fatal().Err(err).Str("path", *output).Msg("Failed to create output file")
		}
		defer out.Close()
	}

	reader := batch.NewReader(in, &logger)
	runner := batch.NewRunner(cls, *workers, &logger)

	encoder := json.NewEncoder(out)
	total, blocked, failed := 0, 0, 0
	for result := range runner.Run(ctx, reader.ReadAll(ctx)) {
		total++
		if result.Blocked {
			blocked++
		}
		if result.Error != "" {
			failed++
		}
		if err := encoder.Encode(result); err != nil {
			log.Fatal().Err(err).Msg("Failed to write result")
		}
	}

	log.Info().
		Int("total", total).
		Int("blocked", blocked).
		Int("failed", failed).
		Dur("duration", time.Since(startTime)).
		Msg("Batch classification complete")
}
