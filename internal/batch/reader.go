// Package batch runs the classifier over JSONL utterance files, for
// offline regression runs against the pattern catalog.
package batch

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
)

// Record is one utterance to classify.
type Record struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// RecordResult pairs a parsed record with its parse error, if any. Bad
// lines are reported, not fatal: one typo must not abort a long run.
type RecordResult struct {
	Record Record
	Error  error
}

type Reader struct {
	file   io.Reader
	logger *zerolog.Logger
}

func NewReader(file io.Reader, logger *zerolog.Logger) *Reader {
	return &Reader{
		file:   file,
		logger: logger,
	}
}

// ReadAll streams records line by line. The channel closes on EOF or when
// the context is cancelled.
func (r *Reader) ReadAll(ctx context.Context) <-chan RecordResult {
	out := make(chan RecordResult)

	go func() {
		defer close(out)

		scanner := bufio.NewScanner(r.file)
		scanner.Buffer(make([]byte, 1024*1024), 1024*1024)

		lineNo := 0
		for scanner.Scan() {
			lineNo++
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}

			var record Record
			result := RecordResult{}
			if err := json.Unmarshal([]byte(line), &record); err != nil {
				result.Error = fmt.Errorf("line %d: %w", lineNo, err)
			} else {
				result.Record = record
			}

			select {
			case out <- result:
			case <-ctx.Done():
				return
			}
		}

		if err := scanner.Err(); err != nil {
			r.logger.Error().Err(err).Msg("Failed to read input file")
		}
	}()

	return out
}
