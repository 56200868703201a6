package batch

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/StasChekhov/carplay-backend/internal/classifier"
)

// Result is one classified utterance, written back out as JSONL.
type Result struct {
	ID       string `json:"id"`
	Text     string `json:"text,omitempty"`
	Blocked  bool   `json:"blocked"`
	Category string `json:"category,omitempty"`
	Term     string `json:"term,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Runner fans records out to a fixed pool of classifier workers.
type Runner struct {
	classifier *classifier.Classifier
	workers    int
	logger     *zerolog.Logger
}

func NewRunner(cls *classifier.Classifier, workers int, logger *zerolog.Logger) *Runner {
	if workers < 1 {
		workers = 1
	}
	return &Runner{
		classifier: cls,
		workers:    workers,
		logger:     logger,
	}
}

// Run consumes records until the input channel closes and emits one result
// per record. Output order is not the input order.
func (r *Runner) Run(ctx context.Context, records <-chan RecordResult) <-chan Result {
	out := make(chan Result)

	var wg sync.WaitGroup
	for range r.workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for rec := range records {
				result := r.classify(rec)
				select {
				case out <- result:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(out)
	}()

	return out
}

func (r *Runner) classify(rec RecordResult) Result {
	if rec.Error != nil {
		return Result{Error: rec.Error.Error()}
	}

	verdict := r.classifier.Classify(rec.Record.Text)
	return Result{
		ID:       rec.Record.ID,
		Text:     rec.Record.Text,
		Blocked:  verdict.Blocked,
		Category: verdict.Category,
		Term:     verdict.Term,
	}
}
