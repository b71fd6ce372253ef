// Package training turns human feedback into fine-tuning datasets and
// kicks off retraining cycles as the datasets grow.
package training

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Mr-Baga08/ai-email-marketing-sub001/core/domain"
	"github.com/Mr-Baga08/ai-email-marketing-sub001/core/port/out"
	"github.com/Mr-Baga08/ai-email-marketing-sub001/pkg/logger"
)

const defaultQueueSize = 256

type submission struct {
	feedback *domain.Feedback
	email    *domain.AutomatedEmail
}

// Ingestor consumes feedback submissions on a single goroutine, appends
// dataset examples in FIFO order, and triggers a fine-tuning cycle each
// time the dataset crosses a batch-size boundary.
//
// At most one training cycle runs at a time: examples that arrive while
// a cycle is in progress are appended normally but trigger nothing, and
// their boundary is picked up by the count check after the next append
// once training has finished.
type Ingestor struct {
	writer    out.DatasetWriter
	tuner     out.FineTuner
	batchSize int

	queue chan submission
	wg    sync.WaitGroup

	training atomic.Bool
	cycleWG  sync.WaitGroup
}

func NewIngestor(writer out.DatasetWriter, tuner out.FineTuner, batchSize int) *Ingestor {
	if batchSize <= 0 {
		batchSize = 50
	}
	return &Ingestor{
		writer:    writer,
		tuner:     tuner,
		batchSize: batchSize,
		queue:     make(chan submission, defaultQueueSize),
	}
}

// Start launches the consumer goroutine. Run once.
func (ing *Ingestor) Start() {
	ing.wg.Add(1)
	go ing.consume()
}

// Close drains the queue, waits for any running training cycle, and
// returns. No submissions may happen after Close.
func (ing *Ingestor) Close() {
	close(ing.queue)
	ing.wg.Wait()
	ing.cycleWG.Wait()
}

// Submit enqueues one feedback record for dataset emission. Non-blocking
// from the caller's perspective unless the queue is full, which only
// happens when the dataset volume far outpaces disk writes.
func (ing *Ingestor) Submit(fb *domain.Feedback, email *domain.AutomatedEmail) {
	ing.queue <- submission{feedback: fb, email: email}
}

// Training reports whether a fine-tuning cycle is currently running.
func (ing *Ingestor) Training() bool {
	return ing.training.Load()
}

func (ing *Ingestor) consume() {
	defer ing.wg.Done()
	for sub := range ing.queue {
		ing.ingest(sub)
	}
}

func (ing *Ingestor) ingest(sub submission) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	fb := sub.feedback
	log := logger.WithField("owner", fb.Owner.String())

	before, err := ing.writer.TotalExamples(ctx)
	if err != nil {
		log.WithError(err).Error("reading dataset size failed, skipping feedback %s", fb.ID)
		return
	}

	if err := ing.append(ctx, sub); err != nil {
		log.WithError(err).Error("appending dataset example failed for feedback %s", fb.ID)
		return
	}
	after := before + 1

	// A cycle fires when the append crosses a batch boundary: the
	// batchSize+1-th example starts the first cycle. Boundaries crossed
	// while a cycle is running are absorbed; the flag check keeps cycles
	// serialized without queueing them.
	if (after-1)/ing.batchSize <= (before-1)/ing.batchSize {
		return
	}
	if !ing.training.CompareAndSwap(false, true) {
		log.Info("dataset reached %d examples during an active training cycle, not queueing another", after)
		return
	}

	log.Info("dataset reached %d examples, starting fine-tuning cycle", after)
	ing.cycleWG.Add(1)
	go ing.runCycle()
}

func (ing *Ingestor) append(ctx context.Context, sub submission) error {
	fb := sub.feedback
	query := exampleQuery(sub.email)

	if fb.Type == domain.FeedbackEdit {
		areas := make([]string, 0, len(fb.Improvements))
		for _, a := range fb.Improvements {
			areas = append(areas, string(a))
		}
		return ing.writer.AppendComparison(ctx, &out.ComparisonExample{
			Query:            query,
			OriginalResponse: fb.OriginalResponse,
			ImprovedResponse: fb.ImprovedResponse,
			ImprovementAreas: areas,
			CreatedAt:        fb.CreatedAt,
		})
	}

	return ing.writer.AppendPreference(ctx, &out.PreferenceExample{
		Query:      query,
		Response:   fb.OriginalResponse,
		IsPositive: fb.IsPositive(),
		Rating:     fb.Rating,
		Notes:      fb.Notes,
		CreatedAt:  fb.CreatedAt,
	})
}

func (ing *Ingestor) runCycle() {
	defer ing.cycleWG.Done()
	defer ing.training.Store(false)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	jobID, err := ing.tuner.StartFineTune(ctx, ing.writer.ComparisonPath())
	if err != nil {
		logger.WithError(err).Error("fine-tuning cycle failed")
		return
	}
	logger.Info("fine-tuning cycle finished, job %s", jobID)
}

// exampleQuery reconstructs the customer query a response answered:
// subject plus the stored body excerpt when the pipeline kept one.
func exampleQuery(email *domain.AutomatedEmail) string {
	if email == nil {
		return ""
	}
	query := email.Subject
	if email.Metadata != nil {
		if excerpt, ok := email.Metadata["body_excerpt"].(string); ok && excerpt != "" {
			if query != "" {
				query += "\n\n"
			}
			query += excerpt
		}
	}
	return query
}
