package training

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Mr-Baga08/ai-email-marketing-sub001/core/domain"
	"github.com/Mr-Baga08/ai-email-marketing-sub001/core/port/out"
)

type fakeWriter struct {
	mu          sync.Mutex
	comparisons []*out.ComparisonExample
	preferences []*out.PreferenceExample
}

func (f *fakeWriter) AppendComparison(ctx context.Context, ex *out.ComparisonExample) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.comparisons = append(f.comparisons, ex)
	return nil
}

func (f *fakeWriter) AppendPreference(ctx context.Context, ex *out.PreferenceExample) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.preferences = append(f.preferences, ex)
	return nil
}

func (f *fakeWriter) TotalExamples(ctx context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.comparisons) + len(f.preferences), nil
}

func (f *fakeWriter) ComparisonPath() string { return "comparison_dataset.jsonl" }

func (f *fakeWriter) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.comparisons) + len(f.preferences)
}

type fakeTuner struct {
	mu     sync.Mutex
	starts []string
	block  chan struct{} // when non-nil, StartFineTune waits on it
}

func (f *fakeTuner) StartFineTune(ctx context.Context, datasetPath string) (string, error) {
	f.mu.Lock()
	f.starts = append(f.starts, datasetPath)
	block := f.block
	f.mu.Unlock()
	if block != nil {
		<-block
	}
	return "job-1", nil
}

func (f *fakeTuner) startCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.starts)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func editFeedback() *domain.Feedback {
	return &domain.Feedback{
		ID:               uuid.NewString(),
		Owner:            uuid.New(),
		OriginalResponse: "draft",
		ImprovedResponse: "better draft",
		Type:             domain.FeedbackEdit,
		Improvements:     []domain.ImprovementArea{domain.ImprovementTone},
		CreatedAt:        time.Now().UTC(),
	}
}

func approveFeedback(rating int) *domain.Feedback {
	return &domain.Feedback{
		ID:               uuid.NewString(),
		Owner:            uuid.New(),
		OriginalResponse: "draft",
		Type:             domain.FeedbackApprove,
		Rating:           rating,
		CreatedAt:        time.Now().UTC(),
	}
}

func exampleEmail() *domain.AutomatedEmail {
	return &domain.AutomatedEmail{
		ID:      uuid.New().String(),
		Subject: "Pricing question",
		Metadata: map[string]any{
			"body_excerpt": "How much is the premium plan?",
		},
	}
}

func TestIngestorRoutesExamplesByFeedbackType(t *testing.T) {
	writer := &fakeWriter{}
	ing := NewIngestor(writer, &fakeTuner{}, 50)
	ing.Start()

	ing.Submit(editFeedback(), exampleEmail())
	ing.Submit(approveFeedback(5), exampleEmail())
	ing.Close()

	if len(writer.comparisons) != 1 {
		t.Fatalf("expected 1 comparison example, got %d", len(writer.comparisons))
	}
	if len(writer.preferences) != 1 {
		t.Fatalf("expected 1 preference example, got %d", len(writer.preferences))
	}

	comp := writer.comparisons[0]
	if comp.OriginalResponse != "draft" || comp.ImprovedResponse != "better draft" {
		t.Error("comparison example must carry both response versions")
	}
	if len(comp.ImprovementAreas) != 1 || comp.ImprovementAreas[0] != "tone" {
		t.Errorf("unexpected improvement areas %v", comp.ImprovementAreas)
	}
	if comp.Query != "Pricing question\n\nHow much is the premium plan?" {
		t.Errorf("unexpected query %q", comp.Query)
	}

	pref := writer.preferences[0]
	if !pref.IsPositive || pref.Rating != 5 {
		t.Errorf("approve feedback must yield a positive example, got %+v", pref)
	}
}

func TestIngestorRejectCountsAsNegative(t *testing.T) {
	writer := &fakeWriter{}
	ing := NewIngestor(writer, &fakeTuner{}, 50)
	ing.Start()

	fb := approveFeedback(1)
	fb.Type = domain.FeedbackReject
	ing.Submit(fb, exampleEmail())
	ing.Close()

	if len(writer.preferences) != 1 {
		t.Fatalf("expected 1 preference example, got %d", len(writer.preferences))
	}
	if writer.preferences[0].IsPositive {
		t.Error("reject feedback must yield a negative example")
	}
}

func TestIngestorTriggersCycleOnBatchBoundary(t *testing.T) {
	writer := &fakeWriter{}
	tuner := &fakeTuner{}
	ing := NewIngestor(writer, tuner, 2)
	ing.Start()

	ing.Submit(approveFeedback(4), exampleEmail())
	ing.Submit(approveFeedback(4), exampleEmail())
	waitFor(t, func() bool { return writer.total() == 2 })
	if tuner.startCount() != 0 {
		t.Fatalf("no cycle expected at exactly batch size, got %d", tuner.startCount())
	}

	// The batchSize+1-th example crosses the boundary.
	ing.Submit(approveFeedback(4), exampleEmail())
	ing.Close()

	if tuner.startCount() != 1 {
		t.Fatalf("expected 1 training cycle, got %d", tuner.startCount())
	}
	if tuner.starts[0] != writer.ComparisonPath() {
		t.Errorf("cycle must receive the comparison dataset, got %q", tuner.starts[0])
	}
}

func TestIngestorCoalescesBoundariesDuringActiveCycle(t *testing.T) {
	writer := &fakeWriter{}
	tuner := &fakeTuner{block: make(chan struct{})}
	ing := NewIngestor(writer, tuner, 2)
	ing.Start()

	// Cross the first boundary; the cycle blocks inside the tuner.
	for i := 0; i < 3; i++ {
		ing.Submit(approveFeedback(3), exampleEmail())
	}
	waitFor(t, func() bool { return tuner.startCount() == 1 })

	// Cross the next boundary while the cycle is still running.
	ing.Submit(approveFeedback(3), exampleEmail())
	ing.Submit(approveFeedback(3), exampleEmail())
	waitFor(t, func() bool { return writer.total() == 5 })

	if tuner.startCount() != 1 {
		t.Fatalf("boundary during an active cycle must be absorbed, got %d cycles", tuner.startCount())
	}
	if !ing.Training() {
		t.Error("the ingestor must report an active cycle")
	}

	close(tuner.block)
	ing.Close()

	if tuner.startCount() != 1 {
		t.Fatalf("no queued cycle expected after the active one finishes, got %d", tuner.startCount())
	}
	if ing.Training() {
		t.Error("the training flag must clear after the cycle")
	}
}
