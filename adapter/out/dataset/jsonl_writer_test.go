package dataset

import (
	"bufio"
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/Mr-Baga08/ai-email-marketing-sub001/core/port/out"
)

func TestAppendAndCount(t *testing.T) {
	dir := t.TempDir()
	w, err := NewJSONLWriter(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx := context.Background()
	total, err := w.TotalExamples(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 0 {
		t.Errorf("expected an empty dataset, got %d", total)
	}

	err = w.AppendComparison(ctx, &out.ComparisonExample{
		Query:            "pricing",
		OriginalResponse: "draft",
		ImprovedResponse: "better draft",
		CreatedAt:        time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err = w.AppendPreference(ctx, &out.PreferenceExample{
		Query:      "pricing",
		Response:   "draft",
		IsPositive: true,
		Rating:     5,
		CreatedAt:  time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	total, err = w.TotalExamples(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 2 {
		t.Errorf("expected 2 examples, got %d", total)
	}
}

func TestAppendWritesValidJSONLines(t *testing.T) {
	dir := t.TempDir()
	w, err := NewJSONLWriter(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		err := w.AppendComparison(ctx, &out.ComparisonExample{
			Query:            "query",
			OriginalResponse: "a",
			ImprovedResponse: "b",
			ImprovementAreas: []string{"tone"},
		})
		if err != nil {
			t.Fatalf("append %d failed: %v", i, err)
		}
	}

	f, err := os.Open(w.ComparisonPath())
	if err != nil {
		t.Fatalf("opening dataset file: %v", err)
	}
	defer f.Close()

	lines := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var ex out.ComparisonExample
		if err := json.Unmarshal(scanner.Bytes(), &ex); err != nil {
			t.Fatalf("line %d is not valid JSON: %v", lines, err)
		}
		if ex.Query != "query" || ex.ImprovedResponse != "b" {
			t.Errorf("line %d round-tripped wrong: %+v", lines, ex)
		}
		lines++
	}
	if lines != 3 {
		t.Errorf("expected 3 lines, got %d", lines)
	}
}

func TestCountSurvivesRestart(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	w1, err := NewJSONLWriter(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 4; i++ {
		if err := w1.AppendPreference(ctx, &out.PreferenceExample{Query: "q", Response: "r"}); err != nil {
			t.Fatalf("append failed: %v", err)
		}
	}

	// A new writer over the same directory must pick up the existing count.
	w2, err := NewJSONLWriter(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	total, err := w2.TotalExamples(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 4 {
		t.Errorf("expected 4 examples after restart, got %d", total)
	}
}

func TestComparisonPathIsStable(t *testing.T) {
	dir := t.TempDir()
	w, err := NewJSONLWriter(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(w.ComparisonPath(), dir) {
		t.Errorf("comparison path %q must live under the dataset dir", w.ComparisonPath())
	}
	if !strings.HasSuffix(w.ComparisonPath(), ".jsonl") {
		t.Errorf("expected a .jsonl file, got %q", w.ComparisonPath())
	}
}
