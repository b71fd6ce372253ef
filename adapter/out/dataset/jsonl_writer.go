// Package dataset persists training examples as line-delimited JSON
// files, the format the fine-tuning API consumes directly.
package dataset

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/goccy/go-json"

	"github.com/Mr-Baga08/ai-email-marketing-sub001/core/port/out"
)

const (
	comparisonFile = "comparison_dataset.jsonl"
	preferenceFile = "preference_dataset.jsonl"
)

// JSONLWriter implements out.DatasetWriter on two append-only files
// under a single directory. Appends are serialized by a mutex; the line
// counts are kept in memory after an initial scan so TotalExamples does
// not reread the files on every call.
type JSONLWriter struct {
	dir string

	mu      sync.Mutex
	counted bool
	total   int
}

var _ out.DatasetWriter = (*JSONLWriter)(nil)

func NewJSONLWriter(dir string) (*JSONLWriter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating dataset directory %s: %w", dir, err)
	}
	return &JSONLWriter{dir: dir}, nil
}

func (w *JSONLWriter) AppendComparison(ctx context.Context, ex *out.ComparisonExample) error {
	return w.appendLine(comparisonFile, ex)
}

func (w *JSONLWriter) AppendPreference(ctx context.Context, ex *out.PreferenceExample) error {
	return w.appendLine(preferenceFile, ex)
}

// TotalExamples returns the combined line count of both files.
func (w *JSONLWriter) TotalExamples(ctx context.Context) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.ensureCounted(); err != nil {
		return 0, err
	}
	return w.total, nil
}

// ComparisonPath is the file handed to the fine-tuner.
func (w *JSONLWriter) ComparisonPath() string {
	return filepath.Join(w.dir, comparisonFile)
}

func (w *JSONLWriter) appendLine(name string, record any) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshalling dataset example: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.ensureCounted(); err != nil {
		return err
	}

	path := filepath.Join(w.dir, name)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening dataset file %s: %w", path, err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("appending to dataset file %s: %w", path, err)
	}
	w.total++
	return nil
}

// ensureCounted scans existing files once so counts survive restarts.
// Caller holds the lock.
func (w *JSONLWriter) ensureCounted() error {
	if w.counted {
		return nil
	}
	total := 0
	for _, name := range []string{comparisonFile, preferenceFile} {
		n, err := countLines(filepath.Join(w.dir, name))
		if err != nil {
			return err
		}
		total += n
	}
	w.total = total
	w.counted = true
	return nil
}

func countLines(path string) (int, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("opening dataset file %s: %w", path, err)
	}
	defer f.Close()

	count := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		if len(scanner.Bytes()) > 0 {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("counting lines in %s: %w", path, err)
	}
	return count, nil
}
