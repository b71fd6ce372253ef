package out

import (
	"context"
	"time"
)

// ComparisonExample pairs an original automated response with a human
// improvement. Built from edit feedback.
type ComparisonExample struct {
	Query            string    `json:"query"`
	OriginalResponse string    `json:"original_response"`
	ImprovedResponse string    `json:"improved_response"`
	ImprovementAreas []string  `json:"improvement_areas,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// PreferenceExample records whether a response was acceptable as-is.
// Built from approve/reject feedback.
type PreferenceExample struct {
	Query      string    `json:"query"`
	Response   string    `json:"response"`
	IsPositive bool      `json:"is_positive"`
	Rating     int       `json:"rating"`
	Notes      string    `json:"notes,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// DatasetWriter is an append-only line-delimited record store partitioned
// into a comparison file and a preference file. Appends must be
// serialized by the caller (the training ingestor's FIFO queue).
type DatasetWriter interface {
	AppendComparison(ctx context.Context, ex *ComparisonExample) error
	AppendPreference(ctx context.Context, ex *PreferenceExample) error
	// TotalExamples returns the combined line count of both files.
	TotalExamples(ctx context.Context) (int, error)
	// ComparisonPath is the file handed to the fine-tuner.
	ComparisonPath() string
}
