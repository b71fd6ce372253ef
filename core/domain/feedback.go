package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// FeedbackType is the kind of human review action on an automated response.
type FeedbackType string

const (
	FeedbackEdit    FeedbackType = "edit"
	FeedbackApprove FeedbackType = "approve"
	FeedbackReject  FeedbackType = "reject"
)

// ImprovementArea tags what an edited response improved over the original.
type ImprovementArea string

const (
	ImprovementTone         ImprovementArea = "tone"
	ImprovementAccuracy     ImprovementArea = "accuracy"
	ImprovementCompleteness ImprovementArea = "completeness"
	ImprovementPersonal     ImprovementArea = "personalization"
	ImprovementGrammar      ImprovementArea = "grammar"
)

var (
	ErrInvalidFeedbackType = errors.New("invalid feedback type")
	ErrRatingRequired      = errors.New("rating is required for approve/reject feedback")
	ErrRatingOutOfRange    = errors.New("rating must be between 1 and 5")
)

// Feedback is one human review action. Immutable after creation; read by
// the training ingestor to build dataset examples.
type Feedback struct {
	ID               string            `json:"id" bson:"_id,omitempty"`
	Owner            uuid.UUID         `json:"owner" bson:"owner"`
	AutomatedEmailID string            `json:"automated_email_id" bson:"automated_email_id"`
	OriginalResponse string            `json:"original_response" bson:"original_response"`
	ImprovedResponse string            `json:"improved_response,omitempty" bson:"improved_response,omitempty"`
	Type             FeedbackType      `json:"feedback_type" bson:"feedback_type"`
	Rating           int               `json:"rating,omitempty" bson:"rating,omitempty"`
	Notes            string            `json:"notes,omitempty" bson:"notes,omitempty"`
	Improvements     []ImprovementArea `json:"improvements,omitempty" bson:"improvements,omitempty"`
	CreatedAt        time.Time         `json:"created_at" bson:"created_at"`
}

// Validate checks the type/rating invariants before persistence.
func (f *Feedback) Validate() error {
	switch f.Type {
	case FeedbackEdit:
	case FeedbackApprove, FeedbackReject:
		if f.Rating == 0 {
			return ErrRatingRequired
		}
	default:
		return ErrInvalidFeedbackType
	}
	if f.Rating != 0 && (f.Rating < 1 || f.Rating > 5) {
		return ErrRatingOutOfRange
	}
	return nil
}

// IsPositive reports whether the feedback counts as a positive preference
// example for training.
func (f *Feedback) IsPositive() bool {
	return f.Type == FeedbackApprove
}
