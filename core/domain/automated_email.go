package domain

import (
	"time"

	"github.com/google/uuid"
)

// Category is the intent assigned to an inbound message by the classifier.
type Category string

const (
	CategoryProductInquiry    Category = "product_inquiry"
	CategoryCustomerComplaint Category = "customer_complaint"
	CategoryCustomerFeedback  Category = "customer_feedback"
	CategoryUnrelated         Category = "unrelated"
)

// categoryPriority fixes the keyword matching order: when a classifier
// response mentions several categories, the first one in this list wins.
var categoryPriority = []Category{
	CategoryProductInquiry,
	CategoryCustomerComplaint,
	CategoryCustomerFeedback,
}

// CategoryPriority returns categories in classification priority order,
// excluding the unrelated fallback.
func CategoryPriority() []Category {
	return categoryPriority
}

// IsValid reports whether c is one of the known categories.
func (c Category) IsValid() bool {
	switch c {
	case CategoryProductInquiry, CategoryCustomerComplaint, CategoryCustomerFeedback, CategoryUnrelated:
		return true
	}
	return false
}

// AutomatedEmail is the persisted record of one pipeline run over one
// inbound message. At most one record exists per (owner, message_id);
// the repository enforces this with a unique index.
type AutomatedEmail struct {
	ID                string         `json:"id" bson:"_id,omitempty"`
	Owner             uuid.UUID      `json:"owner" bson:"owner"`
	MessageID         string         `json:"message_id" bson:"message_id"`
	Subject           string         `json:"subject" bson:"subject"`
	From              string         `json:"from" bson:"from"`
	To                string         `json:"to" bson:"to"`
	ReceivedDate      time.Time      `json:"received_date" bson:"received_date"`
	Category          Category       `json:"category" bson:"category"`
	ResponseGenerated bool           `json:"response_generated" bson:"response_generated"`
	ResponseSent      bool           `json:"response_sent" bson:"response_sent"`
	ResponseText      string         `json:"response_text,omitempty" bson:"response_text,omitempty"`
	ResponseDate      *time.Time     `json:"response_date,omitempty" bson:"response_date,omitempty"`
	NeedsHumanReview  bool           `json:"needs_human_review" bson:"needs_human_review"`
	Metadata          map[string]any `json:"metadata,omitempty" bson:"metadata,omitempty"`
	CreatedAt         time.Time      `json:"created_at" bson:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at" bson:"updated_at"`
}

// MarkReviewed is applied when a human sends a held response.
func (e *AutomatedEmail) MarkReviewed(text string, sentAt time.Time) {
	e.ResponseText = text
	e.ResponseSent = true
	e.NeedsHumanReview = false
	e.ResponseDate = &sentAt
	e.UpdatedAt = sentAt
}
