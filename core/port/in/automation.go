// Package in defines inbound ports (driving ports) for the application.
package in

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Mr-Baga08/ai-email-marketing-sub001/core/domain"
)

// MonitorStatus describes one owner's automation state.
type MonitorStatus struct {
	Owner           uuid.UUID  `json:"owner"`
	Running         bool       `json:"running"`
	Enabled         bool       `json:"enabled"`
	IntervalMinutes int        `json:"interval_minutes"`
	LastTick        *time.Time `json:"last_tick,omitempty"`
	PendingReview   int        `json:"pending_review"`
}

// AutomationService is the inbound port for the email automation feature:
// monitor lifecycle, run history, human review, and feedback submission.
type AutomationService interface {
	Start(ctx context.Context, owner uuid.UUID, intervalMinutes int) error
	Stop(ctx context.Context, owner uuid.UUID) error
	Status(ctx context.Context, owner uuid.UUID) (*MonitorStatus, error)
	History(ctx context.Context, owner uuid.UUID, limit, offset int) ([]*domain.AutomatedEmail, int, error)
	PendingReview(ctx context.Context, owner uuid.UUID) ([]*domain.AutomatedEmail, error)
	SendHeldResponse(ctx context.Context, owner uuid.UUID, emailID, text string) error
	SubmitFeedback(ctx context.Context, fb *domain.Feedback) error
}

// KnowledgeService is the inbound port for knowledge-base management.
type KnowledgeService interface {
	Create(ctx context.Context, chunk *domain.KnowledgeChunk) error
	Update(ctx context.Context, chunk *domain.KnowledgeChunk) error
	Delete(ctx context.Context, owner uuid.UUID, id string) error
	List(ctx context.Context, owner uuid.UUID) ([]*domain.KnowledgeChunk, error)
	BulkImport(ctx context.Context, owner uuid.UUID, contents []string, category string) (int, error)
}
