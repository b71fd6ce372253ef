package out

import (
	"context"

	"github.com/google/uuid"

	"github.com/Mr-Baga08/ai-email-marketing-sub001/core/domain"
)

// =============================================================================
// Knowledge Repository
// =============================================================================

// KnowledgeRepository persists knowledge-base chunks, keyed by owner.
type KnowledgeRepository interface {
	Create(ctx context.Context, chunk *domain.KnowledgeChunk) error
	Update(ctx context.Context, chunk *domain.KnowledgeChunk) error
	Delete(ctx context.Context, owner uuid.UUID, id string) error
	GetByID(ctx context.Context, owner uuid.UUID, id string) (*domain.KnowledgeChunk, error)
	ListByOwner(ctx context.Context, owner uuid.UUID) ([]*domain.KnowledgeChunk, error)
}

// =============================================================================
// Automated Email Repository
// =============================================================================

// AutomatedEmailRepository persists pipeline run records.
//
// InsertIfAbsent is the idempotency primitive: it inserts the record only
// when no record exists for (owner, message_id) and reports whether the
// insert happened, backed by a unique index so the guarantee holds even if
// processing for one owner is ever parallelized.
type AutomatedEmailRepository interface {
	InsertIfAbsent(ctx context.Context, rec *domain.AutomatedEmail) (inserted bool, err error)
	Update(ctx context.Context, rec *domain.AutomatedEmail) error
	GetByID(ctx context.Context, owner uuid.UUID, id string) (*domain.AutomatedEmail, error)
	GetByMessageID(ctx context.Context, owner uuid.UUID, messageID string) (*domain.AutomatedEmail, error)
	ListByOwner(ctx context.Context, owner uuid.UUID, limit, offset int) ([]*domain.AutomatedEmail, int, error)
	ListPendingReview(ctx context.Context, owner uuid.UUID) ([]*domain.AutomatedEmail, error)
}

// =============================================================================
// Feedback Repository
// =============================================================================

// FeedbackRepository persists human review actions. Records are immutable
// after creation.
type FeedbackRepository interface {
	Create(ctx context.Context, fb *domain.Feedback) error
	GetByID(ctx context.Context, owner uuid.UUID, id string) (*domain.Feedback, error)
	ListByOwner(ctx context.Context, owner uuid.UUID, limit, offset int) ([]*domain.Feedback, int, error)
}

// =============================================================================
// Automation Settings Repository
// =============================================================================

// SettingsRepository stores the durable per-owner automation state used to
// re-hydrate monitors after a restart.
type SettingsRepository interface {
	Upsert(ctx context.Context, settings *domain.AutomationSettings) error
	Get(ctx context.Context, owner uuid.UUID) (*domain.AutomationSettings, error)
	ListEnabled(ctx context.Context) ([]*domain.AutomationSettings, error)
}
