// Package knowledge manages the per-owner knowledge base that grounds
// automated responses.
package knowledge

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Mr-Baga08/ai-email-marketing-sub001/core/agent/rag"
	"github.com/Mr-Baga08/ai-email-marketing-sub001/core/domain"
	"github.com/Mr-Baga08/ai-email-marketing-sub001/core/port/in"
	"github.com/Mr-Baga08/ai-email-marketing-sub001/core/port/out"
	"github.com/Mr-Baga08/ai-email-marketing-sub001/pkg/apperr"
	"github.com/Mr-Baga08/ai-email-marketing-sub001/pkg/logger"
)

// Service implements in.KnowledgeService. Embeddings are computed
// best-effort on write: a chunk whose embedding fails is still stored
// and remains reachable through keyword search until a later update
// re-embeds it.
type Service struct {
	repo     out.KnowledgeRepository
	embedder out.EmbeddingClient
	loader   *rag.Loader
}

var _ in.KnowledgeService = (*Service)(nil)

func NewService(repo out.KnowledgeRepository, embedder out.EmbeddingClient, loader *rag.Loader) *Service {
	return &Service{repo: repo, embedder: embedder, loader: loader}
}

func (s *Service) Create(ctx context.Context, chunk *domain.KnowledgeChunk) error {
	if strings.TrimSpace(chunk.Content) == "" {
		return apperr.MissingField("content")
	}
	if chunk.ID == "" {
		chunk.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	chunk.CreatedAt = now
	chunk.UpdatedAt = now

	s.embed(ctx, chunk)

	if err := s.repo.Create(ctx, chunk); err != nil {
		return apperr.DatabaseError("create knowledge chunk", err)
	}
	s.loader.Invalidate(ctx, chunk.Owner)
	return nil
}

func (s *Service) Update(ctx context.Context, chunk *domain.KnowledgeChunk) error {
	if strings.TrimSpace(chunk.Content) == "" {
		return apperr.MissingField("content")
	}

	existing, err := s.repo.GetByID(ctx, chunk.Owner, chunk.ID)
	if err != nil {
		return apperr.DatabaseError("load knowledge chunk", err)
	}
	if existing == nil {
		return apperr.NotFound("knowledge chunk")
	}

	chunk.CreatedAt = existing.CreatedAt
	chunk.UpdatedAt = time.Now().UTC()

	// Content changes invalidate the stored embedding; metadata-only
	// edits keep it.
	if chunk.Content != existing.Content {
		chunk.Embedding = nil
		s.embed(ctx, chunk)
	} else if len(chunk.Embedding) == 0 {
		chunk.Embedding = existing.Embedding
	}

	if err := s.repo.Update(ctx, chunk); err != nil {
		return apperr.DatabaseError("update knowledge chunk", err)
	}
	s.loader.Invalidate(ctx, chunk.Owner)
	return nil
}

func (s *Service) Delete(ctx context.Context, owner uuid.UUID, id string) error {
	if err := s.repo.Delete(ctx, owner, id); err != nil {
		return apperr.DatabaseError("delete knowledge chunk", err)
	}
	s.loader.Invalidate(ctx, owner)
	return nil
}

func (s *Service) List(ctx context.Context, owner uuid.UUID) ([]*domain.KnowledgeChunk, error) {
	chunks, err := s.repo.ListByOwner(ctx, owner)
	if err != nil {
		return nil, apperr.DatabaseError("list knowledge chunks", err)
	}
	return chunks, nil
}

// BulkImport creates one chunk per non-empty content string and reports
// how many were stored. Used for CSV/FAQ uploads; a single bad row does
// not abort the import.
func (s *Service) BulkImport(ctx context.Context, owner uuid.UUID, contents []string, category string) (int, error) {
	imported := 0
	for _, content := range contents {
		if strings.TrimSpace(content) == "" {
			continue
		}
		chunk := &domain.KnowledgeChunk{
			Owner:    owner,
			Content:  content,
			Category: category,
		}
		if err := s.Create(ctx, chunk); err != nil {
			logger.WithField("owner", owner.String()).WithError(err).Warn("skipping knowledge chunk during bulk import")
			continue
		}
		imported++
	}
	return imported, nil
}

func (s *Service) embed(ctx context.Context, chunk *domain.KnowledgeChunk) {
	vec, err := s.embedder.Embed(ctx, chunk.Content)
	if err != nil {
		logger.WithField("owner", chunk.Owner.String()).WithError(err).
			Warn("embedding unavailable for chunk %s, keyword search only", chunk.ID)
		return
	}
	chunk.Embedding = vec
}
