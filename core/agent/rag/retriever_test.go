package rag

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Mr-Baga08/ai-email-marketing-sub001/core/domain"
)

type stubEmbedder struct {
	vectors map[string][]float32
	err     error
}

func (s *stubEmbedder) Name() string { return "stub" }

func (s *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.vectors[text], nil
}

type stubKnowledgeRepo struct {
	chunks []*domain.KnowledgeChunk
	calls  int
	err    error
}

func (s *stubKnowledgeRepo) Create(ctx context.Context, chunk *domain.KnowledgeChunk) error {
	return nil
}

func (s *stubKnowledgeRepo) Update(ctx context.Context, chunk *domain.KnowledgeChunk) error {
	return nil
}

func (s *stubKnowledgeRepo) Delete(ctx context.Context, owner uuid.UUID, id string) error {
	return nil
}

func (s *stubKnowledgeRepo) GetByID(ctx context.Context, owner uuid.UUID, id string) (*domain.KnowledgeChunk, error) {
	return nil, nil
}

func (s *stubKnowledgeRepo) ListByOwner(ctx context.Context, owner uuid.UUID) ([]*domain.KnowledgeChunk, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.chunks, nil
}

type stubCache struct {
	entries map[uuid.UUID][]*domain.KnowledgeChunk
}

func newStubCache() *stubCache {
	return &stubCache{entries: make(map[uuid.UUID][]*domain.KnowledgeChunk)}
}

func (s *stubCache) Get(ctx context.Context, owner uuid.UUID) ([]*domain.KnowledgeChunk, bool) {
	chunks, ok := s.entries[owner]
	return chunks, ok
}

func (s *stubCache) Set(ctx context.Context, owner uuid.UUID, chunks []*domain.KnowledgeChunk) {
	s.entries[owner] = chunks
}

func (s *stubCache) Invalidate(ctx context.Context, owner uuid.UUID) {
	delete(s.entries, owner)
}

func chunk(content string, embedding []float32) *domain.KnowledgeChunk {
	return &domain.KnowledgeChunk{
		ID:        uuid.New().String(),
		Content:   content,
		Embedding: embedding,
		CreatedAt: time.Now().UTC(),
	}
}

func TestRetrieveVectorSearch(t *testing.T) {
	owner := uuid.New()
	repo := &stubKnowledgeRepo{chunks: []*domain.KnowledgeChunk{
		chunk("Our premium plan costs $49 per month.", []float32{1, 0, 0}),
		chunk("The office dog is named Biscuit.", []float32{0, 1, 0}),
	}}
	embedder := &stubEmbedder{vectors: map[string][]float32{
		"pricing": {0.9, 0.1, 0},
	}}

	r := NewRetriever(embedder, NewLoader(repo, newStubCache()), nil)

	result, err := r.Retrieve(context.Background(), []string{"pricing"}, owner)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(result, "premium plan costs $49") {
		t.Errorf("expected the pricing chunk in the result, got %q", result)
	}
	if strings.Contains(result, "Biscuit") {
		t.Errorf("low-similarity chunk should not be included, got %q", result)
	}
}

func TestRetrieveKeywordFallbackOnEmbeddingError(t *testing.T) {
	owner := uuid.New()
	repo := &stubKnowledgeRepo{chunks: []*domain.KnowledgeChunk{
		chunk("Refunds are processed within 5 business days.", nil),
		chunk("Our CEO enjoys hiking.", nil),
	}}
	embedder := &stubEmbedder{err: errors.New("embedding service down")}

	r := NewRetriever(embedder, NewLoader(repo, newStubCache()), nil)

	result, err := r.Retrieve(context.Background(), []string{"how do refunds work"}, owner)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(result, "Refunds are processed") {
		t.Errorf("expected keyword fallback to match the refund chunk, got %q", result)
	}
	if strings.Contains(result, "hiking") {
		t.Errorf("unmatched chunk should not be included, got %q", result)
	}
}

func TestKeywordFallbackRanksByMatchCount(t *testing.T) {
	owner := uuid.New()
	// Stored with the weaker match first so the ordering comes from the
	// score, not from insertion order.
	repo := &stubKnowledgeRepo{chunks: []*domain.KnowledgeChunk{
		chunk("Shipping is free above $100.", nil),
		chunk("Refunds follow our policy: refunds are processed in 5 days.", nil),
	}}
	embedder := &stubEmbedder{err: errors.New("unavailable")}

	r := NewRetriever(embedder, NewLoader(repo, newStubCache()), nil)

	result, err := r.Retrieve(context.Background(), []string{"refund policy shipping"}, owner)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	refundAt := strings.Index(result, "Refunds follow our policy")
	shippingAt := strings.Index(result, "Shipping is free")
	if refundAt == -1 || shippingAt == -1 {
		t.Fatalf("expected both chunks in the result, got %q", result)
	}
	if refundAt > shippingAt {
		t.Errorf("the chunk matching two keywords must rank above the one matching one, got %q", result)
	}
}

func TestRetrieveNoMatchPlaceholder(t *testing.T) {
	owner := uuid.New()
	repo := &stubKnowledgeRepo{chunks: []*domain.KnowledgeChunk{
		chunk("Shipping is free above $100.", nil),
	}}
	embedder := &stubEmbedder{err: errors.New("unavailable")}

	r := NewRetriever(embedder, NewLoader(repo, newStubCache()), nil)

	result, err := r.Retrieve(context.Background(), []string{"kubernetes operator"}, owner)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(result, "no information found in the knowledge base") {
		t.Errorf("expected explicit no-information placeholder, got %q", result)
	}
}

func TestRetrieveCapsQueries(t *testing.T) {
	owner := uuid.New()
	repo := &stubKnowledgeRepo{chunks: nil}
	embedder := &stubEmbedder{err: errors.New("unavailable")}

	r := NewRetriever(embedder, NewLoader(repo, newStubCache()), &RetrieverConfig{MaxQueries: 2})

	result, err := r.Retrieve(context.Background(), []string{"alpha question", "beta question", "gamma question"}, owner)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(result, "gamma") {
		t.Errorf("queries beyond the cap must be dropped, got %q", result)
	}
	if sections := strings.Count(result, "Regarding"); sections != 2 {
		t.Errorf("expected 2 sections, got %d: %q", sections, result)
	}
}

func TestRetrieveRepositoryError(t *testing.T) {
	repo := &stubKnowledgeRepo{err: errors.New("connection refused")}
	r := NewRetriever(&stubEmbedder{}, NewLoader(repo, newStubCache()), nil)

	_, err := r.Retrieve(context.Background(), []string{"anything"}, uuid.New())
	if err == nil {
		t.Fatal("expected an error when the knowledge base cannot be loaded")
	}
}

func TestLoaderUsesCache(t *testing.T) {
	owner := uuid.New()
	repo := &stubKnowledgeRepo{chunks: []*domain.KnowledgeChunk{chunk("cached content", nil)}}
	loader := NewLoader(repo, newStubCache())

	ctx := context.Background()
	if _, err := loader.Load(ctx, owner); err != nil {
		t.Fatalf("first load failed: %v", err)
	}
	if _, err := loader.Load(ctx, owner); err != nil {
		t.Fatalf("second load failed: %v", err)
	}
	if repo.calls != 1 {
		t.Errorf("expected 1 repository read, got %d", repo.calls)
	}

	loader.Invalidate(ctx, owner)
	if _, err := loader.Load(ctx, owner); err != nil {
		t.Fatalf("load after invalidate failed: %v", err)
	}
	if repo.calls != 2 {
		t.Errorf("expected a repository read after invalidation, got %d calls", repo.calls)
	}
}

func TestExtractKeywords(t *testing.T) {
	keywords := extractKeywords("How do I set up SSO for my team?")

	expected := map[string]bool{"team": true}
	for _, kw := range keywords {
		if len(kw) <= minKeywordLen {
			t.Errorf("keyword %q is too short to be extracted", kw)
		}
		delete(expected, kw)
	}
	if len(expected) != 0 {
		t.Errorf("missing keywords: %v (got %v)", expected, keywords)
	}
}
