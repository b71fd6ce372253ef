package knowledge

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/Mr-Baga08/ai-email-marketing-sub001/core/agent/rag"
	"github.com/Mr-Baga08/ai-email-marketing-sub001/core/domain"
)

type memRepo struct {
	chunks map[string]*domain.KnowledgeChunk
}

func newMemRepo() *memRepo {
	return &memRepo{chunks: make(map[string]*domain.KnowledgeChunk)}
}

func (m *memRepo) Create(ctx context.Context, chunk *domain.KnowledgeChunk) error {
	stored := *chunk
	m.chunks[chunk.ID] = &stored
	return nil
}

func (m *memRepo) Update(ctx context.Context, chunk *domain.KnowledgeChunk) error {
	stored := *chunk
	m.chunks[chunk.ID] = &stored
	return nil
}

func (m *memRepo) Delete(ctx context.Context, owner uuid.UUID, id string) error {
	delete(m.chunks, id)
	return nil
}

func (m *memRepo) GetByID(ctx context.Context, owner uuid.UUID, id string) (*domain.KnowledgeChunk, error) {
	return m.chunks[id], nil
}

func (m *memRepo) ListByOwner(ctx context.Context, owner uuid.UUID) ([]*domain.KnowledgeChunk, error) {
	var result []*domain.KnowledgeChunk
	for _, c := range m.chunks {
		if c.Owner == owner {
			result = append(result, c)
		}
	}
	return result, nil
}

type stubEmbedder struct {
	vector []float32
	err    error
	calls  int
}

func (s *stubEmbedder) Name() string { return "stub" }

func (s *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	s.calls++
	return s.vector, s.err
}

type trackingCache struct {
	invalidations int
}

func (t *trackingCache) Get(ctx context.Context, owner uuid.UUID) ([]*domain.KnowledgeChunk, bool) {
	return nil, false
}

func (t *trackingCache) Set(ctx context.Context, owner uuid.UUID, chunks []*domain.KnowledgeChunk) {}

func (t *trackingCache) Invalidate(ctx context.Context, owner uuid.UUID) {
	t.invalidations++
}

type fixture struct {
	service  *Service
	repo     *memRepo
	embedder *stubEmbedder
	cache    *trackingCache
}

func newFixture(embedder *stubEmbedder) *fixture {
	repo := newMemRepo()
	cache := &trackingCache{}
	return &fixture{
		service:  NewService(repo, embedder, rag.NewLoader(repo, cache)),
		repo:     repo,
		embedder: embedder,
		cache:    cache,
	}
}

func TestCreateEmbedsAndInvalidates(t *testing.T) {
	f := newFixture(&stubEmbedder{vector: []float32{0.1, 0.2}})

	chunk := &domain.KnowledgeChunk{Owner: uuid.New(), Content: "Premium costs $49."}
	if err := f.service.Create(context.Background(), chunk); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if chunk.ID == "" {
		t.Error("expected an id to be assigned")
	}
	stored := f.repo.chunks[chunk.ID]
	if stored == nil {
		t.Fatal("expected the chunk to be persisted")
	}
	if !stored.HasEmbedding() {
		t.Error("expected the chunk to carry an embedding")
	}
	if f.cache.invalidations != 1 {
		t.Errorf("expected 1 cache invalidation, got %d", f.cache.invalidations)
	}
}

func TestCreateKeepsChunkWhenEmbeddingFails(t *testing.T) {
	f := newFixture(&stubEmbedder{err: errors.New("embedding service down")})

	chunk := &domain.KnowledgeChunk{Owner: uuid.New(), Content: "Refunds take 5 days."}
	if err := f.service.Create(context.Background(), chunk); err != nil {
		t.Fatalf("embedding failure must not block the write: %v", err)
	}

	stored := f.repo.chunks[chunk.ID]
	if stored == nil {
		t.Fatal("expected the chunk to be persisted")
	}
	if stored.HasEmbedding() {
		t.Error("chunk must have no embedding after a failed embed call")
	}
}

func TestCreateRejectsEmptyContent(t *testing.T) {
	f := newFixture(&stubEmbedder{})

	err := f.service.Create(context.Background(), &domain.KnowledgeChunk{Owner: uuid.New(), Content: "   "})
	if err == nil {
		t.Fatal("expected an error for empty content")
	}
}

func TestUpdateReembedsOnContentChange(t *testing.T) {
	embedder := &stubEmbedder{vector: []float32{1}}
	f := newFixture(embedder)
	owner := uuid.New()

	chunk := &domain.KnowledgeChunk{Owner: owner, Content: "old content"}
	if err := f.service.Create(context.Background(), chunk); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	callsAfterCreate := embedder.calls

	updated := &domain.KnowledgeChunk{ID: chunk.ID, Owner: owner, Content: "new content"}
	if err := f.service.Update(context.Background(), updated); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if embedder.calls != callsAfterCreate+1 {
		t.Error("a content change must trigger a re-embed")
	}

	// A metadata-only update keeps the stored embedding without another
	// embedding call.
	relabeled := &domain.KnowledgeChunk{ID: chunk.ID, Owner: owner, Content: "new content", Category: "pricing"}
	if err := f.service.Update(context.Background(), relabeled); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if embedder.calls != callsAfterCreate+1 {
		t.Error("a metadata-only update must not re-embed")
	}
	if !f.repo.chunks[chunk.ID].HasEmbedding() {
		t.Error("the stored embedding must be preserved")
	}
}

func TestUpdateUnknownChunk(t *testing.T) {
	f := newFixture(&stubEmbedder{})

	err := f.service.Update(context.Background(), &domain.KnowledgeChunk{
		ID:      uuid.NewString(),
		Owner:   uuid.New(),
		Content: "content",
	})
	if err == nil {
		t.Fatal("expected an error for an unknown chunk")
	}
}

func TestDeleteInvalidates(t *testing.T) {
	f := newFixture(&stubEmbedder{})
	owner := uuid.New()

	chunk := &domain.KnowledgeChunk{Owner: owner, Content: "content"}
	if err := f.service.Create(context.Background(), chunk); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := f.service.Delete(context.Background(), owner, chunk.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.repo.chunks[chunk.ID] != nil {
		t.Error("expected the chunk to be removed")
	}
	if f.cache.invalidations != 2 {
		t.Errorf("expected invalidations on create and delete, got %d", f.cache.invalidations)
	}
}

func TestBulkImportSkipsEmptyRows(t *testing.T) {
	f := newFixture(&stubEmbedder{vector: []float32{1}})
	owner := uuid.New()

	imported, err := f.service.BulkImport(context.Background(), owner, []string{
		"Shipping is free above $100.",
		"",
		"   ",
		"Support hours are 9-5 CET.",
	}, "faq")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if imported != 2 {
		t.Errorf("expected 2 imported chunks, got %d", imported)
	}

	chunks, err := f.repo.ListByOwner(context.Background(), owner)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("expected 2 stored chunks, got %d", len(chunks))
	}
	for _, c := range chunks {
		if c.Category != "faq" {
			t.Errorf("expected category faq, got %q", c.Category)
		}
	}
}
