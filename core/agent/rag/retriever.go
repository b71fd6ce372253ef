package rag

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/Mr-Baga08/ai-email-marketing-sub001/core/domain"
	"github.com/Mr-Baga08/ai-email-marketing-sub001/core/port/out"
	"github.com/Mr-Baga08/ai-email-marketing-sub001/pkg/logger"
)

const (
	// DefaultMaxQueries bounds latency and embedding cost per message.
	DefaultMaxQueries = 2
	DefaultTopK       = 2
	DefaultMinScore   = 0.7

	minKeywordLen = 3
)

// Retriever returns relevant knowledge-base content for a set of queries.
// Vector similarity is used when both the query embedding and chunk
// embeddings are available; otherwise it falls back to keyword overlap
// scoring. Queries with no matches still receive an explicit "no
// information found" placeholder so the response generator can condition
// its honesty policy on explicit absence of information.
type Retriever struct {
	embedder   out.EmbeddingClient
	loader     *Loader
	maxQueries int
	topK       int
	minScore   float64
}

type RetrieverConfig struct {
	MaxQueries int
	TopK       int
	MinScore   float64
}

func NewRetriever(embedder out.EmbeddingClient, loader *Loader, cfg *RetrieverConfig) *Retriever {
	r := &Retriever{
		embedder:   embedder,
		loader:     loader,
		maxQueries: DefaultMaxQueries,
		topK:       DefaultTopK,
		minScore:   DefaultMinScore,
	}
	if cfg != nil {
		if cfg.MaxQueries > 0 {
			r.maxQueries = cfg.MaxQueries
		}
		if cfg.TopK > 0 {
			r.topK = cfg.TopK
		}
		if cfg.MinScore > 0 {
			r.minScore = cfg.MinScore
		}
	}
	return r
}

// Retrieve builds one context block covering every query, each section
// labeled by the originating query.
func (r *Retriever) Retrieve(ctx context.Context, queries []string, owner uuid.UUID) (string, error) {
	if len(queries) > r.maxQueries {
		queries = queries[:r.maxQueries]
	}

	chunks, err := r.loader.Load(ctx, owner)
	if err != nil {
		return "", fmt.Errorf("loading knowledge base: %w", err)
	}

	var sections []string
	for _, query := range queries {
		query = strings.TrimSpace(query)
		if query == "" {
			continue
		}

		matched := r.retrieveForQuery(ctx, query, chunks)
		if len(matched) == 0 {
			sections = append(sections, fmt.Sprintf("Regarding %q: no information found in the knowledge base.", query))
			continue
		}

		var contents []string
		for _, c := range matched {
			contents = append(contents, c.Content)
		}
		sections = append(sections, fmt.Sprintf("Regarding %q:\n%s", query, strings.Join(contents, "\n")))
	}

	return strings.Join(sections, "\n\n"), nil
}

func (r *Retriever) retrieveForQuery(ctx context.Context, query string, chunks []*domain.KnowledgeChunk) []*domain.KnowledgeChunk {
	queryVec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		logger.Warn("query embedding failed, using keyword search: %v", err)
	} else if len(queryVec) > 0 {
		if matched := r.vectorSearch(queryVec, chunks); len(matched) > 0 {
			return matched
		}
	}
	return r.keywordSearch(query, chunks)
}

type scoredChunk struct {
	chunk *domain.KnowledgeChunk
	score float64
}

func (r *Retriever) vectorSearch(queryVec []float32, chunks []*domain.KnowledgeChunk) []*domain.KnowledgeChunk {
	var scored []scoredChunk
	for _, c := range chunks {
		if !c.HasEmbedding() {
			continue
		}
		score := CosineSimilarity(queryVec, c.Embedding)
		if score >= r.minScore {
			scored = append(scored, scoredChunk{chunk: c, score: score})
		}
	}
	return topChunks(scored, r.topK)
}

// keywordSearch scores chunks by how many query keywords (longer than
// minKeywordLen characters, case-insensitive) appear as substrings in the
// chunk content.
func (r *Retriever) keywordSearch(query string, chunks []*domain.KnowledgeChunk) []*domain.KnowledgeChunk {
	keywords := extractKeywords(query)
	if len(keywords) == 0 {
		return nil
	}

	var scored []scoredChunk
	for _, c := range chunks {
		content := strings.ToLower(c.Content)
		matches := 0
		for _, kw := range keywords {
			if strings.Contains(content, kw) {
				matches++
			}
		}
		if matches > 0 {
			scored = append(scored, scoredChunk{chunk: c, score: float64(matches)})
		}
	}
	return topChunks(scored, r.topK)
}

func topChunks(scored []scoredChunk, k int) []*domain.KnowledgeChunk {
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})
	if len(scored) > k {
		scored = scored[:k]
	}
	result := make([]*domain.KnowledgeChunk, len(scored))
	for i, s := range scored {
		result[i] = s.chunk
	}
	return result
}

func extractKeywords(query string) []string {
	fields := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})
	var keywords []string
	for _, f := range fields {
		if len(f) > minKeywordLen {
			keywords = append(keywords, f)
		}
	}
	return keywords
}
