package domain

import (
	"time"

	"github.com/google/uuid"
)

// KnowledgeChunk is one entry of a user's knowledge base. The embedding is
// best-effort: it is absent when the embedding call failed at write time,
// and consumers must fall back to keyword search in that case.
type KnowledgeChunk struct {
	ID        string    `json:"id" bson:"_id,omitempty"`
	Owner     uuid.UUID `json:"owner" bson:"owner"`
	Content   string    `json:"content" bson:"content"`
	Embedding []float32 `json:"-" bson:"embedding,omitempty"`
	Category  string    `json:"category,omitempty" bson:"category,omitempty"`
	Tags      []string  `json:"tags,omitempty" bson:"tags,omitempty"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// HasEmbedding reports whether the chunk carries a usable vector.
func (k *KnowledgeChunk) HasEmbedding() bool {
	return len(k.Embedding) > 0
}
