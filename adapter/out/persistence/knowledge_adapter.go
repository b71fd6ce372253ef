package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Mr-Baga08/ai-email-marketing-sub001/core/domain"
	"github.com/Mr-Baga08/ai-email-marketing-sub001/core/port/out"
)

const collectionKnowledge = "knowledge_chunks"

// KnowledgeAdapter implements out.KnowledgeRepository on MongoDB.
type KnowledgeAdapter struct {
	collection *mongo.Collection
}

var _ out.KnowledgeRepository = (*KnowledgeAdapter)(nil)

func NewKnowledgeAdapter(db *mongo.Database) *KnowledgeAdapter {
	return &KnowledgeAdapter{collection: db.Collection(collectionKnowledge)}
}

// EnsureIndexes creates necessary indexes for the collection.
func (a *KnowledgeAdapter) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "owner", Value: 1}, {Key: "created_at", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "owner", Value: 1}, {Key: "category", Value: 1}},
		},
	}
	_, err := a.collection.Indexes().CreateMany(ctx, indexes)
	return err
}

func (a *KnowledgeAdapter) Create(ctx context.Context, chunk *domain.KnowledgeChunk) error {
	if chunk.ID == "" {
		chunk.ID = uuid.NewString()
	}
	if _, err := a.collection.InsertOne(ctx, chunk); err != nil {
		return fmt.Errorf("inserting knowledge chunk: %w", err)
	}
	return nil
}

func (a *KnowledgeAdapter) Update(ctx context.Context, chunk *domain.KnowledgeChunk) error {
	filter := bson.M{"_id": chunk.ID, "owner": chunk.Owner}
	result, err := a.collection.ReplaceOne(ctx, filter, chunk)
	if err != nil {
		return fmt.Errorf("updating knowledge chunk %s: %w", chunk.ID, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("knowledge chunk %s not found", chunk.ID)
	}
	return nil
}

func (a *KnowledgeAdapter) Delete(ctx context.Context, owner uuid.UUID, id string) error {
	_, err := a.collection.DeleteOne(ctx, bson.M{"_id": id, "owner": owner})
	if err != nil {
		return fmt.Errorf("deleting knowledge chunk %s: %w", id, err)
	}
	return nil
}

func (a *KnowledgeAdapter) GetByID(ctx context.Context, owner uuid.UUID, id string) (*domain.KnowledgeChunk, error) {
	var chunk domain.KnowledgeChunk
	err := a.collection.FindOne(ctx, bson.M{"_id": id, "owner": owner}).Decode(&chunk)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading knowledge chunk %s: %w", id, err)
	}
	return &chunk, nil
}

func (a *KnowledgeAdapter) ListByOwner(ctx context.Context, owner uuid.UUID) ([]*domain.KnowledgeChunk, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := a.collection.Find(ctx, bson.M{"owner": owner}, opts)
	if err != nil {
		return nil, fmt.Errorf("listing knowledge chunks: %w", err)
	}
	defer cursor.Close(ctx)

	var chunks []*domain.KnowledgeChunk
	if err := cursor.All(ctx, &chunks); err != nil {
		return nil, fmt.Errorf("decoding knowledge chunks: %w", err)
	}
	return chunks, nil
}
