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

const collectionFeedback = "response_feedback"

// FeedbackAdapter implements out.FeedbackRepository on MongoDB.
type FeedbackAdapter struct {
	collection *mongo.Collection
}

var _ out.FeedbackRepository = (*FeedbackAdapter)(nil)

func NewFeedbackAdapter(db *mongo.Database) *FeedbackAdapter {
	return &FeedbackAdapter{collection: db.Collection(collectionFeedback)}
}

// EnsureIndexes creates necessary indexes for the collection.
func (a *FeedbackAdapter) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "owner", Value: 1}, {Key: "created_at", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "automated_email_id", Value: 1}},
		},
	}
	_, err := a.collection.Indexes().CreateMany(ctx, indexes)
	return err
}

func (a *FeedbackAdapter) Create(ctx context.Context, fb *domain.Feedback) error {
	if fb.ID == "" {
		fb.ID = uuid.NewString()
	}
	if _, err := a.collection.InsertOne(ctx, fb); err != nil {
		return fmt.Errorf("inserting feedback: %w", err)
	}
	return nil
}

func (a *FeedbackAdapter) GetByID(ctx context.Context, owner uuid.UUID, id string) (*domain.Feedback, error) {
	var fb domain.Feedback
	err := a.collection.FindOne(ctx, bson.M{"_id": id, "owner": owner}).Decode(&fb)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading feedback %s: %w", id, err)
	}
	return &fb, nil
}

func (a *FeedbackAdapter) ListByOwner(ctx context.Context, owner uuid.UUID, limit, offset int) ([]*domain.Feedback, int, error) {
	filter := bson.M{"owner": owner}

	total, err := a.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("counting feedback: %w", err)
	}

	if limit <= 0 {
		limit = 20
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := a.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("listing feedback: %w", err)
	}
	defer cursor.Close(ctx)

	var records []*domain.Feedback
	if err := cursor.All(ctx, &records); err != nil {
		return nil, 0, fmt.Errorf("decoding feedback: %w", err)
	}
	return records, int(total), nil
}
