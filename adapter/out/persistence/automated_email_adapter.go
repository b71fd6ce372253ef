package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Mr-Baga08/ai-email-marketing-sub001/core/domain"
	"github.com/Mr-Baga08/ai-email-marketing-sub001/core/port/out"
)

const collectionAutomatedEmails = "automated_emails"

// AutomatedEmailAdapter implements out.AutomatedEmailRepository on MongoDB.
//
// The unique (owner, message_id) index is what makes InsertIfAbsent an
// idempotency primitive rather than a best-effort check.
type AutomatedEmailAdapter struct {
	collection *mongo.Collection
}

var _ out.AutomatedEmailRepository = (*AutomatedEmailAdapter)(nil)

func NewAutomatedEmailAdapter(db *mongo.Database) *AutomatedEmailAdapter {
	return &AutomatedEmailAdapter{collection: db.Collection(collectionAutomatedEmails)}
}

// EnsureIndexes creates necessary indexes for the collection.
func (a *AutomatedEmailAdapter) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "owner", Value: 1}, {Key: "message_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "owner", Value: 1}, {Key: "created_at", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "owner", Value: 1}, {Key: "needs_human_review", Value: 1}},
		},
	}
	_, err := a.collection.Indexes().CreateMany(ctx, indexes)
	return err
}

// InsertIfAbsent inserts the record unless one already exists for the
// same (owner, message_id). A duplicate-key error from the unique index
// is not a failure: it reports inserted=false.
func (a *AutomatedEmailAdapter) InsertIfAbsent(ctx context.Context, rec *domain.AutomatedEmail) (bool, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now

	_, err := a.collection.InsertOne(ctx, rec)
	if mongo.IsDuplicateKeyError(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("inserting automated email for message %s: %w", rec.MessageID, err)
	}
	return true, nil
}

func (a *AutomatedEmailAdapter) Update(ctx context.Context, rec *domain.AutomatedEmail) error {
	rec.UpdatedAt = time.Now().UTC()
	filter := bson.M{"_id": rec.ID, "owner": rec.Owner}
	result, err := a.collection.ReplaceOne(ctx, filter, rec)
	if err != nil {
		return fmt.Errorf("updating automated email %s: %w", rec.ID, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("automated email %s not found", rec.ID)
	}
	return nil
}

func (a *AutomatedEmailAdapter) GetByID(ctx context.Context, owner uuid.UUID, id string) (*domain.AutomatedEmail, error) {
	return a.findOne(ctx, bson.M{"_id": id, "owner": owner})
}

func (a *AutomatedEmailAdapter) GetByMessageID(ctx context.Context, owner uuid.UUID, messageID string) (*domain.AutomatedEmail, error) {
	return a.findOne(ctx, bson.M{"owner": owner, "message_id": messageID})
}

func (a *AutomatedEmailAdapter) findOne(ctx context.Context, filter bson.M) (*domain.AutomatedEmail, error) {
	var rec domain.AutomatedEmail
	err := a.collection.FindOne(ctx, filter).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading automated email: %w", err)
	}
	return &rec, nil
}

// ListByOwner returns a page of run records, newest first, plus the
// total count for pagination.
func (a *AutomatedEmailAdapter) ListByOwner(ctx context.Context, owner uuid.UUID, limit, offset int) ([]*domain.AutomatedEmail, int, error) {
	filter := bson.M{"owner": owner}

	total, err := a.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("counting automated emails: %w", err)
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
		return nil, 0, fmt.Errorf("listing automated emails: %w", err)
	}
	defer cursor.Close(ctx)

	var records []*domain.AutomatedEmail
	if err := cursor.All(ctx, &records); err != nil {
		return nil, 0, fmt.Errorf("decoding automated emails: %w", err)
	}
	return records, int(total), nil
}

func (a *AutomatedEmailAdapter) ListPendingReview(ctx context.Context, owner uuid.UUID) ([]*domain.AutomatedEmail, error) {
	filter := bson.M{"owner": owner, "needs_human_review": true}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})

	cursor, err := a.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("listing pending review emails: %w", err)
	}
	defer cursor.Close(ctx)

	var records []*domain.AutomatedEmail
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("decoding pending review emails: %w", err)
	}
	return records, nil
}
