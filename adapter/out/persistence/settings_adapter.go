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
	"github.com/Mr-Baga08/ai-email-marketing-sub001/pkg/crypto"
)

const collectionSettings = "automation_settings"

// SettingsAdapter implements out.SettingsRepository on MongoDB. Mailbox
// credentials (password, OAuth token) are encrypted before writes and
// decrypted after reads; the database never sees them in the clear.
type SettingsAdapter struct {
	collection *mongo.Collection
	encryptor  *crypto.Encryptor
}

var _ out.SettingsRepository = (*SettingsAdapter)(nil)

func NewSettingsAdapter(db *mongo.Database, encryptor *crypto.Encryptor) *SettingsAdapter {
	return &SettingsAdapter{
		collection: db.Collection(collectionSettings),
		encryptor:  encryptor,
	}
}

func (a *SettingsAdapter) Upsert(ctx context.Context, settings *domain.AutomationSettings) error {
	doc := *settings
	if err := a.sealMailbox(&doc.Mailbox); err != nil {
		return fmt.Errorf("encrypting mailbox credentials: %w", err)
	}

	filter := bson.M{"owner": settings.Owner}
	opts := options.Replace().SetUpsert(true)
	if _, err := a.collection.ReplaceOne(ctx, filter, &doc, opts); err != nil {
		return fmt.Errorf("upserting automation settings: %w", err)
	}
	return nil
}

func (a *SettingsAdapter) Get(ctx context.Context, owner uuid.UUID) (*domain.AutomationSettings, error) {
	var settings domain.AutomationSettings
	err := a.collection.FindOne(ctx, bson.M{"owner": owner}).Decode(&settings)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading automation settings: %w", err)
	}
	if err := a.openMailbox(&settings.Mailbox); err != nil {
		return nil, fmt.Errorf("decrypting mailbox credentials: %w", err)
	}
	return &settings, nil
}

func (a *SettingsAdapter) ListEnabled(ctx context.Context) ([]*domain.AutomationSettings, error) {
	cursor, err := a.collection.Find(ctx, bson.M{"enabled": true})
	if err != nil {
		return nil, fmt.Errorf("listing enabled automation settings: %w", err)
	}
	defer cursor.Close(ctx)

	var all []*domain.AutomationSettings
	if err := cursor.All(ctx, &all); err != nil {
		return nil, fmt.Errorf("decoding automation settings: %w", err)
	}
	for _, s := range all {
		if err := a.openMailbox(&s.Mailbox); err != nil {
			return nil, fmt.Errorf("decrypting mailbox credentials for owner %s: %w", s.Owner, err)
		}
	}
	return all, nil
}

func (a *SettingsAdapter) sealMailbox(cfg *domain.MailboxConfig) error {
	if cfg.Password != "" {
		enc, err := a.encryptor.Encrypt(cfg.Password)
		if err != nil {
			return err
		}
		cfg.Password = enc
	}
	if cfg.OAuthToken != "" {
		enc, err := a.encryptor.Encrypt(cfg.OAuthToken)
		if err != nil {
			return err
		}
		cfg.OAuthToken = enc
	}
	return nil
}

func (a *SettingsAdapter) openMailbox(cfg *domain.MailboxConfig) error {
	if cfg.Password != "" {
		dec, err := a.encryptor.Decrypt(cfg.Password)
		if err != nil {
			return err
		}
		cfg.Password = dec
	}
	if cfg.OAuthToken != "" {
		dec, err := a.encryptor.Decrypt(cfg.OAuthToken)
		if err != nil {
			return err
		}
		cfg.OAuthToken = dec
	}
	return nil
}
