package automation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Mr-Baga08/ai-email-marketing-sub001/core/agent/rag"
	"github.com/Mr-Baga08/ai-email-marketing-sub001/core/domain"
	"github.com/Mr-Baga08/ai-email-marketing-sub001/core/port/out"
	"github.com/Mr-Baga08/ai-email-marketing-sub001/pkg/logger"
)

// maxDerivedQueries caps the retrieval queries derived from one message.
const maxDerivedQueries = 3

// Pipeline orchestrates one inbound message through classification,
// retrieval, response generation, the quality gate, and send-or-hold.
// Exactly one AutomatedEmail is persisted per distinct (owner, message_id);
// re-polling the same message is a no-op.
type Pipeline struct {
	classifier *Classifier
	retriever  *rag.Retriever
	generator  *ResponseGenerator
	gate       *QualityGate
	emails     out.AutomatedEmailRepository
	factory    out.ProviderFactory
}

func NewPipeline(
	classifier *Classifier,
	retriever *rag.Retriever,
	generator *ResponseGenerator,
	gate *QualityGate,
	emails out.AutomatedEmailRepository,
	factory out.ProviderFactory,
) *Pipeline {
	return &Pipeline{
		classifier: classifier,
		retriever:  retriever,
		generator:  generator,
		gate:       gate,
		emails:     emails,
		factory:    factory,
	}
}

// Process runs the full pipeline for one message. Provider failures are
// absorbed into the record (degrading toward human review); only
// persistence errors propagate, and the caller's poll loop must survive
// those without aborting the remaining messages.
func (p *Pipeline) Process(ctx context.Context, msg *domain.InboundMessage, settings *domain.AutomationSettings) error {
	owner := settings.Owner

	// Dedup check: re-polling must never reprocess or double-send.
	existing, err := p.emails.GetByMessageID(ctx, owner, msg.ProviderMessageID)
	if err != nil {
		return fmt.Errorf("dedup lookup for message %s: %w", msg.ProviderMessageID, err)
	}
	if existing != nil {
		logger.Debug("message %s already processed for owner %s, skipping", msg.ProviderMessageID, owner)
		return nil
	}

	category := p.classifier.Classify(ctx, msg)

	now := time.Now().UTC()
	rec := &domain.AutomatedEmail{
		ID:           uuid.New().String(),
		Owner:        owner,
		MessageID:    msg.ProviderMessageID,
		Subject:      msg.Subject,
		From:         msg.From,
		To:           msg.To,
		ReceivedDate: msg.ReceivedAt,
		Category:     category,
		Metadata: map[string]any{
			"body_excerpt": truncateBody(msg.BodyText, 500),
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	// Unrelated mail is silently logged, never answered.
	if category == domain.CategoryUnrelated {
		return p.persist(ctx, rec)
	}

	kbContext := ""
	if category == domain.CategoryProductInquiry {
		queries := deriveQueries(msg)
		kbContext, err = p.retriever.Retrieve(ctx, queries, owner)
		if err != nil {
			// Retrieval is best-effort: generate without context rather
			// than dropping the message.
			logger.Warn("retrieval failed for message %s: %v", msg.ProviderMessageID, err)
			rec.Metadata["retrieval_error"] = err.Error()
			kbContext = ""
		}
	}

	draft := p.generator.Generate(ctx, msg, category, kbContext)
	rec.ResponseGenerated = true
	rec.ResponseText = draft

	review := p.gate.Check(ctx, msg.BodyText, draft)
	if !review.Sendable {
		rec.NeedsHumanReview = true
		rec.Metadata["quality_feedback"] = review.Feedback
	} else if review.Feedback != "" {
		rec.Metadata["quality_feedback"] = review.Feedback
	}

	if !rec.NeedsHumanReview {
		if err := p.send(ctx, settings, msg, draft); err != nil {
			// A send failure escalates to a human instead of aborting
			// the caller's loop.
			logger.Error("send failed for message %s: %v", msg.ProviderMessageID, err)
			rec.NeedsHumanReview = true
			rec.Metadata["send_error"] = err.Error()
		} else {
			sentAt := time.Now().UTC()
			rec.ResponseSent = true
			rec.ResponseDate = &sentAt
		}
	}

	return p.persist(ctx, rec)
}

func (p *Pipeline) persist(ctx context.Context, rec *domain.AutomatedEmail) error {
	inserted, err := p.emails.InsertIfAbsent(ctx, rec)
	if err != nil {
		return fmt.Errorf("persisting record for message %s: %w", rec.MessageID, err)
	}
	if !inserted {
		logger.Warn("record for message %s appeared concurrently, keeping existing", rec.MessageID)
	}
	return nil
}

func (p *Pipeline) send(ctx context.Context, settings *domain.AutomationSettings, msg *domain.InboundMessage, text string) error {
	provider, err := p.factory.ForConfig(&settings.Mailbox)
	if err != nil {
		return err
	}

	_, err = provider.SendReply(ctx, &settings.Mailbox, &out.OutgoingReply{
		To:        msg.From,
		Subject:   replySubject(msg.Subject),
		Text:      text,
		InReplyTo: msg.ProviderMessageID,
	})
	return err
}

func replySubject(subject string) string {
	if strings.HasPrefix(strings.ToLower(subject), "re:") {
		return subject
	}
	return "Re: " + subject
}

// deriveQueries extracts up to three retrieval queries from a message:
// the subject, then question sentences from the body, then the opening
// sentence as a fallback.
func deriveQueries(msg *domain.InboundMessage) []string {
	var queries []string

	if subject := strings.TrimSpace(msg.Subject); subject != "" {
		queries = append(queries, subject)
	}

	sentences := splitSentences(msg.BodyText)
	for _, s := range sentences {
		if len(queries) >= maxDerivedQueries {
			break
		}
		if strings.Contains(s, "?") {
			queries = append(queries, s)
		}
	}

	if len(queries) < maxDerivedQueries && len(sentences) > 0 && !contains(queries, sentences[0]) {
		queries = append(queries, sentences[0])
	}

	if len(queries) > maxDerivedQueries {
		queries = queries[:maxDerivedQueries]
	}
	return queries
}

func splitSentences(text string) []string {
	var sentences []string
	for _, raw := range strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '\n'
	}) {
		s := strings.TrimSpace(raw)
		if s != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
