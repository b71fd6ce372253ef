package automation

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Mr-Baga08/ai-email-marketing-sub001/core/agent/rag"
	"github.com/Mr-Baga08/ai-email-marketing-sub001/core/domain"
	"github.com/Mr-Baga08/ai-email-marketing-sub001/core/port/out"
)

type fakeEmailRepo struct {
	byMessageID map[string]*domain.AutomatedEmail
	inserted    []*domain.AutomatedEmail
	updated     []*domain.AutomatedEmail
	lookupErr   error
}

func newFakeEmailRepo() *fakeEmailRepo {
	return &fakeEmailRepo{byMessageID: make(map[string]*domain.AutomatedEmail)}
}

func (f *fakeEmailRepo) InsertIfAbsent(ctx context.Context, rec *domain.AutomatedEmail) (bool, error) {
	if _, exists := f.byMessageID[rec.MessageID]; exists {
		return false, nil
	}
	f.byMessageID[rec.MessageID] = rec
	f.inserted = append(f.inserted, rec)
	return true, nil
}

func (f *fakeEmailRepo) Update(ctx context.Context, rec *domain.AutomatedEmail) error {
	f.updated = append(f.updated, rec)
	return nil
}

func (f *fakeEmailRepo) GetByID(ctx context.Context, owner uuid.UUID, id string) (*domain.AutomatedEmail, error) {
	for _, rec := range f.byMessageID {
		if rec.ID == id {
			return rec, nil
		}
	}
	return nil, nil
}

func (f *fakeEmailRepo) GetByMessageID(ctx context.Context, owner uuid.UUID, messageID string) (*domain.AutomatedEmail, error) {
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	return f.byMessageID[messageID], nil
}

func (f *fakeEmailRepo) ListByOwner(ctx context.Context, owner uuid.UUID, limit, offset int) ([]*domain.AutomatedEmail, int, error) {
	return f.inserted, len(f.inserted), nil
}

func (f *fakeEmailRepo) ListPendingReview(ctx context.Context, owner uuid.UUID) ([]*domain.AutomatedEmail, error) {
	var pending []*domain.AutomatedEmail
	for _, rec := range f.byMessageID {
		if rec.NeedsHumanReview {
			pending = append(pending, rec)
		}
	}
	return pending, nil
}

type fakeSession struct {
	messages []*domain.InboundMessage
	fetchErr error
	closed   bool
}

func (f *fakeSession) FetchUnseen(ctx context.Context) ([]*domain.InboundMessage, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	msgs := f.messages
	f.messages = nil
	return msgs, nil
}

func (f *fakeSession) Close() error {
	f.closed = true
	return nil
}

type fakeProvider struct {
	session    out.InboxSession
	connectErr error
	sendErr    error
	sent       []*out.OutgoingReply
}

func (f *fakeProvider) ProviderType() domain.MailboxProvider { return domain.MailboxIMAP }

func (f *fakeProvider) Connect(ctx context.Context, cfg *domain.MailboxConfig) (out.InboxSession, error) {
	if f.connectErr != nil {
		return nil, f.connectErr
	}
	return f.session, nil
}

func (f *fakeProvider) SendReply(ctx context.Context, cfg *domain.MailboxConfig, reply *out.OutgoingReply) (string, error) {
	if f.sendErr != nil {
		return "", f.sendErr
	}
	f.sent = append(f.sent, reply)
	return "sent-" + reply.InReplyTo, nil
}

type fakeFactory struct {
	provider *fakeProvider
}

func (f *fakeFactory) ForConfig(cfg *domain.MailboxConfig) (out.MailProvider, error) {
	return f.provider, nil
}

type errEmbedder struct{}

func (errEmbedder) Name() string { return "err" }

func (errEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return nil, errors.New("embedding unavailable")
}

type emptyKnowledgeRepo struct{}

func (emptyKnowledgeRepo) Create(ctx context.Context, chunk *domain.KnowledgeChunk) error { return nil }
func (emptyKnowledgeRepo) Update(ctx context.Context, chunk *domain.KnowledgeChunk) error { return nil }
func (emptyKnowledgeRepo) Delete(ctx context.Context, owner uuid.UUID, id string) error   { return nil }
func (emptyKnowledgeRepo) GetByID(ctx context.Context, owner uuid.UUID, id string) (*domain.KnowledgeChunk, error) {
	return nil, nil
}
func (emptyKnowledgeRepo) ListByOwner(ctx context.Context, owner uuid.UUID) ([]*domain.KnowledgeChunk, error) {
	return nil, nil
}

type seededKnowledgeRepo struct {
	emptyKnowledgeRepo
	chunks []*domain.KnowledgeChunk
}

func (s *seededKnowledgeRepo) ListByOwner(ctx context.Context, owner uuid.UUID) ([]*domain.KnowledgeChunk, error) {
	return s.chunks, nil
}

type noopCache struct{}

func (noopCache) Get(ctx context.Context, owner uuid.UUID) ([]*domain.KnowledgeChunk, bool) {
	return nil, false
}
func (noopCache) Set(ctx context.Context, owner uuid.UUID, chunks []*domain.KnowledgeChunk) {}
func (noopCache) Invalidate(ctx context.Context, owner uuid.UUID)                           {}

func testRetriever() *rag.Retriever {
	loader := rag.NewLoader(emptyKnowledgeRepo{}, noopCache{})
	return rag.NewRetriever(errEmbedder{}, loader, nil)
}

func testSettings() *domain.AutomationSettings {
	return &domain.AutomationSettings{
		Owner:           uuid.New(),
		Enabled:         true,
		IntervalMinutes: 5,
		Mailbox: domain.MailboxConfig{
			Provider:    domain.MailboxIMAP,
			FromAddress: "support@example.com",
		},
	}
}

func testMessage(id string) *domain.InboundMessage {
	return &domain.InboundMessage{
		ProviderMessageID: id,
		Subject:           "Question about pricing",
		From:              "customer@example.com",
		To:                "support@example.com",
		ReceivedAt:        time.Now().UTC(),
		BodyText:          "How much does the premium plan cost?",
	}
}

func newTestPipeline(llm out.CompletionClient, repo *fakeEmailRepo, provider *fakeProvider) *Pipeline {
	return NewPipeline(
		NewClassifier(llm),
		testRetriever(),
		NewResponseGenerator(llm),
		NewQualityGate(llm),
		repo,
		&fakeFactory{provider: provider},
	)
}

// scriptedLLM returns responses in sequence: one per CompleteWithSystem
// call, in pipeline order (classify, generate, review).
func scriptedLLM(responses ...string) *fakeCompletion {
	i := 0
	return &fakeCompletion{complete: func(string, string) (string, error) {
		if i >= len(responses) {
			return "", errors.New("no scripted response left")
		}
		resp := responses[i]
		i++
		return resp, nil
	}}
}

func TestProcessSendsApprovedReply(t *testing.T) {
	repo := newFakeEmailRepo()
	provider := &fakeProvider{}
	llm := scriptedLLM(
		"product_inquiry",
		"Thanks for asking! The premium plan is $49 per month.",
		"SENDABLE: true\nFEEDBACK:",
	)
	p := newTestPipeline(llm, repo, provider)

	if err := p.Process(context.Background(), testMessage("msg-1"), testSettings()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(provider.sent) != 1 {
		t.Fatalf("expected 1 sent reply, got %d", len(provider.sent))
	}
	reply := provider.sent[0]
	if reply.To != "customer@example.com" {
		t.Errorf("reply addressed to %q", reply.To)
	}
	if reply.Subject != "Re: Question about pricing" {
		t.Errorf("unexpected reply subject %q", reply.Subject)
	}
	if reply.InReplyTo != "msg-1" {
		t.Errorf("unexpected In-Reply-To %q", reply.InReplyTo)
	}

	if len(repo.inserted) != 1 {
		t.Fatalf("expected 1 persisted record, got %d", len(repo.inserted))
	}
	rec := repo.inserted[0]
	if !rec.ResponseSent || rec.NeedsHumanReview {
		t.Errorf("expected a sent record, got sent=%v review=%v", rec.ResponseSent, rec.NeedsHumanReview)
	}
	if rec.Category != domain.CategoryProductInquiry {
		t.Errorf("expected product_inquiry, got %s", rec.Category)
	}
	if rec.ResponseDate == nil {
		t.Error("expected a response date on a sent record")
	}
}

func TestProcessAnswersInquiryFromKnowledgeBase(t *testing.T) {
	repo := newFakeEmailRepo()
	provider := &fakeProvider{}
	kb := &seededKnowledgeRepo{chunks: []*domain.KnowledgeChunk{
		{ID: uuid.NewString(), Content: "SSO is supported on the Enterprise plan.", CreatedAt: time.Now().UTC()},
	}}
	retriever := rag.NewRetriever(errEmbedder{}, rag.NewLoader(kb, noopCache{}), nil)

	var generatorContext string
	calls := 0
	llm := &fakeCompletion{complete: func(systemPrompt, userPrompt string) (string, error) {
		calls++
		switch calls {
		case 1:
			return "product_inquiry", nil
		case 2:
			generatorContext = systemPrompt
			return "Yes, SSO is supported on the Enterprise plan.", nil
		default:
			return "SENDABLE: true\nFEEDBACK:", nil
		}
	}}
	p := NewPipeline(NewClassifier(llm), retriever, NewResponseGenerator(llm), NewQualityGate(llm), repo, &fakeFactory{provider: provider})

	msg := testMessage("msg-sso")
	msg.Subject = "SSO support"
	msg.BodyText = "Do you support SSO for our team?"

	if err := p.Process(context.Background(), msg, testSettings()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The retrieved chunk must reach the generator prompt and the reply.
	if !strings.Contains(generatorContext, "SSO is supported on the Enterprise plan.") {
		t.Errorf("retrieved content missing from the generator prompt: %q", generatorContext)
	}
	if len(provider.sent) != 1 {
		t.Fatalf("expected 1 sent reply, got %d", len(provider.sent))
	}
	if !strings.Contains(provider.sent[0].Text, "Enterprise plan") {
		t.Errorf("reply does not reference the retrieved content: %q", provider.sent[0].Text)
	}

	if len(repo.inserted) != 1 {
		t.Fatalf("expected 1 persisted record, got %d", len(repo.inserted))
	}
	rec := repo.inserted[0]
	if rec.Category != domain.CategoryProductInquiry {
		t.Errorf("expected product_inquiry, got %s", rec.Category)
	}
	if !rec.ResponseSent || rec.NeedsHumanReview {
		t.Errorf("expected a sent record, got sent=%v review=%v", rec.ResponseSent, rec.NeedsHumanReview)
	}
}

func TestProcessSkipsAlreadyProcessedMessage(t *testing.T) {
	repo := newFakeEmailRepo()
	repo.byMessageID["msg-1"] = &domain.AutomatedEmail{ID: uuid.New().String(), MessageID: "msg-1"}
	provider := &fakeProvider{}
	llm := &fakeCompletion{complete: func(string, string) (string, error) {
		t.Fatal("no provider call expected for an already-processed message")
		return "", nil
	}}
	p := newTestPipeline(llm, repo, provider)

	if err := p.Process(context.Background(), testMessage("msg-1"), testSettings()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.inserted) != 0 {
		t.Errorf("expected no new record, got %d", len(repo.inserted))
	}
	if len(provider.sent) != 0 {
		t.Errorf("expected no sends, got %d", len(provider.sent))
	}
}

func TestProcessUnrelatedIsLoggedNotAnswered(t *testing.T) {
	repo := newFakeEmailRepo()
	provider := &fakeProvider{}
	llm := scriptedLLM("unrelated")
	p := newTestPipeline(llm, repo, provider)

	msg := testMessage("msg-2")
	msg.Subject = "Weekly industry newsletter"
	msg.BodyText = "This week in enterprise software..."

	if err := p.Process(context.Background(), msg, testSettings()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(provider.sent) != 0 {
		t.Errorf("unrelated mail must never be answered, got %d sends", len(provider.sent))
	}
	if len(repo.inserted) != 1 {
		t.Fatalf("expected the record to be persisted, got %d", len(repo.inserted))
	}
	rec := repo.inserted[0]
	if rec.Category != domain.CategoryUnrelated {
		t.Errorf("expected unrelated, got %s", rec.Category)
	}
	if rec.ResponseGenerated || rec.ResponseText != "" {
		t.Error("no response should be generated for unrelated mail")
	}
	if llm.calls != 1 {
		t.Errorf("expected only the classification call, got %d", llm.calls)
	}
}

func TestProcessHoldsDraftFailingQualityGate(t *testing.T) {
	repo := newFakeEmailRepo()
	provider := &fakeProvider{}
	llm := scriptedLLM(
		"customer_complaint",
		"whatever",
		"SENDABLE: false\nFEEDBACK: reply is dismissive",
	)
	p := newTestPipeline(llm, repo, provider)

	if err := p.Process(context.Background(), testMessage("msg-3"), testSettings()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(provider.sent) != 0 {
		t.Errorf("held draft must not be sent, got %d sends", len(provider.sent))
	}
	rec := repo.inserted[0]
	if !rec.NeedsHumanReview {
		t.Error("expected the record to be held for review")
	}
	if rec.ResponseSent {
		t.Error("held record must not be marked sent")
	}
	if rec.ResponseText != "whatever" {
		t.Errorf("draft must be kept on the record, got %q", rec.ResponseText)
	}
	if fb, _ := rec.Metadata["quality_feedback"].(string); fb != "reply is dismissive" {
		t.Errorf("expected quality feedback on the record, got %q", fb)
	}
}

func TestProcessSendFailureEscalatesToReview(t *testing.T) {
	repo := newFakeEmailRepo()
	provider := &fakeProvider{sendErr: errors.New("smtp: connection reset")}
	llm := scriptedLLM(
		"product_inquiry",
		"The premium plan is $49 per month.",
		"SENDABLE: true\nFEEDBACK:",
	)
	p := newTestPipeline(llm, repo, provider)

	if err := p.Process(context.Background(), testMessage("msg-4"), testSettings()); err != nil {
		t.Fatalf("a send failure must not abort the caller's loop: %v", err)
	}

	rec := repo.inserted[0]
	if !rec.NeedsHumanReview {
		t.Error("expected the send failure to escalate to human review")
	}
	if rec.ResponseSent {
		t.Error("record must not be marked sent after a failed send")
	}
	if _, ok := rec.Metadata["send_error"]; !ok {
		t.Error("expected the send error to be recorded")
	}
}

func TestProcessDedupLookupErrorPropagates(t *testing.T) {
	repo := newFakeEmailRepo()
	repo.lookupErr = errors.New("connection refused")
	p := newTestPipeline(scriptedLLM(), repo, &fakeProvider{})

	if err := p.Process(context.Background(), testMessage("msg-5"), testSettings()); err == nil {
		t.Fatal("expected the persistence error to propagate")
	}
}

func TestDeriveQueries(t *testing.T) {
	msg := &domain.InboundMessage{
		Subject:  "Pricing",
		BodyText: "Hi there.\nDoes the premium plan include SSO?\nWhat about audit logs?\nCan I pay yearly?\nThanks.",
	}

	queries := deriveQueries(msg)
	if len(queries) != maxDerivedQueries {
		t.Fatalf("expected %d queries, got %d: %v", maxDerivedQueries, len(queries), queries)
	}
	if queries[0] != "Pricing" {
		t.Errorf("subject must come first, got %q", queries[0])
	}
	for _, q := range queries[1:] {
		if !strings.Contains(q, "?") {
			t.Errorf("expected a question sentence, got %q", q)
		}
	}
}

func TestDeriveQueriesFallsBackToOpeningSentence(t *testing.T) {
	msg := &domain.InboundMessage{
		Subject:  "Hello",
		BodyText: "I love the product. Keep it up.",
	}

	queries := deriveQueries(msg)
	if len(queries) != 2 {
		t.Fatalf("expected subject plus opening sentence, got %v", queries)
	}
	if queries[1] != "I love the product" {
		t.Errorf("expected the opening sentence, got %q", queries[1])
	}
}

func TestReplySubject(t *testing.T) {
	if got := replySubject("Pricing"); got != "Re: Pricing" {
		t.Errorf("expected Re: prefix, got %q", got)
	}
	if got := replySubject("RE: Pricing"); got != "RE: Pricing" {
		t.Errorf("existing prefix must be preserved, got %q", got)
	}
	if got := replySubject("re: pricing"); got != "re: pricing" {
		t.Errorf("lowercase prefix must be preserved, got %q", got)
	}
}
