package automation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Mr-Baga08/ai-email-marketing-sub001/core/domain"
	"github.com/Mr-Baga08/ai-email-marketing-sub001/core/port/in"
	"github.com/Mr-Baga08/ai-email-marketing-sub001/core/port/out"
	"github.com/Mr-Baga08/ai-email-marketing-sub001/pkg/apperr"
	"github.com/Mr-Baga08/ai-email-marketing-sub001/pkg/logger"
)

// FeedbackIngestor accepts validated feedback for the training dataset.
// Submission is fire-and-forget from the caller's point of view.
type FeedbackIngestor interface {
	Submit(fb *domain.Feedback, email *domain.AutomatedEmail)
}

// Service implements in.AutomationService on top of the monitor, the
// repositories, and the feedback ingestor. All durable state changes go
// through the settings repository so a worker restart can rehydrate.
type Service struct {
	monitor  *Monitor
	settings out.SettingsRepository
	emails   out.AutomatedEmailRepository
	feedback out.FeedbackRepository
	factory  out.ProviderFactory
	ingestor FeedbackIngestor

	// defaultInterval applies when a start request carries no interval
	// and none is stored yet.
	defaultInterval time.Duration
}

var _ in.AutomationService = (*Service)(nil)

func NewService(
	monitor *Monitor,
	settings out.SettingsRepository,
	emails out.AutomatedEmailRepository,
	feedback out.FeedbackRepository,
	factory out.ProviderFactory,
	ingestor FeedbackIngestor,
	defaultInterval time.Duration,
) *Service {
	return &Service{
		monitor:         monitor,
		settings:        settings,
		emails:          emails,
		feedback:        feedback,
		factory:         factory,
		ingestor:        ingestor,
		defaultInterval: defaultInterval,
	}
}

// Start enables automation for the owner: persists the enabled flag so
// it survives restarts, then registers the monitor. Re-starting with a
// new interval replaces the existing schedule.
func (s *Service) Start(ctx context.Context, owner uuid.UUID, intervalMinutes int) error {
	settings, err := s.settings.Get(ctx, owner)
	if err != nil {
		return apperr.DatabaseError("load automation settings", err)
	}
	if settings == nil {
		return apperr.BadRequest("mailbox must be configured before starting automation")
	}

	settings.Enabled = true
	if intervalMinutes > 0 {
		settings.IntervalMinutes = intervalMinutes
	} else if settings.IntervalMinutes <= 0 && s.defaultInterval > 0 {
		settings.IntervalMinutes = int(s.defaultInterval / time.Minute)
	}
	settings.UpdatedAt = time.Now().UTC()

	if err := s.settings.Upsert(ctx, settings); err != nil {
		return apperr.DatabaseError("save automation settings", err)
	}

	s.monitor.Start(settings)
	return nil
}

// Stop disables automation durably and cancels the running monitor.
func (s *Service) Stop(ctx context.Context, owner uuid.UUID) error {
	settings, err := s.settings.Get(ctx, owner)
	if err != nil {
		return apperr.DatabaseError("load automation settings", err)
	}
	if settings != nil && settings.Enabled {
		settings.Enabled = false
		settings.UpdatedAt = time.Now().UTC()
		if err := s.settings.Upsert(ctx, settings); err != nil {
			return apperr.DatabaseError("save automation settings", err)
		}
	}

	s.monitor.Stop(owner)
	return nil
}

func (s *Service) Status(ctx context.Context, owner uuid.UUID) (*in.MonitorStatus, error) {
	status := &in.MonitorStatus{Owner: owner}

	settings, err := s.settings.Get(ctx, owner)
	if err != nil {
		return nil, apperr.DatabaseError("load automation settings", err)
	}
	if settings != nil {
		status.Enabled = settings.Enabled
		status.IntervalMinutes = settings.IntervalMinutes
	}

	running, lastTick := s.monitor.Status(owner)
	status.Running = running
	if !lastTick.IsZero() {
		status.LastTick = &lastTick
	}

	pending, err := s.emails.ListPendingReview(ctx, owner)
	if err != nil {
		return nil, apperr.DatabaseError("list pending review", err)
	}
	status.PendingReview = len(pending)

	return status, nil
}

func (s *Service) History(ctx context.Context, owner uuid.UUID, limit, offset int) ([]*domain.AutomatedEmail, int, error) {
	records, total, err := s.emails.ListByOwner(ctx, owner, limit, offset)
	if err != nil {
		return nil, 0, apperr.DatabaseError("list automated emails", err)
	}
	return records, total, nil
}

func (s *Service) PendingReview(ctx context.Context, owner uuid.UUID) ([]*domain.AutomatedEmail, error) {
	records, err := s.emails.ListPendingReview(ctx, owner)
	if err != nil {
		return nil, apperr.DatabaseError("list pending review", err)
	}
	return records, nil
}

// SendHeldResponse sends a human-approved (possibly edited) response for
// an email that was held for review, then clears the review flag.
func (s *Service) SendHeldResponse(ctx context.Context, owner uuid.UUID, emailID, text string) error {
	rec, err := s.emails.GetByID(ctx, owner, emailID)
	if err != nil {
		return apperr.DatabaseError("load automated email", err)
	}
	if rec == nil {
		return apperr.NotFound("automated email")
	}
	if !rec.NeedsHumanReview {
		return apperr.Conflict("email is not pending review")
	}
	if text == "" {
		text = rec.ResponseText
	}
	if text == "" {
		return apperr.BadRequest("response text is required")
	}

	settings, err := s.settings.Get(ctx, owner)
	if err != nil {
		return apperr.DatabaseError("load automation settings", err)
	}
	if settings == nil {
		return apperr.BadRequest("mailbox must be configured to send responses")
	}

	provider, err := s.factory.ForConfig(&settings.Mailbox)
	if err != nil {
		return apperr.MailboxError("resolve provider", err)
	}

	reply := &out.OutgoingReply{
		To:        rec.From,
		Subject:   replySubject(rec.Subject),
		Text:      text,
		InReplyTo: rec.MessageID,
	}
	if _, err := provider.SendReply(ctx, &settings.Mailbox, reply); err != nil {
		return apperr.ProviderError(string(settings.Mailbox.Provider), fmt.Errorf("send held response: %w", err))
	}

	rec.MarkReviewed(text, time.Now().UTC())
	if err := s.emails.Update(ctx, rec); err != nil {
		return apperr.DatabaseError("update automated email", err)
	}

	logger.WithField("owner", owner.String()).Info("held response %s sent after review", emailID)
	return nil
}

// SubmitFeedback validates and persists feedback on a generated
// response, then hands it to the training ingestor. Dataset emission
// happens asynchronously; a submission never waits on training.
func (s *Service) SubmitFeedback(ctx context.Context, fb *domain.Feedback) error {
	if err := fb.Validate(); err != nil {
		return apperr.ValidationFailed(err.Error())
	}

	rec, err := s.emails.GetByID(ctx, fb.Owner, fb.AutomatedEmailID)
	if err != nil {
		return apperr.DatabaseError("load automated email", err)
	}
	if rec == nil {
		return apperr.NotFound("automated email")
	}

	if fb.ID == "" {
		fb.ID = uuid.NewString()
	}
	if fb.CreatedAt.IsZero() {
		fb.CreatedAt = time.Now().UTC()
	}
	if err := s.feedback.Create(ctx, fb); err != nil {
		return apperr.DatabaseError("save feedback", err)
	}

	if s.ingestor != nil {
		s.ingestor.Submit(fb, rec)
	}
	return nil
}
