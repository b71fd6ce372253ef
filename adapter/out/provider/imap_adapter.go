// Package provider implements the mailbox transports behind the
// out.MailProvider port.
package provider

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	gomessage "github.com/emersion/go-message/mail"
	gomail "github.com/wneessen/go-mail"

	"github.com/Mr-Baga08/ai-email-marketing-sub001/core/domain"
	"github.com/Mr-Baga08/ai-email-marketing-sub001/core/port/out"
	"github.com/Mr-Baga08/ai-email-marketing-sub001/pkg/logger"
)

// IMAPAdapter implements out.MailProvider over plain IMAP/SMTP. Used for
// any mailbox that is not a first-class API integration.
type IMAPAdapter struct{}

var _ out.MailProvider = (*IMAPAdapter)(nil)

func NewIMAPAdapter() *IMAPAdapter {
	return &IMAPAdapter{}
}

func (a *IMAPAdapter) ProviderType() domain.MailboxProvider {
	return domain.MailboxIMAP
}

// Connect opens a TLS IMAP session and selects the inbox.
func (a *IMAPAdapter) Connect(ctx context.Context, cfg *domain.MailboxConfig) (out.InboxSession, error) {
	addr := fmt.Sprintf("%s:%d", cfg.IMAPHost, cfg.IMAPPort)
	client, err := imapclient.DialTLS(addr, nil)
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", addr, err)
	}

	if err := client.Login(cfg.Username, cfg.Password).Wait(); err != nil {
		client.Close()
		return nil, fmt.Errorf("imap login for %s: %w", cfg.Username, err)
	}

	if _, err := client.Select("INBOX", nil).Wait(); err != nil {
		client.Close()
		return nil, fmt.Errorf("selecting inbox: %w", err)
	}

	return &imapSession{client: client}, nil
}

// SendReply delivers the reply over SMTP with the stored credentials.
func (a *IMAPAdapter) SendReply(ctx context.Context, cfg *domain.MailboxConfig, reply *out.OutgoingReply) (string, error) {
	msg := gomail.NewMsg()
	if err := msg.From(cfg.FromAddress); err != nil {
		return "", fmt.Errorf("invalid from address %q: %w", cfg.FromAddress, err)
	}
	if err := msg.To(reply.To); err != nil {
		return "", fmt.Errorf("invalid recipient %q: %w", reply.To, err)
	}
	msg.Subject(reply.Subject)
	msg.SetBodyString(gomail.TypeTextPlain, reply.Text)
	msg.SetMessageID()
	if reply.InReplyTo != "" {
		msg.SetGenHeader(gomail.HeaderInReplyTo, reply.InReplyTo)
	}

	client, err := gomail.NewClient(cfg.SMTPHost,
		gomail.WithPort(cfg.SMTPPort),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(cfg.Username),
		gomail.WithPassword(cfg.Password),
		gomail.WithTLSPolicy(gomail.TLSMandatory),
	)
	if err != nil {
		return "", fmt.Errorf("creating smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return "", fmt.Errorf("sending reply to %s: %w", reply.To, err)
	}

	ids := msg.GetGenHeader(gomail.HeaderMessageID)
	if len(ids) > 0 {
		return ids[0], nil
	}
	return "", nil
}

// imapSession wraps one logged-in IMAP connection.
type imapSession struct {
	client *imapclient.Client
}

// FetchUnseen pulls every unseen message, parses it, and flags it seen
// so the next poll does not return it again.
func (s *imapSession) FetchUnseen(ctx context.Context) ([]*domain.InboundMessage, error) {
	criteria := &imap.SearchCriteria{
		NotFlag: []imap.Flag{imap.FlagSeen},
	}
	search, err := s.client.UIDSearch(criteria, nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("searching unseen messages: %w", err)
	}

	uids := search.AllUIDs()
	if len(uids) == 0 {
		return nil, nil
	}

	var uidSet imap.UIDSet
	uidSet.AddNum(uids...)

	bodySection := &imap.FetchItemBodySection{}
	fetchOptions := &imap.FetchOptions{
		Envelope:    true,
		BodySection: []*imap.FetchItemBodySection{bodySection},
	}

	buffers, err := s.client.Fetch(uidSet, fetchOptions).Collect()
	if err != nil {
		return nil, fmt.Errorf("fetching %d messages: %w", len(uids), err)
	}

	messages := make([]*domain.InboundMessage, 0, len(buffers))
	for _, buf := range buffers {
		msg := parseIMAPMessage(buf, bodySection)
		if msg == nil {
			continue
		}
		messages = append(messages, msg)
	}

	storeFlags := &imap.StoreFlags{
		Op:     imap.StoreFlagsAdd,
		Flags:  []imap.Flag{imap.FlagSeen},
		Silent: true,
	}
	if err := s.client.Store(uidSet, storeFlags, nil).Close(); err != nil {
		// Messages will be re-fetched next tick; the pipeline's
		// idempotency check absorbs the duplicates.
		logger.WithError(err).Warn("marking messages seen failed")
	}

	return messages, nil
}

func (s *imapSession) Close() error {
	if err := s.client.Logout().Wait(); err != nil {
		return s.client.Close()
	}
	return s.client.Close()
}

func parseIMAPMessage(buf *imapclient.FetchMessageBuffer, section *imap.FetchItemBodySection) *domain.InboundMessage {
	env := buf.Envelope
	if env == nil {
		return nil
	}

	msg := &domain.InboundMessage{
		ProviderMessageID: env.MessageID,
		Subject:           env.Subject,
		ReceivedAt:        env.Date,
	}
	if len(env.From) > 0 {
		msg.From = env.From[0].Addr()
	}
	if len(env.To) > 0 {
		msg.To = env.To[0].Addr()
	}

	if raw := buf.FindBodySection(section); len(raw) > 0 {
		msg.BodyText = extractPlainText(raw)
	}
	return msg
}

// extractPlainText walks the MIME structure and returns the first
// text/plain part, falling back to the first text part of any kind.
func extractPlainText(raw []byte) string {
	reader, err := gomessage.CreateReader(strings.NewReader(string(raw)))
	if err != nil {
		return ""
	}

	var fallback string
	for {
		part, err := reader.NextPart()
		if err != nil {
			break
		}
		header, ok := part.Header.(*gomessage.InlineHeader)
		if !ok {
			continue
		}
		contentType, _, _ := header.ContentType()
		body, err := io.ReadAll(part.Body)
		if err != nil {
			continue
		}
		if contentType == "text/plain" {
			return strings.TrimSpace(string(body))
		}
		if fallback == "" && strings.HasPrefix(contentType, "text/") {
			fallback = strings.TrimSpace(string(body))
		}
	}
	return fallback
}
