package out

import (
	"context"

	"github.com/Mr-Baga08/ai-email-marketing-sub001/core/domain"
)

// InboxSession is one open mailbox connection. FetchUnseen returns all
// messages flagged unseen and marks them seen at the transport level, so
// a message is handed to the pipeline exactly once.
type InboxSession interface {
	FetchUnseen(ctx context.Context) ([]*domain.InboundMessage, error)
	Close() error
}

// OutgoingReply is a reply produced by the pipeline or released by a
// human reviewer.
type OutgoingReply struct {
	To        string
	Subject   string
	Text      string
	InReplyTo string // provider message id of the original
}

// MailProvider is the outbound port for one mailbox transport (IMAP or
// Gmail). Connect opens a session with the owner's stored credentials;
// SendReply delivers a reply through the same account.
type MailProvider interface {
	ProviderType() domain.MailboxProvider
	Connect(ctx context.Context, cfg *domain.MailboxConfig) (InboxSession, error)
	SendReply(ctx context.Context, cfg *domain.MailboxConfig, reply *OutgoingReply) (messageID string, err error)
}

// ProviderFactory resolves the transport for an owner's mailbox settings.
type ProviderFactory interface {
	ForConfig(cfg *domain.MailboxConfig) (MailProvider, error)
}
