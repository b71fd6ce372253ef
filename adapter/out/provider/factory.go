package provider

import (
	"fmt"

	"github.com/Mr-Baga08/ai-email-marketing-sub001/core/domain"
	"github.com/Mr-Baga08/ai-email-marketing-sub001/core/port/out"
)

// Factory resolves the transport for a mailbox configuration. Adapters
// are stateless per owner, so one instance of each is shared.
type Factory struct {
	imap  *IMAPAdapter
	gmail *GmailAdapter
}

var _ out.ProviderFactory = (*Factory)(nil)

func NewFactory(gmailCfg *GmailConfig) *Factory {
	return &Factory{
		imap:  NewIMAPAdapter(),
		gmail: NewGmailAdapter(gmailCfg),
	}
}

func (f *Factory) ForConfig(cfg *domain.MailboxConfig) (out.MailProvider, error) {
	switch cfg.Provider {
	case domain.MailboxIMAP:
		return f.imap, nil
	case domain.MailboxGmail:
		return f.gmail, nil
	default:
		return nil, fmt.Errorf("unsupported mailbox provider: %q", cfg.Provider)
	}
}
