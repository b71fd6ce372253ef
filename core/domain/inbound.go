package domain

import "time"

// InboundMessage is one unseen message fetched from a mailbox. It is
// ephemeral: consumed once by the processing pipeline and never re-fetched
// (the provider marks it seen at the transport level).
type InboundMessage struct {
	ProviderMessageID string
	Subject           string
	From              string
	To                string
	ReceivedAt        time.Time
	BodyText          string
}
