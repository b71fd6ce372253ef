package domain

import (
	"time"

	"github.com/google/uuid"
)

// MailboxProvider selects the inbox transport for an owner.
type MailboxProvider string

const (
	MailboxIMAP  MailboxProvider = "imap"
	MailboxGmail MailboxProvider = "gmail"
)

// MailboxConfig holds the connection details for one owner's mailbox.
// Password and OAuthToken are stored encrypted at rest by the settings
// adapter.
type MailboxConfig struct {
	Provider    MailboxProvider `json:"provider" bson:"provider"`
	IMAPHost    string          `json:"imap_host,omitempty" bson:"imap_host,omitempty"`
	IMAPPort    int             `json:"imap_port,omitempty" bson:"imap_port,omitempty"`
	SMTPHost    string          `json:"smtp_host,omitempty" bson:"smtp_host,omitempty"`
	SMTPPort    int             `json:"smtp_port,omitempty" bson:"smtp_port,omitempty"`
	Username    string          `json:"username,omitempty" bson:"username,omitempty"`
	Password    string          `json:"-" bson:"password,omitempty"`
	OAuthToken  string          `json:"-" bson:"oauth_token,omitempty"`
	FromAddress string          `json:"from_address" bson:"from_address"`
}

// AutomationSettings is the durable per-owner automation state. The worker
// re-hydrates in-process monitors from enabled settings on startup, so a
// restart does not silently drop running automations.
type AutomationSettings struct {
	Owner           uuid.UUID     `json:"owner" bson:"owner"`
	Enabled         bool          `json:"enabled" bson:"enabled"`
	IntervalMinutes int           `json:"interval_minutes" bson:"interval_minutes"`
	Mailbox         MailboxConfig `json:"mailbox" bson:"mailbox"`
	UpdatedAt       time.Time     `json:"updated_at" bson:"updated_at"`
}

// Interval returns the polling interval, falling back to a sane default
// when the stored value is missing or nonsensical.
func (s *AutomationSettings) Interval() time.Duration {
	if s.IntervalMinutes <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(s.IntervalMinutes) * time.Minute
}
