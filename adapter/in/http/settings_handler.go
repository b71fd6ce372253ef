package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/Mr-Baga08/ai-email-marketing-sub001/core/domain"
	"github.com/Mr-Baga08/ai-email-marketing-sub001/core/port/out"
	"github.com/Mr-Baga08/ai-email-marketing-sub001/pkg/response"
)

// SettingsHandler handles mailbox configuration. Credentials are
// accepted on writes but never echoed back in reads.
type SettingsHandler struct {
	settings out.SettingsRepository
}

func NewSettingsHandler(settings out.SettingsRepository) *SettingsHandler {
	return &SettingsHandler{settings: settings}
}

// Register registers settings routes.
func (h *SettingsHandler) Register(router fiber.Router) {
	settings := router.Group("/settings")

	settings.Get("/mailbox", h.GetMailbox)
	settings.Put("/mailbox", h.UpdateMailbox)
}

type mailboxRequest struct {
	Provider    string `json:"provider"`
	IMAPHost    string `json:"imap_host"`
	IMAPPort    int    `json:"imap_port"`
	SMTPHost    string `json:"smtp_host"`
	SMTPPort    int    `json:"smtp_port"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	OAuthToken  string `json:"oauth_token"`
	FromAddress string `json:"from_address"`
}

// GetMailbox returns the stored mailbox configuration without credentials.
// GET /api/v1/settings/mailbox
func (h *SettingsHandler) GetMailbox(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return response.Unauthorized(c, "authentication required")
	}

	settings, err := h.settings.Get(c.Context(), userID)
	if err != nil {
		return response.FromError(c, err)
	}
	if settings == nil {
		return response.NotFound(c, "mailbox is not configured")
	}
	return response.OK(c, settings)
}

// UpdateMailbox stores the mailbox connection details. Fields left empty
// keep their previously stored values so credentials do not have to be
// resubmitted on every edit.
// PUT /api/v1/settings/mailbox
func (h *SettingsHandler) UpdateMailbox(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return response.Unauthorized(c, "authentication required")
	}

	var req mailboxRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	provider := domain.MailboxProvider(req.Provider)
	switch provider {
	case domain.MailboxIMAP, domain.MailboxGmail:
	default:
		return response.BadRequest(c, "provider must be imap or gmail")
	}

	settings, err := h.settings.Get(c.Context(), userID)
	if err != nil {
		return response.FromError(c, err)
	}
	if settings == nil {
		settings = &domain.AutomationSettings{Owner: userID}
	}

	mailbox := domain.MailboxConfig{
		Provider:    provider,
		IMAPHost:    req.IMAPHost,
		IMAPPort:    req.IMAPPort,
		SMTPHost:    req.SMTPHost,
		SMTPPort:    req.SMTPPort,
		Username:    req.Username,
		Password:    req.Password,
		OAuthToken:  req.OAuthToken,
		FromAddress: req.FromAddress,
	}
	if mailbox.Password == "" {
		mailbox.Password = settings.Mailbox.Password
	}
	if mailbox.OAuthToken == "" {
		mailbox.OAuthToken = settings.Mailbox.OAuthToken
	}

	settings.Mailbox = mailbox
	settings.UpdatedAt = time.Now().UTC()

	if err := h.settings.Upsert(c.Context(), settings); err != nil {
		return response.FromError(c, err)
	}
	return response.OK(c, settings)
}
