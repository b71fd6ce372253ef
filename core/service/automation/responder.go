package automation

import (
	"context"
	"fmt"

	"github.com/Mr-Baga08/ai-email-marketing-sub001/core/domain"
	"github.com/Mr-Baga08/ai-email-marketing-sub001/core/port/out"
	"github.com/Mr-Baga08/ai-email-marketing-sub001/pkg/logger"
)

// staticTemplates are the last-resort replies used when every provider
// tier failed. A response must always be produced.
var staticTemplates = map[domain.Category]string{
	domain.CategoryProductInquiry: "Thank you for your interest in our product. A member of our team will follow up with the details you asked about shortly. In the meantime, feel free to browse our documentation or reply with any further questions.",
	domain.CategoryCustomerComplaint: "Thank you for bringing this to our attention, and we are sorry about the experience you described. Your message has been passed to our support team, and someone will get back to you as soon as possible to make this right.",
	domain.CategoryCustomerFeedback: "Thank you for taking the time to share your feedback. We read every message and your input helps shape what we build next. If there is anything else you would like us to know, just reply to this email.",
}

// ResponseGenerator drafts a reply for an inbound message given its
// category and any retrieved knowledge-base context. The completion
// client is the two-tier provider chain; a static per-category template
// is the final fallback, so Generate never returns an error.
type ResponseGenerator struct {
	llm out.CompletionClient
}

func NewResponseGenerator(llm out.CompletionClient) *ResponseGenerator {
	return &ResponseGenerator{llm: llm}
}

func (g *ResponseGenerator) Generate(ctx context.Context, msg *domain.InboundMessage, category domain.Category, kbContext string) string {
	systemPrompt := buildResponseSystemPrompt(category, kbContext)
	userPrompt := fmt.Sprintf("Customer email:\nFrom: %s\nSubject: %s\n\n%s\n\nWrite the reply body:",
		msg.From, msg.Subject, truncateBody(msg.BodyText, 2000))

	draft, err := g.llm.CompleteWithSystem(ctx, systemPrompt, userPrompt, &out.CompletionOptions{
		Temperature: 0.7,
		MaxTokens:   600,
	})
	if err == nil && draft != "" {
		return draft
	}
	if err != nil {
		logger.Warn("response generation failed for category %s, using static template: %v", category, err)
	}

	if tmpl, ok := staticTemplates[category]; ok {
		return tmpl
	}
	return staticTemplates[domain.CategoryCustomerFeedback]
}

func buildResponseSystemPrompt(category domain.Category, kbContext string) string {
	prompt := `You are a customer success representative replying to an inbound email on behalf of the company.

Rules:
- Use ONLY the supplied context for factual claims. If the context says no information was found, say you will check and follow up; never fabricate product facts.
- Keep the reply concise and professional.
- Do not include a subject line or signature block.`

	switch category {
	case domain.CategoryCustomerComplaint:
		prompt += "\n- The customer is unhappy: open with a genuine, empathetic acknowledgment before anything else."
	case domain.CategoryProductInquiry:
		prompt += "\n- Close with a short call-to-action inviting the customer to book a demo or reply with questions."
	}

	if kbContext != "" {
		prompt += "\n\nContext from the knowledge base:\n" + kbContext
	} else {
		prompt += "\n\nNo knowledge-base context is available for this message."
	}
	return prompt
}
