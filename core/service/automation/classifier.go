package automation

import (
	"context"
	"fmt"
	"strings"

	"github.com/Mr-Baga08/ai-email-marketing-sub001/core/domain"
	"github.com/Mr-Baga08/ai-email-marketing-sub001/core/port/out"
	"github.com/Mr-Baga08/ai-email-marketing-sub001/pkg/logger"
)

const classifierSystemPrompt = `You are an email classification AI for a customer-facing inbox.
Classify the email into exactly one category:

- product_inquiry: questions about product capabilities, pricing, plans, integrations
- customer_complaint: dissatisfaction, problems, refund demands, angry tone
- customer_feedback: suggestions, praise, feature requests, survey answers
- unrelated: anything else (newsletters, spam, internal mail, vendor outreach)

Respond with the category name only.`

// Classifier assigns an intent category to an inbound message. The
// completion client is the two-tier provider chain; if every tier fails
// the classifier returns unrelated, which suppresses auto-response rather
// than risking a wrong answer.
type Classifier struct {
	llm out.CompletionClient
}

func NewClassifier(llm out.CompletionClient) *Classifier {
	return &Classifier{llm: llm}
}

// Classify never returns an error; failures degrade to unrelated.
func (c *Classifier) Classify(ctx context.Context, msg *domain.InboundMessage) domain.Category {
	userPrompt := fmt.Sprintf("From: %s\nSubject: %s\n\nBody:\n%s",
		msg.From, msg.Subject, truncateBody(msg.BodyText, 2000))

	resp, err := c.llm.CompleteWithSystem(ctx, classifierSystemPrompt, userPrompt, &out.CompletionOptions{
		Temperature: 0.1,
		MaxTokens:   20,
	})
	if err != nil {
		logger.Warn("classification failed, defaulting to unrelated: %v", err)
		return domain.CategoryUnrelated
	}

	return parseCategory(resp)
}

// parseCategory maps the first matching category keyword in the response,
// in fixed priority order. Both underscore and space spellings are
// accepted since models are inconsistent about them.
func parseCategory(resp string) domain.Category {
	lowered := strings.ToLower(resp)
	for _, cat := range domain.CategoryPriority() {
		keyword := string(cat)
		if strings.Contains(lowered, keyword) ||
			strings.Contains(lowered, strings.ReplaceAll(keyword, "_", " ")) {
			return cat
		}
	}
	return domain.CategoryUnrelated
}

func truncateBody(body string, maxLen int) string {
	if len(body) <= maxLen {
		return body
	}
	return body[:maxLen] + "..."
}
