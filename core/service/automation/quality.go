package automation

import (
	"context"
	"fmt"
	"strings"

	"github.com/Mr-Baga08/ai-email-marketing-sub001/core/port/out"
	"github.com/Mr-Baga08/ai-email-marketing-sub001/pkg/logger"
)

const qualityGateSystemPrompt = `You review drafted customer-support email replies before they are sent.
Check the draft against the original email for professionalism, relevance, and completeness.

Respond in exactly this format:
SENDABLE: true or false
FEEDBACK: one short sentence describing any problem, or leave empty if none.`

// ReviewResult is the quality gate's verdict on a draft.
type ReviewResult struct {
	Sendable bool
	Feedback string
}

// QualityGate asks the provider chain to self-assess a draft reply.
// When the check itself fails it fails open: blocking every auto-send on
// a gate outage is worse than an occasional imperfect reply, and the
// warning annotation keeps the outage visible in the record.
type QualityGate struct {
	llm out.CompletionClient
}

func NewQualityGate(llm out.CompletionClient) *QualityGate {
	return &QualityGate{llm: llm}
}

func (g *QualityGate) Check(ctx context.Context, originalBody, draft string) *ReviewResult {
	userPrompt := fmt.Sprintf("Original email:\n%s\n\nDrafted reply:\n%s",
		truncateBody(originalBody, 2000), truncateBody(draft, 2000))

	resp, err := g.llm.CompleteWithSystem(ctx, qualityGateSystemPrompt, userPrompt, &out.CompletionOptions{
		Temperature: 0.1,
		MaxTokens:   150,
	})
	if err != nil {
		logger.Warn("quality check unavailable, failing open: %v", err)
		return &ReviewResult{
			Sendable: true,
			Feedback: "quality check unavailable: " + err.Error(),
		}
	}

	return parseReview(resp)
}

func parseReview(resp string) *ReviewResult {
	result := &ReviewResult{Sendable: true}

	for _, line := range strings.Split(resp, "\n") {
		trimmed := strings.TrimSpace(line)
		upper := strings.ToUpper(trimmed)
		switch {
		case strings.HasPrefix(upper, "SENDABLE:"):
			value := strings.ToLower(strings.TrimSpace(trimmed[len("SENDABLE:"):]))
			result.Sendable = !strings.HasPrefix(value, "false")
		case strings.HasPrefix(upper, "FEEDBACK:"):
			result.Feedback = strings.TrimSpace(trimmed[len("FEEDBACK:"):])
		}
	}

	return result
}
