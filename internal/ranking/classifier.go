package ranking

import (
	"context"
	"fmt"
	"strings"

	"github.com/sohanAi024/News-Multi-Agent/provider"
)

// Classifier is the binary domain filter applied to every candidate.
type Classifier interface {
	IsRelevant(ctx context.Context, title, body string) (bool, error)
}

const relevancePrompt = "Determine if the following news is specifically related to %s. " +
	"Return only 'YES' or 'NO'.\n\n" +
	"Title: %s\n" +
	"Content: %s..."

// LLMClassifier asks a completion model for a YES/NO verdict.
type LLMClassifier struct {
	completer provider.Completer
	domain    string
	preview   int
	metrics   *Metrics
}

func NewLLMClassifier(completer provider.Completer, domain string, preview int, metrics *Metrics) *LLMClassifier {
	if preview <= 0 {
		preview = 500
	}
	return &LLMClassifier{completer: completer, domain: domain, preview: preview, metrics: metrics}
}

// IsRelevant returns true only when the trimmed, upper-cased reply is exactly YES.
func (c *LLMClassifier) IsRelevant(ctx context.Context, title, body string) (bool, error) {
	prompt := fmt.Sprintf(relevancePrompt, c.domain, title, truncateRunes(body, c.preview))
	reply, err := c.completer.Complete(ctx, prompt, provider.CompleteOptions{})
	if err != nil {
		c.metrics.classified("error")
		return false, fmt.Errorf("relevance check: %w", err)
	}
	ok := strings.ToUpper(strings.TrimSpace(reply)) == "YES"
	if ok {
		c.metrics.classified("yes")
	} else {
		c.metrics.classified("no")
	}
	return ok, nil
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
