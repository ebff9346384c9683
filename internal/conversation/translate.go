package conversation

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/sohanAi024/News-Multi-Agent/provider"
)

// DefaultLanguage is used when the request names no known language.
const DefaultLanguage = "Hindi"

type language struct {
	keyword string
	name    string
	notes   string
}

// languages are matched in table order, not by position in the message.
var languages = []language{
	{"hindi", "Hindi", "- Use Devanagari script\n"},
	{"french", "French", ""},
	{"german", "German", ""},
	{"japanese", "Japanese", ""},
	{"spanish", "Spanish", ""},
	{"chinese", "Chinese", ""},
	{"arabic", "Arabic", ""},
	{"russian", "Russian", ""},
}

// TargetLanguage picks the first language from the table mentioned in text.
func TargetLanguage(text string) string {
	return lookupLanguage(text).name
}

func lookupLanguage(text string) language {
	lower := strings.ToLower(text)
	for _, l := range languages {
		if strings.Contains(lower, l.keyword) {
			return l
		}
	}
	return languages[0]
}

const translatePrompt = "Translate the following English news content to %s while strictly maintaining:\n" +
	"1. All original formatting (emojis, URLs, separators, line breaks)\n" +
	"2. Metadata labels (📰, 🔗, 📅) in their original form\n" +
	"3. Technical terms and proper nouns (like AI, ChatGPT, Musk) in original English\n" +
	"4. Numeric values and dates in original format\n" +
	"5. Placeholders of the form %s exactly as written\n\n" +
	"Special Instructions for %s:\n" +
	"%s" +
	"- Keep English technical terms as-is\n" +
	"- Maintain news article tone\n\n" +
	"Content to translate:\n%s"

var urlPattern = regexp.MustCompile(`https?://[^\s]+`)

// maskURLs swaps every URL for an indexed placeholder.
func maskURLs(text string) (string, []string) {
	var urls []string
	masked := urlPattern.ReplaceAllStringFunc(text, func(u string) string {
		urls = append(urls, u)
		return placeholder(len(urls) - 1)
	})
	return masked, urls
}

func unmaskURLs(text string, urls []string) string {
	for i := range urls {
		text = strings.ReplaceAll(text, placeholder(i), urls[i])
	}
	return text
}

func placeholder(i int) string { return fmt.Sprintf("[[URL_%d]]", i) }

type translateHandler struct{ llm provider.Completer }

func (h translateHandler) Handle(ctx context.Context, turn Turn) (Reply, error) {
	news, found := LastNewsMessage(turn.History)
	if !found {
		return warn(ReasonNoNews, "No news content found to translate. Please search for news first."), nil
	}
	lang := lookupLanguage(turn.Text)
	masked, urls := maskURLs(news)

	prompt := fmt.Sprintf(translatePrompt, lang.name, "[[URL_n]]", lang.name, lang.notes, masked)
	translated, err := h.llm.Complete(ctx, prompt, provider.CompleteOptions{
		Temperature: provider.Float(0.2),
		MaxTokens:   4000,
		Stop:        []string{"###"},
	})
	if err != nil {
		return Reply{}, err
	}
	return ok(unmaskURLs(translated, urls)), nil
}
