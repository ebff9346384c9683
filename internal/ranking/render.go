package ranking

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/sohanAi024/News-Multi-Agent/models"
)

var (
	categoryPrefix = regexp.MustCompile(`^Category:\s*`)
	parenthetical  = regexp.MustCompile(`\(.*?\)`)
	separator      = strings.Repeat("-", 60)
)

// NormalizeCategory strips a leading "Category:" label and parenthetical notes.
func NormalizeCategory(category string) string {
	category = categoryPrefix.ReplaceAllString(category, "")
	category = strings.TrimSpace(parenthetical.ReplaceAllString(category, ""))
	if category == "" {
		return "General"
	}
	return category
}

// RenderBlock formats one result as a news-shaped block.
func RenderBlock(item models.NewsItem) string {
	return fmt.Sprintf("📰 **Title:** %s\n🔗 **URL:** %s\n📂 **Category:** %s\n📜 **Content:**\n%s\n%s",
		item.Title, item.URL, NormalizeCategory(item.Category), item.Content, separator)
}

// RenderBlocks joins result blocks with blank lines.
func RenderBlocks(results []models.RankedResult) string {
	blocks := make([]string, len(results))
	for i, r := range results {
		blocks[i] = RenderBlock(r.Item)
	}
	return strings.Join(blocks, "\n\n")
}
