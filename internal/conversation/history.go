package conversation

import (
	"strings"

	"github.com/sohanAi024/News-Multi-Agent/models"
)

var statusMarkers = []string{MarkerWarning, MarkerError, MarkerDocument, MarkerMail}

func hasStatusMarker(text string) bool {
	for _, m := range statusMarkers {
		if strings.HasPrefix(text, m) {
			return true
		}
	}
	return false
}

// LastNewsMessage returns the most recent assistant message carrying news markers.
func LastNewsMessage(history []models.Message) (string, bool) {
	for i := len(history) - 1; i >= 0; i-- {
		m := history[i]
		if m.Role != models.RoleAssistant || m.Text == "" || hasStatusMarker(m.Text) {
			continue
		}
		if strings.Contains(m.Text, MarkerNews) || strings.Contains(m.Text, MarkerLink) {
			return m.Text, true
		}
	}
	return "", false
}

// LastExportableMessage returns the most recent assistant message that is not a status reply.
func LastExportableMessage(history []models.Message) (string, bool) {
	for i := len(history) - 1; i >= 0; i-- {
		m := history[i]
		if m.Role == models.RoleAssistant && m.Text != "" && !hasStatusMarker(m.Text) {
			return m.Text, true
		}
	}
	return "", false
}
