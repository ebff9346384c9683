package mail

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/sohanAi024/News-Multi-Agent/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomail "github.com/wneessen/go-mail"
)

func writeFile(t *testing.T, name string, body []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, body, 0o600))
	return path
}

func TestSendBuildsMessage(t *testing.T) {
	path := writeFile(t, "news_report.pdf", []byte("%PDF-1.3 test"))
	s := NewSender(Config{Host: "smtp.example.com", Username: "bot@example.com"})

	var sent bytes.Buffer
	s.dial = func(_ context.Context, msg *gomail.Msg) error {
		_, err := msg.WriteTo(&sent)
		return err
	}
	require.NoError(t, s.Send(context.Background(), "reader@example.com", path))
	out := sent.String()
	for _, want := range []string{
		"Subject: News Report PDF",
		"reader@example.com",
		"bot@example.com",
		"news_report.pdf",
	} {
		assert.Contains(t, out, want)
	}
}

func TestSendChecksAttachment(t *testing.T) {
	s := NewSender(Config{Host: "smtp.example.com", Username: "bot@example.com"})
	called := false
	s.dial = func(context.Context, *gomail.Msg) error { called = true; return nil }

	err := s.Send(context.Background(), "reader@example.com", filepath.Join(t.TempDir(), "gone.pdf"))
	assert.ErrorIs(t, err, models.ErrDocumentNotFound)
	empty := writeFile(t, "empty.pdf", nil)
	err = s.Send(context.Background(), "reader@example.com", empty)
	assert.ErrorIs(t, err, models.ErrDocumentEmpty)
	assert.False(t, called, "nothing is sent for unusable attachments")
}

func TestSendPropagatesTransportError(t *testing.T) {
	path := writeFile(t, "r.pdf", []byte("x"))
	s := NewSender(Config{Host: "smtp.example.com", Username: "bot@example.com"})
	s.dial = func(context.Context, *gomail.Msg) error { return errors.New("535 auth failed") }
	assert.Error(t, s.Send(context.Background(), "reader@example.com", path))
}
