package ranking

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sohanAi024/News-Multi-Agent/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type replyCompleter struct {
	reply  string
	err    error
	prompt string
}

func (r *replyCompleter) Complete(_ context.Context, prompt string, _ provider.CompleteOptions) (string, error) {
	r.prompt = prompt
	return r.reply, r.err
}

func TestLLMClassifierVerdicts(t *testing.T) {
	cases := []struct {
		reply string
		want  bool
	}{
		{"YES", true},
		{"  yes\n", true},
		{"Yes.", false},
		{"NO", false},
		{"YES, it is about AI", false},
	}
	for _, tc := range cases {
		c := NewLLMClassifier(&replyCompleter{reply: tc.reply}, "Artificial Intelligence (AI)", 500, nil)
		got, err := c.IsRelevant(context.Background(), "t", "b")
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "reply %q", tc.reply)
	}
}

func TestLLMClassifierPromptTruncatesBody(t *testing.T) {
	rc := &replyCompleter{reply: "NO"}
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	c := NewLLMClassifier(rc, "Artificial Intelligence (AI)", 10, m)

	_, err := c.IsRelevant(context.Background(), "Robots", strings.Repeat("é", 20))
	require.NoError(t, err)
	assert.Contains(t, rc.prompt, "specifically related to Artificial Intelligence (AI). Return only 'YES' or 'NO'.")
	assert.Contains(t, rc.prompt, "Title: Robots\n")
	assert.True(t, strings.HasSuffix(rc.prompt, "Content: "+strings.Repeat("é", 10)+"..."))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.classifierCalls.WithLabelValues("no")))
}

func TestLLMClassifierError(t *testing.T) {
	c := NewLLMClassifier(&replyCompleter{err: errors.New("boom")}, "AI", 0, nil)
	_, err := c.IsRelevant(context.Background(), "t", "b")
	require.Error(t, err)
}

func TestNormalizeCategory(t *testing.T) {
	assert.Equal(t, "General", NormalizeCategory(""))
	assert.Equal(t, "Technology", NormalizeCategory("Category: Technology"))
	assert.Equal(t, "Science", NormalizeCategory("Science (space)"))
	assert.Equal(t, "General", NormalizeCategory("Category: (none)"))
	assert.Equal(t, "Business", NormalizeCategory("  Business "))
}
