package news

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sohanAi024/News-Multi-Agent/internal/store/memory"
	"github.com/sohanAi024/News-Multi-Agent/news/newsapi"
	"github.com/sohanAi024/News-Multi-Agent/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	articles []newsapi.Article
	err      error
}

func (f fakeSource) TopHeadlines(context.Context) ([]newsapi.Article, error) {
	return f.articles, f.err
}

type fakeEmbedder struct{ err error }

func (f fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t)), 1}
	}
	return out, nil
}

type fakeCategorizer struct {
	mu      sync.Mutex
	prompts []string
	reply   string
	failOn  int
}

func (f *fakeCategorizer) Complete(_ context.Context, prompt string, _ provider.CompleteOptions) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	if f.failOn > 0 && len(f.prompts) == f.failOn {
		return "", errors.New("rate limited")
	}
	return f.reply, nil
}

func article(title, desc, url string) newsapi.Article {
	return newsapi.Article{Title: title, Description: desc, URL: url, PublishedAt: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)}
}

func TestIngestorStoresNewArticles(t *testing.T) {
	corpus := memory.NewStorage(2)
	cat := &fakeCategorizer{reply: "  Technology \n"}
	src := fakeSource{articles: []newsapi.Article{
		article("GPT-5 <b>released</b>", "OpenAI &amp; partners", "https://n.example/1"),
		article("", "no title", "https://n.example/2"),
		article("no url", "", ""),
		article("Second", "", "https://n.example/3"),
		article("Second again", "", "https://n.example/3"),
	}}
	reg := prometheus.NewRegistry()
	ing := NewIngestor(src, corpus, fakeEmbedder{}, cat, NewMetrics(reg))

	rep := ing.Run(context.Background())
	require.NoError(t, rep.Err)
	assert.Equal(t, 5, rep.Fetched)
	assert.Equal(t, 2, rep.Stored)
	assert.Equal(t, 3, rep.Skipped)
	assert.Equal(t, "✅ 2 new articles stored successfully", rep.Message())

	got, err := corpus.NearestByVector(context.Background(), []float32{1, 1}, 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	byURL := map[string]string{}
	for _, c := range got {
		byURL[c.Item.URL] = c.Item.Content
		assert.Equal(t, "Technology", c.Item.Category)
	}
	assert.Equal(t, "GPT-5 released. OpenAI & partners", byURL["https://n.example/1"])
	assert.Equal(t, "Second", byURL["https://n.example/3"])

	require.Len(t, cat.prompts, 2)
	assert.True(t, strings.Contains(cat.prompts[0], "ONE short category (1-2 words)"))
	assert.Equal(t, float64(2), testutil.ToFloat64(ing.metrics.articles))

	// second run with the same feed stores nothing
	rep = ing.Run(context.Background())
	require.NoError(t, rep.Err)
	assert.Zero(t, rep.Stored)
	assert.Equal(t, "✅ 0 new articles stored successfully", rep.Message())
}

func TestIngestorRollsBackOnFailure(t *testing.T) {
	corpus := memory.NewStorage(2)
	cat := &fakeCategorizer{reply: "AI", failOn: 2}
	src := fakeSource{articles: []newsapi.Article{
		article("one", "", "https://n.example/1"),
		article("two", "", "https://n.example/2"),
	}}
	ing := NewIngestor(src, corpus, fakeEmbedder{}, cat, nil)

	rep := ing.Run(context.Background())
	require.Error(t, rep.Err)
	assert.Zero(t, rep.Stored)
	assert.True(t, strings.HasPrefix(rep.Message(), "❌ Error during scraping: "))

	n, _ := corpus.Count(context.Background())
	assert.Zero(t, n, "partial batch must not be visible after rollback")
}

func TestIngestorSourceFailure(t *testing.T) {
	ing := NewIngestor(fakeSource{err: errors.New("timeout")}, memory.NewStorage(2), fakeEmbedder{}, &fakeCategorizer{}, nil)
	rep := ing.Run(context.Background())
	assert.EqualError(t, rep.Err, "timeout")
	assert.Equal(t, "❌ Error during scraping: timeout", rep.Message())
}

func TestIngestorEmbedFailure(t *testing.T) {
	src := fakeSource{articles: []newsapi.Article{article("one", "", "https://n.example/1")}}
	corpus := memory.NewStorage(2)
	ing := NewIngestor(src, corpus, fakeEmbedder{err: errors.New("down")}, &fakeCategorizer{reply: "AI"}, nil)
	rep := ing.Run(context.Background())
	require.Error(t, rep.Err)
	n, _ := corpus.Count(context.Background())
	assert.Zero(t, n)
}

type fakeEnricher map[string]string

func (f fakeEnricher) Fetch(_ context.Context, url string) (string, error) {
	if body, ok := f[url]; ok {
		return body, nil
	}
	return "", errors.New("blocked")
}

func TestIngestorFullText(t *testing.T) {
	corpus := memory.NewStorage(2)
	src := fakeSource{articles: []newsapi.Article{
		article("Chip", "short teaser", "https://n.example/1"),
		article("Policy", "keeps teaser", "https://n.example/2"),
	}}
	ing := NewIngestor(src, corpus, fakeEmbedder{}, &fakeCategorizer{reply: "AI"}, nil).
		WithFullText(fakeEnricher{"https://n.example/1": "The <em>whole</em> article body."})

	rep := ing.Run(context.Background())
	require.NoError(t, rep.Err)
	require.Equal(t, 2, rep.Stored)

	got, err := corpus.NearestByVector(context.Background(), []float32{1, 1}, 0)
	require.NoError(t, err)
	byURL := map[string]string{}
	for _, c := range got {
		byURL[c.Item.URL] = c.Item.Content
	}
	assert.Equal(t, "Chip. The whole article body.", byURL["https://n.example/1"])
	assert.Equal(t, "Policy. keeps teaser", byURL["https://n.example/2"])
}
