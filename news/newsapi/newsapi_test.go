package newsapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopHeadlines(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "en", q.Get("language"))
		assert.Equal(t, "50", q.Get("pageSize"))
		assert.Equal(t, "k", q.Get("apiKey"))
		_, _ = w.Write([]byte(`{"status":"ok","totalResults":2,"articles":[
			{"title":"GPT news","description":"desc","url":"https://a.example/1","publishedAt":"2024-05-01T10:00:00Z"},
			{"title":"Other","description":"","url":"https://a.example/2","publishedAt":"2024-05-01T11:00:00Z"}]}`))
	}))
	defer srv.Close()

	articles, err := NewsAPI{APIKey: "k", Endpoint: srv.URL}.TopHeadlines(context.Background())
	require.NoError(t, err)
	require.Len(t, articles, 2)
	assert.Equal(t, "https://a.example/1", articles[0].URL)
	assert.False(t, articles[0].PublishedAt.IsZero())
}

func TestTopHeadlinesError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"status":"error","code":"apiKeyInvalid","message":"Your API key is invalid"}`))
	}))
	defer srv.Close()

	_, err := NewsAPI{Endpoint: srv.URL}.TopHeadlines(context.Background())
	assert.Error(t, err)
}
