package openai_provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, srv *httptest.Server, retries int) *Client {
	t.Helper()
	c, err := NewClient(Options{
		BaseURL:        srv.URL + "/v1/",
		APIKey:         "secret",
		Model:          "llama3-70b-8192",
		EmbeddingModel: "all-MiniLM-L6-v2",
		Temperature:    0.7,
		MaxTokens:      256,
		MaxRetries:     retries,
	})
	require.NoError(t, err)
	return c
}

func TestCompleteSendsOverrides(t *testing.T) {
	var got request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"  bonjour  "}}]}`))
	}))
	defer srv.Close()

	temp := 0.2
	out, err := newTestClient(t, srv, 0).Complete(context.Background(), "hello", CallOptions{
		Temperature: &temp,
		MaxTokens:   4000,
		Stop:        []string{"###"},
	})
	require.NoError(t, err)
	assert.Equal(t, "bonjour", out)
	assert.Equal(t, "llama3-70b-8192", got.Model)
	assert.Equal(t, 0.2, got.Temperature)
	assert.Equal(t, 4000, got.MaxTokens)
	assert.Equal(t, []string{"###"}, got.Stop)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "hello", got.Messages[0].Content)
}

func TestCompleteDefaults(t *testing.T) {
	var got request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv, 0).Complete(context.Background(), "hi", CallOptions{})
	require.NoError(t, err)
	assert.Equal(t, 0.7, got.Temperature)
	assert.Equal(t, 256, got.MaxTokens)
	assert.Empty(t, got.Stop)
}

func TestCompleteRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer srv.Close()

	out, err := newTestClient(t, srv, 2).Complete(context.Background(), "hi", CallOptions{})
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestCompleteDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv, 3).Complete(context.Background(), "hi", CallOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestEmbedOrdersByIndex(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/embeddings", r.URL.Path)
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "all-MiniLM-L6-v2", body["model"])
		_, _ = w.Write([]byte(`{"data":[{"index":1,"embedding":[0,1]},{"index":0,"embedding":[1,0]}]}`))
	}))
	defer srv.Close()

	vecs, err := newTestClient(t, srv, 0).Embed(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 0}, {0, 1}}, vecs)
}

func TestEmbedCountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"index":0,"embedding":[1,0]}]}`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv, 0).Embed(context.Background(), []string{"a", "b"})
	require.Error(t, err)
}
