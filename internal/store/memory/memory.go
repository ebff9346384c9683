package memory

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sohanAi024/News-Multi-Agent/internal/store"
	"github.com/sohanAi024/News-Multi-Agent/models"
)

// Storage is an in-process corpus using brute-force cosine distance.
type Storage struct {
	mu     sync.RWMutex
	dims   int
	nextID int64
	items  []models.NewsItem
	byURL  map[string]int

	// writer admits one ingest transaction at a time.
	writer chan struct{}
}

var _ store.Corpus = (*Storage)(nil)

func NewStorage(dims int) *Storage {
	return &Storage{dims: dims, byURL: make(map[string]int), writer: make(chan struct{}, 1)}
}

func (s *Storage) ExistsURL(_ context.Context, url string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byURL[url]
	return ok, nil
}

func (s *Storage) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items), nil
}

func (s *Storage) NearestByVector(ctx context.Context, vec []float32, limit int) ([]models.Candidate, error) {
	if len(vec) == 0 {
		return nil, models.ErrEmptyEmbedding
	}
	if s.dims > 0 && len(vec) != s.dims {
		return nil, fmt.Errorf("%w: got %d want %d", models.ErrDimensionMismatch, len(vec), s.dims)
	}
	s.mu.RLock()
	out := make([]models.Candidate, 0, len(s.items))
	for _, it := range s.items {
		out = append(out, models.Candidate{Item: it, Distance: cosineDistance(it.Embedding, vec)})
	}
	s.mu.RUnlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	// items are kept in insertion (id) order, so ties keep id order
	sort.SliceStable(out, func(i, j int) bool { return out[i].Distance < out[j].Distance })
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

// BeginIngest waits until no other ingest transaction is open, so a URL
// reported as inserted is always applied by Commit.
func (s *Storage) BeginIngest(ctx context.Context) (store.IngestTx, error) {
	select {
	case s.writer <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return &tx{s: s, pending: make(map[string]models.NewsItem)}, nil
}

// tx buffers inserts until Commit.
type tx struct {
	s       *Storage
	order   []string
	pending map[string]models.NewsItem
	done    bool
}

var errTxDone = errors.New("transaction already finished")

func (t *tx) ExistsURL(ctx context.Context, url string) (bool, error) {
	if _, ok := t.pending[url]; ok {
		return true, nil
	}
	return t.s.ExistsURL(ctx, url)
}

func (t *tx) InsertIfAbsent(ctx context.Context, item models.NewsItem) (bool, error) {
	if t.done {
		return false, errTxDone
	}
	if strings.TrimSpace(item.URL) == "" {
		return false, models.ErrMissingURL
	}
	if len(item.Embedding) == 0 {
		return false, models.ErrEmptyEmbedding
	}
	if t.s.dims > 0 && len(item.Embedding) != t.s.dims {
		return false, fmt.Errorf("%w: got %d want %d", models.ErrDimensionMismatch, len(item.Embedding), t.s.dims)
	}
	exists, err := t.ExistsURL(ctx, item.URL)
	if err != nil || exists {
		return false, err
	}
	item.Embedding = append([]float32(nil), item.Embedding...)
	t.pending[item.URL] = item
	t.order = append(t.order, item.URL)
	return true, nil
}

func (t *tx) Commit() error {
	if t.done {
		return errTxDone
	}
	t.done = true
	defer func() { <-t.s.writer }()
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	for _, url := range t.order {
		item := t.pending[url]
		t.s.nextID++
		item.ID = t.s.nextID
		if item.PublishedAt.IsZero() {
			item.PublishedAt = time.Now().UTC()
		}
		t.s.byURL[url] = len(t.s.items)
		t.s.items = append(t.s.items, item)
	}
	return nil
}

func (t *tx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	t.pending = nil
	t.order = nil
	<-t.s.writer
	return nil
}

func cosineDistance(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
}
