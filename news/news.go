package news

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"sync"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sohanAi024/News-Multi-Agent/internal/store"
	"github.com/sohanAi024/News-Multi-Agent/models"
	"github.com/sohanAi024/News-Multi-Agent/news/newsapi"
	"github.com/sohanAi024/News-Multi-Agent/pkg/log"
	"github.com/sohanAi024/News-Multi-Agent/provider"
)

// ErrIngestRunning is reported when a run is requested while another is in flight.
var ErrIngestRunning = errors.New("ingestion already running")

// HeadlineSource yields the current batch of headlines.
type HeadlineSource interface {
	TopHeadlines(ctx context.Context) ([]newsapi.Article, error)
}

const categoryPrompt = `Analyze this news article and provide ONE short category (1-2 words)
that best represents the topic. Examples: Technology, Politics, Health, Sports, Business, Entertainment, Science, World, Education, Finance.

News Content:
%s

Respond with only the category name, nothing else.`

// Enricher returns the full body text of the article at url.
type Enricher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Report summarises one ingestion run.
type Report struct {
	Fetched int
	Skipped int
	Stored  int
	Err     error
}

// Message renders the report for HTTP and CLI callers.
func (r Report) Message() string {
	if r.Err != nil {
		return fmt.Sprintf("❌ Error during scraping: %v", r.Err)
	}
	return fmt.Sprintf("✅ %d new articles stored successfully", r.Stored)
}

// Ingestor pulls headlines into the corpus. Only one run executes at a time per Ingestor.
type Ingestor struct {
	source      HeadlineSource
	corpus      store.Corpus
	embedder    provider.Embedder
	categorizer provider.Completer
	enricher    Enricher
	policy      *bluemonday.Policy
	metrics     *Metrics
	mu          sync.Mutex
}

func NewIngestor(source HeadlineSource, corpus store.Corpus, embedder provider.Embedder, categorizer provider.Completer, metrics *Metrics) *Ingestor {
	return &Ingestor{
		source:      source,
		corpus:      corpus,
		embedder:    embedder,
		categorizer: categorizer,
		policy:      bluemonday.StrictPolicy(),
		metrics:     metrics,
	}
}

// WithFullText replaces feed descriptions with the fetched article body where available.
func (i *Ingestor) WithFullText(e Enricher) *Ingestor {
	i.enricher = e
	return i
}

type pending struct {
	article newsapi.Article
	title   string
	content string
}

// Run fetches, deduplicates, embeds, categorises and stores headlines inside one transaction.
// Any failure rolls the whole batch back and is reported, never returned.
func (i *Ingestor) Run(ctx context.Context) (rep Report) {
	if !i.mu.TryLock() {
		return Report{Err: ErrIngestRunning}
	}
	defer i.mu.Unlock()

	logger := log.FromCtx(ctx)
	start := time.Now()
	defer func() {
		i.metrics.observe(rep, time.Since(start))
		if rep.Err != nil {
			logger.Error().Err(rep.Err).Msg("ingestion failed")
			return
		}
		logger.Info().Int("fetched", rep.Fetched).Int("stored", rep.Stored).Int("skipped", rep.Skipped).
			Dur("took", time.Since(start)).Msg("ingestion finished")
	}()

	articles, err := i.source.TopHeadlines(ctx)
	if err != nil {
		return Report{Err: err}
	}
	rep.Fetched = len(articles)

	tx, err := i.corpus.BeginIngest(ctx)
	if err != nil {
		return Report{Fetched: rep.Fetched, Err: err}
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var batch []pending
	seen := make(map[string]struct{})
	for _, a := range articles {
		title := i.clean(a.Title)
		link := strings.TrimSpace(a.URL)
		if title == "" || link == "" {
			rep.Skipped++
			continue
		}
		if _, dup := seen[link]; dup {
			rep.Skipped++
			continue
		}
		exists, err := tx.ExistsURL(ctx, link)
		if err != nil {
			return Report{Fetched: rep.Fetched, Err: fmt.Errorf("check url: %w", err)}
		}
		if exists {
			rep.Skipped++
			continue
		}
		seen[link] = struct{}{}
		content := title
		if desc := i.clean(a.Description); desc != "" {
			content = fmt.Sprintf("%s. %s", title, desc)
		}
		if body := i.fullText(ctx, link); body != "" {
			content = fmt.Sprintf("%s. %s", title, body)
		}
		batch = append(batch, pending{article: a, title: title, content: content})
	}

	if len(batch) > 0 {
		texts := make([]string, len(batch))
		for idx, p := range batch {
			texts[idx] = p.content
		}
		vecs, err := i.embedder.Embed(ctx, texts)
		if err != nil {
			return Report{Fetched: rep.Fetched, Err: fmt.Errorf("embed: %w", err)}
		}
		if len(vecs) != len(batch) {
			return Report{Fetched: rep.Fetched, Err: fmt.Errorf("embed: expected %d vectors, got %d", len(batch), len(vecs))}
		}

		for idx, p := range batch {
			category, err := i.categorizer.Complete(ctx, fmt.Sprintf(categoryPrompt, p.content), provider.CompleteOptions{})
			if err != nil {
				return Report{Fetched: rep.Fetched, Err: fmt.Errorf("categorize: %w", err)}
			}
			inserted, err := tx.InsertIfAbsent(ctx, models.NewsItem{
				Title:       p.title,
				Content:     p.content,
				URL:         strings.TrimSpace(p.article.URL),
				Category:    strings.TrimSpace(category),
				Embedding:   vecs[idx],
				PublishedAt: p.article.PublishedAt,
			})
			if err != nil {
				return Report{Fetched: rep.Fetched, Err: err}
			}
			if inserted {
				rep.Stored++
			} else {
				rep.Skipped++
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return Report{Fetched: rep.Fetched, Err: fmt.Errorf("commit: %w", err)}
	}
	committed = true
	return rep
}

// fullText is best effort: a page that cannot be fetched keeps the feed description.
func (i *Ingestor) fullText(ctx context.Context, link string) string {
	if i.enricher == nil {
		return ""
	}
	body, err := i.enricher.Fetch(ctx, link)
	if err != nil {
		log.FromCtx(ctx).Debug().Err(err).Str("url", link).Msg("full text unavailable")
		return ""
	}
	return i.clean(body)
}

// clean strips markup from feed text.
func (i *Ingestor) clean(s string) string {
	return strings.TrimSpace(html.UnescapeString(i.policy.Sanitize(s)))
}

// Metrics for ingestion runs. A nil *Metrics records nothing.
type Metrics struct {
	runs     *prometheus.CounterVec
	articles prometheus.Counter
	duration prometheus.Histogram
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "newsagent_ingest_runs_total",
			Help: "Ingestion runs by result.",
		}, []string{"result"}),
		articles: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "newsagent_ingested_articles_total",
			Help: "Articles stored by ingestion.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "newsagent_ingest_duration_seconds",
			Help:    "Ingestion run latency.",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
	}
	if reg != nil {
		reg.MustRegister(m.runs, m.articles, m.duration)
	}
	return m
}

func (m *Metrics) observe(rep Report, took time.Duration) {
	if m == nil {
		return
	}
	result := "ok"
	if rep.Err != nil {
		result = "error"
	}
	m.runs.WithLabelValues(result).Inc()
	m.articles.Add(float64(rep.Stored))
	m.duration.Observe(took.Seconds())
}
