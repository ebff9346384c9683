package ranking

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/sohanAi024/News-Multi-Agent/internal/store"
	"github.com/sohanAi024/News-Multi-Agent/models"
	"github.com/sohanAi024/News-Multi-Agent/pkg/log"
	"github.com/sohanAi024/News-Multi-Agent/provider"
)

// Options tunes retrieval. Zero TopK and Concurrency fall back to 5 and 1.
type Options struct {
	Label          string
	CandidateLimit int
	TopK           int
	KeywordBoost   float64
	ScoreThreshold float64
	Concurrency    int
}

// OutcomeKind tells a successful search apart from the two empty cases.
type OutcomeKind int

const (
	OutcomeFound OutcomeKind = iota
	OutcomeNoCandidates
	OutcomeNoRelevant
)

// Outcome is the result of one search.
type Outcome struct {
	Kind    OutcomeKind
	Query   string
	Label   string
	Results []models.RankedResult
	Answer  string
	Blocks  string
}

// Message renders the outcome without any status marker.
func (o Outcome) Message() string {
	switch o.Kind {
	case OutcomeNoCandidates:
		return fmt.Sprintf("No news found for '%s'.", o.Query)
	case OutcomeNoRelevant:
		return fmt.Sprintf("No %s-related news found for your query.", o.Label)
	}
	return fmt.Sprintf("🤖 %s\n\n📌 Top Matching %s News:\n%s", o.Answer, o.Label, o.Blocks)
}

// URLs lists the cited URLs in rank order.
func (o Outcome) URLs() []string {
	out := make([]string, len(o.Results))
	for i, r := range o.Results {
		out[i] = r.Item.URL
	}
	return out
}

const synthesisPrompt = "You are an expert news summarizer. Based on these %s-related articles, answer:\n" +
	"User Query: %s\n\n" +
	"Provide:\n" +
	"1. A short, direct answer.\n" +
	"2. A concise summary of the main points.\n\n" +
	"Articles:\n%s\n\nAnswer:"

// Pipeline runs embed, vector search, domain filter, blended scoring and synthesis.
type Pipeline struct {
	embedder   provider.Embedder
	corpus     store.Reader
	classifier Classifier
	synth      provider.Completer
	opts       Options
	metrics    *Metrics
}

func NewPipeline(embedder provider.Embedder, corpus store.Reader, classifier Classifier, synth provider.Completer, opts Options, metrics *Metrics) *Pipeline {
	if opts.TopK <= 0 {
		opts.TopK = 5
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.Label == "" {
		opts.Label = "AI"
	}
	return &Pipeline{
		embedder:   embedder,
		corpus:     corpus,
		classifier: classifier,
		synth:      synth,
		opts:       opts,
		metrics:    metrics,
	}
}

// Search answers query from the corpus. Errors are external-call failures; the two
// empty outcomes are returned as Outcome values.
func (p *Pipeline) Search(ctx context.Context, query string) (Outcome, error) {
	logger := log.FromCtx(ctx)
	out := Outcome{Query: query, Label: p.opts.Label}

	vecs, err := p.embedder.Embed(ctx, []string{query})
	if err != nil {
		return out, fmt.Errorf("embed query: %w", err)
	}
	if len(vecs) != 1 || len(vecs[0]) == 0 {
		return out, models.ErrEmptyEmbedding
	}

	candidates, err := p.corpus.NearestByVector(ctx, vecs[0], p.opts.CandidateLimit)
	if err != nil {
		return out, fmt.Errorf("vector search: %w", err)
	}
	p.metrics.searched(len(candidates))
	if len(candidates) == 0 {
		out.Kind = OutcomeNoCandidates
		return out, nil
	}

	relevant, err := p.filter(ctx, candidates)
	if err != nil {
		return out, err
	}
	logger.Debug().Int("candidates", len(candidates)).Int("relevant", len(relevant)).Msg("domain filter applied")

	ranked := Rank(relevant, query, p.opts.KeywordBoost, p.opts.ScoreThreshold, p.opts.TopK)
	if len(ranked) == 0 {
		out.Kind = OutcomeNoRelevant
		return out, nil
	}

	out.Results = ranked
	out.Blocks = RenderBlocks(ranked)
	answer, err := p.synth.Complete(ctx, fmt.Sprintf(synthesisPrompt, p.opts.Label, query, out.Blocks), provider.CompleteOptions{})
	if err != nil {
		return out, fmt.Errorf("synthesize answer: %w", err)
	}
	out.Answer = answer
	out.Kind = OutcomeFound
	return out, nil
}

// filter classifies candidates concurrently and keeps distance order.
func (p *Pipeline) filter(ctx context.Context, candidates []models.Candidate) ([]models.Candidate, error) {
	keep := make([]bool, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Concurrency)
	for i := range candidates {
		i := i
		g.Go(func() error {
			ok, err := p.classifier.IsRelevant(gctx, candidates[i].Item.Title, candidates[i].Item.Content)
			if err != nil {
				return err
			}
			keep[i] = ok
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]models.Candidate, 0, len(candidates))
	for i, c := range candidates {
		if keep[i] {
			out = append(out, c)
		}
	}
	return out, nil
}

// Rank blends similarity with a keyword containment boost, drops results under
// threshold (when > 0), and returns the topK by score. Ties keep input order.
func Rank(candidates []models.Candidate, query string, boost, threshold float64, topK int) []models.RankedResult {
	keywords := strings.Fields(strings.ToLower(query))
	ranked := make([]models.RankedResult, 0, len(candidates))
	for _, c := range candidates {
		haystack := strings.ToLower(c.Item.Title) + strings.ToLower(c.Item.Content)
		matches := 0
		for _, k := range keywords {
			if strings.Contains(haystack, k) {
				matches++
			}
		}
		sim := 1 - c.Distance
		score := sim + boost*float64(matches)
		if threshold > 0 && score < threshold {
			continue
		}
		ranked = append(ranked, models.RankedResult{
			Item:           c.Item,
			Similarity:     sim,
			KeywordMatches: matches,
			Score:          score,
		})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })
	if topK > 0 && len(ranked) > topK {
		ranked = ranked[:topK]
	}
	return ranked
}
