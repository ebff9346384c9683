package conversation

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sohanAi024/News-Multi-Agent/models"
	"github.com/sohanAi024/News-Multi-Agent/pkg/log"
	"github.com/sohanAi024/News-Multi-Agent/provider"
	"github.com/sohanAi024/News-Multi-Agent/session"
)

// Deps are the collaborators of an Engine.
type Deps struct {
	Store         session.Store
	Searcher      Searcher
	LLM           provider.Completer // summaries and translations
	Renderer      Renderer
	Mailer        Mailer
	DocumentTitle string
	LockTimeout   time.Duration
	Metrics       *Metrics
	// RemoveFile deletes a delivered document; defaults to os.Remove.
	RemoveFile func(string) error
}

// Engine runs the per-session conversation state machine.
type Engine struct {
	store       session.Store
	handlers    map[Action]Handler
	lockTimeout time.Duration
	metrics     *Metrics
}

func NewEngine(d Deps) *Engine {
	title := d.DocumentTitle
	if title == "" {
		title = "News Report"
	}
	remove := d.RemoveFile
	if remove == nil {
		remove = os.Remove
	}
	return &Engine{
		store: d.Store,
		handlers: map[Action]Handler{
			ActionSearch:    searchHandler{searcher: d.Searcher},
			ActionSummarize: summarizeHandler{llm: d.LLM},
			ActionTranslate: translateHandler{llm: d.LLM},
			ActionExport:    exportHandler{renderer: d.Renderer, title: title},
			ActionDeliver:   deliverHandler{mailer: d.Mailer, remove: remove},
			ActionClarify:   HandlerFunc(clarify),
		},
		lockTimeout: d.LockTimeout,
		metrics:     d.Metrics,
	}
}

// ProcessTurn handles one user message and returns the assistant's reply text.
// It never fails: every error surfaces as an error-marked reply, and every turn
// appends exactly one user and one assistant message to the session.
func (e *Engine) ProcessTurn(ctx context.Context, key, text string) string {
	start := time.Now()
	ctx = log.With(ctx, "session_id", key)
	logger := log.FromCtx(ctx)
	action := Classify(text)

	reply := e.turn(ctx, key, text, action)
	rendered := reply.Render()

	e.metrics.observe(action, reply.Status, time.Since(start))
	logger.Info().
		Str("action", string(action)).
		Str("status", reply.Status.String()).
		Str("reason", string(reply.Reason)).
		Dur("took", time.Since(start)).
		Msg("turn processed")
	return rendered
}

func (e *Engine) turn(ctx context.Context, key, text string, action Action) Reply {
	lockCtx := ctx
	if e.lockTimeout > 0 {
		var cancel context.CancelFunc
		lockCtx, cancel = context.WithTimeout(ctx, e.lockTimeout)
		defer cancel()
	}
	unlock, err := e.store.Lock(lockCtx, key)
	if err != nil {
		return errorReply(fmt.Errorf("lock session: %w", err))
	}
	defer unlock()

	st, err := e.store.Get(ctx, key)
	if err != nil {
		return errorReply(fmt.Errorf("load session: %w", err))
	}

	history := append(st.Messages, models.Message{Role: models.RoleUser, Text: text})
	reply := e.dispatch(ctx, action, Turn{Text: text, History: history, Document: st.DocumentPath})

	history = append(history, models.Message{Role: models.RoleAssistant, Text: reply.Render()})
	patch := session.Patch{Messages: &history, DocumentPath: reply.Document}

	// the turn is recorded even when the request ctx has expired
	if err := e.store.Update(context.WithoutCancel(ctx), key, patch); err != nil {
		log.FromCtx(ctx).Error().Err(err).Msg("persist session")
		return errorReply(fmt.Errorf("save session: %w", err))
	}
	return reply
}

func (e *Engine) dispatch(ctx context.Context, action Action, turn Turn) (reply Reply) {
	defer func() {
		if r := recover(); r != nil {
			log.FromCtx(ctx).Error().Str("action", string(action)).
				Str("stack", string(debug.Stack())).Msgf("handler panic: %v", r)
			reply = errorReply(fmt.Errorf("%v", r))
		}
	}()

	h, found := e.handlers[action]
	if !found {
		h = HandlerFunc(clarify)
	}
	reply, err := h.Handle(ctx, turn)
	if err != nil {
		log.FromCtx(ctx).Warn().Err(err).Str("action", string(action)).Msg("handler failed")
		return errorReply(err)
	}
	return reply
}

// Metrics for conversation turns. A nil *Metrics records nothing.
type Metrics struct {
	turns    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		turns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "newsagent_turns_total",
			Help: "Conversation turns by action and status.",
		}, []string{"action", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "newsagent_turn_duration_seconds",
			Help:    "Conversation turn latency by action.",
			Buckets: prometheus.DefBuckets,
		}, []string{"action"}),
	}
	if reg != nil {
		reg.MustRegister(m.turns, m.duration)
	}
	return m
}

func (m *Metrics) observe(action Action, status Status, took time.Duration) {
	if m == nil {
		return
	}
	m.turns.WithLabelValues(string(action), status.String()).Inc()
	m.duration.WithLabelValues(string(action)).Observe(took.Seconds())
}
