package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sohanAi024/News-Multi-Agent/config"
	"github.com/sohanAi024/News-Multi-Agent/internal/conversation"
	"github.com/sohanAi024/News-Multi-Agent/internal/document"
	"github.com/sohanAi024/News-Multi-Agent/internal/mail"
	"github.com/sohanAi024/News-Multi-Agent/internal/ranking"
	"github.com/sohanAi024/News-Multi-Agent/internal/store"
	memstore "github.com/sohanAi024/News-Multi-Agent/internal/store/memory"
	"github.com/sohanAi024/News-Multi-Agent/news"
	"github.com/sohanAi024/News-Multi-Agent/news/fulltext"
	"github.com/sohanAi024/News-Multi-Agent/news/newsapi"
	"github.com/sohanAi024/News-Multi-Agent/pkg/log"
	"github.com/sohanAi024/News-Multi-Agent/provider"
	"github.com/sohanAi024/News-Multi-Agent/session"
	"github.com/sohanAi024/News-Multi-Agent/session/inmemory"
	redisstore "github.com/sohanAi024/News-Multi-Agent/session/redis"
)

// Components are the process-wide dependencies, built once from config.
type Components struct {
	Engine   *conversation.Engine
	Sessions session.Store
	Ingestor *news.Ingestor
	Redis    *redis.Client // nil when redis is not configured

	closers []func() error
}

// Close releases database and redis connections.
func (c *Components) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		_ = c.closers[i]()
	}
}

// Build wires every collaborator from cfg. Metrics are registered on reg when it is non-nil.
func Build(ctx context.Context, cfg *config.Config, reg prometheus.Registerer) (*Components, error) {
	comp := &Components{}
	ok := false
	defer func() {
		if !ok {
			comp.Close()
		}
	}()

	providers, err := provider.NewSet(cfg)
	if err != nil {
		return nil, err
	}

	if cfg.Storage.Redis.Configured() {
		rc := cfg.Storage.Redis
		rdb := redis.NewClient(&redis.Options{
			Addr:        rc.Addr(),
			Password:    rc.Password,
			DB:          rc.DB,
			DialTimeout: rc.Timeout,
		})
		comp.closers = append(comp.closers, rdb.Close)
		if err := rdb.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("redis connection failed (%s): %w", rc.Addr(), err)
		}
		comp.Redis = rdb
	}

	var corpus store.Corpus
	switch cfg.Corpus.Backend {
	case config.CorpusMemory:
		corpus = memstore.NewStorage(cfg.Corpus.Dimensions)
	default:
		dsn, err := cfg.Storage.Postgres.DSN()
		if err != nil {
			return nil, err
		}
		if cfg.Server.AutoMigrate {
			if err := Migrate(cfg.Server.MigrationsDir, dsn, "up", 0); err != nil {
				return nil, fmt.Errorf("migrate: %w", err)
			}
		}
		st, err := store.NewWithDSN(ctx, dsn, cfg.Corpus.Dimensions)
		if err != nil {
			return nil, err
		}
		comp.closers = append(comp.closers, st.Close)
		corpus = st
	}

	switch cfg.Session.Backend {
	case config.SessionRedis:
		if comp.Redis == nil {
			return nil, errors.New("session.backend redis requires storage.redis")
		}
		comp.Sessions = redisstore.NewStore(comp.Redis, cfg.Session.TTL, sessionLockTTL(cfg.Server.TurnTimeout))
	default:
		comp.Sessions = inmemory.NewInMemorySessionStore()
	}

	rk := cfg.Ranking
	rankMetrics := ranking.NewMetrics(reg)
	pipeline := ranking.NewPipeline(
		providers.Embedding,
		corpus,
		ranking.NewLLMClassifier(providers.Relevance, rk.Domain, rk.BodyPreview, rankMetrics),
		providers.Synthesis,
		ranking.Options{
			Label:          rk.Label,
			CandidateLimit: rk.CandidateLimit,
			TopK:           rk.TopK,
			KeywordBoost:   rk.KeywordBoost,
			ScoreThreshold: rk.ScoreThreshold,
			Concurrency:    rk.ClassifierConcurrency,
		},
		rankMetrics,
	)

	mc := cfg.Mail
	comp.Engine = conversation.NewEngine(conversation.Deps{
		Store:         comp.Sessions,
		Searcher:      pipeline,
		LLM:           providers.Synthesis,
		Renderer:      document.NewPDFRenderer(cfg.Documents.OutputDir, cfg.Documents.FontPath),
		Mailer:        mail.NewSender(mail.Config{Host: mc.Host, Port: mc.Port, Username: mc.Username, Password: mc.Password, From: mc.From, Subject: mc.Subject, Timeout: mc.Timeout}),
		DocumentTitle: cfg.Documents.Title,
		LockTimeout:   cfg.Session.LockTimeout,
		Metrics:       conversation.NewMetrics(reg),
	})

	src := cfg.Sources.NewsAPI
	headlines := newsapi.NewsAPI{
		APIKey:     src.APIKey,
		Endpoint:   src.Endpoint,
		Language:   src.Language,
		PageSize:   src.PageSize,
		HTTPClient: &http.Client{Timeout: src.Timeout},
	}
	comp.Ingestor = news.NewIngestor(headlines, corpus, providers.Embedding, providers.Category, news.NewMetrics(reg))
	if cfg.Ingest.FullText {
		comp.Ingestor.WithFullText(fulltext.New(cfg.Ingest.FullTextTimeout, cfg.Ingest.FullTextMaxChars))
	}

	ok = true
	return comp, nil
}

const (
	minSessionLockTTL = 2 * time.Minute
	sessionLockMargin = 30 * time.Second
)

// sessionLockTTL outlives a turn, including the save that follows its deadline.
func sessionLockTTL(turn time.Duration) time.Duration {
	if ttl := turn + sessionLockMargin; ttl > minSessionLockTTL {
		return ttl
	}
	return minSessionLockTTL
}

// App is what the router serves.
type App struct {
	Chat        Chatter
	Sessions    session.Store
	Ingest      Ingester
	Gatherer    prometheus.Gatherer
	AdminSecret []byte // empty disables /admin
	TurnTimeout time.Duration
	OnIngest    func(time.Time)
}

// NewRouter builds the echo instance with all routes and middleware.
func NewRouter(app *App) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(requestLogger())
	e.HTTPErrorHandler = errorHandler
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAuthorization},
	}))

	e.GET("/", index)
	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	registerDocs(e)
	gatherer := app.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	ch := &ChatHandler{Chat: app.Chat, Sessions: app.Sessions, TurnTimeout: app.TurnTimeout}
	ch.Register(e.Group("/chat"))

	nh := &NewsHandler{Ingest: app.Ingest, OnRun: app.OnIngest}
	nh.Register(e.Group("/news"))

	if len(app.AdminSecret) > 0 {
		ah := &AdminHandler{Sessions: app.Sessions, Ingest: app.Ingest, OnRun: app.OnIngest}
		ah.Register(e.Group("/admin"), app.AdminSecret)
	}
	return e
}

func index(c echo.Context) error {
	return c.JSON(http.StatusOK, IndexResponse{
		Message: "News Agent API",
		Endpoints: map[string]string{
			"chat":    "POST /chat/",
			"session": "GET|DELETE /chat/sessions/:id",
			"scrape":  "POST /news/scrape/",
			"health":  "GET /news/health/",
			"metrics": "GET /metrics",
			"docs":    "GET /docs",
		},
	})
}

// errorHandler writes structured JSON errors and logs them.
func errorHandler(err error, c echo.Context) {
	code := http.StatusInternalServerError
	msg := err.Error()
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if he.Message != nil {
			msg = fmt.Sprint(he.Message)
		}
	}
	req := c.Request()
	ev := log.FromCtx(req.Context()).Warn()
	if code >= http.StatusInternalServerError {
		ev = log.FromCtx(req.Context()).Error()
	}
	ev.Int("status", code).Str("method", req.Method).Str("path", req.URL.Path).Str("ip", c.RealIP()).Err(err).Msg("request failed")
	if !c.Response().Committed {
		_ = c.JSON(code, HTTPError{Error: msg})
	}
}

// requestLogger puts a request-scoped logger on the request context and logs completion.
func requestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()
			ctx := log.With(req.Context(), "request_id", c.Response().Header().Get(echo.HeaderXRequestID))
			c.SetRequest(req.WithContext(ctx))

			err := next(c)
			if err != nil {
				c.Error(err)
			}
			log.FromCtx(ctx).Debug().
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", c.Response().Status).
				Dur("took", time.Since(start)).
				Msg("request")
			return nil
		}
	}
}

// Run builds the components, starts ingestion and serves HTTP until ctx is cancelled.
func Run(ctx context.Context, cfg *config.Config) error {
	logger := log.FromCtx(ctx)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	comp, err := Build(ctx, cfg, reg)
	if err != nil {
		return err
	}
	defer comp.Close()

	sched := &Scheduler{Ingest: comp.Ingestor, Schedule: cfg.Ingest.Schedule, Rdb: comp.Redis}
	if cfg.Ingest.OnStartup {
		go func() {
			rep := comp.Ingestor.Run(ctx)
			if rep.Err == nil {
				sched.MarkRun(time.Now())
			}
			logger.Info().Msg(rep.Message())
		}()
	}
	sched.Start(ctx)

	e := NewRouter(&App{
		Chat:        comp.Engine,
		Sessions:    comp.Sessions,
		Ingest:      comp.Ingestor,
		Gatherer:    reg,
		AdminSecret: []byte(cfg.Server.JWTSecret),
		TurnTimeout: cfg.Server.TurnTimeout,
		OnIngest:    sched.MarkRun,
	})
	if len(cfg.Server.JWTSecret) == 0 {
		logger.Warn().Msg("server.jwt_secret empty, admin routes disabled")
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.Server.Address).Msg("listening")
		errCh <- e.Start(cfg.Server.Address)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	}
}
