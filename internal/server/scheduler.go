package server

import (
	"context"
	"sync"
	"time"

	"github.com/gorhill/cronexpr"
	"github.com/redis/go-redis/v9"
	"github.com/sohanAi024/News-Multi-Agent/news"
	"github.com/sohanAi024/News-Multi-Agent/pkg/log"
)

const ingestLockKey = "newsagent:ingest:lock"

// Ingester runs one scrape-and-store pass.
type Ingester interface {
	Run(ctx context.Context) news.Report
}

// Scheduler triggers ingestion on a cron schedule. When Rdb is set a redis
// lock keeps replicas from scraping the same window twice.
type Scheduler struct {
	Ingest   Ingester
	Schedule string
	Rdb      *redis.Client
	Interval time.Duration // how often the schedule is evaluated

	mu   sync.Mutex
	last *time.Time
	now  func() time.Time
}

// Start evaluates the schedule until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	if s.Schedule == "" {
		return
	}
	interval := s.Interval
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.tick(ctx)
			}
		}
	}()
}

// MarkRun records an ingestion that happened outside the scheduler.
func (s *Scheduler) MarkRun(at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = &at
}

// tick runs ingestion if due and reports whether it ran.
func (s *Scheduler) tick(ctx context.Context) bool {
	now := s.clock()
	s.mu.Lock()
	last := s.last
	s.mu.Unlock()
	if !isDue(s.Schedule, last, now) {
		return false
	}

	logger := log.FromCtx(ctx)
	if s.Rdb != nil {
		ok, err := s.Rdb.SetNX(ctx, ingestLockKey, "1", 10*time.Minute).Result()
		if err != nil {
			logger.Warn().Err(err).Msg("ingest lock")
			return false
		}
		if !ok {
			// another replica owns this window
			s.MarkRun(now)
			return false
		}
		defer s.Rdb.Del(context.WithoutCancel(ctx), ingestLockKey)
	}

	rep := s.Ingest.Run(ctx)
	s.MarkRun(now)
	logger.Info().Str("schedule", s.Schedule).Msg(rep.Message())
	return true
}

func (s *Scheduler) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

// isDue determines if a job with cronSpec should run now based on last run time.
// Supports "@daily", "@hourly", and standard 5-field cron expressions.
func isDue(cronSpec string, last *time.Time, now time.Time) bool {
	switch cronSpec {
	case "@daily":
		if last == nil {
			return true
		}
		return now.Sub(*last) >= 24*time.Hour
	case "@hourly":
		if last == nil {
			return true
		}
		return now.Sub(*last) >= time.Hour
	default:
		expr, err := cronexpr.Parse(cronSpec)
		if err != nil {
			// Fallback: treat as @daily if invalid
			if last == nil {
				return true
			}
			return now.Sub(*last) >= 24*time.Hour
		}
		if last == nil {
			return true
		}
		return !expr.Next(*last).After(now)
	}
}
