package server

import (
	"context"
	"testing"
	"time"

	"github.com/sohanAi024/News-Multi-Agent/news"
	"github.com/stretchr/testify/assert"
)

func TestIsDue(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)
	ago := func(d time.Duration) *time.Time { t := now.Add(-d); return &t }

	cases := []struct {
		name string
		spec string
		last *time.Time
		want bool
	}{
		{"never run", "@hourly", nil, true},
		{"hourly fresh", "@hourly", ago(10 * time.Minute), false},
		{"hourly stale", "@hourly", ago(61 * time.Minute), true},
		{"daily fresh", "@daily", ago(23 * time.Hour), false},
		{"daily stale", "@daily", ago(25 * time.Hour), true},
		{"cron passed", "0 * * * *", ago(45 * time.Minute), true},
		{"cron pending", "0 * * * *", ago(20 * time.Minute), false},
		{"invalid falls back to daily", "not a cron", ago(2 * time.Hour), false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, isDue(tc.spec, tc.last, now), tc.name)
	}
}

func TestSchedulerTick(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	ing := &fakeIngest{rep: news.Report{Stored: 1}}
	s := &Scheduler{Ingest: ing, Schedule: "@hourly", now: func() time.Time { return now }}

	assert.True(t, s.tick(context.Background()), "first tick should run")
	assert.False(t, s.tick(context.Background()), "second tick in the same hour should not run")
	now = now.Add(time.Hour)
	assert.True(t, s.tick(context.Background()), "tick after an hour should run")
	assert.Equal(t, 2, ing.calls)
}

func TestSchedulerManualRunDefers(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	ing := &fakeIngest{}
	s := &Scheduler{Ingest: ing, Schedule: "@hourly", now: func() time.Time { return now }}
	s.MarkRun(now.Add(-5 * time.Minute))

	assert.False(t, s.tick(context.Background()), "tick right after a manual run should not run")
	assert.Zero(t, ing.calls)
}
