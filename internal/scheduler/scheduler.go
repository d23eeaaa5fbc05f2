// Package scheduler drives periodic work with cooperative cancellation.
package scheduler

import (
	"context"
	"time"

	"dipbot/internal/logger"
)

// Interval runs a task immediately and then again Every after each run
// finishes. Cancellation is observed before each run and during the wait;
// a run in progress is never interrupted.
type Interval struct {
	Name  string
	Every time.Duration

	ctx   context.Context
	nowFn func() time.Time
	after func(d time.Duration) (<-chan time.Time, func() bool)
}

func NewInterval(ctx context.Context, every time.Duration) *Interval {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Interval{
		Every: every,
		ctx:   ctx,
		nowFn: time.Now,
		after: newTimer,
	}
}

func newTimer(d time.Duration) (<-chan time.Time, func() bool) {
	t := time.NewTimer(d)
	return t.C, t.Stop
}

// Run returns nil once the context is done, or the first error the task returns.
func (s *Interval) Run(task func(ctx context.Context) error) error {
	if s == nil || task == nil {
		return nil
	}
	if s.Every <= 0 {
		logger.Warnf("%s: invalid interval=%s, exit", s.prefix(), s.Every)
		return nil
	}
	if s.nowFn == nil {
		s.nowFn = time.Now
	}
	if s.after == nil {
		s.after = newTimer
	}
	startAt := s.nowFn().UTC()
	logger.Infof("%s: started interval=%s at=%s", s.prefix(), s.Every, startAt.Format(time.RFC3339))

	for round := 1; ; round++ {
		if err := s.ctx.Err(); err != nil {
			logger.Infof("%s: ctx done, exit", s.prefix())
			return nil
		}
		if err := task(s.ctx); err != nil {
			return err
		}
		now := s.nowFn().UTC()
		logger.Infof("%s: round %d done, next in %s at %s | uptime=%s",
			s.prefix(), round, s.Every, now.Add(s.Every).Format(time.RFC3339), now.Sub(startAt).Truncate(time.Second))
		if !s.wait(s.Every) {
			return nil
		}
	}
}

func (s *Interval) wait(d time.Duration) bool {
	c, stop := s.after(d)
	select {
	case <-s.ctx.Done():
		stop()
		logger.Infof("%s: ctx done during wait, exit", s.prefix())
		return false
	case <-c:
		return true
	}
}

func (s *Interval) prefix() string {
	if s.Name == "" {
		return "Interval"
	}
	return "Interval[" + s.Name + "]"
}
