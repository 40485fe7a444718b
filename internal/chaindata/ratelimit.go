package chaindata

import (
	"context"
	"sync"
	"time"
)

// windowLimiter enforces two sliding-window dispatch caps, one per
// second and one per minute. When a window is at capacity the caller
// blocks until the oldest dispatch in that window ages out; the
// dispatch is recorded after the wait, so neither window ever holds
// more than its cap.
type windowLimiter struct {
	mu        sync.Mutex
	perSecond int
	perMinute int
	secondLog []time.Time
	minuteLog []time.Time

	now   func() time.Time
	sleep func(context.Context, time.Duration) error
}

func newWindowLimiter(perSecond, perMinute int) *windowLimiter {
	return &windowLimiter{
		perSecond: perSecond,
		perMinute: perMinute,
		now:       time.Now,
		sleep:     sleepContext,
	}
}

// Wait blocks until a dispatch slot is free in both windows, then
// records the dispatch. It returns early if ctx is cancelled.
func (l *windowLimiter) Wait(ctx context.Context) error {
	for {
		l.mu.Lock()
		now := l.now()
		l.secondLog = pruneBefore(l.secondLog, now.Add(-time.Second))
		l.minuteLog = pruneBefore(l.minuteLog, now.Add(-time.Minute))

		var wait time.Duration
		if len(l.secondLog) >= l.perSecond {
			if d := l.secondLog[0].Add(time.Second).Sub(now); d > wait {
				wait = d
			}
		}
		if len(l.minuteLog) >= l.perMinute {
			if d := l.minuteLog[0].Add(time.Minute).Sub(now); d > wait {
				wait = d
			}
		}
		if wait <= 0 {
			l.secondLog = append(l.secondLog, now)
			l.minuteLog = append(l.minuteLog, now)
			l.mu.Unlock()
			return nil
		}
		l.mu.Unlock()

		if err := l.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// pruneBefore drops timestamps at or before cutoff. The log is in
// dispatch order, so the survivors are a suffix.
func pruneBefore(log []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(log) && !log[i].After(cutoff) {
		i++
	}
	return log[i:]
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
