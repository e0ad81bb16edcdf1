package service

import (
	"sync"
	"time"
)

const rateWindow = time.Hour

// RateLimiter throttles manual sync requests per key (user id): a minimum delay between
// syncs and a cap on syncs in any rolling hour.
type RateLimiter struct {
	minDelay     time.Duration
	maxPerHour   int
	timestamps   map[string][]time.Time
	timestampsMu sync.Mutex
	lastCleanup  time.Time
	now          func() time.Time
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(minDelay time.Duration, maxPerHour int) *RateLimiter {
	return &RateLimiter{
		minDelay:    minDelay,
		maxPerHour:  maxPerHour,
		timestamps:  make(map[string][]time.Time),
		lastCleanup: time.Now(),
		now:         time.Now,
	}
}

// Allow reports whether key may sync now and, if so, records the sync.
// When refused it returns how long the caller should wait.
func (rl *RateLimiter) Allow(key string) (bool, time.Duration) {
	rl.timestampsMu.Lock()
	defer rl.timestampsMu.Unlock()

	now := rl.now()

	ok, wait := rl.check(key, now)
	if ok {
		rl.timestamps[key] = append(rl.timestamps[key], now)
	}

	return ok, wait
}

// CanSync reports whether key may sync now without recording anything.
func (rl *RateLimiter) CanSync(key string) (bool, time.Duration) {
	rl.timestampsMu.Lock()
	defer rl.timestampsMu.Unlock()

	return rl.check(key, rl.now())
}

func (rl *RateLimiter) check(key string, now time.Time) (bool, time.Duration) {
	if now.Sub(rl.lastCleanup) > rateWindow {
		rl.cleanupOldTimestamps(now)
		rl.lastCleanup = now
	}

	timestamps := rl.timestamps[key]
	if len(timestamps) == 0 {
		return true, 0
	}

	if since := now.Sub(timestamps[len(timestamps)-1]); since < rl.minDelay {
		return false, rl.minDelay - since
	}

	// Timestamps are appended in order, so the first one inside the window is the oldest.
	windowStart := now.Add(-rateWindow)
	recent := 0

	var oldest time.Time

	for _, ts := range timestamps {
		if ts.After(windowStart) {
			if recent == 0 {
				oldest = ts
			}

			recent++
		}
	}

	if rl.maxPerHour > 0 && recent >= rl.maxPerHour {
		if wait := oldest.Add(rateWindow).Sub(now); wait > 0 {
			return false, wait
		}

		return false, rl.minDelay
	}

	return true, 0
}

// cleanupOldTimestamps removes timestamps older than the window
func (rl *RateLimiter) cleanupOldTimestamps(now time.Time) {
	windowStart := now.Add(-rateWindow)

	for key, timestamps := range rl.timestamps {
		filtered := timestamps[:0]
		for _, ts := range timestamps {
			if ts.After(windowStart) {
				filtered = append(filtered, ts)
			}
		}

		if len(filtered) == 0 {
			delete(rl.timestamps, key)
		} else {
			rl.timestamps[key] = filtered
		}
	}
}
