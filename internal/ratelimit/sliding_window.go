// Package ratelimit is an in-memory sliding-window limiter keyed by caller
// and request class.
package ratelimit

import (
	"sync"
	"time"
)

type Limiter struct {
	mu      sync.Mutex
	buckets map[string][]time.Time
}

func NewLimiter() *Limiter {
	return &Limiter{
		buckets: map[string][]time.Time{},
	}
}

// Rule caps one request class: at most Limit hits per Window.
type Rule struct {
	Name   string
	Limit  int
	Window time.Duration
}

type Result struct {
	Rule      string
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// Allow records a hit for key if it fits under limit within window.
func (l *Limiter) Allow(key string, limit int, window time.Duration, now time.Time) Result {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.allowLocked(key, limit, window, now, true)
}

// Check evaluates every rule for caller and records the hit only when all of
// them allow it. The first failing rule is returned; otherwise the result of
// the tightest rule.
func (l *Limiter) Check(caller string, rules []Rule, now time.Time) Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	best := Result{Allowed: true}
	for i, r := range rules {
		res := l.allowLocked(caller+":"+r.Name, r.Limit, r.Window, now, false)
		res.Rule = r.Name
		if !res.Allowed {
			return res
		}
		if i == 0 || res.Remaining < best.Remaining {
			best = res
		}
	}
	for _, r := range rules {
		if r.Limit > 0 {
			key := caller + ":" + r.Name
			l.buckets[key] = append(l.buckets[key], now)
		}
	}
	if best.Limit > 0 {
		best.Remaining--
	}
	return best
}

// Prune drops history older than maxWindow so idle callers do not pin memory.
func (l *Limiter) Prune(now time.Time, maxWindow time.Duration) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	cutoff := now.Add(-maxWindow)
	removed := 0
	for key, history := range l.buckets {
		if len(history) == 0 || history[len(history)-1].Before(cutoff) {
			delete(l.buckets, key)
			removed++
		}
	}
	return removed
}

func (l *Limiter) allowLocked(key string, limit int, window time.Duration, now time.Time, record bool) Result {
	if limit <= 0 {
		return Result{Allowed: true}
	}
	cutoff := now.Add(-window)
	history := l.buckets[key]
	trimmed := history[:0]
	for _, ts := range history {
		if !ts.Before(cutoff) {
			trimmed = append(trimmed, ts)
		}
	}
	history = trimmed
	l.buckets[key] = history

	result := Result{
		Allowed: len(history) < limit,
		Limit:   limit,
	}
	if !result.Allowed {
		result.Remaining = 0
		result.ResetAt = history[0].Add(window)
		return result
	}

	if record {
		history = append(history, now)
		l.buckets[key] = history
		result.Remaining = limit - len(history)
		result.ResetAt = history[0].Add(window)
		return result
	}
	result.Remaining = limit - len(history)
	result.ResetAt = now.Add(window)
	if len(history) > 0 {
		result.ResetAt = history[0].Add(window)
	}
	return result
}
