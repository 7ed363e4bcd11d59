package api

import (
	"sync"

	"golang.org/x/time/rate"
)

// memberLimiter keeps one token bucket per member.
type memberLimiter struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	buckets map[int64]*rate.Limiter
}

// newMemberLimiter returns a limiter allowing rps requests per second with
// the given burst. A non-positive rps disables limiting.
func newMemberLimiter(rps float64, burst int) *memberLimiter {
	if burst < 1 {
		burst = 1
	}
	return &memberLimiter{
		limit:   rate.Limit(rps),
		burst:   burst,
		buckets: make(map[int64]*rate.Limiter),
	}
}

func (l *memberLimiter) Allow(memberID int64) bool {
	if l.limit <= 0 {
		return true
	}

	l.mu.Lock()
	bucket, ok := l.buckets[memberID]
	if !ok {
		bucket = rate.NewLimiter(l.limit, l.burst)
		l.buckets[memberID] = bucket
	}
	l.mu.Unlock()

	return bucket.Allow()
}
