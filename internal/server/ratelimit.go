package server

import (
	"container/list"
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Sweep settings for idle token buckets.
const (
	limiterSweepEvery = 5 * time.Minute
	limiterIdleAfter  = 10 * time.Minute
)

// bucket is the token bucket of one key (a client address or a session id).
type bucket struct {
	key      string
	tokens   *rate.Limiter
	lastSeen time.Time
}

// LimiterSet hands out one token bucket per key. At capacity the least
// recently used key is forgotten, so a returning key starts with a full
// burst.
type LimiterSet struct {
	name     string
	limit    rate.Limit
	burst    int
	capacity int
	now      func() time.Time

	mu      sync.Mutex
	buckets map[string]*list.Element
	recent  *list.List // front = most recently used
	dropped int
	lastLog time.Time
}

// NewLimiterSet creates a set allowing rps requests per second per key with
// the given burst, tracking at most capacity keys. name tags log lines.
func NewLimiterSet(name string, rps float64, burst, capacity int) *LimiterSet {
	if capacity <= 0 {
		capacity = 10000
	}
	return &LimiterSet{
		name:     name,
		limit:    rate.Limit(rps),
		burst:    burst,
		capacity: capacity,
		now:      time.Now,
		buckets:  make(map[string]*list.Element),
		recent:   list.New(),
	}
}

// Allow takes a token from key's bucket.
func (s *LimiterSet) Allow(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if elem, ok := s.buckets[key]; ok {
		b := elem.Value.(*bucket)
		b.lastSeen = now
		s.recent.MoveToFront(elem)
		return b.tokens.AllowN(now, 1)
	}

	for s.recent.Len() >= s.capacity {
		s.remove(s.recent.Back())
		s.dropped++
	}
	if s.dropped > 0 && now.Sub(s.lastLog) >= 30*time.Second {
		log.Printf("[RateLimit] %s: forgot %d least recent key(s) (capacity %d)", s.name, s.dropped, s.capacity)
		s.dropped = 0
		s.lastLog = now
	}

	b := &bucket{key: key, tokens: rate.NewLimiter(s.limit, s.burst), lastSeen: now}
	s.buckets[key] = s.recent.PushFront(b)
	return b.tokens.AllowN(now, 1)
}

// Forget drops key's bucket, e.g. when its session is gone.
func (s *LimiterSet) Forget(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if elem, ok := s.buckets[key]; ok {
		s.remove(elem)
	}
}

// Len returns the number of tracked keys.
func (s *LimiterSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recent.Len()
}

func (s *LimiterSet) remove(elem *list.Element) {
	b := s.recent.Remove(elem).(*bucket)
	delete(s.buckets, b.key)
}

// sweep forgets keys unused for longer than idle and returns how many.
func (s *LimiterSet) sweep(idle time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	n := 0
	for elem := s.recent.Back(); elem != nil; {
		if now.Sub(elem.Value.(*bucket).lastSeen) <= idle {
			break
		}
		prev := elem.Prev()
		s.remove(elem)
		n++
		elem = prev
	}
	return n
}

// Run sweeps idle keys until ctx is cancelled. The returned channel is
// closed once the loop has exited.
func (s *LimiterSet) Run(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(limiterSweepEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.sweep(limiterIdleAfter)
			case <-ctx.Done():
				return
			}
		}
	}()
	return done
}

// RateLimit rejects requests whose key is out of tokens with a JSON 429.
func RateLimit(set *LimiterSet, key func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !set.Allow(key(r)) {
				w.Header().Set("Retry-After", "1")
				writeJSONError(w, http.StatusTooManyRequests, errRateLimited)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

const errRateLimited = "rate limit exceeded"

// sessionKey keys editor routes by their session id.
func sessionKey(r *http.Request) string {
	return r.PathValue("id")
}
