package middleware

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"voicebook/pkg/logger"
)

// CallerExtractor pulls the identity a request is throttled by, usually
// the caller's phone number.
type CallerExtractor func(r *http.Request) string

type callerEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// CallerRateLimiter throttles requests per caller using a token bucket
// for each caller id. Unattributable requests are not throttled.
type CallerRateLimiter struct {
	mu        sync.Mutex
	callers   map[string]*callerEntry
	rate      rate.Limit
	burst     int
	extractor CallerExtractor
	log       *logger.Logger
	stopCh    chan struct{}
}

func NewCallerRateLimiter(limit int, window time.Duration, extractor CallerExtractor, log *logger.Logger) *CallerRateLimiter {
	limiter := &CallerRateLimiter{
		callers:   make(map[string]*callerEntry),
		rate:      rate.Limit(float64(limit) / window.Seconds()),
		burst:     limit,
		extractor: extractor,
		log:       log,
		stopCh:    make(chan struct{}),
	}

	go limiter.cleanup()

	return limiter
}

func (rl *CallerRateLimiter) cleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.mu.Lock()
			for caller, entry := range rl.callers {
				if time.Since(entry.lastSeen) > 30*time.Minute {
					delete(rl.callers, caller)
				}
			}
			rl.mu.Unlock()
		case <-rl.stopCh:
			return
		}
	}
}

func (rl *CallerRateLimiter) Stop() {
	close(rl.stopCh)
}

func (rl *CallerRateLimiter) Allow(caller string) bool {
	if caller == "" {
		return true
	}

	rl.mu.Lock()
	entry, ok := rl.callers[caller]
	if !ok {
		entry = &callerEntry{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.callers[caller] = entry
	}
	entry.lastSeen = time.Now()
	rl.mu.Unlock()

	return entry.limiter.Allow()
}

func CallerRateLimit(limiter *CallerRateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller := extractCaller(r, limiter.extractor)

			if !limiter.Allow(caller) {
				limiter.log.Warn("Rate limit exceeded",
					"request_id", RequestID(r.Context()),
					"caller", caller,
					"path", r.URL.Path,
				)

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"error":"Rate limit exceeded"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func extractCaller(r *http.Request, extractor CallerExtractor) string {
	if extractor == nil {
		return r.Header.Get("X-Caller-Number")
	}
	return extractor(r)
}

func DefaultCallerExtractor(r *http.Request) string {
	return r.Header.Get("X-Caller-Number")
}
