package scanner

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	minBackoff = 500 * time.Millisecond
	maxBackoff = 30 * time.Second
)

// ThrottleConfig configures a Throttler.
type ThrottleConfig struct {
	MinDelay  time.Duration // lower bound of the per-request random delay
	MaxDelay  time.Duration // upper bound; 0 disables the random delay
	Adaptive  bool          // back off on 429/503 and repeated errors
	RateLimit float64       // global requests per second, 0 = unlimited
	Logger    *slog.Logger
}

// Throttler spaces out requests. Every worker sleeps its own random delay
// in [MinDelay, MaxDelay], so workers are never serialized against each
// other. On top of that an optional adaptive back-off reacts to 429/503
// responses and connection errors, and an optional token bucket caps the
// total request rate.
type Throttler struct {
	minDelay time.Duration
	maxDelay time.Duration
	limiter  *rate.Limiter
	logger   *slog.Logger

	mu          sync.Mutex
	backoff     time.Duration
	consecutive int // consecutive throttle signals
	enabled     bool
}

// NewThrottler creates a throttler from cfg.
func NewThrottler(cfg ThrottleConfig) *Throttler {
	t := &Throttler{
		minDelay: cfg.MinDelay,
		maxDelay: cfg.MaxDelay,
		enabled:  cfg.Adaptive,
		logger:   cfg.Logger,
	}
	if t.maxDelay > 0 && t.minDelay > t.maxDelay {
		t.minDelay = t.maxDelay
	}
	if cfg.RateLimit > 0 {
		burst := int(cfg.RateLimit)
		if burst < 1 {
			burst = 1
		}
		t.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	if t.logger == nil {
		t.logger = slog.New(slog.DiscardHandler)
	}
	return t
}

// Delay returns the delay the calling worker should sleep before its next
// request: a fresh random pick from [MinDelay, MaxDelay] plus any active
// back-off.
func (t *Throttler) Delay() time.Duration {
	d := t.jitter()
	if !t.enabled {
		return d
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return d + t.backoff
}

func (t *Throttler) jitter() time.Duration {
	if t.maxDelay <= 0 {
		return 0
	}
	span := t.maxDelay - t.minDelay
	if span <= 0 {
		return t.minDelay
	}
	return t.minDelay + rand.N(span+1)
}

// Wait sleeps for Delay and then waits for the global rate limiter. It
// returns early with the context's error when ctx is done.
func (t *Throttler) Wait(ctx context.Context) error {
	if d := t.Delay(); d > 0 {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if t.limiter != nil {
		return t.limiter.Wait(ctx)
	}
	return ctx.Err()
}

// RecordStatus updates the back-off based on a response status code.
func (t *Throttler) RecordStatus(statusCode int) {
	if !t.enabled {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	if statusCode == 429 || statusCode == 503 {
		t.consecutive++
		t.grow("status", statusCode)
		return
	}
	if t.consecutive > 0 {
		t.consecutive = 0
		t.shrink()
	}
}

// RecordError flags a connection error (timeout, reset) as a possible
// rate limit signal.
func (t *Throttler) RecordError() {
	if !t.enabled {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	t.consecutive++
	if t.consecutive >= 3 {
		t.grow("errors", t.consecutive)
	}
}

// grow doubles the back-off up to maxBackoff. Caller holds t.mu.
func (t *Throttler) grow(signal string, value int) {
	next := t.backoff * 2
	if next < minBackoff {
		next = minBackoff
	}
	if next > maxBackoff {
		next = maxBackoff
	}
	if next != t.backoff {
		t.backoff = next
		t.logger.Warn("rate limited, backing off", signal, value, "backoff", t.backoff)
	}
}

// shrink halves the back-off, dropping it once it falls below minBackoff.
// Caller holds t.mu.
func (t *Throttler) shrink() {
	next := t.backoff / 2
	if next < minBackoff {
		next = 0
	}
	if next != t.backoff {
		t.backoff = next
		t.logger.Debug("recovering from back-off", "backoff", t.backoff)
	}
}
