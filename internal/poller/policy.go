package poller

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/kiranshivaraju/sharpjobs/internal/config"
)

const (
	DefaultBaseInterval = 10 * time.Second
	DefaultMaxWait      = 180 * time.Second
)

// Policy governs one AwaitCompletion call. It is a plain value: callers copy
// and adjust it before use and the poller never mutates it.
type Policy struct {
	// BaseInterval is the wait between polls when no usable server hint exists.
	BaseInterval time.Duration
	// MaxWait bounds the total scheduled wait before giving up.
	MaxWait time.Duration
	// UseServerHint prefers the Retry-After header over BaseInterval.
	UseServerHint bool
}

// DefaultPolicy polls every 10s, honours Retry-After, and gives up after 3 minutes.
func DefaultPolicy() Policy {
	return Policy{
		BaseInterval:  DefaultBaseInterval,
		MaxWait:       DefaultMaxWait,
		UseServerHint: true,
	}
}

// PolicyFromConfig builds a Policy from the polling settings.
func PolicyFromConfig(cfg config.PollingConfig) Policy {
	return Policy{
		BaseInterval:  cfg.Interval,
		MaxWait:       cfg.MaxWait,
		UseServerHint: !cfg.UseCustomInterval,
	}
}

// Validate rejects policies the loop cannot run with.
func (p Policy) Validate() error {
	if p.BaseInterval <= 0 {
		return fmt.Errorf("%w: base interval must be positive, got %s", ErrInvalidPolicy, p.BaseInterval)
	}
	if p.MaxWait < 0 {
		return fmt.Errorf("%w: max wait must not be negative, got %s", ErrInvalidPolicy, p.MaxWait)
	}
	return nil
}

// nextInterval picks the wait before the next poll. A missing, malformed or
// non-positive Retry-After falls back to BaseInterval.
func (p Policy) nextInterval(h http.Header) time.Duration {
	if !p.UseServerHint {
		return p.BaseInterval
	}
	if secs, ok := parseRetryAfter(h.Get("Retry-After")); ok {
		return time.Duration(secs) * time.Second
	}
	return p.BaseInterval
}

// maxHintSecs is the largest hint that still fits in a time.Duration.
const maxHintSecs = int64(math.MaxInt64 / int64(time.Second))

func parseRetryAfter(v string) (int, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, false
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs <= 0 || int64(secs) > maxHintSecs {
		return 0, false
	}
	return secs, true
}
