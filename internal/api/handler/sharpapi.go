package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/kiranshivaraju/sharpjobs/internal/api/response"
	"github.com/kiranshivaraju/sharpjobs/internal/cache"
	"github.com/kiranshivaraju/sharpjobs/pkg/models"
)

// QuotaTTL is how long a quota snapshot is served from cache.
const QuotaTTL = 60 * time.Second

// Remote is the synchronous part of jobs.Service.
type Remote interface {
	Ping(ctx context.Context) (*models.PingResponse, error)
	Quota(ctx context.Context) (*models.SubscriptionInfo, error)
}

// ByteCache is the raw key/value part of cache.Cache.
type ByteCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// NewPingHandler returns GET /api/v1/ping.
func NewPingHandler(remote Remote) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ping, err := remote.Ping(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}
		response.JSON(w, ping)
	}
}

// NewQuotaHandler returns GET /api/v1/quota. Snapshots are cached for
// QuotaTTL; a nil cache disables caching. When the remote service reports no
// subscription data the response data is null.
func NewQuotaHandler(remote Remote, c ByteCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if c != nil {
			raw, found, err := c.Get(ctx, cache.QuotaKey())
			if err != nil {
				slog.Warn("quota cache read failed", "error", err)
			}
			if found {
				var info models.SubscriptionInfo
				if err := json.Unmarshal(raw, &info); err == nil {
					response.JSON(w, &info)
					return
				}
			}
		}

		info, err := remote.Quota(ctx)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if info == nil {
			response.JSON(w, nil)
			return
		}

		if c != nil {
			if raw, err := json.Marshal(info); err == nil {
				if err := c.Set(ctx, cache.QuotaKey(), raw, QuotaTTL); err != nil {
					slog.Warn("quota cache write failed", "error", err)
				}
			}
		}
		response.JSON(w, info)
	}
}
