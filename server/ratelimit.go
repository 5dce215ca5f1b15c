// Copyright 2025 WIWI
// SPDX-License-Identifier: Apache-2.0
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"

	"wiwi/backend/shared/logger"
)

// RateLimiter enforces a sliding-window request limit per caller on the
// agent endpoints. With a Redis client the window is shared across
// instances; without one it falls back to per-process in-memory tracking.
type RateLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	log    *logger.Logger

	mu      sync.Mutex
	history map[string][]time.Time

	// now is swapped in tests.
	now func() time.Time
}

// NewRateLimiter creates a limiter. client may be nil for in-memory mode.
func NewRateLimiter(client *redis.Client, limit int, window time.Duration) *RateLimiter {
	if limit <= 0 {
		limit = 20
	}
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimiter{
		client:  client,
		limit:   limit,
		window:  window,
		log:     logger.New("ratelimit"),
		history: make(map[string][]time.Time),
		now:     time.Now,
	}
}

// ConnectRedis dials Redis and returns a client, or an error if the ping
// fails. Callers fall back to in-memory limiting on error.
func ConnectRedis(addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return client, nil
}

// Middleware rejects callers over the limit with a 429.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller := clientIP(r)
		if err := rl.Allow(r.Context(), caller); err != nil {
			rl.log.Warn("", "rate limit exceeded", map[string]interface{}{
				"caller": caller,
				"path":   r.URL.Path,
			})
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"error": err.Error(),
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Allow records one request for the caller and reports whether it is within
// the window limit.
func (rl *RateLimiter) Allow(ctx context.Context, caller string) error {
	if rl.client == nil {
		return rl.allowInMemory(caller)
	}

	now := rl.now()
	key := "ratelimit:" + caller

	pipe := rl.client.Pipeline()
	minScore := now.Add(-rl.window).UnixNano()
	pipe.ZRemRangeByScore(ctx, key, "0", fmt.Sprintf("%d", minScore))
	pipe.ZCard(ctx, key)
	pipe.ZAdd(ctx, key, &redis.Z{
		Score:  float64(now.UnixNano()),
		Member: fmt.Sprintf("%d", now.UnixNano()),
	})
	pipe.Expire(ctx, key, 2*rl.window)

	cmds, err := pipe.Exec(ctx)
	if err != nil {
		// Redis trouble fails open; a degraded limiter must not take the
		// agent endpoints down with it.
		rl.log.Warn("", "redis rate limit check failed, failing open", map[string]interface{}{
			"caller": caller,
			"error":  err.Error(),
		})
		return nil
	}

	count := cmds[1].(*redis.IntCmd).Val()
	if count >= int64(rl.limit) {
		return fmt.Errorf("rate limit exceeded: %d requests per %s", rl.limit, rl.window)
	}
	return nil
}

func (rl *RateLimiter) allowInMemory(caller string) error {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	cutoff := now.Add(-rl.window)

	kept := rl.history[caller][:0]
	for _, t := range rl.history[caller] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	if len(kept) >= rl.limit {
		rl.history[caller] = kept
		return fmt.Errorf("rate limit exceeded: %d requests per %s", rl.limit, rl.window)
	}
	rl.history[caller] = append(kept, now)
	return nil
}

// Close releases the Redis connection if one is held.
func (rl *RateLimiter) Close() error {
	if rl.client != nil {
		return rl.client.Close()
	}
	return nil
}

// clientIP prefers the X-Forwarded-For chain set by the load balancer.
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
