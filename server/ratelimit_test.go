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
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllow_InMemory(t *testing.T) {
	rl := NewRateLimiter(nil, 3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, rl.Allow(ctx, "caller-1"), "request %d should pass", i)
	}
	assert.Error(t, rl.Allow(ctx, "caller-1"))

	// Other callers are unaffected.
	assert.NoError(t, rl.Allow(ctx, "caller-2"))
}

func TestAllow_InMemoryWindowSlides(t *testing.T) {
	rl := NewRateLimiter(nil, 2, time.Minute)
	base := time.Now()
	rl.now = func() time.Time { return base }
	ctx := context.Background()

	require.NoError(t, rl.Allow(ctx, "caller"))
	require.NoError(t, rl.Allow(ctx, "caller"))
	require.Error(t, rl.Allow(ctx, "caller"))

	// Past the window the caller gets budget back.
	rl.now = func() time.Time { return base.Add(61 * time.Second) }
	assert.NoError(t, rl.Allow(ctx, "caller"))
}

func TestAllow_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	rl := NewRateLimiter(client, 3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, rl.Allow(ctx, "caller-1"), "request %d should pass", i)
	}
	assert.Error(t, rl.Allow(ctx, "caller-1"))
	assert.NoError(t, rl.Allow(ctx, "caller-2"))
}

func TestAllow_RedisDownFailsOpen(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	rl := NewRateLimiter(client, 1, time.Minute)

	mr.Close()
	assert.NoError(t, rl.Allow(context.Background(), "caller"))
}

func TestMiddleware_RejectsWith429(t *testing.T) {
	rl := NewRateLimiter(nil, 1, time.Minute)
	agent := &fakeAgent{chatResponse: "ok"}
	srv := newTestServer(Deps{Agent: agent, RateLimiter: rl})

	first := doRequest(t, srv, http.MethodPost, "/agent/chats", strings.NewReader(`{"prompt": "one"}`))
	require.Equal(t, http.StatusOK, first.Code)

	second := doRequest(t, srv, http.MethodPost, "/agent/chats", strings.NewReader(`{"prompt": "two"}`))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Contains(t, decodeBody(t, second)["error"], "rate limit exceeded")

	// The agent never saw the rejected request.
	assert.Len(t, agent.chatPrompts, 1)
}

func TestMiddleware_OnlyGuardsAgentRoutes(t *testing.T) {
	rl := NewRateLimiter(nil, 1, time.Minute)
	srv := newTestServer(Deps{Agent: &fakeAgent{chatResponse: "ok"}, RateLimiter: rl})

	doRequest(t, srv, http.MethodPost, "/agent/chats", strings.NewReader(`{"prompt": "one"}`))
	for i := 0; i < 5; i++ {
		rec := doRequest(t, srv, http.MethodGet, "/health", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.7:41234"
	assert.Equal(t, "10.0.0.7", clientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "203.0.113.9", clientIP(req))
}
