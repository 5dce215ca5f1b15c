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

package assistant

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

type fakeStore struct {
	findFilter     bson.M
	findCollection string
	findLimit      int64
	items          []map[string]interface{}
	err            error
}

func (f *fakeStore) Find(ctx context.Context, collection string, filter bson.M, limit int64) ([]map[string]interface{}, error) {
	f.findCollection, f.findFilter, f.findLimit = collection, filter, limit
	return f.items, f.err
}

func (f *fakeStore) ItemByID(ctx context.Context, itemID, collection string) (map[string]interface{}, error) {
	if f.err != nil {
		return nil, f.err
	}
	if len(f.items) == 0 {
		return nil, nil
	}
	return f.items[0], nil
}

func (f *fakeStore) ItemsByCategory(ctx context.Context, category string, limit int64) ([]map[string]interface{}, error) {
	return f.items, f.err
}

func (f *fakeStore) LiveAuctions(ctx context.Context, limit int64) ([]map[string]interface{}, error) {
	return f.items, f.err
}

func (f *fakeStore) ItemsByTicketCost(ctx context.Context, minTickets, maxTickets int, limit int64) ([]map[string]interface{}, error) {
	return f.items, f.err
}

func (f *fakeStore) HighScoreItems(ctx context.Context, minScore float64, limit int64) ([]map[string]interface{}, error) {
	return f.items, f.err
}

func (f *fakeStore) Stats(ctx context.Context) (map[string]interface{}, error) {
	if f.err != nil {
		return nil, f.err
	}
	return map[string]interface{}{"database": "wiwi", "collections": map[string]interface{}{}}, nil
}

type fakeAnalyzer struct {
	lastURL string
}

func (f *fakeAnalyzer) AnalyzeURL(ctx context.Context, imageURL string) map[string]interface{} {
	f.lastURL = imageURL
	return map[string]interface{}{"ai_verification_score": 9.0, "images": []string{imageURL}}
}

func toolByName(t *testing.T, tools []Tool, name string) Tool {
	t.Helper()
	for _, tool := range tools {
		if tool.Name == name {
			return tool
		}
	}
	t.Fatalf("tool %s not found", name)
	return Tool{}
}

func TestDefaultTools_Complete(t *testing.T) {
	tools := DefaultTools(Deps{Store: &fakeStore{}, Analyzer: &fakeAnalyzer{}, HTTPClient: http.DefaultClient})

	names := make([]string, 0, len(tools))
	for _, tool := range tools {
		names = append(names, tool.Name)
		assert.NotEmpty(t, tool.Description, tool.Name)
		assert.NotNil(t, tool.InputSchema, tool.Name)
		assert.NotNil(t, tool.Run, tool.Name)
	}

	assert.ElementsMatch(t, []string{
		"query_database", "get_item_by_id", "get_items_by_category",
		"get_database_stats", "get_live_auctions", "get_auctions_by_ticket_cost",
		"get_high_ai_score_items", "analyze_image", "recommend_price",
		"place_order", "http_request",
	}, names)
}

func TestQueryDatabaseTool(t *testing.T) {
	store := &fakeStore{items: []map[string]interface{}{{"title": "Laptop"}}}
	tool := queryDatabaseTool(store)

	result := tool.Run(context.Background(), map[string]interface{}{
		"query_prompt": "live auctions under 50 tickets",
	}).(map[string]interface{})

	assert.Equal(t, "success", result["status"])
	assert.Equal(t, "items", result["collection"])
	assert.Equal(t, 1, result["total_results"])
	assert.Equal(t, int64(50), store.findLimit)
	assert.Equal(t, "live", store.findFilter["status"])
	assert.Equal(t, bson.M{"$lt": 50}, store.findFilter["ticketCost"])
	assert.Equal(t, store.findFilter, result["query_filter_used"])
}

func TestQueryDatabaseTool_Error(t *testing.T) {
	tool := queryDatabaseTool(&fakeStore{err: fmt.Errorf("connection reset")})

	result := tool.Run(context.Background(), map[string]interface{}{
		"query_prompt": "anything",
	}).(map[string]interface{})

	assert.Equal(t, "error", result["status"])
	assert.Contains(t, result["error"], "connection reset")
	assert.Equal(t, "anything", result["query_prompt"])
}

func TestItemByIDTool(t *testing.T) {
	store := &fakeStore{items: []map[string]interface{}{{"_id": "abc123", "title": "Camera"}}}
	tool := itemByIDTool(store)

	result := tool.Run(context.Background(), map[string]interface{}{"item_id": "abc123"}).(map[string]interface{})
	assert.Equal(t, "success", result["status"])
	assert.Equal(t, "abc123", result["item_id"])
	assert.NotNil(t, result["item"])
}

func TestHighAIScoreTool_Defaults(t *testing.T) {
	tool := highAIScoreTool(&fakeStore{})
	result := tool.Run(context.Background(), map[string]interface{}{}).(map[string]interface{})
	assert.Equal(t, 8.0, result["min_ai_score"])
}

func TestAnalyzeImageTool(t *testing.T) {
	analyzer := &fakeAnalyzer{}
	tool := analyzeImageTool(analyzer)

	result := tool.Run(context.Background(), map[string]interface{}{
		"image_url": "https://bucket.s3.us-west-2.amazonaws.com/uploads/a.png",
	}).(map[string]interface{})

	assert.Equal(t, "https://bucket.s3.us-west-2.amazonaws.com/uploads/a.png", analyzer.lastURL)
	assert.Equal(t, 9.0, result["ai_verification_score"])
}

func TestAnalyzeImageTool_MissingURL(t *testing.T) {
	tool := analyzeImageTool(&fakeAnalyzer{})
	result := tool.Run(context.Background(), map[string]interface{}{}).(map[string]interface{})
	assert.Equal(t, "error", result["status"])
}

func TestRecommendPriceTool(t *testing.T) {
	tool := recommendPriceTool()

	tests := []struct {
		condition string
		want      float64
	}{
		{"new", 500},
		{"used", 350},
		{"refurbished", 425},
		{"Mint", 500},
	}

	for _, tt := range tests {
		t.Run(tt.condition, func(t *testing.T) {
			result := tool.Run(context.Background(), map[string]interface{}{
				"product_name": "Laptop",
				"condition":    tt.condition,
			}).(map[string]interface{})
			assert.Equal(t, tt.want, result["recommended_price"])
		})
	}
}

func TestPlaceOrderTool_RequiresConfirmation(t *testing.T) {
	tool := placeOrderTool()

	result := tool.Run(context.Background(), map[string]interface{}{
		"product_id": "abc123",
		"quantity":   float64(3),
	}).(map[string]interface{})
	assert.Equal(t, "pending", result["status"])
	assert.Contains(t, result["message"], "confirmation required")

	result = tool.Run(context.Background(), map[string]interface{}{
		"product_id": "abc123",
		"quantity":   float64(3),
		"confirm":    true,
	}).(map[string]interface{})
	assert.Equal(t, "success", result["status"])
	assert.Contains(t, result["message"], "abc123")
	assert.Contains(t, result["message"], "quantity 3")
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) Do(req *http.Request) (*http.Response, error) { return f(req) }

func TestHTTPRequestTool(t *testing.T) {
	client := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, "GET", req.Method)
		assert.Equal(t, "https://example.com/prices", req.URL.String())
		return &http.Response{
			StatusCode: 200,
			Body:       io.NopCloser(bytes.NewReader([]byte(`{"price": 499}`))),
		}, nil
	})

	tool := httpRequestTool(client)
	result := tool.Run(context.Background(), map[string]interface{}{
		"url": "https://example.com/prices",
	}).(map[string]interface{})

	assert.Equal(t, "success", result["status"])
	assert.Equal(t, 200, result["status_code"])
	assert.Equal(t, `{"price": 499}`, result["body"])
}

func TestHTTPRequestTool_Error(t *testing.T) {
	client := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return nil, fmt.Errorf("dns failure")
	})

	tool := httpRequestTool(client)
	result := tool.Run(context.Background(), map[string]interface{}{
		"url": "https://unreachable.example",
	}).(map[string]interface{})

	assert.Equal(t, "error", result["status"])
	require.Contains(t, result["error"], "dns failure")
}

func TestArgHelpers(t *testing.T) {
	input := map[string]interface{}{
		"s": "value",
		"n": float64(42),
		"f": 7.5,
		"b": true,
	}

	assert.Equal(t, "value", stringArg(input, "s", "d"))
	assert.Equal(t, "d", stringArg(input, "missing", "d"))
	assert.Equal(t, 42, intArg(input, "n", 0))
	assert.Equal(t, 9, intArg(input, "missing", 9))
	assert.Equal(t, 7.5, floatArg(input, "f", 0))
	assert.Equal(t, 1.5, floatArg(input, "missing", 1.5))
	assert.True(t, boolArg(input, "b", false))
	assert.False(t, boolArg(input, "missing", false))
}
