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
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.mongodb.org/mongo-driver/bson"

	"wiwi/backend/search"
)

// Store is the persistence surface the tools need. Satisfied by *store.Store.
type Store interface {
	Find(ctx context.Context, collection string, filter bson.M, limit int64) ([]map[string]interface{}, error)
	ItemByID(ctx context.Context, itemID, collection string) (map[string]interface{}, error)
	ItemsByCategory(ctx context.Context, category string, limit int64) ([]map[string]interface{}, error)
	LiveAuctions(ctx context.Context, limit int64) ([]map[string]interface{}, error)
	ItemsByTicketCost(ctx context.Context, minTickets, maxTickets int, limit int64) ([]map[string]interface{}, error)
	HighScoreItems(ctx context.Context, minScore float64, limit int64) ([]map[string]interface{}, error)
	Stats(ctx context.Context) (map[string]interface{}, error)
}

// ImageAnalyzer is the vision surface the analyze_image tool needs.
// Satisfied by *vision.Analyzer.
type ImageAnalyzer interface {
	AnalyzeURL(ctx context.Context, imageURL string) map[string]interface{}
}

// HTTPClient abstracts outbound requests for the http_request tool.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Deps carries everything the default toolset depends on.
type Deps struct {
	Store      Store
	Analyzer   ImageAnalyzer
	HTTPClient HTTPClient
}

// Base price used by recommend_price when no market data is available.
const fallbackBasePrice = 500.0

// conditionFactors scales the base price by item condition.
var conditionFactors = map[string]float64{
	"new":         1.0,
	"used":        0.7,
	"refurbished": 0.85,
}

// httpResponseLimit bounds how much of a fetched body is handed to the model.
const httpResponseLimit = 10000

// DefaultTools builds the full auction toolset.
func DefaultTools(deps Deps) []Tool {
	return []Tool{
		queryDatabaseTool(deps.Store),
		itemByIDTool(deps.Store),
		itemsByCategoryTool(deps.Store),
		databaseStatsTool(deps.Store),
		liveAuctionsTool(deps.Store),
		auctionsByTicketCostTool(deps.Store),
		highAIScoreTool(deps.Store),
		analyzeImageTool(deps.Analyzer),
		recommendPriceTool(),
		placeOrderTool(),
		httpRequestTool(deps.HTTPClient),
	}
}

func queryDatabaseTool(db Store) Tool {
	return Tool{
		Name: "query_database",
		Description: "Query the auction database based on a natural language prompt. " +
			"Searches by title or description, ticket cost range (e.g. \"under 100 tickets\", \"between 50-200 tickets\"), " +
			"category, condition, status (live, goal_met, not_met), AI verification score, or any combination.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"query_prompt": map[string]interface{}{
					"type":        "string",
					"description": "Natural language description of what to search for",
				},
				"collection_name": map[string]interface{}{
					"type":        "string",
					"description": "Collection to search (default: items)",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results (default: 50)",
				},
			},
			"required": []string{"query_prompt"},
		},
		Run: func(ctx context.Context, input map[string]interface{}) interface{} {
			prompt := stringArg(input, "query_prompt", "")
			res := search.TranslatePrompt(prompt, stringArg(input, "collection_name", ""), int64(intArg(input, "limit", 0)))

			results, err := db.Find(ctx, res.Collection, res.Filter, res.Limit)
			if err != nil {
				return errorResult(err, map[string]interface{}{
					"query_prompt": prompt,
					"collection":   res.Collection,
				})
			}
			return map[string]interface{}{
				"status":            "success",
				"query_prompt":      prompt,
				"collection":        res.Collection,
				"total_results":     len(results),
				"results":           results,
				"query_filter_used": res.Filter,
			}
		},
	}
}

func itemByIDTool(db Store) Tool {
	return Tool{
		Name:        "get_item_by_id",
		Description: "Get a specific auction item by its ID.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"item_id": map[string]interface{}{
					"type":        "string",
					"description": "The ID of the item to retrieve",
				},
				"collection_name": map[string]interface{}{
					"type":        "string",
					"description": "Collection to search (default: items)",
				},
			},
			"required": []string{"item_id"},
		},
		Run: func(ctx context.Context, input map[string]interface{}) interface{} {
			itemID := stringArg(input, "item_id", "")
			item, err := db.ItemByID(ctx, itemID, stringArg(input, "collection_name", "items"))
			if err != nil {
				return errorResult(err, map[string]interface{}{"item_id": itemID})
			}
			return map[string]interface{}{
				"status":  "success",
				"item":    item,
				"item_id": itemID,
			}
		},
	}
}

func itemsByCategoryTool(db Store) Tool {
	return Tool{
		Name:        "get_items_by_category",
		Description: "Get all auction items in a specific category.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"category": map[string]interface{}{
					"type":        "string",
					"description": "Item category to search for",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results (default: 20)",
				},
			},
			"required": []string{"category"},
		},
		Run: func(ctx context.Context, input map[string]interface{}) interface{} {
			category := stringArg(input, "category", "")
			items, err := db.ItemsByCategory(ctx, category, int64(intArg(input, "limit", 20)))
			if err != nil {
				return errorResult(err, map[string]interface{}{"category": category})
			}
			return map[string]interface{}{
				"status":        "success",
				"category":      category,
				"total_results": len(items),
				"items":         items,
			}
		},
	}
}

func databaseStatsTool(db Store) Tool {
	return Tool{
		Name:        "get_database_stats",
		Description: "Get statistics about the database collections and data.",
		InputSchema: map[string]interface{}{
			"type":       "object",
			"properties": map[string]interface{}{},
		},
		Run: func(ctx context.Context, input map[string]interface{}) interface{} {
			stats, err := db.Stats(ctx)
			if err != nil {
				return errorResult(err, nil)
			}
			stats["status"] = "success"
			return stats
		},
	}
}

func liveAuctionsTool(db Store) Tool {
	return Tool{
		Name:        "get_live_auctions",
		Description: "Get all currently live auction items.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results (default: 20)",
				},
			},
		},
		Run: func(ctx context.Context, input map[string]interface{}) interface{} {
			items, err := db.LiveAuctions(ctx, int64(intArg(input, "limit", 20)))
			if err != nil {
				return errorResult(err, nil)
			}
			return map[string]interface{}{
				"status":        "success",
				"total_results": len(items),
				"live_auctions": items,
			}
		},
	}
}

func auctionsByTicketCostTool(db Store) Tool {
	return Tool{
		Name:        "get_auctions_by_ticket_cost",
		Description: "Get auction items within a specific ticket cost range.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"min_tickets": map[string]interface{}{
					"type":        "integer",
					"description": "Minimum ticket cost",
				},
				"max_tickets": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum ticket cost",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results (default: 20)",
				},
			},
			"required": []string{"min_tickets", "max_tickets"},
		},
		Run: func(ctx context.Context, input map[string]interface{}) interface{} {
			minTickets := intArg(input, "min_tickets", 0)
			maxTickets := intArg(input, "max_tickets", 0)
			ticketRange := fmt.Sprintf("%d-%d", minTickets, maxTickets)

			items, err := db.ItemsByTicketCost(ctx, minTickets, maxTickets, int64(intArg(input, "limit", 20)))
			if err != nil {
				return errorResult(err, map[string]interface{}{"ticket_range": ticketRange})
			}
			return map[string]interface{}{
				"status":        "success",
				"ticket_range":  ticketRange,
				"total_results": len(items),
				"items":         items,
			}
		},
	}
}

func highAIScoreTool(db Store) Tool {
	return Tool{
		Name:        "get_high_ai_score_items",
		Description: "Get auction items with high AI verification scores.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"min_score": map[string]interface{}{
					"type":        "number",
					"description": "Minimum AI verification score (default: 8.0)",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results (default: 20)",
				},
			},
		},
		Run: func(ctx context.Context, input map[string]interface{}) interface{} {
			minScore := floatArg(input, "min_score", 8.0)
			items, err := db.HighScoreItems(ctx, minScore, int64(intArg(input, "limit", 20)))
			if err != nil {
				return errorResult(err, map[string]interface{}{"min_ai_score": minScore})
			}
			return map[string]interface{}{
				"status":             "success",
				"min_ai_score":       minScore,
				"total_results":      len(items),
				"high_quality_items": items,
			}
		},
	}
}

func analyzeImageTool(analyzer ImageAnalyzer) Tool {
	return Tool{
		Name: "analyze_image",
		Description: "Analyze a product image for auction quality rating. " +
			"Input: image URL (S3 or other accessible URL). Output: detailed product analysis with quality score and recommendations.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"image_url": map[string]interface{}{
					"type":        "string",
					"description": "URL of the image to analyze",
				},
			},
			"required": []string{"image_url"},
		},
		Run: func(ctx context.Context, input map[string]interface{}) interface{} {
			imageURL := stringArg(input, "image_url", "")
			if imageURL == "" {
				return errorResult(fmt.Errorf("image_url is required"), nil)
			}
			return analyzer.AnalyzeURL(ctx, imageURL)
		},
	}
}

func recommendPriceTool() Tool {
	return Tool{
		Name:        "recommend_price",
		Description: "Recommend a fair price based on product condition. Returns a numeric price estimate.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"product_name": map[string]interface{}{
					"type":        "string",
					"description": "Name of the product",
				},
				"condition": map[string]interface{}{
					"type":        "string",
					"description": "Condition: new, used or refurbished",
				},
			},
			"required": []string{"product_name", "condition"},
		},
		Run: func(ctx context.Context, input map[string]interface{}) interface{} {
			condition := strings.ToLower(stringArg(input, "condition", ""))
			factor, ok := conditionFactors[condition]
			if !ok {
				factor = 1.0
			}
			return map[string]interface{}{
				"status":            "success",
				"product_name":      stringArg(input, "product_name", ""),
				"condition":         condition,
				"recommended_price": fallbackBasePrice * factor,
			}
		},
	}
}

func placeOrderTool() Tool {
	return Tool{
		Name:        "place_order",
		Description: "Place an order for the given product ID. Only proceeds if confirm is true.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"product_id": map[string]interface{}{
					"type":        "string",
					"description": "ID of the product to order",
				},
				"quantity": map[string]interface{}{
					"type":        "integer",
					"description": "Number of tickets to spend",
				},
				"confirm": map[string]interface{}{
					"type":        "boolean",
					"description": "Must be true; set only after the user explicitly confirmed",
				},
			},
			"required": []string{"product_id", "quantity"},
		},
		Run: func(ctx context.Context, input map[string]interface{}) interface{} {
			if !boolArg(input, "confirm", false) {
				return map[string]interface{}{
					"status":  "pending",
					"message": "Order not placed. User confirmation required.",
				}
			}
			return map[string]interface{}{
				"status": "success",
				"message": fmt.Sprintf("Order placed successfully for product %s, quantity %d.",
					stringArg(input, "product_id", ""), intArg(input, "quantity", 0)),
			}
		},
	}
}

func httpRequestTool(client HTTPClient) Tool {
	return Tool{
		Name:        "http_request",
		Description: "Make an HTTP request to an external URL and return the response body.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"url": map[string]interface{}{
					"type":        "string",
					"description": "URL to request",
				},
				"method": map[string]interface{}{
					"type":        "string",
					"description": "HTTP method (default: GET)",
				},
				"body": map[string]interface{}{
					"type":        "string",
					"description": "Request body for POST/PUT",
				},
			},
			"required": []string{"url"},
		},
		Run: func(ctx context.Context, input map[string]interface{}) interface{} {
			url := stringArg(input, "url", "")
			method := strings.ToUpper(stringArg(input, "method", http.MethodGet))

			var reqBody io.Reader
			if b := stringArg(input, "body", ""); b != "" {
				reqBody = strings.NewReader(b)
			}

			req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
			if err != nil {
				return errorResult(err, map[string]interface{}{"url": url})
			}

			resp, err := client.Do(req)
			if err != nil {
				return errorResult(err, map[string]interface{}{"url": url})
			}
			defer resp.Body.Close()

			data, err := io.ReadAll(io.LimitReader(resp.Body, httpResponseLimit))
			if err != nil {
				return errorResult(err, map[string]interface{}{"url": url})
			}
			return map[string]interface{}{
				"status":      "success",
				"url":         url,
				"status_code": resp.StatusCode,
				"body":        string(data),
			}
		},
	}
}
