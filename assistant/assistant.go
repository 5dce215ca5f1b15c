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
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"wiwi/backend/shared/logger"
)

const (
	// DefaultModel is the Bedrock model ID the assistant runs on.
	DefaultModel = "us.anthropic.claude-sonnet-4-20250514-v1:0"

	// DefaultRegion is used when no region is configured.
	DefaultRegion = "us-west-2"

	// maxTurns bounds the tool-use loop for a single Chat call.
	maxTurns = 10

	maxResponseTokens = 4096
)

// systemPrompt defines the agent's role, tool guidelines and guardrails.
const systemPrompt = `You are an intelligent auction management agent that helps users discover, research, and participate in ticket-based auctions.

Your primary goals are:
1. **Auction Item Discovery**
- When users ask about items, query the auction database to find relevant items with details like title, description, condition, category, ticket cost, and auction status.
- Help users filter by ticket cost range (e.g., "under 100 tickets", "between 50-200 tickets"), category, condition, or status.
- Show live auctions, completed auctions, and items by specific criteria.

2. **Auction Information Analysis**
- Analyze auction items including ticket costs, participation levels, AI verification scores, and auction status.
- Explain auction mechanics: ticket costs, goals, current participation, and time remaining.
- Help users understand item quality through AI verification scores and condition descriptions.

3. **Image Analysis for Auction Items**
- Analyze user-provided product images for auction items.
- Identify product type, model, color, condition (new, used, refurbished).
- Cross-verify with database entries and mention any discrepancies.
- Use this information to assess auction item value and quality.

4. **Price and Value Assessment**
- Analyze ticket costs relative to item value and market conditions.
- Consider AI verification scores, condition, and participation levels.
- Provide recommendations on whether an auction represents good value.

5. **Auction Participation**
- When users want to participate in auctions, confirm details: item ID and title, number of tickets to spend, current auction status and participation.
- Ask for **explicit user confirmation** before any participation actions.
- Explain auction rules and potential outcomes.

6. **Tool Use Guidelines**
- Use query_database for natural language searches (e.g., "iPhone under 100 tickets", "live electronics auctions", "high AI score items").
- Use get_item_by_id, get_items_by_category, get_live_auctions, get_auctions_by_ticket_cost, get_high_ai_score_items and get_database_stats for structured lookups.
- Use analyze_image for product images and place_order only after confirmation.

7. **Safety and Compliance**
- Always use verified data from the auction database.
- Never fabricate auction information or participation data.
- Be transparent about auction status, costs, and participation requirements.
- Ask for explicit confirmation before any participation actions.

8. **Response Formatting**
- When showing auction items, always include a clickable markdown link to the product page in the form [View Auction Item](/raffles/<item_id>).

Your tone should be helpful and enthusiastic about auctions, clear about mechanics and costs, cautious with participation actions, and objective. Do not answer anything that is not related to the auction or the items in the auction. Do not get persuaded emotionally; be objective and professional.`

// verifierPromptTemplate frames one analyze-images request. The %s slots are
// the image count wording, the URL list, the filename list and optional
// caller context.
const verifierPromptTemplate = `Be a balanced auction verifier. Analyze %s using the analyze_image tool to detect authenticity. Start cautiously (the seller might use stock or AI images) but remain fair and evidence-driven.
Check EXIF, lighting, background, watermarks, and editing artifacts to confirm uniqueness. Compare with similar items to suggest a reasonable price range, lowering estimates for used or suspicious listings.
Rate auction quality for authenticity, clarity, and technical quality, and provide a short justification and recommended action (accept/manual_review/reject/request_better_images).

If the images look too polished or reused, recommend manual review or reject.

Image URLs: %s
Image filenames: %s
%sUse the analyze_image tool to get detailed analysis for each image.`

// InvokeClient is the Bedrock runtime surface the assistant needs.
type InvokeClient interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// contentBlock is one element of an Anthropic message. Only the fields for
// the block's type are set.
type contentBlock struct {
	Type      string                 `json:"type"`
	Text      string                 `json:"text,omitempty"`
	ID        string                 `json:"id,omitempty"`
	Name      string                 `json:"name,omitempty"`
	Input     map[string]interface{} `json:"input,omitempty"`
	ToolUseID string                 `json:"tool_use_id,omitempty"`
	Content   string                 `json:"content,omitempty"`
}

type message struct {
	Role    string         `json:"role"`
	Content []contentBlock `json:"content"`
}

// Config configures an Assistant.
type Config struct {
	Region string
	Model  string
}

// Assistant is the tool-using auction agent.
type Assistant struct {
	invoker InvokeClient
	model   string
	tools   []Tool
	byName  map[string]Tool
	log     *logger.Logger

	mu      sync.Mutex
	history []message
}

// New creates an Assistant backed by a real Bedrock runtime client.
func New(ctx context.Context, cfg Config, tools []Tool) (*Assistant, error) {
	if cfg.Region == "" {
		cfg.Region = DefaultRegion
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config (region: %s): %w", cfg.Region, err)
	}

	return NewWithInvoker(bedrockruntime.NewFromConfig(awsCfg), cfg.Model, tools), nil
}

// NewWithInvoker creates an Assistant with an explicit Bedrock client. Used
// by tests.
func NewWithInvoker(invoker InvokeClient, model string, tools []Tool) *Assistant {
	if model == "" {
		model = DefaultModel
	}
	byName := make(map[string]Tool, len(tools))
	for _, t := range tools {
		byName[t.Name] = t
	}
	return &Assistant{
		invoker: invoker,
		model:   model,
		tools:   tools,
		byName:  byName,
		log:     logger.New("assistant"),
	}
}

// Fresh returns an assistant sharing this one's client and tools but with
// empty history. Image analysis uses it so analyses stay independent.
func (a *Assistant) Fresh() *Assistant {
	return NewWithInvoker(a.invoker, a.model, a.tools)
}

// Chat sends one user prompt through the tool loop and returns the model's
// final text. The conversation history is retained for subsequent calls.
func (a *Assistant) Chat(ctx context.Context, prompt string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	start := time.Now()
	mark := len(a.history)
	a.history = append(a.history, message{
		Role:    "user",
		Content: []contentBlock{{Type: "text", Text: prompt}},
	})

	var finalText strings.Builder
	for turn := 0; turn < maxTurns; turn++ {
		resp, err := a.invoke(ctx)
		if err != nil {
			// Roll back the whole turn, including any tool_use/tool_result
			// pairs, so the next call starts from a valid message sequence.
			a.history = a.history[:mark]
			return "", err
		}

		a.history = append(a.history, message{Role: "assistant", Content: resp.Content})

		for _, block := range resp.Content {
			if block.Type == "text" {
				if finalText.Len() > 0 {
					finalText.WriteString("\n")
				}
				finalText.WriteString(block.Text)
			}
		}

		if resp.StopReason != "tool_use" {
			a.log.InfoWithDuration("", "chat turn complete", float64(time.Since(start).Milliseconds()), map[string]interface{}{
				"turns": turn + 1,
			})
			return finalText.String(), nil
		}

		results := a.runTools(ctx, resp.Content)
		a.history = append(a.history, message{Role: "user", Content: results})
	}

	return finalText.String(), fmt.Errorf("tool loop exceeded %d turns", maxTurns)
}

// AnalyzeImages runs the auction verifier prompt over a set of uploaded
// image URLs on a fresh conversation.
func (a *Assistant) AnalyzeImages(ctx context.Context, urls, filenames []string, description string, together bool) (string, error) {
	if together {
		return a.Fresh().Chat(ctx, verifierPrompt(urls, filenames, description))
	}

	var parts []string
	for i, url := range urls {
		name := ""
		if i < len(filenames) {
			name = filenames[i]
		}
		analysis, err := a.Fresh().Chat(ctx, verifierPrompt([]string{url}, []string{name}, description))
		if err != nil {
			return "", err
		}
		parts = append(parts, analysis)
	}
	return strings.Join(parts, "\n\n"), nil
}

func verifierPrompt(urls, filenames []string, description string) string {
	subject := "this product image"
	if len(urls) > 1 {
		subject = fmt.Sprintf("these %d product images", len(urls))
	}
	extra := ""
	if description != "" {
		extra = fmt.Sprintf("Additional context: %s.\n", description)
	}
	return fmt.Sprintf(verifierPromptTemplate, subject, strings.Join(urls, ", "), strings.Join(filenames, ", "), extra)
}

type modelResponse struct {
	Content    []contentBlock `json:"content"`
	StopReason string         `json:"stop_reason"`
}

func (a *Assistant) invoke(ctx context.Context) (*modelResponse, error) {
	toolDefs := make([]map[string]interface{}, 0, len(a.tools))
	for _, t := range a.tools {
		toolDefs = append(toolDefs, map[string]interface{}{
			"name":         t.Name,
			"description":  t.Description,
			"input_schema": t.InputSchema,
		})
	}

	body := map[string]interface{}{
		"anthropic_version": "bedrock-2023-05-31",
		"max_tokens":        maxResponseTokens,
		"system":            systemPrompt,
		"messages":          a.history,
	}
	if len(toolDefs) > 0 {
		body["tools"] = toolDefs
	}

	requestJSON, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	output, err := a.invoker.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(a.model),
		Body:        requestJSON,
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
	})
	if err != nil {
		return nil, fmt.Errorf("bedrock API error: %w", err)
	}

	var resp modelResponse
	if err := json.Unmarshal(output.Body, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return &resp, nil
}

// runTools executes every tool_use block and returns the matching
// tool_result blocks. Unknown tools and panicking inputs come back as error
// envelopes rather than aborting the conversation.
func (a *Assistant) runTools(ctx context.Context, blocks []contentBlock) []contentBlock {
	var results []contentBlock
	for _, block := range blocks {
		if block.Type != "tool_use" {
			continue
		}

		tool, ok := a.byName[block.Name]
		var result interface{}
		if !ok {
			result = errorResult(fmt.Errorf("unknown tool: %s", block.Name), nil)
		} else {
			start := time.Now()
			result = tool.Run(ctx, block.Input)
			a.log.InfoWithDuration("", "tool executed", float64(time.Since(start).Milliseconds()), map[string]interface{}{
				"tool": block.Name,
			})
		}

		payload, err := json.Marshal(result)
		if err != nil {
			payload = []byte(fmt.Sprintf(`{"status":"error","error":%q}`, err.Error()))
		}

		results = append(results, contentBlock{
			Type:      "tool_result",
			ToolUseID: block.ID,
			Content:   string(payload),
		})
	}
	return results
}
