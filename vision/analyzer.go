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

package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/google/uuid"

	"wiwi/backend/shared/logger"
)

const (
	// DefaultModel is the Bedrock model ID used for image analysis.
	DefaultModel = "anthropic.claude-3-5-sonnet-20241022-v2:0"

	// DefaultRegion is used when no region is configured.
	DefaultRegion = "us-west-2"

	maxResponseTokens = 10000

	downloadTimeout = 30 * time.Second

	// maxImageBytes bounds the downloaded payload; Bedrock rejects larger
	// image blocks anyway.
	maxImageBytes = 20 << 20
)

// analysisInstructions is the fixed per-image instruction block sent
// alongside the image. The model is asked for raw JSON only.
const analysisInstructions = `Analyze this product image for auction quality assessment.

Never include markdown, code blocks, or explanations.
Always return valid JSON (double quotes, proper commas, no trailing commas).
Do not wrap the JSON inside text or additional formatting.
Ticket Goal is the goal of the auction and ticket cost is the cost per ticket. Ticket Cost can go as low as $1 but never over 50% of the item's value (ticket goal).

Provide a detailed analysis of this product in the following format:

1. AI verification score (1-10)
2. category (one or many) from this list ['Electronics', 'Gaming', 'Sports', 'Collectibles', 'Furniture', 'Toys', 'Gadgets', 'Audio', 'Wearables', 'Arts & Crafts', 'Beauty', 'Fragrance', 'Other', 'Home', 'Clothing', 'Books']
3. Write Title for the auction listing
4. Write Descriptions for the auction listing
5. Give Ticket Price and Ticket Goal (1$ = 1 ticket)

Format your response as a structured JSON object.

populate these fields in the JSON object:
    "ai_verification_score": number,
    "category": pull from the list above,
    "title": generate a title for the product,
    "description": Generate a description,
    "ticket_price": calculate the ticket price based on the item's value,
    "ticket_goal": calculate the ticket goal based on the item's value
`

// InvokeClient is the Bedrock runtime surface the analyzer needs. Satisfied
// by *bedrockruntime.Client; tests substitute a fake.
type InvokeClient interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// HTTPClient abstracts image downloads for testability.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config configures an Analyzer.
type Config struct {
	Region string
	Model  string
}

// Analyzer runs single-image quality assessments against Bedrock.
type Analyzer struct {
	invoker    InvokeClient
	httpClient HTTPClient
	model      string
	region     string
	log        *logger.Logger
}

// New creates an Analyzer backed by a real Bedrock runtime client.
func New(ctx context.Context, cfg Config) (*Analyzer, error) {
	if cfg.Region == "" {
		cfg.Region = DefaultRegion
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config for Bedrock (region: %s): %w", cfg.Region, err)
	}

	return &Analyzer{
		invoker:    bedrockruntime.NewFromConfig(awsCfg),
		httpClient: &http.Client{Timeout: downloadTimeout},
		model:      cfg.Model,
		region:     cfg.Region,
		log:        logger.New("vision"),
	}, nil
}

// NewWithClients creates an Analyzer with explicit dependencies. Used by tests.
func NewWithClients(invoker InvokeClient, httpClient HTTPClient, model string) *Analyzer {
	if model == "" {
		model = DefaultModel
	}
	return &Analyzer{
		invoker:    invoker,
		httpClient: httpClient,
		model:      model,
		log:        logger.New("vision"),
	}
}

// AnalyzeURL downloads the image at imageURL and produces a quality
// assessment. It never returns a hard failure for analysis problems: when
// the download or the model call goes wrong the returned document carries an
// "error" key and a conservative "fallback_analysis" block.
func (a *Analyzer) AnalyzeURL(ctx context.Context, imageURL string) map[string]interface{} {
	data, mediaType, err := a.download(ctx, imageURL)
	if err != nil {
		a.log.Error("", "image download failed", map[string]interface{}{
			"image_url": imageURL,
			"error":     err.Error(),
		})
		return fallbackAnalysis(imageURL, err)
	}

	// Decode dimensions up front so obviously broken uploads never reach
	// the model.
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		a.log.Error("", "image decode failed", map[string]interface{}{
			"image_url": imageURL,
			"error":     err.Error(),
		})
		return fallbackAnalysis(imageURL, fmt.Errorf("not a decodable image: %w", err))
	}

	a.log.Info("", "analyzing image", map[string]interface{}{
		"image_url":    imageURL,
		"format":       format,
		"width":        cfg.Width,
		"height":       cfg.Height,
		"file_size_kb": float64(len(data)) / 1024,
	})

	raw, err := a.invokeClaude(ctx, base64.StdEncoding.EncodeToString(data), mediaType)
	if err != nil {
		a.log.Error("", "bedrock analysis failed", map[string]interface{}{
			"image_url": imageURL,
			"model":     a.model,
			"error":     err.Error(),
		})
		return fallbackAnalysis(imageURL, err)
	}

	// Best-effort parse. The model is instructed to return bare JSON but
	// occasionally wraps it anyway; unparseable output is passed through
	// verbatim so the caller still sees the assessment text.
	var analysis map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &analysis); err != nil {
		return map[string]interface{}{
			"analysis": raw,
			"images":   []string{imageURL},
		}
	}
	analysis["images"] = []string{imageURL}
	return analysis
}

// invokeClaude sends one image to the model. Each call carries a unique
// session identifier in the system prompt so the model treats every request
// as independent.
func (a *Analyzer) invokeClaude(ctx context.Context, imageBase64, mediaType string) (string, error) {
	sessionID := uuid.New().String()

	body := map[string]interface{}{
		"anthropic_version": "bedrock-2023-05-31",
		"max_tokens":        maxResponseTokens,
		"system": fmt.Sprintf("You are a completely fresh AI model with no memory. Session ID: %s. "+
			"Each request is completely independent. Do not reference, remember, or use any information "+
			"from previous requests. Analyze only the current image provided. Return only valid JSON as requested.", sessionID),
		"messages": []map[string]interface{}{
			{
				"role": "user",
				"content": []map[string]interface{}{
					{
						"type": "image",
						"source": map[string]interface{}{
							"type":       "base64",
							"media_type": mediaType,
							"data":       imageBase64,
						},
					},
					{
						"type": "text",
						"text": analysisInstructions,
					},
				},
			},
		},
	}

	requestJSON, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	output, err := a.invoker.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(a.model),
		Body:        requestJSON,
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("bedrock API error: %w", err)
	}

	var resp struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(output.Body, &resp); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if len(resp.Content) == 0 {
		return "", fmt.Errorf("empty model response")
	}
	return resp.Content[0].Text, nil
}

func (a *Analyzer) download(ctx context.Context, imageURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, "", err
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			a.log.Warn("", "error closing response body", map[string]interface{}{"error": err.Error()})
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("image fetch returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return nil, "", err
	}
	if len(data) > maxImageBytes {
		return nil, "", fmt.Errorf("image exceeds %d byte limit", maxImageBytes)
	}

	mediaType := resp.Header.Get("Content-Type")
	if mediaType == "" || !strings.HasPrefix(mediaType, "image/") {
		mediaType = http.DetectContentType(data)
	}
	if !strings.HasPrefix(mediaType, "image/") {
		mediaType = "image/jpeg"
	}
	return data, mediaType, nil
}

// fallbackAnalysis is the conservative assessment returned when the real
// analysis cannot run.
func fallbackAnalysis(imageURL string, cause error) map[string]interface{} {
	return map[string]interface{}{
		"error":     fmt.Sprintf("Image analysis failed: %v", cause),
		"image_url": imageURL,
		"recommendations": []string{
			"Please ensure image URL is accessible",
			"Try uploading a different image",
		},
		"fallback_analysis": map[string]interface{}{
			"ai_verification_score":   5.0,
			"recommended_ticket_cost": 25,
			"quality_tier":            "Low",
			"market_demand":           "Low",
		},
	}
}
