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
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedInvoker replays a fixed sequence of model responses and records
// every request body. When err is set it fires on the call numbered errOn
// (1-based), or on every call when errOn is zero.
type scriptedInvoker struct {
	responses []modelResponse
	requests  [][]byte
	err       error
	errOn     int
}

func (s *scriptedInvoker) InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error) {
	s.requests = append(s.requests, params.Body)
	if s.err != nil && (s.errOn == 0 || s.errOn == len(s.requests)) {
		return nil, s.err
	}
	if len(s.requests) > len(s.responses) {
		return nil, fmt.Errorf("no scripted response for call %d", len(s.requests))
	}
	body, _ := json.Marshal(s.responses[len(s.requests)-1])
	return &bedrockruntime.InvokeModelOutput{Body: body}, nil
}

func textResponse(text string) modelResponse {
	return modelResponse{
		Content:    []contentBlock{{Type: "text", Text: text}},
		StopReason: "end_turn",
	}
}

func toolUseResponse(id, name string, input map[string]interface{}) modelResponse {
	return modelResponse{
		Content:    []contentBlock{{Type: "tool_use", ID: id, Name: name, Input: input}},
		StopReason: "tool_use",
	}
}

func echoTool(name string) Tool {
	return Tool{
		Name:        name,
		Description: "echoes its input",
		InputSchema: map[string]interface{}{"type": "object"},
		Run: func(ctx context.Context, input map[string]interface{}) interface{} {
			return map[string]interface{}{"status": "success", "echo": input}
		},
	}
}

func TestChat_PlainAnswer(t *testing.T) {
	invoker := &scriptedInvoker{responses: []modelResponse{textResponse("There are 3 live auctions.")}}
	a := NewWithInvoker(invoker, "", nil)

	answer, err := a.Chat(context.Background(), "how many live auctions?")
	require.NoError(t, err)
	assert.Equal(t, "There are 3 live auctions.", answer)
	require.Len(t, invoker.requests, 1)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(invoker.requests[0], &body))
	assert.Equal(t, "bedrock-2023-05-31", body["anthropic_version"])
	assert.Contains(t, body["system"], "auction management agent")
	assert.NotContains(t, body, "tools", "no tools block without registered tools")
}

func TestChat_ToolLoop(t *testing.T) {
	invoker := &scriptedInvoker{responses: []modelResponse{
		toolUseResponse("tu_1", "lookup", map[string]interface{}{"q": "laptops"}),
		textResponse("Found one laptop."),
	}}
	a := NewWithInvoker(invoker, "", []Tool{echoTool("lookup")})

	answer, err := a.Chat(context.Background(), "find laptops")
	require.NoError(t, err)
	assert.Equal(t, "Found one laptop.", answer)
	require.Len(t, invoker.requests, 2)

	// Second request must carry the tool_result for tu_1.
	var body struct {
		Messages []message `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(invoker.requests[1], &body))
	require.Len(t, body.Messages, 3)

	last := body.Messages[2]
	assert.Equal(t, "user", last.Role)
	require.Len(t, last.Content, 1)
	assert.Equal(t, "tool_result", last.Content[0].Type)
	assert.Equal(t, "tu_1", last.Content[0].ToolUseID)
	assert.Contains(t, last.Content[0].Content, `"status":"success"`)
	assert.Contains(t, last.Content[0].Content, "laptops")
}

func TestChat_ToolDefinitionsSent(t *testing.T) {
	invoker := &scriptedInvoker{responses: []modelResponse{textResponse("ok")}}
	a := NewWithInvoker(invoker, "", []Tool{echoTool("lookup"), echoTool("other")})

	_, err := a.Chat(context.Background(), "hi")
	require.NoError(t, err)

	var body struct {
		Tools []map[string]interface{} `json:"tools"`
	}
	require.NoError(t, json.Unmarshal(invoker.requests[0], &body))
	require.Len(t, body.Tools, 2)
	assert.Equal(t, "lookup", body.Tools[0]["name"])
	assert.NotNil(t, body.Tools[0]["input_schema"])
}

func TestChat_UnknownToolReturnsErrorEnvelope(t *testing.T) {
	invoker := &scriptedInvoker{responses: []modelResponse{
		toolUseResponse("tu_1", "nonexistent", nil),
		textResponse("I could not run that tool."),
	}}
	a := NewWithInvoker(invoker, "", []Tool{echoTool("lookup")})

	answer, err := a.Chat(context.Background(), "do something")
	require.NoError(t, err)
	assert.Equal(t, "I could not run that tool.", answer)

	var body struct {
		Messages []message `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(invoker.requests[1], &body))
	last := body.Messages[len(body.Messages)-1]
	assert.Contains(t, last.Content[0].Content, "unknown tool")
}

func TestChat_HistoryAccumulates(t *testing.T) {
	invoker := &scriptedInvoker{responses: []modelResponse{
		textResponse("first"),
		textResponse("second"),
	}}
	a := NewWithInvoker(invoker, "", nil)

	_, err := a.Chat(context.Background(), "one")
	require.NoError(t, err)
	_, err = a.Chat(context.Background(), "two")
	require.NoError(t, err)

	var body struct {
		Messages []message `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(invoker.requests[1], &body))
	// user, assistant, user
	require.Len(t, body.Messages, 3)
	assert.Equal(t, "one", body.Messages[0].Content[0].Text)
	assert.Equal(t, "two", body.Messages[2].Content[0].Text)
}

func TestChat_InvokeErrorLeavesHistoryClean(t *testing.T) {
	invoker := &scriptedInvoker{err: fmt.Errorf("throttled")}
	a := NewWithInvoker(invoker, "", nil)

	_, err := a.Chat(context.Background(), "hello")
	require.Error(t, err)

	a.mu.Lock()
	defer a.mu.Unlock()
	assert.Empty(t, a.history, "failed turn must not linger in history")
}

func TestChat_InvokeErrorAfterToolRoundRollsBackWholeTurn(t *testing.T) {
	// First call requests a tool, second call fails. The tool_use and
	// tool_result from the failed turn must not survive in history, or the
	// next request would end with an assistant tool_use block.
	invoker := &scriptedInvoker{
		responses: []modelResponse{toolUseResponse("tu_1", "lookup", nil)},
		err:       fmt.Errorf("throttled"),
		errOn:     2,
	}
	a := NewWithInvoker(invoker, "", []Tool{echoTool("lookup")})

	_, err := a.Chat(context.Background(), "find laptops")
	require.Error(t, err)

	a.mu.Lock()
	assert.Empty(t, a.history, "failed turn must not linger in history")
	a.mu.Unlock()

	// The agent must stay usable after the failure. The errored call
	// consumed a response slot, so pad past it.
	invoker.err = nil
	invoker.responses = append(invoker.responses, textResponse("unused"), textResponse("recovered"))
	invoker.errOn = 0

	answer, err := a.Chat(context.Background(), "try again")
	require.NoError(t, err)
	assert.Equal(t, "recovered", answer)

	var body struct {
		Messages []message `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(invoker.requests[2], &body))
	require.Len(t, body.Messages, 1)
	assert.Equal(t, "try again", body.Messages[0].Content[0].Text)
}

func TestChat_TurnBudget(t *testing.T) {
	var responses []modelResponse
	for i := 0; i < maxTurns+2; i++ {
		responses = append(responses, toolUseResponse(fmt.Sprintf("tu_%d", i), "lookup", nil))
	}
	invoker := &scriptedInvoker{responses: responses}
	a := NewWithInvoker(invoker, "", []Tool{echoTool("lookup")})

	_, err := a.Chat(context.Background(), "loop forever")
	require.Error(t, err)
	assert.Len(t, invoker.requests, maxTurns)
}

func TestFresh_EmptyHistorySharedTools(t *testing.T) {
	invoker := &scriptedInvoker{responses: []modelResponse{textResponse("a"), textResponse("b")}}
	a := NewWithInvoker(invoker, "", []Tool{echoTool("lookup")})

	_, err := a.Chat(context.Background(), "remember this")
	require.NoError(t, err)

	fresh := a.Fresh()
	_, err = fresh.Chat(context.Background(), "new topic")
	require.NoError(t, err)

	var body struct {
		Messages []message `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(invoker.requests[1], &body))
	require.Len(t, body.Messages, 1, "fresh assistant must not carry prior history")
	assert.Equal(t, "new topic", body.Messages[0].Content[0].Text)
}

func TestAnalyzeImages_Together(t *testing.T) {
	invoker := &scriptedInvoker{responses: []modelResponse{textResponse("combined verdict")}}
	a := NewWithInvoker(invoker, "", nil)

	out, err := a.AnalyzeImages(context.Background(),
		[]string{"https://x/1.png", "https://x/2.png"},
		[]string{"1.png", "2.png"},
		"two laptops", true)
	require.NoError(t, err)
	assert.Equal(t, "combined verdict", out)
	require.Len(t, invoker.requests, 1)

	var body struct {
		Messages []message `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(invoker.requests[0], &body))
	prompt := body.Messages[0].Content[0].Text
	assert.Contains(t, prompt, "these 2 product images")
	assert.Contains(t, prompt, "https://x/1.png, https://x/2.png")
	assert.Contains(t, prompt, "1.png, 2.png")
	assert.Contains(t, prompt, "Additional context: two laptops.")
}

func TestAnalyzeImages_Separately(t *testing.T) {
	invoker := &scriptedInvoker{responses: []modelResponse{
		textResponse("verdict one"),
		textResponse("verdict two"),
	}}
	a := NewWithInvoker(invoker, "", nil)

	out, err := a.AnalyzeImages(context.Background(),
		[]string{"https://x/1.png", "https://x/2.png"},
		[]string{"1.png", "2.png"},
		"", false)
	require.NoError(t, err)
	assert.Contains(t, out, "verdict one")
	assert.Contains(t, out, "verdict two")
	require.Len(t, invoker.requests, 2)

	var body struct {
		Messages []message `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(invoker.requests[0], &body))
	prompt := body.Messages[0].Content[0].Text
	assert.Contains(t, prompt, "this product image")
	assert.NotContains(t, prompt, "2.png", "separate analyses must not mix images")
}
