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

import "context"

// Tool is one callable capability exposed to the model. InputSchema is a
// JSON Schema document sent verbatim in the tools block.
type Tool struct {
	Name        string
	Description string
	InputSchema map[string]interface{}
	Run         func(ctx context.Context, input map[string]interface{}) interface{}
}

// Tool inputs arrive as decoded JSON, so numbers are float64. These helpers
// coerce the common shapes.

func stringArg(input map[string]interface{}, key, fallback string) string {
	if v, ok := input[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

func intArg(input map[string]interface{}, key string, fallback int) int {
	switch v := input[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return fallback
}

func floatArg(input map[string]interface{}, key string, fallback float64) float64 {
	switch v := input[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return fallback
}

func boolArg(input map[string]interface{}, key string, fallback bool) bool {
	if v, ok := input[key].(bool); ok {
		return v
	}
	return fallback
}

// errorResult is the uniform failure envelope tools return; the model sees
// the error text and can recover or report it.
func errorResult(err error, extra map[string]interface{}) map[string]interface{} {
	result := map[string]interface{}{
		"status": "error",
		"error":  err.Error(),
	}
	for k, v := range extra {
		result[k] = v
	}
	return result
}
