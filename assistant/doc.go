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

// Package assistant runs the auction management agent on Bedrock Claude.
//
// The Assistant holds a shared conversation history and a registry of tools.
// Each Chat call appends the user turn and loops: the model either answers
// in text or requests tool invocations; tool results are fed back as
// tool_result blocks until the model stops requesting tools or the turn
// budget runs out. History access is serialized with a mutex since the
// default assistant instance is shared across HTTP requests.
//
// Image analysis uses Fresh to obtain an assistant with empty history so
// one product's analysis never bleeds into another's.
package assistant
