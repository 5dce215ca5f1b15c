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

// Package vision analyzes product images for listing quality assessment
// using Claude vision models on AWS Bedrock.
//
// Each analysis runs against a fresh session identifier so the model never
// carries state between images. The analyzer downloads the image, measures
// its dimensions, and submits the base64-encoded bytes together with a fixed
// instruction prompt. Responses are expected to be a JSON document with the
// verification score, category, title, description and ticket pricing; when
// the model returns something else, or when any step fails, a conservative
// fallback assessment is returned instead of an error so callers always get
// a usable result.
package vision
