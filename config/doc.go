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

// Package config loads backend configuration.
//
// Sources are layered: a .env file (development convenience), environment
// variables, an optional YAML file named by WIWI_CONFIG_FILE, and finally
// AWS Secrets Manager for credentials whose *_SECRET_ARN variable is set.
// Later layers win. Secrets fetched from AWS are cached with a TTL so
// restart storms do not hammer the API.
package config
