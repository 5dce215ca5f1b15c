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

// Package server is the HTTP surface of the WIWI backend. It wires the
// auction agent, the Mongo store, the payment service, the S3 uploader and
// the SMTP mailer behind a gorilla/mux router with CORS, Prometheus request
// metrics and a sliding-window rate limit on the agent endpoints.
package server
