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

// Package notify sends winner notification emails over SMTP.
//
// Two notification kinds exist: a generic winner notice whose body is
// caller-supplied, and the detailed raffle winner email rendered from an
// HTML template with prize, investment and seller contact details plus an
// optional charity overflow banner. Delivery upgrades the connection with
// STARTTLS before authenticating, which is what Gmail's submission port
// requires.
package notify
