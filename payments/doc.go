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

// Package payments sells raffle-ticket currency through Stripe.
//
// The Service keeps customer records and the purchase ledger in memory,
// guarded by a single mutex; the maps are shaped so they can be moved into
// MongoDB collections without changing the API. All Stripe traffic goes
// through the Processor interface so tests run without network access.
//
// Stripe test payment method tokens (pm_card_visa, pm_card_mastercard,
// pm_card_chargeDeclined, ...) are recognized by their pm_card_ prefix and
// stored without an attach call, since test tokens are already usable in
// PaymentIntents.
package payments
