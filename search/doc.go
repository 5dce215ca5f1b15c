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

/*
Package search translates free-text search prompts into MongoDB filter
documents for the auction items collection.

The translator runs six independent dimensions over a lower-cased copy of
the prompt: ticket-cost range, auction status, category, condition, AI
verification score, and a popularity heuristic. Each dimension is an ordered
rule table; the first matching rule in a table wins and scanning of that
table stops. Dimensions are additive: a prompt can constrain several item
fields at once, but never the same field twice.

A prompt that matches no dimension falls back to a disjunctive
case-insensitive regex search over title, description, and category.

Translation never fails; unrecognized prompts simply produce the fallback
text search.
*/
package search
