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

// Package store wraps the MongoDB document store that holds auction items,
// user accounts, and purchase transactions.
//
// All read paths return plain maps with BSON types converted to
// JSON-serializable Go values; in particular the store-assigned ObjectID is
// normalized to its hex string representation so results can cross the
// agent tool boundary unchanged.
package store
