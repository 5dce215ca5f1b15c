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

// Package storage uploads listing images to Amazon S3.
//
// Objects are written under uploads/ with a UUID prefix so concurrent
// uploads of equally named files never collide. The bucket policy handles
// public read access; no per-object ACLs are set. Returned URLs use the
// virtual-hosted style (https://bucket.s3.region.amazonaws.com/key).
package storage
