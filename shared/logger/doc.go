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
Package logger provides structured JSON logging for the WIWI backend.

# Overview

The logger outputs one JSON object per line to stdout, making logs easily
consumable by CloudWatch, ELK, or any other log aggregation system.

Each log entry includes:
  - Timestamp (RFC3339Nano format)
  - Log level (DEBUG, INFO, WARN, ERROR)
  - Component name (server, payments, assistant, etc.)
  - Container name (for correlating instances)
  - Request ID (for request correlation)
  - Custom fields

# Usage

Create a logger for your component:

	log := logger.New("server")

Log messages with request context:

	log.Info(requestID, "purchase completed", map[string]interface{}{
		"package_id": pkgID,
		"amount":     amount,
	})
*/
package logger
