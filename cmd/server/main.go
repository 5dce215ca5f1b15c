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

// Package main is the entry point for the WIWI backend service.
//
// The backend serves the auction platform's HTTP API:
// - Natural-language agent chat over the auction catalog
// - Product image analysis for listing verification
// - Ticket currency purchases via Stripe
// - Winner notification email
//
// Usage:
//
//	./server
//
// Environment Variables:
//
//	PORT - HTTP server port (default: 8080)
//	MONGODB_URI - MongoDB connection string
//	AWS_DEFAULT_REGION - region for Bedrock, S3 and Secrets Manager
//	STRIPE_SECRET_KEY - Stripe API key (enables payment endpoints)
//	JWT_SECRET - secret for account tokens (enables auth endpoints)
package main

import (
	"wiwi/backend/server"
)

func main() {
	server.Run()
}
