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

package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.mongodb.org/mongo-driver/bson"

	"wiwi/backend/notify"
	"wiwi/backend/payments"
	"wiwi/backend/shared/logger"
	"wiwi/backend/store"
)

// Agent is the conversational auction agent surface the handlers need.
// Satisfied by *assistant.Assistant.
type Agent interface {
	Chat(ctx context.Context, prompt string) (string, error)
	AnalyzeImages(ctx context.Context, urls, filenames []string, description string, together bool) (string, error)
}

// Uploader stores an uploaded image and returns its public URL. Satisfied by
// *storage.Uploader.
type Uploader interface {
	Upload(ctx context.Context, body io.Reader, filename, contentType string) (string, error)
}

// Mailer sends winner notification email. Satisfied by *notify.Mailer.
type Mailer interface {
	SendWinnerEmail(ctx context.Context, notice notify.WinnerNotice) error
	SendRaffleWinnerEmail(ctx context.Context, notice notify.RaffleWinnerNotice) error
}

// Store is the Mongo surface the handlers need. Satisfied by *store.Store.
type Store interface {
	ItemByID(ctx context.Context, itemID, collection string) (map[string]interface{}, error)
	InsertOne(ctx context.Context, collection string, doc interface{}) (string, error)
	FindOne(ctx context.Context, collection string, filter bson.M) (map[string]interface{}, error)
	DeleteOne(ctx context.Context, collection string, filter bson.M) (int64, error)
	CreateUser(ctx context.Context, user *store.User) (string, error)
	UserByEmail(ctx context.Context, email string) (*store.User, error)
}

// Deps carries everything a Server serves requests with. Any nil dependency
// disables its endpoints with a 503 rather than a panic.
type Deps struct {
	Agent       Agent
	Store       Store
	Payments    *payments.Service
	Uploader    Uploader
	Mailer      Mailer
	Auth        *Authenticator
	RateLimiter *RateLimiter
}

// Server holds the handler dependencies and builds the router.
type Server struct {
	deps Deps
	log  *logger.Logger

	// mongoStatus is captured once at startup, mirroring the banner the
	// frontend polls. "Connected" or "Failed".
	mongoStatus string
}

// New creates a Server. mongoStatus reports the result of the startup ping.
func New(deps Deps, mongoStatus string) *Server {
	return &Server{
		deps:        deps,
		log:         logger.New("server"),
		mongoStatus: mongoStatus,
	}
}

// Router builds the full route table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.metricsMiddleware)

	r.HandleFunc("/", s.handleRoot).Methods("GET")
	r.HandleFunc("/health", s.handleHealth).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")
	r.HandleFunc("/mongodb/test", s.handleMongoTest).Methods("GET")
	r.HandleFunc("/items/{item_id}", s.handleGetItem).Methods("GET")

	agentRoutes := r.PathPrefix("/agent").Subrouter()
	if s.deps.RateLimiter != nil {
		agentRoutes.Use(s.deps.RateLimiter.Middleware)
	}
	agentRoutes.HandleFunc("/chats", s.handleAgentChat).Methods("POST")
	agentRoutes.HandleFunc("/analyze_images", s.handleAnalyzeImages).Methods("POST")

	r.HandleFunc("/send-winner-email", s.handleSendWinnerEmail).Methods("POST")
	r.HandleFunc("/send-raffle-winner-email", s.handleSendRaffleWinnerEmail).Methods("POST")

	r.HandleFunc("/stripe/create-customer", s.handleCreateCustomer).Methods("POST")
	r.HandleFunc("/stripe/attach-payment-method", s.handleAttachPaymentMethod).Methods("POST")
	r.HandleFunc("/stripe/purchase-currency", s.handlePurchaseCurrency).Methods("POST")
	r.HandleFunc("/stripe/customer/{user_id}", s.handleGetCustomer).Methods("GET")
	r.HandleFunc("/stripe/packages", s.handleGetPackages).Methods("GET")
	r.HandleFunc("/stripe/transactions/{user_id}", s.handleGetTransactions).Methods("GET")

	if s.deps.Auth != nil {
		r.HandleFunc("/auth/signup", s.deps.Auth.HandleSignup).Methods("POST")
		r.HandleFunc("/auth/login", s.deps.Auth.HandleLogin).Methods("POST")
		r.HandleFunc("/auth/me", s.deps.Auth.HandleMe).Methods("GET")
	}

	return r
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Error("", "failed to encode response", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]interface{}{"error": message})
}
