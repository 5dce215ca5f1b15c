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
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"

	"wiwi/backend/store"
)

// testCollection backs the Mongo smoke test endpoint.
const testCollection = "test_collection"

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":        "WIWI backend with MongoDB",
		"mongodb_status": s.mongoStatus,
		"status":         "running",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"mongodb": s.mongoStatus,
		"message": "All systems operational",
	})
}

// handleMongoTest runs an insert/find/delete round trip against a scratch
// collection so operators can verify the database end to end.
func (s *Server) handleMongoTest(w http.ResponseWriter, r *http.Request) {
	if s.deps.Store == nil {
		s.writeError(w, http.StatusServiceUnavailable, "store not configured")
		return
	}
	ctx := r.Context()

	id, err := s.deps.Store.InsertOne(ctx, testCollection, bson.M{
		"test":      "MongoDB connection working",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		s.mongoTestError(w, err)
		return
	}

	filter, err := store.IDFilter(id)
	if err != nil {
		s.mongoTestError(w, err)
		return
	}
	doc, err := s.deps.Store.FindOne(ctx, testCollection, filter)
	if err != nil {
		s.mongoTestError(w, err)
		return
	}
	if _, err := s.deps.Store.DeleteOne(ctx, testCollection, filter); err != nil {
		s.mongoTestError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":        "success",
		"message":       "MongoDB operations working correctly",
		"test_document": doc,
	})
}

func (s *Server) mongoTestError(w http.ResponseWriter, err error) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "error",
		"message": "MongoDB operations failed: " + err.Error(),
	})
}

func (s *Server) handleGetItem(w http.ResponseWriter, r *http.Request) {
	if s.deps.Store == nil {
		s.writeError(w, http.StatusServiceUnavailable, "store not configured")
		return
	}
	itemID := mux.Vars(r)["item_id"]

	item, err := s.deps.Store.ItemByID(r.Context(), itemID, store.ItemsCollection)
	if err != nil {
		s.log.Error("", "item lookup failed", map[string]interface{}{
			"item_id": itemID,
			"error":   err.Error(),
		})
		s.writeError(w, http.StatusInternalServerError, "item lookup failed")
		return
	}
	if item == nil {
		s.writeError(w, http.StatusNotFound, "item not found")
		return
	}
	s.writeJSON(w, http.StatusOK, item)
}
