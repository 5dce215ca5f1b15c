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
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"wiwi/backend/payments"
)

type createCustomerRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

func (s *Server) handleCreateCustomer(w http.ResponseWriter, r *http.Request) {
	if s.deps.Payments == nil {
		s.writeError(w, http.StatusServiceUnavailable, "payments not configured")
		return
	}

	var req createCustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" || req.Name == "" {
		s.writeError(w, http.StatusBadRequest, "email and name are required")
		return
	}

	customer, err := s.deps.Payments.CreateCustomer(req.Email, req.Name)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "Stripe error: "+err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":             "success",
		"user_id":            customer.UserID,
		"stripe_customer_id": customer.StripeCustomerID,
		"message":            "Customer created successfully",
	})
}

// paymentUserID resolves the acting user for a payment endpoint. A bearer
// token, when presented, overrides the caller-supplied identifier; requests
// without a token fall back to it. A malformed or expired token is an error
// rather than a silent fallback.
func (s *Server) paymentUserID(r *http.Request, fallback string) (string, error) {
	if s.deps.Auth == nil || r.Header.Get("Authorization") == "" {
		return fallback, nil
	}
	claims, err := s.deps.Auth.ValidateRequest(r)
	if err != nil {
		return "", err
	}
	if id, ok := claims["user_id"].(string); ok && id != "" {
		return id, nil
	}
	return fallback, nil
}

type attachPaymentMethodRequest struct {
	UserID          string `json:"user_id"`
	PaymentMethodID string `json:"payment_method_id"`
}

func (s *Server) handleAttachPaymentMethod(w http.ResponseWriter, r *http.Request) {
	if s.deps.Payments == nil {
		s.writeError(w, http.StatusServiceUnavailable, "payments not configured")
		return
	}

	var req attachPaymentMethodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	userID, err := s.paymentUserID(r, req.UserID)
	if err != nil {
		s.writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	if userID == "" || req.PaymentMethodID == "" {
		s.writeError(w, http.StatusBadRequest, "user_id and payment_method_id are required")
		return
	}

	if err := s.deps.Payments.AttachPaymentMethod(userID, req.PaymentMethodID); err != nil {
		s.writePaymentError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":            "success",
		"message":           "Payment method attached and set as default",
		"payment_method_id": req.PaymentMethodID,
	})
}

type purchaseCurrencyRequest struct {
	UserID    string `json:"user_id"`
	PackageID string `json:"package_id"`
}

func (s *Server) handlePurchaseCurrency(w http.ResponseWriter, r *http.Request) {
	if s.deps.Payments == nil {
		s.writeError(w, http.StatusServiceUnavailable, "payments not configured")
		return
	}

	var req purchaseCurrencyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	userID, err := s.paymentUserID(r, req.UserID)
	if err != nil {
		s.writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	if userID == "" || req.PackageID == "" {
		s.writeError(w, http.StatusBadRequest, "user_id and package_id are required")
		return
	}

	result, err := s.deps.Payments.PurchaseCurrency(userID, req.PackageID)
	if err != nil {
		s.writePaymentError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":             "success",
		"transaction_id":     result.TransactionID,
		"currency_purchased": result.CurrencyPurchased,
		"new_balance":        result.NewBalance,
		"message":            "Currency purchase successful",
	})
}

func (s *Server) handleGetCustomer(w http.ResponseWriter, r *http.Request) {
	if s.deps.Payments == nil {
		s.writeError(w, http.StatusServiceUnavailable, "payments not configured")
		return
	}

	userID, err := s.paymentUserID(r, mux.Vars(r)["user_id"])
	if err != nil {
		s.writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	customer, err := s.deps.Payments.Customer(userID)
	if err != nil {
		s.writePaymentError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, customer)
}

func (s *Server) handleGetPackages(w http.ResponseWriter, r *http.Request) {
	catalog := make([]map[string]interface{}, 0, len(payments.CurrencyPackages))
	for _, pkg := range payments.CurrencyPackages {
		catalog = append(catalog, map[string]interface{}{
			"package_id":      pkg.ID,
			"name":            pkg.Name,
			"price_cents":     pkg.PriceCents,
			"price_dollars":   float64(pkg.PriceCents) / 100,
			"currency_amount": pkg.CurrencyAmount,
		})
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"packages": catalog})
}

func (s *Server) handleGetTransactions(w http.ResponseWriter, r *http.Request) {
	if s.deps.Payments == nil {
		s.writeError(w, http.StatusServiceUnavailable, "payments not configured")
		return
	}

	userID, err := s.paymentUserID(r, mux.Vars(r)["user_id"])
	if err != nil {
		s.writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	transactions, err := s.deps.Payments.Transactions(userID)
	if err != nil {
		s.writePaymentError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"user_id":      userID,
		"transactions": transactions,
	})
}

// writePaymentError maps the payment sentinels onto status codes: unknown
// identifiers are 404, business-rule violations are 400, everything else is
// a 500.
func (s *Server) writePaymentError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, payments.ErrCustomerNotFound):
		s.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, payments.ErrUnknownPackage),
		errors.Is(err, payments.ErrNoPaymentMethod),
		errors.Is(err, payments.ErrCardDeclined),
		errors.Is(err, payments.ErrInsufficientFunds),
		errors.Is(err, payments.ErrInvalidMethod),
		errors.Is(err, payments.ErrPaymentFailed):
		s.writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.writeError(w, http.StatusInternalServerError, "Unexpected error: "+err.Error())
	}
}
