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

package payments

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"wiwi/backend/shared/logger"
)

// Sentinel errors surfaced to the HTTP layer. The transport maps them to
// status codes.
var (
	ErrCustomerNotFound  = errors.New("customer not found")
	ErrUnknownPackage    = errors.New("invalid package ID")
	ErrNoPaymentMethod   = errors.New("no payment method attached")
	ErrCardDeclined      = errors.New("card was declined")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidMethod     = errors.New("invalid payment method")
	ErrPaymentFailed     = errors.New("payment failed")
)

// testTokenPrefix marks Stripe test payment method tokens, which are usable
// in PaymentIntents without an attach call.
const testTokenPrefix = "pm_card_"

// Customer is one in-memory customer record.
type Customer struct {
	UserID               string    `json:"user_id"`
	StripeCustomerID     string    `json:"stripe_customer_id"`
	Email                string    `json:"email"`
	Name                 string    `json:"name"`
	CurrencyBalance      int64     `json:"currency_balance"`
	DefaultPaymentMethod string    `json:"default_payment_method,omitempty"`
	CreatedAt            time.Time `json:"created_at"`
}

// Transaction is one completed currency purchase.
type Transaction struct {
	TransactionID     string    `json:"transaction_id"`
	UserID            string    `json:"user_id"`
	AmountPaid        int64     `json:"amount_paid"`
	CurrencyPurchased int64     `json:"currency_purchased"`
	PackageName       string    `json:"package_name"`
	Timestamp         time.Time `json:"timestamp"`
	StripePaymentID   string    `json:"stripe_payment_id"`
	Status            string    `json:"status"`
}

// PurchaseResult summarizes a successful purchase.
type PurchaseResult struct {
	TransactionID     string `json:"transaction_id"`
	CurrencyPurchased int64  `json:"currency_purchased"`
	NewBalance        int64  `json:"new_balance"`
}

// Service owns the customer records and the purchase ledger.
type Service struct {
	processor Processor
	log       *logger.Logger

	mu           sync.Mutex
	customers    map[string]*Customer
	transactions map[string]Transaction
}

// NewService creates a Service backed by the given processor.
func NewService(processor Processor) *Service {
	return &Service{
		processor:    processor,
		log:          logger.New("payments"),
		customers:    make(map[string]*Customer),
		transactions: make(map[string]Transaction),
	}
}

// CreateCustomer registers a Stripe customer and a local record with a zero
// currency balance. The returned user ID keys all other operations.
func (s *Service) CreateCustomer(email, name string) (*Customer, error) {
	stripeID, err := s.processor.CreateCustomer(email, name)
	if err != nil {
		return nil, err
	}

	cust := &Customer{
		UserID:           uuid.New().String(),
		StripeCustomerID: stripeID,
		Email:            email,
		Name:             name,
		CreatedAt:        time.Now().UTC(),
	}

	s.mu.Lock()
	s.customers[cust.UserID] = cust
	s.mu.Unlock()

	s.log.Info("", "customer created", map[string]interface{}{
		"user_id":            cust.UserID,
		"stripe_customer_id": stripeID,
	})

	out := *cust
	return &out, nil
}

// AttachPaymentMethod records a payment method as the customer's default.
// Test tokens (pm_card_*) are stored without calling Stripe.
func (s *Service) AttachPaymentMethod(userID, paymentMethodID string) error {
	s.mu.Lock()
	cust, ok := s.customers[userID]
	if !ok {
		s.mu.Unlock()
		return ErrCustomerNotFound
	}
	stripeID := cust.StripeCustomerID
	s.mu.Unlock()

	if !strings.HasPrefix(paymentMethodID, testTokenPrefix) {
		if err := s.processor.AttachPaymentMethod(paymentMethodID, stripeID); err != nil {
			return classifyStripeError(err)
		}
	}

	s.mu.Lock()
	cust.DefaultPaymentMethod = paymentMethodID
	s.mu.Unlock()
	return nil
}

// PurchaseCurrency charges the customer's default payment method for the
// given package and credits the currency balance on success. The balance is
// only mutated after the processor reports a succeeded intent.
func (s *Service) PurchaseCurrency(userID, packageID string) (*PurchaseResult, error) {
	pkg, ok := PackageByID(packageID)
	if !ok {
		return nil, ErrUnknownPackage
	}

	s.mu.Lock()
	cust, exists := s.customers[userID]
	if !exists {
		s.mu.Unlock()
		return nil, ErrCustomerNotFound
	}
	paymentMethod := cust.DefaultPaymentMethod
	stripeID := cust.StripeCustomerID
	s.mu.Unlock()

	if paymentMethod == "" {
		return nil, ErrNoPaymentMethod
	}

	intent, err := s.processor.ConfirmPayment(IntentParams{
		AmountCents:    pkg.PriceCents,
		StripeCustomer: stripeID,
		PaymentMethod:  paymentMethod,
		UserID:         userID,
		PackageID:      packageID,
		CurrencyAmount: pkg.CurrencyAmount,
	})
	if err != nil {
		return nil, classifyStripeError(err)
	}
	if intent.Status != "succeeded" {
		return nil, fmt.Errorf("%w: %s", ErrPaymentFailed, intent.Status)
	}

	tx := Transaction{
		TransactionID:     uuid.New().String(),
		UserID:            userID,
		AmountPaid:        pkg.PriceCents,
		CurrencyPurchased: pkg.CurrencyAmount,
		PackageName:       pkg.Name,
		Timestamp:         time.Now().UTC(),
		StripePaymentID:   intent.ID,
		Status:            "completed",
	}

	s.mu.Lock()
	cust.CurrencyBalance += pkg.CurrencyAmount
	s.transactions[tx.TransactionID] = tx
	balance := cust.CurrencyBalance
	s.mu.Unlock()

	s.log.Info("", "currency purchase completed", map[string]interface{}{
		"user_id":        userID,
		"package_id":     packageID,
		"transaction_id": tx.TransactionID,
		"new_balance":    balance,
	})

	return &PurchaseResult{
		TransactionID:     tx.TransactionID,
		CurrencyPurchased: pkg.CurrencyAmount,
		NewBalance:        balance,
	}, nil
}

// Customer returns a copy of the customer record.
func (s *Service) Customer(userID string) (*Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cust, ok := s.customers[userID]
	if !ok {
		return nil, ErrCustomerNotFound
	}
	out := *cust
	return &out, nil
}

// Transactions returns the customer's purchases, newest first.
func (s *Service) Transactions(userID string) ([]Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.customers[userID]; !ok {
		return nil, ErrCustomerNotFound
	}

	var txs []Transaction
	for _, tx := range s.transactions {
		if tx.UserID == userID {
			txs = append(txs, tx)
		}
	}
	sort.Slice(txs, func(i, j int) bool {
		return txs[i].Timestamp.After(txs[j].Timestamp)
	})
	return txs, nil
}

// classifyStripeError maps Stripe failure modes onto sentinel errors by
// decline code keywords.
func classifyStripeError(err error) error {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "card_declined"):
		return ErrCardDeclined
	case strings.Contains(msg, "insufficient_funds"):
		return ErrInsufficientFunds
	case strings.Contains(msg, "invalid_payment_method"):
		return ErrInvalidMethod
	default:
		return err
	}
}
