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
	"fmt"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/customer"
	"github.com/stripe/stripe-go/v79/paymentintent"
	"github.com/stripe/stripe-go/v79/paymentmethod"
)

// IntentParams carries everything needed to create and confirm one
// PaymentIntent.
type IntentParams struct {
	AmountCents    int64
	StripeCustomer string
	PaymentMethod  string
	UserID         string
	PackageID      string
	CurrencyAmount int64
}

// IntentResult is the processor's view of a confirmed PaymentIntent.
type IntentResult struct {
	ID     string
	Status string
}

// Processor is the Stripe surface the service depends on. Tests substitute
// a fake so no network traffic happens.
type Processor interface {
	CreateCustomer(email, name string) (string, error)
	AttachPaymentMethod(paymentMethodID, stripeCustomerID string) error
	ConfirmPayment(params IntentParams) (*IntentResult, error)
}

// StripeProcessor talks to the real Stripe API.
type StripeProcessor struct{}

// NewStripeProcessor sets the global Stripe API key and returns a processor.
func NewStripeProcessor(secretKey string) *StripeProcessor {
	stripe.Key = secretKey
	return &StripeProcessor{}
}

func (p *StripeProcessor) CreateCustomer(email, name string) (string, error) {
	cust, err := customer.New(&stripe.CustomerParams{
		Email:       stripe.String(email),
		Name:        stripe.String(name),
		Description: stripe.String("Customer for currency purchases"),
	})
	if err != nil {
		return "", fmt.Errorf("stripe customer create failed: %w", err)
	}
	return cust.ID, nil
}

// AttachPaymentMethod attaches a real payment method and sets it as the
// customer's invoice default. Test tokens never reach this path.
func (p *StripeProcessor) AttachPaymentMethod(paymentMethodID, stripeCustomerID string) error {
	if _, err := paymentmethod.Attach(paymentMethodID, &stripe.PaymentMethodAttachParams{
		Customer: stripe.String(stripeCustomerID),
	}); err != nil {
		return fmt.Errorf("stripe attach failed: %w", err)
	}

	if _, err := customer.Update(stripeCustomerID, &stripe.CustomerParams{
		InvoiceSettings: &stripe.CustomerInvoiceSettingsParams{
			DefaultPaymentMethod: stripe.String(paymentMethodID),
		},
	}); err != nil {
		return fmt.Errorf("stripe set default payment method failed: %w", err)
	}
	return nil
}

// ConfirmPayment creates a PaymentIntent and confirms it in one call.
// Redirect-based payment methods are disabled since there is no return URL.
func (p *StripeProcessor) ConfirmPayment(params IntentParams) (*IntentResult, error) {
	intentParams := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(params.AmountCents),
		Currency:      stripe.String(string(stripe.CurrencyUSD)),
		Customer:      stripe.String(params.StripeCustomer),
		PaymentMethod: stripe.String(params.PaymentMethod),
		Confirm:       stripe.Bool(true),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled:        stripe.Bool(true),
			AllowRedirects: stripe.String("never"),
		},
	}
	intentParams.AddMetadata("user_id", params.UserID)
	intentParams.AddMetadata("package_id", params.PackageID)
	intentParams.AddMetadata("currency_amount", fmt.Sprintf("%d", params.CurrencyAmount))

	intent, err := paymentintent.New(intentParams)
	if err != nil {
		return nil, err
	}
	return &IntentResult{ID: intent.ID, Status: string(intent.Status)}, nil
}
