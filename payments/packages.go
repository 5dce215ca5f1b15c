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

// Package is one purchasable currency bundle.
type Package struct {
	ID             string `json:"package_id"`
	Name           string `json:"name"`
	PriceCents     int64  `json:"price_cents"`
	CurrencyAmount int64  `json:"currency_amount"`
}

// CurrencyPackages is the purchasable catalog, ordered by price.
var CurrencyPackages = []Package{
	{ID: "package_1", Name: "Starter Pack", PriceCents: 1000, CurrencyAmount: 100},
	{ID: "package_2", Name: "Popular Pack", PriceCents: 2500, CurrencyAmount: 300},
	{ID: "package_3", Name: "Premium Pack", PriceCents: 5000, CurrencyAmount: 700},
	{ID: "package_4", Name: "Whale Pack", PriceCents: 10000, CurrencyAmount: 1500},
}

// PackageByID looks up one catalog entry.
func PackageByID(id string) (Package, bool) {
	for _, p := range CurrencyPackages {
		if p.ID == id {
			return p, true
		}
	}
	return Package{}, false
}
