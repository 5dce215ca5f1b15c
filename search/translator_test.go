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

package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestTranslate_TicketCostRange(t *testing.T) {
	tests := []struct {
		name   string
		prompt string
		want   bson.M
	}{
		{"under", "items under 100 tickets", bson.M{"$lt": 100}},
		{"below", "below 50 tickets please", bson.M{"$lt": 50}},
		{"less than", "less than 75 tickets", bson.M{"$lt": 75}},
		{"over", "over 200 tickets", bson.M{"$gt": 200}},
		{"above", "above 30 tickets", bson.M{"$gt": 30}},
		{"more than", "more than 10 tickets", bson.M{"$gt": 10}},
		{"between and", "between 50 and 200 tickets", bson.M{"$gte": 50, "$lte": 200}},
		{"from to", "from 20 to 80 tickets", bson.M{"$gte": 20, "$lte": 80}},
		{"dash range", "50-200 tickets", bson.M{"$gte": 50, "$lte": 200}},
		{"singular ticket", "under 1 ticket", bson.M{"$lt": 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filter := Translate(tt.prompt)
			assert.Equal(t, tt.want, filter["ticketCost"])
		})
	}
}

// A prompt matching the "under N" phrasing must produce exactly one
// ticket-cost constraint even when later rules would also match.
func TestTranslate_FirstCostRuleWins(t *testing.T) {
	filter := Translate("under 100 tickets but more than 10 tickets")
	assert.Equal(t, bson.M{"$lt": 100}, filter["ticketCost"])
}

func TestTranslate_Status(t *testing.T) {
	tests := []struct {
		prompt string
		want   string
	}{
		{"show me live auctions", "live"},
		{"active raffles only", "live"},
		{"ended auctions", "goal_met"},
		{"completed raffles", "goal_met"},
		{"auctions that goal met", "goal_met"},
		{"raffles not met", "not_met"},
		{"failed auctions", "not_met"},
	}

	for _, tt := range tests {
		t.Run(tt.prompt, func(t *testing.T) {
			filter := Translate(tt.prompt)
			assert.Equal(t, tt.want, filter["status"])
		})
	}
}

func TestTranslate_DimensionsAreAdditive(t *testing.T) {
	filter := Translate("live electronics auctions under 50 tickets")

	assert.Equal(t, bson.M{"$lt": 50}, filter["ticketCost"])
	assert.Equal(t, "live", filter["status"])
	assert.Equal(t, bson.M{
		"$in": bson.A{primitive.Regex{Pattern: "electronics", Options: "i"}},
	}, filter["category"])
	assert.NotContains(t, filter, "$or")
}

func TestTranslate_HighAIScore(t *testing.T) {
	filter := Translate("high ai score items")
	assert.Equal(t, bson.M{"$gte": 8}, filter["aiVerificationScore"])
}

func TestTranslate_AIScore(t *testing.T) {
	tests := []struct {
		prompt string
		want   bson.M
	}{
		{"ai score over 7", bson.M{"$gt": 7}},
		{"ai score above 9", bson.M{"$gt": 9}},
		{"ai score under 4", bson.M{"$lt": 4}},
		{"ai score below 6", bson.M{"$lt": 6}},
		{"low ai score listings", bson.M{"$lte": 5}},
	}

	for _, tt := range tests {
		t.Run(tt.prompt, func(t *testing.T) {
			filter := Translate(tt.prompt)
			assert.Equal(t, tt.want, filter["aiVerificationScore"])
		})
	}
}

func TestTranslate_Condition(t *testing.T) {
	filter := Translate("refurbished laptop")
	assert.Equal(t, bson.M{"$regex": "refurbished", "$options": "i"}, filter["condition"])
	assert.Equal(t, bson.M{
		"$in": bson.A{primitive.Regex{Pattern: "laptop", Options: "i"}},
	}, filter["category"])
}

func TestTranslate_Popularity(t *testing.T) {
	filter := Translate("popular items")
	assert.Equal(t, bson.M{"$gt": 10}, filter["ticketsSold"])

	filter = Translate("items with many participants")
	assert.Equal(t, bson.M{"$gt": 10}, filter["ticketsSold"])
}

// "new" + "auction" also triggers the condition keyword "new": the overlap
// is intentional and preserved from the production behavior.
func TestTranslate_NewAuctionOverlap(t *testing.T) {
	filter := Translate("new auction listings")

	assert.Equal(t, bson.M{"$lt": 5}, filter["ticketsSold"])
	assert.Equal(t, bson.M{"$regex": "new", "$options": "i"}, filter["condition"])
}

// "popular" takes precedence over the "new auction" heuristic; the two are
// mutually exclusive.
func TestTranslate_PopularityMutuallyExclusive(t *testing.T) {
	filter := Translate("popular new auction listings")
	assert.Equal(t, bson.M{"$gt": 10}, filter["ticketsSold"])
}

func TestTranslate_FallbackTextSearch(t *testing.T) {
	filter := Translate("vintage typewriter")

	require.Len(t, filter, 1)
	or, ok := filter["$or"].(bson.A)
	require.True(t, ok, "fallback should produce a $or disjunction")
	require.Len(t, or, 3)

	title := or[0].(bson.M)
	assert.Equal(t, bson.M{"$regex": "vintage|typewriter", "$options": "i"}, title["title"])
	desc := or[1].(bson.M)
	assert.Equal(t, bson.M{"$regex": "vintage|typewriter", "$options": "i"}, desc["description"])
	cat := or[2].(bson.M)
	assert.Equal(t, bson.M{
		"$in": bson.A{primitive.Regex{Pattern: "vintage|typewriter", Options: "i"}},
	}, cat["category"])
}

// The fallback never combines with recognized dimensions.
func TestTranslate_NoFallbackWhenDimensionMatched(t *testing.T) {
	filter := Translate("live vintage typewriter")
	assert.Equal(t, "live", filter["status"])
	assert.NotContains(t, filter, "$or")
}

func TestTranslate_EmptyPrompt(t *testing.T) {
	filter := Translate("")
	assert.Empty(t, filter)

	filter = Translate("   ")
	assert.Empty(t, filter)
}

func TestTranslatePrompt_Defaults(t *testing.T) {
	res := TranslatePrompt("live auctions", "", 0)
	assert.Equal(t, DefaultCollection, res.Collection)
	assert.Equal(t, int64(DefaultLimit), res.Limit)
	assert.Equal(t, "live auctions", res.Prompt)

	res = TranslatePrompt("live auctions", "archive", 10)
	assert.Equal(t, "archive", res.Collection)
	assert.Equal(t, int64(10), res.Limit)
}
