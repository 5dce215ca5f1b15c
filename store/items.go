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

package store

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Auction item lifecycle states. Transitions are owned by the raffle status
// job, not by this package.
const (
	StatusLive    = "live"
	StatusGoalMet = "goal_met"
	StatusNotMet  = "not_met"
)

// Item is an auction listing as stored in the items collection.
type Item struct {
	ID                  primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title               string             `bson:"title" json:"title"`
	Description         string             `bson:"description" json:"description"`
	Category            []string           `bson:"category" json:"category"`
	Condition           string             `bson:"condition" json:"condition"`
	TicketCost          int                `bson:"ticketCost" json:"ticketCost"`
	TicketsSold         int                `bson:"ticketsSold" json:"ticketsSold"`
	Status              string             `bson:"status" json:"status"`
	AIVerificationScore float64            `bson:"aiVerificationScore" json:"aiVerificationScore"`
	Images              []string           `bson:"images,omitempty" json:"images,omitempty"`
}

// ItemByID looks up one item, trying the store-assigned ObjectID first and
// falling back to a plain string id field for seeded documents.
func (s *Store) ItemByID(ctx context.Context, itemID, collection string) (map[string]interface{}, error) {
	if collection == "" {
		collection = ItemsCollection
	}

	if oid, err := primitive.ObjectIDFromHex(itemID); err == nil {
		item, err := s.FindOne(ctx, collection, bson.M{"_id": oid})
		if err != nil {
			return nil, err
		}
		if item != nil {
			return item, nil
		}
	}
	return s.FindOne(ctx, collection, bson.M{"id": itemID})
}

// ItemsByCategory returns items whose category tags match the given word,
// case-insensitively.
func (s *Store) ItemsByCategory(ctx context.Context, category string, limit int64) ([]map[string]interface{}, error) {
	filter := bson.M{
		"category": bson.M{"$in": bson.A{primitive.Regex{Pattern: category, Options: "i"}}},
	}
	return s.Find(ctx, ItemsCollection, filter, limit)
}

// LiveAuctions returns currently live auction items.
func (s *Store) LiveAuctions(ctx context.Context, limit int64) ([]map[string]interface{}, error) {
	return s.Find(ctx, ItemsCollection, bson.M{"status": StatusLive}, limit)
}

// ItemsByTicketCost returns items whose per-ticket cost falls inside the
// inclusive range [minTickets, maxTickets].
func (s *Store) ItemsByTicketCost(ctx context.Context, minTickets, maxTickets int, limit int64) ([]map[string]interface{}, error) {
	filter := bson.M{
		"ticketCost": bson.M{"$gte": minTickets, "$lte": maxTickets},
	}
	return s.Find(ctx, ItemsCollection, filter, limit)
}

// HighScoreItems returns items at or above the given AI verification score.
func (s *Store) HighScoreItems(ctx context.Context, minScore float64, limit int64) ([]map[string]interface{}, error) {
	filter := bson.M{
		"aiVerificationScore": bson.M{"$gte": minScore},
	}
	return s.Find(ctx, ItemsCollection, filter, limit)
}
