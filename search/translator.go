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
	"regexp"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"wiwi/backend/store"
)

// Default bounds for translator-backed queries.
const (
	DefaultCollection = store.ItemsCollection
	DefaultLimit      = 50
)

// Result carries the produced filter together with the original inputs, for
// observability at the tool boundary.
type Result struct {
	Filter     bson.M
	Prompt     string
	Collection string
	Limit      int64
}

// costOp identifies the comparison a ticket-cost rule applies.
type costOp int

const (
	costLess costOp = iota
	costGreater
	costBetween
)

// costRule binds one ticket-cost phrasing to its comparison. Rules are
// evaluated in order; the first match wins.
type costRule struct {
	pattern *regexp.Regexp
	op      costOp
}

var ticketCostRules = []costRule{
	{regexp.MustCompile(`under (\d+)\s*tickets?`), costLess},
	{regexp.MustCompile(`below (\d+)\s*tickets?`), costLess},
	{regexp.MustCompile(`less than (\d+)\s*tickets?`), costLess},
	{regexp.MustCompile(`over (\d+)\s*tickets?`), costGreater},
	{regexp.MustCompile(`above (\d+)\s*tickets?`), costGreater},
	{regexp.MustCompile(`more than (\d+)\s*tickets?`), costGreater},
	{regexp.MustCompile(`between (\d+)\s*and (\d+)\s*tickets?`), costBetween},
	{regexp.MustCompile(`from (\d+)\s*to (\d+)\s*tickets?`), costBetween},
	{regexp.MustCompile(`(\d+)\s*-\s*(\d+)\s*tickets?`), costBetween},
}

// statusRule maps a status keyword to its canonical lifecycle value.
type statusRule struct {
	keyword string
	status  string
}

var statusRules = []statusRule{
	{"live", store.StatusLive},
	{"active", store.StatusLive},
	{"ended", store.StatusGoalMet},
	{"completed", store.StatusGoalMet},
	{"goal met", store.StatusGoalMet},
	{"not met", store.StatusNotMet},
	{"failed", store.StatusNotMet},
}

var categoryKeywords = []string{
	"electronics", "phone", "laptop", "tablet", "headphones", "camera",
	"watch", "shoes", "clothing", "accessories", "gaming", "books", "furniture",
}

var conditionKeywords = []string{
	"new", "used", "refurbished", "damaged", "excellent", "good", "fair", "mint",
}

// scoreRule binds one AI-score phrasing to the constraint it produces.
type scoreRule struct {
	pattern *regexp.Regexp
	apply   func(match []string) bson.M
}

var aiScoreRules = []scoreRule{
	{regexp.MustCompile(`ai score (?:over|above) (\d+)`), func(m []string) bson.M {
		n, _ := strconv.Atoi(m[1])
		return bson.M{"$gt": n}
	}},
	{regexp.MustCompile(`ai score (?:under|below) (\d+)`), func(m []string) bson.M {
		n, _ := strconv.Atoi(m[1])
		return bson.M{"$lt": n}
	}},
	{regexp.MustCompile(`high ai score`), func([]string) bson.M {
		return bson.M{"$gte": 8}
	}},
	{regexp.MustCompile(`low ai score`), func([]string) bson.M {
		return bson.M{"$lte": 5}
	}},
}

// Translate converts one free-text prompt into a MongoDB filter document.
// See the package documentation for the dimension semantics. The zero filter
// (no dimension matched, empty prompt) is an empty document.
func Translate(prompt string) bson.M {
	filter := bson.M{}
	lower := strings.ToLower(prompt)

	// Ticket-cost range
	for _, rule := range ticketCostRules {
		match := rule.pattern.FindStringSubmatch(lower)
		if match == nil {
			continue
		}
		switch rule.op {
		case costLess:
			n, _ := strconv.Atoi(match[1])
			filter["ticketCost"] = bson.M{"$lt": n}
		case costGreater:
			n, _ := strconv.Atoi(match[1])
			filter["ticketCost"] = bson.M{"$gt": n}
		case costBetween:
			lo, _ := strconv.Atoi(match[1])
			hi, _ := strconv.Atoi(match[2])
			filter["ticketCost"] = bson.M{"$gte": lo, "$lte": hi}
		}
		break
	}

	// Status
	for _, rule := range statusRules {
		if strings.Contains(lower, rule.keyword) {
			filter["status"] = rule.status
			break
		}
	}

	// Category
	for _, keyword := range categoryKeywords {
		if strings.Contains(lower, keyword) {
			filter["category"] = bson.M{
				"$in": bson.A{primitive.Regex{Pattern: keyword, Options: "i"}},
			}
			break
		}
	}

	// Condition
	for _, keyword := range conditionKeywords {
		if strings.Contains(lower, keyword) {
			filter["condition"] = bson.M{"$regex": keyword, "$options": "i"}
			break
		}
	}

	// AI verification score
	for _, rule := range aiScoreRules {
		if match := rule.pattern.FindStringSubmatch(lower); match != nil {
			filter["aiVerificationScore"] = rule.apply(match)
			break
		}
	}

	// Popularity heuristic. The bare word "new" deliberately overlaps with
	// the condition keyword above; both constraints can fire on prompts like
	// "new auction listings".
	if strings.Contains(lower, "popular") || strings.Contains(lower, "many participants") {
		filter["ticketsSold"] = bson.M{"$gt": 10}
	} else if strings.Contains(lower, "new") && strings.Contains(lower, "auction") {
		filter["ticketsSold"] = bson.M{"$lt": 5}
	}

	// Fallback: free-text search across title, description and category when
	// no dimension recognized anything.
	if len(filter) == 0 {
		terms := strings.Fields(prompt)
		if len(terms) > 0 {
			pattern := strings.Join(terms, "|")
			filter["$or"] = bson.A{
				bson.M{"title": bson.M{"$regex": pattern, "$options": "i"}},
				bson.M{"description": bson.M{"$regex": pattern, "$options": "i"}},
				bson.M{"category": bson.M{
					"$in": bson.A{primitive.Regex{Pattern: pattern, Options: "i"}},
				}},
			}
		}
	}

	return filter
}

// TranslatePrompt applies defaults and wraps Translate's output with the
// original inputs.
func TranslatePrompt(prompt, collection string, limit int64) Result {
	if collection == "" {
		collection = DefaultCollection
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	return Result{
		Filter:     Translate(prompt),
		Prompt:     prompt,
		Collection: collection,
		Limit:      limit,
	}
}
