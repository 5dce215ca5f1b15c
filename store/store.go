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
	"fmt"
	"log"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	// DefaultTimeout is the default operation timeout
	DefaultTimeout = 30 * time.Second
	// DefaultConnectTimeout is the default connection timeout
	DefaultConnectTimeout = 10 * time.Second
	// DefaultMaxPoolSize is the default maximum connection pool size
	DefaultMaxPoolSize = 100
	// DefaultMinPoolSize is the default minimum connection pool size
	DefaultMinPoolSize = 10
)

// Collection names used by the platform.
const (
	ItemsCollection = "items"
	UsersCollection = "users"
)

// Config holds MongoDB connection settings.
type Config struct {
	URI            string
	Database       string
	AppName        string
	ConnectTimeout time.Duration
	MaxPoolSize    uint64
	MinPoolSize    uint64
}

// Store is a handle on the platform's MongoDB database. It is safe for
// concurrent use; the underlying driver pools connections.
type Store struct {
	client   *mongo.Client
	database *mongo.Database
	dbName   string
	logger   *log.Logger
}

// Connect establishes a pooled connection to MongoDB and verifies it with a
// ping before returning.
func Connect(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("mongodb URI is required")
	}
	if cfg.Database == "" {
		return nil, fmt.Errorf("mongodb database name is required")
	}

	connectTimeout := cfg.ConnectTimeout
	if connectTimeout == 0 {
		connectTimeout = DefaultConnectTimeout
	}
	maxPool := cfg.MaxPoolSize
	if maxPool == 0 {
		maxPool = DefaultMaxPoolSize
	}
	minPool := cfg.MinPoolSize
	if minPool == 0 {
		minPool = DefaultMinPoolSize
	}
	appName := cfg.AppName
	if appName == "" {
		appName = "WIWI-Backend"
	}

	clientOpts := options.Client().
		ApplyURI(cfg.URI).
		SetMaxPoolSize(maxPool).
		SetMinPoolSize(minPool).
		SetConnectTimeout(connectTimeout).
		SetAppName(appName).
		SetRetryWrites(true).
		SetRetryReads(true)

	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	defer pingCancel()

	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	s := &Store{
		client:   client,
		database: client.Database(cfg.Database),
		dbName:   cfg.Database,
		logger:   log.New(os.Stdout, "[STORE] ", log.LstdFlags),
	}

	s.logger.Printf("Connected to MongoDB (database=%s, max_pool=%d)", cfg.Database, maxPool)
	return s, nil
}

// Close disconnects the underlying client.
func (s *Store) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	disconnectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := s.client.Disconnect(disconnectCtx); err != nil {
		return fmt.Errorf("failed to disconnect from MongoDB: %w", err)
	}
	s.logger.Printf("Disconnected from MongoDB (database=%s)", s.dbName)
	return nil
}

// Ping verifies the connection is still healthy.
func (s *Store) Ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.client.Ping(pingCtx, readpref.Primary())
}

// Database returns the database name the store is bound to.
func (s *Store) Database() string {
	return s.dbName
}

// Collection returns a raw handle on a named collection.
func (s *Store) Collection(name string) *mongo.Collection {
	return s.database.Collection(name)
}

// Find runs a bounded find against the named collection and returns the
// decoded documents with BSON types normalized.
func (s *Store) Find(ctx context.Context, collection string, filter bson.M, limit int64) ([]map[string]interface{}, error) {
	queryCtx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()

	opts := options.Find()
	if limit > 0 {
		opts.SetLimit(limit)
	}

	cursor, err := s.database.Collection(collection).Find(queryCtx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer func() { _ = cursor.Close(queryCtx) }()

	return decodeCursor(queryCtx, cursor)
}

// FindOne runs a findOne against the named collection. A missing document is
// reported as (nil, nil) so callers can distinguish "not found" from store
// failures.
func (s *Store) FindOne(ctx context.Context, collection string, filter bson.M) (map[string]interface{}, error) {
	queryCtx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()

	var doc bson.M
	err := s.database.Collection(collection).FindOne(queryCtx, filter).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return bsonToMap(doc), nil
}

// InsertOne inserts a document into the named collection and returns the
// hex representation of the assigned id.
func (s *Store) InsertOne(ctx context.Context, collection string, doc interface{}) (string, error) {
	execCtx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()

	result, err := s.database.Collection(collection).InsertOne(execCtx, doc)
	if err != nil {
		return "", err
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		return oid.Hex(), nil
	}
	return fmt.Sprintf("%v", result.InsertedID), nil
}

// IDFilter builds an _id filter from the hex id InsertOne returns.
func IDFilter(id string) (bson.M, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid document id %q: %w", id, err)
	}
	return bson.M{"_id": oid}, nil
}

// DeleteOne removes a single document matching the filter.
func (s *Store) DeleteOne(ctx context.Context, collection string, filter bson.M) (int64, error) {
	execCtx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()

	result, err := s.database.Collection(collection).DeleteOne(execCtx, filter)
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}

// Stats reports per-collection document counts, plus the field layout of a
// sample item document when the items collection is non-empty.
func (s *Store) Stats(ctx context.Context) (map[string]interface{}, error) {
	queryCtx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()

	names, err := s.database.ListCollectionNames(queryCtx, bson.M{})
	if err != nil {
		return nil, err
	}

	stats := make(map[string]interface{}, len(names))
	for _, name := range names {
		coll := s.database.Collection(name)
		count, err := coll.CountDocuments(queryCtx, bson.M{})
		if err != nil {
			return nil, err
		}
		entry := map[string]interface{}{
			"document_count": count,
		}
		if name == ItemsCollection && count > 0 {
			var sample bson.M
			if err := coll.FindOne(queryCtx, bson.M{}).Decode(&sample); err == nil {
				fields := make([]string, 0, len(sample))
				for k := range sample {
					fields = append(fields, k)
				}
				entry["sample_fields"] = fields
			}
		}
		stats[name] = entry
	}
	return stats, nil
}

// decodeCursor decodes all documents from a cursor
func decodeCursor(ctx context.Context, cursor *mongo.Cursor) ([]map[string]interface{}, error) {
	var results []map[string]interface{}

	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		results = append(results, bsonToMap(doc))
	}

	if err := cursor.Err(); err != nil {
		return nil, err
	}

	return results, nil
}

// bsonToMap converts a BSON document to a Go map with proper type handling
func bsonToMap(doc bson.M) map[string]interface{} {
	result := make(map[string]interface{}, len(doc))
	for k, v := range doc {
		result[k] = convertFromBSON(v)
	}
	return result
}

// convertFromBSON converts BSON types to JSON-serializable Go types. In
// particular ObjectIDs become hex strings, which keeps tool results portable.
func convertFromBSON(v interface{}) interface{} {
	switch val := v.(type) {
	case primitive.ObjectID:
		return val.Hex()
	case primitive.DateTime:
		return val.Time()
	case primitive.Binary:
		return val.Data
	case bson.M:
		return bsonToMap(val)
	case bson.A:
		result := make([]interface{}, len(val))
		for i, item := range val {
			result[i] = convertFromBSON(item)
		}
		return result
	case primitive.D:
		result := make(map[string]interface{}, len(val))
		for _, elem := range val {
			result[elem.Key] = convertFromBSON(elem.Value)
		}
		return result
	default:
		return val
	}
}
