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
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// User is a platform account as stored in the users collection.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email        string             `bson:"email" json:"email"`
	Username     string             `bson:"username" json:"username"`
	PasswordHash string             `bson:"passwordHash" json:"-"`
	CreatedAt    time.Time          `bson:"createdAt" json:"created_at"`
}

// ErrDuplicateUser is returned when signing up with an email that already
// has an account.
var ErrDuplicateUser = fmt.Errorf("user already exists")

// CreateUser inserts a new user account. Returns ErrDuplicateUser if the
// email is already registered.
func (s *Store) CreateUser(ctx context.Context, user *User) (string, error) {
	existing, err := s.FindOne(ctx, UsersCollection, bson.M{"email": user.Email})
	if err != nil {
		return "", err
	}
	if existing != nil {
		return "", ErrDuplicateUser
	}

	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	return s.InsertOne(ctx, UsersCollection, user)
}

// UserByEmail looks up an account by email. A missing account is reported as
// (nil, nil).
func (s *Store) UserByEmail(ctx context.Context, email string) (*User, error) {
	queryCtx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()

	var user User
	err := s.database.Collection(UsersCollection).FindOne(queryCtx, bson.M{"email": email}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}
