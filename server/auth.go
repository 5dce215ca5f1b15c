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
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"wiwi/backend/shared/logger"
	"wiwi/backend/store"
)

const minPasswordLength = 8

// Authenticator issues and validates the JWTs that identify platform
// accounts. Tokens are HS256-signed with the configured secret.
type Authenticator struct {
	store    Store
	secret   []byte
	tokenTTL time.Duration
	log      *logger.Logger

	// now is swapped in tests to pin token expiry.
	now func() time.Time
}

// NewAuthenticator creates an Authenticator. An empty secret is rejected so
// a misconfigured deployment cannot silently issue forgeable tokens.
func NewAuthenticator(st Store, secret string, tokenTTL time.Duration) (*Authenticator, error) {
	if secret == "" {
		return nil, fmt.Errorf("JWT secret is required")
	}
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &Authenticator{
		store:    st,
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
		log:      logger.New("auth"),
		now:      time.Now,
	}, nil
}

type signupRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleSignup creates an account and returns a fresh token.
func (a *Authenticator) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAuthError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" || req.Username == "" {
		writeAuthError(w, http.StatusBadRequest, "email and username are required")
		return
	}
	if len(req.Password) < minPasswordLength {
		writeAuthError(w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeAuthError(w, http.StatusInternalServerError, "failed to hash password")
		return
	}

	user := &store.User{
		Email:        strings.ToLower(req.Email),
		Username:     req.Username,
		PasswordHash: string(hash),
	}
	userID, err := a.store.CreateUser(r.Context(), user)
	if err != nil {
		if errors.Is(err, store.ErrDuplicateUser) {
			writeAuthError(w, http.StatusConflict, "an account with this email already exists")
			return
		}
		a.log.Error("", "signup failed", map[string]interface{}{"error": err.Error()})
		writeAuthError(w, http.StatusInternalServerError, "signup failed")
		return
	}

	token, expiresAt, err := a.issueToken(userID, user.Email, user.Username)
	if err != nil {
		writeAuthError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}

	a.log.Info("", "account created", map[string]interface{}{"user_id": userID})
	writeAuthJSON(w, http.StatusCreated, map[string]interface{}{
		"user_id":    userID,
		"email":      user.Email,
		"username":   user.Username,
		"token":      token,
		"expires_at": expiresAt.Format(time.RFC3339),
	})
}

// HandleLogin verifies credentials and returns a fresh token.
func (a *Authenticator) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAuthError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeAuthError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	user, err := a.store.UserByEmail(r.Context(), strings.ToLower(req.Email))
	if err != nil {
		a.log.Error("", "login lookup failed", map[string]interface{}{"error": err.Error()})
		writeAuthError(w, http.StatusInternalServerError, "login failed")
		return
	}
	// Same response for unknown email and wrong password.
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		writeAuthError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	token, expiresAt, err := a.issueToken(user.ID.Hex(), user.Email, user.Username)
	if err != nil {
		writeAuthError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}

	writeAuthJSON(w, http.StatusOK, map[string]interface{}{
		"user_id":    user.ID.Hex(),
		"email":      user.Email,
		"username":   user.Username,
		"token":      token,
		"expires_at": expiresAt.Format(time.RFC3339),
	})
}

// HandleMe returns the identity baked into the bearer token.
func (a *Authenticator) HandleMe(w http.ResponseWriter, r *http.Request) {
	claims, err := a.ValidateRequest(r)
	if err != nil {
		writeAuthError(w, http.StatusUnauthorized, err.Error())
		return
	}
	writeAuthJSON(w, http.StatusOK, map[string]interface{}{
		"user_id":  claims["user_id"],
		"email":    claims["email"],
		"username": claims["username"],
	})
}

// ValidateRequest parses and verifies the Authorization bearer token.
func (a *Authenticator) ValidateRequest(r *http.Request) (jwt.MapClaims, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, fmt.Errorf("authorization header required")
	}
	tokenString := strings.TrimPrefix(header, "Bearer ")
	if tokenString == header {
		return nil, fmt.Errorf("authorization header must be a bearer token")
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}

func (a *Authenticator) issueToken(userID, email, username string) (string, time.Time, error) {
	now := a.now()
	expiresAt := now.Add(a.tokenTTL)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":  userID,
		"email":    email,
		"username": username,
		"iat":      now.Unix(),
		"exp":      expiresAt.Unix(),
	})
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

func writeAuthJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeAuthError(w http.ResponseWriter, status int, message string) {
	writeAuthJSON(w, status, map[string]interface{}{"error": message})
}
