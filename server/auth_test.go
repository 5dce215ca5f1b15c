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
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "test-signing-secret"

func authServer(t *testing.T) (*Server, *fakeServerStore) {
	t.Helper()
	st := &fakeServerStore{}
	auth, err := NewAuthenticator(st, testJWTSecret, time.Hour)
	require.NoError(t, err)
	return newTestServer(Deps{Store: st, Auth: auth}), st
}

func TestNewAuthenticator_RequiresSecret(t *testing.T) {
	_, err := NewAuthenticator(&fakeServerStore{}, "", time.Hour)
	assert.Error(t, err)
}

func TestSignup(t *testing.T) {
	srv, st := authServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/auth/signup", strings.NewReader(
		`{"email": "New@Example.com", "username": "newbie", "password": "hunter2hunter2"}`))

	require.Equal(t, http.StatusCreated, rec.Code)
	body := decodeBody(t, rec)
	assert.NotEmpty(t, body["user_id"])
	assert.NotEmpty(t, body["token"])
	assert.Equal(t, "newbie", body["username"])
	// Emails are stored lowercased.
	assert.Equal(t, "new@example.com", body["email"])

	stored := st.users["new@example.com"]
	require.NotNil(t, stored)
	// Never the plaintext password.
	assert.NotContains(t, stored.PasswordHash, "hunter2")
}

func TestSignup_DuplicateEmail(t *testing.T) {
	srv, _ := authServer(t)
	payload := `{"email": "dup@example.com", "username": "first", "password": "hunter2hunter2"}`

	rec := doRequest(t, srv, http.MethodPost, "/auth/signup", strings.NewReader(payload))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doRequest(t, srv, http.MethodPost, "/auth/signup", strings.NewReader(payload))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestSignup_ShortPassword(t *testing.T) {
	srv, _ := authServer(t)
	rec := doRequest(t, srv, http.MethodPost, "/auth/signup", strings.NewReader(
		`{"email": "a@b.c", "username": "u", "password": "short"}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogin(t *testing.T) {
	srv, _ := authServer(t)
	doRequest(t, srv, http.MethodPost, "/auth/signup", strings.NewReader(
		`{"email": "login@example.com", "username": "logger", "password": "hunter2hunter2"}`))

	rec := doRequest(t, srv, http.MethodPost, "/auth/login", strings.NewReader(
		`{"email": "login@example.com", "password": "hunter2hunter2"}`))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.NotEmpty(t, body["token"])
	assert.Equal(t, "logger", body["username"])
}

func TestLogin_BadCredentials(t *testing.T) {
	srv, _ := authServer(t)
	doRequest(t, srv, http.MethodPost, "/auth/signup", strings.NewReader(
		`{"email": "login@example.com", "username": "logger", "password": "hunter2hunter2"}`))

	// Wrong password and unknown email are indistinguishable.
	recWrong := doRequest(t, srv, http.MethodPost, "/auth/login", strings.NewReader(
		`{"email": "login@example.com", "password": "wrong-password"}`))
	recUnknown := doRequest(t, srv, http.MethodPost, "/auth/login", strings.NewReader(
		`{"email": "nobody@example.com", "password": "hunter2hunter2"}`))

	assert.Equal(t, http.StatusUnauthorized, recWrong.Code)
	assert.Equal(t, http.StatusUnauthorized, recUnknown.Code)
	assert.Equal(t, decodeBody(t, recWrong)["error"], decodeBody(t, recUnknown)["error"])
}

func TestMe(t *testing.T) {
	srv, _ := authServer(t)
	rec := doRequest(t, srv, http.MethodPost, "/auth/signup", strings.NewReader(
		`{"email": "me@example.com", "username": "myself", "password": "hunter2hunter2"}`))
	token := decodeBody(t, rec)["token"].(string)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	meRec := httptest.NewRecorder()
	srv.Router().ServeHTTP(meRec, req)

	require.Equal(t, http.StatusOK, meRec.Code)
	body := decodeBody(t, meRec)
	assert.Equal(t, "me@example.com", body["email"])
	assert.Equal(t, "myself", body["username"])
}

func TestMe_BadTokens(t *testing.T) {
	srv, _ := authServer(t)

	for name, header := range map[string]string{
		"missing":    "",
		"not bearer": "Basic abc123",
		"garbage":    "Bearer not.a.token",
	} {
		req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, name)
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	st := &fakeServerStore{}
	auth, err := NewAuthenticator(st, testJWTSecret, time.Hour)
	require.NoError(t, err)
	auth.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, _, err := auth.issueToken("user-1", "old@example.com", "old")
	require.NoError(t, err)

	auth.now = time.Now
	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	_, err = auth.ValidateRequest(req)
	assert.Error(t, err)
}
