package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vasapolrittideah/member-portal-api/services/registry-service/internal/model"
	"github.com/vasapolrittideah/member-portal-api/services/registry-service/internal/repository"
	"github.com/vasapolrittideah/member-portal-api/services/registry-service/pkg/userapi"
	"github.com/vasapolrittideah/member-portal-api/shared/auth"
)

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()

	logger := zerolog.Nop()
	client, err := NewClient(Options{
		BaseURL: baseURL,
		Timeout: 2 * time.Second,
		Secret:  "test-secret",
	}, auth.NewJWTAuthenticator("user-api", "test-issuer"), &logger)
	require.NoError(t, err)
	return client
}

func TestNewClientRequiresAddress(t *testing.T) {
	logger := zerolog.Nop()
	_, err := NewClient(Options{}, auth.NewJWTAuthenticator("user-api", "test-issuer"), &logger)
	assert.Error(t, err)
}

func TestAuthenticateSuccess(t *testing.T) {
	var gotAuth, gotContentType string
	var gotBody userapi.AuthenticateRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/users/authenticate", r.URL.Path)

		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(userapi.User{ID: 7, Username: "alice", Email: "alice@example.com", Active: true})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	user, err := client.Authenticate(context.Background(), "alice", "secret123")
	require.NoError(t, err)

	assert.Equal(t, int64(7), user.ID)
	assert.Equal(t, "alice", user.Username)
	assert.True(t, user.Active)

	assert.True(t, strings.HasPrefix(gotAuth, "Bearer "), "service token must be presented")
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, "alice", gotBody.Login)
	assert.Equal(t, "secret123", gotBody.Password)
}

func TestErrorCodesMapToSentinels(t *testing.T) {
	cases := []struct {
		code   string
		status int
		want   error
	}{
		{userapi.CodeUsernameTaken, http.StatusConflict, repository.ErrUsernameTaken},
		{userapi.CodeEmailTaken, http.StatusConflict, repository.ErrEmailTaken},
		{userapi.CodePhoneTaken, http.StatusConflict, repository.ErrPhoneTaken},
		{userapi.CodeNotFound, http.StatusNotFound, repository.ErrUserNotFound},
		{userapi.CodeInvalidCredentials, http.StatusUnauthorized, repository.ErrInvalidCredentials},
		{userapi.CodeNotApproved, http.StatusForbidden, repository.ErrUserNotApproved},
	}

	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tc.status)
				json.NewEncoder(w).Encode(userapi.ErrorResponse{Code: tc.code})
			}))
			defer server.Close()

			client := newTestClient(t, server.URL)

			_, err := client.CreateUser(context.Background(), &model.User{Username: "alice"}, "secret123")
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestUnknownErrorCodeIsGenericFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(userapi.ErrorResponse{Code: userapi.CodeInternal, Message: "boom"})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	_, err := client.GetUser(context.Background(), 1, false)
	require.Error(t, err)
	assert.NotErrorIs(t, err, repository.ErrUserNotFound)
	assert.Contains(t, err.Error(), "500")
}

func TestTransportFailureIsNotASentinel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := newTestClient(t, server.URL)

	_, err := client.GetUser(context.Background(), 1, false)
	require.Error(t, err)
	assert.NotErrorIs(t, err, repository.ErrUserNotFound)
	assert.NotErrorIs(t, err, repository.ErrInvalidCredentials)
}

func TestCreateUserForwardsAnswerHashNotPlaintext(t *testing.T) {
	var gotBody userapi.CreateUserRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(userapi.User{ID: 1, Username: "alice"})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	user := &model.User{Username: "alice", SecurityAnswerHash: "$argon2id$fake"}
	created, err := client.CreateUser(context.Background(), user, "secret123")
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.ID)

	assert.Equal(t, "secret123", gotBody.Password)
	assert.Equal(t, "$argon2id$fake", gotBody.SecurityAnswerHash)
}

func TestGetUserIncludeInactiveQuery(t *testing.T) {
	var gotQuery string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/users/42", r.URL.Path)
		gotQuery = r.URL.Query().Get("include_inactive")
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(userapi.User{ID: 42})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	_, err := client.GetUser(context.Background(), 42, true)
	require.NoError(t, err)
	assert.Equal(t, "true", gotQuery)
}

func TestListUsersQueryParameters(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		assert.Equal(t, "true", query.Get("active"))
		assert.Equal(t, "smith", query.Get("q"))
		assert.Equal(t, "25", query.Get("limit"))
		assert.Equal(t, "50", query.Get("offset"))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]userapi.User{{ID: 1}, {ID: 2}})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	active := true
	users, err := client.ListUsers(context.Background(), repository.FilterUsersParams{
		Active: &active,
		Search: "smith",
		Limit:  25,
		Offset: 50,
	})
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, int64(2), users[1].ID)
}

func TestUpdatePasswordNoResponseBody(t *testing.T) {
	var gotBody userapi.UpdatePasswordRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, "/v1/users/7/password", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	require.NoError(t, client.UpdatePassword(context.Background(), 7, "newsecret"))
	assert.Equal(t, "newsecret", gotBody.Password)
}

func TestIsUnique(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		assert.Equal(t, "email", query.Get("field"))
		assert.Equal(t, "alice@example.com", query.Get("value"))
		assert.Equal(t, "9", query.Get("exclude_id"))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(userapi.UniqueResponse{Unique: false})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	unique, err := client.IsUnique(context.Background(), repository.FieldEmail, "alice@example.com", 9)
	require.NoError(t, err)
	assert.False(t, unique)
}
