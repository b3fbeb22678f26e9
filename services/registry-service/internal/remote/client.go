// Package remote implements the remote user backend: the same
// identity-management contract as the direct database backend, carried over
// HTTP to the internal user API.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	consulapi "github.com/hashicorp/consul/api"
	"github.com/rs/zerolog"

	"github.com/vasapolrittideah/member-portal-api/services/registry-service/internal/model"
	"github.com/vasapolrittideah/member-portal-api/services/registry-service/internal/repository"
	"github.com/vasapolrittideah/member-portal-api/services/registry-service/pkg/userapi"
	"github.com/vasapolrittideah/member-portal-api/shared/auth"
)

const serviceTokenTTL = time.Minute

// Options configures the user API client.
type Options struct {
	// BaseURL is the user API address. Ignored when ConsulService is set.
	BaseURL string

	// ConsulService, when set, resolves the user API address from Consul's
	// health catalog on every call.
	ConsulService string

	// Timeout bounds each request so a dead remote triggers the direct
	// fallback instead of hanging the caller.
	Timeout time.Duration

	// Secret signs the service token presented to the user API.
	Secret string
}

// Client talks to the internal user API. It implements
// repository.UserBackend.
type Client struct {
	httpClient *http.Client
	opts       Options
	consul     *consulapi.Client
	jwtAuth    auth.JWTAuthenticator
	logger     *zerolog.Logger
}

// NewClient creates a user API client. When opts.ConsulService is set, a
// Consul client is built from the standard CONSUL_* environment.
func NewClient(opts Options, jwtAuth auth.JWTAuthenticator, logger *zerolog.Logger) (*Client, error) {
	if opts.Timeout == 0 {
		opts.Timeout = 10 * time.Second
	}

	client := &Client{
		httpClient: &http.Client{Timeout: opts.Timeout},
		opts:       opts,
		jwtAuth:    jwtAuth,
		logger:     logger,
	}

	if opts.ConsulService != "" {
		consul, err := consulapi.NewClient(consulapi.DefaultConfig())
		if err != nil {
			return nil, fmt.Errorf("failed to create consul client: %w", err)
		}
		client.consul = consul
	} else if opts.BaseURL == "" {
		return nil, errors.New("either BaseURL or ConsulService must be set")
	}

	return client, nil
}

var _ repository.UserBackend = (*Client)(nil)

func (c *Client) CreateUser(ctx context.Context, user *model.User, password string) (*model.User, error) {
	req := userapi.CreateUserRequest{
		User:               userapi.FromModel(user),
		Password:           password,
		SecurityAnswerHash: user.SecurityAnswerHash,
	}

	var out userapi.User
	if err := c.do(ctx, http.MethodPost, "/v1/users", nil, req, &out); err != nil {
		return nil, err
	}

	return out.ToModel(), nil
}

func (c *Client) Authenticate(ctx context.Context, login, password string) (*model.User, error) {
	req := userapi.AuthenticateRequest{Login: login, Password: password}

	var out userapi.User
	if err := c.do(ctx, http.MethodPost, "/v1/users/authenticate", nil, req, &out); err != nil {
		return nil, err
	}

	return out.ToModel(), nil
}

func (c *Client) VerifySecurityAnswer(ctx context.Context, login, answer string) (*model.User, error) {
	req := userapi.VerifyAnswerRequest{Login: login, Answer: answer}

	var out userapi.User
	if err := c.do(ctx, http.MethodPost, "/v1/users/verify-answer", nil, req, &out); err != nil {
		return nil, err
	}

	return out.ToModel(), nil
}

func (c *Client) GetUser(ctx context.Context, id int64, includeInactive bool) (*model.User, error) {
	query := url.Values{}
	if includeInactive {
		query.Set("include_inactive", "true")
	}

	var out userapi.User
	if err := c.do(ctx, http.MethodGet, "/v1/users/"+strconv.FormatInt(id, 10), query, nil, &out); err != nil {
		return nil, err
	}

	return out.ToModel(), nil
}

func (c *Client) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	return c.lookup(ctx, "username", username)
}

func (c *Client) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return c.lookup(ctx, "email", email)
}

func (c *Client) GetUserByPhone(ctx context.Context, phone string) (*model.User, error) {
	return c.lookup(ctx, "phone", phone)
}

func (c *Client) UpdateUser(ctx context.Context, user *model.User) (*model.User, error) {
	req := userapi.UpdateUserRequest{User: userapi.FromModel(user)}

	var out userapi.User
	path := "/v1/users/" + strconv.FormatInt(user.ID, 10)
	if err := c.do(ctx, http.MethodPut, path, nil, req, &out); err != nil {
		return nil, err
	}

	return out.ToModel(), nil
}

func (c *Client) UpdatePassword(ctx context.Context, id int64, newPassword string) error {
	req := userapi.UpdatePasswordRequest{Password: newPassword}
	path := "/v1/users/" + strconv.FormatInt(id, 10) + "/password"
	return c.do(ctx, http.MethodPut, path, nil, req, nil)
}

func (c *Client) DeleteUser(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, "/v1/users/"+strconv.FormatInt(id, 10), nil, nil, nil)
}

func (c *Client) ApproveUser(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodPost, "/v1/users/"+strconv.FormatInt(id, 10)+"/approve", nil, nil, nil)
}

func (c *Client) ListUsers(ctx context.Context, params repository.FilterUsersParams) ([]*model.User, error) {
	query := url.Values{}
	if params.Active != nil {
		query.Set("active", strconv.FormatBool(*params.Active))
	}
	if params.Search != "" {
		query.Set("q", params.Search)
	}
	if params.Limit > 0 {
		query.Set("limit", strconv.FormatInt(params.Limit, 10))
	}
	if params.Offset > 0 {
		query.Set("offset", strconv.FormatInt(params.Offset, 10))
	}

	return c.list(ctx, "/v1/users", query)
}

func (c *Client) ListPendingUsers(ctx context.Context) ([]*model.User, error) {
	return c.list(ctx, "/v1/users/pending", nil)
}

func (c *Client) IsUnique(ctx context.Context, field repository.UniqueField, value string, excludeID int64) (bool, error) {
	query := url.Values{}
	query.Set("field", string(field))
	query.Set("value", value)
	if excludeID != 0 {
		query.Set("exclude_id", strconv.FormatInt(excludeID, 10))
	}

	var out userapi.UniqueResponse
	if err := c.do(ctx, http.MethodGet, "/v1/users/unique", query, nil, &out); err != nil {
		return false, err
	}

	return out.Unique, nil
}

func (c *Client) DashboardStats(ctx context.Context) (*repository.Stats, error) {
	var out userapi.StatsResponse
	if err := c.do(ctx, http.MethodGet, "/v1/stats", nil, nil, &out); err != nil {
		return nil, err
	}

	return &repository.Stats{
		Total:    out.Total,
		Active:   out.Active,
		Pending:  out.Pending,
		Admins:   out.Admins,
		Inactive: out.Inactive,
	}, nil
}

// --- transport ---

func (c *Client) lookup(ctx context.Context, field, value string) (*model.User, error) {
	query := url.Values{}
	query.Set(field, value)

	var out userapi.User
	if err := c.do(ctx, http.MethodGet, "/v1/users/lookup", query, nil, &out); err != nil {
		return nil, err
	}

	return out.ToModel(), nil
}

func (c *Client) list(ctx context.Context, path string, query url.Values) ([]*model.User, error) {
	var out []userapi.User
	if err := c.do(ctx, http.MethodGet, path, query, nil, &out); err != nil {
		return nil, err
	}

	users := make([]*model.User, 0, len(out))
	for i := range out {
		users = append(users, out[i].ToModel())
	}

	return users, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	baseURL, err := c.resolveBaseURL(ctx)
	if err != nil {
		return err
	}

	endpoint := baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var body *bytes.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(payload)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	token, err := c.jwtAuth.GenerateServiceToken("registry-service", c.opts.Secret, serviceTokenTTL)
	if err != nil {
		return fmt.Errorf("failed to mint service token: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	c.logger.Debug().Str("method", method).Str("path", path).Msg("user api request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("user api request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil {
			return nil
		}
		return json.NewDecoder(resp.Body).Decode(out)
	}

	var errResp userapi.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil {
		return fmt.Errorf("user api returned status %d", resp.StatusCode)
	}

	return mapErrorCode(resp.StatusCode, errResp)
}

// resolveBaseURL returns the static base URL or, in discovery mode, a healthy
// user API instance from Consul.
func (c *Client) resolveBaseURL(ctx context.Context) (string, error) {
	if c.consul == nil {
		return c.opts.BaseURL, nil
	}

	queryOptions := (&consulapi.QueryOptions{}).WithContext(ctx)
	entries, _, err := c.consul.Health().Service(c.opts.ConsulService, "", true, queryOptions)
	if err != nil {
		return "", fmt.Errorf("consul lookup for %q failed: %w", c.opts.ConsulService, err)
	}
	if len(entries) == 0 {
		return "", fmt.Errorf("no healthy instances of %q registered", c.opts.ConsulService)
	}

	entry := entries[0]
	address := entry.Service.Address
	if address == "" {
		address = entry.Node.Address
	}

	return fmt.Sprintf("http://%s:%d", address, entry.Service.Port), nil
}

// mapErrorCode converts a structured error response into the backend's
// sentinel errors so both backends fail identically.
func mapErrorCode(status int, errResp userapi.ErrorResponse) error {
	switch errResp.Code {
	case userapi.CodeUsernameTaken:
		return repository.ErrUsernameTaken
	case userapi.CodeEmailTaken:
		return repository.ErrEmailTaken
	case userapi.CodePhoneTaken:
		return repository.ErrPhoneTaken
	case userapi.CodeNotFound:
		return repository.ErrUserNotFound
	case userapi.CodeInvalidCredentials:
		return repository.ErrInvalidCredentials
	case userapi.CodeNotApproved:
		return repository.ErrUserNotApproved
	default:
		return fmt.Errorf("user api returned status %d: %s", status, errResp.Message)
	}
}

