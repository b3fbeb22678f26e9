package repository

import (
	"context"
	"errors"

	"github.com/vasapolrittideah/member-portal-api/services/registry-service/internal/model"
)

// Sentinel errors shared by every backend implementation. Conflicts and
// missing records are expected outcomes and must surface as one of these,
// never as a generic failure.
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUsernameTaken      = errors.New("username is already taken")
	ErrEmailTaken         = errors.New("email is already taken")
	ErrPhoneTaken         = errors.New("phone number is already taken")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotApproved    = errors.New("user is pending approval")
)

// UniqueField names a field covered by a system-wide uniqueness constraint.
type UniqueField string

const (
	FieldUsername UniqueField = "username"
	FieldEmail    UniqueField = "email"
	FieldPhone    UniqueField = "phone"
)

// FilterUsersParams defines the parameters for filtering users.
type FilterUsersParams struct {
	Active *bool
	Search string
	Limit  int64
	Offset int64
}

// Stats summarizes the user base for the admin dashboard.
type Stats struct {
	Total    int64 `json:"total"`
	Active   int64 `json:"active"`
	Pending  int64 `json:"pending"`
	Admins   int64 `json:"admins"`
	Inactive int64 `json:"inactive"`
}

// UserBackend is the identity-management contract implemented by both the
// direct (database) backend and the remote (HTTP API) backend. The two must
// behave identically to callers.
//
// CreateUser, Authenticate, VerifySecurityAnswer, and UpdatePassword take the
// plaintext credential; the direct backend hashes locally before storing,
// while the remote backend forwards it so the canonical store can hash
// server-side. Plaintext is never persisted by either implementation.
type UserBackend interface {
	CreateUser(ctx context.Context, user *model.User, password string) (*model.User, error)
	Authenticate(ctx context.Context, login, password string) (*model.User, error)
	VerifySecurityAnswer(ctx context.Context, login, answer string) (*model.User, error)
	GetUser(ctx context.Context, id int64, includeInactive bool) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByPhone(ctx context.Context, phone string) (*model.User, error)
	UpdateUser(ctx context.Context, user *model.User) (*model.User, error)
	UpdatePassword(ctx context.Context, id int64, newPassword string) error
	DeleteUser(ctx context.Context, id int64) error
	ListUsers(ctx context.Context, params FilterUsersParams) ([]*model.User, error)
	IsUnique(ctx context.Context, field UniqueField, value string, excludeID int64) (bool, error)
	DashboardStats(ctx context.Context) (*Stats, error)
	ListPendingUsers(ctx context.Context) ([]*model.User, error)
	ApproveUser(ctx context.Context, id int64) error
}
