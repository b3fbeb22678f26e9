// Package usecase implements the portal's business logic, centered on the
// dual-backend user directory: one identity-management contract served either
// directly from the database or through the internal user API, with automatic
// fallback to the database when the remote path fails.
package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/vasapolrittideah/member-portal-api/services/registry-service/internal/model"
	"github.com/vasapolrittideah/member-portal-api/services/registry-service/internal/repository"
	"github.com/vasapolrittideah/member-portal-api/services/registry-service/internal/reset"
	"github.com/vasapolrittideah/member-portal-api/shared/security"
)

// Mode selects which backend serves user data. It is fixed at startup and
// read per operation.
type Mode string

const (
	ModeDirect Mode = "direct"
	ModeRemote Mode = "remote"
)

// ParseMode parses a configured mode string.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeDirect, ModeRemote:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("unknown backend mode %q", s)
	}
}

// ErrInvalidResetToken is returned when a password-reset token is unknown,
// expired, or already spent.
var ErrInvalidResetToken = errors.New("invalid or expired reset token")

// UserDirectory is the portal's identity-management contract. Handlers depend
// on this interface only; they never reach around it to a concrete backend.
// The reset-token operations are part of the contract rather than a
// side-channel on one implementation.
type UserDirectory interface {
	Create(ctx context.Context, user *model.User, password, securityAnswer string) (*model.User, error)
	Authenticate(ctx context.Context, login, password string) (*model.User, error)
	GetByID(ctx context.Context, id int64, includeInactive bool) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByPhone(ctx context.Context, phone string) (*model.User, error)
	Update(ctx context.Context, user *model.User) (*model.User, error)
	Delete(ctx context.Context, id int64) error
	Approve(ctx context.Context, id int64) error
	ListAll(ctx context.Context, params repository.FilterUsersParams) ([]*model.User, error)
	IsUnique(ctx context.Context, field repository.UniqueField, value string, excludeID int64) (bool, error)
	DashboardStats(ctx context.Context) (*repository.Stats, error)
	ListPending(ctx context.Context) ([]*model.User, error)

	SecurityQuestion(ctx context.Context, login string) (string, error)
	BeginPasswordReset(ctx context.Context, login, securityAnswer string) (string, error)
	CompletePasswordReset(ctx context.Context, token, newPassword string) error
}

type userDirectory struct {
	mode    Mode
	direct  repository.UserBackend
	remote  repository.UserBackend
	pending *PendingSecrets
	tokens  reset.TokenStore
	logger  *zerolog.Logger
}

// NewUserDirectory wires the directory. remote may be nil when mode is
// ModeDirect.
func NewUserDirectory(
	mode Mode,
	direct repository.UserBackend,
	remote repository.UserBackend,
	tokens reset.TokenStore,
	logger *zerolog.Logger,
) UserDirectory {
	if mode == ModeRemote && remote == nil {
		logger.Fatal().Msg("remote backend mode configured without a remote backend")
	}

	return &userDirectory{
		mode:    mode,
		direct:  direct,
		remote:  remote,
		pending: NewPendingSecrets(),
		tokens:  tokens,
		logger:  logger,
	}
}

// expectedOutcome reports whether err is a domain outcome the remote backend
// produced deliberately (conflict, not found, bad credentials). Those are
// returned to the caller as-is; only transport-level failures trigger the
// direct fallback.
func expectedOutcome(err error) bool {
	return errors.Is(err, repository.ErrUserNotFound) ||
		errors.Is(err, repository.ErrUsernameTaken) ||
		errors.Is(err, repository.ErrEmailTaken) ||
		errors.Is(err, repository.ErrPhoneTaken) ||
		errors.Is(err, repository.ErrInvalidCredentials) ||
		errors.Is(err, repository.ErrUserNotApproved)
}

// execute runs op against the active backend. In remote mode a transport
// failure is logged and the identical call re-issued against the direct
// backend; the caller only ever sees the direct result.
//
// The fallback re-executes writes in full. A remote call that succeeded
// server-side just before the transport reported failure can therefore be
// applied twice; this is an accepted limitation of detecting failure at the
// transport level rather than via partial-success acknowledgement.
func execute[T any](ctx context.Context, d *userDirectory, op string, fn func(repository.UserBackend) (T, error)) (T, error) {
	if d.mode != ModeRemote {
		return fn(d.direct)
	}

	result, err := fn(d.remote)
	if err == nil || expectedOutcome(err) {
		return result, err
	}

	d.logger.Warn().Err(err).Str("operation", op).Msg("remote backend failed, falling back to direct")

	return fn(d.direct)
}

func (d *userDirectory) Create(ctx context.Context, user *model.User, password, securityAnswer string) (*model.User, error) {
	answerHash, err := security.HashAnswer(securityAnswer)
	if err != nil {
		return nil, fmt.Errorf("failed to hash security answer: %w", err)
	}
	user.SecurityAnswerHash = answerHash

	if d.mode == ModeRemote {
		// The remote store hashes server-side, so the plaintext has to stay
		// reachable for exactly the span of this call.
		d.pending.Put(user.Username, password)
		defer d.pending.Remove(user.Username)
	}

	return execute(ctx, d, "create", func(b repository.UserBackend) (*model.User, error) {
		return b.CreateUser(ctx, user, password)
	})
}

func (d *userDirectory) Authenticate(ctx context.Context, login, password string) (*model.User, error) {
	return execute(ctx, d, "authenticate", func(b repository.UserBackend) (*model.User, error) {
		return b.Authenticate(ctx, login, password)
	})
}

func (d *userDirectory) GetByID(ctx context.Context, id int64, includeInactive bool) (*model.User, error) {
	return execute(ctx, d, "get_by_id", func(b repository.UserBackend) (*model.User, error) {
		return b.GetUser(ctx, id, includeInactive)
	})
}

func (d *userDirectory) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return execute(ctx, d, "get_by_username", func(b repository.UserBackend) (*model.User, error) {
		return b.GetUserByUsername(ctx, username)
	})
}

func (d *userDirectory) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return execute(ctx, d, "get_by_email", func(b repository.UserBackend) (*model.User, error) {
		return b.GetUserByEmail(ctx, email)
	})
}

func (d *userDirectory) GetByPhone(ctx context.Context, phone string) (*model.User, error) {
	return execute(ctx, d, "get_by_phone", func(b repository.UserBackend) (*model.User, error) {
		return b.GetUserByPhone(ctx, phone)
	})
}

func (d *userDirectory) Update(ctx context.Context, user *model.User) (*model.User, error) {
	return execute(ctx, d, "update", func(b repository.UserBackend) (*model.User, error) {
		return b.UpdateUser(ctx, user)
	})
}

func (d *userDirectory) Delete(ctx context.Context, id int64) error {
	_, err := execute(ctx, d, "delete", func(b repository.UserBackend) (struct{}, error) {
		return struct{}{}, b.DeleteUser(ctx, id)
	})
	return err
}

func (d *userDirectory) Approve(ctx context.Context, id int64) error {
	_, err := execute(ctx, d, "approve", func(b repository.UserBackend) (struct{}, error) {
		return struct{}{}, b.ApproveUser(ctx, id)
	})
	return err
}

func (d *userDirectory) ListAll(ctx context.Context, params repository.FilterUsersParams) ([]*model.User, error) {
	return execute(ctx, d, "list_all", func(b repository.UserBackend) ([]*model.User, error) {
		return b.ListUsers(ctx, params)
	})
}

func (d *userDirectory) IsUnique(ctx context.Context, field repository.UniqueField, value string, excludeID int64) (bool, error) {
	return execute(ctx, d, "is_unique", func(b repository.UserBackend) (bool, error) {
		return b.IsUnique(ctx, field, value, excludeID)
	})
}

func (d *userDirectory) DashboardStats(ctx context.Context) (*repository.Stats, error) {
	return execute(ctx, d, "dashboard_stats", func(b repository.UserBackend) (*repository.Stats, error) {
		return b.DashboardStats(ctx)
	})
}

func (d *userDirectory) ListPending(ctx context.Context) ([]*model.User, error) {
	return execute(ctx, d, "list_pending", func(b repository.UserBackend) ([]*model.User, error) {
		return b.ListPendingUsers(ctx)
	})
}
