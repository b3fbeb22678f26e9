package usecase

import (
	"context"

	"github.com/vasapolrittideah/member-portal-api/services/registry-service/internal/model"
	"github.com/vasapolrittideah/member-portal-api/services/registry-service/internal/repository"
)

// fakeBackend is a hand-rolled UserBackend double. It records the methods
// called on it, returns the configured user/users/stats, and fails every call
// with err when it is set.
type fakeBackend struct {
	user  *model.User
	users []*model.User
	stats *repository.Stats
	err   error

	answer            string
	updatePasswordErr error

	calls     []string
	passwords map[int64]string
	onCreate  func(user *model.User, password string)
}

var _ repository.UserBackend = (*fakeBackend)(nil)

func (f *fakeBackend) record(name string) {
	f.calls = append(f.calls, name)
}

func (f *fakeBackend) CreateUser(_ context.Context, user *model.User, password string) (*model.User, error) {
	f.record("CreateUser")
	if f.onCreate != nil {
		f.onCreate(user, password)
	}
	if f.err != nil {
		return nil, f.err
	}

	created := *user
	created.ID = 1
	return &created, nil
}

func (f *fakeBackend) Authenticate(_ context.Context, _, _ string) (*model.User, error) {
	f.record("Authenticate")
	if f.err != nil {
		return nil, f.err
	}
	return f.user, nil
}

func (f *fakeBackend) VerifySecurityAnswer(_ context.Context, _, answer string) (*model.User, error) {
	f.record("VerifySecurityAnswer")
	if f.err != nil {
		return nil, f.err
	}
	if answer != f.answer {
		return nil, repository.ErrInvalidCredentials
	}
	return f.user, nil
}

func (f *fakeBackend) GetUser(_ context.Context, _ int64, _ bool) (*model.User, error) {
	f.record("GetUser")
	return f.getConfigured()
}

func (f *fakeBackend) GetUserByUsername(_ context.Context, _ string) (*model.User, error) {
	f.record("GetUserByUsername")
	return f.getConfigured()
}

func (f *fakeBackend) GetUserByEmail(_ context.Context, _ string) (*model.User, error) {
	f.record("GetUserByEmail")
	return f.getConfigured()
}

func (f *fakeBackend) GetUserByPhone(_ context.Context, _ string) (*model.User, error) {
	f.record("GetUserByPhone")
	return f.getConfigured()
}

func (f *fakeBackend) UpdateUser(_ context.Context, user *model.User) (*model.User, error) {
	f.record("UpdateUser")
	if f.err != nil {
		return nil, f.err
	}
	return user, nil
}

func (f *fakeBackend) UpdatePassword(_ context.Context, id int64, newPassword string) error {
	f.record("UpdatePassword")
	if f.updatePasswordErr != nil {
		return f.updatePasswordErr
	}
	if f.err != nil {
		return f.err
	}

	if f.passwords == nil {
		f.passwords = make(map[int64]string)
	}
	f.passwords[id] = newPassword
	return nil
}

func (f *fakeBackend) DeleteUser(_ context.Context, _ int64) error {
	f.record("DeleteUser")
	return f.err
}

func (f *fakeBackend) ListUsers(_ context.Context, _ repository.FilterUsersParams) ([]*model.User, error) {
	f.record("ListUsers")
	if f.err != nil {
		return nil, f.err
	}
	return f.users, nil
}

func (f *fakeBackend) IsUnique(_ context.Context, _ repository.UniqueField, _ string, _ int64) (bool, error) {
	f.record("IsUnique")
	if f.err != nil {
		return false, f.err
	}
	return true, nil
}

func (f *fakeBackend) DashboardStats(_ context.Context) (*repository.Stats, error) {
	f.record("DashboardStats")
	if f.err != nil {
		return nil, f.err
	}
	return f.stats, nil
}

func (f *fakeBackend) ListPendingUsers(_ context.Context) ([]*model.User, error) {
	f.record("ListPendingUsers")
	if f.err != nil {
		return nil, f.err
	}
	return f.users, nil
}

func (f *fakeBackend) ApproveUser(_ context.Context, _ int64) error {
	f.record("ApproveUser")
	return f.err
}

func (f *fakeBackend) getConfigured() (*model.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.user == nil {
		return nil, repository.ErrUserNotFound
	}
	return f.user, nil
}
