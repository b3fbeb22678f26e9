package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vasapolrittideah/member-portal-api/services/registry-service/internal/model"
	"github.com/vasapolrittideah/member-portal-api/services/registry-service/internal/repository"
)

func TestSecurityQuestionByUsernameAndEmail(t *testing.T) {
	direct := &fakeBackend{user: &model.User{ID: 1, SecurityQuestion: "first pet"}}
	d := newTestDirectory(t, ModeDirect, direct, nil)

	question, err := d.SecurityQuestion(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "first pet", question)
	assert.Equal(t, []string{"GetUserByUsername"}, direct.calls)

	direct.calls = nil

	_, err = d.SecurityQuestion(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, []string{"GetUserByEmail"}, direct.calls)
}

func TestSecurityQuestionUnknownLogin(t *testing.T) {
	d := newTestDirectory(t, ModeDirect, &fakeBackend{}, nil)

	_, err := d.SecurityQuestion(context.Background(), "nobody")
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
}

func TestBeginPasswordResetWrongAnswer(t *testing.T) {
	direct := &fakeBackend{user: &model.User{ID: 1}, answer: "rex"}
	d := newTestDirectory(t, ModeDirect, direct, nil)

	_, err := d.BeginPasswordReset(context.Background(), "alice", "fido")
	assert.ErrorIs(t, err, repository.ErrInvalidCredentials)
}

func TestPasswordResetFlow(t *testing.T) {
	direct := &fakeBackend{user: &model.User{ID: 7}, answer: "rex"}
	d := newTestDirectory(t, ModeDirect, direct, nil)

	token, err := d.BeginPasswordReset(context.Background(), "alice", "rex")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	require.NoError(t, d.CompletePasswordReset(context.Background(), token, "newsecret"))
	assert.Equal(t, "newsecret", direct.passwords[7])

	// The token was spent; a second redemption must fail without touching
	// the backend again.
	err = d.CompletePasswordReset(context.Background(), token, "another")
	assert.ErrorIs(t, err, ErrInvalidResetToken)
	assert.Equal(t, "newsecret", direct.passwords[7])
}

func TestCompletePasswordResetUnknownToken(t *testing.T) {
	direct := &fakeBackend{}
	d := newTestDirectory(t, ModeDirect, direct, nil)

	err := d.CompletePasswordReset(context.Background(), "bogus", "newsecret")
	assert.ErrorIs(t, err, ErrInvalidResetToken)
	assert.Empty(t, direct.calls)
}

func TestFailedPasswordUpdateLeavesTokenSpendable(t *testing.T) {
	direct := &fakeBackend{user: &model.User{ID: 7}, answer: "rex"}
	d := newTestDirectory(t, ModeDirect, direct, nil)

	token, err := d.BeginPasswordReset(context.Background(), "alice", "rex")
	require.NoError(t, err)

	direct.updatePasswordErr = errors.New("database down")
	err = d.CompletePasswordReset(context.Background(), token, "newsecret")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidResetToken)

	direct.updatePasswordErr = nil
	require.NoError(t, d.CompletePasswordReset(context.Background(), token, "newsecret"))
	assert.Equal(t, "newsecret", direct.passwords[7])
}

func TestBeginPasswordResetVerifiesThroughActiveBackend(t *testing.T) {
	direct := &fakeBackend{user: &model.User{ID: 7}, answer: "rex"}
	remote := &fakeBackend{err: errors.New("connection refused")}
	d := newTestDirectory(t, ModeRemote, direct, remote)

	token, err := d.BeginPasswordReset(context.Background(), "alice", "rex")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	assert.Equal(t, []string{"VerifySecurityAnswer"}, remote.calls)
	assert.Equal(t, []string{"VerifySecurityAnswer"}, direct.calls)
}
