package usecase

import (
	"context"
	"strings"

	"github.com/vasapolrittideah/member-portal-api/services/registry-service/internal/model"
	"github.com/vasapolrittideah/member-portal-api/services/registry-service/internal/repository"
)

// SecurityQuestion returns the security question on record for the given
// username or email.
func (d *userDirectory) SecurityQuestion(ctx context.Context, login string) (string, error) {
	user, err := d.getByLogin(ctx, login)
	if err != nil {
		return "", err
	}

	return user.SecurityQuestion, nil
}

// BeginPasswordReset verifies the security answer and, on success, issues a
// reset token bound to the user. The token is the only thing authorizing the
// subsequent password change.
func (d *userDirectory) BeginPasswordReset(ctx context.Context, login, securityAnswer string) (string, error) {
	user, err := execute(ctx, d, "verify_security_answer", func(b repository.UserBackend) (*model.User, error) {
		return b.VerifySecurityAnswer(ctx, login, securityAnswer)
	})
	if err != nil {
		return "", err
	}

	return d.tokens.Issue(user.ID), nil
}

// CompletePasswordReset redeems a reset token and sets the new password. The
// token is consumed only after the password update succeeds, so a failed
// update leaves it spendable.
func (d *userDirectory) CompletePasswordReset(ctx context.Context, token, newPassword string) error {
	userID, ok := d.tokens.Resolve(token)
	if !ok {
		return ErrInvalidResetToken
	}

	_, err := execute(ctx, d, "update_password", func(b repository.UserBackend) (struct{}, error) {
		return struct{}{}, b.UpdatePassword(ctx, userID, newPassword)
	})
	if err != nil {
		return err
	}

	if !d.tokens.Consume(token) {
		// A concurrent reset spent the token between Resolve and Consume.
		return ErrInvalidResetToken
	}

	return nil
}

func (d *userDirectory) getByLogin(ctx context.Context, login string) (*model.User, error) {
	if strings.Contains(login, "@") {
		return d.GetByEmail(ctx, login)
	}
	return d.GetByUsername(ctx, login)
}
