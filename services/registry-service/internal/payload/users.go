// Package payload defines the portal's request and response bodies. The
// validate tags drive server-side validation; violations come back to the
// client as field-level messages.
package payload

import (
	"time"

	"github.com/vasapolrittideah/member-portal-api/services/registry-service/internal/model"
)

type RegisterRequest struct {
	Username         string    `json:"username"          validate:"required,alphanum,min=3,max=30"`
	Email            string    `json:"email"             validate:"required,email"`
	Phone            string    `json:"phone"             validate:"required,e164"`
	Password         string    `json:"password"          validate:"required,min=8"`
	FirstName        string    `json:"first_name"        validate:"required"`
	LastName         string    `json:"last_name"         validate:"required"`
	DateOfBirth      time.Time `json:"date_of_birth"     validate:"required,adult"`
	SecurityQuestion string    `json:"security_question" validate:"required"`
	SecurityAnswer   string    `json:"security_answer"   validate:"required"`
}

// GoogleRegisterRequest registers through a Google ID token; the email comes
// from the validated token rather than the form.
type GoogleRegisterRequest struct {
	IDToken          string    `json:"id_token"          validate:"required"`
	Username         string    `json:"username"          validate:"required,alphanum,min=3,max=30"`
	Phone            string    `json:"phone"             validate:"required,e164"`
	Password         string    `json:"password"          validate:"required,min=8"`
	FirstName        string    `json:"first_name"        validate:"required"`
	LastName         string    `json:"last_name"         validate:"required"`
	DateOfBirth      time.Time `json:"date_of_birth"     validate:"required,adult"`
	SecurityQuestion string    `json:"security_question" validate:"required"`
	SecurityAnswer   string    `json:"security_answer"   validate:"required"`
}

type RegisterResponse struct {
	User *model.User `json:"user"`
}

type LoginRequest struct {
	Login    string `json:"login"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	AccessToken string      `json:"access_token"`
	User        *model.User `json:"user"`
}

type SecurityQuestionResponse struct {
	Question string `json:"question"`
}

type PasswordResetRequest struct {
	Login          string `json:"login"           validate:"required"`
	SecurityAnswer string `json:"security_answer" validate:"required"`
}

type PasswordResetResponse struct {
	ResetToken string `json:"reset_token"`
}

type PasswordResetConfirmRequest struct {
	ResetToken  string `json:"reset_token"  validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

// UpdateUserRequest is the admin edit form.
type UpdateUserRequest struct {
	Username         string    `json:"username"          validate:"required,alphanum,min=3,max=30"`
	Email            string    `json:"email"             validate:"required,email"`
	Phone            string    `json:"phone"             validate:"required,e164"`
	FirstName        string    `json:"first_name"        validate:"required"`
	LastName         string    `json:"last_name"         validate:"required"`
	DateOfBirth      time.Time `json:"date_of_birth"     validate:"required,adult"`
	SecurityQuestion string    `json:"security_question" validate:"required"`
	Admin            bool      `json:"admin"`
	Approved         bool      `json:"approved"`
	Active           bool      `json:"active"`
}

// ValidationErrorResponse carries per-field validation messages.
type ValidationErrorResponse struct {
	Code   string            `json:"code"`
	Fields map[string]string `json:"fields"`
}
