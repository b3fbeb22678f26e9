// Package userapi defines the wire contract of the internal user API: the
// request/response payloads exchanged between the registry service's remote
// backend and the userapi server.
package userapi

import "time"

// Error codes carried on non-2xx responses. Conflict kinds are structured
// codes, never derived from message text.
const (
	CodeUsernameTaken      = "username_taken"
	CodeEmailTaken         = "email_taken"
	CodePhoneTaken         = "phone_taken"
	CodeNotFound           = "not_found"
	CodeInvalidCredentials = "invalid_credentials"
	CodeNotApproved        = "not_approved"
	CodeInternal           = "internal"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}

// User mirrors the canonical user record. Credential digests never cross the
// wire except the pre-hashed security answer supplied on create.
type User struct {
	ID               int64     `json:"id"`
	Username         string    `json:"username"`
	Email            string    `json:"email"`
	Phone            string    `json:"phone"`
	FirstName        string    `json:"first_name"`
	LastName         string    `json:"last_name"`
	DateOfBirth      time.Time `json:"date_of_birth"`
	SecurityQuestion string    `json:"security_question"`
	Admin            bool      `json:"admin"`
	Approved         bool      `json:"approved"`
	Active           bool      `json:"active"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// CreateUserRequest carries the new record plus the plaintext password, which
// the server hashes before storing.
type CreateUserRequest struct {
	User               User   `json:"user"`
	Password           string `json:"password"`
	SecurityAnswerHash string `json:"security_answer_hash"`
}

// AuthenticateRequest verifies a password for a username or email.
type AuthenticateRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// VerifyAnswerRequest verifies a security answer for a username or email.
type VerifyAnswerRequest struct {
	Login  string `json:"login"`
	Answer string `json:"answer"`
}

// UpdateUserRequest replaces the profile fields and flags of an existing
// record. The password is untouched.
type UpdateUserRequest struct {
	User User `json:"user"`
}

// UpdatePasswordRequest sets a new password; the server hashes it.
type UpdatePasswordRequest struct {
	Password string `json:"password"`
}

// UniqueResponse answers a uniqueness probe.
type UniqueResponse struct {
	Unique bool `json:"unique"`
}

// StatsResponse mirrors the dashboard counters.
type StatsResponse struct {
	Total    int64 `json:"total"`
	Active   int64 `json:"active"`
	Pending  int64 `json:"pending"`
	Admins   int64 `json:"admins"`
	Inactive int64 `json:"inactive"`
}
