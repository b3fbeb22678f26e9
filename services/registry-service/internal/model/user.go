package model

import "time"

// User represents a registered account in the portal.
//
// Username, Email, and Phone are each unique across all users; username and
// email comparisons are case-insensitive. A user is "pending" until an
// administrator approves the account; pending users cannot authenticate.
type User struct {
	ID                 int64     `bson:"_id" json:"id"`
	Username           string    `bson:"username" json:"username"`
	Email              string    `bson:"email" json:"email"`
	Phone              string    `bson:"phone" json:"phone"`
	PasswordHash       string    `bson:"password_hash" json:"-"`
	FirstName          string    `bson:"first_name" json:"first_name"`
	LastName           string    `bson:"last_name" json:"last_name"`
	DateOfBirth        time.Time `bson:"date_of_birth" json:"date_of_birth"`
	SecurityQuestion   string    `bson:"security_question" json:"security_question"`
	SecurityAnswerHash string    `bson:"security_answer_hash" json:"-"`
	Admin              bool      `bson:"admin" json:"admin"`
	Approved           bool      `bson:"approved" json:"approved"`
	Active             bool      `bson:"active" json:"active"`
	CreatedAt          time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt          time.Time `bson:"updated_at" json:"updated_at"`
}

// Pending reports whether the account is still waiting for approval.
func (u *User) Pending() bool {
	return !u.Approved
}
