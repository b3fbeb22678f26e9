package userapi

import "github.com/vasapolrittideah/member-portal-api/services/registry-service/internal/model"

// FromModel converts a canonical user record into its wire form. Credential
// digests are dropped.
func FromModel(u *model.User) User {
	return User{
		ID:               u.ID,
		Username:         u.Username,
		Email:            u.Email,
		Phone:            u.Phone,
		FirstName:        u.FirstName,
		LastName:         u.LastName,
		DateOfBirth:      u.DateOfBirth,
		SecurityQuestion: u.SecurityQuestion,
		Admin:            u.Admin,
		Approved:         u.Approved,
		Active:           u.Active,
		CreatedAt:        u.CreatedAt,
		UpdatedAt:        u.UpdatedAt,
	}
}

// ToModel converts a wire user back into the canonical record shape.
func (u *User) ToModel() *model.User {
	return &model.User{
		ID:               u.ID,
		Username:         u.Username,
		Email:            u.Email,
		Phone:            u.Phone,
		FirstName:        u.FirstName,
		LastName:         u.LastName,
		DateOfBirth:      u.DateOfBirth,
		SecurityQuestion: u.SecurityQuestion,
		Admin:            u.Admin,
		Approved:         u.Approved,
		Active:           u.Active,
		CreatedAt:        u.CreatedAt,
		UpdatedAt:        u.UpdatedAt,
	}
}
