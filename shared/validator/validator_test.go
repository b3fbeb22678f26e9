package validator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signupForm struct {
	Email       string    `json:"email"         validate:"required,email"`
	Phone       string    `json:"phone"         validate:"required,e164"`
	DateOfBirth time.Time `json:"date_of_birth" validate:"required,adult"`
}

func TestStructValid(t *testing.T) {
	v, err := New()
	require.NoError(t, err)

	fields := v.Struct(signupForm{
		Email:       "alice@example.com",
		Phone:       "+15551234567",
		DateOfBirth: time.Date(1990, time.May, 10, 0, 0, 0, 0, time.UTC),
	})
	assert.Nil(t, fields)
}

func TestStructFieldMessagesUseJSONNames(t *testing.T) {
	v, err := New()
	require.NoError(t, err)

	fields := v.Struct(signupForm{
		Email:       "not-an-email",
		Phone:       "555-1234",
		DateOfBirth: time.Date(1990, time.May, 10, 0, 0, 0, 0, time.UTC),
	})
	require.NotNil(t, fields)

	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "phone")
	assert.NotContains(t, fields, "Email")
}

func TestAdultRule(t *testing.T) {
	v, err := New()
	require.NoError(t, err)

	form := signupForm{
		Email: "alice@example.com",
		Phone: "+15551234567",
	}

	form.DateOfBirth = time.Now().AddDate(-17, 0, 0)
	fields := v.Struct(form)
	require.NotNil(t, fields)
	assert.Contains(t, fields["date_of_birth"], "at least 18")

	form.DateOfBirth = time.Now().AddDate(-18, 0, -1)
	assert.Nil(t, v.Struct(form))
}
