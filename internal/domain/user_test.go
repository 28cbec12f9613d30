package domain_test

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stellae/stellae-api/internal/domain"
)

func TestNewUser(t *testing.T) {
	t.Parallel()

	user, err := domain.NewUser("user@example.com", "correct-horse-battery")

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, user.ID)
	assert.Equal(t, "user@example.com", user.Email)
	assert.Equal(t, "correct-horse-battery", user.Password)
	assert.Empty(t, user.HashedPassword)
}

func TestNewUserValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{
			name:     "empty email",
			email:    "",
			password: "correct-horse-battery",
			wantErr:  domain.ErrEmptyEmail,
		},
		{
			name:     "malformed email",
			email:    "not-an-email",
			password: "correct-horse-battery",
			wantErr:  domain.ErrInvalidEmail,
		},
		{
			name:     "password too short",
			email:    "user@example.com",
			password: "short",
			wantErr:  domain.ErrPasswordTooShort,
		},
		{
			name:     "password too long",
			email:    "user@example.com",
			password: strings.Repeat("x", 73),
			wantErr:  domain.ErrPasswordTooLong,
		},
		{
			name:     "empty password",
			email:    "user@example.com",
			password: "",
			wantErr:  domain.ErrEmptyPassword,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := domain.NewUser(tt.email, tt.password)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestUserValidateStoredUser(t *testing.T) {
	t.Parallel()

	// Users loaded from the store carry only the hash.
	user := &domain.User{
		ID:             uuid.New(),
		Email:          "user@example.com",
		HashedPassword: "$2a$10$abcdefghijklmnopqrstuv",
	}

	assert.NoError(t, user.Validate())
}
